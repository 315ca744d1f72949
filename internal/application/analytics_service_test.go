package application

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"
)

func at(day, hour int) time.Time {
	return time.Date(2024, 3, 1, hour, 0, 0, 0, time.UTC).AddDate(0, 0, day-1)
}

func TestAnalyticsService_GetDailyStats(t *testing.T) {
	t.Parallel()

	t.Run("zero-fills every day", func(t *testing.T) {
		t.Parallel()

		svc := NewAnalyticsService(newSessionRepositoryStub(), fixedNow(referenceTime))
		stats, err := svc.GetDailyStats(context.Background(), "u1", 7)
		if err != nil {
			t.Fatalf("GetDailyStats returned error: %v", err)
		}
		if len(stats) != 7 {
			t.Fatalf("expected 7 buckets, got %d", len(stats))
		}
		if stats[0].Date != "2024-02-27" || stats[6].Date != "2024-03-04" {
			t.Fatalf("unexpected window %s..%s", stats[0].Date, stats[6].Date)
		}
		for _, day := range stats {
			if day.TotalSessions != 0 || day.CompletedSessions != 0 || day.TotalFocusTime != 0 || day.SuccessRate != 0 {
				t.Fatalf("expected zero bucket, got %+v", day)
			}
		}
	})

	t.Run("aggregates sessions per day", func(t *testing.T) {
		t.Parallel()

		repo := newSessionRepositoryStub(
			completedSession("s-1", "u1", SessionTypeWork, at(3, 9), 1500),
			completedSession("s-2", "u1", SessionTypeBreak, at(3, 10), 300),
			sessionWithStatus("s-3", "u1", SessionTypeWork, SessionStatusInterrupted, at(3, 11)),
			completedSession("s-4", "u2", SessionTypeWork, at(3, 9), 1500),
		)
		svc := NewAnalyticsService(repo, fixedNow(referenceTime))

		stats, err := svc.GetDailyStats(context.Background(), "u1", 2)
		if err != nil {
			t.Fatalf("GetDailyStats returned error: %v", err)
		}
		want := []DailyStats{
			{Date: "2024-03-03", TotalFocusTime: 1800, CompletedSessions: 2, TotalSessions: 3, SuccessRate: 67},
			{Date: "2024-03-04"},
		}
		if !reflect.DeepEqual(stats, want) {
			t.Fatalf("expected %+v, got %+v", want, stats)
		}
	})

	t.Run("validates the window", func(t *testing.T) {
		t.Parallel()

		svc := NewAnalyticsService(newSessionRepositoryStub(), fixedNow(referenceTime))
		for _, days := range []int{0, -1, MaxAnalyticsDays + 1} {
			_, err := svc.GetDailyStats(context.Background(), "u1", days)
			var vErr *ValidationError
			if !errors.As(err, &vErr) || vErr.FieldErrors["days"] == "" {
				t.Fatalf("days=%d: expected validation error, got %v", days, err)
			}
		}
		if _, err := svc.GetWeeklyStats(context.Background(), "u1", MaxAnalyticsWeeks+1); err == nil {
			t.Fatalf("expected weeks validation error")
		}
	})
}

func TestAnalyticsService_GetWeeklyStats(t *testing.T) {
	t.Parallel()

	repo := newSessionRepositoryStub(
		completedSession("s-1", "u1", SessionTypeWork, time.Date(2024, 2, 28, 9, 0, 0, 0, time.UTC), 1200),
		completedSession("s-2", "u1", SessionTypeWork, time.Date(2024, 3, 3, 21, 0, 0, 0, time.UTC), 1800),
		completedSession("s-3", "u1", SessionTypeWork, time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC), 600),
		sessionWithStatus("s-4", "u1", SessionTypeWork, SessionStatusAborted, time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)),
	)
	svc := NewAnalyticsService(repo, fixedNow(referenceTime))

	stats, err := svc.GetWeeklyStats(context.Background(), "u1", 2)
	if err != nil {
		t.Fatalf("GetWeeklyStats returned error: %v", err)
	}
	want := []WeeklyStats{
		{Week: "2024-02-26", TotalFocusTime: 3000, CompletedSessions: 2, AverageSessionLength: 1500, SuccessRate: 100},
		{Week: "2024-03-04", TotalFocusTime: 600, CompletedSessions: 1, AverageSessionLength: 600, SuccessRate: 50},
	}
	if !reflect.DeepEqual(stats, want) {
		t.Fatalf("expected %+v, got %+v", want, stats)
	}
}

func TestAnalyticsService_GetProductivityByHour(t *testing.T) {
	t.Parallel()

	t.Run("groups completed sessions by start hour", func(t *testing.T) {
		t.Parallel()

		repo := newSessionRepositoryStub(
			completedSession("s-1", "u1", SessionTypeWork, at(1, 14), 1500),
			completedSession("s-2", "u1", SessionTypeWork, at(2, 14), 900),
			sessionWithStatus("s-3", "u1", SessionTypeWork, SessionStatusInterrupted, at(2, 9)),
			completedSession("s-old", "u1", SessionTypeWork, time.Date(2024, 1, 10, 14, 0, 0, 0, time.UTC), 1500),
		)
		svc := NewAnalyticsService(repo, fixedNow(referenceTime))

		hours, err := svc.GetProductivityByHour(context.Background(), "u1", 30)
		if err != nil {
			t.Fatalf("GetProductivityByHour returned error: %v", err)
		}
		if len(hours) != 24 {
			t.Fatalf("expected 24 buckets, got %d", len(hours))
		}
		want := ProductivityHour{Hour: 14, TotalFocusTime: 2400, CompletedSessions: 2, AverageSessionLength: 1200}
		if hours[14] != want {
			t.Fatalf("expected %+v, got %+v", want, hours[14])
		}
		if hours[9] != (ProductivityHour{Hour: 9}) {
			t.Fatalf("interrupted sessions must not count, got %+v", hours[9])
		}
	})

	t.Run("uses the configured timezone", func(t *testing.T) {
		t.Parallel()

		tokyo := time.FixedZone("JST", 9*60*60)
		repo := newSessionRepositoryStub(
			completedSession("s-1", "u1", SessionTypeWork, time.Date(2024, 3, 2, 23, 0, 0, 0, time.UTC), 1500),
		)
		svc := NewAnalyticsServiceWithLogger(repo, fixedNow(referenceTime), nil, WithAnalyticsLocation(tokyo))

		hours, err := svc.GetProductivityByHour(context.Background(), "u1", 7)
		if err != nil {
			t.Fatalf("GetProductivityByHour returned error: %v", err)
		}
		if hours[8].CompletedSessions != 1 || hours[23].CompletedSessions != 0 {
			t.Fatalf("expected the session at 08:00 local time, got 8=%+v 23=%+v", hours[8], hours[23])
		}
	})
}

func TestAnalyticsService_GetSessionTypeDistribution(t *testing.T) {
	t.Parallel()

	repo := newSessionRepositoryStub(
		completedSession("s-1", "u1", SessionTypeBreak, at(1, 10), 300),
		completedSession("s-2", "u1", SessionTypeWork, at(1, 9), 1500),
		completedSession("s-3", "u1", SessionTypeWork, at(2, 9), 1500),
		completedSession("s-4", "u1", SessionTypeWork, at(3, 9), 1200),
		sessionWithStatus("s-5", "u1", SessionTypeLongBreak, SessionStatusInterrupted, at(3, 10)),
	)
	svc := NewAnalyticsService(repo, fixedNow(referenceTime))

	distribution, err := svc.GetSessionTypeDistribution(context.Background(), "u1", 30)
	if err != nil {
		t.Fatalf("GetSessionTypeDistribution returned error: %v", err)
	}
	want := []SessionTypeDistribution{
		{Type: "work", Count: 3, TotalTime: 4200, Percentage: 75},
		{Type: "break", Count: 1, TotalTime: 300, Percentage: 25},
	}
	if !reflect.DeepEqual(distribution, want) {
		t.Fatalf("expected %+v, got %+v", want, distribution)
	}
}

func TestOrderedTypeKeys(t *testing.T) {
	t.Parallel()

	got := orderedTypeKeys(map[string]bool{"unknown": true, "longBreak": true, "custom": true, "work": true})
	want := []string{"work", "longBreak", "custom", "unknown"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func dailyWith(days, sessionsPerDay, focusPerSession int) []DailyStats {
	out := make([]DailyStats, 7)
	for i := range out {
		out[i].Date = referenceTime.AddDate(0, 0, i-6).Format(dateKeyLayout)
	}
	for i := 0; i < days; i++ {
		out[6-i].CompletedSessions = sessionsPerDay
		out[6-i].TotalSessions = sessionsPerDay
		out[6-i].TotalFocusTime = sessionsPerDay * focusPerSession
	}
	return out
}

func hoursPeakingAt(hour int) []ProductivityHour {
	hours := make([]ProductivityHour, 24)
	for i := range hours {
		hours[i].Hour = i
	}
	hours[hour].TotalFocusTime = 3000
	return hours
}

func TestGenerateRecommendations(t *testing.T) {
	t.Parallel()

	morning := "Your peak productivity is at 9:00. Consider scheduling important tasks in the morning."
	evening := "Your peak productivity is at 15:00. You work best in the afternoon/evening."
	steady := []WeeklyStats{{SuccessRate: 80}, {SuccessRate: 80}}

	tests := []struct {
		name   string
		daily  []DailyStats
		hours  []ProductivityHour
		weekly []WeeklyStats
		want   []string
	}{
		{
			name:   "short sessions suggest longer focus",
			daily:  dailyWith(7, 2, 15*60),
			hours:  hoursPeakingAt(9),
			weekly: steady,
			want:   []string{morning, RecommendLongerFocus},
		},
		{
			name:   "long sessions suggest shorter focus",
			daily:  dailyWith(7, 1, 40*60),
			hours:  hoursPeakingAt(15),
			weekly: steady,
			want:   []string{evening, RecommendShorterFocus},
		},
		{
			name:   "balanced sessions need no length advice",
			daily:  dailyWith(5, 1, 25*60),
			hours:  hoursPeakingAt(9),
			weekly: steady,
			want:   []string{morning},
		},
		{
			name:   "success drop is reported",
			daily:  dailyWith(6, 1, 25*60),
			hours:  hoursPeakingAt(15),
			weekly: []WeeklyStats{{SuccessRate: 90}, {SuccessRate: 80}, {SuccessRate: 60}},
			want:   []string{evening, RecommendSuccessDrop},
		},
		{
			name:   "inactive week skips length advice",
			daily:  dailyWith(0, 0, 0),
			hours:  make([]ProductivityHour, 24),
			weekly: nil,
			want:   []string{RecommendConsistency, "Your peak productivity is at 0:00. Consider scheduling important tasks in the morning."},
		},
		{
			name:   "caps at three messages",
			daily:  dailyWith(2, 1, 10*60),
			hours:  hoursPeakingAt(9),
			weekly: []WeeklyStats{{SuccessRate: 80}, {SuccessRate: 60}},
			want:   []string{RecommendConsistency, morning, RecommendSuccessDrop},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := GenerateRecommendations(tt.daily, tt.hours, tt.weekly)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func insightsFixture() *sessionRepositoryStub {
	return newSessionRepositoryStub(
		completedSession("s-last", "u1", SessionTypeWork, time.Date(2024, 2, 21, 8, 0, 0, 0, time.UTC), 3000),
		completedSession("s-sat", "u1", SessionTypeWork, time.Date(2024, 3, 2, 8, 0, 0, 0, time.UTC), 1500),
		completedSession("s-sun", "u1", SessionTypeWork, time.Date(2024, 3, 3, 8, 0, 0, 0, time.UTC), 1500),
		completedSession("s-mon", "u1", SessionTypeWork, time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC), 1500),
	)
}

func TestAnalyticsService_GetInsights(t *testing.T) {
	t.Parallel()

	t.Run("derives week over week figures", func(t *testing.T) {
		t.Parallel()

		svc := NewAnalyticsService(insightsFixture(), fixedNow(referenceTime))
		insights, err := svc.GetInsights(context.Background(), "u1")
		if err != nil {
			t.Fatalf("GetInsights returned error: %v", err)
		}
		want := AnalyticsInsights{
			PeakProductivityHour:    8,
			AverageDailyFocusTime:   643,
			CurrentStreak:           3,
			ImprovementFromLastWeek: 50,
			TotalFocusTimeThisWeek:  4500,
			MostProductiveDay:       "Saturday",
			Recommendations: []string{
				RecommendConsistency,
				"Your peak productivity is at 8:00. Consider scheduling important tasks in the morning.",
			},
		}
		if !reflect.DeepEqual(insights, want) {
			t.Fatalf("expected %+v, got %+v", want, insights)
		}
	})

	t.Run("new users get neutral figures", func(t *testing.T) {
		t.Parallel()

		svc := NewAnalyticsService(newSessionRepositoryStub(), fixedNow(referenceTime))
		insights, err := svc.GetInsights(context.Background(), "u1")
		if err != nil {
			t.Fatalf("GetInsights returned error: %v", err)
		}
		if insights.PeakProductivityHour != 0 || insights.CurrentStreak != 0 || insights.ImprovementFromLastWeek != 0 || insights.AverageDailyFocusTime != 0 {
			t.Fatalf("unexpected insights %+v", insights)
		}
		if len(insights.Recommendations) != 2 || insights.Recommendations[0] != RecommendConsistency {
			t.Fatalf("unexpected recommendations %q", insights.Recommendations)
		}
	})

	t.Run("serves cached results until invalidated", func(t *testing.T) {
		t.Parallel()

		repo := insightsFixture()
		svc := NewAnalyticsService(repo, fixedNow(referenceTime))
		first, err := svc.GetInsights(context.Background(), "u1")
		if err != nil {
			t.Fatalf("GetInsights returned error: %v", err)
		}

		boom := errors.New("store offline")
		repo.mu.Lock()
		repo.listErr = boom
		repo.mu.Unlock()

		cached, err := svc.GetInsights(context.Background(), "u1")
		if err != nil {
			t.Fatalf("expected cached insights, got %v", err)
		}
		if !reflect.DeepEqual(first, cached) {
			t.Fatalf("cached insights differ: %+v vs %+v", first, cached)
		}

		svc.InvalidateUser("u1")
		if _, err := svc.GetInsights(context.Background(), "u1"); !errors.Is(err, boom) {
			t.Fatalf("expected store error after invalidation, got %v", err)
		}
	})
}

func TestAnalyticsService_GetOverview(t *testing.T) {
	t.Parallel()

	t.Run("bundles every view", func(t *testing.T) {
		t.Parallel()

		svc := NewAnalyticsService(insightsFixture(), fixedNow(referenceTime))
		overview, err := svc.GetOverview(context.Background(), "u1")
		if err != nil {
			t.Fatalf("GetOverview returned error: %v", err)
		}
		if len(overview.Daily) != 7 || len(overview.Weekly) != 4 || len(overview.ProductivityHours) != 24 {
			t.Fatalf("unexpected overview sizes: daily=%d weekly=%d hours=%d",
				len(overview.Daily), len(overview.Weekly), len(overview.ProductivityHours))
		}
		if len(overview.SessionTypes) != 1 || overview.SessionTypes[0].Count != 4 {
			t.Fatalf("unexpected session types %+v", overview.SessionTypes)
		}
		if overview.Insights.CurrentStreak != 3 {
			t.Fatalf("unexpected insights %+v", overview.Insights)
		}
	})

	t.Run("any failure fails the whole call", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("store offline")
		repo := insightsFixture()
		repo.listErr = boom
		svc := NewAnalyticsService(repo, fixedNow(referenceTime))

		overview, err := svc.GetOverview(context.Background(), "u1")
		if !errors.Is(err, boom) {
			t.Fatalf("expected store error, got %v", err)
		}
		if !reflect.DeepEqual(overview, AnalyticsOverview{}) {
			t.Fatalf("expected zero overview on failure, got %+v", overview)
		}
	})
}
