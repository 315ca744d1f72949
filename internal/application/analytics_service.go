package application

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	// MaxAnalyticsDays bounds day-based analytics windows.
	MaxAnalyticsDays = 366
	// MaxAnalyticsWeeks bounds week-based analytics windows.
	MaxAnalyticsWeeks = 52
)

// Recommendation messages produced by GenerateRecommendations.
const (
	RecommendConsistency   = "Try to maintain more consistent daily focus sessions for better results."
	RecommendSuccessDrop   = "Your success rate decreased this week. Consider reviewing your break schedule."
	RecommendLongerFocus   = "Consider longer focus sessions (25+ minutes) for deeper concentration."
	RecommendShorterFocus  = "Try shorter sessions with more frequent breaks to maintain focus quality."
	maxRecommendations     = 3
	consistentDaysRequired = 5
	shortSessionSeconds    = 20 * 60
	longSessionSeconds     = 35 * 60
)

// SessionLister is the read side of the session store used by analytics.
type SessionLister interface {
	ListSessions(ctx context.Context, query SessionQuery) ([]Session, error)
}

// AnalyticsOption customises an AnalyticsService.
type AnalyticsOption func(*AnalyticsService)

// WithAnalyticsLocation sets the timezone used for day, week and hour boundaries.
func WithAnalyticsLocation(loc *time.Location) AnalyticsOption {
	return func(s *AnalyticsService) {
		if loc != nil {
			s.location = loc
		}
	}
}

// WithInsightsCacheTTL sets how long computed insights are reused.
func WithInsightsCacheTTL(ttl time.Duration) AnalyticsOption {
	return func(s *AnalyticsService) {
		s.cache = newInsightsCache(ttl, 0, s.now)
	}
}

// AnalyticsService computes read-only statistics from a user's session history.
type AnalyticsService struct {
	sessions SessionLister
	now      func() time.Time
	logger   *slog.Logger
	location *time.Location
	cache    *insightsCache
}

// NewAnalyticsService wires dependencies for the analytics service.
func NewAnalyticsService(sessions SessionLister, now func() time.Time) *AnalyticsService {
	return NewAnalyticsServiceWithLogger(sessions, now, nil)
}

// NewAnalyticsServiceWithLogger wires dependencies and a logger for the analytics service.
func NewAnalyticsServiceWithLogger(sessions SessionLister, now func() time.Time, logger *slog.Logger, opts ...AnalyticsOption) *AnalyticsService {
	if now == nil {
		now = time.Now
	}
	s := &AnalyticsService{
		sessions: sessions,
		now:      now,
		logger:   defaultLogger(logger),
		location: time.UTC,
	}
	s.cache = newInsightsCache(0, 0, now)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *AnalyticsService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AnalyticsService", operation, attrs...)
}

func (s *AnalyticsService) ready() error {
	if s == nil {
		return fmt.Errorf("AnalyticsService is nil")
	}
	if s.sessions == nil {
		return fmt.Errorf("session repository not configured")
	}
	return nil
}

// InvalidateUser discards cached insights for userID.
func (s *AnalyticsService) InvalidateUser(userID string) {
	if s == nil {
		return
	}
	s.cache.Invalidate(userID)
}

func validateWindow(field string, value, max int) error {
	if value >= 1 && value <= max {
		return nil
	}
	vErr := &ValidationError{}
	vErr.add(field, fmt.Sprintf("%s must be between 1 and %d", field, max))
	return vErr
}

func (s *AnalyticsService) list(ctx context.Context, query SessionQuery) ([]Session, error) {
	sessions, err := s.sessions.ListSessions(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

// GetDailyStats returns one zero-filled bucket per calendar day for the
// trailing days (today included), oldest first.
func (s *AnalyticsService) GetDailyStats(ctx context.Context, userID string, days int) ([]DailyStats, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if err := validateWindow("days", days, MaxAnalyticsDays); err != nil {
		return nil, err
	}

	today := startOfDay(s.now(), s.location)
	from := today.AddDate(0, 0, -(days - 1))
	to := today.AddDate(0, 0, 1)
	sessions, err := s.list(ctx, SessionQuery{
		UserID:        userID,
		StartedFrom:   &from,
		StartedBefore: &to,
		Ascending:     true,
	})
	if err != nil {
		return nil, err
	}

	keys := make([]string, days)
	for i := range keys {
		keys[i] = from.AddDate(0, 0, i).Format(dateKeyLayout)
	}

	buckets := aggregateSessions(sessions, keys, dayKey(s.location))
	stats := make([]DailyStats, len(buckets))
	for i, bucket := range buckets {
		stats[i] = DailyStats{
			Date:              bucket.Key,
			TotalFocusTime:    bucket.Focus,
			CompletedSessions: bucket.Completed,
			TotalSessions:     bucket.Total,
			SuccessRate:       bucket.successRate(),
		}
	}
	return stats, nil
}

// GetWeeklyStats returns one bucket per Monday-start week for the trailing
// weeks (the current week included), oldest first.
func (s *AnalyticsService) GetWeeklyStats(ctx context.Context, userID string, weeks int) ([]WeeklyStats, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if err := validateWindow("weeks", weeks, MaxAnalyticsWeeks); err != nil {
		return nil, err
	}

	current := startOfWeek(s.now(), s.location)
	from := current.AddDate(0, 0, -7*(weeks-1))
	to := current.AddDate(0, 0, 7)
	sessions, err := s.list(ctx, SessionQuery{
		UserID:        userID,
		StartedFrom:   &from,
		StartedBefore: &to,
		Ascending:     true,
	})
	if err != nil {
		return nil, err
	}

	keys := make([]string, weeks)
	for i := range keys {
		keys[i] = from.AddDate(0, 0, 7*i).Format(dateKeyLayout)
	}

	buckets := aggregateSessions(sessions, keys, func(session Session) string {
		return startOfWeek(session.StartedAt, s.location).Format(dateKeyLayout)
	})
	stats := make([]WeeklyStats, len(buckets))
	for i, bucket := range buckets {
		stats[i] = WeeklyStats{
			Week:                 bucket.Key,
			TotalFocusTime:       bucket.Focus,
			CompletedSessions:    bucket.Completed,
			AverageSessionLength: bucket.averageLength(),
			SuccessRate:          bucket.successRate(),
		}
	}
	return stats, nil
}

// completedSince lists the completed sessions started in [now-days, now].
func (s *AnalyticsService) completedSince(ctx context.Context, userID string, days int) ([]Session, error) {
	now := s.now()
	from := now.AddDate(0, 0, -days)
	to := now.Add(time.Nanosecond)
	return s.list(ctx, SessionQuery{
		UserID:        userID,
		Statuses:      []SessionStatus{SessionStatusCompleted},
		StartedFrom:   &from,
		StartedBefore: &to,
		Ascending:     true,
	})
}

// GetProductivityByHour returns 24 buckets of completed sessions grouped by
// the local hour they started in.
func (s *AnalyticsService) GetProductivityByHour(ctx context.Context, userID string, days int) ([]ProductivityHour, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if err := validateWindow("days", days, MaxAnalyticsDays); err != nil {
		return nil, err
	}

	sessions, err := s.completedSince(ctx, userID, days)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 24)
	for hour := range keys {
		keys[hour] = strconv.Itoa(hour)
	}
	buckets := aggregateSessions(sessions, keys, func(session Session) string {
		return strconv.Itoa(session.StartedAt.In(s.location).Hour())
	})

	hours := make([]ProductivityHour, len(buckets))
	for hour, bucket := range buckets {
		hours[hour] = ProductivityHour{
			Hour:                 hour,
			TotalFocusTime:       bucket.Focus,
			CompletedSessions:    bucket.Completed,
			AverageSessionLength: bucket.averageLength(),
		}
	}
	return hours, nil
}

// GetSessionTypeDistribution returns the share of completed sessions per type.
func (s *AnalyticsService) GetSessionTypeDistribution(ctx context.Context, userID string, days int) ([]SessionTypeDistribution, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if err := validateWindow("days", days, MaxAnalyticsDays); err != nil {
		return nil, err
	}

	sessions, err := s.completedSince(ctx, userID, days)
	if err != nil {
		return nil, err
	}

	keyOf := func(session Session) string {
		if session.Type == "" {
			return "unknown"
		}
		return string(session.Type)
	}
	seen := make(map[string]bool)
	for _, session := range sessions {
		seen[keyOf(session)] = true
	}
	keys := orderedTypeKeys(seen)

	buckets := aggregateSessions(sessions, keys, keyOf)
	distribution := make([]SessionTypeDistribution, len(buckets))
	for i, bucket := range buckets {
		distribution[i] = SessionTypeDistribution{
			Type:       bucket.Key,
			Count:      bucket.Completed,
			TotalTime:  bucket.Focus,
			Percentage: percentage(bucket.Completed, len(sessions)),
		}
	}
	return distribution, nil
}

// orderedTypeKeys lists the known session types first, then the rest sorted.
func orderedTypeKeys(seen map[string]bool) []string {
	keys := make([]string, 0, len(seen))
	known := []SessionType{SessionTypeWork, SessionTypeBreak, SessionTypeLongBreak}
	for _, sessionType := range known {
		if seen[string(sessionType)] {
			keys = append(keys, string(sessionType))
			delete(seen, string(sessionType))
		}
	}
	rest := make([]string, 0, len(seen))
	for key := range seen {
		rest = append(rest, key)
	}
	sort.Strings(rest)
	return append(keys, rest...)
}

// GetInsights derives peak hour, streak and week-over-week figures plus
// recommendations. Results are cached per user until a session changes.
func (s *AnalyticsService) GetInsights(ctx context.Context, userID string) (insights AnalyticsInsights, err error) {
	if err = s.ready(); err != nil {
		return
	}
	if cached, ok := s.cache.Get(userID); ok {
		return cached, nil
	}
	logger := s.loggerWith(ctx, "GetInsights", "user_id", userID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to compute insights", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	var (
		hours     []ProductivityHour
		fortnight []DailyStats
		weekly    []WeeklyStats
	)
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() (gerr error) {
		hours, gerr = s.GetProductivityByHour(groupCtx, userID, 30)
		return
	})
	group.Go(func() (gerr error) {
		fortnight, gerr = s.GetDailyStats(groupCtx, userID, 14)
		return
	})
	group.Go(func() (gerr error) {
		weekly, gerr = s.GetWeeklyStats(groupCtx, userID, 4)
		return
	})
	if err = group.Wait(); err != nil {
		return
	}

	lastWeek, thisWeek := fortnight[:7], fortnight[7:]
	thisTotal := totalFocus(thisWeek)
	lastTotal := totalFocus(lastWeek)

	insights = AnalyticsInsights{
		PeakProductivityHour:   peakHour(hours),
		AverageDailyFocusTime:  roundHalfUp(float64(thisTotal) / float64(len(thisWeek))),
		CurrentStreak:          currentStreak(thisWeek),
		TotalFocusTimeThisWeek: thisTotal,
		MostProductiveDay:      s.mostProductiveDay(thisWeek),
		Recommendations:        GenerateRecommendations(thisWeek, hours, weekly),
	}
	if lastTotal > 0 {
		insights.ImprovementFromLastWeek = roundHalfUp(float64(thisTotal-lastTotal) / float64(lastTotal) * 100)
	}

	s.cache.Store(userID, insights)
	return insights, nil
}

func totalFocus(days []DailyStats) int {
	total := 0
	for _, day := range days {
		total += day.TotalFocusTime
	}
	return total
}

// peakHour returns the hour with the most focus time, the earliest on ties.
func peakHour(hours []ProductivityHour) int {
	if len(hours) == 0 {
		return 0
	}
	peak := hours[0]
	for _, hour := range hours[1:] {
		if hour.TotalFocusTime > peak.TotalFocusTime {
			peak = hour
		}
	}
	return peak.Hour
}

// currentStreak counts consecutive days with a completed session, walking
// back from the most recent day.
func currentStreak(days []DailyStats) int {
	streak := 0
	for i := len(days) - 1; i >= 0; i-- {
		if days[i].CompletedSessions == 0 {
			break
		}
		streak++
	}
	return streak
}

func (s *AnalyticsService) mostProductiveDay(days []DailyStats) string {
	if len(days) == 0 {
		return ""
	}
	best := days[0]
	for _, day := range days[1:] {
		if day.TotalFocusTime > best.TotalFocusTime {
			best = day
		}
	}
	date, err := time.ParseInLocation(dateKeyLayout, best.Date, s.location)
	if err != nil {
		return ""
	}
	return date.Weekday().String()
}

// GenerateRecommendations applies the recommendation rules in order and
// returns at most three messages.
func GenerateRecommendations(daily []DailyStats, hours []ProductivityHour, weekly []WeeklyStats) []string {
	recommendations := make([]string, 0, 4)

	activeDays := 0
	sessionLengths := 0.0
	for _, day := range daily {
		if day.CompletedSessions > 0 {
			activeDays++
			sessionLengths += float64(day.TotalFocusTime) / float64(day.CompletedSessions)
		}
	}
	if activeDays < consistentDaysRequired {
		recommendations = append(recommendations, RecommendConsistency)
	}

	peak := peakHour(hours)
	if peak < 12 {
		recommendations = append(recommendations, fmt.Sprintf("Your peak productivity is at %d:00. Consider scheduling important tasks in the morning.", peak))
	} else {
		recommendations = append(recommendations, fmt.Sprintf("Your peak productivity is at %d:00. You work best in the afternoon/evening.", peak))
	}

	if n := len(weekly); n >= 2 && weekly[n-1].SuccessRate < weekly[n-2].SuccessRate {
		recommendations = append(recommendations, RecommendSuccessDrop)
	}

	if activeDays > 0 {
		average := sessionLengths / float64(activeDays)
		switch {
		case average < shortSessionSeconds:
			recommendations = append(recommendations, RecommendLongerFocus)
		case average > longSessionSeconds:
			recommendations = append(recommendations, RecommendShorterFocus)
		}
	}

	if len(recommendations) > maxRecommendations {
		recommendations = recommendations[:maxRecommendations]
	}
	return recommendations
}

// GetOverview fetches every analytics view concurrently. Any failure fails the call.
func (s *AnalyticsService) GetOverview(ctx context.Context, userID string) (overview AnalyticsOverview, err error) {
	if err = s.ready(); err != nil {
		return
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() (gerr error) {
		overview.Daily, gerr = s.GetDailyStats(groupCtx, userID, 7)
		return
	})
	group.Go(func() (gerr error) {
		overview.Weekly, gerr = s.GetWeeklyStats(groupCtx, userID, 4)
		return
	})
	group.Go(func() (gerr error) {
		overview.ProductivityHours, gerr = s.GetProductivityByHour(groupCtx, userID, 30)
		return
	})
	group.Go(func() (gerr error) {
		overview.SessionTypes, gerr = s.GetSessionTypeDistribution(groupCtx, userID, 30)
		return
	})
	group.Go(func() (gerr error) {
		overview.Insights, gerr = s.GetInsights(groupCtx, userID)
		return
	})
	if err = group.Wait(); err != nil {
		s.loggerWith(ctx, "GetOverview", "user_id", userID).
			ErrorContext(ctx, "failed to build overview", "error", err, "error_kind", ErrorKind(err))
		return AnalyticsOverview{}, err
	}
	return overview, nil
}
