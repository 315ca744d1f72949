package application

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"
)

func newBlockingFixture(items ...BlocklistItem) *BlocklistService {
	return NewBlocklistService(newBlocklistRepositoryStub(items...), sequenceIDs("item"), fixedNow(referenceTime))
}

func TestSessionService_StartWorkSession(t *testing.T) {
	t.Parallel()

	t.Run("work session activates blocking", func(t *testing.T) {
		t.Parallel()

		blocking := newBlockingFixture(
			websiteItem("item-a", "u1", "youtube.com", true, referenceTime.Add(-2*time.Hour)),
			websiteItem("item-b", "u1", "reddit.com", true, referenceTime.Add(-time.Hour)),
			websiteItem("item-c", "u1", "news.ycombinator.com", false, referenceTime),
			websiteItem("item-d", "u2", "twitter.com", true, referenceTime),
		)
		repo := newSessionRepositoryStub()
		svc := NewSessionService(repo, blocking, sequenceIDs("session"), fixedNow(referenceTime))

		result, err := svc.StartWorkSession(context.Background(), "u1", SessionTypeWork)
		if err != nil {
			t.Fatalf("StartWorkSession returned error: %v", err)
		}
		if len(result.BlockedItems) != 2 {
			t.Fatalf("expected 2 blocked items, got %d", len(result.BlockedItems))
		}
		if result.BlockedItems[0].ID != "item-b" {
			t.Fatalf("expected newest item first, got %s", result.BlockedItems[0].ID)
		}
		session := result.Session
		if session.Status != SessionStatusActive || session.PlannedDuration != 1500 || !session.StartedAt.Equal(referenceTime) {
			t.Fatalf("unexpected session: %+v", session)
		}
		if session.ActualDuration != nil {
			t.Fatalf("expected no actual duration on an active session")
		}

		status, err := svc.GetBlockingStatus(context.Background(), "u1")
		if err != nil {
			t.Fatalf("GetBlockingStatus returned error: %v", err)
		}
		if !status.IsBlocking || len(status.BlockedItems) != 2 {
			t.Fatalf("expected blocking with 2 items, got %+v", status)
		}
		if status.ActiveSession == nil || status.ActiveSession.ID != session.ID {
			t.Fatalf("expected active session %s, got %+v", session.ID, status.ActiveSession)
		}
	})

	t.Run("break session does not block", func(t *testing.T) {
		t.Parallel()

		blocking := newBlockingFixture(websiteItem("item-a", "u1", "youtube.com", true, referenceTime))
		svc := NewSessionService(newSessionRepositoryStub(), blocking, sequenceIDs("session"), fixedNow(referenceTime))

		result, err := svc.StartWorkSession(context.Background(), "u1", SessionTypeBreak)
		if err != nil {
			t.Fatalf("StartWorkSession returned error: %v", err)
		}
		if result.BlockedItems == nil || len(result.BlockedItems) != 0 {
			t.Fatalf("expected empty blocked items, got %#v", result.BlockedItems)
		}
		if result.Session.PlannedDuration != 300 {
			t.Fatalf("expected 300s break, got %d", result.Session.PlannedDuration)
		}

		status, err := svc.GetBlockingStatus(context.Background(), "u1")
		if err != nil {
			t.Fatalf("GetBlockingStatus returned error: %v", err)
		}
		if status.IsBlocking || status.ActiveSession == nil || len(status.BlockedItems) != 0 {
			t.Fatalf("expected non-blocking status with active session, got %+v", status)
		}
	})

	t.Run("rejects a second active session", func(t *testing.T) {
		t.Parallel()

		svc := NewSessionService(newSessionRepositoryStub(), newBlockingFixture(), sequenceIDs("session"), fixedNow(referenceTime))
		if _, err := svc.StartWorkSession(context.Background(), "u1", SessionTypeWork); err != nil {
			t.Fatalf("first start failed: %v", err)
		}
		_, err := svc.StartWorkSession(context.Background(), "u1", SessionTypeLongBreak)
		if !errors.Is(err, ErrActiveSessionExists) {
			t.Fatalf("expected ErrActiveSessionExists, got %v", err)
		}
		if _, err := svc.StartWorkSession(context.Background(), "u2", SessionTypeWork); err != nil {
			t.Fatalf("other users must not be affected: %v", err)
		}
	})

	t.Run("concurrent starts yield one active session", func(t *testing.T) {
		t.Parallel()

		repo := newSessionRepositoryStub()
		svc := NewSessionService(repo, newBlockingFixture(), sequenceIDs("session"), fixedNow(referenceTime))

		const attempts = 8
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			successes int
			conflicts int
		)
		for i := 0; i < attempts; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := svc.StartWorkSession(context.Background(), "u1", SessionTypeWork)
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					successes++
				case errors.Is(err, ErrActiveSessionExists):
					conflicts++
				}
			}()
		}
		wg.Wait()

		if successes != 1 || conflicts != attempts-1 {
			t.Fatalf("expected 1 success and %d conflicts, got %d and %d", attempts-1, successes, conflicts)
		}
		if got := repo.activeCount("u1"); got != 1 {
			t.Fatalf("expected one stored active session, got %d", got)
		}
		if svc.locks.size() != 0 {
			t.Fatalf("expected user locks to be released")
		}
	})

	t.Run("uses user settings for planned duration", func(t *testing.T) {
		t.Parallel()

		provider := settingsProviderStub{settings: Settings{WorkDuration: 50, ShortBreakDuration: 10, LongBreakDuration: 20}}
		svc := NewSessionServiceWithLogger(newSessionRepositoryStub(), nil, sequenceIDs("session"), fixedNow(referenceTime), nil,
			WithSettingsProvider(provider))

		result, err := svc.StartWorkSession(context.Background(), "u1", SessionTypeLongBreak)
		if err != nil {
			t.Fatalf("StartWorkSession returned error: %v", err)
		}
		if result.Session.PlannedDuration != 1200 {
			t.Fatalf("expected 1200s, got %d", result.Session.PlannedDuration)
		}
	})

	t.Run("falls back to configured defaults for unknown users", func(t *testing.T) {
		t.Parallel()

		svc := NewSessionServiceWithLogger(newSessionRepositoryStub(), nil, sequenceIDs("session"), fixedNow(referenceTime), nil,
			WithSettingsProvider(settingsProviderStub{err: ErrNotFound}),
			WithTimerDefaults(TimerDefaults{Work: 45 * time.Minute, ShortBreak: 10 * time.Minute, LongBreak: 30 * time.Minute}))

		result, err := svc.StartWorkSession(context.Background(), "u1", SessionTypeWork)
		if err != nil {
			t.Fatalf("StartWorkSession returned error: %v", err)
		}
		if result.Session.PlannedDuration != 2700 {
			t.Fatalf("expected 2700s, got %d", result.Session.PlannedDuration)
		}
	})

	t.Run("propagates settings failures", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("settings unavailable")
		svc := NewSessionServiceWithLogger(newSessionRepositoryStub(), nil, sequenceIDs("session"), fixedNow(referenceTime), nil,
			WithSettingsProvider(settingsProviderStub{err: boom}))

		if _, err := svc.StartWorkSession(context.Background(), "u1", SessionTypeWork); !errors.Is(err, boom) {
			t.Fatalf("expected settings error, got %v", err)
		}
	})

	t.Run("rejects unknown session types", func(t *testing.T) {
		t.Parallel()

		svc := NewSessionService(newSessionRepositoryStub(), nil, sequenceIDs("session"), fixedNow(referenceTime))
		_, err := svc.StartWorkSession(context.Background(), "u1", SessionType("nap"))
		var vErr *ValidationError
		if !errors.As(err, &vErr) || vErr.FieldErrors["sessionType"] == "" {
			t.Fatalf("expected sessionType validation error, got %v", err)
		}
	})
}

func TestSessionService_EndSession(t *testing.T) {
	t.Parallel()

	type fixture struct {
		svc     *SessionService
		repo    *sessionRepositoryStub
		metrics *metricsRecorder
		changes *[]string
		advance func(time.Duration)
	}
	newFixture := func() fixture {
		current := referenceTime
		var mu sync.Mutex
		now := func() time.Time {
			mu.Lock()
			defer mu.Unlock()
			return current
		}
		changes := []string{}
		f := fixture{
			repo:    newSessionRepositoryStub(),
			metrics: &metricsRecorder{},
			changes: &changes,
			advance: func(d time.Duration) {
				mu.Lock()
				defer mu.Unlock()
				current = current.Add(d)
			},
		}
		f.svc = NewSessionServiceWithLogger(f.repo, newBlockingFixture(), sequenceIDs("session"), now, nil,
			WithSettingsProvider(settingsProviderStub{settings: Settings{WorkDuration: 50, ShortBreakDuration: 5, LongBreakDuration: 15}}),
			WithSessionMetrics(f.metrics),
			WithSessionChangeListener(func(userID string) { changes = append(changes, userID) }),
		)
		return f
	}

	t.Run("completes with floored elapsed seconds", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		started, err := f.svc.StartWorkSession(context.Background(), "u1", SessionTypeWork)
		if err != nil {
			t.Fatalf("StartWorkSession returned error: %v", err)
		}
		f.advance(25*time.Minute + 900*time.Millisecond)

		ended, err := f.svc.EndSession(context.Background(), EndSessionParams{UserID: "u1", SessionID: started.Session.ID, Completed: true})
		if err != nil {
			t.Fatalf("EndSession returned error: %v", err)
		}
		if ended.Status != SessionStatusCompleted {
			t.Fatalf("expected completed, got %s", ended.Status)
		}
		if ended.ActualDuration == nil || *ended.ActualDuration != 1500 {
			t.Fatalf("expected actual duration 1500 regardless of the 3000s plan, got %v", ended.ActualDuration)
		}
		if ended.PlannedDuration != 3000 {
			t.Fatalf("expected planned duration to stay 3000, got %d", ended.PlannedDuration)
		}
		if ended.CompletedAt == nil || !ended.CompletedAt.Equal(referenceTime.Add(25*time.Minute+900*time.Millisecond)) {
			t.Fatalf("unexpected completedAt %v", ended.CompletedAt)
		}
		if ended.InterruptionCount != 0 || ended.InterruptionReason != nil {
			t.Fatalf("completed sessions must not record interruptions: %+v", ended)
		}
		if !reflect.DeepEqual(f.metrics.started, []string{"work"}) || !reflect.DeepEqual(f.metrics.ended, []string{"work:completed"}) {
			t.Fatalf("unexpected metrics: started=%v ended=%v", f.metrics.started, f.metrics.ended)
		}
		if !reflect.DeepEqual(*f.changes, []string{"u1", "u1"}) {
			t.Fatalf("expected change notifications for start and end, got %v", *f.changes)
		}

		status, err := f.svc.GetBlockingStatus(context.Background(), "u1")
		if err != nil {
			t.Fatalf("GetBlockingStatus returned error: %v", err)
		}
		if status.IsBlocking || status.ActiveSession != nil {
			t.Fatalf("expected blocking to end with the session, got %+v", status)
		}
	})

	t.Run("interruption records reason and count", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		started, err := f.svc.StartWorkSession(context.Background(), "u1", SessionTypeWork)
		if err != nil {
			t.Fatalf("StartWorkSession returned error: %v", err)
		}
		f.advance(10 * time.Minute)

		ended, err := f.svc.EndSession(context.Background(), EndSessionParams{
			UserID:             "u1",
			SessionID:          started.Session.ID,
			InterruptionReason: stringPtr("  phone call  "),
		})
		if err != nil {
			t.Fatalf("EndSession returned error: %v", err)
		}
		if ended.Status != SessionStatusInterrupted || ended.InterruptionCount != 1 {
			t.Fatalf("expected interrupted with count 1, got %+v", ended)
		}
		if ended.InterruptionReason == nil || *ended.InterruptionReason != "phone call" {
			t.Fatalf("expected trimmed reason, got %v", ended.InterruptionReason)
		}
		if *ended.ActualDuration != 600 {
			t.Fatalf("expected 600s, got %d", *ended.ActualDuration)
		}
	})

	t.Run("rejects sessions that are not active", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		started, err := f.svc.StartWorkSession(context.Background(), "u1", SessionTypeBreak)
		if err != nil {
			t.Fatalf("StartWorkSession returned error: %v", err)
		}
		params := EndSessionParams{UserID: "u1", SessionID: started.Session.ID, Completed: true}
		if _, err := f.svc.EndSession(context.Background(), params); err != nil {
			t.Fatalf("first EndSession failed: %v", err)
		}
		if _, err := f.svc.EndSession(context.Background(), params); !errors.Is(err, ErrSessionNotActive) {
			t.Fatalf("expected ErrSessionNotActive, got %v", err)
		}
	})

	t.Run("hides other users' sessions", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		started, err := f.svc.StartWorkSession(context.Background(), "u1", SessionTypeWork)
		if err != nil {
			t.Fatalf("StartWorkSession returned error: %v", err)
		}
		if _, err := f.svc.EndSession(context.Background(), EndSessionParams{UserID: "u2", SessionID: started.Session.ID}); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound for foreign session, got %v", err)
		}
		if _, err := f.svc.EndSession(context.Background(), EndSessionParams{UserID: "u1", SessionID: "missing"}); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound for missing session, got %v", err)
		}
	})

	t.Run("clamps negative elapsed time to zero", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		started, err := f.svc.StartWorkSession(context.Background(), "u1", SessionTypeWork)
		if err != nil {
			t.Fatalf("StartWorkSession returned error: %v", err)
		}
		f.advance(-time.Minute)

		ended, err := f.svc.EndSession(context.Background(), EndSessionParams{UserID: "u1", SessionID: started.Session.ID, Completed: true})
		if err != nil {
			t.Fatalf("EndSession returned error: %v", err)
		}
		if *ended.ActualDuration != 0 {
			t.Fatalf("expected 0s, got %d", *ended.ActualDuration)
		}
	})
}

func TestSessionService_GetCurrentActiveSession(t *testing.T) {
	t.Parallel()

	repo := newSessionRepositoryStub(
		completedSession("s-1", "u1", SessionTypeWork, referenceTime.Add(-time.Hour), 1500),
	)
	svc := NewSessionService(repo, nil, sequenceIDs("session"), fixedNow(referenceTime))

	if _, err := svc.GetCurrentActiveSession(context.Background(), "u1"); !errors.Is(err, ErrNoActiveSession) {
		t.Fatalf("expected ErrNoActiveSession, got %v", err)
	}

	status, err := svc.GetBlockingStatus(context.Background(), "u1")
	if err != nil {
		t.Fatalf("GetBlockingStatus returned error: %v", err)
	}
	if status.IsBlocking || status.ActiveSession != nil || status.BlockedItems == nil {
		t.Fatalf("expected idle status with empty items, got %+v", status)
	}

	repo.sessions["s-2"] = sessionWithStatus("s-2", "u1", SessionTypeWork, SessionStatusActive, referenceTime.Add(-time.Minute))
	active, err := svc.GetCurrentActiveSession(context.Background(), "u1")
	if err != nil {
		t.Fatalf("GetCurrentActiveSession returned error: %v", err)
	}
	if active.ID != "s-2" {
		t.Fatalf("expected s-2, got %s", active.ID)
	}
}

func TestSessionService_GetTodayStats(t *testing.T) {
	t.Parallel()

	t.Run("summarises today's sessions", func(t *testing.T) {
		t.Parallel()

		day := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
		interrupted := sessionWithStatus("s-4", "u1", SessionTypeWork, SessionStatusInterrupted, day.Add(9*time.Hour+10*time.Minute))
		interrupted.InterruptionCount = 1
		repo := newSessionRepositoryStub(
			completedSession("s-1", "u1", SessionTypeWork, day.Add(8*time.Hour), 1000),
			completedSession("s-2", "u1", SessionTypeWork, day.Add(8*time.Hour+30*time.Minute), 1000),
			completedSession("s-3", "u1", SessionTypeWork, day.Add(9*time.Hour), 1000),
			interrupted,
			completedSession("s-yesterday", "u1", SessionTypeWork, day.Add(-time.Hour), 1500),
			completedSession("s-other", "u2", SessionTypeWork, day.Add(8*time.Hour), 1500),
		)
		svc := NewSessionService(repo, nil, nil, fixedNow(referenceTime))

		stats, err := svc.GetTodayStats(context.Background(), "u1")
		if err != nil {
			t.Fatalf("GetTodayStats returned error: %v", err)
		}
		want := TodayStats{
			CompletedSessions: 3,
			WorkSessions:      3,
			TotalFocusTime:    3000,
			Interruptions:     1,
			SuccessRate:       75,
			TotalSessions:     4,
		}
		if stats != want {
			t.Fatalf("expected %+v, got %+v", want, stats)
		}
	})

	t.Run("counts only completed work sessions as focus time", func(t *testing.T) {
		t.Parallel()

		day := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
		noActual := completedSession("s-2", "u1", SessionTypeWork, day.Add(2*time.Hour), 0)
		noActual.ActualDuration = nil
		noActual.PlannedDuration = 1500
		repo := newSessionRepositoryStub(
			completedSession("s-1", "u1", SessionTypeBreak, day.Add(time.Hour), 300),
			noActual,
		)
		svc := NewSessionService(repo, nil, nil, fixedNow(referenceTime))

		stats, err := svc.GetTodayStats(context.Background(), "u1")
		if err != nil {
			t.Fatalf("GetTodayStats returned error: %v", err)
		}
		if stats.CompletedSessions != 2 || stats.WorkSessions != 1 || stats.TotalFocusTime != 1500 {
			t.Fatalf("unexpected stats %+v", stats)
		}
	})

	t.Run("empty day reports zero", func(t *testing.T) {
		t.Parallel()

		svc := NewSessionService(newSessionRepositoryStub(), nil, nil, fixedNow(referenceTime))
		stats, err := svc.GetTodayStats(context.Background(), "u1")
		if err != nil {
			t.Fatalf("GetTodayStats returned error: %v", err)
		}
		if stats != (TodayStats{}) {
			t.Fatalf("expected zero stats, got %+v", stats)
		}
	})

	t.Run("respects the configured timezone", func(t *testing.T) {
		t.Parallel()

		tokyo := time.FixedZone("JST", 9*60*60)
		// 2024-03-04 23:30 UTC is already 2024-03-05 in Tokyo.
		now := time.Date(2024, 3, 4, 23, 30, 0, 0, time.UTC)
		repo := newSessionRepositoryStub(
			completedSession("s-before", "u1", SessionTypeWork, time.Date(2024, 3, 4, 14, 0, 0, 0, time.UTC), 1500),
			completedSession("s-after", "u1", SessionTypeWork, time.Date(2024, 3, 4, 15, 30, 0, 0, time.UTC), 1200),
		)
		svc := NewSessionServiceWithLogger(repo, nil, nil, fixedNow(now), nil, WithSessionLocation(tokyo))

		stats, err := svc.GetTodayStats(context.Background(), "u1")
		if err != nil {
			t.Fatalf("GetTodayStats returned error: %v", err)
		}
		if stats.TotalSessions != 1 || stats.TotalFocusTime != 1200 {
			t.Fatalf("expected only the session after Tokyo midnight, got %+v", stats)
		}
	})
}

func TestSessionService_GetWeeklyStats(t *testing.T) {
	t.Parallel()

	interrupted := sessionWithStatus("s-3", "u1", SessionTypeWork, SessionStatusInterrupted, time.Date(2024, 2, 27, 10, 0, 0, 0, time.UTC))
	interrupted.InterruptionCount = 2
	repo := newSessionRepositoryStub(
		completedSession("s-1", "u1", SessionTypeWork, time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC), 1500),
		completedSession("s-2", "u1", SessionTypeBreak, time.Date(2024, 3, 2, 8, 0, 0, 0, time.UTC), 300),
		interrupted,
		completedSession("s-old", "u1", SessionTypeWork, time.Date(2024, 2, 26, 23, 59, 0, 0, time.UTC), 1500),
	)
	svc := NewSessionService(repo, nil, nil, fixedNow(referenceTime))

	stats, err := svc.GetWeeklyStats(context.Background(), "u1")
	if err != nil {
		t.Fatalf("GetWeeklyStats returned error: %v", err)
	}
	if len(stats.Daily) != 7 {
		t.Fatalf("expected 7 days, got %d", len(stats.Daily))
	}
	if first := stats.Daily[0]; first.Day != "Tuesday" || first.Date != "2024-02-27" || first.Interruptions != 2 {
		t.Fatalf("unexpected first day %+v", first)
	}
	if saturday := stats.Daily[4]; saturday.Day != "Saturday" || saturday.CompletedSessions != 1 || saturday.TotalFocusTime != 0 {
		t.Fatalf("unexpected saturday %+v", saturday)
	}
	if last := stats.Daily[6]; last.Day != "Monday" || last.Date != "2024-03-04" || last.TotalFocusTime != 1500 {
		t.Fatalf("unexpected last day %+v", last)
	}
	want := WeekSummary{TotalSessions: 3, CompletedSessions: 2, TotalFocusTime: 1500, TotalInterruptions: 2}
	if stats.Summary != want {
		t.Fatalf("expected summary %+v, got %+v", want, stats.Summary)
	}
}

func TestSessionService_CreateSession(t *testing.T) {
	t.Parallel()

	startedAt := referenceTime.Add(-time.Hour)

	tests := []struct {
		name        string
		input       SessionInput
		wantStatus  SessionStatus
		wantPlanned int
		wantActual  *int
	}{
		{
			name:        "back-filled completed run",
			input:       SessionInput{Type: "work", Completed: true, Duration: intPtr(1500), StartedAt: &startedAt},
			wantStatus:  SessionStatusCompleted,
			wantPlanned: 1500,
			wantActual:  intPtr(1500),
		},
		{
			name:        "explicit interrupted run keeps actual duration",
			input:       SessionInput{Type: "work", Status: "interrupted", PlannedDuration: intPtr(600), ActualDuration: intPtr(200), StartedAt: &startedAt},
			wantStatus:  SessionStatusInterrupted,
			wantPlanned: 600,
			wantActual:  intPtr(200),
		},
		{
			name:        "duration wins over planned duration",
			input:       SessionInput{Type: "break", Completed: true, Duration: intPtr(240), PlannedDuration: intPtr(300), StartedAt: &startedAt},
			wantStatus:  SessionStatusCompleted,
			wantPlanned: 240,
			wantActual:  intPtr(240),
		},
		{
			name:        "defaults to an active session with default plan",
			input:       SessionInput{Type: "longBreak"},
			wantStatus:  SessionStatusActive,
			wantPlanned: 900,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc := NewSessionService(newSessionRepositoryStub(), nil, sequenceIDs("session"), fixedNow(referenceTime))
			created, err := svc.CreateSession(context.Background(), "u1", tt.input)
			if err != nil {
				t.Fatalf("CreateSession returned error: %v", err)
			}
			if created.Status != tt.wantStatus || created.PlannedDuration != tt.wantPlanned {
				t.Fatalf("unexpected session %+v", created)
			}
			if !reflect.DeepEqual(created.ActualDuration, tt.wantActual) {
				t.Fatalf("expected actual %v, got %v", tt.wantActual, created.ActualDuration)
			}

			fetched, err := svc.GetSession(context.Background(), "u1", created.ID)
			if err != nil {
				t.Fatalf("GetSession returned error: %v", err)
			}
			if !reflect.DeepEqual(fetched, created) {
				t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", fetched, created)
			}
		})
	}

	t.Run("rejects invalid input", func(t *testing.T) {
		t.Parallel()

		svc := NewSessionService(newSessionRepositoryStub(), nil, sequenceIDs("session"), fixedNow(referenceTime))
		_, err := svc.CreateSession(context.Background(), "u1", SessionInput{Type: "nap", Status: "paused", PlannedDuration: intPtr(-1)})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected validation error, got %v", err)
		}
		for _, field := range []string{"type", "status", "plannedDuration"} {
			if vErr.FieldErrors[field] == "" {
				t.Fatalf("expected %s to be reported, got %v", field, vErr.FieldErrors)
			}
		}
	})

	t.Run("rejects a second active session", func(t *testing.T) {
		t.Parallel()

		repo := newSessionRepositoryStub(sessionWithStatus("s-1", "u1", SessionTypeWork, SessionStatusActive, referenceTime))
		svc := NewSessionService(repo, nil, sequenceIDs("session"), fixedNow(referenceTime))
		if _, err := svc.CreateSession(context.Background(), "u1", SessionInput{Type: "work"}); !errors.Is(err, ErrActiveSessionExists) {
			t.Fatalf("expected ErrActiveSessionExists, got %v", err)
		}
		if _, err := svc.CreateSession(context.Background(), "u1", SessionInput{Type: "work", Completed: true}); err != nil {
			t.Fatalf("back-filled sessions must not conflict: %v", err)
		}
	})
}

func TestSessionService_UpdateAndDelete(t *testing.T) {
	t.Parallel()

	newService := func() (*SessionService, *sessionRepositoryStub) {
		repo := newSessionRepositoryStub(
			sessionWithStatus("s-1", "u1", SessionTypeWork, SessionStatusActive, referenceTime.Add(-time.Hour)),
			completedSession("s-2", "u1", SessionTypeBreak, referenceTime.Add(-2*time.Hour), 300),
			completedSession("s-3", "u2", SessionTypeWork, referenceTime.Add(-3*time.Hour), 1500),
		)
		return NewSessionService(repo, nil, nil, fixedNow(referenceTime)), repo
	}

	t.Run("update applies the patch", func(t *testing.T) {
		t.Parallel()

		svc, _ := newService()
		updated, err := svc.UpdateSession(context.Background(), "u1", "s-1", SessionPatch{
			Status:             stringPtr("aborted"),
			InterruptionReason: stringPtr("meeting"),
		})
		if err != nil {
			t.Fatalf("UpdateSession returned error: %v", err)
		}
		if updated.Status != SessionStatusAborted || *updated.InterruptionReason != "meeting" || !updated.UpdatedAt.Equal(referenceTime) {
			t.Fatalf("unexpected session %+v", updated)
		}
	})

	t.Run("update validates enums", func(t *testing.T) {
		t.Parallel()

		svc, _ := newService()
		_, err := svc.UpdateSession(context.Background(), "u1", "s-1", SessionPatch{Type: stringPtr("nap")})
		var vErr *ValidationError
		if !errors.As(err, &vErr) || vErr.FieldErrors["type"] == "" {
			t.Fatalf("expected type validation error, got %v", err)
		}
	})

	t.Run("foreign sessions are not found", func(t *testing.T) {
		t.Parallel()

		svc, repo := newService()
		if _, err := svc.UpdateSession(context.Background(), "u1", "s-3", SessionPatch{}); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound on update, got %v", err)
		}
		if err := svc.DeleteSession(context.Background(), "u1", "s-3"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound on delete, got %v", err)
		}
		if _, ok := repo.sessions["s-3"]; !ok {
			t.Fatalf("foreign session must survive a rejected delete")
		}
	})

	t.Run("delete removes the session", func(t *testing.T) {
		t.Parallel()

		svc, _ := newService()
		if err := svc.DeleteSession(context.Background(), "u1", "s-2"); err != nil {
			t.Fatalf("DeleteSession returned error: %v", err)
		}
		if _, err := svc.GetSession(context.Background(), "u1", "s-2"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound after delete, got %v", err)
		}
	})

	t.Run("list returns newest first", func(t *testing.T) {
		t.Parallel()

		svc, _ := newService()
		sessions, err := svc.ListSessions(context.Background(), "u1")
		if err != nil {
			t.Fatalf("ListSessions returned error: %v", err)
		}
		if len(sessions) != 2 || sessions[0].ID != "s-1" || sessions[1].ID != "s-2" {
			t.Fatalf("unexpected order %+v", sessions)
		}
	})
}
