package http

import (
	"context"

	"github.com/example/focusflow/internal/application"
)

type stubTokenValidator struct {
	principal application.Principal
	err       error
	tokens    []string
}

func (s *stubTokenValidator) ValidateToken(_ context.Context, token string) (application.Principal, error) {
	s.tokens = append(s.tokens, token)
	if s.err != nil {
		return application.Principal{}, s.err
	}
	return s.principal, nil
}

type stubAuthService struct {
	signUp       func(application.SignUpParams) (application.AuthResult, error)
	authenticate func(application.AuthenticateParams) (application.AuthResult, error)
	revoked      []string
	revokeErr    error
}

func (s *stubAuthService) SignUp(_ context.Context, params application.SignUpParams) (application.AuthResult, error) {
	if s.signUp == nil {
		return application.AuthResult{}, nil
	}
	return s.signUp(params)
}

func (s *stubAuthService) Authenticate(_ context.Context, params application.AuthenticateParams) (application.AuthResult, error) {
	if s.authenticate == nil {
		return application.AuthResult{}, nil
	}
	return s.authenticate(params)
}

func (s *stubAuthService) RevokeToken(_ context.Context, token string) error {
	s.revoked = append(s.revoked, token)
	return s.revokeErr
}

type stubUserService struct {
	user      application.User
	err       error
	patches   []application.SettingsPatch
	lookupIDs []string
}

func (s *stubUserService) GetProfile(_ context.Context, userID string) (application.User, error) {
	s.lookupIDs = append(s.lookupIDs, userID)
	return s.user, s.err
}

func (s *stubUserService) UpdateSettings(_ context.Context, userID string, patch application.SettingsPatch) (application.User, error) {
	s.lookupIDs = append(s.lookupIDs, userID)
	s.patches = append(s.patches, patch)
	return s.user, s.err
}

type stubSessionService struct {
	startResult application.StartSessionResult
	session     application.Session
	sessions    []application.Session
	status      application.BlockingStatus
	today       application.TodayStats
	week        application.WeekStats
	err         error

	startedTypes []application.SessionType
	endParams    []application.EndSessionParams
	inputs       []application.SessionInput
	patches      []application.SessionPatch
	ids          []string
}

func (s *stubSessionService) StartWorkSession(_ context.Context, _ string, sessionType application.SessionType) (application.StartSessionResult, error) {
	s.startedTypes = append(s.startedTypes, sessionType)
	return s.startResult, s.err
}

func (s *stubSessionService) EndSession(_ context.Context, params application.EndSessionParams) (application.Session, error) {
	s.endParams = append(s.endParams, params)
	return s.session, s.err
}

func (s *stubSessionService) GetCurrentActiveSession(context.Context, string) (application.Session, error) {
	return s.session, s.err
}

func (s *stubSessionService) GetBlockingStatus(context.Context, string) (application.BlockingStatus, error) {
	return s.status, s.err
}

func (s *stubSessionService) CreateSession(_ context.Context, _ string, input application.SessionInput) (application.Session, error) {
	s.inputs = append(s.inputs, input)
	return s.session, s.err
}

func (s *stubSessionService) GetSession(_ context.Context, _, sessionID string) (application.Session, error) {
	s.ids = append(s.ids, sessionID)
	return s.session, s.err
}

func (s *stubSessionService) ListSessions(context.Context, string) ([]application.Session, error) {
	return s.sessions, s.err
}

func (s *stubSessionService) UpdateSession(_ context.Context, _, sessionID string, patch application.SessionPatch) (application.Session, error) {
	s.ids = append(s.ids, sessionID)
	s.patches = append(s.patches, patch)
	return s.session, s.err
}

func (s *stubSessionService) DeleteSession(_ context.Context, _, sessionID string) error {
	s.ids = append(s.ids, sessionID)
	return s.err
}

func (s *stubSessionService) GetTodayStats(context.Context, string) (application.TodayStats, error) {
	return s.today, s.err
}

func (s *stubSessionService) GetWeeklyStats(context.Context, string) (application.WeekStats, error) {
	return s.week, s.err
}

type stubBlocklistService struct {
	items       []application.BlocklistItem
	item        application.BlocklistItem
	check       application.URLCheck
	err         error
	checkedURLs []string
	ids         []string
	deactivated int
}

func (s *stubBlocklistService) ActivateBlocking(context.Context, string) ([]application.BlocklistItem, error) {
	return s.items, s.err
}

func (s *stubBlocklistService) DeactivateBlocking(context.Context, string) error {
	s.deactivated++
	return s.err
}

func (s *stubBlocklistService) GetActiveBlockedItems(context.Context, string) ([]application.BlocklistItem, error) {
	return s.items, s.err
}

func (s *stubBlocklistService) CheckURL(_ context.Context, _, url string) (application.URLCheck, error) {
	s.checkedURLs = append(s.checkedURLs, url)
	return s.check, s.err
}

func (s *stubBlocklistService) CreateItem(context.Context, string, application.BlocklistInput) (application.BlocklistItem, error) {
	return s.item, s.err
}

func (s *stubBlocklistService) GetItem(_ context.Context, _, itemID string) (application.BlocklistItem, error) {
	s.ids = append(s.ids, itemID)
	return s.item, s.err
}

func (s *stubBlocklistService) ListItems(context.Context, string) ([]application.BlocklistItem, error) {
	return s.items, s.err
}

func (s *stubBlocklistService) UpdateItem(_ context.Context, _, itemID string, _ application.BlocklistPatch) (application.BlocklistItem, error) {
	s.ids = append(s.ids, itemID)
	return s.item, s.err
}

func (s *stubBlocklistService) ToggleActive(_ context.Context, _, itemID string) (application.BlocklistItem, error) {
	s.ids = append(s.ids, itemID)
	return s.item, s.err
}

func (s *stubBlocklistService) DeleteItem(_ context.Context, _, itemID string) error {
	s.ids = append(s.ids, itemID)
	return s.err
}

type stubAnalyticsService struct {
	overview application.AnalyticsOverview
	err      error
	windows  map[string][]int
}

func (s *stubAnalyticsService) record(name string, value int) {
	if s.windows == nil {
		s.windows = make(map[string][]int)
	}
	s.windows[name] = append(s.windows[name], value)
}

func (s *stubAnalyticsService) GetDailyStats(_ context.Context, _ string, days int) ([]application.DailyStats, error) {
	s.record("daily", days)
	return s.overview.Daily, s.err
}

func (s *stubAnalyticsService) GetWeeklyStats(_ context.Context, _ string, weeks int) ([]application.WeeklyStats, error) {
	s.record("weekly", weeks)
	return s.overview.Weekly, s.err
}

func (s *stubAnalyticsService) GetProductivityByHour(_ context.Context, _ string, days int) ([]application.ProductivityHour, error) {
	s.record("hours", days)
	return s.overview.ProductivityHours, s.err
}

func (s *stubAnalyticsService) GetSessionTypeDistribution(_ context.Context, _ string, days int) ([]application.SessionTypeDistribution, error) {
	s.record("types", days)
	return s.overview.SessionTypes, s.err
}

func (s *stubAnalyticsService) GetInsights(context.Context, string) (application.AnalyticsInsights, error) {
	return s.overview.Insights, s.err
}

func (s *stubAnalyticsService) GetOverview(context.Context, string) (application.AnalyticsOverview, error) {
	return s.overview, s.err
}

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error {
	return s.err
}
