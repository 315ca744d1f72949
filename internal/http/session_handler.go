package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/focusflow/internal/application"
)

type sessionService interface {
	StartWorkSession(ctx context.Context, userID string, sessionType application.SessionType) (application.StartSessionResult, error)
	EndSession(ctx context.Context, params application.EndSessionParams) (application.Session, error)
	GetCurrentActiveSession(ctx context.Context, userID string) (application.Session, error)
	GetBlockingStatus(ctx context.Context, userID string) (application.BlockingStatus, error)
	CreateSession(ctx context.Context, userID string, input application.SessionInput) (application.Session, error)
	GetSession(ctx context.Context, userID, sessionID string) (application.Session, error)
	ListSessions(ctx context.Context, userID string) ([]application.Session, error)
	UpdateSession(ctx context.Context, userID, sessionID string, patch application.SessionPatch) (application.Session, error)
	DeleteSession(ctx context.Context, userID, sessionID string) error
	GetTodayStats(ctx context.Context, userID string) (application.TodayStats, error)
	GetWeeklyStats(ctx context.Context, userID string) (application.WeekStats, error)
}

type SessionHandler struct {
	service   sessionService
	responder responder
	logger    *slog.Logger
}

func NewSessionHandler(service sessionService, logger *slog.Logger) *SessionHandler {
	base := defaultLogger(logger)
	return &SessionHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *SessionHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "SessionHandler", operation, attrs...)
}

func (h *SessionHandler) unavailable(w http.ResponseWriter) bool {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return true
	}
	return false
}

func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	if h.unavailable(w) {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req startSessionRequest
	if err := decodeJSON(r, &req, false); err != nil {
		h.log(r.Context(), "Start", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode start request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Start", "principal_id", principal.UserID, "session_type", req.SessionType)

	result, err := h.service.StartWorkSession(r.Context(), principal.UserID, application.SessionType(req.SessionType))
	if err != nil {
		logger.ErrorContext(r.Context(), "session start failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("session_id", result.Session.ID, "blocked_items", len(result.BlockedItems)).InfoContext(r.Context(), "session started")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, startSessionResponse{
		Message: "Session started successfully",
		Session: toSessionDTO(result.Session),
		Blocking: startBlockingDTO{
			IsActive:     result.Session.Type == application.SessionTypeWork,
			BlockedItems: toBlocklistItemDTOs(result.BlockedItems),
			Count:        len(result.BlockedItems),
		},
	})
}

func (h *SessionHandler) End(w http.ResponseWriter, r *http.Request) {
	if h.unavailable(w) {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	sessionID := strings.TrimSpace(r.PathValue("id"))
	if sessionID == "" {
		h.log(r.Context(), "End", "error_kind", "bad_request").ErrorContext(r.Context(), "missing session id")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingID)
		return
	}

	var req endSessionRequest
	if err := decodeJSON(r, &req, true); err != nil {
		h.log(r.Context(), "End", "principal_id", principal.UserID, "session_id", sessionID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode end request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	completed := true
	if req.Completed != nil {
		completed = *req.Completed
	}

	logger := h.log(r.Context(), "End", "principal_id", principal.UserID, "session_id", sessionID, "completed", completed)

	session, err := h.service.EndSession(r.Context(), application.EndSessionParams{
		UserID:             principal.UserID,
		SessionID:          sessionID,
		Completed:          completed,
		InterruptionReason: req.InterruptionReason,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "session end failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	message := "No blocking was active"
	if session.Type == application.SessionTypeWork {
		message = "Blocking deactivated"
	}

	logger.With("status", session.Status).InfoContext(r.Context(), "session ended")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, endSessionResponse{
		Message:  "Session ended successfully",
		Session:  toSessionDTO(session),
		Blocking: endBlockingDTO{IsActive: false, Message: message},
	})
}

func (h *SessionHandler) Active(w http.ResponseWriter, r *http.Request) {
	if h.unavailable(w) {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	session, err := h.service.GetCurrentActiveSession(r.Context(), principal.UserID)
	if err != nil {
		h.log(r.Context(), "Active", "principal_id", principal.UserID).ErrorContext(r.Context(), "active session lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toSessionDTO(session))
}

func (h *SessionHandler) BlockingStatus(w http.ResponseWriter, r *http.Request) {
	if h.unavailable(w) {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	status, err := h.service.GetBlockingStatus(r.Context(), principal.UserID)
	if err != nil {
		h.log(r.Context(), "BlockingStatus", "principal_id", principal.UserID).ErrorContext(r.Context(), "blocking status lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	resp := blockingStatusResponse{
		IsBlocking:   status.IsBlocking,
		BlockedItems: toBlocklistItemDTOs(status.BlockedItems),
	}
	if status.ActiveSession != nil {
		dto := toSessionDTO(*status.ActiveSession)
		resp.ActiveSession = &dto
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, resp)
}

func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h.unavailable(w) {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req createSessionRequest
	if err := decodeJSON(r, &req, false); err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode session request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "principal_id", principal.UserID)

	session, err := h.service.CreateSession(r.Context(), principal.UserID, req.toInput())
	if err != nil {
		logger.ErrorContext(r.Context(), "session creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("session_id", session.ID).InfoContext(r.Context(), "session created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toSessionDTO(session))
}

func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.unavailable(w) {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "List", "principal_id", principal.UserID)

	sessions, err := h.service.ListSessions(r.Context(), principal.UserID)
	if err != nil {
		logger.ErrorContext(r.Context(), "session list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(sessions)).DebugContext(r.Context(), "sessions listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toSessionDTOs(sessions))
}

func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h.unavailable(w) {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	sessionID := strings.TrimSpace(r.PathValue("id"))

	session, err := h.service.GetSession(r.Context(), principal.UserID, sessionID)
	if err != nil {
		h.log(r.Context(), "Get", "principal_id", principal.UserID, "session_id", sessionID).ErrorContext(r.Context(), "session lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toSessionDTO(session))
}

func (h *SessionHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h.unavailable(w) {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	sessionID := strings.TrimSpace(r.PathValue("id"))

	var req updateSessionRequest
	if err := decodeJSON(r, &req, false); err != nil {
		h.log(r.Context(), "Update", "principal_id", principal.UserID, "session_id", sessionID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode session update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update", "principal_id", principal.UserID, "session_id", sessionID)

	session, err := h.service.UpdateSession(r.Context(), principal.UserID, sessionID, req.toPatch())
	if err != nil {
		logger.ErrorContext(r.Context(), "session update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "session updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toSessionDTO(session))
}

func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h.unavailable(w) {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	sessionID := strings.TrimSpace(r.PathValue("id"))
	logger := h.log(r.Context(), "Delete", "principal_id", principal.UserID, "session_id", sessionID)

	if err := h.service.DeleteSession(r.Context(), principal.UserID, sessionID); err != nil {
		logger.ErrorContext(r.Context(), "session delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "session deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *SessionHandler) TodayStats(w http.ResponseWriter, r *http.Request) {
	if h.unavailable(w) {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	stats, err := h.service.GetTodayStats(r.Context(), principal.UserID)
	if err != nil {
		h.log(r.Context(), "TodayStats", "principal_id", principal.UserID).ErrorContext(r.Context(), "today stats failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, todayStatsDTO{
		CompletedSessions: stats.CompletedSessions,
		WorkSessions:      stats.WorkSessions,
		TotalFocusTime:    stats.TotalFocusTime,
		Interruptions:     stats.Interruptions,
		SuccessRate:       stats.SuccessRate,
		TotalSessions:     stats.TotalSessions,
	})
}

func (h *SessionHandler) WeeklyStats(w http.ResponseWriter, r *http.Request) {
	if h.unavailable(w) {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	stats, err := h.service.GetWeeklyStats(r.Context(), principal.UserID)
	if err != nil {
		h.log(r.Context(), "WeeklyStats", "principal_id", principal.UserID).ErrorContext(r.Context(), "weekly stats failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	daily := make([]weekdayStatsDTO, 0, len(stats.Daily))
	for _, day := range stats.Daily {
		daily = append(daily, weekdayStatsDTO{
			Day:               day.Day,
			Date:              day.Date,
			CompletedSessions: day.CompletedSessions,
			TotalFocusTime:    day.TotalFocusTime,
			Interruptions:     day.Interruptions,
		})
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, weekStatsDTO{
		Daily: daily,
		Summary: weekSummaryDTO{
			TotalSessions:      stats.Summary.TotalSessions,
			CompletedSessions:  stats.Summary.CompletedSessions,
			TotalFocusTime:     stats.Summary.TotalFocusTime,
			TotalInterruptions: stats.Summary.TotalInterruptions,
		},
	})
}

type startSessionRequest struct {
	SessionType string `json:"sessionType"`
}

type endSessionRequest struct {
	Completed          *bool   `json:"completed"`
	InterruptionReason *string `json:"interruptionReason"`
}

type createSessionRequest struct {
	Type               string     `json:"type"`
	Status             string     `json:"status"`
	Completed          bool       `json:"completed"`
	Duration           *int       `json:"duration"`
	PlannedDuration    *int       `json:"plannedDuration"`
	ActualDuration     *int       `json:"actualDuration"`
	InterruptionReason *string    `json:"interruptionReason"`
	InterruptionCount  *int       `json:"interruptionCount"`
	StartedAt          *time.Time `json:"startedAt"`
	CompletedAt        *time.Time `json:"completedAt"`
}

func (r createSessionRequest) toInput() application.SessionInput {
	return application.SessionInput{
		Type:               r.Type,
		Status:             r.Status,
		Completed:          r.Completed,
		Duration:           r.Duration,
		PlannedDuration:    r.PlannedDuration,
		ActualDuration:     r.ActualDuration,
		InterruptionReason: r.InterruptionReason,
		InterruptionCount:  r.InterruptionCount,
		StartedAt:          r.StartedAt,
		CompletedAt:        r.CompletedAt,
	}
}

type updateSessionRequest struct {
	Type               *string    `json:"type"`
	Status             *string    `json:"status"`
	PlannedDuration    *int       `json:"plannedDuration"`
	ActualDuration     *int       `json:"actualDuration"`
	InterruptionReason *string    `json:"interruptionReason"`
	InterruptionCount  *int       `json:"interruptionCount"`
	StartedAt          *time.Time `json:"startedAt"`
	CompletedAt        *time.Time `json:"completedAt"`
}

func (r updateSessionRequest) toPatch() application.SessionPatch {
	return application.SessionPatch{
		Type:               r.Type,
		Status:             r.Status,
		PlannedDuration:    r.PlannedDuration,
		ActualDuration:     r.ActualDuration,
		InterruptionReason: r.InterruptionReason,
		InterruptionCount:  r.InterruptionCount,
		StartedAt:          r.StartedAt,
		CompletedAt:        r.CompletedAt,
	}
}

type sessionDTO struct {
	ID                 string  `json:"id"`
	UserID             string  `json:"userId"`
	Type               string  `json:"type"`
	Status             string  `json:"status"`
	PlannedDuration    int     `json:"plannedDuration"`
	ActualDuration     *int    `json:"actualDuration"`
	InterruptionReason *string `json:"interruptionReason"`
	InterruptionCount  int     `json:"interruptionCount"`
	StartedAt          string  `json:"startedAt"`
	CompletedAt        *string `json:"completedAt"`
	UpdatedAt          string  `json:"updatedAt"`
}

func toSessionDTO(session application.Session) sessionDTO {
	return sessionDTO{
		ID:                 session.ID,
		UserID:             session.UserID,
		Type:               string(session.Type),
		Status:             string(session.Status),
		PlannedDuration:    session.PlannedDuration,
		ActualDuration:     session.ActualDuration,
		InterruptionReason: session.InterruptionReason,
		InterruptionCount:  session.InterruptionCount,
		StartedAt:          formatTime(session.StartedAt),
		CompletedAt:        formatTimePtr(session.CompletedAt),
		UpdatedAt:          formatTime(session.UpdatedAt),
	}
}

func toSessionDTOs(sessions []application.Session) []sessionDTO {
	out := make([]sessionDTO, 0, len(sessions))
	for _, session := range sessions {
		out = append(out, toSessionDTO(session))
	}
	return out
}

type startBlockingDTO struct {
	IsActive     bool               `json:"isActive"`
	BlockedItems []blocklistItemDTO `json:"blockedItems"`
	Count        int                `json:"count"`
}

type startSessionResponse struct {
	Message  string           `json:"message"`
	Session  sessionDTO       `json:"session"`
	Blocking startBlockingDTO `json:"blocking"`
}

type endBlockingDTO struct {
	IsActive bool   `json:"isActive"`
	Message  string `json:"message"`
}

type endSessionResponse struct {
	Message  string         `json:"message"`
	Session  sessionDTO     `json:"session"`
	Blocking endBlockingDTO `json:"blocking"`
}

type blockingStatusResponse struct {
	IsBlocking    bool               `json:"isBlocking"`
	ActiveSession *sessionDTO        `json:"activeSession"`
	BlockedItems  []blocklistItemDTO `json:"blockedItems"`
}

type todayStatsDTO struct {
	CompletedSessions int `json:"completedSessions"`
	WorkSessions      int `json:"workSessions"`
	TotalFocusTime    int `json:"totalFocusTime"`
	Interruptions     int `json:"interruptions"`
	SuccessRate       int `json:"successRate"`
	TotalSessions     int `json:"totalSessions"`
}

type weekdayStatsDTO struct {
	Day               string `json:"day"`
	Date              string `json:"date"`
	CompletedSessions int    `json:"completedSessions"`
	TotalFocusTime    int    `json:"totalFocusTime"`
	Interruptions     int    `json:"interruptions"`
}

type weekSummaryDTO struct {
	TotalSessions      int `json:"totalSessions"`
	CompletedSessions  int `json:"completedSessions"`
	TotalFocusTime     int `json:"totalFocusTime"`
	TotalInterruptions int `json:"totalInterruptions"`
}

type weekStatsDTO struct {
	Daily   []weekdayStatsDTO `json:"daily"`
	Summary weekSummaryDTO    `json:"summary"`
}
