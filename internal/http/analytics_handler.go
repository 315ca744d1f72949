package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/example/focusflow/internal/application"
)

const (
	defaultDailyDays    = 7
	defaultWeeklyWeeks  = 4
	defaultHourlyDays   = 30
	defaultTypeDistDays = 30
)

type analyticsService interface {
	GetDailyStats(ctx context.Context, userID string, days int) ([]application.DailyStats, error)
	GetWeeklyStats(ctx context.Context, userID string, weeks int) ([]application.WeeklyStats, error)
	GetProductivityByHour(ctx context.Context, userID string, days int) ([]application.ProductivityHour, error)
	GetSessionTypeDistribution(ctx context.Context, userID string, days int) ([]application.SessionTypeDistribution, error)
	GetInsights(ctx context.Context, userID string) (application.AnalyticsInsights, error)
	GetOverview(ctx context.Context, userID string) (application.AnalyticsOverview, error)
}

type AnalyticsHandler struct {
	service   analyticsService
	responder responder
	logger    *slog.Logger
}

func NewAnalyticsHandler(service analyticsService, logger *slog.Logger) *AnalyticsHandler {
	base := defaultLogger(logger)
	return &AnalyticsHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *AnalyticsHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "AnalyticsHandler", operation, attrs...)
}

func (h *AnalyticsHandler) unavailable(w http.ResponseWriter) bool {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return true
	}
	return false
}

func (h *AnalyticsHandler) fail(ctx context.Context, w http.ResponseWriter, operation, userID string, err error) {
	h.log(ctx, operation, "principal_id", userID).ErrorContext(ctx, "analytics query failed", "error", err, "error_kind", application.ErrorKind(err))
	h.responder.handleServiceError(ctx, w, err)
}

func (h *AnalyticsHandler) Daily(w http.ResponseWriter, r *http.Request) {
	if h.unavailable(w) {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	days := queryInt(r, "days", defaultDailyDays)

	stats, err := h.service.GetDailyStats(r.Context(), principal.UserID, days)
	if err != nil {
		h.fail(r.Context(), w, "Daily", principal.UserID, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toDailyStatsDTOs(stats))
}

func (h *AnalyticsHandler) Weekly(w http.ResponseWriter, r *http.Request) {
	if h.unavailable(w) {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	weeks := queryInt(r, "weeks", defaultWeeklyWeeks)

	stats, err := h.service.GetWeeklyStats(r.Context(), principal.UserID, weeks)
	if err != nil {
		h.fail(r.Context(), w, "Weekly", principal.UserID, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toWeeklyStatsDTOs(stats))
}

func (h *AnalyticsHandler) ProductivityHours(w http.ResponseWriter, r *http.Request) {
	if h.unavailable(w) {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	days := queryInt(r, "days", defaultHourlyDays)

	hours, err := h.service.GetProductivityByHour(r.Context(), principal.UserID, days)
	if err != nil {
		h.fail(r.Context(), w, "ProductivityHours", principal.UserID, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toProductivityHourDTOs(hours))
}

func (h *AnalyticsHandler) SessionTypes(w http.ResponseWriter, r *http.Request) {
	if h.unavailable(w) {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	days := queryInt(r, "days", defaultTypeDistDays)

	dist, err := h.service.GetSessionTypeDistribution(r.Context(), principal.UserID, days)
	if err != nil {
		h.fail(r.Context(), w, "SessionTypes", principal.UserID, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toSessionTypeDTOs(dist))
}

func (h *AnalyticsHandler) Insights(w http.ResponseWriter, r *http.Request) {
	if h.unavailable(w) {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	insights, err := h.service.GetInsights(r.Context(), principal.UserID)
	if err != nil {
		h.fail(r.Context(), w, "Insights", principal.UserID, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toInsightsDTO(insights))
}

func (h *AnalyticsHandler) Overview(w http.ResponseWriter, r *http.Request) {
	if h.unavailable(w) {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	overview, err := h.service.GetOverview(r.Context(), principal.UserID)
	if err != nil {
		h.fail(r.Context(), w, "Overview", principal.UserID, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, overviewDTO{
		Daily:             toDailyStatsDTOs(overview.Daily),
		Weekly:            toWeeklyStatsDTOs(overview.Weekly),
		ProductivityHours: toProductivityHourDTOs(overview.ProductivityHours),
		SessionTypes:      toSessionTypeDTOs(overview.SessionTypes),
		Insights:          toInsightsDTO(overview.Insights),
	})
}

// queryInt returns the integer query parameter key, or fallback when it is
// missing, unparsable or zero. Out of range values reach the service, which
// rejects them.
func queryInt(r *http.Request, key string, fallback int) int {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value == 0 {
		return fallback
	}
	return value
}

type dailyStatsDTO struct {
	Date              string `json:"date"`
	TotalFocusTime    int    `json:"totalFocusTime"`
	CompletedSessions int    `json:"completedSessions"`
	TotalSessions     int    `json:"totalSessions"`
	SuccessRate       int    `json:"successRate"`
}

func toDailyStatsDTOs(stats []application.DailyStats) []dailyStatsDTO {
	out := make([]dailyStatsDTO, 0, len(stats))
	for _, day := range stats {
		out = append(out, dailyStatsDTO{
			Date:              day.Date,
			TotalFocusTime:    day.TotalFocusTime,
			CompletedSessions: day.CompletedSessions,
			TotalSessions:     day.TotalSessions,
			SuccessRate:       day.SuccessRate,
		})
	}
	return out
}

type weeklyStatsDTO struct {
	Week                 string `json:"week"`
	TotalFocusTime       int    `json:"totalFocusTime"`
	CompletedSessions    int    `json:"completedSessions"`
	AverageSessionLength int    `json:"averageSessionLength"`
	SuccessRate          int    `json:"successRate"`
}

func toWeeklyStatsDTOs(stats []application.WeeklyStats) []weeklyStatsDTO {
	out := make([]weeklyStatsDTO, 0, len(stats))
	for _, week := range stats {
		out = append(out, weeklyStatsDTO{
			Week:                 week.Week,
			TotalFocusTime:       week.TotalFocusTime,
			CompletedSessions:    week.CompletedSessions,
			AverageSessionLength: week.AverageSessionLength,
			SuccessRate:          week.SuccessRate,
		})
	}
	return out
}

type productivityHourDTO struct {
	Hour                 int `json:"hour"`
	TotalFocusTime       int `json:"totalFocusTime"`
	CompletedSessions    int `json:"completedSessions"`
	AverageSessionLength int `json:"averageSessionLength"`
}

func toProductivityHourDTOs(hours []application.ProductivityHour) []productivityHourDTO {
	out := make([]productivityHourDTO, 0, len(hours))
	for _, hour := range hours {
		out = append(out, productivityHourDTO{
			Hour:                 hour.Hour,
			TotalFocusTime:       hour.TotalFocusTime,
			CompletedSessions:    hour.CompletedSessions,
			AverageSessionLength: hour.AverageSessionLength,
		})
	}
	return out
}

type sessionTypeDTO struct {
	Type       string `json:"type"`
	Count      int    `json:"count"`
	TotalTime  int    `json:"totalTime"`
	Percentage int    `json:"percentage"`
}

func toSessionTypeDTOs(dist []application.SessionTypeDistribution) []sessionTypeDTO {
	out := make([]sessionTypeDTO, 0, len(dist))
	for _, entry := range dist {
		out = append(out, sessionTypeDTO{
			Type:       entry.Type,
			Count:      entry.Count,
			TotalTime:  entry.TotalTime,
			Percentage: entry.Percentage,
		})
	}
	return out
}

type insightsDTO struct {
	PeakProductivityHour    int      `json:"peakProductivityHour"`
	AverageDailyFocusTime   int      `json:"averageDailyFocusTime"`
	CurrentStreak           int      `json:"currentStreak"`
	ImprovementFromLastWeek int      `json:"improvementFromLastWeek"`
	TotalFocusTimeThisWeek  int      `json:"totalFocusTimeThisWeek"`
	MostProductiveDay       string   `json:"mostProductiveDay"`
	Recommendations         []string `json:"recommendations"`
}

func toInsightsDTO(insights application.AnalyticsInsights) insightsDTO {
	recommendations := insights.Recommendations
	if recommendations == nil {
		recommendations = []string{}
	}
	return insightsDTO{
		PeakProductivityHour:    insights.PeakProductivityHour,
		AverageDailyFocusTime:   insights.AverageDailyFocusTime,
		CurrentStreak:           insights.CurrentStreak,
		ImprovementFromLastWeek: insights.ImprovementFromLastWeek,
		TotalFocusTimeThisWeek:  insights.TotalFocusTimeThisWeek,
		MostProductiveDay:       insights.MostProductiveDay,
		Recommendations:         recommendations,
	}
}

type overviewDTO struct {
	Daily             []dailyStatsDTO       `json:"daily"`
	Weekly            []weeklyStatsDTO      `json:"weekly"`
	ProductivityHours []productivityHourDTO `json:"productivityHours"`
	SessionTypes      []sessionTypeDTO      `json:"sessionTypes"`
	Insights          insightsDTO           `json:"insights"`
}
