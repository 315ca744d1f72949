package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/example/focusflow/internal/application"
)

type userService interface {
	GetProfile(ctx context.Context, userID string) (application.User, error)
	UpdateSettings(ctx context.Context, userID string, patch application.SettingsPatch) (application.User, error)
}

type UserHandler struct {
	service   userService
	responder responder
	logger    *slog.Logger
}

func NewUserHandler(service userService, logger *slog.Logger) *UserHandler {
	base := defaultLogger(logger)
	return &UserHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *UserHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "UserHandler", operation, attrs...)
}

func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Profile", "principal_id", principal.UserID)

	user, err := h.service.GetProfile(r.Context(), principal.UserID)
	if err != nil {
		logger.ErrorContext(r.Context(), "profile lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toUserDTO(user))
}

func (h *UserHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req settingsRequest
	if err := decodeJSON(r, &req, false); err != nil {
		h.log(r.Context(), "UpdateSettings", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode settings update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "UpdateSettings", "principal_id", principal.UserID)

	user, err := h.service.UpdateSettings(r.Context(), principal.UserID, req.toPatch())
	if err != nil {
		logger.ErrorContext(r.Context(), "settings update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "settings updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toUserDTO(user))
}

type settingsRequest struct {
	WorkDuration           *int     `json:"workDuration"`
	ShortBreakDuration     *int     `json:"shortBreakDuration"`
	LongBreakDuration      *int     `json:"longBreakDuration"`
	SessionsUntilLongBreak *int     `json:"sessionsUntilLongBreak"`
	SoundEnabled           *bool    `json:"soundEnabled"`
	SoundVolume            *float64 `json:"soundVolume"`
	NotificationsEnabled   *bool    `json:"notificationsEnabled"`
}

func (r settingsRequest) toPatch() application.SettingsPatch {
	return application.SettingsPatch{
		WorkDuration:           r.WorkDuration,
		ShortBreakDuration:     r.ShortBreakDuration,
		LongBreakDuration:      r.LongBreakDuration,
		SessionsUntilLongBreak: r.SessionsUntilLongBreak,
		SoundEnabled:           r.SoundEnabled,
		SoundVolume:            r.SoundVolume,
		NotificationsEnabled:   r.NotificationsEnabled,
	}
}

type settingsDTO struct {
	WorkDuration           int     `json:"workDuration"`
	ShortBreakDuration     int     `json:"shortBreakDuration"`
	LongBreakDuration      int     `json:"longBreakDuration"`
	SessionsUntilLongBreak int     `json:"sessionsUntilLongBreak"`
	SoundEnabled           bool    `json:"soundEnabled"`
	SoundVolume            float64 `json:"soundVolume"`
	NotificationsEnabled   bool    `json:"notificationsEnabled"`
}

type userDTO struct {
	ID        string      `json:"id"`
	Email     string      `json:"email"`
	FirstName *string     `json:"firstName"`
	LastName  *string     `json:"lastName"`
	Settings  settingsDTO `json:"settings"`
	CreatedAt string      `json:"createdAt"`
	UpdatedAt string      `json:"updatedAt"`
}

func toUserDTO(user application.User) userDTO {
	return userDTO{
		ID:        user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Settings: settingsDTO{
			WorkDuration:           user.Settings.WorkDuration,
			ShortBreakDuration:     user.Settings.ShortBreakDuration,
			LongBreakDuration:      user.Settings.LongBreakDuration,
			SessionsUntilLongBreak: user.Settings.SessionsUntilLongBreak,
			SoundEnabled:           user.Settings.SoundEnabled,
			SoundVolume:            user.Settings.SoundVolume,
			NotificationsEnabled:   user.Settings.NotificationsEnabled,
		},
		CreatedAt: formatTime(user.CreatedAt),
		UpdatedAt: formatTime(user.UpdatedAt),
	}
}
