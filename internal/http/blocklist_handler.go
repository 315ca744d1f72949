package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/focusflow/internal/application"
)

type blocklistService interface {
	ActivateBlocking(ctx context.Context, userID string) ([]application.BlocklistItem, error)
	DeactivateBlocking(ctx context.Context, userID string) error
	GetActiveBlockedItems(ctx context.Context, userID string) ([]application.BlocklistItem, error)
	CheckURL(ctx context.Context, userID, url string) (application.URLCheck, error)
	CreateItem(ctx context.Context, userID string, input application.BlocklistInput) (application.BlocklistItem, error)
	GetItem(ctx context.Context, userID, itemID string) (application.BlocklistItem, error)
	ListItems(ctx context.Context, userID string) ([]application.BlocklistItem, error)
	UpdateItem(ctx context.Context, userID, itemID string, patch application.BlocklistPatch) (application.BlocklistItem, error)
	ToggleActive(ctx context.Context, userID, itemID string) (application.BlocklistItem, error)
	DeleteItem(ctx context.Context, userID, itemID string) error
}

type BlocklistHandler struct {
	service   blocklistService
	responder responder
	logger    *slog.Logger
}

func NewBlocklistHandler(service blocklistService, logger *slog.Logger) *BlocklistHandler {
	base := defaultLogger(logger)
	return &BlocklistHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *BlocklistHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "BlocklistHandler", operation, attrs...)
}

func (h *BlocklistHandler) unavailable(w http.ResponseWriter) bool {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return true
	}
	return false
}

func (h *BlocklistHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h.unavailable(w) {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req createBlocklistItemRequest
	if err := decodeJSON(r, &req, false); err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode blocklist item", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "principal_id", principal.UserID)

	item, err := h.service.CreateItem(r.Context(), principal.UserID, application.BlocklistInput{
		Type:       req.Type,
		Name:       req.Name,
		Identifier: req.Identifier,
		IsActive:   req.IsActive,
		Category:   req.Category,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "blocklist item creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("item_id", item.ID).InfoContext(r.Context(), "blocklist item created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toBlocklistItemDTO(item))
}

func (h *BlocklistHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.unavailable(w) {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	items, err := h.service.ListItems(r.Context(), principal.UserID)
	if err != nil {
		h.log(r.Context(), "List", "principal_id", principal.UserID).ErrorContext(r.Context(), "blocklist list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toBlocklistItemDTOs(items))
}

func (h *BlocklistHandler) Active(w http.ResponseWriter, r *http.Request) {
	if h.unavailable(w) {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	items, err := h.service.GetActiveBlockedItems(r.Context(), principal.UserID)
	if err != nil {
		h.log(r.Context(), "Active", "principal_id", principal.UserID).ErrorContext(r.Context(), "active blocklist lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toBlocklistItemDTOs(items))
}

func (h *BlocklistHandler) Check(w http.ResponseWriter, r *http.Request) {
	if h.unavailable(w) {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	url := r.URL.Query().Get("url")
	if strings.TrimSpace(url) == "" {
		h.log(r.Context(), "Check", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "missing url parameter")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingURL)
		return
	}

	check, err := h.service.CheckURL(r.Context(), principal.UserID, url)
	if err != nil {
		h.log(r.Context(), "Check", "principal_id", principal.UserID).ErrorContext(r.Context(), "url check failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, urlCheckResponse{
		URL:          check.URL,
		IsBlocked:    check.IsBlocked,
		ActiveBlocks: check.ActiveBlocks,
		BlockedItems: toBlocklistItemDTOs(check.BlockedItems),
	})
}

func (h *BlocklistHandler) Activate(w http.ResponseWriter, r *http.Request) {
	if h.unavailable(w) {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Activate", "principal_id", principal.UserID)

	items, err := h.service.ActivateBlocking(r.Context(), principal.UserID)
	if err != nil {
		logger.ErrorContext(r.Context(), "blocking activation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("blocked_items", len(items)).InfoContext(r.Context(), "blocking activated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, activateBlockingResponse{
		Message:      "Blocking activated",
		BlockedItems: toBlocklistItemDTOs(items),
		Count:        len(items),
	})
}

func (h *BlocklistHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	if h.unavailable(w) {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Deactivate", "principal_id", principal.UserID)

	if err := h.service.DeactivateBlocking(r.Context(), principal.UserID); err != nil {
		logger.ErrorContext(r.Context(), "blocking deactivation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "blocking deactivated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, messageResponse{Message: "Blocking deactivated"})
}

func (h *BlocklistHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h.unavailable(w) {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	itemID := strings.TrimSpace(r.PathValue("id"))

	item, err := h.service.GetItem(r.Context(), principal.UserID, itemID)
	if err != nil {
		h.log(r.Context(), "Get", "principal_id", principal.UserID, "item_id", itemID).ErrorContext(r.Context(), "blocklist item lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toBlocklistItemDTO(item))
}

func (h *BlocklistHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h.unavailable(w) {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	itemID := strings.TrimSpace(r.PathValue("id"))

	var req updateBlocklistItemRequest
	if err := decodeJSON(r, &req, false); err != nil {
		h.log(r.Context(), "Update", "principal_id", principal.UserID, "item_id", itemID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode blocklist update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update", "principal_id", principal.UserID, "item_id", itemID)

	item, err := h.service.UpdateItem(r.Context(), principal.UserID, itemID, application.BlocklistPatch{
		Type:       req.Type,
		Name:       req.Name,
		Identifier: req.Identifier,
		IsActive:   req.IsActive,
		Category:   req.Category,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "blocklist item update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "blocklist item updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toBlocklistItemDTO(item))
}

func (h *BlocklistHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	if h.unavailable(w) {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	itemID := strings.TrimSpace(r.PathValue("id"))
	logger := h.log(r.Context(), "Toggle", "principal_id", principal.UserID, "item_id", itemID)

	item, err := h.service.ToggleActive(r.Context(), principal.UserID, itemID)
	if err != nil {
		logger.ErrorContext(r.Context(), "blocklist item toggle failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("is_active", item.IsActive).InfoContext(r.Context(), "blocklist item toggled")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toBlocklistItemDTO(item))
}

func (h *BlocklistHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h.unavailable(w) {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	itemID := strings.TrimSpace(r.PathValue("id"))
	logger := h.log(r.Context(), "Delete", "principal_id", principal.UserID, "item_id", itemID)

	if err := h.service.DeleteItem(r.Context(), principal.UserID, itemID); err != nil {
		logger.ErrorContext(r.Context(), "blocklist item delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "blocklist item deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type createBlocklistItemRequest struct {
	Type       string  `json:"type"`
	Name       string  `json:"name"`
	Identifier string  `json:"identifier"`
	IsActive   *bool   `json:"isActive"`
	Category   *string `json:"category"`
}

type updateBlocklistItemRequest struct {
	Type       *string `json:"type"`
	Name       *string `json:"name"`
	Identifier *string `json:"identifier"`
	IsActive   *bool   `json:"isActive"`
	Category   *string `json:"category"`
}

type blocklistItemDTO struct {
	ID         string  `json:"id"`
	UserID     string  `json:"userId"`
	Type       string  `json:"type"`
	Name       string  `json:"name"`
	Identifier string  `json:"identifier"`
	IsActive   bool    `json:"isActive"`
	Category   *string `json:"category"`
	CreatedAt  string  `json:"createdAt"`
	UpdatedAt  string  `json:"updatedAt"`
}

func toBlocklistItemDTO(item application.BlocklistItem) blocklistItemDTO {
	return blocklistItemDTO{
		ID:         item.ID,
		UserID:     item.UserID,
		Type:       string(item.Type),
		Name:       item.Name,
		Identifier: item.Identifier,
		IsActive:   item.IsActive,
		Category:   item.Category,
		CreatedAt:  formatTime(item.CreatedAt),
		UpdatedAt:  formatTime(item.UpdatedAt),
	}
}

func toBlocklistItemDTOs(items []application.BlocklistItem) []blocklistItemDTO {
	out := make([]blocklistItemDTO, 0, len(items))
	for _, item := range items {
		out = append(out, toBlocklistItemDTO(item))
	}
	return out
}

type urlCheckResponse struct {
	URL          string             `json:"url"`
	IsBlocked    bool               `json:"isBlocked"`
	ActiveBlocks int                `json:"activeBlocks"`
	BlockedItems []blocklistItemDTO `json:"blockedItems"`
}

type activateBlockingResponse struct {
	Message      string             `json:"message"`
	BlockedItems []blocklistItemDTO `json:"blockedItems"`
	Count        int                `json:"count"`
}

type messageResponse struct {
	Message string `json:"message"`
}
