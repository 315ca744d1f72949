package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// BlocklistRepository captures the persistence operations needed by the blocklist service.
type BlocklistRepository interface {
	CreateBlocklistItem(ctx context.Context, item BlocklistItem) (BlocklistItem, error)
	GetBlocklistItem(ctx context.Context, id string) (BlocklistItem, error)
	UpdateBlocklistItem(ctx context.Context, item BlocklistItem) (BlocklistItem, error)
	DeleteBlocklistItem(ctx context.Context, id string) error
	// ListBlocklistItems returns the user's items newest first.
	ListBlocklistItems(ctx context.Context, userID string, activeOnly bool) ([]BlocklistItem, error)
}

// BlocklistOption customises a BlocklistService.
type BlocklistOption func(*BlocklistService)

// WithBlocklistMetrics records URL checks on m.
func WithBlocklistMetrics(m Metrics) BlocklistOption {
	return func(s *BlocklistService) {
		s.metrics = metricsOrNoop(m)
	}
}

// BlocklistService manages block rules and answers what should be blocked right now.
type BlocklistService struct {
	items       BlocklistRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
	metrics     Metrics
}

// NewBlocklistService wires dependencies for the blocklist service.
func NewBlocklistService(items BlocklistRepository, idGenerator func() string, now func() time.Time) *BlocklistService {
	return NewBlocklistServiceWithLogger(items, idGenerator, now, nil)
}

// NewBlocklistServiceWithLogger wires dependencies and a logger for the blocklist service.
func NewBlocklistServiceWithLogger(items BlocklistRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger, opts ...BlocklistOption) *BlocklistService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	s := &BlocklistService{
		items:       items,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
		metrics:     noopMetrics{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *BlocklistService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "BlocklistService", operation, attrs...)
}

func (s *BlocklistService) ready() error {
	if s == nil {
		return fmt.Errorf("BlocklistService is nil")
	}
	if s.items == nil {
		return fmt.Errorf("blocklist repository not configured")
	}
	return nil
}

// ActivateBlocking returns the rules an external blocking agent should enforce.
func (s *BlocklistService) ActivateBlocking(ctx context.Context, userID string) ([]BlocklistItem, error) {
	items, err := s.GetActiveBlockedItems(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.loggerWith(ctx, "ActivateBlocking", "user_id", userID).
		InfoContext(ctx, "blocking activated", "blocked_items", len(items))
	return items, nil
}

// DeactivateBlocking records the end of blocking. Blocking state is derived
// from the active session, so nothing is persisted.
func (s *BlocklistService) DeactivateBlocking(ctx context.Context, userID string) error {
	if s == nil {
		return fmt.Errorf("BlocklistService is nil")
	}
	s.loggerWith(ctx, "DeactivateBlocking", "user_id", userID).InfoContext(ctx, "blocking deactivated")
	return nil
}

// GetActiveBlockedItems returns the user's active rules, newest first.
func (s *BlocklistService) GetActiveBlockedItems(ctx context.Context, userID string) ([]BlocklistItem, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	items, err := s.items.ListBlocklistItems(ctx, userID, true)
	if err != nil {
		return nil, fmt.Errorf("list active blocklist items: %w", err)
	}
	return items, nil
}

// IsBlocked reports whether any active website rule matches url.
func (s *BlocklistService) IsBlocked(ctx context.Context, userID, url string) (bool, error) {
	items, err := s.GetActiveBlockedItems(ctx, userID)
	if err != nil {
		return false, err
	}
	return len(matchingItems(items, url)) > 0, nil
}

// CheckURL reports whether url is blocked together with the rules that match it.
func (s *BlocklistService) CheckURL(ctx context.Context, userID, url string) (URLCheck, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		vErr := &ValidationError{}
		vErr.add("url", "url is required")
		return URLCheck{}, vErr
	}

	items, err := s.GetActiveBlockedItems(ctx, userID)
	if err != nil {
		return URLCheck{}, err
	}
	matches := matchingItems(items, url)
	s.metrics.URLChecked(ctx, len(matches) > 0)
	return URLCheck{
		URL:          url,
		IsBlocked:    len(matches) > 0,
		ActiveBlocks: len(items),
		BlockedItems: matches,
	}, nil
}

// matchingItems returns the active website items whose identifier is a
// case-insensitive substring of url. Empty identifiers never match.
func matchingItems(items []BlocklistItem, url string) []BlocklistItem {
	candidate := strings.ToLower(url)
	matches := make([]BlocklistItem, 0)
	for _, item := range items {
		if !item.IsActive || item.Type != BlockTypeWebsite {
			continue
		}
		pattern := strings.ToLower(strings.TrimSpace(item.Identifier))
		if pattern == "" {
			continue
		}
		if strings.Contains(candidate, pattern) {
			matches = append(matches, item)
		}
	}
	return matches
}

// CreateItem validates input and stores a new rule for userID.
func (s *BlocklistService) CreateItem(ctx context.Context, userID string, input BlocklistInput) (item BlocklistItem, err error) {
	if err = s.ready(); err != nil {
		return
	}
	logger := s.loggerWith(ctx, "CreateItem", "user_id", userID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create blocklist item", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "blocklist item created", "item_id", item.ID)
	}()

	vErr := &ValidationError{}
	blockType, ok := ParseBlockType(input.Type)
	if !ok {
		vErr.add("type", "type must be website or application")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		vErr.add("name", "name is required")
	}
	identifier := strings.TrimSpace(input.Identifier)
	if identifier == "" {
		vErr.add("identifier", "identifier is required")
	}
	if err = vErr.errOrNil(); err != nil {
		return
	}

	now := s.now()
	item = BlocklistItem{
		ID:         s.idGenerator(),
		UserID:     userID,
		Type:       blockType,
		Name:       name,
		Identifier: identifier,
		IsActive:   true,
		Category:   normalizeOptional(input.Category),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if input.IsActive != nil {
		item.IsActive = *input.IsActive
	}

	item, err = s.items.CreateBlocklistItem(ctx, item)
	return
}

// GetItem returns the rule when it belongs to userID.
func (s *BlocklistService) GetItem(ctx context.Context, userID, itemID string) (BlocklistItem, error) {
	if err := s.ready(); err != nil {
		return BlocklistItem{}, err
	}
	item, err := s.items.GetBlocklistItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return BlocklistItem{}, ErrNotFound
		}
		return BlocklistItem{}, err
	}
	if item.UserID != userID {
		return BlocklistItem{}, ErrNotFound
	}
	return item, nil
}

// ListItems returns all of the user's rules, newest first.
func (s *BlocklistService) ListItems(ctx context.Context, userID string) ([]BlocklistItem, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.items.ListBlocklistItems(ctx, userID, false)
}

// UpdateItem applies patch to one of the user's rules.
func (s *BlocklistService) UpdateItem(ctx context.Context, userID, itemID string, patch BlocklistPatch) (item BlocklistItem, err error) {
	if err = s.ready(); err != nil {
		return
	}
	logger := s.loggerWith(ctx, "UpdateItem", "user_id", userID, "item_id", itemID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update blocklist item", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	item, err = s.GetItem(ctx, userID, itemID)
	if err != nil {
		return
	}

	vErr := &ValidationError{}
	if patch.Type != nil {
		if blockType, ok := ParseBlockType(*patch.Type); ok {
			item.Type = blockType
		} else {
			vErr.add("type", "type must be website or application")
		}
	}
	if patch.Name != nil {
		if name := strings.TrimSpace(*patch.Name); name != "" {
			item.Name = name
		} else {
			vErr.add("name", "name must not be empty")
		}
	}
	if patch.Identifier != nil {
		if identifier := strings.TrimSpace(*patch.Identifier); identifier != "" {
			item.Identifier = identifier
		} else {
			vErr.add("identifier", "identifier must not be empty")
		}
	}
	if err = vErr.errOrNil(); err != nil {
		return
	}
	if patch.IsActive != nil {
		item.IsActive = *patch.IsActive
	}
	if patch.Category != nil {
		item.Category = normalizeOptional(patch.Category)
	}
	item.UpdatedAt = s.now()

	return s.save(ctx, item)
}

// ToggleActive flips the rule's active flag.
func (s *BlocklistService) ToggleActive(ctx context.Context, userID, itemID string) (BlocklistItem, error) {
	item, err := s.GetItem(ctx, userID, itemID)
	if err != nil {
		return BlocklistItem{}, err
	}
	item.IsActive = !item.IsActive
	item.UpdatedAt = s.now()

	item, err = s.save(ctx, item)
	if err != nil {
		return BlocklistItem{}, err
	}
	s.loggerWith(ctx, "ToggleActive", "user_id", userID, "item_id", itemID).
		InfoContext(ctx, "blocklist item toggled", "is_active", item.IsActive)
	return item, nil
}

// DeleteItem removes one of the user's rules.
func (s *BlocklistService) DeleteItem(ctx context.Context, userID, itemID string) error {
	if _, err := s.GetItem(ctx, userID, itemID); err != nil {
		return err
	}
	if err := s.items.DeleteBlocklistItem(ctx, itemID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (s *BlocklistService) save(ctx context.Context, item BlocklistItem) (BlocklistItem, error) {
	updated, err := s.items.UpdateBlocklistItem(ctx, item)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return BlocklistItem{}, ErrNotFound
		}
		return BlocklistItem{}, err
	}
	return updated, nil
}

// normalizeOptional trims value and maps blank strings to nil.
func normalizeOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
