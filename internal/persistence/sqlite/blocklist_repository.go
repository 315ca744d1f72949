package sqlite

import (
	"context"
	"database/sql"

	"github.com/example/focusflow/internal/persistence"
)

// BlocklistRepository implements persistence.BlocklistRepository using SQLite.
type BlocklistRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewBlocklistRepository creates a new SQLite blocklist repository.
func NewBlocklistRepository(pool *ConnectionPool) *BlocklistRepository {
	return &BlocklistRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const blocklistColumns = `id, user_id, type, name, identifier, is_active, category, created_at, updated_at`

// CreateBlocklistItem inserts a new block rule.
func (r *BlocklistRepository) CreateBlocklistItem(ctx context.Context, item persistence.BlocklistItem) error {
	if item.ID == "" || item.UserID == "" {
		return persistence.ErrConstraintViolation
	}

	_, err := r.helper.Exec(ctx, `INSERT INTO blocklist_items (`+blocklistColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID,
		item.UserID,
		item.Type,
		item.Name,
		item.Identifier,
		item.IsActive,
		nullString(item.Category),
		formatTime(item.CreatedAt),
		formatTime(item.UpdatedAt),
	)
	return r.mapper.Wrap(err, "failed to insert blocklist item")
}

// UpdateBlocklistItem overwrites the mutable columns of a block rule.
func (r *BlocklistRepository) UpdateBlocklistItem(ctx context.Context, item persistence.BlocklistItem) error {
	if item.ID == "" {
		return persistence.ErrConstraintViolation
	}

	result, err := r.helper.Exec(ctx, `UPDATE blocklist_items
		SET type = ?, name = ?, identifier = ?, is_active = ?, category = ?, updated_at = ?
		WHERE id = ?`,
		item.Type,
		item.Name,
		item.Identifier,
		item.IsActive,
		nullString(item.Category),
		formatTime(item.UpdatedAt),
		item.ID,
	)
	if err != nil {
		return r.mapper.Wrap(err, "failed to update blocklist item")
	}
	return requireAffected(result)
}

// GetBlocklistItem retrieves a block rule by ID.
func (r *BlocklistRepository) GetBlocklistItem(ctx context.Context, id string) (persistence.BlocklistItem, error) {
	if id == "" {
		return persistence.BlocklistItem{}, persistence.ErrNotFound
	}
	row := r.helper.QueryRow(ctx, `SELECT `+blocklistColumns+` FROM blocklist_items WHERE id = ?`, id)
	item, err := scanBlocklistItem(row)
	if err != nil {
		return persistence.BlocklistItem{}, r.mapper.Wrap(err, "failed to load blocklist item")
	}
	return item, nil
}

// ListBlocklistItems returns the user's rules, newest first.
func (r *BlocklistRepository) ListBlocklistItems(ctx context.Context, filter persistence.BlocklistFilter) ([]persistence.BlocklistItem, error) {
	query := `SELECT ` + blocklistColumns + ` FROM blocklist_items WHERE user_id = ?`
	args := []any{filter.UserID}
	if filter.ActiveOnly {
		query += ` AND is_active = 1`
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.Wrap(err, "failed to query blocklist items")
	}
	defer rows.Close()

	items := make([]persistence.BlocklistItem, 0)
	for rows.Next() {
		item, err := scanBlocklistItem(rows)
		if err != nil {
			return nil, r.mapper.Wrap(err, "failed to scan blocklist item")
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.Wrap(err, "failed to iterate blocklist items")
	}
	return items, nil
}

// DeleteBlocklistItem removes a block rule by ID.
func (r *BlocklistRepository) DeleteBlocklistItem(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}
	result, err := r.helper.Exec(ctx, `DELETE FROM blocklist_items WHERE id = ?`, id)
	if err != nil {
		return r.mapper.Wrap(err, "failed to delete blocklist item")
	}
	return requireAffected(result)
}

func scanBlocklistItem(row rowScanner) (persistence.BlocklistItem, error) {
	var (
		item                 persistence.BlocklistItem
		category             sql.NullString
		createdAt, updatedAt string
	)
	if err := row.Scan(
		&item.ID,
		&item.UserID,
		&item.Type,
		&item.Name,
		&item.Identifier,
		&item.IsActive,
		&category,
		&createdAt,
		&updatedAt,
	); err != nil {
		return persistence.BlocklistItem{}, err
	}

	item.Category = stringPtr(category)

	var err error
	if item.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return persistence.BlocklistItem{}, err
	}
	if item.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return persistence.BlocklistItem{}, err
	}
	return item, nil
}
