package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rcharbonnier/allscans/internal/storage/models"
)

// ItemUpdate holds the optional fields of an item update. Nil pointers
// leave the stored value untouched.
type ItemUpdate struct {
	Name   *string
	Format *string
	Image  *string
}

// ItemRepository handles the per-user folder/deck tree. All operations are
// scoped to a user; an item belonging to someone else behaves as missing.
type ItemRepository interface {
	// Create inserts a new folder or deck.
	Create(ctx context.Context, item *models.Item) (*models.Item, error)

	// Get retrieves an item owned by userID.
	Get(ctx context.Context, userID, itemID string) (*models.Item, error)

	// ListByParent lists the children of parentID (nil for roots).
	ListByParent(ctx context.Context, userID string, parentID *string) ([]*models.Item, error)

	// ListDecks lists every deck of the user, regardless of folder.
	ListDecks(ctx context.Context, userID string) ([]*models.Item, error)

	// Update applies the non-nil fields of upd.
	Update(ctx context.Context, userID, itemID string, upd ItemUpdate) error

	// UpdateCards replaces the ordered card-id sequence of a deck.
	UpdateCards(ctx context.Context, userID, itemID string, cards []string) error

	// Delete removes an item.
	Delete(ctx context.Context, userID, itemID string) error

	// Duplicate clones an item (cards, format, image) under a new name
	// and returns the copy.
	Duplicate(ctx context.Context, userID, itemID, newName string) (*models.Item, error)
}

type itemRepository struct {
	db *sql.DB
}

// NewItemRepository creates a new item repository.
func NewItemRepository(db *sql.DB) ItemRepository {
	return &itemRepository{db: db}
}

const itemColumns = `id, user_id, type, name, parent_id, image, format, cards, created_at, updated_at`

func scanItem(scan func(dest ...interface{}) error) (*models.Item, error) {
	item := &models.Item{}
	var parentID, image sql.NullString
	var cards string

	err := scan(
		&item.ID, &item.UserID, &item.Type, &item.Name,
		&parentID, &image, &item.Format, &cards,
		&item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if parentID.Valid {
		item.ParentID = &parentID.String
	}
	if image.Valid {
		item.Image = &image.String
	}
	item.Cards = stringsFromJSON(cards)

	return item, nil
}

func (r *itemRepository) Create(ctx context.Context, item *models.Item) (*models.Item, error) {
	now := time.Now().UTC()
	item.ID = uuid.NewString()
	item.CreatedAt = now
	item.UpdatedAt = now
	if item.Cards == nil {
		item.Cards = []string{}
	}
	if item.Format == "" {
		item.Format = "standard"
	}

	query := `
		INSERT INTO items (id, user_id, type, name, parent_id, image, format, cards, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		item.ID, item.UserID, item.Type, item.Name,
		item.ParentID, item.Image, item.Format, toJSON(item.Cards),
		item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create item: %w", err)
	}

	return item, nil
}

func (r *itemRepository) Get(ctx context.Context, userID, itemID string) (*models.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE id = ? AND user_id = ?`

	item, err := scanItem(r.db.QueryRowContext(ctx, query, itemID, userID).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item %s: %w", itemID, err)
	}

	return item, nil
}

func (r *itemRepository) ListByParent(ctx context.Context, userID string, parentID *string) ([]*models.Item, error) {
	var (
		query string
		args  []interface{}
	)
	if parentID == nil {
		query = `SELECT ` + itemColumns + ` FROM items WHERE user_id = ? AND parent_id IS NULL ORDER BY name ASC`
		args = []interface{}{userID}
	} else {
		query = `SELECT ` + itemColumns + ` FROM items WHERE user_id = ? AND parent_id = ? ORDER BY name ASC`
		args = []interface{}{userID, *parentID}
	}

	return r.list(ctx, query, args...)
}

func (r *itemRepository) ListDecks(ctx context.Context, userID string) ([]*models.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE user_id = ? AND type = 'deck' ORDER BY name ASC`
	return r.list(ctx, query, userID)
}

func (r *itemRepository) list(ctx context.Context, query string, args ...interface{}) ([]*models.Item, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var items []*models.Item
	for rows.Next() {
		item, err := scanItem(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

func (r *itemRepository) Update(ctx context.Context, userID, itemID string, upd ItemUpdate) error {
	set := []string{"updated_at = ?"}
	args := []interface{}{time.Now().UTC()}

	if upd.Name != nil {
		set = append(set, "name = ?")
		args = append(args, *upd.Name)
	}
	if upd.Format != nil {
		set = append(set, "format = ?")
		args = append(args, *upd.Format)
	}
	if upd.Image != nil {
		set = append(set, "image = ?")
		args = append(args, *upd.Image)
	}
	if len(set) == 1 {
		return fmt.Errorf("no fields to update")
	}

	query := `UPDATE items SET `
	for i, s := range set {
		if i > 0 {
			query += ", "
		}
		query += s
	}
	query += ` WHERE id = ? AND user_id = ?`
	args = append(args, itemID, userID)

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update item %s: %w", itemID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *itemRepository) UpdateCards(ctx context.Context, userID, itemID string, cards []string) error {
	if cards == nil {
		cards = []string{}
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE items SET cards = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
		toJSON(cards), time.Now().UTC(), itemID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update cards of item %s: %w", itemID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *itemRepository) Delete(ctx context.Context, userID, itemID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM items WHERE id = ? AND user_id = ?`, itemID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete item %s: %w", itemID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *itemRepository) Duplicate(ctx context.Context, userID, itemID, newName string) (*models.Item, error) {
	original, err := r.Get(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}

	clone := &models.Item{
		UserID:   userID,
		Type:     original.Type,
		Name:     newName,
		ParentID: original.ParentID,
		Image:    original.Image,
		Format:   original.Format,
		Cards:    append([]string{}, original.Cards...),
	}

	return r.Create(ctx, clone)
}
