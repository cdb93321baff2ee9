package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rcharbonnier/allscans/internal/storage/models"
)

// CardRepository handles the globally shared card cache. Records are
// insert-or-merge only: a card is created on first lookup miss and later
// writes only add owners or refresh volatile fields, never replace it.
type CardRepository interface {
	// Get retrieves a card by Scryfall ID.
	Get(ctx context.Context, id string) (*models.Card, error)

	// GetMany retrieves the cards whose IDs are in ids. Unknown IDs are
	// silently absent from the result.
	GetMany(ctx context.Context, ids []string) (map[string]*models.Card, error)

	// Exists reports whether a card is cached.
	Exists(ctx context.Context, id string) (bool, error)

	// Insert stores a new card record. It is a no-op if the card is
	// already cached.
	Insert(ctx context.Context, card *models.Card) error

	// AddOwner records userID as an owner of the card (set union).
	AddOwner(ctx context.Context, cardID, userID string) error

	// RemoveOwner removes userID from the card's owner set.
	RemoveOwner(ctx context.Context, cardID, userID string) error
}

type cardRepository struct {
	db *sql.DB
}

// NewCardRepository creates a new card repository.
func NewCardRepository(db *sql.DB) CardRepository {
	return &cardRepository{db: db}
}

const cardColumns = `
	id, COALESCE(oracle_id, ''), name, lang, set_code, COALESCE(set_name, ''),
	COALESCE(collector_number, ''), COALESCE(image_small, ''),
	COALESCE(image_normal, ''), COALESCE(image_border_crop, ''),
	mana_cost, cmc, type_line, COALESCE(oracle_text, ''),
	colors, color_identity, keywords, COALESCE(power, ''), COALESCE(toughness, ''),
	COALESCE(rarity, ''), legalities, price_usd, price_eur, price_tix,
	reprint, promo, created_at, updated_at
`

func scanCard(scan func(dest ...interface{}) error) (*models.Card, error) {
	card := &models.Card{}
	var colors, colorIdentity, keywords, legalities string

	err := scan(
		&card.ID, &card.OracleID, &card.Name, &card.Lang, &card.SetCode, &card.SetName,
		&card.CollectorNumber, &card.ImageSmall, &card.ImageNormal, &card.ImageBorderCrop,
		&card.ManaCost, &card.CMC, &card.TypeLine, &card.OracleText,
		&colors, &colorIdentity, &keywords, &card.Power, &card.Toughness,
		&card.Rarity, &legalities, &card.Prices.USD, &card.Prices.EUR, &card.Prices.TIX,
		&card.Reprint, &card.Promo, &card.CreatedAt, &card.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	card.Colors = stringsFromJSON(colors)
	card.ColorIdentity = stringsFromJSON(colorIdentity)
	card.Keywords = stringsFromJSON(keywords)
	card.Legalities = mapFromJSON(legalities)

	return card, nil
}

func (r *cardRepository) Get(ctx context.Context, id string) (*models.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE id = ?`

	card, err := scanCard(r.db.QueryRowContext(ctx, query, id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get card %s: %w", id, err)
	}

	return card, nil
}

func (r *cardRepository) GetMany(ctx context.Context, ids []string) (map[string]*models.Card, error) {
	result := make(map[string]*models.Card, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	placeholders := strings.Repeat("?,", len(ids)-1) + "?"
	query := `SELECT ` + cardColumns + ` FROM cards WHERE id IN (` + placeholders + `)`

	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get cards: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		card, err := scanCard(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan card: %w", err)
		}
		result[card.ID] = card
	}

	return result, rows.Err()
}

func (r *cardRepository) Exists(ctx context.Context, id string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM cards WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check card %s: %w", id, err)
	}
	return true, nil
}

func (r *cardRepository) Insert(ctx context.Context, card *models.Card) error {
	now := time.Now().UTC()
	query := `
		INSERT INTO cards (
			id, oracle_id, name, lang, set_code, set_name, collector_number,
			image_small, image_normal, image_border_crop,
			mana_cost, cmc, type_line, oracle_text,
			colors, color_identity, keywords, power, toughness,
			rarity, legalities, price_usd, price_eur, price_tix,
			reprint, promo, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`

	_, err := r.db.ExecContext(ctx, query,
		card.ID, card.OracleID, card.Name, card.Lang, card.SetCode, card.SetName, card.CollectorNumber,
		card.ImageSmall, card.ImageNormal, card.ImageBorderCrop,
		card.ManaCost, card.CMC, card.TypeLine, card.OracleText,
		toJSON(card.Colors), toJSON(card.ColorIdentity), toJSON(card.Keywords), card.Power, card.Toughness,
		card.Rarity, toJSON(card.Legalities), card.Prices.USD, card.Prices.EUR, card.Prices.TIX,
		card.Reprint, card.Promo, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert card %s: %w", card.ID, err)
	}

	return nil
}

func (r *cardRepository) AddOwner(ctx context.Context, cardID, userID string) error {
	query := `INSERT INTO card_owners (card_id, user_id) VALUES (?, ?) ON CONFLICT DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, cardID, userID); err != nil {
		return fmt.Errorf("failed to add owner to card %s: %w", cardID, err)
	}
	return nil
}

func (r *cardRepository) RemoveOwner(ctx context.Context, cardID, userID string) error {
	query := `DELETE FROM card_owners WHERE card_id = ? AND user_id = ?`
	if _, err := r.db.ExecContext(ctx, query, cardID, userID); err != nil {
		return fmt.Errorf("failed to remove owner from card %s: %w", cardID, err)
	}
	return nil
}
