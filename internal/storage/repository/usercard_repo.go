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

// SearchFilter holds the optional filters of an inventory search. Zero
// values mean "not filtered".
type SearchFilter struct {
	Name           string
	Rarity         string
	Colors         []string // exact color set; []{"C"} matches colorless
	TypeLine       string   // comma list, "-" prefix excludes, e.g. "creature,-legendary"
	Keywords       string
	CMC            *float64
	Power          string
	Toughness      string
	FormatLegality string   // format name whose status must be legal/restricted

	SortBy string // name (default), cmc, rarity, added_at
	Page   int
	Limit  int
}

// OwnedPrinting is one distinct printing of a card the user owns,
// used by the land balancer to consume owned supply.
type OwnedPrinting struct {
	CardID string
	Count  int
}

// UserCardRepository handles the per-user denormalized inventory ledger.
type UserCardRepository interface {
	// Get retrieves a single ledger entry.
	Get(ctx context.Context, userID, cardID string) (*models.UserCard, error)

	// AddCopies increments the owned count of (userID, card.ID) by qty,
	// inserting a denormalized entry when none exists.
	AddCopies(ctx context.Context, userID string, card *models.Card, qty int) error

	// SetCount sets the owned count directly. A count of zero or below
	// deletes the entry.
	SetCount(ctx context.Context, userID, cardID string, count int) error

	// Delete removes a ledger entry.
	Delete(ctx context.Context, userID, cardID string) error

	// CountsFor returns owned counts keyed by card ID for the given IDs.
	CountsFor(ctx context.Context, userID string, cardIDs []string) (map[string]int, error)

	// Search returns ledger entries matching the filter plus the total
	// match count for pagination.
	Search(ctx context.Context, userID string, filter SearchFilter) ([]*models.UserCard, int, error)

	// OwnedPrintingsByName lists the distinct printings of an exactly
	// named card the user owns, oldest acquisition first.
	OwnedPrintingsByName(ctx context.Context, userID, name string) ([]OwnedPrinting, error)
}

type userCardRepository struct {
	db *sql.DB
}

// NewUserCardRepository creates a new inventory ledger repository.
func NewUserCardRepository(db *sql.DB) UserCardRepository {
	return &userCardRepository{db: db}
}

const userCardColumns = `
	user_id, card_id, count, name, COALESCE(lang, ''), COALESCE(oracle_id, ''),
	COALESCE(set_code, ''), COALESCE(set_name, ''), COALESCE(collector_number, ''),
	COALESCE(image_small, ''), COALESCE(image_normal, ''), COALESCE(rarity, ''),
	colors, type_line, COALESCE(oracle_text, ''), keywords, cmc,
	COALESCE(power, ''), COALESCE(toughness, ''), legalities,
	price_usd, price_eur, price_tix, added_at
`

func scanUserCard(scan func(dest ...interface{}) error) (*models.UserCard, error) {
	uc := &models.UserCard{}
	var colors, keywords, legalities string

	err := scan(
		&uc.UserID, &uc.CardID, &uc.Count, &uc.Name, &uc.Lang, &uc.OracleID,
		&uc.SetCode, &uc.SetName, &uc.CollectorNumber,
		&uc.ImageSmall, &uc.ImageNormal, &uc.Rarity,
		&colors, &uc.TypeLine, &uc.OracleText, &keywords, &uc.CMC,
		&uc.Power, &uc.Toughness, &legalities,
		&uc.Prices.USD, &uc.Prices.EUR, &uc.Prices.TIX, &uc.AddedAt,
	)
	if err != nil {
		return nil, err
	}

	uc.Colors = stringsFromJSON(colors)
	uc.Keywords = stringsFromJSON(keywords)
	uc.Legalities = mapFromJSON(legalities)

	return uc, nil
}

func (r *userCardRepository) Get(ctx context.Context, userID, cardID string) (*models.UserCard, error) {
	query := `SELECT ` + userCardColumns + ` FROM user_cards WHERE user_id = ? AND card_id = ?`

	uc, err := scanUserCard(r.db.QueryRowContext(ctx, query, userID, cardID).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user card: %w", err)
	}

	return uc, nil
}

func (r *userCardRepository) AddCopies(ctx context.Context, userID string, card *models.Card, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("quantity must be positive, got %d", qty)
	}

	query := `
		INSERT INTO user_cards (
			user_id, card_id, count, name, lang, oracle_id,
			set_code, set_name, collector_number, image_small, image_normal,
			rarity, colors, color_key, type_line, oracle_text, keywords,
			cmc, power, toughness, legalities, price_usd, price_eur, price_tix, added_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, card_id) DO UPDATE SET count = count + excluded.count
	`

	_, err := r.db.ExecContext(ctx, query,
		userID, card.ID, qty, card.Name, card.Lang, card.OracleID,
		card.SetCode, card.SetName, card.CollectorNumber, card.ImageSmall, card.ImageNormal,
		card.Rarity, toJSON(card.Colors), models.ColorKey(card.Colors), card.TypeLine, card.OracleText, toJSON(card.Keywords),
		card.CMC, card.Power, card.Toughness, toJSON(card.Legalities),
		card.Prices.USD, card.Prices.EUR, card.Prices.TIX, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to add copies of card %s: %w", card.ID, err)
	}

	return nil
}

func (r *userCardRepository) SetCount(ctx context.Context, userID, cardID string, count int) error {
	if count <= 0 {
		return r.Delete(ctx, userID, cardID)
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE user_cards SET count = ? WHERE user_id = ? AND card_id = ?`,
		count, userID, cardID,
	)
	if err != nil {
		return fmt.Errorf("failed to set count for card %s: %w", cardID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *userCardRepository) Delete(ctx context.Context, userID, cardID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM user_cards WHERE user_id = ? AND card_id = ?`,
		userID, cardID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete user card %s: %w", cardID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *userCardRepository) CountsFor(ctx context.Context, userID string, cardIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(cardIDs))
	if len(cardIDs) == 0 {
		return counts, nil
	}

	placeholders := strings.Repeat("?,", len(cardIDs)-1) + "?"
	query := `SELECT card_id, count FROM user_cards WHERE user_id = ? AND card_id IN (` + placeholders + `)`

	args := make([]interface{}, 0, len(cardIDs)+1)
	args = append(args, userID)
	for _, id := range cardIDs {
		args = append(args, id)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get owned counts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var id string
		var count int
		if err := rows.Scan(&id, &count); err != nil {
			return nil, fmt.Errorf("failed to scan owned count: %w", err)
		}
		counts[id] = count
	}

	return counts, rows.Err()
}

// sortColumns whitelists the sortable columns of a search.
var sortColumns = map[string]string{
	"name":     "name",
	"cmc":      "cmc",
	"rarity":   "rarity",
	"added_at": "added_at",
	"price":    "price_usd",
}

func (r *userCardRepository) Search(ctx context.Context, userID string, filter SearchFilter) ([]*models.UserCard, int, error) {
	where := []string{"user_id = ?"}
	args := []interface{}{userID}

	if filter.Name != "" {
		where = append(where, "name LIKE ?")
		args = append(args, "%"+filter.Name+"%")
	}
	if filter.Rarity != "" {
		where = append(where, "rarity = ?")
		args = append(args, filter.Rarity)
	}
	if len(filter.Colors) > 0 {
		// Exact color-set match; "C" selects colorless cards.
		key := ""
		if !(len(filter.Colors) == 1 && filter.Colors[0] == "C") {
			key = models.ColorKey(filter.Colors)
		}
		where = append(where, "color_key = ?")
		args = append(args, key)
	}
	for _, t := range strings.Split(filter.TypeLine, ",") {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if neg, ok := strings.CutPrefix(t, "-"); ok {
			if neg = strings.TrimSpace(neg); neg != "" {
				where = append(where, "type_line NOT LIKE ?")
				args = append(args, "%"+neg+"%")
			}
			continue
		}
		where = append(where, "type_line LIKE ?")
		args = append(args, "%"+t+"%")
	}
	if filter.Keywords != "" {
		where = append(where, "keywords LIKE ?")
		args = append(args, "%"+filter.Keywords+"%")
	}
	if filter.CMC != nil {
		where = append(where, "cmc = ?")
		args = append(args, *filter.CMC)
	}
	if filter.Power != "" {
		where = append(where, "power = ?")
		args = append(args, filter.Power)
	}
	if filter.Toughness != "" {
		where = append(where, "toughness = ?")
		args = append(args, filter.Toughness)
	}
	if filter.FormatLegality != "" {
		where = append(where, "json_extract(legalities, '$.'||?) IN ('legal', 'restricted')")
		args = append(args, filter.FormatLegality)
	}

	whereClause := strings.Join(where, " AND ")

	var total int
	countQuery := `SELECT COUNT(*) FROM user_cards WHERE ` + whereClause
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count search results: %w", err)
	}

	sortCol, ok := sortColumns[filter.SortBy]
	if !ok {
		sortCol = "name"
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 200
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}

	query := `SELECT ` + userCardColumns + ` FROM user_cards WHERE ` + whereClause +
		` ORDER BY ` + sortCol + ` ASC LIMIT ? OFFSET ?`
	args = append(args, limit, (page-1)*limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to search user cards: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*models.UserCard
	for rows.Next() {
		uc, err := scanUserCard(rows.Scan)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan user card: %w", err)
		}
		results = append(results, uc)
	}

	return results, total, rows.Err()
}

func (r *userCardRepository) OwnedPrintingsByName(ctx context.Context, userID, name string) ([]OwnedPrinting, error) {
	query := `
		SELECT card_id, count
		FROM user_cards
		WHERE user_id = ? AND name = ?
		ORDER BY added_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, userID, name)
	if err != nil {
		return nil, fmt.Errorf("failed to get owned printings of %q: %w", name, err)
	}
	defer func() { _ = rows.Close() }()

	var printings []OwnedPrinting
	for rows.Next() {
		var p OwnedPrinting
		if err := rows.Scan(&p.CardID, &p.Count); err != nil {
			return nil, fmt.Errorf("failed to scan owned printing: %w", err)
		}
		printings = append(printings, p)
	}

	return printings, rows.Err()
}
