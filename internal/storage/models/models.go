package models

import "time"

// Item types.
const (
	ItemTypeFolder = "folder"
	ItemTypeDeck   = "deck"
)

// User is a registered account.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// UserCard is a denormalized inventory ledger entry: one row per
// (user, card) pair with the owned count and enough display fields to
// answer filtered searches without joining the global card table.
type UserCard struct {
	UserID string `json:"user_id"`
	CardID string `json:"card_id"`
	Count  int    `json:"count"`

	Name            string            `json:"name"`
	Lang            string            `json:"lang,omitempty"`
	OracleID        string            `json:"oracle_id,omitempty"`
	SetCode         string            `json:"set"`
	SetName         string            `json:"set_name,omitempty"`
	CollectorNumber string            `json:"collector_number,omitempty"`
	ImageSmall      string            `json:"image_small,omitempty"`
	ImageNormal     string            `json:"image_normal,omitempty"`
	Rarity          string            `json:"rarity,omitempty"`
	Colors          []string          `json:"colors"`
	TypeLine        string            `json:"type_line"`
	OracleText      string            `json:"oracle_text,omitempty"`
	Keywords        []string          `json:"keywords"`
	CMC             float64           `json:"cmc"`
	Power           string            `json:"power,omitempty"`
	Toughness       string            `json:"toughness,omitempty"`
	Legalities      map[string]string `json:"legalities"`
	Prices          Prices            `json:"prices"`

	AddedAt time.Time `json:"added_at"`
}

// NewUserCard builds a ledger entry from a cached card record.
func NewUserCard(userID string, card *Card, count int) *UserCard {
	return &UserCard{
		UserID:          userID,
		CardID:          card.ID,
		Count:           count,
		Name:            card.Name,
		Lang:            card.Lang,
		OracleID:        card.OracleID,
		SetCode:         card.SetCode,
		SetName:         card.SetName,
		CollectorNumber: card.CollectorNumber,
		ImageSmall:      card.ImageSmall,
		ImageNormal:     card.ImageNormal,
		Rarity:          card.Rarity,
		Colors:          card.Colors,
		TypeLine:        card.TypeLine,
		OracleText:      card.OracleText,
		Keywords:        card.Keywords,
		CMC:             card.CMC,
		Power:           card.Power,
		Toughness:       card.Toughness,
		Legalities:      card.Legalities,
		Prices:          card.Prices,
	}
}

// Item is a node of the per-user folder/deck tree. Cards holds an ordered
// sequence of card IDs; the same ID may appear several times, each
// occurrence representing one physical copy in the deck.
type Item struct {
	ID       string   `json:"id"`
	UserID   string   `json:"user_id"`
	Type     string   `json:"type"`
	Name     string   `json:"name"`
	ParentID *string  `json:"parent_id"`
	Image    *string  `json:"image"`
	Format   string   `json:"format,omitempty"`
	Cards    []string `json:"cards"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsDeck reports whether the item is a deck.
func (i *Item) IsDeck() bool {
	return i.Type == ItemTypeDeck
}

// DeckCard is one line of an enriched deck listing: a distinct card with
// its copy count and the display fields the deck view needs.
type DeckCard struct {
	CardID      string   `json:"card_id"`
	Quantity    int      `json:"quantity"`
	Name        string   `json:"name"`
	ImageNormal string   `json:"image_normal,omitempty"`
	ManaCost    string   `json:"mana_cost"`
	TypeLine    string   `json:"type_line"`
	Colors      []string `json:"colors"`
	CMC         float64  `json:"cmc"`
}
