package repository

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/rcharbonnier/allscans/internal/storage/models"
)

const testSchema = `
CREATE TABLE users (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    email TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE cards (
    id TEXT PRIMARY KEY,
    oracle_id TEXT,
    name TEXT NOT NULL,
    lang TEXT NOT NULL DEFAULT 'en',
    set_code TEXT NOT NULL DEFAULT '',
    set_name TEXT,
    collector_number TEXT,
    image_small TEXT,
    image_normal TEXT,
    image_border_crop TEXT,
    mana_cost TEXT NOT NULL DEFAULT '',
    cmc REAL NOT NULL DEFAULT 0,
    type_line TEXT NOT NULL DEFAULT '',
    oracle_text TEXT,
    colors TEXT NOT NULL DEFAULT '[]',
    color_identity TEXT NOT NULL DEFAULT '[]',
    keywords TEXT NOT NULL DEFAULT '[]',
    power TEXT,
    toughness TEXT,
    rarity TEXT,
    legalities TEXT NOT NULL DEFAULT '{}',
    price_usd REAL NOT NULL DEFAULT 0,
    price_eur REAL NOT NULL DEFAULT 0,
    price_tix REAL NOT NULL DEFAULT 0,
    reprint INTEGER NOT NULL DEFAULT 0,
    promo INTEGER NOT NULL DEFAULT 0,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE card_owners (
    card_id TEXT NOT NULL,
    user_id TEXT NOT NULL,
    PRIMARY KEY (card_id, user_id)
);

CREATE TABLE user_cards (
    user_id TEXT NOT NULL,
    card_id TEXT NOT NULL,
    count INTEGER NOT NULL CHECK (count >= 1),
    name TEXT NOT NULL,
    lang TEXT,
    oracle_id TEXT,
    set_code TEXT,
    set_name TEXT,
    collector_number TEXT,
    image_small TEXT,
    image_normal TEXT,
    rarity TEXT,
    colors TEXT NOT NULL DEFAULT '[]',
    color_key TEXT NOT NULL DEFAULT '',
    type_line TEXT NOT NULL DEFAULT '',
    oracle_text TEXT,
    keywords TEXT NOT NULL DEFAULT '[]',
    cmc REAL NOT NULL DEFAULT 0,
    power TEXT,
    toughness TEXT,
    legalities TEXT NOT NULL DEFAULT '{}',
    price_usd REAL NOT NULL DEFAULT 0,
    price_eur REAL NOT NULL DEFAULT 0,
    price_tix REAL NOT NULL DEFAULT 0,
    added_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (user_id, card_id)
);

CREATE TABLE items (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    type TEXT NOT NULL CHECK (type IN ('folder', 'deck')),
    name TEXT NOT NULL,
    parent_id TEXT,
    image TEXT,
    format TEXT NOT NULL DEFAULT 'standard',
    cards TEXT NOT NULL DEFAULT '[]',
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

func setupDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(testSchema); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("failed to close database: %v", err)
		}
	})

	return db
}

func testCard(id, name string) *models.Card {
	return &models.Card{
		ID:            id,
		Name:          name,
		Lang:          "en",
		SetCode:       "tst",
		TypeLine:      "Instant",
		Colors:        []string{},
		ColorIdentity: []string{},
		Keywords:      []string{},
		Legalities:    map[string]string{},
	}
}
