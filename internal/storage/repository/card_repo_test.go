package repository

import (
	"context"
	"errors"
	"testing"
)

func TestCardRepositoryInsertAndGet(t *testing.T) {
	db := setupDB(t)
	repo := NewCardRepository(db)
	ctx := context.Background()

	card := testCard("card-1", "Lightning Bolt")
	card.ManaCost = "{R}"
	card.Colors = []string{"R"}
	card.Prices.USD = 1.5

	if err := repo.Insert(ctx, card); err != nil {
		t.Fatalf("failed to insert card: %v", err)
	}

	got, err := repo.Get(ctx, "card-1")
	if err != nil {
		t.Fatalf("failed to get card: %v", err)
	}
	if got.Name != "Lightning Bolt" {
		t.Errorf("expected name Lightning Bolt, got %q", got.Name)
	}
	if got.ManaCost != "{R}" {
		t.Errorf("expected mana cost {R}, got %q", got.ManaCost)
	}
	if len(got.Colors) != 1 || got.Colors[0] != "R" {
		t.Errorf("expected colors [R], got %v", got.Colors)
	}
	if got.Prices.USD != 1.5 {
		t.Errorf("expected USD price 1.5, got %v", got.Prices.USD)
	}
}

func TestCardRepositoryInsertNeverOverwrites(t *testing.T) {
	db := setupDB(t)
	repo := NewCardRepository(db)
	ctx := context.Background()

	original := testCard("card-1", "Original Name")
	if err := repo.Insert(ctx, original); err != nil {
		t.Fatalf("failed to insert card: %v", err)
	}

	conflicting := testCard("card-1", "Changed Name")
	if err := repo.Insert(ctx, conflicting); err != nil {
		t.Fatalf("conflicting insert should be a no-op, got: %v", err)
	}

	got, err := repo.Get(ctx, "card-1")
	if err != nil {
		t.Fatalf("failed to get card: %v", err)
	}
	if got.Name != "Original Name" {
		t.Errorf("cached record was overwritten: got %q", got.Name)
	}
}

func TestCardRepositoryGetManySkipsUnknown(t *testing.T) {
	db := setupDB(t)
	repo := NewCardRepository(db)
	ctx := context.Background()

	if err := repo.Insert(ctx, testCard("a", "Card A")); err != nil {
		t.Fatalf("failed to insert card: %v", err)
	}
	if err := repo.Insert(ctx, testCard("b", "Card B")); err != nil {
		t.Fatalf("failed to insert card: %v", err)
	}

	got, err := repo.GetMany(ctx, []string{"a", "missing", "b"})
	if err != nil {
		t.Fatalf("failed to get cards: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 cards, got %d", len(got))
	}
	if _, found := got["missing"]; found {
		t.Error("unknown id should be absent from result")
	}
}

func TestCardRepositoryGetManyEmpty(t *testing.T) {
	db := setupDB(t)
	repo := NewCardRepository(db)

	got, err := repo.GetMany(context.Background(), nil)
	if err != nil {
		t.Fatalf("failed on empty id list: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty result, got %d", len(got))
	}
}

func TestCardRepositoryNotFound(t *testing.T) {
	db := setupDB(t)
	repo := NewCardRepository(db)

	if _, err := repo.Get(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCardRepositoryOwners(t *testing.T) {
	db := setupDB(t)
	repo := NewCardRepository(db)
	ctx := context.Background()

	if err := repo.Insert(ctx, testCard("card-1", "Shared")); err != nil {
		t.Fatalf("failed to insert card: %v", err)
	}

	if err := repo.AddOwner(ctx, "card-1", "user-1"); err != nil {
		t.Fatalf("failed to add owner: %v", err)
	}
	// Adding the same owner twice must be a no-op.
	if err := repo.AddOwner(ctx, "card-1", "user-1"); err != nil {
		t.Fatalf("duplicate add owner failed: %v", err)
	}
	if err := repo.AddOwner(ctx, "card-1", "user-2"); err != nil {
		t.Fatalf("failed to add second owner: %v", err)
	}

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM card_owners WHERE card_id = 'card-1'`).Scan(&count); err != nil {
		t.Fatalf("failed to count owners: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 owners, got %d", count)
	}

	if err := repo.RemoveOwner(ctx, "card-1", "user-1"); err != nil {
		t.Fatalf("failed to remove owner: %v", err)
	}
	if err := db.QueryRow(`SELECT COUNT(*) FROM card_owners WHERE card_id = 'card-1'`).Scan(&count); err != nil {
		t.Fatalf("failed to count owners: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 owner after removal, got %d", count)
	}

	exists, err := repo.Exists(ctx, "card-1")
	if err != nil || !exists {
		t.Errorf("expected card to exist, got %v, %v", exists, err)
	}
	exists, err = repo.Exists(ctx, "missing")
	if err != nil || exists {
		t.Errorf("expected card to be missing, got %v, %v", exists, err)
	}
}
