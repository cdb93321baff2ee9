package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/rcharbonnier/allscans/internal/storage/models"
)

func TestItemRepositoryCreateDefaults(t *testing.T) {
	db := setupDB(t)
	repo := NewItemRepository(db)
	ctx := context.Background()

	item, err := repo.Create(ctx, &models.Item{
		UserID: "u1",
		Type:   models.ItemTypeDeck,
		Name:   "Burn",
	})
	if err != nil {
		t.Fatalf("failed to create item: %v", err)
	}
	if item.ID == "" {
		t.Fatal("expected generated item id")
	}
	if item.Format != "standard" {
		t.Errorf("expected default format standard, got %q", item.Format)
	}
	if item.Cards == nil || len(item.Cards) != 0 {
		t.Errorf("expected empty card sequence, got %v", item.Cards)
	}
}

func TestItemRepositoryGetScopedToUser(t *testing.T) {
	db := setupDB(t)
	repo := NewItemRepository(db)
	ctx := context.Background()

	item, err := repo.Create(ctx, &models.Item{UserID: "u1", Type: models.ItemTypeFolder, Name: "Binder"})
	if err != nil {
		t.Fatalf("failed to create item: %v", err)
	}

	if _, err := repo.Get(ctx, "u1", item.ID); err != nil {
		t.Fatalf("owner should see the item: %v", err)
	}
	if _, err := repo.Get(ctx, "u2", item.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("other user's item must behave as missing, got %v", err)
	}
}

func TestItemRepositoryListByParent(t *testing.T) {
	db := setupDB(t)
	repo := NewItemRepository(db)
	ctx := context.Background()

	root, err := repo.Create(ctx, &models.Item{UserID: "u1", Type: models.ItemTypeFolder, Name: "Root"})
	if err != nil {
		t.Fatalf("failed to create root: %v", err)
	}
	if _, err := repo.Create(ctx, &models.Item{UserID: "u1", Type: models.ItemTypeDeck, Name: "Child", ParentID: &root.ID}); err != nil {
		t.Fatalf("failed to create child: %v", err)
	}

	roots, err := repo.ListByParent(ctx, "u1", nil)
	if err != nil {
		t.Fatalf("failed to list roots: %v", err)
	}
	if len(roots) != 1 || roots[0].Name != "Root" {
		t.Errorf("expected only the root folder, got %v", roots)
	}

	children, err := repo.ListByParent(ctx, "u1", &root.ID)
	if err != nil {
		t.Fatalf("failed to list children: %v", err)
	}
	if len(children) != 1 || children[0].Name != "Child" {
		t.Errorf("expected only the child deck, got %v", children)
	}
}

func TestItemRepositoryListDecks(t *testing.T) {
	db := setupDB(t)
	repo := NewItemRepository(db)
	ctx := context.Background()

	if _, err := repo.Create(ctx, &models.Item{UserID: "u1", Type: models.ItemTypeFolder, Name: "Folder"}); err != nil {
		t.Fatalf("failed to create folder: %v", err)
	}
	if _, err := repo.Create(ctx, &models.Item{UserID: "u1", Type: models.ItemTypeDeck, Name: "Deck A"}); err != nil {
		t.Fatalf("failed to create deck: %v", err)
	}
	if _, err := repo.Create(ctx, &models.Item{UserID: "u1", Type: models.ItemTypeDeck, Name: "Deck B"}); err != nil {
		t.Fatalf("failed to create deck: %v", err)
	}

	decks, err := repo.ListDecks(ctx, "u1")
	if err != nil {
		t.Fatalf("failed to list decks: %v", err)
	}
	if len(decks) != 2 {
		t.Fatalf("expected 2 decks, got %d", len(decks))
	}
	for _, deck := range decks {
		if !deck.IsDeck() {
			t.Errorf("folder leaked into deck list: %v", deck.Name)
		}
	}
}

func TestItemRepositoryUpdate(t *testing.T) {
	db := setupDB(t)
	repo := NewItemRepository(db)
	ctx := context.Background()

	item, err := repo.Create(ctx, &models.Item{UserID: "u1", Type: models.ItemTypeDeck, Name: "Old"})
	if err != nil {
		t.Fatalf("failed to create item: %v", err)
	}

	newName := "New"
	newFormat := "commander"
	if err := repo.Update(ctx, "u1", item.ID, ItemUpdate{Name: &newName, Format: &newFormat}); err != nil {
		t.Fatalf("failed to update: %v", err)
	}

	got, err := repo.Get(ctx, "u1", item.ID)
	if err != nil {
		t.Fatalf("failed to get item: %v", err)
	}
	if got.Name != "New" || got.Format != "commander" {
		t.Errorf("update not applied: %+v", got)
	}

	if err := repo.Update(ctx, "u1", item.ID, ItemUpdate{}); err == nil {
		t.Error("expected error when no fields to update")
	}
	if err := repo.Update(ctx, "u1", "missing", ItemUpdate{Name: &newName}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestItemRepositoryUpdateCardsKeepsOrderAndDuplicates(t *testing.T) {
	db := setupDB(t)
	repo := NewItemRepository(db)
	ctx := context.Background()

	item, err := repo.Create(ctx, &models.Item{UserID: "u1", Type: models.ItemTypeDeck, Name: "Deck"})
	if err != nil {
		t.Fatalf("failed to create deck: %v", err)
	}

	seq := []string{"a", "b", "a", "c", "a"}
	if err := repo.UpdateCards(ctx, "u1", item.ID, seq); err != nil {
		t.Fatalf("failed to update cards: %v", err)
	}

	got, err := repo.Get(ctx, "u1", item.ID)
	if err != nil {
		t.Fatalf("failed to get deck: %v", err)
	}
	if len(got.Cards) != 5 {
		t.Fatalf("expected 5 card entries, got %d", len(got.Cards))
	}
	for i, id := range seq {
		if got.Cards[i] != id {
			t.Errorf("position %d: expected %q, got %q", i, id, got.Cards[i])
		}
	}
}

func TestItemRepositoryDelete(t *testing.T) {
	db := setupDB(t)
	repo := NewItemRepository(db)
	ctx := context.Background()

	item, err := repo.Create(ctx, &models.Item{UserID: "u1", Type: models.ItemTypeFolder, Name: "Gone"})
	if err != nil {
		t.Fatalf("failed to create item: %v", err)
	}

	if err := repo.Delete(ctx, "u1", item.ID); err != nil {
		t.Fatalf("failed to delete: %v", err)
	}
	if err := repo.Delete(ctx, "u1", item.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on double delete, got %v", err)
	}
}

func TestItemRepositoryDuplicate(t *testing.T) {
	db := setupDB(t)
	repo := NewItemRepository(db)
	ctx := context.Background()

	image := "https://img/deck.jpg"
	original, err := repo.Create(ctx, &models.Item{
		UserID: "u1",
		Type:   models.ItemTypeDeck,
		Name:   "Original",
		Image:  &image,
		Format: "commander",
		Cards:  []string{"a", "a", "b"},
	})
	if err != nil {
		t.Fatalf("failed to create deck: %v", err)
	}

	clone, err := repo.Duplicate(ctx, "u1", original.ID, "Copy")
	if err != nil {
		t.Fatalf("failed to duplicate: %v", err)
	}
	if clone.ID == original.ID {
		t.Error("clone must get a fresh id")
	}
	if clone.Name != "Copy" {
		t.Errorf("expected new name, got %q", clone.Name)
	}
	if clone.Format != "commander" {
		t.Errorf("expected format copied, got %q", clone.Format)
	}
	if len(clone.Cards) != 3 {
		t.Errorf("expected card sequence copied, got %v", clone.Cards)
	}

	if _, err := repo.Duplicate(ctx, "u1", "missing", "X"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
