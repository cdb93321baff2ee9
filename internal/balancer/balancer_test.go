package balancer

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rcharbonnier/allscans/internal/scryfall"
	"github.com/rcharbonnier/allscans/internal/storage"
	"github.com/rcharbonnier/allscans/internal/storage/models"
	"github.com/rcharbonnier/allscans/internal/storage/repository"
)

// fakeProvider serves basic-land printings by id.
type fakeProvider struct {
	mu    sync.Mutex
	calls []string
}

func (p *fakeProvider) GetCard(ctx context.Context, id string) (*scryfall.Card, error) {
	p.mu.Lock()
	p.calls = append(p.calls, id)
	p.mu.Unlock()

	for name, fallbackID := range fallbackPrintings {
		if fallbackID == id {
			return &scryfall.Card{
				ID:       id,
				Name:     name,
				TypeLine: "Basic Land — " + name,
			}, nil
		}
	}
	return nil, &scryfall.NotFoundError{URL: id}
}

func setupBalancer(t *testing.T) (*Service, *storage.Service, *fakeProvider, string) {
	t.Helper()

	db, err := storage.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store := storage.NewService(db)
	user, err := store.Users().Create(context.Background(), "Alice", "alice@example.com", "hash")
	require.NoError(t, err)

	provider := &fakeProvider{}
	return NewService(store, provider, zap.NewNop()), store, provider, user.ID
}

func seedCard(t *testing.T, store *storage.Service, id, name, typeLine, manaCost string) {
	t.Helper()

	card := &models.Card{
		ID:            id,
		Name:          name,
		Lang:          "en",
		TypeLine:      typeLine,
		ManaCost:      manaCost,
		Colors:        []string{},
		ColorIdentity: []string{},
		Keywords:      []string{},
		Legalities:    map[string]string{},
	}
	require.NoError(t, store.Cards().Insert(context.Background(), card))
}

func createDeck(t *testing.T, store *storage.Service, userID, format string, cards []string) string {
	t.Helper()

	deck, err := store.Items().Create(context.Background(), &models.Item{
		UserID: userID,
		Type:   models.ItemTypeDeck,
		Name:   "Test Deck",
		Format: format,
		Cards:  cards,
	})
	require.NoError(t, err)
	return deck.ID
}

func countID(seq []string, id string) int {
	n := 0
	for _, s := range seq {
		if s == id {
			n++
		}
	}
	return n
}

func TestBalanceProportionalSplit(t *testing.T) {
	svc, store, _, userID := setupBalancer(t)
	ctx := context.Background()

	seedCard(t, store, "bolt", "Lightning Bolt", "Instant", "{R}")
	seedCard(t, store, "opt", "Opt", "Instant", "{U}")

	// 4 red pips, 2 blue pips, 24 slots: 16 Mountains, 8 Islands.
	deckID := createDeck(t, store, userID, "standard", []string{
		"bolt", "bolt", "bolt", "bolt", "opt", "opt",
	})

	result, err := svc.Balance(ctx, userID, deckID)
	require.NoError(t, err)

	deck, err := store.Items().Get(ctx, userID, deckID)
	require.NoError(t, err)
	assert.Equal(t, 16, countID(deck.Cards, fallbackPrintings["Mountain"]))
	assert.Equal(t, 8, countID(deck.Cards, fallbackPrintings["Island"]))
	assert.Equal(t, 6+24, result.CardCount)
	assert.Len(t, result.Added, 2)
	assert.Empty(t, result.Removed)
}

func TestBalanceCommanderTarget(t *testing.T) {
	svc, store, _, userID := setupBalancer(t)
	ctx := context.Background()

	seedCard(t, store, "bolt", "Lightning Bolt", "Instant", "{R}")
	deckID := createDeck(t, store, userID, "Commander", []string{"bolt"})

	_, err := svc.Balance(ctx, userID, deckID)
	require.NoError(t, err)

	deck, err := store.Items().Get(ctx, userID, deckID)
	require.NoError(t, err)
	assert.Equal(t, 36, countID(deck.Cards, fallbackPrintings["Mountain"]))
}

func TestBalanceNoOpWithoutPips(t *testing.T) {
	svc, store, _, userID := setupBalancer(t)
	ctx := context.Background()

	seedCard(t, store, "grotto", "Crystal Grotto", "Land", "")
	deckID := createDeck(t, store, userID, "standard", []string{"grotto", "grotto"})

	result, err := svc.Balance(ctx, userID, deckID)
	require.NoError(t, err)
	assert.Empty(t, result.Added)
	assert.Empty(t, result.Removed)
	assert.Equal(t, 2, result.CardCount)
}

func TestBalanceNoOpWhenNoSlotsLeft(t *testing.T) {
	svc, store, _, userID := setupBalancer(t)
	ctx := context.Background()

	seedCard(t, store, "bolt", "Lightning Bolt", "Instant", "{R}")
	seedCard(t, store, "grotto", "Crystal Grotto", "Land", "")

	cards := []string{"bolt"}
	for i := 0; i < 24; i++ {
		cards = append(cards, "grotto")
	}
	deckID := createDeck(t, store, userID, "standard", cards)

	result, err := svc.Balance(ctx, userID, deckID)
	require.NoError(t, err)
	assert.Empty(t, result.Added)
	assert.Empty(t, result.Removed)
	assert.Equal(t, 25, result.CardCount)
}

func TestBalanceConsumesOwnedSupplyFirst(t *testing.T) {
	svc, store, _, userID := setupBalancer(t)
	ctx := context.Background()

	seedCard(t, store, "bolt", "Lightning Bolt", "Instant", "{R}")
	seedCard(t, store, "mtn-owned", "Mountain", "Basic Land — Mountain", "")

	owned := &models.Card{ID: "mtn-owned", Name: "Mountain", Lang: "en",
		TypeLine: "Basic Land — Mountain",
		Colors:   []string{}, ColorIdentity: []string{}, Keywords: []string{},
		Legalities: map[string]string{}}
	require.NoError(t, store.UserCards().AddCopies(ctx, userID, owned, 10))

	// 3 owned Mountains are already slotted in; only 7 remain available.
	deckID := createDeck(t, store, userID, "standard", []string{
		"bolt", "bolt", "bolt", "bolt",
		"mtn-owned", "mtn-owned", "mtn-owned",
	})

	result, err := svc.Balance(ctx, userID, deckID)
	require.NoError(t, err)

	deck, err := store.Items().Get(ctx, userID, deckID)
	require.NoError(t, err)
	// Ideal is 24 Mountains: 3 were present, 7 more come from the owned
	// printing, the remaining 14 from the synthetic supply.
	assert.Equal(t, 10, countID(deck.Cards, "mtn-owned"))
	assert.Equal(t, 14, countID(deck.Cards, fallbackPrintings["Mountain"]))

	require.Len(t, result.Added, 2)
	assert.Contains(t, result.Added[0], "7")
	assert.Contains(t, result.Added[1], "14")
}

func TestBalanceRemovesExcessBasics(t *testing.T) {
	svc, store, _, userID := setupBalancer(t)
	ctx := context.Background()

	seedCard(t, store, "bolt", "Lightning Bolt", "Instant", "{R}")
	seedCard(t, store, "opt", "Opt", "Instant", "{U}")
	seedCard(t, store, "mtn", "Mountain", "Basic Land — Mountain", "")

	cards := []string{"bolt", "opt"}
	for i := 0; i < 20; i++ {
		cards = append(cards, "mtn")
	}
	deckID := createDeck(t, store, userID, "standard", cards)

	result, err := svc.Balance(ctx, userID, deckID)
	require.NoError(t, err)

	deck, err := store.Items().Get(ctx, userID, deckID)
	require.NoError(t, err)
	// One pip each: 12 Mountains and 12 Islands.
	assert.Equal(t, 12, countID(deck.Cards, "mtn"))
	assert.Equal(t, 12, countID(deck.Cards, fallbackPrintings["Island"]))

	require.Len(t, result.Removed, 1)
	assert.True(t, strings.HasPrefix(result.Removed[0], "Mountain"))
	assert.Contains(t, result.Removed[0], "8")
}

func TestBalanceFallbackFillsCache(t *testing.T) {
	svc, store, provider, userID := setupBalancer(t)
	ctx := context.Background()

	seedCard(t, store, "bolt", "Lightning Bolt", "Instant", "{R}")
	deckID := createDeck(t, store, userID, "standard", []string{"bolt"})

	_, err := svc.Balance(ctx, userID, deckID)
	require.NoError(t, err)

	cached, err := store.Cards().Get(ctx, fallbackPrintings["Mountain"])
	require.NoError(t, err)
	assert.Equal(t, "Mountain", cached.Name)

	provider.mu.Lock()
	assert.Len(t, provider.calls, 1)
	provider.mu.Unlock()

	// A second run finds the printing cached and skips the provider.
	_, err = svc.Balance(ctx, userID, deckID)
	require.NoError(t, err)

	provider.mu.Lock()
	assert.Len(t, provider.calls, 1)
	provider.mu.Unlock()
}

func TestBalanceRejectsFolders(t *testing.T) {
	svc, store, _, userID := setupBalancer(t)
	ctx := context.Background()

	folder, err := store.Items().Create(ctx, &models.Item{
		UserID: userID,
		Type:   models.ItemTypeFolder,
		Name:   "Not a deck",
	})
	require.NoError(t, err)

	_, err = svc.Balance(ctx, userID, folder.ID)
	assert.ErrorIs(t, err, ErrNotADeck)

	_, err = svc.Balance(ctx, userID, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
