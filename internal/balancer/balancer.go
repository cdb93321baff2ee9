// Package balancer implements automatic basic-land balancing for decks.
//
// The target manabase is inferred from the colored mana symbols of the
// deck's spells: each color receives a share of the open basic-land slots
// proportional to its pip count, the current basics are diffed against
// that ideal, and the delta is reconciled against the user's owned copies
// with a synthetic supply as the fallback.
package balancer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/rcharbonnier/allscans/internal/scryfall"
	"github.com/rcharbonnier/allscans/internal/storage"
	"github.com/rcharbonnier/allscans/internal/storage/models"
)

// ErrNotADeck is returned when the targeted item is a folder.
var ErrNotADeck = errors.New("item is not a deck")

const (
	targetStandard  = 24
	targetCommander = 36
)

// colorOrder fixes the per-color processing order so results are
// deterministic.
var colorOrder = []string{"W", "U", "B", "R", "G", "C"}

// basicLandNames maps a color symbol to its basic land.
var basicLandNames = map[string]string{
	"W": "Plains",
	"U": "Island",
	"B": "Swamp",
	"R": "Mountain",
	"G": "Forest",
	"C": "Wastes",
}

// fallbackPrintings maps each basic land name to the fixed printing used
// as an infinite synthetic supply when the owned inventory runs out.
var fallbackPrintings = map[string]string{
	"Plains":   "bc71ebf6-2056-41f7-be35-b2e5c34afa99",
	"Island":   "b2c6aa39-2d2a-459c-a555-fb48ba993373",
	"Swamp":    "8365ab45-6d78-47ad-a6ed-282069b0fabc",
	"Mountain": "42232ea6-e31d-46a6-9f94-b2ad2416d79b",
	"Forest":   "32ebcf91-e868-4e09-abba-77d117241ab8",
	"Wastes":   "60682c00-c661-4a9d-8326-f3f014a04e3e",
}

// Provider is the external lookup surface used to materialize fallback
// printings that are not cached yet.
type Provider interface {
	GetCard(ctx context.Context, id string) (*scryfall.Card, error)
}

// Result reports what a balance run changed.
type Result struct {
	Added     []string `json:"added"`
	Removed   []string `json:"removed"`
	CardCount int      `json:"card_count"`
}

// Service balances deck manabases.
type Service struct {
	storage  *storage.Service
	provider Provider
	logger   *zap.Logger
}

// NewService creates a balancer service.
func NewService(store *storage.Service, provider Provider, logger *zap.Logger) *Service {
	return &Service{
		storage:  store,
		provider: provider,
		logger:   logger.Named("balancer"),
	}
}

// Balance adjusts the basic lands of the deck toward the pip-proportional
// ideal. Two concurrent runs on the same deck are not mutually excluded;
// last write wins, which is acceptable because decks are single-user.
func (s *Service) Balance(ctx context.Context, userID, deckID string) (*Result, error) {
	deck, err := s.storage.Items().Get(ctx, userID, deckID)
	if err != nil {
		return nil, err
	}
	if !deck.IsDeck() {
		return nil, ErrNotADeck
	}

	seq := append([]string{}, deck.Cards...)

	// Fetch metadata once per distinct card.
	unique := make([]string, 0, len(seq))
	seen := make(map[string]bool, len(seq))
	for _, id := range seq {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	cards, err := s.storage.Cards().GetMany(ctx, unique)
	if err != nil {
		return nil, err
	}

	pips, totalPips, nonBasicLands := analyze(seq, cards)

	target := targetStandard
	if strings.EqualFold(deck.Format, "commander") {
		target = targetCommander
	}
	slots := target - nonBasicLands

	result := &Result{Added: []string{}, Removed: []string{}, CardCount: len(seq)}
	if slots <= 0 || totalPips == 0 {
		return result, nil
	}

	for _, color := range colorOrder {
		if pips[color] == 0 {
			continue
		}
		name := basicLandNames[color]

		// Rounding is half away from zero; with positive shares this
		// behaves as round-half-up, which is the documented tie-break.
		ideal := int(math.Round(float64(pips[color]) / float64(totalPips) * float64(slots)))
		current := countByName(seq, cards, name)

		switch diff := ideal - current; {
		case diff < 0:
			seq = removeCopies(seq, cards, name, -diff)
			result.Removed = append(result.Removed, fmt.Sprintf("%s: removed %d", name, -diff))

		case diff > 0:
			added, err := s.addCopies(ctx, userID, &seq, cards, name, diff)
			if err != nil {
				return nil, err
			}
			result.Added = append(result.Added, added...)
		}
	}

	if err := s.storage.Items().UpdateCards(ctx, userID, deckID, seq); err != nil {
		return nil, err
	}

	result.CardCount = len(seq)
	return result, nil
}

// analyze classifies every card occurrence in the sequence: lands count
// toward the non-basic total unless they are exactly named basics, spells
// contribute their colored mana symbols to the pip tally.
func analyze(seq []string, cards map[string]*models.Card) (pips map[string]int, totalPips, nonBasicLands int) {
	basicNames := make(map[string]bool, len(basicLandNames))
	for _, name := range basicLandNames {
		basicNames[name] = true
	}

	pips = make(map[string]int, len(colorOrder))
	for _, id := range seq {
		card, ok := cards[id]
		if !ok {
			continue
		}
		if strings.Contains(card.TypeLine, "Land") {
			if !basicNames[card.Name] {
				nonBasicLands++
			}
			continue
		}
		for _, color := range colorOrder {
			n := strings.Count(card.ManaCost, "{"+color+"}")
			pips[color] += n
			totalPips += n
		}
	}
	return pips, totalPips, nonBasicLands
}

// countByName counts the occurrences in seq whose cached name matches.
func countByName(seq []string, cards map[string]*models.Card, name string) int {
	count := 0
	for _, id := range seq {
		if card, ok := cards[id]; ok && card.Name == name {
			count++
		}
	}
	return count
}

// removeCopies drops the first n occurrences of the named card, scanning
// front to back. Which printing goes first among duplicates of the same
// name is whatever order the deck stores them in.
func removeCopies(seq []string, cards map[string]*models.Card, name string, n int) []string {
	out := seq[:0]
	for _, id := range seq {
		if n > 0 {
			if card, ok := cards[id]; ok && card.Name == name {
				n--
				continue
			}
		}
		out = append(out, id)
	}
	return out
}

// addCopies satisfies a shortfall of the named basic land: owned printings
// not already used in the deck are consumed first, the fixed fallback
// printing covers the remainder as an infinite synthetic supply.
func (s *Service) addCopies(ctx context.Context, userID string, seq *[]string, cards map[string]*models.Card, name string, need int) ([]string, error) {
	var logs []string

	inDeck := make(map[string]int, len(*seq))
	for _, id := range *seq {
		inDeck[id]++
	}

	printings, err := s.storage.UserCards().OwnedPrintingsByName(ctx, userID, name)
	if err != nil {
		return nil, err
	}

	fromOwned := 0
	for _, p := range printings {
		if need == 0 {
			break
		}
		available := p.Count - inDeck[p.CardID]
		if available <= 0 {
			continue
		}
		take := available
		if take > need {
			take = need
		}
		for i := 0; i < take; i++ {
			*seq = append(*seq, p.CardID)
		}
		fromOwned += take
		need -= take
	}
	if fromOwned > 0 {
		logs = append(logs, fmt.Sprintf("%s: added %d from owned copies", name, fromOwned))
	}

	if need > 0 {
		fallbackID := fallbackPrintings[name]
		if err := s.ensureCached(ctx, fallbackID, name); err != nil {
			// The added ids stay unresolved until the card can be
			// fetched; the balance itself still proceeds.
			s.logger.Warn("failed to materialize fallback printing",
				zap.String("name", name), zap.String("card_id", fallbackID), zap.Error(err))
		}
		for i := 0; i < need; i++ {
			*seq = append(*seq, fallbackID)
		}
		logs = append(logs, fmt.Sprintf("%s: added %d from basic supply", name, need))
	}

	return logs, nil
}

// ensureCached guarantees the fallback printing exists in the shared card
// cache, fetching it from the provider on a miss.
func (s *Service) ensureCached(ctx context.Context, cardID, name string) error {
	exists, err := s.storage.Cards().Exists(ctx, cardID)
	if err != nil || exists {
		return err
	}

	sc, err := s.provider.GetCard(ctx, cardID)
	if err != nil {
		return fmt.Errorf("fetching fallback %s: %w", name, err)
	}

	return s.storage.Cards().Insert(ctx, models.FromScryfall(sc))
}
