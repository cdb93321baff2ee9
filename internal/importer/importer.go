// Package importer reconciles free-text decklist imports against the
// external card provider and the user's inventory ledger.
package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rcharbonnier/allscans/internal/decklist"
	"github.com/rcharbonnier/allscans/internal/scryfall"
	"github.com/rcharbonnier/allscans/internal/storage"
	"github.com/rcharbonnier/allscans/internal/storage/models"
)

const (
	// persistPause yields between ledger writes so imports stay polite
	// to concurrent requests; not correctness-critical.
	persistPause      = 20 * time.Millisecond
	persistPauseEvery = 5

	// progressEvery is how many reconciled records pass between
	// progress snapshots.
	progressEvery = 2
)

// Provider is the external lookup surface the reconciler consumes.
type Provider interface {
	LookupCollection(ctx context.Context, identifiers []scryfall.CardIdentifier) ([]scryfall.Card, []scryfall.CardIdentifier, error)
}

// RawEntry is one element of an import payload. Clients may send either a
// plain decklist line or a {name, quantity} object.
type RawEntry struct {
	Name     string
	Quantity int
}

// UnmarshalJSON accepts "4 Lightning Bolt" as well as
// {"name": "Lightning Bolt", "quantity": 4}.
func (e *RawEntry) UnmarshalJSON(data []byte) error {
	var line string
	if err := json.Unmarshal(data, &line); err == nil {
		e.Name = line
		e.Quantity = 0
		return nil
	}

	var obj struct {
		Name     string `json:"name"`
		Quantity int    `json:"quantity"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("entry must be a string or a {name, quantity} object: %w", err)
	}
	e.Name = obj.Name
	e.Quantity = obj.Quantity
	return nil
}

// line renders the entry back into decklist syntax for the parser.
func (e *RawEntry) line() string {
	if e.Quantity > 0 {
		return fmt.Sprintf("%d %s", e.Quantity, e.Name)
	}
	return e.Name
}

// Service runs import jobs. Each user has at most one active job; the
// triggering request returns immediately and progress is polled.
type Service struct {
	storage  *storage.Service
	provider Provider
	tracker  *Tracker
	logger   *zap.Logger
}

// NewService creates an import service.
func NewService(store *storage.Service, provider Provider, logger *zap.Logger) *Service {
	return &Service{
		storage:  store,
		provider: provider,
		tracker:  NewTracker(),
		logger:   logger.Named("importer"),
	}
}

// Progress returns the user's current job snapshot.
func (s *Service) Progress(userID string) Job {
	return s.tracker.Get(userID)
}

// Start launches an asynchronous import of the given entries and returns
// the raw entry count. Any import already running for the user is
// cancelled and its job state overwritten.
func (s *Service) Start(userID string, entries []RawEntry) int {
	ctx, gen := s.tracker.Begin(userID, len(entries))

	go s.run(ctx, userID, gen, entries)

	return len(entries)
}

// run is the background reconciliation pipeline. It never returns an
// error to a caller: every failure terminates in the job's status field.
func (s *Service) run(ctx context.Context, userID string, gen uint64, entries []RawEntry) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("import panicked", zap.String("user_id", userID), zap.Any("panic", r))
			s.tracker.Update(userID, gen, func(j *Job) {
				j.Status = StatusError
				j.Error = fmt.Sprintf("internal error: %v", r)
			})
		}
	}()

	if err := s.reconcile(ctx, userID, gen, entries); err != nil {
		if ctx.Err() != nil {
			// Superseded by a newer import; its job owns the state now.
			return
		}
		s.logger.Warn("import failed", zap.String("user_id", userID), zap.Error(err))
		s.tracker.Update(userID, gen, func(j *Job) {
			j.Status = StatusError
			j.Error = err.Error()
		})
	}
}

func (s *Service) reconcile(ctx context.Context, userID string, gen uint64, entries []RawEntry) error {
	s.tracker.Update(userID, gen, func(j *Job) { j.Status = StatusProcessing })

	// Parse every entry; unparseable lines are dropped.
	parsed := make([]*decklist.Entry, 0, len(entries))
	for _, e := range entries {
		if p := decklist.Parse(e.line()); p != nil {
			parsed = append(parsed, p)
		}
	}

	total := len(parsed)
	s.tracker.Update(userID, gen, func(j *Job) { j.Total = total })

	// One lookup identifier per parsed entry; the provider tolerates
	// redundant lookups, and duplicate keys merge their quantities in the
	// map. Each returned record resolves its quantity from that map.
	identifiers := make([]scryfall.CardIdentifier, 0, total)
	quantities := make(map[string]int, total)
	for _, p := range parsed {
		if p.Set != "" && p.CollectorNumber != "" {
			identifiers = append(identifiers, scryfall.CardIdentifier{Set: p.Set, CollectorNumber: p.CollectorNumber})
		} else {
			identifiers = append(identifiers, scryfall.CardIdentifier{Name: p.Name})
		}
		quantities[p.Key()] += p.Quantity
	}

	var fetched []scryfall.Card
	if len(identifiers) > 0 {
		var notFound []scryfall.CardIdentifier
		var err error
		fetched, notFound, err = s.provider.LookupCollection(ctx, identifiers)
		if err != nil && ctx.Err() != nil {
			return err
		}
		if err != nil {
			// Partial success: failed chunks are skipped, the rest of
			// the pipeline continues with whatever came back.
			s.logger.Warn("provider lookup partially failed",
				zap.String("user_id", userID), zap.Error(err))
		}
		if len(notFound) > 0 {
			s.logger.Info("cards not found by provider",
				zap.String("user_id", userID), zap.Int("count", len(notFound)))
		}
	}

	imported := 0
	for idx := range fetched {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if idx > 0 && idx%persistPauseEvery == 0 {
			time.Sleep(persistPause)
		}

		card := models.FromScryfall(&fetched[idx])
		if card.ID == "" {
			continue
		}

		qty := resolveQuantity(&fetched[idx], quantities)
		if qty < 1 {
			qty = 1
		}

		// Shared cache: insert when absent, otherwise only extend the
		// owner set.
		if err := s.storage.Cards().Insert(ctx, card); err != nil {
			return fmt.Errorf("caching card %s: %w", card.ID, err)
		}
		if err := s.storage.Cards().AddOwner(ctx, card.ID, userID); err != nil {
			return fmt.Errorf("recording ownership of %s: %w", card.ID, err)
		}

		// Ledger: increment when present, insert denormalized otherwise.
		if err := s.storage.UserCards().AddCopies(ctx, userID, card, qty); err != nil {
			return fmt.Errorf("updating ledger for %s: %w", card.ID, err)
		}

		imported++
		if imported%progressEvery == 0 {
			done := imported
			s.tracker.Update(userID, gen, func(j *Job) {
				j.Processed = done
				j.Imported = done
			})
		}
	}

	s.tracker.Update(userID, gen, func(j *Job) {
		j.Status = StatusCompleted
		j.Processed = total
		j.Imported = imported
	})

	return nil
}

// resolveQuantity matches a fetched card back to the requested quantity:
// exact set:collector key first, lower-cased name second, one copy as the
// default.
func resolveQuantity(sc *scryfall.Card, quantities map[string]int) int {
	exact := strings.ToLower(sc.SetCode + ":" + sc.CollectorNumber)
	if qty, ok := quantities[exact]; ok {
		return qty
	}
	if qty, ok := quantities[strings.ToLower(sc.Name)]; ok {
		return qty
	}
	return 1
}
