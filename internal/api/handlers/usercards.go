package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/rcharbonnier/allscans/internal/api/response"
	"github.com/rcharbonnier/allscans/internal/importer"
	"github.com/rcharbonnier/allscans/internal/scryfall"
	"github.com/rcharbonnier/allscans/internal/storage"
	"github.com/rcharbonnier/allscans/internal/storage/models"
	"github.com/rcharbonnier/allscans/internal/storage/repository"
)

// UserCardsHandler serves the inventory ledger endpoints.
type UserCardsHandler struct {
	storage  *storage.Service
	importer *importer.Service
}

// NewUserCardsHandler creates a new UserCardsHandler.
func NewUserCardsHandler(store *storage.Service, imp *importer.Service) *UserCardsHandler {
	return &UserCardsHandler{storage: store, importer: imp}
}

// Search runs a filtered, paginated search over the caller's inventory.
func (h *UserCardsHandler) Search(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	filter := repository.SearchFilter{
		Name:           q.Get("name"),
		Rarity:         q.Get("rarity"),
		TypeLine:       q.Get("type_line"),
		Keywords:       q.Get("keywords"),
		Power:          q.Get("power"),
		Toughness:      q.Get("toughness"),
		FormatLegality: q.Get("format_legality"),
		SortBy:         q.Get("sort_by"),
		Page:           1,
		Limit:          200,
	}
	if colors := q.Get("colors"); colors != "" {
		for _, c := range strings.Split(colors, ",") {
			if c = strings.TrimSpace(c); c != "" {
				filter.Colors = append(filter.Colors, c)
			}
		}
	}
	if raw := q.Get("cmc"); raw != "" {
		cmc, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			response.BadRequest(w, errors.New("cmc must be a number"))
			return
		}
		filter.CMC = &cmc
	}
	if raw := q.Get("page"); raw != "" {
		if page, err := strconv.Atoi(raw); err == nil && page > 0 {
			filter.Page = page
		}
	}
	if raw := q.Get("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil && limit > 0 {
			filter.Limit = limit
		}
	}

	results, total, err := h.storage.UserCards().Search(r.Context(), userID, filter)
	if err != nil {
		response.InternalError(w, err)
		return
	}
	if results == nil {
		results = []*models.UserCard{}
	}

	response.Paginated(w, results, filter.Page, filter.Limit, total)
}

// AddCard adds one copy of a raw provider card to the caller's inventory,
// caching it on first sight.
func (h *UserCardsHandler) AddCard(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var raw scryfall.Card
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		response.BadRequest(w, errors.New("invalid card payload"))
		return
	}
	if raw.ID == "" {
		response.BadRequest(w, errors.New("card id is required"))
		return
	}

	card := models.FromScryfall(&raw)
	if err := h.storage.Cards().Insert(r.Context(), card); err != nil {
		response.InternalError(w, err)
		return
	}
	if err := h.storage.Cards().AddOwner(r.Context(), card.ID, userID); err != nil {
		response.InternalError(w, err)
		return
	}
	if err := h.storage.UserCards().AddCopies(r.Context(), userID, card, 1); err != nil {
		response.InternalError(w, err)
		return
	}

	response.Created(w, map[string]string{"card_id": card.ID})
}

// UpdateCount sets the owned count of a ledger entry. A count of zero or
// below removes the entry.
func (h *UserCardsHandler) UpdateCount(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	cardID := chi.URLParam(r, "cardID")

	var req struct {
		Count *int `json:"count"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Count == nil {
		response.BadRequest(w, errors.New("count is required"))
		return
	}

	if err := h.storage.UserCards().SetCount(r.Context(), userID, cardID, *req.Count); err != nil {
		mapStorageError(w, err)
		return
	}

	response.Success(w, map[string]string{"message": "updated"})
}

// Import launches an asynchronous decklist import. A running import for
// the same user is cancelled and replaced.
func (h *UserCardsHandler) Import(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var entries []importer.RawEntry
	if err := json.NewDecoder(r.Body).Decode(&entries); err != nil {
		response.BadRequest(w, errors.New("body must be an array of entries"))
		return
	}

	total := h.importer.Start(userID, entries)
	response.Success(w, map[string]interface{}{"message": "import started", "total": total})
}

// ImportProgress returns the caller's current import job snapshot.
func (h *UserCardsHandler) ImportProgress(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	response.Success(w, h.importer.Progress(userID))
}
