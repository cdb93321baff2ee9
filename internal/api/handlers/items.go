package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rcharbonnier/allscans/internal/api/response"
	"github.com/rcharbonnier/allscans/internal/balancer"
	"github.com/rcharbonnier/allscans/internal/storage"
	"github.com/rcharbonnier/allscans/internal/storage/models"
	"github.com/rcharbonnier/allscans/internal/storage/repository"
)

// ItemsHandler serves the folder/deck tree endpoints.
type ItemsHandler struct {
	storage  *storage.Service
	balancer *balancer.Service
}

// NewItemsHandler creates a new ItemsHandler.
func NewItemsHandler(store *storage.Service, bal *balancer.Service) *ItemsHandler {
	return &ItemsHandler{storage: store, balancer: bal}
}

// Create inserts a new folder or deck.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req struct {
		Name     string  `json:"name"`
		Type     string  `json:"type"`
		ParentID *string `json:"parent_id"`
		Image    *string `json:"image"`
		Format   string  `json:"format"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, errors.New("invalid request body"))
		return
	}
	if req.Name == "" {
		response.BadRequest(w, errors.New("name is required"))
		return
	}
	if req.Type == "" {
		req.Type = models.ItemTypeFolder
	}
	if req.Type != models.ItemTypeFolder && req.Type != models.ItemTypeDeck {
		response.BadRequest(w, errors.New("type must be folder or deck"))
		return
	}

	item, err := h.storage.Items().Create(r.Context(), &models.Item{
		UserID:   userID,
		Type:     req.Type,
		Name:     req.Name,
		ParentID: req.ParentID,
		Image:    req.Image,
		Format:   req.Format,
	})
	if err != nil {
		response.InternalError(w, err)
		return
	}

	response.Created(w, item)
}

// List returns the children of a folder, or the roots when no parent_id
// query parameter is given.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var parentID *string
	if raw := r.URL.Query().Get("parent_id"); raw != "" {
		parentID = &raw
	}

	items, err := h.storage.Items().ListByParent(r.Context(), userID, parentID)
	if err != nil {
		response.InternalError(w, err)
		return
	}
	if items == nil {
		items = []*models.Item{}
	}

	response.Success(w, map[string]interface{}{"items": items})
}

// ListDecks returns every deck of the user regardless of folder.
func (h *ItemsHandler) ListDecks(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	items, err := h.storage.Items().ListDecks(r.Context(), userID)
	if err != nil {
		response.InternalError(w, err)
		return
	}
	if items == nil {
		items = []*models.Item{}
	}

	response.Success(w, map[string]interface{}{"items": items})
}

// itemDetail is an item whose card-id sequence has been replaced with
// grouped, cache-enriched entries.
type itemDetail struct {
	*models.Item
	Cards []models.DeckCard `json:"cards"`
}

// Get returns a single item. Deck card sequences are grouped by id in
// first-appearance order and joined with the card cache; ids missing from
// the cache are skipped.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	itemID := chi.URLParam(r, "itemID")

	item, err := h.storage.Items().Get(r.Context(), userID, itemID)
	if err != nil {
		mapStorageError(w, err)
		return
	}

	if !item.IsDeck() || len(item.Cards) == 0 {
		response.Success(w, item)
		return
	}

	counts := make(map[string]int, len(item.Cards))
	order := make([]string, 0, len(item.Cards))
	for _, id := range item.Cards {
		if counts[id] == 0 {
			order = append(order, id)
		}
		counts[id]++
	}

	cards, err := h.storage.Cards().GetMany(r.Context(), order)
	if err != nil {
		response.InternalError(w, err)
		return
	}

	enriched := make([]models.DeckCard, 0, len(order))
	for _, id := range order {
		card, found := cards[id]
		if !found {
			continue
		}
		enriched = append(enriched, models.DeckCard{
			CardID:      id,
			Quantity:    counts[id],
			Name:        card.Name,
			ImageNormal: card.ImageNormal,
			ManaCost:    card.ManaCost,
			TypeLine:    card.TypeLine,
			Colors:      card.Colors,
			CMC:         card.CMC,
		})
	}

	response.Success(w, itemDetail{Item: item, Cards: enriched})
}

// Update applies a partial update (name, format, image).
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	itemID := chi.URLParam(r, "itemID")

	var req struct {
		Name   *string `json:"name"`
		Format *string `json:"format"`
		Image  *string `json:"image"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, errors.New("invalid request body"))
		return
	}
	if req.Name == nil && req.Format == nil && req.Image == nil {
		response.BadRequest(w, errors.New("nothing to update"))
		return
	}

	err := h.storage.Items().Update(r.Context(), userID, itemID, repository.ItemUpdate{
		Name:   req.Name,
		Format: req.Format,
		Image:  req.Image,
	})
	if err != nil {
		mapStorageError(w, err)
		return
	}

	response.Success(w, map[string]string{"message": "updated"})
}

// AddCard appends a card id to a deck's sequence. Duplicates are allowed.
func (h *ItemsHandler) AddCard(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	itemID := chi.URLParam(r, "itemID")

	var req struct {
		CardID string `json:"card_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CardID == "" {
		response.BadRequest(w, errors.New("card_id is required"))
		return
	}

	item, err := h.storage.Items().Get(r.Context(), userID, itemID)
	if err != nil {
		mapStorageError(w, err)
		return
	}
	if !item.IsDeck() {
		response.BadRequest(w, errors.New("item is not a deck"))
		return
	}

	cards := append(item.Cards, req.CardID)
	if err := h.storage.Items().UpdateCards(r.Context(), userID, itemID, cards); err != nil {
		mapStorageError(w, err)
		return
	}

	response.Success(w, map[string]string{"message": "card added", "added_id": req.CardID})
}

// RemoveCard removes the first occurrence of a card id from a deck's
// sequence.
func (h *ItemsHandler) RemoveCard(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	itemID := chi.URLParam(r, "itemID")

	var req struct {
		CardID string `json:"card_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CardID == "" {
		response.BadRequest(w, errors.New("card_id is required"))
		return
	}

	item, err := h.storage.Items().Get(r.Context(), userID, itemID)
	if err != nil {
		mapStorageError(w, err)
		return
	}

	removed := false
	cards := make([]string, 0, len(item.Cards))
	for _, id := range item.Cards {
		if !removed && id == req.CardID {
			removed = true
			continue
		}
		cards = append(cards, id)
	}
	if !removed {
		response.NotFound(w, errors.New("card not in deck"))
		return
	}

	if err := h.storage.Items().UpdateCards(r.Context(), userID, itemID, cards); err != nil {
		mapStorageError(w, err)
		return
	}

	response.Success(w, map[string]string{"message": "card removed"})
}

// Delete removes an item.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	itemID := chi.URLParam(r, "itemID")

	if err := h.storage.Items().Delete(r.Context(), userID, itemID); err != nil {
		mapStorageError(w, err)
		return
	}

	response.Success(w, map[string]string{"message": "deleted"})
}

// Duplicate clones an item under a new name.
func (h *ItemsHandler) Duplicate(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	itemID := chi.URLParam(r, "itemID")

	var req struct {
		NewName string `json:"new_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, errors.New("invalid request body"))
		return
	}
	if req.NewName == "" {
		req.NewName = "Untitled copy"
	}

	clone, err := h.storage.Items().Duplicate(r.Context(), userID, itemID, req.NewName)
	if err != nil {
		mapStorageError(w, err)
		return
	}

	response.Created(w, clone)
}

// Balance runs the basic-land balancer on a deck.
func (h *ItemsHandler) Balance(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	itemID := chi.URLParam(r, "itemID")

	result, err := h.balancer.Balance(r.Context(), userID, itemID)
	if errors.Is(err, balancer.ErrNotADeck) {
		response.BadRequest(w, err)
		return
	}
	if err != nil {
		mapStorageError(w, err)
		return
	}

	response.Success(w, result)
}
