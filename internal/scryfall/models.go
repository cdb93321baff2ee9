package scryfall

import "fmt"

// Card represents a raw Magic card object returned by Scryfall.
// Only the fields this application consumes are mapped; everything else is
// dropped during decoding.
type Card struct {
	// Core identifiers
	ID       string `json:"id"`
	OracleID string `json:"oracle_id"`

	// Card details
	Name          string     `json:"name"`
	Lang          string     `json:"lang"`
	ManaCost      string     `json:"mana_cost,omitempty"`
	CMC           float64    `json:"cmc"`
	TypeLine      string     `json:"type_line"`
	OracleText    string     `json:"oracle_text,omitempty"`
	Colors        []string   `json:"colors,omitempty"`
	ColorIdentity []string   `json:"color_identity,omitempty"`
	Keywords      []string   `json:"keywords,omitempty"`
	Power         string     `json:"power,omitempty"`
	Toughness     string     `json:"toughness,omitempty"`
	ImageURIs     *ImageURIs `json:"image_uris,omitempty"`

	// Print details
	SetCode         string `json:"set"`
	SetName         string `json:"set_name"`
	CollectorNumber string `json:"collector_number"`
	Rarity          string `json:"rarity"`
	Reprint         bool   `json:"reprint"`
	Promo           bool   `json:"promo"`

	// Faces of double-faced / modal cards. When the root-level image,
	// mana cost, type line or oracle text is absent, the first face
	// carries the data.
	CardFaces []CardFace `json:"card_faces,omitempty"`

	// Legality mapping format -> status ("legal", "not_legal", ...).
	Legalities map[string]string `json:"legalities,omitempty"`

	// Prices as decimal strings; Scryfall omits currencies it has no
	// price for.
	Prices Prices `json:"prices"`
}

// CardFace represents one face of a multi-faced card.
type CardFace struct {
	Name       string     `json:"name"`
	ManaCost   string     `json:"mana_cost,omitempty"`
	TypeLine   string     `json:"type_line"`
	OracleText string     `json:"oracle_text,omitempty"`
	Colors     []string   `json:"colors,omitempty"`
	Power      string     `json:"power,omitempty"`
	Toughness  string     `json:"toughness,omitempty"`
	ImageURIs  *ImageURIs `json:"image_uris,omitempty"`
}

// ImageURIs contains URLs for card images in the sizes the app serves.
type ImageURIs struct {
	Small      string `json:"small"`
	Normal     string `json:"normal"`
	BorderCrop string `json:"border_crop"`
}

// Prices holds decimal price strings keyed by currency.
type Prices struct {
	USD *string `json:"usd,omitempty"`
	EUR *string `json:"eur,omitempty"`
	TIX *string `json:"tix,omitempty"`
}

// APIError represents an error response from the Scryfall API.
type APIError struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Details string `json:"details"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("scryfall API error %d (%s): %s", e.Status, e.Code, e.Details)
}

// NotFoundError indicates a card lookup that returned HTTP 404.
type NotFoundError struct {
	URL string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("resource not found: %s", e.URL)
}
