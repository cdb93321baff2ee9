// Package models defines the persisted record types for the collection store.
package models

import (
	"strconv"
	"strings"
	"time"

	"github.com/rcharbonnier/allscans/internal/scryfall"
)

// Card is the normalized, globally shared card record. It is keyed by the
// Scryfall ID and referenced by every user who owns a printing of it.
type Card struct {
	ID       string `json:"id"`
	OracleID string `json:"oracle_id,omitempty"`

	Name string `json:"name"`
	Lang string `json:"lang"`

	SetCode         string `json:"set"`
	SetName         string `json:"set_name,omitempty"`
	CollectorNumber string `json:"collector_number,omitempty"`

	ImageSmall      string `json:"image_small,omitempty"`
	ImageNormal     string `json:"image_normal,omitempty"`
	ImageBorderCrop string `json:"image_border_crop,omitempty"`

	ManaCost      string   `json:"mana_cost"`
	CMC           float64  `json:"cmc"`
	TypeLine      string   `json:"type_line"`
	OracleText    string   `json:"oracle_text,omitempty"`
	Colors        []string `json:"colors"`
	ColorIdentity []string `json:"color_identity"`
	Keywords      []string `json:"keywords"`
	Power         string   `json:"power,omitempty"`
	Toughness     string   `json:"toughness,omitempty"`

	Rarity     string            `json:"rarity,omitempty"`
	Legalities map[string]string `json:"legalities"`
	Prices     Prices            `json:"prices"`
	Reprint    bool              `json:"reprint"`
	Promo      bool              `json:"promo"`

	OwnedCount int `json:"owned_count,omitempty"`

	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// Prices holds numeric card prices per currency. Missing or invalid
// provider prices normalize to 0.
type Prices struct {
	USD float64 `json:"usd"`
	EUR float64 `json:"eur"`
	TIX float64 `json:"tix"`
}

// FromScryfall flattens a raw Scryfall card object into a Card. Root-level
// fields are preferred; for double-faced cards without a root image the
// first face supplies image, mana cost, type line, oracle text and
// power/toughness. Price strings are coerced to float64 with invalid or
// missing values becoming 0.
func FromScryfall(sc *scryfall.Card) *Card {
	imageSmall, imageNormal, imageBorderCrop := "", "", ""
	if sc.ImageURIs != nil {
		imageSmall = sc.ImageURIs.Small
		imageNormal = sc.ImageURIs.Normal
		imageBorderCrop = sc.ImageURIs.BorderCrop
	}
	manaCost := sc.ManaCost
	oracleText := sc.OracleText
	typeLine := sc.TypeLine
	power := sc.Power
	toughness := sc.Toughness

	if imageNormal == "" && len(sc.CardFaces) > 0 {
		face := sc.CardFaces[0]
		if face.ImageURIs != nil {
			imageSmall = face.ImageURIs.Small
			imageNormal = face.ImageURIs.Normal
			imageBorderCrop = face.ImageURIs.BorderCrop
		}
		manaCost = face.ManaCost
		oracleText = face.OracleText
		typeLine = face.TypeLine
		power = face.Power
		toughness = face.Toughness
	}

	lang := sc.Lang
	if lang == "" {
		lang = "en"
	}

	card := &Card{
		ID:              sc.ID,
		OracleID:        sc.OracleID,
		Name:            sc.Name,
		Lang:            lang,
		SetCode:         sc.SetCode,
		SetName:         sc.SetName,
		CollectorNumber: sc.CollectorNumber,
		ImageSmall:      imageSmall,
		ImageNormal:     imageNormal,
		ImageBorderCrop: imageBorderCrop,
		ManaCost:        manaCost,
		CMC:             sc.CMC,
		TypeLine:        typeLine,
		OracleText:      oracleText,
		Colors:          sc.Colors,
		ColorIdentity:   sc.ColorIdentity,
		Keywords:        sc.Keywords,
		Power:           power,
		Toughness:       toughness,
		Rarity:          sc.Rarity,
		Legalities:      sc.Legalities,
		Reprint:         sc.Reprint,
		Promo:           sc.Promo,
		Prices: Prices{
			USD: priceValue(sc.Prices.USD),
			EUR: priceValue(sc.Prices.EUR),
			TIX: priceValue(sc.Prices.TIX),
		},
	}

	if card.Colors == nil {
		card.Colors = []string{}
	}
	if card.ColorIdentity == nil {
		card.ColorIdentity = []string{}
	}
	if card.Keywords == nil {
		card.Keywords = []string{}
	}
	if card.Legalities == nil {
		card.Legalities = map[string]string{}
	}

	return card
}

// priceValue coerces a provider price string to a float, treating missing
// or malformed values as 0.
func priceValue(s *string) float64 {
	if s == nil || *s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(*s, 64)
	if err != nil {
		return 0
	}
	return v
}

// colorOrder is the canonical WUBRG sort order for color keys.
const colorOrder = "WUBRG"

// ColorKey builds the canonical color string used for exact color-set
// matching, e.g. []{"U","R"} -> "UR". An empty set yields "".
func ColorKey(colors []string) string {
	var b strings.Builder
	for _, c := range strings.Split(colorOrder, "") {
		for _, have := range colors {
			if have == c {
				b.WriteString(c)
				break
			}
		}
	}
	return b.String()
}
