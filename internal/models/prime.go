package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	ErrUnknownElement = errors.New("unknown element")
	ErrUnknownRarity  = errors.New("unknown rarity")
)

// Element is the closed set of prime elements
type Element string

const (
	ElementIgnis   Element = "Ignis"
	ElementVitae   Element = "Vitae"
	ElementAzur    Element = "Azur"
	ElementGeo     Element = "Geo"
	ElementTempest Element = "Tempest"
	ElementAeris   Element = "Aeris"
)

// Elements lists every element in declaration order
func Elements() []Element {
	return []Element{ElementIgnis, ElementVitae, ElementAzur, ElementGeo, ElementTempest, ElementAeris}
}

// Rarity is the closed, ordered set of prime rarities
type Rarity string

const (
	RarityCommon    Rarity = "Common"
	RarityRare      Rarity = "Rare"
	RarityEpic      Rarity = "Epic"
	RarityLegendary Rarity = "Legendary"
	RarityMythical  Rarity = "Mythical"
)

// Rarities lists every rarity from lowest to highest
func Rarities() []Rarity {
	return []Rarity{RarityCommon, RarityRare, RarityEpic, RarityLegendary, RarityMythical}
}

// canonical title-cases s. A Caser is stateful, so one is built per call.
func canonical(s string) string {
	return cases.Title(language.Und).String(strings.TrimSpace(s))
}

// ParseElement normalizes s to its canonical element, whatever its casing
func ParseElement(s string) (Element, error) {
	e := Element(canonical(s))
	for _, known := range Elements() {
		if e == known {
			return e, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownElement, s)
}

// ParseRarity normalizes s to its canonical rarity, whatever its casing
func ParseRarity(s string) (Rarity, error) {
	r := Rarity(canonical(s))
	for _, known := range Rarities() {
		if r == known {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRarity, s)
}

// Option returns the lowercase value used by filter selectors
func (e Element) Option() string { return strings.ToLower(string(e)) }

// Glyph is shown in place of the artwork when a prime has no image
func (e Element) Glyph() string {
	switch e {
	case ElementIgnis:
		return "🔥"
	case ElementVitae:
		return "🌿"
	case ElementAzur:
		return "💧"
	case ElementGeo:
		return "🪨"
	case ElementTempest:
		return "⚡"
	case ElementAeris:
		return "🌀"
	}
	return "?"
}

func (e *Element) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseElement(s)
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}

// Option returns the lowercase value used by filter selectors
func (r Rarity) Option() string { return strings.ToLower(string(r)) }

// Rank orders rarities: Common is 0, Mythical is 4, unknown is -1
func (r Rarity) Rank() int {
	for i, known := range Rarities() {
		if r == known {
			return i
		}
	}
	return -1
}

func (r *Rarity) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseRarity(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Prime is a single owned collectible instance
type Prime struct {
	ID         string    `json:"id"` // Unique per owned instance, not per species
	PlayerID   string    `json:"player_id"`
	Name       string    `json:"name"`
	Element    Element   `json:"element"`
	Rarity     Rarity    `json:"rarity"`
	Level      int       `json:"level"`
	ImageName  string    `json:"image_name,omitempty"` // Empty falls back to Element.Glyph
	AcquiredAt time.Time `json:"acquired_at"`
}

// HasImage reports whether the prime references an artwork asset
func (p Prime) HasImage() bool {
	return strings.TrimSpace(p.ImageName) != ""
}

// PrimeList is a player's owned primes
type PrimeList struct {
	Primes     []Prime `json:"primes"`
	TotalCount int     `json:"total_count"`
}
