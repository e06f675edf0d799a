package models

import (
	"time"
)

// Player is the owner of a prime collection
type Player struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// PlayerCreate is the request body for creating a player
type PlayerCreate struct {
	ID   string `json:"id,omitempty"` // Optional; generated when empty
	Name string `json:"name"`
}

// PlayerSummary is a lightweight version for listings
type PlayerSummary struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	PrimeCount int       `json:"prime_count"`
	CreatedAt  time.Time `json:"created_at"`
}

// PlayerContext identifies whose collection an item source call acts on.
// It is passed explicitly to every call; there is no ambient session.
type PlayerContext struct {
	PlayerID string `json:"player_id"`
}

// StarterPrime is the template for one prime of the starter set
type StarterPrime struct {
	Name      string  `json:"name" yaml:"name"`
	Element   Element `json:"element" yaml:"element"`
	Rarity    Rarity  `json:"rarity" yaml:"rarity"`
	ImageName string  `json:"image_name,omitempty" yaml:"image_name,omitempty"`
}

// DefaultStarters returns one common prime per element
func DefaultStarters() []StarterPrime {
	return []StarterPrime{
		{Name: "Emberling", Element: ElementIgnis, Rarity: RarityCommon},
		{Name: "Sproutle", Element: ElementVitae, Rarity: RarityCommon},
		{Name: "Ripplet", Element: ElementAzur, Rarity: RarityCommon},
		{Name: "Pebblin", Element: ElementGeo, Rarity: RarityCommon},
		{Name: "Sparkit", Element: ElementTempest, Rarity: RarityCommon},
		{Name: "Zephyrix", Element: ElementAeris, Rarity: RarityCommon},
	}
}
