package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/meur/primedex/internal/models"
)

// ErrPlayerNotFound is returned when a source call names an unknown player
var ErrPlayerNotFound = errors.New("player not found")

// PrimeSource serves a Store to the collection browser
type PrimeSource struct {
	Store    *Store
	Starters []models.StarterPrime
}

// NewPrimeSource returns a source seeding the given starter set
func NewPrimeSource(store *Store, starters []models.StarterPrime) *PrimeSource {
	return &PrimeSource{Store: store, Starters: starters}
}

func (s *PrimeSource) requirePlayer(ctx context.Context, player models.PlayerContext) error {
	p, err := s.Store.GetPlayer(ctx, player.PlayerID)
	if err != nil {
		return fmt.Errorf("failed to look up player: %w", err)
	}
	if p == nil {
		return fmt.Errorf("%w: %q", ErrPlayerNotFound, player.PlayerID)
	}
	return nil
}

// FetchOwnedItems returns the player's primes in acquisition order
func (s *PrimeSource) FetchOwnedItems(ctx context.Context, player models.PlayerContext) ([]models.Prime, error) {
	if err := s.requirePlayer(ctx, player); err != nil {
		return nil, err
	}
	primes, err := s.Store.GetOwnedPrimes(ctx, player.PlayerID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch primes: %w", err)
	}
	return primes, nil
}

// InitializeStarterItems seeds the starter set for a player with no primes
func (s *PrimeSource) InitializeStarterItems(ctx context.Context, player models.PlayerContext) ([]models.Prime, error) {
	if err := s.requirePlayer(ctx, player); err != nil {
		return nil, err
	}
	primes, err := s.Store.InitializeStarterPrimes(ctx, player.PlayerID, s.Starters)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize starters: %w", err)
	}
	return primes, nil
}
