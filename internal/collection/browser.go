package collection

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/meur/primedex/internal/models"
	"go.uber.org/zap"
)

// ErrUnknownFilterValue is returned for a field or value no selector offers
var ErrUnknownFilterValue = errors.New("unknown filter value")

// ItemSource supplies a player's owned primes
type ItemSource interface {
	FetchOwnedItems(ctx context.Context, player models.PlayerContext) ([]models.Prime, error)
	// InitializeStarterItems seeds the starter set and returns the result.
	InitializeStarterItems(ctx context.Context, player models.PlayerContext) ([]models.Prime, error)
}

// Navigator receives selection requests for the detail view
type Navigator interface {
	NavigateToDetail(selected models.Prime, items []models.Prime, index int)
}

// NavigatorFunc adapts a function to Navigator
type NavigatorFunc func(selected models.Prime, items []models.Prime, index int)

func (f NavigatorFunc) NavigateToDetail(selected models.Prime, items []models.Prime, index int) {
	f(selected, items, index)
}

// NavigationRequest carries a selection together with the filtered list it
// was made from. Index is -1 when the selected prime is not in Items.
type NavigationRequest struct {
	Selected models.Prime   `json:"selected"`
	Items    []models.Prime `json:"items"`
	Index    int            `json:"index"`
}

// State is the externally visible state of a Browser
type State int

const (
	StateLoading State = iota
	StatePopulated
	StateEmpty
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StatePopulated:
		return "populated"
	case StateEmpty:
		return "empty"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// EmptyReason tells an empty collection apart from an over-filtered one
type EmptyReason string

const (
	EmptyNone      EmptyReason = ""
	EmptyNoItems   EmptyReason = "no_items"
	EmptyNoMatches EmptyReason = "no_matches"
)

// Token identifies one fetch; only the latest issued token may apply.
type Token uint64

// Option configures a Browser
type Option func(*Browser)

// WithLogger sets the logger used for fetch failures and stale results
func WithLogger(l *zap.Logger) Option {
	return func(b *Browser) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithNavigator sets the collaborator that receives selections
func WithNavigator(n Navigator) Option {
	return func(b *Browser) { b.navigator = n }
}

// Browser is the stateful filter-and-layout pipeline behind a collection screen
type Browser struct {
	source    ItemSource
	player    models.PlayerContext
	navigator Navigator
	logger    *zap.Logger

	mu       sync.Mutex
	items    []models.Prime
	filtered []models.Prime // replaced wholesale, never mutated in place
	criteria models.FilterCriteria
	loading  bool
	latest   Token
}

// NewBrowser returns a browser in the Loading state with default criteria
func NewBrowser(source ItemSource, player models.PlayerContext, opts ...Option) *Browser {
	b := &Browser{
		source:   source,
		player:   player,
		logger:   zap.NewNop(),
		criteria: models.DefaultCriteria(),
		loading:  true,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = b.logger.With(zap.String("player_id", player.PlayerID))
	return b
}

// Player returns the context every source call is made with
func (b *Browser) Player() models.PlayerContext {
	return b.player
}

// Load fetches the owned primes and replaces the in-memory list.
// Failures leave the list empty; nothing is returned to the caller.
func (b *Browser) Load(ctx context.Context) {
	tok := b.Begin()
	b.Apply(tok, b.Fetch(ctx))
}

// Refresh reloads unconditionally; it is what a surface calls on focus regain.
func (b *Browser) Refresh(ctx context.Context) {
	b.Load(ctx)
}

// Begin issues a new fetch token and enters the Loading state
func (b *Browser) Begin() Token {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.latest++
	b.loading = true
	return b.latest
}

// Fetch asks the source for the owned primes, falling back to the starter
// set when the player owns none. It does not touch browser state.
func (b *Browser) Fetch(ctx context.Context) []models.Prime {
	items, err := b.source.FetchOwnedItems(ctx, b.player)
	if err != nil {
		b.logger.Warn("Fetch owned primes failed", zap.Error(err))
		return nil
	}
	if len(items) > 0 {
		return items
	}

	b.logger.Info("No primes owned, initializing starter set")
	items, err = b.source.InitializeStarterItems(ctx, b.player)
	if err != nil {
		b.logger.Warn("Initialize starter primes failed", zap.Error(err))
		return nil
	}
	return items
}

// Apply installs the result of the fetch identified by tok. Results of
// superseded fetches are discarded and Apply reports false.
func (b *Browser) Apply(tok Token, items []models.Prime) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if tok != b.latest {
		b.logger.Debug("Discarding stale fetch result",
			zap.Uint64("token", uint64(tok)),
			zap.Uint64("latest", uint64(b.latest)))
		return false
	}

	b.items = append([]models.Prime(nil), items...)
	b.loading = false
	b.refilterLocked()
	return true
}

func (b *Browser) refilterLocked() {
	b.filtered = Filter(b.items, b.criteria)
}

// SetSearchText updates the name search
func (b *Browser) SetSearchText(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.criteria.SearchText = text
	b.refilterLocked()
}

// OnFilterChange sets one enumeration filter and leaves the other untouched.
// value must be "all" or one of the selector's options.
func (b *Browser) OnFilterChange(field models.FilterField, value string) error {
	cfg, ok := models.FilterFor(field)
	if !ok || !cfg.Has(value) {
		return fmt.Errorf("%w: %s=%q", ErrUnknownFilterValue, field, value)
	}
	value = strings.ToLower(value)

	b.mu.Lock()
	defer b.mu.Unlock()
	switch field {
	case models.FilterRarity:
		b.criteria.Rarity = value
	case models.FilterElement:
		b.criteria.Element = value
	}
	b.refilterLocked()
	return nil
}

// ResetFilters restores the default criteria in a single transition
func (b *Browser) ResetFilters() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.criteria = models.DefaultCriteria()
	b.refilterLocked()
}

// Criteria returns the current search and filter state
func (b *Browser) Criteria() models.FilterCriteria {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.criteria
}

// Items returns a copy of the unfiltered owned primes
func (b *Browser) Items() []models.Prime {
	b.mu.Lock()
	defer b.mu.Unlock()
	return clonePrimes(b.items)
}

// Filtered returns a copy of the primes currently on display
func (b *Browser) Filtered() []models.Prime {
	b.mu.Lock()
	defer b.mu.Unlock()
	return clonePrimes(b.filtered)
}

// clonePrimes copies items into a non-nil slice
func clonePrimes(items []models.Prime) []models.Prime {
	return append(make([]models.Prime, 0, len(items)), items...)
}

// Rows returns the filtered primes grouped for the grid
func (b *Browser) Rows() []Row {
	return GroupIntoRows(b.Filtered())
}

// RowCount returns the number of grid rows
func (b *Browser) RowCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return RowCount(len(b.filtered))
}

// Row returns the row with ordinal i
func (b *Browser) Row(i int) (Row, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	row, ok := rowAt(b.filtered, i)
	if ok {
		row.Items = append([]models.Prime(nil), row.Items...)
	}
	return row, ok
}

// State reports Loading, Populated or Empty
func (b *Browser) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stateLocked()
}

func (b *Browser) stateLocked() State {
	switch {
	case b.loading:
		return StateLoading
	case len(b.filtered) == 0:
		return StateEmpty
	default:
		return StatePopulated
	}
}

// EmptyReason explains an Empty state; it is EmptyNone otherwise
func (b *Browser) EmptyReason() EmptyReason {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.emptyReasonLocked()
}

func (b *Browser) emptyReasonLocked() EmptyReason {
	if b.stateLocked() != StateEmpty {
		return EmptyNone
	}
	if len(b.items) == 0 {
		return EmptyNoItems
	}
	return EmptyNoMatches
}

// SelectItem locates p in the filtered list and forwards a navigation
// request to the navigator, if any. A prime that is not on display yields
// index -1.
func (b *Browser) SelectItem(p models.Prime) NavigationRequest {
	b.mu.Lock()
	req := NavigationRequest{
		Selected: p,
		Items:    clonePrimes(b.filtered),
		Index:    -1,
	}
	b.mu.Unlock()

	for i, it := range req.Items {
		if it.ID == p.ID {
			req.Index = i
			break
		}
	}
	if req.Index < 0 {
		b.logger.Debug("Selected prime not in filtered list", zap.String("prime_id", p.ID))
	}

	if b.navigator != nil {
		b.navigator.NavigateToDetail(req.Selected, req.Items, req.Index)
	}
	return req
}

// Snapshot is a consistent view of a browser for serialization
type Snapshot struct {
	Criteria      models.FilterCriteria `json:"criteria"`
	State         State                 `json:"state"`
	EmptyReason   EmptyReason           `json:"empty_reason,omitempty"`
	TotalCount    int                   `json:"total_count"`
	FilteredCount int                   `json:"filtered_count"`
	Rows          []Row                 `json:"rows"`
}

// Snapshot captures criteria, state and rows under one lock
func (b *Browser) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Snapshot{
		Criteria:      b.criteria,
		State:         b.stateLocked(),
		EmptyReason:   b.emptyReasonLocked(),
		TotalCount:    len(b.items),
		FilteredCount: len(b.filtered),
		Rows:          GroupIntoRows(clonePrimes(b.filtered)),
	}
}
