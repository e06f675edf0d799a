package collection

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/meur/primedex/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeSource struct {
	mu          sync.Mutex
	fetchCalls  int
	initCalls   int
	fetch       func(call int) ([]models.Prime, error)
	initialize  func() ([]models.Prime, error)
	lastContext models.PlayerContext
}

func (f *fakeSource) FetchOwnedItems(_ context.Context, player models.PlayerContext) ([]models.Prime, error) {
	f.mu.Lock()
	f.fetchCalls++
	call := f.fetchCalls
	f.lastContext = player
	f.mu.Unlock()
	if f.fetch == nil {
		return nil, nil
	}
	return f.fetch(call)
}

func (f *fakeSource) InitializeStarterItems(_ context.Context, player models.PlayerContext) ([]models.Prime, error) {
	f.mu.Lock()
	f.initCalls++
	f.lastContext = player
	f.mu.Unlock()
	if f.initialize == nil {
		return nil, nil
	}
	return f.initialize()
}

func (f *fakeSource) counts() (fetches, inits int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetchCalls, f.initCalls
}

var player1 = models.PlayerContext{PlayerID: "player-1"}

func TestBrowser_LoadPopulates(t *testing.T) {
	src := &fakeSource{fetch: func(int) ([]models.Prime, error) { return fivePrimes(), nil }}
	b := NewBrowser(src, player1)

	assert.Equal(t, StateLoading, b.State())
	b.Load(context.Background())

	assert.Equal(t, StatePopulated, b.State())
	assert.Equal(t, EmptyNone, b.EmptyReason())
	assert.Equal(t, ids(fivePrimes()), ids(b.Filtered()))
	assert.Equal(t, 3, b.RowCount())
	assert.Equal(t, player1, src.lastContext)

	_, inits := src.counts()
	assert.Zero(t, inits, "starter set must not be requested when primes exist")
}

func TestBrowser_EmptySourceInitializesStarters(t *testing.T) {
	starters := []models.Prime{prime("s1", "Emberling", models.ElementIgnis, models.RarityCommon)}
	src := &fakeSource{initialize: func() ([]models.Prime, error) { return starters, nil }}
	b := NewBrowser(src, player1)

	b.Load(context.Background())

	fetches, inits := src.counts()
	assert.Equal(t, 1, fetches)
	assert.Equal(t, 1, inits)
	assert.Equal(t, []string{"s1"}, ids(b.Items()))
	assert.Equal(t, StatePopulated, b.State())
}

func TestBrowser_EmptyEverywhereEndsEmpty(t *testing.T) {
	src := &fakeSource{}
	b := NewBrowser(src, player1)

	require.NotPanics(t, func() { b.Load(context.Background()) })

	_, inits := src.counts()
	assert.Equal(t, 1, inits)
	assert.Equal(t, StateEmpty, b.State())
	assert.Equal(t, EmptyNoItems, b.EmptyReason())
	assert.Empty(t, b.Rows())
}

func TestBrowser_SourceErrorsDegradeToEmpty(t *testing.T) {
	boom := errors.New("backend down")

	t.Run("fetch fails", func(t *testing.T) {
		src := &fakeSource{fetch: func(int) ([]models.Prime, error) { return nil, boom }}
		b := NewBrowser(src, player1)
		b.Load(context.Background())

		_, inits := src.counts()
		assert.Zero(t, inits)
		assert.Equal(t, StateEmpty, b.State())
	})

	t.Run("initialize fails", func(t *testing.T) {
		src := &fakeSource{initialize: func() ([]models.Prime, error) { return nil, boom }}
		b := NewBrowser(src, player1)
		b.Load(context.Background())

		assert.Equal(t, StateEmpty, b.State())
		assert.Empty(t, b.Items())
	})

	t.Run("failure replaces previous list", func(t *testing.T) {
		src := &fakeSource{fetch: func(call int) ([]models.Prime, error) {
			if call == 1 {
				return fivePrimes(), nil
			}
			return nil, boom
		}}
		b := NewBrowser(src, player1)
		b.Load(context.Background())
		require.Len(t, b.Items(), 5)

		b.Refresh(context.Background())
		assert.Empty(t, b.Items())
		assert.Equal(t, StateEmpty, b.State())
	})
}

func TestBrowser_RefreshAlwaysRefetches(t *testing.T) {
	src := &fakeSource{fetch: func(call int) ([]models.Prime, error) {
		return nPrimes(call), nil
	}}
	b := NewBrowser(src, player1)

	b.Load(context.Background())
	assert.Len(t, b.Items(), 1)

	b.Refresh(context.Background())
	b.Refresh(context.Background())
	assert.Len(t, b.Items(), 3)

	fetches, _ := src.counts()
	assert.Equal(t, 3, fetches)
}

func TestBrowser_StaleTokenIsDiscarded(t *testing.T) {
	b := NewBrowser(&fakeSource{}, player1)

	first := b.Begin()
	second := b.Begin()
	assert.Equal(t, StateLoading, b.State())

	assert.True(t, b.Apply(second, nPrimes(2)))
	assert.False(t, b.Apply(first, nPrimes(5)))

	assert.Len(t, b.Items(), 2)
	assert.Equal(t, StatePopulated, b.State())
}

func TestBrowser_StaleResultOfEarlierApplyKeepsLoading(t *testing.T) {
	b := NewBrowser(&fakeSource{}, player1)

	first := b.Begin()
	_ = b.Begin()
	assert.False(t, b.Apply(first, nPrimes(5)))
	assert.Equal(t, StateLoading, b.State(), "only the latest fetch may leave Loading")
}

func TestBrowser_ConcurrentLoadsLatestWins(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	src := &fakeSource{fetch: func(call int) ([]models.Prime, error) {
		if call == 1 {
			close(entered)
			<-release
			return nPrimes(5), nil
		}
		return nPrimes(2), nil
	}}
	b := NewBrowser(src, player1)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		b.Load(context.Background())
	}()

	<-entered
	b.Load(context.Background())
	close(release)
	wg.Wait()

	assert.Len(t, b.Items(), 2, "slow first response must not overwrite the newer one")
	assert.Equal(t, StatePopulated, b.State())
}

func TestBrowser_OnFilterChange(t *testing.T) {
	src := &fakeSource{fetch: func(int) ([]models.Prime, error) { return fivePrimes(), nil }}
	b := NewBrowser(src, player1)
	b.Load(context.Background())

	require.NoError(t, b.OnFilterChange(models.FilterRarity, "epic"))
	assert.Equal(t, "epic", b.Criteria().Rarity)
	assert.Equal(t, models.AllOption, b.Criteria().Element)
	assert.Equal(t, []string{"p3"}, ids(b.Filtered()))

	require.NoError(t, b.OnFilterChange(models.FilterElement, "Geo"))
	assert.Equal(t, "geo", b.Criteria().Element)
	assert.Equal(t, "epic", b.Criteria().Rarity)
	assert.Empty(t, b.Filtered())
	assert.Equal(t, StateEmpty, b.State())
	assert.Equal(t, EmptyNoMatches, b.EmptyReason())

	err := b.OnFilterChange(models.FilterElement, "plasma")
	assert.ErrorIs(t, err, ErrUnknownFilterValue)
	assert.Equal(t, "geo", b.Criteria().Element, "rejected value leaves state unchanged")

	err = b.OnFilterChange("level", "all")
	assert.ErrorIs(t, err, ErrUnknownFilterValue)
}

func TestBrowser_ResetFilters(t *testing.T) {
	src := &fakeSource{fetch: func(int) ([]models.Prime, error) { return fivePrimes(), nil }}
	b := NewBrowser(src, player1)
	b.Load(context.Background())

	b.SetSearchText("storm")
	require.NoError(t, b.OnFilterChange(models.FilterRarity, "mythical"))
	require.NoError(t, b.OnFilterChange(models.FilterElement, "tempest"))
	require.Len(t, b.Filtered(), 1)

	b.ResetFilters()

	assert.Equal(t, models.DefaultCriteria(), b.Criteria())
	assert.Equal(t, ids(fivePrimes()), ids(b.Filtered()))
	assert.Equal(t, ids(Filter(b.Items(), models.DefaultCriteria())), ids(b.Filtered()))
}

func TestBrowser_FiltersSurviveRefresh(t *testing.T) {
	src := &fakeSource{fetch: func(int) ([]models.Prime, error) { return fivePrimes(), nil }}
	b := NewBrowser(src, player1)
	b.Load(context.Background())
	b.SetSearchText("tide")

	b.Refresh(context.Background())

	assert.Equal(t, "tide", b.Criteria().SearchText)
	assert.Equal(t, []string{"p3"}, ids(b.Filtered()))
}

func TestBrowser_SelectItem(t *testing.T) {
	src := &fakeSource{fetch: func(int) ([]models.Prime, error) { return fivePrimes(), nil }}

	var got NavigationRequest
	calls := 0
	nav := NavigatorFunc(func(selected models.Prime, items []models.Prime, index int) {
		calls++
		got = NavigationRequest{Selected: selected, Items: items, Index: index}
	})
	b := NewBrowser(src, player1, WithNavigator(nav))
	b.Load(context.Background())

	items := b.Filtered()
	req := b.SelectItem(items[3])

	assert.Equal(t, 3, req.Index)
	assert.Len(t, req.Items, 5)
	assert.Equal(t, 1, calls)
	assert.Equal(t, req, got)
}

func TestBrowser_SelectItemIndexesFilteredList(t *testing.T) {
	items := []models.Prime{
		prime("a", "Ashfang", models.ElementIgnis, models.RarityRare),
		prime("b", "Brook", models.ElementAzur, models.RarityRare),
		prime("c", "Cinder", models.ElementIgnis, models.RarityRare),
	}
	src := &fakeSource{fetch: func(int) ([]models.Prime, error) { return items, nil }}
	b := NewBrowser(src, player1)
	b.Load(context.Background())
	require.NoError(t, b.OnFilterChange(models.FilterElement, "ignis"))

	req := b.SelectItem(items[2])
	assert.Equal(t, 1, req.Index)
	assert.Equal(t, []string{"a", "c"}, ids(req.Items))

	req = b.SelectItem(items[1])
	assert.Equal(t, -1, req.Index, "prime hidden by filters is not found")
	assert.Len(t, req.Items, 2)
}

func TestBrowser_RowAccessors(t *testing.T) {
	src := &fakeSource{fetch: func(int) ([]models.Prime, error) { return fivePrimes(), nil }}
	b := NewBrowser(src, player1)
	b.Load(context.Background())

	row, ok := b.Row(2)
	require.True(t, ok)
	assert.Equal(t, 2, row.Index)
	assert.Equal(t, []string{"p5"}, ids(row.Items))

	row.Items[0].Name = "mutated"
	assert.Equal(t, "Stormcrest", b.Filtered()[4].Name)

	_, ok = b.Row(3)
	assert.False(t, ok)
}

func TestBrowser_Snapshot(t *testing.T) {
	src := &fakeSource{fetch: func(int) ([]models.Prime, error) { return fivePrimes(), nil }}
	b := NewBrowser(src, player1)
	b.Load(context.Background())
	b.SetSearchText("e")

	snap := b.Snapshot()
	assert.Equal(t, StatePopulated, snap.State)
	assert.Equal(t, 5, snap.TotalCount)
	assert.Equal(t, len(b.Filtered()), snap.FilteredCount)
	assert.Len(t, snap.Rows, RowCount(snap.FilteredCount))
	assert.Equal(t, "e", snap.Criteria.SearchText)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "loading", StateLoading.String())
	assert.Equal(t, "populated", StatePopulated.String())
	assert.Equal(t, "empty", StateEmpty.String())
	assert.Equal(t, "State(9)", State(9).String())
}
