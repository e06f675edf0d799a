package tui

import (
	"context"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/meur/primedex/internal/collection"
	"github.com/meur/primedex/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	mu    sync.Mutex
	calls int
	fetch func(call int) []models.Prime
}

func (s *stubSource) FetchOwnedItems(context.Context, models.PlayerContext) ([]models.Prime, error) {
	s.mu.Lock()
	s.calls++
	call := s.calls
	s.mu.Unlock()
	return s.fetch(call), nil
}

func (s *stubSource) InitializeStarterItems(context.Context, models.PlayerContext) ([]models.Prime, error) {
	return nil, nil
}

func testPrimes() []models.Prime {
	mk := func(id, name string, e models.Element, r models.Rarity) models.Prime {
		return models.Prime{ID: id, PlayerID: "p", Name: name, Element: e, Rarity: r, Level: 1}
	}
	return []models.Prime{
		mk("p1", "Blaze", models.ElementIgnis, models.RarityCommon),
		mk("p2", "Fernwhisk", models.ElementVitae, models.RarityRare),
		mk("p3", "Tidecaller", models.ElementAzur, models.RarityEpic),
		mk("p4", "Boulderback", models.ElementGeo, models.RarityLegendary),
		mk("p5", "Stormcrest", models.ElementTempest, models.RarityMythical),
	}
}

func newTestModel(t *testing.T, fetch func(call int) []models.Prime) (model, *collection.Browser) {
	t.Helper()
	b := collection.NewBrowser(&stubSource{fetch: fetch}, models.PlayerContext{PlayerID: "p"})
	return newModel(context.Background(), b), b
}

// loaded runs the initial fetch through the update loop
func loaded(t *testing.T) (model, *collection.Browser) {
	t.Helper()
	m, b := newTestModel(t, func(int) []models.Prime { return testPrimes() })
	cmd := m.Init()
	require.NotNil(t, cmd)
	assert.Equal(t, collection.StateLoading, b.State())
	return update(t, m, cmd()), b
}

func update(t *testing.T, m model, msg tea.Msg) model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(model)
	require.True(t, ok)
	return out
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModel_InitLoadsRows(t *testing.T) {
	m, b := loaded(t)

	assert.Equal(t, collection.StatePopulated, b.State())
	assert.Len(t, m.list.Items(), 3)
	assert.Contains(t, m.View(), "showing 5 of 5")
}

func TestModel_LoadingView(t *testing.T) {
	m, _ := newTestModel(t, func(int) []models.Prime { return testPrimes() })
	_ = m.Init()

	assert.Contains(t, m.View(), "Loading primes")
}

func TestModel_CycleFilters(t *testing.T) {
	m, b := loaded(t)

	m = update(t, m, key("r"))
	assert.Equal(t, "common", b.Criteria().Rarity)
	assert.Len(t, b.Filtered(), 1)
	assert.Len(t, m.list.Items(), 1)

	m = update(t, m, key("e"))
	assert.Equal(t, "ignis", b.Criteria().Element)
	assert.Len(t, b.Filtered(), 1)

	m = update(t, m, key("e"))
	assert.Equal(t, "vitae", b.Criteria().Element)
	assert.Equal(t, collection.StateEmpty, b.State())
	assert.Contains(t, m.View(), "No primes match")

	m = update(t, m, key("x"))
	assert.True(t, b.Criteria().IsDefault())
	assert.Len(t, m.list.Items(), 3)
	assert.Contains(t, m.View(), "Filters reset")
}

func TestNextOption(t *testing.T) {
	opts := []string{"all", "common", "rare"}

	assert.Equal(t, "common", nextOption(opts, "all"))
	assert.Equal(t, "all", nextOption(opts, "rare"))
	assert.Equal(t, "rare", nextOption(opts, "COMMON"))
	assert.Equal(t, "all", nextOption(opts, "bogus"))
}

func TestModel_Search(t *testing.T) {
	m, b := loaded(t)

	m = update(t, m, key("/"))
	require.True(t, m.search.Focused())

	m = update(t, m, key("b"))
	m = update(t, m, key("l"))
	assert.Equal(t, "bl", b.Criteria().SearchText)
	require.Len(t, b.Filtered(), 1)
	assert.Equal(t, "Blaze", b.Filtered()[0].Name)

	// While focused, filter keys are typed rather than handled.
	m = update(t, m, key("r"))
	assert.Equal(t, models.AllOption, b.Criteria().Rarity)

	m = update(t, m, key("esc"))
	assert.False(t, m.search.Focused())
	assert.Equal(t, "blr", b.Criteria().SearchText)
}

func TestModel_SearchKeepsCursorOnVisibleRow(t *testing.T) {
	m, b := loaded(t)

	m = update(t, m, key("down"))
	m = update(t, m, key("down"))
	require.Equal(t, 2, m.list.Index())

	m = update(t, m, key("/"))
	m = update(t, m, key("b"))
	m = update(t, m, key("l"))
	m = update(t, m, key("enter"))
	require.False(t, m.search.Focused())
	require.Len(t, b.Filtered(), 1)

	assert.Equal(t, 0, m.list.Index())
	require.NotNil(t, m.list.SelectedItem())

	m = update(t, m, key("enter"))
	require.Equal(t, viewDetail, m.view)
	assert.Equal(t, "Blaze", m.nav.Selected.Name)
	assert.Equal(t, 0, m.nav.Index)
}

func TestModel_ShrinkingRefreshClampsCursor(t *testing.T) {
	m, b := newTestModel(t, func(call int) []models.Prime {
		if call == 1 {
			return testPrimes()
		}
		return testPrimes()[:2]
	})
	m = update(t, m, m.Init()())
	m = update(t, m, key("down"))
	m = update(t, m, key("down"))
	require.Equal(t, 2, m.list.Index())

	next, cmd := m.Update(key("g"))
	m = update(t, next.(model), cmd())
	require.Len(t, b.Items(), 2)

	assert.Equal(t, 0, m.list.Index())
	p, ok := m.selectedPrime()
	require.True(t, ok)
	assert.Equal(t, "p1", p.ID)
}

func TestModel_HeaderNamesPlayer(t *testing.T) {
	m, _ := loaded(t)
	assert.Contains(t, m.View(), "Primes p")
}

func TestModel_SelectOpensDetailAtFilteredIndex(t *testing.T) {
	m, _ := loaded(t)

	m = update(t, m, key("down"))
	m = update(t, m, key("tab"))
	assert.Equal(t, 1, m.column)

	m = update(t, m, key("enter"))
	require.Equal(t, viewDetail, m.view)
	assert.Equal(t, 3, m.nav.Index)
	assert.Equal(t, "p4", m.nav.Selected.ID)
	assert.Len(t, m.nav.Items, 5)
	assert.Contains(t, m.View(), "Boulderback")
	assert.Contains(t, m.View(), "4 / 5")
}

func TestModel_DetailPagingClamps(t *testing.T) {
	m, _ := loaded(t)
	m = update(t, m, key("enter"))
	require.Equal(t, viewDetail, m.view)
	assert.Equal(t, 0, m.cursor)

	m = update(t, m, key("left"))
	assert.Equal(t, 0, m.cursor)

	for i := 0; i < 10; i++ {
		m = update(t, m, key("right"))
	}
	assert.Equal(t, 4, m.cursor)
	assert.Contains(t, m.View(), "Stormcrest")
}

func TestModel_EscFromDetailRefreshes(t *testing.T) {
	m, b := loaded(t)
	m = update(t, m, key("enter"))
	require.Equal(t, viewDetail, m.view)

	next, cmd := m.Update(key("esc"))
	m = next.(model)
	assert.Equal(t, viewGrid, m.view)
	require.NotNil(t, cmd)
	assert.Equal(t, collection.StateLoading, b.State())

	m = update(t, m, cmd())
	assert.Equal(t, collection.StatePopulated, b.State())
}

func TestModel_StaleFetchIsDiscarded(t *testing.T) {
	m, b := newTestModel(t, func(call int) []models.Prime {
		if call == 1 {
			return testPrimes()[:1]
		}
		return testPrimes()
	})

	first := m.loadCmd()
	second := m.loadCmd()
	oldMsg := first()
	newMsg := second()

	m = update(t, m, newMsg)
	assert.Len(t, b.Items(), 5)

	m = update(t, m, oldMsg)
	assert.Len(t, b.Items(), 5)
	assert.Len(t, m.list.Items(), 3)
}

func TestModel_SelectionMissingFromFilteredStaysOnGrid(t *testing.T) {
	m, b := loaded(t)

	// Narrow the browser behind the list's back so the card under the
	// cursor is no longer part of the filtered set.
	require.NoError(t, b.OnFilterChange(models.FilterRarity, "mythical"))

	m = update(t, m, key("enter"))
	assert.Equal(t, viewGrid, m.view)
	assert.Contains(t, m.View(), "no longer in view")
}

func TestModel_EmptyCollection(t *testing.T) {
	m, newB := newTestModel(t, func(int) []models.Prime { return nil })
	m = update(t, m, m.Init()())

	assert.Equal(t, collection.StateEmpty, newB.State())
	assert.True(t, strings.Contains(m.View(), "No primes yet"))
}

func TestModel_QuitKeys(t *testing.T) {
	m, _ := loaded(t)

	_, cmd := m.Update(key("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}
