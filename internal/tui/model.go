package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/meur/primedex/internal/collection"
	"github.com/meur/primedex/internal/models"
)

type view int

const (
	viewGrid view = iota
	viewDetail
)

const (
	headerLines = 3
	footerLines = 2
)

// primesLoadedMsg carries a fetch result tagged with the token it was issued under
type primesLoadedMsg struct {
	token collection.Token
	items []models.Prime
}

type model struct {
	ctx     context.Context
	browser *collection.Browser

	view   view
	list   list.Model
	search textinput.Model
	column int

	nav    collection.NavigationRequest
	cursor int // position within nav.Items on the detail view

	status string
	width  int
	height int
}

func newModel(ctx context.Context, b *collection.Browser) model {
	search := textinput.New()
	search.Placeholder = "search by name"
	search.Prompt = "/ "
	search.CharLimit = 64

	l := list.New(nil, newRowsDelegate(0), 80, 24-headerLines-footerLines)
	l.SetShowTitle(false)
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()

	return model{
		ctx:     ctx,
		browser: b,
		list:    l,
		search:  search,
		width:   80,
		height:  24,
	}
}

func (m model) Init() tea.Cmd {
	return m.loadCmd()
}

// loadCmd enters Loading now and resolves the fetch off the UI loop
func (m model) loadCmd() tea.Cmd {
	tok := m.browser.Begin()
	b, ctx := m.browser, m.ctx
	return func() tea.Msg {
		return primesLoadedMsg{token: tok, items: b.Fetch(ctx)}
	}
}

// syncRows pulls the browser's rows into the list and keeps the cursor on
// a row that still exists.
func (m *model) syncRows() {
	n := m.browser.RowCount()
	rows := make([]collection.Row, 0, n)
	for i := 0; i < n; i++ {
		if row, ok := m.browser.Row(i); ok {
			rows = append(rows, row)
		}
	}
	m.list.SetItems(rowItems(rows))
	if m.list.Index() >= len(rows) {
		m.list.Select(max(len(rows)-1, 0))
	}
	m.clampColumn()
}

func (m *model) clampColumn() {
	it, ok := m.list.SelectedItem().(rowItem)
	if !ok {
		m.setColumn(0)
		return
	}
	if m.column >= len(it.row.Items) {
		m.setColumn(len(it.row.Items) - 1)
	}
}

func (m *model) setColumn(c int) {
	if c < 0 {
		c = 0
	}
	m.column = c
	m.list.SetDelegate(newRowsDelegate(c))
}

// selectedPrime returns the card under the cursor
func (m model) selectedPrime() (models.Prime, bool) {
	it, ok := m.list.SelectedItem().(rowItem)
	if !ok || m.column >= len(it.row.Items) {
		return models.Prime{}, false
	}
	return it.row.Items[m.column], true
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.list.SetSize(msg.Width, max(msg.Height-headerLines-footerLines, collection.RowHeight))
		m.search.Width = max(msg.Width-20, 10)
		return m, nil

	case primesLoadedMsg:
		if m.browser.Apply(msg.token, msg.items) {
			m.syncRows()
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.view == viewDetail {
			return m.updateDetail(msg)
		}
		if m.search.Focused() {
			return m.updateSearch(msg)
		}
		return m.updateGrid(msg)
	}
	return m, nil
}

func (m model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "enter":
		m.search.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if m.search.Value() != m.browser.Criteria().SearchText {
		m.browser.SetSearchText(m.search.Value())
		m.syncRows()
	}
	return m, cmd
}

func (m model) updateGrid(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.status = ""
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "/":
		return m, m.search.Focus()
	case "r":
		m.cycleFilter(models.FilterRarity)
		return m, nil
	case "e":
		m.cycleFilter(models.FilterElement)
		return m, nil
	case "x":
		m.browser.ResetFilters()
		m.search.SetValue("")
		m.syncRows()
		m.status = "Filters reset"
		return m, nil
	case "g":
		return m, m.loadCmd()
	case "tab", "right", "l":
		if it, ok := m.list.SelectedItem().(rowItem); ok && m.column+1 < len(it.row.Items) {
			m.setColumn(m.column + 1)
		} else if msg.String() == "tab" {
			m.setColumn(0)
		}
		return m, nil
	case "left", "h":
		m.setColumn(m.column - 1)
		return m, nil
	case "enter":
		return m.openDetail()
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	m.clampColumn()
	return m, cmd
}

// cycleFilter advances one selector to its next option
func (m *model) cycleFilter(field models.FilterField) {
	cfg, ok := models.FilterFor(field)
	if !ok {
		return
	}
	current := m.browser.Criteria().Rarity
	if field == models.FilterElement {
		current = m.browser.Criteria().Element
	}
	next := nextOption(cfg.Options, current)
	if err := m.browser.OnFilterChange(field, next); err != nil {
		m.status = err.Error()
		return
	}
	m.list.Select(0)
	m.syncRows()
}

func nextOption(options []string, current string) string {
	for i, opt := range options {
		if strings.EqualFold(opt, current) {
			return options[(i+1)%len(options)]
		}
	}
	return options[0]
}

func (m model) openDetail() (tea.Model, tea.Cmd) {
	p, ok := m.selectedPrime()
	if !ok {
		return m, nil
	}
	req := m.browser.SelectItem(p)
	if req.Index < 0 {
		m.status = "That prime is no longer in view"
		return m, nil
	}
	m.nav = req
	m.cursor = req.Index
	m.view = viewDetail
	return m, nil
}

func (m model) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "left", "h":
		if m.cursor > 0 {
			m.cursor--
		}
	case "right", "l":
		if m.cursor < len(m.nav.Items)-1 {
			m.cursor++
		}
	case "esc", "backspace":
		// Back on the grid the collection screen regains focus and refetches.
		m.view = viewGrid
		m.nav = collection.NavigationRequest{}
		return m, m.loadCmd()
	}
	return m, nil
}

func (m model) View() string {
	if m.view == viewDetail {
		return m.viewDetail()
	}
	return m.viewGrid()
}

func (m model) viewGrid() string {
	var b strings.Builder

	c := m.browser.Criteria()
	b.WriteString(titleStyle.Render("Primes") + " " + mutedStyle.Render(m.browser.Player().PlayerID) +
		"  " + m.search.View() + "\n")
	snap := m.browser.Snapshot()
	b.WriteString(mutedStyle.Render(fmt.Sprintf("rarity: %s  element: %s  showing %d of %d",
		c.Rarity, c.Element, snap.FilteredCount, snap.TotalCount)) + "\n\n")

	switch m.browser.State() {
	case collection.StateLoading:
		b.WriteString("Loading primes…\n")
	case collection.StateEmpty:
		if m.browser.EmptyReason() == collection.EmptyNoMatches {
			b.WriteString("No primes match these filters. Press x to reset.\n")
		} else {
			b.WriteString("No primes yet.\n")
		}
	default:
		b.WriteString(m.list.View() + "\n")
	}

	footer := "/ search · r rarity · e element · x reset · enter open · g refresh · q quit"
	if m.status != "" {
		footer = statusStyle.Render(m.status)
	}
	b.WriteString(mutedStyle.Render(footer))
	return b.String()
}

func (m model) viewDetail() string {
	if m.cursor < 0 || m.cursor >= len(m.nav.Items) {
		return ""
	}
	p := m.nav.Items[m.cursor]

	art := p.Element.Glyph()
	if p.HasImage() {
		art = p.ImageName
	}
	body := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(p.Name),
		"",
		art,
		fmt.Sprintf("Element  %s", p.Element),
		fmt.Sprintf("Rarity   %s", rarityStyle(p.Rarity.Rank()).Render(string(p.Rarity))),
		fmt.Sprintf("Level    %d", p.Level),
	)

	pos := mutedStyle.Render(fmt.Sprintf("%d / %d  ← → page · esc back", m.cursor+1, len(m.nav.Items)))
	return detailStyle.Render(body) + "\n" + pos
}
