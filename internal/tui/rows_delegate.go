package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"
	"github.com/meur/primedex/internal/collection"
	"github.com/meur/primedex/internal/models"
)

// rowItem adapts a collection row to the list component
type rowItem struct {
	row collection.Row
}

func (i rowItem) FilterValue() string {
	names := make([]string, 0, len(i.row.Items))
	for _, p := range i.row.Items {
		names = append(names, p.Name)
	}
	return strings.Join(names, " ")
}

func rowItems(rows []collection.Row) []list.Item {
	items := make([]list.Item, 0, len(rows))
	for _, r := range rows {
		items = append(items, rowItem{row: r})
	}
	return items
}

// rowsDelegate renders one row as CardsPerRow fixed-width cards. Short rows
// are padded with blank cards so every row has the same width.
type rowsDelegate struct {
	column int // highlighted card within the selected row
}

func newRowsDelegate(column int) rowsDelegate {
	return rowsDelegate{column: column}
}

func (d rowsDelegate) Height() int  { return collection.RowHeight }
func (d rowsDelegate) Spacing() int { return 0 }
func (d rowsDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

func (d rowsDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(rowItem)
	if !ok {
		return
	}

	cardW := cardWidth(m.Width())
	cards := make([]string, 0, collection.CardsPerRow)
	for i, p := range it.row.Items {
		selected := index == m.Index() && i == d.column
		cards = append(cards, renderCard(p, cardW, selected))
	}
	for i := 0; i < it.row.Placeholders(); i++ {
		cards = append(cards, renderPlaceholder(cardW))
	}

	fmt.Fprint(w, lipgloss.JoinHorizontal(lipgloss.Top, interleave(cards, " ")...))
}

// cardWidth splits the list width between the cards of a row, one column gap apart
func cardWidth(total int) int {
	w := (total - (collection.CardsPerRow - 1)) / collection.CardsPerRow
	if w < 12 {
		w = 12
	}
	return w
}

func renderCard(p models.Prime, width int, selected bool) string {
	inner := width - 4 // border + padding
	icon := p.Element.Glyph()
	if p.HasImage() {
		icon = "▣"
	}
	name := xansi.Truncate(icon+" "+p.Name, inner, "…")
	meta := xansi.Truncate(fmt.Sprintf("%s · Lv %d", p.Rarity, p.Level), inner, "…")

	style := cardStyle
	if selected {
		style = selectedCardStyle
	}
	body := name + "\n" + rarityStyle(p.Rarity.Rank()).Render(meta)
	return style.Width(width - 2).Height(collection.RowHeight - 2).Render(body)
}

func renderPlaceholder(width int) string {
	blank := strings.Repeat(" ", width)
	lines := make([]string, collection.RowHeight)
	for i := range lines {
		lines[i] = blank
	}
	return strings.Join(lines, "\n")
}

func interleave(parts []string, sep string) []string {
	out := make([]string, 0, len(parts)*2)
	for i, p := range parts {
		if i > 0 {
			out = append(out, sep)
		}
		out = append(out, p)
	}
	return out
}
