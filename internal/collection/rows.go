package collection

import "github.com/meur/primedex/internal/models"

// CardsPerRow is the fixed width of the collection grid
const CardsPerRow = 2

// RowHeight is the number of terminal lines a rendered row occupies
const RowHeight = 4

// Row is a chunk of consecutive filtered primes. Index is the zero-based
// chunk ordinal and doubles as the row key for virtualized renderers.
type Row struct {
	Index int            `json:"index"`
	Items []models.Prime `json:"items"`
}

// Placeholders is the number of empty slots a renderer pads the row with
func (r Row) Placeholders() int {
	return CardsPerRow - len(r.Items)
}

// RowCount returns how many rows n primes occupy
func RowCount(n int) int {
	return (n + CardsPerRow - 1) / CardsPerRow
}

// GroupIntoRows partitions items into rows of CardsPerRow, in order.
// The last row may be short; it is never padded.
func GroupIntoRows(items []models.Prime) []Row {
	rows := make([]Row, 0, RowCount(len(items)))
	for start := 0; start < len(items); start += CardsPerRow {
		end := min(start+CardsPerRow, len(items))
		rows = append(rows, Row{Index: len(rows), Items: items[start:end:end]})
	}
	return rows
}

// rowAt builds the row with ordinal i without materializing the others
func rowAt(items []models.Prime, i int) (Row, bool) {
	start := i * CardsPerRow
	if i < 0 || start >= len(items) {
		return Row{}, false
	}
	end := min(start+CardsPerRow, len(items))
	return Row{Index: i, Items: items[start:end:end]}, true
}
