package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/meur/primedex/internal/collection"
)

// Run opens the collection browser until the user quits
func Run(ctx context.Context, b *collection.Browser) error {
	m := newModel(ctx, b)
	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}
