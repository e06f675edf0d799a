package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorAccent   = lipgloss.AdaptiveColor{Light: "63", Dark: "141"}
	colorMuted    = lipgloss.AdaptiveColor{Light: "245", Dark: "240"}
	colorSelected = lipgloss.AdaptiveColor{Light: "205", Dark: "212"}

	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	mutedStyle  = lipgloss.NewStyle().Foreground(colorMuted)
	statusStyle = lipgloss.NewStyle().Foreground(colorSelected)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorMuted).
			Padding(0, 1)
	selectedCardStyle = cardStyle.BorderForeground(colorSelected)

	detailStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(colorAccent).
			Padding(1, 2)
)

// rarityStyle tints the rarity label; higher rarities get louder colors
func rarityStyle(rank int) lipgloss.Style {
	colors := []string{"250", "39", "135", "214", "197"}
	if rank < 0 || rank >= len(colors) {
		return mutedStyle
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(colors[rank]))
}
