// Package collection turns a player's owned primes and the current search and
// filter criteria into the ordered list to display and its grid rows.
package collection

import (
	"strings"

	"github.com/meur/primedex/internal/models"
)

// Filter returns the primes matching c, in their original order.
// Search text is matched case-insensitively against the name; rarity and
// element match case-insensitively unless set to "all".
func Filter(items []models.Prime, c models.FilterCriteria) []models.Prime {
	searchLower := strings.ToLower(c.SearchText)

	out := make([]models.Prime, 0, len(items))
	for _, p := range items {
		if searchLower != "" && !strings.Contains(strings.ToLower(p.Name), searchLower) {
			continue
		}
		if !matchOption(c.Rarity, string(p.Rarity)) {
			continue
		}
		if !matchOption(c.Element, string(p.Element)) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func matchOption(option, value string) bool {
	if option == "" || strings.EqualFold(option, models.AllOption) {
		return true
	}
	return strings.EqualFold(option, value)
}
