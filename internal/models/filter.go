package models

import "strings"

// AllOption is the selector value that disables an enumeration filter
const AllOption = "all"

// FilterField names one of the enumeration filters
type FilterField string

const (
	FilterRarity  FilterField = "rarity"
	FilterElement FilterField = "element"
)

// FilterCriteria is the transient search/filter state of a browser
type FilterCriteria struct {
	SearchText string `json:"search_text"`
	Rarity     string `json:"rarity"`  // "all" or a lowercase rarity option
	Element    string `json:"element"` // "all" or a lowercase element option
}

// DefaultCriteria returns the unfiltered state
func DefaultCriteria() FilterCriteria {
	return FilterCriteria{SearchText: "", Rarity: AllOption, Element: AllOption}
}

// IsDefault reports whether the criteria leave every prime visible
func (c FilterCriteria) IsDefault() bool {
	return c == DefaultCriteria()
}

// FilterConfig defines a selector shown above the collection
type FilterConfig struct {
	ID      string      `json:"id"`
	Name    string      `json:"name"`
	Field   FilterField `json:"field"`   // Prime field the selector filters on
	Type    string      `json:"type"`    // Always "select" for enumerations
	Options []string    `json:"options"` // "all" first, then lowercase values
}

// Has reports whether value is one of the selector's options (case-insensitive)
func (f FilterConfig) Has(value string) bool {
	for _, opt := range f.Options {
		if strings.EqualFold(opt, value) {
			return true
		}
	}
	return false
}

// DefaultFilters returns the rarity and element selectors
func DefaultFilters() []FilterConfig {
	rarity := FilterConfig{ID: "rarity", Name: "Rarity", Field: FilterRarity, Type: "select", Options: []string{AllOption}}
	for _, r := range Rarities() {
		rarity.Options = append(rarity.Options, r.Option())
	}

	element := FilterConfig{ID: "element", Name: "Element", Field: FilterElement, Type: "select", Options: []string{AllOption}}
	for _, e := range Elements() {
		element.Options = append(element.Options, e.Option())
	}

	return []FilterConfig{rarity, element}
}

// FilterFor returns the selector for field
func FilterFor(field FilterField) (FilterConfig, bool) {
	for _, f := range DefaultFilters() {
		if f.Field == field {
			return f, true
		}
	}
	return FilterConfig{}, false
}
