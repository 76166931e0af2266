package store

import (
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

var nameCollator = collate.New(language.Und, collate.IgnoreCase)

// sortNamesFolded orders names case-insensitively, matching the COLLATE
// NOCASE listings hosting UIs expect for choice population.
func sortNamesFolded(names []string) {
	nameCollator.SortStrings(names)
}
