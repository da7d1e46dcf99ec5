package store

import (
	"strings"

	"cardapio-telegram/models"
)

// FilterCatalog derives the visible item list: category "Todos" or an exact
// category match, a case-insensitive substring match of search against name
// or description, and availability unless includeUnavailable (admin view).
// Pure over the current catalog; order is preserved.
func (s *Store) FilterCatalog(category, search string, includeUnavailable bool) []models.MenuItem {
	q := strings.ToLower(search)
	var out []models.MenuItem
	for _, it := range s.catalog {
		if category != models.CategoryAll && it.Category != category {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(it.Name), q) &&
			!strings.Contains(strings.ToLower(it.Description), q) {
			continue
		}
		if !includeUnavailable && !it.IsAvailable {
			continue
		}
		out = append(out, it)
	}
	return out
}
