package output

import (
	"strings"

	"talabat-menusync/models"
)

// Filter keeps items in the allowed sections (when any are given) with a
// price at or above minPrice (when non-nil).
func Filter(items []models.MenuItem, onlySections []string, minPrice *float64) []models.MenuItem {
	allowed := make(map[string]struct{})
	for _, s := range onlySections {
		if trimmed := strings.TrimSpace(s); trimmed != "" {
			allowed[trimmed] = struct{}{}
		}
	}

	out := make([]models.MenuItem, 0, len(items))
	for _, item := range items {
		if len(allowed) > 0 {
			if _, ok := allowed[item.SectionName]; !ok {
				continue
			}
		}
		if minPrice != nil && item.Price < *minPrice {
			continue
		}
		out = append(out, item)
	}
	return out
}
