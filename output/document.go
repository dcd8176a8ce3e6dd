// Package output renders scraped menus as the exported JSON document or a
// flat CSV, and applies the CLI-level item filters.
package output

import (
	"sort"
	"time"

	"talabat-menusync/models"
	"talabat-menusync/parser"
)

// Document is the exported JSON shape for one scrape.
type Document struct {
	Source        string            `json:"source"`
	ScrapedAt     string            `json:"scraped_at"`
	RestaurantURL string            `json:"restaurant_url"`
	URLInfo       models.URLInfo    `json:"url_info"`
	Counts        Counts            `json:"counts"`
	Hashes        Hashes            `json:"hashes"`
	Sections      []Section         `json:"sections"`
	Items         []models.MenuItem `json:"items"`
	Meta          Meta              `json:"meta"`
}

// Counts summarizes the scrape size.
type Counts struct {
	Items    int `json:"items"`
	Sections int `json:"sections"`
}

// Hashes carries the change-detection fingerprint of the whole menu.
type Hashes struct {
	MenuHash string `json:"menu_hash"`
}

// Section groups items under one section name.
type Section struct {
	Name  string            `json:"name"`
	Items []models.MenuItem `json:"items"`
}

// Meta forwards the few page-level fields worth keeping. Not guaranteed
// stable by the source.
type Meta struct {
	Query   map[string]any `json:"query"`
	BuildID any            `json:"buildId"`
}

// BuildDocument assembles the output document for one scrape at the given
// instant.
func BuildDocument(url string, info models.URLInfo, items []models.MenuItem, pageProps map[string]any, now time.Time) Document {
	sections := GroupBySection(items)

	var meta Meta
	if query, ok := pageProps["query"].(map[string]any); ok {
		meta.Query = query
	}
	if buildID, ok := pageProps["buildId"]; ok {
		meta.BuildID = buildID
	}

	return Document{
		Source:        "talabat",
		ScrapedAt:     now.UTC().Format(time.RFC3339),
		RestaurantURL: url,
		URLInfo:       info,
		Counts: Counts{
			Items:    len(items),
			Sections: len(sections),
		},
		Hashes: Hashes{
			MenuHash: parser.ComputeMenuHash(items),
		},
		Sections: sections,
		Items:    items,
		Meta:     meta,
	}
}

// GroupBySection buckets items by section name, sorted by descending item
// count with name as the tiebreak.
func GroupBySection(items []models.MenuItem) []Section {
	grouped := make(map[string][]models.MenuItem)
	var order []string
	for _, item := range items {
		if _, seen := grouped[item.SectionName]; !seen {
			order = append(order, item.SectionName)
		}
		grouped[item.SectionName] = append(grouped[item.SectionName], item)
	}

	sections := make([]Section, 0, len(order))
	for _, name := range order {
		sections = append(sections, Section{Name: name, Items: grouped[name]})
	}
	sort.SliceStable(sections, func(i, j int) bool {
		if len(sections[i].Items) != len(sections[j].Items) {
			return len(sections[i].Items) > len(sections[j].Items)
		}
		return sections[i].Name < sections[j].Name
	})
	return sections
}
