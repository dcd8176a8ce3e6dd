// Package models defines data structures shared by the menu sync pipeline.
package models

// MenuItem is a single normalized menu entry scraped from a restaurant page.
// Instances are created once during parsing and never mutated afterwards.
type MenuItem struct {
	ID              int     `csv:"id" json:"id"`
	Name            string  `csv:"name" json:"name"`
	Description     string  `csv:"description" json:"description"`
	Price           float64 `csv:"price" json:"price"`
	OldPrice        float64 `csv:"old_price" json:"old_price"`
	Rating          float64 `csv:"rating" json:"rating"`
	Image           string  `csv:"image" json:"image"`
	OriginalImage   string  `csv:"original_image" json:"original_image"`
	HasChoices      bool    `csv:"has_choices" json:"has_choices"`
	SectionName     string  `csv:"section_name" json:"section_name"`
	SectionID       int     `csv:"section_id" json:"section_id"`
	OriginalSection string  `csv:"original_section" json:"original_section"`
	IsItemDiscount  bool    `csv:"is_item_discount" json:"is_item_discount"`
	IsWithImage     bool    `csv:"is_with_image" json:"is_with_image"`
	IsTopRatedItem  bool    `csv:"is_top_rated_item" json:"is_top_rated_item"`
	ItemHash        string  `csv:"item_hash" json:"item_hash"`
}

// ItemFieldNames lists the CSV column order for exported items.
var ItemFieldNames = []string{
	"id", "name", "description", "price", "old_price", "rating",
	"image", "original_image", "has_choices", "section_name", "section_id",
	"original_section", "is_item_discount", "is_with_image",
	"is_top_rated_item", "item_hash",
}

// URLInfo holds the structural parts of a restaurant URL. Absent segments
// are left empty rather than failing the parse.
type URLInfo struct {
	CountrySlug string `json:"country_slug"`
	BranchID    string `json:"branch_id"`
	BranchSlug  string `json:"branch_slug"`
	AreaID      string `json:"aid"`
	Host        string `json:"netloc"`
	Path        string `json:"path"`
}
