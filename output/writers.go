package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"talabat-menusync/models"
)

// WriteJSON writes the document to path, indented when pretty is set.
func WriteJSON(path string, doc Document, pretty bool) error {
	var (
		data []byte
		err  error
	)
	if pretty {
		data, err = json.MarshalIndent(doc, "", "  ")
	} else {
		data, err = json.Marshal(doc)
	}
	if err != nil {
		return fmt.Errorf("encode json document: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}

// WriteCSV writes one row per item. An empty item list is an error; no
// header-only file is ever produced.
func WriteCSV(path string, items []models.MenuItem) error {
	if len(items) == 0 {
		return fmt.Errorf("cannot write csv: items list is empty")
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(models.ItemFieldNames); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, item := range items {
		record := []string{
			strconv.Itoa(item.ID),
			item.Name,
			item.Description,
			strconv.FormatFloat(item.Price, 'f', -1, 64),
			strconv.FormatFloat(item.OldPrice, 'f', -1, 64),
			strconv.FormatFloat(item.Rating, 'f', -1, 64),
			item.Image,
			item.OriginalImage,
			strconv.FormatBool(item.HasChoices),
			item.SectionName,
			strconv.Itoa(item.SectionID),
			item.OriginalSection,
			strconv.FormatBool(item.IsItemDiscount),
			strconv.FormatBool(item.IsWithImage),
			strconv.FormatBool(item.IsTopRatedItem),
			item.ItemHash,
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush csv records: %w", err)
	}
	return nil
}

// DefaultOutfile derives an output filename from the URL parts.
func DefaultOutfile(info models.URLInfo, format string) string {
	branchID := info.BranchID
	if branchID == "" {
		branchID = "unknown"
	}
	slug := info.BranchSlug
	if slug == "" {
		slug = "talabat"
	}
	ext := "json"
	if format == "csv" {
		ext = "csv"
	}
	return fmt.Sprintf("%s_%s_menu.%s", slug, branchID, ext)
}
