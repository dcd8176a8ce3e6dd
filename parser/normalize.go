package parser

import (
	"encoding/json"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/buger/jsonparser"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"talabat-menusync/models"
)

// maxSearchDepth bounds the recursive fallback search over pageProps.
const maxSearchDepth = 5

// itemsStrategy is one way of locating the raw item list inside the embedded
// document. Strategies are tried in order and the first non-empty result
// wins, so failures stay traceable instead of being silently swallowed.
type itemsStrategy struct {
	name   string
	locate func(d *NextData) []any
}

var itemStrategies = []itemsStrategy{
	{
		name: "menu_data",
		locate: func(d *NextData) []any {
			state := mapAt(d.Doc, "props", "pageProps", "initialMenuState", "menuData")
			return listAt(state, "items")
		},
	},
	{
		name: "initial_menu_state",
		locate: func(d *NextData) []any {
			return listAt(mapAt(d.PageProps(), "initialMenuState"), "items")
		},
	},
	{
		name: "page_props_menu_data",
		locate: func(d *NextData) []any {
			return listAt(mapAt(d.PageProps(), "menuData"), "items")
		},
	},
	{
		name: "recursive_search",
		locate: func(d *NextData) []any {
			return findItemsRecursive(d.rawPageProps(), 0)
		},
	},
}

// ParseItems locates the item list via the ordered strategy chain and returns
// normalized items plus the page-level metadata object (query, buildId, ...)
// for optional downstream use. When no strategy yields items, the raw HTML is
// persisted to the sink and a NoItemsFoundError with key diagnostics is
// returned.
func ParseItems(data *NextData, sink *DebugSink, rawHTML string) ([]models.MenuItem, map[string]any, error) {
	pageProps := data.PageProps()

	var rawItems []any
	for _, strategy := range itemStrategies {
		rawItems = strategy.locate(data)
		if len(rawItems) > 0 {
			slog.Debug("item list located",
				slog.String("strategy", strategy.name),
				slog.Int("raw_items", len(rawItems)),
			)
			break
		}
	}

	if len(rawItems) == 0 {
		sink.Write(rawHTML)
		return nil, nil, &NoItemsFoundError{
			PagePropsKeys: sortedKeys(pageProps),
			MenuStateKeys: sortedKeys(mapAt(pageProps, "initialMenuState")),
			DebugPath:     sink.Location(),
		}
	}

	items := make([]models.MenuItem, 0, len(rawItems))
	for _, raw := range rawItems {
		entry, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		items = append(items, normalizeItem(entry))
	}
	return items, pageProps, nil
}

// normalizeItem coerces one raw entry into a MenuItem. Malformed fields never
// fail the item; they degrade to defaults and processing continues.
func normalizeItem(entry map[string]any) models.MenuItem {
	sectionName := normalizeWS(safeString(entry["sectionName"]))
	if sectionName == "" {
		sectionName = "Uncategorized"
	}

	item := models.MenuItem{
		ID:              safeInt(entry["id"], -1),
		Name:            titleCase(normalizeWS(safeString(entry["name"]))),
		Description:     normalizeWS(safeString(entry["description"])),
		Price:           safeFloat(entry["price"], 0),
		OldPrice:        safeFloat(entry["oldPrice"], -1),
		Rating:          safeFloat(entry["rating"], 0),
		Image:           unescapeAmp(normalizeWS(safeString(entry["image"]))),
		OriginalImage:   unescapeAmp(normalizeWS(safeString(entry["originalImage"]))),
		HasChoices:      safeBool(entry["hasChoices"]),
		SectionName:     sectionName,
		SectionID:       safeInt(entry["sectionId"], -1),
		OriginalSection: normalizeWS(safeString(entry["originalSection"])),
		IsItemDiscount:  safeBool(entry["isItemDiscount"]),
		IsWithImage:     safeBool(entry["isWithImage"]),
		IsTopRatedItem:  safeBool(entry["isTopRatedItem"]),
	}
	item.ItemHash = Fingerprint(item)
	return item
}

// findItemsRecursive searches the raw JSON subtree for an "items" key holding
// a non-empty list whose first element looks item-shaped (has a name or price
// key). The traversal is depth-first in document order and the first match
// wins; downstream behavior depends on this exact heuristic, so keep it.
func findItemsRecursive(raw []byte, depth int) []any {
	if depth > maxSearchDepth || len(raw) == 0 {
		return nil
	}

	switch jsonValueKind(raw) {
	case jsonparser.Object:
		if candidate := ownItemsList(raw); candidate != nil {
			return candidate
		}
		var found []any
		_ = jsonparser.ObjectEach(raw, func(_ []byte, value []byte, dataType jsonparser.ValueType, _ int) error {
			if found == nil && (dataType == jsonparser.Object || dataType == jsonparser.Array) {
				found = findItemsRecursive(value, depth+1)
			}
			return nil
		})
		return found
	case jsonparser.Array:
		var found []any
		_, _ = jsonparser.ArrayEach(raw, func(value []byte, dataType jsonparser.ValueType, _ int, _ error) {
			if found == nil && (dataType == jsonparser.Object || dataType == jsonparser.Array) {
				found = findItemsRecursive(value, depth+1)
			}
		})
		return found
	default:
		return nil
	}
}

// ownItemsList checks an object's direct "items" key for an item-shaped list.
func ownItemsList(raw []byte) []any {
	value, dataType, _, err := jsonparser.Get(raw, "items")
	if err != nil || dataType != jsonparser.Array {
		return nil
	}
	var list []any
	if err := json.Unmarshal(value, &list); err != nil || len(list) == 0 {
		return nil
	}
	first, ok := list[0].(map[string]any)
	if !ok {
		return nil
	}
	if _, hasName := first["name"]; hasName {
		return list
	}
	if _, hasPrice := first["price"]; hasPrice {
		return list
	}
	return nil
}

func jsonValueKind(raw []byte) jsonparser.ValueType {
	for _, b := range raw {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		case '{':
			return jsonparser.Object
		case '[':
			return jsonparser.Array
		default:
			return jsonparser.Unknown
		}
	}
	return jsonparser.Unknown
}

// normalizeWS collapses internal whitespace runs and trims the ends.
func normalizeWS(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// unescapeAmp undoes the literal &amp; sequences the source leaves in URLs.
func unescapeAmp(s string) string {
	return strings.ReplaceAll(s, "&amp;", "&")
}

func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}

func safeString(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(value)
	default:
		return ""
	}
}

func safeFloat(v any, def float64) float64 {
	switch value := v.(type) {
	case float64:
		return value
	case int:
		return float64(value)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return def
		}
		return parsed
	case json.Number:
		parsed, err := value.Float64()
		if err != nil {
			return def
		}
		return parsed
	default:
		return def
	}
}

func safeInt(v any, def int) int {
	switch value := v.(type) {
	case float64:
		return int(value)
	case int:
		return value
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return def
		}
		return parsed
	case json.Number:
		parsed, err := value.Int64()
		if err != nil {
			return def
		}
		return int(parsed)
	default:
		return def
	}
}

func safeBool(v any) bool {
	value, _ := v.(bool)
	return value
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
