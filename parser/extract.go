package parser

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/buger/jsonparser"
)

// NextDataMarker is the script-tag id under which the source page embeds its
// server-rendered state as JSON.
const NextDataMarker = "__NEXT_DATA__"

// NextData is the parsed embedded-state document. Doc is the decoded JSON
// tree for path navigation; Raw keeps the original bytes so the recursive
// fallback search can walk keys in document order (Go maps do not preserve
// it).
type NextData struct {
	Doc map[string]any
	Raw []byte
}

// ExtractNextData locates the embedded-data script tag, matching its id
// case-insensitively, and parses the contents as JSON. Pure function, no I/O.
func ExtractNextData(html string) (*NextData, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, &ExtractionError{Reason: "parsing html document", Err: err}
	}

	var raw string
	found := false
	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		id, ok := s.Attr("id")
		if !ok || !strings.EqualFold(id, NextDataMarker) {
			return true
		}
		raw = s.Text()
		found = true
		return false
	})
	if !found {
		return nil, &ExtractionError{Reason: "script tag not found in html"}
	}

	raw = strings.TrimSpace(raw)
	var tree map[string]any
	if err := json.Unmarshal([]byte(raw), &tree); err != nil {
		return nil, &ExtractionError{Reason: "script contents are not valid json", Err: err}
	}
	return &NextData{Doc: tree, Raw: []byte(raw)}, nil
}

// PageProps returns props.pageProps, or an empty map when the path is absent.
func (d *NextData) PageProps() map[string]any {
	return mapAt(d.Doc, "props", "pageProps")
}

// rawPageProps returns the raw bytes of props.pageProps for document-order
// traversal, or nil when absent.
func (d *NextData) rawPageProps() []byte {
	value, dataType, _, err := jsonparser.Get(d.Raw, "props", "pageProps")
	if err != nil || dataType != jsonparser.Object {
		return nil
	}
	return value
}

// mapAt walks nested objects and returns the map at the given path, or an
// empty map when any step is missing or not an object.
func mapAt(m map[string]any, path ...string) map[string]any {
	current := m
	for _, key := range path {
		next, ok := current[key].(map[string]any)
		if !ok {
			return map[string]any{}
		}
		current = next
	}
	if current == nil {
		return map[string]any{}
	}
	return current
}

// listAt returns the list under key, or nil when absent or not a list.
func listAt(m map[string]any, key string) []any {
	list, _ := m[key].([]any)
	return list
}
