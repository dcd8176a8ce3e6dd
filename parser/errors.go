package parser

import (
	"fmt"
	"strings"
)

// ExtractionError indicates the embedded-data script tag is missing or its
// contents are not valid JSON.
type ExtractionError struct {
	Reason string
	Err    error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extract %s: %s: %v", NextDataMarker, e.Reason, e.Err)
	}
	return fmt.Sprintf("extract %s: %s", NextDataMarker, e.Reason)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// NoItemsFoundError indicates structured data was present but no item list
// was located by any fallback strategy. The key listings speed up maintenance
// when the source changes its page structure.
type NoItemsFoundError struct {
	PagePropsKeys []string
	MenuStateKeys []string
	DebugPath     string
}

func (e *NoItemsFoundError) Error() string {
	msg := "menu items list is empty"
	if e.DebugPath != "" {
		msg += fmt.Sprintf(" (saved html to %s)", e.DebugPath)
	}
	var debug []string
	if len(e.PagePropsKeys) > 0 {
		debug = append(debug, fmt.Sprintf("pageProps keys: %v", e.PagePropsKeys))
	}
	if len(e.MenuStateKeys) > 0 {
		debug = append(debug, fmt.Sprintf("initialMenuState keys: %v", e.MenuStateKeys))
	}
	if len(debug) > 0 {
		msg += " debug: " + strings.Join(debug, "; ")
	}
	return msg
}
