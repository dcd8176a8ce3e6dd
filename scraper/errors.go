package scraper

import (
	"errors"
	"fmt"

	"talabat-menusync/parser"
)

// TransportError indicates network/HTTP failure after retry exhaustion.
// Recoverable: the caller may retry the whole pipeline on a later run.
type TransportError struct {
	Attempts int
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: failed to fetch page after %d attempts: %v", e.Attempts, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// BlockedError indicates the response did not contain the embedded-data
// marker. Challenge distinguishes an anti-bot/access-denied page from a page
// whose shape simply did not match expectations; both are non-retryable
// within the same run.
type BlockedError struct {
	Reason    string
	Challenge bool
	DebugPath string
}

func (e *BlockedError) Error() string {
	if e.DebugPath != "" {
		return fmt.Sprintf("blocked: %s (saved html to %s)", e.Reason, e.DebugPath)
	}
	return "blocked: " + e.Reason
}

// ErrorLabel classifies pipeline failures into metric label values.
func ErrorLabel(err error) string {
	if err == nil {
		return "none"
	}
	var transport *TransportError
	if errors.As(err, &transport) {
		return "transport"
	}
	var blocked *BlockedError
	if errors.As(err, &blocked) {
		if blocked.Challenge {
			return "blocked"
		}
		return "marker_missing"
	}
	var extraction *parser.ExtractionError
	if errors.As(err, &extraction) {
		return "extraction"
	}
	var noItems *parser.NoItemsFoundError
	if errors.As(err, &noItems) {
		return "no_items"
	}
	return "other"
}
