package parser

import (
	"log/slog"
	"os"
)

// DebugSink persists raw HTML for operator inspection on failure paths.
// Writes replace the previous artifact; nothing is ever appended. A nil
// sink discards everything, and concurrent pipeline runs must each use
// their own sink path so failures do not clobber each other.
type DebugSink struct {
	Path string
}

// Write stores the document at the sink path. Best effort: a sink write
// must never turn a scrape failure into a different failure.
func (s *DebugSink) Write(html string) {
	if s == nil || s.Path == "" {
		return
	}
	if err := os.WriteFile(s.Path, []byte(html), 0o644); err != nil {
		slog.Error("writing debug html", slog.String("path", s.Path), slog.Any("error", err))
	}
}

// Location returns the sink path, or "" for a nil sink.
func (s *DebugSink) Location() string {
	if s == nil {
		return ""
	}
	return s.Path
}
