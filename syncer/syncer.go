// Package syncer runs the per-restaurant scrape pipeline and reconciles the
// results against the menu store. One restaurant's failure never aborts the
// rest of a batch.
package syncer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"talabat-menusync/diff"
	"talabat-menusync/parser"
	"talabat-menusync/scraper"
	"talabat-menusync/store"
)

// hashCacheSize bounds the in-memory menu-hash cache. A periodic sync over a
// normal fleet fits comfortably.
const hashCacheSize = 256

// RestaurantConfig is one entry of the restaurants-to-sync JSON file.
type RestaurantConfig struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// LoadRestaurants reads a JSON array of {name, url} entries.
func LoadRestaurants(path string) ([]RestaurantConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read restaurants file: %w", err)
	}
	var configs []RestaurantConfig
	if err := json.Unmarshal(data, &configs); err != nil {
		return nil, fmt.Errorf("parse restaurants file: %w", err)
	}
	return configs, nil
}

// Outcome is the result of syncing one restaurant.
type Outcome struct {
	Restaurant string
	URL        string
	Items      int
	Created    int
	Updated    int
	Removed    int
	Unchanged  bool
	Err        error
}

// Service wires the fetcher, parser, differ, and store into per-restaurant
// sync runs. The LRU cache keeps the last-known menu hash per URL so an
// unchanged menu short-circuits before touching the store at all.
type Service struct {
	store     *store.Store
	fetcher   *scraper.Fetcher
	metrics   *Metrics
	debugDir  string
	hashCache *lru.Cache[string, string]
}

// New builds a sync service. debugDir receives per-restaurant debug HTML;
// each target gets its own file so concurrent or batched runs never clobber
// each other's artifacts.
func New(st *store.Store, fetcher *scraper.Fetcher, metrics *Metrics, debugDir string) (*Service, error) {
	cache, err := lru.New[string, string](hashCacheSize)
	if err != nil {
		return nil, fmt.Errorf("create hash cache: %w", err)
	}
	return &Service{
		store:     st,
		fetcher:   fetcher,
		metrics:   metrics,
		debugDir:  debugDir,
		hashCache: cache,
	}, nil
}

// SyncAll processes every config entry in order. Entries missing a name or
// URL are skipped with a warning, nameFilter (when non-empty) selects a
// single restaurant case-insensitively, and failed targets are recorded and
// passed over.
func (s *Service) SyncAll(ctx context.Context, configs []RestaurantConfig, nameFilter string) []Outcome {
	var outcomes []Outcome
	for _, cfg := range configs {
		if cfg.Name == "" || cfg.URL == "" {
			slog.Warn("skipping invalid restaurant entry",
				slog.String("name", cfg.Name),
				slog.String("url", cfg.URL),
			)
			continue
		}
		if nameFilter != "" && !strings.EqualFold(cfg.Name, nameFilter) {
			continue
		}
		if ctx.Err() != nil {
			break
		}

		outcome := s.SyncOne(ctx, cfg.Name, cfg.URL)
		if outcome.Err != nil {
			slog.Error("restaurant sync failed",
				slog.String("restaurant", cfg.Name),
				slog.String("error_type", scraper.ErrorLabel(outcome.Err)),
				slog.Any("error", outcome.Err),
			)
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

// SyncURL syncs a single already-registered menu by its source URL,
// bypassing the configuration file.
func (s *Service) SyncURL(ctx context.Context, url string) Outcome {
	menu, ok, err := s.store.MenuByURL(url)
	if err != nil {
		return Outcome{URL: url, Err: fmt.Errorf("look up menu: %w", err)}
	}
	if !ok {
		return Outcome{URL: url, Err: fmt.Errorf("no menu found with url %s", url)}
	}
	name, err := s.store.RestaurantName(menu.RestaurantID)
	if err != nil {
		return Outcome{URL: url, Err: err}
	}
	return s.SyncOne(ctx, name, url)
}

// SyncOne runs the full pipeline for one restaurant: fetch, extract,
// normalize, reconcile, persist. The store transaction in ApplyDiff is the
// per-menu serialization point.
func (s *Service) SyncOne(ctx context.Context, name, url string) Outcome {
	outcome := Outcome{Restaurant: name, URL: url}
	sink := s.sinkFor(name)

	slog.Info("syncing restaurant", slog.String("restaurant", name), slog.String("url", url))

	html, err := s.fetcher.Fetch(ctx, url, sink)
	if err != nil {
		outcome.Err = err
		s.metrics.IncSynced("failed")
		return outcome
	}

	next, err := parser.ExtractNextData(html)
	if err != nil {
		sink.Write(html)
		outcome.Err = err
		s.metrics.IncSynced("failed")
		return outcome
	}

	items, _, err := parser.ParseItems(next, sink, html)
	if err != nil {
		outcome.Err = err
		s.metrics.IncSynced("failed")
		return outcome
	}
	outcome.Items = len(items)

	menuHash := parser.ComputeMenuHash(items)
	if cached, ok := s.hashCache.Get(url); ok && cached == menuHash {
		outcome.Unchanged = true
		s.metrics.IncSynced("unchanged")
		slog.Info("menu unchanged (cached)", slog.String("restaurant", name))
		return outcome
	}

	restaurantID, err := s.store.GetOrCreateRestaurant(name)
	if err != nil {
		outcome.Err = err
		s.metrics.IncSynced("failed")
		return outcome
	}
	menu, err := s.store.GetOrCreateMenu(restaurantID, url)
	if err != nil {
		outcome.Err = err
		s.metrics.IncSynced("failed")
		return outcome
	}
	prior, err := s.store.ItemHashes(menu.ID)
	if err != nil {
		outcome.Err = err
		s.metrics.IncSynced("failed")
		return outcome
	}

	result := diff.Reconcile(items, menu.MenuHash, prior)
	if result.Unchanged {
		s.hashCache.Add(url, result.MenuHash)
		outcome.Unchanged = true
		s.metrics.IncSynced("unchanged")
		slog.Info("menu unchanged", slog.String("restaurant", name))
		return outcome
	}

	created, updated, removed, err := s.store.ApplyDiff(menu.ID, result, time.Now())
	if err != nil {
		outcome.Err = fmt.Errorf("apply diff: %w", err)
		s.metrics.IncSynced("failed")
		return outcome
	}
	s.hashCache.Add(url, result.MenuHash)

	outcome.Created = created
	outcome.Updated = updated
	outcome.Removed = removed
	s.metrics.IncSynced("changed")
	s.metrics.AddItemChanges(created, updated, removed)
	slog.Info("menu synced",
		slog.String("restaurant", name),
		slog.Int("items", len(items)),
		slog.Int("created", created),
		slog.Int("updated", updated),
		slog.Int("removed", removed),
	)
	return outcome
}

// sinkFor returns a per-restaurant debug sink so batch targets never share
// an artifact path.
func (s *Service) sinkFor(name string) *parser.DebugSink {
	dir := s.debugDir
	if dir == "" {
		dir = "."
	}
	return &parser.DebugSink{Path: filepath.Join(dir, "debug_"+slugify(name)+".html")}
}

func slugify(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "restaurant"
	}
	return b.String()
}
