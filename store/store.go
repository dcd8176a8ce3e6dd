// Package store persists synced menus in SQLite. It is the collaborator the
// diff engine hands its results to: new items are inserted, matched items
// touched up, and removed items marked unavailable, all inside a single
// transaction per menu so a failed sync leaves the stored menu hash
// untouched and a later run retries the full diff.
package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"talabat-menusync/diff"
)

const schema = `
CREATE TABLE IF NOT EXISTS restaurants (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE,
	created_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS menus (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	restaurant_id INTEGER NOT NULL REFERENCES restaurants(id),
	talabat_url TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL DEFAULT 'Main Menu',
	is_active INTEGER NOT NULL DEFAULT 1,
	menu_hash TEXT NOT NULL DEFAULT '',
	last_synced_at TEXT
);
CREATE TABLE IF NOT EXISTS menu_items (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	menu_id INTEGER NOT NULL REFERENCES menus(id),
	talabat_id INTEGER NOT NULL DEFAULT -1,
	name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	price REAL NOT NULL DEFAULT 0,
	section_name TEXT NOT NULL DEFAULT 'Uncategorized',
	item_hash TEXT NOT NULL,
	is_available INTEGER NOT NULL DEFAULT 1,
	updated_at TEXT NOT NULL,
	UNIQUE (menu_id, item_hash)
);
CREATE INDEX IF NOT EXISTS idx_menu_items_menu ON menu_items(menu_id);
`

// Store wraps the SQLite handle. SQLite serializes writers, which provides
// the at-most-one-reconciliation-per-menu exclusion the diff engine needs.
type Store struct {
	db *sql.DB
}

// Menu is a stored menu row.
type Menu struct {
	ID           int64
	RestaurantID int64
	TalabatURL   string
	MenuHash     string
	LastSyncedAt time.Time
}

// StoredItem is a stored menu item row, as read back for inspection.
type StoredItem struct {
	TalabatID   int
	Name        string
	Description string
	Price       float64
	SectionName string
	ItemHash    string
	IsAvailable bool
}

// Open opens (creating if needed) the database at path and applies the
// schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// GetOrCreateRestaurant returns the id for name, creating the row if absent.
func (s *Store) GetOrCreateRestaurant(name string) (int64, error) {
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO restaurants (name, created_at) VALUES (?, ?)`,
		name, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("insert restaurant: %w", err)
	}
	var id int64
	if err := s.db.QueryRow(`SELECT id FROM restaurants WHERE name = ?`, name).Scan(&id); err != nil {
		return 0, fmt.Errorf("select restaurant: %w", err)
	}
	return id, nil
}

// GetOrCreateMenu returns the menu for (restaurantID, url), creating it if
// absent.
func (s *Store) GetOrCreateMenu(restaurantID int64, url string) (Menu, error) {
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO menus (restaurant_id, talabat_url) VALUES (?, ?)`,
		restaurantID, url,
	)
	if err != nil {
		return Menu{}, fmt.Errorf("insert menu: %w", err)
	}
	return s.menuByURL(url)
}

// MenuByURL looks up a menu by its source URL. The second return reports
// whether it exists.
func (s *Store) MenuByURL(url string) (Menu, bool, error) {
	menu, err := s.menuByURL(url)
	if err == sql.ErrNoRows {
		return Menu{}, false, nil
	}
	if err != nil {
		return Menu{}, false, err
	}
	return menu, true, nil
}

func (s *Store) menuByURL(url string) (Menu, error) {
	var m Menu
	var synced sql.NullString
	err := s.db.QueryRow(
		`SELECT id, restaurant_id, talabat_url, menu_hash, last_synced_at FROM menus WHERE talabat_url = ?`,
		url,
	).Scan(&m.ID, &m.RestaurantID, &m.TalabatURL, &m.MenuHash, &synced)
	if err != nil {
		return Menu{}, err
	}
	if synced.Valid {
		if t, perr := time.Parse(time.RFC3339, synced.String); perr == nil {
			m.LastSyncedAt = t
		}
	}
	return m, nil
}

// RestaurantName returns the name of the restaurant owning restaurantID.
func (s *Store) RestaurantName(restaurantID int64) (string, error) {
	var name string
	err := s.db.QueryRow(`SELECT name FROM restaurants WHERE id = ?`, restaurantID).Scan(&name)
	if err != nil {
		return "", fmt.Errorf("select restaurant name: %w", err)
	}
	return name, nil
}

// ItemHashes returns every stored fingerprint for the menu, including items
// currently marked unavailable: an item that comes back after removal must
// match its old record, not spawn a duplicate.
func (s *Store) ItemHashes(menuID int64) (map[string]struct{}, error) {
	rows, err := s.db.Query(`SELECT item_hash FROM menu_items WHERE menu_id = ?`, menuID)
	if err != nil {
		return nil, fmt.Errorf("select item hashes: %w", err)
	}
	defer rows.Close()

	hashes := make(map[string]struct{})
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, fmt.Errorf("scan item hash: %w", err)
		}
		hashes[h] = struct{}{}
	}
	return hashes, rows.Err()
}

// Items reads back the menu's items ordered by section and name.
func (s *Store) Items(menuID int64) ([]StoredItem, error) {
	rows, err := s.db.Query(
		`SELECT talabat_id, name, description, price, section_name, item_hash, is_available
		 FROM menu_items WHERE menu_id = ? ORDER BY section_name, name`,
		menuID,
	)
	if err != nil {
		return nil, fmt.Errorf("select items: %w", err)
	}
	defer rows.Close()

	var items []StoredItem
	for rows.Next() {
		var it StoredItem
		var available int
		if err := rows.Scan(&it.TalabatID, &it.Name, &it.Description, &it.Price, &it.SectionName, &it.ItemHash, &available); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		it.IsAvailable = available != 0
		items = append(items, it)
	}
	return items, rows.Err()
}

// ApplyDiff persists a reconciliation result in one transaction: inserts new
// items, touches up matched ones (source id backfill, re-availability),
// marks removed fingerprints unavailable, and updates the menu hash and sync
// timestamp. A rollback leaves the menu hash unchanged so the next sync
// retries the full diff.
func (s *Store) ApplyDiff(menuID int64, result diff.Result, syncedAt time.Time) (created, updated, removed int, err error) {
	if result.Unchanged {
		return 0, 0, 0, nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, 0, 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	stamp := syncedAt.UTC().Format(time.RFC3339)

	for _, item := range result.New {
		if _, err = tx.Exec(
			`INSERT INTO menu_items (menu_id, talabat_id, name, description, price, section_name, item_hash, is_available, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, 1, ?)`,
			menuID, item.ID, item.Name, item.Description, item.Price, item.SectionName, item.ItemHash, stamp,
		); err != nil {
			return 0, 0, 0, fmt.Errorf("insert item %q: %w", item.Name, err)
		}
		created++
	}

	for _, item := range result.Matched {
		if _, err = tx.Exec(
			`UPDATE menu_items
			 SET talabat_id = ?, name = ?, description = ?, price = ?, section_name = ?, is_available = 1, updated_at = ?
			 WHERE menu_id = ? AND item_hash = ?`,
			item.ID, item.Name, item.Description, item.Price, item.SectionName, stamp, menuID, item.ItemHash,
		); err != nil {
			return 0, 0, 0, fmt.Errorf("update item %q: %w", item.Name, err)
		}
		updated++
	}

	if len(result.RemovedHashes) > 0 {
		placeholders := strings.Repeat("?,", len(result.RemovedHashes))
		placeholders = placeholders[:len(placeholders)-1]
		args := make([]any, 0, len(result.RemovedHashes)+2)
		args = append(args, stamp, menuID)
		for _, h := range result.RemovedHashes {
			args = append(args, h)
		}
		var res sql.Result
		if res, err = tx.Exec(
			`UPDATE menu_items SET is_available = 0, updated_at = ? WHERE menu_id = ? AND item_hash IN (`+placeholders+`)`,
			args...,
		); err != nil {
			return 0, 0, 0, fmt.Errorf("mark items unavailable: %w", err)
		}
		if n, aerr := res.RowsAffected(); aerr == nil {
			removed = int(n)
		}
	}

	if _, err = tx.Exec(
		`UPDATE menus SET menu_hash = ?, last_synced_at = ? WHERE id = ?`,
		result.MenuHash, stamp, menuID,
	); err != nil {
		return 0, 0, 0, fmt.Errorf("update menu hash: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return 0, 0, 0, fmt.Errorf("commit tx: %w", err)
	}
	return created, updated, removed, nil
}
