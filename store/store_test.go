package store

import (
	"path/filepath"
	"testing"
	"time"

	"talabat-menusync/diff"
	"talabat-menusync/models"
	"talabat-menusync/parser"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func menuItem(id int, name string, price float64) models.MenuItem {
	it := models.MenuItem{
		ID:          id,
		Name:        name,
		Price:       price,
		SectionName: "Mains",
	}
	it.ItemHash = parser.Fingerprint(it)
	return it
}

func TestGetOrCreateRestaurantIdempotent(t *testing.T) {
	st := openTestStore(t)

	first, err := st.GetOrCreateRestaurant("Balbaa")
	if err != nil {
		t.Fatalf("GetOrCreateRestaurant() error = %v", err)
	}
	second, err := st.GetOrCreateRestaurant("Balbaa")
	if err != nil {
		t.Fatalf("GetOrCreateRestaurant() second call error = %v", err)
	}
	if first != second {
		t.Errorf("ids differ across calls: %d vs %d", first, second)
	}

	name, err := st.RestaurantName(first)
	if err != nil {
		t.Fatalf("RestaurantName() error = %v", err)
	}
	if name != "Balbaa" {
		t.Errorf("RestaurantName() = %q, want Balbaa", name)
	}
}

func TestGetOrCreateMenu(t *testing.T) {
	st := openTestStore(t)
	rid, _ := st.GetOrCreateRestaurant("Balbaa")

	url := "https://www.talabat.com/egypt/restaurant/1/balbaa"
	menu, err := st.GetOrCreateMenu(rid, url)
	if err != nil {
		t.Fatalf("GetOrCreateMenu() error = %v", err)
	}
	if menu.TalabatURL != url || menu.RestaurantID != rid {
		t.Errorf("menu = %+v", menu)
	}
	if menu.MenuHash != "" {
		t.Errorf("new menu should start with an empty hash, got %q", menu.MenuHash)
	}

	again, err := st.GetOrCreateMenu(rid, url)
	if err != nil {
		t.Fatalf("GetOrCreateMenu() second call error = %v", err)
	}
	if again.ID != menu.ID {
		t.Errorf("menu ids differ across calls: %d vs %d", again.ID, menu.ID)
	}
}

func TestMenuByURLMissing(t *testing.T) {
	st := openTestStore(t)
	_, ok, err := st.MenuByURL("https://www.talabat.com/egypt/restaurant/404/nope")
	if err != nil {
		t.Fatalf("MenuByURL() error = %v", err)
	}
	if ok {
		t.Errorf("ok = true for a url never registered")
	}
}

func TestApplyDiffLifecycle(t *testing.T) {
	st := openTestStore(t)
	rid, _ := st.GetOrCreateRestaurant("Balbaa")
	menu, _ := st.GetOrCreateMenu(rid, "https://www.talabat.com/egypt/restaurant/1/balbaa")

	shawarma := menuItem(101, "Shawarma", 85)
	fries := menuItem(102, "Fries", 30)
	snapshot := []models.MenuItem{shawarma, fries}

	// first sync: everything is new
	result := diff.Reconcile(snapshot, menu.MenuHash, nil)
	created, updated, removed, err := st.ApplyDiff(menu.ID, result, time.Now())
	if err != nil {
		t.Fatalf("ApplyDiff() error = %v", err)
	}
	if created != 2 || updated != 0 || removed != 0 {
		t.Fatalf("first sync = %d/%d/%d, want 2/0/0", created, updated, removed)
	}

	menu, _, err = st.MenuByURL(menu.TalabatURL)
	if err != nil {
		t.Fatalf("MenuByURL() error = %v", err)
	}
	if menu.MenuHash != result.MenuHash {
		t.Errorf("menu hash not persisted")
	}
	if menu.LastSyncedAt.IsZero() {
		t.Errorf("last synced timestamp not persisted")
	}

	// second sync: fries vanish, a burger appears, shawarma matches
	burger := menuItem(103, "Burger", 95)
	prior, err := st.ItemHashes(menu.ID)
	if err != nil {
		t.Fatalf("ItemHashes() error = %v", err)
	}
	result = diff.Reconcile([]models.MenuItem{shawarma, burger}, menu.MenuHash, prior)
	created, updated, removed, err = st.ApplyDiff(menu.ID, result, time.Now())
	if err != nil {
		t.Fatalf("ApplyDiff() second sync error = %v", err)
	}
	if created != 1 || updated != 1 || removed != 1 {
		t.Fatalf("second sync = %d/%d/%d, want 1/1/1", created, updated, removed)
	}

	items, err := st.Items(menu.ID)
	if err != nil {
		t.Fatalf("Items() error = %v", err)
	}
	byName := make(map[string]StoredItem, len(items))
	for _, it := range items {
		byName[it.Name] = it
	}
	if it := byName["Fries"]; it.IsAvailable {
		t.Errorf("removed item still available")
	}
	if it := byName["Shawarma"]; !it.IsAvailable {
		t.Errorf("matched item lost availability")
	}
	if it := byName["Burger"]; !it.IsAvailable {
		t.Errorf("new item not available")
	}
}

func TestApplyDiffBackfillsSourceID(t *testing.T) {
	st := openTestStore(t)
	rid, _ := st.GetOrCreateRestaurant("Balbaa")
	menu, _ := st.GetOrCreateMenu(rid, "https://www.talabat.com/egypt/restaurant/1/balbaa")

	// first scrape had no usable id
	anon := menuItem(-1, "Shawarma", 85)
	result := diff.Reconcile([]models.MenuItem{anon}, "", nil)
	if _, _, _, err := st.ApplyDiff(menu.ID, result, time.Now()); err != nil {
		t.Fatalf("ApplyDiff() error = %v", err)
	}

	// later scrape reports an id; fingerprint ignores it, so it matches
	identified := menuItem(777, "Shawarma", 85)
	if identified.ItemHash != anon.ItemHash {
		t.Fatalf("fingerprints must agree for the id-only change")
	}
	prior, _ := st.ItemHashes(menu.ID)
	result = diff.Reconcile([]models.MenuItem{identified}, "stale", prior)
	created, updated, _, err := st.ApplyDiff(menu.ID, result, time.Now())
	if err != nil {
		t.Fatalf("ApplyDiff() backfill error = %v", err)
	}
	if created != 0 || updated != 1 {
		t.Fatalf("backfill sync = created %d, updated %d, want 0/1", created, updated)
	}

	items, _ := st.Items(menu.ID)
	if len(items) != 1 || items[0].TalabatID != 777 {
		t.Errorf("items = %+v, want one row with talabat_id 777", items)
	}
}

func TestApplyDiffReturningItemReactivated(t *testing.T) {
	st := openTestStore(t)
	rid, _ := st.GetOrCreateRestaurant("Balbaa")
	menu, _ := st.GetOrCreateMenu(rid, "https://www.talabat.com/egypt/restaurant/1/balbaa")

	soup := menuItem(201, "Soup", 40)

	// sync in, sync out, sync back in
	result := diff.Reconcile([]models.MenuItem{soup}, "", nil)
	if _, _, _, err := st.ApplyDiff(menu.ID, result, time.Now()); err != nil {
		t.Fatalf("ApplyDiff() error = %v", err)
	}
	prior, _ := st.ItemHashes(menu.ID)
	result = diff.Reconcile(nil, "stale", prior)
	if _, _, _, err := st.ApplyDiff(menu.ID, result, time.Now()); err != nil {
		t.Fatalf("ApplyDiff() removal error = %v", err)
	}

	// hashes of unavailable items must still be visible
	prior, err := st.ItemHashes(menu.ID)
	if err != nil {
		t.Fatalf("ItemHashes() error = %v", err)
	}
	if _, ok := prior[soup.ItemHash]; !ok {
		t.Fatalf("unavailable item hash missing from ItemHashes")
	}

	result = diff.Reconcile([]models.MenuItem{soup}, "stale", prior)
	created, updated, _, err := st.ApplyDiff(menu.ID, result, time.Now())
	if err != nil {
		t.Fatalf("ApplyDiff() return error = %v", err)
	}
	if created != 0 || updated != 1 {
		t.Fatalf("returning item = created %d, updated %d, want 0/1 (no duplicate row)", created, updated)
	}
	items, _ := st.Items(menu.ID)
	if len(items) != 1 || !items[0].IsAvailable {
		t.Errorf("items = %+v, want one available row", items)
	}
}

func TestApplyDiffUnchangedNoop(t *testing.T) {
	st := openTestStore(t)
	rid, _ := st.GetOrCreateRestaurant("Balbaa")
	menu, _ := st.GetOrCreateMenu(rid, "https://www.talabat.com/egypt/restaurant/1/balbaa")

	created, updated, removed, err := st.ApplyDiff(menu.ID, diff.Result{Unchanged: true, MenuHash: "x"}, time.Now())
	if err != nil {
		t.Fatalf("ApplyDiff() error = %v", err)
	}
	if created+updated+removed != 0 {
		t.Errorf("unchanged result should write nothing")
	}
}
