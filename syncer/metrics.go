package syncer

import "github.com/prometheus/client_golang/prometheus"

// Metrics bundles sync-level Prometheus collectors. They register on the
// caller's registry so the fetch and sync metrics are served together.
type Metrics struct {
	MenusSynced  *prometheus.CounterVec
	ItemsCreated prometheus.Counter
	ItemsUpdated prometheus.Counter
	ItemsRemoved prometheus.Counter
}

// NewMetrics constructs the sync collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	menusSynced := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "menusync_menus_synced_total",
			Help: "Menu sync runs by outcome (changed, unchanged, failed).",
		},
		[]string{"status"},
	)
	itemsCreated := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "menusync_items_created_total",
			Help: "Menu items inserted by reconciliation.",
		},
	)
	itemsUpdated := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "menusync_items_updated_total",
			Help: "Menu items touched up by reconciliation.",
		},
	)
	itemsRemoved := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "menusync_items_removed_total",
			Help: "Menu items marked unavailable by reconciliation.",
		},
	)

	if reg != nil {
		reg.MustRegister(menusSynced, itemsCreated, itemsUpdated, itemsRemoved)
	}

	return &Metrics{
		MenusSynced:  menusSynced,
		ItemsCreated: itemsCreated,
		ItemsUpdated: itemsUpdated,
		ItemsRemoved: itemsRemoved,
	}
}

// IncSynced increments the sync outcome counter.
func (m *Metrics) IncSynced(status string) {
	if m == nil {
		return
	}
	m.MenusSynced.WithLabelValues(status).Inc()
}

// AddItemChanges records per-item reconciliation counts.
func (m *Metrics) AddItemChanges(created, updated, removed int) {
	if m == nil {
		return
	}
	m.ItemsCreated.Add(float64(created))
	m.ItemsUpdated.Add(float64(updated))
	m.ItemsRemoved.Add(float64(removed))
}
