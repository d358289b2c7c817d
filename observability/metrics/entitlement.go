package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// EntitlementMetrics tracks the contract's state-changing activity for the
// /metrics endpoint.
type EntitlementMetrics struct {
	mints           prometheus.Counter
	batchInserts    prometheus.Counter
	whitelistedRows prometheus.Counter
	snapshots       prometheus.Counter
}

var (
	entitlementOnce     sync.Once
	entitlementRegistry *EntitlementMetrics
)

// Entitlement returns the lazily-initialised entitlement metrics registry.
func Entitlement() *EntitlementMetrics {
	entitlementOnce.Do(func() {
		entitlementRegistry = &EntitlementMetrics{
			mints: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "entitlement_mints_total",
				Help: "Count of successful entitlement mints.",
			}),
			batchInserts: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "entitlement_whitelist_batches_total",
				Help: "Count of committed whitelist batch inserts.",
			}),
			whitelistedRows: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "entitlement_whitelist_entries_total",
				Help: "Count of whitelist entries inserted across all batches.",
			}),
			snapshots: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "entitlement_snapshots_total",
				Help: "Count of monthly snapshots recorded.",
			}),
		}
		prometheus.MustRegister(
			entitlementRegistry.mints,
			entitlementRegistry.batchInserts,
			entitlementRegistry.whitelistedRows,
			entitlementRegistry.snapshots,
		)
	})
	return entitlementRegistry
}

// RecordMint counts one committed mint.
func (m *EntitlementMetrics) RecordMint() {
	if m == nil {
		return
	}
	m.mints.Inc()
}

// RecordBatchInsert counts one committed batch and its row count.
func (m *EntitlementMetrics) RecordBatchInsert(rows int) {
	if m == nil {
		return
	}
	m.batchInserts.Inc()
	m.whitelistedRows.Add(float64(rows))
}

// RecordSnapshot counts one committed monthly snapshot.
func (m *EntitlementMetrics) RecordSnapshot() {
	if m == nil {
		return
	}
	m.snapshots.Inc()
}
