package bolt

import (
	"github.com/prometheus/client_golang/prometheus"
	bolt "go.etcd.io/bbolt"
)

var _ prometheus.Collector = (*KVStore)(nil)

var (
	kvWritesDesc = prometheus.NewDesc(
		"boltdb_writes_total",
		"Total number of boltdb writes",
		nil, nil)

	kvReadsDesc = prometheus.NewDesc(
		"boltdb_reads_total",
		"Total number of boltdb reads",
		nil, nil)

	kvCollectionsDesc = prometheus.NewDesc(
		"docmigrate_collections_total",
		"Number of collections in the document catalog, across namespaces",
		nil, nil)
)

// catalogBucket is the catalog of the document store.
var catalogBucket = []byte("collectionsv1")

// Describe returns all descriptions of the collector.
func (s *KVStore) Describe(ch chan<- *prometheus.Desc) {
	ch <- kvWritesDesc
	ch <- kvReadsDesc
	ch <- kvCollectionsDesc
}

// Collect returns the current state of all metrics of the collector.
func (s *KVStore) Collect(ch chan<- prometheus.Metric) {
	if s.db == nil {
		return
	}

	stats := s.db.Stats()
	writes := stats.TxStats.Write
	reads := stats.TxN

	ch <- prometheus.MustNewConstMetric(
		kvReadsDesc,
		prometheus.CounterValue,
		float64(reads),
	)

	ch <- prometheus.MustNewConstMetric(
		kvWritesDesc,
		prometheus.CounterValue,
		float64(writes),
	)

	collections := 0
	_ = s.db.View(func(tx *bolt.Tx) error {
		if b := tx.Bucket(catalogBucket); b != nil {
			collections = b.Stats().KeyN
		}
		return nil
	})

	ch <- prometheus.MustNewConstMetric(
		kvCollectionsDesc,
		prometheus.GaugeValue,
		float64(collections),
	)
}
