// Package metrics exposes per-namespace cache statistics as prometheus
// metrics. The collector reads counter snapshots at scrape time instead
// of instrumenting the hot path.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hivedesk/hivecache/internal/cache"
)

const namespace = "hivecache"

// Collector implements prometheus.Collector over a cache.Registry.
type Collector struct {
	registry *cache.Registry

	hits      *prometheus.Desc
	misses    *prometheus.Desc
	sets      *prometheus.Desc
	evictions *prometheus.Desc
	expired   *prometheus.Desc
	entries   *prometheus.Desc
	bytes     *prometheus.Desc
	hitRatio  *prometheus.Desc
}

// NewCollector builds a collector for the given registry. Register it
// with prometheus.MustRegister.
func NewCollector(registry *cache.Registry) *Collector {
	labels := []string{"cache_namespace"}
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", name), help, labels, nil)
	}

	return &Collector{
		registry:  registry,
		hits:      desc("hits_total", "Cache read hits."),
		misses:    desc("misses_total", "Cache read misses, including lazy expiries."),
		sets:      desc("sets_total", "Successful cache writes."),
		evictions: desc("evictions_total", "Entries evicted by the capacity or memory bound."),
		expired:   desc("expired_total", "Entries removed because their TTL elapsed."),
		entries:   desc("entries", "Live entries currently held."),
		bytes:     desc("memory_bytes", "Approximate memory used by live entries."),
		hitRatio:  desc("hit_ratio", "Hit rate percentage over the process lifetime."),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.hits
	ch <- c.misses
	ch <- c.sets
	ch <- c.evictions
	ch <- c.expired
	ch <- c.entries
	ch <- c.bytes
	ch <- c.hitRatio
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for name, st := range c.registry.StatsAll() {
		counter := func(desc *prometheus.Desc, v uint64) {
			ch <- prometheus.MustNewConstMetric(desc, prometheus.CounterValue, float64(v), name)
		}
		gauge := func(desc *prometheus.Desc, v float64) {
			ch <- prometheus.MustNewConstMetric(desc, prometheus.GaugeValue, v, name)
		}

		counter(c.hits, st.Hits)
		counter(c.misses, st.Misses)
		counter(c.sets, st.Sets)
		counter(c.evictions, st.Evictions)
		counter(c.expired, st.Expired)
		gauge(c.entries, float64(st.Entries))
		gauge(c.bytes, float64(st.Bytes))
		gauge(c.hitRatio, st.HitRate)
	}
}
