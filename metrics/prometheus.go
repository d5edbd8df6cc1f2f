package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/krisalay/tiered-cache/types"
)

// Prometheus implements types.Metrics with Prometheus counters.
type Prometheus struct {
	hits          prometheus.Counter
	misses        prometheus.Counter
	expired       prometheus.Counter
	restored      prometheus.Counter
	recoveries    prometheus.Counter
	recovered     prometheus.Counter
	storageErrors *prometheus.CounterVec
}

var _ types.Metrics = (*Prometheus)(nil)

// NewPrometheus creates the counters and registers them on reg.
// It panics if they are already registered, like prometheus.MustRegister.
func NewPrometheus(reg prometheus.Registerer, namespace string) *Prometheus {
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      name,
			Help:      help,
		})
	}

	p := &Prometheus{
		hits:       counter("hits_total", "Reads answered from either tier."),
		misses:     counter("misses_total", "Reads that found nothing usable in either tier."),
		expired:    counter("expired_total", "Stale entries dropped during reads."),
		restored:   counter("restored_total", "Entries copied from the persistent tier back into memory."),
		recoveries: counter("quota_recoveries_total", "Quota-recovery sweeps run after a full persistent tier."),
		recovered:  counter("quota_recovered_records_total", "Records removed by quota-recovery sweeps."),
		storageErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "storage_errors_total",
			Help:      "Persistent tier failures swallowed by the cache, by operation.",
		}, []string{"op"}),
	}

	reg.MustRegister(
		p.hits,
		p.misses,
		p.expired,
		p.restored,
		p.recoveries,
		p.recovered,
		p.storageErrors,
	)
	return p
}

func (p *Prometheus) Hit()     { p.hits.Inc() }
func (p *Prometheus) Miss()    { p.misses.Inc() }
func (p *Prometheus) Expire()  { p.expired.Inc() }
func (p *Prometheus) Restore() { p.restored.Inc() }

func (p *Prometheus) QuotaRecovery(removed int) {
	p.recoveries.Inc()
	p.recovered.Add(float64(removed))
}

func (p *Prometheus) StorageError(op string) {
	p.storageErrors.WithLabelValues(op).Inc()
}

/*
Hits, Misses, Expired and Restored expose the underlying counters for
introspection, e.g. reading a value with testutil.ToFloat64 or wrapping
them in another collector. The counters are already registered.
*/
func (p *Prometheus) Hits() prometheus.Counter     { return p.hits }
func (p *Prometheus) Misses() prometheus.Counter   { return p.misses }
func (p *Prometheus) Expired() prometheus.Counter  { return p.expired }
func (p *Prometheus) Restored() prometheus.Counter { return p.restored }
