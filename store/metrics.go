package store

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts store operations. All methods are safe on a nil receiver
// so clients without metrics pay nothing.
type Metrics struct {
	transactCommits   prometheus.Counter
	transactAborts    prometheus.Counter
	conditionFailures prometheus.Counter
	strongReads       prometheus.Counter
}

// NewMetrics creates and registers store operation counters.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		transactCommits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weft",
			Subsystem: "store",
			Name:      "transact_commits_total",
			Help:      "Transactions committed.",
		}),
		transactAborts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weft",
			Subsystem: "store",
			Name:      "transact_aborts_total",
			Help:      "Transactions aborted, including conditional check failures.",
		}),
		conditionFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weft",
			Subsystem: "store",
			Name:      "condition_failures_total",
			Help:      "Single-item conditional writes that failed their condition.",
		}),
		strongReads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weft",
			Subsystem: "store",
			Name:      "strong_reads_total",
			Help:      "Strongly consistent reads issued.",
		}),
	}
	reg.MustRegister(m.transactCommits, m.transactAborts, m.conditionFailures, m.strongReads)
	return m
}

func (m *Metrics) transactDone(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.transactAborts.Inc()
		return
	}
	m.transactCommits.Inc()
}

func (m *Metrics) conditionFailed() {
	if m == nil {
		return
	}
	m.conditionFailures.Inc()
}

func (m *Metrics) strongRead() {
	if m == nil {
		return
	}
	m.strongReads.Inc()
}
