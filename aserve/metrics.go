package aserve

import "github.com/prometheus/client_golang/prometheus"

// Metrics are the proof service's prometheus collectors.
type Metrics struct {
	// Requests counts answered requests, labeled by result.
	// The result is a [Status] string.
	Requests *prometheus.CounterVec

	CacheHits prometheus.Counter

	// MembershipRequests counts answered membership requests, labeled by result.
	MembershipRequests *prometheus.CounterVec

	// MembershipRecords counts records checked by successful membership requests.
	MembershipRecords prometheus.Counter

	// TreeAllocations is the record count of the tree currently served.
	TreeAllocations prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered, which is convenient in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "allotree_proof_requests_total",
			Help: "Proof requests answered, by result",
		}, []string{"result"}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "allotree_proof_cache_hits_total",
			Help: "Proof requests answered from the proof cache",
		}),
		MembershipRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "allotree_membership_requests_total",
			Help: "Membership requests answered, by result",
		}, []string{"result"}),
		MembershipRecords: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "allotree_membership_records_total",
			Help: "Records checked by successful membership requests",
		}),
		TreeAllocations: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "allotree_tree_allocations",
			Help: "Number of allocations in the tree being served",
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.Requests, m.CacheHits,
			m.MembershipRequests, m.MembershipRecords,
			m.TreeAllocations,
		)
	}

	return m
}
