// Package metrics registers the prometheus collectors the node exposes.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics groups every collector the node updates while committing blocks
// and running the election approval pass.
type Metrics struct {
	BlocksCommitted   prometheus.Counter
	TxsCommitted      prometheus.Counter
	ElectionsStarted  prometheus.Counter
	ElectionsConcluded prometheus.Counter
	VotesTallied      prometheus.Counter
	ValidatorUpdates  prometheus.Counter
}

// New creates and registers the node's collectors against reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		BlocksCommitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "election_blocks_committed_total",
			Help: "Total number of blocks committed.",
		}),
		TxsCommitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "election_transactions_committed_total",
			Help: "Total number of transactions committed across all blocks.",
		}),
		ElectionsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "election_started_total",
			Help: "Total number of election transactions committed.",
		}),
		ElectionsConcluded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "election_concluded_total",
			Help: "Total number of elections that reached a supermajority.",
		}),
		VotesTallied: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "election_votes_tallied_total",
			Help: "Total number of vote transactions processed by the approval driver.",
		}),
		ValidatorUpdates: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "election_validator_updates_total",
			Help: "Total number of validator updates emitted by concluded elections.",
		}),
	}
	for _, c := range []prometheus.Collector{
		m.BlocksCommitted, m.TxsCommitted, m.ElectionsStarted,
		m.ElectionsConcluded, m.VotesTallied, m.ValidatorUpdates,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}
