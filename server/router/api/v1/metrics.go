package v1

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	tagMutationCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tagtree",
		Name:      "tag_mutations_total",
		Help:      "Token-authorized tag mutations by action and outcome.",
	}, []string{"action", "status"})

	tagSubtreeDeleteCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tagtree",
		Name:      "tag_subtree_deletes_total",
		Help:      "Cascading tag subtree deletions by outcome.",
	}, []string{"status"})
)
