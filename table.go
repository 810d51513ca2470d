package cfr

import (
	"github.com/timpalpant/tossem-cfr/abstraction"
)

// Node accumulates regret and average-strategy weight for one bucketed
// information state. Regrets are signed and unclamped; strategy sums only
// ever grow.
type Node struct {
	Regret   [abstraction.NumBettingActions]float64
	StratSum [abstraction.NumBettingActions]float64
}

// AverageStrategy returns the normalized strategy sum, or the uniform
// distribution if the node has never been weighted.
func (n *Node) AverageStrategy() [abstraction.NumBettingActions]float64 {
	var avg [abstraction.NumBettingActions]float64
	var total float64
	for _, w := range n.StratSum {
		total += w
	}
	if total <= 0 {
		for i := range avg {
			avg[i] = 1.0 / abstraction.NumBettingActions
		}
		return avg
	}
	for i, w := range n.StratSum {
		avg[i] = w / total
	}
	return avg
}

// RegretTable maps information-state keys to their accumulated nodes.
type RegretTable map[abstraction.InfoKey]*Node

// Get returns the node for key, creating a zeroed node if absent.
func (t RegretTable) Get(key abstraction.InfoKey) *Node {
	n, ok := t[key]
	if !ok {
		n = &Node{}
		t[key] = n
	}
	return n
}

// Merge adds src into t componentwise, creating entries as needed.
// Addition is associative and commutative, so the order in which worker
// tables are merged does not affect the result.
func (t RegretTable) Merge(src RegretTable) {
	for key, s := range src {
		d := t.Get(key)
		for a := 0; a < abstraction.NumBettingActions; a++ {
			d.Regret[a] += s.Regret[a]
			d.StratSum[a] += s.StratSum[a]
		}
	}
}

// regretMatch computes the current strategy over the legal betting actions:
// positive regrets normalized, or uniform over legal when no regret is
// positive. Entries for illegal actions stay zero.
func regretMatch(node *Node, legal []abstraction.Action) [abstraction.NumBettingActions]float64 {
	var strat [abstraction.NumBettingActions]float64
	var norm float64
	for _, a := range legal {
		if int(a) < abstraction.NumBettingActions {
			r := node.Regret[a]
			if r > 0 {
				strat[a] = r
				norm += r
			}
		}
	}

	if norm > 0 {
		for _, a := range legal {
			if int(a) < abstraction.NumBettingActions {
				strat[a] /= norm
			}
		}
		return strat
	}

	u := 1.0 / float64(max(1, len(legal)))
	for _, a := range legal {
		if int(a) < abstraction.NumBettingActions {
			strat[a] = u
		}
	}
	return strat
}
