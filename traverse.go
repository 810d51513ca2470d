// Package cfr trains an approximate Nash equilibrium for Toss'em Hold'em
// by counterfactual regret minimization over a bucketed abstraction. The
// traversal mixes exhaustive preflop exploration with external sampling on
// later streets; batches of iterations run on private tables that are
// merged additively between rounds.
package cfr

import (
	"math/rand"

	"github.com/timpalpant/tossem-cfr/abstraction"
	"github.com/timpalpant/tossem-cfr/tossem"
)

// Traverse walks the game tree from the current state, accumulating regret
// and average-strategy weight into table for updatePlayer, and returns the
// state's counterfactual value for that player. pi0 and pi1 are the two
// players' reach-probability contributions along the path so far.
//
// Discards are chance-like: explored uniformly for the update player,
// sampled uniformly for the opponent, and never learned. Betting nodes use
// full traversal preflop (both players) and whenever the acting player is
// the update player; otherwise the opponent's action is sampled from the
// current strategy.
func Traverse(g *tossem.Game, updatePlayer int, pi0, pi1 float64, rng *rand.Rand, table RegretTable) float64 {
	if g.IsTerminal() {
		return g.Payoff(updatePlayer)
	}

	player := g.CurrentPlayer()
	var legalBuf [abstraction.NumActions]abstraction.Action
	legal := g.LegalActions(legalBuf[:0])

	if g.InDiscardPhase() {
		var u tossem.Undo
		if player == updatePlayer {
			total := 0.0
			for _, a := range legal {
				g.Apply(a, &u)
				total += Traverse(g, updatePlayer, pi0, pi1, rng, table) / float64(len(legal))
				g.Undo(&u)
			}
			return total
		}

		a := legal[rng.Intn(len(legal))]
		g.Apply(a, &u)
		v := Traverse(g, updatePlayer, pi0, pi1, rng, table)
		g.Undo(&u)
		return v
	}

	key := g.InfoKey(player, legal)
	node := table.Get(key)
	strat := regretMatch(node, legal)

	reach := pi0
	if player == 1 {
		reach = pi1
	}
	for _, a := range legal {
		if int(a) < abstraction.NumBettingActions {
			node.StratSum[a] += reach * strat[a]
		}
	}

	fullTraversal := g.Street() == abstraction.Preflop

	if player == updatePlayer || fullTraversal {
		var actionValues [abstraction.NumBettingActions]float64
		var u tossem.Undo
		for _, a := range legal {
			g.Apply(a, &u)
			if player == 0 {
				actionValues[a] = Traverse(g, updatePlayer, pi0*strat[a], pi1, rng, table)
			} else {
				actionValues[a] = Traverse(g, updatePlayer, pi0, pi1*strat[a], rng, table)
			}
			g.Undo(&u)
		}

		nodeValue := 0.0
		for _, a := range legal {
			nodeValue += strat[a] * actionValues[a]
		}

		if player == updatePlayer {
			for _, a := range legal {
				node.Regret[a] += actionValues[a] - nodeValue
			}
		}
		return nodeValue
	}

	a := sampleAction(rng, strat, legal)
	var u tossem.Undo
	g.Apply(a, &u)
	var v float64
	if player == 0 {
		v = Traverse(g, updatePlayer, pi0*strat[a], pi1, rng, table)
	} else {
		v = Traverse(g, updatePlayer, pi0, pi1*strat[a], rng, table)
	}
	g.Undo(&u)
	return v
}

// sampleAction draws one legal action from strat restricted to legal,
// falling back to uniform when the restricted mass is zero.
func sampleAction(rng *rand.Rand, strat [abstraction.NumBettingActions]float64, legal []abstraction.Action) abstraction.Action {
	var sum float64
	for _, a := range legal {
		sum += strat[a]
	}

	x := rng.Float64()
	if sum <= 0 {
		i := int(x * float64(len(legal)))
		if i >= len(legal) {
			i = len(legal) - 1
		}
		return legal[i]
	}

	x *= sum
	var cum float64
	for _, a := range legal {
		cum += strat[a]
		if x < cum {
			return a
		}
	}
	return legal[len(legal)-1]
}
