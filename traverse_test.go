package cfr

import (
	"math"
	"math/rand"
	"testing"

	"github.com/timpalpant/tossem-cfr/abstraction"
	"github.com/timpalpant/tossem-cfr/tossem"
)

func TestTraverseLeavesStateRestored(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	var g tossem.Game
	table := make(RegretTable)

	g.Reset(rng)
	potBefore := g.Pot()
	playerBefore := g.CurrentPlayer()

	Traverse(&g, 0, 1.0, 1.0, rng, table)

	if g.IsTerminal() {
		t.Error("traversal should undo its way back to the root")
	}
	if g.Pot() != potBefore || g.CurrentPlayer() != playerBefore {
		t.Errorf("traversal left the root modified: pot %d->%d player %d->%d",
			potBefore, g.Pot(), playerBefore, g.CurrentPlayer())
	}
}

func TestTraversePopulatesTable(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	var g tossem.Game
	table := make(RegretTable)

	for i := 0; i < 50; i++ {
		g.Reset(rng)
		for player := 0; player < 2; player++ {
			Traverse(&g, player, 1.0, 1.0, rng, table)
		}
	}

	if len(table) == 0 {
		t.Fatal("traversal accumulated no nodes")
	}

	for key, node := range table {
		// Discard decisions are never learned.
		if key.LegalMask&0x70 != 0 {
			t.Errorf("learned a discard node: %v", key)
		}

		// Strategy sums only accumulate non-negative weight.
		for a := 0; a < abstraction.NumBettingActions; a++ {
			if node.StratSum[a] < 0 {
				t.Errorf("negative strategy sum at %v action %d", key, a)
			}
		}

		// Regret matching over the stored legal mask is a distribution.
		var legal []abstraction.Action
		for a := 0; a < abstraction.NumBettingActions; a++ {
			if key.LegalMask&(1<<uint(a)) != 0 {
				legal = append(legal, abstraction.Action(a))
			}
		}
		if len(legal) == 0 {
			t.Errorf("node with empty betting mask: %v", key)
			continue
		}
		strat := regretMatch(node, legal)
		sum := 0.0
		for _, a := range legal {
			if strat[a] < 0 {
				t.Errorf("negative probability at %v action %d", key, a)
			}
			sum += strat[a]
		}
		if math.Abs(sum-1.0) > 1e-9 {
			t.Errorf("strategy at %v sums to %v", key, sum)
		}
	}
}

func TestTraverseTerminalValue(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	var g tossem.Game
	table := make(RegretTable)

	g.Reset(rng)
	var u tossem.Undo
	g.Apply(abstraction.Fold, &u)

	v0 := Traverse(&g, 0, 1.0, 1.0, rng, table)
	v1 := Traverse(&g, 1, 1.0, 1.0, rng, table)
	if v0 != g.Payoff(0) || v1 != g.Payoff(1) {
		t.Errorf("terminal traversal should return payoffs, got %v/%v want %v/%v",
			v0, v1, g.Payoff(0), g.Payoff(1))
	}
	if v0+v1 != 0 {
		t.Errorf("terminal values not zero-sum: %v + %v", v0, v1)
	}
	if len(table) != 0 {
		t.Errorf("terminal traversal should not touch the table")
	}
}

func TestSampleAction(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	legal := []abstraction.Action{abstraction.Fold, abstraction.CheckCall, abstraction.RaiseSmall}

	// Degenerate strategy always picks the supported action.
	strat := [4]float64{0, 1, 0, 0}
	for i := 0; i < 100; i++ {
		if a := sampleAction(rng, strat, legal); a != abstraction.CheckCall {
			t.Fatalf("expected CheckCall, got %d", a)
		}
	}

	// Zero-mass strategy falls back to uniform over legal.
	counts := make(map[abstraction.Action]int)
	for i := 0; i < 3000; i++ {
		counts[sampleAction(rng, [4]float64{}, legal)]++
	}
	for _, a := range legal {
		if counts[a] < 800 {
			t.Errorf("uniform fallback starved action %d: %d/3000", a, counts[a])
		}
	}
}
