package cards

import (
	"math/rand"
	"testing"
)

func mustCards(t *testing.T, s string) []Card {
	t.Helper()
	cs, err := ParseAll(s)
	if err != nil {
		t.Fatalf("parsing %q: %v", s, err)
	}
	return cs
}

func TestEvaluateBest_CategoryOrder(t *testing.T) {
	witnesses := []struct {
		name     string
		hand     string
		category Category
	}{
		{"high card", "2c5d9hJcKd", HighCard},
		{"pair", "2c2d9hJcKd", OnePair},
		{"two pair", "2c2d9h9cKd", TwoPair},
		{"trips", "2c2d2hJcKd", ThreeOfAKind},
		{"straight", "3c4d5h6c7d", Straight},
		{"flush", "2c5c9cJcKc", Flush},
		{"full house", "2c2d2hKcKd", FullHouse},
		{"quads", "2c2d2h2sKd", FourOfAKind},
		{"straight flush", "3c4c5c6c7c", StraightFlush},
	}

	var prev HandValue
	for i, w := range witnesses {
		hv := EvaluateBest(mustCards(t, w.hand))
		if hv.Category != w.category {
			t.Errorf("%s: expected category %d, got %d", w.name, w.category, hv.Category)
		}
		if i > 0 && hv.Compare(prev) <= 0 {
			t.Errorf("%s does not beat %s", w.name, witnesses[i-1].name)
		}
		prev = hv
	}
}

func TestEvaluateBest_Wheel(t *testing.T) {
	hv := EvaluateBest(mustCards(t, "Ac2d3h4s5c"))
	if hv.Category != Straight {
		t.Fatalf("expected straight, got category %d", hv.Category)
	}
	if hv.Kickers[0] != Five {
		t.Errorf("expected straight high %v, got %v", Five, hv.Kickers[0])
	}

	// The wheel beats a pair of kings.
	pair := EvaluateBest(mustCards(t, "KcKd7h4s2c"))
	if hv.Compare(pair) <= 0 {
		t.Errorf("wheel should beat a pair of kings")
	}
}

func TestEvaluateBest_Kickers(t *testing.T) {
	tests := []struct {
		name    string
		hand    string
		kickers [5]Rank
	}{
		{"pair", "KsKdAh7c4d", [5]Rank{King, Ace, Seven, Four, 0}},
		{"two pair", "KsKd7h7cAd", [5]Rank{King, Seven, Ace, 0, 0}},
		{"trips", "KsKdKhAc7d", [5]Rank{King, Ace, Seven, 0, 0}},
		{"full house", "KsKdKh7c7d", [5]Rank{King, Seven, 0, 0, 0}},
		{"quads", "KsKdKhKc7d", [5]Rank{King, Seven, 0, 0, 0}},
		{"flush", "AhKh9h7h2h", [5]Rank{Ace, King, Nine, Seven, Two}},
		{"high card", "AhKd9s7c2h", [5]Rank{Ace, King, Nine, Seven, Two}},
	}

	for _, tc := range tests {
		hv := EvaluateBest(mustCards(t, tc.hand))
		if hv.Kickers != tc.kickers {
			t.Errorf("%s: expected kickers %v, got %v", tc.name, tc.kickers, hv.Kickers)
		}
	}
}

func TestEvaluateBest_OrderIndependence(t *testing.T) {
	hands := []string{
		"Ac2d3h4s5c",
		"KsKdKhKc7d",
		"AhKh9h7h2h3c8d",
		"2c2d9h9cKdQs3h5d",
	}

	rng := rand.New(rand.NewSource(1))
	for _, h := range hands {
		cs := mustCards(t, h)
		want := EvaluateBest(cs)
		for trial := 0; trial < 20; trial++ {
			perm := append([]Card(nil), cs...)
			rng.Shuffle(len(perm), func(i, j int) {
				perm[i], perm[j] = perm[j], perm[i]
			})
			if got := EvaluateBest(perm); got != want {
				t.Errorf("hand %s: permutation changed value: %v vs %v", h, got, want)
			}
		}
	}
}

func TestEvaluateBest_BestOfEight(t *testing.T) {
	// Two hole cards plus a six-card board; the flush is the best five.
	cs := mustCards(t, "AhKh2h7h9h2c3d4s")
	hv := EvaluateBest(cs)
	want := HandValue{Category: Flush, Kickers: [5]Rank{Ace, King, Nine, Seven, Two}}
	if hv != want {
		t.Errorf("expected %v, got %v", want, hv)
	}
}

func TestEvaluateBest_FewerThanFive(t *testing.T) {
	hv := EvaluateBest(mustCards(t, "Kc2d9h"))
	want := HandValue{Category: HighCard, Kickers: [5]Rank{King, Nine, Two, 0, 0}}
	if hv != want {
		t.Errorf("expected %v, got %v", want, hv)
	}
}
