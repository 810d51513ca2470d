// Package abstraction compresses raw game situations (cards, pot, betting
// history) into the small bucketed InfoKey the regret table is keyed by.
// The bucket functions are the versioned contract between a trainer and any
// consumer of a serialized table: if the two disagree, keys will not align.
package abstraction

import (
	"fmt"

	"github.com/timpalpant/tossem-cfr/cards"
)

// Action identifies one of the seven distinct game actions: betting ids
// 0..3, discards 4..6 (discard index = action - DiscardBase).
type Action uint8

const (
	Fold Action = iota
	CheckCall
	RaiseSmall
	RaiseLarge

	Discard0
	Discard1
	Discard2
)

const (
	// NumBettingActions is the number of learnable betting actions.
	NumBettingActions = 4
	// DiscardBase is the id of the first discard action.
	DiscardBase = 4
	// NumActions is the full distinct action space, discards included.
	NumActions = 7
)

// Street identifies a phase of the hand.
type Street uint8

const (
	Preflop Street = iota
	Flop
	BBDiscard
	SBDiscard
	Turn
	River

	NumStreets = 6
)

// Move is one (player, action) entry in a betting history.
type Move struct {
	Player int
	Action Action
}

// InfoKey is the packed information-state key. It is comparable and used
// directly as a map key; equality is component-wise.
type InfoKey struct {
	Player      uint8
	Street      uint8
	HoleBucket  uint16
	BoardBucket uint16
	PotBucket   uint8
	HistBucket  uint8
	BBDiscarded uint8
	SBDiscarded uint8
	LegalMask   uint8
}

// String returns a debug form of the key.
func (k InfoKey) String() string {
	return fmt.Sprintf("P%d|S%d|H%d|B%d|POT%d|HIST%d|BB%d|SB%d|LA%d",
		k.Player, k.Street, k.HoleBucket, k.BoardBucket,
		k.PotBucket, k.HistBucket, k.BBDiscarded, k.SBDiscarded, k.LegalMask)
}

// HoleBucket buckets a 2- or 3-card hole hand.
//
// Two cards: pairs occupy buckets 0..12 by rank; non-pairs get
// 13 + hi*(hi-1)/2 + lo, plus 78 when suited, for a range of 0..168.
// Three cards: a coarse strength heuristic clamped into 40 bins.
func HoleBucket(hole []cards.Card) uint16 {
	if len(hole) == 2 {
		return holeBucket2(hole[0], hole[1])
	}

	r := [3]int{int(hole[0].Rank()), int(hole[1].Rank()), int(hole[2].Rank())}
	sortDesc3(&r)
	a, b, c := r[0], r[1], r[2]
	trips := a == b && b == c
	pair := a == b || b == c || a == c

	var suitCnt [cards.NumSuits]int
	for _, h := range hole {
		suitCnt[h.Suit()]++
	}
	flushCount := 0
	for _, n := range suitCnt {
		if n > flushCount {
			flushCount = n
		}
	}

	// Adjacent unique ranks with gap <= 2 hint at straights.
	uniq := r[:1]
	for _, x := range r[1:] {
		if x != uniq[len(uniq)-1] {
			uniq = append(uniq, x)
		}
	}
	straightPotential := 0
	for i := 0; i+1 < len(uniq); i++ {
		if uniq[i]-uniq[i+1] <= 2 {
			straightPotential++
		}
	}

	strength := a*2 + b + c
	if trips {
		strength += 30
	} else if pair {
		strength += 15
	}
	strength += (flushCount - 1) * 8
	strength += straightPotential * 5

	bucket := strength / 6
	if bucket < 0 {
		bucket = 0
	}
	if bucket > 39 {
		bucket = 39
	}
	return uint16(bucket)
}

func holeBucket2(c1, c2 cards.Card) uint16 {
	hi, lo := int(c1.Rank()), int(c2.Rank())
	if hi < lo {
		hi, lo = lo, hi
	}
	if hi == lo {
		return uint16(hi)
	}
	base := 13 + hi*(hi-1)/2 + lo
	if c1.Suit() == c2.Suit() {
		base += 78
	}
	return uint16(base)
}

// BoardBucket buckets the shared board into 0..24 from pairedness, flush
// draws, straight draws and high-card presence. An empty board is bucket 0.
func BoardBucket(board []cards.Card) uint16 {
	if len(board) == 0 {
		return 0
	}

	var rankCnt [cards.NumRanks]int
	var suitCnt [cards.NumSuits]int
	high := 0
	for _, c := range board {
		rankCnt[c.Rank()]++
		suitCnt[c.Suit()]++
		if int(c.Rank()) >= 10 { // queen or higher
			high = 1
		}
	}
	maxRankCount, maxSuitCount := 0, 0
	for _, n := range rankCnt {
		if n > maxRankCount {
			maxRankCount = n
		}
	}
	for _, n := range suitCnt {
		if n > maxSuitCount {
			maxSuitCount = n
		}
	}

	// Largest number of distinct ranks inside any 5-rank window.
	straightPotential := 0
	for lo := 0; lo < cards.NumRanks; lo++ {
		n := 0
		for r := lo; r < cards.NumRanks && r <= lo+4; r++ {
			if rankCnt[r] > 0 {
				n++
			}
		}
		if n > straightPotential {
			straightPotential = n
		}
	}

	paired := 0
	if maxRankCount >= 2 {
		paired = 1
	}
	flushDraw := min(2, maxSuitCount-1)
	straightDraw := min(2, max(0, straightPotential-2))

	bucket := paired*12 + flushDraw*4 + straightDraw*2 + high
	if bucket > 24 {
		bucket = 24
	}
	return uint16(bucket)
}

// PotBucket buckets the pot size into 0..5.
func PotBucket(pot int) uint8 {
	switch {
	case pot <= 4:
		return 0
	case pot <= 10:
		return 1
	case pot <= 25:
		return 2
	case pot <= 60:
		return 3
	case pot <= 140:
		return 4
	default:
		return 5
	}
}

// HistoryBucket buckets the betting history into 0..5 by raise count and
// raise sizing.
func HistoryBucket(history []Move) uint8 {
	if len(history) == 0 {
		return 0
	}

	raises, largeRaises := 0, 0
	for _, m := range history {
		switch m.Action {
		case RaiseSmall:
			raises++
		case RaiseLarge:
			raises++
			largeRaises++
		}
	}

	switch {
	case raises == 0:
		return 1
	case raises == 1 && largeRaises == 0:
		return 2
	case raises == 1 && largeRaises == 1:
		return 3
	case raises == 2:
		return 4
	default:
		return 5
	}
}

// ComputeInfoKey assembles an InfoKey from the player's view of the state.
// effectiveStack is accepted for interface stability but does not enter the
// key; the serialized format reserves no room for it.
func ComputeInfoKey(
	player int,
	street Street,
	hole, board []cards.Card,
	pot, effectiveStack int,
	history []Move,
	bbDiscarded, sbDiscarded bool,
	legalMask uint8,
) InfoKey {
	_ = effectiveStack

	k := InfoKey{
		Player:      uint8(player),
		Street:      uint8(street),
		HoleBucket:  HoleBucket(hole),
		BoardBucket: BoardBucket(board),
		PotBucket:   PotBucket(pot),
		HistBucket:  HistoryBucket(history),
		LegalMask:   legalMask & 0x7F,
	}
	if bbDiscarded {
		k.BBDiscarded = 1
	}
	if sbDiscarded {
		k.SBDiscarded = 1
	}
	return k
}

func sortDesc3(r *[3]int) {
	if r[0] < r[1] {
		r[0], r[1] = r[1], r[0]
	}
	if r[1] < r[2] {
		r[1], r[2] = r[2], r[1]
	}
	if r[0] < r[1] {
		r[0], r[1] = r[1], r[0]
	}
}
