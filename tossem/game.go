// Package tossem implements the Toss'em Hold'em state machine: a heads-up
// three-card hold'em variant where each player tosses one hole card onto
// the board between the flop and the turn.
package tossem

import (
	"math/rand"

	"github.com/timpalpant/tossem-cfr/abstraction"
	"github.com/timpalpant/tossem-cfr/cards"
)

const (
	StartingStack = 400
	SmallBlind    = 1
	BigBlind      = 2
)

// Undo is a snapshot sufficient to roll back exactly one Apply. Board and
// deck buffers are fixed arrays, so restoring their saved sizes is enough:
// cells past a restored size are unreachable. Hole cards are saved whole,
// because a discard swap-removes within the hand.
type Undo struct {
	street        abstraction.Street
	currentPlayer int
	pips          [2]int
	stacks        [2]int
	bbDiscarded   bool
	sbDiscarded   bool
	terminal      bool
	payoffs       [2]float64

	historyLen       int
	streetHistoryLen int

	deckIdx   int
	hands     [2][3]cards.Card
	handSizes [2]int
	boardSize int
}

// Game is the mutable hand state. A zero Game is not playable; call Reset
// to deal a fresh hand. Player 0 is the small blind, player 1 the big
// blind.
type Game struct {
	hands     [2][3]cards.Card
	handSizes [2]int

	board     [6]cards.Card
	boardSize int

	deck    [46]cards.Card
	deckIdx int

	street        abstraction.Street
	pips          [2]int
	stacks        [2]int
	currentPlayer int

	history       []abstraction.Move
	streetHistory []abstraction.Move

	bbDiscarded bool
	sbDiscarded bool

	terminal bool
	payoffs  [2]float64
}

// Reset shuffles a fresh 52-card deck with the given source, deals three
// hole cards to each player and posts the blinds. The small blind acts
// first preflop.
func (g *Game) Reset(rng *rand.Rand) {
	full := cards.FullDeck()
	rng.Shuffle(len(full), func(i, j int) {
		full[i], full[j] = full[j], full[i]
	})

	for p := 0; p < 2; p++ {
		g.handSizes[p] = 3
		copy(g.hands[p][:], full[p*3:p*3+3])
	}
	copy(g.deck[:], full[6:])
	g.deckIdx = 0

	g.boardSize = 0
	g.street = abstraction.Preflop
	g.pips = [2]int{SmallBlind, BigBlind}
	g.stacks = [2]int{StartingStack - SmallBlind, StartingStack - BigBlind}
	g.currentPlayer = 0
	g.history = g.history[:0]
	g.streetHistory = g.streetHistory[:0]
	g.bbDiscarded = false
	g.sbDiscarded = false
	g.terminal = false
	g.payoffs = [2]float64{}
}

// Pot returns the total chips contested.
func (g *Game) Pot() int {
	return (StartingStack - g.stacks[0]) + (StartingStack - g.stacks[1])
}

// ContinueCost returns the chips the current player must commit to call.
func (g *Game) ContinueCost() int {
	return g.pips[1-g.currentPlayer] - g.pips[g.currentPlayer]
}

// EffectiveStack returns the smaller of the two remaining stacks.
func (g *Game) EffectiveStack() int {
	return min(g.stacks[0], g.stacks[1])
}

// CurrentPlayer returns the player to act.
func (g *Game) CurrentPlayer() int { return g.currentPlayer }

// Street returns the current street.
func (g *Game) Street() abstraction.Street { return g.street }

// IsTerminal reports whether the hand has ended.
func (g *Game) IsTerminal() bool { return g.terminal }

// Payoff returns the terminal payoff for the given player. Zero until the
// hand ends; payoffs are zero-sum.
func (g *Game) Payoff(player int) float64 { return g.payoffs[player] }

// InDiscardPhase reports whether the pending action is a discard.
func (g *Game) InDiscardPhase() bool {
	if g.street == abstraction.BBDiscard && !g.bbDiscarded {
		return true
	}
	if g.street == abstraction.SBDiscard && !g.sbDiscarded {
		return true
	}
	return false
}

// LegalActions appends the legal actions for the current state to dst and
// returns the result. Pass a stack-allocated buffer to avoid heap churn in
// tight traversal loops.
func (g *Game) LegalActions(dst []abstraction.Action) []abstraction.Action {
	if g.terminal {
		return dst
	}

	if g.InDiscardPhase() {
		return append(dst, abstraction.Discard0, abstraction.Discard1, abstraction.Discard2)
	}

	cost := g.ContinueCost()
	if cost == 0 {
		dst = append(dst, abstraction.CheckCall)
		if g.stacks[0] > 0 && g.stacks[1] > 0 {
			dst = append(dst, abstraction.RaiseSmall, abstraction.RaiseLarge)
		}
		return dst
	}

	dst = append(dst, abstraction.Fold, abstraction.CheckCall)
	if cost < g.stacks[g.currentPlayer] && g.stacks[1-g.currentPlayer] > 0 {
		dst = append(dst, abstraction.RaiseSmall, abstraction.RaiseLarge)
	}
	return dst
}

// Apply mutates the state with one action and fills u so that a subsequent
// Undo restores every observable field. Apply/Undo pairs must be strictly
// nested.
func (g *Game) Apply(action abstraction.Action, u *Undo) {
	u.street = g.street
	u.currentPlayer = g.currentPlayer
	u.pips = g.pips
	u.stacks = g.stacks
	u.bbDiscarded = g.bbDiscarded
	u.sbDiscarded = g.sbDiscarded
	u.terminal = g.terminal
	u.payoffs = g.payoffs
	u.historyLen = len(g.history)
	u.streetHistoryLen = len(g.streetHistory)
	u.deckIdx = g.deckIdx
	u.hands = g.hands
	u.handSizes = g.handSizes
	u.boardSize = g.boardSize

	if g.terminal {
		return
	}

	if g.InDiscardPhase() {
		g.applyDiscard(int(action) - abstraction.DiscardBase)
		return
	}

	cost := g.ContinueCost()
	potSize := g.Pot()

	switch action {
	case abstraction.Fold:
		g.terminal = true
		winner := 1 - g.currentPlayer
		delta := float64(StartingStack - g.stacks[winner])
		g.payoffs[winner] = delta
		g.payoffs[1-winner] = -delta
		return

	case abstraction.CheckCall:
		if cost > 0 {
			actual := min(cost, g.stacks[g.currentPlayer])
			g.pips[g.currentPlayer] += actual
			g.stacks[g.currentPlayer] -= actual
		}

	case abstraction.RaiseSmall, abstraction.RaiseLarge:
		mult := 0.55
		if action == abstraction.RaiseLarge {
			mult = 1.0
		}
		raiseAmt := int(float64(potSize) * mult)
		minRaise := cost + max(cost, BigBlind)
		raiseAmt = max(minRaise, raiseAmt)
		raiseAmt = min(raiseAmt, g.stacks[g.currentPlayer])

		totalContrib := min(cost+raiseAmt, g.stacks[g.currentPlayer])
		g.pips[g.currentPlayer] += totalContrib
		g.stacks[g.currentPlayer] -= totalContrib
	}

	g.history = append(g.history, abstraction.Move{Player: g.currentPlayer, Action: action})
	g.streetHistory = append(g.streetHistory, abstraction.Move{Player: g.currentPlayer, Action: action})

	if g.shouldAdvanceStreet() {
		g.advanceStreet()
	} else {
		g.currentPlayer = 1 - g.currentPlayer
	}
}

// Undo rolls the state back to the snapshot taken by the matching Apply.
func (g *Game) Undo(u *Undo) {
	g.street = u.street
	g.currentPlayer = u.currentPlayer
	g.pips = u.pips
	g.stacks = u.stacks
	g.bbDiscarded = u.bbDiscarded
	g.sbDiscarded = u.sbDiscarded
	g.terminal = u.terminal
	g.payoffs = u.payoffs

	g.history = g.history[:u.historyLen]
	g.streetHistory = g.streetHistory[:u.streetHistoryLen]

	g.deckIdx = u.deckIdx
	g.hands = u.hands
	g.handSizes = u.handSizes
	g.boardSize = u.boardSize
}

// A street is over once both players have acted on it, the pips are level,
// and the closing action was a check or call. Folds end the hand instead.
func (g *Game) shouldAdvanceStreet() bool {
	if len(g.streetHistory) < 2 {
		return false
	}
	if g.pips[0] != g.pips[1] {
		return false
	}
	return g.streetHistory[len(g.streetHistory)-1].Action == abstraction.CheckCall
}

func (g *Game) advanceStreet() {
	g.pips = [2]int{}
	g.streetHistory = g.streetHistory[:0]

	switch g.street {
	case abstraction.Preflop:
		// Two-card flop; BB acts first postflop.
		g.board[0] = g.deck[g.deckIdx]
		g.board[1] = g.deck[g.deckIdx+1]
		g.boardSize = 2
		g.deckIdx += 2
		g.street = abstraction.Flop
		g.currentPlayer = 1
	case abstraction.Flop:
		g.street = abstraction.BBDiscard
		g.currentPlayer = 1
	case abstraction.Turn:
		g.board[g.boardSize] = g.deck[g.deckIdx]
		g.boardSize++
		g.deckIdx++
		g.street = abstraction.River
		g.currentPlayer = 1
	case abstraction.River:
		g.showdown()
	}
}

func (g *Game) applyDiscard(discardIdx int) {
	if g.street == abstraction.BBDiscard {
		g.tossCard(1, discardIdx)
		g.bbDiscarded = true
		g.street = abstraction.SBDiscard
		g.currentPlayer = 0
		return
	}

	g.tossCard(0, discardIdx)
	g.sbDiscarded = true

	// Turn card is dealt immediately after the second discard.
	g.board[g.boardSize] = g.deck[g.deckIdx]
	g.boardSize++
	g.deckIdx++
	g.street = abstraction.Turn
	g.currentPlayer = 1
	g.pips = [2]int{}
	g.streetHistory = g.streetHistory[:0]
}

// tossCard moves the player's hole card at idx onto the board,
// swap-removing it from the hand.
func (g *Game) tossCard(player, idx int) {
	card := g.hands[player][idx]
	hs := g.handSizes[player]
	g.hands[player][idx] = g.hands[player][hs-1]
	g.handSizes[player] = hs - 1

	g.board[g.boardSize] = card
	g.boardSize++
}

func (g *Game) showdown() {
	g.terminal = true

	var buf0, buf1 [8]cards.Card
	c0 := append(buf0[:0], g.hands[0][:g.handSizes[0]]...)
	c1 := append(buf1[:0], g.hands[1][:g.handSizes[1]]...)
	c0 = append(c0, g.board[:g.boardSize]...)
	c1 = append(c1, g.board[:g.boardSize]...)

	h0 := cards.EvaluateBest(c0)
	h1 := cards.EvaluateBest(c1)

	half := float64(g.Pot()) / 2
	switch h0.Compare(h1) {
	case 1:
		g.payoffs = [2]float64{half, -half}
	case -1:
		g.payoffs = [2]float64{-half, half}
	default:
		g.payoffs = [2]float64{}
	}
}

// InfoKey computes the acting-player view key for the current state. legal
// must be the slice returned by LegalActions for this state.
func (g *Game) InfoKey(player int, legal []abstraction.Action) abstraction.InfoKey {
	var mask uint8
	for _, a := range legal {
		if int(a) < abstraction.NumActions {
			mask |= 1 << uint(a)
		}
	}

	return abstraction.ComputeInfoKey(
		player,
		g.street,
		g.hands[player][:g.handSizes[player]],
		g.board[:g.boardSize],
		g.Pot(),
		g.EffectiveStack(),
		g.history,
		g.bbDiscarded,
		g.sbDiscarded,
		mask,
	)
}
