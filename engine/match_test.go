package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	reveal  = 500 * time.Millisecond
	commit  = 600 * time.Millisecond
	penalty = 500 * time.Millisecond
)

func advance(g *Game, clk *ManualClock, d time.Duration) {
	clk.Advance(d)
	g.Tick()
}

// TestMatchSuccess taps a 2 onto a 2 on the pile: the card is revealed,
// moves to the pile after the reveal window, and the turn is unchanged.
func TestMatchSuccess(t *testing.T) {
	var types []EventType
	g, clk := newTable(t, basicTable(), WithListener(func(e Event) { types = append(types, e.Type) }))
	types = nil

	require.True(t, g.TapHandCard(id(t, "2S"), South))
	assert.True(t, g.hands[South].At(0).FaceUp(), "revealed immediately")
	assert.Equal(t, 4, g.HandLen(South))
	require.Len(t, g.Pending(), 1)
	assert.Equal(t, "resolve", g.Pending()[0].Phase)
	assert.Equal(t, epoch.Add(reveal), g.Pending()[0].Deadline)

	advance(g, clk, reveal-time.Millisecond)
	assert.Equal(t, 4, g.HandLen(South), "nothing resolves early")

	advance(g, clk, time.Millisecond)
	assert.Equal(t, []string{"2H", "3D", "9C"}, handStrings(g, South))
	top, _ := g.PileTop()
	assert.Equal(t, "2S", top.ID.String())
	assert.True(t, top.FaceUp)
	assert.Equal(t, South, g.Active())
	assert.Equal(t, Playing, g.State())

	advance(g, clk, commit)
	assert.Empty(t, g.Pending())
	assert.Equal(t, 0, g.Penalties(South))
	assert.Equal(t, []EventType{EventMatchReveal, EventMatchSuccess, EventMatchSettled}, types)
}

// TestMismatchDrawsPenaltyCard taps a 7 against a 2: the card turns back
// down in place and a penalty card is drawn into the short hand.
func TestMismatchDrawsPenaltyCard(t *testing.T) {
	tb := basicTable()
	tb.south = []string{"2H", "3D", "7C"}
	tb.north = []string{"AS", "AH", "KD", "9C"}
	g, clk := newTable(t, tb)

	require.True(t, g.TapHandCard(id(t, "7C"), South))
	advance(g, clk, reveal)
	assert.Equal(t, []string{"2H", "3D", "7C"}, handStrings(g, South))
	assert.False(t, g.hands[South].At(2).FaceUp())
	top, _ := g.PileTop()
	assert.Equal(t, "2C", top.ID.String())

	advance(g, clk, penalty)
	assert.Equal(t, []string{"2H", "3D", "7C", "QH"}, handStrings(g, South))
	assert.False(t, g.hands[South].At(3).FaceUp(), "penalty card is face down")
	assert.Equal(t, 0, g.Penalties(South))
	assert.Equal(t, 3, g.DeckLen())
	assert.Empty(t, g.Pending())
}

// TestMismatchAtCapacityAddsPenaltyPoint verifies a full hand takes a point
// instead of a card.
func TestMismatchAtCapacityAddsPenaltyPoint(t *testing.T) {
	g, clk := newTable(t, basicTable())

	require.True(t, g.TapHandCard(id(t, "9C"), South))
	advance(g, clk, reveal+penalty)
	assert.Equal(t, 4, g.HandLen(South))
	assert.Equal(t, 4, g.DeckLen())
	assert.Equal(t, 1, g.Penalties(South))
	assert.Equal(t, 2+2+3+9+1, g.Score(South))
}

// TestMismatchWithFullFourCardHand plays a 7 against a 2 from a four-card
// hand at the default hand size: no card is drawn, the mismatch costs a
// point and the deck is untouched.
func TestMismatchWithFullFourCardHand(t *testing.T) {
	tb := basicTable()
	tb.south = []string{"2H", "3D", "7C", "KS"}
	tb.north = []string{"AS", "AH", "KD", "9C"}
	g, clk := newTable(t, tb)
	require.Equal(t, 4, g.Rules().HandSize)

	require.True(t, g.TapHandCard(id(t, "7C"), South))
	advance(g, clk, reveal+penalty)
	assert.Equal(t, []string{"2H", "3D", "7C", "KS"}, handStrings(g, South))
	assert.Equal(t, 4, g.DeckLen())
	assert.Equal(t, 1, g.Penalties(South))
	assert.Empty(t, g.Pending())
}

// TestRevealOfPeekedCard verifies a card already face up stays face up
// through the reveal and keeps that orientation after a mismatch, while a
// face-down card turns back down.
func TestRevealOfPeekedCard(t *testing.T) {
	g, clk := newTable(t, basicTable())
	g.hands[South].At(3).faceUp = true // 9C

	require.True(t, g.TapHandCard(id(t, "9C"), South))
	require.True(t, g.TapHandCard(id(t, "3D"), South))
	assert.True(t, g.hands[South].At(3).FaceUp(), "peeked card is shown during the reveal")
	assert.True(t, g.hands[South].At(2).FaceUp())
	require.Len(t, g.Pending(), 2)

	advance(g, clk, reveal)
	assert.True(t, g.hands[South].At(3).FaceUp(), "mismatch restores the peeked orientation")
	assert.False(t, g.hands[South].At(2).FaceUp())
}

// TestMismatchWithEmptyDeckAddsPenaltyPoint verifies a short hand still
// takes a point when the deck cannot supply a card.
func TestMismatchWithEmptyDeckAddsPenaltyPoint(t *testing.T) {
	tb := basicTable()
	tb.south = []string{"2H", "9C"}
	tb.deck = nil
	g, clk := newTable(t, tb)

	require.True(t, g.TapHandCard(id(t, "9C"), South))
	advance(g, clk, reveal+penalty)
	assert.Equal(t, 2, g.HandLen(South))
	assert.Equal(t, 1, g.Penalties(South))
}

// TestPenaltyDrawCanExhaustDeck verifies a penalty draw of the last card
// forces the final lap.
func TestPenaltyDrawCanExhaustDeck(t *testing.T) {
	tb := basicTable()
	tb.south = []string{"2H", "9C"}
	tb.deck = []string{"4S"}
	g, clk := newTable(t, tb)

	require.True(t, g.TapHandCard(id(t, "9C"), South))
	advance(g, clk, reveal+penalty)
	assert.Equal(t, 3, g.HandLen(South))
	assert.Equal(t, CambioCalled, g.State())
}

// TestMatchNeedsPile verifies a tap with an empty pile does nothing.
func TestMatchNeedsPile(t *testing.T) {
	tb := basicTable()
	tb.pile = nil
	g, _ := newTable(t, tb)

	assert.False(t, g.TapHandCard(id(t, "2S"), South))
	assert.False(t, g.hands[South].At(0).FaceUp())
	assert.Empty(t, g.Pending())
}

// TestMatchIsNotTurnGated verifies the player not on turn may match.
func TestMatchIsNotTurnGated(t *testing.T) {
	tb := basicTable()
	tb.north = []string{"2D", "AH", "KD", "7C"}
	g, clk := newTable(t, tb)
	require.Equal(t, South, g.Active())

	require.True(t, g.TapHandCard(id(t, "2D"), North))
	advance(g, clk, reveal)
	assert.Equal(t, []string{"AH", "KD", "7C"}, handStrings(g, North))
	assert.Equal(t, South, g.Active())
}

// TestDoubleTapDuringRevealIgnored verifies a card already being revealed
// cannot start a second attempt.
func TestDoubleTapDuringRevealIgnored(t *testing.T) {
	g, clk := newTable(t, basicTable())

	require.True(t, g.TapHandCard(id(t, "9C"), South))
	assert.False(t, g.TapHandCard(id(t, "9C"), South))
	assert.Len(t, g.Pending(), 1)
	assert.True(t, g.hands[South].At(3).FaceUp(), "second tap does not flip it back")

	advance(g, clk, reveal+penalty)
	assert.Equal(t, 1, g.Penalties(South), "only one penalty")
}

// TestInterleavedMatches verifies two attempts in flight at once resolve
// independently in tap order.
func TestInterleavedMatches(t *testing.T) {
	tb := basicTable()
	tb.north = []string{"2D", "AH", "KD", "7C"}
	g, clk := newTable(t, tb)

	require.True(t, g.TapHandCard(id(t, "2S"), South))
	advance(g, clk, 100*time.Millisecond)
	require.True(t, g.TapHandCard(id(t, "2D"), North))
	require.True(t, g.TapHandCard(id(t, "9C"), South))
	require.Len(t, g.Pending(), 3)

	advance(g, clk, reveal)
	assert.Equal(t, []string{"2H", "3D", "9C"}, handStrings(g, South))
	assert.Equal(t, []string{"AH", "KD", "7C"}, handStrings(g, North))
	pile := g.pile.cards
	require.Len(t, pile, 3)
	assert.Equal(t, "2S", pile[1].String())
	assert.Equal(t, "2D", pile[2].String())

	advance(g, clk, commit)
	// 9C failed against the 2D on top and the short hand drew a card.
	assert.Equal(t, []string{"2H", "3D", "9C", "QH"}, handStrings(g, South))
	assert.Equal(t, 0, g.Penalties(South))
	assert.Empty(t, g.Pending())
}

// TestResolveUsesPileTopAtResolution verifies the comparison is made against
// whatever is on the pile when the reveal window closes.
func TestResolveUsesPileTopAtResolution(t *testing.T) {
	tb := basicTable()
	tb.deck = []string{"4S", "9H"}
	g, clk := newTable(t, tb)

	require.True(t, g.TapHandCard(id(t, "9C"), South))
	require.True(t, g.DrawFromDeck())
	require.True(t, g.TapPile()) // 9H onto the pile

	advance(g, clk, reveal)
	assert.Equal(t, []string{"2S", "2H", "3D"}, handStrings(g, South))
	top, _ := g.PileTop()
	assert.Equal(t, "9C", top.ID.String())
}

// TestResolveWithEmptiedPileAbandons verifies an attempt whose pile was taken
// back turns the card down again without a penalty.
func TestResolveWithEmptiedPileAbandons(t *testing.T) {
	var abandoned int
	g, clk := newTable(t, basicTable(), WithListener(func(e Event) {
		if e.Type == EventMatchAbandoned {
			abandoned++
		}
	}))

	require.True(t, g.TapHandCard(id(t, "9C"), South))
	require.True(t, g.TapPile()) // take back the only discard

	advance(g, clk, reveal+penalty)
	assert.Equal(t, 1, abandoned)
	assert.False(t, g.hands[South].At(3).FaceUp())
	assert.Equal(t, 0, g.Penalties(South))
	assert.Equal(t, 4, g.HandLen(South))
}

// TestSwapOfRevealingCardRejected verifies a card awaiting comparison cannot
// be swapped out.
func TestSwapOfRevealingCardRejected(t *testing.T) {
	g, clk := newTable(t, basicTable())

	require.True(t, g.TapHandCard(id(t, "9C"), South))
	require.True(t, g.DrawFromDeck())
	assert.False(t, g.TapHandCard(id(t, "9C"), South))
	assert.True(t, g.HasViewing())

	advance(g, clk, reveal)
	// Once turned back the card can be swapped again.
	require.True(t, g.TapHandCard(id(t, "9C"), South))
	assert.Equal(t, []string{"2S", "2H", "3D", "QH"}, handStrings(g, South))

	advance(g, clk, penalty)
	assert.Equal(t, 1, g.Penalties(South))
}

// TestRoundEndDiscardsPendingMatches verifies nothing fires into a finished
// round.
func TestRoundEndDiscardsPendingMatches(t *testing.T) {
	tb := basicTable()
	tb.deck = []string{"8D"}
	g, clk := newTable(t, tb)

	require.True(t, g.TapHandCard(id(t, "AS"), North))
	require.True(t, g.DrawFromDeck()) // exhausts the deck
	require.True(t, g.TapPile())      // completes the final turn
	require.Equal(t, GameOver, g.State())
	assert.Empty(t, g.Pending())

	advance(g, clk, reveal+penalty)
	assert.Equal(t, 0, g.Penalties(North))
	assert.Equal(t, 4, g.HandLen(North))
}

// TestCommandsTickFirst verifies a command issued after a deadline sees the
// resolved state without an explicit Tick.
func TestCommandsTickFirst(t *testing.T) {
	g, clk := newTable(t, basicTable())

	require.True(t, g.TapHandCard(id(t, "2S"), South))
	clk.Advance(reveal)
	require.True(t, g.DrawFromDeck())
	assert.Equal(t, 3, g.HandLen(South))
}
