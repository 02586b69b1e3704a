package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func basicTable() table {
	return table{
		south: []string{"2S", "2H", "3D", "9C"},
		north: []string{"AS", "AH", "KD", "7C"},
		pile:  []string{"2C"},
		deck:  []string{"4S", "5S", "6S", "QH"},
	}
}

// TestDrawFromDeck verifies the top card lands face up in the viewing slot
// and a second draw is refused.
func TestDrawFromDeck(t *testing.T) {
	g, _ := newTable(t, basicTable())

	require.True(t, g.DrawFromDeck())
	v, ok := g.Viewing()
	require.True(t, ok)
	assert.Equal(t, "QH", v.ID.String())
	assert.True(t, v.FaceUp)
	assert.Equal(t, 3, g.DeckLen())
	assert.Equal(t, South, g.Active(), "drawing does not end the turn")

	assert.False(t, g.DrawFromDeck())
	assert.Equal(t, 3, g.DeckLen())
}

// TestDiscardEndsTurn verifies tapping the pile with a viewing card
// discards it face up and passes the turn.
func TestDiscardEndsTurn(t *testing.T) {
	g, _ := newTable(t, basicTable())
	require.True(t, g.DrawFromDeck())

	require.True(t, g.TapPile())
	assert.False(t, g.HasViewing())
	top, _ := g.PileTop()
	assert.Equal(t, "QH", top.ID.String())
	assert.True(t, top.FaceUp)
	assert.Equal(t, North, g.Active())
}

// TestTakeBackKeepsTurn verifies tapping the pile with an empty viewing slot
// inspects the top discard without ending the turn.
func TestTakeBackKeepsTurn(t *testing.T) {
	g, _ := newTable(t, basicTable())

	require.True(t, g.TapPile())
	v, ok := g.Viewing()
	require.True(t, ok)
	assert.Equal(t, "2C", v.ID.String())
	assert.Equal(t, 0, g.PileLen())
	assert.Equal(t, South, g.Active())

	// Discarding it again ends the turn.
	require.True(t, g.TapPile())
	assert.Equal(t, 1, g.PileLen())
	assert.Equal(t, North, g.Active())
}

func TestTakeBackFromEmptyPile(t *testing.T) {
	tb := basicTable()
	tb.pile = nil
	g, _ := newTable(t, tb)
	assert.False(t, g.TapPile())
	assert.False(t, g.HasViewing())
}

// TestSwapReplacesInPlace verifies the viewing card takes the tapped card's
// index face down while the replaced card goes face up onto the pile.
func TestSwapReplacesInPlace(t *testing.T) {
	var swaps []Event
	g, _ := newTable(t, basicTable(), WithListener(func(e Event) {
		if e.Type == EventSwap {
			swaps = append(swaps, e)
		}
	}))
	require.True(t, g.DrawFromDeck())

	require.True(t, g.TapHandCard(id(t, "3D"), South))
	assert.Equal(t, []string{"2S", "2H", "QH", "9C"}, handStrings(g, South))
	assert.False(t, g.hands[South].At(2).FaceUp())
	top, _ := g.PileTop()
	assert.Equal(t, "3D", top.ID.String())
	assert.True(t, top.FaceUp)
	assert.False(t, g.HasViewing())
	assert.Equal(t, North, g.Active())

	require.Len(t, swaps, 1)
	assert.Equal(t, 2, swaps[0].Index)
	assert.Equal(t, "QH", swaps[0].Card.ID.String())
	assert.Equal(t, "3D", swaps[0].Other.ID.String())
}

// TestSwapOfPeekedCard verifies orientation after a swap does not depend on
// the tapped card's orientation before it.
func TestSwapOfPeekedCard(t *testing.T) {
	g, _ := newTable(t, basicTable())
	g.hands[South].At(2).faceUp = true
	require.True(t, g.DrawFromDeck())

	require.True(t, g.TapHandCard(id(t, "3D"), South))
	top, _ := g.PileTop()
	assert.Equal(t, "3D", top.ID.String())
	assert.True(t, top.FaceUp)
	assert.False(t, g.hands[South].At(2).FaceUp())
}

// TestSwapOnlyIntoActiveHand verifies the viewing card cannot be swapped into
// the opponent's hand and unknown cards are ignored.
func TestSwapOnlyIntoActiveHand(t *testing.T) {
	g, _ := newTable(t, basicTable())
	require.True(t, g.DrawFromDeck())

	assert.False(t, g.TapHandCard(id(t, "AS"), North))
	assert.False(t, g.TapHandCard(id(t, "AS"), South), "card is not in south's hand")
	assert.False(t, g.TapHandCard(id(t, "2S"), Seat(9)))
	assert.True(t, g.HasViewing())
	assert.Equal(t, []string{"AS", "AH", "KD", "7C"}, handStrings(g, North))
}

// TestCallCambioRejectedWithViewingCard verifies Cambio needs an empty
// viewing slot.
func TestCallCambioRejectedWithViewingCard(t *testing.T) {
	g, _ := newTable(t, basicTable())
	require.True(t, g.DrawFromDeck())
	assert.False(t, g.CallCambio())
	assert.Equal(t, Playing, g.State())
}

// TestCambioGivesOpponentFinalTurn verifies the caller's opponent plays one
// more turn and the round then ends with every card revealed.
func TestCambioGivesOpponentFinalTurn(t *testing.T) {
	g, _ := newTable(t, basicTable())

	require.True(t, g.CallCambio())
	assert.Equal(t, CambioCalled, g.State())
	assert.Equal(t, North, g.Active())
	assert.False(t, g.CallCambio(), "only one call per round")

	require.True(t, g.DrawFromDeck())
	require.True(t, g.TapHandCard(id(t, "7C"), North))
	assert.Equal(t, GameOver, g.State())

	for _, s := range g.Seats() {
		for _, c := range g.Hand(s) {
			assert.True(t, c.FaceUp, "%s should be revealed", c.ID)
		}
	}
	// North swapped 7C for QH: AS+AH+KD+QH = 1+1-1+10.
	assert.Equal(t, 11, g.Score(North))
	// South: 2+2+3+9.
	assert.Equal(t, 16, g.Score(South))
	assert.Equal(t, North, g.Outcome().Winner)
}

// TestDeckExhaustionForcesFinalLap verifies drawing the last card moves to
// CambioCalled without ending the turn, and the next completed turn ends
// the round.
func TestDeckExhaustionForcesFinalLap(t *testing.T) {
	tb := basicTable()
	tb.deck = []string{"8D"}
	var exhausted int
	g, _ := newTable(t, tb, WithListener(func(e Event) {
		if e.Type == EventDeckExhausted {
			exhausted++
		}
	}))

	require.True(t, g.DrawFromDeck())
	assert.Equal(t, CambioCalled, g.State())
	assert.Equal(t, South, g.Active())
	assert.Equal(t, 1, exhausted)
	assert.False(t, g.CallCambio())

	require.True(t, g.TapPile())
	assert.Equal(t, GameOver, g.State())
}

// TestDrawFromEmptyDeckIsNoop verifies nothing moves when the deck is empty.
func TestDrawFromEmptyDeckIsNoop(t *testing.T) {
	tb := basicTable()
	tb.deck = nil
	g, _ := newTable(t, tb)
	g.state = CambioCalled

	assert.False(t, g.DrawFromDeck())
	assert.False(t, g.HasViewing())
}
