package engine

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)

// ids parses card strings such as "7C" or "10H".
func ids(t *testing.T, cards ...string) []CardID {
	t.Helper()
	out := make([]CardID, len(cards))
	for i, s := range cards {
		id, err := ParseCardID(s)
		require.NoError(t, err)
		out[i] = id
	}
	return out
}

func id(t *testing.T, s string) CardID {
	t.Helper()
	return ids(t, s)[0]
}

// table describes a hand-arranged round. Deck and pile are bottom first.
type table struct {
	south, north []string
	pile, deck   []string
}

// arrange puts g into Playing with exactly the given containers. Hand cards
// are face down and pile cards face up.
func arrange(t *testing.T, g *Game, tb table) {
	t.Helper()
	g.restart(nil)
	g.deck = NewDeck(ids(t, tb.deck...)...)
	g.hands[South] = Hand{}
	for _, c := range ids(t, tb.south...) {
		g.hands[South].add(NewCard(c))
	}
	g.hands[North] = Hand{}
	for _, c := range ids(t, tb.north...) {
		g.hands[North].add(NewCard(c))
	}
	g.pile = Pile{}
	for _, c := range ids(t, tb.pile...) {
		card := NewCard(c)
		card.Flip()
		g.pile.Push(card)
	}
	g.dealt = true
	g.state = Playing
	g.policy.onBegin(g)
}

// newTable returns a two-player game on a manual clock arranged as tb.
func newTable(t *testing.T, tb table, opts ...Option) (*Game, *ManualClock) {
	t.Helper()
	clk := NewManualClock(epoch)
	g := NewTwoPlayer(append([]Option{WithClock(clk), WithSeed(1)}, opts...)...)
	arrange(t, g, tb)
	return g, clk
}

// handStrings renders a seat's hand for compact assertions.
func handStrings(g *Game, s Seat) []string {
	var out []string
	for _, c := range g.hands[s].cards {
		out = append(out, c.String())
	}
	return out
}

// assertExclusive verifies no card id appears in two containers and the
// total is unchanged.
func assertExclusive(t *testing.T, g *Game, total int) {
	t.Helper()
	seen := make(map[CardID]string)
	check := func(where string, c *Card) {
		if prev, dup := seen[c.id]; dup {
			t.Fatalf("card %s in both %s and %s", c, prev, where)
		}
		seen[c.id] = where
	}
	for _, c := range g.deck {
		check("deck", c)
	}
	for _, c := range g.pile.cards {
		check("pile", c)
	}
	for _, s := range g.seats {
		for _, c := range g.hands[s].cards {
			check("hand "+s.String(), c)
		}
	}
	if g.viewing != nil {
		check("viewing", g.viewing)
	}
	require.Equal(t, total, len(seen))
	require.Equal(t, total, g.CardCount())
}

// TestNewTwoPlayer verifies a fresh table is in Start with a full shuffled
// deck and empty containers.
func TestNewTwoPlayer(t *testing.T) {
	g := NewTwoPlayer(WithSeed(42))

	assert.Equal(t, Start, g.State())
	assert.Equal(t, VariantTwoPlayer, g.Variant())
	assert.Equal(t, 54, g.DeckLen())
	assert.Equal(t, 0, g.PileLen())
	assert.False(t, g.HasViewing())
	assert.Equal(t, South, g.Active())
	assert.Equal(t, []Seat{South, North}, g.Seats())
	assert.NotEqual(t, StandardDeckWithJokers().IDs(), g.deck.IDs(), "deck should be shuffled")
}

// TestSeededGamesDealIdentically verifies WithSeed makes a round reproducible.
func TestSeededGamesDealIdentically(t *testing.T) {
	a := NewTwoPlayer(WithSeed(99))
	b := NewTwoPlayer(WithSeed(99))
	require.True(t, a.BeginPlaying())
	require.True(t, b.BeginPlaying())
	assert.Equal(t, a.Hand(South), b.Hand(South))
	assert.Equal(t, a.Hand(North), b.Hand(North))
}

// TestDealRoundRobin verifies each seat gets HandSize face-down cards taken
// alternately from the top of the deck.
func TestDealRoundRobin(t *testing.T) {
	g := NewTwoPlayer(WithSeed(3))
	top := g.deck.IDs()
	top = top[len(top)-8:]

	require.True(t, g.Deal())
	assert.False(t, g.Deal(), "deal happens once per round")

	south, north := g.Hand(South), g.Hand(North)
	require.Len(t, south, TwoPlayerHandSize)
	require.Len(t, north, TwoPlayerHandSize)
	for i := 0; i < TwoPlayerHandSize; i++ {
		assert.Equal(t, top[7-2*i], south[i].ID)
		assert.Equal(t, top[6-2*i], north[i].ID)
		assert.False(t, south[i].FaceUp)
		assert.False(t, north[i].FaceUp)
	}
	assert.Equal(t, 46, g.DeckLen())
	assert.Equal(t, Start, g.State())
}

// TestBeginPlayingDealsWhenNeeded verifies BeginPlaying deals an undealt
// round and moves to Playing.
func TestBeginPlayingDealsWhenNeeded(t *testing.T) {
	g := NewTwoPlayer(WithSeed(5))
	require.True(t, g.BeginPlaying())
	assert.Equal(t, Playing, g.State())
	assert.Equal(t, 4, g.HandLen(South))
	assert.Equal(t, 4, g.HandLen(North))
	assert.False(t, g.BeginPlaying(), "not allowed once playing")
}

func TestPeekHandToggles(t *testing.T) {
	g := NewTwoPlayer(WithSeed(5))
	require.True(t, g.Deal())

	require.True(t, g.PeekHand(South))
	for _, c := range g.Hand(South) {
		assert.True(t, c.FaceUp)
	}
	for _, c := range g.Hand(North) {
		assert.False(t, c.FaceUp)
	}
	require.True(t, g.PeekHand(South))
	for _, c := range g.Hand(South) {
		assert.False(t, c.FaceUp)
	}
	assert.False(t, g.PeekHand(Seat(7)))
}

// TestFlipOntoPile verifies the first discard is face up and only one can be
// turned.
func TestFlipOntoPile(t *testing.T) {
	g := NewTwoPlayer(WithSeed(5))
	top := g.deck.Top().ID()

	require.True(t, g.FlipOntoPile())
	pile, ok := g.PileTop()
	require.True(t, ok)
	assert.Equal(t, top, pile.ID)
	assert.True(t, pile.FaceUp)
	assert.Equal(t, 53, g.DeckLen())

	assert.False(t, g.FlipOntoPile(), "pile already started")
}

// TestRestartAllowedStates verifies Restart is refused mid-round.
func TestRestartAllowedStates(t *testing.T) {
	g := NewTwoPlayer(WithSeed(5))
	round := g.Round()
	require.True(t, g.Restart(nil))
	assert.NotEqual(t, round, g.Round(), "every restart starts a new round id")

	require.True(t, g.BeginPlaying())
	assert.False(t, g.Restart(nil))
	assert.Equal(t, Playing, g.State())

	g.endRound()
	require.True(t, g.Restart(nil))
	assert.Equal(t, Start, g.State())
	assert.Equal(t, 54, g.DeckLen())
	assert.Equal(t, 0, g.HandLen(South))
	assert.Equal(t, 0, g.PileLen())
}

// TestRestartWithDeckOverride verifies an override is used in order, face
// down, and duplicates are rejected.
func TestRestartWithDeckOverride(t *testing.T) {
	g := NewTwoPlayer(WithSeed(5))

	override := NewDeck(ids(t, "AS", "2S", "3S")...)
	override[0].Flip()
	require.True(t, g.Restart(override))
	assert.Equal(t, ids(t, "AS", "2S", "3S"), g.deck.IDs())
	for _, c := range g.deck {
		assert.False(t, c.FaceUp())
	}
	assert.True(t, override[0].FaceUp(), "caller's cards are not aliased")

	assert.False(t, g.Restart(NewDeck(ids(t, "AS", "AS")...)))
	assert.Equal(t, 3, g.DeckLen())
}

// TestStateTable verifies the per-state command table.
func TestStateTable(t *testing.T) {
	allowed := map[State][]Command{
		Start:        {CmdRestart, CmdBeginPlaying, CmdDeal, CmdPeekHand, CmdFlipOntoPile},
		Playing:      {CmdDrawFromDeck, CmdTapPile, CmdTapHandCard, CmdCallCambio, CmdFlipOntoPile},
		CambioCalled: {CmdDrawFromDeck, CmdTapPile, CmdTapHandCard},
		GameOver:     {CmdRestart},
	}
	for s, cmds := range allowed {
		want := make(map[Command]bool)
		for _, c := range cmds {
			want[c] = true
		}
		for c := CmdRestart; c <= CmdCallCambio; c++ {
			assert.Equal(t, want[c], StateAllows(s, c), "%s in %s", c, s)
		}
	}
}

// TestGameOverOnlyAllowsRestart verifies every other command is a no-op once
// the round is finished.
func TestGameOverOnlyAllowsRestart(t *testing.T) {
	g, _ := newTable(t, table{
		south: []string{"2S", "3S"},
		north: []string{"2H", "3H"},
		pile:  []string{"4C"},
		deck:  []string{"5C", "6C"},
	})
	g.endRound()
	require.Equal(t, GameOver, g.State())

	assert.False(t, g.DrawFromDeck())
	assert.False(t, g.TapPile())
	assert.False(t, g.TapHandCard(id(t, "2S"), South))
	assert.False(t, g.CallCambio())
	assert.False(t, g.FlipOntoPile())
	assert.False(t, g.Deal())
	assert.False(t, g.BeginPlaying())
	assert.Equal(t, 2, g.DeckLen())
	assert.True(t, g.Restart(nil))
}

// TestEventsCarryState verifies the listener sees the state after each
// transition.
func TestEventsCarryState(t *testing.T) {
	var events []Event
	g := NewTwoPlayer(WithSeed(1), WithListener(func(e Event) { events = append(events, e) }))
	require.True(t, g.BeginPlaying())

	var types []EventType
	for _, e := range events {
		types = append(types, e.Type)
	}
	assert.Equal(t, []EventType{EventRestart, EventDeal, EventBeginPlaying}, types)
	assert.Equal(t, Playing, events[len(events)-1].State)
}

// TestCardConservationRandomWalk drives random commands and clock advances
// and checks that no card is ever lost, duplicated or over capacity.
func TestCardConservationRandomWalk(t *testing.T) {
	clk := NewManualClock(epoch)
	g := NewTwoPlayer(WithClock(clk), WithSeed(11))
	r := rand.New(rand.NewPCG(11, 11))

	const total = 54
	rounds := 0
	for i := 0; i < 5000; i++ {
		switch g.State() {
		case Start:
			g.FlipOntoPile()
			g.BeginPlaying()
		case GameOver:
			rounds++
			require.True(t, g.Restart(nil))
		}

		switch r.IntN(6) {
		case 0:
			g.DrawFromDeck()
		case 1:
			g.TapPile()
		case 2, 3:
			seat := Seat(r.IntN(2))
			if n := g.HandLen(seat); n > 0 {
				g.TapHandCard(g.hands[seat].At(r.IntN(n)).id, seat)
			}
		case 4:
			if r.IntN(20) == 0 {
				g.CallCambio()
			}
		case 5:
			clk.Advance(time.Duration(r.IntN(700)) * time.Millisecond)
			g.Tick()
		}

		assertExclusive(t, g, total)
		for _, s := range g.Seats() {
			require.LessOrEqual(t, g.HandLen(s), TwoPlayerHandSize)
		}
	}
	assert.Positive(t, rounds, "the walk should finish at least one round")
}
