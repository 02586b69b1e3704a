package engine

import (
	"time"

	"github.com/google/uuid"
)

// Snapshot is a value copy of everything an adapter may render. Nothing in
// it aliases engine state.
type Snapshot struct {
	Variant   Variant
	Round     uuid.UUID
	State     State
	Deck      []CardView // bottom first; the last element is the top
	Pile      []CardView // bottom first
	Hands     map[Seat][]CardView
	Viewing   *CardView
	Active    Seat
	Penalties map[Seat]int
	Scores    map[Seat]int
	Pending   []MatchPending
	Timed     bool
	TimeLeft  time.Duration
}

// Snapshot captures the current state after running anything due.
func (g *Game) Snapshot() Snapshot {
	g.Tick()
	s := Snapshot{
		Variant:   g.policy.Variant(),
		Round:     g.round,
		State:     g.state,
		Deck:      views(g.deck),
		Pile:      views(g.pile.cards),
		Hands:     make(map[Seat][]CardView, len(g.seats)),
		Active:    g.Active(),
		Penalties: make(map[Seat]int, len(g.seats)),
		Scores:    make(map[Seat]int, len(g.seats)),
		Pending:   g.Pending(),
	}
	for _, seat := range g.seats {
		s.Hands[seat] = views(g.hands[seat].cards)
		s.Penalties[seat] = g.penalties[seat]
		s.Scores[seat] = g.Score(seat)
	}
	if g.viewing != nil {
		v := g.viewing.View()
		s.Viewing = &v
	}
	s.TimeLeft, s.Timed = g.TimeLeft()
	return s
}
