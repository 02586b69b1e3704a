package engine

import "time"

// matchPhase is the next step a match attempt will run when it falls due.
type matchPhase uint8

const (
	phaseResolve matchPhase = iota // compare the revealed card with the pile top
	phaseSettle                    // matched card has settled on the pile
	phasePenalty                   // apply the incorrect-match penalty
)

func (p matchPhase) String() string {
	switch p {
	case phaseResolve:
		return "resolve"
	case phaseSettle:
		return "settle"
	case phasePenalty:
		return "penalty"
	}
	return "unknown"
}

// matchAttempt is one in-flight match sequence. It captures the card and
// owner at tap time; every phase re-finds the card before touching it, so a
// card that moved in the meantime turns the phase into a no-op.
type matchAttempt struct {
	seq   uint64
	card  CardID
	owner Seat
	phase matchPhase
	due   time.Time

	// wasFaceUp is the card's orientation before the reveal, restored when
	// the card stays in the hand.
	wasFaceUp bool
}

// MatchPending is the read-only view of an in-flight match attempt.
type MatchPending struct {
	Card     CardID
	Owner    Seat
	Phase    string
	Deadline time.Time
}

// attemptMatch reveals the card at idx of owner's hand and schedules the
// comparison. Matching is not turn-gated.
func (g *Game) attemptMatch(owner Seat, idx int) bool {
	if g.pile.Len() == 0 {
		return false
	}
	c := g.hands[owner].At(idx)
	if g.revealing(c.id) {
		return false
	}
	g.matchSeq++
	m := &matchAttempt{seq: g.matchSeq, card: c.id, owner: owner, phase: phaseResolve, wasFaceUp: c.faceUp}
	c.faceUp = true
	g.schedule(m, g.clock.Now().Add(g.rules.RevealDelay))
	g.emit(cardEvent(EventMatchReveal, owner, c, idx))
	return true
}

// revealing reports whether the card is face up awaiting its comparison.
func (g *Game) revealing(id CardID) bool {
	for _, m := range g.matches {
		if m.card == id && m.phase == phaseResolve {
			return true
		}
	}
	return false
}

// schedule queues m to run at due, after anything already due at the same
// instant.
func (g *Game) schedule(m *matchAttempt, due time.Time) {
	m.due = due
	i := len(g.matches)
	for i > 0 && g.matches[i-1].due.After(m.due) {
		i--
	}
	g.matches = append(g.matches, nil)
	copy(g.matches[i+1:], g.matches[i:])
	g.matches[i] = m
}

// runDue executes match phases and the round timer in deadline order. A
// match phase wins a tie with the timer.
func (g *Game) runDue(now time.Time) {
	for {
		var next *matchAttempt
		if len(g.matches) > 0 && !g.matches[0].due.After(now) {
			next = g.matches[0]
		}
		timerDue := !g.deadline.IsZero() && !g.deadline.After(now)
		if timerDue && (next == nil || g.deadline.Before(next.due)) {
			g.deadline = time.Time{}
			g.policy.onExpire(g)
			continue
		}
		if next == nil {
			return
		}
		g.matches = g.matches[1:]
		g.step(next)
	}
}

func (g *Game) step(m *matchAttempt) {
	hand := &g.hands[m.owner]
	switch m.phase {
	case phaseResolve:
		idx := hand.IndexOf(m.card)
		if idx < 0 {
			g.emit(Event{Type: EventMatchAbandoned, Seat: m.owner, Index: -1, Detail: m.card.String()})
			return
		}
		c := hand.At(idx)
		top := g.pile.Top()
		if top == nil {
			c.faceUp = m.wasFaceUp
			g.emit(cardEvent(EventMatchAbandoned, m.owner, c, idx))
			return
		}
		if c.Rank() == top.Rank() {
			// The card leaves the hand and lands on the pile in one step so it
			// is never in two containers.
			hand.removeAt(idx)
			g.pile.Push(c)
			g.emit(cardEvent(EventMatchSuccess, m.owner, c, idx))
			m.phase = phaseSettle
			g.schedule(m, m.due.Add(g.rules.CommitDelay))
			return
		}
		c.faceUp = m.wasFaceUp
		g.emit(cardEvent(EventMatchFail, m.owner, c, idx))
		m.phase = phasePenalty
		g.schedule(m, m.due.Add(g.rules.PenaltyDelay))

	case phaseSettle:
		g.emit(Event{Type: EventMatchSettled, Seat: m.owner, Index: -1, Detail: m.card.String()})

	case phasePenalty:
		g.penalize(m.owner)
	}
}

// penalize draws one card into seat's hand while it is below capacity and
// the deck can supply one; otherwise it records a penalty point.
func (g *Game) penalize(seat Seat) {
	if g.hands[seat].Len() < g.rules.HandSize && len(g.deck) > 0 {
		c := g.popDeck()
		g.hands[seat].add(c)
		g.emit(cardEvent(EventPenaltyDraw, seat, c, g.hands[seat].Len()-1))
		g.checkDeckExhausted()
		return
	}
	g.penalties[seat]++
	g.emit(Event{Type: EventPenaltyPoint, Seat: seat, Index: -1, Score: g.penalties[seat]})
}

// Pending lists in-flight match attempts in the order they will run.
func (g *Game) Pending() []MatchPending {
	out := make([]MatchPending, len(g.matches))
	for i, m := range g.matches {
		out[i] = MatchPending{Card: m.card, Owner: m.owner, Phase: m.phase.String(), Deadline: m.due}
	}
	return out
}
