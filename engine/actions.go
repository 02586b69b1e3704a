package engine

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// DrawFromDeck moves the top deck card, face up, into the viewing slot.
// Emptying the deck forces CambioCalled but does not end the turn.
func (g *Game) DrawFromDeck() bool {
	if !g.admit(CmdDrawFromDeck) {
		return false
	}
	if g.viewing != nil || len(g.deck) == 0 {
		return false
	}
	c := g.popDeck()
	c.faceUp = true
	g.viewing = c
	g.emit(cardEvent(EventDrawDeck, g.current, c, -1))
	g.checkDeckExhausted()
	g.policy.onApplied(g, CmdDrawFromDeck)
	return true
}

// TapPile discards the viewing card and ends the turn, or, with an empty
// viewing slot, takes the top discard back for inspection without ending it.
func (g *Game) TapPile() bool {
	if !g.admit(CmdTapPile) {
		return false
	}
	if c := g.viewing; c != nil {
		g.viewing = nil
		g.pile.Push(c)
		g.emit(cardEvent(EventDiscard, g.current, c, -1))
		g.policy.switchPlayer(g)
		return true
	}
	c := g.pile.Pop()
	if c == nil {
		return false
	}
	g.viewing = c
	g.emit(cardEvent(EventTakeBack, g.current, c, -1))
	return true
}

// TapHandCard swaps the viewing card into owner's hand when one is pending,
// and otherwise starts a match attempt with the tapped card.
func (g *Game) TapHandCard(id CardID, owner Seat) bool {
	if !g.admit(CmdTapHandCard) {
		return false
	}
	if !g.seated(owner) {
		return false
	}
	idx := g.hands[owner].IndexOf(id)
	if idx < 0 {
		return false
	}
	var ok bool
	if g.viewing != nil {
		ok = g.swapViewingCard(owner, idx)
	} else {
		ok = g.attemptMatch(owner, idx)
	}
	if ok {
		g.policy.onApplied(g, CmdTapHandCard)
	}
	return ok
}

// swapViewingCard replaces the hand card at idx in place with the viewing
// card. The hand card lands face up on the pile and the viewing card goes
// into the hand face down.
func (g *Game) swapViewingCard(owner Seat, idx int) bool {
	if owner != g.current {
		return false
	}
	old := g.hands[owner].At(idx)
	if g.revealing(old.id) {
		return false
	}
	v := g.viewing
	old.faceUp = true
	g.pile.Push(old)
	v.faceUp = false
	g.hands[owner].replaceAt(idx, v)
	g.viewing = nil

	ev := cardEvent(EventSwap, owner, v, idx)
	ov := old.View()
	ev.Other = &ov
	g.emit(ev)

	g.policy.switchPlayer(g)
	return true
}

// CallCambio declares the final lap. Rejected while a viewing card is
// pending.
func (g *Game) CallCambio() bool {
	if !g.admit(CmdCallCambio) {
		return false
	}
	if g.viewing != nil {
		return false
	}
	caller := g.current
	g.policy.callCambio(g)
	g.log.WithFields(logrus.Fields{"seat": caller, "round": g.round}).Debug("cambio called")
	return true
}

// advanceTurn is the shared turn transition: the end signal once the final
// lap is running, alternation otherwise.
func (g *Game) advanceTurn() {
	if g.state == CambioCalled {
		g.endRound()
		return
	}
	g.current = g.current.Other()
	g.emit(Event{Type: EventTurn, Seat: g.current, Index: -1})
}

func (g *Game) markCambioCalled(caller Seat) {
	if g.state != Playing {
		return
	}
	g.state = CambioCalled
	g.emit(Event{Type: EventCambioCalled, Seat: caller, Index: -1})
}

// endRound reveals every hand and moves to GameOver. Pending match phases
// and the round timer are discarded so nothing fires into a finished round.
func (g *Game) endRound() {
	if g.state == GameOver {
		return
	}
	for _, s := range g.seats {
		for _, c := range g.hands[s].cards {
			if !c.faceUp {
				c.Flip()
			}
		}
	}
	g.state = GameOver
	g.matches = nil
	g.deadline = time.Time{}

	for _, s := range g.seats {
		g.emit(Event{Type: EventGameOver, Seat: s, Index: -1, Score: g.Score(s)})
	}
	g.policy.onRoundEnd(g)
}

// submitScore reports seat's final score once per round. The call runs in
// its own goroutine; its outcome never touches round state.
func (g *Game) submitScore(seat Seat, mode string) {
	if g.leaderboard == nil || g.submitted {
		return
	}
	g.submitted = true

	entry := ScoreEntry{
		RoundID:   g.round,
		Mode:      mode,
		Score:     g.Score(seat),
		Penalties: g.penalties[seat],
		Build:     g.build,
		At:        g.clock.Now(),
	}
	lb, listener, timeout := g.leaderboard, g.listener, g.submitTimeout
	log := g.log.WithFields(logrus.Fields{"round": entry.RoundID, "mode": mode, "score": entry.Score})

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		ev := Event{Type: EventScoreSubmitted, Seat: seat, Index: -1, State: GameOver, Score: entry.Score}
		if err := lb.SubmitScore(ctx, entry); err != nil {
			log.WithError(err).Warn("leaderboard submission failed")
			ev.Type = EventScoreSubmitFailed
			ev.Err = err
		} else {
			log.Info("score submitted")
		}
		if listener != nil {
			listener(ev)
		}
	}()
}
