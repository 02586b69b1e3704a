package engine

import (
	"fmt"
	"strings"
	"time"
)

// SoloMode selects the round timer of a single-player game.
type SoloMode uint8

const (
	Untimed SoloMode = iota
	Rush             // 30s
	Dash             // 60s
	Run              // 120s
)

// Duration returns the round length, or 0 for Untimed.
func (m SoloMode) Duration() time.Duration {
	switch m {
	case Rush:
		return 30 * time.Second
	case Dash:
		return 60 * time.Second
	case Run:
		return 120 * time.Second
	}
	return 0
}

func (m SoloMode) String() string {
	switch m {
	case Untimed:
		return "untimed"
	case Rush:
		return "rush"
	case Dash:
		return "dash"
	case Run:
		return "run"
	}
	return "unknown"
}

// ParseSoloMode is the inverse of SoloMode.String.
func ParseSoloMode(s string) (SoloMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "untimed":
		return Untimed, nil
	case "rush":
		return Rush, nil
	case "dash":
		return Dash, nil
	case "run":
		return Run, nil
	}
	return Untimed, fmt.Errorf("engine: unknown solo mode %q", s)
}

// Solo is a single hand playing against the clock. There is no turn
// alternation; the round ends on Cambio, on timer expiry, or on the first
// completed turn after the deck runs out. The final score goes to the
// leaderboard once per round.
type Solo struct {
	mode   SoloMode
	submit bool

	// canDrawFromPile forbids take-backs: a pile inspect is only allowed
	// after a fresh deck draw, and any hand tap revokes it.
	canDrawFromPile bool
}

// NewSolo returns a single-player table in the Start state.
func NewSolo(mode SoloMode, opts ...Option) (*Game, *Solo) {
	s := &Solo{mode: mode, submit: true}
	return newGame(s, opts), s
}

func (s *Solo) Mode() SoloMode { return s.mode }

// CanDrawFromPile reports whether a take-back from the pile is permitted.
func (s *Solo) CanDrawFromPile() bool { return s.canDrawFromPile }

func (s *Solo) Variant() Variant { return VariantSolo }
func (s *Solo) rules() Rules     { return SoloRules() }
func (s *Solo) seats() []Seat    { return []Seat{South} }

func (s *Solo) admit(g *Game, cmd Command) bool {
	switch cmd {
	case CmdCallCambio:
		// An exhausted deck must still be closable by hand.
		return g.state == Playing || g.state == CambioCalled
	case CmdTapPile:
		if !s.canDrawFromPile {
			return false
		}
	}
	return StateAllows(g.state, cmd)
}

func (s *Solo) onApplied(_ *Game, cmd Command) {
	switch cmd {
	case CmdDrawFromDeck:
		s.canDrawFromPile = true
	case CmdTapHandCard:
		s.canDrawFromPile = false
	}
}

func (s *Solo) onRestart(*Game) { s.canDrawFromPile = false }

func (s *Solo) onBegin(g *Game) {
	if d := s.mode.Duration(); d > 0 {
		g.startTimer(d)
	}
}

// switchPlayer only matters once the deck has run out: the completed turn
// closes the round.
func (s *Solo) switchPlayer(g *Game) {
	if g.state == CambioCalled {
		g.endRound()
	}
}

func (s *Solo) callCambio(g *Game) { g.endRound() }

func (s *Solo) onExpire(g *Game) {
	g.emit(Event{Type: EventTimerExpired, Seat: South, Index: -1})
	g.endRound()
}

func (s *Solo) onRoundEnd(g *Game) {
	if s.submit {
		g.submitScore(South, s.mode.String())
	}
}
