// internal/game/sync_state.go
package game

import (
	"time"

	"github.com/google/uuid"
	engine "github.com/jason-s-yu/cambio/engine"
)

// ObfCard represents a card's state for client synchronization, hiding
// details the requesting client may not see.
type ObfCard struct {
	Known bool   `json:"known"` // True if the card details are revealed to the requesting client.
	ID    string `json:"id,omitempty"`
	Rank  string `json:"rank,omitempty"`
	Suit  string `json:"suit,omitempty"`
	Value *int   `json:"value,omitempty"`
	Idx   *int   `json:"idx,omitempty"`
}

// ObfSeatState represents one seat, obfuscated for a specific observer.
type ObfSeatState struct {
	Seat          string    `json:"seat"`
	PlayerID      uuid.UUID `json:"playerId"`
	Name          string    `json:"name,omitempty"`
	Hand          []ObfCard `json:"hand"`
	Penalties     int       `json:"penalties"`
	IsCurrentTurn bool      `json:"isCurrentTurn"`
	IsSelf        bool      `json:"isSelf"`
	Score         *int      `json:"score,omitempty"` // only once the round is over
}

// ObfMatch is an in-flight match attempt. The card itself is visible through
// the hand while it is face up.
type ObfMatch struct {
	Seat       string `json:"seat"`
	Phase      string `json:"phase"`
	DeadlineMs int64  `json:"deadlineMs"` // from the snapshot time
}

// ObfGameState represents the overall table, obfuscated for a specific
// observer.
type ObfGameState struct {
	GameID       uuid.UUID      `json:"gameId"`
	Variant      string         `json:"variant"`
	Mode         string         `json:"mode,omitempty"`
	Round        uuid.UUID      `json:"round"`
	State        string         `json:"state"`
	ActiveSeat   string         `json:"activeSeat,omitempty"`
	DeckSize     int            `json:"deckSize"`
	PileSize     int            `json:"pileSize"`
	PileTop      *ObfCard       `json:"pileTop,omitempty"`
	Viewing      *ObfCard       `json:"viewing,omitempty"`
	Seats        []ObfSeatState `json:"seats"`
	Pending      []ObfMatch     `json:"pending,omitempty"`
	TimeLeftMs   *int64         `json:"timeLeftMs,omitempty"`
	Winner       string         `json:"winner,omitempty"`
	Tie          bool           `json:"tie,omitempty"`
	TutorialStep string         `json:"tutorialStep,omitempty"`
	CanProceed   bool           `json:"canProceed,omitempty"`
}

// Snapshot returns the table as forPlayer may see it. uuid.Nil is a
// spectator.
func (s *Session) Snapshot(forPlayer uuid.UUID) ObfGameState {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	return s.obfuscatedState(forPlayer)
}

func obfCard(v engine.CardView, idx int, known bool) ObfCard {
	c := ObfCard{Known: known}
	if idx >= 0 {
		i := idx
		c.Idx = &i
	}
	if known {
		value := v.Points
		c.ID = v.ID.String()
		c.Rank = engineRankToString(v.Rank)
		c.Suit = engineSuitToString(v.Suit)
		c.Value = &value
	}
	return c
}

// obfuscatedState builds the observer's view. Face-up cards are public
// except during Start, where a seat's peeked cards are only shown to its
// controller. Every hand is public once the round is over. The viewing card
// is only shown to the player on turn. Assumes Mu is held.
func (s *Session) obfuscatedState(forPlayer uuid.UUID) ObfGameState {
	snap := s.game.Snapshot()
	over := snap.State == engine.GameOver

	obf := ObfGameState{
		GameID:   s.ID,
		Variant:  snap.Variant.String(),
		Round:    snap.Round,
		State:    snap.State.String(),
		DeckSize: len(snap.Deck),
		PileSize: len(snap.Pile),
	}
	if snap.Variant != engine.VariantTwoPlayer {
		obf.Mode = s.Mode.String()
	}
	if snap.Active != engine.NoSeat && (snap.State == engine.Playing || snap.State == engine.CambioCalled) {
		obf.ActiveSeat = snap.Active.String()
	}
	if n := len(snap.Pile); n > 0 {
		top := obfCard(snap.Pile[n-1], -1, true)
		obf.PileTop = &top
	}
	if snap.Viewing != nil {
		v := obfCard(*snap.Viewing, -1, s.controls(forPlayer, s.actingSeat()))
		obf.Viewing = &v
	}

	for _, seat := range s.game.Seats() {
		id := s.seats[seat]
		self := forPlayer != uuid.Nil && id == forPlayer
		ss := ObfSeatState{
			Seat:          seat.String(),
			PlayerID:      id,
			Name:          s.names[id],
			Penalties:     snap.Penalties[seat],
			IsCurrentTurn: obf.ActiveSeat == seat.String(),
			IsSelf:        self,
		}
		hand := snap.Hands[seat]
		ss.Hand = make([]ObfCard, len(hand))
		for i, c := range hand {
			known := over || (c.FaceUp && (snap.State != engine.Start || self))
			ss.Hand[i] = obfCard(c, i, known)
		}
		if over {
			score := snap.Scores[seat]
			ss.Score = &score
		}
		obf.Seats = append(obf.Seats, ss)
	}

	now := s.clock.Now()
	for _, m := range snap.Pending {
		obf.Pending = append(obf.Pending, ObfMatch{
			Seat:       m.Owner.String(),
			Phase:      m.Phase,
			DeadlineMs: max(m.Deadline.Sub(now), 0).Milliseconds(),
		})
	}
	if snap.Timed {
		ms := snap.TimeLeft.Round(time.Millisecond).Milliseconds()
		obf.TimeLeftMs = &ms
	}
	if over {
		out := s.game.Outcome()
		obf.Tie = out.Tie
		if out.Winner != engine.NoSeat {
			obf.Winner = out.Winner.String()
		}
	}
	if s.tutorial != nil {
		obf.TutorialStep = s.tutorial.Step().String()
		obf.CanProceed = s.tutorial.CanProceed()
	}
	return obf
}
