// engine_adapter.go: bridge between engine events and client GameEvents.
package game

import (
	"github.com/google/uuid"
	engine "github.com/jason-s-yu/cambio/engine"
)

// GameEventType represents the type of a game-related event sent over the
// WebSocket. Engine transitions keep the engine's own names.
type GameEventType string

const (
	EventPlayerJoined     GameEventType = "player_joined"      // Public: a player took a seat.
	EventPrivateDrawDeck  GameEventType = "private_draw_deck"  // Private: details of the drawn card.
	EventPrivateSyncState GameEventType = "private_sync_state" // Private: full table state for a player.
	EventCommandResult    GameEventType = "command_result"     // Private: whether a command was accepted.
	EventError            GameEventType = "error"              // Private: malformed or refused request.
)

// EventUser identifies a user within a GameEvent payload.
type EventUser struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name,omitempty"`
}

// EventCard describes a card within a GameEvent. Rank, suit and value are
// only present when the card is face up.
type EventCard struct {
	ID    string `json:"id,omitempty"`
	Rank  string `json:"rank,omitempty"`
	Suit  string `json:"suit,omitempty"`
	Value *int   `json:"value,omitempty"` // pointer so a red king's -1 and a joker's 0 survive
	Idx   *int   `json:"idx,omitempty"`   // hand position, if relevant
}

// GameEvent is the envelope for everything pushed to clients.
type GameEvent struct {
	Type  GameEventType `json:"type"`
	User  *EventUser    `json:"user,omitempty"` // controller of Seat, when seated
	Seat  string        `json:"seat,omitempty"`
	State string        `json:"state,omitempty"` // engine state after the event
	Card  *EventCard    `json:"card,omitempty"`
	Card2 *EventCard    `json:"card2,omitempty"` // the discarded card of a swap

	Payload map[string]interface{} `json:"payload,omitempty"`

	GameState *ObfGameState `json:"gameState,omitempty"`
}

var rankNames = [...]string{"A", "2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K", "JOKER"}

// engineRankToString converts an engine rank to its wire name.
func engineRankToString(r engine.Rank) string {
	if int(r) < len(rankNames) {
		return rankNames[r]
	}
	return "?"
}

// engineSuitToString converts an engine suit to its wire letter.
func engineSuitToString(s engine.Suit) string {
	switch s {
	case engine.SuitSpades:
		return "S"
	case engine.SuitHearts:
		return "H"
	case engine.SuitDiamonds:
		return "D"
	case engine.SuitClubs:
		return "C"
	case engine.SuitRedJoker:
		return "R"
	case engine.SuitBlackJoker:
		return "B"
	}
	return "?"
}

// toEventCard converts a card view. A face-down card only carries its
// position.
func toEventCard(v *engine.CardView, idx int, reveal bool) *EventCard {
	if v == nil {
		return nil
	}
	ec := &EventCard{}
	if idx >= 0 {
		i := idx
		ec.Idx = &i
	}
	if reveal {
		value := v.Points
		ec.ID = v.ID.String()
		ec.Rank = engineRankToString(v.Rank)
		ec.Suit = engineSuitToString(v.Suit)
		ec.Value = &value
	}
	return ec
}

// onEngineEvent is the engine listener. It runs with Mu held, except for
// the score submission events, which come from the submission goroutine and
// take Mu only to read the broadcast callback.
func (s *Session) onEngineEvent(ev engine.Event) {
	switch ev.Type {
	case engine.EventScoreSubmitted, engine.EventScoreSubmitFailed:
		out := GameEvent{
			Type:    GameEventType(ev.Type),
			Seat:    ev.Seat.String(),
			State:   ev.State.String(),
			Payload: map[string]interface{}{"score": ev.Score},
		}
		if ev.Err != nil {
			out.Payload["error"] = ev.Err.Error()
			s.log.WithError(ev.Err).Warnf("Game %s: score submission failed.", s.ID)
		}
		s.Mu.Lock()
		send := s.BroadcastFn
		s.Mu.Unlock()
		if send != nil {
			send(out)
		}
		return
	}

	out := GameEvent{
		Type:  GameEventType(ev.Type),
		State: ev.State.String(),
	}
	if ev.Seat != engine.NoSeat {
		out.Seat = ev.Seat.String()
		if id, ok := s.seats[ev.Seat]; ok {
			out.User = &EventUser{ID: id, Name: s.names[id]}
		}
	}
	if ev.Card != nil {
		// The drawn card is face up in the viewing slot, but only its
		// holder may see it.
		reveal := ev.Card.FaceUp && ev.Type != engine.EventDrawDeck
		out.Card = toEventCard(ev.Card, ev.Index, reveal)
	}
	if ev.Other != nil {
		out.Card2 = toEventCard(ev.Other, -1, ev.Other.FaceUp)
	}

	switch ev.Type {
	case engine.EventRestart:
		out.Payload = map[string]interface{}{"round": ev.Detail}
	case engine.EventPenaltyPoint:
		out.Payload = map[string]interface{}{"penalties": ev.Score}
	case engine.EventGameOver:
		out.Payload = map[string]interface{}{"score": ev.Score}
	case engine.EventTutorialStep:
		out.Payload = map[string]interface{}{"step": ev.Detail}
	}
	s.broadcast(out)

	if ev.Type == engine.EventDrawDeck {
		if id, ok := s.seats[s.actingSeat()]; ok {
			s.sendTo(id, GameEvent{
				Type:  EventPrivateDrawDeck,
				Seat:  out.Seat,
				State: out.State,
				Card:  toEventCard(ev.Card, -1, true),
			})
		}
	}
}
