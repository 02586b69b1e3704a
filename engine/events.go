package engine

// EventType names an observable engine transition.
type EventType string

const (
	EventRestart           EventType = "restart"
	EventDeal              EventType = "deal"
	EventPeekHand          EventType = "peek_hand"
	EventFlipOntoPile      EventType = "flip_onto_pile"
	EventBeginPlaying      EventType = "begin_playing"
	EventDrawDeck          EventType = "draw_deck"
	EventDiscard           EventType = "discard"
	EventTakeBack          EventType = "take_back"
	EventSwap              EventType = "swap"
	EventMatchReveal       EventType = "match_reveal"
	EventMatchSuccess      EventType = "match_success"
	EventMatchSettled      EventType = "match_settled"
	EventMatchFail         EventType = "match_fail"
	EventMatchAbandoned    EventType = "match_abandoned"
	EventPenaltyDraw       EventType = "penalty_draw"
	EventPenaltyPoint      EventType = "penalty_point"
	EventTurn              EventType = "turn"
	EventCambioCalled      EventType = "cambio_called"
	EventDeckExhausted     EventType = "deck_exhausted"
	EventTimerExpired      EventType = "timer_expired"
	EventGameOver          EventType = "game_over"
	EventScoreSubmitted    EventType = "score_submitted"
	EventScoreSubmitFailed EventType = "score_submit_failed"
	EventTutorialStep      EventType = "tutorial_step"
)

// Event describes one transition. Card is set when a single card moved or
// changed orientation; Index is its hand position (-1 when not in a hand).
type Event struct {
	Type   EventType
	Seat   Seat
	Card   *CardView
	Other  *CardView // the second card of a swap
	Index  int
	State  State
	Score  int
	Detail string
	Err    error
}

// Listener receives engine events. It is called synchronously from commands
// and Tick, except for the two score submission events, which arrive from the
// submission goroutine. Listeners must not call back into the Game.
type Listener func(Event)

func cardEvent(t EventType, seat Seat, c *Card, idx int) Event {
	v := c.View()
	return Event{Type: t, Seat: seat, Card: &v, Index: idx}
}
