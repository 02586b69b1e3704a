// Package engine implements the Cambio card game rules.
//
// The engine is the single writer of every card container. Adapters issue
// commands and read snapshots; they never touch cards directly. Delayed
// reveal/resolve phases are deadlines against an injected Clock and are run
// by Tick, so a ManualClock makes every sequence deterministic in tests.
//
// A Game is not safe for concurrent use; callers serialise access.
package engine

import (
	"io"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// State is the round state.
type State uint8

const (
	Start State = iota
	Playing
	CambioCalled
	GameOver
)

func (s State) String() string {
	switch s {
	case Start:
		return "start"
	case Playing:
		return "playing"
	case CambioCalled:
		return "cambio_called"
	case GameOver:
		return "game_over"
	}
	return "unknown"
}

// Seat identifies a hand at the table.
type Seat uint8

const (
	South Seat = 0 // acts first; the only seat in single-player variants
	North Seat = 1

	NoSeat Seat = 0xFF
)

const numSeats = 2

func (s Seat) String() string {
	switch s {
	case South:
		return "south"
	case North:
		return "north"
	}
	return "none"
}

// Other returns the opposite seat.
func (s Seat) Other() Seat { return 1 - s }

const defaultSubmitTimeout = 5 * time.Second

// Game holds the complete state of one table and the policy of its variant.
type Game struct {
	policy Policy
	rules  Rules
	seats  []Seat

	clock         Clock
	rng           *rand.Rand
	log           logrus.FieldLogger
	listener      Listener
	leaderboard   Leaderboard
	build         string
	submitTimeout time.Duration

	round     uuid.UUID
	deck      Deck
	pile      Pile
	hands     [numSeats]Hand
	viewing   *Card
	current   Seat
	penalties [numSeats]int
	state     State
	dealt     bool
	submitted bool

	matches  []*matchAttempt // ordered by due, then seq
	matchSeq uint64
	deadline time.Time // round timer; zero when not running
}

// Option configures a Game at construction.
type Option func(*Game)

// WithClock replaces the wall clock.
func WithClock(c Clock) Option { return func(g *Game) { g.clock = c } }

// WithSeed makes deck shuffles reproducible.
func WithSeed(seed uint64) Option {
	return func(g *Game) { g.rng = rand.New(rand.NewPCG(seed, seed^0x9E3779B97F4A7C15)) }
}

// WithRand supplies the shuffle source directly.
func WithRand(r *rand.Rand) Option { return func(g *Game) { g.rng = r } }

// WithRules overrides the variant's default rules.
func WithRules(r Rules) Option { return func(g *Game) { g.rules = r } }

// WithLogger sets the logger; the default discards everything.
func WithLogger(l logrus.FieldLogger) Option { return func(g *Game) { g.log = l } }

// WithListener registers the event listener.
func WithListener(fn Listener) Option { return func(g *Game) { g.listener = fn } }

// WithLeaderboard injects the score collaborator used by the solo variant.
func WithLeaderboard(lb Leaderboard) Option { return func(g *Game) { g.leaderboard = lb } }

// WithBuild tags submitted scores with the client build.
func WithBuild(build string) Option { return func(g *Game) { g.build = build } }

// WithSubmitTimeout bounds a single leaderboard submission.
func WithSubmitTimeout(d time.Duration) Option { return func(g *Game) { g.submitTimeout = d } }

func newGame(p Policy, opts []Option) *Game {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	g := &Game{
		policy:        p,
		rules:         p.rules(),
		seats:         p.seats(),
		clock:         SystemClock{},
		log:           discard,
		submitTimeout: defaultSubmitTimeout,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.rng == nil {
		g.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if g.rules.HandSize <= 0 {
		g.rules.HandSize = p.rules().HandSize
	}
	g.restart(nil)
	return g
}

// NewTwoPlayer returns a two-seat table in the Start state.
func NewTwoPlayer(opts ...Option) *Game {
	return newGame(TwoPlayer{}, opts)
}

// ---------------------------------------------------------------------------
// Setup commands
// ---------------------------------------------------------------------------

// Restart begins a new round. A nil deck means a fresh standard deck per the
// rules; an override is rebuilt face down from its ids and rejected when it
// contains duplicates.
func (g *Game) Restart(deck Deck) bool {
	if !g.admit(CmdRestart) {
		return false
	}
	if deck != nil && hasDuplicates(deck) {
		g.log.WithField("cards", len(deck)).Debug("restart ignored: duplicate card ids in deck override")
		return false
	}
	g.restart(deck)
	return true
}

func hasDuplicates(d Deck) bool {
	seen := make(map[CardID]bool, len(d))
	for _, c := range d {
		if c == nil || seen[c.id] {
			return true
		}
		seen[c.id] = true
	}
	return false
}

func (g *Game) restart(deck Deck) {
	if deck == nil {
		deck = g.rules.freshDeck(g)
	} else {
		deck = NewDeck(deck.IDs()...)
	}
	g.round = uuid.New()
	g.deck = deck
	g.pile = Pile{}
	g.hands = [numSeats]Hand{}
	g.viewing = nil
	g.current = South
	g.penalties = [numSeats]int{}
	g.state = Start
	g.dealt = false
	g.submitted = false
	g.matches = nil
	g.deadline = time.Time{}
	g.policy.onRestart(g)
	g.emit(Event{Type: EventRestart, Seat: NoSeat, Index: -1, Detail: g.round.String()})
}

// Deal gives every seat HandSize face-down cards, one at a time in seat
// order. Only once per round.
func (g *Game) Deal() bool {
	if !g.admit(CmdDeal) || g.dealt {
		return false
	}
	g.deal()
	return true
}

func (g *Game) deal() {
	for n := 0; n < g.rules.HandSize; n++ {
		for _, s := range g.seats {
			c := g.popDeck()
			if c == nil {
				break
			}
			g.hands[s].add(c)
		}
	}
	g.dealt = true
	g.emit(Event{Type: EventDeal, Seat: NoSeat, Index: -1})
}

// PeekHand toggles every card of the seat's hand, the memorising glance
// before play starts. Call it twice to show and hide.
func (g *Game) PeekHand(seat Seat) bool {
	if !g.admit(CmdPeekHand) || !g.seated(seat) {
		return false
	}
	for _, c := range g.hands[seat].cards {
		c.Flip()
	}
	g.emit(Event{Type: EventPeekHand, Seat: seat, Index: -1})
	return true
}

// FlipOntoPile starts the discard pile with the top deck card, face up.
func (g *Game) FlipOntoPile() bool {
	if !g.admit(CmdFlipOntoPile) {
		return false
	}
	return g.flipOntoPile()
}

func (g *Game) flipOntoPile() bool {
	if g.pile.Len() > 0 || len(g.deck) == 0 {
		return false
	}
	c := g.popDeck()
	if !c.faceUp {
		c.Flip()
	}
	g.pile.Push(c)
	g.emit(cardEvent(EventFlipOntoPile, NoSeat, c, -1))
	g.checkDeckExhausted()
	return true
}

// BeginPlaying starts the round, dealing first if that has not happened.
func (g *Game) BeginPlaying() bool {
	if !g.admit(CmdBeginPlaying) {
		return false
	}
	if !g.dealt {
		g.deal()
	}
	g.state = Playing
	g.emit(Event{Type: EventBeginPlaying, Seat: g.Active(), Index: -1})
	g.policy.onBegin(g)
	g.checkDeckExhausted()
	return true
}

// ---------------------------------------------------------------------------
// Clock
// ---------------------------------------------------------------------------

// Tick runs every delayed phase and timer that is due at the clock's current
// time, in deadline order. Every command ticks first.
func (g *Game) Tick() {
	g.runDue(g.clock.Now())
}

func (g *Game) startTimer(d time.Duration) {
	g.deadline = g.clock.Now().Add(d)
}

// TimeLeft returns the remaining round time when a timer is running.
func (g *Game) TimeLeft() (time.Duration, bool) {
	if g.deadline.IsZero() {
		return 0, false
	}
	left := g.deadline.Sub(g.clock.Now())
	if left < 0 {
		left = 0
	}
	return left, true
}

// ---------------------------------------------------------------------------
// Internal helpers
// ---------------------------------------------------------------------------

// admit ticks, then asks the variant policy whether cmd may reach the rules.
func (g *Game) admit(cmd Command) bool {
	g.Tick()
	if !g.policy.admit(g, cmd) {
		g.log.WithFields(logrus.Fields{"cmd": cmd, "state": g.state}).Debug("command ignored")
		return false
	}
	return true
}

func (g *Game) seated(s Seat) bool {
	for _, seat := range g.seats {
		if seat == s {
			return true
		}
	}
	return false
}

// popDeck removes the top card, or returns nil when the deck is empty.
func (g *Game) popDeck() *Card {
	drawn, rest := g.deck.DrawTop(1)
	if len(drawn) == 0 {
		return nil
	}
	g.deck = rest
	return drawn[0]
}

// checkDeckExhausted forces the final lap once the deck runs out mid-round.
func (g *Game) checkDeckExhausted() {
	if len(g.deck) == 0 && g.state == Playing {
		g.state = CambioCalled
		g.emit(Event{Type: EventDeckExhausted, Seat: NoSeat, Index: -1})
	}
}

func (g *Game) emit(ev Event) {
	if g.listener == nil {
		return
	}
	ev.State = g.state
	g.listener(ev)
}

// ---------------------------------------------------------------------------
// Queries
// ---------------------------------------------------------------------------

func (g *Game) State() State      { return g.state }
func (g *Game) Variant() Variant  { return g.policy.Variant() }
func (g *Game) Rules() Rules      { return g.rules }
func (g *Game) Round() uuid.UUID  { return g.round }
func (g *Game) DeckLen() int      { return len(g.deck) }
func (g *Game) PileLen() int      { return g.pile.Len() }
func (g *Game) HasViewing() bool  { return g.viewing != nil }
func (g *Game) Seats() []Seat     { return append([]Seat(nil), g.seats...) }

// Active returns the seat whose turn it is, or NoSeat when a single hand acts
// for itself.
func (g *Game) Active() Seat {
	if len(g.seats) < 2 {
		return NoSeat
	}
	return g.current
}

// HandLen is zero for a seat outside the table.
func (g *Game) HandLen(s Seat) int {
	if !g.seated(s) {
		return 0
	}
	return g.hands[s].Len()
}

// Hand returns a copy of the seat's cards in order.
func (g *Game) Hand(s Seat) []CardView {
	if !g.seated(s) {
		return nil
	}
	return views(g.hands[s].cards)
}

// Viewing returns the card in the viewing slot.
func (g *Game) Viewing() (CardView, bool) {
	if g.viewing == nil {
		return CardView{}, false
	}
	return g.viewing.View(), true
}

// PileTop returns the top discard.
func (g *Game) PileTop() (CardView, bool) {
	top := g.pile.Top()
	if top == nil {
		return CardView{}, false
	}
	return top.View(), true
}

// CardCount is the number of cards the round holds across every container.
// It is constant for the lifetime of a round.
func (g *Game) CardCount() int {
	n := len(g.deck) + g.pile.Len()
	for _, s := range g.seats {
		n += g.hands[s].Len()
	}
	if g.viewing != nil {
		n++
	}
	return n
}
