// internal/game/game.go
package game

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	engine "github.com/jason-s-yu/cambio/engine"
	"github.com/sirupsen/logrus"
)

// Errors returned to the transport. Illegal moves are not errors; they are
// reported as a rejected command.
var (
	ErrNotSeated       = errors.New("game: player is not seated")
	ErrSessionFull     = errors.New("game: every seat is taken")
	ErrUnknownCommand  = errors.New("game: unknown command")
	ErrNotTutorial     = errors.New("game: command only exists in the tutorial")
	ErrUnknownSeat     = errors.New("game: unknown seat")
	ErrBadCardIndex    = errors.New("game: card index out of range")
	ErrUnknownVariant  = errors.New("game: unknown variant")
	ErrSessionNotFound = errors.New("game: session not found")
)

// CommandType names a client command.
type CommandType string

const (
	CmdRestart       CommandType = "restart"
	CmdDeal          CommandType = "deal"
	CmdPeekHand      CommandType = "peek_hand"
	CmdFlipOntoPile  CommandType = "flip_onto_pile"
	CmdBeginPlaying  CommandType = "begin_playing"
	CmdDrawDeck      CommandType = "draw_deck"
	CmdTapPile       CommandType = "tap_pile"
	CmdTapHand       CommandType = "tap_hand"
	CmdCallCambio    CommandType = "call_cambio"
	CmdHideCards     CommandType = "hide_cards"
	CmdStartGameplay CommandType = "start_gameplay"
	CmdEnableCambio  CommandType = "enable_cambio"
	CmdRestartTutor  CommandType = "restart_tutorial"
	CmdSyncState     CommandType = "sync_state"
)

// Command is one client request. Seat defaults to the sender's own seat;
// hand cards are addressed by index.
type Command struct {
	Type CommandType `json:"type"`
	Seat string      `json:"seat,omitempty"`
	Idx  *int        `json:"idx,omitempty"`
	Deck []string    `json:"deck,omitempty"` // restart override, bottom first
}

// Options configures a new Session.
type Options struct {
	Variant       engine.Variant
	Mode          engine.SoloMode // solo only
	Hotseat       bool            // two-player only: the first player controls both seats
	Seed          uint64          // 0 shuffles from a random seed
	Clock         engine.Clock
	Leaderboard   engine.Leaderboard
	Build         string
	SubmitTimeout time.Duration
	TickInterval  time.Duration
	Logger        logrus.FieldLogger
}

const defaultTickInterval = 50 * time.Millisecond

// Session owns one engine table. Every engine call happens under Mu; the
// engine itself is not safe for concurrent use.
type Session struct {
	ID        uuid.UUID
	Variant   engine.Variant
	Mode      engine.SoloMode
	Hotseat   bool
	CreatedAt time.Time

	Mu       sync.Mutex
	game     *engine.Game
	tutorial *engine.Tutorial
	clock    engine.Clock
	log      logrus.FieldLogger

	seats      map[engine.Seat]uuid.UUID
	names      map[uuid.UUID]string
	lastActive time.Time

	// Communication callbacks. They are called with Mu held (score events
	// excepted) and must not call back into the session. Once the session
	// is started, replace them with SetBroadcast.
	BroadcastFn         func(ev GameEvent)
	BroadcastToPlayerFn func(playerID uuid.UUID, ev GameEvent)

	tickInterval time.Duration
	startOnce    sync.Once
	closeOnce    sync.Once
	stop         chan struct{}
	done         chan struct{}
}

// NewSession builds a table for the variant in its Start state. Nobody is
// seated yet.
func NewSession(opts Options) (*Session, error) {
	if opts.Clock == nil {
		opts.Clock = engine.SystemClock{}
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = defaultTickInterval
	}
	if opts.Logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		opts.Logger = l
	}

	s := &Session{
		ID:           uuid.New(),
		Variant:      opts.Variant,
		Mode:         opts.Mode,
		Hotseat:      opts.Hotseat && opts.Variant == engine.VariantTwoPlayer,
		clock:        opts.Clock,
		seats:        make(map[engine.Seat]uuid.UUID),
		names:        make(map[uuid.UUID]string),
		tickInterval: opts.TickInterval,
		stop:         make(chan struct{}),
		done:         make(chan struct{}),
	}
	s.CreatedAt = s.clock.Now()
	s.lastActive = s.CreatedAt
	s.log = opts.Logger.WithFields(logrus.Fields{"game": s.ID, "variant": opts.Variant})

	engineOpts := []engine.Option{
		engine.WithClock(opts.Clock),
		engine.WithLogger(s.log),
		engine.WithListener(s.onEngineEvent),
		engine.WithBuild(opts.Build),
	}
	if opts.Seed != 0 {
		engineOpts = append(engineOpts, engine.WithSeed(opts.Seed))
	} else {
		engineOpts = append(engineOpts, engine.WithSeed(rand.Uint64()))
	}
	if opts.SubmitTimeout > 0 {
		engineOpts = append(engineOpts, engine.WithSubmitTimeout(opts.SubmitTimeout))
	}
	if opts.Leaderboard != nil {
		engineOpts = append(engineOpts, engine.WithLeaderboard(s.withPlayerName(opts.Leaderboard)))
	}

	switch opts.Variant {
	case engine.VariantTwoPlayer:
		s.game = engine.NewTwoPlayer(engineOpts...)
	case engine.VariantSolo:
		s.game, _ = engine.NewSolo(opts.Mode, engineOpts...)
	case engine.VariantTutorial:
		s.Mode = engine.Untimed
		s.game, s.tutorial = engine.NewTutorial(engineOpts...)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownVariant, opts.Variant)
	}
	s.log.Debugf("Game %s: created.", s.ID)
	return s, nil
}

// ParseVariant maps the wire name of a variant.
func ParseVariant(name string) (engine.Variant, error) {
	for _, v := range []engine.Variant{engine.VariantTwoPlayer, engine.VariantSolo, engine.VariantTutorial} {
		if v.String() == name {
			return v, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownVariant, name)
}

// withPlayerName fills in the name of the South player before handing the
// entry to lb. It runs on the engine's submission goroutine.
func (s *Session) withPlayerName(lb engine.Leaderboard) engine.Leaderboard {
	return engine.LeaderboardFunc(func(ctx context.Context, e engine.ScoreEntry) error {
		s.Mu.Lock()
		if id, ok := s.seats[engine.South]; ok {
			e.Player = s.names[id]
			if e.Player == "" {
				e.Player = id.String()
			}
		}
		s.Mu.Unlock()
		return lb.SubmitScore(ctx, e)
	})
}

// ---------------------------------------------------------------------------
// Clock driver
// ---------------------------------------------------------------------------

// Start runs the engine clock in real time until Close. Delayed match phases
// and the solo timer only fire when something ticks the engine.
func (s *Session) Start() {
	s.startOnce.Do(func() {
		go s.run()
	})
}

func (s *Session) run() {
	defer close(s.done)
	t := time.NewTicker(s.tickInterval)
	defer t.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-t.C:
			s.Tick()
		}
	}
}

// Tick runs whatever is due on the engine clock.
func (s *Session) Tick() {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	s.game.Tick()
}

// Close stops the clock driver. Safe to call more than once, and without
// Start.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.stop)
		started := true
		s.startOnce.Do(func() { started = false })
		if started {
			<-s.done
		}
		s.log.Debugf("Game %s: closed.", s.ID)
	})
}

// ---------------------------------------------------------------------------
// Seats
// ---------------------------------------------------------------------------

// Join seats a player and returns the seat. A player already seated gets
// their seat back. In hotseat mode the first player takes every seat.
func (s *Session) Join(playerID uuid.UUID, name string) (engine.Seat, error) {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	if own := s.seatsOf(playerID); len(own) > 0 {
		return own[0], nil
	}
	free := engine.NoSeat
	for _, seat := range s.game.Seats() {
		if _, taken := s.seats[seat]; !taken {
			free = seat
			break
		}
	}
	if free == engine.NoSeat {
		return engine.NoSeat, ErrSessionFull
	}

	if s.Hotseat {
		for _, seat := range s.game.Seats() {
			s.seats[seat] = playerID
		}
	} else {
		s.seats[free] = playerID
	}
	s.names[playerID] = name
	s.lastActive = s.clock.Now()
	s.log.WithFields(logrus.Fields{"player": playerID, "seat": free}).Infof("Game %s: player joined.", s.ID)

	s.broadcast(GameEvent{
		Type: EventPlayerJoined,
		User: &EventUser{ID: playerID, Name: name},
		Seat: free.String(),
	})
	return free, nil
}

// seatsOf lists the seats a player controls. Assumes Mu is held.
func (s *Session) seatsOf(playerID uuid.UUID) []engine.Seat {
	var out []engine.Seat
	for _, seat := range s.game.Seats() {
		if id, ok := s.seats[seat]; ok && id == playerID {
			out = append(out, seat)
		}
	}
	return out
}

func (s *Session) controls(playerID uuid.UUID, seat engine.Seat) bool {
	id, ok := s.seats[seat]
	return ok && id == playerID
}

// actingSeat is the seat whose controller may draw, discard, swap or call.
func (s *Session) actingSeat() engine.Seat {
	if a := s.game.Active(); a != engine.NoSeat {
		return a
	}
	return engine.South
}

func (s *Session) onTurn(playerID uuid.UUID) bool {
	return s.controls(playerID, s.actingSeat())
}

// LastActive returns the clock time of the last join or command.
func (s *Session) LastActive() time.Time {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	return s.lastActive
}

// Players returns the seated player of every occupied seat.
func (s *Session) Players() map[engine.Seat]uuid.UUID {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	out := make(map[engine.Seat]uuid.UUID, len(s.seats))
	for seat, id := range s.seats {
		out[seat] = id
	}
	return out
}

// ---------------------------------------------------------------------------
// Commands
// ---------------------------------------------------------------------------

// HandleCommand applies one command from a seated player. The bool reports
// whether the engine accepted it; the error is reserved for requests that
// are malformed or come from outside the table.
func (s *Session) HandleCommand(playerID uuid.UUID, cmd Command) (bool, error) {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	own := s.seatsOf(playerID)
	if len(own) == 0 {
		return false, ErrNotSeated
	}
	s.lastActive = s.clock.Now()
	g := s.game

	var ok bool
	switch cmd.Type {
	case CmdRestart:
		deck, err := parseDeck(cmd.Deck)
		if err != nil {
			return false, err
		}
		ok = g.Restart(deck)
	case CmdDeal:
		ok = g.Deal()
	case CmdPeekHand:
		seat, err := s.targetSeat(cmd.Seat, own)
		if err != nil {
			return false, err
		}
		ok = s.controls(playerID, seat) && g.PeekHand(seat)
	case CmdFlipOntoPile:
		ok = g.FlipOntoPile()
	case CmdBeginPlaying:
		ok = g.BeginPlaying()
	case CmdDrawDeck:
		ok = s.onTurn(playerID) && g.DrawFromDeck()
	case CmdTapPile:
		ok = s.onTurn(playerID) && g.TapPile()
	case CmdTapHand:
		seat, err := s.targetSeat(cmd.Seat, own)
		if err != nil {
			return false, err
		}
		hand := g.Hand(seat)
		if cmd.Idx == nil || *cmd.Idx < 0 || *cmd.Idx >= len(hand) {
			return false, ErrBadCardIndex
		}
		// With a card in the viewing slot the tap is a swap, which only the
		// player on turn may make.
		if g.HasViewing() && !s.onTurn(playerID) {
			break
		}
		ok = g.TapHandCard(hand[*cmd.Idx].ID, seat)
	case CmdCallCambio:
		ok = s.onTurn(playerID) && g.CallCambio()
	case CmdHideCards, CmdStartGameplay, CmdEnableCambio, CmdRestartTutor:
		if s.tutorial == nil {
			return false, ErrNotTutorial
		}
		ok = s.tutorialCommand(cmd.Type)
	case CmdSyncState:
		s.sendSync(playerID)
		return true, nil
	default:
		return false, fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Type)
	}

	if !ok {
		s.log.WithFields(logrus.Fields{"player": playerID, "cmd": cmd.Type}).Debugf("Game %s: command rejected.", s.ID)
	}
	return ok, nil
}

func (s *Session) tutorialCommand(t CommandType) bool {
	switch t {
	case CmdHideCards:
		return s.tutorial.HideCards()
	case CmdStartGameplay:
		s.tutorial.StartGameplay()
	case CmdEnableCambio:
		s.tutorial.EnableCambio()
	case CmdRestartTutor:
		s.tutorial.RestartTutorial()
	}
	return true
}

// targetSeat resolves a seat name, defaulting to the sender's first seat.
func (s *Session) targetSeat(name string, own []engine.Seat) (engine.Seat, error) {
	if name == "" {
		return own[0], nil
	}
	for _, seat := range s.game.Seats() {
		if seat.String() == name {
			return seat, nil
		}
	}
	return engine.NoSeat, fmt.Errorf("%w: %q", ErrUnknownSeat, name)
}

func parseDeck(names []string) (engine.Deck, error) {
	if len(names) == 0 {
		return nil, nil
	}
	ids := make([]engine.CardID, len(names))
	for i, n := range names {
		id, err := engine.ParseCardID(n)
		if err != nil {
			return nil, err
		}
		ids[i] = id
	}
	return engine.NewDeck(ids...), nil
}

// ---------------------------------------------------------------------------
// Broadcasting
// ---------------------------------------------------------------------------

// SetBroadcast installs the communication callbacks on a running session.
func (s *Session) SetBroadcast(all func(GameEvent), one func(uuid.UUID, GameEvent)) {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	s.BroadcastFn = all
	s.BroadcastToPlayerFn = one
}

func (s *Session) broadcast(ev GameEvent) {
	if s.BroadcastFn == nil {
		return
	}
	s.BroadcastFn(ev)
}

func (s *Session) sendTo(playerID uuid.UUID, ev GameEvent) {
	if s.BroadcastToPlayerFn == nil {
		return
	}
	s.BroadcastToPlayerFn(playerID, ev)
}

// sendSync sends the player their view of the table. Assumes Mu is held.
func (s *Session) sendSync(playerID uuid.UUID) {
	state := s.obfuscatedState(playerID)
	s.sendTo(playerID, GameEvent{Type: EventPrivateSyncState, GameState: &state})
}
