package engine

// Variant names a table type.
type Variant uint8

const (
	VariantTwoPlayer Variant = iota
	VariantSolo
	VariantTutorial
)

func (v Variant) String() string {
	switch v {
	case VariantTwoPlayer:
		return "two_player"
	case VariantSolo:
		return "solo"
	case VariantTutorial:
		return "tutorial"
	}
	return "unknown"
}

// Policy is the variant-specific behaviour layered over the core rules. The
// core calls these hooks at fixed points; variants never reimplement the
// rules themselves. Implementations live in this package.
type Policy interface {
	Variant() Variant

	rules() Rules
	seats() []Seat

	// admit filters a command before it reaches the rules. The rules may
	// still reject it, so bookkeeping that depends on the command taking
	// effect belongs in onApplied.
	admit(g *Game, cmd Command) bool
	// onApplied runs once a command has changed the table.
	onApplied(g *Game, cmd Command)

	onRestart(g *Game)
	onBegin(g *Game)
	// switchPlayer runs after a discard or swap completes a turn.
	switchPlayer(g *Game)
	callCambio(g *Game)
	// onExpire runs when the round timer reaches its deadline.
	onExpire(g *Game)
	onRoundEnd(g *Game)
}

// TwoPlayer is strict alternation between South and North.
type TwoPlayer struct{}

func (TwoPlayer) Variant() Variant { return VariantTwoPlayer }
func (TwoPlayer) rules() Rules     { return DefaultRules() }
func (TwoPlayer) seats() []Seat    { return []Seat{South, North} }

func (TwoPlayer) admit(g *Game, cmd Command) bool { return StateAllows(g.state, cmd) }

func (TwoPlayer) onApplied(*Game, Command) {}
func (TwoPlayer) onRestart(*Game)          {}
func (TwoPlayer) onBegin(*Game)            {}

func (TwoPlayer) switchPlayer(g *Game) { g.advanceTurn() }

// callCambio gives the opponent one final turn.
func (TwoPlayer) callCambio(g *Game) {
	caller := g.current
	g.advanceTurn()
	g.markCambioCalled(caller)
}

func (TwoPlayer) onExpire(*Game)   {}
func (TwoPlayer) onRoundEnd(*Game) {}
