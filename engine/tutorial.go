package engine

// TutorialStep is a stage of the guided walkthrough.
type TutorialStep uint8

const (
	StepIntro TutorialStep = iota
	StepDeal
	StepDrawCard
	StepGameplay
	StepCambio
)

func (s TutorialStep) String() string {
	switch s {
	case StepIntro:
		return "intro"
	case StepDeal:
		return "deal"
	case StepDrawCard:
		return "draw_card"
	case StepGameplay:
		return "gameplay"
	case StepCambio:
		return "cambio"
	}
	return "unknown"
}

// Tutorial wraps the solo rules with a step filter: each command only reaches
// the rules once the walkthrough has reached the step that teaches it.
// Scores are never submitted.
type Tutorial struct {
	solo Solo
	game *Game

	step       TutorialStep
	canProceed bool
}

// NewTutorial returns a walkthrough table dealt from an ordered deck.
func NewTutorial(opts ...Option) (*Game, *Tutorial) {
	t := &Tutorial{solo: Solo{mode: Untimed}}
	g := newGame(t, opts)
	t.game = g
	return g, t
}

func (t *Tutorial) Step() TutorialStep { return t.step }

// CanProceed is polled by the walkthrough before it shows the next
// instruction.
func (t *Tutorial) CanProceed() bool { return t.canProceed }

// RestartTutorial starts the walkthrough over from any state.
func (t *Tutorial) RestartTutorial() {
	t.game.restart(nil)
}

// HideCards ends the memorising step: the first discard is turned onto the
// pile and the player is asked to draw.
func (t *Tutorial) HideCards() bool {
	g := t.game
	g.Tick()
	if g.state != Playing {
		return false
	}
	t.setStep(StepDrawCard)
	t.canProceed = false
	g.flipOntoPile()
	return true
}

// StartGameplay unlocks discards, swaps and matches.
func (t *Tutorial) StartGameplay() {
	t.setStep(StepGameplay)
	t.canProceed = false
}

// EnableCambio unlocks the Cambio call.
func (t *Tutorial) EnableCambio() {
	t.setStep(StepCambio)
}

func (t *Tutorial) setStep(s TutorialStep) {
	t.step = s
	if t.game != nil {
		t.game.emit(Event{Type: EventTutorialStep, Seat: South, Index: -1, Detail: s.String()})
	}
}

func (t *Tutorial) Variant() Variant { return VariantTutorial }
func (t *Tutorial) rules() Rules     { return TutorialRules() }
func (t *Tutorial) seats() []Seat    { return []Seat{South} }

func (t *Tutorial) admit(g *Game, cmd Command) bool {
	switch cmd {
	case CmdFlipOntoPile:
		// The walkthrough's deal animation ends by asking for the pile card;
		// here that only unlocks the next instruction. HideCards flips it.
		t.canProceed = true
		return false
	case CmdDrawFromDeck:
		if t.step != StepDrawCard && t.step != StepGameplay {
			return false
		}
	case CmdTapPile, CmdTapHandCard:
		if t.step != StepGameplay {
			return false
		}
	case CmdCallCambio:
		if t.step != StepCambio {
			return false
		}
	}
	return t.solo.admit(g, cmd)
}

func (t *Tutorial) onApplied(g *Game, cmd Command) {
	t.solo.onApplied(g, cmd)
	if cmd == CmdDrawFromDeck || cmd == CmdTapHandCard {
		t.canProceed = true
	}
}

func (t *Tutorial) onRestart(g *Game) {
	t.solo.onRestart(g)
	t.step = StepIntro
	t.canProceed = true
}

func (t *Tutorial) onBegin(g *Game) {
	t.canProceed = false
	t.setStep(StepDeal)
}

func (t *Tutorial) switchPlayer(g *Game) { t.solo.switchPlayer(g) }
func (t *Tutorial) callCambio(g *Game)   { g.endRound() }
func (t *Tutorial) onExpire(g *Game)     { t.solo.onExpire(g) }
func (t *Tutorial) onRoundEnd(*Game)     {}
