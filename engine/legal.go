package engine

// Command names an entry point of the command surface.
type Command uint8

const (
	CmdRestart Command = iota
	CmdBeginPlaying
	CmdDeal
	CmdPeekHand
	CmdFlipOntoPile
	CmdDrawFromDeck
	CmdTapPile
	CmdTapHandCard
	CmdCallCambio
)

func (c Command) String() string {
	switch c {
	case CmdRestart:
		return "restart"
	case CmdBeginPlaying:
		return "begin_playing"
	case CmdDeal:
		return "deal"
	case CmdPeekHand:
		return "peek_hand"
	case CmdFlipOntoPile:
		return "flip_onto_pile"
	case CmdDrawFromDeck:
		return "draw_from_deck"
	case CmdTapPile:
		return "tap_pile"
	case CmdTapHandCard:
		return "tap_hand_card"
	case CmdCallCambio:
		return "call_cambio"
	}
	return "unknown"
}

// StateAllows is the per-state command table shared by every variant.
// Container preconditions (viewing card, empty pile, ...) are checked by the
// commands themselves.
//
//	Start        Restart, BeginPlaying, Deal, PeekHand, FlipOntoPile
//	Playing      DrawFromDeck, TapPile, TapHandCard, CallCambio, FlipOntoPile
//	CambioCalled DrawFromDeck, TapPile, TapHandCard
//	GameOver     Restart
func StateAllows(s State, cmd Command) bool {
	switch s {
	case Start:
		switch cmd {
		case CmdRestart, CmdBeginPlaying, CmdDeal, CmdPeekHand, CmdFlipOntoPile:
			return true
		}
	case Playing:
		switch cmd {
		case CmdDrawFromDeck, CmdTapPile, CmdTapHandCard, CmdCallCambio, CmdFlipOntoPile:
			return true
		}
	case CambioCalled:
		switch cmd {
		case CmdDrawFromDeck, CmdTapPile, CmdTapHandCard:
			return true
		}
	case GameOver:
		return cmd == CmdRestart
	}
	return false
}
