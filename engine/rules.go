package engine

import "time"

// Hand capacities per variant.
const (
	TwoPlayerHandSize = 4
	SoloHandSize      = 8
	TutorialHandSize  = 4
)

// Rules holds the configurable table settings of a round.
type Rules struct {
	HandSize int // hand capacity; penalty draws never exceed it

	RevealDelay  time.Duration // match tap → rank comparison
	CommitDelay  time.Duration // successful match → attempt settled
	PenaltyDelay time.Duration // failed match → penalty applied

	Jokers  bool // fresh decks include the red and black joker
	Shuffle bool // fresh decks are shuffled on restart
}

// DefaultRules returns the two-player table settings.
func DefaultRules() Rules {
	return Rules{
		HandSize:     TwoPlayerHandSize,
		RevealDelay:  500 * time.Millisecond,
		CommitDelay:  600 * time.Millisecond,
		PenaltyDelay: 500 * time.Millisecond,
		Jokers:       true,
		Shuffle:      true,
	}
}

// SoloRules returns DefaultRules with the larger single-player hand.
func SoloRules() Rules {
	r := DefaultRules()
	r.HandSize = SoloHandSize
	return r
}

// TutorialRules deals from an ordered deck without jokers so the walkthrough
// is reproducible.
func TutorialRules() Rules {
	r := DefaultRules()
	r.HandSize = TutorialHandSize
	r.Jokers = false
	r.Shuffle = false
	return r
}

// freshDeck builds the deck used when Restart receives no override.
func (r *Rules) freshDeck(g *Game) Deck {
	d := StandardDeck()
	if r.Jokers {
		d = StandardDeckWithJokers()
	}
	if r.Shuffle {
		d = d.Shuffle(g.rng)
	}
	return d
}
