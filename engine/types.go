package engine

import (
	"errors"
	"fmt"
	"strings"
)

// Suit is packed into the upper 4 bits of a CardID.
type Suit uint8

const (
	SuitSpades     Suit = 0
	SuitHearts     Suit = 1
	SuitDiamonds   Suit = 2
	SuitClubs      Suit = 3
	SuitRedJoker   Suit = 4
	SuitBlackJoker Suit = 5
)

// Rank is packed into the lower 4 bits of a CardID.
type Rank uint8

const (
	RankAce   Rank = 0
	RankTwo   Rank = 1
	RankThree Rank = 2
	RankFour  Rank = 3
	RankFive  Rank = 4
	RankSix   Rank = 5
	RankSeven Rank = 6
	RankEight Rank = 7
	RankNine  Rank = 8
	RankTen   Rank = 9
	RankJack  Rank = 10
	RankQueen Rank = 11
	RankKing  Rank = 12
	RankJoker Rank = 13
)

// Point values.
const (
	AceScore     = 1
	RedKingScore = -1
	FaceScore    = 10
	JokerScore   = 0
)

// ErrUnknownCard is returned by ParseCardID for malformed input.
var ErrUnknownCard = errors.New("engine: unknown card")

// CardID is the immutable identity of a card: upper 4 bits suit, lower 4
// bits rank. It is unique within a standard deck with jokers.
type CardID uint8

// NoCard represents the absence of a card.
const NoCard CardID = 0xFF

// NewCardID constructs a CardID from suit and rank.
func NewCardID(suit Suit, rank Rank) CardID {
	return CardID(uint8(suit)<<4 | uint8(rank)&0x0F)
}

// Suit returns the suit bits (upper 4).
func (id CardID) Suit() Suit { return Suit(uint8(id) >> 4) }

// Rank returns the rank bits (lower 4).
func (id CardID) Rank() Rank { return Rank(uint8(id) & 0x0F) }

// IsRed reports whether the card is hearts, diamonds or the red joker.
func (id CardID) IsRed() bool {
	s := id.Suit()
	return s == SuitHearts || s == SuitDiamonds || s == SuitRedJoker
}

// Points returns the scoring value of the card.
//   - Joker → 0
//   - Ace → +1
//   - Two–Ten → face value
//   - Jack, Queen, black King → 10
//   - Red King (Hearts/Diamonds) → -1
func (id CardID) Points() int {
	switch r := id.Rank(); {
	case id == NoCard:
		return 0
	case r == RankJoker:
		return JokerScore
	case r == RankAce:
		return AceScore
	case r <= RankTen:
		return int(r) + 1
	case r == RankKing && id.IsRed():
		return RedKingScore
	case r <= RankKing:
		return FaceScore
	}
	return 0
}

var rankNames = [...]string{"A", "2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K"}

var suitLetters = [...]string{"S", "H", "D", "C"}

// String returns the ASCII form used on the wire: "7C", "10H", "KD", "RJ", "BJ".
func (id CardID) String() string {
	if id == NoCard {
		return "--"
	}
	switch id.Suit() {
	case SuitRedJoker:
		return "RJ"
	case SuitBlackJoker:
		return "BJ"
	}
	r, s := id.Rank(), id.Suit()
	if int(r) >= len(rankNames) || int(s) >= len(suitLetters) {
		return fmt.Sprintf("?%02x", uint8(id))
	}
	return rankNames[r] + suitLetters[s]
}

// ParseCardID is the inverse of CardID.String. Input is case-insensitive.
func ParseCardID(s string) (CardID, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	switch s {
	case "RJ":
		return NewCardID(SuitRedJoker, RankJoker), nil
	case "BJ":
		return NewCardID(SuitBlackJoker, RankJoker), nil
	}
	if len(s) < 2 {
		return NoCard, fmt.Errorf("%w: %q", ErrUnknownCard, s)
	}
	rankPart, suitPart := s[:len(s)-1], s[len(s)-1:]
	suit := -1
	for i, l := range suitLetters {
		if l == suitPart {
			suit = i
		}
	}
	rank := -1
	for i, n := range rankNames {
		if n == rankPart {
			rank = i
		}
	}
	if suit < 0 || rank < 0 {
		return NoCard, fmt.Errorf("%w: %q", ErrUnknownCard, s)
	}
	return NewCardID(Suit(suit), Rank(rank)), nil
}

// Card is a physical card: an immutable identity plus a face orientation.
// Containers hold *Card so identity survives every move.
type Card struct {
	id     CardID
	faceUp bool
}

// NewCard returns a face-down card.
func NewCard(id CardID) *Card { return &Card{id: id} }

func (c *Card) ID() CardID   { return c.id }
func (c *Card) Rank() Rank   { return c.id.Rank() }
func (c *Card) Suit() Suit   { return c.id.Suit() }
func (c *Card) Points() int  { return c.id.Points() }
func (c *Card) FaceUp() bool { return c.faceUp }

// Flip toggles the face orientation. It has no rule consequence by itself.
func (c *Card) Flip() { c.faceUp = !c.faceUp }

func (c *Card) String() string { return c.id.String() }

// View returns a value copy of the card for snapshots and events.
func (c *Card) View() CardView {
	return CardView{
		ID:     c.id,
		Rank:   c.id.Rank(),
		Suit:   c.id.Suit(),
		FaceUp: c.faceUp,
		Points: c.id.Points(),
	}
}

// CardView is the read-only projection of a card handed to adapters.
type CardView struct {
	ID     CardID
	Rank   Rank
	Suit   Suit
	FaceUp bool
	Points int
}
