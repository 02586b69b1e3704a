package engine

import "math/rand/v2"

// Deck is an ordered draw pile. The top of the deck is the last element.
type Deck []*Card

// standardRanks is the construction order of a fresh deck: Two through King,
// then Ace, each rank in suit order.
var standardRanks = [...]Rank{
	RankTwo, RankThree, RankFour, RankFive, RankSix, RankSeven, RankEight,
	RankNine, RankTen, RankJack, RankQueen, RankKing, RankAce,
}

var standardSuits = [...]Suit{SuitSpades, SuitHearts, SuitDiamonds, SuitClubs}

// StandardDeck returns the 52 cards face down, unshuffled.
func StandardDeck() Deck {
	d := make(Deck, 0, 54)
	for _, r := range standardRanks {
		for _, s := range standardSuits {
			d = append(d, NewCard(NewCardID(s, r)))
		}
	}
	return d
}

// StandardDeckWithJokers returns the 52 standard cards plus a red and a
// black joker.
func StandardDeckWithJokers() Deck {
	return append(StandardDeck(),
		NewCard(NewCardID(SuitRedJoker, RankJoker)),
		NewCard(NewCardID(SuitBlackJoker, RankJoker)),
	)
}

// NewDeck builds face-down cards for the given ids, bottom first.
func NewDeck(ids ...CardID) Deck {
	d := make(Deck, len(ids))
	for i, id := range ids {
		d[i] = NewCard(id)
	}
	return d
}

// Shuffle returns a new uniformly random ordering of d. The receiver is left
// untouched.
func (d Deck) Shuffle(rng *rand.Rand) Deck {
	out := make(Deck, len(d))
	copy(out, d)
	rng.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}

// DrawTop removes up to n cards from the top. drawn is in draw order (the
// first element was the top card); short when fewer than n remain.
func (d Deck) DrawTop(n int) (drawn, rest Deck) {
	if n <= 0 {
		return nil, d
	}
	if n > len(d) {
		n = len(d)
	}
	drawn = make(Deck, n)
	for i := 0; i < n; i++ {
		drawn[i] = d[len(d)-1-i]
	}
	return drawn, d[:len(d)-n]
}

// Top returns the top card or nil.
func (d Deck) Top() *Card {
	if len(d) == 0 {
		return nil
	}
	return d[len(d)-1]
}

// IDs returns the card ids bottom first.
func (d Deck) IDs() []CardID {
	ids := make([]CardID, len(d))
	for i, c := range d {
		ids[i] = c.id
	}
	return ids
}

// Pile is the discard pile. Only the top is ever inspected or removed.
type Pile struct {
	cards []*Card
}

func (p *Pile) Len() int { return len(p.cards) }

// Top returns the top card or nil when the pile is empty.
func (p *Pile) Top() *Card {
	if len(p.cards) == 0 {
		return nil
	}
	return p.cards[len(p.cards)-1]
}

func (p *Pile) Push(c *Card) { p.cards = append(p.cards, c) }

// Pop removes and returns the top card, or nil.
func (p *Pile) Pop() *Card {
	if len(p.cards) == 0 {
		return nil
	}
	c := p.cards[len(p.cards)-1]
	p.cards[len(p.cards)-1] = nil
	p.cards = p.cards[:len(p.cards)-1]
	return c
}

// Hand is one seat's ordered cards. Positions are meaningful: players
// memorise them, so replacement keeps the index.
type Hand struct {
	cards []*Card
}

func (h *Hand) Len() int { return len(h.cards) }

// At returns the card at i, or nil when out of range.
func (h *Hand) At(i int) *Card {
	if i < 0 || i >= len(h.cards) {
		return nil
	}
	return h.cards[i]
}

// IndexOf returns the position of the card with the given id, or -1.
func (h *Hand) IndexOf(id CardID) int {
	for i, c := range h.cards {
		if c.id == id {
			return i
		}
	}
	return -1
}

// Points sums the intrinsic value of every card in the hand.
func (h *Hand) Points() int {
	total := 0
	for _, c := range h.cards {
		total += c.Points()
	}
	return total
}

func (h *Hand) add(c *Card) { h.cards = append(h.cards, c) }

// replaceAt puts c at position i and returns the card it displaced.
func (h *Hand) replaceAt(i int, c *Card) *Card {
	old := h.cards[i]
	h.cards[i] = c
	return old
}

// removeAt deletes position i, shifting later cards left.
func (h *Hand) removeAt(i int) *Card {
	c := h.cards[i]
	copy(h.cards[i:], h.cards[i+1:])
	h.cards[len(h.cards)-1] = nil
	h.cards = h.cards[:len(h.cards)-1]
	return c
}

func views(cards []*Card) []CardView {
	out := make([]CardView, len(cards))
	for i, c := range cards {
		out[i] = c.View()
	}
	return out
}
