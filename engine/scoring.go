package engine

// HandPoints returns the intrinsic value of the seat's hand.
func (g *Game) HandPoints(s Seat) int {
	if !g.seated(s) {
		return 0
	}
	return g.hands[s].Points()
}

// Penalties returns the penalty points recorded against the seat.
func (g *Game) Penalties(s Seat) int {
	if !g.seated(s) {
		return 0
	}
	return g.penalties[s]
}

// Score is hand points plus penalty points. Lower is better.
func (g *Game) Score(s Seat) int {
	return g.HandPoints(s) + g.Penalties(s)
}

// Outcome summarises a finished (or current) round.
type Outcome struct {
	Scores map[Seat]int
	Winner Seat // NoSeat on a tie
	Tie    bool
}

// Outcome compares the seats' scores: the strictly lowest score wins, equal
// lowest scores tie. A single seat always wins its own round.
func (g *Game) Outcome() Outcome {
	o := Outcome{Scores: make(map[Seat]int, len(g.seats)), Winner: NoSeat}
	best := 0
	for i, s := range g.seats {
		sc := g.Score(s)
		o.Scores[s] = sc
		switch {
		case i == 0 || sc < best:
			best = sc
			o.Winner = s
			o.Tie = false
		case sc == best:
			o.Tie = true
		}
	}
	if o.Tie {
		o.Winner = NoSeat
	}
	return o
}
