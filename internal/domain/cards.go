package domain

import "fmt"

// Suit identifies one of the five tarok suits.
type Suit string

const (
	SuitHearts   Suit = "hearts"
	SuitDiamonds Suit = "diamonds"
	SuitClubs    Suit = "clubs"
	SuitSpades   Suit = "spades"
	SuitTarok    Suit = "tarok"
)

const (
	// DeckSize is the number of cards in a tarok deck.
	DeckSize = 54
	// TalonSize is the number of cards set aside regardless of player count.
	TalonSize = 6
	// NumTaroks is the number of trump cards, Pagat to Skis.
	NumTaroks = 22
)

// Card is a single tarok card. Cards are immutable once the deck is built.
type Card struct {
	ID        int
	Suit      Suit
	Rank      int // 1-based position within the suit, higher beats lower
	Points    int // counting value above the base point every card carries
	ShortName string
	LongName  string
}

// IsTarok reports whether the card is a trump.
func (c Card) IsTarok() bool {
	return c.Suit == SuitTarok
}

// IsKing reports whether the card is the king of a colour suit.
func (c Card) IsKing() bool {
	return c.Suit != SuitTarok && c.Rank == 8
}

func (c Card) String() string {
	return c.LongName
}

// Deck is the full ordered card set, indexed by card id.
type Deck []Card

// DefaultDeck is built once and shared read-only by every game state.
var DefaultDeck = BuildDeck()

var tarokNames = [NumTaroks]string{
	"Pagat", "II", "III", "IV", "V", "VI", "VII", "VIII", "IX", "X", "XI",
	"XII", "XIII", "XIV", "XV", "XVI", "XVII", "XVIII", "XIX", "XX", "Mond", "Skis",
}

type suitLayout struct {
	suit   Suit
	prefix string
	title  string
	pips   [4]string
}

// Colour suits in id order. Red pips rank 4 lowest to 1 highest, black pips 7 to 10.
var colourSuits = []suitLayout{
	{suit: SuitHearts, prefix: "H", title: "Hearts", pips: [4]string{"4", "3", "2", "1"}},
	{suit: SuitDiamonds, prefix: "D", title: "Diamonds", pips: [4]string{"4", "3", "2", "1"}},
	{suit: SuitSpades, prefix: "S", title: "Spades", pips: [4]string{"7", "8", "9", "10"}},
	{suit: SuitClubs, prefix: "C", title: "Clubs", pips: [4]string{"7", "8", "9", "10"}},
}

var courtCards = [4]struct {
	short, long string
	points      int
}{
	{"J", "Jack", 1},
	{"C", "Knight", 2},
	{"Q", "Queen", 3},
	{"K", "King", 4},
}

// BuildDeck returns the 54 cards in id order: taroks I to Skis, then Hearts,
// Diamonds, Spades and Clubs, each from its lowest to its highest card.
func BuildDeck() Deck {
	deck := make(Deck, 0, DeckSize)
	for i, name := range tarokNames {
		rank := i + 1
		points := 0
		if rank == 1 || rank == 21 || rank == 22 {
			points = 4
		}
		deck = append(deck, Card{
			ID:        len(deck),
			Suit:      SuitTarok,
			Rank:      rank,
			Points:    points,
			ShortName: fmt.Sprintf("T%d", rank),
			LongName:  name,
		})
	}

	for _, layout := range colourSuits {
		for i, pip := range layout.pips {
			deck = append(deck, Card{
				ID:        len(deck),
				Suit:      layout.suit,
				Rank:      i + 1,
				ShortName: layout.prefix + pip,
				LongName:  fmt.Sprintf("%s of %s", pip, layout.title),
			})
		}
		for i, court := range courtCards {
			deck = append(deck, Card{
				ID:        len(deck),
				Suit:      layout.suit,
				Rank:      len(layout.pips) + i + 1,
				Points:    court.points,
				ShortName: layout.prefix + court.short,
				LongName:  fmt.Sprintf("%s of %s", court.long, layout.title),
			})
		}
	}
	return deck
}

// Card returns the card with the given id.
func (d Deck) Card(id int) (Card, error) {
	if id < 0 || id >= len(d) {
		return Card{}, fmt.Errorf("%w: %d", ErrInvalidCard, id)
	}
	return d[id], nil
}

// LongNames maps card ids to their long display names.
func (d Deck) LongNames(ids []int) ([]string, error) {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		card, err := d.Card(id)
		if err != nil {
			return nil, err
		}
		names = append(names, card.LongName)
	}
	return names, nil
}

// Kings returns the ids of the four colour kings in id order.
func (d Deck) Kings() []int {
	kings := make([]int, 0, 4)
	for _, card := range d {
		if card.IsKing() {
			kings = append(kings, card.ID)
		}
	}
	return kings
}

// CardPoints counts the cards the Slovenian way: every card is worth its
// Points plus one, full groups of three lose two points and a trailing
// incomplete group loses one. The total of the whole deck is 70.
func CardPoints(ids []int, deck Deck) (int, error) {
	sum := 0
	for _, id := range ids {
		card, err := deck.Card(id)
		if err != nil {
			return 0, err
		}
		sum += card.Points + 1
	}

	n := len(ids)
	sum -= 2 * (n / 3)
	if n%3 != 0 {
		sum--
	}
	return sum, nil
}

// ResolveCardsByName maps long display names to card ids. A name has to match
// exactly one card.
func ResolveCardsByName(names []string, deck Deck) ([]int, error) {
	ids := make([]int, 0, len(names))
	for _, name := range names {
		found := -1
		for _, card := range deck {
			if card.LongName != name {
				continue
			}
			if found >= 0 {
				return nil, fmt.Errorf("%w: %q is ambiguous", ErrUnknownCardName, name)
			}
			found = card.ID
		}
		if found < 0 {
			return nil, fmt.Errorf("%w: %q", ErrUnknownCardName, name)
		}
		ids = append(ids, found)
	}
	return ids, nil
}
