package domain

import (
	"math/rand"
	"sort"
)

// ShuffledCardIDs returns all card ids in an order fully determined by seed.
func ShuffledCardIDs(seed int64) []int {
	ids := make([]int, DeckSize)
	for i := range ids {
		ids[i] = i
	}
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
	return ids
}

// DealCards shuffles the deck with the given seed, sets the first six cards
// aside as the talon and splits the rest into equal contiguous hands, each
// sorted by card id. The same seed always produces the same deal.
func DealCards(numPlayers int, seed int64) ([]int, [][]int, error) {
	if err := validatePlayerCount(numPlayers); err != nil {
		return nil, nil, err
	}

	shuffled := ShuffledCardIDs(seed)
	talon := append([]int(nil), shuffled[:TalonSize]...)

	handSize := (DeckSize - TalonSize) / numPlayers
	hands := make([][]int, numPlayers)
	idx := TalonSize
	for p := 0; p < numPlayers; p++ {
		hand := append([]int(nil), shuffled[idx:idx+handSize]...)
		sort.Ints(hand)
		hands[p] = hand
		idx += handSize
	}
	return talon, hands, nil
}

// HandHasTarok reports whether any card of the hand is a trump. A hand without
// taroks is entitled to a redeal under the official rules; the engine leaves
// that decision to the host.
func HandHasTarok(hand []int, deck Deck) bool {
	for _, id := range hand {
		if card, err := deck.Card(id); err == nil && card.IsTarok() {
			return true
		}
	}
	return false
}
