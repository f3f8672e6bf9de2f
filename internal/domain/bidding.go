package domain

import "fmt"

// Bid history entries below the contract ranks.
const (
	BidUnset = -1
	BidPass  = 0
)

// NewBidHistory allocates one unset entry per seat.
func NewBidHistory(numPlayers int) []int {
	history := make([]int, numPlayers)
	for i := range history {
		history[i] = BidUnset
	}
	return history
}

// LegalBids lists the actions open to the seat on turn: 0 for pass, k for the
// contract of bid rank k. Lower seats have priority, so a seat may match the
// current highest bid when it sits at or before the seat holding it.
func LegalBids(history []int, current, numPlayers int) ([]int, error) {
	if err := validatePlayerCount(numPlayers); err != nil {
		return nil, err
	}
	if len(history) != numPlayers {
		return nil, fmt.Errorf("%w: %d bids for %d players", ErrInvalidPlayerCount, len(history), numPlayers)
	}
	if current < 0 || current >= numPlayers {
		return nil, fmt.Errorf("%w: seat %d", ErrInvalidSeat, current)
	}

	maxBid, maxSeat := HighestBid(history)
	othersPassed := allButPassed(history, current)

	actions := make([]int, 0, NumContracts+1)
	switch numPlayers {
	case 3:
		// The last seat may still pass before anybody bid; that forces klop.
		if !othersPassed || (current == 2 && history[current] == BidUnset) {
			actions = append(actions, BidPass)
		}
	case 4:
		// Forehand cannot pass once everybody else has: klop or three.
		if current == 0 && history[current] == BidUnset && othersPassed {
			return []int{ContractKlop, ContractThree}, nil
		}
		if !othersPassed {
			actions = append(actions, BidPass)
		}
	}

	biddable, err := BiddableContracts(numPlayers)
	if err != nil {
		return nil, err
	}
	for _, rank := range biddable {
		if rank > maxBid || (rank == maxBid && current <= maxSeat) {
			actions = append(actions, rank)
		}
	}
	return actions, nil
}

// HighestBid returns the highest entry and the lowest seat holding it.
// Unset entries count as -1 and passes as 0.
func HighestBid(history []int) (int, int) {
	maxBid, maxSeat := BidUnset, 0
	for seat, bid := range history {
		if bid > maxBid {
			maxBid, maxSeat = bid, seat
		}
	}
	return maxBid, maxSeat
}

// BiddingConcluded reports whether every seat but current has passed.
func BiddingConcluded(history []int, current int) bool {
	return allButPassed(history, current)
}

// NextBidder moves to the next seat in increasing order that has not passed.
func NextBidder(history []int, current int) int {
	n := len(history)
	next := current
	for i := 0; i < n; i++ {
		next = (next + 1) % n
		if history[next] != BidPass {
			return next
		}
	}
	return current
}

// ResolveBidding returns the declarer and the contract once bidding has
// concluded. When nobody bid, or forehand settled for klop, there is no
// declarer and klop is played.
func ResolveBidding(history []int) (int, int) {
	maxBid, maxSeat := HighestBid(history)
	if maxBid <= ContractKlop {
		return NoSeat, ContractKlop
	}
	return maxSeat, maxBid
}

func allButPassed(history []int, current int) bool {
	for seat, bid := range history {
		if seat == current {
			continue
		}
		if bid != BidPass {
			return false
		}
	}
	return true
}
