package domain

import "fmt"

// Bid ranks. Action id k during bidding declares the contract with BidRank k.
const (
	ContractKlop               = 1
	ContractThree              = 2
	ContractTwo                = 3
	ContractOne                = 4
	ContractSoloThree          = 5
	ContractSoloTwo            = 6
	ContractSoloOne            = 7
	ContractBeggar             = 8
	ContractSoloWithout        = 9
	ContractOpenBeggar         = 10
	ContractColourValatWithout = 11
	ContractValatWithout       = 12

	// NumContracts is the size of the catalog.
	NumContracts = 12
)

// Contract is a declarable game, ordered by bidding strength.
type Contract struct {
	Name       string
	BidRank    int
	MinPlayers int  // smallest table the contract can be played at
	MaxPlayers int  // largest table the contract can be played at
	KingCall   bool // declarer calls a king to pick a partner
	TalonCards int  // cards the declarer takes from the talon
	Score      int  // base score of a won game
	Multiplier int
}

// NeedsKingCalling reports whether the contract is a partner game at the given
// table size. Partners only exist with four players.
func (c Contract) NeedsKingCalling(numPlayers int) bool {
	return c.KingCall && numPlayers == 4
}

func (c Contract) String() string {
	return c.Name
}

// DefaultContracts is built once and shared read-only by every game state.
var DefaultContracts = BuildContracts()

// BuildContracts returns the full catalog indexed by BidRank-1.
func BuildContracts() []Contract {
	return []Contract{
		{Name: "Klop", BidRank: ContractKlop, MinPlayers: 3, MaxPlayers: 4, Score: 70, Multiplier: 1},
		{Name: "Three", BidRank: ContractThree, MinPlayers: 4, MaxPlayers: 4, KingCall: true, TalonCards: 3, Score: 10, Multiplier: 1},
		{Name: "Two", BidRank: ContractTwo, MinPlayers: 4, MaxPlayers: 4, KingCall: true, TalonCards: 2, Score: 20, Multiplier: 1},
		{Name: "One", BidRank: ContractOne, MinPlayers: 4, MaxPlayers: 4, KingCall: true, TalonCards: 1, Score: 30, Multiplier: 1},
		{Name: "Solo three", BidRank: ContractSoloThree, MinPlayers: 3, MaxPlayers: 4, TalonCards: 3, Score: 40, Multiplier: 1},
		{Name: "Solo two", BidRank: ContractSoloTwo, MinPlayers: 3, MaxPlayers: 4, TalonCards: 2, Score: 50, Multiplier: 1},
		{Name: "Solo one", BidRank: ContractSoloOne, MinPlayers: 3, MaxPlayers: 4, TalonCards: 1, Score: 60, Multiplier: 1},
		{Name: "Beggar", BidRank: ContractBeggar, MinPlayers: 3, MaxPlayers: 4, Score: 70, Multiplier: 0},
		{Name: "Solo without", BidRank: ContractSoloWithout, MinPlayers: 3, MaxPlayers: 4, Score: 80, Multiplier: 1},
		{Name: "Open beggar", BidRank: ContractOpenBeggar, MinPlayers: 3, MaxPlayers: 4, Score: 90, Multiplier: 0},
		{Name: "Colour valat without", BidRank: ContractColourValatWithout, MinPlayers: 3, MaxPlayers: 4, Score: 125, Multiplier: 0},
		{Name: "Valat without", BidRank: ContractValatWithout, MinPlayers: 3, MaxPlayers: 4, Score: 500, Multiplier: 0},
	}
}

// ContractByRank looks a contract up in the default catalog.
func ContractByRank(rank int) (Contract, error) {
	return lookupContract(DefaultContracts, rank)
}

func lookupContract(contracts []Contract, rank int) (Contract, error) {
	if rank < 1 || rank > len(contracts) {
		return Contract{}, fmt.Errorf("%w: %d", ErrInvalidContract, rank)
	}
	return contracts[rank-1], nil
}

// BiddableContracts returns the bid ranks players may bid at the given table
// size, weakest first. Klop is never bid: it is what the game falls back to
// when nobody bids. Three is kept out as well, it is only offered to forehand
// once everybody else has passed at a four player table.
func BiddableContracts(numPlayers int) ([]int, error) {
	if err := validatePlayerCount(numPlayers); err != nil {
		return nil, err
	}
	ranks := make([]int, 0, NumContracts)
	for _, c := range DefaultContracts {
		if c.BidRank == ContractKlop || c.BidRank == ContractThree {
			continue
		}
		if numPlayers < c.MinPlayers || numPlayers > c.MaxPlayers {
			continue
		}
		ranks = append(ranks, c.BidRank)
	}
	return ranks, nil
}
