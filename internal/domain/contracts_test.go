package domain

import (
	"errors"
	"slices"
	"testing"
)

func TestContractCatalogOrder(t *testing.T) {
	if len(DefaultContracts) != NumContracts {
		t.Fatalf("expected %d contracts, got %d", NumContracts, len(DefaultContracts))
	}
	for i, c := range DefaultContracts {
		if c.BidRank != i+1 {
			t.Errorf("contract %q at index %d has rank %d", c.Name, i, c.BidRank)
		}
	}
}

func TestBiddableContracts(t *testing.T) {
	tests := []struct {
		players  int
		expected []int
	}{
		{3, []int{5, 6, 7, 8, 9, 10, 11, 12}},
		{4, []int{3, 4, 5, 6, 7, 8, 9, 10, 11, 12}},
	}
	for _, tt := range tests {
		got, err := BiddableContracts(tt.players)
		if err != nil {
			t.Fatalf("players %d: %v", tt.players, err)
		}
		if !slices.Equal(got, tt.expected) {
			t.Errorf("players %d: expected %v, got %v", tt.players, tt.expected, got)
		}
	}

	if _, err := BiddableContracts(5); !errors.Is(err, ErrInvalidPlayerCount) {
		t.Errorf("expected ErrInvalidPlayerCount, got %v", err)
	}
}

func TestNeedsKingCalling(t *testing.T) {
	two, _ := ContractByRank(ContractTwo)
	if !two.NeedsKingCalling(4) {
		t.Error("Two should call a king at four players")
	}
	if two.NeedsKingCalling(3) {
		t.Error("no king is called at three players")
	}
	solo, _ := ContractByRank(ContractSoloOne)
	if solo.NeedsKingCalling(4) {
		t.Error("solo contracts have no partner")
	}
}

func TestContractByRankInvalid(t *testing.T) {
	for _, rank := range []int{0, 13, -1} {
		if _, err := ContractByRank(rank); !errors.Is(err, ErrInvalidContract) {
			t.Errorf("rank %d: expected ErrInvalidContract, got %v", rank, err)
		}
	}
}
