package domain

import (
	"errors"
	"slices"
	"testing"
)

func newDealtGame(t *testing.T, players int, seed int64) *GameState {
	t.Helper()
	g, err := NewGame(players, seed)
	if err != nil {
		t.Fatalf("new game: %v", err)
	}
	if err := g.ApplyAction(DealAction); err != nil {
		t.Fatalf("deal: %v", err)
	}
	return g
}

func applyAll(t *testing.T, g *GameState, actions ...int) {
	t.Helper()
	for _, a := range actions {
		if err := g.ApplyAction(a); err != nil {
			t.Fatalf("action %d by seat %d: %v", a, g.CurrentActor(), err)
		}
	}
}

func TestNewGameDealsThreePlayers(t *testing.T) {
	g, err := NewGame(3, 42)
	if err != nil {
		t.Fatal(err)
	}
	if g.CurrentActor() != ChancePlayer {
		t.Fatalf("expected chance actor, got %d", g.CurrentActor())
	}
	if g.Phase() != PhaseDealing {
		t.Fatalf("expected dealing, got %s", g.Phase())
	}

	outcomes := g.ChanceOutcomes()
	if len(outcomes) != 1 || outcomes[0].Action != DealAction || outcomes[0].Probability != 1.0 {
		t.Fatalf("unexpected chance outcomes %v", outcomes)
	}
	legal, _ := g.LegalActions()
	if !slices.Equal(legal, []int{DealAction}) {
		t.Fatalf("expected only the deal action, got %v", legal)
	}

	if err := g.ApplyAction(DealAction); err != nil {
		t.Fatal(err)
	}
	if g.Phase() != PhaseBidding {
		t.Errorf("expected bidding, got %s", g.Phase())
	}
	if len(g.Talon()) != TalonSize {
		t.Errorf("talon has %d cards", len(g.Talon()))
	}
	for seat := 0; seat < 3; seat++ {
		cards, err := g.PlayerCards(seat)
		if err != nil {
			t.Fatal(err)
		}
		if len(cards) != 16 {
			t.Errorf("seat %d holds %d cards", seat, len(cards))
		}
	}
	if g.CurrentActor() != 0 {
		t.Errorf("expected seat 0 to bid first, got %d", g.CurrentActor())
	}
}

func TestNewGameInvalidPlayers(t *testing.T) {
	if _, err := NewGame(5, 1); !errors.Is(err, ErrInvalidPlayerCount) {
		t.Errorf("expected ErrInvalidPlayerCount, got %v", err)
	}
}

func TestDealMatchesDealer(t *testing.T) {
	g := newDealtGame(t, 4, 99)
	talon, hands, _ := DealCards(4, 99)
	if !slices.Equal(g.TalonIDs(), talon) {
		t.Errorf("talon differs from dealer")
	}
	for seat := range hands {
		ids, _ := g.HandIDs(seat)
		if !slices.Equal(ids, hands[seat]) {
			t.Errorf("seat %d differs from dealer", seat)
		}
	}
	if g.CurrentActor() != 1 {
		t.Errorf("four player bidding starts at seat 1, got %d", g.CurrentActor())
	}
}

func TestDealRejectsOtherActions(t *testing.T) {
	g, _ := NewGame(3, 1)
	if err := g.ApplyAction(3); !errors.Is(err, ErrIllegalAction) {
		t.Errorf("expected ErrIllegalAction, got %v", err)
	}
	if g.Phase() != PhaseDealing {
		t.Errorf("state moved after an illegal action")
	}
}

func TestBiddingToSoloThree(t *testing.T) {
	g := newDealtGame(t, 3, 42)
	applyAll(t, g, ContractSoloThree, BidPass, BidPass)

	if g.CurrentActor() != 0 {
		t.Fatalf("bidding should return to seat 0, got %d", g.CurrentActor())
	}
	applyAll(t, g, ContractSoloThree)

	if g.Phase() != PhaseTalonExchange {
		t.Fatalf("expected talon exchange, got %s", g.Phase())
	}
	contract, ok := g.Contract()
	if !ok || contract.BidRank != ContractSoloThree {
		t.Errorf("expected solo three, got %v", contract)
	}
	if g.Declarer() != 0 || g.CurrentActor() != 0 {
		t.Errorf("declarer %d actor %d", g.Declarer(), g.CurrentActor())
	}
	if _, err := g.LegalActions(); !errors.Is(err, ErrPhaseNotSupported) {
		t.Errorf("expected ErrPhaseNotSupported, got %v", err)
	}
	if err := g.ApplyAction(0); !errors.Is(err, ErrPhaseNotSupported) {
		t.Errorf("expected ErrPhaseNotSupported, got %v", err)
	}
}

func TestBiddingAllPassIsKlop(t *testing.T) {
	g := newDealtGame(t, 3, 7)
	applyAll(t, g, BidPass, BidPass, BidPass)

	if g.Phase() != PhaseTrickPlaying {
		t.Fatalf("expected trick playing, got %s", g.Phase())
	}
	contract, _ := g.Contract()
	if contract.BidRank != ContractKlop || g.Declarer() != NoSeat {
		t.Errorf("expected klop without declarer, got %s by %d", contract.Name, g.Declarer())
	}
	if g.CurrentActor() != 0 {
		t.Errorf("forehand leads, got %d", g.CurrentActor())
	}
}

func TestBiddingRejectsIllegalBid(t *testing.T) {
	g := newDealtGame(t, 3, 7)
	applyAll(t, g, ContractSoloOne)
	before := g.Bids()
	if err := g.ApplyAction(ContractSoloThree); !errors.Is(err, ErrIllegalAction) {
		t.Errorf("expected ErrIllegalAction, got %v", err)
	}
	if !slices.Equal(before, g.Bids()) || g.CurrentActor() != 1 {
		t.Errorf("illegal bid changed the state")
	}
}

func TestKingCalling(t *testing.T) {
	g := newDealtGame(t, 4, 2024)
	applyAll(t, g, BidPass, BidPass, BidPass)

	legal, _ := g.LegalActions()
	if !slices.Equal(legal, []int{ContractKlop, ContractThree}) {
		t.Fatalf("forehand should choose klop or three, got %v", legal)
	}
	applyAll(t, g, ContractThree)

	if g.Phase() != PhaseKingCalling || g.CurrentActor() != 0 {
		t.Fatalf("expected king calling by seat 0, got %s/%d", g.Phase(), g.CurrentActor())
	}
	kings, _ := g.LegalActions()
	if !slices.Equal(kings, DefaultDeck.Kings()) {
		t.Fatalf("expected the four kings, got %v", kings)
	}
	if err := g.ApplyAction(0); !errors.Is(err, ErrIllegalAction) {
		t.Errorf("calling Pagat should fail, got %v", err)
	}

	king := kings[3]
	applyAll(t, g, king)

	holder := NoSeat
	for seat := 0; seat < 4; seat++ {
		ids, _ := g.HandIDs(seat)
		if slices.Contains(ids, king) {
			holder = seat
		}
	}
	if g.CalledKing() != king || g.Partner() != holder {
		t.Errorf("called %d partner %d, expected partner %d", g.CalledKing(), g.Partner(), holder)
	}
	if g.Phase() != PhaseTalonExchange {
		t.Errorf("expected talon exchange, got %s", g.Phase())
	}
}

func TestForehandKlopFourPlayers(t *testing.T) {
	g := newDealtGame(t, 4, 5)
	applyAll(t, g, BidPass, BidPass, BidPass, ContractKlop)
	if g.Phase() != PhaseTrickPlaying || g.Declarer() != NoSeat {
		t.Errorf("expected klop trick play, got %s declarer %d", g.Phase(), g.Declarer())
	}
}

func TestFinishedStatePanics(t *testing.T) {
	g := newDealtGame(t, 3, 1)
	g.phase = PhaseFinished

	if !g.IsTerminal() || g.CurrentActor() != TerminalPlayer {
		t.Fatalf("expected terminal state")
	}
	if _, err := g.Returns(); !errors.Is(err, ErrScoringNotSupported) {
		t.Errorf("expected ErrScoringNotSupported, got %v", err)
	}

	history := g.History()
	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !errors.Is(err, ErrTerminalState) {
			t.Errorf("expected ErrTerminalState panic, got %v", r)
		}
		if !slices.Equal(history, g.History()) {
			t.Errorf("history changed")
		}
	}()
	_ = g.ApplyAction(BidPass)
}

func TestReturnsBeforeFinish(t *testing.T) {
	g := newDealtGame(t, 3, 1)
	if _, err := g.Returns(); !errors.Is(err, ErrNotTerminal) {
		t.Errorf("expected ErrNotTerminal, got %v", err)
	}
}

func TestActionStrings(t *testing.T) {
	g, _ := NewGame(4, 3)
	if s := g.ActionToString(ChancePlayer, DealAction); s != "Deal cards" {
		t.Errorf("unexpected deal string %q", s)
	}
	applyAll(t, g, DealAction)

	for _, action := range []int{BidPass, ContractTwo, ContractValatWithout} {
		name := g.ActionToString(1, action)
		back, err := g.StringToAction(1, name)
		if err != nil || back != action {
			t.Errorf("%d -> %q -> %d (%v)", action, name, back, err)
		}
	}
	if _, err := g.StringToAction(1, "Grand slam"); !errors.Is(err, ErrIllegalAction) {
		t.Errorf("expected ErrIllegalAction, got %v", err)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	g := newDealtGame(t, 3, 11)
	clone := g.Clone()
	applyAll(t, clone, ContractSoloTwo)

	if slices.Equal(g.Bids(), clone.Bids()) {
		t.Errorf("bid on the clone leaked into the original")
	}
	if len(g.History()) != 1 || len(clone.History()) != 2 {
		t.Errorf("history lengths %d/%d", len(g.History()), len(clone.History()))
	}
}

func TestPlayerCardsInvalidSeat(t *testing.T) {
	g, _ := NewGame(3, 1)
	if _, err := g.PlayerCards(3); !errors.Is(err, ErrInvalidSeat) {
		t.Errorf("expected ErrInvalidSeat, got %v", err)
	}
	cards, err := g.PlayerCards(0)
	if err != nil || len(cards) != 0 {
		t.Errorf("expected no cards before the deal, got %v (%v)", cards, err)
	}
}

func TestBiddingAlwaysTerminatesPassing(t *testing.T) {
	for _, players := range []int{3, 4} {
		g := newDealtGame(t, players, 77)
		for steps := 0; g.Phase() == PhaseBidding; steps++ {
			if steps > 20 {
				t.Fatalf("bidding did not end for %d players", players)
			}
			legal, err := g.LegalActions()
			if err != nil || len(legal) == 0 {
				t.Fatalf("no legal bids: %v", err)
			}
			applyAll(t, g, legal[0])
		}
	}
}
