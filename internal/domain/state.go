package domain

import (
	"fmt"
	"slices"
	"strings"
)

// Phase represents the lifecycle stage of a single tarok deal.
type Phase string

const (
	// PhaseDealing is entered on construction; the only move is the deal itself.
	PhaseDealing Phase = "dealing"
	// PhaseBidding is the auction for the right to declare a contract.
	PhaseBidding Phase = "bidding"
	// PhaseKingCalling lets the declarer of a partner contract call a king.
	PhaseKingCalling Phase = "king_calling"
	// PhaseTalonExchange is where the declarer exchanges cards with the talon.
	PhaseTalonExchange Phase = "talon_exchange"
	// PhaseTrickPlaying is the play of the tricks.
	PhaseTrickPlaying Phase = "trick_playing"
	// PhaseFinished is terminal.
	PhaseFinished Phase = "finished"
)

// Pseudo actors returned by CurrentActor outside of player decisions.
const (
	ChancePlayer   = -1
	TerminalPlayer = -4
)

const (
	// DealAction is the single chance outcome of the dealing phase.
	DealAction = 0
	// NoSeat marks a missing declarer or partner.
	NoSeat = -1
	// NoCard marks a card that has not been chosen yet.
	NoCard = -1
)

// ActionProbability is one chance outcome.
type ActionProbability struct {
	Action      int
	Probability float64
}

// dealt holds the cards once the deal has happened.
type dealt struct {
	talon []int
	hands [][]int
}

// auction holds one entry per seat: BidUnset, BidPass or a bid rank.
type auction struct {
	bids []int
}

// declaration is fixed when bidding concludes.
type declaration struct {
	declarer   int
	contract   Contract
	calledKing int
	partner    int
}

// GameState is one deal of tarok. It is mutated only through ApplyAction and
// is owned by a single caller; the deck and contract catalog are shared and
// never written.
type GameState struct {
	numPlayers int
	seed       int64
	deck       Deck
	contracts  []Contract

	phase   Phase
	current int
	cards   *dealt       // nil while dealing
	auction *auction     // nil while dealing
	decl    *declaration // nil until bidding concluded
	history []int
}

// NewGame creates a state on the shared default deck and contract catalog.
func NewGame(numPlayers int, seed int64) (*GameState, error) {
	return NewGameState(numPlayers, seed, DefaultDeck, DefaultContracts)
}

// NewGameState creates a state in the dealing phase.
func NewGameState(numPlayers int, seed int64, deck Deck, contracts []Contract) (*GameState, error) {
	if err := validatePlayerCount(numPlayers); err != nil {
		return nil, err
	}
	if len(deck) != DeckSize {
		return nil, fmt.Errorf("%w: deck has %d cards", ErrInvalidCard, len(deck))
	}
	if len(contracts) != NumContracts {
		return nil, fmt.Errorf("%w: catalog has %d contracts", ErrInvalidContract, len(contracts))
	}
	return &GameState{
		numPlayers: numPlayers,
		seed:       seed,
		deck:       deck,
		contracts:  contracts,
		phase:      PhaseDealing,
		current:    ChancePlayer,
	}, nil
}

// CurrentActor returns the seat to act, ChancePlayer while dealing and
// TerminalPlayer once finished.
func (s *GameState) CurrentActor() int {
	switch s.phase {
	case PhaseDealing:
		return ChancePlayer
	case PhaseFinished:
		return TerminalPlayer
	default:
		return s.current
	}
}

// LegalActions lists the action ids available to the current actor. Talon
// exchange and trick play are not implemented and report ErrPhaseNotSupported.
func (s *GameState) LegalActions() ([]int, error) {
	switch s.phase {
	case PhaseDealing:
		// Dealing is a single seeded outcome, not a decision.
		return []int{DealAction}, nil
	case PhaseBidding:
		return LegalBids(s.auction.bids, s.current, s.numPlayers)
	case PhaseKingCalling:
		return s.deck.Kings(), nil
	case PhaseTalonExchange, PhaseTrickPlaying:
		return nil, fmt.Errorf("%w: %s", ErrPhaseNotSupported, s.phase)
	default:
		return []int{}, nil
	}
}

// ChanceOutcomes returns the outcome distribution of a chance node.
func (s *GameState) ChanceOutcomes() []ActionProbability {
	if s.phase == PhaseDealing {
		return []ActionProbability{{Action: DealAction, Probability: 1.0}}
	}
	return nil
}

// ApplyAction advances the state by one action id. Applying an action to a
// finished state is a protocol violation and panics without touching the state.
func (s *GameState) ApplyAction(action int) error {
	var err error
	switch s.phase {
	case PhaseDealing:
		err = s.applyDeal(action)
	case PhaseBidding:
		err = s.applyBid(action)
	case PhaseKingCalling:
		err = s.applyKingCall(action)
	case PhaseTalonExchange, PhaseTrickPlaying:
		err = fmt.Errorf("%w: %s", ErrPhaseNotSupported, s.phase)
	case PhaseFinished:
		panic(fmt.Errorf("%w: action %d", ErrTerminalState, action))
	}
	if err != nil {
		return err
	}
	s.history = append(s.history, action)
	return nil
}

func (s *GameState) applyDeal(action int) error {
	if action != DealAction {
		return fmt.Errorf("%w: %d while dealing", ErrIllegalAction, action)
	}
	talon, hands, err := DealCards(s.numPlayers, s.seed)
	if err != nil {
		return err
	}
	s.cards = &dealt{talon: talon, hands: hands}
	s.auction = &auction{bids: NewBidHistory(s.numPlayers)}
	s.phase = PhaseBidding
	// Lower seats have priority; at four players forehand waits for the others.
	if s.numPlayers == 3 {
		s.current = 0
	} else {
		s.current = 1
	}
	return nil
}

func (s *GameState) applyBid(action int) error {
	legal, err := LegalBids(s.auction.bids, s.current, s.numPlayers)
	if err != nil {
		return err
	}
	if !slices.Contains(legal, action) {
		return fmt.Errorf("%w: bid %d by seat %d", ErrIllegalAction, action, s.current)
	}

	s.auction.bids[s.current] = action
	if BiddingConcluded(s.auction.bids, s.current) {
		s.concludeBidding()
		return nil
	}
	s.current = NextBidder(s.auction.bids, s.current)
	return nil
}

func (s *GameState) concludeBidding() {
	declarer, rank := ResolveBidding(s.auction.bids)
	contract := s.contracts[rank-1]
	s.decl = &declaration{
		declarer:   declarer,
		contract:   contract,
		calledKing: NoCard,
		partner:    NoSeat,
	}

	switch {
	case contract.NeedsKingCalling(s.numPlayers):
		s.phase = PhaseKingCalling
		s.current = declarer
	case contract.TalonCards > 0:
		s.phase = PhaseTalonExchange
		s.current = declarer
	default:
		// Forehand leads the first trick.
		s.phase = PhaseTrickPlaying
		s.current = 0
	}
}

func (s *GameState) applyKingCall(action int) error {
	card, err := s.deck.Card(action)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIllegalAction, err)
	}
	if !card.IsKing() {
		return fmt.Errorf("%w: %s is not a king", ErrIllegalAction, card.LongName)
	}

	s.decl.calledKing = action
	s.decl.partner = NoSeat
	for seat, hand := range s.cards.hands {
		if slices.Contains(hand, action) {
			s.decl.partner = seat
			break
		}
	}
	s.phase = PhaseTalonExchange
	s.current = s.decl.declarer
	return nil
}

// IsTerminal reports whether the deal is finished.
func (s *GameState) IsTerminal() bool {
	return s.phase == PhaseFinished
}

// Returns gives one score per seat for a finished deal. Contract scoring is
// not implemented yet.
func (s *GameState) Returns() ([]float64, error) {
	if s.phase != PhaseFinished {
		return nil, fmt.Errorf("%w: %s", ErrNotTerminal, s.phase)
	}
	return nil, ErrScoringNotSupported
}

// ActionToString names an action id in the current phase.
func (s *GameState) ActionToString(actor, action int) string {
	switch s.phase {
	case PhaseDealing:
		return "Deal cards"
	case PhaseBidding:
		if action == BidPass {
			return "Pass"
		}
		contract, err := lookupContract(s.contracts, action)
		if err != nil {
			return fmt.Sprintf("Unknown bid %d", action)
		}
		return contract.Name
	case PhaseKingCalling, PhaseTalonExchange, PhaseTrickPlaying:
		card, err := s.deck.Card(action)
		if err != nil {
			return fmt.Sprintf("Unknown card %d", action)
		}
		return card.LongName
	default:
		return ""
	}
}

// StringToAction is the inverse of ActionToString in the current phase.
func (s *GameState) StringToAction(actor int, name string) (int, error) {
	switch s.phase {
	case PhaseDealing:
		if name == "Deal cards" {
			return DealAction, nil
		}
	case PhaseBidding:
		if name == "Pass" {
			return BidPass, nil
		}
		for _, contract := range s.contracts {
			if contract.Name == name {
				return contract.BidRank, nil
			}
		}
	case PhaseKingCalling, PhaseTalonExchange, PhaseTrickPlaying:
		ids, err := ResolveCardsByName([]string{name}, s.deck)
		if err != nil {
			return 0, err
		}
		return ids[0], nil
	}
	return 0, fmt.Errorf("%w: %q in %s", ErrIllegalAction, name, s.phase)
}

// Phase returns the current phase.
func (s *GameState) Phase() Phase {
	return s.phase
}

// NumPlayers returns the table size.
func (s *GameState) NumPlayers() int {
	return s.numPlayers
}

// Seed returns the seed the deal is shuffled with.
func (s *GameState) Seed() int64 {
	return s.seed
}

// Deck returns the shared deck the state refers to.
func (s *GameState) Deck() Deck {
	return s.deck
}

// Talon returns the talon as long card names, empty before the deal.
func (s *GameState) Talon() []string {
	if s.cards == nil {
		return []string{}
	}
	names, _ := s.deck.LongNames(s.cards.talon)
	return names
}

// PlayerCards returns a seat's hand as long card names, empty before the deal.
func (s *GameState) PlayerCards(seat int) ([]string, error) {
	if seat < 0 || seat >= s.numPlayers {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSeat, seat)
	}
	if s.cards == nil {
		return []string{}, nil
	}
	return s.deck.LongNames(s.cards.hands[seat])
}

// TalonIDs returns a copy of the talon card ids.
func (s *GameState) TalonIDs() []int {
	if s.cards == nil {
		return nil
	}
	return slices.Clone(s.cards.talon)
}

// HandIDs returns a copy of a seat's card ids.
func (s *GameState) HandIDs(seat int) ([]int, error) {
	if seat < 0 || seat >= s.numPlayers {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSeat, seat)
	}
	if s.cards == nil {
		return nil, nil
	}
	return slices.Clone(s.cards.hands[seat]), nil
}

// Bids returns a copy of the bid history, nil before bidding starts.
func (s *GameState) Bids() []int {
	if s.auction == nil {
		return nil
	}
	return slices.Clone(s.auction.bids)
}

// Declarer returns the declaring seat, NoSeat before bidding concludes or
// when klop is played.
func (s *GameState) Declarer() int {
	if s.decl == nil {
		return NoSeat
	}
	return s.decl.declarer
}

// Contract returns the declared contract once bidding has concluded.
func (s *GameState) Contract() (Contract, bool) {
	if s.decl == nil {
		return Contract{}, false
	}
	return s.decl.contract, true
}

// CalledKing returns the called king's card id, NoCard when none was called.
func (s *GameState) CalledKing() int {
	if s.decl == nil {
		return NoCard
	}
	return s.decl.calledKing
}

// Partner returns the seat holding the called king. NoSeat when the king
// lies in the talon or no king was called.
func (s *GameState) Partner() int {
	if s.decl == nil {
		return NoSeat
	}
	return s.decl.partner
}

// History returns the applied action ids in order.
func (s *GameState) History() []int {
	return slices.Clone(s.history)
}

// Clone returns an independent copy sharing the deck and contract catalog.
func (s *GameState) Clone() *GameState {
	clone := *s
	clone.history = slices.Clone(s.history)
	if s.cards != nil {
		hands := make([][]int, len(s.cards.hands))
		for i, hand := range s.cards.hands {
			hands[i] = slices.Clone(hand)
		}
		clone.cards = &dealt{talon: slices.Clone(s.cards.talon), hands: hands}
	}
	if s.auction != nil {
		clone.auction = &auction{bids: slices.Clone(s.auction.bids)}
	}
	if s.decl != nil {
		decl := *s.decl
		clone.decl = &decl
	}
	return &clone
}

func (s *GameState) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "phase=%s players=%d seed=%d actor=%d", s.phase, s.numPlayers, s.seed, s.CurrentActor())
	if s.auction != nil {
		fmt.Fprintf(&b, " bids=%v", s.auction.bids)
	}
	if s.decl != nil {
		fmt.Fprintf(&b, " declarer=%d contract=%q", s.decl.declarer, s.decl.contract.Name)
	}
	return b.String()
}
