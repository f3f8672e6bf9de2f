package app

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"tarok/internal/domain"
)

// Service contains tarok use-cases operating on domain state.
type Service struct {
	rng *rand.Rand
}

// NewService constructs a Service with provided rng or a time-seeded default.
// The rng only picks seeds for hands that were not given one.
func NewService(rng *rand.Rand) *Service {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Service{rng: rng}
}

var (
	ErrNoHand        = errors.New("no hand in progress")
	ErrNotYourTurn   = errors.New("not your turn")
	ErrSeatsMismatch = errors.New("seat list does not match a tarok table")
	ErrHandFinished  = errors.New("hand already finished")
	ErrUnknownPlayer = errors.New("player not found")
)

// Hand binds a game state to the users occupying its seats.
type Hand struct {
	Seats []string
	State *domain.GameState
}

// SeatOf returns the seat of userID or domain.NoSeat.
func (h *Hand) SeatOf(userID string) int {
	for i, id := range h.Seats {
		if id == userID {
			return i
		}
	}
	return domain.NoSeat
}

// UserAt returns the user sitting at seat, empty for pseudo seats.
func (h *Hand) UserAt(seat int) string {
	if seat < 0 || seat >= len(h.Seats) {
		return ""
	}
	return h.Seats[seat]
}

// CurrentUserID returns the user expected to act next.
func (h *Hand) CurrentUserID() string {
	return h.UserAt(h.State.CurrentActor())
}

// NextSeed draws a seed for a hand that was not given one.
func (s *Service) NextSeed() int64 {
	return s.rng.Int63()
}

// StartHand builds a game for the given seats in seat order, performs the deal
// and returns the private hands plus the opening turn.
func (s *Service) StartHand(seats []string, seed int64) (*Hand, []Event, error) {
	if len(seats) != 3 && len(seats) != 4 {
		return nil, nil, fmt.Errorf("%w: %d seats", ErrSeatsMismatch, len(seats))
	}
	for i, userID := range seats {
		if userID == "" {
			return nil, nil, fmt.Errorf("%w: seat %d is empty", ErrSeatsMismatch, i)
		}
	}

	state, err := domain.NewGame(len(seats), seed)
	if err != nil {
		return nil, nil, err
	}
	if err := state.ApplyAction(domain.DealAction); err != nil {
		return nil, nil, fmt.Errorf("deal: %w", err)
	}

	hand := &Hand{Seats: append([]string(nil), seats...), State: state}
	events := make([]Event, 0, len(seats)+2)

	for seat, userID := range hand.Seats {
		ids, err := state.HandIDs(seat)
		if err != nil {
			return nil, nil, err
		}
		cards, err := state.PlayerCards(seat)
		if err != nil {
			return nil, nil, err
		}
		events = append(events, Event{
			Kind: EventHandDealt,
			Payload: HandDealtPayload{
				UserID:  userID,
				Seat:    seat,
				CardIDs: ids,
				Cards:   cards,
			},
			Recipients: []string{userID},
		})
	}

	events = append(events, Event{
		Kind: EventHandStarted,
		Payload: HandStartedPayload{
			NumPlayers: len(seats),
			Phase:      state.Phase(),
			TalonSize:  len(state.TalonIDs()),
		},
	})
	events = append(events, s.turnEvent(hand))

	return hand, events, nil
}

// Act applies action on behalf of seat and reports what changed.
func (s *Service) Act(hand *Hand, seat int, action int) ([]Event, error) {
	if hand == nil || hand.State == nil {
		return nil, ErrNoHand
	}
	state := hand.State
	if state.IsTerminal() {
		return nil, ErrHandFinished
	}
	if seat < 0 || seat >= len(hand.Seats) {
		return nil, fmt.Errorf("%w: seat %d", ErrUnknownPlayer, seat)
	}
	if state.CurrentActor() != seat {
		return nil, fmt.Errorf("%w: seat %d, expected %d", ErrNotYourTurn, seat, state.CurrentActor())
	}

	from := state.Phase()
	label := state.ActionToString(seat, action)
	if err := state.ApplyAction(action); err != nil {
		return nil, err
	}

	events := []Event{{
		Kind: EventActionApplied,
		Payload: ActionAppliedPayload{
			Seat:   seat,
			UserID: hand.UserAt(seat),
			Action: action,
			Label:  label,
		},
	}}

	to := state.Phase()
	if from == domain.PhaseBidding && to != domain.PhaseBidding {
		contract, _ := state.Contract()
		events = append(events, Event{
			Kind: EventBiddingConcluded,
			Payload: BiddingConcludedPayload{
				DeclarerSeat:   state.Declarer(),
				DeclarerUserID: hand.UserAt(state.Declarer()),
				Contract:       contract.Name,
				BidRank:        contract.BidRank,
				Bids:           state.Bids(),
			},
		})
	}
	if from == domain.PhaseKingCalling && to != domain.PhaseKingCalling {
		// The partner stays hidden until the king is played.
		events = append(events, Event{
			Kind: EventKingCalled,
			Payload: KingCalledPayload{
				Seat:   seat,
				CardID: state.CalledKing(),
				King:   label,
			},
		})
	}
	if from != to {
		events = append(events, Event{
			Kind:    EventPhaseChanged,
			Payload: PhaseChangedPayload{From: from, To: to},
		})
	}

	if Supported(to) {
		events = append(events, s.turnEvent(hand))
	} else {
		events = append(events, Event{
			Kind:    EventPhaseUnsupported,
			Payload: PhaseUnsupportedPayload{Phase: to},
		})
	}
	return events, nil
}

// Supported reports whether the engine can produce moves in phase.
func Supported(phase domain.Phase) bool {
	switch phase {
	case domain.PhaseDealing, domain.PhaseBidding, domain.PhaseKingCalling:
		return true
	default:
		return false
	}
}

func (s *Service) turnEvent(hand *Hand) Event {
	state := hand.State
	seat := state.CurrentActor()
	legal, _ := state.LegalActions()
	labels := make([]string, 0, len(legal))
	for _, a := range legal {
		labels = append(labels, state.ActionToString(seat, a))
	}
	return Event{
		Kind: EventTurnChanged,
		Payload: TurnChangedPayload{
			Seat:         seat,
			UserID:       hand.UserAt(seat),
			Phase:        state.Phase(),
			LegalActions: legal,
			Labels:       labels,
		},
	}
}
