package bot

import (
	"fmt"
	"slices"

	"tarok/internal/domain"
)

// Policy picks one of the legal actions for the seat on turn.
type Policy interface {
	Choose(state *domain.GameState, seat int, legal []int) (int, error)
}

const (
	PolicyPassive = "passive"
	PolicyEager   = "eager"
)

// PassivePolicy passes whenever it may and otherwise takes the lowest legal action.
type PassivePolicy struct{}

func (PassivePolicy) Choose(state *domain.GameState, seat int, legal []int) (int, error) {
	if len(legal) == 0 {
		return 0, fmt.Errorf("no legal actions for seat %d", seat)
	}
	if state.Phase() == domain.PhaseBidding && slices.Contains(legal, domain.BidPass) {
		return domain.BidPass, nil
	}
	return slices.Min(legal), nil
}

// EagerPolicy bids the lowest contract it is allowed to and only passes when
// nothing else is legal.
type EagerPolicy struct{}

func (EagerPolicy) Choose(state *domain.GameState, seat int, legal []int) (int, error) {
	if len(legal) == 0 {
		return 0, fmt.Errorf("no legal actions for seat %d", seat)
	}
	if state.Phase() == domain.PhaseBidding {
		for _, action := range legal {
			if action != domain.BidPass {
				return action, nil
			}
		}
	}
	return slices.Min(legal), nil
}

// NewPolicy creates a policy from its configured name.
func NewPolicy(name string) (Policy, error) {
	switch name {
	case PolicyPassive, "":
		return PassivePolicy{}, nil
	case PolicyEager:
		return EagerPolicy{}, nil
	default:
		return nil, fmt.Errorf("unknown bot policy: %s", name)
	}
}
