package bot

import (
	"slices"

	"tarok/internal/domain"
)

// Agent represents an autonomous bot player.
type Agent struct {
	ID     string
	Name   string
	Policy Policy
}

// NewAgent builds an agent for a bot user using the policy from its identity.
func NewAgent(userID string) (*Agent, error) {
	identity, _ := GetBotConfig(userID)
	policy, err := NewPolicy(identity.Policy)
	if err != nil {
		return nil, err
	}
	name := identity.DisplayName
	if name == "" {
		name = userID
	}
	return &Agent{ID: userID, Name: name, Policy: policy}, nil
}

// Play asks the agent for its action at seat. It returns ok=false when the
// seat is not on turn or the phase has nothing the engine can offer.
func (a *Agent) Play(state *domain.GameState, seat int) (action int, ok bool, err error) {
	if state.CurrentActor() != seat {
		return 0, false, nil
	}
	legal, err := state.LegalActions()
	if err != nil || len(legal) == 0 {
		return 0, false, err
	}

	if state.Phase() == domain.PhaseKingCalling {
		return a.callKing(state, seat, legal), true, nil
	}

	action, err = a.Policy.Choose(state, seat, legal)
	if err != nil {
		return 0, false, err
	}
	return action, true, nil
}

// callKing prefers a king the agent does not hold itself.
func (a *Agent) callKing(state *domain.GameState, seat int, kings []int) int {
	hand, _ := state.HandIDs(seat)
	for _, king := range kings {
		if !slices.Contains(hand, king) {
			return king
		}
	}
	return kings[0]
}
