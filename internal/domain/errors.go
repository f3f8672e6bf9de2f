package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCard         = errors.New("invalid card id")
	ErrUnknownCardName     = errors.New("unknown card name")
	ErrInvalidPlayerCount  = errors.New("invalid player count")
	ErrInvalidContract     = errors.New("invalid contract bid rank")
	ErrInvalidSeat         = errors.New("invalid seat")
	ErrIllegalAction       = errors.New("illegal action")
	ErrPhaseNotSupported   = errors.New("game phase not supported yet")
	ErrNotTerminal         = errors.New("game is not finished")
	ErrScoringNotSupported = errors.New("scoring not supported yet")
	ErrTerminalState       = errors.New("action applied on a terminal state")
)

// validatePlayerCount accepts the two supported table sizes.
func validatePlayerCount(numPlayers int) error {
	if numPlayers != 3 && numPlayers != 4 {
		return fmt.Errorf("%w: %d", ErrInvalidPlayerCount, numPlayers)
	}
	return nil
}
