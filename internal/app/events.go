package app

import "tarok/internal/domain"

// EventKind identifies emitted domain events for Nakama dispatch.
type EventKind string

const (
	EventPlayerJoined     EventKind = "player_joined"
	EventPlayerLeft       EventKind = "player_left"
	EventHandDealt        EventKind = "hand_dealt"
	EventHandStarted      EventKind = "hand_started"
	EventTurnChanged      EventKind = "turn_changed"
	EventActionApplied    EventKind = "action_applied"
	EventBiddingConcluded EventKind = "bidding_concluded"
	EventKingCalled       EventKind = "king_called"
	EventPhaseChanged     EventKind = "phase_changed"
	EventPhaseUnsupported EventKind = "phase_unsupported"
)

// Event is a domain/app event with optional targeted recipients.
type Event struct {
	Kind       EventKind
	Payload    any
	Recipients []string // user IDs; empty means broadcast
}

type PlayerJoinedPayload struct {
	UserID string
	Seat   int
	Owner  bool
	Bot    bool
}

type PlayerLeftPayload struct {
	UserID string
}

// HandDealtPayload is sent privately to the seat it describes.
type HandDealtPayload struct {
	UserID  string
	Seat    int
	CardIDs []int
	Cards   []string
}

// HandStartedPayload is broadcast; the seed stays server side until the hand is archived.
type HandStartedPayload struct {
	NumPlayers int
	Phase      domain.Phase
	TalonSize  int
}

type TurnChangedPayload struct {
	Seat         int
	UserID       string
	Phase        domain.Phase
	LegalActions []int
	Labels       []string
}

type ActionAppliedPayload struct {
	Seat   int
	UserID string
	Action int
	Label  string
}

type BiddingConcludedPayload struct {
	DeclarerSeat   int
	DeclarerUserID string
	Contract       string
	BidRank        int
	Bids           []int
}

type KingCalledPayload struct {
	Seat   int
	CardID int
	King   string
}

type PhaseChangedPayload struct {
	From domain.Phase
	To   domain.Phase
}

// PhaseUnsupportedPayload announces that the hand cannot progress further.
type PhaseUnsupportedPayload struct {
	Phase domain.Phase
}
