package nakama

const (
	// RpcQuickMatch is the Nakama RPC id clients call to find or create a lobby-capable match.
	RpcQuickMatch = "tarok_quick_match"
	// RpcVerifyDeal checks a signed deal receipt against its seed.
	RpcVerifyDeal = "tarok_verify_deal"

	// MatchNameTarok is the authoritative match handler name registered with Nakama.
	MatchNameTarok = "tarok_match"
)

// Match label keys, queried as "+label.<key>:<value>".
const (
	MatchLabelKeyOpenSeats = "open"
	MatchLabelKeyPlayers   = "players"
	MatchLabelKeyState     = "state"
)

// Match params accepted by MatchCreate.
const (
	MatchParamNumPlayers = "num_players"
	MatchParamSeed       = "seed"
)

// Op codes for client messages and server events.
const (
	// Client -> Server
	OpStartHand int64 = 1
	OpAction    int64 = 2 // structpb.Struct {"action": <id>} or {"label": <name>}

	// Server -> Client events
	OpMatchState       int64 = 100
	OpPlayerJoined     int64 = 101
	OpPlayerLeft       int64 = 102
	OpHandDealt        int64 = 103 // send privately
	OpHandStarted      int64 = 104
	OpTurnChanged      int64 = 105
	OpActionApplied    int64 = 106
	OpBiddingConcluded int64 = 107
	OpKingCalled       int64 = 108
	OpPhaseChanged     int64 = 109
	OpPhaseUnsupported int64 = 110
	OpHandArchived     int64 = 111
	OpGameError        int64 = 199
)
