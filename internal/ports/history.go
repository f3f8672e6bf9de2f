package ports

import "context"

// HandRecord summarises one deal once its bidding has concluded.
type HandRecord struct {
	MatchID        string   `json:"match_id"`
	Seed           int64    `json:"seed"`
	NumPlayers     int      `json:"num_players"`
	Seats          []string `json:"seats"`
	Bids           []int    `json:"bids"`
	DeclarerUserID string   `json:"declarer_user_id,omitempty"`
	Contract       string   `json:"contract"`
	CalledKing     string   `json:"called_king,omitempty"`
	Talon          []string `json:"talon"`
	Receipt        string   `json:"receipt,omitempty"`
	RecordedAt     int64    `json:"recorded_at"`
}

// HistoryPort persists hand summaries.
type HistoryPort interface {
	// RecordHand stores the record for every seated player.
	// Returns an error if the write fails; callers treat history as best-effort.
	RecordHand(ctx context.Context, record HandRecord) error
}
