package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"strconv"

	"github.com/heroiclabs/nakama-common/runtime"

	"tarok/internal/app"
	"tarok/internal/domain"
)

// VerifyDealRequest carries a receipt issued when a hand was archived.
type VerifyDealRequest struct {
	Receipt string `json:"receipt"`
}

// VerifyDealResponse echoes the verified deal.
type VerifyDealResponse struct {
	MatchID    string   `json:"match_id"`
	Seed       string   `json:"seed"`
	NumPlayers int      `json:"num_players"`
	Talon      []string `json:"talon"`
}

func newRpcVerifyDeal(receipts *app.ReceiptService) func(context.Context, runtime.Logger, *sql.DB, runtime.NakamaModule, string) (string, error) {
	return func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
		return verifyDeal(ctx, logger, receipts, payload)
	}
}

func verifyDeal(ctx context.Context, logger runtime.Logger, receipts *app.ReceiptService, payload string) (string, error) {
	userID, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)

	req := VerifyDealRequest{}
	if err := json.Unmarshal([]byte(payload), &req); err != nil || req.Receipt == "" {
		return "", runtime.NewError("receipt is required", 3)
	}

	receipt, err := receipts.Verify(req.Receipt)
	if err != nil {
		logger.Warn("VerifyDeal [User:%s]: Rejected receipt: %v", userID, err)
		return "", runtime.NewError("receipt rejected: "+err.Error(), 3)
	}

	talon, err := domain.DefaultDeck.LongNames(receipt.Talon)
	if err != nil {
		return "", runtime.NewError("receipt rejected: "+err.Error(), 3)
	}
	resp := VerifyDealResponse{
		MatchID:    receipt.MatchID,
		Seed:       strconv.FormatInt(receipt.Seed, 10),
		NumPlayers: receipt.NumPlayers,
		Talon:      talon,
	}
	b, err := json.Marshal(resp)
	if err != nil {
		return "", err
	}
	logger.Debug("VerifyDeal [User:%s]: Receipt for match %s verified.", userID, receipt.MatchID)
	return string(b), nil
}
