package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"

	"tarok/internal/config"
)

// QuickMatchRequest optionally pins the table size.
type QuickMatchRequest struct {
	NumPlayers int `json:"num_players"`
}

// QuickMatchResponse is the payload returned to clients when requesting a lobby-capable match.
type QuickMatchResponse struct {
	MatchID    string `json:"match_id"`
	IsNew      bool   `json:"is_new"`
	NumPlayers int    `json:"num_players"`
}

// matchFinder is the subset of runtime.NakamaModule quick match needs.
type matchFinder interface {
	MatchList(ctx context.Context, limit int, authoritative bool, label string, minSize, maxSize *int, query string) ([]*api.Match, error)
	MatchCreate(ctx context.Context, module string, params map[string]interface{}) (string, error)
}

func rpcQuickMatch(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	return quickMatch(ctx, logger, nk, payload)
}

func quickMatch(ctx context.Context, logger runtime.Logger, nk matchFinder, payload string) (string, error) {
	userID, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)

	req := QuickMatchRequest{}
	if payload != "" {
		if err := json.Unmarshal([]byte(payload), &req); err != nil {
			return "", runtime.NewError("invalid quick match payload", 3)
		}
	}
	if req.NumPlayers == 0 {
		req.NumPlayers = config.GetGameConfig().DefaultPlayers
	}
	if req.NumPlayers != 3 && req.NumPlayers != 4 {
		return "", runtime.NewError("num_players must be 3 or 4", 3)
	}

	query := fmt.Sprintf("+label.%s:>=1 +label.%s:lobby +label.%s:%d",
		MatchLabelKeyOpenSeats, MatchLabelKeyState, MatchLabelKeyPlayers, req.NumPlayers)
	minSize := 1
	maxSize := req.NumPlayers - 1

	matches, err := nk.MatchList(ctx, 10, true, "", &minSize, &maxSize, query)
	if err != nil {
		logger.Error("QuickMatch [User:%s]: MatchList error: %v", userID, err)
		return "", err
	}

	resp := QuickMatchResponse{NumPlayers: req.NumPlayers}
	if len(matches) > 0 {
		resp.MatchID = matches[0].MatchId
		logger.Info("QuickMatch [User:%s]: Found existing match %s", userID, resp.MatchID)
	} else {
		// Seat/owner assignment happens in MatchJoin (server-authoritative).
		matchID, err := nk.MatchCreate(ctx, MatchNameTarok, map[string]interface{}{
			MatchParamNumPlayers: req.NumPlayers,
		})
		if err != nil {
			logger.Error("QuickMatch [User:%s]: MatchCreate error: %v", userID, err)
			return "", err
		}
		resp.MatchID = matchID
		resp.IsNew = true
		logger.Info("QuickMatch [User:%s]: Created new match %s", userID, matchID)
	}

	b, err := json.Marshal(resp)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
