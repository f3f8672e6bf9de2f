package nakama

import (
	"context"
	"database/sql"
	"time"

	"github.com/heroiclabs/nakama-common/runtime"

	"tarok/internal/app"
	"tarok/internal/bot"
	"tarok/internal/config"
)

// InitModule wires RPCs and match handlers for Nakama runtime.
func InitModule(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, initializer runtime.Initializer) error {
	if err := config.LoadGameConfig("data/game_config.json"); err != nil {
		logger.Warn("InitModule: Could not load game config, using defaults: %v", err)
	}
	cfg := config.GetGameConfig()
	env, _ := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string)
	settings := config.MatchSettingsFromEnv(cfg, env)

	if settings.BotsEnabled {
		if err := bot.LoadIdentities("data/bot_identities.json"); err != nil {
			logger.Warn("InitModule: Could not load bot identities: %v", err)
		} else {
			bot.ProvisionBots(ctx, nk, logger)
		}
	}

	var receipts *app.ReceiptService
	if settings.ReceiptSecret != "" {
		receipts = app.NewReceiptService(settings.ReceiptSecret, cfg.ReceiptIssuer, time.Duration(cfg.ReceiptTTLSeconds)*time.Second)
	} else {
		logger.Warn("InitModule: %s is not set, deal receipts are disabled.", config.EnvReceiptSecret)
	}
	history := NewNakamaHistoryAdapter(nk, cfg.HistoryCollection, bot.IsBot)

	if err := RegisterRPCs(initializer, receipts); err != nil {
		return err
	}

	if err := initializer.RegisterMatch(MatchNameTarok, func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule) (runtime.Match, error) {
		return newMatchHandler(history, receipts), nil
	}); err != nil {
		return err
	}

	logger.Info("Tarok Go module loaded (%d players by default).", cfg.DefaultPlayers)
	return nil
}

// RegisterRPCs registers Nakama RPC endpoints. Deal verification is only
// exposed when receipts are signed.
func RegisterRPCs(initializer runtime.Initializer, receipts *app.ReceiptService) error {
	if err := initializer.RegisterRpc(RpcQuickMatch, rpcQuickMatch); err != nil {
		return err
	}
	if receipts == nil {
		return nil
	}
	return initializer.RegisterRpc(RpcVerifyDeal, newRpcVerifyDeal(receipts))
}
