package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"sync"
)

// GameConfig holds the tunables read from data/game_config.json.
type GameConfig struct {
	DefaultPlayers int `json:"default_players"`
	// BotAutoFillDelaySeconds configures how long a lone human waits before bots take the empty seats.
	BotAutoFillDelaySeconds int    `json:"bot_auto_fill_delay_seconds"`
	BotMinDelaySeconds      int    `json:"bot_min_delay_seconds"`
	BotMaxDelaySeconds      int    `json:"bot_max_delay_seconds"`
	ReceiptIssuer           string `json:"receipt_issuer"`
	ReceiptTTLSeconds       int    `json:"receipt_ttl_seconds"`
	HistoryCollection       string `json:"history_collection"`
}

// Defaults used when the file is missing or leaves a field empty.
const (
	DefaultPlayers           = 4
	DefaultBotAutoFillDelay  = 5
	DefaultBotMinDelay       = 1
	DefaultBotMaxDelay       = 3
	DefaultReceiptIssuer     = "tarok"
	DefaultReceiptTTLSeconds = 7 * 24 * 3600
	DefaultHistoryCollection = "tarok_hands"
)

var (
	cfg      *GameConfig
	loadOnce sync.Once
	loadErr  error
)

// LoadGameConfig loads the game configuration from the given path.
func LoadGameConfig(path string) error {
	loadOnce.Do(func() {
		c, err := readGameConfig(path)
		if err != nil {
			loadErr = err
			return
		}
		cfg = c
	})
	return loadErr
}

func readGameConfig(path string) (*GameConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read game config: %w", err)
	}

	var c GameConfig
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal game config: %w", err)
	}
	if c.DefaultPlayers != 0 && c.DefaultPlayers != 3 && c.DefaultPlayers != 4 {
		return nil, fmt.Errorf("game config: default_players must be 3 or 4, got %d", c.DefaultPlayers)
	}
	return &c, nil
}

// GetGameConfig returns the loaded configuration with defaults filled in.
// It never returns nil.
func GetGameConfig() GameConfig {
	var c GameConfig
	if cfg != nil {
		c = *cfg
	}
	return withDefaults(c)
}

func withDefaults(c GameConfig) GameConfig {
	if c.DefaultPlayers == 0 {
		c.DefaultPlayers = DefaultPlayers
	}
	if c.BotAutoFillDelaySeconds <= 0 {
		c.BotAutoFillDelaySeconds = DefaultBotAutoFillDelay
	}
	if c.BotMinDelaySeconds <= 0 {
		c.BotMinDelaySeconds = DefaultBotMinDelay
	}
	if c.BotMaxDelaySeconds < c.BotMinDelaySeconds {
		c.BotMaxDelaySeconds = max(DefaultBotMaxDelay, c.BotMinDelaySeconds)
	}
	if c.ReceiptIssuer == "" {
		c.ReceiptIssuer = DefaultReceiptIssuer
	}
	if c.ReceiptTTLSeconds <= 0 {
		c.ReceiptTTLSeconds = DefaultReceiptTTLSeconds
	}
	if c.HistoryCollection == "" {
		c.HistoryCollection = DefaultHistoryCollection
	}
	return c
}

// Runtime env keys read from the Nakama server configuration.
const (
	EnvBotsEnabled   = "tarok_bots_enabled"
	EnvBotMinDelay   = "tarok_bot_min_delay_sec"
	EnvBotMaxDelay   = "tarok_bot_max_delay_sec"
	EnvReceiptSecret = "tarok_receipt_secret"
)

// MatchSettings are the per-match knobs after env overrides.
type MatchSettings struct {
	BotsEnabled      bool
	BotMinDelay      int
	BotMaxDelay      int
	BotAutoFillDelay int
	ReceiptSecret    string
}

// MatchSettingsFromEnv applies Nakama runtime env overrides on top of c.
func MatchSettingsFromEnv(c GameConfig, env map[string]string) MatchSettings {
	s := MatchSettings{
		BotMinDelay:      c.BotMinDelaySeconds,
		BotMaxDelay:      c.BotMaxDelaySeconds,
		BotAutoFillDelay: c.BotAutoFillDelaySeconds,
	}
	if val, ok := env[EnvBotsEnabled]; ok {
		s.BotsEnabled = val == "true"
	}
	if val, ok := env[EnvBotMinDelay]; ok {
		if i, err := strconv.Atoi(val); err == nil && i > 0 {
			s.BotMinDelay = i
		}
	}
	if val, ok := env[EnvBotMaxDelay]; ok {
		if i, err := strconv.Atoi(val); err == nil && i > 0 {
			s.BotMaxDelay = i
		}
	}
	if s.BotMaxDelay < s.BotMinDelay {
		s.BotMaxDelay = s.BotMinDelay
	}
	s.ReceiptSecret = env[EnvReceiptSecret]
	return s
}
