package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "game_config.json")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestReadGameConfig(t *testing.T) {
	path := writeConfig(t, `{"default_players": 3, "receipt_issuer": "club", "bot_min_delay_seconds": 2}`)
	c, err := readGameConfig(path)
	if err != nil {
		t.Fatalf("read config error: %v", err)
	}
	got := withDefaults(*c)
	if got.DefaultPlayers != 3 || got.ReceiptIssuer != "club" {
		t.Fatalf("unexpected config %+v", got)
	}
	if got.BotMinDelaySeconds != 2 || got.BotMaxDelaySeconds != DefaultBotMaxDelay {
		t.Fatalf("delays = %d..%d", got.BotMinDelaySeconds, got.BotMaxDelaySeconds)
	}
	if got.HistoryCollection != DefaultHistoryCollection {
		t.Fatalf("history collection = %q", got.HistoryCollection)
	}
}

func TestReadGameConfigRejects(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad json", `{"default_players":`},
		{"bad players", `{"default_players": 5}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := readGameConfig(writeConfig(t, tt.body)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
	if _, err := readGameConfig(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestGetGameConfigDefaultsWhenUnloaded(t *testing.T) {
	got := GetGameConfig()
	if got.DefaultPlayers != DefaultPlayers || got.ReceiptTTLSeconds != DefaultReceiptTTLSeconds {
		t.Fatalf("unexpected defaults %+v", got)
	}
}

func TestMatchSettingsFromEnv(t *testing.T) {
	base := withDefaults(GameConfig{})

	got := MatchSettingsFromEnv(base, map[string]string{
		EnvBotsEnabled:   "true",
		EnvBotMinDelay:   "4",
		EnvBotMaxDelay:   "2",
		EnvReceiptSecret: "s3cret",
	})
	if !got.BotsEnabled || got.BotMinDelay != 4 || got.BotMaxDelay != 4 || got.ReceiptSecret != "s3cret" {
		t.Fatalf("unexpected settings %+v", got)
	}

	got = MatchSettingsFromEnv(base, map[string]string{EnvBotMinDelay: "abc"})
	if got.BotsEnabled || got.BotMinDelay != DefaultBotMinDelay || got.BotAutoFillDelay != DefaultBotAutoFillDelay {
		t.Fatalf("unexpected settings %+v", got)
	}
}
