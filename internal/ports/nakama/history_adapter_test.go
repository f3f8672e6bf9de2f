package nakama

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"

	"tarok/internal/ports"
)

type mockStorage struct {
	writes []*runtime.StorageWrite
	err    error
}

func (m *mockStorage) StorageWrite(ctx context.Context, writes []*runtime.StorageWrite) ([]*api.StorageObjectAck, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.writes = append(m.writes, writes...)
	return make([]*api.StorageObjectAck, len(writes)), nil
}

func TestHistoryAdapter_WritesHumanSeatsOnly(t *testing.T) {
	storage := &mockStorage{}
	adapter := NewNakamaHistoryAdapter(storage, "tarok_hands", func(id string) bool { return id == "bot-1" })

	record := ports.HandRecord{MatchID: "m1", Seed: 42, NumPlayers: 3, Seats: []string{"u1", "bot-1", "u2"}, Contract: "Klop"}
	if err := adapter.RecordHand(context.Background(), record); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(storage.writes) != 2 {
		t.Fatalf("Expected 2 writes, got %d", len(storage.writes))
	}
	for _, w := range storage.writes {
		if w.Collection != "tarok_hands" || w.Key != "m1:42" {
			t.Fatalf("Unexpected object %s/%s", w.Collection, w.Key)
		}
		if w.PermissionRead != runtime.STORAGE_PERMISSION_OWNER_READ || w.PermissionWrite != runtime.STORAGE_PERMISSION_NO_WRITE {
			t.Fatalf("Unexpected permissions %d/%d", w.PermissionRead, w.PermissionWrite)
		}
		var stored ports.HandRecord
		if err := json.Unmarshal([]byte(w.Value), &stored); err != nil || stored.Contract != "Klop" {
			t.Fatalf("Unexpected value %s (%v)", w.Value, err)
		}
	}
	if storage.writes[0].UserID != "u1" || storage.writes[1].UserID != "u2" {
		t.Fatalf("Unexpected owners %s, %s", storage.writes[0].UserID, storage.writes[1].UserID)
	}
}

func TestHistoryAdapter_AllBotsSkipsWrite(t *testing.T) {
	storage := &mockStorage{err: errors.New("must not be called")}
	adapter := NewNakamaHistoryAdapter(storage, "tarok_hands", func(string) bool { return true })

	if err := adapter.RecordHand(context.Background(), ports.HandRecord{MatchID: "m1", Seats: []string{"b1", "b2", "b3"}}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
}

func TestHistoryAdapter_PropagatesStorageError(t *testing.T) {
	storage := &mockStorage{err: errors.New("db down")}
	adapter := NewNakamaHistoryAdapter(storage, "tarok_hands", nil)

	if err := adapter.RecordHand(context.Background(), ports.HandRecord{MatchID: "m1", Seats: []string{"u1"}}); err == nil {
		t.Fatal("Expected storage error")
	}
}
