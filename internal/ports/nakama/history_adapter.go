package nakama

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"

	"tarok/internal/ports"
)

// storageWriter is the subset of runtime.NakamaModule the history adapter needs.
type storageWriter interface {
	StorageWrite(ctx context.Context, writes []*runtime.StorageWrite) ([]*api.StorageObjectAck, error)
}

// NakamaHistoryAdapter implements ports.HistoryPort on Nakama storage. Every
// human seat gets its own read-only copy keyed by match and seed.
type NakamaHistoryAdapter struct {
	nk         storageWriter
	collection string
	isBot      func(userID string) bool
}

// NewNakamaHistoryAdapter creates a new history adapter.
func NewNakamaHistoryAdapter(nk storageWriter, collection string, isBot func(string) bool) *NakamaHistoryAdapter {
	if isBot == nil {
		isBot = func(string) bool { return false }
	}
	return &NakamaHistoryAdapter{nk: nk, collection: collection, isBot: isBot}
}

// RecordHand writes one storage object per human seat.
func (a *NakamaHistoryAdapter) RecordHand(ctx context.Context, record ports.HandRecord) error {
	value, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal hand record: %w", err)
	}

	key := record.MatchID + ":" + strconv.FormatInt(record.Seed, 10)
	writes := make([]*runtime.StorageWrite, 0, len(record.Seats))
	for _, userID := range record.Seats {
		if userID == "" || a.isBot(userID) {
			continue
		}
		writes = append(writes, &runtime.StorageWrite{
			Collection:      a.collection,
			Key:             key,
			UserID:          userID,
			Value:           string(value),
			PermissionRead:  runtime.STORAGE_PERMISSION_OWNER_READ,
			PermissionWrite: runtime.STORAGE_PERMISSION_NO_WRITE,
		})
	}
	if len(writes) == 0 {
		return nil
	}

	if _, err := a.nk.StorageWrite(ctx, writes); err != nil {
		return fmt.Errorf("failed to write hand history for match %s: %w", record.MatchID, err)
	}
	return nil
}
