package archive

import (
	"context"
	"errors"
	"testing"
	"time"

	"tarok/internal/app"
	"tarok/internal/domain"
	"tarok/internal/ports"
)

type fakeHistoryPort struct {
	err     error
	records []ports.HandRecord
}

func (f *fakeHistoryPort) RecordHand(ctx context.Context, record ports.HandRecord) error {
	f.records = append(f.records, record)
	return f.err
}

func concludedHand(t *testing.T) *app.Hand {
	t.Helper()
	svc := app.NewService(nil)
	hand, _, err := svc.StartHand([]string{"u1", "u2", "u3"}, 42)
	if err != nil {
		t.Fatalf("start hand: %v", err)
	}
	for _, step := range []struct{ seat, action int }{
		{0, domain.ContractSoloTwo},
		{1, domain.BidPass},
		{2, domain.BidPass},
		{0, domain.ContractSoloTwo},
	} {
		if _, err := svc.Act(hand, step.seat, step.action); err != nil {
			t.Fatalf("seat %d action %d: %v", step.seat, step.action, err)
		}
	}
	return hand
}

func TestArchiveHand_RecordsWithReceipt(t *testing.T) {
	history := &fakeHistoryPort{}
	receipts := app.NewReceiptService("secret", "tarok", time.Hour)
	service := NewService(history, receipts)
	service.now = func() time.Time { return time.Unix(1700000000, 0) }

	result, err := service.ArchiveHand(context.Background(), "match-1", concludedHand(t))
	if err != nil {
		t.Fatalf("ArchiveHand returned error: %v", err)
	}
	if result.ReceiptErr != nil {
		t.Fatalf("Expected no receipt error, got %v", result.ReceiptErr)
	}
	if len(history.records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(history.records))
	}

	rec := history.records[0]
	if rec.DeclarerUserID != "u1" || rec.Contract != "Solo two" {
		t.Fatalf("Unexpected record %+v", rec)
	}
	if len(rec.Talon) != domain.TalonSize || rec.RecordedAt != 1700000000 {
		t.Fatalf("Unexpected talon or timestamp in %+v", rec)
	}
	if _, err := receipts.Verify(rec.Receipt); err != nil {
		t.Fatalf("Stored receipt does not verify: %v", err)
	}
}

func TestArchiveHand_ReceiptFailureStillRecords(t *testing.T) {
	history := &fakeHistoryPort{}
	service := NewService(history, app.NewReceiptService("", "", time.Hour))

	result, err := service.ArchiveHand(context.Background(), "match-1", concludedHand(t))
	if err != nil {
		t.Fatalf("ArchiveHand returned error: %v", err)
	}
	if !errors.Is(result.ReceiptErr, app.ErrReceiptConfig) {
		t.Fatalf("Expected receipt config error, got %v", result.ReceiptErr)
	}
	if len(history.records) != 1 || history.records[0].Receipt != "" {
		t.Fatalf("Expected a record without receipt, got %+v", history.records)
	}
}

func TestArchiveHand_PropagatesStorageError(t *testing.T) {
	history := &fakeHistoryPort{err: errors.New("storage down")}
	service := NewService(history, nil)

	if _, err := service.ArchiveHand(context.Background(), "match-1", concludedHand(t)); err == nil {
		t.Fatal("Expected storage error")
	}
}

func TestArchiveHand_RequiresConcludedBidding(t *testing.T) {
	service := NewService(&fakeHistoryPort{}, nil)
	hand, _, _ := app.NewService(nil).StartHand([]string{"u1", "u2", "u3"}, 1)

	if _, err := service.ArchiveHand(context.Background(), "match-1", hand); err == nil {
		t.Fatal("Expected error while bidding is open")
	}
}
