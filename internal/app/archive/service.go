package archive

import (
	"context"
	"fmt"
	"time"

	"tarok/internal/app"
	"tarok/internal/domain"
	"tarok/internal/ports"
)

// Service turns concluded hands into history records.
type Service struct {
	history  ports.HistoryPort
	receipts *app.ReceiptService
	now      func() time.Time
}

// NewService constructs an archive service. history must be non-nil;
// receipts may be nil to store records without a signed receipt.
func NewService(history ports.HistoryPort, receipts *app.ReceiptService) *Service {
	return &Service{
		history:  history,
		receipts: receipts,
		now:      time.Now,
	}
}

// Result captures non-fatal archive outcomes.
type Result struct {
	Record ports.HandRecord
	// ReceiptErr is set when signing failed but the record was still written.
	ReceiptErr error
}

// ArchiveHand records a hand whose bidding has concluded.
func (s *Service) ArchiveHand(ctx context.Context, matchID string, hand *app.Hand) (Result, error) {
	if s.history == nil {
		return Result{}, fmt.Errorf("archive service not configured")
	}
	if hand == nil || hand.State == nil {
		return Result{}, app.ErrNoHand
	}
	state := hand.State
	contract, ok := state.Contract()
	if !ok {
		return Result{}, fmt.Errorf("hand in %s has no contract yet", state.Phase())
	}

	record := ports.HandRecord{
		MatchID:        matchID,
		Seed:           state.Seed(),
		NumPlayers:     state.NumPlayers(),
		Seats:          append([]string(nil), hand.Seats...),
		Bids:           state.Bids(),
		DeclarerUserID: hand.UserAt(state.Declarer()),
		Contract:       contract.Name,
		Talon:          state.Talon(),
		RecordedAt:     s.now().Unix(),
	}
	if king := state.CalledKing(); king != domain.NoCard {
		if card, err := state.Deck().Card(king); err == nil {
			record.CalledKing = card.LongName
		}
	}

	result := Result{}
	if s.receipts != nil {
		token, err := s.receipts.Issue(matchID, hand)
		if err != nil {
			// Receipts are best-effort; the record matters more.
			result.ReceiptErr = err
		} else {
			record.Receipt = token
		}
	}

	if err := s.history.RecordHand(ctx, record); err != nil {
		return result, fmt.Errorf("failed to record hand: %w", err)
	}
	result.Record = record
	return result, nil
}
