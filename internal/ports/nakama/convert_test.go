package nakama

import (
	"encoding/json"
	"errors"
	"testing"

	"tarok/internal/app"
	"tarok/internal/domain"
)

func TestDecodeAction(t *testing.T) {
	tests := []struct {
		name    string
		data    func(t *testing.T) []byte
		want    actionRequest
		wantErr bool
	}{
		{
			name: "ByNumber",
			data: func(t *testing.T) []byte { return actionPayload(t, map[string]interface{}{"action": 5}) },
			want: actionRequest{Action: 5},
		},
		{
			name: "ByLabel",
			data: func(t *testing.T) []byte { return actionPayload(t, map[string]interface{}{"label": "Solo two"}) },
			want: actionRequest{Label: "Solo two", ByName: true},
		},
		{
			name: "NumberWinsOverLabel",
			data: func(t *testing.T) []byte {
				return actionPayload(t, map[string]interface{}{"action": 0, "label": "Solo two"})
			},
			want: actionRequest{Action: 0},
		},
		{
			name:    "Fractional",
			data:    func(t *testing.T) []byte { return actionPayload(t, map[string]interface{}{"action": 1.5}) },
			wantErr: true,
		},
		{
			name:    "Negative",
			data:    func(t *testing.T) []byte { return actionPayload(t, map[string]interface{}{"action": -1}) },
			wantErr: true,
		},
		{
			name:    "StringAction",
			data:    func(t *testing.T) []byte { return actionPayload(t, map[string]interface{}{"action": "5"}) },
			wantErr: true,
		},
		{
			name:    "Empty",
			data:    func(t *testing.T) []byte { return actionPayload(t, map[string]interface{}{}) },
			wantErr: true,
		},
		{
			name:    "NotProtobuf",
			data:    func(t *testing.T) []byte { return []byte{0xff, 0xff, 0xff} },
			wantErr: true,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := decodeAction(test.data(t))
			if test.wantErr {
				if !errors.Is(err, errBadActionMessage) {
					t.Fatalf("Expected errBadActionMessage, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != test.want {
				t.Fatalf("decodeAction() = %+v, want %+v", got, test.want)
			}
		})
	}
}

func TestEncodeLabel(t *testing.T) {
	label, err := encodeLabel(2, 4, "lobby")
	if err != nil {
		t.Fatalf("Failed to encode label: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal([]byte(label), &decoded); err != nil {
		t.Fatalf("Label is not JSON: %v (%s)", err, label)
	}
	if decoded["open"] != float64(2) || decoded["players"] != float64(4) || decoded["state"] != "lobby" {
		t.Fatalf("Unexpected label %s", label)
	}
}

func TestEventMessage(t *testing.T) {
	tests := []struct {
		name   string
		event  app.Event
		opCode int64
		field  string
	}{
		{
			name:   "HandDealt",
			event:  app.Event{Kind: app.EventHandDealt, Payload: app.HandDealtPayload{UserID: "u1", CardIDs: []int{1, 2}, Cards: []string{"II", "III"}}},
			opCode: OpHandDealt,
			field:  "card_ids",
		},
		{
			name:   "TurnChanged",
			event:  app.Event{Kind: app.EventTurnChanged, Payload: app.TurnChangedPayload{Seat: 1, Phase: domain.PhaseBidding, LegalActions: []int{0, 5}, Labels: []string{"Pass", "Solo three"}}},
			opCode: OpTurnChanged,
			field:  "legal_actions",
		},
		{
			name:   "BiddingConcluded",
			event:  app.Event{Kind: app.EventBiddingConcluded, Payload: app.BiddingConcludedPayload{DeclarerSeat: domain.NoSeat, Contract: "Klop", BidRank: 1, Bids: []int{0, 0, 0}}},
			opCode: OpBiddingConcluded,
			field:  "bids",
		},
		{
			name:   "PhaseUnsupported",
			event:  app.Event{Kind: app.EventPhaseUnsupported, Payload: app.PhaseUnsupportedPayload{Phase: domain.PhaseTalonExchange}},
			opCode: OpPhaseUnsupported,
			field:  "phase",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			opCode, msg, err := eventMessage(test.event)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if opCode != test.opCode {
				t.Fatalf("opCode = %d, want %d", opCode, test.opCode)
			}
			if msg.Fields["kind"].GetStringValue() != string(test.event.Kind) {
				t.Fatalf("kind = %q", msg.Fields["kind"].GetStringValue())
			}
			if _, ok := msg.Fields[test.field]; !ok {
				t.Fatalf("Missing field %q", test.field)
			}
		})
	}

	if _, _, err := eventMessage(app.Event{Kind: "bogus", Payload: 42}); err == nil {
		t.Fatal("Expected error for unknown payload")
	}
}
