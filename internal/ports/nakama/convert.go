package nakama

import (
	"errors"
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"tarok/internal/app"
)

var errBadActionMessage = errors.New("malformed action message")

// eventMessage maps an app event to its op code and wire payload.
func eventMessage(ev app.Event) (int64, *structpb.Struct, error) {
	var opCode int64
	var fields map[string]interface{}

	switch p := ev.Payload.(type) {
	case app.PlayerJoinedPayload:
		opCode = OpPlayerJoined
		fields = map[string]interface{}{"user_id": p.UserID, "seat": p.Seat, "owner": p.Owner, "bot": p.Bot}
	case app.PlayerLeftPayload:
		opCode = OpPlayerLeft
		fields = map[string]interface{}{"user_id": p.UserID}
	case app.HandDealtPayload:
		opCode = OpHandDealt
		fields = map[string]interface{}{
			"user_id":  p.UserID,
			"seat":     p.Seat,
			"card_ids": intList(p.CardIDs),
			"cards":    stringList(p.Cards),
		}
	case app.HandStartedPayload:
		opCode = OpHandStarted
		fields = map[string]interface{}{
			"num_players": p.NumPlayers,
			"phase":       string(p.Phase),
			"talon_size":  p.TalonSize,
		}
	case app.TurnChangedPayload:
		opCode = OpTurnChanged
		fields = map[string]interface{}{
			"seat":          p.Seat,
			"user_id":       p.UserID,
			"phase":         string(p.Phase),
			"legal_actions": intList(p.LegalActions),
			"labels":        stringList(p.Labels),
		}
	case app.ActionAppliedPayload:
		opCode = OpActionApplied
		fields = map[string]interface{}{"seat": p.Seat, "user_id": p.UserID, "action": p.Action, "label": p.Label}
	case app.BiddingConcludedPayload:
		opCode = OpBiddingConcluded
		fields = map[string]interface{}{
			"declarer_seat":    p.DeclarerSeat,
			"declarer_user_id": p.DeclarerUserID,
			"contract":         p.Contract,
			"bid_rank":         p.BidRank,
			"bids":             intList(p.Bids),
		}
	case app.KingCalledPayload:
		opCode = OpKingCalled
		fields = map[string]interface{}{"seat": p.Seat, "card_id": p.CardID, "king": p.King}
	case app.PhaseChangedPayload:
		opCode = OpPhaseChanged
		fields = map[string]interface{}{"from": string(p.From), "to": string(p.To)}
	case app.PhaseUnsupportedPayload:
		opCode = OpPhaseUnsupported
		fields = map[string]interface{}{"phase": string(p.Phase)}
	default:
		return 0, nil, fmt.Errorf("unknown event %s with payload %T", ev.Kind, ev.Payload)
	}

	fields["kind"] = string(ev.Kind)
	msg, err := structpb.NewStruct(fields)
	if err != nil {
		return 0, nil, fmt.Errorf("encode %s: %w", ev.Kind, err)
	}
	return opCode, msg, nil
}

// actionRequest is a decoded OpAction message. Exactly one of Action or Label is set.
type actionRequest struct {
	Action int
	Label  string
	ByName bool
}

func decodeAction(data []byte) (actionRequest, error) {
	msg := &structpb.Struct{}
	if err := proto.Unmarshal(data, msg); err != nil {
		return actionRequest{}, fmt.Errorf("%w: %v", errBadActionMessage, err)
	}

	if v, ok := msg.GetFields()["action"]; ok {
		n, ok := v.GetKind().(*structpb.Value_NumberValue)
		if !ok || n.NumberValue != math.Trunc(n.NumberValue) || n.NumberValue < 0 || n.NumberValue > math.MaxInt32 {
			return actionRequest{}, fmt.Errorf("%w: action must be a non-negative integer", errBadActionMessage)
		}
		return actionRequest{Action: int(n.NumberValue)}, nil
	}
	if v, ok := msg.GetFields()["label"]; ok {
		if s := v.GetStringValue(); s != "" {
			return actionRequest{Label: s, ByName: true}, nil
		}
	}
	return actionRequest{}, fmt.Errorf("%w: missing action", errBadActionMessage)
}

// encodeLabel renders the match label as JSON for MatchList queries.
func encodeLabel(open, players int, state string) (string, error) {
	label, err := structpb.NewStruct(map[string]interface{}{
		MatchLabelKeyOpenSeats: open,
		MatchLabelKeyPlayers:   players,
		MatchLabelKeyState:     state,
	})
	if err != nil {
		return "", err
	}
	b, err := (&protojson.MarshalOptions{EmitUnpopulated: true}).Marshal(label)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func intList(values []int) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func stringList(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
