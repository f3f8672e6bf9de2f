package nakama

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"strconv"

	"github.com/heroiclabs/nakama-common/runtime"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"tarok/internal/app"
	"tarok/internal/app/archive"
	"tarok/internal/bot"
	"tarok/internal/config"
	"tarok/internal/domain"
	"tarok/internal/ports"
)

// MatchState holds the authoritative runtime state for the Nakama match handler.
type MatchState struct {
	MatchID              string                      `json:"match_id"`
	NumPlayers           int                         `json:"num_players"`
	Seats                []string                    `json:"seats"`          // user IDs, empty string means seat is empty
	OwnerSeat            int                         `json:"owner_seat"`     // seat index of the human who may start hands
	Seed                 int64                       `json:"seed"`           // base seed from match params
	FixedSeed            bool                        `json:"fixed_seed"`     // hands use Seed+HandsPlayed instead of a drawn seed
	HandsPlayed          int                         `json:"hands_played"`   // hands started in this match
	Tick                 int64                       `json:"tick"`           // current tick of the match
	BotWaitUntil         int64                       `json:"bot_wait_until"` // tick when the bot on turn acts
	LastSinglePlayerTick int64                       `json:"last_single_player_tick"`
	Settings             config.MatchSettings        `json:"-"`
	Presences            map[string]runtime.Presence `json:"-"` // UserId -> Presence for targeted messaging
	App                  *app.Service                `json:"-"`
	Archive              *archive.Service            `json:"-"`
	Hand                 *app.Hand                   `json:"-"` // nil while in the lobby
	Bots                 map[string]*bot.Agent       `json:"-"`
}

func (ms *MatchState) GetOpenSeatsCount() int {
	count := 0
	for _, seat := range ms.Seats {
		if seat == "" {
			count++
		}
	}
	return count
}

func (ms *MatchState) GetHumanPlayerCount() int {
	count := 0
	for _, seat := range ms.Seats {
		if seat != "" && !bot.IsBot(seat) {
			count++
		}
	}
	return count
}

func (ms *MatchState) seatOf(userID string) int {
	for i, seat := range ms.Seats {
		if seat != "" && seat == userID {
			return i
		}
	}
	return domain.NoSeat
}

// findFirstHumanSeat returns the first seat index with a human occupant or -1 if none exist.
func findFirstHumanSeat(seats []string) int {
	for i, userID := range seats {
		if userID != "" && !bot.IsBot(userID) {
			return i
		}
	}
	return -1
}

type matchHandler struct {
	history  ports.HistoryPort
	receipts *app.ReceiptService
}

func newMatchHandler(history ports.HistoryPort, receipts *app.ReceiptService) *matchHandler {
	return &matchHandler{history: history, receipts: receipts}
}

// MatchInit is called when the match is created.
func (mh *matchHandler) MatchInit(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, params map[string]interface{}) (interface{}, int, string) {
	cfg := config.GetGameConfig()
	env, _ := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string)
	matchID, _ := ctx.Value(runtime.RUNTIME_CTX_MATCH_ID).(string)

	numPlayers := cfg.DefaultPlayers
	if n, ok := intParam(params, MatchParamNumPlayers); ok {
		if n == 3 || n == 4 {
			numPlayers = int(n)
		} else {
			logger.Warn("MatchInit: Ignoring num_players=%d, using %d.", n, numPlayers)
		}
	}

	state := newMatchState(matchID, numPlayers, config.MatchSettingsFromEnv(cfg, env))
	if seed, ok := intParam(params, MatchParamSeed); ok {
		state.Seed = seed
		state.FixedSeed = true
	}
	if mh.history != nil {
		state.Archive = archive.NewService(mh.history, mh.receipts)
	}

	label, err := encodeLabel(state.GetOpenSeatsCount(), state.NumPlayers, "lobby")
	if err != nil {
		logger.Error("MatchInit: Failed to marshal label: %v", err)
		return nil, 0, ""
	}

	logger.Debug("MatchInit: %d-player match %s initialised (bots=%v).", numPlayers, matchID, state.Settings.BotsEnabled)
	tickRate := 1
	return state, tickRate, label
}

func newMatchState(matchID string, numPlayers int, settings config.MatchSettings) *MatchState {
	return &MatchState{
		MatchID:    matchID,
		NumPlayers: numPlayers,
		Seats:      make([]string, numPlayers),
		OwnerSeat:  -1,
		Settings:   settings,
		Presences:  make(map[string]runtime.Presence),
		App:        app.NewService(nil),
		Bots:       make(map[string]*bot.Agent),
	}
}

// intParam reads an integer match param; MatchCreate from Go passes ints,
// from clients JSON numbers or strings.
func intParam(params map[string]interface{}, key string) (int64, bool) {
	switch v := params[key].(type) {
	case int:
		return int64(v), true
	case int64:
		return v, true
	case float64:
		return int64(v), true
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}

func (mh *matchHandler) MatchJoinAttempt(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presence runtime.Presence, metadata map[string]string) (interface{}, bool, string) {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state, false, "state not found"
	}
	if ok, reason := canJoin(matchState, presence.GetUserId()); !ok {
		return state, false, reason
	}
	return state, true, ""
}

// canJoin allows a join into an empty seat, or over a bot while no hand is running.
func canJoin(state *MatchState, userID string) (bool, string) {
	if state.seatOf(userID) != domain.NoSeat {
		return false, "Already seated"
	}
	if state.GetOpenSeatsCount() > 0 {
		return true, ""
	}
	if state.Hand == nil {
		for _, seat := range state.Seats {
			if bot.IsBot(seat) {
				return true, ""
			}
		}
	}
	return false, "Match full"
}

func (mh *matchHandler) MatchJoin(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchJoin: state not found")
		return state
	}

	for _, p := range presences {
		matchState.Presences[p.GetUserId()] = p
		mh.seatPlayer(matchState, dispatcher, logger, p.GetUserId())
	}

	mh.updateLabel(matchState, dispatcher, logger)
	mh.broadcastMatchState(matchState, dispatcher, logger)
	return matchState
}

// seatPlayer assigns userID to an empty seat, or replaces a bot in the lobby.
func (mh *matchHandler) seatPlayer(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string) bool {
	seat := -1
	for i, seatUserID := range state.Seats {
		if seatUserID == "" {
			seat = i
			break
		}
	}
	if seat < 0 && state.Hand == nil {
		for i, seatUserID := range state.Seats {
			if bot.IsBot(seatUserID) {
				logger.Info("MatchJoin: Replacing bot %s with human %s in seat %d", seatUserID, userID, i)
				delete(state.Bots, seatUserID)
				seat = i
				break
			}
		}
	}
	if seat < 0 {
		logger.Warn("MatchJoin: User %s joined but no seat (empty or bot) was available.", userID)
		return false
	}

	state.Seats[seat] = userID
	if state.OwnerSeat < 0 || bot.IsBot(state.Seats[state.OwnerSeat]) || state.Seats[state.OwnerSeat] == "" {
		state.OwnerSeat = findFirstHumanSeat(state.Seats)
		logger.Debug("MatchJoin: Owner set to human seat %d.", state.OwnerSeat)
	}

	mh.dispatchEvent(state, dispatcher, logger, app.Event{
		Kind:    app.EventPlayerJoined,
		Payload: app.PlayerJoinedPayload{UserID: userID, Seat: seat, Owner: seat == state.OwnerSeat},
	})
	return true
}

// MatchLeave is called when one or more players leave the match.
func (mh *matchHandler) MatchLeave(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchLeave: state not found")
		return state
	}

	for _, p := range presences {
		delete(matchState.Presences, p.GetUserId())
		mh.unseatPlayer(matchState, dispatcher, logger, p.GetUserId())
	}

	if findFirstHumanSeat(matchState.Seats) == -1 {
		logger.Info("MatchLeave: Terminating match with no humans.")
		return nil
	}

	mh.updateLabel(matchState, dispatcher, logger)
	return matchState
}

func (mh *matchHandler) unseatPlayer(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string) {
	seat := state.seatOf(userID)
	if seat == domain.NoSeat {
		return
	}
	state.Seats[seat] = ""
	logger.Debug("MatchLeave: User %s left, seat %d freed.", userID, seat)

	if state.Hand != nil {
		// A deal cannot continue with an empty seat.
		logger.Info("MatchLeave: Abandoning hand after seat %d left.", seat)
		state.Hand = nil
		state.BotWaitUntil = 0
	}
	if state.OwnerSeat == seat || state.OwnerSeat < 0 {
		state.OwnerSeat = findFirstHumanSeat(state.Seats)
		logger.Debug("MatchLeave: Owner set to seat %d.", state.OwnerSeat)
	}

	mh.dispatchEvent(state, dispatcher, logger, app.Event{
		Kind:    app.EventPlayerLeft,
		Payload: app.PlayerLeftPayload{UserID: userID},
	})
}

func (mh *matchHandler) MatchLoop(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, messages []runtime.MatchData) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state
	}

	matchState.Tick = tick

	for _, msg := range messages {
		switch msg.GetOpCode() {
		case OpStartHand:
			mh.handleStartHand(ctx, matchState, dispatcher, logger, msg.GetUserId())
		case OpAction:
			mh.handleAction(ctx, matchState, dispatcher, logger, msg.GetUserId(), msg.GetData())
		default:
			logger.Warn("MatchLoop: Unknown opcode received: %d", msg.GetOpCode())
		}
	}

	if matchState.Settings.BotsEnabled {
		mh.processBots(ctx, matchState, dispatcher, logger)
	}

	return matchState
}

func (mh *matchHandler) handleStartHand(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, senderID string) {
	senderSeat := state.seatOf(senderID)
	logger.Info("StartHand: Request received from %s (seat=%d, owner_seat=%d, open=%d)", senderID, senderSeat, state.OwnerSeat, state.GetOpenSeatsCount())

	if senderSeat < 0 || senderSeat != state.OwnerSeat {
		logger.Warn("StartHand: User %s tried to start a hand but is not owner (owner_seat=%d)", senderID, state.OwnerSeat)
		mh.sendError(state, dispatcher, logger, senderID, 403, "only the match owner can start a hand")
		return
	}
	if state.Hand != nil {
		mh.sendError(state, dispatcher, logger, senderID, 409, "a hand is already in progress")
		return
	}
	if open := state.GetOpenSeatsCount(); open > 0 {
		logger.Warn("StartHand: Cannot start with %d open seats.", open)
		mh.sendError(state, dispatcher, logger, senderID, 409, fmt.Sprintf("waiting for %d more players", open))
		return
	}

	seed := state.App.NextSeed()
	if state.FixedSeed {
		seed = state.Seed + int64(state.HandsPlayed)
	}

	hand, events, err := state.App.StartHand(state.Seats, seed)
	if err != nil {
		logger.Error("StartHand: Failed to start hand: %v", err)
		mh.sendError(state, dispatcher, logger, senderID, 500, err.Error())
		return
	}

	state.Hand = hand
	state.HandsPlayed++
	state.BotWaitUntil = 0
	mh.updateLabel(state, dispatcher, logger)

	for _, ev := range events {
		mh.dispatchEvent(state, dispatcher, logger, ev)
	}
	logger.Info("StartHand: Hand %d started with seed %d.", state.HandsPlayed, seed)
}

func (mh *matchHandler) handleAction(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, senderID string, data []byte) {
	if state.Hand == nil {
		logger.Warn("handleAction: No hand in progress.")
		mh.sendError(state, dispatcher, logger, senderID, 409, app.ErrNoHand.Error())
		return
	}

	req, err := decodeAction(data)
	if err != nil {
		logger.Warn("handleAction: Invalid action from %s: %v", senderID, err)
		mh.sendError(state, dispatcher, logger, senderID, 400, err.Error())
		return
	}

	seat := state.Hand.SeatOf(senderID)
	if seat == domain.NoSeat {
		mh.sendError(state, dispatcher, logger, senderID, 403, app.ErrUnknownPlayer.Error())
		return
	}

	action := req.Action
	if req.ByName {
		action, err = state.Hand.State.StringToAction(seat, req.Label)
		if err != nil {
			mh.sendError(state, dispatcher, logger, senderID, 400, err.Error())
			return
		}
	}

	if err := mh.applyAction(ctx, state, dispatcher, logger, seat, action); err != nil {
		logger.Warn("handleAction: User %s (seat %d) failed to apply %d: %v", senderID, seat, action, err)
		mh.sendError(state, dispatcher, logger, senderID, 400, err.Error())
	}
}

// applyAction runs an action through the app service for a human or a bot,
// dispatches the resulting events and closes the hand once the engine has
// nothing more to offer.
func (mh *matchHandler) applyAction(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, seat, action int) error {
	events, err := state.App.Act(state.Hand, seat, action)
	if err != nil {
		return err
	}

	finished := false
	for _, ev := range events {
		mh.dispatchEvent(state, dispatcher, logger, ev)
		if ev.Kind == app.EventPhaseUnsupported {
			finished = true
		}
	}
	if finished {
		mh.finishHand(ctx, state, dispatcher, logger)
	}
	return nil
}

// finishHand archives the hand and returns the match to the lobby.
func (mh *matchHandler) finishHand(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	hand := state.Hand
	state.Hand = nil
	state.BotWaitUntil = 0
	mh.updateLabel(state, dispatcher, logger)

	if state.Archive == nil || hand == nil {
		return
	}
	result, err := state.Archive.ArchiveHand(ctx, state.MatchID, hand)
	if result.ReceiptErr != nil {
		logger.Warn("finishHand: Failed to sign receipt: %v", result.ReceiptErr)
	}
	if err != nil {
		logger.Error("finishHand: Failed to archive hand: %v", err)
		return
	}

	rec := result.Record
	msg, err := structpb.NewStruct(map[string]interface{}{
		"kind":             "hand_archived",
		"contract":         rec.Contract,
		"declarer_user_id": rec.DeclarerUserID,
		"called_king":      rec.CalledKing,
		"talon":            stringList(rec.Talon),
		"receipt":          rec.Receipt,
	})
	if err != nil {
		logger.Error("finishHand: Failed to encode archive message: %v", err)
		return
	}
	mh.broadcast(state, dispatcher, logger, OpHandArchived, msg, nil)
}

func (mh *matchHandler) processBots(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	// Auto-fill the lobby when a single human has been waiting long enough.
	if state.Hand == nil {
		if state.GetHumanPlayerCount() == 1 && state.GetOpenSeatsCount() > 0 {
			if state.LastSinglePlayerTick == 0 {
				state.LastSinglePlayerTick = state.Tick
				logger.Debug("processBots: Single player detected, starting auto-fill timer.")
			}
			if state.Tick-state.LastSinglePlayerTick >= int64(state.Settings.BotAutoFillDelay) {
				mh.fillWithBots(state, dispatcher, logger)
				state.LastSinglePlayerTick = 0
			}
		} else {
			state.LastSinglePlayerTick = 0
		}
		return
	}

	seat := state.Hand.State.CurrentActor()
	userID := state.Hand.UserAt(seat)
	agent, isBotTurn := state.Bots[userID]
	if !isBotTurn {
		state.BotWaitUntil = 0
		return
	}

	if state.BotWaitUntil == 0 {
		delay := state.Settings.BotMinDelay
		if spread := state.Settings.BotMaxDelay - state.Settings.BotMinDelay; spread > 0 {
			delay += rand.Intn(spread + 1)
		}
		state.BotWaitUntil = state.Tick + int64(delay)
		logger.Debug("processBots: Bot %s (seat %d) will act at tick %d (current %d)", userID, seat, state.BotWaitUntil, state.Tick)
	}
	if state.Tick < state.BotWaitUntil {
		return
	}
	state.BotWaitUntil = 0

	action, ok, err := agent.Play(state.Hand.State, seat)
	if err != nil {
		logger.Error("processBots: Bot %s failed to choose an action: %v", userID, err)
		return
	}
	if !ok {
		return
	}
	if err := mh.applyAction(ctx, state, dispatcher, logger, seat, action); err != nil {
		logger.Error("processBots: Bot %s action %d rejected: %v", userID, action, err)
	}
}

func (mh *matchHandler) fillWithBots(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	added := false
	for i, seat := range state.Seats {
		if seat != "" {
			continue
		}
		identity, ok := nextBotIdentity(state)
		if !ok {
			logger.Warn("processBots: No free bot identity for seat %d.", i)
			break
		}
		agent, err := bot.NewAgent(identity.UserID)
		if err != nil {
			logger.Error("processBots: Failed to create bot agent for %s: %v", identity.UserID, err)
			continue
		}
		state.Seats[i] = identity.UserID
		state.Bots[identity.UserID] = agent
		logger.Info("processBots: Added bot %s (%s) to seat %d", identity.Username, identity.UserID, i)

		mh.dispatchEvent(state, dispatcher, logger, app.Event{
			Kind:    app.EventPlayerJoined,
			Payload: app.PlayerJoinedPayload{UserID: identity.UserID, Seat: i, Bot: true},
		})
		added = true
	}
	if added {
		mh.updateLabel(state, dispatcher, logger)
		mh.broadcastMatchState(state, dispatcher, logger)
	}
}

func nextBotIdentity(state *MatchState) (bot.Identity, bool) {
	for i := 0; i < bot.PoolSize(); i++ {
		identity := bot.GetBotIdentity(i)
		if identity.UserID == "" || state.seatOf(identity.UserID) != domain.NoSeat {
			continue
		}
		return identity, true
	}
	return bot.Identity{}, false
}

func (mh *matchHandler) broadcastMatchState(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	players := make([]interface{}, 0, len(state.Seats))
	for i, userID := range state.Seats {
		if userID == "" {
			continue
		}
		displayName := userID
		if p, exists := state.Presences[userID]; exists {
			displayName = p.GetUsername()
		} else if name := bot.GetBotDisplayName(userID); name != "" {
			displayName = name
		}
		players = append(players, map[string]interface{}{
			"user_id":      userID,
			"seat":         i,
			"is_owner":     i == state.OwnerSeat,
			"is_bot":       bot.IsBot(userID),
			"display_name": displayName,
		})
	}

	snapshot, err := structpb.NewStruct(map[string]interface{}{
		"kind":        "match_state",
		"seats":       stringList(state.Seats),
		"owner_seat":  state.OwnerSeat,
		"num_players": state.NumPlayers,
		"in_hand":     state.Hand != nil,
		"tick":        state.Tick,
		"players":     players,
	})
	if err != nil {
		logger.Error("broadcastMatchState: Failed to encode snapshot: %v", err)
		return
	}
	mh.broadcast(state, dispatcher, logger, OpMatchState, snapshot, nil)
}

// dispatchEvent handles the conversion and dispatching of app events to Nakama.
func (mh *matchHandler) dispatchEvent(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, ev app.Event) {
	opCode, msg, err := eventMessage(ev)
	if err != nil {
		logger.Warn("dispatchEvent: %v", err)
		return
	}

	var recipients []runtime.Presence
	if len(ev.Recipients) > 0 {
		for _, uid := range ev.Recipients {
			if p, ok := state.Presences[uid]; ok {
				recipients = append(recipients, p)
			}
		}
		// Intended recipients that are not connected (e.g. bots) must not turn
		// into a broadcast.
		if len(recipients) == 0 {
			return
		}
	}
	mh.broadcast(state, dispatcher, logger, opCode, msg, recipients)
}

func (mh *matchHandler) broadcast(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, opCode int64, msg proto.Message, recipients []runtime.Presence) {
	bytes, err := proto.Marshal(msg)
	if err != nil {
		logger.Error("Failed to marshal message %d: %v", opCode, err)
		return
	}
	if err := dispatcher.BroadcastMessage(opCode, bytes, recipients, nil, true); err != nil {
		logger.Error("Failed to broadcast message %d: %v", opCode, err)
	}
}

// sendError sends a game error to a specific user.
func (mh *matchHandler) sendError(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string, code int, message string) {
	presence, ok := state.Presences[userID]
	if !ok {
		logger.Warn("Cannot send error to %s: Presence not found", userID)
		return
	}
	msg, err := structpb.NewStruct(map[string]interface{}{
		"kind":    "game_error",
		"code":    code,
		"message": message,
	})
	if err != nil {
		logger.Error("Failed to encode game error: %v", err)
		return
	}
	mh.broadcast(state, dispatcher, logger, OpGameError, msg, []runtime.Presence{presence})
}

func (mh *matchHandler) updateLabel(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	matchState := "lobby"
	if state.Hand != nil {
		matchState = "playing"
	}

	label, err := encodeLabel(state.GetOpenSeatsCount(), state.NumPlayers, matchState)
	if err != nil {
		logger.Error("UpdateLabel: Failed to marshal: %v", err)
		return
	}
	if err := dispatcher.MatchLabelUpdate(label); err != nil {
		logger.Error("UpdateLabel: Failed to update: %v", err)
	}
}

func (mh *matchHandler) MatchTerminate(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, graceSeconds int) interface{} {
	logger.Debug("MatchTerminate: Match terminated with %d seconds grace.", graceSeconds)
	return state
}

func (mh *matchHandler) MatchSignal(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, data string) (interface{}, string) {
	return state, ""
}
