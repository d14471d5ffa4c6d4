package bot

import (
	"context"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"vidgrab/internal/models"
	"vidgrab/internal/storage/stubs"
)

const adminID = int64(99)

// newTestBot wires a bot to the stubs database and the recording fake API,
// with the fan-out delay removed so tests run instantly.
func newTestBot(t *testing.T, api *fakeAPI) (*Bot, *stubs.MockDB) {
	t.Helper()

	db := stubs.NewMockDB()
	if err := db.Initialize(context.Background()); err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}

	return &Bot{
		api:       api,
		db:        db,
		adminID:   adminID,
		states:    make(map[int64]*PendingAction),
		logger:    zap.NewNop(),
		sendDelay: 0,
	}, db
}

func seedUsers(t *testing.T, db *stubs.MockDB, ids ...int64) {
	t.Helper()
	for _, id := range ids {
		if err := db.SaveUser(context.Background(), models.User{ID: id}); err != nil {
			t.Fatalf("Failed to seed user %d: %v", id, err)
		}
	}
}

func adminMessage(text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		MessageID: 500,
		From:      &tgbotapi.User{ID: adminID},
		Chat:      &tgbotapi.Chat{ID: adminID},
		Text:      text,
	}
}

func TestBroadcastLedgerTracksOnlySuccessfulDeliveries(t *testing.T) {
	api := newFakeAPI()
	api.failCopyTo[2] = true // user 2 blocked the bot

	bot, db := newTestBot(t, api)
	ctx := context.Background()
	seedUsers(t, db, 1, 2, 3)

	bot.runBroadcast(ctx, adminMessage("hello everyone"), nil)

	recs, err := db.ListBroadcastRecords(ctx, 500)
	if err != nil {
		t.Fatalf("Failed to list broadcast records: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("Expected 2 ledger rows, got %d", len(recs))
	}
	for _, rec := range recs {
		if rec.RecipientID == 2 {
			t.Error("Expected no ledger row for the failed recipient")
		}
	}

	if got := api.copiedTo(); len(got) != 2 {
		t.Errorf("Expected 2 delivered copies, got %d", len(got))
	}
}

func TestBroadcastClearsPreviousLedger(t *testing.T) {
	api := newFakeAPI()
	bot, db := newTestBot(t, api)
	ctx := context.Background()
	seedUsers(t, db, 1)

	// Leftover rows from an earlier broadcast
	if err := db.CreateBroadcastRecord(ctx, models.BroadcastRecord{BroadcastID: 400, RecipientID: 7, MessageID: 77}); err != nil {
		t.Fatalf("Failed to seed old record: %v", err)
	}

	bot.runBroadcast(ctx, adminMessage("new run"), nil)

	old, err := db.ListBroadcastRecords(ctx, 400)
	if err != nil {
		t.Fatalf("Failed to list old records: %v", err)
	}
	if len(old) != 0 {
		t.Errorf("Expected old broadcast rows to be cleared, found %d", len(old))
	}

	fresh, _ := db.ListBroadcastRecords(ctx, 500)
	if len(fresh) != 1 {
		t.Errorf("Expected 1 row for the new broadcast, got %d", len(fresh))
	}
}

func TestBroadcastAttachesButtons(t *testing.T) {
	api := newFakeAPI()
	bot, db := newTestBot(t, api)
	ctx := context.Background()
	seedUsers(t, db, 1)

	keyboard, err := parseButtonSpec("Open site - https://example.com")
	if err != nil {
		t.Fatalf("Failed to parse button spec: %v", err)
	}

	bot.runBroadcast(ctx, adminMessage("with buttons"), &keyboard)

	if len(api.copies) != 1 {
		t.Fatalf("Expected 1 copy, got %d", len(api.copies))
	}
	if api.copies[0].ReplyMarkup == nil {
		t.Error("Expected the copy to carry the button keyboard")
	}
}

func TestRecallIsIdempotent(t *testing.T) {
	api := newFakeAPI()
	api.failDeleteIn[3] = true // copy in chat 3 can no longer be deleted

	bot, db := newTestBot(t, api)
	ctx := context.Background()
	seedUsers(t, db, 1, 2, 3)

	bot.runBroadcast(ctx, adminMessage("to be recalled"), nil)

	query := &tgbotapi.CallbackQuery{
		ID:   "cb1",
		From: &tgbotapi.User{ID: adminID},
		Data: "recall:500",
		Message: &tgbotapi.Message{
			MessageID: 600,
			Chat:      &tgbotapi.Chat{ID: adminID},
		},
	}

	bot.handleRecallCallback(ctx, query)

	if len(api.deleted) != 2 {
		t.Errorf("Expected 2 deleted copies (one failing), got %d", len(api.deleted))
	}
	recs, _ := db.ListBroadcastRecords(ctx, 500)
	if len(recs) != 0 {
		t.Errorf("Expected ledger cleanup after recall, found %d rows", len(recs))
	}

	// Second recall for the same id finds nothing to do
	bot.handleRecallCallback(ctx, query)

	if len(api.deleted) != 2 {
		t.Errorf("Expected no further deletions on second recall, got %d total", len(api.deleted))
	}
	recs, _ = db.ListBroadcastRecords(ctx, 500)
	if len(recs) != 0 {
		t.Errorf("Expected ledger to stay empty, found %d rows", len(recs))
	}
}

func TestGateAllowsEveryoneWithNoChannels(t *testing.T) {
	api := newFakeAPI()
	bot, _ := newTestBot(t, api)

	if !bot.isSubscribed(context.Background(), 1) {
		t.Error("Expected empty gate list to admit everyone")
	}
}

func TestGateRequiresMembershipInEveryChannel(t *testing.T) {
	api := newFakeAPI()
	bot, db := newTestBot(t, api)
	ctx := context.Background()

	for _, ch := range []string{"@chan1", "@chan2"} {
		if err := db.AddChannel(ctx, ch); err != nil {
			t.Fatalf("Failed to add channel %s: %v", ch, err)
		}
	}

	api.setMemberStatus("@chan1", 1, "member")
	api.setMemberStatus("@chan2", 1, "administrator")
	if !bot.isSubscribed(ctx, 1) {
		t.Error("Expected member of all channels to pass the gate")
	}

	api.setMemberStatus("@chan2", 1, "left")
	if bot.isSubscribed(ctx, 1) {
		t.Error("Expected user who left one channel to fail the gate")
	}
}

func TestGateFailsClosedOnLookupError(t *testing.T) {
	api := newFakeAPI()
	bot, db := newTestBot(t, api)
	ctx := context.Background()

	for _, ch := range []string{"@chan1", "@chan2"} {
		if err := db.AddChannel(ctx, ch); err != nil {
			t.Fatalf("Failed to add channel %s: %v", ch, err)
		}
	}
	api.setMemberStatus("@chan1", 1, "member")
	api.failLookupIn["@chan2"] = true

	if bot.isSubscribed(ctx, 1) {
		t.Error("Expected a failed membership lookup to fail the gate")
	}
}

func TestInvalidChannelInputClearsPendingState(t *testing.T) {
	api := newFakeAPI()
	bot, db := newTestBot(t, api)
	ctx := context.Background()

	bot.setPendingAction(adminID, &PendingAction{Kind: ActionAwaitingChannel})
	bot.handleMessage(adminMessage("not-a-handle"))

	if action := bot.takePendingAction(adminID); action != nil {
		t.Errorf("Expected pending state to be cleared, found %q", action.Kind)
	}
	channels, _ := db.ListChannels(ctx)
	if len(channels) != 0 {
		t.Errorf("Expected no channel to be added, found %v", channels)
	}

	// The next plain message goes through the normal user path, not the
	// state machine: with no gate channels it gets the usage hint.
	sentBefore := len(api.sent)
	bot.handleMessage(adminMessage("just chatting"))
	if len(api.sent) != sentBefore+1 {
		t.Errorf("Expected exactly one ordinary reply, got %d new messages", len(api.sent)-sentBefore)
	}
}

func TestAddChannelAcceptsForwardedChannelPost(t *testing.T) {
	api := newFakeAPI()
	bot, db := newTestBot(t, api)

	msg := adminMessage("")
	msg.ForwardFromChat = &tgbotapi.Chat{UserName: "somechannel"}

	bot.setPendingAction(adminID, &PendingAction{Kind: ActionAwaitingChannel})
	bot.handleMessage(msg)

	channels, _ := db.ListChannels(context.Background())
	if len(channels) != 1 || channels[0] != "@somechannel" {
		t.Errorf("Expected [@somechannel], got %v", channels)
	}
}

func TestDuplicateChannelIsRejected(t *testing.T) {
	api := newFakeAPI()
	bot, db := newTestBot(t, api)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		bot.setPendingAction(adminID, &PendingAction{Kind: ActionAwaitingChannel})
		bot.handleMessage(adminMessage("@chan1"))
	}

	channels, _ := db.ListChannels(ctx)
	if len(channels) != 1 {
		t.Fatalf("Expected exactly one stored channel, got %v", channels)
	}
	if channels[0] != "@chan1" {
		t.Errorf("Expected @chan1, got %s", channels[0])
	}
	if len(api.sent) < 2 {
		t.Error("Expected the duplicate attempt to be reported to the admin")
	}
}

func TestSettingEditStoresTextVerbatim(t *testing.T) {
	api := newFakeAPI()
	bot, db := newTestBot(t, api)
	ctx := context.Background()

	const newText = "<b>hello</b> & <i>welcome</i>"
	bot.setPendingAction(adminID, &PendingAction{Kind: ActionAwaitingWelcomeText})
	bot.handleMessage(adminMessage(newText))

	value, err := db.GetSetting(ctx, "welcome_message")
	if err != nil {
		t.Fatalf("Failed to read setting: %v", err)
	}
	if value != newText {
		t.Errorf("Expected setting to store input verbatim, got %q", value)
	}
}

func TestButtonsFlowCapturesBodyThenBroadcasts(t *testing.T) {
	api := newFakeAPI()
	bot, db := newTestBot(t, api)
	ctx := context.Background()
	seedUsers(t, db, 1, 2)

	body := adminMessage("the announcement")
	bot.setPendingAction(adminID, &PendingAction{Kind: ActionAwaitingButtonsBody})
	bot.handleMessage(body)

	bot.statesMu.Lock()
	action := bot.states[adminID]
	bot.statesMu.Unlock()
	if action == nil || action.Kind != ActionAwaitingButtonSpec {
		t.Fatal("Expected the flow to move to the button spec step")
	}
	if action.Payload != body {
		t.Fatal("Expected the broadcast body to be captured as payload")
	}

	spec := adminMessage("A - http://x\nB - http://y")
	spec.MessageID = 501
	bot.handleMessage(spec)

	// The admin was registered on first contact, so three users are known.
	if len(api.copies) != 3 {
		t.Fatalf("Expected the captured body to reach every user, got %d copies", len(api.copies))
	}
	// The ledger is keyed by the body message, not the spec message
	recs, _ := db.ListBroadcastRecords(ctx, body.MessageID)
	if len(recs) != 3 {
		t.Errorf("Expected 3 ledger rows for the body message, got %d", len(recs))
	}
}

func TestMalformedButtonSpecAbortsBroadcast(t *testing.T) {
	api := newFakeAPI()
	bot, db := newTestBot(t, api)
	ctx := context.Background()
	seedUsers(t, db, 1)

	body := adminMessage("body")
	bot.setPendingAction(adminID, &PendingAction{
		Kind:    ActionAwaitingButtonSpec,
		Payload: body,
	})
	bot.handleMessage(adminMessage("A - http://x\nBad Line\nB - http://y"))

	if len(api.copies) != 0 {
		t.Errorf("Expected no broadcast for a malformed spec, got %d copies", len(api.copies))
	}
	if action := bot.takePendingAction(adminID); action != nil {
		t.Errorf("Expected flow to abort to idle, found pending %q", action.Kind)
	}
	recs, _ := db.ListBroadcastRecords(ctx, body.MessageID)
	if len(recs) != 0 {
		t.Errorf("Expected empty ledger after aborted broadcast, got %d rows", len(recs))
	}
	if len(api.sent) == 0 {
		t.Error("Expected a parse error report to the admin")
	}
}

func TestParseButtonSpec(t *testing.T) {
	keyboard, err := parseButtonSpec("First - https://a.example\n\nSecond - https://b.example")
	if err != nil {
		t.Fatalf("Expected valid spec to parse, got %v", err)
	}
	if len(keyboard.InlineKeyboard) != 2 {
		t.Errorf("Expected 2 button rows, got %d", len(keyboard.InlineKeyboard))
	}
	if keyboard.InlineKeyboard[0][0].Text != "First" {
		t.Errorf("Expected label 'First', got %q", keyboard.InlineKeyboard[0][0].Text)
	}

	if _, err := parseButtonSpec("no separator here"); err == nil {
		t.Error("Expected a line without separator to be rejected")
	}
	if _, err := parseButtonSpec(" - https://a.example"); err == nil {
		t.Error("Expected an empty label to be rejected")
	}
	if _, err := parseButtonSpec(""); err == nil {
		t.Error("Expected an empty spec to be rejected")
	}
}

func TestPendingActionConsumedOnce(t *testing.T) {
	api := newFakeAPI()
	bot, _ := newTestBot(t, api)

	bot.setPendingAction(adminID, &PendingAction{Kind: ActionAwaitingWelcomeText})

	if action := bot.takePendingAction(adminID); action == nil {
		t.Fatal("Expected the pending action to be returned")
	}
	if action := bot.takePendingAction(adminID); action != nil {
		t.Error("Expected the slot to be empty after the first take")
	}
}

func TestNonAdminMessagesBypassStateMachine(t *testing.T) {
	api := newFakeAPI()
	bot, db := newTestBot(t, api)

	msg := &tgbotapi.Message{
		MessageID: 10,
		From:      &tgbotapi.User{ID: 42, UserName: "someone"},
		Chat:      &tgbotapi.Chat{ID: 42},
		Text:      "@chan1",
	}
	bot.handleMessage(msg)

	channels, _ := db.ListChannels(context.Background())
	if len(channels) != 0 {
		t.Errorf("Expected non-admin text to never reach the state machine, got %v", channels)
	}

	// The user was still registered as a subscriber
	count, _ := db.CountUsers(context.Background())
	if count != 1 {
		t.Errorf("Expected the user to be registered, count = %d", count)
	}
}

func TestPanicRecoveryInHandleMessage(t *testing.T) {
	api := newFakeAPI()
	bot, _ := newTestBot(t, api)

	// A button spec state with no payload would panic inside runBroadcast
	bot.setPendingAction(adminID, &PendingAction{Kind: ActionAwaitingButtonSpec})

	defer func() {
		if r := recover(); r != nil {
			t.Errorf("handleMessage panicked: %v", r)
		}
	}()

	bot.handleMessage(adminMessage("A - http://x"))
}
