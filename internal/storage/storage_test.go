package storage

import (
	"context"
	"testing"

	"github.com/nearline-social/nearline/internal/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), ":memory:", ":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateAndGetAccount(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	created, err := CreateAccount(ctx, s.Current, 1)
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	got, err := GetAccount(ctx, s.Current, 1)
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}
	if got.UUID != created.UUID || got.State != models.AccountStateInitialSetup {
		t.Errorf("round-tripped account mismatch: %+v", got)
	}
}

func TestSetAccountStateRecordsHistory(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	CreateAccount(ctx, s.Current, 1)

	if err := SetAccountState(ctx, s, 1, models.AccountStateNormal); err != nil {
		t.Fatalf("SetAccountState: %v", err)
	}
	got, err := GetAccount(ctx, s.Current, 1)
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}
	if got.State != models.AccountStateNormal {
		t.Errorf("state = %v, want Normal", got.State)
	}

	var count int
	row := s.History.QueryRowContext(ctx, `SELECT COUNT(*) FROM account_state_changes WHERE account_id = ?`, 1)
	if err := row.Scan(&count); err != nil {
		t.Fatalf("scan history count: %v", err)
	}
	if count != 1 {
		t.Errorf("history rows = %d, want 1", count)
	}
}

func TestProfileRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	CreateAccount(ctx, s.Current, 1)

	part1 := int64(5)
	p := &models.Profile{
		AccountID:        1,
		Name:             "Alex",
		Age:              30,
		Attributes:       map[models.AttributeID]models.AttributeValue{10: {Part1: &part1}},
		Filters:          map[models.AttributeID]models.AttributeFilter{},
		SearchAgeRange:   models.AgeRange{Min: 20, Max: 40},
		LocationKey:      models.LocationKey{X: 3, Y: 4},
		VersionUUID:      "v1",
		NameModerationAccepted: true,
	}
	if err := UpsertProfile(ctx, s.Current, p); err != nil {
		t.Fatalf("UpsertProfile: %v", err)
	}
	got, err := GetProfile(ctx, s.Current, 1)
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if got.Name != "Alex" || got.Age != 30 || got.LocationKey != p.LocationKey {
		t.Errorf("profile mismatch: %+v", got)
	}
	if v, ok := got.Attributes[10]; !ok || v.Part1 == nil || *v.Part1 != 5 {
		t.Errorf("attributes not preserved: %+v", got.Attributes)
	}

	p.SetName("Alex") // unchanged; should not reset moderation flag
	if !p.NameModerationAccepted {
		t.Error("unchanged name should not reset moderation flag")
	}
}

func TestInteractionLikeThenMatch(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	i, err := GetInteraction(ctx, s.Current, 2, 1)
	if err != nil {
		t.Fatalf("GetInteraction: %v", err)
	}
	if i.State.Kind != models.InteractionEmpty || i.Low != 1 || i.High != 2 {
		t.Fatalf("expected canonicalized empty interaction, got %+v", i)
	}

	i.State = models.InteractionState{Kind: models.InteractionLike, Sender: 1}
	if err := UpsertInteraction(ctx, s.Current, i); err != nil {
		t.Fatalf("UpsertInteraction: %v", err)
	}
	got, err := GetInteraction(ctx, s.Current, 1, 2)
	if err != nil {
		t.Fatalf("GetInteraction: %v", err)
	}
	if got.State.Kind != models.InteractionLike || got.State.Sender != 1 {
		t.Errorf("like not persisted: %+v", got)
	}

	got.State.Kind = models.InteractionMatch
	if err := UpsertInteraction(ctx, s.Current, got); err != nil {
		t.Fatalf("UpsertInteraction (match): %v", err)
	}
	final, err := GetInteraction(ctx, s.Current, 1, 2)
	if err != nil {
		t.Fatalf("GetInteraction: %v", err)
	}
	if final.State.Kind != models.InteractionMatch {
		t.Errorf("match not persisted: %+v", final)
	}
}

func TestMessageAckBothSidesDeletes(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	msg := models.PendingMessage{
		Sender: 1, Receiver: 2, MessageNumber: 1,
		SenderClientID: "client-a", SenderClientLocalID: 100,
		Payload: []byte("hi"),
	}
	if err := InsertPendingMessage(ctx, s.Current, msg); err != nil {
		t.Fatalf("InsertPendingMessage: %v", err)
	}

	pending, err := PendingMessagesFor(ctx, s.Current, 2)
	if err != nil {
		t.Fatalf("PendingMessagesFor: %v", err)
	}
	if len(pending) != 1 || pending[0].Acked() {
		t.Fatalf("expected exactly one unacked message, got %+v", pending)
	}

	if err := AckSender(ctx, s.Current, 1, "client-a", 100); err != nil {
		t.Fatalf("AckSender: %v", err)
	}
	pending, _ = PendingMessagesFor(ctx, s.Current, 2)
	if len(pending) != 1 {
		t.Fatalf("message should still exist after only sender ack, got %d rows", len(pending))
	}

	if err := AckReceiver(ctx, s.Current, 2, 1, []uint64{1}); err != nil {
		t.Fatalf("AckReceiver: %v", err)
	}
	pending, _ = PendingMessagesFor(ctx, s.Current, 2)
	if len(pending) != 0 {
		t.Fatalf("message should be gone once both sides acked, got %d rows", len(pending))
	}
}

func TestModerationQueueFIFO(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	first, err := EnqueueModerationRequest(ctx, s.Current, 1, models.QueueProfileText, 0, "hello")
	if err != nil {
		t.Fatalf("EnqueueModerationRequest: %v", err)
	}
	_, err = EnqueueModerationRequest(ctx, s.Current, 2, models.QueueProfileText, 0, "world")
	if err != nil {
		t.Fatalf("EnqueueModerationRequest: %v", err)
	}

	claimed, err := CheckoutNextWaiting(ctx, s.Current, models.QueueProfileText, 99)
	if err != nil {
		t.Fatalf("CheckoutNextWaiting: %v", err)
	}
	if claimed.Owner != 1 || claimed.TextSnapshot != "hello" {
		t.Errorf("expected the first-enqueued request, got %+v", claimed)
	}

	if err := ResolveModerationRequest(ctx, s, first, models.RequestAccepted, models.RejectionCategoryNone, ""); err != nil {
		t.Fatalf("ResolveModerationRequest: %v", err)
	}

	var outcome int
	row := s.History.QueryRowContext(ctx, `SELECT outcome FROM moderation_decisions WHERE request_id = ?`, first)
	if err := row.Scan(&outcome); err != nil {
		t.Fatalf("scan history outcome: %v", err)
	}
	if models.RequestState(outcome) != models.RequestAccepted {
		t.Errorf("history outcome = %d, want Accepted", outcome)
	}
}

func TestNewsPublishAndPage(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	res, err := s.Current.ExecContext(ctx, `INSERT INTO news (news_id) VALUES (NULL)`)
	if err != nil {
		t.Fatalf("insert news: %v", err)
	}
	newsID, _ := res.LastInsertId()
	_, err = s.Current.ExecContext(ctx,
		`INSERT INTO news_translations (news_id, locale, title, body, version) VALUES (?, 'en', 'Hello', 'World', 1)`, newsID)
	if err != nil {
		t.Fatalf("insert translation: %v", err)
	}

	if err := PublishNews(ctx, s.Current, newsID); err != nil {
		t.Fatalf("PublishNews: %v", err)
	}

	items, err := PagedNews(ctx, s.Current, 1<<30, 0, "en")
	if err != nil {
		t.Fatalf("PagedNews: %v", err)
	}
	if len(items) != 1 || !items[0].IsPublic() {
		t.Fatalf("expected one public news item, got %+v", items)
	}
	tr, ok := items[0].Translation("en")
	if !ok || tr.Title != "Hello" {
		t.Errorf("translation mismatch: %+v", tr)
	}
}

func TestGoogleSubjectResolution(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	if _, err := GetAccountByGoogleSubject(ctx, s.Current, "subject-1"); err == nil {
		t.Fatal("expected not-found error for unlinked subject")
	}

	acc, err := CreateAccountForGoogleSubject(ctx, s.Current, "subject-1", "a@example.com")
	if err != nil {
		t.Fatalf("CreateAccountForGoogleSubject: %v", err)
	}
	if acc.State != models.AccountStateInitialSetup {
		t.Errorf("new account state = %v, want InitialSetup", acc.State)
	}

	got, err := GetAccountByGoogleSubject(ctx, s.Current, "subject-1")
	if err != nil {
		t.Fatalf("GetAccountByGoogleSubject: %v", err)
	}
	if got != acc.ID {
		t.Errorf("resolved account = %d, want %d", got, acc.ID)
	}

	stored, err := GetAccount(ctx, s.Current, acc.ID)
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}
	if stored.UUID != acc.UUID {
		t.Errorf("account row mismatch: %+v", stored)
	}
}
