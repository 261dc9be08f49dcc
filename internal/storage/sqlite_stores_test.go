package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/herald-sh/herald/internal/domain"
	"github.com/herald-sh/herald/internal/storage"
)

func openTestDB(t *testing.T) *storageDB {
	t.Helper()
	db, fresh, err := storage.NewSQLiteDB(":memory:")
	require.NoError(t, err)
	require.True(t, fresh)
	t.Cleanup(func() { _ = db.Close() })
	return &storageDB{
		messages:    storage.NewSQLiteMessageStore(db),
		requests:    storage.NewSQLiteRequestStore(db),
		attempts:    storage.NewSQLiteAttemptStore(db),
		preferences: storage.NewSQLitePreferenceStore(db),
		templates:   storage.NewSQLiteTemplateStore(db),
		recipients:  storage.NewSQLiteRecipientStore(db),
	}
}

type storageDB struct {
	messages    *storage.SQLiteMessageStore
	requests    *storage.SQLiteRequestStore
	attempts    *storage.SQLiteAttemptStore
	preferences *storage.SQLitePreferenceStore
	templates   *storage.SQLiteTemplateStore
	recipients  *storage.SQLiteRecipientStore
}

func seedMessage(t *testing.T, s *storageDB) *domain.Message {
	t.Helper()
	m := &domain.Message{
		ID:            uuid.NewString(),
		SenderService: "auth-service",
		Title:         "Reset your password",
		Content:       "Use [this link](https://example.com/reset) to reset.",
		Format:        domain.ContentFormatMarkdown,
		Sensitive:     true,
		Urgency:       domain.UrgencyUrgent,
		Metadata:      map[string]string{"reset_token": "tok-1"},
		CreatedAt:     time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, s.messages.CreateMessage(context.Background(), m))
	return m
}

func seedRequest(t *testing.T, s *storageDB, messageID string) *domain.DeliveryRequest {
	t.Helper()
	r := &domain.DeliveryRequest{
		ID:            uuid.NewString(),
		MessageID:     messageID,
		CorrelationID: uuid.NewString(),
		UserID:        "user-1",
		Channels:      []domain.Channel{domain.ChannelEmail},
		CreatedAt:     time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, s.requests.CreateRequest(context.Background(), r))
	return r
}

func TestMessageStore_RoundTrip(t *testing.T) {
	s := openTestDB(t)
	ctx := context.Background()

	m := seedMessage(t, s)

	got, err := s.messages.GetMessage(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, m.Title, got.Title)
	assert.Equal(t, domain.ContentFormatMarkdown, got.Format)
	assert.Equal(t, domain.UrgencyUrgent, got.Urgency)
	assert.True(t, got.Sensitive)
	assert.Equal(t, "tok-1", got.Metadata["reset_token"])

	_, err = s.messages.GetMessage(ctx, "no-such-id")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRequestStore_MarkProcessed(t *testing.T) {
	s := openTestDB(t)
	ctx := context.Background()

	m := seedMessage(t, s)
	r := seedRequest(t, s, m.ID)

	got, err := s.requests.GetRequest(ctx, r.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ProcessedAt)
	assert.Equal(t, []domain.Channel{domain.ChannelEmail}, got.Channels)

	at := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, s.requests.MarkProcessed(ctx, r.ID, at))

	got, err = s.requests.GetRequest(ctx, r.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ProcessedAt)
	assert.Equal(t, at, got.ProcessedAt.UTC())

	assert.ErrorIs(t, s.requests.MarkProcessed(ctx, "no-such-id", at), domain.ErrNotFound)
}

func TestRequestStore_FindByCorrelationID(t *testing.T) {
	s := openTestDB(t)
	ctx := context.Background()

	m := seedMessage(t, s)
	r := seedRequest(t, s, m.ID)

	got, err := s.requests.FindByCorrelationID(ctx, r.CorrelationID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, r.ID, got.ID)
	assert.Equal(t, []domain.Channel{domain.ChannelEmail}, got.Channels)

	// Unknown and empty ids are misses, not errors.
	got, err = s.requests.FindByCorrelationID(ctx, "no-such-correlation")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = s.requests.FindByCorrelationID(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRequestStore_PruneCascadesAttempts(t *testing.T) {
	s := openTestDB(t)
	ctx := context.Background()

	m := seedMessage(t, s)
	old := seedRequest(t, s, m.ID)
	recent := seedRequest(t, s, m.ID)

	attempt := &domain.DeliveryAttempt{
		ID:               uuid.NewString(),
		RequestID:        old.ID,
		Channel:          domain.ChannelEmail,
		RecipientAddress: "a@example.com",
		Status:           domain.AttemptPending,
		AttemptNumber:    1,
		CreatedAt:        time.Now().UTC(),
	}
	require.NoError(t, s.attempts.CreateAttempt(ctx, attempt))

	longAgo := time.Now().UTC().Add(-48 * time.Hour)
	require.NoError(t, s.requests.MarkProcessed(ctx, old.ID, longAgo))
	require.NoError(t, s.requests.MarkProcessed(ctx, recent.ID, time.Now().UTC()))

	n, err := s.requests.PruneProcessedBefore(ctx, time.Now().UTC().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = s.requests.GetRequest(ctx, old.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = s.requests.GetRequest(ctx, recent.ID)
	assert.NoError(t, err)

	orphans, err := s.attempts.ListAttemptsByRequest(ctx, old.ID)
	require.NoError(t, err)
	assert.Empty(t, orphans)
}

func TestAttemptStore_CountAndUpdate(t *testing.T) {
	s := openTestDB(t)
	ctx := context.Background()

	m := seedMessage(t, s)
	r := seedRequest(t, s, m.ID)

	for i := 1; i <= 2; i++ {
		a := &domain.DeliveryAttempt{
			ID:               uuid.NewString(),
			RequestID:        r.ID,
			Channel:          domain.ChannelEmail,
			RecipientAddress: "a@example.com",
			Status:           domain.AttemptPending,
			AttemptNumber:    i,
			CreatedAt:        time.Now().UTC().Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, s.attempts.CreateAttempt(ctx, a))

		if i == 1 {
			require.NoError(t, a.Transition(domain.AttemptFailed, domain.AttemptTransition{Error: "smtp timeout"}))
			require.NoError(t, s.attempts.UpdateAttempt(ctx, a))
		}
	}

	n, err := s.attempts.CountChannelAttempts(ctx, r.ID, domain.ChannelEmail)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = s.attempts.CountChannelAttempts(ctx, r.ID, domain.ChannelSMS)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	attempts, err := s.attempts.ListAttemptsByRequest(ctx, r.ID)
	require.NoError(t, err)
	require.Len(t, attempts, 2)
	assert.Equal(t, domain.AttemptFailed, attempts[0].Status)
	assert.Equal(t, "smtp timeout", attempts[0].Error)
	assert.Equal(t, domain.AttemptPending, attempts[1].Status)
}

func TestPreferenceStore_UpsertAndFind(t *testing.T) {
	s := openTestDB(t)
	ctx := context.Background()

	none, err := s.preferences.FindByUserID(ctx, "user-1")
	require.NoError(t, err)
	assert.Nil(t, none)

	p := &domain.ChannelPreference{
		ID:              uuid.NewString(),
		UserID:          "user-1",
		EmailEnabled:    true,
		SMSEnabled:      false,
		QuietHoursStart: "22:00",
		QuietHoursEnd:   "07:00",
		QuietHoursTZ:    "Europe/Berlin",
		CreatedAt:       time.Now().UTC().Truncate(time.Second),
		UpdatedAt:       time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, s.preferences.UpsertPreference(ctx, p))

	got, err := s.preferences.FindByUserID(ctx, "user-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.False(t, got.SMSEnabled)
	assert.True(t, got.HasQuietHours())

	// Upsert for the same user replaces, never duplicates.
	p2 := *p
	p2.ID = uuid.NewString()
	p2.SMSEnabled = true
	require.NoError(t, s.preferences.UpsertPreference(ctx, &p2))

	got, err = s.preferences.FindByUserID(ctx, "user-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.SMSEnabled)
	assert.Equal(t, p.ID, got.ID)

	require.NoError(t, s.preferences.DeletePreference(ctx, p.ID))
	none, err = s.preferences.FindByUserID(ctx, "user-1")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestTemplateStore_ActiveLookup(t *testing.T) {
	s := openTestDB(t)
	ctx := context.Background()

	tmpl := &domain.TemplateWrapper{
		ID:              uuid.NewString(),
		Name:            "password_reset",
		Channel:         domain.ChannelEmail,
		SubjectTemplate: "Reset: {{.Title}}",
		BodyTemplate:    "{{.Content}}",
		Active:          true,
		CreatedAt:       time.Now().UTC().Truncate(time.Second),
		UpdatedAt:       time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, s.templates.UpsertTemplate(ctx, tmpl))

	got, err := s.templates.FindTemplate(ctx, "password_reset", domain.ChannelEmail)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, tmpl.BodyTemplate, got.BodyTemplate)

	// Same name on another channel is a distinct template.
	got, err = s.templates.FindTemplate(ctx, "password_reset", domain.ChannelSMS)
	require.NoError(t, err)
	assert.Nil(t, got)

	// Deactivating hides the template from lookup.
	tmpl.Active = false
	require.NoError(t, s.templates.UpsertTemplate(ctx, tmpl))
	got, err = s.templates.FindTemplate(ctx, "password_reset", domain.ChannelEmail)
	require.NoError(t, err)
	assert.Nil(t, got)

	all, err := s.templates.ListTemplates(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestRecipientStore_ResolveAddresses(t *testing.T) {
	s := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, s.recipients.UpsertRecipient(ctx, &storage.Recipient{
		ID:        uuid.NewString(),
		UserID:    "user-1",
		Email:     "a@example.com",
		Phone:     "+15550001111",
		CreatedAt: time.Now().UTC(),
	}))
	require.NoError(t, s.recipients.UpsertRecipient(ctx, &storage.Recipient{
		ID:        uuid.NewString(),
		ContactID: "contact-9",
		Phone:     "+15550002222",
		CreatedAt: time.Now().UTC(),
	}))

	addrs, err := s.recipients.ResolveAddresses(ctx, "user-1", "")
	require.NoError(t, err)
	require.Len(t, addrs, 1)
	assert.Equal(t, "a@example.com", addrs[0].ForChannel(domain.ChannelEmail))

	addrs, err = s.recipients.ResolveAddresses(ctx, "user-1", "contact-9")
	require.NoError(t, err)
	assert.Len(t, addrs, 2)

	addrs, err = s.recipients.ResolveAddresses(ctx, "", "")
	require.NoError(t, err)
	assert.Empty(t, addrs)

	addrs, err = s.recipients.ResolveAddresses(ctx, "unknown", "")
	require.NoError(t, err)
	assert.Empty(t, addrs)
}
