package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDraft() QuoteDraft {
	return QuoteDraft{
		Tenant:       "acme",
		Company:      "Globex",
		ContactName:  "Hank Scorpio",
		ContactEmail: "hank@globex.test",
		Product:      "Widgets",
		Quantity:     10,
		Amount:       decimal.RequireFromString("1250.50"),
		Currency:     "usd",
		Attachments:  []string{"spec-sheet.pdf"},
	}
}

func TestStatus_TransitionGraph(t *testing.T) {
	legal := map[Status][]Status{
		StatusDraft:  {StatusSent},
		StatusSent:   {StatusViewed, StatusAccepted, StatusRejected, StatusExpired},
		StatusViewed: {StatusAccepted, StatusRejected, StatusExpired},
	}

	for _, from := range AllStatuses {
		for _, to := range AllStatuses {
			want := false

			for _, s := range legal[from] {
				if s == to {
					want = true
				}
			}

			assert.Equal(t, want, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestStatus_Classification(t *testing.T) {
	for _, s := range []Status{StatusAccepted, StatusRejected, StatusExpired} {
		assert.True(t, s.IsTerminal(), s)
	}

	for _, s := range []Status{StatusDraft, StatusSent, StatusViewed} {
		assert.False(t, s.IsTerminal(), s)
	}

	assert.True(t, StatusSent.IsAwaitingClient())
	assert.True(t, StatusViewed.IsAwaitingClient())
	assert.False(t, StatusExpired.IsAwaitingClient())
	assert.True(t, StatusRejected.IsDecided())
	assert.False(t, StatusExpired.IsDecided())
}

func TestParseStatusAndDecision(t *testing.T) {
	s, err := ParseStatus(" Viewed ")
	require.NoError(t, err)
	assert.Equal(t, StatusViewed, s)

	_, err = ParseStatus("archived")
	require.ErrorIs(t, err, ErrValidation)

	d, err := ParseDecision("ACCEPT")
	require.NoError(t, err)
	assert.Equal(t, StatusAccepted, d.Status())

	d, err = ParseDecision("reject")
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, d.Status())

	_, err = ParseDecision("maybe")
	require.ErrorIs(t, err, ErrValidation)
}

func TestQuoteDraft_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*QuoteDraft)
		field  string
	}{
		{name: "valid", mutate: func(*QuoteDraft) {}},
		{name: "missing company", mutate: func(d *QuoteDraft) { d.Company = " " }, field: "company"},
		{name: "zero quantity", mutate: func(d *QuoteDraft) { d.Quantity = 0 }, field: "quantity"},
		{name: "negative amount", mutate: func(d *QuoteDraft) { d.Amount = decimal.NewFromInt(-1) }, field: "amount"},
		{name: "bad currency", mutate: func(d *QuoteDraft) { d.Currency = "dollars" }, field: "currency"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDraft()
			tt.mutate(&d)

			err := d.Validate()
			if tt.field == "" {
				require.NoError(t, err)
				return
			}

			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
		})
	}
}

func TestNewDraftQuote(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	q := NewDraftQuote(validDraft(), now, 30*24*time.Hour)

	assert.Equal(t, StatusDraft, q.Status)
	assert.Equal(t, "USD", q.Currency)
	assert.Equal(t, now.Add(30*24*time.Hour), q.ExpiresAt)
	assert.Nil(t, q.ResponseToken)
	assert.Empty(t, q.Token())
}

func TestQuote_CloneDoesNotAlias(t *testing.T) {
	now := time.Now().UTC()
	token := "tok"
	q := &Quote{ID: "QT-ACME-0000000001", ResponseToken: &token, ViewedAt: &now, Attachments: []string{"a"}}

	c := q.Clone()
	*c.ResponseToken = "other"
	c.Attachments[0] = "b"
	later := now.Add(time.Hour)
	*c.ViewedAt = later

	assert.Equal(t, "tok", q.Token())
	assert.Equal(t, "a", q.Attachments[0])
	assert.Equal(t, now, *q.ViewedAt)
	assert.Nil(t, (*Quote)(nil).Clone())
}

func TestQuote_CheckInvariants(t *testing.T) {
	now := time.Now().UTC()
	earlier := now.Add(-time.Minute)
	token := "tok"

	tests := []struct {
		name    string
		quote   Quote
		wantErr bool
	}{
		{name: "draft", quote: Quote{ID: "q", Status: StatusDraft}},
		{name: "draft with token", quote: Quote{ID: "q", Status: StatusDraft, ResponseToken: &token}, wantErr: true},
		{name: "sent", quote: Quote{ID: "q", Status: StatusSent, ResponseToken: &token}},
		{name: "sent without token", quote: Quote{ID: "q", Status: StatusSent}, wantErr: true},
		{name: "sent with viewedAt", quote: Quote{ID: "q", Status: StatusSent, ResponseToken: &token, ViewedAt: &now}, wantErr: true},
		{name: "accepted", quote: Quote{ID: "q", Status: StatusAccepted, ResponseToken: &token, ViewedAt: &earlier, RespondedAt: &now}},
		{name: "accepted without viewedAt", quote: Quote{ID: "q", Status: StatusAccepted, ResponseToken: &token, RespondedAt: &now}, wantErr: true},
		{name: "viewed after responded", quote: Quote{ID: "q", Status: StatusRejected, ResponseToken: &token, ViewedAt: &now, RespondedAt: &earlier}, wantErr: true},
		{name: "expired without response", quote: Quote{ID: "q", Status: StatusExpired, ResponseToken: &token}},
		{name: "expired with respondedAt", quote: Quote{ID: "q", Status: StatusExpired, ResponseToken: &token, ViewedAt: &earlier, RespondedAt: &now}, wantErr: true},
		{name: "empty id", quote: Quote{Status: StatusDraft}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.quote.CheckInvariants()
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvariantViolation)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestDraftPatch_ApplyTo(t *testing.T) {
	q := NewDraftQuote(validDraft(), time.Now(), time.Hour)
	qty := 25
	cur := "eur"

	patch := DraftPatch{Quantity: &qty, Currency: &cur}
	require.NoError(t, patch.ApplyTo(q))
	assert.Equal(t, 25, q.Quantity)
	assert.Equal(t, "EUR", q.Currency)

	bad := 0
	patch = DraftPatch{Quantity: &bad}
	require.ErrorIs(t, patch.ApplyTo(q), ErrValidation)
}

func TestDraftFromQuote(t *testing.T) {
	q := NewDraftQuote(validDraft(), time.Now(), time.Hour)
	q.ID = "QT-ACME-0000000009"

	d := DraftFromQuote(q)

	assert.Equal(t, "QT-ACME-0000000009", d.RequotedFrom)
	assert.Equal(t, q.Amount, d.Amount)
}

func TestFormatQuoteID(t *testing.T) {
	assert.Equal(t, "QT-ACME-0000000042", FormatQuoteID("acme", 42))
	assert.Equal(t, "QT-ACME-0001234567", FormatQuoteID("ACME", 1234567))
}

func TestFormatQuoteID_SortsInSequenceOrder(t *testing.T) {
	seqs := []int64{1, 9, 10, 999_999, 1_000_000, 1_000_001, 9_999_999_999}

	for i := 1; i < len(seqs); i++ {
		prev, next := FormatQuoteID("ACME", seqs[i-1]), FormatQuoteID("ACME", seqs[i])
		assert.Less(t, prev, next, "%d should sort before %d", seqs[i-1], seqs[i])
	}
}

func TestLifecycleEvent(t *testing.T) {
	at := time.Now().UTC()
	q := &Quote{ID: "QT-ACME-0000000001", Tenant: "acme", Status: StatusAccepted}

	ev := NewLifecycleEvent(q, ActorClient, at)

	assert.Equal(t, "quote.accepted", ev.EventType())
	assert.Equal(t, ev, ev.Payload())
	assert.NotEmpty(t, ev.ID)
	assert.Equal(t, ActorClient, ev.Actor)
	assert.Equal(t, EventQuoteCreated, EventTypeForStatus(StatusDraft))
	assert.Equal(t, EventQuoteExpired, EventTypeForStatus(StatusExpired))
}
