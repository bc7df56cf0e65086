package app

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quote-lifecycle-service/internal/domain"
)

func TestClientGateway_View(t *testing.T) {
	f := newFixture(t)
	sent := f.createSent(t)

	f.clock.Advance(time.Hour)

	view, err := f.gateway.View(context.Background(), sent.Token())
	require.NoError(t, err)

	assert.Equal(t, sent.ID, view.QuoteID)
	assert.Equal(t, "Globex", view.Company)
	assert.Equal(t, domain.StatusViewed, view.Status)
	assert.True(t, view.Respondable)
	require.NotNil(t, view.ViewedAt)
	assert.Equal(t, f.clock.Now(), *view.ViewedAt)
	assert.Equal(t, "1250.5", view.Amount.String())
}

func TestClientGateway_ViewTerminalQuoteReturnsFinalState(t *testing.T) {
	f := newFixture(t)
	sent := f.createSent(t)

	_, err := f.gateway.Respond(context.Background(), sent.Token(), "reject")
	require.NoError(t, err)

	view, err := f.gateway.View(context.Background(), sent.Token())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, view.Status)
	assert.False(t, view.Respondable)
}

func TestClientGateway_ViewLapsedQuoteIsNotRespondable(t *testing.T) {
	f := newFixture(t)
	sent := f.createSent(t)

	f.clock.Advance(testValidity + time.Minute)

	view, err := f.gateway.View(context.Background(), sent.Token())
	require.NoError(t, err)
	assert.False(t, view.Respondable)
}

func TestClientGateway_UnknownTokens(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "malformed", token: "../../etc/passwd"},
		{name: "well formed but never issued", token: strings.Repeat("A", 43)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			_, err := f.gateway.View(context.Background(), tt.token)
			assert.ErrorIs(t, err, domain.ErrTokenNotFound)

			_, err = f.gateway.Respond(context.Background(), tt.token, "accept")
			assert.ErrorIs(t, err, domain.ErrTokenNotFound)
		})
	}
}

func TestClientGateway_Respond(t *testing.T) {
	tests := []struct {
		name       string
		decision   string
		advance    time.Duration
		wantStatus domain.Status
		wantErr    error
	}{
		{name: "accept", decision: "accept", wantStatus: domain.StatusAccepted},
		{name: "reject", decision: "reject", wantStatus: domain.StatusRejected},
		{name: "unknown decision", decision: "maybe", wantErr: domain.ErrValidation},
		{name: "after lapse", decision: "accept", advance: testValidity + time.Second, wantErr: domain.ErrQuoteExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			sent := f.createSent(t)
			f.clock.Advance(tt.advance)

			view, err := f.gateway.Respond(context.Background(), sent.Token(), tt.decision)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, domain.StatusSent, f.get(t, sent.ID).Status)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, view.Status)
			assert.False(t, view.Respondable)
			require.NotNil(t, view.RespondedAt)
		})
	}
}

func TestClientGateway_RespondTwice(t *testing.T) {
	f := newFixture(t)
	sent := f.createSent(t)

	_, err := f.gateway.Respond(context.Background(), sent.Token(), "accept")
	require.NoError(t, err)

	_, err = f.gateway.Respond(context.Background(), sent.Token(), "accept")
	assert.ErrorIs(t, err, domain.ErrAlreadyDecided)
}

func TestNewClientQuoteView_CopiesTimestamps(t *testing.T) {
	viewed := baseTime.Add(time.Hour)
	tok := "tok"
	q := &domain.Quote{
		ID:            "QT-ACME-0000000001",
		Status:        domain.StatusViewed,
		ExpiresAt:     baseTime.Add(testValidity),
		ResponseToken: &tok,
		ViewedAt:      &viewed,
	}

	view := NewClientQuoteView(q, baseTime)
	*q.ViewedAt = baseTime

	assert.Equal(t, baseTime.Add(time.Hour), *view.ViewedAt)
	assert.True(t, view.Respondable)
}
