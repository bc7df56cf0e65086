package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quote-lifecycle-service/internal/domain"
	"github.com/jsamuelsen/quote-lifecycle-service/internal/mocks"
	"github.com/jsamuelsen/quote-lifecycle-service/internal/ports"
)

func TestSweeper_ExpiresLapsedQuotes(t *testing.T) {
	f := newFixture(t)
	sent := f.createSent(t)
	f.clock.Advance(testValidity + time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)

	go func() {
		done <- NewSweeper(f.engine, 10*time.Millisecond, discardLogger()).Run(ctx)
	}()

	require.Eventually(t, func() bool {
		return f.get(t, sent.ID).Status == domain.StatusExpired
	}, time.Second, 5*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}

func TestSweeper_KeepsRunningAfterFailure(t *testing.T) {
	store := mocks.NewMockQuoteStore(t)

	calls := make(chan struct{}, 8)
	store.EXPECT().ListExpirable(mock.Anything, domain.StatusSent, mock.Anything, "", mock.Anything).
		RunAndReturn(func(context.Context, domain.Status, time.Time, string, int) (*ports.QuotePage, error) {
			select {
			case calls <- struct{}{}:
			default:
			}

			return nil, domain.NewUnavailableError("quote-store", "down")
		})

	engine := NewLifecycleEngine(LifecycleEngineConfig{Store: store, Logger: discardLogger()})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)

	go func() {
		done <- NewSweeper(engine, 5*time.Millisecond, discardLogger()).Run(ctx)
	}()

	for range 2 {
		select {
		case <-calls:
		case <-time.After(time.Second):
			t.Fatal("sweeper stopped after a failed sweep")
		}
	}

	cancel()
	assert.NoError(t, <-done)
}
