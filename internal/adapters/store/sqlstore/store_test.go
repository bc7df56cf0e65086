package sqlstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quote-lifecycle-service/internal/adapters/store/storetest"
	"github.com/jsamuelsen/quote-lifecycle-service/internal/domain"
	"github.com/jsamuelsen/quote-lifecycle-service/internal/ports"
)

func openSQLite(t *testing.T) *Store {
	t.Helper()

	s, err := Open(context.Background(), Options{
		Driver: DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "quotes.db"),
	})
	if err != nil {
		// go-sqlite3 needs cgo; skip rather than fail on toolchains without it.
		t.Skipf("sqlite unavailable: %v", err)
	}

	t.Cleanup(func() { _ = s.Close() })

	return s
}

func TestSQLiteStore_Contract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) ports.QuoteStore { return openSQLite(t) })
}

func TestSQLiteStore_PreservesDecimalAndTimes(t *testing.T) {
	s := openSQLite(t)
	ctx := context.Background()

	draft := storetest.NewDraft("acme", 30*24*time.Hour)
	draft.Amount = decimal.RequireFromString("1234.5")

	created, err := s.Create(ctx, draft)
	require.NoError(t, err)

	got, err := s.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, got.Amount.Equal(decimal.RequireFromString("1234.5")), got.Amount.String())
	assert.True(t, got.CreatedAt.Equal(storetest.Base))
	assert.True(t, got.ExpiresAt.Equal(storetest.Base.Add(30*24*time.Hour)))
	assert.Equal(t, time.UTC, got.ExpiresAt.Location())
}

func TestSQLiteStore_Ping(t *testing.T) {
	s := openSQLite(t)

	require.NoError(t, s.Ping(context.Background()))
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Options{Driver: "oracle"})

	require.ErrorIs(t, err, ErrUnknownDriver)
}

func TestStoreErr(t *testing.T) {
	err := storeErr("loading quote", assert.AnError)
	require.ErrorIs(t, err, domain.ErrUnavailable)
	require.ErrorIs(t, err, assert.AnError)

	err = storeErr("loading quote", context.DeadlineExceeded)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, domain.ErrUnavailable)
}

func TestRecordRoundTrip_NilAttachments(t *testing.T) {
	q := storetest.NewDraft("acme", time.Hour)
	q.ID = "QT-ACME-0000000001"
	q.Attachments = nil

	rec := toRecord(q)
	assert.NotNil(t, rec.Attachments)
	assert.Equal(t, q.Company, rec.toDomain().Company)
}

func TestSQLiteDSN(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{"plain path", "./data/quotes.db", "./data/quotes.db?_busy_timeout=5000&_foreign_keys=on"},
		{"uri with query", "file:q.db?cache=shared", "file:q.db?cache=shared&_busy_timeout=5000&_foreign_keys=on"},
		{"memory uri", "file::memory:?mode=memory&cache=shared", "file::memory:?mode=memory&cache=shared&_busy_timeout=5000&_foreign_keys=on"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sqliteDSN(tt.path))
		})
	}
}

func TestOpen_SQLiteURIWithQuery(t *testing.T) {
	openSQLite(t)

	dsn := "file:" + filepath.Join(t.TempDir(), "quotes.db") + "?cache=shared"

	s, err := Open(context.Background(), Options{Driver: DriverSQLite, DSN: dsn})
	require.NoError(t, err)

	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.Ping(context.Background()))
}
