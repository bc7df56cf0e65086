package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/jsamuelsen/quote-lifecycle-service/internal/domain"
	"github.com/jsamuelsen/quote-lifecycle-service/internal/ports"
)

// DefaultPageSize is used when a query does not set a limit.
const DefaultPageSize = 50

const nextSequenceSQL = `INSERT INTO quote_sequences (tenant, last_value) VALUES (?, 1)
ON CONFLICT (tenant) DO UPDATE SET last_value = quote_sequences.last_value + 1
RETURNING last_value`

// Store is a gorm-backed QuoteStore.
type Store struct {
	db *gorm.DB
}

var _ ports.QuoteStore = (*Store)(nil)

// Ping verifies the database connection.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}

	return sqlDB.PingContext(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

// Create implements ports.QuoteStore.
func (s *Store) Create(ctx context.Context, draft *domain.Quote) (*domain.Quote, error) {
	q := draft.Clone()
	q.Tenant = strings.ToUpper(q.Tenant)

	err := s.runInTx(ctx, func(txCtx context.Context) error {
		var seq int64
		if err := s.conn(txCtx).Raw(nextSequenceSQL, q.Tenant).Scan(&seq).Error; err != nil {
			return storeErr("allocating quote id", err)
		}

		q.ID = domain.FormatQuoteID(q.Tenant, seq)
		if err := q.CheckInvariants(); err != nil {
			return err
		}

		rec := toRecord(q)
		if err := s.conn(txCtx).Create(&rec).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return domain.NewInvariantError("quote", "duplicate id "+q.ID)
			}

			return storeErr("inserting quote", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return q, nil
}

// GetByID implements ports.QuoteStore.
func (s *Store) GetByID(ctx context.Context, id string) (*domain.Quote, error) {
	var rec quoteRecord
	if err := s.conn(ctx).Where("id = ?", id).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("quote", id)
		}

		return nil, storeErr("loading quote", err)
	}

	return rec.toDomain(), nil
}

// GetByToken implements ports.QuoteStore.
func (s *Store) GetByToken(ctx context.Context, token string) (*domain.Quote, error) {
	var rec quoteRecord
	if err := s.conn(ctx).Where("response_token = ?", token).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewTokenNotFoundError()
		}

		return nil, storeErr("loading quote by token", err)
	}

	return rec.toDomain(), nil
}

// ApplyTransition implements ports.QuoteStore. The update is conditioned on
// both status and version so concurrent edits of the same status also lose.
func (s *Store) ApplyTransition(
	ctx context.Context,
	id string,
	expected domain.Status,
	mutate ports.TransitionFunc,
) (*domain.Quote, error) {
	current, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if current.Status != expected {
		return nil, domain.NewStaleStatusError(id, expected, current.Status)
	}

	next := current.Clone()
	if err := mutate(next); err != nil {
		return nil, err
	}

	if err := checkTransition(current, next); err != nil {
		return nil, err
	}

	next.Version = current.Version + 1
	rec := toRecord(next)

	res := s.conn(ctx).
		Model(&quoteRecord{}).
		Where("id = ? AND status = ? AND version = ?", id, string(expected), current.Version).
		Select(mutableColumns).
		Updates(&rec)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return nil, domain.ErrTokenCollision
		}

		return nil, storeErr("updating quote", res.Error)
	}

	if res.RowsAffected == 0 {
		latest, err := s.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}

		return nil, domain.NewStaleStatusError(id, expected, latest.Status)
	}

	return next, nil
}

func checkTransition(current, next *domain.Quote) error {
	if next.ID != current.ID {
		return domain.NewInvariantError("quote", "transition changed id of "+current.ID)
	}

	if err := next.CheckInvariants(); err != nil {
		return err
	}

	if old := current.Token(); old != "" && next.Token() != old {
		return domain.NewInvariantError("quote", "response token of "+current.ID+" cannot change")
	}

	return nil
}

// List implements ports.QuoteStore.
func (s *Store) List(ctx context.Context, query ports.ListQuotesQuery) (*ports.QuotePage, error) {
	db := s.conn(ctx)

	if query.Tenant != "" {
		db = db.Where("tenant = ?", strings.ToUpper(query.Tenant))
	}

	if query.Status != "" {
		db = db.Where("status = ?", string(query.Status))
	}

	return page(db, query.Cursor, query.Limit)
}

// ListExpirable implements ports.QuoteStore.
func (s *Store) ListExpirable(
	ctx context.Context,
	status domain.Status,
	now time.Time,
	cursor string,
	limit int,
) (*ports.QuotePage, error) {
	db := s.conn(ctx).Where("status = ? AND expires_at < ?", string(status), now.UTC())

	return page(db, cursor, limit)
}

func page(db *gorm.DB, cursor string, limit int) (*ports.QuotePage, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}

	if cursor != "" {
		db = db.Where("id > ?", cursor)
	}

	var recs []quoteRecord
	if err := db.Order("id").Limit(limit + 1).Find(&recs).Error; err != nil {
		return nil, storeErr("listing quotes", err)
	}

	p := &ports.QuotePage{Items: make([]*domain.Quote, 0, min(limit, len(recs)))}

	for i := range recs {
		if i == limit {
			p.NextCursor = recs[limit-1].ID
			break
		}

		p.Items = append(p.Items, recs[i].toDomain())
	}

	return p, nil
}

// AppendEvent implements ports.QuoteStore.
func (s *Store) AppendEvent(ctx context.Context, event domain.LifecycleEvent) error {
	rec := toEventRecord(event)
	if err := s.conn(ctx).Create(&rec).Error; err != nil {
		return storeErr("appending event", err)
	}

	return nil
}

// ListEvents implements ports.QuoteStore.
func (s *Store) ListEvents(ctx context.Context, quoteID string) ([]domain.LifecycleEvent, error) {
	var recs []eventRecord
	if err := s.conn(ctx).Where("quote_id = ?", quoteID).Order("seq").Find(&recs).Error; err != nil {
		return nil, storeErr("listing events", err)
	}

	events := make([]domain.LifecycleEvent, 0, len(recs))
	for i := range recs {
		events = append(events, recs[i].toDomain())
	}

	return events, nil
}

// storeErr classifies infrastructure failures as unavailable unless the
// caller's context ended.
func storeErr(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}

	return fmt.Errorf("%s: %w: %w", op, domain.ErrUnavailable, err)
}
