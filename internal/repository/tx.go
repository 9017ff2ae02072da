package repository

import (
	"context"
	"errors"
	"time"

	"maderera/internal/metrics"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Transactor runs fn inside a single database transaction. Repositories'
// *Tx methods must be called with the tx handed to fn.
type Transactor interface {
	Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type gormTransactor struct {
	db         *gorm.DB
	maxRetries int
}

// NewTransactor returns a Transactor that retries the whole transaction up
// to maxRetries times when Postgres aborts it with a serialization failure
// or a deadlock. Any other error, including the ones returned by fn, is
// returned as-is.
func NewTransactor(db *gorm.DB, maxRetries int) Transactor {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &gormTransactor{db: db, maxRetries: maxRetries}
}

func (t *gormTransactor) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	for attempt := 0; ; attempt++ {
		err := t.db.WithContext(ctx).Transaction(fn)
		if err == nil || !IsConflict(err) || attempt >= t.maxRetries {
			return err
		}
		metrics.LedgerTxRetries.Inc()
		log.Warn().Err(err).Int("attempt", attempt+1).Msg("transaction conflict, retrying")

		wait := time.Duration(attempt+1) * 25 * time.Millisecond
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// IsConflict reports whether err is a Postgres serialization failure
// (40001) or deadlock (40P01), i.e. the transaction can be safely re-run.
func IsConflict(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}

// IsNotFound reports whether err means the requested row does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func paginate(page, limit, defLimit, maxLimit int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > maxLimit {
		limit = defLimit
	}
	return page, limit, (page - 1) * limit
}
