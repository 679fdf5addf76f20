/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package store

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/ufsp-labs/fabric-settlement/pkg/utils/errors"
	"github.com/ufsp-labs/fabric-settlement/platform/common/services/logging"
	"github.com/ufsp-labs/fabric-settlement/settlement"
)

var logger = logging.MustGetLogger("settlement-sdk.store")

const schema = `
CREATE TABLE IF NOT EXISTS settlements (
	id              TEXT PRIMARY KEY,
	transaction_id  TEXT NOT NULL,
	amount          NUMERIC(20,2) NOT NULL,
	currency        CHAR(3) NOT NULL,
	status          TEXT NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL,
	updated_at      TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS settlement_status_changes (
	id              BIGSERIAL PRIMARY KEY,
	settlement_id   TEXT NOT NULL,
	from_status     TEXT NOT NULL,
	to_status       TEXT NOT NULL,
	changed_at      TIMESTAMPTZ NOT NULL
);
`

// Postgres mirrors settlement records into a relational store so listing
// and audit queries do not hit the ledger. It implements settlement.Mirror.
type Postgres struct {
	db *sql.DB
}

// Open connects to postgres at the given DSN, retrying the initial ping,
// and creates the mirror tables if they do not exist.
func Open(ctx context.Context, dsn string) (*Postgres, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, errors.WrapConnection(err, "failed to open postgres mirror")
	}
	if err := pingWithRetry(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	p := &Postgres{db: db}
	if err := p.init(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return p, nil
}

// NewPostgres wraps an already opened database handle. Used by tests.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func pingWithRetry(ctx context.Context, db *sql.DB) error {
	var err error
	for i := 0; i < 5; i++ {
		if err = db.PingContext(ctx); err == nil {
			return nil
		}
		logger.Warnf("postgres mirror not ready, retrying: %s", err)
		select {
		case <-ctx.Done():
			return errors.WrapConnection(ctx.Err(), "postgres mirror ping interrupted")
		case <-time.After(time.Duration(i+1) * time.Second):
		}
	}
	return errors.WrapConnection(err, "postgres mirror is unreachable")
}

func (p *Postgres) init(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, schema); err != nil {
		return errors.Wrapf(err, "failed to create mirror tables")
	}
	return nil
}

// Close releases the underlying connection pool.
func (p *Postgres) Close() error {
	return p.db.Close()
}

// SaveSettlement upserts one settlement record.
func (p *Postgres) SaveSettlement(ctx context.Context, s settlement.Settlement) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO settlements (id, transaction_id, amount, currency, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET status = $5, updated_at = $7`,
		s.ID, s.TransactionID, s.Amount.StringFixed(2), s.Currency, string(s.Status), s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return errors.Wrapf(err, "failed to save settlement [%s]", s.ID)
	}
	return nil
}

// RecordStatusChange appends one row to the status change journal and
// moves the settlement row to the new status.
func (p *Postgres) RecordStatusChange(ctx context.Context, id string, from, to settlement.Status, at time.Time) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrapf(err, "failed to begin mirror transaction")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO settlement_status_changes (settlement_id, from_status, to_status, changed_at)
		VALUES ($1, $2, $3, $4)`,
		id, string(from), string(to), at,
	); err != nil {
		return errors.Wrapf(err, "failed to journal status change for [%s]", id)
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE settlements SET status = $2, updated_at = $3 WHERE id = $1`,
		id, string(to), at,
	); err != nil {
		return errors.Wrapf(err, "failed to move settlement [%s] to [%s]", id, to)
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrapf(err, "failed to commit status change for [%s]", id)
	}
	return nil
}

// ListSettlements returns every mirrored settlement, newest first.
func (p *Postgres) ListSettlements(ctx context.Context) ([]settlement.Settlement, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, transaction_id, amount, currency, status, created_at, updated_at
		FROM settlements ORDER BY created_at DESC`)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list settlements")
	}
	defer rows.Close()

	var recs []settlement.Settlement
	for rows.Next() {
		var (
			rec    settlement.Settlement
			amount string
			status string
		)
		if err := rows.Scan(&rec.ID, &rec.TransactionID, &amount, &rec.Currency, &status, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, errors.Wrapf(err, "failed to scan settlement row")
		}
		rec.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid mirrored amount for [%s]", rec.ID)
		}
		rec.Status = settlement.Status(status)
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to iterate settlements")
	}
	return recs, nil
}
