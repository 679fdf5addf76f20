/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package store

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ufsp-labs/fabric-settlement/settlement"
)

func newMirror(t *testing.T) (*Postgres, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgres(db), mock
}

func TestSaveSettlementUpserts(t *testing.T) {
	mirror, mock := newMirror(t)

	now := time.Now()
	rec := settlement.Settlement{
		ID:            "s-1",
		TransactionID: "tx-1",
		Amount:        decimal.RequireFromString("42.5"),
		Currency:      "GBP",
		Status:        settlement.Pending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	mock.ExpectExec("INSERT INTO settlements").
		WithArgs("s-1", "tx-1", "42.50", "GBP", "PENDING", now, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, mirror.SaveSettlement(context.Background(), rec))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordStatusChangeJournalsAndUpdates(t *testing.T) {
	mirror, mock := newMirror(t)

	at := time.Now()
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO settlement_status_changes").
		WithArgs("s-1", "PENDING", "PROCESSING", at).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE settlements SET status").
		WithArgs("s-1", "PROCESSING", at).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := mirror.RecordStatusChange(context.Background(), "s-1", settlement.Pending, settlement.Processing, at)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordStatusChangeRollsBackOnFailure(t *testing.T) {
	mirror, mock := newMirror(t)

	at := time.Now()
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO settlement_status_changes").
		WithArgs("s-1", "PENDING", "PROCESSING", at).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := mirror.RecordStatusChange(context.Background(), "s-1", settlement.Pending, settlement.Processing, at)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListSettlements(t *testing.T) {
	mirror, mock := newMirror(t)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "transaction_id", "amount", "currency", "status", "created_at", "updated_at"}).
		AddRow("s-2", "tx-2", "10.00", "EUR", "SETTLED", now, now).
		AddRow("s-1", "tx-1", "42.50", "GBP", "PENDING", now, now)
	mock.ExpectQuery("SELECT id, transaction_id, amount").WillReturnRows(rows)

	recs, err := mirror.ListSettlements(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "s-2", recs[0].ID)
	assert.Equal(t, settlement.Settled, recs[0].Status)
	assert.True(t, recs[0].Amount.Equal(decimal.RequireFromString("10")))
	require.NoError(t, mock.ExpectationsWereMet())
}
