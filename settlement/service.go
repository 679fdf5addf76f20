/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package settlement

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ufsp-labs/fabric-settlement/pkg/utils/errors"
	"github.com/ufsp-labs/fabric-settlement/platform/common/services/logging"
)

var logger = logging.MustGetLogger("settlement-sdk.settlement")

var auditLogger = logging.MustGetLogger("settlement-sdk.audit")

// Invoker is the chaincode operation surface the service runs on.
type Invoker interface {
	Submit(fn string, args ...string) ([]byte, error)
	Evaluate(fn string, args ...string) ([]byte, error)
}

// Mirror receives an off-chain copy of settlement records and status
// changes for listing and audit. Mirror failures never fail the chain
// operation; they are logged and the ledger remains the source of truth.
type Mirror interface {
	SaveSettlement(ctx context.Context, s Settlement) error
	RecordStatusChange(ctx context.Context, id string, from, to Status, at time.Time) error
	ListSettlements(ctx context.Context) ([]Settlement, error)
}

// Service implements the settlement operations over the chaincode layer,
// validating every status change against the normalized state machine
// before it reaches the ledger.
type Service struct {
	invoker Invoker
	machine *StateMachine
	mirror  Mirror
}

// NewService builds a settlement service. The mirror may be nil, in which
// case listing falls back to the ledger.
func NewService(invoker Invoker, mirror Mirror) *Service {
	return &Service{
		invoker: invoker,
		machine: NewSettlementStateMachine(),
		mirror:  mirror,
	}
}

// StateMachine exposes the transition model the service enforces.
func (s *Service) StateMachine() *StateMachine { return s.machine }

// Create records a new PENDING settlement on the ledger.
func (s *Service) Create(ctx context.Context, transactionID, amount, currency string) (Settlement, error) {
	value, err := decimal.NewFromString(amount)
	if err != nil {
		return Settlement{}, errors.Validationf("amount [%s] is not a decimal number", amount)
	}
	rec, err := NewSettlement(transactionID, value, currency)
	if err != nil {
		return Settlement{}, err
	}

	payload, err := json.Marshal(rec)
	if err != nil {
		return Settlement{}, errors.Wrapf(err, "failed to serialize settlement [%s]", rec.ID)
	}
	if _, err := s.invoker.Submit("CreateSettlement", rec.ID, string(payload)); err != nil {
		return Settlement{}, err
	}
	auditLogger.Infof("settlement created [id: %s, tx: %s, amount: %s %s]", rec.ID, rec.TransactionID, rec.Amount, rec.Currency)

	s.mirrorSave(ctx, rec)
	return rec, nil
}

// Get reads one settlement from the ledger.
func (s *Service) Get(ctx context.Context, id string) (Settlement, error) {
	if id == "" {
		return Settlement{}, errors.Validationf("settlement id is empty")
	}
	raw, err := s.invoker.Evaluate("ReadSettlement", id)
	if err != nil {
		return Settlement{}, err
	}
	var rec Settlement
	if err := json.Unmarshal(raw, &rec); err != nil {
		return Settlement{}, errors.Wrapf(err, "failed to decode settlement [%s]", id)
	}
	return rec, nil
}

// UpdateStatus moves a settlement to the target status. The transition is
// validated locally before anything reaches the ledger; an illegal change
// fails with a TransitionError naming both states.
func (s *Service) UpdateStatus(ctx context.Context, id string, to Status) (Settlement, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return Settlement{}, err
	}

	updated, err := s.machine.Apply(current, to)
	if err != nil {
		return Settlement{}, err
	}

	if _, err := s.invoker.Submit("UpdateSettlementStatus", id, string(to)); err != nil {
		return Settlement{}, err
	}
	auditLogger.Infof("settlement status changed [id: %s, %s -> %s]", id, current.Status, to)

	if s.mirror != nil {
		if err := s.mirror.RecordStatusChange(ctx, id, current.Status, to, updated.UpdatedAt); err != nil {
			logger.Warnf("mirror update for [%s] failed: %s", id, err)
		}
	}
	return updated, nil
}

// List returns the known settlements, preferring the mirror when one is
// configured.
func (s *Service) List(ctx context.Context) ([]Settlement, error) {
	if s.mirror != nil {
		return s.mirror.ListSettlements(ctx)
	}
	raw, err := s.invoker.Evaluate("ListSettlements")
	if err != nil {
		return nil, err
	}
	var recs []Settlement
	if err := json.Unmarshal(raw, &recs); err != nil {
		return nil, errors.Wrapf(err, "failed to decode settlement list")
	}
	return recs, nil
}

func (s *Service) mirrorSave(ctx context.Context, rec Settlement) {
	if s.mirror == nil {
		return
	}
	if err := s.mirror.SaveSettlement(ctx, rec); err != nil {
		logger.Warnf("mirror save for [%s] failed: %s", rec.ID, err)
	}
}
