/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package settlement models the lifecycle of one financial movement: the
// settlement record, its status state machine, and the operations that
// persist status changes through the chaincode layer. The ledger is the
// source of truth; this package only transports and validates.
package settlement

import (
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ufsp-labs/fabric-settlement/pkg/utils/errors"
)

var currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)

// Settlement is one financial movement instance. The identifier is an
// opaque UUID-shaped string; amounts carry at most two fractional digits.
type Settlement struct {
	ID            string          `json:"id"`
	TransactionID string          `json:"transactionId"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	Status        Status          `json:"status"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// NewSettlement builds a PENDING settlement with a fresh identifier and
// validates it.
func NewSettlement(transactionID string, amount decimal.Decimal, currency string) (Settlement, error) {
	now := time.Now()
	s := Settlement{
		ID:            uuid.NewString(),
		TransactionID: transactionID,
		Amount:        amount,
		Currency:      currency,
		Status:        Pending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.Validate(); err != nil {
		return Settlement{}, err
	}
	return s, nil
}

// Validate checks the shape invariants of the record.
func (s Settlement) Validate() error {
	if s.ID == "" {
		return errors.Validationf("settlement id is empty")
	}
	if s.TransactionID == "" {
		return errors.Validationf("transaction id is empty")
	}
	if !s.Amount.IsPositive() {
		return errors.Validationf("amount [%s] must be positive", s.Amount)
	}
	if !s.Amount.Equal(s.Amount.Round(2)) {
		return errors.Validationf("amount [%s] has more than two fractional digits", s.Amount)
	}
	if !currencyPattern.MatchString(s.Currency) {
		return errors.Validationf("currency [%s] is not a three-letter uppercase code", s.Currency)
	}
	if s.UpdatedAt.Before(s.CreatedAt) {
		return errors.Validationf("updatedAt precedes createdAt")
	}
	return nil
}
