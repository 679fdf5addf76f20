/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package settlement

import (
	"fmt"
	"time"
)

// Status is a settlement lifecycle state.
type Status string

const (
	// Pending is the initial state of every settlement.
	Pending Status = "PENDING"
	// Processing marks a settlement picked up for execution.
	Processing Status = "PROCESSING"
	// Settled is terminal: the movement completed.
	Settled Status = "SETTLED"
	// Failed marks a recoverable execution failure; retry moves it back
	// into execution.
	Failed Status = "FAILED"
	// Rejected is terminal: the settlement was refused.
	Rejected Status = "REJECTED"

	// Completed is the terminal success state of the legacy transaction
	// model.
	Completed Status = "COMPLETED"
)

// TransitionError reports an illegal status change, naming both states.
type TransitionError struct {
	From   Status
	To     Status
	Reason string
}

func (e *TransitionError) Error() string {
	msg := fmt.Sprintf("invalid status transition from %s to %s", e.From, e.To)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

type transition struct {
	From Status
	To   Status
}

// StateMachine validates settlement status changes against a fixed
// transition table. It performs no I/O; all state lives in the entity the
// transition is applied to.
type StateMachine struct {
	allowed map[transition]struct{}
	reasons map[transition]string
	now     func() time.Time
}

// newStateMachine builds a state machine from explicit transition data.
// Any (from, to) pair absent from allowed is illegal, including from == to.
func newStateMachine(allowed []transition, reasons map[transition]string) *StateMachine {
	m := &StateMachine{
		allowed: make(map[transition]struct{}, len(allowed)),
		reasons: reasons,
		now:     time.Now,
	}
	for _, t := range allowed {
		m.allowed[t] = struct{}{}
	}
	return m
}

// NewSettlementStateMachine returns the normalized five-state model:
// PENDING -> PROCESSING -> SETTLED, with FAILED -> PROCESSING retries and
// REJECTED reachable from the non-terminal states. SETTLED and REJECTED
// are terminal.
func NewSettlementStateMachine() *StateMachine {
	return newStateMachine(
		[]transition{
			{Pending, Processing},
			{Processing, Settled},
			{Processing, Failed},
			{Failed, Processing},
			{Pending, Rejected},
			{Processing, Rejected},
		},
		map[transition]string{
			{Settled, Pending}:     "settled settlements cannot be reverted",
			{Settled, Processing}:  "settled settlements cannot be reverted",
			{Settled, Failed}:      "settled settlements cannot be reverted",
			{Settled, Rejected}:    "settled settlements cannot be reverted",
			{Rejected, Pending}:    "rejected settlements cannot be resumed",
			{Rejected, Processing}: "rejected settlements cannot be resumed",
			{Failed, Settled}:      "failed settlements must be retried through PROCESSING",
		},
	)
}

// NewTransactionStateMachine returns the legacy three-state model:
// PENDING -> COMPLETED/FAILED, with FAILED -> PENDING retries. COMPLETED is
// terminal.
func NewTransactionStateMachine() *StateMachine {
	return newStateMachine(
		[]transition{
			{Pending, Completed},
			{Pending, Failed},
			{Failed, Pending},
		},
		map[transition]string{
			{Completed, Pending}: "completed settlements cannot be reverted",
			{Completed, Failed}:  "completed settlements cannot be reverted",
			{Failed, Completed}:  "failed settlements must be retried through PENDING",
		},
	)
}

// IsValidTransition reports whether the (from, to) pair is in the
// transition table.
func (m *StateMachine) IsValidTransition(from, to Status) bool {
	_, ok := m.allowed[transition{from, to}]
	return ok
}

// ReasonIfInvalid returns a human-readable justification for known-invalid
// transitions, or the empty string for pairs with no canned explanation.
func (m *StateMachine) ReasonIfInvalid(from, to Status) string {
	if m.IsValidTransition(from, to) {
		return ""
	}
	return m.reasons[transition{from, to}]
}

// Apply returns a copy of the settlement moved to the target status, with
// UpdatedAt advanced. The input is never mutated.
func (m *StateMachine) Apply(s Settlement, to Status) (Settlement, error) {
	if !m.IsValidTransition(s.Status, to) {
		return Settlement{}, &TransitionError{From: s.Status, To: to, Reason: m.reasons[transition{s.Status, to}]}
	}
	s.Status = to
	now := m.now()
	// UpdatedAt never moves backwards, even across clock adjustments
	if now.After(s.UpdatedAt) {
		s.UpdatedAt = now
	}
	return s, nil
}
