/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package errors

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies the failures the settlement core can report. Callers map
// kinds to transport-level responses; this package never masks the
// underlying cause.
type Kind uint8

const (
	// KindValidation marks malformed or missing input, detected before any I/O.
	KindValidation Kind = iota + 1
	// KindNotFound marks an absent identity or resource.
	KindNotFound
	// KindWallet marks a failure of the backing identity store.
	KindWallet
	// KindConnection marks an unreachable or not yet established gateway.
	KindConnection
	// KindResolution marks a channel or contract that cannot be resolved
	// even though the gateway is connected.
	KindResolution
	// KindInvocation marks a chaincode execution failure, wrapping the
	// underlying cause.
	KindInvocation
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not found"
	case KindWallet:
		return "wallet"
	case KindConnection:
		return "connection"
	case KindResolution:
		return "resolution"
	case KindInvocation:
		return "invocation"
	default:
		return "unknown"
	}
}

// TypedError carries a Kind next to a descriptive message and the wrapped
// cause, if any.
type TypedError struct {
	kind  Kind
	msg   string
	cause error
}

func (e *TypedError) Error() string {
	if e.cause == nil {
		return e.msg
	}
	return fmt.Sprintf("%s: %s", e.msg, e.cause)
}

func (e *TypedError) Kind() Kind { return e.kind }

func (e *TypedError) Unwrap() error { return e.cause }

func newTyped(kind Kind, format string, args ...any) *TypedError {
	return &TypedError{kind: kind, msg: fmt.Sprintf(format, args...)}
}

func wrapTyped(kind Kind, cause error, format string, args ...any) *TypedError {
	return &TypedError{kind: kind, msg: fmt.Sprintf(format, args...), cause: cause}
}

func Validationf(format string, args ...any) error {
	return newTyped(KindValidation, format, args...)
}

func NotFoundf(format string, args ...any) error {
	return newTyped(KindNotFound, format, args...)
}

func Walletf(format string, args ...any) error {
	return newTyped(KindWallet, format, args...)
}

func WrapWallet(cause error, format string, args ...any) error {
	return wrapTyped(KindWallet, cause, format, args...)
}

func Connectionf(format string, args ...any) error {
	return newTyped(KindConnection, format, args...)
}

func WrapConnection(cause error, format string, args ...any) error {
	return wrapTyped(KindConnection, cause, format, args...)
}

func WrapResolution(cause error, format string, args ...any) error {
	return wrapTyped(KindResolution, cause, format, args...)
}

func WrapInvocation(cause error, format string, args ...any) error {
	return wrapTyped(KindInvocation, cause, format, args...)
}

// KindOf returns the Kind of err, unwrapping as needed, or 0 when err
// carries no kind.
func KindOf(err error) Kind {
	var te *TypedError
	if errors.As(err, &te) {
		return te.Kind()
	}
	return 0
}

func IsValidation(err error) bool { return KindOf(err) == KindValidation }
func IsNotFound(err error) bool   { return KindOf(err) == KindNotFound }
func IsWallet(err error) bool     { return KindOf(err) == KindWallet }
func IsConnection(err error) bool { return KindOf(err) == KindConnection }
func IsResolution(err error) bool { return KindOf(err) == KindResolution }
func IsInvocation(err error) bool { return KindOf(err) == KindInvocation }
