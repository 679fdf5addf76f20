/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package generic

import (
	"regexp"

	"github.com/ufsp-labs/fabric-settlement/pkg/utils/errors"
)

// function names are reduced to this alphabet before they reach the ledger
var disallowedFnChars = regexp.MustCompile(`[^A-Za-z0-9_]+`)

// MaxArgLength is the maximum length, in bytes, of a single argument of a
// submitted transaction.
const MaxArgLength = 10000

// Invoker is the public operation surface of the chaincode layer, fixed to
// one (channel, chaincode) pair at construction time.
type Invoker struct {
	accessor  *ContractAccessor
	channel   string
	chaincode string
}

// NewInvoker fails when the channel or chaincode configuration is missing;
// this is the only error of this layer that is fatal at construction time.
func NewInvoker(accessor *ContractAccessor, channel, chaincode string) (*Invoker, error) {
	if channel == "" {
		return nil, errors.Validationf("default channel is not configured")
	}
	if chaincode == "" {
		return nil, errors.Validationf("default chaincode is not configured")
	}
	return &Invoker{accessor: accessor, channel: channel, chaincode: chaincode}, nil
}

func (i *Invoker) Channel() string { return i.channel }

func (i *Invoker) Chaincode() string { return i.chaincode }

// Evaluate performs a read-only query of the configured chaincode. The
// function name is sanitized; underlying failures are logged and returned
// unchanged.
func (i *Invoker) Evaluate(fn string, args ...string) ([]byte, error) {
	fn, err := i.cleanFunction(fn)
	if err != nil {
		return nil, err
	}

	contract, err := i.accessor.Contract(i.channel, i.chaincode)
	if err != nil {
		return nil, err
	}

	res, err := i.accessor.Evaluate(contract, fn, args)
	if err != nil {
		logger.Errorf("evaluate [%s] on [%s:%s] failed: %s", fn, i.channel, i.chaincode, err)
		return nil, err
	}
	logger.Debugf("evaluate [%s] on [%s:%s] returned [%d] bytes", fn, i.channel, i.chaincode, len(res))
	return res, nil
}

// Submit performs a state-changing invocation of the configured chaincode.
// On top of the Evaluate validations, every argument is capped at
// MaxArgLength. A successful submit emits a financial audit entry distinct
// from the generic logs.
func (i *Invoker) Submit(fn string, args ...string) ([]byte, error) {
	fn, err := i.cleanFunction(fn)
	if err != nil {
		return nil, err
	}
	for idx, arg := range args {
		if len(arg) > MaxArgLength {
			return nil, errors.Validationf("argument [%d] of [%s] exceeds maximum length [%d]", idx, fn, MaxArgLength)
		}
	}

	contract, err := i.accessor.Contract(i.channel, i.chaincode)
	if err != nil {
		return nil, err
	}

	res, err := i.accessor.Submit(contract, fn, args)
	if err != nil {
		logger.Errorf("submit [%s] to [%s:%s] failed: %s", fn, i.channel, i.chaincode, err)
		return nil, err
	}
	auditLogger.Infof("transaction submitted [channel: %s, chaincode: %s, fn: %s, args: %d]", i.channel, i.chaincode, fn, len(args))
	return res, nil
}

func (i *Invoker) cleanFunction(fn string) (string, error) {
	if fn == "" {
		return "", errors.Validationf("function name is empty")
	}
	clean := disallowedFnChars.ReplaceAllString(fn, "")
	if clean == "" {
		return "", errors.Validationf("function name [%s] contains no allowed characters", fn)
	}
	if clean != fn {
		logger.Warnf("function name sanitized [%s] -> [%s]", fn, clean)
	}
	return clean, nil
}
