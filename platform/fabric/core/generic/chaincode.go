/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package generic

import (
	"sync"

	"go.uber.org/zap/zapcore"

	"github.com/ufsp-labs/fabric-settlement/pkg/utils/errors"
	"github.com/ufsp-labs/fabric-settlement/platform/common/utils/cache"
	"github.com/ufsp-labs/fabric-settlement/platform/fabric/driver"
)

// ContractAccessor resolves (channel, contract name) pairs to callable
// contract handles through the live gateway session. Resolved handles are
// cached under a channel::name key; the cache is flushed whenever the live
// session changes, since handles are only valid within the session that
// produced them.
type ContractAccessor struct {
	conn *GatewayConnection

	mu        sync.Mutex
	session   driver.Session
	contracts cache.Map[string, driver.Contract]
}

func NewContractAccessor(conn *GatewayConnection) *ContractAccessor {
	return &ContractAccessor{
		conn:      conn,
		contracts: cache.NewMapCache[string, driver.Contract](),
	}
}

// Contract returns the contract handle for the given channel and contract
// name, resolving it through the network on first use and from the cache
// afterwards.
func (a *ContractAccessor) Contract(channel, name string) (driver.Contract, error) {
	channel = SanitizeID(channel)
	if channel == "" {
		return nil, errors.Validationf("channel name is empty")
	}
	name = SanitizeID(name)
	if name == "" {
		return nil, errors.Validationf("contract name is empty")
	}

	session, err := a.conn.Gateway()
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.session != session {
		if a.session != nil {
			logger.Infof("gateway session changed, flushing [%d] cached contract handles", a.contracts.Len())
		}
		a.contracts = cache.NewMapCache[string, driver.Contract]()
		a.session = session
	}

	key := channel + "::" + name
	if contract, ok := a.contracts.Get(key); ok {
		if logger.IsEnabledFor(zapcore.DebugLevel) {
			logger.Debugf("contract cache hit [%s]", key)
		}
		return contract, nil
	}

	network, err := session.Network(channel)
	if err != nil {
		return nil, errors.WrapResolution(err, "failed to resolve channel [%s]", channel)
	}
	contract, err := network.Contract(name)
	if err != nil {
		return nil, errors.WrapResolution(err, "failed to resolve contract [%s] on channel [%s]", name, channel)
	}

	a.contracts.Put(key, contract)
	logger.Infof("contract resolved [%s]", key)
	return contract, nil
}

// Submit performs a state-changing invocation on the given contract.
func (a *ContractAccessor) Submit(contract driver.Contract, fn string, args []string) ([]byte, error) {
	if err := checkInvocation(contract, fn); err != nil {
		return nil, err
	}
	res, err := contract.Submit(fn, args...)
	if err != nil {
		return nil, errors.WrapInvocation(err, "failed to submit [%s] to [%s]", fn, contract.Name())
	}
	return res, nil
}

// Evaluate performs a read-only query on the given contract. Failures are
// not retried here; the caller decides.
func (a *ContractAccessor) Evaluate(contract driver.Contract, fn string, args []string) ([]byte, error) {
	if err := checkInvocation(contract, fn); err != nil {
		return nil, err
	}
	res, err := contract.Evaluate(fn, args...)
	if err != nil {
		return nil, errors.WrapInvocation(err, "failed to evaluate [%s] on [%s]", fn, contract.Name())
	}
	return res, nil
}

func checkInvocation(contract driver.Contract, fn string) error {
	if contract == nil {
		return errors.Validationf("contract is nil")
	}
	if fn == "" {
		return errors.Validationf("function name is empty")
	}
	return nil
}
