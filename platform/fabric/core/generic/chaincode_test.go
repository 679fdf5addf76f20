/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package generic

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ufsp-labs/fabric-settlement/pkg/utils/errors"
	"github.com/ufsp-labs/fabric-settlement/platform/fabric/core/generic/mocks"
	"github.com/ufsp-labs/fabric-settlement/platform/fabric/driver"
)

// fixture returns a connected accessor whose gateway serves the
// settlement-channel with a settlement-contract deployed.
func newAccessor(t *testing.T) (*ContractAccessor, *GatewayConnection, *mocks.Connector, *mocks.Contract) {
	t.Helper()

	contract := &mocks.Contract{
		ContractName:   "settlement-contract",
		SubmitResult:   []byte(`{"ok":true}`),
		EvaluateResult: []byte(`{"ok":true}`),
	}
	conn, connector := newConnection("user123")
	connector.NewSession = func(opts driver.ConnectOptions) *mocks.Session {
		return &mocks.Session{
			BoundUser: opts.User,
			Networks: map[string]*mocks.Network{
				"settlement-channel": {
					NetworkName: "settlement-channel",
					Contracts:   map[string]*mocks.Contract{"settlement-contract": contract},
				},
			},
		}
	}
	require.NoError(t, conn.Connect(context.Background(), "user123"))
	return NewContractAccessor(conn), conn, connector, contract
}

func TestContractRequiresConnection(t *testing.T) {
	conn, _ := newConnection("user123")
	accessor := NewContractAccessor(conn)

	_, err := accessor.Contract("settlement-channel", "settlement-contract")
	require.Error(t, err)
	assert.True(t, errors.IsConnection(err))
}

func TestContractValidatesInputs(t *testing.T) {
	accessor, _, connector, _ := newAccessor(t)

	_, err := accessor.Contract("", "settlement-contract")
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))

	_, err = accessor.Contract("settlement-channel", "")
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))

	// validation failures never touch the session
	assert.Equal(t, 0, connector.Sessions[0].NetworkCalls)
}

func TestContractResolutionCached(t *testing.T) {
	accessor, _, connector, _ := newAccessor(t)

	first, err := accessor.Contract("settlement-channel", "settlement-contract")
	require.NoError(t, err)
	second, err := accessor.Contract("settlement-channel", "settlement-contract")
	require.NoError(t, err)

	assert.Same(t, first, second)
	// one channel lookup, one contract lookup, despite two calls
	assert.Equal(t, 1, connector.Sessions[0].NetworkCalls)
	assert.Equal(t, 1, connector.Sessions[0].Networks["settlement-channel"].ContractCalls)
}

func TestContractCacheFlushedOnNewSession(t *testing.T) {
	accessor, conn, connector, _ := newAccessor(t)

	_, err := accessor.Contract("settlement-channel", "settlement-contract")
	require.NoError(t, err)

	// a new session invalidates every cached handle
	conn.Disconnect()
	require.NoError(t, conn.Connect(context.Background(), "user123"))

	_, err = accessor.Contract("settlement-channel", "settlement-contract")
	require.NoError(t, err)
	assert.Equal(t, 1, connector.Sessions[1].NetworkCalls)
}

func TestContractUnknownChannel(t *testing.T) {
	accessor, _, _, _ := newAccessor(t)

	_, err := accessor.Contract("ghost-channel", "settlement-contract")
	require.Error(t, err)
	assert.True(t, errors.IsResolution(err))
	assert.Contains(t, err.Error(), "ghost-channel")
}

func TestContractUnknownName(t *testing.T) {
	accessor, _, _, _ := newAccessor(t)

	_, err := accessor.Contract("settlement-channel", "ghost-contract")
	require.Error(t, err)
	assert.True(t, errors.IsResolution(err))
}

func TestSubmitAndEvaluate(t *testing.T) {
	accessor, _, _, contract := newAccessor(t)

	handle, err := accessor.Contract("settlement-channel", "settlement-contract")
	require.NoError(t, err)

	res, err := accessor.Submit(handle, "CreateSettlement", []string{"id1", "{}"})
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"ok":true}`), res)
	require.Len(t, contract.SubmitCalls, 1)
	assert.Equal(t, mocks.Invocation{Function: "CreateSettlement", Args: []string{"id1", "{}"}}, contract.SubmitCalls[0])

	_, err = accessor.Evaluate(handle, "ReadSettlement", []string{"id1"})
	require.NoError(t, err)
	require.Len(t, contract.EvaluateCalls, 1)
}

func TestSubmitValidatesContractAndFunction(t *testing.T) {
	accessor, _, _, contract := newAccessor(t)

	_, err := accessor.Submit(nil, "CreateSettlement", nil)
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))

	handle, err := accessor.Contract("settlement-channel", "settlement-contract")
	require.NoError(t, err)
	_, err = accessor.Submit(handle, "", nil)
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))

	assert.Empty(t, contract.SubmitCalls)
}

func TestInvocationFailuresAreWrapped(t *testing.T) {
	accessor, _, _, contract := newAccessor(t)
	contract.SubmitErr = errors.Errorf("endorsement mismatch")
	contract.EvaluateErr = errors.Errorf("ledger read failed")

	handle, err := accessor.Contract("settlement-channel", "settlement-contract")
	require.NoError(t, err)

	_, err = accessor.Submit(handle, "CreateSettlement", nil)
	require.Error(t, err)
	assert.True(t, errors.IsInvocation(err))
	assert.Contains(t, err.Error(), "endorsement mismatch")

	_, err = accessor.Evaluate(handle, "ReadSettlement", nil)
	require.Error(t, err)
	assert.True(t, errors.IsInvocation(err))
}
