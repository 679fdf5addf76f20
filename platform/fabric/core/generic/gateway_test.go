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

func newConnection(labels ...string) (*GatewayConnection, *mocks.Connector) {
	wallets, _ := newWalletStore(labels...)
	connector := &mocks.Connector{}
	conn := NewGatewayConnection(connector, wallets, driver.ConnectOptions{TLSEnabled: true})
	return conn, connector
}

func TestConnectReusesSessionForSameUser(t *testing.T) {
	conn, connector := newConnection("user123")
	ctx := context.Background()

	require.NoError(t, conn.Connect(ctx, "user123"))
	require.NoError(t, conn.Connect(ctx, "user123"))

	// the second call is a no-op reuse, only one network connect happened
	assert.Len(t, connector.ConnectCalls, 1)
	assert.Equal(t, "user123", conn.User())
}

func TestConnectReplacesSessionForDifferentUser(t *testing.T) {
	conn, connector := newConnection("alice", "bob")
	ctx := context.Background()

	require.NoError(t, conn.Connect(ctx, "alice"))
	first := connector.Sessions[0]

	require.NoError(t, conn.Connect(ctx, "bob"))

	// alice's session was torn down before bob's became live
	assert.True(t, first.Closed)
	assert.Len(t, connector.ConnectCalls, 2)

	session, err := conn.Gateway()
	require.NoError(t, err)
	assert.Equal(t, "bob", session.User())
}

func TestConnectValidatesUserBeforeNetwork(t *testing.T) {
	conn, connector := newConnection("user123")
	ctx := context.Background()

	err := conn.Connect(ctx, "")
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))

	err = conn.Connect(ctx, "<<<>>>")
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))

	assert.Empty(t, connector.ConnectCalls)
}

func TestConnectUnknownIdentity(t *testing.T) {
	conn, connector := newConnection("user123")

	err := conn.Connect(context.Background(), "stranger")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
	assert.Empty(t, connector.ConnectCalls)
}

func TestConnectNetworkFailure(t *testing.T) {
	conn, connector := newConnection("user123")
	connector.ConnectErr = errors.Errorf("network unreachable")

	err := conn.Connect(context.Background(), "user123")
	require.Error(t, err)
	assert.True(t, errors.IsConnection(err))
	assert.False(t, conn.IsConnected())
}

func TestConnectPassesOptions(t *testing.T) {
	conn, connector := newConnection("user123")

	require.NoError(t, conn.Connect(context.Background(), "user123"))
	require.Len(t, connector.ConnectCalls, 1)
	assert.Equal(t, "user123", connector.ConnectCalls[0].User)
	assert.True(t, connector.ConnectCalls[0].TLSEnabled)
}

func TestGatewayWhenNotConnected(t *testing.T) {
	conn, _ := newConnection("user123")

	_, err := conn.Gateway()
	require.Error(t, err)
	assert.True(t, errors.IsConnection(err))
	assert.Contains(t, err.Error(), "call Connect() first")
}

func TestDisconnect(t *testing.T) {
	conn, connector := newConnection("user123")
	ctx := context.Background()

	// disconnecting without a session is a logged no-op
	conn.Disconnect()

	require.NoError(t, conn.Connect(ctx, "user123"))
	conn.Disconnect()

	assert.True(t, connector.Sessions[0].Closed)
	assert.False(t, conn.IsConnected())
	assert.Empty(t, conn.User())
}

func TestDisconnectSwallowsTeardownError(t *testing.T) {
	conn, connector := newConnection("user123")
	connector.NewSession = func(opts driver.ConnectOptions) *mocks.Session {
		return &mocks.Session{BoundUser: opts.User, CloseErr: errors.Errorf("remote hung up")}
	}

	require.NoError(t, conn.Connect(context.Background(), "user123"))
	conn.Disconnect()

	// local state is reset regardless of the remote teardown outcome
	assert.False(t, conn.IsConnected())
}
