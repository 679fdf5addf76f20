/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package generic

import (
	"context"
	"sync"

	"github.com/ufsp-labs/fabric-settlement/pkg/utils/errors"
	"github.com/ufsp-labs/fabric-settlement/platform/fabric/driver"
)

// GatewayConnection owns the single live gateway session of a connection
// context. Connection changes are serialized behind a mutex, so two
// concurrent Connect calls for different users cannot race: one completes
// fully before the other starts.
type GatewayConnection struct {
	connector driver.Connector
	wallets   *WalletStore
	opts      driver.ConnectOptions

	mu      sync.Mutex
	session driver.Session
	user    string
}

func NewGatewayConnection(connector driver.Connector, wallets *WalletStore, opts driver.ConnectOptions) *GatewayConnection {
	return &GatewayConnection{
		connector: connector,
		wallets:   wallets,
		opts:      opts,
	}
}

// Connect authenticates to the ledger network as the given user. When the
// requested user already owns the live session, the session is reused and
// no network call happens. When a different user is live, that session is
// torn down first, best effort, and then replaced.
func (c *GatewayConnection) Connect(ctx context.Context, userID string) error {
	if userID == "" {
		return errors.Validationf("user id is empty")
	}
	user := SanitizeID(userID)
	if user == "" {
		return errors.Validationf("user id [%s] contains no allowed characters", userID)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != nil && c.user == user {
		logger.Debugf("gateway connection reused for [%s]", user)
		return nil
	}

	// resolve the identity before touching the network; wallet errors and
	// absent identities propagate unchanged
	if _, err := c.wallets.IdentityForUser(user); err != nil {
		return err
	}

	if c.session != nil {
		logger.Infof("replacing gateway session [%s] -> [%s]", c.user, user)
		c.closeLocked()
	}

	opts := c.opts
	opts.User = user
	session, err := c.connector.Connect(ctx, opts)
	if err != nil {
		return errors.WrapConnection(err, "failed to connect gateway as [%s]", user)
	}

	c.session = session
	c.user = user
	auditLogger.Infof("gateway connected [user: %s, tls: %t]", user, opts.TLSEnabled)
	return nil
}

// Disconnect tears down the live session. It is a no-op when no session is
// live. Teardown failures are logged and suppressed: the local state is
// reset regardless of whether the remote side acknowledged.
func (c *GatewayConnection) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		logger.Debugf("disconnect requested but no session is live")
		return
	}
	c.closeLocked()
}

// Gateway returns the live session.
func (c *GatewayConnection) Gateway() (driver.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return nil, errors.Connectionf("gateway is not connected, call Connect() first")
	}
	return c.session, nil
}

// User returns the wallet label bound to the live session, or the empty
// string when none is live.
func (c *GatewayConnection) User() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.user
}

// IsConnected reports whether a session is live.
func (c *GatewayConnection) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session != nil
}

func (c *GatewayConnection) closeLocked() {
	if err := c.session.Close(); err != nil {
		logger.Warnf("gateway teardown for [%s] failed, local state reset anyway: %s", c.user, err)
	} else {
		auditLogger.Infof("gateway disconnected [user: %s]", c.user)
	}
	c.session = nil
	c.user = ""
}
