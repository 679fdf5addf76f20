/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package driver

import (
	"context"
	"time"
)

// Identity is the credential material stored under one wallet label: the
// MSP that issued it, the enrollment certificate, and the private key.
// Identities are immutable once created.
type Identity struct {
	MSPID       string
	Certificate []byte
	PrivateKey  []byte
}

// Wallet is the backing identity store, rooted at a configured filesystem
// path or equivalent.
type Wallet interface {
	// Exists reports whether an identity is stored under the given label.
	Exists(label string) (bool, error)
	// Get returns the identity stored under the given label.
	Get(label string) (Identity, error)
	// Put stores an identity under the given label.
	Put(label string, id Identity) error
}

// WalletOpener roots a Wallet at the given path.
type WalletOpener interface {
	Open(path string) (Wallet, error)
}

// Contract is a resolved, callable reference to a chaincode within a
// channel.
type Contract interface {
	// Name returns the chaincode name this contract refers to.
	Name() string
	// Submit performs a state-changing (ordered, endorsed) invocation and
	// returns the chaincode payload.
	Submit(fn string, args ...string) ([]byte, error)
	// Evaluate performs a read-only query against current state.
	Evaluate(fn string, args ...string) ([]byte, error)
}

// Network scopes contract resolution to one channel of the ledger network.
type Network interface {
	Name() string
	Contract(name string) (Contract, error)
}

// Session is one authenticated gateway connection, bound to exactly one
// identity for its whole lifetime.
type Session interface {
	// User returns the wallet label the session is bound to.
	User() string
	// Network resolves the channel with the given name.
	Network(channel string) (Network, error)
	// Close tears the session down. The session is unusable afterwards.
	Close() error
}

// ConnectOptions carries the parameters of a gateway connection attempt.
type ConnectOptions struct {
	// User is the wallet label whose identity authenticates the session.
	User string
	// TLSEnabled toggles TLS towards the ledger network.
	TLSEnabled bool
	// ConnectionTimeout bounds connection establishment.
	ConnectionTimeout time.Duration
	// EndorsementTimeout bounds endorsement collection on submit.
	EndorsementTimeout time.Duration
}

// Connector opens gateway sessions against the ledger network. It is the
// injection point for the concrete ledger SDK; tests substitute it with a
// fake.
type Connector interface {
	Connect(ctx context.Context, opts ConnectOptions) (Session, error)
}
