/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package mocks

import (
	"context"

	"github.com/pkg/errors"

	"github.com/ufsp-labs/fabric-settlement/platform/fabric/driver"
)

// Invocation records one chaincode call as seen by a fake contract.
type Invocation struct {
	Function string
	Args     []string
}

type Contract struct {
	ContractName   string
	SubmitResult   []byte
	SubmitErr      error
	EvaluateResult []byte
	EvaluateErr    error

	SubmitCalls   []Invocation
	EvaluateCalls []Invocation
}

func (c *Contract) Name() string { return c.ContractName }

func (c *Contract) Submit(fn string, args ...string) ([]byte, error) {
	c.SubmitCalls = append(c.SubmitCalls, Invocation{Function: fn, Args: args})
	if c.SubmitErr != nil {
		return nil, c.SubmitErr
	}
	return c.SubmitResult, nil
}

func (c *Contract) Evaluate(fn string, args ...string) ([]byte, error) {
	c.EvaluateCalls = append(c.EvaluateCalls, Invocation{Function: fn, Args: args})
	if c.EvaluateErr != nil {
		return nil, c.EvaluateErr
	}
	return c.EvaluateResult, nil
}

type Network struct {
	NetworkName   string
	Contracts     map[string]*Contract
	ContractErr   error
	ContractCalls int
}

func (n *Network) Name() string { return n.NetworkName }

func (n *Network) Contract(name string) (driver.Contract, error) {
	n.ContractCalls++
	if n.ContractErr != nil {
		return nil, n.ContractErr
	}
	c, ok := n.Contracts[name]
	if !ok {
		return nil, errors.Errorf("chaincode [%s] not deployed", name)
	}
	return c, nil
}

type Session struct {
	BoundUser    string
	Networks     map[string]*Network
	NetworkErr   error
	CloseErr     error
	NetworkCalls int
	Closed       bool
}

func (s *Session) User() string { return s.BoundUser }

func (s *Session) Network(channel string) (driver.Network, error) {
	s.NetworkCalls++
	if s.NetworkErr != nil {
		return nil, s.NetworkErr
	}
	n, ok := s.Networks[channel]
	if !ok {
		return nil, errors.Errorf("channel [%s] not found", channel)
	}
	return n, nil
}

func (s *Session) Close() error {
	s.Closed = true
	return s.CloseErr
}

type Connector struct {
	ConnectErr   error
	ConnectCalls []driver.ConnectOptions
	// NewSession builds the session returned by Connect. When nil, a bare
	// Session bound to the requested user is returned.
	NewSession func(opts driver.ConnectOptions) *Session

	Sessions []*Session
}

func (c *Connector) Connect(_ context.Context, opts driver.ConnectOptions) (driver.Session, error) {
	c.ConnectCalls = append(c.ConnectCalls, opts)
	if c.ConnectErr != nil {
		return nil, c.ConnectErr
	}
	var s *Session
	if c.NewSession != nil {
		s = c.NewSession(opts)
	} else {
		s = &Session{BoundUser: opts.User}
	}
	c.Sessions = append(c.Sessions, s)
	return s, nil
}

type Wallet struct {
	Identities map[string]driver.Identity
	ExistsErr  error
	GetErr     error
	PutErr     error

	ExistsCalls int
	GetCalls    int
}

func NewWallet(labels ...string) *Wallet {
	ids := map[string]driver.Identity{}
	for _, l := range labels {
		ids[l] = driver.Identity{MSPID: "UFSPMSP", Certificate: []byte("cert-" + l), PrivateKey: []byte("key-" + l)}
	}
	return &Wallet{Identities: ids}
}

func (w *Wallet) Exists(label string) (bool, error) {
	w.ExistsCalls++
	if w.ExistsErr != nil {
		return false, w.ExistsErr
	}
	_, ok := w.Identities[label]
	return ok, nil
}

func (w *Wallet) Get(label string) (driver.Identity, error) {
	w.GetCalls++
	if w.GetErr != nil {
		return driver.Identity{}, w.GetErr
	}
	id, ok := w.Identities[label]
	if !ok {
		return driver.Identity{}, errors.Errorf("label [%s] not found", label)
	}
	return id, nil
}

func (w *Wallet) Put(label string, id driver.Identity) error {
	if w.PutErr != nil {
		return w.PutErr
	}
	w.Identities[label] = id
	return nil
}

type WalletOpener struct {
	Wallet    *Wallet
	OpenErr   error
	OpenCalls int
}

func (o *WalletOpener) Open(string) (driver.Wallet, error) {
	o.OpenCalls++
	if o.OpenErr != nil {
		return nil, o.OpenErr
	}
	return o.Wallet, nil
}
