/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package fsdk backs the driver interfaces with the Hyperledger Fabric SDK
// gateway API. It is the only package that imports the SDK; everything
// above it talks to the driver interfaces and can be exercised against
// fakes.
package fsdk

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/hyperledger/fabric-sdk-go/pkg/core/config"
	"github.com/hyperledger/fabric-sdk-go/pkg/gateway"

	"github.com/ufsp-labs/fabric-settlement/pkg/utils/errors"
	"github.com/ufsp-labs/fabric-settlement/platform/common/services/logging"
	"github.com/ufsp-labs/fabric-settlement/platform/fabric/driver"
)

var logger = logging.MustGetLogger("settlement-sdk.core.fsdk")

// Driver opens file-system wallets and gateway sessions through the Fabric
// SDK. Connection and TLS parameters beyond the timeouts live in the
// connection profile the driver is constructed with.
type Driver struct {
	connectionProfile string

	mu     sync.Mutex
	wallet *gateway.Wallet
}

func NewDriver(connectionProfile string) *Driver {
	return &Driver{connectionProfile: connectionProfile}
}

// Open roots a file-system wallet at the given path. The same wallet handle
// is reused by Connect to resolve identities.
func (d *Driver) Open(path string) (driver.Wallet, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.wallet == nil {
		w, err := gateway.NewFileSystemWallet(filepath.Clean(path))
		if err != nil {
			return nil, errors.Wrapf(err, "failed to open file system wallet at [%s]", path)
		}
		d.wallet = w
	}
	return &walletAdapter{wallet: d.wallet}, nil
}

// Connect opens a gateway session authenticated with the wallet identity of
// opts.User. The endorsement timeout bounds transaction commit; the
// connection timeout and TLS settings are taken from the connection
// profile.
func (d *Driver) Connect(_ context.Context, opts driver.ConnectOptions) (driver.Session, error) {
	d.mu.Lock()
	wallet := d.wallet
	d.mu.Unlock()
	if wallet == nil {
		return nil, errors.Errorf("wallet is not open, resolve an identity first")
	}

	gw, err := gateway.Connect(
		gateway.WithConfig(config.FromFile(filepath.Clean(d.connectionProfile))),
		gateway.WithIdentity(wallet, opts.User),
		gateway.WithTimeout(opts.EndorsementTimeout),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to connect to gateway with profile [%s]", d.connectionProfile)
	}
	logger.Infof("gateway session opened [user: %s, profile: %s]", opts.User, d.connectionProfile)
	return &session{gw: gw, user: opts.User}, nil
}

type session struct {
	gw   *gateway.Gateway
	user string
}

func (s *session) User() string { return s.user }

func (s *session) Network(channel string) (driver.Network, error) {
	nw, err := s.gw.GetNetwork(channel)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get network [%s]", channel)
	}
	return &network{nw: nw, name: channel}, nil
}

func (s *session) Close() error {
	s.gw.Close()
	return nil
}

type network struct {
	nw   *gateway.Network
	name string
}

func (n *network) Name() string { return n.name }

func (n *network) Contract(name string) (driver.Contract, error) {
	return &contract{contract: n.nw.GetContract(name)}, nil
}

type contract struct {
	contract *gateway.Contract
}

func (c *contract) Name() string { return c.contract.Name() }

func (c *contract) Submit(fn string, args ...string) ([]byte, error) {
	return c.contract.SubmitTransaction(fn, args...)
}

func (c *contract) Evaluate(fn string, args ...string) ([]byte, error) {
	return c.contract.EvaluateTransaction(fn, args...)
}

type walletAdapter struct {
	wallet *gateway.Wallet
}

func (w *walletAdapter) Exists(label string) (bool, error) {
	return w.wallet.Exists(label), nil
}

func (w *walletAdapter) Get(label string) (driver.Identity, error) {
	id, err := w.wallet.Get(label)
	if err != nil {
		return driver.Identity{}, errors.Wrapf(err, "failed to read identity [%s]", label)
	}
	x509, ok := id.(*gateway.X509Identity)
	if !ok {
		return driver.Identity{}, errors.Errorf("identity [%s] is not an X509 identity", label)
	}
	return driver.Identity{
		MSPID:       x509.MspID,
		Certificate: []byte(x509.Certificate()),
		PrivateKey:  []byte(x509.Key()),
	}, nil
}

func (w *walletAdapter) Put(label string, id driver.Identity) error {
	identity := gateway.NewX509Identity(id.MSPID, string(id.Certificate), string(id.PrivateKey))
	if err := w.wallet.Put(label, identity); err != nil {
		return errors.Wrapf(err, "failed to store identity [%s]", label)
	}
	return nil
}
