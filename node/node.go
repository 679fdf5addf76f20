/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package node assembles the settlement daemon: configuration, logging,
// the fabric gateway stack, the optional postgres mirror and the HTTP
// adapter, with an ordered start and stop.
package node

import (
	"context"
	"net/http"
	"time"

	"github.com/ufsp-labs/fabric-settlement/pkg/utils/errors"
	"github.com/ufsp-labs/fabric-settlement/platform/common/services/logging"
	"github.com/ufsp-labs/fabric-settlement/platform/fabric/config"
	"github.com/ufsp-labs/fabric-settlement/platform/fabric/core/fsdk"
	"github.com/ufsp-labs/fabric-settlement/platform/fabric/core/generic"
	"github.com/ufsp-labs/fabric-settlement/platform/fabric/driver"
	"github.com/ufsp-labs/fabric-settlement/services/server"
	"github.com/ufsp-labs/fabric-settlement/settlement"
	"github.com/ufsp-labs/fabric-settlement/settlement/store"
)

var logger = logging.MustGetLogger("settlement-sdk.node")

const (
	defaultListenAddress  = ":8280"
	defaultShutdownWindow = 10 * time.Second
)

// Node owns the wired component graph and its lifecycle.
type Node struct {
	user    string
	conn    *generic.GatewayConnection
	invoker *generic.Invoker
	mirror  *store.Postgres
	http    *http.Server

	serveErr chan error
}

// New builds the daemon from the configuration directory at confPath.
// Construction fails fast on missing channel or chaincode.
func New(confPath string) (*Node, error) {
	provider, err := config.NewProvider(confPath)
	if err != nil {
		return nil, err
	}
	logging.Init(logging.Config{
		Format:  provider.GetString("logging.format"),
		LogSpec: provider.GetString("logging.spec"),
	})

	fabric, err := provider.Fabric()
	if err != nil {
		return nil, err
	}
	user := provider.GetString("fabric.user")
	if user == "" {
		return nil, errors.Validationf("fabric.user is not configured")
	}

	sdk := fsdk.NewDriver(fabric.ConnectionProfile)
	wallets := generic.NewWalletStore(sdk, fabric.WalletPath)
	conn := generic.NewGatewayConnection(sdk, wallets, driver.ConnectOptions{
		TLSEnabled:         fabric.TLSEnabled,
		ConnectionTimeout:  fabric.ConnectionTimeout,
		EndorsementTimeout: fabric.EndorsementTimeout,
	})
	accessor := generic.NewContractAccessor(conn)
	invoker, err := generic.NewInvoker(accessor, fabric.DefaultChannel, fabric.DefaultChaincode)
	if err != nil {
		return nil, err
	}

	var mirror *store.Postgres
	if dsn := provider.GetString("mirror.dsn"); dsn != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		mirror, err = store.Open(ctx, dsn)
		if err != nil {
			return nil, err
		}
	}

	service := settlement.NewService(invoker, mirrorOrNil(mirror))

	address := provider.GetString("server.address")
	if address == "" {
		address = defaultListenAddress
	}

	return &Node{
		user:    user,
		conn:    conn,
		invoker: invoker,
		mirror:  mirror,
		http: &http.Server{
			Addr:    address,
			Handler: server.New(service, invoker, conn),
		},
		serveErr: make(chan error, 1),
	}, nil
}

// mirrorOrNil avoids handing the service a typed nil behind the Mirror
// interface.
func mirrorOrNil(p *store.Postgres) settlement.Mirror {
	if p == nil {
		return nil
	}
	return p
}

// Start connects the gateway and begins serving HTTP. It returns once the
// listener is up; serve failures surface on Wait.
func (n *Node) Start() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := n.conn.Connect(ctx, n.user); err != nil {
		return err
	}
	logger.Infof("gateway connected [user: %s, channel: %s, chaincode: %s]", n.user, n.invoker.Channel(), n.invoker.Chaincode())

	go func() {
		logger.Infof("http listening on [%s]", n.http.Addr)
		if err := n.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			n.serveErr <- err
		}
	}()
	return nil
}

// Wait blocks until the HTTP listener fails.
func (n *Node) Wait() error {
	return <-n.serveErr
}

// Stop drains the HTTP server, disconnects the gateway and closes the
// mirror. Teardown failures are logged; local state is reset regardless.
func (n *Node) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), defaultShutdownWindow)
	defer cancel()
	if err := n.http.Shutdown(ctx); err != nil {
		logger.Warnf("http shutdown did not complete cleanly: %s", err)
	}
	n.conn.Disconnect()
	if n.mirror != nil {
		if err := n.mirror.Close(); err != nil {
			logger.Warnf("failed to close mirror: %s", err)
		}
	}
}
