/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package node

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ufsp-labs/fabric-settlement/pkg/utils/errors"
)

// StartCmd returns the cobra command that runs the daemon until a
// termination signal arrives.
func StartCmd() *cobra.Command {
	var confPath string

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Starts the settlement daemon.",
		Long:  `Starts the settlement daemon that bridges HTTP callers to the ledger network.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 {
				return errors.Validationf("trailing args detected")
			}
			cmd.SilenceUsage = true
			return serve(confPath)
		},
	}
	cmd.Flags().StringVarP(&confPath, "config", "c", ".", "directory holding settlement.yaml")
	return cmd
}

func serve(confPath string) error {
	n, err := New(confPath)
	if err != nil {
		return err
	}
	if err := n.Start(); err != nil {
		return err
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	serveErr := make(chan error, 1)
	go func() { serveErr <- n.Wait() }()

	select {
	case sig := <-signals:
		logger.Infof("received signal [%s], exiting...", sig)
		n.Stop()
		return nil
	case err := <-serveErr:
		logger.Errorf("http server failed: %s", err)
		n.Stop()
		return err
	}
}
