/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ufsp-labs/fabric-settlement/node"
)

const (
	cmdRoot = "settlementd"
	version = "0.1.0"
)

// The main command describes the daemon and defaults to printing the
// help message.
var mainCmd = &cobra.Command{Use: cmdRoot}

func main() {
	// For environment variables.
	viper.SetEnvPrefix(cmdRoot)
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	mainCmd.AddCommand(node.StartCmd())
	mainCmd.AddCommand(versionCmd())

	// On failure Cobra prints the usage message and error string, so we only
	// need to exit with a non-0 status
	if mainCmd.Execute() != nil {
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print settlementd version.",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("%s:\n Version: %s\n Go version: %s\n OS/Arch: %s/%s\n",
				cmdRoot, version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
			return nil
		},
	}
}
