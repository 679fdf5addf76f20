/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package logging

import (
	"io"

	"github.com/hyperledger/fabric-lib-go/common/flogging"
)

type Config struct {
	// Format is the log record format specifier. If set to the string
	// "json", records are emitted as JSON; any other string is handed to
	// the format encoder as-is.
	Format string
	// LogSpec determines the log levels that are enabled. The spec must be
	// in a format that flogging.ActivateSpec can process.
	//
	// If LogSpec is not provided, loggers are enabled at the INFO level.
	LogSpec string
	// Writer is the sink for encoded and formatted log records.
	//
	// If a Writer is not provided, os.Stderr is used.
	Writer io.Writer
}

func Init(c Config) {
	flogging.Init(flogging.Config{
		Format:  c.Format,
		LogSpec: c.LogSpec,
		Writer:  c.Writer,
	})
}
