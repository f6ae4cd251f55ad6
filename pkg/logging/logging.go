// Copyright (c) 2017-2026 Digital Asset (Switzerland) GmbH and/or its affiliates. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"assetlock.dev/x/assetlock/pkg/config"
)

// InitLogging installs a text handler on stderr at the level named by the log level env var
func InitLogging() error {
	logLevel, ok := os.LookupEnv(config.LogLevelEnvVar)
	if !ok {
		return initLogging(os.Stderr, "info")
	}
	return initLogging(os.Stderr, logLevel)
}

func initLogging(w io.Writer, logLevel string) error {
	var l slog.Level
	if err := l.UnmarshalText([]byte(logLevel)); err != nil {
		return fmt.Errorf("invalid %s: %w", config.LogLevelEnvVar, err)
	}

	slogHandler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: l})
	slog.SetDefault(slog.New(slogHandler))
	return nil
}
