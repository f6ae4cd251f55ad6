// Copyright (c) 2017-2026 Digital Asset (Switzerland) GmbH and/or its affiliates. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package restore

import (
	"errors"
	"log/slog"

	"assetlock.dev/x/assetlock/pkg/config"
	"assetlock.dev/x/assetlock/pkg/lockfile"
	"assetlock.dev/x/assetlock/pkg/restore"
	"assetlock.dev/x/assetlock/pkg/restoreerrors"
	"github.com/fatih/color"
	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
)

func Cmd(c *config.Config) *cobra.Command {
	var checkOnly bool

	cmd := &cobra.Command{
		Use:   "restore",
		Short: "resolve the project's packages and update (or create) its lock file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			op := lockfile.Regular
			if checkOnly {
				op = lockfile.CheckOnly
			}

			projectPath, err := config.GetProjectAbsolutePath()
			if err != nil {
				return err
			}

			res, err := restore.Run(cmd.Context(), c, projectPath, op)
			if errors.Is(err, lockfile.ErrLockfileOutOfSync) {
				return err
			}
			if err != nil {
				printErrors(cmd, err)
				return err
			}

			switch {
			case res.Written:
				cmd.Printf("%s %s\n", color.GreenString("wrote"), res.LockFilePath)
			case checkOnly:
				cmd.Printf("%s %s\n", color.CyanString("in sync"), res.LockFilePath)
			default:
				cmd.Printf("%s %s\n", color.CyanString("up to date"), res.LockFilePath)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&checkOnly, "check", false, "check the existing lock file but don't update it")

	return cmd
}

// printErrors writes the standardized restore errors to stderr as YAML
func printErrors(cmd *cobra.Command, err error) {
	out, yamlErr := yaml.Marshal(map[string]any{"errors": restoreerrors.All(err)})
	if yamlErr != nil {
		slog.ErrorContext(cmd.Context(), "failed to marshal restore errors", "error", yamlErr)
		return
	}
	cmd.PrintErr(string(out))
}
