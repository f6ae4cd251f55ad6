// Copyright (c) 2017-2026 Digital Asset (Switzerland) GmbH and/or its affiliates. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package show

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"assetlock.dev/x/assetlock/pkg/config"
	"assetlock.dev/x/assetlock/pkg/lockfile"
	"assetlock.dev/x/assetlock/pkg/report"
	"github.com/spf13/cobra"
)

var ErrNoLockFile = fmt.Errorf("no %s found; please run 'assetlock restore'", config.LockFileName)

func Cmd(c *config.Config) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "show the assets selected per target",
		Long: `show the assets selected per target, as recorded in the lock file

	serviceable libraries are marked with '*'.
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			projectPath, err := config.GetProjectAbsolutePath()
			if err != nil {
				return err
			}

			l, err := lockfile.ReadLockFile(config.LockFilePath(projectPath))
			if errors.Is(err, os.ErrNotExist) {
				return ErrNoLockFile
			}
			if err != nil {
				return err
			}

			r := report.New(l)
			switch output {
			case "json":
				bytes, err := json.MarshalIndent(r, "", "  ")
				if err != nil {
					return err
				}
				cmd.Println(string(bytes))
			case "table":
				cmd.Print(r.Table())
			default:
				return fmt.Errorf("unsupported output format %q", output)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "table", "output format. One of: (table, json)")

	return cmd
}
