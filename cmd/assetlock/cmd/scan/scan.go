// Copyright (c) 2017-2026 Digital Asset (Switzerland) GmbH and/or its affiliates. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package scan

import (
	"assetlock.dev/x/assetlock/pkg/serviceable"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func Cmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan <file>...",
		Short: "report whether assemblies are marked serviceable",
		Long: `report whether assemblies are marked serviceable

	files that cannot be read, or are not assemblies, are reported as not serviceable.
`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, path := range args {
				verdict := color.YellowString("not serviceable")
				if serviceable.IsServiceable(path) {
					verdict = color.GreenString("serviceable")
				}
				cmd.Printf("%s: %s\n", path, verdict)
			}
			return nil
		},
	}
}
