// Copyright (c) 2017-2026 Digital Asset (Switzerland) GmbH and/or its affiliates. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"io"

	"assetlock.dev/x/assetlock/cmd/assetlock/cmd/restore"
	"assetlock.dev/x/assetlock/cmd/assetlock/cmd/scan"
	"assetlock.dev/x/assetlock/cmd/assetlock/cmd/show"
	"assetlock.dev/x/assetlock/pkg/buildinfo"
	"assetlock.dev/x/assetlock/pkg/config"
	"assetlock.dev/x/assetlock/pkg/logging"
	"github.com/fatih/color"
	"github.com/goccy/go-yaml"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

const (
	projectGroupId = "project"
	toolsGroupId   = "tools"
)

// App carries the process streams and arguments, so tests can run the CLI in-process
type App struct {
	Stdout io.Writer
	Stderr io.Writer
	Stdin  io.Reader
	OsArgs []string
}

func (a *App) SetOutputStreams(cmd *cobra.Command) {
	cmd.SetOut(a.Stdout)
	cmd.SetErr(a.Stderr)
	cmd.SetIn(a.Stdin)

	lo.ForEach(cmd.Commands(), func(sub *cobra.Command, _ int) {
		a.SetOutputStreams(sub)
	})
}

func RootCmd(app *App) (*cobra.Command, error) {
	cmd := &cobra.Command{
		Use:          config.AppName,
		Short:        "select package assets per target and keep them in a lock file",
		SilenceUsage: true,
	}

	defer app.SetOutputStreams(cmd)

	if len(app.OsArgs) == 0 {
		return nil, fmt.Errorf("App.OsArgs must contain at least one entry similar to os.Args")
	}

	cmd.SetArgs(app.OsArgs[1:])
	cmd.AddGroup(&cobra.Group{
		ID:    projectGroupId,
		Title: "Project Commands",
	})
	cmd.AddGroup(&cobra.Group{
		ID:    toolsGroupId,
		Title: "Tools",
	})

	if err := logging.InitLogging(); err != nil {
		return nil, err
	}

	c, err := config.Get()
	if err != nil {
		return nil, err
	}
	if err := c.EnsureDirs(); err != nil {
		return nil, err
	}
	if c.NoColor {
		color.NoColor = true
	}

	cmd.AddCommand(
		setGroup(restore.Cmd(c), projectGroupId),
		setGroup(show.Cmd(c), projectGroupId),
		setGroup(scan.Cmd(), toolsGroupId),
	)

	version, err := yaml.Marshal(buildinfo.Get())
	if err != nil {
		return nil, err
	}
	cmd.Version = string(version)
	cmd.SetVersionTemplate("{{.Version}}")

	return cmd, nil
}

func setGroup(cmd *cobra.Command, groupId string) *cobra.Command {
	cmd.GroupID = groupId
	return cmd
}
