// Copyright (c) 2017-2026 Digital Asset (Switzerland) GmbH and/or its affiliates. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package config

const (
	AppName = "assetlock"

	ProjectFilename = "assetlock.yaml"
	LockFileName    = "assetlock.lock.yaml"
	ConfigFilename  = "assetlock-config.yaml"
	StateDirName    = ".assetlock"
	MarkerFilename  = "restore.marker"
	PackagesDirName = "packages"
)
