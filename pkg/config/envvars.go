// Copyright (c) 2017-2026 Digital Asset (Switzerland) GmbH and/or its affiliates. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package config

const (
	HomeEnvVar        = "ASSETLOCK_HOME"
	PackagesEnvVar    = "ASSETLOCK_PACKAGES"
	ParallelismEnvVar = "ASSETLOCK_PARALLELISM"
	CompatTableEnvVar = "ASSETLOCK_COMPAT_TABLE"
	ProjectEnvVar     = "ASSETLOCK_PROJECT"
	LogLevelEnvVar    = "ASSETLOCK_LOG_LEVEL"
	NoColorEnvVar     = "ASSETLOCK_NO_COLOR"
)
