/*
Copyright the food-gateway authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Version and CommitSHA are set at build time with -ldflags
var (
	Version   = "development build"
	CommitSHA = "unknown"
)

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the gateway version.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			fmt.Fprint(cmd.OutOrStdout(), versionInfo())
			return nil
		},
	}
}

func versionInfo() string {
	return fmt.Sprintf("food-gateway:\n Version: %s\n Commit SHA: %s\n Go version: %s\n OS/Arch: %s\n",
		Version, CommitSHA, runtime.Version(), fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH))
}
