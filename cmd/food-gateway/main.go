/*
Copyright the food-gateway authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "food-gateway",
		Short: "REST gateway for the food provenance chaincode.",
		Long:  `REST gateway that forwards user and ingredient requests to the food provenance chaincode.`,
	}
	rootCmd.AddCommand(startCmd())
	rootCmd.AddCommand(versionCmd())
	return rootCmd
}
