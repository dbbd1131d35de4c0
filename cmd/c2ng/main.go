// SPDX-License-Identifier: MIT
// Copyright 2023 Flyvercity

package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/flyvercity/iot-ngin-c2ng/pkg/version"
)

var rootCmd = &cobra.Command{
	Use:   "c2ng",
	Short: "C2NG - secure UAS command-and-control connectivity service",
	Long: `C2NG brokers secure command-and-control connectivity sessions between
airborne unmanned aircraft and ground-side aviation data exchange peers.

The service coordinates flight authorization, network slice addressing,
short-lived client certificates and live peer notifications.`,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.String())
	},
}

func main() {
	// Local deployments keep secrets in a .env file.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.AddCommand(versionCmd)
}
