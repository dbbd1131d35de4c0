// SPDX-License-Identifier: MIT
// Copyright 2023 Flyvercity

package main

import (
	"github.com/spf13/cobra"

	"github.com/flyvercity/iot-ngin-c2ng/config"
	"github.com/flyvercity/iot-ngin-c2ng/creds"
	"github.com/flyvercity/iot-ngin-c2ng/internal/logger"
)

var (
	cryptoKeysPrivate     string
	cryptoKeysCertificate string
)

var cryptoKeysCmd = &cobra.Command{
	Use:   "cryptokeys",
	Short: "Generate the service root security credentials",
	Long: `Generates the service root key pair: a self-signed certificate and a
private key encrypted with the UAS client secret. The service loads
these files at startup to sign per-session client certificates.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		passphrase, err := config.RequireEnv(config.EnvUasClientSecret)
		if err != nil {
			return err
		}

		if err := creds.GenerateRoot(cryptoKeysCertificate, cryptoKeysPrivate, passphrase); err != nil {
			return err
		}

		logger.Info("Root credentials generated",
			logger.String("certificate", cryptoKeysCertificate),
			logger.String("private", cryptoKeysPrivate))

		return nil
	},
}

func init() {
	cryptoKeysCmd.Flags().StringVarP(
		&cryptoKeysPrivate, "private", "p",
		"docker/core/config/c2ng/private.pem",
		"PEM file for the private key",
	)

	cryptoKeysCmd.Flags().StringVarP(
		&cryptoKeysCertificate, "certificate", "c",
		"docker/core/config/c2ng/service.pem",
		"PEM file for the root certificate",
	)

	rootCmd.AddCommand(cryptoKeysCmd)
}
