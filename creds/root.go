// SPDX-License-Identifier: MIT
// Copyright 2023 Flyvercity

package creds

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"time"
)

// RootCertificateLifespanDays is the lifetime of the self-signed service root
const RootCertificateLifespanDays = 365

// GenerateRoot creates the service root key pair: a self-signed
// certificate and a passphrase-encrypted private key, written as PEM
// files at the given paths. The service loads exactly these files at
// startup.
func GenerateRoot(certPath, keyPath, passphrase string) error {
	if passphrase == "" {
		return fmt.Errorf("no UAS client secret configured")
	}

	rootKey, err := rsa.GenerateKey(rand.Reader, rsaKeySize)
	if err != nil {
		return fmt.Errorf("generate root key: %w", err)
	}

	serial, err := randomSerial()
	if err != nil {
		return fmt.Errorf("generate serial: %w", err)
	}

	now := time.Now().UTC()
	name := subjectName("root" + commonSuffix)

	template := &x509.Certificate{
		SerialNumber:          serial,
		Subject:               name,
		Issuer:                name,
		NotBefore:             now,
		NotAfter:              now.AddDate(0, 0, RootCertificateLifespanDays),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageDigitalSignature,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, &rootKey.PublicKey, rootKey)
	if err != nil {
		return fmt.Errorf("self-sign root certificate: %w", err)
	}

	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})

	keyPEM, err := encryptPrivateKeyPEM(rootKey, passphrase)
	if err != nil {
		return fmt.Errorf("encrypt root key: %w", err)
	}

	if err := os.WriteFile(keyPath, keyPEM, 0o600); err != nil {
		return fmt.Errorf("write root key: %w", err)
	}

	if err := os.WriteFile(certPath, certPEM, 0o644); err != nil {
		return fmt.Errorf("write root certificate: %w", err)
	}

	return nil
}
