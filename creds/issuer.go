// SPDX-License-Identifier: MIT
// Copyright 2023 Flyvercity

// Package creds mints short-lived client certificates signed by the
// service root key pair.
package creds

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/flyvercity/iot-ngin-c2ng/internal/logger"
)

const (
	rsaKeySize   = 2048
	serialBits   = 128
	commonSuffix = ".c2ng"
)

// Credentials is one issued client credential set. The private key is
// only ever serialized encrypted; the service retains the certificate.
type Credentials struct {
	KID                 string
	Certificate         string
	EncryptedPrivateKey string
}

// Issuer signs client certificates with the service root credentials
type Issuer struct {
	rootCert     *x509.Certificate
	rootKey      *rsa.PrivateKey
	clientSecret string
	ttl          time.Duration
}

// NewIssuer loads the root certificate and the passphrase-protected root
// private key. The passphrase doubles as the client key encryption
// secret, matching what UAS clients hold.
func NewIssuer(certPath, keyPath string, defaultTTL int, clientSecret string) (*Issuer, error) {
	if clientSecret == "" {
		return nil, fmt.Errorf("no UAS client secret configured")
	}

	certPEM, err := os.ReadFile(certPath)
	if err != nil {
		return nil, fmt.Errorf("read root certificate: %w", err)
	}

	rootCert, err := parseCertificatePEM(certPEM)
	if err != nil {
		return nil, fmt.Errorf("parse root certificate: %w", err)
	}

	logger.Info("Root certificate loaded",
		logger.String("serial", rootCert.SerialNumber.String()))

	keyPEM, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("read root private key: %w", err)
	}

	rootKey, err := decryptPrivateKeyPEM(keyPEM, clientSecret)
	if err != nil {
		return nil, fmt.Errorf("decrypt root private key: %w", err)
	}

	logger.Info("Root private key loaded")

	return &Issuer{
		rootCert:     rootCert,
		rootKey:      rootKey,
		clientSecret: clientSecret,
		ttl:          time.Duration(defaultTTL) * time.Second,
	}, nil
}

// Issue mints a fresh key pair and a certificate for a client identifier
// of the form "{UasID}::{SEGMENT}". The certificate lives for the
// configured default TTL.
func (i *Issuer) Issue(clientID string) (*Credentials, error) {
	kid := uuid.NewString()

	clientKey, err := rsa.GenerateKey(rand.Reader, rsaKeySize)
	if err != nil {
		return nil, fmt.Errorf("generate client key: %w", err)
	}

	serial, err := randomSerial()
	if err != nil {
		return nil, fmt.Errorf("generate serial: %w", err)
	}

	now := time.Now().UTC()

	template := &x509.Certificate{
		SerialNumber: serial,
		Subject:      subjectName(clientID + commonSuffix),
		NotBefore:    now,
		NotAfter:     now.Add(i.ttl),
		KeyUsage:     x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth},
	}

	der, err := x509.CreateCertificate(rand.Reader, template, i.rootCert, &clientKey.PublicKey, i.rootKey)
	if err != nil {
		return nil, fmt.Errorf("sign client certificate: %w", err)
	}

	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})

	keyPEM, err := encryptPrivateKeyPEM(clientKey, i.clientSecret)
	if err != nil {
		return nil, fmt.Errorf("encrypt client key: %w", err)
	}

	return &Credentials{
		KID:                 kid,
		Certificate:         string(certPEM),
		EncryptedPrivateKey: string(keyPEM),
	}, nil
}

// subjectName constructs the X.509 subject used for every certificate
// the service issues or self-signs.
func subjectName(commonName string) pkix.Name {
	return pkix.Name{
		Country:      []string{"IL"},
		Province:     []string{"HaSharon"},
		Locality:     []string{"Netanya"},
		Organization: []string{"Flyvercity LTD"},
		CommonName:   commonName,
	}
}

func randomSerial() (*big.Int, error) {
	limit := new(big.Int).Lsh(big.NewInt(1), serialBits)
	return rand.Int(rand.Reader, limit)
}

func parseCertificatePEM(data []byte) (*x509.Certificate, error) {
	block, _ := pem.Decode(data)
	if block == nil || block.Type != "CERTIFICATE" {
		return nil, fmt.Errorf("no certificate PEM block found")
	}

	return x509.ParseCertificate(block.Bytes)
}

// encryptPrivateKeyPEM serializes an RSA key in the traditional OpenSSL
// encrypted form that clients decrypt with their static secret.
func encryptPrivateKeyPEM(key *rsa.PrivateKey, passphrase string) ([]byte, error) {
	//nolint:staticcheck // wire-compatible with the deployed client tooling
	block, err := x509.EncryptPEMBlock(
		rand.Reader,
		"RSA PRIVATE KEY",
		x509.MarshalPKCS1PrivateKey(key),
		[]byte(passphrase),
		x509.PEMCipherAES256,
	)
	if err != nil {
		return nil, err
	}

	return pem.EncodeToMemory(block), nil
}

// decryptPrivateKeyPEM reverses encryptPrivateKeyPEM
func decryptPrivateKeyPEM(data []byte, passphrase string) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("no private key PEM block found")
	}

	//nolint:staticcheck // wire-compatible with the deployed client tooling
	der, err := x509.DecryptPEMBlock(block, []byte(passphrase))
	if err != nil {
		return nil, err
	}

	return x509.ParsePKCS1PrivateKey(der)
}
