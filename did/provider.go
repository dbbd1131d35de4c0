// SPDX-License-Identifier: MIT
// Copyright 2023 Flyvercity

// Package did serves pre-provisioned verifiable credentials and the
// verifier configuration derived from the service issuer identity.
package did

import (
	"fmt"
	"os"
	"strings"

	"github.com/flyvercity/iot-ngin-c2ng/config"
)

// Provider resolves verifiable credentials by resource identifier
type Provider struct {
	cfg *config.DIDConfig
}

// NewProvider creates a DID provider from the `did` config section
func NewProvider(cfg *config.DIDConfig) *Provider {
	return &Provider{cfg: cfg}
}

// IssueJWT returns the pre-provisioned JWT credential for a resource
func (p *Provider) IssueJWT(resourceID string) (string, error) {
	if p.cfg == nil {
		return "", fmt.Errorf("did issuance not configured")
	}

	resource, ok := p.cfg.Resources[resourceID]
	if !ok {
		return "", fmt.Errorf("unknown resource %s", resourceID)
	}

	token, err := os.ReadFile(resource.JWT)
	if err != nil {
		return "", fmt.Errorf("read credential for %s: %w", resourceID, err)
	}

	return strings.TrimSpace(string(token)), nil
}

// TrustedIssuer describes one issuer entry of a verifier configuration
type TrustedIssuer struct {
	IssuerKey     string `json:"issuer_key"`
	IssuerKeyType string `json:"issuer_key_type"`
}

// Authorization is the per-resource verification policy
type Authorization struct {
	Type           string                   `json:"type"`
	TrustedIssuers map[string]TrustedIssuer `json:"trusted_issuers"`
	Filters        [][]string               `json:"filters"`
}

// Resource wraps the authorization policy of one resource
type Resource struct {
	Authorization Authorization `json:"authorization"`
}

// VerifierConfig is the document a credential verifier consumes
type VerifierConfig struct {
	Resources map[string]Resource `json:"resources"`
}

// GenerateConfig builds the verifier configuration for a resource from
// the service issuer DID
func (p *Provider) GenerateConfig(resourceID string) (*VerifierConfig, error) {
	if p.cfg == nil {
		return nil, fmt.Errorf("did issuance not configured")
	}

	issuerDID, err := os.ReadFile(p.cfg.IssuerDID)
	if err != nil {
		return nil, fmt.Errorf("read issuer DID: %w", err)
	}

	issuer := strings.TrimSpace(string(issuerDID))

	return &VerifierConfig{
		Resources: map[string]Resource{
			resourceID: {
				Authorization: Authorization{
					Type: "jwt-vc",
					TrustedIssuers: map[string]TrustedIssuer{
						issuer: {
							IssuerKey:     issuer,
							IssuerKeyType: "did",
						},
					},
					Filters: [][]string{
						{
							fmt.Sprintf("$.vc.credentialSubject.capabilities.'%s'[*]", resourceID),
							"CONTROL",
						},
					},
				},
			},
		},
	}, nil
}
