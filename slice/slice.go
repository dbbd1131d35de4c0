// SPDX-License-Identifier: MIT
// Copyright 2023 Flyvercity

// Package slice allocates network addressing from the cellular core for
// UAS connectivity sessions.
package slice

import (
	"context"
	"fmt"

	"github.com/flyvercity/iot-ngin-c2ng/config"
)

// NetworkCreds is the addressing a provider allocates for one endpoint
type NetworkCreds struct {
	IP      string
	Gateway string
}

// Provider abstracts the network slice admission control function
type Provider interface {
	// Establish performs pre-start activities of the provider, if any
	Establish(ctx context.Context) error

	// GetUENetworkCreds allocates addressing for a UE by IMSI
	GetUENetworkCreds(ctx context.Context, imsi string) (*NetworkCreds, error)

	// GetADXNetworkCreds allocates addressing for an ADX client by UasID
	GetADXNetworkCreds(ctx context.Context, uid string) (*NetworkCreds, error)
}

// New selects a provider implementation by the configured type
func New(cfg *config.SliceManConfig) (Provider, error) {
	switch cfg.Provider {
	case "simulated":
		return NewSimulated(cfg.Simulated), nil
	case "cucumore":
		return NewCucumore(cfg.Cucumore), nil
	default:
		return nil, fmt.Errorf("invalid provider type: %s", cfg.Provider)
	}
}
