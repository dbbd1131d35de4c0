// SPDX-License-Identifier: MIT
// Copyright 2023 Flyvercity

package slice

import (
	"context"

	"github.com/flyvercity/iot-ngin-c2ng/config"
)

// Simulated returns fixed addressing from configuration. It stands in
// for the slice controller in development and simulation deployments.
type Simulated struct {
	cfg *config.SimulatedSliceConfig
}

// NewSimulated creates a simulated provider
func NewSimulated(cfg *config.SimulatedSliceConfig) *Simulated {
	return &Simulated{cfg: cfg}
}

// Establish is a no-op for the simulated provider
func (s *Simulated) Establish(ctx context.Context) error {
	return nil
}

// GetUENetworkCreds returns the configured UE address
func (s *Simulated) GetUENetworkCreds(ctx context.Context, imsi string) (*NetworkCreds, error) {
	return &NetworkCreds{IP: s.cfg.UE, Gateway: s.cfg.Gateway}, nil
}

// GetADXNetworkCreds returns the configured ADX address
func (s *Simulated) GetADXNetworkCreds(ctx context.Context, uid string) (*NetworkCreds, error) {
	return &NetworkCreds{IP: s.cfg.ADX, Gateway: s.cfg.Gateway}, nil
}
