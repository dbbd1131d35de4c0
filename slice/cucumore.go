// SPDX-License-Identifier: MIT
// Copyright 2023 Flyvercity

package slice

import (
	"context"
	"fmt"

	"github.com/flyvercity/iot-ngin-c2ng/config"
)

// Cucumore talks to the Cumucore network control API version 5.
// The allocation calls are not implemented yet; deployments that
// need the vendor controller must supply them.
type Cucumore struct {
	cfg *config.CucumoreConfig
}

// NewCucumore creates a vendor slice controller client
func NewCucumore(cfg *config.CucumoreConfig) *Cucumore {
	return &Cucumore{cfg: cfg}
}

// Establish is a no-op until the vendor API wiring lands
func (c *Cucumore) Establish(ctx context.Context) error {
	return nil
}

// GetUENetworkCreds allocates UE addressing via the vendor API
func (c *Cucumore) GetUENetworkCreds(ctx context.Context, imsi string) (*NetworkCreds, error) {
	return nil, fmt.Errorf("cucumore UE allocation not implemented")
}

// GetADXNetworkCreds allocates ADX addressing via the vendor API
func (c *Cucumore) GetADXNetworkCreds(ctx context.Context, uid string) (*NetworkCreds, error) {
	return nil, fmt.Errorf("cucumore ADX allocation not implemented")
}
