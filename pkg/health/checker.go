// SPDX-License-Identifier: MIT
// Copyright 2023 Flyvercity

// Package health aggregates liveness checks over the service backends.
package health

import (
	"context"
	"time"

	"github.com/flyvercity/iot-ngin-c2ng/pkg/version"
)

// CheckFunc probes one backend. A nil return means the backend is reachable.
type CheckFunc func(ctx context.Context) error

// Checker performs health checks
type Checker struct {
	checks  map[string]CheckFunc
	timeout time.Duration
}

// NewChecker creates a new health checker
func NewChecker() *Checker {
	return &Checker{
		checks:  make(map[string]CheckFunc),
		timeout: 2 * time.Second,
	}
}

// Register adds a named backend check
func (c *Checker) Register(name string, check CheckFunc) {
	c.checks[name] = check
}

// CheckAll performs all registered checks
func (c *Checker) CheckAll(ctx context.Context) *HealthStatus {
	status := &HealthStatus{
		Timestamp: time.Now(),
		Status:    StatusHealthy,
		Version:   version.Get().Version,
		Checks:    make(map[string]*CheckResult),
		Errors:    make([]string, 0),
	}

	for name, check := range c.checks {
		result := c.run(ctx, check)
		status.Checks[name] = result

		if result.Status != StatusHealthy {
			status.Status = StatusDegraded
			status.Errors = append(status.Errors, name+": "+result.Error)
		}
	}

	return status
}

func (c *Checker) run(ctx context.Context, check CheckFunc) *CheckResult {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	started := time.Now()
	err := check(ctx)
	result := &CheckResult{
		Status:  StatusHealthy,
		Latency: time.Since(started).String(),
	}

	if err != nil {
		result.Status = StatusUnhealthy
		result.Error = err.Error()
	}

	return result
}
