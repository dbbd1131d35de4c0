// SPDX-License-Identifier: MIT
// Copyright 2023 Flyvercity

// Package stats joins session state with signal aggregates for
// dashboard and statistics queries.
package stats

import (
	"context"
	"fmt"

	"github.com/flyvercity/iot-ngin-c2ng/store"
	"github.com/flyvercity/iot-ngin-c2ng/telemetry"
)

// SessionStats is one row of the session statistics join
type SessionStats struct {
	UasID        string
	AvgSignal    *float64
	AvgRTT       *float64
	UAConnected  bool
	ADXConnected bool
}

// Manager composes the session list with telemetry aggregates
type Manager struct {
	sessions store.SessionStore
	signal   telemetry.Store
}

// NewManager creates a statistics manager
func NewManager(sessions store.SessionStore, signal telemetry.Store) *Manager {
	return &Manager{sessions: sessions, signal: signal}
}

// GetSignalStats returns the recent RSRP samples for one aircraft
func (m *Manager) GetSignalStats(ctx context.Context, uasid string) ([]float64, error) {
	return m.signal.Read(ctx, uasid, "RSRP", telemetry.EstimationWindowMinutes)
}

// ListSessions returns all sessions with their mean signal quality and
// round-trip time over the estimation window
func (m *Manager) ListSessions(ctx context.Context) ([]SessionStats, error) {
	sessions, err := m.sessions.ListSessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	rows := make([]SessionStats, 0, len(sessions))

	for _, session := range sessions {
		row := SessionStats{
			UasID:        session.UasID,
			UAConnected:  session.UA != nil,
			ADXConnected: session.ADX != nil,
		}

		row.AvgSignal, err = m.signal.ReadMean(ctx, session.UasID, "RSRP", telemetry.EstimationWindowMinutes)
		if err != nil {
			return nil, fmt.Errorf("read signal aggregate for %s: %w", session.UasID, err)
		}

		row.AvgRTT, err = m.signal.ReadMean(ctx, session.UasID, "RTT", telemetry.EstimationWindowMinutes)
		if err != nil {
			return nil, fmt.Errorf("read RTT aggregate for %s: %w", session.UasID, err)
		}

		rows = append(rows, row)
	}

	return rows, nil
}

// SignalClass grades a mean RSRP value for the dashboard
func SignalClass(rsrp *float64) string {
	switch {
	case rsrp == nil:
		return "none"
	case *rsrp >= -80:
		return "excellent"
	case *rsrp >= -90:
		return "good"
	case *rsrp >= -100:
		return "fair"
	case *rsrp >= -110:
		return "poor"
	default:
		return "none"
	}
}

// RTTClass grades a mean round-trip time for the dashboard
func RTTClass(rtt *float64) string {
	switch {
	case rtt == nil:
		return "none"
	case *rtt <= 40:
		return "excellent"
	case *rtt <= 100:
		return "good"
	case *rtt <= 200:
		return "fair"
	default:
		return "none"
	}
}
