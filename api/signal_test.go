// SPDX-License-Identifier: MIT
// Copyright 2023 Flyvercity

package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func signalBody(rsrp int) map[string]interface{} {
	return map[string]interface{}{
		"Packet": map[string]interface{}{
			"timestamp": map[string]interface{}{"unix": 1700000000.0},
			"position": map[string]interface{}{
				"location": map[string]interface{}{
					"lat": 32.31,
					"lon": 34.86,
					"alt": 110.0,
				},
			},
			"signal": map[string]interface{}{
				"radio": "5GSA",
				"RSRP":  rsrp,
				"RSRQ":  -12,
			},
			"perf": map[string]interface{}{
				"heartbeat_loss": false,
				"RTT":            45.5,
			},
		},
	}
}

func TestSignalIngestAndAggregate(t *testing.T) {
	h := newHarness(t)

	status, body := h.call(t, http.MethodPost, "/signal/drone-1", signalBody(-95))
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, true, body["Success"])

	status, body = h.call(t, http.MethodGet, "/signal/drone-1", nil)
	require.Equal(t, http.StatusOK, status)

	stats, ok := body["Stats"].([]interface{})
	require.True(t, ok)
	require.Contains(t, stats, float64(-95))
}

func TestSignalIngestRequiresPacket(t *testing.T) {
	h := newHarness(t)

	status, body := h.call(t, http.MethodPost, "/signal/drone-1", map[string]interface{}{})
	require.Equal(t, http.StatusBadRequest, status)
	require.Contains(t, errorsOf(t, body), "Packet")
}

func TestSignalIngestRequiresTimestamp(t *testing.T) {
	h := newHarness(t)

	body := signalBody(-95)
	packet := body["Packet"].(map[string]interface{})
	delete(packet, "timestamp")

	status, response := h.call(t, http.MethodPost, "/signal/drone-1", body)
	require.Equal(t, http.StatusBadRequest, status)
	require.NotEmpty(t, errorsOf(t, response))
}

func TestSignalIngestValidatesRadio(t *testing.T) {
	h := newHarness(t)

	body := signalBody(-95)
	packet := body["Packet"].(map[string]interface{})
	packet["signal"].(map[string]interface{})["radio"] = "6G"

	status, response := h.call(t, http.MethodPost, "/signal/drone-1", body)
	require.Equal(t, http.StatusBadRequest, status)
	require.NotEmpty(t, errorsOf(t, response))
}

func TestSignalStatsEmpty(t *testing.T) {
	h := newHarness(t)

	status, body := h.call(t, http.MethodGet, "/signal/ghost-1", nil)
	require.Equal(t, http.StatusOK, status)

	stats, ok := body["Stats"].([]interface{})
	require.True(t, ok)
	require.Empty(t, stats)
}
