// SPDX-License-Identifier: MIT
// Copyright 2023 Flyvercity

package api

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func wsURL(serverURL string) string {
	return "ws" + strings.TrimPrefix(serverURL, "http") + "/notifications/websocket"
}

func dialNotifications(t *testing.T, h *harness) *websocket.Conn {
	t.Helper()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(h.server.URL), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	return conn
}

func obtainTicket(t *testing.T, h *harness, uasid, segment string) string {
	t.Helper()

	status, body := h.call(t, http.MethodPost, "/notifications/auth/"+uasid+"/"+segment, nil)
	require.Equal(t, http.StatusOK, status)

	ticket, ok := body["Ticket"].(string)
	require.True(t, ok)
	require.NotEmpty(t, ticket)
	return ticket
}

func readFrame(t *testing.T, conn *websocket.Conn) map[string]string {
	t.Helper()

	var frame map[string]string
	require.NoError(t, conn.ReadJSON(&frame))
	return frame
}

func TestNotificationsAuthRejectsBadSegment(t *testing.T) {
	h := newHarness(t)

	status, body := h.call(t, http.MethodPost, "/notifications/auth/drone-1/tail", nil)
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "bad_segment", errorsOf(t, body)["Segment"])
}

func TestWebsocketSubscribeAndNotify(t *testing.T) {
	h := newHarness(t)

	ticket := obtainTicket(t, h, "drone-1", "adx")
	conn := dialNotifications(t, h)

	require.NoError(t, conn.WriteJSON(map[string]string{
		"Ticket": ticket,
		"Action": "subscribe",
	}))

	ack := readFrame(t, conn)
	require.Equal(t, "subscribed", ack["Action"])

	// Opening the UA side must push both change events to the ADX peer.
	status, _ := h.call(t, http.MethodPost, "/session", sessionBody("ua", "123456789012345"))
	require.Equal(t, http.StatusOK, status)

	first := readFrame(t, conn)
	require.Equal(t, "notification", first["Action"])
	require.Equal(t, "peer-address-changed", first["Event"])

	second := readFrame(t, conn)
	require.Equal(t, "notification", second["Action"])
	require.Equal(t, "peer-credentials-changed", second["Event"])
}

func TestWebsocketRejectsMissingTicket(t *testing.T) {
	h := newHarness(t)
	conn := dialNotifications(t, h)

	require.NoError(t, conn.WriteJSON(map[string]string{"Action": "subscribe"}))

	frame := readFrame(t, conn)
	require.Equal(t, "error", frame["Action"])
	require.Equal(t, "bad_request", frame["Error"])
}

func TestWebsocketRejectsForgedTicket(t *testing.T) {
	h := newHarness(t)
	conn := dialNotifications(t, h)

	require.NoError(t, conn.WriteJSON(map[string]string{
		"Ticket": "forged",
		"Action": "subscribe",
	}))

	frame := readFrame(t, conn)
	require.Equal(t, "error", frame["Action"])
	require.Equal(t, "access_denied", frame["Error"])
}

func TestWebsocketRejectsMissingAction(t *testing.T) {
	h := newHarness(t)

	ticket := obtainTicket(t, h, "drone-1", "adx")
	conn := dialNotifications(t, h)

	require.NoError(t, conn.WriteJSON(map[string]string{"Ticket": ticket}))

	frame := readFrame(t, conn)
	require.Equal(t, "error", frame["Action"])
	require.Equal(t, "bad_request", frame["Error"])
}

func TestWebsocketRejectsUnknownAction(t *testing.T) {
	h := newHarness(t)

	ticket := obtainTicket(t, h, "drone-1", "adx")
	conn := dialNotifications(t, h)

	require.NoError(t, conn.WriteJSON(map[string]string{
		"Ticket": ticket,
		"Action": "telemetry",
	}))

	frame := readFrame(t, conn)
	require.Equal(t, "error", frame["Action"])
	require.Equal(t, "bad_request", frame["Error"])
}

func TestWebsocketUnsubscribeStopsDelivery(t *testing.T) {
	h := newHarness(t)

	ticket := obtainTicket(t, h, "drone-1", "adx")
	conn := dialNotifications(t, h)

	require.NoError(t, conn.WriteJSON(map[string]string{
		"Ticket": ticket,
		"Action": "subscribe",
	}))
	require.Equal(t, "subscribed", readFrame(t, conn)["Action"])

	require.NoError(t, conn.WriteJSON(map[string]string{
		"Ticket": ticket,
		"Action": "unsubscribe",
	}))

	// Give the unsubscribe frame time to be processed.
	time.Sleep(100 * time.Millisecond)

	status, _ := h.call(t, http.MethodPost, "/session", sessionBody("ua", "123456789012345"))
	require.Equal(t, http.StatusOK, status)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(300*time.Millisecond)))

	var frame map[string]string
	err := conn.ReadJSON(&frame)
	require.Error(t, err, "no frame may arrive after unsubscribe")
}

func TestWebsocketReplacesSubscriber(t *testing.T) {
	h := newHarness(t)

	ticket := obtainTicket(t, h, "drone-1", "adx")

	stale := dialNotifications(t, h)
	require.NoError(t, stale.WriteJSON(map[string]string{
		"Ticket": ticket,
		"Action": "subscribe",
	}))
	require.Equal(t, "subscribed", readFrame(t, stale)["Action"])

	fresh := dialNotifications(t, h)
	require.NoError(t, fresh.WriteJSON(map[string]string{
		"Ticket": ticket,
		"Action": "subscribe",
	}))
	require.Equal(t, "subscribed", readFrame(t, fresh)["Action"])

	status, _ := h.call(t, http.MethodPost, "/session", sessionBody("ua", "123456789012345"))
	require.Equal(t, http.StatusOK, status)

	// Only the latest subscriber receives the events.
	require.Equal(t, "peer-address-changed", readFrame(t, fresh)["Event"])

	require.NoError(t, stale.SetReadDeadline(time.Now().Add(300*time.Millisecond)))
	var frame map[string]string
	require.Error(t, stale.ReadJSON(&frame))
}
