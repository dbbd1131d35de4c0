// SPDX-License-Identifier: MIT
// Copyright 2023 Flyvercity

package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/flyvercity/iot-ngin-c2ng/internal/logger"
	"github.com/flyvercity/iot-ngin-c2ng/sessman"
)

const (
	wsWriteTimeout  = 30 * time.Second
	wsSendQueueSize = 16
)

// wsIncoming is one client frame on the notification channel
type wsIncoming struct {
	Ticket string `json:"Ticket"`
	Action string `json:"Action"`
}

// wsClient owns one notification websocket. All outgoing frames are
// routed through a single-consumer queue so notification pushes and
// handler acknowledgements never interleave on the wire.
type wsClient struct {
	conn      *websocket.Conn
	send      chan interface{}
	done      chan struct{}
	closeOnce sync.Once
}

func newWSClient(conn *websocket.Conn) *wsClient {
	client := &wsClient{
		conn: conn,
		send: make(chan interface{}, wsSendQueueSize),
		done: make(chan struct{}),
	}

	go client.writeLoop()
	return client
}

func (c *wsClient) writeLoop() {
	for {
		select {
		case frame := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))

			if err := c.conn.WriteJSON(frame); err != nil {
				logger.Warn("Websocket write failed", logger.Error(err))
				return
			}

		case <-c.done:
			return
		}
	}
}

// Notify implements sessman.Subscriber. Delivery is best-effort: a full
// queue or a closed socket surfaces as an error that the registry logs.
func (c *wsClient) Notify(notification sessman.Notification) error {
	select {
	case c.send <- notification:
		return nil
	case <-c.done:
		return fmt.Errorf("websocket closed")
	default:
		return fmt.Errorf("websocket send queue full")
	}
}

func (c *wsClient) push(frame interface{}) {
	select {
	case c.send <- frame:
	case <-c.done:
	}
}

func (c *wsClient) sendError(code, message string) {
	c.push(map[string]string{
		"Action":  "error",
		"Error":   code,
		"Message": message,
	})
}

func (c *wsClient) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

// closeInternal terminates the socket with close code 1011
func (c *wsClient) closeInternal() {
	_ = c.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "Internal error"),
		time.Now().Add(wsWriteTimeout),
	)
	c.close()
}

// handleWebsocket services GET /notifications/websocket. The socket
// starts unauthenticated; the first frame carrying a valid ticket binds
// it to one (UasID, Segment) and a subscribe registers it for peer
// events. The identity stays bound until the socket closes.
func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("Websocket upgrade failed", logger.Error(err))
		return
	}

	client := newWSClient(conn)

	var (
		uasid     string
		segment   string
		authBound bool
	)

	defer func() {
		if rec := recover(); rec != nil {
			logger.ErrorMsg("Error processing websocket message", logger.Any("panic", rec))
			client.closeInternal()
		}

		if authBound {
			s.deps.Tickets.Release(uasid, segment)
			s.deps.SessMan.Unsubscribe(uasid, segment)
		}
		client.close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("Websocket read error", logger.Error(err))
			}
			return
		}

		var message wsIncoming

		if err := json.Unmarshal(data, &message); err != nil {
			client.sendError("bad_request", "Malformed message")
			continue
		}

		if message.Ticket == "" {
			client.sendError("bad_request", "Ticket field missing")
			continue
		}

		ticketUasID, ticketSegment, err := s.deps.Tickets.Decode(message.Ticket)
		if err != nil {
			logger.Warn("Bad websocket ticket", logger.Error(err))
			client.sendError("access_denied", err.Error())
			continue
		}

		// First valid ticket binds the socket identity.
		if !authBound {
			uasid, segment = ticketUasID, ticketSegment
			authBound = true
		}

		switch message.Action {
		case "":
			client.sendError("bad_request", "Action field missing")

		case "subscribe":
			logger.Debug("Subscribing to notifications",
				logger.String("uasid", uasid),
				logger.String("segment", segment))

			s.deps.SessMan.Subscribe(uasid, segment, client)
			client.push(map[string]string{"Action": "subscribed"})

		case "unsubscribe":
			logger.Debug("Unsubscribing from notifications",
				logger.String("uasid", uasid),
				logger.String("segment", segment))

			s.deps.SessMan.Unsubscribe(uasid, segment)

		default:
			client.sendError("bad_request", fmt.Sprintf("Unknown action: %s", message.Action))
		}
	}
}
