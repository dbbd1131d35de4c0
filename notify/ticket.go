// SPDX-License-Identifier: MIT
// Copyright 2023 Flyvercity

// Package notify authorizes websocket subscriptions with short opaque
// tickets.
package notify

import (
	"fmt"
	"sync"

	"github.com/golang-jwt/jwt/v5"
)

// TicketManager mints and validates tickets binding (UasID, Segment)
// for the websocket upgrade. Tickets are HMAC-SHA-256 signed envelopes
// keyed by a process-wide secret; they are opaque to clients.
type TicketManager struct {
	secret []byte

	mu      sync.Mutex
	tickets map[string]string
}

// NewTicketManager creates a ticket manager with the given signing secret
func NewTicketManager(secret string) (*TicketManager, error) {
	if secret == "" {
		return nil, fmt.Errorf("websocket auth secret not set")
	}

	return &TicketManager{
		secret:  []byte(secret),
		tickets: make(map[string]string),
	}, nil
}

type ticketClaims struct {
	UasID   string `json:"UasID"`
	Segment string `json:"Segment"`
	jwt.RegisteredClaims
}

// Issue signs a ticket for one client and records its slot
func (t *TicketManager) Issue(uasid, segment string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &ticketClaims{
		UasID:   uasid,
		Segment: segment,
	})

	ticket, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign ticket: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.tickets[slotKey(uasid, segment)] = ticket

	return ticket, nil
}

// Decode validates a ticket and returns the bound identity
func (t *TicketManager) Decode(ticket string) (uasid, segment string, err error) {
	claims := &ticketClaims{}

	_, err = jwt.ParseWithClaims(ticket, claims, func(token *jwt.Token) (interface{}, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))

	if err != nil {
		return "", "", fmt.Errorf("decode ticket: %w", err)
	}

	return claims.UasID, claims.Segment, nil
}

// Release frees the ticket slot of a client, tolerant of missing slots
func (t *TicketManager) Release(uasid, segment string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.tickets, slotKey(uasid, segment))
}

func slotKey(uasid, segment string) string {
	return uasid + "/" + segment
}
