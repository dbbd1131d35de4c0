// SPDX-License-Identifier: MIT
// Copyright 2023 Flyvercity

package sessman

// Notification events pushed to the peer of a session
const (
	// EventPeerAddressChanged signals that the peer's slice address changed
	EventPeerAddressChanged = "peer-address-changed"

	// EventPeerCredentialsChanged signals that the peer's certificate changed
	EventPeerCredentialsChanged = "peer-credentials-changed"

	// EventRequestOwnSession is reserved for asking a client to re-open
	// its own session; the service never emits it.
	EventRequestOwnSession = "request-own-session"
)

// Notification is one frame pushed to a subscribed client
type Notification struct {
	Action string `json:"Action"`
	Event  string `json:"Event"`
}
