// SPDX-License-Identifier: MIT
// Copyright 2023 Flyvercity

// Package sessman manages connectivity sessions between UA and ADX
// clients of one aircraft.
package sessman

import (
	"context"
	"fmt"

	"github.com/flyvercity/iot-ngin-c2ng/creds"
	"github.com/flyvercity/iot-ngin-c2ng/internal/logger"
	"github.com/flyvercity/iot-ngin-c2ng/internal/metrics"
	"github.com/flyvercity/iot-ngin-c2ng/slice"
	"github.com/flyvercity/iot-ngin-c2ng/store"
)

// Approver asks the USSP whether a flight is authorized
type Approver interface {
	Request(ctx context.Context, uasid string) (bool, error)
}

// CredentialIssuer mints client certificates
type CredentialIssuer interface {
	Issue(clientID string) (*creds.Credentials, error)
}

// Request carries the parameters of a session open operation
type Request struct {
	UasID    string
	IMSI     string
	Metadata map[string]interface{}
}

// Grant is the successful result of a session open operation
type Grant struct {
	IP                  string
	GatewayIP           string
	KID                 string
	EncryptedPrivateKey string
}

// Errors is a structured domain error object keyed by taxonomy field
type Errors map[string]string

// Manager is the central session state transducer. It owns handles to
// its collaborators and the subscriber registry for peer notifications.
type Manager struct {
	store    store.SessionStore
	uss      Approver
	slice    slice.Provider
	creds    CredentialIssuer
	registry *Registry
}

// NewManager wires the session manager to its collaborators
func NewManager(
	sessions store.SessionStore,
	uss Approver,
	provider slice.Provider,
	issuer CredentialIssuer,
	registry *Registry,
) *Manager {
	return &Manager{
		store:    sessions,
		uss:      uss,
		slice:    provider,
		creds:    issuer,
		registry: registry,
	}
}

// OpenUASession services a session request from the airborne segment.
// Domain rejections come back as Errors; infrastructure failures as an
// error which the API layer maps to an internal error response.
func (m *Manager) OpenUASession(ctx context.Context, request Request) (*Grant, Errors, error) {
	uasid := request.UasID

	if request.IMSI == "" {
		return nil, Errors{"Request": "imsi_required"}, nil
	}

	approved, err := m.uss.Request(ctx, uasid)
	if err != nil {
		logger.Warn("USSP request failed", logger.String("uasid", uasid), logger.Error(err))
		metrics.SessionsOpened.WithLabelValues(store.SegmentUA, "failure").Inc()
		return nil, Errors{"USS": "provider_unavailable"}, nil
	}

	logger.Info("USS approval", logger.String("uasid", uasid), logger.Bool("approved", approved))

	if !approved {
		metrics.SessionsOpened.WithLabelValues(store.SegmentUA, "failure").Inc()
		return nil, Errors{"USS": "flight_not_approved"}, nil
	}

	session, err := m.fetchOrInit(ctx, uasid)
	if err != nil {
		return nil, nil, err
	}

	logger.Info("Generating credentials", logger.String("uasid", uasid), logger.String("segment", "UA"))

	network, err := m.slice.GetUENetworkCreds(ctx, request.IMSI)
	if err != nil {
		return nil, nil, fmt.Errorf("allocate UE network creds: %w", err)
	}

	grant, err := m.completeOpen(ctx, session, store.SegmentUA, network)
	if err != nil {
		return nil, nil, err
	}

	metrics.SessionsOpened.WithLabelValues(store.SegmentUA, "success").Inc()
	return grant, nil, nil
}

// OpenADXSession services a session request from the ground segment.
// No IMSI or USSP approval is required on this side.
func (m *Manager) OpenADXSession(ctx context.Context, request Request) (*Grant, Errors, error) {
	uasid := request.UasID

	session, err := m.fetchOrInit(ctx, uasid)
	if err != nil {
		return nil, nil, err
	}

	logger.Info("Generating credentials", logger.String("uasid", uasid), logger.String("segment", "ADX"))

	network, err := m.slice.GetADXNetworkCreds(ctx, uasid)
	if err != nil {
		return nil, nil, fmt.Errorf("allocate ADX network creds: %w", err)
	}

	grant, err := m.completeOpen(ctx, session, store.SegmentADX, network)
	if err != nil {
		return nil, nil, err
	}

	metrics.SessionsOpened.WithLabelValues(store.SegmentADX, "success").Inc()
	return grant, nil, nil
}

// completeOpen mints the credential, persists the endpoint record, then
// notifies the peer. Persist strictly precedes the notifications so a
// reader woken by an event observes the new state.
func (m *Manager) completeOpen(
	ctx context.Context,
	session *store.Session,
	segment string,
	network *slice.NetworkCreds,
) (*Grant, error) {
	clientID := fmt.Sprintf("%s::%s", session.UasID, segmentLabel(segment))

	credentials, err := m.creds.Issue(clientID)
	if err != nil {
		return nil, fmt.Errorf("issue credentials for %s: %w", clientID, err)
	}

	metrics.CredentialsIssued.Inc()

	session.SetEndpoint(segment, &store.Endpoint{
		IP:          network.IP,
		GatewayIP:   network.Gateway,
		KID:         credentials.KID,
		Certificate: credentials.Certificate,
	})

	if err := m.store.PutSession(ctx, session); err != nil {
		return nil, fmt.Errorf("persist session %s: %w", session.UasID, err)
	}

	peer := peerSegment(segment)
	m.registry.Notify(session.UasID, peer, EventPeerAddressChanged)
	m.registry.Notify(session.UasID, peer, EventPeerCredentialsChanged)

	return &Grant{
		IP:                  network.IP,
		GatewayIP:           network.Gateway,
		KID:                 credentials.KID,
		EncryptedPrivateKey: credentials.EncryptedPrivateKey,
	}, nil
}

// Terminate handles an explicit session removal request. Endpoint
// records are retained for now; only the request is acknowledged.
func (m *Manager) Terminate(ctx context.Context, uasid string) error {
	logger.Warn("Session removal requested", logger.String("uasid", uasid))
	return nil
}

// Subscribe registers a peer notification subscriber
func (m *Manager) Subscribe(uasid, segment string, subscriber Subscriber) {
	m.registry.Subscribe(uasid, segment, subscriber)
}

// Unsubscribe removes a peer notification subscriber
func (m *Manager) Unsubscribe(uasid, segment string) {
	m.registry.Unsubscribe(uasid, segment)
}

func (m *Manager) fetchOrInit(ctx context.Context, uasid string) (*store.Session, error) {
	session, err := m.store.GetSession(ctx, uasid)
	if err != nil {
		return nil, fmt.Errorf("fetch session %s: %w", uasid, err)
	}

	if session == nil {
		logger.Info("Initializing new session", logger.String("uasid", uasid))
		return &store.Session{UasID: uasid}, nil
	}

	logger.Info("The session exists", logger.String("uasid", uasid))
	return session, nil
}

func peerSegment(segment string) string {
	if segment == store.SegmentUA {
		return store.SegmentADX
	}
	return store.SegmentUA
}

func segmentLabel(segment string) string {
	if segment == store.SegmentUA {
		return "UA"
	}
	return "ADX"
}
