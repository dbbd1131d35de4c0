// SPDX-License-Identifier: MIT
// Copyright 2023 Flyvercity

package sessman

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flyvercity/iot-ngin-c2ng/creds"
	"github.com/flyvercity/iot-ngin-c2ng/slice"
	"github.com/flyvercity/iot-ngin-c2ng/store"
)

type fakeApprover struct {
	approved bool
	err      error
	calls    int
}

func (f *fakeApprover) Request(ctx context.Context, uasid string) (bool, error) {
	f.calls++
	return f.approved, f.err
}

type fakeSlice struct {
	ue  slice.NetworkCreds
	adx slice.NetworkCreds
	err error
}

func (f *fakeSlice) Establish(ctx context.Context) error { return nil }

func (f *fakeSlice) GetUENetworkCreds(ctx context.Context, imsi string) (*slice.NetworkCreds, error) {
	if f.err != nil {
		return nil, f.err
	}
	ue := f.ue
	return &ue, nil
}

func (f *fakeSlice) GetADXNetworkCreds(ctx context.Context, uid string) (*slice.NetworkCreds, error) {
	if f.err != nil {
		return nil, f.err
	}
	adx := f.adx
	return &adx, nil
}

type fakeIssuer struct {
	seq     int
	clients []string
	err     error
}

func (f *fakeIssuer) Issue(clientID string) (*creds.Credentials, error) {
	if f.err != nil {
		return nil, f.err
	}

	f.seq++
	f.clients = append(f.clients, clientID)

	return &creds.Credentials{
		KID:                 fmt.Sprintf("kid-%d", f.seq),
		Certificate:         fmt.Sprintf("CERT-%d", f.seq),
		EncryptedPrivateKey: fmt.Sprintf("KEY-%d", f.seq),
	}, nil
}

type recordingSubscriber struct {
	events []string
}

func (r *recordingSubscriber) Notify(notification Notification) error {
	r.events = append(r.events, notification.Event)
	return nil
}

type fixture struct {
	manager *Manager
	store   *store.MemoryStore
	uss     *fakeApprover
	issuer  *fakeIssuer
}

func newFixture(approved bool, ussErr error) *fixture {
	sessions := store.NewMemoryStore()
	uss := &fakeApprover{approved: approved, err: ussErr}
	issuer := &fakeIssuer{}

	provider := &fakeSlice{
		ue:  slice.NetworkCreds{IP: "10.0.0.2", Gateway: "10.0.0.1"},
		adx: slice.NetworkCreds{IP: "10.0.0.3", Gateway: "10.0.0.1"},
	}

	return &fixture{
		manager: NewManager(sessions, uss, provider, issuer, NewRegistry()),
		store:   sessions,
		uss:     uss,
		issuer:  issuer,
	}
}

func TestOpenUASessionHappyPath(t *testing.T) {
	ctx := context.Background()
	f := newFixture(true, nil)

	grant, serrs, err := f.manager.OpenUASession(ctx, Request{
		UasID: "drone-1",
		IMSI:  "123456789012345",
	})
	require.NoError(t, err)
	require.Nil(t, serrs)

	require.Equal(t, "10.0.0.2", grant.IP)
	require.Equal(t, "10.0.0.1", grant.GatewayIP)
	require.Equal(t, "kid-1", grant.KID)
	require.Equal(t, "KEY-1", grant.EncryptedPrivateKey)
	require.Equal(t, []string{"drone-1::UA"}, f.issuer.clients)

	session, err := f.store.GetSession(ctx, "drone-1")
	require.NoError(t, err)
	require.NotNil(t, session.UA)
	require.Equal(t, "10.0.0.2", session.UA.IP)
	require.Equal(t, "kid-1", session.UA.KID)
	require.Equal(t, "CERT-1", session.UA.Certificate)
	require.Nil(t, session.ADX)
}

func TestOpenUASessionRequiresIMSI(t *testing.T) {
	f := newFixture(true, nil)

	grant, serrs, err := f.manager.OpenUASession(context.Background(), Request{UasID: "drone-1"})
	require.NoError(t, err)
	require.Nil(t, grant)
	require.Equal(t, Errors{"Request": "imsi_required"}, serrs)
	require.Zero(t, f.uss.calls)
}

func TestOpenUASessionNotApproved(t *testing.T) {
	f := newFixture(false, nil)

	grant, serrs, err := f.manager.OpenUASession(context.Background(), Request{
		UasID: "drone-1",
		IMSI:  "123456789012345",
	})
	require.NoError(t, err)
	require.Nil(t, grant)
	require.Equal(t, Errors{"USS": "flight_not_approved"}, serrs)
}

func TestOpenUASessionProviderUnavailable(t *testing.T) {
	f := newFixture(false, errors.New("connection refused"))

	grant, serrs, err := f.manager.OpenUASession(context.Background(), Request{
		UasID: "drone-1",
		IMSI:  "123456789012345",
	})
	require.NoError(t, err)
	require.Nil(t, grant)
	require.Equal(t, Errors{"USS": "provider_unavailable"}, serrs)
}

func TestOpenADXSessionHappyPath(t *testing.T) {
	ctx := context.Background()
	f := newFixture(false, errors.New("unreachable"))

	// The ADX side never consults the USSP.
	grant, serrs, err := f.manager.OpenADXSession(ctx, Request{UasID: "drone-1"})
	require.NoError(t, err)
	require.Nil(t, serrs)
	require.Equal(t, "10.0.0.3", grant.IP)
	require.Equal(t, []string{"drone-1::ADX"}, f.issuer.clients)
	require.Zero(t, f.uss.calls)

	session, err := f.store.GetSession(ctx, "drone-1")
	require.NoError(t, err)
	require.NotNil(t, session.ADX)
	require.Nil(t, session.UA)
}

func TestReopenReplacesCredentials(t *testing.T) {
	ctx := context.Background()
	f := newFixture(true, nil)

	request := Request{UasID: "drone-1", IMSI: "123456789012345"}

	first, _, err := f.manager.OpenUASession(ctx, request)
	require.NoError(t, err)

	second, _, err := f.manager.OpenUASession(ctx, request)
	require.NoError(t, err)

	require.NotEqual(t, first.KID, second.KID)

	session, err := f.store.GetSession(ctx, "drone-1")
	require.NoError(t, err)
	require.Equal(t, second.KID, session.UA.KID)
}

func TestOpenPreservesPeerEndpoint(t *testing.T) {
	ctx := context.Background()
	f := newFixture(true, nil)

	_, _, err := f.manager.OpenADXSession(ctx, Request{UasID: "drone-1"})
	require.NoError(t, err)

	_, _, err = f.manager.OpenUASession(ctx, Request{UasID: "drone-1", IMSI: "123456789012345"})
	require.NoError(t, err)

	session, err := f.store.GetSession(ctx, "drone-1")
	require.NoError(t, err)
	require.NotNil(t, session.UA)
	require.NotNil(t, session.ADX)
}

func TestOpenNotifiesPeer(t *testing.T) {
	ctx := context.Background()
	f := newFixture(true, nil)

	peer := &recordingSubscriber{}
	f.manager.Subscribe("drone-1", store.SegmentADX, peer)

	_, _, err := f.manager.OpenUASession(ctx, Request{UasID: "drone-1", IMSI: "123456789012345"})
	require.NoError(t, err)

	require.Equal(t, []string{EventPeerAddressChanged, EventPeerCredentialsChanged}, peer.events)
}

func TestOpenNotifiesNobodyWithoutSubscriber(t *testing.T) {
	f := newFixture(true, nil)

	_, _, err := f.manager.OpenUASession(context.Background(), Request{
		UasID: "drone-1",
		IMSI:  "123456789012345",
	})
	require.NoError(t, err)
}

func TestIssuerFailureIsInternal(t *testing.T) {
	f := newFixture(true, nil)
	f.issuer.err = errors.New("root key unavailable")

	_, serrs, err := f.manager.OpenUASession(context.Background(), Request{
		UasID: "drone-1",
		IMSI:  "123456789012345",
	})
	require.Error(t, err)
	require.Nil(t, serrs)

	// No partial endpoint record may be persisted.
	session, gerr := f.store.GetSession(context.Background(), "drone-1")
	require.NoError(t, gerr)
	if session != nil {
		require.Nil(t, session.UA)
	}
}

func TestTerminateIsAStub(t *testing.T) {
	ctx := context.Background()
	f := newFixture(true, nil)

	_, _, err := f.manager.OpenUASession(ctx, Request{UasID: "drone-1", IMSI: "123456789012345"})
	require.NoError(t, err)

	require.NoError(t, f.manager.Terminate(ctx, "drone-1"))

	session, err := f.store.GetSession(ctx, "drone-1")
	require.NoError(t, err)
	require.NotNil(t, session.UA)
}
