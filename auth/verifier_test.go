// SPDX-License-Identifier: MIT
// Copyright 2023 Flyvercity

package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/stretchr/testify/require"

	"github.com/flyvercity/iot-ngin-c2ng/config"
)

// newIdP serves a JWKS endpoint publishing the given RSA public key
func newIdP(t *testing.T, key *rsa.PrivateKey) *httptest.Server {
	t.Helper()

	public, err := jwk.FromRaw(&key.PublicKey)
	require.NoError(t, err)
	require.NoError(t, public.Set(jwk.KeyUsageKey, "sig"))
	require.NoError(t, public.Set(jwk.AlgorithmKey, "RS256"))
	require.NoError(t, public.Set(jwk.KeyIDKey, "test-key"))

	set := jwk.NewSet()
	require.NoError(t, set.AddKey(public))

	mux := http.NewServeMux()
	mux.HandleFunc("/realms/c2ng/protocol/openid-connect/certs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(set)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func signToken(t *testing.T, key *rsa.PrivateKey, claims jwt.MapClaims) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signed, err := token.SignedString(key)
	require.NoError(t, err)
	return signed
}

func newVerifier(t *testing.T, key *rsa.PrivateKey) *Verifier {
	t.Helper()

	idp := newIdP(t, key)

	verifier, err := FetchKeys(context.Background(), &config.KeycloakConfig{
		Base:         idp.URL,
		Realm:        "c2ng",
		RetryTimeout: 1,
	})
	require.NoError(t, err)
	return verifier
}

func TestAuthenticate(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	verifier := newVerifier(t, key)

	bearer := signToken(t, key, jwt.MapClaims{
		"preferred_username": "droneid-cntrl",
		"exp":                time.Now().Add(time.Minute).Unix(),
	})

	claims, err := verifier.Authenticate("Bearer " + bearer)
	require.NoError(t, err)
	require.Equal(t, "droneid-cntrl", Username(claims))
}

func TestAuthenticateRejectsShortHeader(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	verifier := newVerifier(t, key)

	_, err = verifier.Authenticate("")
	require.Error(t, err)

	_, err = verifier.Authenticate("Bearer")
	require.Error(t, err)
}

func TestAuthenticateRejectsForeignKey(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	other, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	verifier := newVerifier(t, key)

	bearer := signToken(t, other, jwt.MapClaims{
		"exp": time.Now().Add(time.Minute).Unix(),
	})

	_, err = verifier.Authenticate("Bearer " + bearer)
	require.Error(t, err)
}

func TestAuthenticateRejectsExpired(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	verifier := newVerifier(t, key)

	bearer := signToken(t, key, jwt.MapClaims{
		"exp": time.Now().Add(-time.Minute).Unix(),
	})

	_, err = verifier.Authenticate("Bearer " + bearer)
	require.Error(t, err)
}

func TestFetchKeysRetries(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	public, err := jwk.FromRaw(&key.PublicKey)
	require.NoError(t, err)
	require.NoError(t, public.Set(jwk.KeyUsageKey, "sig"))

	set := jwk.NewSet()
	require.NoError(t, set.AddKey(public))

	var calls int

	mux := http.NewServeMux()
	mux.HandleFunc("/realms/c2ng/protocol/openid-connect/certs", func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(set)
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	verifier, err := FetchKeys(context.Background(), &config.KeycloakConfig{
		Base:         server.URL,
		Realm:        "c2ng",
		RetryTimeout: 1,
	})
	require.NoError(t, err)
	require.NotNil(t, verifier)
	require.GreaterOrEqual(t, calls, 2)
}
