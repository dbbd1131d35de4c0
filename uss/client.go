// SPDX-License-Identifier: MIT
// Copyright 2023 Flyvercity

// Package uss asks the external UAS Service Supplier whether a flight
// is approved.
package uss

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/flyvercity/iot-ngin-c2ng/config"
	"github.com/flyvercity/iot-ngin-c2ng/internal/logger"
	"github.com/flyvercity/iot-ngin-c2ng/internal/metrics"
)

const requestTimeout = 5 * time.Second

// Client requests flight authorizations from the USSP endpoint. Each
// request carries a service-account token obtained through the OIDC
// client-credentials grant.
type Client struct {
	endpoint string
	tokens   oauth2.TokenSource
	http     *http.Client
}

// NewClient creates a USSP client from the `uss` configuration section
func NewClient(cfg *config.USSConfig, clientSecret string) *Client {
	oauth := cfg.OAuth.Keycloak

	grant := &clientcredentials.Config{
		ClientID:     oauth.AuthClientID,
		ClientSecret: clientSecret,
		TokenURL: fmt.Sprintf(
			"%s/realms/%s/protocol/openid-connect/token",
			oauth.Base, oauth.Realm,
		),
	}

	httpClient := &http.Client{Timeout: requestTimeout}
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)

	return &Client{
		endpoint: cfg.Endpoint,
		tokens:   grant.TokenSource(ctx),
		http:     httpClient,
	}
}

// approveResponse is the USSP answer payload
type approveResponse struct {
	UasID    string `json:"UasID"`
	Approved *bool  `json:"Approved"`
}

// Request asks for a flight authorization. Any transport or protocol
// failure is reported as an error; callers translate it to the
// provider_unavailable taxonomy code.
func (c *Client) Request(ctx context.Context, uasid string) (bool, error) {
	approved, err := c.request(ctx, uasid)

	switch {
	case err != nil:
		metrics.USSRequests.WithLabelValues("failed").Inc()
	case approved:
		metrics.USSRequests.WithLabelValues("approved").Inc()
	default:
		metrics.USSRequests.WithLabelValues("rejected").Inc()
	}

	return approved, err
}

func (c *Client) request(ctx context.Context, uasid string) (bool, error) {
	token, err := c.tokens.Token()
	if err != nil {
		return false, fmt.Errorf("uss token: %w", err)
	}

	requestURL := fmt.Sprintf("%s/approve?UasID=%s", c.endpoint, url.QueryEscape(uasid))
	logger.Debug("USS request", logger.String("url", requestURL))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return false, fmt.Errorf("uss request: %w", err)
	}

	// The USSP expects the token in the literal `Authentication` header.
	req.Header.Set("Authentication", "Bearer "+token.AccessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("uss call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("uss returned status %d", resp.StatusCode)
	}

	var answer approveResponse

	if err := json.NewDecoder(resp.Body).Decode(&answer); err != nil {
		return false, fmt.Errorf("uss response: %w", err)
	}

	if answer.Approved == nil {
		return false, fmt.Errorf("uss response missing Approved field")
	}

	return *answer.Approved, nil
}
