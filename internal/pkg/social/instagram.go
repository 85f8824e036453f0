package social

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/faizanprofitpilot/ZapSocial-sub001/app/models"
	"github.com/faizanprofitpilot/ZapSocial-sub001/internal/pkg/env"
)

const defaultInstagramGraphURL = "https://graph.instagram.com"

const instagramDefaultTTL = 60 * 24 * time.Hour

// InstagramClient renews Instagram long-lived tokens via the
// ig_refresh_token grant. The token refreshes itself; no app credentials are
// sent.
type InstagramClient struct {
	GraphURL string

	HTTPClient *http.Client
}

// NewInstagramClientFromEnv builds a client from INSTAGRAM_* environment
// variables.
func NewInstagramClientFromEnv() *InstagramClient {
	return &InstagramClient{
		GraphURL: strings.TrimRight(env.GetEnv("INSTAGRAM_GRAPH_URL", defaultInstagramGraphURL), "/"),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (c *InstagramClient) Platform() string          { return models.PlatformInstagram }
func (c *InstagramClient) Endpoint() string          { return c.GraphURL + "/refresh_access_token" }
func (c *InstagramClient) Method() string            { return http.MethodGet }
func (c *InstagramClient) DefaultTTL() time.Duration { return instagramDefaultTTL }

type instagramTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// Refresh renews the stored long-lived token. The token must be at least 24
// hours old and not yet expired; an expired token is rejected by the
// provider and surfaces as a ProviderError.
func (c *InstagramClient) Refresh(ctx context.Context, integration *models.Integration) (*TokenSet, error) {
	if strings.TrimSpace(integration.AccessToken) == "" {
		return nil, ErrMissingCredential
	}

	u, err := url.Parse(c.Endpoint())
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("grant_type", "ig_refresh_token")
	q.Set("access_token", integration.AccessToken)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, parseFacebookError(models.PlatformInstagram, resp.StatusCode, body)
	}

	var out instagramTokenResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("instagram token response invalid: %w", err)
	}
	if strings.TrimSpace(out.AccessToken) == "" {
		return nil, errors.New("instagram token refresh returned empty access_token")
	}

	return &TokenSet{
		AccessToken: out.AccessToken,
		ExpiresIn:   out.ExpiresIn,
	}, nil
}
