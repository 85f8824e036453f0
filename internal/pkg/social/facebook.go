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

const defaultFacebookGraphURL = "https://graph.facebook.com/v19.0"

// facebookDefaultTTL is the documented lifetime of a long-lived user token.
const facebookDefaultTTL = 60 * 24 * time.Hour

// FacebookClient exchanges a long-lived Facebook token for a fresh one via
// the fb_exchange_token grant and publishes feed posts.
type FacebookClient struct {
	AppID     string
	AppSecret string
	GraphURL  string

	HTTPClient *http.Client
}

// NewFacebookClientFromEnv builds a client from FACEBOOK_* environment
// variables.
func NewFacebookClientFromEnv() *FacebookClient {
	return &FacebookClient{
		AppID:     strings.TrimSpace(env.GetEnv("FACEBOOK_KEY", "")),
		AppSecret: strings.TrimSpace(env.GetEnv("FACEBOOK_SECRET", "")),
		GraphURL:  strings.TrimRight(env.GetEnv("FACEBOOK_GRAPH_URL", defaultFacebookGraphURL), "/"),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (c *FacebookClient) Platform() string          { return models.PlatformFacebook }
func (c *FacebookClient) Endpoint() string          { return c.GraphURL + "/oauth/access_token" }
func (c *FacebookClient) Method() string            { return http.MethodGet }
func (c *FacebookClient) DefaultTTL() time.Duration { return facebookDefaultTTL }

type facebookTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type facebookErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// Refresh exchanges the stored access token for a new long-lived one.
// Facebook has no separate refresh token; the existing access token is the
// refresh credential.
func (c *FacebookClient) Refresh(ctx context.Context, integration *models.Integration) (*TokenSet, error) {
	if strings.TrimSpace(c.AppID) == "" || strings.TrimSpace(c.AppSecret) == "" {
		return nil, errors.New("FACEBOOK_KEY/FACEBOOK_SECRET are not configured")
	}
	if strings.TrimSpace(integration.AccessToken) == "" {
		return nil, ErrMissingCredential
	}

	u, err := url.Parse(c.Endpoint())
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("grant_type", "fb_exchange_token")
	q.Set("client_id", c.AppID)
	q.Set("client_secret", c.AppSecret)
	q.Set("fb_exchange_token", integration.AccessToken)
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
		return nil, parseFacebookError(models.PlatformFacebook, resp.StatusCode, body)
	}

	var out facebookTokenResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("facebook token response invalid: %w", err)
	}
	if strings.TrimSpace(out.AccessToken) == "" {
		return nil, errors.New("facebook token exchange returned empty access_token")
	}

	return &TokenSet{
		AccessToken: out.AccessToken,
		ExpiresIn:   out.ExpiresIn,
	}, nil
}

type facebookPublishResponse struct {
	ID string `json:"id"`
}

// PublishText posts a plain text message to the connected account's feed and
// returns the provider-issued post id.
func (c *FacebookClient) PublishText(ctx context.Context, integration *models.Integration, message string) (string, error) {
	if strings.TrimSpace(integration.AccessToken) == "" {
		return "", ErrMissingCredential
	}
	if strings.TrimSpace(integration.ExternalAccountID) == "" {
		return "", errors.New("integration has no external account id")
	}

	form := url.Values{}
	form.Set("message", message)
	form.Set("access_token", integration.AccessToken)

	endpoint := fmt.Sprintf("%s/%s/feed", c.GraphURL, integration.ExternalAccountID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", parseFacebookError(models.PlatformFacebook, resp.StatusCode, body)
	}

	var out facebookPublishResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("facebook publish response invalid: %w", err)
	}
	return out.ID, nil
}

// parseFacebookError maps a Graph API error body to a ProviderError. The
// same envelope is used by the Instagram Graph API.
func parseFacebookError(platform string, status int, body []byte) error {
	var parsed facebookErrorResponse
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error.Message != "" {
		return &ProviderError{
			Platform:   platform,
			StatusCode: status,
			Code:       parsed.Error.Code,
			Message:    parsed.Error.Message,
		}
	}
	return &ProviderError{
		Platform:   platform,
		StatusCode: status,
		Message:    string(body),
	}
}
