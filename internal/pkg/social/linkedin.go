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

const defaultLinkedInBaseURL = "https://www.linkedin.com"

const linkedInDefaultTTL = 60 * 24 * time.Hour

// LinkedInClient renews access tokens through the standard OAuth2
// refresh_token grant.
type LinkedInClient struct {
	ClientID     string
	ClientSecret string
	BaseURL      string

	HTTPClient *http.Client
}

// NewLinkedInClientFromEnv builds a client from LINKEDIN_* environment
// variables.
func NewLinkedInClientFromEnv() *LinkedInClient {
	return &LinkedInClient{
		ClientID:     strings.TrimSpace(env.GetEnv("LINKEDIN_KEY", "")),
		ClientSecret: strings.TrimSpace(env.GetEnv("LINKEDIN_SECRET", "")),
		BaseURL:      strings.TrimRight(env.GetEnv("LINKEDIN_BASE_URL", defaultLinkedInBaseURL), "/"),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (c *LinkedInClient) Platform() string          { return models.PlatformLinkedIn }
func (c *LinkedInClient) Endpoint() string          { return c.BaseURL + "/oauth/v2/accessToken" }
func (c *LinkedInClient) Method() string            { return http.MethodPost }
func (c *LinkedInClient) DefaultTTL() time.Duration { return linkedInDefaultTTL }

type linkedInTokenResponse struct {
	AccessToken           string `json:"access_token"`
	ExpiresIn             int    `json:"expires_in"`
	RefreshToken          string `json:"refresh_token"`
	RefreshTokenExpiresIn int    `json:"refresh_token_expires_in"`
}

type linkedInErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// Refresh exchanges the stored refresh token for a new access token. Unlike
// the Meta platforms, LinkedIn requires a dedicated refresh token; an
// integration without one cannot be renewed.
func (c *LinkedInClient) Refresh(ctx context.Context, integration *models.Integration) (*TokenSet, error) {
	if strings.TrimSpace(c.ClientID) == "" || strings.TrimSpace(c.ClientSecret) == "" {
		return nil, errors.New("LINKEDIN_KEY/LINKEDIN_SECRET are not configured")
	}
	if strings.TrimSpace(integration.RefreshToken) == "" {
		return nil, ErrMissingCredential
	}

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", integration.RefreshToken)
	form.Set("client_id", c.ClientID)
	form.Set("client_secret", c.ClientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint(), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var parsed linkedInErrorResponse
		if err := json.Unmarshal(body, &parsed); err == nil && (parsed.Error != "" || parsed.ErrorDescription != "") {
			msg := parsed.ErrorDescription
			if msg == "" {
				msg = parsed.Error
			}
			return nil, &ProviderError{
				Platform:   models.PlatformLinkedIn,
				StatusCode: resp.StatusCode,
				Message:    msg,
			}
		}
		return nil, &ProviderError{
			Platform:   models.PlatformLinkedIn,
			StatusCode: resp.StatusCode,
			Message:    string(body),
		}
	}

	var out linkedInTokenResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("linkedin token response invalid: %w", err)
	}
	if strings.TrimSpace(out.AccessToken) == "" {
		return nil, errors.New("linkedin token refresh returned empty access_token")
	}

	return &TokenSet{
		AccessToken:  out.AccessToken,
		RefreshToken: out.RefreshToken,
		ExpiresIn:    out.ExpiresIn,
	}, nil
}

type linkedInShareRequest struct {
	Author     string `json:"author"`
	Commentary string `json:"commentary"`
	Visibility string `json:"visibility"`
	Distribution struct {
		FeedDistribution string `json:"feedDistribution"`
	} `json:"distribution"`
	LifecycleState string `json:"lifecycleState"`
}

// PublishText creates a public text share for the connected member and
// returns the share id from the x-restli-id response header.
func (c *LinkedInClient) PublishText(ctx context.Context, integration *models.Integration, message string) (string, error) {
	if strings.TrimSpace(integration.AccessToken) == "" {
		return "", ErrMissingCredential
	}
	if strings.TrimSpace(integration.ExternalAccountID) == "" {
		return "", errors.New("integration has no external account id")
	}

	share := linkedInShareRequest{
		Author:         "urn:li:person:" + integration.ExternalAccountID,
		Commentary:     message,
		Visibility:     "PUBLIC",
		LifecycleState: "PUBLISHED",
	}
	share.Distribution.FeedDistribution = "MAIN_FEED"

	payload, err := json.Marshal(share)
	if err != nil {
		return "", err
	}

	endpoint := strings.Replace(c.BaseURL, "www.linkedin.com", "api.linkedin.com", 1) + "/rest/posts"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(string(payload)))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+integration.AccessToken)
	req.Header.Set("LinkedIn-Version", "202401")
	req.Header.Set("X-Restli-Protocol-Version", "2.0.0")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var parsed struct {
			Message string `json:"message"`
			Status  int    `json:"status"`
		}
		msg := string(body)
		if err := json.Unmarshal(body, &parsed); err == nil && parsed.Message != "" {
			msg = parsed.Message
		}
		return "", &ProviderError{
			Platform:   models.PlatformLinkedIn,
			StatusCode: resp.StatusCode,
			Message:    msg,
		}
	}

	if id := resp.Header.Get("x-restli-id"); id != "" {
		return id, nil
	}
	return "", errors.New("linkedin share response missing x-restli-id header")
}
