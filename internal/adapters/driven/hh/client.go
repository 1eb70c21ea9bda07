package hh

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/gavrilovegor519/hh-autoupdate-resume/internal/core/domain"
	"github.com/gavrilovegor519/hh-autoupdate-resume/internal/core/ports/driven"
	"github.com/gavrilovegor519/hh-autoupdate-resume/internal/logger"
)

// Ensure Client implements the interface.
var _ driven.JobPlatform = (*Client)(nil)

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 64 << 10

// Config holds the OAuth application and endpoints.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	AuthURL      string
	TokenURL     string
	APIURL       string
	// UserAgent is sent as HH-User-Agent and User-Agent.
	UserAgent string
	// HTTPClient is used for all requests. Defaults to a 30 s timeout client.
	HTTPClient *http.Client
	RateLimit  RateLimitConfig
}

// Client talks to hh.ru.
type Client struct {
	oauth      *oauth2.Config
	apiURL     string
	userAgent  string
	httpClient *http.Client
	limiter    *RateLimiter
	codes      driven.AuthCodeSource
}

// NewClient creates an hh.ru client. codes supplies the authorization code
// for the initial grant.
func NewClient(cfg Config, codes driven.AuthCodeSource) (*Client, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("%w: client id and secret are required", domain.ErrNotConfigured)
	}
	if cfg.TokenURL == "" || cfg.APIURL == "" {
		return nil, fmt.Errorf("%w: token and api URLs are required", domain.ErrNotConfigured)
	}
	if codes == nil {
		codes = StaticCode("")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	return &Client{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthURL,
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		apiURL:     strings.TrimRight(cfg.APIURL, "/"),
		userAgent:  cfg.UserAgent,
		httpClient: httpClient,
		limiter:    NewRateLimiter(cfg.RateLimit),
		codes:      codes,
	}, nil
}

// AuthCodeURL returns the page where the user grants access.
func (c *Client) AuthCodeURL(state string) string {
	return c.oauth.AuthCodeURL(state)
}

// InitialToken exchanges an authorization code for a token pair.
func (c *Client) InitialToken(ctx context.Context) (*domain.TokenPair, error) {
	code, err := c.codes.AuthorizationCode(ctx)
	if err != nil {
		return nil, fmt.Errorf("obtain authorization code: %w", err)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	tok, err := c.oauth.Exchange(c.oauthContext(ctx), code)
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", tokenError(err))
	}

	logger.Debug("hh: authorization code exchanged")
	return &domain.TokenPair{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
	}, nil
}

// RefreshToken runs the refresh_token grant.
// The returned refresh token is exactly what the server sent, which may be
// empty.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("%w: refresh token is empty", domain.ErrInvalidInput)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	// A token without an access token is always refreshed.
	src := c.oauth.TokenSource(c.oauthContext(ctx), &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		return nil, fmt.Errorf("refresh token: %w", tokenError(err))
	}

	logger.Debug("hh: tokens refreshed")
	return &domain.TokenPair{
		AccessToken:  tok.AccessToken,
		RefreshToken: issuedRefreshToken(tok),
	}, nil
}

// UpdateResume publishes the résumé, which moves it up in search results.
func (c *Client) UpdateResume(ctx context.Context, resumeID, accessToken string) domain.CallResult {
	if resumeID == "" || accessToken == "" {
		return domain.Failed(0, fmt.Errorf("%w: resume id and access token are required", domain.ErrInvalidInput))
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return domain.Failed(0, err)
	}

	endpoint := c.apiURL + "/resumes/" + url.PathEscape(resumeID) + "/publish"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return domain.Failed(0, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("HH-User-Agent", c.userAgent)
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Failed(0, fmt.Errorf("publish resume: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return domain.Succeeded(resp.StatusCode)
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	apiErr := parseAPIError(resp.StatusCode, body)

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return domain.Unauthorized(resp.StatusCode, apiErr)
	case http.StatusTooManyRequests:
		retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
		c.limiter.RecordRateLimitError(retryAfter)
		logger.Warn("hh: rate limited, backing off for %s", c.backoff())
		return domain.Failed(resp.StatusCode, apiErr)
	default:
		return domain.Failed(resp.StatusCode, apiErr)
	}
}

func (c *Client) backoff() time.Duration {
	return time.Until(c.limiter.RetryAt()).Round(time.Second)
}

// oauthContext makes x/oauth2 use the client's HTTP client.
func (c *Client) oauthContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
}

// issuedRefreshToken returns the refresh token from the raw response.
// x/oauth2 copies the old refresh token into the result when the server
// omits one; the raw field shows what the server actually sent.
func issuedRefreshToken(tok *oauth2.Token) string {
	if raw, ok := tok.Extra("refresh_token").(string); ok {
		return raw
	}
	return ""
}

// tokenError flattens an oauth2.RetrieveError into a readable message.
func tokenError(err error) error {
	var re *oauth2.RetrieveError
	if !errors.As(err, &re) {
		return err
	}
	status := 0
	if re.Response != nil {
		status = re.Response.StatusCode
	}
	if re.ErrorCode == "" {
		return fmt.Errorf("token endpoint returned status %d: %w", status, err)
	}
	if re.ErrorDescription != "" {
		return fmt.Errorf("token endpoint returned status %d: %s (%s): %w", status, re.ErrorCode, re.ErrorDescription, err)
	}
	return fmt.Errorf("token endpoint returned status %d: %s: %w", status, re.ErrorCode, err)
}

// parseRetryAfter reads a Retry-After header in seconds or HTTP-date form.
func parseRetryAfter(value string) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		return time.Until(at)
	}
	return 0
}
