// Package githubapi is the conditional fetcher in front of the GitHub REST
// API. Every request may carry a stored validation token; 304 answers reuse
// the stored body, throttling answers become rate limit errors and other
// failures are reported as absent data.

package githubapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/thep200/github-portfolio-sync/cfg"
	"github.com/thep200/github-portfolio-sync/internal/apperror"
	"github.com/thep200/github-portfolio-sync/internal/limiter"
	"github.com/thep200/github-portfolio-sync/pkg/log"
)

var errTooManyRedirects = errors.New("too many redirects")

type Caller struct {
	Logger    log.Logger
	Config    *cfg.Config
	Endpoints *Endpoints
	Tokens    *TokenStore
	client    *resty.Client
	limiter   *limiter.RateLimiter
	now       func() time.Time
}

// outcome is a single interpreted response.
type outcome struct {
	status      int
	body        []byte
	notModified bool
}

func NewCaller(logger log.Logger, config *cfg.Config, tokens *TokenStore) *Caller {
	client := resty.New().
		SetTimeout(time.Duration(config.GithubApi.RequestTimeoutSec) * time.Second).
		SetHeader("User-Agent", config.App.Name+"/"+config.App.Version).
		// Redirects are followed by hand so each hop goes through the token store
		SetRedirectPolicy(resty.RedirectPolicyFunc(func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}))

	return &Caller{
		Logger:    logger,
		Config:    config,
		Endpoints: NewEndpoints(config),
		Tokens:    tokens,
		client:    client,
		limiter:   limiter.NewRateLimiter(config.GithubApi.RequestsPerSecond),
		now:       time.Now,
	}
}

// Get fetches url conditionally. It returns the body, nil for absent data,
// or an error: RateLimited when throttled, EndpointUnavailable when the
// request could not be made at all.
func (c *Caller) Get(ctx context.Context, url string) ([]byte, error) {
	out, err := c.fetch(ctx, url, 0, true)
	if err != nil {
		return nil, err
	}
	if out.notModified || isSuccess(out.status) {
		return out.body, nil
	}
	return nil, nil
}

// GetJSON fetches url and decodes it into v. The bool is false when the
// endpoint had no data; malformed JSON is reported as EndpointUnavailable.
func (c *Caller) GetJSON(ctx context.Context, url string, v any) (bool, error) {
	body, err := c.Get(ctx, url)
	if err != nil || body == nil {
		return false, err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return false, apperror.EndpointUnavailable(url, fmt.Errorf("decode: %w", err))
	}
	return true, nil
}

func (c *Caller) fetch(ctx context.Context, rawURL string, depth int, conditional bool) (*outcome, error) {
	if depth > c.Config.GithubApi.MaxRedirects {
		return nil, apperror.EndpointUnavailable(rawURL, errTooManyRedirects)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, apperror.EndpointUnavailable(rawURL, err)
	}

	req := c.client.R().SetContext(ctx)
	if c.Endpoints.IsAPI(rawURL) {
		req.SetHeader("Accept", "application/vnd.github.v3+json")
		if c.Config.GithubApi.AccessToken != "" {
			req.SetHeader("Authorization", fmt.Sprintf("token %s", c.Config.GithubApi.AccessToken))
		}
	}

	var cached TokenEntry
	var hasCached bool
	if conditional && c.Tokens != nil {
		cached, hasCached = c.Tokens.Lookup(ctx, rawURL)
		if hasCached && cached.Token != "" {
			req.SetHeader("If-None-Match", cached.Token)
		}
	}

	c.Logger.Debug(ctx, "Calling %s", rawURL)
	resp, err := req.Get(rawURL)
	if err != nil {
		c.Logger.Warn(ctx, "Cannot send request to %s: %v", rawURL, err)
		return nil, apperror.EndpointUnavailable(rawURL, err)
	}

	status := resp.StatusCode()
	switch {
	case status == http.StatusNotModified:
		if !hasCached {
			c.Logger.Warn(ctx, "Got 304 for %s without a stored body", rawURL)
			return &outcome{status: status}, nil
		}
		c.Logger.Debug(ctx, "Not modified: %s", rawURL)
		return &outcome{status: status, body: cached.Body, notModified: true}, nil

	case isRedirect(status):
		next, err := resolveLocation(rawURL, resp.Header().Get("Location"))
		if err != nil {
			return nil, apperror.EndpointUnavailable(rawURL, err)
		}
		c.Logger.Debug(ctx, "Redirect %d: %s -> %s", status, rawURL, next)
		return c.fetch(ctx, next, depth+1, conditional)

	case IsThrottled(status):
		fallback := time.Duration(c.Config.GithubApi.RateLimitFallbackSec) * time.Second
		resetAt := ResetTime(resp.Header(), c.now(), fallback)
		c.Logger.Warn(ctx, "Rate limit hit on %s (status %d, remaining %s), reset at %s",
			rawURL, status, resp.Header().Get("X-RateLimit-Remaining"), resetAt.Format(time.RFC3339))
		return nil, apperror.RateLimited(resetAt)

	case !isSuccess(status):
		c.Logger.Warn(ctx, "Unexpected response from %s: %s", rawURL, resp.Status())
		return &outcome{status: status}, nil
	}

	body := resp.Body()
	if conditional && c.Tokens != nil {
		if etag := resp.Header().Get("ETag"); etag != "" {
			entry := TokenEntry{Token: etag, Body: body, CapturedAt: c.now()}
			if err := c.Tokens.Save(ctx, rawURL, entry); err != nil {
				c.Logger.Warn(ctx, "Cannot store validation token for %s: %v", rawURL, err)
			}
		}
	}
	return &outcome{status: status, body: body}, nil
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

func isRedirect(status int) bool {
	switch status {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	}
	return false
}

func resolveLocation(base, location string) (string, error) {
	if location == "" {
		return "", fmt.Errorf("redirect without location")
	}
	b, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	loc, err := b.Parse(location)
	if err != nil {
		return "", err
	}
	return loc.String(), nil
}
