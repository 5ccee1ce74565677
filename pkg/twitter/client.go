package twitter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"spoilerscraper/pkg/config"
	errs "spoilerscraper/pkg/errors"
	"spoilerscraper/pkg/logger"
	"spoilerscraper/pkg/ratelimit"
)

// rateLimitCode is the API error code for an exhausted quota
const rateLimitCode = 88

// statusEnhanceYourCalm is the legacy rate-limit status some endpoints still send
const statusEnhanceYourCalm = 420

// Client talks to the v1.1 search and rate-limit-status endpoints
type Client struct {
	auth      *Authenticator
	limiter   ratelimit.Limiter
	baseURL   string
	tweetMode string
	userAgent string
	logger    logger.Logger
}

// NewClient creates a client from the twitter configuration section. A nil
// limiter disables client-side pacing.
func NewClient(cfg *config.TwitterConfig, limiter ratelimit.Limiter, log logger.Logger) (*Client, error) {
	auth, err := NewAuthenticator(cfg)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeAuth, err, "failed to create authenticator")
	}
	if limiter == nil {
		limiter = ratelimit.Unlimited{}
	}
	if log == nil {
		log = logger.GetLogger()
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	tweetMode := cfg.TweetMode
	if tweetMode == "compat" {
		tweetMode = ""
	}

	return &Client{
		auth:      auth,
		limiter:   limiter,
		baseURL:   baseURL,
		tweetMode: tweetMode,
		userAgent: cfg.UserAgent,
		logger:    log.WithField("component", "twitter"),
	}, nil
}

// Search fetches one page of posts. An empty slice means the query is
// exhausted below params.MaxID.
func (c *Client) Search(ctx context.Context, params SearchParams) ([]Status, error) {
	var resp searchResponse
	if err := c.getJSON(ctx, SearchURL(c.baseURL, params, c.tweetMode), &resp); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{
		"count": len(resp.Statuses),
		"lang":  params.Lang,
	}
	if params.MaxID != nil {
		fields["max_id"] = *params.MaxID
	}
	c.logger.DebugWithFields("search page received", fields)

	return resp.Statuses, nil
}

// RateLimitStatus fetches the quota table for every operation
func (c *Client) RateLimitStatus(ctx context.Context) ([]ratelimit.Limit, error) {
	var resp rateLimitResponse
	if err := c.getJSON(ctx, RateLimitStatusURL(c.baseURL), &resp); err != nil {
		return nil, err
	}
	return resp.limits(), nil
}

func (c *Client) getJSON(ctx context.Context, url string, target interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("request pacing interrupted: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errs.Wrap(errs.ErrorTypeUnknown, err, "failed to create request")
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	c.auth.SetAuthHeader(req)

	start := time.Now()
	resp, err := c.auth.HTTPClient().Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return errs.Wrap(errs.ErrorTypeNetwork, err, "request to %s failed", req.URL.Path)
	}
	defer resp.Body.Close()
	logger.LogRequest(c.logger, req.Method, req.URL.Path, resp.StatusCode, time.Since(start))

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errs.Wrap(errs.ErrorTypeNetwork, err, "failed to read response body")
	}

	if err := c.checkResponseStatus(resp.StatusCode, body); err != nil {
		return err
	}

	if err := json.Unmarshal(body, target); err != nil {
		preview := string(body)
		if len(preview) > 200 {
			preview = preview[:200] + "..."
		}
		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"path":         req.URL.Path,
			"body_preview": preview,
		})
		return &errs.Error{
			Type:    errs.ErrorTypeParsing,
			Message: "failed to parse JSON response",
			Code:    resp.StatusCode,
			Err:     err,
		}
	}
	return nil
}

// checkResponseStatus maps a non-2xx response to a typed error
func (c *Client) checkResponseStatus(status int, body []byte) error {
	if status >= 200 && status < 300 {
		return nil
	}

	var apiErr apiErrorBody
	_ = json.Unmarshal(body, &apiErr)
	msg := apiErr.message()
	if msg == "" {
		msg = http.StatusText(status)
	}

	errType := errs.ErrorTypeForStatus(status)
	if status == statusEnhanceYourCalm || apiErr.hasCode(rateLimitCode) {
		errType = errs.ErrorTypeRateLimit
	}

	c.logger.WarnWithFields("endpoint returned error", map[string]interface{}{
		"status": status,
		"type":   string(errType),
		"detail": msg,
	})
	return errs.New(errType, status, "%s", msg)
}
