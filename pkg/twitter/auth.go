package twitter

import (
	"fmt"
	"net/http"
	"time"

	"github.com/mrjones/oauth"
	"spoilerscraper/pkg/config"
)

const (
	RequestTokenURL   = "https://api.twitter.com/oauth/request_token"
	AuthorizeTokenURL = "https://api.twitter.com/oauth/authorize"
	AccessTokenURL    = "https://api.twitter.com/oauth/access_token"
)

// Authenticator supplies an HTTP client and per-request credentials. App
// context uses a bearer token header; user context signs every request with
// OAuth 1.0a inside the client's transport.
type Authenticator struct {
	client      *http.Client
	bearerToken string
	userContext bool
}

// NewAuthenticator prefers OAuth 1.0a user context when all four keys are
// configured and falls back to the bearer token.
func NewAuthenticator(cfg *config.TwitterConfig) (*Authenticator, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	if cfg.UsesOAuth1() {
		return newUserAuthenticator(cfg, timeout)
	}
	if cfg.BearerToken != "" {
		return &Authenticator{
			client:      &http.Client{Timeout: timeout},
			bearerToken: cfg.BearerToken,
		}, nil
	}
	return nil, fmt.Errorf("no credential configured: set BEARER_TOKEN or run 'spoilerscraper auth login'")
}

func newUserAuthenticator(cfg *config.TwitterConfig, timeout time.Duration) (*Authenticator, error) {
	consumer := oauth.NewConsumer(cfg.ConsumerKey, cfg.ConsumerSecret, oauth.ServiceProvider{
		RequestTokenUrl:   RequestTokenURL,
		AuthorizeTokenUrl: AuthorizeTokenURL,
		AccessTokenUrl:    AccessTokenURL,
	})
	consumer.HttpClient = &http.Client{Timeout: timeout}

	client, err := consumer.MakeHttpClient(&oauth.AccessToken{
		Token:  cfg.AccessToken,
		Secret: cfg.AccessTokenSecret,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create OAuth client: %w", err)
	}
	client.Timeout = timeout

	return &Authenticator{client: client, userContext: true}, nil
}

// HTTPClient returns the client requests must be sent through
func (a *Authenticator) HTTPClient() *http.Client {
	return a.client
}

// UserContext reports whether requests are signed with OAuth 1.0a
func (a *Authenticator) UserContext() bool {
	return a.userContext
}

// SetAuthHeader adds the bearer header in app context. Signed clients
// authenticate in their transport.
func (a *Authenticator) SetAuthHeader(req *http.Request) {
	if a.bearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+a.bearerToken)
	}
}
