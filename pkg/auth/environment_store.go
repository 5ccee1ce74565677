package auth

import (
	"os"
	"time"
)

// EnvironmentStore exposes BEARER_TOKEN and the TWITTER_* keys as the
// read-only default profile.
type EnvironmentStore struct {
	getenv func(string) string
}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{getenv: os.Getenv}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(*Credential) error {
	return ErrStoreUnavailable
}

// Retrieve builds the default profile from the environment
func (e *EnvironmentStore) Retrieve(profile string) (*Credential, error) {
	if profile != "" && profile != DefaultProfile {
		return nil, ErrCredentialsNotFound
	}

	bearer := e.getenv("SPOILERSCRAPER_BEARER_TOKEN")
	if bearer == "" {
		bearer = e.getenv("BEARER_TOKEN")
	}

	cred := &Credential{
		Profile:        DefaultProfile,
		BearerToken:    bearer,
		ConsumerKey:    e.getenv("TWITTER_CONSUMER_KEY"),
		ConsumerSecret: e.getenv("TWITTER_CONSUMER_SECRET"),
		AccessToken:    e.getenv("TWITTER_ACCESS_TOKEN"),
		AccessSecret:   e.getenv("TWITTER_ACCESS_TOKEN_SECRET"),
		LastModified:   time.Now(),
	}
	if cred.Validate() != nil {
		return nil, ErrCredentialsNotFound
	}
	return cred, nil
}

// List returns the default profile if the environment provides one
func (e *EnvironmentStore) List() ([]*Credential, error) {
	cred, err := e.Retrieve(DefaultProfile)
	if err != nil {
		return []*Credential{}, nil
	}
	return []*Credential{cred}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(string) error {
	return ErrStoreUnavailable
}
