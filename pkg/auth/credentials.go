package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"spoilerscraper/pkg/config"
)

// DefaultProfile is the profile used when none is named
const DefaultProfile = "default"

// Credential holds the secrets for one API profile. Either BearerToken or all
// four OAuth 1.0a keys must be set.
type Credential struct {
	Profile        string    `json:"profile"`
	BearerToken    string    `json:"bearer_token,omitempty"`
	ConsumerKey    string    `json:"consumer_key,omitempty"`
	ConsumerSecret string    `json:"consumer_secret,omitempty"`
	AccessToken    string    `json:"access_token,omitempty"`
	AccessSecret   string    `json:"access_secret,omitempty"`
	LastModified   time.Time `json:"last_modified"`
}

// HasOAuth1 reports whether all four user-context keys are present
func (c *Credential) HasOAuth1() bool {
	return c.ConsumerKey != "" && c.ConsumerSecret != "" && c.AccessToken != "" && c.AccessSecret != ""
}

// Validate checks that the credential can authenticate a request
func (c *Credential) Validate() error {
	if c.Profile == "" {
		return errors.New("profile is required")
	}
	if c.BearerToken == "" && !c.HasOAuth1() {
		return fmt.Errorf("%w: a bearer token or all four OAuth 1.0a keys are required", ErrInvalidCredentials)
	}
	return nil
}

// Apply copies the credential into cfg. Values already present in cfg win,
// so flags and environment keep precedence over stored secrets.
func (c *Credential) Apply(cfg *config.TwitterConfig) {
	fill := func(dst *string, v string) {
		if *dst == "" {
			*dst = v
		}
	}
	fill(&cfg.BearerToken, c.BearerToken)
	fill(&cfg.ConsumerKey, c.ConsumerKey)
	fill(&cfg.ConsumerSecret, c.ConsumerSecret)
	fill(&cfg.AccessToken, c.AccessToken)
	fill(&cfg.AccessTokenSecret, c.AccessSecret)
}

// CredentialStore is the interface for storing and retrieving credentials
type CredentialStore interface {
	// Store saves credentials for a profile
	Store(cred *Credential) error

	// Retrieve gets credentials for a profile
	Retrieve(profile string) (*Credential, error)

	// List returns all stored profiles
	List() ([]*Credential, error)

	// Delete removes credentials for a profile
	Delete(profile string) error
}

// Manager handles credential storage with fallback mechanisms
type Manager struct {
	stores []CredentialStore
}

// NewManager creates a credential manager. The environment is consulted
// first, then the system keychain when available, then the encrypted file.
func NewManager() (*Manager, error) {
	stores := []CredentialStore{NewEnvironmentStore()}

	if keyringStore, err := NewKeyringStore(); err == nil {
		stores = append(stores, keyringStore)
	}

	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}

	encryptedStore, err := NewEncryptedFileStore(filepath.Join(configDir, "credentials.enc"))
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}
	stores = append(stores, encryptedStore)

	return &Manager{stores: stores}, nil
}

// NewManagerWithStores creates a Manager over the given stores, consulted in order
func NewManagerWithStores(stores ...CredentialStore) *Manager {
	return &Manager{stores: stores}
}

// Store saves credentials using the first store that accepts them
func (m *Manager) Store(cred *Credential) error {
	if cred == nil {
		return ErrInvalidCredentials
	}
	if err := cred.Validate(); err != nil {
		return err
	}

	cred.LastModified = time.Now()

	var lastErr error
	for _, store := range m.stores {
		err := store.Store(cred)
		if err == nil {
			return nil
		}
		lastErr = err
	}

	if lastErr != nil {
		return fmt.Errorf("failed to store credentials: %w", lastErr)
	}
	return ErrStoreUnavailable
}

// Retrieve gets credentials from the first store that has them
func (m *Manager) Retrieve(profile string) (*Credential, error) {
	if profile == "" {
		profile = DefaultProfile
	}
	for _, store := range m.stores {
		if cred, err := store.Retrieve(profile); err == nil && cred != nil {
			return cred, nil
		}
	}
	return nil, fmt.Errorf("%w for profile: %s", ErrCredentialsNotFound, profile)
}

// List returns every profile known to any store. When a profile lives in
// several stores the most recently modified copy wins.
func (m *Manager) List() ([]*Credential, error) {
	byProfile := make(map[string]*Credential)

	for _, store := range m.stores {
		creds, err := store.List()
		if err != nil {
			continue
		}
		for _, cred := range creds {
			if existing, ok := byProfile[cred.Profile]; !ok || cred.LastModified.After(existing.LastModified) {
				byProfile[cred.Profile] = cred
			}
		}
	}

	result := make([]*Credential, 0, len(byProfile))
	for _, cred := range byProfile {
		result = append(result, cred)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Profile < result[j].Profile })

	return result, nil
}

// Delete removes credentials from all stores
func (m *Manager) Delete(profile string) error {
	var deleted bool
	var lastErr error

	for _, store := range m.stores {
		if err := store.Delete(profile); err == nil {
			deleted = true
		} else {
			lastErr = err
		}
	}

	if !deleted && lastErr != nil {
		return fmt.Errorf("failed to delete credentials: %w", lastErr)
	}
	if !deleted {
		return fmt.Errorf("%w for profile: %s", ErrCredentialsNotFound, profile)
	}

	return nil
}

// getConfigDir returns the configuration directory path
func getConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support", "spoilerscraper")
	case "windows":
		configDir = filepath.Join(os.Getenv("APPDATA"), "spoilerscraper")
	default:
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			configDir = filepath.Join(xdgConfig, "spoilerscraper")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			configDir = filepath.Join(home, ".config", "spoilerscraper")
		}
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// Sanitize returns a copy of the credential with every secret masked
func Sanitize(cred *Credential) *Credential {
	if cred == nil {
		return nil
	}

	return &Credential{
		Profile:        cred.Profile,
		BearerToken:    maskString(cred.BearerToken),
		ConsumerKey:    maskString(cred.ConsumerKey),
		ConsumerSecret: maskString(cred.ConsumerSecret),
		AccessToken:    maskString(cred.AccessToken),
		AccessSecret:   maskString(cred.AccessSecret),
		LastModified:   cred.LastModified,
	}
}

// maskString masks all but the first 4 and last 4 characters of a string
func maskString(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

// Errors
var (
	ErrCredentialsNotFound = errors.New("credentials not found")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrStoreUnavailable    = errors.New("credential store unavailable")
)
