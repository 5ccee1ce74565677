package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"golang.org/x/crypto/pbkdf2"

	"spoilerscraper/internal/fsutil"
)

const (
	saltSize   = 32
	keySize    = 32
	iterations = 100000

	vaultVersion = 2
)

// ErrWrongPassphrase is returned when a sealed entry fails authentication
var ErrWrongPassphrase = errors.New("credential file cannot be opened with this passphrase")

// secrets is the sealed part of a profile. Profile names and timestamps stay
// readable so the file can be listed and pruned without the passphrase.
type secrets struct {
	BearerToken    string `json:"bearer_token,omitempty"`
	ConsumerKey    string `json:"consumer_key,omitempty"`
	ConsumerSecret string `json:"consumer_secret,omitempty"`
	AccessToken    string `json:"access_token,omitempty"`
	AccessSecret   string `json:"access_secret,omitempty"`
}

type vaultEntry struct {
	Modified time.Time `json:"modified"`
	Sealed   string    `json:"sealed"`
}

type vaultFile struct {
	Version  int                   `json:"version"`
	Salt     string                `json:"salt"`
	Profiles map[string]vaultEntry `json:"profiles"`
}

// EncryptedFileStore keeps each profile's secrets sealed with AES-GCM under a
// key derived once per file from the passphrase with PBKDF2.
type EncryptedFileStore struct {
	path       string
	passphrase string

	mu      sync.Mutex
	key     []byte
	keySalt string
}

// NewEncryptedFileStore opens, or prepares to create, the credential file at path
func NewEncryptedFileStore(path string) (*EncryptedFileStore, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	passphrase, err := loadPassphrase(filepath.Join(filepath.Dir(path), ".passphrase"))
	if err != nil {
		return nil, fmt.Errorf("failed to get passphrase: %w", err)
	}
	return &EncryptedFileStore{path: path, passphrase: passphrase}, nil
}

func (e *EncryptedFileStore) Store(cred *Credential) error {
	if cred == nil || cred.Profile == "" {
		return ErrInvalidCredentials
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	vault, err := e.read()
	if err != nil {
		return err
	}
	if vault.Salt == "" {
		salt := make([]byte, saltSize)
		if _, err := io.ReadFull(rand.Reader, salt); err != nil {
			return fmt.Errorf("failed to generate salt: %w", err)
		}
		vault.Salt = base64.StdEncoding.EncodeToString(salt)
	}

	sealed, err := e.seal(vault.Salt, secretsOf(cred))
	if err != nil {
		return err
	}

	modified := cred.LastModified
	if modified.IsZero() {
		modified = time.Now()
	}
	vault.Profiles[cred.Profile] = vaultEntry{Modified: modified.UTC(), Sealed: sealed}
	return e.write(vault)
}

func (e *EncryptedFileStore) Retrieve(profile string) (*Credential, error) {
	if profile == "" {
		return nil, ErrInvalidCredentials
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	vault, err := e.read()
	if err != nil {
		return nil, err
	}
	entry, ok := vault.Profiles[profile]
	if !ok {
		return nil, ErrCredentialsNotFound
	}
	return e.open(vault.Salt, profile, entry)
}

// List opens every profile. One entry that fails to open fails the listing.
func (e *EncryptedFileStore) List() ([]*Credential, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	vault, err := e.read()
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(vault.Profiles))
	for name := range vault.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)

	creds := make([]*Credential, 0, len(names))
	for _, name := range names {
		cred, err := e.open(vault.Salt, name, vault.Profiles[name])
		if err != nil {
			return nil, err
		}
		creds = append(creds, cred)
	}
	return creds, nil
}

// Delete drops a profile without decrypting anything. The file is removed
// with its last profile.
func (e *EncryptedFileStore) Delete(profile string) error {
	if profile == "" {
		return ErrInvalidCredentials
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	vault, err := e.read()
	if err != nil {
		return err
	}
	if _, ok := vault.Profiles[profile]; !ok {
		return ErrCredentialsNotFound
	}
	delete(vault.Profiles, profile)

	if len(vault.Profiles) == 0 {
		return os.Remove(e.path)
	}
	return e.write(vault)
}

// read returns an empty vault when the file does not exist yet
func (e *EncryptedFileStore) read() (*vaultFile, error) {
	vault := &vaultFile{Version: vaultVersion, Profiles: make(map[string]vaultEntry)}

	content, err := os.ReadFile(e.path)
	if os.IsNotExist(err) {
		return vault, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read credential file: %w", err)
	}
	if err := json.Unmarshal(content, vault); err != nil {
		return nil, fmt.Errorf("failed to parse credential file: %w", err)
	}
	if vault.Version != vaultVersion {
		return nil, fmt.Errorf("unsupported credential file version %d", vault.Version)
	}
	if vault.Profiles == nil {
		vault.Profiles = make(map[string]vaultEntry)
	}
	return vault, nil
}

func (e *EncryptedFileStore) write(vault *vaultFile) error {
	return fsutil.WriteFile(e.path, 0600, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(vault)
	})
}

// keyFor derives the file key, reusing it while the salt is unchanged
func (e *EncryptedFileStore) keyFor(salt string) ([]byte, error) {
	if e.key != nil && e.keySalt == salt {
		return e.key, nil
	}
	raw, err := base64.StdEncoding.DecodeString(salt)
	if err != nil {
		return nil, fmt.Errorf("failed to decode salt: %w", err)
	}
	e.key = pbkdf2.Key([]byte(e.passphrase), raw, iterations, keySize, sha256.New)
	e.keySalt = salt
	return e.key, nil
}

func (e *EncryptedFileStore) seal(salt string, s secrets) (string, error) {
	key, err := e.keyFor(salt)
	if err != nil {
		return "", err
	}
	plain, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("failed to marshal secrets: %w", err)
	}
	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	return base64.StdEncoding.EncodeToString(gcm.Seal(nonce, nonce, plain, nil)), nil
}

func (e *EncryptedFileStore) open(salt, profile string, entry vaultEntry) (*Credential, error) {
	key, err := e.keyFor(salt)
	if err != nil {
		return nil, err
	}
	sealed, err := base64.StdEncoding.DecodeString(entry.Sealed)
	if err != nil {
		return nil, fmt.Errorf("profile %s: failed to decode secrets: %w", profile, err)
	}
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(sealed) < gcm.NonceSize() {
		return nil, fmt.Errorf("profile %s: sealed secrets too short", profile)
	}
	nonce, body := sealed[:gcm.NonceSize()], sealed[gcm.NonceSize():]
	plain, err := gcm.Open(nil, nonce, body, nil)
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", profile, ErrWrongPassphrase)
	}

	var s secrets
	if err := json.Unmarshal(plain, &s); err != nil {
		return nil, fmt.Errorf("profile %s: failed to parse secrets: %w", profile, err)
	}
	return &Credential{
		Profile:        profile,
		BearerToken:    s.BearerToken,
		ConsumerKey:    s.ConsumerKey,
		ConsumerSecret: s.ConsumerSecret,
		AccessToken:    s.AccessToken,
		AccessSecret:   s.AccessSecret,
		LastModified:   entry.Modified,
	}, nil
}

func secretsOf(c *Credential) secrets {
	return secrets{
		BearerToken:    c.BearerToken,
		ConsumerKey:    c.ConsumerKey,
		ConsumerSecret: c.ConsumerSecret,
		AccessToken:    c.AccessToken,
		AccessSecret:   c.AccessSecret,
	}
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	return cipher.NewGCM(block)
}

// loadPassphrase returns SPOILERSCRAPER_PASSPHRASE, or the passphrase kept in
// file, generating and saving one on first use.
func loadPassphrase(file string) (string, error) {
	if pass := os.Getenv("SPOILERSCRAPER_PASSPHRASE"); pass != "" {
		return pass, nil
	}
	if content, err := os.ReadFile(file); err == nil && len(content) > 0 {
		return string(content), nil
	}

	b := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return "", fmt.Errorf("failed to generate passphrase: %w", err)
	}
	passphrase := base64.URLEncoding.EncodeToString(b)
	err := fsutil.WriteFile(file, 0600, func(w io.Writer) error {
		_, err := io.WriteString(w, passphrase)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to save passphrase: %w", err)
	}
	return passphrase, nil
}
