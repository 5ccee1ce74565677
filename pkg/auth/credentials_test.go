package auth

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"spoilerscraper/pkg/config"
)

func bearer(profile, token string) *Credential {
	return &Credential{Profile: profile, BearerToken: token}
}

func TestCredentialValidate(t *testing.T) {
	assert.NoError(t, bearer("default", "AAAA").Validate())
	assert.ErrorIs(t, bearer("default", "").Validate(), ErrInvalidCredentials)
	assert.Error(t, bearer("", "AAAA").Validate())

	oauth := &Credential{Profile: "bot", ConsumerKey: "ck", ConsumerSecret: "cs", AccessToken: "at", AccessSecret: "as"}
	assert.True(t, oauth.HasOAuth1())
	assert.NoError(t, oauth.Validate())

	oauth.AccessSecret = ""
	assert.False(t, oauth.HasOAuth1())
	assert.Error(t, oauth.Validate())
}

func TestCredentialApplyKeepsExistingValues(t *testing.T) {
	cfg := config.TwitterConfig{BearerToken: "from-flag"}
	cred := &Credential{Profile: "default", BearerToken: "stored", ConsumerKey: "ck", AccessSecret: "as"}
	cred.Apply(&cfg)

	assert.Equal(t, "from-flag", cfg.BearerToken)
	assert.Equal(t, "ck", cfg.ConsumerKey)
	assert.Equal(t, "as", cfg.AccessTokenSecret)
}

func TestManagerLifecycle(t *testing.T) {
	manager, store := NewMockManager()

	require.NoError(t, manager.Store(bearer("default", "AAAAAAAAAAAAAAAAtoken")))
	assert.Equal(t, 1, store.Count())

	got, err := manager.Retrieve("")
	require.NoError(t, err)
	assert.Equal(t, "AAAAAAAAAAAAAAAAtoken", got.BearerToken)
	assert.False(t, got.LastModified.IsZero())

	list, err := manager.List()
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, manager.Delete("default"))
	_, err = manager.Retrieve("default")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)

	err = manager.Delete("default")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)
}

func TestManagerRejectsIncompleteCredential(t *testing.T) {
	manager, store := NewMockManager()
	assert.ErrorIs(t, manager.Store(bearer("default", "")), ErrInvalidCredentials)
	assert.Equal(t, 0, store.Count())
}

func TestManagerFallsBackAcrossStores(t *testing.T) {
	broken := NewMockStore()
	broken.StoreError = errors.New("keychain locked")
	broken.RetrieveError = errors.New("keychain locked")
	working := NewMockStore()

	manager := NewManagerWithStores(broken, working)
	require.NoError(t, manager.Store(bearer("default", "token")))
	assert.Equal(t, 0, broken.Count())
	assert.Equal(t, 1, working.Count())

	got, err := manager.Retrieve("default")
	require.NoError(t, err)
	assert.Equal(t, "token", got.BearerToken)
}

func TestManagerStoreFailsWhenNoStoreAccepts(t *testing.T) {
	manager := NewManagerWithStores(NewEnvironmentStore())
	err := manager.Store(bearer("default", "token"))
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestManagerListPrefersNewest(t *testing.T) {
	older := NewMockStore()
	newer := NewMockStore()
	manager := NewManagerWithStores(older, newer)

	now := time.Now()
	require.NoError(t, older.Store(&Credential{Profile: "default", BearerToken: "old", LastModified: now.Add(-time.Hour)}))
	require.NoError(t, newer.Store(&Credential{Profile: "default", BearerToken: "new", LastModified: now}))
	require.NoError(t, newer.Store(bearer("archive", "zzz")))

	list, err := manager.List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "archive", list[0].Profile)
	assert.Equal(t, "new", list[1].BearerToken)
}

func TestEnvironmentStore(t *testing.T) {
	env := map[string]string{"BEARER_TOKEN": "plain"}
	store := &EnvironmentStore{getenv: func(k string) string { return env[k] }}

	cred, err := store.Retrieve("")
	require.NoError(t, err)
	assert.Equal(t, "plain", cred.BearerToken)
	assert.Equal(t, DefaultProfile, cred.Profile)

	env["SPOILERSCRAPER_BEARER_TOKEN"] = "prefixed"
	cred, err = store.Retrieve(DefaultProfile)
	require.NoError(t, err)
	assert.Equal(t, "prefixed", cred.BearerToken)

	_, err = store.Retrieve("other")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)

	assert.ErrorIs(t, store.Store(cred), ErrStoreUnavailable)
	assert.ErrorIs(t, store.Delete(DefaultProfile), ErrStoreUnavailable)

	empty := &EnvironmentStore{getenv: func(string) string { return "" }}
	_, err = empty.Retrieve(DefaultProfile)
	assert.ErrorIs(t, err, ErrCredentialsNotFound)
	list, err := empty.List()
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestEncryptedFileStore(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "credentials.enc")

	store, err := NewEncryptedFileStore(path)
	require.NoError(t, err)

	require.NoError(t, store.Store(bearer("default", "secret-bearer-token")))
	require.NoError(t, store.Store(bearer("archive", "second")))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret-bearer-token")

	reopened, err := NewEncryptedFileStore(path)
	require.NoError(t, err)
	got, err := reopened.Retrieve("default")
	require.NoError(t, err)
	assert.Equal(t, "secret-bearer-token", got.BearerToken)

	list, err := reopened.List()
	require.NoError(t, err)
	assert.Len(t, list, 2)

	require.NoError(t, reopened.Delete("archive"))
	require.NoError(t, reopened.Delete("default"))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	_, err = reopened.Retrieve("default")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)
}

func TestEncryptedFileStoreWrongPassphrase(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "credentials.enc")

	store, err := NewEncryptedFileStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Store(bearer("default", "token")))

	t.Setenv("SPOILERSCRAPER_PASSPHRASE", "not-the-generated-one")
	other, err := NewEncryptedFileStore(path)
	require.NoError(t, err)
	_, err = other.Retrieve("default")
	assert.ErrorIs(t, err, ErrWrongPassphrase)
	assert.NotErrorIs(t, err, ErrCredentialsNotFound)
}

func TestEncryptedFileStoreSealsOnlySecrets(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "credentials.enc")
	t.Setenv("SPOILERSCRAPER_PASSPHRASE", "first")

	store, err := NewEncryptedFileStore(path)
	require.NoError(t, err)
	modified := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, store.Store(&Credential{
		Profile:        "research",
		ConsumerKey:    "ck-value",
		ConsumerSecret: "cs-value",
		AccessToken:    "at-value",
		AccessSecret:   "as-value",
		LastModified:   modified,
	}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"research"`)
	for _, secret := range []string{"ck-value", "cs-value", "at-value", "as-value"} {
		assert.NotContains(t, string(raw), secret)
	}

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	got, err := store.Retrieve("research")
	require.NoError(t, err)
	assert.True(t, got.HasOAuth1())
	assert.Equal(t, "as-value", got.AccessSecret)
	assert.True(t, modified.Equal(got.LastModified))

	// Profiles can be pruned without the passphrase that sealed them
	t.Setenv("SPOILERSCRAPER_PASSPHRASE", "second")
	other, err := NewEncryptedFileStore(path)
	require.NoError(t, err)
	_, err = other.List()
	assert.ErrorIs(t, err, ErrWrongPassphrase)
	require.NoError(t, other.Delete("research"))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestEncryptedFileStoreRejectsUnknownVersion(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "credentials.enc")
	t.Setenv("SPOILERSCRAPER_PASSPHRASE", "pass")
	require.NoError(t, os.WriteFile(path, []byte(`{"salt":"c2FsdA==","encrypted":"AAAA","version":1}`), 0600))

	store, err := NewEncryptedFileStore(path)
	require.NoError(t, err)
	_, err = store.Retrieve("default")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported credential file version 1")
}

func TestKeyringStore(t *testing.T) {
	keyring.MockInit()

	store, err := NewKeyringStore()
	require.NoError(t, err)

	require.NoError(t, store.Store(bearer("default", "kc-token")))
	require.NoError(t, store.Store(bearer("archive", "kc-second")))

	got, err := store.Retrieve("default")
	require.NoError(t, err)
	assert.Equal(t, "kc-token", got.BearerToken)

	list, err := store.List()
	require.NoError(t, err)
	assert.Len(t, list, 2)

	require.NoError(t, store.Delete("archive"))
	list, err = store.List()
	require.NoError(t, err)
	assert.Len(t, list, 1)

	assert.ErrorIs(t, store.Delete("archive"), ErrCredentialsNotFound)
	_, err = store.Retrieve("archive")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)
}

func TestSanitize(t *testing.T) {
	s := Sanitize(&Credential{Profile: "default", BearerToken: "AAAAbearer-tokenZZZZ", ConsumerKey: "short"})
	assert.Equal(t, "AAAA...ZZZZ", s.BearerToken)
	assert.Equal(t, "********", s.ConsumerKey)
	assert.Equal(t, "", s.AccessToken)
	assert.Equal(t, "default", s.Profile)
	assert.Nil(t, Sanitize(nil))
}

func TestShowTokenGuide(t *testing.T) {
	var buf bytes.Buffer
	ShowTokenGuide(&buf)
	assert.Contains(t, buf.String(), "BEARER_TOKEN=")
	assert.Contains(t, buf.String(), "spoilerscraper auth login")
}
