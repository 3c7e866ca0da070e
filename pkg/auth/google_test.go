package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	toolerrors "github.com/theapemachine/toolbench/pkg/errors"
)

const testClientSecret = `{
  "installed": {
    "client_id": "test-client-id.apps.googleusercontent.com",
    "client_secret": "test-secret",
    "auth_uri": "https://accounts.google.com/o/oauth2/auth",
    "token_uri": "https://oauth2.googleapis.com/token",
    "redirect_uris": ["http://localhost"]
  }
}`

func newTestAuthenticator(t *testing.T) (*Authenticator, string) {
	t.Helper()

	dir := t.TempDir()
	credentialsPath := filepath.Join(dir, "credentials.json")
	tokenPath := filepath.Join(dir, "token.json")

	require.NoError(t, os.WriteFile(credentialsPath, []byte(testClientSecret), 0600))

	a, err := NewAuthenticator(credentialsPath, tokenPath, GmailScopes...)
	require.NoError(t, err)

	return a, tokenPath
}

func writeToken(t *testing.T, path string, tok *oauth2.Token) {
	t.Helper()

	raw, err := json.Marshal(tok)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw, 0600))
}

func TestNewAuthenticatorMissingCredentials(t *testing.T) {
	_, err := NewAuthenticator("/nonexistent/credentials.json", "/tmp/token.json", GmailScopes...)
	require.Error(t, err)
	assert.ErrorIs(t, err, toolerrors.ErrMissingCredentials)
}

func TestStatusNoToken(t *testing.T) {
	a, _ := newTestAuthenticator(t)

	st := a.Status()
	assert.False(t, st.Authenticated)
	assert.Contains(t, st.Message, "no stored token")
}

func TestStatusValidToken(t *testing.T) {
	a, tokenPath := newTestAuthenticator(t)

	writeToken(t, tokenPath, &oauth2.Token{
		AccessToken:  "access",
		RefreshToken: "refresh",
		Expiry:       time.Now().Add(time.Hour),
	})

	st := a.Status()
	assert.True(t, st.Authenticated)
	assert.False(t, st.Expired)
	assert.True(t, st.HasRefreshToken)
	assert.Equal(t, "token valid", st.Message)
}

func TestStatusExpiredWithRefresh(t *testing.T) {
	a, tokenPath := newTestAuthenticator(t)

	writeToken(t, tokenPath, &oauth2.Token{
		AccessToken:  "access",
		RefreshToken: "refresh",
		Expiry:       time.Now().Add(-time.Hour),
	})

	st := a.Status()
	assert.False(t, st.Authenticated)
	assert.True(t, st.Expired)
	assert.Contains(t, st.Message, "will refresh")
}

func TestTokenExpiredWithoutRefresh(t *testing.T) {
	a, tokenPath := newTestAuthenticator(t)

	writeToken(t, tokenPath, &oauth2.Token{
		AccessToken: "access",
		Expiry:      time.Now().Add(-time.Hour),
	})

	_, err := a.Token(context.Background())
	assert.ErrorIs(t, err, toolerrors.ErrTokenExpired)
}

// rotatingSource hands out a fresh access token on every call, forcing the
// saving source down its persist path each time.
type rotatingSource struct {
	mu sync.Mutex
	n  int
}

func (r *rotatingSource) Token() (*oauth2.Token, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.n++
	return &oauth2.Token{
		AccessToken: fmt.Sprintf("access-%d", r.n),
		Expiry:      time.Now().Add(time.Hour),
	}, nil
}

func TestSavingTokenSourceConcurrentRotation(t *testing.T) {
	a, tokenPath := newTestAuthenticator(t)

	src := &savingTokenSource{auth: a, src: &rotatingSource{}}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				tok, err := src.Token()
				assert.NoError(t, err)
				assert.NotEmpty(t, tok.AccessToken)
			}
		}()
	}
	wg.Wait()

	// The persisted file must be a complete token, not interleaved writes.
	raw, err := os.ReadFile(tokenPath)
	require.NoError(t, err)

	tok := &oauth2.Token{}
	require.NoError(t, json.Unmarshal(raw, tok))
	assert.Contains(t, tok.AccessToken, "access-")
}

func TestAuthURLCarriesStateAndOfflineAccess(t *testing.T) {
	a, _ := newTestAuthenticator(t)

	url := a.AuthURL("state-123")
	assert.Contains(t, url, "state=state-123")
	assert.Contains(t, url, "access_type=offline")
	assert.Contains(t, url, "prompt=consent")
}
