package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/courseloop/campus-auth/internal/auth/domain"
	"github.com/courseloop/campus-auth/internal/auth/service"
	"github.com/courseloop/campus-auth/internal/auth/store/drivers/sqlite"
	"github.com/courseloop/campus-auth/pkg/cryptox"
	"github.com/courseloop/campus-auth/pkg/httpx"
	"github.com/courseloop/campus-auth/pkg/jwtx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPassword = "correct horse battery staple"

type captureChannel struct {
	mu   sync.Mutex
	sent []string
}

func (c *captureChannel) Send(_ context.Context, _ string, _ domain.PasscodePurpose, code string, _ time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, code)
	return nil
}

func (c *captureChannel) last(t *testing.T) string {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	require.NotEmpty(t, c.sent)
	return c.sent[len(c.sent)-1]
}

type testServer struct {
	*httptest.Server

	channel *captureChannel
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	hash, err := cryptox.HashPassword(testPassword)
	require.NoError(t, err)
	_, err = st.Users().Create(context.Background(), domain.User{
		Username:     "alice",
		Email:        "alice@example.com",
		FirstName:    "Alice",
		LastName:     "Nguyen",
		PasswordHash: hash,
		Role:         domain.RoleStudent,
		Active:       true,
	})
	require.NoError(t, err)

	signer, err := jwtx.NewHS256([]byte("0123456789abcdef0123456789abcdef"), "campus-auth-test")
	require.NoError(t, err)

	channel := &captureChannel{}
	auth := &service.AuthService{
		Store:               st,
		OTP:                 &service.OTPService{Store: st, Channel: channel},
		Tokens:              &service.TokenService{Signer: signer, Verifier: signer, Issuer: "campus-auth-test"},
		RequireSecondFactor: true,
	}

	// Generous buckets so the tests themselves never trip the limiter.
	loose := httpx.RateLimitConfig{RequestsPerWindow: 1000, Window: time.Minute, Burst: 1000}
	cfg := RouterConfig{CredentialLimit: loose, SessionLimit: loose, HealthLimit: loose}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := httptest.NewServer(NewRouter(auth, st, logger, cfg))
	t.Cleanup(srv.Close)

	return &testServer{Server: srv, channel: channel}
}

func (s *testServer) postJSON(t *testing.T, path string, body any) *http.Response {
	t.Helper()

	buf, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := http.Post(s.URL+path, "application/json", bytes.NewReader(buf))
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()

	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func (s *testServer) login(t *testing.T) domain.Session {
	t.Helper()

	resp := s.postJSON(t, "/v1/auth/login", map[string]string{
		"username": "alice", "password": testPassword,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = s.postJSON(t, "/v1/auth/2fa/verify", map[string]string{
		"username": "alice", "code": s.channel.last(t),
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return decode[domain.Session](t, resp)
}

func TestLoginChallengeFlow(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	resp := s.postJSON(t, "/v1/auth/login", map[string]string{
		"username": "alice", "password": testPassword,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	body := decode[map[string]string](t, resp)
	assert.Equal(t, "2FA_REQUIRED", body["challenge"])
	assert.Equal(t, "alice", body["subject"])
}

func TestLoginBadCredentials(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	resp := s.postJSON(t, "/v1/auth/login", map[string]string{
		"username": "alice", "password": "wrong",
	})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	body := decode[map[string]string](t, resp)
	assert.Equal(t, "invalid_credentials", body["error"])
}

func TestLoginMalformedBody(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	resp, err := http.Post(s.URL+"/v1/auth/login", "application/json", bytes.NewReader([]byte("{not json")))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestVerifyThenMe(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	session := s.login(t)
	require.NotEmpty(t, session.Token)

	req, err := http.NewRequest(http.MethodGet, s.URL+"/v1/me", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+session.Token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	profile := decode[domain.Profile](t, resp)
	assert.Equal(t, "alice", profile.Username)
	assert.Equal(t, "alice@example.com", profile.Email)
}

func TestMeWithoutToken(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	resp, err := http.Get(s.URL + "/v1/me")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestMeWithGarbageToken(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	req, err := http.NewRequest(http.MethodGet, s.URL+"/v1/me", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer not.a.token")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestResendInvalidatesPreviousCode(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	resp := s.postJSON(t, "/v1/auth/login", map[string]string{
		"username": "alice", "password": testPassword,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	first := s.channel.last(t)

	resp = s.postJSON(t, "/v1/auth/2fa/resend", map[string]string{"username": "alice"})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	resp.Body.Close()

	resp = s.postJSON(t, "/v1/auth/2fa/verify", map[string]string{
		"username": "alice", "code": first,
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestPasswordResetEndpoints(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	resp := s.postJSON(t, "/v1/auth/password/forgot", map[string]string{"email": "alice@example.com"})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	resp.Body.Close()
	code := s.channel.last(t)

	resp = s.postJSON(t, "/v1/auth/password/reset", map[string]string{
		"email": "alice@example.com", "code": code, "new_password": "a fresh passphrase",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// New password works end to end.
	resp = s.postJSON(t, "/v1/auth/login", map[string]string{
		"username": "alice", "password": "a fresh passphrase",
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestForgotUnknownEmailStill202(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	resp := s.postJSON(t, "/v1/auth/password/forgot", map[string]string{"email": "ghost@example.com"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
}

func TestHealthEndpoints(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	for _, path := range []string{"/livez", "/readyz"} {
		resp, err := http.Get(s.URL + path)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		resp.Body.Close()
	}
}

func TestCredentialEndpointsRateLimited(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	// Rebuild the handler with a tiny bucket to exercise 429s without
	// hammering the loose default server.
	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	signer, err := jwtx.NewHS256([]byte("0123456789abcdef0123456789abcdef"), "campus-auth-test")
	require.NoError(t, err)
	auth := &service.AuthService{
		Store:  st,
		OTP:    &service.OTPService{Store: st, Channel: s.channel},
		Tokens: &service.TokenService{Signer: signer, Verifier: signer, Issuer: "campus-auth-test"},
	}

	tiny := httpx.RateLimitConfig{RequestsPerWindow: 2, Window: time.Minute, Burst: 2}
	cfg := RouterConfig{CredentialLimit: tiny, SessionLimit: tiny, HealthLimit: tiny}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := httptest.NewServer(NewRouter(auth, st, logger, cfg))
	t.Cleanup(srv.Close)

	var last *http.Response
	for range 3 {
		body := bytes.NewReader([]byte(`{"username":"x","password":"y"}`))
		last, err = http.Post(srv.URL+"/v1/auth/login", "application/json", body)
		require.NoError(t, err)
		last.Body.Close()
	}
	assert.Equal(t, http.StatusTooManyRequests, last.StatusCode)
	assert.NotEmpty(t, last.Header.Get("Retry-After"))
}
