package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/crypto/bcrypt"

	"github.com/elskow/airdrop-journal/internal/airdrop"
	"github.com/elskow/airdrop-journal/internal/api"
	"github.com/elskow/airdrop-journal/internal/auth"
	"github.com/elskow/airdrop-journal/internal/config"
	"github.com/elskow/airdrop-journal/internal/database/dbtest"
	"github.com/elskow/airdrop-journal/internal/notify"
	"github.com/elskow/airdrop-journal/internal/password"
	"github.com/elskow/airdrop-journal/internal/ratelimit"
	"github.com/elskow/airdrop-journal/internal/stats"
	"github.com/elskow/airdrop-journal/internal/tag"
	"github.com/elskow/airdrop-journal/internal/task"
	"github.com/elskow/airdrop-journal/internal/token"
)

type pingStub struct{ err error }

func (p pingStub) Ping(context.Context) error { return p.err }

type mailbox struct {
	mu     sync.Mutex
	tokens map[string]string
}

func (m *mailbox) SendEmailVerification(_ context.Context, to notify.Recipient, tok string, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[to.Email] = tok
	return nil
}

func (m *mailbox) SendPasswordReset(context.Context, notify.Recipient, string, time.Time) error {
	return nil
}

func (m *mailbox) token(email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokens[email]
}

func testConfig() *config.AppConfig {
	return &config.AppConfig{
		Env: EnvTesting,
		Server: config.ServerConfig{
			Host:            "127.0.0.1",
			Port:            "0",
			ShutdownTimeout: time.Second,
		},
		Auth: config.AuthConfig{
			JWTSecret:       "server-test-secret",
			TokenExpiration: 7 * 24 * time.Hour,
			Issuer:          "airdrop-journal-test",
			BcryptCost:      bcrypt.MinCost,
			CookieName:      "jwt",
			Lockout:         config.LockoutConfig{Threshold: 5, Duration: 2 * time.Hour},
			Tokens: config.TokensConfig{
				PasswordResetTTL:     10 * time.Minute,
				EmailVerificationTTL: 24 * time.Hour,
			},
		},
		RateLimit: config.RateLimitConfig{Enabled: true, Store: "memory"},
		Mail:      config.MailConfig{Driver: "log"},
	}
}

func newTestServer(t *testing.T, db Pinger, log *zap.Logger) (*Server, *mailbox) {
	t.Helper()

	cfg := testConfig()
	gdb := dbtest.Open(t, &auth.User{}, &tag.Tag{}, &airdrop.Airdrop{}, &task.Task{})
	mail := &mailbox{tokens: map[string]string{}}

	issuer, err := token.NewIssuer(token.Config{
		Secret: cfg.Auth.JWTSecret,
		TTL:    cfg.Auth.TokenExpiration,
		Issuer: cfg.Auth.Issuer,
	})
	require.NoError(t, err)
	authSvc, err := auth.NewService(&cfg.Auth, log, auth.NewRepository(gdb, time.Second),
		password.NewHasher(cfg.Auth.BcryptCost), issuer, mail)
	require.NoError(t, err)

	tags := tag.NewService(tag.NewRepository(gdb, time.Second), log)
	airdrops := airdrop.NewService(airdrop.NewRepository(gdb, time.Second), tags, log)
	tasks := task.NewService(task.NewRepository(gdb, time.Second), airdrops, log)

	limiter := ratelimit.NewLimiter(ratelimit.NewMemoryStore(nil), nil)

	srv, err := newServer(Params{
		Config:         cfg,
		Logger:         log,
		AuthHandler:    auth.NewHandler(authSvc, &cfg.Auth, log),
		AuthMiddleware: auth.NewMiddleware(&cfg.Auth, authSvc, log),
		RateLimit:      ratelimit.NewMiddleware(limiter, true, log),
		Airdrops:       airdrop.NewHandler(airdrops, log),
		Tasks:          task.NewHandler(tasks, log),
		Tags:           tag.NewHandler(tags, log),
		Stats:          stats.NewHandler(stats.NewService(airdrops, tasks), log),
	}, db)
	require.NoError(t, err)
	return srv, mail
}

func call(t *testing.T, h http.Handler, method, path, bearer string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func signupBody(email string) gin.H {
	return gin.H{
		"firstName":       "Ada",
		"lastName":        "Lovelace",
		"email":           email,
		"password":        "Abcdef1!",
		"confirmPassword": "Abcdef1!",
	}
}

func TestServer_JournalFlow(t *testing.T) {
	srv, mail := newTestServer(t, pingStub{}, zap.NewNop())
	h := srv.Handler()

	w := call(t, h, http.MethodPost, api.Signup.Path, "", signupBody("ada@example.com"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var session struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &session))
	require.NotEmpty(t, session.Token)

	w = call(t, h, http.MethodPost, api.CreateAirdrop.Path, session.Token, gin.H{"name": "LayerZero", "status": "active"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		Data airdrop.Airdrop `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = call(t, h, http.MethodPost, api.CreateTask.Path, session.Token, gin.H{"title": "Bridge", "airdropId": created.Data.ID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = call(t, h, http.MethodGet, api.ListAirdrops.Path, "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = call(t, h, http.MethodGet, api.Stats.Path, session.Token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	tok := mail.token("ada@example.com")
	require.NotEmpty(t, tok)
	w = call(t, h, http.MethodPost, "/api/v1/users/verify-email/"+tok, "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = call(t, h, http.MethodGet, api.Stats.Path, session.Token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var summary struct {
		Data stats.Summary `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.EqualValues(t, 1, summary.Data.Airdrops.Total)
	assert.EqualValues(t, 1, summary.Data.Tasks.Pending)

	w = call(t, h, http.MethodGet, api.ListUsers.Path, session.Token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestServer_SignupIsRateLimited(t *testing.T) {
	srv, _ := newTestServer(t, pingStub{}, zap.NewNop())
	h := srv.Handler()

	for i, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		w := call(t, h, http.MethodPost, api.Signup.Path, "", signupBody(email))
		require.Equal(t, http.StatusCreated, w.Code, "signup %d", i)
	}

	w := call(t, h, http.MethodPost, api.Signup.Path, "", signupBody("d@example.com"))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	// Other classes keep their own budget.
	w = call(t, h, http.MethodPost, api.Login.Path, "", gin.H{"email": "a@example.com", "password": "Abcdef1!"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestServer_Health(t *testing.T) {
	srv, _ := newTestServer(t, pingStub{}, zap.NewNop())
	w := call(t, srv.Handler(), http.MethodGet, api.Health.Path, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	down, _ := newTestServer(t, pingStub{err: errors.New("connection refused")}, zap.NewNop())
	w = call(t, down.Handler(), http.MethodGet, api.Health.Path, "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestServer_RequestLogging(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	srv, _ := newTestServer(t, pingStub{}, zap.New(core))
	h := srv.Handler()

	req := httptest.NewRequest(http.MethodGet, api.Health.Path, nil)
	req.Header.Set(requestIDHeader, "req-123")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, "req-123", w.Header().Get(requestIDHeader))
	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "req-123", fields["request_id"])
	assert.Equal(t, api.Health.Path, fields["path"])
	assert.EqualValues(t, http.StatusOK, fields["status"])

	w = call(t, h, http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))
}

func TestServer_RecoversFromPanics(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	srv, _ := newTestServer(t, pingStub{}, zap.New(core))
	srv.engine.GET("/panic", func(*gin.Context) { panic("boom") })

	w := call(t, srv.Handler(), http.MethodGet, "/panic", "", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, 1, logs.FilterMessage("panic recovered").Len())
}

func TestServer_StartStop(t *testing.T) {
	srv, _ := newTestServer(t, pingStub{}, zap.NewNop())

	require.NoError(t, srv.Start())
	assert.NoError(t, srv.Stop(context.Background()))
}
