package middleware

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/stall-rental/internal/model"
	"github.com/iliyamo/stall-rental/internal/session"
	"github.com/iliyamo/stall-rental/internal/utils"
)

const mwSecret = "middleware-test-secret"

// memStore is a minimal in-memory session.Store for middleware tests.
type memStore struct {
	mu       sync.Mutex
	sessions map[string]model.Session
}

func newMemStore() *memStore { return &memStore{sessions: make(map[string]model.Session)} }

func (m *memStore) Create(_ context.Context, s model.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	return nil
}

func (m *memStore) Get(_ context.Context, id string) (model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return model.Session{}, sql.ErrNoRows
	}
	return s, nil
}

func (m *memStore) Touch(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok || !s.Active {
		return sql.ErrNoRows
	}
	s.LastActivity = at
	m.sessions[id] = s
	return nil
}

func (m *memStore) End(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok || !s.Active {
		return sql.ErrNoRows
	}
	s.Active = false
	s.LogoutTime = &at
	m.sessions[id] = s
	return nil
}

func (m *memStore) ExpireStale(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, s := range m.sessions {
		if s.Active && s.LastActivity.Before(cutoff) {
			s.Active = false
			m.sessions[id] = s
			n++
		}
	}
	return n, nil
}

func okNext(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

func runJWT(t *testing.T, tracker *session.Tracker, authHeader string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	require.NoError(t, JWTAuth(mwSecret, tracker)(okNext)(c))
	return rec
}

func TestJWTAuthMissingBearer(t *testing.T) {
	tracker := session.NewTracker(newMemStore(), 15*time.Minute)
	rec := runJWT(t, tracker, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"success":false,"message":"Missing bearer token"}`, rec.Body.String())
}

func TestJWTAuthInvalidToken(t *testing.T) {
	tracker := session.NewTracker(newMemStore(), 15*time.Minute)
	rec := runJWT(t, tracker, "Bearer not-a-token")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"success":false,"message":"Invalid token"}`, rec.Body.String())
}

func TestJWTAuthExpiredToken(t *testing.T) {
	tracker := session.NewTracker(newMemStore(), 15*time.Minute)
	at, err := utils.NewAccessToken(mwSecret, 7, model.RoleApplicant, "sess-1", -1)
	require.NoError(t, err)

	rec := runJWT(t, tracker, "Bearer "+at.Token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"success":false,"message":"Token expired"}`, rec.Body.String())
}

func TestJWTAuthLiveSessionPasses(t *testing.T) {
	store := newMemStore()
	tracker := session.NewTracker(store, 15*time.Minute)
	ctx := context.Background()

	sid, err := tracker.Start(ctx, 7, model.RoleApplicant)
	require.NoError(t, err)
	at, err := utils.NewAccessToken(mwSecret, 7, model.RoleApplicant, sid, 15)
	require.NoError(t, err)

	before, err := store.Get(ctx, sid)
	require.NoError(t, err)

	rec := runJWT(t, tracker, "Bearer "+at.Token)
	assert.Equal(t, http.StatusOK, rec.Code)

	// The request itself counted as a heartbeat.
	after, err := store.Get(ctx, sid)
	require.NoError(t, err)
	assert.False(t, after.LastActivity.Before(before.LastActivity))
}

func TestJWTAuthEndedSessionRejected(t *testing.T) {
	store := newMemStore()
	tracker := session.NewTracker(store, 15*time.Minute)
	ctx := context.Background()

	sid, err := tracker.Start(ctx, 7, model.RoleApplicant)
	require.NoError(t, err)
	require.NoError(t, tracker.End(ctx, sid))

	// The token is perfectly valid; the session behind it is not.
	at, err := utils.NewAccessToken(mwSecret, 7, model.RoleApplicant, sid, 15)
	require.NoError(t, err)

	rec := runJWT(t, tracker, "Bearer "+at.Token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"success":false,"message":"Session expired"}`, rec.Body.String())
}

func TestJWTAuthUnknownSessionRejected(t *testing.T) {
	tracker := session.NewTracker(newMemStore(), 15*time.Minute)
	at, err := utils.NewAccessToken(mwSecret, 7, model.RoleApplicant, "never-created", 15)
	require.NoError(t, err)

	rec := runJWT(t, tracker, "Bearer "+at.Token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"success":false,"message":"Session expired"}`, rec.Body.String())
}

// stuckStore never answers Get until the caller's context gives up.  It
// stands in for a credential store that has stopped responding.
type stuckStore struct{}

func (stuckStore) Create(context.Context, model.Session) error { return nil }
func (stuckStore) Get(ctx context.Context, _ string) (model.Session, error) {
	<-ctx.Done()
	return model.Session{}, ctx.Err()
}
func (stuckStore) Touch(context.Context, string, time.Time) error           { return nil }
func (stuckStore) End(context.Context, string, time.Time) error             { return nil }
func (stuckStore) ExpireStale(context.Context, time.Time) (int64, error)    { return 0, nil }

func TestJWTAuthUnresponsiveStoreFailsBounded(t *testing.T) {
	tracker := session.NewTracker(stuckStore{}, 15*time.Minute)
	at, err := utils.NewAccessToken(mwSecret, 7, model.RoleApplicant, "sess-stuck", 15)
	require.NoError(t, err)

	start := time.Now()
	rec := runJWT(t, tracker, "Bearer "+at.Token)
	elapsed := time.Since(start)

	// The heartbeat's own deadline fires; the request must come back as a
	// 503 instead of parking on the store forever.
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"success":false,"message":"Service unavailable"}`, rec.Body.String())
	assert.Less(t, elapsed, heartbeatTimeout+3*time.Second)
}

func TestJWTAuthInjectsClaims(t *testing.T) {
	store := newMemStore()
	tracker := session.NewTracker(store, 15*time.Minute)
	ctx := context.Background()

	sid, err := tracker.Start(ctx, 42, model.RoleBranchManager)
	require.NoError(t, err)
	at, err := utils.NewAccessToken(mwSecret, 42, model.RoleBranchManager, sid, 15)
	require.NoError(t, err)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	req.Header.Set("Authorization", "Bearer "+at.Token)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var gotUser uint64
	var gotRole model.Role
	var gotSession string
	next := func(c echo.Context) error {
		gotUser, _ = c.Get("user_id").(uint64)
		gotRole, _ = c.Get("role").(model.Role)
		gotSession, _ = c.Get("session_id").(string)
		return c.NoContent(http.StatusOK)
	}
	require.NoError(t, JWTAuth(mwSecret, tracker)(next)(c))

	assert.Equal(t, uint64(42), gotUser)
	assert.Equal(t, model.RoleBranchManager, gotRole)
	assert.Equal(t, sid, gotSession)
}
