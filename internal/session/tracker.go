// Package session tracks authenticated connections and their liveness.  A
// session starts at login, is kept alive by heartbeats (implicit on every
// authenticated request, explicit via the heartbeat endpoint) and ends on
// logout or after the configured idle window.  Ending is terminal: a stale
// or logged-out session cannot be heartbeat back to life, no matter how
// fresh the bearer token that references it still is.
package session

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/stall-rental/internal/model"
)

// sweepTimeout bounds each background sweep pass against the store.
const sweepTimeout = 5 * time.Second

// ErrSessionNotFound reports a session id the store has never seen.
var ErrSessionNotFound = errors.New("session not found")

// ErrSessionExpired reports a session that has ended, whether by logout or
// by idling past the staleness threshold.
var ErrSessionExpired = errors.New("session expired")

// Store is the persistence contract the tracker runs on.  The production
// implementation is repository.SessionRepo over MySQL; tests inject an
// in-memory fake.  Keeping the policy out of the store means both
// implementations expire sessions by exactly the same rules.
type Store interface {
	Create(ctx context.Context, s model.Session) error
	Get(ctx context.Context, id string) (model.Session, error)
	Touch(ctx context.Context, id string, at time.Time) error
	End(ctx context.Context, id string, at time.Time) error
	ExpireStale(ctx context.Context, cutoff time.Time) (int64, error)
}

// Tracker owns the session store and the staleness policy.  It is injected
// into the auth handlers and the JWT middleware rather than living as a
// package-level singleton.
type Tracker struct {
	store Store
	stale time.Duration
	now   func() time.Time // injectable clock for tests
}

// NewTracker builds a tracker over the given store.  stale is the idle
// window after which a session is considered dead; it must match the value
// the background sweeper uses, which is guaranteed here because the sweeper
// is a method on the same tracker.
func NewTracker(store Store, stale time.Duration) *Tracker {
	return &Tracker{store: store, stale: stale, now: func() time.Time { return time.Now().UTC() }}
}

// Start opens a new session for a credential and returns its id.  Multiple
// concurrent sessions per credential are allowed; each login gets its own
// row and its own heartbeat.
func (t *Tracker) Start(ctx context.Context, userID uint64, role model.Role) (string, error) {
	now := t.now()
	s := model.Session{
		ID:           uuid.NewString(),
		UserID:       userID,
		Role:         role,
		LoginTime:    now,
		LastActivity: now,
		Active:       true,
	}
	if err := t.store.Create(ctx, s); err != nil {
		return "", err
	}
	return s.ID, nil
}

// Heartbeat marks a session as still in use.  The staleness check runs
// lazily here: a session found idle past the threshold is closed on the
// spot and reported as expired, so a long-dormant client is cut off on its
// very next request even if the sweeper has not come around yet.
func (t *Tracker) Heartbeat(ctx context.Context, id string) error {
	s, err := t.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrSessionNotFound
		}
		return err
	}
	if !s.Active {
		return ErrSessionExpired
	}
	now := t.now()
	if now.Sub(s.LastActivity) > t.stale {
		// Close it now rather than touching it; the heartbeat that finds a
		// corpse must not resurrect it.
		if err := t.store.End(ctx, id, now); err != nil {
			return err
		}
		return ErrSessionExpired
	}
	return t.store.Touch(ctx, id, now)
}

// End closes a session.  Idempotent: ending an unknown or already-ended
// session is a successful no-op, matching the always-200 logout contract.
func (t *Tracker) End(ctx context.Context, id string) error {
	err := t.store.End(ctx, id, t.now())
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	return err
}

// IsActive reports whether a session exists, has not been ended and is not
// idle past the threshold.  Used by the refresh flow: a refresh token whose
// session has died must not mint new access tokens.
func (t *Tracker) IsActive(ctx context.Context, id string) (bool, error) {
	s, err := t.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	if !s.Active {
		return false, nil
	}
	return t.now().Sub(s.LastActivity) <= t.stale, nil
}

// ExpireStale closes every session idle past the threshold and returns the
// count.  Same cutoff as the lazy check in Heartbeat.
func (t *Tracker) ExpireStale(ctx context.Context) (int64, error) {
	return t.store.ExpireStale(ctx, t.now().Add(-t.stale))
}

// RunSweeper periodically expires stale sessions until ctx is cancelled.
// The lazy check already protects correctness; the sweep exists so sessions
// of clients that simply vanished still get their logout_time written.
func (t *Tracker) RunSweeper(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Each tick gets its own deadline so a stalled store surfaces
			// as a logged error on this pass instead of wedging the loop.
			tickCtx, cancel := context.WithTimeout(ctx, sweepTimeout)
			n, err := t.ExpireStale(tickCtx)
			cancel()
			if err != nil {
				log.Printf("session-sweeper: expire stale failed: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("session-sweeper: closed %d stale session(s)", n)
			}
		}
	}
}
