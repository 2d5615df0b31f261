// Package login implements the failed-attempt lockout state machine shared
// by user and customer authentication.
package login

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/putrawicaksono/minibank/internal/auth"
)

var (
	// ErrInvalidCredentials indicates the supplied secret did not match.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrLocked indicates the identity has exceeded the failed-attempt
	// threshold and must wait out the lockout window; even a correct
	// secret is rejected while locked.
	ErrLocked = errors.New("too many failed attempts")
)

// Identity is the throttle's view of an authenticatable party: a stable id,
// the hash of its login secret, and the persisted lockout snapshot.
type Identity struct {
	ID          string
	SecretHash  string
	Attempts    int
	LastAttempt *time.Time
}

// IdentityStore resolves identities and persists their lockout state. Two
// implementations exist: one over users (email/password) and one over
// customer accounts (account number/access code).
type IdentityStore interface {
	FindIdentity(ctx context.Context, id string) (Identity, error)
	SaveLoginState(ctx context.Context, id string, attempts int, lastAttempt *time.Time) error
}

// TokenIssuer mints a session token for a successfully authenticated
// identity.
type TokenIssuer interface {
	Issue(subject string) (string, error)
}

// Throttle evaluates login attempts against a per-identity lockout state
// machine. The failed attempt that brings the count to maxAttempts already
// locks, and the window defaults to 3 minutes.
type Throttle struct {
	ids    IdentityStore
	hasher auth.CredentialHasher
	tokens TokenIssuer
	log    *logrus.Logger

	maxAttempts int
	window      time.Duration
	now         func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewThrottle wires a Throttle. maxAttempts and window fall back to 5 and
// 3 minutes when non-positive.
func NewThrottle(ids IdentityStore, hasher auth.CredentialHasher, tokens TokenIssuer, log *logrus.Logger, maxAttempts int, window time.Duration) *Throttle {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	if window <= 0 {
		window = 3 * time.Minute
	}
	return &Throttle{
		ids:         ids,
		hasher:      hasher,
		tokens:      tokens,
		log:         log,
		maxAttempts: maxAttempts,
		window:      window,
		now:         time.Now,
		locks:       make(map[string]*sync.Mutex),
	}
}

// WithClock overrides the time source for tests.
func (t *Throttle) WithClock(now func() time.Time) *Throttle {
	t.now = now
	return t
}

// Authenticate evaluates one login attempt and returns a session token on
// success. Concurrent attempts on the same identity serialize on a
// per-identity mutex so the attempt counter never loses an increment.
func (t *Throttle) Authenticate(ctx context.Context, id, secret string) (string, error) {
	lock := t.identityLock(id)
	lock.Lock()
	defer lock.Unlock()

	ident, err := t.ids.FindIdentity(ctx, id)
	if err != nil {
		return "", fmt.Errorf("identity %s: %w", id, err)
	}

	now := t.now()
	attempts := ident.Attempts
	lastAttempt := ident.LastAttempt

	// A fully elapsed window clears the count before anything else is
	// evaluated.
	if lastAttempt != nil && now.Sub(*lastAttempt) >= t.window {
		attempts = 0
		lastAttempt = nil
	}

	if attempts >= t.maxAttempts {
		return "", ErrLocked
	}

	if err := t.hasher.Verify(ident.SecretHash, secret); err != nil {
		attempts++
		if err := t.ids.SaveLoginState(ctx, id, attempts, &now); err != nil {
			return "", fmt.Errorf("save login state for %s: %w", id, err)
		}
		t.log.WithFields(logrus.Fields{
			"identity": id,
			"attempts": attempts,
		}).Warn("failed login attempt")
		if attempts >= t.maxAttempts {
			return "", ErrLocked
		}
		return "", ErrInvalidCredentials
	}

	if err := t.ids.SaveLoginState(ctx, id, 0, nil); err != nil {
		return "", fmt.Errorf("save login state for %s: %w", id, err)
	}
	token, err := t.tokens.Issue(ident.ID)
	if err != nil {
		return "", fmt.Errorf("issue token for %s: %w", id, err)
	}
	t.log.WithField("identity", id).Info("login succeeded")
	return token, nil
}

func (t *Throttle) identityLock(id string) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()
	lock, ok := t.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		t.locks[id] = lock
	}
	return lock
}
