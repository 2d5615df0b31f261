package login_test

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/putrawicaksono/minibank/internal/auth"
	"github.com/putrawicaksono/minibank/internal/login"
	"github.com/putrawicaksono/minibank/internal/models"
	"github.com/putrawicaksono/minibank/internal/storage"
	"github.com/putrawicaksono/minibank/internal/storage/memory"
)

const (
	maxAttempts = 5
	window      = 3 * time.Minute
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// fakeClock is a settable time source shared with the throttle under test.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	store    *memory.Store
	throttle *login.Throttle
	clock    *fakeClock
}

// newFixture seeds one customer account and wires a throttle over it; the
// access code is "rahasia-1", the identity id is the account number.
func newFixture(t *testing.T) fixture {
	t.Helper()
	hasher := auth.NewBcryptHasher(bcrypt.MinCost)
	secretHash, err := hasher.Hash("rahasia-1")
	require.NoError(t, err)

	store := memory.New()
	_, err = store.CreateAccount(context.Background(), models.Account{
		AccountNumber:  "1111111111",
		Name:           "Budi",
		AccessCodeHash: secretHash,
	})
	require.NoError(t, err)

	clock := newFakeClock()
	tokens := auth.NewTokenManager("test-secret", "minibank-test", time.Hour)
	throttle := login.NewThrottle(login.CustomerIdentities(store), hasher, tokens, testLogger(), maxAttempts, window).
		WithClock(clock.Now)
	return fixture{store: store, throttle: throttle, clock: clock}
}

func TestAuthenticateSuccess(t *testing.T) {
	f := newFixture(t)

	token, err := f.throttle.Authenticate(context.Background(), "1111111111", "rahasia-1")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
}

func TestAuthenticateUnknownIdentity(t *testing.T) {
	f := newFixture(t)

	_, err := f.throttle.Authenticate(context.Background(), "9999999999", "whatever")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestLockoutSequence(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Attempts 1-4 report bad credentials; the 5th reaches the threshold
	// and locks immediately.
	for i := 1; i <= 4; i++ {
		_, err := f.throttle.Authenticate(ctx, "1111111111", "salah")
		assert.ErrorIs(t, err, login.ErrInvalidCredentials, "attempt %d", i)
		f.clock.Advance(time.Second)
	}
	_, err := f.throttle.Authenticate(ctx, "1111111111", "salah")
	assert.ErrorIs(t, err, login.ErrLocked, "attempt 5")

	// Locked means locked: the correct secret is rejected too.
	_, err = f.throttle.Authenticate(ctx, "1111111111", "rahasia-1")
	assert.ErrorIs(t, err, login.ErrLocked)

	// Once the window elapses the correct secret works and the counter
	// resets.
	f.clock.Advance(window)
	token, err := f.throttle.Authenticate(ctx, "1111111111", "rahasia-1")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	account, err := f.store.GetAccount(ctx, "1111111111")
	require.NoError(t, err)
	assert.Equal(t, 0, account.Attempts)
	assert.Nil(t, account.LastAttempt)
}

func TestWindowExpiryResetsFailedCount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := f.throttle.Authenticate(ctx, "1111111111", "salah")
		assert.ErrorIs(t, err, login.ErrInvalidCredentials)
	}
	f.clock.Advance(window)

	// The stale failures no longer count; this is failure #1 again.
	_, err := f.throttle.Authenticate(ctx, "1111111111", "salah")
	assert.ErrorIs(t, err, login.ErrInvalidCredentials)

	account, err := f.store.GetAccount(ctx, "1111111111")
	require.NoError(t, err)
	assert.Equal(t, 1, account.Attempts)
}

func TestSuccessResetsAttempts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := f.throttle.Authenticate(ctx, "1111111111", "salah")
		assert.ErrorIs(t, err, login.ErrInvalidCredentials)
	}
	_, err := f.throttle.Authenticate(ctx, "1111111111", "rahasia-1")
	require.NoError(t, err)

	account, err := f.store.GetAccount(ctx, "1111111111")
	require.NoError(t, err)
	assert.Equal(t, 0, account.Attempts)
	assert.Nil(t, account.LastAttempt)
}

func TestConcurrentFailedAttemptsAllCounted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// maxAttempts-1 simultaneous failures must each land an increment; two
	// racers both writing attempts=1 would undercount.
	var wg sync.WaitGroup
	for i := 0; i < maxAttempts-1; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.throttle.Authenticate(ctx, "1111111111", "salah")
			assert.Error(t, err)
		}()
	}
	wg.Wait()

	account, err := f.store.GetAccount(ctx, "1111111111")
	require.NoError(t, err)
	assert.Equal(t, maxAttempts-1, account.Attempts)

	// One more failure locks.
	_, err = f.throttle.Authenticate(ctx, "1111111111", "salah")
	assert.ErrorIs(t, err, login.ErrLocked)
}

func TestUserIdentities(t *testing.T) {
	hasher := auth.NewBcryptHasher(bcrypt.MinCost)
	passwordHash, err := hasher.Hash("kata-sandi-1")
	require.NoError(t, err)

	store := memory.New()
	_, err = store.CreateUser(context.Background(), models.User{
		Name:         "Admin",
		Email:        "admin@example.com",
		PasswordHash: passwordHash,
	})
	require.NoError(t, err)

	tokens := auth.NewTokenManager("test-secret", "minibank-test", time.Hour)
	throttle := login.NewThrottle(login.UserIdentities(store), hasher, tokens, testLogger(), maxAttempts, window)

	_, err = throttle.Authenticate(context.Background(), "admin@example.com", "salah")
	assert.ErrorIs(t, err, login.ErrInvalidCredentials)

	token, err := throttle.Authenticate(context.Background(), "admin@example.com", "kata-sandi-1")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	subject, err := tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", subject)
}
