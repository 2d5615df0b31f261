package login

import (
	"context"
	"time"

	"github.com/putrawicaksono/minibank/internal/storage"
)

// userIdentities adapts a storage.UserStore to the throttle: identity id is
// the email, the secret is the password.
type userIdentities struct {
	users storage.UserStore
}

// UserIdentities returns an IdentityStore over back-office users.
func UserIdentities(users storage.UserStore) IdentityStore {
	return &userIdentities{users: users}
}

func (s *userIdentities) FindIdentity(ctx context.Context, id string) (Identity, error) {
	user, err := s.users.FindUserByEmail(ctx, id)
	if err != nil {
		return Identity{}, err
	}
	return Identity{
		ID:          user.Email,
		SecretHash:  user.PasswordHash,
		Attempts:    user.Attempts,
		LastAttempt: user.LastAttempt,
	}, nil
}

func (s *userIdentities) SaveLoginState(ctx context.Context, id string, attempts int, lastAttempt *time.Time) error {
	return s.users.UpdateUserLoginState(ctx, id, attempts, lastAttempt)
}

// customerIdentities adapts a storage.AccountStore to the throttle:
// identity id is the account number, the secret is the access code.
type customerIdentities struct {
	accounts storage.AccountStore
}

// CustomerIdentities returns an IdentityStore over customer accounts.
func CustomerIdentities(accounts storage.AccountStore) IdentityStore {
	return &customerIdentities{accounts: accounts}
}

func (s *customerIdentities) FindIdentity(ctx context.Context, id string) (Identity, error) {
	account, err := s.accounts.GetAccount(ctx, id)
	if err != nil {
		return Identity{}, err
	}
	return Identity{
		ID:          account.AccountNumber,
		SecretHash:  account.AccessCodeHash,
		Attempts:    account.Attempts,
		LastAttempt: account.LastAttempt,
	}, nil
}

func (s *customerIdentities) SaveLoginState(ctx context.Context, id string, attempts int, lastAttempt *time.Time) error {
	return s.accounts.UpdateAccountLoginState(ctx, id, attempts, lastAttempt)
}
