package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "gatepass/internal/errors"
	"gatepass/internal/models"
)

func TestSignup_AndAuthenticate(t *testing.T) {
	_, _, svcs := newTestStack()

	resp, err := svcs.Accounts.Signup(context.Background(), &models.SignupRequest{
		Email:       "alice@example.com",
		Password:    "correct horse",
		DisplayName: "Alice",
	})
	require.NoError(t, err)
	assert.NotZero(t, resp.AccountID)

	balance, err := svcs.Accounts.Balance(context.Background(), resp.AccountID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), balance.Balance)

	account, err := svcs.Accounts.Authenticate(context.Background(), "alice@example.com", "correct horse")
	require.NoError(t, err)
	require.NotNil(t, account)
	assert.Equal(t, resp.AccountID, account.AccountID)
	assert.Equal(t, "Alice", account.DisplayName)

	// Wrong password and unknown email both come back nil without error.
	account, err = svcs.Accounts.Authenticate(context.Background(), "alice@example.com", "wrong")
	require.NoError(t, err)
	assert.Nil(t, account)

	account, err = svcs.Accounts.Authenticate(context.Background(), "nobody@example.com", "correct horse")
	require.NoError(t, err)
	assert.Nil(t, account)
}

func TestSignup_DuplicateEmail(t *testing.T) {
	_, _, svcs := newTestStack()

	req := &models.SignupRequest{Email: "alice@example.com", Password: "correct horse"}
	_, err := svcs.Accounts.Signup(context.Background(), req)
	require.NoError(t, err)

	_, err = svcs.Accounts.Signup(context.Background(), req)
	assert.EqualError(t, err, "email already registered")
}

func TestTopUp(t *testing.T) {
	store, _, svcs := newTestStack()
	user := store.addUser(100)

	resp, err := svcs.Accounts.TopUp(context.Background(), user, 5_000)
	require.NoError(t, err)
	assert.Equal(t, int64(5_100), resp.Balance)
	assert.Equal(t, int64(5_100), store.accounts[user].Balance)
}

func TestBalance_UnknownAccount(t *testing.T) {
	_, _, svcs := newTestStack()

	_, err := svcs.Accounts.Balance(context.Background(), int64(999))
	assert.ErrorIs(t, err, apperrors.ErrAccountNotFound)
}
