package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velebit-dev/boardsync/internal/service"
)

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	reg, err := f.auth.Register(ctx, service.RegisterInput{
		Email:    "a@example.com",
		Name:     "Alice",
		Password: "Sup3rSecret",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, reg.AccessToken)

	login, err := f.auth.Login(ctx, service.LoginInput{
		Email:    "a@example.com",
		Password: "Sup3rSecret",
	})
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, login.User.ID)
	assert.NotEmpty(t, login.AccessToken)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.registerUser(t, "a@example.com")

	_, err := f.auth.Register(ctx, service.RegisterInput{
		Email:    "a@example.com",
		Name:     "Other",
		Password: "Sup3rSecret",
	})
	assert.ErrorIs(t, err, service.ErrEmailTaken)
}

func TestLoginWrongPassword(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.registerUser(t, "a@example.com")

	_, err := f.auth.Login(ctx, service.LoginInput{
		Email:    "a@example.com",
		Password: "WrongPassword1",
	})
	assert.ErrorIs(t, err, service.ErrInvalidCreds)
}

func TestLoginUnknownEmail(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.auth.Login(ctx, service.LoginInput{
		Email:    "nobody@example.com",
		Password: "Sup3rSecret",
	})
	assert.ErrorIs(t, err, service.ErrInvalidCreds)
}
