package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSignupAndLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	session, err := env.auth.Signup(ctx, " Alice ", "Alice@Example.com", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, "Alice", session.User.Name)
	assert.Equal(t, "alice@example.com", session.User.Email)

	id, err := env.tokens.ParseCitizen(session.Token)
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, id.ID)

	login, err := env.auth.Login(ctx, "ALICE@example.com", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, login.User.ID)

	_, err = env.auth.Login(ctx, "alice@example.com", "wrong horse")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = env.auth.Login(ctx, "nobody@example.com", "correct horse")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestSignup_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.auth.Signup(ctx, "Alice", "alice@example.com", "correct horse")
	require.NoError(t, err)

	tests := []struct {
		name                   string
		uname, email, password string
		want                   error
	}{
		{"missing name", "", "bob@example.com", "password1", ErrInvalidArgument},
		{"bad email", "Bob", "bob-at-example", "password1", ErrInvalidArgument},
		{"short password", "Bob", "bob@example.com", "short", ErrInvalidArgument},
		{"duplicate email", "Alice Again", "ALICE@example.com", "password1", ErrConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.auth.Signup(ctx, tt.uname, tt.email, tt.password)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestGoogleLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.google["new-user"] = &GoogleProfile{ID: "g-1", Email: "Carol@Example.com", Name: "Carol", VerifiedEmail: true}
	env.google["nameless"] = &GoogleProfile{ID: "g-2", Email: "dave@example.com", VerifiedEmail: true}
	env.google["existing"] = &GoogleProfile{ID: "g-3", Email: "alice@example.com", Name: "Alice G", VerifiedEmail: true}
	env.google["unverified"] = &GoogleProfile{ID: "g-4", Email: "eve@example.com", VerifiedEmail: false}

	t.Run("creates account", func(t *testing.T) {
		first, err := env.auth.GoogleLogin(ctx, "new-user")
		require.NoError(t, err)
		assert.Equal(t, "carol@example.com", first.User.Email)
		assert.Equal(t, "Carol", first.User.Name)
		assert.False(t, first.User.HasPassword())

		again, err := env.auth.GoogleLogin(ctx, "new-user")
		require.NoError(t, err)
		assert.Equal(t, first.User.ID, again.User.ID)

		_, err = env.auth.Login(ctx, "carol@example.com", "anything-long")
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("falls back to local part for name", func(t *testing.T) {
		s, err := env.auth.GoogleLogin(ctx, "nameless")
		require.NoError(t, err)
		assert.Equal(t, "dave", s.User.Name)
	})

	t.Run("links existing password account", func(t *testing.T) {
		signup, err := env.auth.Signup(ctx, "Alice", "alice@example.com", "correct horse")
		require.NoError(t, err)

		s, err := env.auth.GoogleLogin(ctx, "existing")
		require.NoError(t, err)
		assert.Equal(t, signup.User.ID, s.User.ID)
		assert.Equal(t, "Alice", s.User.Name)

		byGoogle, err := env.store.Users.ByGoogleID(ctx, "g-3")
		require.NoError(t, err)
		assert.Equal(t, signup.User.ID, byGoogle.ID)

		_, err = env.auth.Login(ctx, "alice@example.com", "correct horse")
		assert.NoError(t, err, "password login keeps working after linking")
	})

	t.Run("rejects", func(t *testing.T) {
		_, err := env.auth.GoogleLogin(ctx, "unverified")
		assert.ErrorIs(t, err, ErrUnauthorized)
		_, err = env.auth.GoogleLogin(ctx, "bogus-code")
		assert.ErrorIs(t, err, ErrUnauthorized)
		_, err = env.auth.GoogleLogin(ctx, " ")
		assert.ErrorIs(t, err, ErrInvalidArgument)
	})
}

func TestGoogleLogin_NotConfigured(t *testing.T) {
	env := newTestEnv(t)
	auth := NewAuthService(env.store, env.tokens, nil, zap.NewNop().Sugar())

	_, err := auth.GoogleLogin(context.Background(), "code")
	assert.Equal(t, CodeInternal, CodeOf(err))
	assert.Equal(t, "Google login is not configured", MessageOf(err))
}

func TestProfile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.citizen(t, "Alice", "alice@example.com")

	user, err := env.auth.Profile(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, "Alice", user.View().Name)

	_, err = env.auth.Profile(ctx, nil)
	assert.ErrorIs(t, err, ErrUnauthorized)
}
