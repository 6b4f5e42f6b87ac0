package services

import (
	"context"
	"testing"

	"github.com/aawaaz/civic-portal/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentAdd_Authors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.citizen(t, "Alice", "alice@example.com")
	c := env.complaint(t, alice, "Pothole")

	tests := []struct {
		name       string
		caller     *models.CitizenIdentity
		wantAuthor string
		wantUser   string
	}{
		{"anonymous", nil, AnonymousAuthor, ""},
		{"named citizen", alice, "Alice", alice.ID},
		{"citizen without name", &models.CitizenIdentity{ID: "u-2", Email: "noname@example.com"}, "noname@example.com", "u-2"},
		{"citizen without name or email", &models.CitizenIdentity{ID: "u-3"}, AnonymousAuthor, "u-3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := env.comments.Add(ctx, tt.caller, c.ID, "  Needs fixing  ")
			require.NoError(t, err)
			assert.NotEmpty(t, got.ID)
			assert.Equal(t, c.ID, got.ComplaintID)
			assert.Equal(t, "Needs fixing", got.Text)
			assert.Equal(t, tt.wantAuthor, got.Author)
			assert.Equal(t, tt.wantUser, got.UserID)
		})
	}
}

func TestCommentAdd_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.citizen(t, "Alice", "alice@example.com")
	c := env.complaint(t, alice, "Pothole")

	_, err := env.comments.Add(ctx, alice, c.ID, "   ")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = env.comments.Add(ctx, alice, uuid.NewString(), "hello")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = env.comments.Add(ctx, alice, "nope", "hello")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestCommentList_NewestFirst(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.citizen(t, "Alice", "alice@example.com")
	c := env.complaint(t, alice, "Pothole")

	for _, text := range []string{"first", "second", "third"} {
		_, err := env.comments.Add(ctx, alice, c.ID, text)
		require.NoError(t, err)
	}

	list, err := env.comments.List(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "third", list[0].Text)
	assert.Equal(t, "first", list[2].Text)

	list, err = env.comments.List(ctx, uuid.NewString())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCommentUpdate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.citizen(t, "Alice", "alice@example.com")
	bob := env.citizen(t, "Bob", "bob@example.com")
	c := env.complaint(t, alice, "Pothole")

	mine, err := env.comments.Add(ctx, alice, c.ID, "original")
	require.NoError(t, err)
	anon, err := env.comments.Add(ctx, nil, c.ID, "drive-by")
	require.NoError(t, err)

	updated, err := env.comments.Update(ctx, alice, mine.ID, "edited")
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Text)
	assert.Equal(t, "Alice", updated.Author)
	assert.Equal(t, mine.CreatedAt, updated.CreatedAt, "timestamps are untouched by an edit")
	assert.Equal(t, mine.UpdatedAt, updated.UpdatedAt, "timestamps are untouched by an edit")

	_, err = env.comments.Update(ctx, bob, mine.ID, "vandalised")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = env.comments.Update(ctx, alice, anon.ID, "claimed")
	assert.ErrorIs(t, err, ErrForbidden, "anonymous comments belong to nobody")

	_, err = env.comments.Update(ctx, nil, mine.ID, "x")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = env.comments.Update(ctx, alice, uuid.NewString(), "")
	assert.ErrorIs(t, err, ErrInvalidArgument, "text is checked before the lookup")

	_, err = env.comments.Update(ctx, alice, uuid.NewString(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCommentDelete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.citizen(t, "Alice", "alice@example.com")
	bob := env.citizen(t, "Bob", "bob@example.com")
	c := env.complaint(t, alice, "Pothole")

	comment, err := env.comments.Add(ctx, bob, c.ID, "me too")
	require.NoError(t, err)

	assert.ErrorIs(t, env.comments.Delete(ctx, alice, comment.ID), ErrForbidden)
	assert.ErrorIs(t, env.comments.Delete(ctx, nil, comment.ID), ErrUnauthorized)

	require.NoError(t, env.comments.Delete(ctx, bob, comment.ID))
	assert.ErrorIs(t, env.comments.Delete(ctx, bob, comment.ID), ErrNotFound)

	list, err := env.comments.List(ctx, c.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}
