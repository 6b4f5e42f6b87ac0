package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/aawaaz/civic-portal/internal/repository"
	"github.com/stretchr/testify/assert"
)

func TestErrorMatching(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", forbidden("You can only edit your own complaints"))

	assert.ErrorIs(t, err, ErrForbidden)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Equal(t, CodeForbidden, CodeOf(err))
	assert.Equal(t, "You can only edit your own complaints", MessageOf(err))
}

func TestUnclassifiedErrorsStayHidden(t *testing.T) {
	err := errors.New("pq: connection refused to 10.0.0.3")
	assert.Equal(t, CodeInternal, CodeOf(err))
	assert.Equal(t, ErrInternal.Message, MessageOf(err))
}

func TestLookupErr(t *testing.T) {
	assert.ErrorIs(t, lookupErr(repository.ErrInvalidID, "comment"), ErrInvalidArgument)

	err := lookupErr(fmt.Errorf("find: %w", repository.ErrNotFound), "comment")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "Comment not found", MessageOf(err))

	assert.NoError(t, lookupErr(errors.New("timeout"), "comment"))
}
