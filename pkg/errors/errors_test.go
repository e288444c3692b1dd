package errors

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloneKeepsCodeForIs(t *testing.T) {
	err := Clone(ErrInvalidState, "pending reply is APPROVED")
	assert.Equal(t, "pending reply is APPROVED", err.Message)
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.NotErrorIs(t, err, ErrAlreadyPending)

	wrapped := fmt.Errorf("approve: %w", err)
	assert.ErrorIs(t, wrapped, ErrInvalidState)
}

func TestFromErrorDefaultsToInternal(t *testing.T) {
	appErr := FromError(sql.ErrConnDone)
	require.NotNil(t, appErr)
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
	assert.True(t, errors.Is(appErr, sql.ErrConnDone))

	assert.Nil(t, FromError(nil))
	assert.Same(t, ErrNotFound, FromError(ErrNotFound))
}

func TestWithDetailsCopies(t *testing.T) {
	details := map[string][]string{"unknown": {"foo"}}
	err := WithDetails(ErrUnknownVariable, details)
	assert.Equal(t, details, err.Details)
	assert.Nil(t, ErrUnknownVariable.Details)
}
