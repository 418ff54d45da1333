package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIsMatchesKind(t *testing.T) {
	err := NewError(KindNotFound, "Node with id 7 not found").WithStatus(404)

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrValidation))
	assert.Equal(t, "Node with id 7 not found", err.Error())

	wrapped := fmt.Errorf("delete node: %w", err)
	assert.True(t, errors.Is(wrapped, ErrNotFound))
	assert.Equal(t, KindNotFound, KindOf(wrapped))
}

func TestErrorMessageFallback(t *testing.T) {
	cause := errors.New("connection refused")
	err := (&Error{Kind: KindFetch}).WithCause(cause)

	assert.Equal(t, "fetch: connection refused", err.Error())
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "busy", (&Error{Kind: KindBusy}).Error())
}

func TestKindOfForeignError(t *testing.T) {
	assert.Equal(t, ErrorKind(""), KindOf(errors.New("plain")))
	assert.Equal(t, KindSessionExpired, KindOf(SessionExpired("token expired")))
}
