package examforge

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKind(t *testing.T) {
	cause := errors.New("dial tcp: i/o timeout")
	gerr := newGenerationError(ErrTransport, cause, "failed to call generation service")

	assert.Equal(t, ErrTransport, ErrorKind(gerr))
	assert.Equal(t, ErrTransport, ErrorKind(fmt.Errorf("batch 2: %w", gerr)))
	assert.True(t, errors.Is(gerr, cause))
	assert.Equal(t, "failed to call generation service: dial tcp: i/o timeout", gerr.Error())

	assert.Equal(t, ErrNotFound, ErrorKind(fmt.Errorf("%w: topic %d", ErrNotFound, 4)))
	assert.Nil(t, ErrorKind(errors.New("disk full")))
	assert.Nil(t, ErrorKind(nil))
}

func TestGenerationErrorMatchesOnlyItsKind(t *testing.T) {
	err := newGenerationError(ErrContentUnavailable, nil, "no material for topic %d", 10)
	assert.True(t, errors.Is(err, ErrContentUnavailable))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, "no material for topic 10", err.Error())
}
