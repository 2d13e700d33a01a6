package photo

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/anoixa/photo-bed/internal/media"
	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(nil))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.Equal(t, KindNotFound, KindOf(fmt.Errorf("wrapped: %w", notFound("photo 1 not found"))))
	assert.True(t, IsKind(forbidden(), KindForbidden))
}

func TestExternalError(t *testing.T) {
	e := external("failed to upload", context.DeadlineExceeded)
	assert.Equal(t, KindExternalService, e.Kind)
	assert.True(t, e.Retryable)
	assert.ErrorIs(t, e, context.DeadlineExceeded)

	e = external("failed to upload", errRemote)
	assert.Equal(t, KindExternalService, e.Kind)
	assert.False(t, e.Retryable)

	// 参数错误不是外部故障
	e = external("failed to transform", fmt.Errorf("%w: width", media.ErrInvalidParams))
	assert.Equal(t, KindValidation, e.Kind)
}

func TestAsError(t *testing.T) {
	typed := notFound("missing")
	assert.Same(t, typed, asError(typed, KindInternal, "ignored"))

	wrapped := asError(errRemote, KindInternal, "failed")
	assert.Equal(t, KindInternal, KindOf(wrapped))
	assert.ErrorIs(t, wrapped, errRemote)
	assert.Equal(t, "failed: remote unavailable", wrapped.Error())

	assert.NoError(t, asError(nil, KindInternal, "nothing"))
}
