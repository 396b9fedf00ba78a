package apperr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/dalemusser/onboardhub/internal/app/system/apperr"
	"github.com/stretchr/testify/assert"
)

func TestKindStatus(t *testing.T) {
	tests := []struct {
		kind apperr.Kind
		want int
	}{
		{apperr.Unauthenticated, http.StatusUnauthorized},
		{apperr.Forbidden, http.StatusForbidden},
		{apperr.NotFound, http.StatusNotFound},
		{apperr.Conflict, http.StatusConflict},
		{apperr.Validation, http.StatusBadRequest},
		{apperr.Upstream, http.StatusBadGateway},
		{apperr.Internal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.kind.Status())
		})
	}
}

func TestKindOf_ThroughWrapping(t *testing.T) {
	base := apperr.NewConflict("invitation already accepted")
	wrapped := fmt.Errorf("accept: %w", base)

	assert.Equal(t, apperr.Conflict, apperr.KindOf(wrapped))
	assert.True(t, errors.Is(wrapped, apperr.ErrConflict))
	assert.False(t, errors.Is(wrapped, apperr.ErrNotFound))
	assert.Equal(t, "invitation already accepted", apperr.Message(wrapped))
}

func TestKindOf_Unclassified(t *testing.T) {
	err := errors.New("boom")
	assert.Equal(t, apperr.Internal, apperr.KindOf(err))
	assert.Equal(t, "internal error", apperr.Message(err))
}

func TestWrap_Unwraps(t *testing.T) {
	cause := errors.New("connection refused")
	err := apperr.NewUpstream("github request failed", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Nil(t, apperr.Wrap(nil, apperr.Internal, "x"))
}
