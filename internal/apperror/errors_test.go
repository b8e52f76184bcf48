package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOfWrappedError(t *testing.T) {
	base := WithReason(KindProvider, ReasonRateLimited, "openai.Complete", "provider rejected the request", errors.New("429"))
	wrapped := fmt.Errorf("analysis failed: %w", base)

	assert.Equal(t, KindProvider, KindOf(wrapped))
	assert.Equal(t, ReasonRateLimited, ReasonOf(wrapped))
	assert.True(t, IsKind(wrapped, KindProvider))
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
	assert.Equal(t, Kind(""), KindOf(nil))
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"unsupported", New(KindUnsupportedFileType, "", "x"), http.StatusBadRequest},
		{"validation", New(KindValidation, "", "x"), http.StatusBadRequest},
		{"duplicate email", WithReason(KindAuth, ReasonAlreadyRegistered, "", "x", nil), http.StatusConflict},
		{"bad credentials", WithReason(KindAuth, ReasonInvalidCredentials, "", "x", nil), http.StatusUnauthorized},
		{"password change", WithReason(KindAuth, ReasonPasswordChange, "", "x", nil), http.StatusForbidden},
		{"forbidden", New(KindForbidden, "", "x"), http.StatusForbidden},
		{"not found", New(KindNotFound, "", "x"), http.StatusNotFound},
		{"malformed", New(KindMalformedResponse, "", "x"), http.StatusBadGateway},
		{"metadata", New(KindMetadata, "", "x"), http.StatusInternalServerError},
		{"plain", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestPublicMessageHidesInternalCause(t *testing.T) {
	assert.Equal(t, "an unexpected error occurred", PublicMessage(errors.New("pq: password authentication failed")))
	assert.Equal(t, "job description text is empty", PublicMessage(New(KindValidation, "prompt.Build", "job description text is empty")))
}
