package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alfredoptarigan/cv-screener/internal/apperror"
)

func TestOpenAIProviderSendsJSONModeRequest(t *testing.T) {
	var got chatCompletionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"candidate_evaluations\":[]}"}}]}`))
	}))
	defer server.Close()

	provider := NewOpenAIProvider("sk-test", server.URL+"/v1/", "", time.Second)
	text, err := provider.Complete(context.Background(), ChatRequest{
		System: "system", User: "user", Temperature: 0.2, JSONMode: true,
	})
	require.NoError(t, err)

	assert.Equal(t, `{"candidate_evaluations":[]}`, text)
	assert.Equal(t, "gpt-4o-mini", got.Model)
	assert.InDelta(t, 0.2, got.Temperature, 0.0001)
	require.NotNil(t, got.ResponseFormat)
	assert.Equal(t, "json_object", got.ResponseFormat.Type)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "user", got.Messages[1].Content)
}

func TestOpenAIProviderClassifiesFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   apperror.Reason
	}{
		{"bad key", http.StatusUnauthorized, `{"error":"invalid api key"}`, apperror.ReasonUnauthorized},
		{"quota", http.StatusTooManyRequests, `{"error":"slow down"}`, apperror.ReasonRateLimited},
		{"outage", http.StatusServiceUnavailable, `oops`, apperror.ReasonUpstream},
		{"bad request", http.StatusBadRequest, `{"error":"context length"}`, apperror.ReasonRejected},
		{"no choices", http.StatusOK, `{"choices":[]}`, apperror.ReasonEmpty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls++
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := NewOpenAIProvider("k", server.URL, "m", time.Second).Complete(context.Background(), ChatRequest{})
			require.Error(t, err)
			assert.Equal(t, apperror.KindProvider, apperror.KindOf(err))
			assert.Equal(t, tt.want, apperror.ReasonOf(err))
			assert.Equal(t, 1, calls, "no retry")
		})
	}
}

func TestOpenAIProviderTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	_, err := NewOpenAIProvider("k", server.URL, "m", 20*time.Millisecond).Complete(context.Background(), ChatRequest{})
	assert.Equal(t, apperror.ReasonTimeout, apperror.ReasonOf(err))
}
