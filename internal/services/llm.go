package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"alfredoptarigan/cv-screener/internal/apperror"
)

type ChatRequest struct {
	System      string
	User        string
	Temperature float32
	JSONMode    bool
	MaxTokens   int
}

// LLMProvider performs exactly one completion. Implementations classify
// failures into apperror.KindProvider with a reason and never retry.
type LLMProvider interface {
	Complete(ctx context.Context, req ChatRequest) (string, error)
	Name() string
}

// classifyStatus maps a provider HTTP status onto a provider error reason.
func classifyStatus(status int) apperror.Reason {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return apperror.ReasonUnauthorized
	case status == http.StatusTooManyRequests:
		return apperror.ReasonRateLimited
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return apperror.ReasonTimeout
	case status >= 500:
		return apperror.ReasonUpstream
	default:
		return apperror.ReasonRejected
	}
}

// classifyTransport maps a transport failure onto a provider error reason.
func classifyTransport(err error) apperror.Reason {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperror.ReasonTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return apperror.ReasonTimeout
	}
	return apperror.ReasonTransport
}

func providerError(op string, reason apperror.Reason, err error) *apperror.Error {
	var msg string
	switch reason {
	case apperror.ReasonTimeout:
		msg = "the AI provider did not answer in time"
	case apperror.ReasonUnauthorized:
		msg = "the AI provider rejected the configured credentials"
	case apperror.ReasonRateLimited:
		msg = "the AI provider is rate limiting requests; try again shortly"
	case apperror.ReasonUpstream:
		msg = "the AI provider is unavailable"
	case apperror.ReasonEmpty:
		msg = "the AI provider returned an empty answer"
	case apperror.ReasonRejected:
		msg = "the AI provider rejected the request"
	default:
		msg = "could not reach the AI provider"
	}
	return apperror.WithReason(apperror.KindProvider, reason, op, msg, err)
}

func statusError(status int, body string) error {
	if len(body) > 512 {
		body = body[:512]
	}
	return fmt.Errorf("status %d: %s", status, body)
}
