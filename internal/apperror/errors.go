// Package apperror defines the error taxonomy shared by every layer of the
// screener. Adapters translate collaborator failures into an *Error once, so
// callers branch on Kind and Reason instead of matching error text.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindUnsupportedFileType Kind = "unsupported_file_type"
	KindParse               Kind = "parse_error"
	KindMalformedResponse   Kind = "malformed_response"
	KindProvider            Kind = "provider_error"
	KindUpload              Kind = "upload_error"
	KindMetadata            Kind = "metadata_error"
	KindAuth                Kind = "auth_error"
	KindNotFound            Kind = "not_found"
	KindValidation          Kind = "validation_error"
	KindForbidden           Kind = "forbidden"
	KindInternal            Kind = "internal_error"
)

// Reason refines a Kind. Provider and auth failures always carry one.
type Reason string

const (
	ReasonNone Reason = ""

	// provider failures
	ReasonTimeout      Reason = "timeout"
	ReasonUnauthorized Reason = "unauthorized"
	ReasonRateLimited  Reason = "rate_limited"
	ReasonRejected     Reason = "rejected"
	ReasonUpstream     Reason = "upstream"
	ReasonTransport    Reason = "transport"
	ReasonEmpty        Reason = "empty_response"

	// auth failures
	ReasonAlreadyRegistered  Reason = "already_registered"
	ReasonInvalidCredentials Reason = "invalid_credentials"
	ReasonWeakPassword       Reason = "weak_password"
	ReasonPasswordMismatch   Reason = "password_mismatch"
	ReasonAdminLoginRequired Reason = "admin_login_required"
	ReasonUserLoginRequired  Reason = "user_login_required"
	ReasonSessionExpired     Reason = "session_expired"
	ReasonPasswordChange     Reason = "password_change_required"
)

type Error struct {
	Kind    Kind
	Reason  Reason
	Op      string
	Message string
	// Raw keeps unparsed provider output for diagnosis.
	Raw string
	Err error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

func Wrap(kind Kind, op, message string, err error) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Err: err}
}

func WithReason(kind Kind, reason Reason, op, message string, err error) *Error {
	return &Error{Kind: kind, Reason: reason, Op: op, Message: message, Err: err}
}

// As returns the outermost *Error in err's chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	if appErr, ok := As(err); ok {
		return appErr.Kind
	}
	return KindInternal
}

func ReasonOf(err error) Reason {
	if appErr, ok := As(err); ok {
		return appErr.Reason
	}
	return ReasonNone
}

func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// PublicMessage is the text shown to the user. Internal failures never leak
// their wrapped cause.
func PublicMessage(err error) string {
	appErr, ok := As(err)
	if !ok || appErr.Kind == KindInternal {
		return "an unexpected error occurred"
	}
	if appErr.Message != "" {
		return appErr.Message
	}
	return string(appErr.Kind)
}

// HTTPStatus returns the appropriate HTTP status code for an error.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindUnsupportedFileType, KindParse, KindValidation:
		return http.StatusBadRequest
	case KindAuth:
		if ReasonOf(err) == ReasonAlreadyRegistered {
			return http.StatusConflict
		}
		if ReasonOf(err) == ReasonPasswordChange {
			return http.StatusForbidden
		}
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindMalformedResponse, KindProvider:
		return http.StatusBadGateway
	case KindUpload, KindMetadata, KindInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
