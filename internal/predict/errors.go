package predict

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"syscall"

	"github.com/Ahlyab/flood-prediction/internal/urls"
)

// ErrorType represents the category of error that occurred
type ErrorType int

const (
	// ErrTypeNetwork indicates a network-level error
	ErrTypeNetwork ErrorType = iota
	// ErrTypeTimeout indicates the request exceeded the client timeout
	ErrTypeTimeout
	// ErrTypeConnectionRefused indicates nothing is listening at the base URL
	ErrTypeConnectionRefused
	// ErrTypeDNS indicates the service host could not be resolved
	ErrTypeDNS
	// ErrTypeHTTP indicates a non-2xx status code
	ErrTypeHTTP
	// ErrTypeParse indicates the response body was not valid JSON
	ErrTypeParse
	// ErrTypeMissingField indicates the response lacked PredictedFloodProbability
	ErrTypeMissingField
	// ErrTypeCanceled indicates the caller canceled the request
	ErrTypeCanceled
	// ErrTypeRequest indicates the request itself could not be built
	ErrTypeRequest
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeNetwork:
		return "Network Error"
	case ErrTypeTimeout:
		return "Timeout"
	case ErrTypeConnectionRefused:
		return "Connection Refused"
	case ErrTypeDNS:
		return "DNS Error"
	case ErrTypeHTTP:
		return "HTTP Error"
	case ErrTypeParse:
		return "Parse Error"
	case ErrTypeMissingField:
		return "Missing Field"
	case ErrTypeCanceled:
		return "Canceled"
	case ErrTypeRequest:
		return "Request Error"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// ServiceError represents a failed call to the prediction service
type ServiceError struct {
	Type       ErrorType // Category of error
	Message    string    // Human-readable error message
	StatusCode int       // HTTP status code (if applicable)
	Detail     string    // "detail" from the service's error body (if any)
	Err        error     // Underlying error (if any)
}

// Error implements the error interface
func (e *ServiceError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Type, e.Message)
	if e.Detail != "" {
		msg += fmt.Sprintf(" (detail: %s)", e.Detail)
	}
	if e.Err != nil {
		msg += fmt.Sprintf(" (caused by: %v)", e.Err)
	}
	return msg
}

// Unwrap returns the underlying error for error chain inspection
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// classifyTransportError maps an error from http.Client.Do to a ServiceError
func classifyTransportError(message string, err error) *ServiceError {
	serr := &ServiceError{Type: ErrTypeNetwork, Message: message, Err: err}

	switch {
	case errors.Is(err, context.Canceled):
		serr.Type = ErrTypeCanceled
		return serr
	case errors.Is(err, context.DeadlineExceeded), os.IsTimeout(err):
		serr.Type = ErrTypeTimeout
		return serr
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		serr.Type = ErrTypeDNS
		return serr
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && errors.Is(opErr.Err, syscall.ECONNREFUSED) {
		serr.Type = ErrTypeConnectionRefused
		return serr
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		serr.Type = ErrTypeTimeout
	}
	return serr
}

func newHTTPError(statusCode int, detail string) *ServiceError {
	return &ServiceError{
		Type:       ErrTypeHTTP,
		Message:    fmt.Sprintf("unexpected status code: %d", statusCode),
		StatusCode: statusCode,
		Detail:     detail,
	}
}

func newParseError(message string, err error) *ServiceError {
	return &ServiceError{Type: ErrTypeParse, Message: message, Err: err}
}

func newMissingFieldError(field string) *ServiceError {
	return &ServiceError{
		Type:    ErrTypeMissingField,
		Message: fmt.Sprintf("response has no numeric %q field", field),
	}
}

func typeOf(err error) (ErrorType, bool) {
	var serr *ServiceError
	if errors.As(err, &serr) {
		return serr.Type, true
	}
	return 0, false
}

// IsNetworkError checks if an error is a transport-level failure
// (including timeout, connection refused and DNS)
func IsNetworkError(err error) bool {
	t, ok := typeOf(err)
	return ok && (t == ErrTypeNetwork || t == ErrTypeTimeout || t == ErrTypeConnectionRefused || t == ErrTypeDNS)
}

// IsHTTPError checks if an error is a non-2xx response
func IsHTTPError(err error) bool {
	t, ok := typeOf(err)
	return ok && t == ErrTypeHTTP
}

// IsParseError checks if an error is a malformed response body
func IsParseError(err error) bool {
	t, ok := typeOf(err)
	return ok && t == ErrTypeParse
}

// IsMissingFieldError checks if the response lacked the probability field
func IsMissingFieldError(err error) bool {
	t, ok := typeOf(err)
	return ok && t == ErrTypeMissingField
}

// IsCanceled checks if the request was canceled by the caller
func IsCanceled(err error) bool {
	t, ok := typeOf(err)
	return ok && t == ErrTypeCanceled
}

// ShortMessage returns a concise, operator-facing description of err.
// End users of the form only ever see the generic submission message.
func ShortMessage(err error) string {
	var serr *ServiceError
	if !errors.As(err, &serr) {
		return err.Error()
	}

	switch serr.Type {
	case ErrTypeTimeout:
		return "Prediction service not responding (timeout)"
	case ErrTypeConnectionRefused:
		return "Prediction service refused connection - is it running?"
	case ErrTypeDNS:
		return "Cannot resolve prediction service hostname"
	case ErrTypeNetwork:
		return "Network error - check connection"
	case ErrTypeHTTP:
		if serr.Detail != "" {
			return fmt.Sprintf("Prediction service error (HTTP %d): %s", serr.StatusCode, serr.Detail)
		}
		return fmt.Sprintf("Prediction service error (HTTP %d)", serr.StatusCode)
	case ErrTypeParse:
		return "Failed to parse prediction service response"
	case ErrTypeMissingField:
		return "Prediction service response did not include a probability"
	case ErrTypeCanceled:
		return "Request canceled"
	default:
		return serr.Message
	}
}

// Hints returns troubleshooting suggestions for err, or nil when there are
// none.
func Hints(err error) []string {
	t, ok := typeOf(err)
	if !ok {
		return nil
	}

	switch t {
	case ErrTypeConnectionRefused:
		return []string{
			"Start the prediction service (uvicorn api:app --port 8000)",
			"Check --url or FLOOD_PREDICT_URL points at the right port",
			"Setup guide: " + urls.ServiceSetup,
		}
	case ErrTypeTimeout:
		return []string{
			"The model may still be loading; try again shortly",
			"Raise service.timeout or pass --timeout",
		}
	case ErrTypeDNS:
		return []string{
			"Check the hostname in --url",
			"Use `flood-predict scan` to find services on the local network",
		}
	case ErrTypeNetwork:
		return []string{
			"Check the network connection to the prediction service",
			"See " + urls.Troubleshooting,
		}
	case ErrTypeHTTP:
		return []string{
			"Run `flood-predict schema` to compare the service's inputs with the form",
			"Check the service logs for the request id",
		}
	case ErrTypeParse, ErrTypeMissingField:
		return []string{"The URL may not point at a flood prediction service"}
	default:
		return nil
	}
}
