package greenapi

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is a non-success HTTP response from the provider. Callers decide
// retry policy from the status; the client itself never retries.
type APIError struct {
	Op     string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("greenapi: %s: HTTP %d: %s", e.Op, e.Status, e.Body)
}

// RateLimited reports whether the provider rejected the request with 429.
func (e *APIError) RateLimited() bool { return e.Status == http.StatusTooManyRequests }

// ServerError reports whether the provider failed with a 5xx status.
func (e *APIError) ServerError() bool { return e.Status >= 500 }

// ProtocolError is a response that decoded as the wrong shape: 2xx status
// with a body that is not the documented JSON.
type ProtocolError struct {
	Op  string
	Err error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("greenapi: %s: bad response payload: %v", e.Op, e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// IsRateLimit reports whether err is a provider 429.
func IsRateLimit(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.RateLimited()
}

// IsServerError reports whether err is a provider 5xx.
func IsServerError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.ServerError()
}

// IsProtocol reports whether err is a malformed-payload error.
func IsProtocol(err error) bool {
	var protoErr *ProtocolError
	return errors.As(err, &protoErr)
}
