package catalog

import (
	"errors"
	"fmt"
	"net/http"
)

// GatewayError reports a failed catalog call: transport failure, timeout, non-2xx
// response, undecodable body or an open circuit.
type GatewayError struct {
	Op     string
	Status int
	Cause  error
}

func (e *GatewayError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("catalog %s: status %d: %v", e.Op, e.Status, e.Cause)
	}
	return fmt.Sprintf("catalog %s: %v", e.Op, e.Cause)
}

func (e *GatewayError) Unwrap() error {
	return e.Cause
}

// NotFound reports whether the remote service answered 404.
func (e *GatewayError) NotFound() bool {
	return e.Status == http.StatusNotFound
}

func (e *GatewayError) clientSide() bool {
	return e.Status >= 400 && e.Status < 500
}

// IsGatewayError reports whether err carries a *GatewayError.
func IsGatewayError(err error) bool {
	var gwErr *GatewayError
	return errors.As(err, &gwErr)
}
