package telenet

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrBadCredentials   = errors.New("bad credentials")
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrGatewayTimeout   = errors.New("gateway timeout")
	ErrBadGateway       = errors.New("bad gateway")
	ErrUnknownBackend   = errors.New("unknown backend system")
)

// ServiceError is returned when the portal answers with an unexpected status or payload.
type ServiceError struct {
	StatusCode int
	URL        string
	Message    string
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("HTTP %d error for %s: %s", e.StatusCode, e.URL, e.Message)
	}
	return fmt.Sprintf("HTTP %d error for %s", e.StatusCode, e.URL)
}

// Unwrap lets errors.Is single out gateway failures.
func (e *ServiceError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusGatewayTimeout:
		return ErrGatewayTimeout
	case http.StatusBadGateway:
		return ErrBadGateway
	}
	return nil
}

// BadCredentialsError is returned when the identity provider rejects the login.
type BadCredentialsError struct {
	Message string
}

func (e *BadCredentialsError) Error() string {
	return fmt.Sprintf("bad credentials: %s", e.Message)
}

func (e *BadCredentialsError) Unwrap() error {
	return ErrBadCredentials
}
