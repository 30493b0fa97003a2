package clients

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Collaborator outcome taxonomy. Every client maps its transport result to
// one of these so callers can apply their own policy (zero data vs hard
// failure) without inspecting HTTP details.
var (
	ErrNotFound = errors.New("not found upstream")
	ErrTimeout  = errors.New("upstream request timed out")
	ErrConnect  = errors.New("failed to connect to upstream")
)

// UpstreamError is a non-2xx, non-404 response from a collaborator.
type UpstreamError struct {
	Service    string
	StatusCode int
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s service returned status %d", e.Service, e.StatusCode)
}

// classifyTransport turns an http.Client error into ErrTimeout or ErrConnect.
func classifyTransport(service string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", service, ErrTimeout)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%s: %w", service, ErrTimeout)
	}
	return fmt.Errorf("%s: %w: %v", service, ErrConnect, err)
}
