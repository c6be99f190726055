package push

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrFetch wraps every failure to obtain a token from the platform.
	ErrFetch = errors.New("token fetch failed")
	// ErrForward wraps every failure to deliver a token to the application server.
	ErrForward = errors.New("token forwarding failed")
	// ErrEmptyToken is returned when the platform answers with an empty token.
	ErrEmptyToken = errors.New("platform returned an empty token")
	// ErrPermanent marks failures that retrying cannot fix.
	ErrPermanent = errors.New("permanent failure")
)

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrPermanent, err)
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrPermanent)
}

// Registration is what the application server stores for this installation.
type Registration struct {
	InstallationID string    `json:"installation_id"`
	Token          string    `json:"token"`
	Platform       string    `json:"platform,omitempty"`
	RefreshedAt    time.Time `json:"refreshed_at"`
}

// TokenSource asks the push platform's identity service for the current
// registration token.
type TokenSource interface {
	FetchToken(ctx context.Context) (string, error)
}

// TokenSink delivers a registration to the application server. Servers treat
// registration as an upsert, so sending the same token twice is safe.
type TokenSink interface {
	Register(ctx context.Context, reg Registration) error
}

// TokenSourceFunc adapts a function to TokenSource.
type TokenSourceFunc func(ctx context.Context) (string, error)

// FetchToken calls f.
func (f TokenSourceFunc) FetchToken(ctx context.Context) (string, error) {
	return f(ctx)
}

// TokenSinkFunc adapts a function to TokenSink.
type TokenSinkFunc func(ctx context.Context, reg Registration) error

// Register calls f.
func (f TokenSinkFunc) Register(ctx context.Context, reg Registration) error {
	return f(ctx, reg)
}
