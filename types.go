package jazzhands

import (
	"errors"
	"fmt"
)

var (
	// ErrNoLogin is returned when the provider does not report a login for the visitor.
	ErrNoLogin = errors.New("provider returned no login for user")

	// ErrAccessDenied is returned when the visitor has no verified email address.
	ErrAccessDenied = errors.New("user has no verified email address")
)

type User struct {
	Login string `json:"login"`
	ID    int64  `json:"id"`
	Name  string `json:"name"`
}

type Email struct {
	Email    string `json:"email"`
	Verified bool   `json:"verified"`
	Primary  bool   `json:"primary"`
}

// TeamMembership is the payload returned by the provider when a user is added to a team.
type TeamMembership struct {
	URL   string `json:"url"`
	Role  string `json:"role"`
	State string `json:"state"`
}

// Pending reports whether the user still has to accept the organization invitation.
func (tm *TeamMembership) Pending() bool {
	return tm != nil && tm.State == "pending"
}

// ProviderError is returned for any non-2xx response from the identity provider.
type ProviderError struct {
	Method     string
	Resource   string
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider returned %d for %s %s: %s", e.StatusCode, e.Method, e.Resource, e.Body)
}

// AuthExchangeError is returned when an authorization code could not be turned into an access token.
type AuthExchangeError struct {
	Reason string
	Err    error
}

func (e *AuthExchangeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("auth exchange failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("auth exchange failed: %s", e.Reason)
}

func (e *AuthExchangeError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is a provider 404.
func IsNotFound(err error) bool {
	var perr *ProviderError
	return errors.As(err, &perr) && perr.StatusCode == 404
}
