package helpers

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const stateIssuer = "jazzhands"

var ErrInvalidState = errors.New("invalid oauth state")

// StateSigner issues and verifies the OAuth state parameter. The state is a
// short lived HS256 token, so nothing has to be stored before the visitor has
// been redirected to the provider.
type StateSigner struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

func NewStateSigner(key []byte, ttl time.Duration) (*StateSigner, error) {
	if len(key) == 0 {
		return nil, fmt.Errorf("no state signing key provided")
	}

	if ttl <= 0 {
		return nil, fmt.Errorf("state ttl must be positive")
	}

	return &StateSigner{
		key: key,
		ttl: ttl,
		now: time.Now,
	}, nil
}

func (s *StateSigner) New() (string, error) {
	now := s.now()

	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Issuer:    stateIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign state: %w", err)
	}

	return tokenString, nil
}

func (s *StateSigner) Verify(state string) error {
	if state == "" {
		return fmt.Errorf("%w: state was empty", ErrInvalidState)
	}

	_, err := jwt.ParseWithClaims(
		state,
		&jwt.RegisteredClaims{},
		func(t *jwt.Token) (any, error) { return s.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(stateIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidState, err)
	}

	return nil
}
