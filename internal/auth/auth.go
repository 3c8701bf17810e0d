package auth

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// MaxSecretLen is the longest plaintext bcrypt consumes. Longer input is
// rejected instead of being silently truncated.
const MaxSecretLen = 72

var (
	ErrInvalidToken    = errors.New("invalid hash token")
	ErrInvalidCost     = errors.New("invalid bcrypt cost")
	ErrSecretTooLong   = fmt.Errorf("secret longer than %d bytes", MaxSecretLen)
	ErrHashUnavailable = errors.New("password hashing unavailable")
)

// Authenticator hashes and verifies secrets with bcrypt
type Authenticator struct {
	cost int

	once     sync.Once
	checkErr error
}

// New creates an Authenticator hashing at the given bcrypt cost
func New(cost int) (*Authenticator, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("%w: %d (want %d..%d)", ErrInvalidCost, cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return &Authenticator{cost: cost}, nil
}

// Cost returns the cost used for new tokens
func (a *Authenticator) Cost() int {
	return a.cost
}

// Hash returns a salted bcrypt token for plaintext
func (a *Authenticator) Hash(plaintext string) (string, error) {
	if len(plaintext) > MaxSecretLen {
		return "", ErrSecretTooLong
	}
	token, err := bcrypt.GenerateFromPassword([]byte(plaintext), a.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash secret: %w", err)
	}
	return string(token), nil
}

// Verify reports whether plaintext matches token.
// It returns ErrInvalidToken only when token cannot be parsed.
func (a *Authenticator) Verify(plaintext, token string) (bool, error) {
	if _, err := bcrypt.Cost([]byte(token)); err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if len(plaintext) > MaxSecretLen {
		return false, nil
	}

	err := bcrypt.CompareHashAndPassword([]byte(token), []byte(plaintext))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
}

// Available runs a one-time hash and verify round trip at the minimum cost.
// Callers must not create tokens when it fails.
func (a *Authenticator) Available() error {
	a.once.Do(func() {
		const probe = "safelist-self-test"
		token, err := bcrypt.GenerateFromPassword([]byte(probe), bcrypt.MinCost)
		if err != nil {
			a.checkErr = fmt.Errorf("%w: %v", ErrHashUnavailable, err)
			return
		}
		if err := bcrypt.CompareHashAndPassword(token, []byte(probe)); err != nil {
			a.checkErr = fmt.Errorf("%w: self-test failed: %v", ErrHashUnavailable, err)
		}
	})
	return a.checkErr
}

// NeedsRehash reports whether token was created at a cost other than the
// current one
func (a *Authenticator) NeedsRehash(token string) bool {
	cost, err := bcrypt.Cost([]byte(token))
	if err != nil {
		return true
	}
	return cost != a.cost
}
