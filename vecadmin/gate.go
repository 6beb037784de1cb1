package vecadmin

import (
	"crypto/subtle"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultAttempts is the number of password attempts before access is refused.
const DefaultAttempts = 3

var (
	// ErrAccessDenied is returned after too many wrong passwords.
	ErrAccessDenied = errors.New("vecadmin: access denied")
	// ErrAdminDisabled is returned when no admin password is configured.
	ErrAdminDisabled = errors.New("vecadmin: admin mode disabled")
)

// Verifier reports whether a password is correct.
type Verifier func(password string) bool

// NewPasswordVerifier prefers a bcrypt hash over a plain password. With
// neither configured admin mode is disabled.
func NewPasswordVerifier(plain, hash string) (Verifier, error) {
	switch {
	case hash != "":
		if _, err := bcrypt.Cost([]byte(hash)); err != nil {
			return nil, fmt.Errorf("vecadmin: invalid password hash: %w", err)
		}
		return func(password string) bool {
			return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
		}, nil
	case plain != "":
		return func(password string) bool {
			return subtle.ConstantTimeCompare([]byte(plain), []byte(password)) == 1
		}, nil
	default:
		return nil, ErrAdminDisabled
	}
}

// Gate asks for a password a limited number of times.
type Gate struct {
	Verify   Verifier
	Attempts int
}

// Authenticate calls prompt with the 1-based attempt number until Verify
// accepts the answer or the attempts run out.
func (g Gate) Authenticate(prompt func(attempt int) (string, error)) error {
	if g.Verify == nil {
		return ErrAdminDisabled
	}
	attempts := g.Attempts
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	for i := 1; i <= attempts; i++ {
		password, err := prompt(i)
		if err != nil {
			return err
		}
		if g.Verify(password) {
			return nil
		}
	}
	return ErrAccessDenied
}
