package utils

import "golang.org/x/crypto/bcrypt"

// HashPassword returns bcrypt hash using the given cost.
func HashPassword(plain string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword safely compares bcrypt hash and plain password.  An
// empty hash never matches, so accounts without a password cannot log in.
func VerifyPassword(hash, plain string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// PasswordVerifier is the opaque check used by login.  The hashing scheme
// behind it is not visible to callers.
type PasswordVerifier func(hash, plain string) bool

// BcryptVerifier is the production PasswordVerifier.
var BcryptVerifier PasswordVerifier = VerifyPassword
