package utils

import "golang.org/x/crypto/bcrypt"

// HashPassword returns a bcrypt hash using the given cost.  The cost comes
// from configuration so operators can tune how long a hash takes; bcrypt
// salts internally.  Plaintext is never logged by this package.
func HashPassword(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword safely compares a bcrypt hash and a plain password.  A
// malformed stored hash makes CompareHashAndPassword return an error, which
// is reported as a plain mismatch rather than a fault: a corrupt row must
// read as "wrong password", never as a crash.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
