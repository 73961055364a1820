package auth

import "golang.org/x/crypto/bcrypt"

// HashPassword derives a salted hash of the password. The salt is random
// per call, so hashing the same password twice yields different output.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// VerifyPassword reports whether password matches the stored hash. The
// comparison is constant time, and a malformed stored hash yields false
// rather than an error.
func VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
