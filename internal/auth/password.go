package auth

import "golang.org/x/crypto/bcrypt"

// HashPassword produces a salted bcrypt hash. The salt is random, so
// hashing the same password twice yields different strings.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPasswordHash verifies a password against its stored hash. A
// malformed hash is indistinguishable from a wrong password: both
// return false.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
