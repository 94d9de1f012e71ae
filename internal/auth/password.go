package auth

import "golang.org/x/crypto/bcrypt"

// bcryptCost 12 matches the cost the stored hashes were created with.
// Lowering it would silently weaken new hashes next to old ones.
const bcryptCost = 12

// MinPasswordLength is enforced by the issuance flow before hashing,
// not by the verifier.
const MinPasswordLength = 6

// HashPassword produces a salted adaptive hash of the secret.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches the stored hash.
// Never compare secrets directly; bcrypt's comparison is constant-time
// over the derived key.
func CheckPassword(password, storedHash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(password)) == nil
}
