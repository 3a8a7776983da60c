package accounts

import "golang.org/x/crypto/bcrypt"

// BcryptCost is the cost factor for bcrypt password hashing.
const BcryptCost = 12

// HashPassword produces a salted one-way hash of the password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword reports whether the password matches the stored hash. The
// comparison runs through bcrypt's own constant-time check.
func VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// validatePassword enforces password length requirements before hashing.
// The upper bound is bcrypt's 72-byte input limit; GenerateFromPassword
// rejects anything longer.
func validatePassword(password string) error {
	if len(password) < 8 {
		return ErrPasswordTooShort
	}
	if len(password) > 72 {
		return ErrPasswordTooLong
	}
	return nil
}
