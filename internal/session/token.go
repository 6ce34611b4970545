package session

import "golang.org/x/crypto/bcrypt"

// hashSecret hashes a session secret with the configured cost so a leaked
// session store does not expose live credentials.
func hashSecret(secret string, cost int) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(secret), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// compareSecret verifies a presented secret against its stored hash.
func compareSecret(hashed, secret string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(secret))
}
