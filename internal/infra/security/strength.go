package security

import (
	zxcvbn "github.com/nbutton23/zxcvbn-go"
)

// PasswordStrengthScore rates a password 0-4 using zxcvbn. The score is
// logged when a password is set; the demo policy itself only enforces a
// minimum length.
func PasswordStrengthScore(password string, userInputs ...string) int {
	if password == "" {
		return 0
	}
	return zxcvbn.PasswordStrength(password, userInputs).Score
}
