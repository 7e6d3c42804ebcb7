package domain

import "regexp"

// phonePattern matches 11-digit CN mobile numbers: leading 1, second digit 3-9.
var phonePattern = regexp.MustCompile(`^1[3-9]\d{9}$`)

// ValidPhone reports whether the value is a well-formed mobile number.
func ValidPhone(phone string) bool {
	return phonePattern.MatchString(phone)
}
