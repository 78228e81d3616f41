package entity

import (
	"strings"
	"unicode/utf8"
)

// PasswordMinLength is the minimum number of characters of a password.
const PasswordMinLength = 8

// PasswordSymbols lists the symbols a strong password may use to satisfy the
// symbol requirement.
const PasswordSymbols = "!@#$%^&*"

// IsStrongPassword reports whether password has at least PasswordMinLength
// characters and contains an ASCII upper case letter, an ASCII lower case
// letter, an ASCII digit and one of PasswordSymbols.
func IsStrongPassword(password string) bool {
	if utf8.RuneCountInString(password) < PasswordMinLength {
		return false
	}

	var upper, lower, digit, symbol bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(PasswordSymbols, r):
			symbol = true
		}
	}

	return upper && lower && digit && symbol
}
