// validate.go - Input validation for the identity endpoints.
package server

import (
	"regexp"
	"strings"
)

const (
	minEmailLength    = 13
	minUsernameLength = 3
	minPasswordLength = 5
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// validateRegisterInput checks the registration payload after trimming and
// returns one fieldError per violated constraint. An empty slice means the
// input is acceptable.
func validateRegisterInput(email, username, password string) []fieldError {
	var errs []fieldError

	if len(email) < minEmailLength {
		errs = append(errs, fieldError{Field: "email", Message: "must be at least 13 characters long"})
	} else if !emailRegex.MatchString(email) {
		errs = append(errs, fieldError{Field: "email", Message: "must be a valid email address"})
	}
	if len(username) < minUsernameLength {
		errs = append(errs, fieldError{Field: "username", Message: "must be at least 3 characters long"})
	}
	if len(password) < minPasswordLength {
		errs = append(errs, fieldError{Field: "password", Message: "must be at least 5 characters long"})
	}

	return errs
}

// validateLoginInput checks the login payload. The username field may hold
// either a username or an email address, so only the length bound applies.
func validateLoginInput(username, password string) []fieldError {
	var errs []fieldError

	if len(username) < minUsernameLength {
		errs = append(errs, fieldError{Field: "username", Message: "must be at least 3 characters long"})
	}
	if len(password) < minPasswordLength {
		errs = append(errs, fieldError{Field: "password", Message: "must be at least 5 characters long"})
	}

	return errs
}

// trimmed returns s with surrounding whitespace removed. Handlers sanitize
// every credential field with this before validation.
func trimmed(s string) string {
	return strings.TrimSpace(s)
}
