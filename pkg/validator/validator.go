package validator

import (
	"regexp"
	"strings"
)

type ValidationErrors map[string]string

func (v ValidationErrors) HasErrors() bool {
	return len(v) > 0
}

func (v ValidationErrors) Add(field, message string) {
	v[field] = message
}

// bcrypt ignores everything past 72 bytes, so longer passwords are refused
// rather than silently truncated.
const maxPasswordBytes = 72

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
var phoneRegex = regexp.MustCompile(`^\+?[0-9 ().-]{3,32}$`)

func ValidateRegister(username, password, firstName, lastName, phone string) ValidationErrors {
	errs := make(ValidationErrors)

	validateUsername("username", username, errs)
	validatePassword(password, errs)

	// Names
	validateName("first_name", "First name", firstName, errs)
	validateName("last_name", "Last name", lastName, errs)

	// Phone
	phone = strings.TrimSpace(phone)
	if phone == "" {
		errs.Add("phone", "Phone is required")
	} else if !phoneRegex.MatchString(phone) {
		errs.Add("phone", "Invalid phone number")
	}

	return errs
}

func ValidateLogin(username, password string) ValidationErrors {
	errs := make(ValidationErrors)

	if strings.TrimSpace(username) == "" {
		errs.Add("username", "Username is required")
	}

	if password == "" {
		errs.Add("password", "Password is required")
	}

	return errs
}

func ValidateMessage(toUsername, body string) ValidationErrors {
	errs := make(ValidationErrors)

	if strings.TrimSpace(toUsername) == "" {
		errs.Add("to_username", "Recipient is required")
	}

	if strings.TrimSpace(body) == "" {
		errs.Add("body", "Message body is required")
	} else if len(body) > 10000 {
		errs.Add("body", "Message body is too long")
	}

	return errs
}

func validateUsername(field, username string, errs ValidationErrors) {
	if username == "" {
		errs.Add(field, "Username is required")
	} else if username != strings.TrimSpace(username) {
		errs.Add(field, "Username cannot start or end with whitespace")
	} else if len(username) < 3 {
		errs.Add(field, "Username must be at least 3 characters")
	} else if len(username) > 50 {
		errs.Add(field, "Username is too long")
	} else if !usernameRegex.MatchString(username) {
		errs.Add(field, "Username can only contain letters, numbers, _ and -")
	}
}

func validateName(field, label, value string, errs ValidationErrors) {
	value = strings.TrimSpace(value)
	if value == "" {
		errs.Add(field, label+" is required")
	} else if len(value) > 100 {
		errs.Add(field, label+" is too long")
	}
}

func validatePassword(password string, errs ValidationErrors) {
	if password == "" {
		errs.Add("password", "Password is required")
	} else if len(password) > maxPasswordBytes {
		errs.Add("password", "Password is too long")
	}
}
