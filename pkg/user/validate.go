package user

import (
	"net/mail"
	"strings"
	"unicode/utf8"
)

const (
	maxNameLen     = 100
	maxEmailLen    = 254
	minPasswordLen = 8
	// bcrypt ignores everything past 72 bytes
	maxPasswordLen = 72
)

type FieldError struct {
	Location string `json:"location"`
	Param    string `json:"param"`
	Value    string `json:"value,omitempty"`
	Msg      string `json:"msg"`
}

// ValidationErrors is returned when input fails shape checks.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	msgs := make([]string, 0, len(v))
	for _, fe := range v {
		msgs = append(msgs, fe.Param+": "+fe.Msg)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func ValidateRegistration(name, email, password string) error {
	var errs ValidationErrors

	name = strings.TrimSpace(name)
	switch {
	case name == "":
		errs = append(errs, FieldError{Location: "body", Param: "name", Msg: "is required"})
	case utf8.RuneCountInString(name) > maxNameLen:
		errs = append(errs, FieldError{Location: "body", Param: "name", Value: name, Msg: "is too long"})
	}

	if fe, ok := checkEmail(email); !ok {
		errs = append(errs, fe)
	}

	switch {
	case password == "":
		errs = append(errs, FieldError{Location: "body", Param: "password", Msg: "is required"})
	case len(password) < minPasswordLen:
		errs = append(errs, FieldError{Location: "body", Param: "password", Msg: "must be at least 8 characters"})
	case len(password) > maxPasswordLen:
		errs = append(errs, FieldError{Location: "body", Param: "password", Msg: "must be at most 72 bytes"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ValidateLogin only checks presence; anything stricter would tell an
// attacker which inputs could never match an account.
func ValidateLogin(email, password string) error {
	var errs ValidationErrors
	if strings.TrimSpace(email) == "" {
		errs = append(errs, FieldError{Location: "body", Param: "email", Msg: "is required"})
	}
	if password == "" {
		errs = append(errs, FieldError{Location: "body", Param: "password", Msg: "is required"})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func checkEmail(email string) (FieldError, bool) {
	email = strings.TrimSpace(email)
	if email == "" {
		return FieldError{Location: "body", Param: "email", Msg: "is required"}, false
	}
	if len(email) > maxEmailLen {
		return FieldError{Location: "body", Param: "email", Msg: "is too long"}, false
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return FieldError{Location: "body", Param: "email", Value: email, Msg: "is not a valid email address"}, false
	}
	return FieldError{}, true
}
