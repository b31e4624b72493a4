package user

import (
	"strings"
	"unicode"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/classcheck/classcheck/core"
)

const (
	pwdMinLength           = 8
	pwdMaxSimilarityRatio  = 0.7
	pwdTooShortError       = "password not long enough (min 8 characters)"
	pwdTooSimilarError     = "password too similar to personal information"
	pwdEntirelyNumberError = "password cannot be entirely numeric"
	pwdTooCommonError      = "password too common"
)

var commonPasswords = []string{
	"password", "password1", "12345678", "123456789", "qwertyuiop",
	"iloveyou", "sunshine", "princess", "football", "baseball",
	"welcome1", "admin123", "letmein1", "changeme",
}

// validatePassword enforces the account password policy: a minimum length,
// not entirely numeric, not a well-known password, and not too similar to
// the owner's email or names.
func validatePassword(pwd string, attrs ...string) error {
	var flds []core.FieldError
	fldError := func(msg string) core.FieldError {
		return core.FieldError{Field: "password", Error: msg}
	}

	if len(pwd) < pwdMinLength {
		flds = append(flds, fldError(pwdTooShortError))
	}

	if isEntirelyNumeric(pwd) {
		flds = append(flds, fldError(pwdEntirelyNumberError))
	}

	lowered := strings.ToLower(pwd)
	for _, common := range commonPasswords {
		if lowered == common {
			flds = append(flds, fldError(pwdTooCommonError))
			break
		}
	}

	for _, attr := range attrs {
		if attr == "" {
			continue
		}
		if tooSimilar(lowered, strings.ToLower(attr)) {
			flds = append(flds, fldError(pwdTooSimilarError))
			break
		}
	}

	if len(flds) > 0 {
		return core.NewValidationError(nil, flds...)
	}
	return nil
}

func isEntirelyNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// tooSimilar compares the password against an owner attribute, including
// the parts of an email address.
func tooSimilar(pwd, attr string) bool {
	parts := append(strings.FieldsFunc(attr, func(r rune) bool {
		return r == '@' || r == '.' || r == '_' || r == '-'
	}), attr)
	for _, part := range parts {
		if part == "" {
			continue
		}
		matcher := difflib.NewMatcher(strings.Split(pwd, ""), strings.Split(part, ""))
		if matcher.QuickRatio() >= pwdMaxSimilarityRatio {
			return true
		}
	}
	return false
}
