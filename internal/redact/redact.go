// Package redact scrubs credentials from strings before they are logged or
// printed. PostgreSQL connection URLs end up in driver errors and startup
// logs; the password part must never reach either.
package redact

import (
	"net/url"
	"regexp"
)

// RedactedCredentialPlaceholder replaces any credential that is removed.
const RedactedCredentialPlaceholder = "[REDACTED_CREDENTIAL]"

const maskedPassword = "xxxxx"

var (
	// user:password@ in a connection URL
	dbConnRegex = regexp.MustCompile(`(?i)\b((?:postgres(?:ql)?|pgx)://)[^@/\s]+@`)

	// password=... in a key/value DSN or query string
	passwordRegex = regexp.MustCompile(`(?i)\b(password|passwd|pwd)=[^&\s]+`)
)

// String removes credentials from input.
func String(input string) string {
	if input == "" {
		return input
	}
	out := dbConnRegex.ReplaceAllString(input, "${1}"+RedactedCredentialPlaceholder+"@")
	return passwordRegex.ReplaceAllString(out, "${1}="+RedactedCredentialPlaceholder)
}

// Error is String applied to err.Error(). A nil error yields "".
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}

// DSN masks the password of a connection URL while keeping the user, host
// and database visible. Inputs that do not parse as URLs, such as SQLite
// file paths, are passed through String.
func DSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return String(dsn)
	}
	if _, hasPassword := u.User.Password(); hasPassword {
		u.User = url.UserPassword(u.User.Username(), maskedPassword)
	}
	return passwordRegex.ReplaceAllString(u.String(), "${1}="+RedactedCredentialPlaceholder)
}
