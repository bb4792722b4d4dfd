// Package redact defines the substitution tokens used when anonymizing
// detected sensitive literals. It is a leaf package so both the scan engine
// (which must never re-match its own redaction output) and the anonymization
// engine can share the token table.
package redact

import (
	"regexp"
	"strings"
)

// Categories whose replacement keeps the last four characters of the match,
// so redacted output stays recognizable to a human reviewer.
var partialTemplates = map[string]string{
	"credit_card":  "XXXX-XXXX-XXXX-%LAST4%",
	"ssn":          "XXX-XX-%LAST4%",
	"phone_number": "(XXX) XXX-%LAST4%",
}

// Categories replaced by a fixed token
var fullTemplates = map[string]string{
	"email":                 "email@redacted.com",
	"ip_address":            "XXX.XXX.XXX.XXX",
	"date_of_birth":         "XX/XX/XXXX",
	"address":               "[REDACTED ADDRESS]",
	"password":              "password: [REDACTED]",
	"api_key":               "[REDACTED API KEY]",
	"aws_access_key":        "[REDACTED AWS ACCESS KEY]",
	"aws_secret_key":        "[REDACTED AWS SECRET KEY]",
	"gcp_api_key":           "[REDACTED GCP API KEY]",
	"github_token":          "[REDACTED GITHUB TOKEN]",
	"slack_token":           "[REDACTED SLACK TOKEN]",
	"jwt":                   "[REDACTED JWT]",
	"private_key":           "[REDACTED PRIVATE KEY]",
	"name":                  "[REDACTED NAME]",
	"url":                   "[REDACTED URL]",
	"uuid":                  "[REDACTED UUID]",
	"passport":              "[REDACTED PASSPORT]",
	"bank_account":          "[REDACTED BANK ACCOUNT]",
	"iban":                  "[REDACTED IBAN]",
	"uk_nino":               "[REDACTED NATIONAL ID]",
	"classification_marker": "[REDACTED CLASSIFICATION]",
}

// Replacement returns the redaction token for one matched literal of the
// given category. Unknown categories (custom patterns included) fall back to
// a bracketed token carrying the uppercased category name.
func Replacement(category, match string) string {
	if tmpl, ok := partialTemplates[category]; ok {
		lastFour := "1234"
		if len(match) >= 4 {
			lastFour = match[len(match)-4:]
		}
		return strings.Replace(tmpl, "%LAST4%", lastFour, 1)
	}
	if token, ok := fullTemplates[category]; ok {
		return token
	}
	return "[REDACTED " + strings.ToUpper(category) + "]"
}

var (
	bracketToken = regexp.MustCompile(`^\[REDACTED [A-Z0-9_ -]+\]$`)
	cardToken    = regexp.MustCompile(`^XXXX-XXXX-XXXX-.{1,4}$`)
	ssnToken     = regexp.MustCompile(`^XXX-XX-.{1,4}$`)
	phoneToken   = regexp.MustCompile(`^\(XXX\) XXX-.{1,4}$`)
)

// IsToken reports whether a literal is one of our own redaction tokens.
// The scan engine drops such matches so that anonymized output never
// re-triggers detection (Go's RE2 has no lookaround, so collisions like the
// email placeholder matching the email pattern cannot be excluded in the
// expressions themselves).
func IsToken(literal string) bool {
	switch literal {
	case "email@redacted.com", "XXX.XXX.XXX.XXX", "XX/XX/XXXX", "password: [REDACTED]":
		return true
	}
	return bracketToken.MatchString(literal) ||
		cardToken.MatchString(literal) ||
		ssnToken.MatchString(literal) ||
		phoneToken.MatchString(literal)
}
