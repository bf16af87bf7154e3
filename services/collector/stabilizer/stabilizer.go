package stabilizer

import (
	"regexp"
)

const (
	addressPlaceholder   = "0x<address>"
	timestampPlaceholder = "<timestamp>"
	redactedPlaceholder  = "<redacted>"
)

var (
	objectAddress = regexp.MustCompile(` at 0x[0-9A-Fa-f]+>`)
	hexAddress    = regexp.MustCompile(`\b0x[0-9A-Fa-f]{6,}\b`)
	timestamp     = regexp.MustCompile(`\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}:\d{2}(\.\d+)?(Z|[+-]\d{2}:?\d{2})?`)
	elapsed       = regexp.MustCompile(`\(elapsed [^)]*\)`)
	localPort     = regexp.MustCompile(`(tcp[46]? [^ ]+):\d+->`)
	secretQuery   = regexp.MustCompile(`(?i)([?&;](?:[\w.-]*[_-])?(?:private_token|token|key|password|secret)=)[^&#\s"']*`)
	userPassword  = regexp.MustCompile(`(\w+://[^/\s:@]+:)[^/\s@]+@`)
)

// Stabilize makes error text deterministic and free of secrets, so that the same failure produces the same
// text on every collection
func Stabilize(text string) string {
	text = objectAddress.ReplaceAllString(text, ">")
	text = hexAddress.ReplaceAllString(text, addressPlaceholder)
	text = timestamp.ReplaceAllString(text, timestampPlaceholder)
	text = elapsed.ReplaceAllString(text, "(elapsed <duration>)")
	text = localPort.ReplaceAllString(text, "${1}:<port>->")

	return RedactURL(text)
}

// StabilizeError returns the stabilized error text or the empty string for a nil error
func StabilizeError(err error) string {
	if err == nil {
		return ""
	}

	return Stabilize(err.Error())
}

// RedactURL replaces secret query values and URL passwords with a fixed placeholder
func RedactURL(text string) string {
	text = secretQuery.ReplaceAllString(text, "${1}"+redactedPlaceholder)
	return userPassword.ReplaceAllString(text, "${1}"+redactedPlaceholder+"@")
}
