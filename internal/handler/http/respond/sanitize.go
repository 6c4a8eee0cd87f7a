package respond

import "regexp"

// Patterns are applied in order; the Anthropic pattern must run before the
// generic sk- one.
var (
	anthropicKeyPattern = regexp.MustCompile(`sk-ant-[a-zA-Z0-9-_]+`)
	openaiKeyPattern    = regexp.MustCompile(`sk-[a-zA-Z0-9-_]{10,}`)
	googleKeyPattern    = regexp.MustCompile(`AIza[0-9A-Za-z_-]{20,}`)
	bearerPattern       = regexp.MustCompile(`Bearer [A-Za-z0-9._~+/=-]+`)
	dsnPasswordPattern  = regexp.MustCompile(`://([^:/@]*):([^@]+)@`)
)

// SanitizeError masks API keys, bearer tokens and DSN passwords in err's message.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	msg = anthropicKeyPattern.ReplaceAllString(msg, "sk-ant-****")
	msg = openaiKeyPattern.ReplaceAllString(msg, "sk-****")
	msg = googleKeyPattern.ReplaceAllString(msg, "AIza****")
	msg = bearerPattern.ReplaceAllString(msg, "Bearer ****")
	msg = dsnPasswordPattern.ReplaceAllString(msg, "://$1:****@")
	return msg
}
