// Package redact scrubs credentials from text before it is logged, dumped
// with --debug, or returned in an error message.
package redact

import (
	"regexp"
	"strings"
)

const redacted = "[REDACTED]"

// patterns holds secret-detection regexes in priority order.
var patterns = []*regexp.Regexp{
	// Google API keys (Gemini)
	regexp.MustCompile(`AIza[0-9A-Za-z\-_]{35}`),
	// OpenAI / Anthropic secret keys, word-boundary aware
	regexp.MustCompile(`(?:^|\s|["'=])sk-[a-zA-Z0-9\-_]{20,}`),
	// Bearer tokens of at least 20 chars
	regexp.MustCompile(`(?i)Bearer\s+[A-Za-z0-9\-._~+/]{20,}=*`),
	// API keys passed as query parameters
	regexp.MustCompile(`(?i)([?&](?:key|api_key|apikey)=)[^&\s"]+`),
	// Key headers echoed in dumps
	regexp.MustCompile(`(?i)((?:x-goog-api-key|x-api-key)\s*:\s*)\S+`),
}

// Redact replaces known secret patterns in input with [REDACTED].
func Redact(input string) string {
	for _, re := range patterns {
		if re.NumSubexp() > 0 {
			input = re.ReplaceAllString(input, "${1}"+redacted)
			continue
		}
		input = re.ReplaceAllString(input, redacted)
	}
	return input
}

// Secrets replaces every literal occurrence of the given values with
// [REDACTED]. Empty values and values shorter than 8 characters are ignored
// so a misconfigured short key cannot blank out ordinary text.
func Secrets(input string, secrets ...string) string {
	for _, s := range secrets {
		if len(s) < 8 {
			continue
		}
		input = strings.ReplaceAll(input, s, redacted)
	}
	return input
}
