package yml

import (
	"os"
	"strings"
	"unicode"
)

const envPrefix = "${env."

// ExpandEnv substitutes every ${env.NAME} reference with the value of the
// environment variable NAME; unset variables expand to an empty string. A
// reference with a malformed name is kept literally; an unterminated one
// ends the expansion.
func ExpandEnv(text string) string {
	if !strings.Contains(text, envPrefix) {
		return text
	}
	var builder strings.Builder
	for {
		start := strings.Index(text, envPrefix)
		if start < 0 {
			builder.WriteString(text)
			return builder.String()
		}
		builder.WriteString(text[:start])
		rest := text[start+len(envPrefix):]
		end := strings.IndexByte(rest, '}')
		if end < 0 {
			builder.WriteString(text[start:])
			return builder.String()
		}
		name := rest[:end]
		if !isEnvName(name) {
			builder.WriteString(envPrefix)
			text = rest
			continue
		}
		value, _ := os.LookupEnv(name)
		builder.WriteString(value)
		text = rest[end+1:]
	}
}

func isEnvName(name string) bool {
	for _, r := range name {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return false
		}
	}
	return true
}
