package env

import (
	"fmt"
	"regexp"
	"strings"

	"al.essio.dev/pkg/shellescape"
)

const gitHubDelimiter = "TEST_COLLECTOR_EOF"

var formatters = map[Format]func(name, value string) string{
	FormatEnv:    formatEnvValue,
	FormatDotenv: formatDotenvValue,
	FormatBash:   formatBashValue,
	FormatGitHub: formatGitHubValue,
}

func formatEnvValue(name, value string) string {
	return fmt.Sprintf("%s=%s\n", name, value)
}

var dotenvUnsafe = regexp.MustCompile(`[^\w@%+=:,./-]`)

// dotenvEscaper escapes a value for a double-quoted godotenv string.
var dotenvEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
	`$`, `\$`,
)

// formatDotenvValue writes values that godotenv.Read returns unchanged.
// Single quotes are taken literally by godotenv, so they are preferred.
// godotenv cannot read back a value ending in a backslash, nor a double-quoted
// value ending in a double quote.
func formatDotenvValue(name, value string) string {
	switch {
	case !dotenvUnsafe.MatchString(value):
		return fmt.Sprintf("%s=%s\n", name, value)
	case !strings.ContainsAny(value, "'\r"):
		return fmt.Sprintf("%s='%s'\n", name, value)
	default:
		return fmt.Sprintf("%s=\"%s\"\n", name, dotenvEscaper.Replace(value))
	}
}

// shellescape.Quote only adds quotes when the value needs them.

func formatBashValue(name, value string) string {
	return fmt.Sprintf("export %s=%s\n", name, shellescape.Quote(value))
}

// formatGitHubValue uses heredoc syntax for multiline values. The delimiter
// is extended until it does not occur in the value.
func formatGitHubValue(name, value string) string {
	if !strings.ContainsAny(value, "\r\n") {
		return fmt.Sprintf("%s=%s\n", name, value)
	}

	delimiter := gitHubDelimiter
	for strings.Contains(value, delimiter) {
		delimiter += "_"
	}
	return fmt.Sprintf("%s<<%s\n%s\n%s\n", name, delimiter, value, delimiter)
}
