package env

import (
	"sort"
	"strings"

	"github.com/samber/lo"

	errUtils "github.com/cloudposse/test-collector/errors"
	"github.com/cloudposse/test-collector/pkg/perf"
)

// Format is a shell variable output format.
type Format string

const (
	// FormatEnv outputs name=value pairs without quoting.
	FormatEnv Format = "env"
	// FormatDotenv outputs name=value pairs quoted so godotenv reads them back.
	FormatDotenv Format = "dotenv"
	// FormatBash outputs export name=value statements with shell-safe quoting.
	FormatBash Format = "bash"
	// FormatGitHub outputs name=value, or heredoc syntax for multiline values,
	// as accepted by $GITHUB_ENV and $GITHUB_OUTPUT.
	FormatGitHub Format = "github"
)

// SupportedFormats lists the shell variable formats in display order.
var SupportedFormats = []Format{FormatEnv, FormatDotenv, FormatBash, FormatGitHub}

// ParseFormat converts a format name to a Format.
func ParseFormat(s string) (Format, error) {
	defer perf.Track("env.ParseFormat")()

	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if !lo.Contains(SupportedFormats, f) {
		return "", errUtils.Build(errUtils.ErrInvalidOutputFormat).
			WithHintf("Got %q. Supported shell formats: %s", s, SupportedFormatNames()).
			WithExitCode(errUtils.ExitCodeUsage).
			Err()
	}
	return f, nil
}

// SupportedFormatNames returns SupportedFormats as a comma-separated list.
func SupportedFormatNames() string {
	return strings.Join(lo.Map(SupportedFormats, func(f Format, _ int) string {
		return string(f)
	}), ", ")
}

// FormatData renders data in the given format, one variable per line, sorted
// by name. Variables with empty values are absent and skipped.
func FormatData(data Map, format Format) (string, error) {
	defer perf.Track("env.FormatData")()

	formatter, ok := formatters[format]
	if !ok {
		return "", errUtils.Build(errUtils.ErrInvalidOutputFormat).
			WithHintf("Got %q. Supported shell formats: %s", format, SupportedFormatNames()).
			WithExitCode(errUtils.ExitCodeUsage).
			Err()
	}

	names := make([]string, 0, len(data))
	for name, value := range data {
		if value != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	var sb strings.Builder
	for _, name := range names {
		sb.WriteString(formatter(name, data[name]))
	}
	return sb.String(), nil
}
