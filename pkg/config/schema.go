package config

import (
	"strings"

	"github.com/samber/lo"

	"github.com/cloudposse/test-collector/pkg/ci"
	"github.com/cloudposse/test-collector/pkg/env"
)

type OutputFormat string

const (
	FormatJSON OutputFormat = "json"
	FormatYAML OutputFormat = "yaml"

	// Shell variable formats render the run environment as analytics overrides.
	FormatEnv    = OutputFormat(env.FormatEnv)
	FormatDotenv = OutputFormat(env.FormatDotenv)
	FormatBash   = OutputFormat(env.FormatBash)
	FormatGitHub = OutputFormat(env.FormatGitHub)
)

// SupportedFormats lists every output format in display order.
var SupportedFormats = append(
	[]OutputFormat{FormatJSON, FormatYAML},
	lo.Map(env.SupportedFormats, func(f env.Format, _ int) OutputFormat { return OutputFormat(f) })...,
)

// SupportedFormatNames returns SupportedFormats as a comma-separated list.
func SupportedFormatNames() string {
	return strings.Join(lo.Map(SupportedFormats, func(f OutputFormat, _ int) string {
		return string(f)
	}), ", ")
}

// IsShell reports whether f renders shell variables rather than a document.
func (f OutputFormat) IsShell() bool {
	_, err := env.ParseFormat(string(f))
	return err == nil
}

// Configuration is the collector CLI configuration.
type Configuration struct {
	Logs      Logs      `mapstructure:"logs" yaml:"logs"`
	Output    Output    `mapstructure:"output" yaml:"output"`
	Profiler  Profiler  `mapstructure:"profiler" yaml:"profiler"`
	Analytics Analytics `mapstructure:"analytics" yaml:"analytics"`
	// EnvFiles are dotenv files layered over the process environment.
	EnvFiles  []string  `mapstructure:"env_files" yaml:"env_files"`

	// ConfigFileUsed is the path of the config file that was read, if any.
	ConfigFileUsed string `mapstructure:"-" yaml:"-"`
}

type Logs struct {
	Level string `mapstructure:"level" yaml:"level"`
	File  string `mapstructure:"file" yaml:"file"`
}

type Output struct {
	Format OutputFormat `mapstructure:"format" yaml:"format"`
	// File receives the output in append mode instead of stdout.
	File   string       `mapstructure:"file" yaml:"file"`
}

type Profiler struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

// Analytics holds explicit run environment overrides. Empty values are unset.
type Analytics struct {
	Key          string `mapstructure:"key" yaml:"key"`
	URL          string `mapstructure:"url" yaml:"url"`
	Branch       string `mapstructure:"branch" yaml:"branch"`
	Sha          string `mapstructure:"sha" yaml:"sha"`
	Number       string `mapstructure:"number" yaml:"number"`
	JobID        string `mapstructure:"job_id" yaml:"job_id"`
	Message      string `mapstructure:"message" yaml:"message"`
	DebugEnabled bool   `mapstructure:"debug_enabled" yaml:"debug_enabled"`
}

// Overrides returns the set overrides keyed by their environment variable
// names, ready to be layered over the process environment.
func (a Analytics) Overrides() env.Map {
	overrides := env.Map{}
	for name, value := range map[string]string{
		ci.AnalyticsKey:     a.Key,
		ci.AnalyticsURL:     a.URL,
		ci.AnalyticsBranch:  a.Branch,
		ci.AnalyticsSha:     a.Sha,
		ci.AnalyticsNumber:  a.Number,
		ci.AnalyticsJobID:   a.JobID,
		ci.AnalyticsMessage: a.Message,
	} {
		if value != "" {
			overrides[name] = value
		}
	}
	if a.DebugEnabled {
		overrides[ci.AnalyticsDebugEnabled] = "true"
	}
	return overrides
}
