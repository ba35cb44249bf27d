package config

import (
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/adrg/xdg"
	"github.com/cockroachdb/errors"
	"github.com/go-viper/mapstructure/v2"
	"github.com/samber/lo"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	errUtils "github.com/cloudposse/test-collector/errors"
	"github.com/cloudposse/test-collector/pkg/ci"
	"github.com/cloudposse/test-collector/pkg/env"
	log "github.com/cloudposse/test-collector/pkg/logger"
	"github.com/cloudposse/test-collector/pkg/perf"
)

// LoadOptions controls where configuration is read from.
type LoadOptions struct {
	// ConfigFile is an explicit config file path. When set, the file must exist.
	ConfigFile string
	// Flags are bound to their configuration keys when present in the set.
	Flags *pflag.FlagSet
	// SearchPaths replaces the default config search directories.
	SearchPaths []string
}

// flagKeys maps flag names to configuration keys.
var flagKeys = map[string]string{
	LogsLevelFlag:    "logs.level",
	LogsFileFlag:     "logs.file",
	FormatFlag:       "output.format",
	OutputFileFlag:   "output.file",
	EnvFileFlag:      "env_files",
	ProfileFlag:      "profiler.enabled",
	KeyFlag:          "analytics.key",
	URLFlag:          "analytics.url",
	BranchFlag:       "analytics.branch",
	ShaFlag:          "analytics.sha",
	NumberFlag:       "analytics.number",
	JobIDFlag:        "analytics.job_id",
	MessageFlag:      "analytics.message",
	DebugEnabledFlag: "analytics.debug_enabled",
}

// analyticsEnv maps analytics keys to the variables CI pipelines already set.
var analyticsEnv = map[string]string{
	"analytics.key":           ci.AnalyticsKey,
	"analytics.url":           ci.AnalyticsURL,
	"analytics.branch":        ci.AnalyticsBranch,
	"analytics.sha":           ci.AnalyticsSha,
	"analytics.number":        ci.AnalyticsNumber,
	"analytics.job_id":        ci.AnalyticsJobID,
	"analytics.message":       ci.AnalyticsMessage,
	"analytics.debug_enabled": ci.AnalyticsDebugEnabled,
}

// DefaultSearchPaths returns the directories searched for test-collector.yaml,
// from highest to lowest priority.
func DefaultSearchPaths() []string {
	return []string{
		".",
		filepath.Join(xdg.ConfigHome, CollectorCommand),
	}
}

// Load reads configuration from (lowest to highest priority) defaults, the
// config file, environment variables and changed flags.
func Load(opts LoadOptions) (*Configuration, error) {
	defer perf.Track("config.Load")()

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaultConfiguration(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, name := range analyticsEnv {
		if err := v.BindEnv(key, name); err != nil {
			return nil, errors.Wrapf(err, "failed to bind env var %s for %s", name, key)
		}
	}

	if err := bindFlags(v, opts.Flags); err != nil {
		return nil, err
	}

	if err := readConfigFile(v, opts); err != nil {
		return nil, err
	}

	var cfg Configuration
	if err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		outputFormatHookFunc(),
		lenientBoolHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))); err != nil {
		return nil, errUtils.Build(errUtils.ErrConfigLoad).WithCause(err).WithExitCode(errUtils.ExitCodeUsage).Err()
	}
	cfg.ConfigFileUsed = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log.Debug("Loaded configuration", "file", cfg.ConfigFileUsed, "format", cfg.Output.Format, "logs_level", cfg.Logs.Level)
	return &cfg, nil
}

// Validate checks values that cannot be expressed by the config types.
func (c *Configuration) Validate() error {
	if _, err := log.ParseLogLevel(c.Logs.Level); err != nil {
		return errUtils.Build(errUtils.ErrInvalidConfig).
			WithCause(err).
			WithHint("Set logs.level to one of Trace, Debug, Info, Warning, Off").
			WithExitCode(errUtils.ExitCodeUsage).
			Err()
	}

	if !lo.Contains(SupportedFormats, c.Output.Format) {
		return errUtils.Build(errUtils.ErrInvalidOutputFormat).
			WithHintf("Got %q. Use one of: %s", c.Output.Format, SupportedFormatNames()).
			WithExitCode(errUtils.ExitCodeUsage).
			Err()
	}

	if number := c.Analytics.Number; number != "" {
		if _, err := strconv.Atoi(strings.TrimSpace(number)); err != nil {
			return errUtils.Build(errUtils.ErrInvalidConfig).
				WithCause(err).
				WithHintf("Got %q for the run number. Set --%s, %s or analytics.number to an integer", number, NumberFlag, ci.AnalyticsNumber).
				WithExitCode(errUtils.ExitCodeUsage).
				Err()
		}
	}

	return nil
}

func setDefaultConfiguration(v *viper.Viper) {
	v.SetDefault("logs.level", string(log.LogLevelInfo))
	v.SetDefault("logs.file", "/dev/stderr")
	v.SetDefault("output.format", string(FormatJSON))
	v.SetDefault("output.file", "")
	v.SetDefault("env_files", []string{})
	v.SetDefault("profiler.enabled", false)
	for key := range analyticsEnv {
		if key == "analytics.debug_enabled" {
			v.SetDefault(key, false)
			continue
		}
		v.SetDefault(key, "")
	}
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	if flags == nil {
		return nil
	}
	for name, key := range flagKeys {
		flag := flags.Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return errors.Wrapf(err, "failed to bind flag --%s to %s", name, key)
		}
	}
	return nil
}

func readConfigFile(v *viper.Viper, opts LoadOptions) error {
	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.SetConfigName(CliConfigFileName)
		searchPaths := opts.SearchPaths
		if len(searchPaths) == 0 {
			searchPaths = DefaultSearchPaths()
		}
		for _, p := range searchPaths {
			v.AddConfigPath(p)
		}
	}

	err := v.ReadInConfig()
	if err == nil {
		return nil
	}

	var notFound viper.ConfigFileNotFoundError
	if opts.ConfigFile == "" && errors.As(err, &notFound) {
		log.Debug("Config file not found, using defaults", "name", CliConfigFileName)
		return nil
	}

	return errUtils.Build(errUtils.ErrConfigLoad).
		WithCause(err).
		WithHintf("Check the config file %s", lo.CoalesceOrEmpty(opts.ConfigFile, CliConfigFileName+".yaml")).
		WithExitCode(errUtils.ExitCodeUsage).
		Err()
}

// outputFormatHookFunc normalizes output format names.
func outputFormatHookFunc() mapstructure.DecodeHookFuncType {
	return func(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
		if f.Kind() != reflect.String || t != reflect.TypeOf(OutputFormat("")) {
			return data, nil
		}
		return OutputFormat(strings.ToLower(strings.TrimSpace(data.(string)))), nil
	}
}

// lenientBoolHookFunc decodes strings into bools the way the resolver reads
// BUILDKITE_ANALYTICS_DEBUG_ENABLED: values strconv cannot parse are false.
func lenientBoolHookFunc() mapstructure.DecodeHookFuncType {
	return func(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
		if f.Kind() != reflect.String || t.Kind() != reflect.Bool {
			return data, nil
		}
		return env.ParseBool(data.(string)), nil
	}
}
