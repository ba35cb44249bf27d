package cmd

import (
	"github.com/spf13/cobra"

	errUtils "github.com/cloudposse/test-collector/errors"
	"github.com/cloudposse/test-collector/pkg/ci"
	"github.com/cloudposse/test-collector/pkg/config"
	"github.com/cloudposse/test-collector/pkg/env"
	log "github.com/cloudposse/test-collector/pkg/logger"
	"github.com/cloudposse/test-collector/pkg/perf"
	"github.com/cloudposse/test-collector/pkg/version"
)

// cliContext carries state shared by the root command and its subcommands.
type cliContext struct {
	// values is the process environment the run environment is resolved from.
	values env.Values
	// newKey generates the default run key when --default-key is not given.
	newKey func() string

	configFile string
	cliConfig  *config.Configuration
	closeLog   func() error
}

// Execute builds the command tree and runs it against the process environment.
// This is called by main.main().
func Execute() error {
	rootCmd, cli := newRootCmd(env.OS(), ci.NewKey)
	defer cli.cleanup()

	return rootCmd.Execute()
}

// newRootCmd creates the root command. Tests inject values and newKey.
func newRootCmd(values env.Values, newKey func() string) (*cobra.Command, *cliContext) {
	cli := &cliContext{
		values: values,
		newKey: newKey,
	}

	rootCmd := &cobra.Command{
		Use:     config.CollectorCommand,
		Short:   "Resolve CI run metadata for test analytics",
		Long:    `Detects the CI provider a test run executes under and prints the normalized run environment used to correlate test results.`,
		Version: version.Version,
		// Errors are formatted once in main.
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return cli.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if perf.Enabled() {
				perf.LogSummary(log.Default())
			}
		},
	}

	rootCmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return errUtils.Build(errUtils.ErrInvalidArguments).
			WithCause(err).
			WithHintf("Run '%s --help' for usage", c.CommandPath()).
			WithExitCode(errUtils.ExitCodeUsage).
			Err()
	})

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cli.configFile, config.ConfigFlag, "", "Path to a test-collector.yaml config file")
	flags.String(config.LogsLevelFlag, string(log.LogLevelInfo), "Log level: Trace, Debug, Info, Warning, Off")
	flags.String(config.LogsFileFlag, "/dev/stderr", "Log destination: /dev/stderr, /dev/stdout or a file path")
	flags.Bool(config.ProfileFlag, false, "Log function timings at debug level when the command finishes")

	rootCmd.AddCommand(
		newRunEnvCmd(cli),
		newProvidersCmd(cli),
		newVersionCmd(),
	)

	return rootCmd, cli
}

// setup loads the configuration and configures logging and profiling.
func (c *cliContext) setup(cmd *cobra.Command) error {
	cliConfig, err := config.Load(config.LoadOptions{
		ConfigFile: c.configFile,
		Flags:      cmd.Flags(),
	})
	if err != nil {
		return err
	}
	c.cliConfig = cliConfig

	level, err := log.ParseLogLevel(cliConfig.Logs.Level)
	if err != nil {
		return errUtils.WithExitCode(err, errUtils.ExitCodeUsage)
	}

	w, closeLog, err := log.OpenOutput(cliConfig.Logs.File)
	if err != nil {
		return errUtils.Build(errUtils.ErrOpenLogFile).WithCause(err).Err()
	}
	c.closeLog = closeLog

	logger := log.NewWithOutput(w)
	logger.SetLogLevel(level)
	log.SetDefault(logger)

	if cliConfig.Profiler.Enabled {
		perf.Enable()
	}
	return nil
}

func (c *cliContext) cleanup() {
	if c.closeLog == nil {
		return
	}
	if err := c.closeLog(); err != nil {
		log.Warn("Failed to close log file", "error", err)
	}
	c.closeLog = nil
}
