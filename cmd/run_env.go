package cmd

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	errUtils "github.com/cloudposse/test-collector/errors"
	"github.com/cloudposse/test-collector/pkg/ci"
	"github.com/cloudposse/test-collector/pkg/config"
	"github.com/cloudposse/test-collector/pkg/env"
	log "github.com/cloudposse/test-collector/pkg/logger"
	"github.com/cloudposse/test-collector/pkg/perf"
)

const defaultKeyFlag = "default-key"

func newRunEnvCmd(cli *cliContext) *cobra.Command {
	var defaultKey string

	runEnvCmd := &cobra.Command{
		Use:     "run-env",
		Aliases: []string{"env"},
		Short:   "Print the run environment of the current CI job",
		Long: `Detects the CI provider from the environment and prints the normalized run environment.

Providers are checked in order: Buildkite, GitHub Actions, CircleCI, Xcode Cloud, then any CI
that sets CI. Analytics overrides from flags, BUILDKITE_ANALYTICS_* variables or the config file
replace individual detected fields. Dotenv files given with --env-file are layered
over the process environment.

Shell formats (env, dotenv, bash, github) print the analytics override variables that
reproduce this run environment, so later steps report the same run.`,
		Example: `test-collector run-env
test-collector run-env --format yaml --branch main
test-collector run-env --format github --output-file "$GITHUB_ENV"
test-collector run-env --env-file captured-ci.env`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			defer perf.Track("cmd.run-env")()

			key := defaultKey
			if key == "" {
				key = cli.newKey()
			}

			fileValues, err := env.ReadFiles(cli.cliConfig.EnvFiles...)
			if err != nil {
				return err
			}
			if len(cli.cliConfig.EnvFiles) > 0 {
				log.Debug("Loaded env files", "files", cli.cliConfig.EnvFiles, "variables", len(fileValues))
			}

			values := env.Layered(cli.cliConfig.Analytics.Overrides(), fileValues, cli.values)
			resolver := ci.NewResolver(values, ci.WithLogger(log.Default()))
			runEnv := resolver.Resolve(key)

			content, err := renderRunEnvironment(runEnv, cli.cliConfig.Output.Format)
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), cli.cliConfig.Output.File, content)
		},
	}

	flags := runEnvCmd.Flags()
	flags.StringVar(&defaultKey, defaultKeyFlag, "", "Run key used when no provider or override supplies one (default: random UUID)")
	flags.StringP(config.FormatFlag, "f", string(config.FormatJSON), "Output format: "+config.SupportedFormatNames())
	flags.StringP(config.OutputFileFlag, "o", "", "Append output to this file instead of stdout")
	flags.StringSlice(config.EnvFileFlag, nil, "Dotenv files layered over the process environment (repeatable)")
	flags.String(config.KeyFlag, "", "Override the run key")
	flags.String(config.URLFlag, "", "Override the run URL")
	flags.String(config.BranchFlag, "", "Override the branch")
	flags.String(config.ShaFlag, "", "Override the commit SHA")
	flags.String(config.NumberFlag, "", "Override the run number")
	flags.String(config.JobIDFlag, "", "Override the job id")
	flags.String(config.MessageFlag, "", "Override the message")
	flags.Bool(config.DebugEnabledFlag, false, "Mark the run environment as debug")

	return runEnvCmd
}

// renderRunEnvironment serializes runEnv in the requested format. Shell
// formats emit the analytics override variables that reproduce runEnv.
func renderRunEnvironment(runEnv ci.RunEnvironment, format config.OutputFormat) (string, error) {
	defer perf.Track("cmd.renderRunEnvironment")()

	var buf bytes.Buffer
	switch {
	case format == config.FormatYAML:
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(runEnv); err != nil {
			return "", errUtils.Build(errUtils.ErrWriteOutput).WithCause(err).Err()
		}
		if err := enc.Close(); err != nil {
			return "", errUtils.Build(errUtils.ErrWriteOutput).WithCause(err).Err()
		}
	case format == config.FormatJSON || format == "":
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		if err := enc.Encode(runEnv); err != nil {
			return "", errUtils.Build(errUtils.ErrWriteOutput).WithCause(err).Err()
		}
	case format.IsShell():
		shellFormat, err := env.ParseFormat(string(format))
		if err != nil {
			return "", err
		}
		return env.FormatData(runEnv.Overrides(), shellFormat)
	default:
		return "", errUtils.Build(errUtils.ErrInvalidOutputFormat).
			WithHintf("Got %q. Use one of: %s", format, config.SupportedFormatNames()).
			WithExitCode(errUtils.ExitCodeUsage).
			Err()
	}
	return buf.String(), nil
}

// writeOutput appends content to file when set, otherwise writes it to w.
func writeOutput(w io.Writer, file, content string) error {
	if file != "" {
		return env.WriteToFile(file, content)
	}
	if _, err := io.WriteString(w, content); err != nil {
		return errUtils.Build(errUtils.ErrWriteOutput).WithCause(err).Err()
	}
	return nil
}
