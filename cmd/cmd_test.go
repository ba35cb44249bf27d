package cmd

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	errUtils "github.com/cloudposse/test-collector/errors"
	"github.com/cloudposse/test-collector/pkg/ci"
	"github.com/cloudposse/test-collector/pkg/config"
	"github.com/cloudposse/test-collector/pkg/env"
	log "github.com/cloudposse/test-collector/pkg/logger"
	"github.com/cloudposse/test-collector/pkg/perf"
	"github.com/cloudposse/test-collector/pkg/version"
)

const generatedKey = "generated-key"

var buildkiteEnv = env.Map{
	ci.BuildkiteBuildID:     "bk-build",
	ci.BuildkiteBuildURL:    "https://buildkite.com/org/pipeline/builds/7",
	ci.BuildkiteBranch:      "main",
	ci.BuildkiteCommit:      "abc123",
	ci.BuildkiteBuildNumber: "7",
	ci.BuildkiteJobID:       "job-1",
	ci.BuildkiteMessage:     "Fix flaky test",
}

// isolateEnv blanks every process variable the CLI reads and restores the
// global logger and profiler after the test.
func isolateEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		ci.AnalyticsKey,
		ci.AnalyticsURL,
		ci.AnalyticsBranch,
		ci.AnalyticsSha,
		ci.AnalyticsNumber,
		ci.AnalyticsJobID,
		ci.AnalyticsMessage,
		ci.AnalyticsDebugEnabled,
		"TEST_COLLECTOR_LOGS_LEVEL",
		"TEST_COLLECTOR_LOGS_FILE",
		"TEST_COLLECTOR_OUTPUT_FORMAT",
		"TEST_COLLECTOR_OUTPUT_FILE",
		"TEST_COLLECTOR_ENV_FILES",
		"TEST_COLLECTOR_PROFILER_ENABLED",
	} {
		t.Setenv(name, "")
	}

	prev := log.Default()
	t.Cleanup(func() {
		log.SetDefault(prev)
		perf.Disable()
		perf.Reset()
	})
}

// executeCommand runs the CLI with values as the process environment and
// returns what it wrote to stdout.
func executeCommand(t *testing.T, values env.Values, args ...string) (string, error) {
	t.Helper()
	isolateEnv(t)

	rootCmd, cli := newRootCmd(values, func() string { return generatedKey })
	t.Cleanup(cli.cleanup)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(append(args, "--"+config.LogsLevelFlag, "Off"))

	err := rootCmd.Execute()
	return out.String(), err
}

func decodeJSON(t *testing.T, out string) ci.RunEnvironment {
	t.Helper()
	var runEnv ci.RunEnvironment
	require.NoError(t, json.Unmarshal([]byte(out), &runEnv), out)
	return runEnv
}

func TestRunEnv_JSON(t *testing.T) {
	out, err := executeCommand(t, buildkiteEnv, "run-env")
	require.NoError(t, err)

	assert.Equal(t, ci.RunEnvironment{
		CI:        ci.ProviderBuildkite,
		Key:       "bk-build",
		URL:       "https://buildkite.com/org/pipeline/builds/7",
		Branch:    "main",
		CommitSha: "abc123",
		Number:    "7",
		JobID:     "job-1",
		Message:   "Fix flaky test",
		Version:   version.Version,
		Collector: version.Name,
	}, decodeJSON(t, out))
	assert.Contains(t, out, `"CI": "buildkite"`)
	assert.NotContains(t, out, `"debug"`)
}

func TestRunEnv_YAML(t *testing.T) {
	out, err := executeCommand(t, buildkiteEnv, "run-env", "--format", "yaml")
	require.NoError(t, err)

	var runEnv ci.RunEnvironment
	require.NoError(t, yaml.Unmarshal([]byte(out), &runEnv), out)
	assert.Equal(t, ci.ProviderBuildkite, runEnv.CI)
	assert.Equal(t, "7", runEnv.Number)
	assert.Contains(t, out, "commit_sha: abc123\n")
}

func TestRunEnv_DefaultKey(t *testing.T) {
	t.Run("generated when nothing supplies a key", func(t *testing.T) {
		out, err := executeCommand(t, env.Map{}, "run-env")
		require.NoError(t, err)

		runEnv := decodeJSON(t, out)
		assert.Equal(t, generatedKey, runEnv.Key)
		assert.Empty(t, runEnv.CI)
		assert.NotContains(t, out, `"CI"`)
	})

	t.Run("flag value used by the generic provider", func(t *testing.T) {
		out, err := executeCommand(t, env.Map{ci.GenericCI: "true"}, "run-env", "--default-key", "mine")
		require.NoError(t, err)

		runEnv := decodeJSON(t, out)
		assert.Equal(t, "mine", runEnv.Key)
		assert.Equal(t, ci.ProviderGeneric, runEnv.CI)
	})

	t.Run("provider key wins over the default", func(t *testing.T) {
		out, err := executeCommand(t, buildkiteEnv, "run-env", "--default-key", "mine")
		require.NoError(t, err)

		assert.Equal(t, "bk-build", decodeJSON(t, out).Key)
	})
}

func TestRunEnv_Overrides(t *testing.T) {
	t.Run("flags", func(t *testing.T) {
		out, err := executeCommand(t, buildkiteEnv, "run-env",
			"--branch", "release",
			"--number", "42",
			"--debug-enabled",
		)
		require.NoError(t, err)

		runEnv := decodeJSON(t, out)
		assert.Equal(t, "release", runEnv.Branch)
		assert.Equal(t, "42", runEnv.Number)
		assert.Equal(t, "true", runEnv.Debug)
		assert.Equal(t, "abc123", runEnv.CommitSha, "fields without overrides keep provider values")
		assert.Equal(t, ci.ProviderBuildkite, runEnv.CI)
	})

	t.Run("unparsable debug flag from env is off", func(t *testing.T) {
		isolateEnv(t)
		rootCmd, cli := newRootCmd(buildkiteEnv, func() string { return generatedKey })
		t.Cleanup(cli.cleanup)
		t.Setenv(ci.AnalyticsDebugEnabled, "yes")

		var out bytes.Buffer
		rootCmd.SetOut(&out)
		rootCmd.SetErr(io.Discard)
		rootCmd.SetArgs([]string{"run-env", "--logs-level", "Off"})
		require.NoError(t, rootCmd.Execute())

		assert.Empty(t, decodeJSON(t, out.String()).Debug)
	})

	t.Run("config file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "test-collector.yaml")
		require.NoError(t, os.WriteFile(path, []byte("analytics:\n  sha: from-file\n  message: from file\n"), 0o600))

		out, err := executeCommand(t, buildkiteEnv, "run-env", "--config", path)
		require.NoError(t, err)

		runEnv := decodeJSON(t, out)
		assert.Equal(t, "from-file", runEnv.CommitSha)
		assert.Equal(t, "from file", runEnv.Message)
	})
}

func TestRunEnv_Errors(t *testing.T) {
	t.Run("invalid format", func(t *testing.T) {
		_, err := executeCommand(t, buildkiteEnv, "run-env", "--format", "xml")

		assert.ErrorIs(t, err, errUtils.ErrInvalidOutputFormat)
		assert.Equal(t, errUtils.ExitCodeUsage, errUtils.GetExitCode(err))
	})

	t.Run("unknown flag", func(t *testing.T) {
		_, err := executeCommand(t, buildkiteEnv, "run-env", "--bogus")

		assert.ErrorIs(t, err, errUtils.ErrInvalidArguments)
		assert.Equal(t, errUtils.ExitCodeUsage, errUtils.GetExitCode(err))
	})

	t.Run("missing config file", func(t *testing.T) {
		_, err := executeCommand(t, buildkiteEnv, "run-env", "--config", filepath.Join(t.TempDir(), "missing.yaml"))

		assert.ErrorIs(t, err, errUtils.ErrConfigLoad)
	})

	t.Run("non-integer number flag", func(t *testing.T) {
		_, err := executeCommand(t, buildkiteEnv, "run-env", "--number", "abc")

		assert.ErrorIs(t, err, errUtils.ErrInvalidConfig)
		assert.Equal(t, errUtils.ExitCodeUsage, errUtils.GetExitCode(err))
	})

	t.Run("unexpected argument", func(t *testing.T) {
		_, err := executeCommand(t, buildkiteEnv, "run-env", "extra")

		assert.Error(t, err)
	})
}

func TestRunEnv_LogsDetection(t *testing.T) {
	isolateEnv(t)
	logFile := filepath.Join(t.TempDir(), "collector.log")

	rootCmd, cli := newRootCmd(buildkiteEnv, func() string { return generatedKey })
	rootCmd.SetOut(io.Discard)
	rootCmd.SetArgs([]string{"run-env", "--logs-level", "Debug", "--logs-file", logFile, "--profile"})

	require.NoError(t, rootCmd.Execute())
	cli.cleanup()

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	logs := string(data)

	assert.Contains(t, logs, "CI provider detected")
	assert.Contains(t, logs, "provider=buildkite")
	assert.Contains(t, logs, "Function timing", "profiler summary is logged at debug level")
}

func TestProviders(t *testing.T) {
	out, err := executeCommand(t, env.Map{ci.CircleBuildNumber: "5", ci.CircleWorkflowID: "wf"}, "providers")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, len(ci.Providers()))
	for i, name := range ci.Providers() {
		assert.Contains(t, lines[i], name)
	}
	assert.Contains(t, lines[2], "* "+ci.ProviderCircleCI)
	assert.Equal(t, "  "+ci.ProviderBuildkite, lines[0])
}

func TestVersion(t *testing.T) {
	out, err := executeCommand(t, env.Map{}, "version")
	require.NoError(t, err)

	assert.Equal(t, version.Name+" "+version.Version+" on "+runtime.GOOS+"/"+runtime.GOARCH+"\n", out)
}

func TestRunEnv_ShellFormats(t *testing.T) {
	t.Run("dotenv", func(t *testing.T) {
		out, err := executeCommand(t, buildkiteEnv, "run-env", "--format", "dotenv")
		require.NoError(t, err)

		assert.Equal(t, strings.Join([]string{
			"BUILDKITE_ANALYTICS_BRANCH=main",
			"BUILDKITE_ANALYTICS_JOB_ID=job-1",
			"BUILDKITE_ANALYTICS_KEY=bk-build",
			"BUILDKITE_ANALYTICS_MESSAGE='Fix flaky test'",
			"BUILDKITE_ANALYTICS_NUMBER=7",
			"BUILDKITE_ANALYTICS_SHA=abc123",
			"BUILDKITE_ANALYTICS_URL=https://buildkite.com/org/pipeline/builds/7",
		}, "\n")+"\n", out)
	})

	t.Run("bash", func(t *testing.T) {
		out, err := executeCommand(t, buildkiteEnv, "run-env", "--format", "bash")
		require.NoError(t, err)

		assert.Contains(t, out, "export BUILDKITE_ANALYTICS_KEY=bk-build\n")
	})

	t.Run("github output file is appended", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "github_env")
		require.NoError(t, os.WriteFile(path, []byte("EXISTING=1\n"), 0o600))

		out, err := executeCommand(t, buildkiteEnv, "run-env", "--format", "github", "--output-file", path)
		require.NoError(t, err)
		assert.Empty(t, out)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(data), "EXISTING=1\nBUILDKITE_ANALYTICS_BRANCH=main\n"), string(data))
	})
}

// replayMessages are commit messages that must survive a write and a replay.
var replayMessages = map[string]string{
	"plain":         "Fix flaky test",
	"apostrophe":    "Don't merge yet",
	"double quotes": `Revert "Fix flaky test"`,
	"dollar":        "Bump cost to $5 for ${HOME}",
	"multiline":     "Fix flaky test\n\nIt's \"flaky\" on $CI # really",
	"backslashes":   `Escape C:\tmp\n in paths`,
}

func TestRunEnv_EnvFileReplay(t *testing.T) {
	for name, message := range replayMessages {
		t.Run(name, func(t *testing.T) {
			values := env.Map{}
			for k, v := range buildkiteEnv {
				values[k] = v
			}
			values[ci.BuildkiteMessage] = message

			captured := filepath.Join(t.TempDir(), "captured.env")
			out, err := executeCommand(t, values, "run-env", "--format", "dotenv", "--output-file", captured)
			require.NoError(t, err)
			require.Empty(t, out)

			want, err := executeCommand(t, values, "run-env")
			require.NoError(t, err)

			got, err := executeCommand(t, env.Map{}, "run-env", "--env-file", captured)
			require.NoError(t, err)

			wantEnv, gotEnv := decodeJSON(t, want), decodeJSON(t, got)
			assert.Equal(t, message, wantEnv.Message)
			assert.Empty(t, gotEnv.CI, "overrides alone identify no provider")
			gotEnv.CI = wantEnv.CI
			assert.Equal(t, wantEnv, gotEnv)
		})
	}
}

// readGitHubEnv loads a $GITHUB_ENV file the way the Actions runner does:
// NAME=value lines are taken verbatim and NAME<<DELIMITER opens a heredoc.
func readGitHubEnv(t *testing.T, path string) env.Map {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	values := env.Map{}
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	for i := 0; i < len(lines); i++ {
		if name, delimiter, ok := strings.Cut(lines[i], "<<"); ok && !strings.Contains(name, "=") {
			var body []string
			for i++; i < len(lines) && lines[i] != delimiter; i++ {
				body = append(body, lines[i])
			}
			require.Less(t, i, len(lines), "heredoc %s is not terminated", delimiter)
			values[name] = strings.Join(body, "\n")
			continue
		}
		name, value, ok := strings.Cut(lines[i], "=")
		require.True(t, ok, "malformed line %q", lines[i])
		values[name] = value
	}
	return values
}

func TestRunEnv_GitHubEnvReplay(t *testing.T) {
	for name, message := range replayMessages {
		t.Run(name, func(t *testing.T) {
			values := env.Map{}
			for k, v := range buildkiteEnv {
				values[k] = v
			}
			values[ci.BuildkiteMessage] = message

			githubEnv := filepath.Join(t.TempDir(), "github_env")
			_, err := executeCommand(t, values, "run-env", "--format", "github", "--output-file", githubEnv)
			require.NoError(t, err)

			want, err := executeCommand(t, values, "run-env")
			require.NoError(t, err)

			got, err := executeCommand(t, readGitHubEnv(t, githubEnv), "run-env")
			require.NoError(t, err)

			wantEnv, gotEnv := decodeJSON(t, want), decodeJSON(t, got)
			assert.Equal(t, message, gotEnv.Message)
			gotEnv.CI = wantEnv.CI
			assert.Equal(t, wantEnv, gotEnv)
		})
	}
}

func TestRunEnv_EnvFileProvider(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ci.env")
	require.NoError(t, os.WriteFile(path, []byte("CIRCLE_BUILD_NUM=12\nCIRCLE_WORKFLOW_ID=wf\nCIRCLE_BRANCH=main\n"), 0o600))

	t.Run("file shadows process environment", func(t *testing.T) {
		out, err := executeCommand(t, env.Map{ci.CircleBranch: "from-process"}, "run-env", "--env-file", path)
		require.NoError(t, err)

		runEnv := decodeJSON(t, out)
		assert.Equal(t, ci.ProviderCircleCI, runEnv.CI)
		assert.Equal(t, "wf-12", runEnv.Key)
		assert.Equal(t, "main", runEnv.Branch)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := executeCommand(t, env.Map{}, "run-env", "--env-file", filepath.Join(t.TempDir(), "missing.env"))

		assert.ErrorIs(t, err, errUtils.ErrReadEnvFile)
		assert.Equal(t, errUtils.ExitCodeUsage, errUtils.GetExitCode(err))
	})
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, io.ErrClosedPipe
}

func TestRenderRunEnvironment(t *testing.T) {
	runEnv := ci.RunEnvironment{Key: "k", Message: "line one\nline two", Version: "1", Collector: "c"}

	t.Run("empty format defaults to json", func(t *testing.T) {
		out, err := renderRunEnvironment(runEnv, "")
		require.NoError(t, err)
		assert.Equal(t, runEnv, decodeJSON(t, out))
	})

	t.Run("github heredoc for multiline values", func(t *testing.T) {
		out, err := renderRunEnvironment(runEnv, config.FormatGitHub)
		require.NoError(t, err)

		assert.Contains(t, out, "BUILDKITE_ANALYTICS_MESSAGE<<TEST_COLLECTOR_EOF\nline one\nline two\nTEST_COLLECTOR_EOF\n")
	})

	t.Run("unknown format", func(t *testing.T) {
		_, err := renderRunEnvironment(runEnv, "toml")

		assert.ErrorIs(t, err, errUtils.ErrInvalidOutputFormat)
	})
}

func TestWriteOutput(t *testing.T) {
	t.Run("writer failure", func(t *testing.T) {
		err := writeOutput(failingWriter{}, "", "content")

		assert.ErrorIs(t, err, errUtils.ErrWriteOutput)
		assert.ErrorIs(t, err, io.ErrClosedPipe)
	})

	t.Run("unwritable file", func(t *testing.T) {
		err := writeOutput(io.Discard, filepath.Join(t.TempDir(), "missing-dir", "out"), "content")

		assert.ErrorIs(t, err, errUtils.ErrWriteOutput)
	})
}
