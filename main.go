package main

import (
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/cloudposse/test-collector/cmd"
	errUtils "github.com/cloudposse/test-collector/errors"
	"github.com/cloudposse/test-collector/pkg/config"
	log "github.com/cloudposse/test-collector/pkg/logger"
)

func main() {
	// Exit with the POSIX code for the signal (128 + signal number).
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		if s, ok := sig.(syscall.Signal); ok {
			errUtils.OsExit(128 + int(s))
		}
		errUtils.OsExit(130)
	}()

	errUtils.OsExit(run())
}

// run executes the CLI and returns an exit code, so deferred cleanup in
// cmd.Execute completes before the process exits.
func run() int {
	err := cmd.Execute()
	if err == nil {
		return errUtils.ExitCodeSuccess
	}

	formatted := errUtils.Format(err, formatterConfig(os.LookupEnv))
	os.Stderr.WriteString(formatted + "\n")

	return errUtils.GetExitCode(err)
}

// formatterConfig picks error colors and verbosity from the environment.
// NO_COLOR always wins over FORCE_COLOR. Trace logging adds the error chain.
func formatterConfig(lookup func(string) (string, bool)) errUtils.FormatterConfig {
	cfg := errUtils.DefaultFormatterConfig()

	if v, ok := lookup("NO_COLOR"); ok && v != "" {
		cfg.Color = "never"
	} else if v, ok := lookup("FORCE_COLOR"); ok && v != "" && v != "0" {
		cfg.Color = "always"
	}

	if level, ok := lookup(config.EnvPrefix + "_LOGS_LEVEL"); ok {
		cfg.Verbose = strings.EqualFold(strings.TrimSpace(level), string(log.LogLevelTrace))
	}
	return cfg
}
