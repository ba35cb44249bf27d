package env

import (
	"os"

	errUtils "github.com/cloudposse/test-collector/errors"
	"github.com/cloudposse/test-collector/pkg/perf"
)

const defaultFileMode = 0o644

// WriteToFile appends content to path, creating the file if needed.
// CI variable files such as $GITHUB_ENV must be appended to, never truncated.
func WriteToFile(path string, content string) error {
	defer perf.Track("env.WriteToFile")()

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, defaultFileMode)
	if err != nil {
		return errUtils.Build(errUtils.ErrWriteOutput).
			WithCause(err).
			WithHintf("Check that %s is writable", path).
			Err()
	}

	if _, err := f.WriteString(content); err != nil {
		_ = f.Close()
		return errUtils.Build(errUtils.ErrWriteOutput).WithCause(err).Err()
	}
	if err := f.Close(); err != nil {
		return errUtils.Build(errUtils.ErrWriteOutput).WithCause(err).Err()
	}
	return nil
}
