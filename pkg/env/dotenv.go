package env

import (
	"github.com/joho/godotenv"

	errUtils "github.com/cloudposse/test-collector/errors"
	"github.com/cloudposse/test-collector/pkg/perf"
)

// ReadFiles parses dotenv files into a Map. Later files override earlier ones.
func ReadFiles(paths ...string) (Map, error) {
	defer perf.Track("env.ReadFiles")()

	values := Map{}
	for _, path := range paths {
		parsed, err := godotenv.Read(path)
		if err != nil {
			return nil, errUtils.Build(errUtils.ErrReadEnvFile).
				WithCause(err).
				WithHintf("Check that %s exists and uses NAME=value lines", path).
				WithExitCode(errUtils.ExitCodeUsage).
				Err()
		}
		for name, value := range parsed {
			values[name] = value
		}
	}
	return values, nil
}
