package ci

import (
	"strconv"

	"github.com/cloudposse/test-collector/pkg/env"
)

// Buildkite agent variables.
// See: https://buildkite.com/docs/pipelines/environment-variables
const (
	BuildkiteBuildID     = "BUILDKITE_BUILD_ID"
	BuildkiteBuildURL    = "BUILDKITE_BUILD_URL"
	BuildkiteBranch      = "BUILDKITE_BRANCH"
	BuildkiteCommit      = "BUILDKITE_COMMIT"
	BuildkiteBuildNumber = "BUILDKITE_BUILD_NUMBER"
	BuildkiteJobID       = "BUILDKITE_JOB_ID"
	BuildkiteMessage     = "BUILDKITE_MESSAGE"
)

func detectBuildkite(values env.Values, _ string) (RunEnvironment, bool) {
	buildID, ok := env.String(values, BuildkiteBuildID)
	if !ok {
		return RunEnvironment{}, false
	}

	runEnv := RunEnvironment{
		CI:        ProviderBuildkite,
		Key:       buildID,
		URL:       lookup(values, BuildkiteBuildURL),
		Branch:    lookup(values, BuildkiteBranch),
		CommitSha: lookup(values, BuildkiteCommit),
		JobID:     lookup(values, BuildkiteJobID),
		Message:   lookup(values, BuildkiteMessage),
	}
	if number, ok := env.Int(values, BuildkiteBuildNumber); ok {
		runEnv.Number = strconv.Itoa(number)
	}
	return runEnv, true
}

// lookup returns the value of an optional variable, or "" when absent.
func lookup(values env.Values, name string) string {
	value, _ := env.String(values, name)
	return value
}
