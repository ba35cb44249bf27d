// Package ci detects the CI provider a test run executes under and normalizes
// its environment variables into a RunEnvironment.
package ci

import (
	"github.com/cloudposse/test-collector/pkg/env"
)

// Provider names as reported in RunEnvironment.CI.
const (
	ProviderBuildkite     = "buildkite"
	ProviderGitHubActions = "github_actions"
	ProviderCircleCI      = "circleci"
	ProviderXcodeCloud    = "xcodeCloud"
	ProviderGeneric       = "generic"
)

// RunEnvironment describes the CI run that produced a set of test results.
// Empty fields are absent and omitted when serialized.
type RunEnvironment struct {
	CI        string `json:"CI,omitempty" yaml:"CI,omitempty"`
	Key       string `json:"key" yaml:"key"`
	URL       string `json:"url,omitempty" yaml:"url,omitempty"`
	Branch    string `json:"branch,omitempty" yaml:"branch,omitempty"`
	CommitSha string `json:"commit_sha,omitempty" yaml:"commit_sha,omitempty"`
	Number    string `json:"number,omitempty" yaml:"number,omitempty"`
	JobID     string `json:"job_id,omitempty" yaml:"job_id,omitempty"`
	Message   string `json:"message,omitempty" yaml:"message,omitempty"`
	Debug     string `json:"debug,omitempty" yaml:"debug,omitempty"`
	Version   string `json:"version" yaml:"version"`
	Collector string `json:"collector" yaml:"collector"`
}

// detectFunc builds a provider's RunEnvironment when all of its required
// variables are present. It reports false otherwise and never returns a
// partially identified environment.
type detectFunc func(values env.Values, defaultKey string) (RunEnvironment, bool)

type provider struct {
	name   string
	detect detectFunc
}
