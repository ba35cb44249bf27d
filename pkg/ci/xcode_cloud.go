package ci

import (
	"fmt"
	"strconv"

	"github.com/cloudposse/test-collector/pkg/env"
)

// Xcode Cloud custom build variables.
// See: https://developer.apple.com/documentation/xcode/environment-variable-reference
const (
	XcodeCommit                  = "CI_COMMIT"
	XcodeBuildNumber             = "CI_BUILD_NUMBER"
	XcodeBuildID                 = "CI_BUILD_ID"
	XcodeWorkflow                = "CI_WORKFLOW"
	XcodePullRequestHTMLURL      = "CI_PULL_REQUEST_HTML_URL"
	XcodeBranch                  = "CI_BRANCH"
	XcodePullRequestSourceBranch = "CI_PULL_REQUEST_SOURCE_BRANCH"
)

func detectXcodeCloud(values env.Values, _ string) (RunEnvironment, bool) {
	commit, ok := env.String(values, XcodeCommit)
	if !ok {
		return RunEnvironment{}, false
	}
	buildNumber, ok := env.Int(values, XcodeBuildNumber)
	if !ok {
		return RunEnvironment{}, false
	}
	buildID, ok := env.String(values, XcodeBuildID)
	if !ok {
		return RunEnvironment{}, false
	}
	workflow, ok := env.String(values, XcodeWorkflow)
	if !ok {
		return RunEnvironment{}, false
	}

	// CI_BRANCH is unset for pull request builds.
	branch := lookup(values, XcodeBranch)
	if branch == "" {
		branch = lookup(values, XcodePullRequestSourceBranch)
	}

	return RunEnvironment{
		CI:        ProviderXcodeCloud,
		Key:       buildID,
		URL:       lookup(values, XcodePullRequestHTMLURL),
		Branch:    branch,
		CommitSha: commit,
		Number:    strconv.Itoa(buildNumber),
		Message:   fmt.Sprintf("Build #%d of workflow: %s", buildNumber, workflow),
	}, true
}
