package ci

import (
	"fmt"
	"strconv"

	"github.com/cloudposse/test-collector/pkg/env"
)

// CircleCI built-in variables.
// See: https://circleci.com/docs/variables/#built-in-environment-variables
const (
	CircleBuildNumber = "CIRCLE_BUILD_NUM"
	CircleWorkflowID  = "CIRCLE_WORKFLOW_ID"
	CircleBuildURL    = "CIRCLE_BUILD_URL"
	CircleBranch      = "CIRCLE_BRANCH"
	CircleSHA         = "CIRCLE_SHA1"

	unknownBranch = "[Unknown branch]"
)

// CircleCI has no job id in this mapping; JobID is left empty.
func detectCircleCI(values env.Values, _ string) (RunEnvironment, bool) {
	buildNumber, ok := env.Int(values, CircleBuildNumber)
	if !ok {
		return RunEnvironment{}, false
	}
	workflowID, ok := env.String(values, CircleWorkflowID)
	if !ok {
		return RunEnvironment{}, false
	}

	branch := lookup(values, CircleBranch)
	messageBranch := branch
	if messageBranch == "" {
		messageBranch = unknownBranch
	}

	return RunEnvironment{
		CI:        ProviderCircleCI,
		Key:       fmt.Sprintf("%s-%d", workflowID, buildNumber),
		URL:       lookup(values, CircleBuildURL),
		Branch:    branch,
		CommitSha: lookup(values, CircleSHA),
		Number:    strconv.Itoa(buildNumber),
		Message:   fmt.Sprintf("Build #%d on branch %s", buildNumber, messageBranch),
	}, true
}
