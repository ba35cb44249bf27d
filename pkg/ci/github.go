package ci

import (
	"fmt"
	"strconv"

	"github.com/cloudposse/test-collector/pkg/env"
)

// GitHub Actions default variables.
// See: https://docs.github.com/en/actions/learn-github-actions/variables
const (
	GitHubRunNumber        = "GITHUB_RUN_NUMBER"
	GitHubAction           = "GITHUB_ACTION"
	GitHubRunAttempt       = "GITHUB_RUN_ATTEMPT"
	GitHubWorkflow         = "GITHUB_WORKFLOW"
	GitHubTriggeringActor  = "GITHUB_TRIGGERING_ACTOR"
	GitHubRepository       = "GITHUB_REPOSITORY"
	GitHubRunID            = "GITHUB_RUN_ID"
	GitHubRef              = "GITHUB_REF"
	GitHubSHA              = "GITHUB_SHA"
	gitHubActionsRunURLFmt = "https://github.com/%s/actions/runs/%s"
)

func detectGitHubActions(values env.Values, _ string) (RunEnvironment, bool) {
	runNumber, ok := env.Int(values, GitHubRunNumber)
	if !ok {
		return RunEnvironment{}, false
	}
	action, ok := env.String(values, GitHubAction)
	if !ok {
		return RunEnvironment{}, false
	}
	runAttempt, ok := env.Int(values, GitHubRunAttempt)
	if !ok {
		return RunEnvironment{}, false
	}
	workflow, ok := env.String(values, GitHubWorkflow)
	if !ok {
		return RunEnvironment{}, false
	}
	startedBy, ok := env.String(values, GitHubTriggeringActor)
	if !ok {
		return RunEnvironment{}, false
	}

	// The run URL needs both the repository and the run id.
	var url string
	repository, hasRepository := env.String(values, GitHubRepository)
	runID, hasRunID := env.String(values, GitHubRunID)
	if hasRepository && hasRunID {
		url = fmt.Sprintf(gitHubActionsRunURLFmt, repository, runID)
	}

	return RunEnvironment{
		CI:        ProviderGitHubActions,
		Key:       fmt.Sprintf("%s-%d-%d", action, runNumber, runAttempt),
		URL:       url,
		Branch:    lookup(values, GitHubRef),
		CommitSha: lookup(values, GitHubSHA),
		Number:    strconv.Itoa(runNumber),
		Message:   fmt.Sprintf("Run #%d attempt #%d of %s, started by %s", runNumber, runAttempt, workflow, startedBy),
	}, true
}
