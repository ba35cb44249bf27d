package ci

import (
	"github.com/samber/lo"

	"github.com/cloudposse/test-collector/pkg/env"
	"github.com/cloudposse/test-collector/pkg/perf"
)

// providers is the detection order. The first provider whose required
// variables are all present wins; the order must not change.
var providers = []provider{
	{name: ProviderBuildkite, detect: detectBuildkite},
	{name: ProviderGitHubActions, detect: detectGitHubActions},
	{name: ProviderCircleCI, detect: detectCircleCI},
	{name: ProviderXcodeCloud, detect: detectXcodeCloud},
	{name: ProviderGeneric, detect: detectGeneric},
}

// Providers returns the supported provider names in detection order.
func Providers() []string {
	defer perf.Track("ci.Providers")()

	return lo.Map(providers, func(p provider, _ int) string { return p.name })
}

// detect runs the providers in order and returns the first match.
func detect(values env.Values, defaultKey string) (RunEnvironment, string, bool) {
	for _, p := range providers {
		if runEnv, ok := p.detect(values, defaultKey); ok {
			return runEnv, p.name, true
		}
	}
	return RunEnvironment{}, "", false
}

// Detect returns the name of the provider values would resolve to, or an
// empty string when no provider matches.
func Detect(values env.Values) string {
	defer perf.Track("ci.Detect")()

	_, name, _ := detect(values, "")
	return name
}

// IsCI returns true if any provider, including the generic one, is detected.
func IsCI(values env.Values) bool {
	defer perf.Track("ci.IsCI")()

	return Detect(values) != ""
}
