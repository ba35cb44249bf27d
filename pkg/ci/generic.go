package ci

import (
	"github.com/cloudposse/test-collector/pkg/env"
)

// GenericCI is set by most CI services, including ones without a dedicated provider.
const GenericCI = "CI"

func detectGeneric(values env.Values, defaultKey string) (RunEnvironment, bool) {
	if _, ok := env.String(values, GenericCI); !ok {
		return RunEnvironment{}, false
	}

	return RunEnvironment{
		CI:  ProviderGeneric,
		Key: defaultKey,
	}, true
}
