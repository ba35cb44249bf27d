package version

// Name identifies the collector in every run environment it produces.
const Name = "test-collector-go"

// Version is overwritten at build time:
//
//	go build -ldflags "-X github.com/cloudposse/test-collector/pkg/version.Version=v1.2.3"
var Version = "0.0.0-dev"
