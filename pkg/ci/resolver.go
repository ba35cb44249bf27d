package ci

import (
	"strconv"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/cloudposse/test-collector/pkg/env"
	"github.com/cloudposse/test-collector/pkg/perf"
	"github.com/cloudposse/test-collector/pkg/version"
)

// Analytics override variables. When set, each one replaces the matching
// provider-derived field.
const (
	AnalyticsKey          = "BUILDKITE_ANALYTICS_KEY"
	AnalyticsURL          = "BUILDKITE_ANALYTICS_URL"
	AnalyticsBranch       = "BUILDKITE_ANALYTICS_BRANCH"
	AnalyticsSha          = "BUILDKITE_ANALYTICS_SHA"
	AnalyticsNumber       = "BUILDKITE_ANALYTICS_NUMBER"
	AnalyticsJobID        = "BUILDKITE_ANALYTICS_JOB_ID"
	AnalyticsMessage      = "BUILDKITE_ANALYTICS_MESSAGE"
	AnalyticsDebugEnabled = "BUILDKITE_ANALYTICS_DEBUG_ENABLED"
)

// Overrides returns the set fields of r keyed by their analytics override
// variables. Resolving with them layered on top reproduces r, so a later step
// reports the same run even under a different environment. CI, version and
// collector have no override and are not included.
func (r RunEnvironment) Overrides() env.Map {
	overrides := env.Map{}
	for name, value := range map[string]string{
		AnalyticsKey:          r.Key,
		AnalyticsURL:          r.URL,
		AnalyticsBranch:       r.Branch,
		AnalyticsSha:          r.CommitSha,
		AnalyticsNumber:       r.Number,
		AnalyticsJobID:        r.JobID,
		AnalyticsMessage:      r.Message,
		AnalyticsDebugEnabled: r.Debug,
	} {
		if value != "" {
			overrides[name] = value
		}
	}
	return overrides
}

// Logger is the logging capability the resolver needs.
// *charmbracelet/log.Logger and *logger.Logger satisfy it.
type Logger interface {
	Debug(msg interface{}, keyvals ...interface{})
}

type nopLogger struct{}

func (nopLogger) Debug(interface{}, ...interface{}) {}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger used for detection messages. A nil logger disables logging.
func WithLogger(l Logger) Option {
	return func(r *Resolver) {
		if l == nil {
			l = nopLogger{}
		}
		r.logger = l
	}
}

// WithCollector overrides the collector name and version stamped on every RunEnvironment.
func WithCollector(name, version string) Option {
	return func(r *Resolver) {
		r.collector = name
		r.version = version
	}
}

// Resolver maps an environment snapshot to a RunEnvironment.
// It holds no mutable state and is safe for concurrent use.
type Resolver struct {
	values    env.Values
	logger    Logger
	collector string
	version   string
}

// NewResolver creates a Resolver reading from values.
func NewResolver(values env.Values, opts ...Option) *Resolver {
	if values == nil {
		values = env.Map{}
	}

	r := &Resolver{
		values:    values,
		logger:    nopLogger{},
		collector: version.Name,
		version:   version.Version,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewKey returns a random run key for use as the default key.
func NewKey() string {
	return uuid.NewString()
}

// Resolve detects the CI provider and returns the normalized RunEnvironment.
// defaultKey is used as the key when neither an override nor the provider supplies one.
func (r *Resolver) Resolve(defaultKey string) RunEnvironment {
	defer perf.Track("ci.Resolver.Resolve")()

	detected, name, ok := detect(r.values, defaultKey)
	if ok {
		r.logDetected(name)
	}

	var number string
	if n, ok := env.Int(r.values, AnalyticsNumber); ok {
		number = strconv.Itoa(n)
	}

	return RunEnvironment{
		CI:        detected.CI,
		Key:       lo.CoalesceOrEmpty(lookup(r.values, AnalyticsKey), detected.Key, defaultKey),
		URL:       lo.CoalesceOrEmpty(lookup(r.values, AnalyticsURL), detected.URL),
		Branch:    lo.CoalesceOrEmpty(lookup(r.values, AnalyticsBranch), detected.Branch),
		CommitSha: lo.CoalesceOrEmpty(lookup(r.values, AnalyticsSha), detected.CommitSha),
		Number:    lo.CoalesceOrEmpty(number, detected.Number),
		JobID:     lo.CoalesceOrEmpty(lookup(r.values, AnalyticsJobID), detected.JobID),
		Message:   lo.CoalesceOrEmpty(lookup(r.values, AnalyticsMessage), detected.Message),
		Debug:     lo.Ternary(env.Bool(r.values, AnalyticsDebugEnabled), "true", ""),
		Version:   r.version,
		Collector: r.collector,
	}
}

// Detect returns the name of the provider Resolve would use, without logging.
func (r *Resolver) Detect() string {
	return Detect(r.values)
}

func (r *Resolver) logDetected(name string) {
	// A misbehaving logger must not break resolution.
	defer func() { _ = recover() }()

	if name == ProviderGeneric {
		r.logger.Debug("Falling back to generic run environment")
		return
	}
	r.logger.Debug("CI provider detected", "provider", name)
}
