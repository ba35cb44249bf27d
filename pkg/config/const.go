package config

const (
	CollectorCommand = "test-collector"
	// CliConfigFileName is the config file base name; the extension is always yaml.
	CliConfigFileName = "test-collector"
	EnvPrefix         = "TEST_COLLECTOR"

	// Flag names bound to configuration keys.
	ConfigFlag       = "config"
	LogsLevelFlag    = "logs-level"
	LogsFileFlag     = "logs-file"
	FormatFlag       = "format"
	OutputFileFlag   = "output-file"
	EnvFileFlag      = "env-file"
	ProfileFlag      = "profile"
	KeyFlag          = "key"
	URLFlag          = "url"
	BranchFlag       = "branch"
	ShaFlag          = "sha"
	NumberFlag       = "number"
	JobIDFlag        = "job-id"
	MessageFlag      = "message"
	DebugEnabledFlag = "debug-enabled"
)
