package utils

const (
	// GlobalConfigDirectoryName is the directory under the user's home holding global configuration.
	GlobalConfigDirectoryName = ".repodoc"
	// GlobalConfigFileName is the configuration file inside GlobalConfigDirectoryName.
	GlobalConfigFileName = "config.yaml"
	// LocalConfigFileName is the configuration file looked up in the working directory.
	LocalConfigFileName = ".repodoc.yaml"
	// DefaultPatternFileName is the pattern file read from the working directory when none is named.
	DefaultPatternFileName = ".repodocignore"
	// GitHubTokenEnvironmentVariable supplies the API token when none is configured.
	GitHubTokenEnvironmentVariable = "GITHUB_TOKEN"

	// ErrorLogFormat defines the formatting string for error log messages.
	ErrorLogFormat = "Error: %v"
	// WarningLogFormat defines the formatting string for non-fatal notices.
	WarningLogFormat = "Warning: %s"
)
