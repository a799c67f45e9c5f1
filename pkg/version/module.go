package version

// These are set at build time with -ldflags.
var (
	Version   = "development"
	GitCommit = "unknown"
	BuildTime = "unknown"
)
