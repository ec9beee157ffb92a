// Package settings provides build metadata, runtime configuration, and
// context helpers shared by the kvlist CLI and its library packages.
package settings

// CliBinaryName is the canonical binary name for this tool.
const CliBinaryName = "kvlist"

// VersionInformation is populated at build time via ldflags.
var VersionInformation = VersionInfo{
	Commit:       "unknown",
	BuildVersion: "v0.0.0-nightly",
	BuildTime:    "unknown",
}

// VersionInfo holds metadata about the build.
type VersionInfo struct {
	Commit       string
	BuildVersion string
	BuildTime    string
}

// Mode selects which widget the CLI drives.
type Mode string

const (
	ModeList Mode = "list"
	ModeTree Mode = "tree"
)

// Run holds configuration settings for a single execution of the application.
type Run struct {
	MinLogLevel int8
	LogFile     string // Empty keeps logs off the terminal the TUI is drawing on.
	Mode        Mode
	Snapshot    bool
	NoColor     bool
	ExitOnError bool
}

// NewCliParams returns the defaults used by the CLI before flags are applied.
func NewCliParams() *Run {
	return &Run{
		MinLogLevel: 0,
		Mode:        ModeList,
		Snapshot:    false,
		NoColor:     false,
		ExitOnError: true,
	}
}
