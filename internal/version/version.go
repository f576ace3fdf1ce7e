package version

// Version is overridden at build time with -ldflags "-X github.com/thomas-vilte/triagemate/internal/version.Version=x.y.z".
var Version = "0.1.0"

// FullVersion returns the version prefixed with v.
func FullVersion() string {
	return "v" + Version
}
