// Package misc keeps build time information.
package misc

// Set with -ldflags "-X slidefit/misc.version=... -X slidefit/misc.githash=...".
var (
	version = "dev"
	githash = "unknown"
)

const appName = "slidefit"

func GetAppName() string {
	return appName
}

func GetVersion() string {
	return version
}

func GetGitHash() string {
	return githash
}
