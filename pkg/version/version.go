// Package version holds the build version string.
package version

// Version is overridden at release time via
// -ldflags "-X github.com/maxvaer/secprobe/pkg/version.Version=x.y.z".
var Version = "dev"
