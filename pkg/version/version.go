// Package version holds the build version, overridable with -ldflags "-X tonegen/pkg/version.Version=...".
package version

// Version is the application version.
var Version = "v0.1.0"
