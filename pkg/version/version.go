// Package version exposes the planetzero build version.
package version

import "strings"

// version is overridden at build time with
// -ldflags "-X github.com/rshade/planetzero/pkg/version.version=1.2.3".
//
//nolint:gochecknoglobals // Set by the linker.
var version = "0.1.0-dev"

// GetVersion returns the build version without a leading "v".
func GetVersion() string {
	return strings.TrimPrefix(version, "v")
}
