package utils

import (
	"runtime/debug"
)

const (
	unknownVersion     = "unknown"
	developmentVersion = "(devel)"
)

// Version is injected at build time with -ldflags "-X github.com/temirov/repodoc/internal/utils.Version=...".
var Version = ""

// GetApplicationVersion returns the injected version, then the module version from build info.
func GetApplicationVersion() string {
	if Version != "" {
		return Version
	}
	buildInfo, buildInfoAvailable := debug.ReadBuildInfo()
	if buildInfoAvailable && buildInfo.Main.Version != "" && buildInfo.Main.Version != developmentVersion {
		return buildInfo.Main.Version
	}
	return unknownVersion
}
