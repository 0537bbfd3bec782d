package main

import "runtime/debug"

// version is set at release time with -ldflags "-X main.version=v1.0.0".
var version = ""

// getVersion prefers the ldflags version, then the module version recorded
// by go install, and falls back to "dev".
func getVersion() string {
	if version != "" {
		return version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return "dev"
}
