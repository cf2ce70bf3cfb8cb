//go:build !debug

// load resolves pkg/version/buildTime for a release build of spbctl,
// falling back to [debug.ReadBuildInfo] when the linker didn't set them via
// -X. RootCommand.Version and the "node run"/"host run" banner are the only
// consumers.
package build

import "runtime/debug"

func load() {
	if pkg != "" && version != "" && buildTime != "" {
		version = semver(version)
		return
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	if pkg == "" {
		pkg = info.Main.Path
	}
	if version == "" {
		version = info.Main.Version
	}
	if buildTime == "" {
		for _, s := range info.Settings {
			if s.Key == "vcs.time" {
				buildTime = s.Value
				if buildTime[len(buildTime)-1] == 'Z' {
					buildTime = buildTime[:len(buildTime)-1] + "+00:00"
				}
				break
			}
		}
	}
}
