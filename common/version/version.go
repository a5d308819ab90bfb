package version

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/sirupsen/logrus"
)

var GitCommit string
var Version string

type BuildInfo struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	GoVersion string `json:"go_version"`
}

func SetDefaults() {
	if GitCommit == "" {
		GitCommit = ".dev"
		if build, ok := debug.ReadBuildInfo(); ok {
			for _, setting := range build.Settings {
				if setting.Key == "vcs.revision" {
					GitCommit = setting.Value
					break
				}
			}
		}
	}

	if Version == "" {
		Version = "unknown"
	}
}

func Info() BuildInfo {
	SetDefaults()
	return BuildInfo{
		Version:   Version,
		GitCommit: GitCommit,
		GoVersion: runtime.Version(),
	}
}

func Print(usingLogger bool) {
	info := Info()
	if usingLogger {
		logrus.WithFields(logrus.Fields{
			"commit": info.GitCommit,
			"go":     info.GoVersion,
		}).Info("Version: " + info.Version)
	} else {
		fmt.Printf("Version: %s\nCommit: %s\nGo: %s\n", info.Version, info.GitCommit, info.GoVersion)
	}
}
