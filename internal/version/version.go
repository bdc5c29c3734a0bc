package version

import (
	"runtime/debug"
	"strings"
)

// Set at build time with -ldflags "-X servelive/internal/version.Version=...".
var (
	Version   = "dev"
	GitCommit = ""
	Built     = ""
)

type Info struct {
	Version   string
	GitCommit string
	Built     string
}

// Get returns the linked-in version, falling back to the VCS revision the Go
// toolchain stamped into the binary.
func Get() Info {
	info := Info{Version: Version, GitCommit: GitCommit, Built: Built}
	if info.GitCommit != "" {
		return info
	}
	build, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	for _, setting := range build.Settings {
		switch setting.Key {
		case "vcs.revision":
			info.GitCommit = setting.Value
		case "vcs.time":
			if info.Built == "" {
				info.Built = setting.Value
			}
		}
	}
	return info
}

func (info Info) String() string {
	var builder strings.Builder
	builder.WriteString("servelive ")
	builder.WriteString(info.Version)
	if info.GitCommit != "" {
		commit := info.GitCommit
		if len(commit) > 12 {
			commit = commit[:12]
		}
		builder.WriteString(" (" + commit)
		if info.Built != "" {
			builder.WriteString(", built " + info.Built)
		}
		builder.WriteString(")")
	}
	return builder.String()
}
