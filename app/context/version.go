package context

import (
	"errors"
	"fmt"
	"runtime/debug"
)

// VersionInfo contains the application version metadata recorded by the Go
// toolchain at build time.
type VersionInfo struct {
	Semantic string
	Commit   string
	Dirty    bool
}

// GetVersion extracts the version metadata from the binary's build info.
func GetVersion() (*VersionInfo, error) {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return nil, errors.New("failed reading build info")
	}

	v := &VersionInfo{Semantic: bi.Main.Version}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			v.Commit = s.Value
		case "vcs.modified":
			v.Dirty = s.Value == "true"
		}
	}

	return v, nil
}

// String renders the version in a human-readable form.
func (v *VersionInfo) String() string {
	out := v.Semantic
	if v.Commit != "" {
		commit := v.Commit
		if len(commit) > 8 {
			commit = commit[:8]
		}
		out = fmt.Sprintf("%s (%s", out, commit)
		if v.Dirty {
			out += ", dirty"
		}
		out += ")"
	}

	return out
}
