// Package webroot maps request paths onto a served root folder: it guards
// against traversal and forbidden names, classifies paths by filesystem
// metadata, renders directory listings and resolves MIME types.
package webroot

import (
	"path"
	"slices"
	"strings"

	"github.com/mandelsoft/vfs/pkg/vfs"
)

// ScriptsDir is the name of the root subdirectory whose files are executed
// instead of served.
const ScriptsDir = "scripts"

// Kind classifies a resolved request path.
type Kind int

// The possible path classifications.
const (
	KindForbidden Kind = iota
	KindDir
	KindFile
	KindMissing
)

// Resolved is the outcome of mapping a request path onto the served root.
type Resolved struct {
	// Path is the canonical slash-rooted path within the root filesystem.
	Path string
	Kind Kind
}

// InDir reports whether the resolved path lies under the named top-level
// directory of the root.
func (r Resolved) InDir(name string) bool {
	return strings.HasPrefix(r.Path, "/"+name+"/")
}

// Resolver canonicalizes request paths relative to a root filesystem and
// classifies them. Name checks run before any filesystem access, so forbidden
// paths never leak whether they exist.
type Resolver struct {
	fs       vfs.FileSystem
	reserved []string // segment names that are never served
}

// NewResolver returns a Resolver serving from fs, which must be rooted at the
// served folder. Any path segment matching one of the forbidden directory or
// file names is refused.
func NewResolver(fs vfs.FileSystem, forbiddenDirs, forbiddenFiles []string) *Resolver {
	reserved := make([]string, 0, len(forbiddenDirs)+len(forbiddenFiles))
	reserved = append(reserved, forbiddenDirs...)
	reserved = append(reserved, forbiddenFiles...)

	return &Resolver{fs: fs, reserved: reserved}
}

// Resolve canonicalizes the requested path and classifies it. Traversal
// outside the root, reserved segment names and hidden entries all resolve to
// KindForbidden regardless of existence.
func (r *Resolver) Resolve(requested string) Resolved {
	trimmed := strings.TrimLeft(requested, "/")
	cleaned := path.Clean(trimmed)
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		// The join escapes the root.
		return Resolved{Path: path.Clean("/" + requested), Kind: KindForbidden}
	}

	p := path.Clean("/" + cleaned)
	if !r.allowed(p) {
		return Resolved{Path: p, Kind: KindForbidden}
	}

	fi, err := r.fs.Stat(p)
	switch {
	case err != nil:
		// Includes broken symlinks and permission-denied stat.
		return Resolved{Path: p, Kind: KindMissing}
	case fi.IsDir():
		return Resolved{Path: p, Kind: KindDir}
	case fi.Mode().IsRegular():
		return Resolved{Path: p, Kind: KindFile}
	default:
		return Resolved{Path: p, Kind: KindMissing}
	}
}

// allowed checks every path segment against the reserved names and the
// hidden-entry rule.
func (r *Resolver) allowed(p string) bool {
	if p == "/" {
		return true
	}

	for _, seg := range strings.Split(strings.TrimPrefix(p, "/"), "/") {
		if strings.HasPrefix(seg, ".") {
			return false
		}
		if slices.Contains(r.reserved, seg) {
			return false
		}
	}

	return true
}
