package cli

import (
	"fmt"
	"os"
	"path"
	"sort"

	"github.com/mandelsoft/vfs/pkg/projectionfs"
	"github.com/mandelsoft/vfs/pkg/vfs"

	actx "go.hackfix.me/webfold/app/context"
	"go.hackfix.me/webfold/webroot"
)

// Check inspects a root folder and reports the entries that will be treated
// specially when served: scripts, and entries masked by the forbidden-name or
// hidden-entry rules.
type Check struct {
	Root string `arg:"" help:"Path to the root folder to inspect."`

	ForbiddenDirs  []string `default:"forbidden,secret" help:"Directory names that are never served."`
	ForbiddenFiles []string `default:"forbidden.html" help:"File names that are never served."`
}

// Run the check command.
func (c *Check) Run(appCtx *actx.Context) error {
	root, err := resolveRoot(appCtx.FS, c.Root)
	if err != nil {
		return err
	}

	rootFS, err := projectionfs.New(appCtx.FS, root)
	if err != nil {
		return fmt.Errorf("failed mounting root folder %s: %w", root, err)
	}
	resolver := webroot.NewResolver(rootFS, c.ForbiddenDirs, c.ForbiddenFiles)

	var (
		rows   [][]string
		static int
	)
	err = walk(rootFS, "/", func(p string, fi os.FileInfo) bool {
		res := resolver.Resolve(p)
		switch {
		case res.Kind == webroot.KindForbidden:
			rows = append(rows, []string{p, "masked", "forbidden or hidden name"})
			// Children are masked as well, no point listing them.
			return false
		case res.Kind == webroot.KindFile && res.InDir(webroot.ScriptsDir):
			note := "executable"
			if fi.Mode()&0o111 == 0 {
				note = "missing executable bit"
			}
			rows = append(rows, []string{p, "script", note})
		case res.Kind == webroot.KindFile:
			static++
		}
		return true
	})
	if err != nil {
		return err
	}

	if len(rows) > 0 {
		if err := renderTable([]string{"PATH", "SERVED AS", "NOTES"}, rows, appCtx.Stdout); err != nil {
			return fmt.Errorf("failed rendering report: %w", err)
		}
	}
	fmt.Fprintf(appCtx.Stdout, "%d static files under %s\n", static, root)

	return nil
}

// walk visits every entry under dir depth-first, in lexicographic order per
// directory. The visit callback reports whether to descend into a directory.
func walk(fs vfs.FileSystem, dir string, visit func(string, os.FileInfo) bool) error {
	entries, err := vfs.ReadDir(fs, dir)
	if err != nil {
		return fmt.Errorf("failed reading directory %s: %w", dir, err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, e := range entries {
		p := path.Join(dir, e.Name())
		descend := visit(p, e)
		if e.IsDir() && descend {
			if err := walk(fs, p, visit); err != nil {
				return err
			}
		}
	}

	return nil
}
