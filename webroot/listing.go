package webroot

import (
	"fmt"
	"html"
	"path"
	"sort"
	"strings"

	"github.com/mandelsoft/vfs/pkg/vfs"
)

// Listing renders an HTML index of the direct children of dir, which must be
// a slash-rooted path within fs. Entries are sorted lexicographically by name
// and their hrefs are rooted at the served folder, so the same listing is
// produced for a given directory snapshot regardless of platform.
func Listing(fs vfs.FileSystem, dir string) (string, error) {
	entries, err := vfs.ReadDir(fs, dir)
	if err != nil {
		return "", fmt.Errorf("failed reading directory %s: %w", dir, err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	var b strings.Builder
	b.WriteString("<html>\n<h1>Directory Listing</h1>\n<ul>\n")

	if dir != "/" {
		parent := path.Dir(dir)
		if parent != "/" {
			parent += "/"
		}
		fmt.Fprintf(&b, "<li><a href=\"%s\">..</a></li>\n", html.EscapeString(parent))
	}

	for _, e := range entries {
		href := path.Join(dir, e.Name())
		name := e.Name()
		if e.IsDir() {
			href += "/"
			name += "/"
		}
		fmt.Fprintf(&b, "<li><a href=\"%s\">%s</a></li>\n",
			html.EscapeString(href), html.EscapeString(name))
	}

	b.WriteString("</ul>\n</html>")

	return b.String(), nil
}
