package blog

import (
	"fmt"
	"io/fs"
	"path"
	"strings"
)

// ScannedFile is a markdown file found under a posts root.
type ScannedFile struct {
	RelPath string // slash-separated path from the root, e.g. "notes/go.md"
	Slug    string // URL-safe name derived from RelPath, e.g. "notes-go"
}

// Scan walks fsys for markdown files. Hidden directories such as .git or
// .drafts are skipped.
func Scan(fsys fs.FS) ([]ScannedFile, error) {
	var files []ScannedFile
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("failed to access path %s: %w", p, err)
		}
		if d.IsDir() {
			if p != "." && strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		if path.Ext(p) != ".md" {
			return nil
		}
		files = append(files, ScannedFile{RelPath: p, Slug: slugFor(p)})
		return nil
	})
	if err != nil {
		return files, fmt.Errorf("scan posts: %w", err)
	}
	return files, nil
}

// slugFor flattens "notes/go.md" to "notes-go" so it fits one path segment.
func slugFor(relPath string) string {
	return strings.ReplaceAll(strings.TrimSuffix(relPath, ".md"), "/", "-")
}
