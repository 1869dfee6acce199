package script

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultPattern matches module scripts
const DefaultPattern = "**/*.js"

// Discover reads every script below dir matching pattern
func Discover(dir, pattern string) ([]Source, error) {
	return DiscoverFS(os.DirFS(dir), pattern)
}

// DiscoverFS reads every script of fsys matching pattern. The module id is
// the file name without extension. Sources are sorted by path.
func DiscoverFS(fsys fs.FS, pattern string) ([]Source, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid pattern %q", pattern)
	}

	files, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("failed to list scripts: %w", err)
	}
	slices.Sort(files)

	sources := make([]Source, 0, len(files))
	for _, file := range files {
		code, err := fs.ReadFile(fsys, file)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", file, err)
		}
		sources = append(sources, Source{
			ID:   strings.TrimSuffix(path.Base(file), path.Ext(file)),
			Name: file,
			Code: string(code),
		})
	}
	return sources, nil
}
