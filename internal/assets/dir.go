package assets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Dir serves assets from a directory laid out like the built-in tree:
// styles/{name}.css and templates/{name}.html. Files that resolve outside
// the directory, through symlinks included, are refused.
type Dir struct {
	root string // absolute, symlinks resolved
}

// OpenDir returns a Dir rooted at path, which must be a readable directory.
func OpenDir(path string) (*Dir, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidBasePath)
	}
	root, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBasePath, err)
	}
	if real, err := filepath.EvalSymlinks(root); err == nil {
		root = real
	}

	info, err := os.Stat(root)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("%w: %s does not exist", ErrInvalidBasePath, root)
	case err != nil:
		return nil, fmt.Errorf("%w: %v", ErrInvalidBasePath, err)
	case !info.IsDir():
		return nil, fmt.Errorf("%w: %s is not a directory", ErrInvalidBasePath, root)
	}
	if _, err := os.ReadDir(root); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBasePath, err)
	}
	return &Dir{root: root}, nil
}

// Load reads the named asset from disk.
func (d *Dir) Load(kind Kind, name string) (string, error) {
	rel, err := kind.Path(name)
	if err != nil {
		return "", err
	}
	file, err := d.contain(filepath.Join(d.root, filepath.FromSlash(rel)))
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(file) // #nosec G304 -- name validated, path contained
	return kind.result(name, data, err)
}

// contain resolves file and checks it stays under the root. A missing file
// is checked as written.
func (d *Dir) contain(file string) (string, error) {
	resolved := file
	if real, err := filepath.EvalSymlinks(file); err == nil {
		resolved = real
	}
	if !strings.HasPrefix(resolved, d.root+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrPathTraversal, file)
	}
	return resolved, nil
}
