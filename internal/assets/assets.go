package assets

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"
)

//go:embed styles/*.css templates/*.html
var builtin embed.FS

// Names of the built-in assets.
const (
	DefaultStyleName = "default"
	PageTemplateName = "page"
)

// ErrNotFound is wrapped by every missing-asset error.
var ErrNotFound = errors.New("not found")

var (
	ErrStyleNotFound    = fmt.Errorf("style %w", ErrNotFound)
	ErrTemplateNotFound = fmt.Errorf("template %w", ErrNotFound)
	ErrInvalidAssetName = errors.New("invalid asset name")
	ErrInvalidBasePath  = errors.New("invalid assets directory")
	ErrAssetRead        = errors.New("reading asset")
	ErrPathTraversal    = errors.New("asset resolves outside the assets directory")
)

// Kind is a family of assets stored under one subdirectory.
type Kind int

const (
	Style Kind = iota
	Template
)

var kinds = [...]struct {
	dir, ext, label string
	missing         error
}{
	Style:    {dir: "styles", ext: ".css", label: "style", missing: ErrStyleNotFound},
	Template: {dir: "templates", ext: ".html", label: "template", missing: ErrTemplateNotFound},
}

func (k Kind) String() string { return kinds[k].label }

// Path returns where the named asset lives relative to an assets root, in
// slash form. Names are bare words: no separators and no dots.
func (k Kind) Path(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("%w: empty %s name", ErrInvalidAssetName, k)
	}
	if strings.ContainsAny(name, `/\.`) {
		return "", fmt.Errorf("%w: %s %q", ErrInvalidAssetName, k, name)
	}
	return kinds[k].dir + "/" + name + kinds[k].ext, nil
}

// result maps a raw read to the package's errors.
func (k Kind) result(name string, data []byte, err error) (string, error) {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return "", fmt.Errorf("%w: %q", kinds[k].missing, name)
	case err != nil:
		return "", fmt.Errorf("%w: %v", ErrAssetRead, err)
	}
	return string(data), nil
}

// Loader returns the text of a named asset.
type Loader interface {
	Load(kind Kind, name string) (string, error)
}

// Builtin serves the assets compiled into the binary.
var Builtin Loader = embedded{}

type embedded struct{}

func (embedded) Load(kind Kind, name string) (string, error) {
	p, err := kind.Path(name)
	if err != nil {
		return "", err
	}
	data, err := builtin.ReadFile(p)
	return kind.result(name, data, err)
}

// StyleNames lists the built-in styles in lexical order.
func StyleNames() []string {
	matches, err := fs.Glob(builtin, kinds[Style].dir+"/*"+kinds[Style].ext)
	if err != nil {
		return nil
	}
	names := make([]string, len(matches))
	for i, m := range matches {
		names[i] = strings.TrimSuffix(path.Base(m), kinds[Style].ext)
	}
	return names
}
