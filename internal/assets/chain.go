package assets

import (
	"errors"
	"io/fs"
)

// Chain searches its loaders in order. The search moves on only while an
// asset is missing; any other failure is returned as is.
type Chain []Loader

// Load returns the first copy of the asset found.
func (c Chain) Load(kind Kind, name string) (string, error) {
	for _, l := range c {
		text, err := l.Load(kind, name)
		if !errors.Is(err, ErrNotFound) {
			return text, err
		}
	}
	return kind.result(name, nil, fs.ErrNotExist)
}

// Open returns the loader for an assets directory: its files override the
// built-in assets of the same kind and name. An empty dir selects Builtin.
func Open(dir string) (Loader, error) {
	if dir == "" {
		return Builtin, nil
	}
	d, err := OpenDir(dir)
	if err != nil {
		return nil, err
	}
	return Chain{d, Builtin}, nil
}
