package assets

// Notes:
// - loaderFunc stands in for a loader so the search order can be checked
//   without touching the disk.

import (
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"
)

type loaderFunc func(Kind, string) (string, error)

func (f loaderFunc) Load(kind Kind, name string) (string, error) { return f(kind, name) }

// ---------------------------------------------------------------------------
// TestChain_Load
// ---------------------------------------------------------------------------

func TestChain_Load(t *testing.T) {
	t.Parallel()

	missing := loaderFunc(func(k Kind, name string) (string, error) {
		return k.result(name, nil, fs.ErrNotExist)
	})
	broken := loaderFunc(func(Kind, string) (string, error) {
		return "", ErrAssetRead
	})
	fixed := func(text string) Loader {
		return loaderFunc(func(Kind, string) (string, error) { return text, nil })
	}

	tests := []struct {
		name    string
		chain   Chain
		kind    Kind
		want    string
		wantErr error
	}{
		{name: "first wins", chain: Chain{fixed("a"), fixed("b")}, kind: Style, want: "a"},
		{name: "missing falls through", chain: Chain{missing, fixed("b")}, kind: Style, want: "b"},
		{name: "read error stops", chain: Chain{broken, fixed("b")}, kind: Style, wantErr: ErrAssetRead},
		{name: "missing everywhere", chain: Chain{missing, missing}, kind: Template, wantErr: ErrTemplateNotFound},
		{name: "empty", chain: Chain{}, kind: Style, wantErr: ErrStyleNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := tt.chain.Load(tt.kind, "x")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Load() error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Load() = %q, want %q", got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestOpen
// ---------------------------------------------------------------------------

func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("empty dir is builtin", func(t *testing.T) {
		t.Parallel()

		l, err := Open("")
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		if l != Builtin {
			t.Errorf("Open(\"\") = %T, want Builtin", l)
		}
	})

	t.Run("missing dir", func(t *testing.T) {
		t.Parallel()

		if _, err := Open(filepath.Join(t.TempDir(), "none")); !errors.Is(err, ErrInvalidBasePath) {
			t.Errorf("Open() error = %v, want ErrInvalidBasePath", err)
		}
	})

	dir := t.TempDir()
	writeAsset(t, dir, "styles", "default.css", "/* custom default */")
	writeAsset(t, dir, "styles", "handbook.css", "/* handbook */")
	writeAsset(t, dir, "templates", "page.html", `{{define "page"}}custom{{end}}`)

	l, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	tests := []struct {
		name        string
		kind        Kind
		asset       string
		wantContain string
		wantErr     error
	}{
		{name: "directory overrides builtin", kind: Style, asset: "default", wantContain: "custom default"},
		{name: "directory only", kind: Style, asset: "handbook", wantContain: "handbook"},
		{name: "builtin fallback", kind: Style, asset: "auto", wantContain: "prefers-color-scheme"},
		{name: "custom template", kind: Template, asset: PageTemplateName, wantContain: "custom"},
		{name: "missing everywhere", kind: Style, asset: "nope", wantErr: ErrStyleNotFound},
		{name: "invalid name not retried", kind: Style, asset: "../x", wantErr: ErrInvalidAssetName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := l.Load(tt.kind, tt.asset)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Load(%v, %q) error = %v, want %v", tt.kind, tt.asset, err, tt.wantErr)
			}
			if !strings.Contains(got, tt.wantContain) {
				t.Errorf("Load(%v, %q) = %q, want to contain %q", tt.kind, tt.asset, got, tt.wantContain)
			}
		})
	}
}
