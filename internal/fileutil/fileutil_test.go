package fileutil_test

// Notes:
// - Temp pairs are created under t.TempDir() so assertions on directory
//   contents are not disturbed by other processes.
// - The WriteString and Close error branches of WriteInput are not tested:
//   triggering disk write failures is platform-specific.

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/alnah/go-mermaid/internal/fileutil"
)

// ---------------------------------------------------------------------------
// TestValidateExtension - Extension validation
// ---------------------------------------------------------------------------

func TestValidateExtension(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		extension string
		wantErr   error
	}{
		{
			name:      "valid extension mmd",
			extension: "mmd",
			wantErr:   nil,
		},
		{
			name:      "valid extension svg",
			extension: "svg",
			wantErr:   nil,
		},
		{
			name:      "empty extension",
			extension: "",
			wantErr:   fileutil.ErrExtensionEmpty,
		},
		{
			name:      "forward slash path traversal",
			extension: "../etc/passwd",
			wantErr:   fileutil.ErrExtensionPathTraversal,
		},
		{
			name:      "backslash path traversal",
			extension: "..\\windows\\system32",
			wantErr:   fileutil.ErrExtensionPathTraversal,
		},
		{
			name:      "null byte injection",
			extension: "svg\x00exe",
			wantErr:   fileutil.ErrExtensionPathTraversal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := fileutil.ValidateExtension(tt.extension)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateExtension(%q) = %v, want %v", tt.extension, err, tt.wantErr)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestNewTempPair - Path reservation
// ---------------------------------------------------------------------------

func TestNewTempPair(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	pair, err := fileutil.NewTempPair(dir, "mermaid", "mmd", "svg")
	if err != nil {
		t.Fatalf("NewTempPair() error = %v", err)
	}

	if filepath.Dir(pair.Input) != dir || filepath.Dir(pair.Output) != dir {
		t.Errorf("paths not under %s: %s, %s", dir, pair.Input, pair.Output)
	}
	if !strings.HasPrefix(filepath.Base(pair.Input), "mermaid-") {
		t.Errorf("input %q does not start with prefix", pair.Input)
	}
	if !strings.HasSuffix(pair.Input, ".mmd") || !strings.HasSuffix(pair.Output, ".svg") {
		t.Errorf("unexpected extensions: %s, %s", pair.Input, pair.Output)
	}
	if strings.TrimSuffix(pair.Input, ".mmd") != strings.TrimSuffix(pair.Output, ".svg") {
		t.Errorf("input and output do not share a base name: %s, %s", pair.Input, pair.Output)
	}

	// Nothing is created until WriteInput.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("NewTempPair() created %d files, want 0", len(entries))
	}
}

func TestNewTempPair_DefaultDir(t *testing.T) {
	t.Parallel()

	pair, err := fileutil.NewTempPair("", "mermaid", "mmd", "svg")
	if err != nil {
		t.Fatalf("NewTempPair() error = %v", err)
	}
	if filepath.Dir(pair.Input) != filepath.Clean(os.TempDir()) {
		t.Errorf("input %q not under os.TempDir()", pair.Input)
	}
}

func TestNewTempPair_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		prefix  string
		inExt   string
		outExt  string
		wantErr error
	}{
		{
			name:    "empty input extension",
			prefix:  "mermaid",
			inExt:   "",
			outExt:  "svg",
			wantErr: fileutil.ErrExtensionEmpty,
		},
		{
			name:    "traversal in output extension",
			prefix:  "mermaid",
			inExt:   "mmd",
			outExt:  "../svg",
			wantErr: fileutil.ErrExtensionPathTraversal,
		},
		{
			name:    "traversal in prefix",
			prefix:  "../mermaid",
			inExt:   "mmd",
			outExt:  "svg",
			wantErr: fileutil.ErrPrefixPathTraversal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := fileutil.NewTempPair(t.TempDir(), tt.prefix, tt.inExt, tt.outExt)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("NewTempPair() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestNewTempPair_Concurrent - Uniqueness under concurrent calls
// ---------------------------------------------------------------------------

func TestNewTempPair_Concurrent(t *testing.T) {
	t.Parallel()

	const n = 64
	dir := t.TempDir()

	var (
		mu    sync.Mutex
		seen  = make(map[string]bool, n)
		wg    sync.WaitGroup
		errCh = make(chan error, n)
	)

	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pair, err := fileutil.NewTempPair(dir, "mermaid", "mmd", "svg")
			if err != nil {
				errCh <- err
				return
			}
			if err := pair.WriteInput("graph TD; A-->B;"); err != nil {
				errCh <- err
				return
			}
			mu.Lock()
			seen[pair.Input] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	close(errCh)

	for err := range errCh {
		t.Errorf("concurrent temp pair: %v", err)
	}
	if len(seen) != n {
		t.Errorf("got %d unique paths, want %d", len(seen), n)
	}
}

// ---------------------------------------------------------------------------
// TestTempPair - Write, read, cleanup
// ---------------------------------------------------------------------------

func TestTempPair_RoundTrip(t *testing.T) {
	t.Parallel()

	pair, err := fileutil.NewTempPair(t.TempDir(), "mermaid", "mmd", "svg")
	if err != nil {
		t.Fatalf("NewTempPair() error = %v", err)
	}

	if err := pair.WriteInput("graph TD; A-->B;"); err != nil {
		t.Fatalf("WriteInput() error = %v", err)
	}
	data, err := os.ReadFile(pair.Input)
	if err != nil {
		t.Fatalf("reading input: %v", err)
	}
	if string(data) != "graph TD; A-->B;" {
		t.Errorf("input content = %q", data)
	}

	if err := os.WriteFile(pair.Output, []byte("<svg></svg>"), 0o600); err != nil {
		t.Fatalf("writing output: %v", err)
	}
	got, err := pair.ReadOutput()
	if err != nil {
		t.Fatalf("ReadOutput() error = %v", err)
	}
	if got != "<svg></svg>" {
		t.Errorf("ReadOutput() = %q", got)
	}

	pair.Cleanup()
	for _, p := range []string{pair.Input, pair.Output} {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Errorf("%s still exists after Cleanup()", p)
		}
	}
}

func TestTempPair_WriteInputRefusesOverwrite(t *testing.T) {
	t.Parallel()

	pair, err := fileutil.NewTempPair(t.TempDir(), "mermaid", "mmd", "svg")
	if err != nil {
		t.Fatalf("NewTempPair() error = %v", err)
	}
	if err := pair.WriteInput("first"); err != nil {
		t.Fatalf("WriteInput() error = %v", err)
	}
	if err := pair.WriteInput("second"); err == nil {
		t.Error("WriteInput() on existing file succeeded, want error")
	}
}

func TestTempPair_ReadOutputMissing(t *testing.T) {
	t.Parallel()

	pair, err := fileutil.NewTempPair(t.TempDir(), "mermaid", "mmd", "svg")
	if err != nil {
		t.Fatalf("NewTempPair() error = %v", err)
	}
	if _, err := pair.ReadOutput(); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("ReadOutput() error = %v, want os.ErrNotExist", err)
	}
}

func TestTempPair_CleanupMissingFiles(t *testing.T) {
	t.Parallel()

	pair, err := fileutil.NewTempPair(t.TempDir(), "mermaid", "mmd", "svg")
	if err != nil {
		t.Fatalf("NewTempPair() error = %v", err)
	}
	// Must not panic when nothing was created.
	pair.Cleanup()
}

// ---------------------------------------------------------------------------
// TestFileExists / TestIsFilePath / TestIsURL
// ---------------------------------------------------------------------------

func TestFileExists(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := filepath.Join(dir, "a.yaml")
	if err := os.WriteFile(file, []byte("themes: [dark]"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		path string
		want bool
	}{
		{name: "regular file", path: file, want: true},
		{name: "directory", path: dir, want: false},
		{name: "missing", path: filepath.Join(dir, "missing"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := fileutil.FileExists(tt.path); got != tt.want {
				t.Errorf("FileExists(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestIsFilePath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want bool
	}{
		{in: "work", want: false},
		{in: "my-config", want: false},
		{in: "./mermaid.yaml", want: true},
		{in: "/etc/mermaid.yaml", want: true},
		{in: `C:\config\mermaid.yaml`, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			if got := fileutil.IsFilePath(tt.in); got != tt.want {
				t.Errorf("IsFilePath(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestIsURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want bool
	}{
		{in: "https://cdn.jsdelivr.net/npm/mermaid@10/dist/mermaid.min.js", want: true},
		{in: "http://localhost/mermaid.js", want: true},
		{in: "./mermaid.min.js", want: false},
		{in: "file:///tmp/mermaid.js", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			if got := fileutil.IsURL(tt.in); got != tt.want {
				t.Errorf("IsURL(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
