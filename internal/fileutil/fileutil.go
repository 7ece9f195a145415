// Package fileutil provides file and path utility functions.
package fileutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Sentinel errors for file utility operations.
var (
	ErrExtensionEmpty         = errors.New("extension cannot be empty")
	ErrExtensionPathTraversal = errors.New("extension contains path separator or null byte")
	ErrPrefixPathTraversal    = errors.New("prefix contains path separator or null byte")
)

// tempFilePermissions keeps diagram sources private to the current user.
const tempFilePermissions = 0o600

// TempPair is an input/output file pair sharing one unique base name, so an
// external tool can be pointed at both without any two calls colliding.
// Neither file exists until WriteInput (or the tool) creates it.
type TempPair struct {
	Input  string
	Output string
}

// NewTempPair reserves the paths <dir>/<prefix>-<uuid>.<inExt> and
// <dir>/<prefix>-<uuid>.<outExt>. An empty dir means os.TempDir().
func NewTempPair(dir, prefix, inExt, outExt string) (*TempPair, error) {
	if err := ValidateExtension(inExt); err != nil {
		return nil, err
	}
	if err := ValidateExtension(outExt); err != nil {
		return nil, err
	}
	if strings.ContainsAny(prefix, "/\\\x00") {
		return nil, ErrPrefixPathTraversal
	}
	if dir == "" {
		dir = os.TempDir()
	}

	base := filepath.Join(dir, prefix+"-"+uuid.NewString())
	return &TempPair{
		Input:  base + "." + inExt,
		Output: base + "." + outExt,
	}, nil
}

// WriteInput creates the input file with content. It fails if the file
// already exists rather than overwriting another caller's data.
func (p *TempPair) WriteInput(content string) error {
	f, err := os.OpenFile(p.Input, os.O_WRONLY|os.O_CREATE|os.O_EXCL, tempFilePermissions)
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	if _, writeErr := f.WriteString(content); writeErr != nil {
		_ = f.Close()
		return fmt.Errorf("writing temp file: %w", writeErr)
	}

	if closeErr := f.Close(); closeErr != nil {
		return fmt.Errorf("closing temp file: %w", closeErr)
	}
	return nil
}

// ReadOutput returns the content of the output file.
func (p *TempPair) ReadOutput() (string, error) {
	data, err := os.ReadFile(p.Output)
	if err != nil {
		return "", fmt.Errorf("reading output file: %w", err)
	}
	return string(data), nil
}

// Cleanup removes both files. Missing files are ignored.
func (p *TempPair) Cleanup() {
	_ = os.Remove(p.Input)
	_ = os.Remove(p.Output)
}

// ValidateExtension checks that the extension is safe for use in temp file names.
func ValidateExtension(extension string) error {
	if extension == "" {
		return ErrExtensionEmpty
	}
	if strings.ContainsAny(extension, "/\\\x00") {
		return ErrExtensionPathTraversal
	}
	return nil
}

// FileExists returns true if the path exists and is a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// IsFilePath returns true if the string looks like a file path rather than a name.
// A string containing path separators (/, \) is treated as a path.
//
// Examples:
//   - "work" -> false (name)
//   - "./mermaid.yaml" -> true (relative path)
//   - "/etc/mermaid.yaml" -> true (absolute)
//   - "C:\config\mermaid.yaml" -> true (Windows)
func IsFilePath(s string) bool {
	return strings.ContainsAny(s, "/\\")
}

// IsURL returns true if the string looks like a URL.
func IsURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
