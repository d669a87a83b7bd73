package testutil

import (
	"os"
	"path/filepath"
)

// TempDir is a temporary project directory.
type TempDir struct {
	Path string
}

// NewTempDir creates a temp directory
func NewTempDir() (*TempDir, error) {
	path, err := os.MkdirTemp("", "mloq-test-*")
	if err != nil {
		return nil, err
	}
	return &TempDir{Path: path}, nil
}

// Join returns the path of name inside the directory.
func (d *TempDir) Join(name string) string {
	return filepath.Join(d.Path, filepath.FromSlash(name))
}

// WriteFile creates name, and its parent directories, with content.
func (d *TempDir) WriteFile(name, content string) error {
	path := d.Join(name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0644)
}

// ReadFile returns the content of name.
func (d *TempDir) ReadFile(name string) (string, error) {
	content, err := os.ReadFile(d.Join(name))
	if err != nil {
		return "", err
	}
	return string(content), nil
}

// Exists checks if name exists
func (d *TempDir) Exists(name string) bool {
	_, err := os.Stat(d.Join(name))
	return err == nil
}

// Cleanup removes the temp directory
func (d *TempDir) Cleanup() {
	os.RemoveAll(d.Path)
}
