package kube

import (
	"fmt"
	"os"
)

// tempfile writes arbitrary bytes to a temporary file and returns its path
// and a cleanup function to remove it.
func tempfile(bytes []byte) (string, func(), error) {
	f, err := os.CreateTemp("", "botpressops-kube-*")
	if err != nil {
		return "", func() {}, fmt.Errorf("create temp file: %w", err)
	}
	path := f.Name()
	if _, err := f.Write(bytes); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", func() {}, fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", func() {}, fmt.Errorf("close temp file: %w", err)
	}
	cleanup := func() { _ = os.Remove(path) }
	return path, cleanup, nil
}
