package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Output is an opened log destination.
type Output struct {
	Path   string // empty unless writing to a file
	file   *os.File
	writer io.Writer
}

// OpenOutput resolves a --log-output value.
//
//   - "" or "-": stderr
//   - "none": discard
//   - a path ending in "/" (or an existing directory): a new run log file inside it
//   - any other path: append to that file
func OpenOutput(spec string, now time.Time) (*Output, error) {
	switch strings.ToLower(spec) {
	case "", "-":
		return &Output{writer: os.Stderr}, nil
	case "none":
		return &Output{writer: io.Discard}, nil
	}

	path := spec
	if strings.HasSuffix(spec, "/") || isDir(spec) {
		path = filepath.Join(spec, RunLogFilename(now))
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %q: %w", path, err)
	}
	return &Output{Path: path, file: f, writer: f}, nil
}

// Writer returns the destination writer.
func (o *Output) Writer() io.Writer { return o.writer }

// Close closes the log file if one was opened.
func (o *Output) Close() error {
	if o.file != nil {
		return o.file.Close()
	}
	return nil
}

// RunLogFilename returns botpressops-YYYYMMDD-HHMMSS-sss.log in UTC.
func RunLogFilename(t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("botpressops-%s-%03d.log", t.Format("20060102-150405"), t.Nanosecond()/1_000_000)
}

func isDir(path string) bool {
	st, err := os.Stat(path)
	return err == nil && st.IsDir()
}
