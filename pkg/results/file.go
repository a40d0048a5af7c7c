package results

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileSink keeps all published datapoints and rewrites a JSON report file on every publish.
type FileSink struct {
	path string

	lock       sync.Mutex
	datapoints []Datapoint
}

// NewFileSink creates a sink writing to path.
func NewFileSink(path string) *FileSink {
	return &FileSink{path: path}
}

func (f *FileSink) Name() string {
	return "file"
}

func (f *FileSink) Publish(_ context.Context, datapoints []Datapoint) error {
	f.lock.Lock()
	defer f.lock.Unlock()

	f.datapoints = append(f.datapoints, datapoints...)
	data, err := json.MarshalIndent(Report{Queries: f.datapoints}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if dir := filepath.Dir(f.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("failed to move report into place: %w", err)
	}
	return nil
}

func (f *FileSink) Close() error {
	return nil
}
