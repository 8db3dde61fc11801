package sink

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/westquant/pulse/internal/core"
)

// JSONLSink appends accepted signals to a file, one JSON object per line.
type JSONLSink struct {
	mu   sync.Mutex
	path string
	file *os.File
	buf  *bufio.Writer
}

// NewJSONLSink opens (or creates) the output file in append mode.
func NewJSONLSink(path string) (*JSONLSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening output file: %w", err)
	}

	return &JSONLSink{
		path: path,
		file: f,
		buf:  bufio.NewWriter(f),
	}, nil
}

func (s *JSONLSink) Name() string { return "jsonl" }

// Emit writes each signal as one line and flushes at the end of the batch.
func (s *JSONLSink) Emit(ctx context.Context, signals []core.Signal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sig := range signals {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := json.Marshal(sig)
		if err != nil {
			return fmt.Errorf("encoding signal %s: %w", sig.ID, err)
		}
		if _, err := s.buf.Write(append(data, '\n')); err != nil {
			return fmt.Errorf("writing signal %s: %w", sig.ID, err)
		}
	}
	return s.buf.Flush()
}

// Close flushes and closes the output file.
func (s *JSONLSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.buf.Flush(); err != nil {
		s.file.Close()
		return err
	}
	return s.file.Close()
}
