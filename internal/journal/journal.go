// Package journal records accepted pushes as zstd-compressed JSONL so a
// sync session can be inspected or replayed later.
package journal

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// Writer appends records to a journal file. Safe for concurrent use.
type Writer struct {
	mu   sync.Mutex
	file *os.File
	enc  *zstd.Encoder
}

// NewWriter opens (or creates) the journal at path. Appends produce
// additional zstd frames, which the reader handles transparently.
func NewWriter(path string) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating journal directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}

	enc, err := zstd.NewWriter(file, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("creating zstd encoder: %w", err)
	}

	return &Writer{file: file, enc: enc}, nil
}

// Append writes one record as a JSON line and flushes it into the stream.
func (w *Writer) Append(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding journal record: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := w.enc.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("writing journal record: %w", err)
	}
	// Flush per record so a crash loses at most the in-flight line.
	if err := w.enc.Flush(); err != nil {
		return fmt.Errorf("flushing journal: %w", err)
	}
	return nil
}

func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.enc.Close(); err != nil {
		_ = w.file.Close()
		return fmt.Errorf("closing zstd encoder: %w", err)
	}
	return w.file.Close()
}

// Read decompresses the journal at path and returns its records in order.
func Read(path string) ([]map[string]any, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}
	defer func() { _ = file.Close() }()

	dec, err := zstd.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("creating zstd decoder: %w", err)
	}
	defer dec.Close()

	var records []map[string]any
	scanner := bufio.NewScanner(dec)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec map[string]any
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("decoding journal line: %w", err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading journal: %w", err)
	}
	return records, nil
}
