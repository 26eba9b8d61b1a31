package storage

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"sync"

	"SalesScanner/internal/domain"
	"SalesScanner/internal/ports"
)

// CSVSink appends sale rows to a headerless CSV file. The file is opened in
// append mode on every write so earlier runs are never truncated.
type CSVSink struct {
	path string
	mu   sync.Mutex
}

var _ ports.SaleSink = (*CSVSink)(nil)

// NewCSVSink returns a sink writing to path.
func NewCSVSink(path string) *CSVSink {
	return &CSVSink{path: path}
}

// Name implements ports.SaleSink.
func (s *CSVSink) Name() string {
	return "csv"
}

// Path returns the output file location.
func (s *CSVSink) Path() string {
	return s.path
}

// Append writes a single row followed by a newline.
func (s *CSVSink) Append(ctx context.Context, row domain.SaleRow) error {
	if err := ctx.Err(); err != nil {
		return domain.Sink("append csv row", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return domain.Sink("append csv row", fmt.Errorf("open %s: %w", s.path, err))
	}

	w := csv.NewWriter(f)
	writeErr := w.Write(row.Record())
	if writeErr == nil {
		w.Flush()
		writeErr = w.Error()
	}
	closeErr := f.Close()

	if writeErr != nil {
		return domain.Sink("append csv row", fmt.Errorf("write %s: %w", s.path, writeErr))
	}
	if closeErr != nil {
		return domain.Sink("append csv row", fmt.Errorf("close %s: %w", s.path, closeErr))
	}
	return nil
}
