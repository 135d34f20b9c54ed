package pipeline

import (
	"errors"
	"fmt"
	"sync"

	"github.com/aluiziolira/book-converter/models"
)

// stagedWriter splits Close into a flush that can still fail and a rename
// that publishes the file, so several outputs can be published together.
type stagedWriter interface {
	OutputWriter
	flush() error
	commit() error
}

func (cw *CSVWriter) commit() error  { return cw.file.Commit() }
func (jw *JSONWriter) commit() error { return jw.file.Commit() }

type part struct {
	label  string
	writer stagedWriter
}

// DualWriter writes the CSV artifact and a JSONL twin side by side. Neither
// file appears unless both were flushed without error.
type DualWriter struct {
	mu    sync.Mutex
	parts []part
}

// NewDualWriter stages both files; on failure nothing is left behind.
func NewDualWriter(csvFilename, jsonFilename string) (*DualWriter, error) {
	csvWriter, err := NewCSVWriter(csvFilename)
	if err != nil {
		return nil, fmt.Errorf("csv: %w", err)
	}
	jsonWriter, err := NewJSONWriter(jsonFilename)
	if err != nil {
		_ = csvWriter.Abort()
		return nil, fmt.Errorf("json: %w", err)
	}

	return &DualWriter{parts: []part{
		{label: "csv", writer: csvWriter},
		{label: "json", writer: jsonWriter},
	}}, nil
}

func (dw *DualWriter) each(fn func(p part) error) error {
	for _, p := range dw.parts {
		if err := fn(p); err != nil {
			return fmt.Errorf("%s: %w", p.label, err)
		}
	}
	return nil
}

func (dw *DualWriter) Write(books []*models.Book) error {
	dw.mu.Lock()
	defer dw.mu.Unlock()
	return dw.each(func(p part) error { return p.writer.Write(books) })
}

// Close flushes every part before committing any of them.
func (dw *DualWriter) Close() error {
	dw.mu.Lock()
	defer dw.mu.Unlock()

	if err := dw.each(func(p part) error { return p.writer.flush() }); err != nil {
		return err
	}
	return dw.each(func(p part) error { return p.writer.commit() })
}

func (dw *DualWriter) Abort() error {
	dw.mu.Lock()
	defer dw.mu.Unlock()

	errs := make([]error, 0, len(dw.parts))
	for _, p := range dw.parts {
		if err := p.writer.Abort(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p.label, err))
		}
	}
	return errors.Join(errs...)
}

func (dw *DualWriter) Validate() error {
	errs := make([]error, 0, len(dw.parts))
	for _, p := range dw.parts {
		if err := p.writer.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p.label, err))
		}
	}
	return errors.Join(errs...)
}
