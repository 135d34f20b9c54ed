// Package pipeline persists the collected books as a tabular artifact.
package pipeline

import (
	"fmt"
	"strings"

	"github.com/aluiziolira/book-converter/config"
	"github.com/aluiziolira/book-converter/models"
	"go.uber.org/zap"
)

// OutputWriter defines the interface for data output. Nothing is visible at
// the destination until Close succeeds; Abort discards everything written.
type OutputWriter interface {
	Write(books []*models.Book) error
	Close() error
	Validate() error
	Abort() error
}

// Exporter writes a finished result collection in one step.
type Exporter struct {
	format        string
	dedupeMaxSize int
	logger        *zap.Logger
}

// NewExporter builds an exporter for cfg.OutputFormat.
func NewExporter(cfg *config.Config, logger *zap.Logger) *Exporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Exporter{
		format:        cfg.OutputFormat,
		dedupeMaxSize: cfg.DedupeMaxSize,
		logger:        logger,
	}
}

// Export writes books to dest in collection order and returns the number of
// rows written. Any failure is an *IOError and leaves dest untouched.
func (e *Exporter) Export(books []*models.Book, dest string) (int, error) {
	records := books
	if e.dedupeMaxSize > 0 {
		d, err := newDeduper(e.dedupeMaxSize)
		if err != nil {
			return 0, &IOError{Destination: dest, Err: err}
		}
		records = d.Filter(books)
		if dropped := len(books) - len(records); dropped > 0 {
			e.logger.Info("dropped duplicate books", zap.Int("dropped", dropped))
		}
	}

	writer, err := CreateWriter(e.format, dest)
	if err != nil {
		return 0, &IOError{Destination: dest, Err: err}
	}

	if err := writer.Write(records); err != nil {
		return 0, e.abort(writer, dest, err)
	}
	if err := writer.Validate(); err != nil {
		return 0, e.abort(writer, dest, err)
	}
	if err := writer.Close(); err != nil {
		return 0, e.abort(writer, dest, err)
	}

	e.logger.Info("export complete",
		zap.String("destination", dest),
		zap.String("format", e.format),
		zap.Int("rows", len(records)),
	)
	return len(records), nil
}

func (e *Exporter) abort(writer OutputWriter, dest string, cause error) error {
	if err := writer.Abort(); err != nil {
		e.logger.Warn("discard partial output", zap.String("destination", dest), zap.Error(err))
	}
	return &IOError{Destination: dest, Err: cause}
}

// CreateWriter opens the writer for a format.
func CreateWriter(format, filename string) (OutputWriter, error) {
	switch format {
	case config.FormatJSON:
		return NewJSONWriter(filename)
	case config.FormatCSV:
		return NewCSVWriter(filename)
	case config.FormatDual:
		return NewDualWriter(filename, DualJSONPath(filename))
	case config.FormatSQLite:
		return NewSQLiteWriter(filename)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// DualJSONPath is where the JSON half of a dual export goes.
func DualJSONPath(csvPath string) string {
	return strings.TrimSuffix(csvPath, ".csv") + ".jsonl"
}
