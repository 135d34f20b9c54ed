package pipeline

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/aluiziolira/book-converter/models"
)

// CSVHeader names the exported columns.
var CSVHeader = []string{"title", "price_converted", "availability", "rating"}

// CSVWriter writes records to CSV.
type CSVWriter struct {
	file   *stagedFile
	writer *csv.Writer
	mu     sync.Mutex
}

// NewCSVWriter initialises a CSV writer and writes the header row.
func NewCSVWriter(filename string) (*CSVWriter, error) {
	f, err := stageFile(filename)
	if err != nil {
		return nil, err
	}

	writer := csv.NewWriter(f)
	if err := writer.Write(CSVHeader); err != nil {
		f.Abort()
		return nil, fmt.Errorf("write csv header: %w", err)
	}

	return &CSVWriter{
		file:   f,
		writer: writer,
	}, nil
}

// Write appends books to the CSV output.
func (cw *CSVWriter) Write(books []*models.Book) error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	for _, book := range books {
		record := []string{
			book.Title,
			book.ConvertedText(),
			book.Availability,
			strconv.Itoa(book.Rating),
		}
		if err := cw.writer.Write(record); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
	}
	cw.writer.Flush()
	if err := cw.writer.Error(); err != nil {
		return fmt.Errorf("flush csv records: %w", err)
	}
	return nil
}

func (cw *CSVWriter) flush() error {
	cw.writer.Flush()
	if err := cw.writer.Error(); err != nil {
		return fmt.Errorf("flush csv writer: %w", err)
	}
	return nil
}

// Close flushes and moves the file into place.
func (cw *CSVWriter) Close() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if err := cw.flush(); err != nil {
		return err
	}
	return cw.file.Commit()
}

// Abort removes the staged file.
func (cw *CSVWriter) Abort() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	return cw.file.Abort()
}

// Validate ensures the file has content.
func (cw *CSVWriter) Validate() error {
	return cw.file.validate("csv")
}

// JSONWriter writes newline-delimited JSON records.
type JSONWriter struct {
	file    *stagedFile
	writer  *bufio.Writer
	encoder *json.Encoder
	mu      sync.Mutex
}

// NewJSONWriter initialises the JSON writer.
func NewJSONWriter(filename string) (*JSONWriter, error) {
	f, err := stageFile(filename)
	if err != nil {
		return nil, err
	}

	buffer := bufio.NewWriter(f)
	return &JSONWriter{
		file:    f,
		writer:  buffer,
		encoder: json.NewEncoder(buffer),
	}, nil
}

// Write appends books in JSONL format.
func (jw *JSONWriter) Write(books []*models.Book) error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	for _, book := range books {
		if err := jw.encoder.Encode(book); err != nil {
			return fmt.Errorf("encode json record: %w", err)
		}
	}

	if err := jw.writer.Flush(); err != nil {
		return fmt.Errorf("flush json writer: %w", err)
	}

	return nil
}

func (jw *JSONWriter) flush() error {
	if err := jw.writer.Flush(); err != nil {
		return fmt.Errorf("flush json writer: %w", err)
	}
	return nil
}

// Close flushes buffers and moves the file into place.
func (jw *JSONWriter) Close() error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	if err := jw.flush(); err != nil {
		return err
	}
	return jw.file.Commit()
}

// Abort removes the staged file.
func (jw *JSONWriter) Abort() error {
	jw.mu.Lock()
	defer jw.mu.Unlock()
	return jw.file.Abort()
}

// Validate accepts an empty JSONL file: zero books is zero lines.
func (jw *JSONWriter) Validate() error {
	_, err := jw.file.Stat()
	if err != nil {
		return fmt.Errorf("stat json file: %w", err)
	}
	return nil
}

// stagedFile is written next to its destination and renamed over it on Commit.
type stagedFile struct {
	*os.File
	dest string
	done bool
}

func stageFile(dest string) (*stagedFile, error) {
	if err := ensureDir(dest); err != nil {
		return nil, err
	}
	dir, base := filepath.Split(dest)
	if dir == "" {
		dir = "."
	}
	f, err := os.CreateTemp(dir, "."+base+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", dest, err)
	}
	return &stagedFile{File: f, dest: dest}, nil
}

// Commit syncs, closes and renames the staged file over the destination.
func (s *stagedFile) Commit() error {
	if s.done {
		return nil
	}
	s.done = true
	name := s.Name()
	if err := s.Sync(); err != nil {
		s.File.Close()
		os.Remove(name)
		return fmt.Errorf("sync %s: %w", s.dest, err)
	}
	if err := s.File.Close(); err != nil {
		os.Remove(name)
		return fmt.Errorf("close %s: %w", s.dest, err)
	}
	if err := os.Chmod(name, 0o644); err != nil {
		os.Remove(name)
		return fmt.Errorf("chmod %s: %w", s.dest, err)
	}
	if err := os.Rename(name, s.dest); err != nil {
		os.Remove(name)
		return fmt.Errorf("rename into %s: %w", s.dest, err)
	}
	return nil
}

// Abort closes and removes the staged file. It is a no-op after Commit.
func (s *stagedFile) Abort() error {
	if s.done {
		return nil
	}
	s.done = true
	s.File.Close()
	if err := os.Remove(s.Name()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove staged %s: %w", s.dest, err)
	}
	return nil
}

func (s *stagedFile) validate(kind string) error {
	info, err := s.Stat()
	if err != nil {
		return fmt.Errorf("stat %s file: %w", kind, err)
	}
	if info.Size() <= 0 {
		return fmt.Errorf("%s file is empty", kind)
	}
	return nil
}

func ensureDir(filename string) error {
	dir := filepath.Dir(filename)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}
	return nil
}
