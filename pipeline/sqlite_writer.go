package pipeline

import (
	"database/sql"
	"fmt"
	"os"
	"sync"

	"github.com/aluiziolira/book-converter/models"
	_ "modernc.org/sqlite"
)

const booksSchema = `
CREATE TABLE IF NOT EXISTS books (
	position        INTEGER PRIMARY KEY,
	title           TEXT    NOT NULL,
	price_origin    REAL    NOT NULL,
	price_converted REAL    NOT NULL,
	currency        TEXT    NOT NULL,
	price_text      TEXT    NOT NULL,
	availability    TEXT    NOT NULL,
	rating          INTEGER NOT NULL,
	url             TEXT
);`

// SQLiteWriter stores books in a single-table SQLite database.
type SQLiteWriter struct {
	file *stagedFile
	db   *sql.DB
	next int
	mu   sync.Mutex
}

// NewSQLiteWriter creates the database next to filename and its schema.
func NewSQLiteWriter(filename string) (*SQLiteWriter, error) {
	f, err := stageFile(filename)
	if err != nil {
		return nil, err
	}
	// The database driver opens the file by name.
	if err := f.File.Close(); err != nil {
		f.Abort()
		return nil, fmt.Errorf("prepare sqlite file: %w", err)
	}

	db, err := sql.Open("sqlite", f.Name())
	if err != nil {
		os.Remove(f.Name())
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(booksSchema); err != nil {
		db.Close()
		os.Remove(f.Name())
		return nil, fmt.Errorf("create books table: %w", err)
	}

	return &SQLiteWriter{file: f, db: db}, nil
}

// Write inserts books in one transaction, keeping their order in position.
func (sw *SQLiteWriter) Write(books []*models.Book) error {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	tx, err := sw.db.Begin()
	if err != nil {
		return fmt.Errorf("begin sqlite transaction: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO books
		(position, title, price_origin, price_converted, currency, price_text, availability, rating, url)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, book := range books {
		sw.next++
		if _, err := stmt.Exec(sw.next, book.Title, book.PriceOrigin, book.PriceConverted,
			book.Currency, book.ConvertedText(), book.Availability, book.Rating, book.URL); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert book %q: %w", book.Title, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit sqlite transaction: %w", err)
	}
	return nil
}

// Validate checks that every written row is in the table.
func (sw *SQLiteWriter) Validate() error {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	var count int
	if err := sw.db.QueryRow(`SELECT COUNT(*) FROM books`).Scan(&count); err != nil {
		return fmt.Errorf("count sqlite rows: %w", err)
	}
	if count != sw.next {
		return fmt.Errorf("sqlite rows = %d, want %d", count, sw.next)
	}
	return nil
}

// Close closes the database and moves it into place.
func (sw *SQLiteWriter) Close() error {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	if sw.file.done {
		return nil
	}
	if err := sw.db.Close(); err != nil {
		sw.discard()
		return fmt.Errorf("close sqlite: %w", err)
	}
	sw.file.done = true
	name := sw.file.Name()
	if err := os.Chmod(name, 0o644); err != nil {
		os.Remove(name)
		return fmt.Errorf("chmod %s: %w", sw.file.dest, err)
	}
	if err := os.Rename(name, sw.file.dest); err != nil {
		os.Remove(name)
		return fmt.Errorf("rename into %s: %w", sw.file.dest, err)
	}
	return nil
}

// Abort closes the database and removes it.
func (sw *SQLiteWriter) Abort() error {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	if sw.file.done {
		return nil
	}
	sw.db.Close()
	return sw.discard()
}

func (sw *SQLiteWriter) discard() error {
	sw.file.done = true
	if err := os.Remove(sw.file.Name()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove staged %s: %w", sw.file.dest, err)
	}
	return nil
}
