package pipeline

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aluiziolira/book-converter/config"
	"github.com/aluiziolira/book-converter/models"
	"github.com/stretchr/testify/require"
)

func catalogue(n int) []*models.Book {
	books := make([]*models.Book, 0, n)
	for i := 1; i <= n; i++ {
		books = append(books, &models.Book{
			Title:          fmt.Sprintf("Book %d", i),
			PriceOrigin:    float64(i),
			PriceConverted: float64(i) * 100,
			Currency:       "₹",
			Availability:   "In stock",
			Rating:         i % 6,
			URL:            fmt.Sprintf("http://example.test/book-%d/index.html", i),
		})
	}
	return books
}

func exporterFor(format string, dedupe int) *Exporter {
	cfg := config.DefaultConfig()
	cfg.OutputFormat = format
	cfg.DedupeMaxSize = dedupe
	return NewExporter(cfg, nil)
}

func TestExportCSVOrderAndIdempotence(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "first.csv")
	second := filepath.Join(dir, "second.csv")
	books := catalogue(38)

	e := exporterFor(config.FormatCSV, 0)
	n, err := e.Export(books, first)
	require.NoError(t, err)
	require.Equal(t, 38, n)
	_, err = e.Export(books, second)
	require.NoError(t, err)

	a, err := os.ReadFile(first)
	require.NoError(t, err)
	b, err := os.ReadFile(second)
	require.NoError(t, err)
	require.Equal(t, a, b)

	lines := strings.Split(strings.TrimSuffix(string(a), "\n"), "\n")
	require.Len(t, lines, 39)
	require.Equal(t, "title,price_converted,availability,rating", lines[0])
	require.Equal(t, "Book 1,₹100.00,In stock,1", lines[1])
	require.Equal(t, "Book 38,₹3800.00,In stock,2", lines[38])
}

func TestExportReplacesPreviousArtifact(t *testing.T) {
	path := filepath.Join(t.TempDir(), "books.csv")
	require.NoError(t, os.WriteFile(path, []byte("stale\n"), 0o644))

	_, err := exporterFor(config.FormatCSV, 0).Export(catalogue(1), path)
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NotContains(t, string(raw), "stale")
}

func TestExportUnwritableDestination(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
	dest := filepath.Join(blocker, "books.csv")

	_, err := exporterFor(config.FormatCSV, 0).Export(catalogue(3), dest)
	require.Error(t, err)

	var ioErr *IOError
	require.True(t, errors.As(err, &ioErr))
	require.Equal(t, dest, ioErr.Destination)
	require.Contains(t, err.Error(), dest)
}

func TestExportUnsupportedFormat(t *testing.T) {
	_, err := exporterFor("xml", 0).Export(catalogue(1), filepath.Join(t.TempDir(), "books.xml"))
	var ioErr *IOError
	require.ErrorAs(t, err, &ioErr)
	require.ErrorContains(t, err, "unsupported format")
}

func TestExportDedupe(t *testing.T) {
	books := catalogue(3)
	duplicate := *books[0]
	books = append(books, &duplicate)

	path := filepath.Join(t.TempDir(), "books.csv")
	n, err := exporterFor(config.FormatCSV, 16).Export(books, path)
	require.NoError(t, err)
	require.Equal(t, 3, n)

	n, err = exporterFor(config.FormatCSV, 0).Export(books, path)
	require.NoError(t, err)
	require.Equal(t, 4, n, "dedupe is off by default")
}

func TestExportDual(t *testing.T) {
	path := filepath.Join(t.TempDir(), "books.csv")

	n, err := exporterFor(config.FormatDual, 0).Export(catalogue(2), path)
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.FileExists(t, path)
	require.FileExists(t, DualJSONPath(path))
}
