// Package models defines data structures for the scraper.
package models

import (
	"strconv"
	"time"
)

// Book represents one catalogue entry after extraction and currency conversion.
// PriceConverted is derived from PriceOrigin once, when the Book is built.
type Book struct {
	Title          string  `csv:"title" json:"title"`
	PriceOrigin    float64 `csv:"-" json:"price_origin"`
	PriceConverted float64 `csv:"price_converted" json:"price_converted"`
	Currency       string  `csv:"-" json:"currency"`
	Availability   string  `csv:"availability" json:"availability"`
	Rating         int     `csv:"rating" json:"rating"`
	URL            string  `csv:"-" json:"url,omitempty"`
}

// ConvertedText renders the converted price with the currency symbol and two decimals.
func (b *Book) ConvertedText() string {
	return b.Currency + strconv.FormatFloat(b.PriceConverted, 'f', 2, 64)
}

// Failure records one skipped page or fragment.
// Fragment is the 1-based position within the page, or 0 for page-level failures.
type Failure struct {
	Page     int
	Fragment int
	URL      string
	Kind     string
	Err      error
}

// PageLevel reports whether the whole page was skipped.
func (f Failure) PageLevel() bool {
	return f.Fragment == 0
}

// RunResult holds the overall result of a scraping run.
type RunResult struct {
	Books            []*Book
	Failures         []Failure
	StartTime        time.Time
	EndTime          time.Time
	PagesRequested   int
	PagesProcessed   int
	PagesSkipped     int
	FragmentsSkipped int
	RetryCount       int
	ErrorsByType     map[string]int
	Cancelled        bool
	StoppedEarly     bool
}

// Duration returns the wall time of the run.
func (r *RunResult) Duration() time.Duration {
	return r.EndTime.Sub(r.StartTime)
}
