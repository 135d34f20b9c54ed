package parser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aluiziolira/book-converter/models"
)

// Field names reported by ExtractionError.
const (
	FieldTitle        = "title"
	FieldPrice        = "price"
	FieldAvailability = "availability"
	FieldRating       = "rating"
)

const (
	titleSelector        = "h3 a"
	priceSelector        = "p.price_color"
	availabilitySelector = "p.instock.availability"
	availabilityFallback = "p.availability"
	ratingSelector       = "p.star-rating"
)

var (
	errMissing    = errors.New("missing")
	errNotNumeric = errors.New("not a non-negative number")
)

// ExtractionError reports a required field that could not be read from a fragment.
type ExtractionError struct {
	Field string
	Value string
	Err   error
}

func (e *ExtractionError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("extract %s %q: %v", e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("extract %s: %v", e.Field, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Extractor turns fragments into converted Book records.
type Extractor struct {
	rate   float64
	symbol string
}

// NewExtractor returns an extractor converting prices with rate and
// prefixing converted prices with symbol.
func NewExtractor(rate float64, symbol string) *Extractor {
	return &Extractor{rate: rate, symbol: symbol}
}

// Extract reads one Book from a fragment.
// Title, price and availability are required; an unknown rating becomes 0.
func (x *Extractor) Extract(f Fragment) (*models.Book, error) {
	title, ok := f.Attr(titleSelector, "title")
	if !ok || strings.TrimSpace(title) == "" {
		return nil, &ExtractionError{Field: FieldTitle, Err: errMissing}
	}

	priceText, ok := f.Text(priceSelector)
	if !ok {
		return nil, &ExtractionError{Field: FieldPrice, Err: errMissing}
	}
	price, err := ParsePrice(priceText)
	if err != nil {
		return nil, &ExtractionError{Field: FieldPrice, Value: strings.TrimSpace(priceText), Err: err}
	}

	availability, ok := f.Text(availabilitySelector)
	if !ok {
		availability, ok = f.Text(availabilityFallback)
	}
	if !ok {
		return nil, &ExtractionError{Field: FieldAvailability, Err: errMissing}
	}

	rating := 0
	if tokens := f.ClassTokens(ratingSelector); len(tokens) > 1 {
		rating = RatingToNumeric(tokens[1])
	}

	href, _ := f.Attr(titleSelector, "href")

	book := &models.Book{
		Title:          title,
		PriceOrigin:    price,
		PriceConverted: price * x.rate,
		Currency:       x.symbol,
		Availability:   NormalizeAvailability(availability),
		Rating:         rating,
		URL:            f.AbsoluteURL(href),
	}
	if err := ValidateBook(book); err != nil {
		return nil, err
	}
	return book, nil
}
