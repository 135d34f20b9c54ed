package parser

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/aluiziolira/book-converter/models"
)

var priceNoise = regexp.MustCompile(`[^0-9.]`)

// ratingScale maps the star-rating class token to its numeric value.
var ratingScale = map[string]int{
	"One":   1,
	"Two":   2,
	"Three": 3,
	"Four":  4,
	"Five":  5,
}

// ValidateBook ensures the extracted record satisfies the Book invariants.
func ValidateBook(b *models.Book) error {
	if b == nil {
		return fmt.Errorf("book is nil")
	}
	if strings.TrimSpace(b.Title) == "" {
		return &ExtractionError{Field: FieldTitle, Err: errMissing}
	}
	if b.PriceOrigin < 0 || math.IsNaN(b.PriceOrigin) || math.IsInf(b.PriceOrigin, 0) {
		return &ExtractionError{Field: FieldPrice, Value: strconv.FormatFloat(b.PriceOrigin, 'f', -1, 64), Err: errNotNumeric}
	}
	if b.Rating < 0 || b.Rating > 5 {
		return &ExtractionError{Field: FieldRating, Value: strconv.Itoa(b.Rating), Err: fmt.Errorf("out of range")}
	}
	return nil
}

// NormalizePrice strips every character that is not a digit or a decimal point.
func NormalizePrice(price string) string {
	return priceNoise.ReplaceAllString(price, "")
}

// ParsePrice cleans the displayed price and parses it as a non-negative decimal.
func ParsePrice(text string) (float64, error) {
	clean := NormalizePrice(text)
	if clean == "" {
		return 0, errMissing
	}
	value, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", errNotNumeric, clean)
	}
	if value < 0 || math.IsInf(value, 0) {
		return 0, fmt.Errorf("%w: %q", errNotNumeric, clean)
	}
	return value, nil
}

// NormalizeAvailability trims spacing from the availability text.
func NormalizeAvailability(text string) string {
	return strings.TrimSpace(text)
}

// RatingToNumeric converts the textual rating to a numeric scale.
// Unknown labels map to 0.
func RatingToNumeric(rating string) int {
	return ratingScale[strings.TrimSpace(rating)]
}
