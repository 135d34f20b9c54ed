package pipeline

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/aluiziolira/book-converter/models"
)

// deduper drops books already seen within a bounded window.
type deduper struct {
	seen *lru.Cache[string, struct{}]
}

func newDeduper(size int) (*deduper, error) {
	cache, err := lru.New[string, struct{}](size)
	if err != nil {
		return nil, err
	}
	return &deduper{seen: cache}, nil
}

func (d *deduper) Seen(book *models.Book) bool {
	key := book.URL
	if key == "" {
		key = "title:" + book.Title
	}
	if d.seen.Contains(key) {
		return true
	}
	d.seen.Add(key, struct{}{})
	return false
}

// Filter keeps the first occurrence of each book, preserving order.
func (d *deduper) Filter(books []*models.Book) []*models.Book {
	out := make([]*models.Book, 0, len(books))
	for _, book := range books {
		if book == nil || d.Seen(book) {
			continue
		}
		out = append(out, book)
	}
	return out
}
