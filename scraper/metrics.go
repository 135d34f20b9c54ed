package scraper

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the scraper.
type Metrics struct {
	Registry              *prometheus.Registry
	RequestsTotal         *prometheus.CounterVec
	RequestDuration       prometheus.Histogram
	BooksExtractedTotal   prometheus.Counter
	PagesSkippedTotal     prometheus.Counter
	FragmentsSkippedTotal prometheus.Counter
	RetriesTotal          prometheus.Counter
	ErrorsTotal           *prometheus.CounterVec
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_requests_total",
			Help: "Total page requests issued by the scraper.",
		},
		[]string{"outcome"},
	)
	requestDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scraper_request_duration_seconds",
			Help:    "HTTP request latency for catalogue pages.",
			Buckets: prometheus.DefBuckets,
		},
	)
	booksExtracted := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_books_extracted_total",
			Help: "Total number of books extracted and converted.",
		},
	)
	pagesSkipped := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_pages_skipped_total",
			Help: "Pages that contributed no records because fetching or parsing failed.",
		},
	)
	fragmentsSkipped := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_fragments_skipped_total",
			Help: "Catalogue entries skipped because a required field was malformed.",
		},
	)
	retries := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_retries_total",
			Help: "Total number of retry attempts.",
		},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_errors_total",
			Help: "Total number of scraper errors by type.",
		},
		[]string{"error_type"},
	)

	registry.MustRegister(requests, requestDuration, booksExtracted, pagesSkipped, fragmentsSkipped, retries, errorsTotal)

	return &Metrics{
		Registry:              registry,
		RequestsTotal:         requests,
		RequestDuration:       requestDuration,
		BooksExtractedTotal:   booksExtracted,
		PagesSkippedTotal:     pagesSkipped,
		FragmentsSkippedTotal: fragmentsSkipped,
		RetriesTotal:          retries,
		ErrorsTotal:           errorsTotal,
	}
}

// IncRequest increments the requests counter for an outcome.
func (m *Metrics) IncRequest(outcome string) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(outcome).Inc()
}

// ObserveDuration records an HTTP request duration.
func (m *Metrics) ObserveDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.Observe(d.Seconds())
}

// AddBooks increments the extracted books counter.
func (m *Metrics) AddBooks(n int) {
	if m == nil {
		return
	}
	m.BooksExtractedTotal.Add(float64(n))
}

func (m *Metrics) IncPagesSkipped() {
	if m == nil {
		return
	}
	m.PagesSkippedTotal.Inc()
}

func (m *Metrics) IncFragmentsSkipped() {
	if m == nil {
		return
	}
	m.FragmentsSkippedTotal.Inc()
}

// IncRetries increments the retries counter.
func (m *Metrics) IncRetries() {
	if m == nil {
		return
	}
	m.RetriesTotal.Inc()
}

// IncError increments the errors counter for a type label.
func (m *Metrics) IncError(errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}
