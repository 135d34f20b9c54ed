package scraper

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/aluiziolira/book-converter/config"
	"github.com/gocolly/colly/v2"
)

// Fetcher retrieves the raw markup of one catalogue page.
type Fetcher interface {
	Fetch(ctx context.Context, page int) ([]byte, error)
	PageURL(page int) string
}

// CollyFetcher issues one synchronous colly request per page. It does not retry.
type CollyFetcher struct {
	cfg       *config.Config
	collector *colly.Collector
}

// NewCollyFetcher builds a fetcher configured from cfg.
func NewCollyFetcher(cfg *config.Config) *CollyFetcher {
	collector := colly.NewCollector(
		colly.UserAgent(cfg.UserAgent),
		colly.AllowURLRevisit(),
	)

	collector.SetRequestTimeout(cfg.Timeout)
	collector.IgnoreRobotsTxt = !cfg.RespectRobotsTxt
	collector.WithTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	})

	return &CollyFetcher{cfg: cfg, collector: collector}
}

// WithTransport replaces the HTTP transport used for every request.
func (f *CollyFetcher) WithTransport(transport http.RoundTripper) {
	f.collector.WithTransport(transport)
}

// PageURL renders the URL of a catalogue page.
func (f *CollyFetcher) PageURL(page int) string {
	return f.cfg.PageURL(page)
}

// Fetch returns the body of the page or a *TransportError.
func (f *CollyFetcher) Fetch(ctx context.Context, page int) ([]byte, error) {
	pageURL := f.PageURL(page)
	if err := ctx.Err(); err != nil {
		return nil, &TransportError{Page: page, URL: pageURL, Err: err}
	}

	c := f.collector.Clone()

	var (
		body   []byte
		status int
	)
	c.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		body = r.Body
	})
	c.OnError(func(r *colly.Response, err error) {
		if r != nil {
			status = r.StatusCode
		}
	})

	if err := c.Visit(pageURL); err != nil {
		return nil, &TransportError{
			Page:       page,
			URL:        pageURL,
			StatusCode: status,
			Err:        classifyError(err, status),
		}
	}
	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		return nil, &TransportError{
			Page:       page,
			URL:        pageURL,
			StatusCode: status,
			Err:        classifyError(fmt.Errorf("unexpected status %d", status), status),
		}
	}
	return body, nil
}
