// Package fetcher retrieves declaration pages and documents over HTTP with
// bounded retry.
package fetcher

import (
	"context"
	"fmt"
	"mime"
	"strings"
)

// Fetcher retrieves remote documents.
type Fetcher interface {
	// Fetch GETs url and returns the full body of a 2xx response.
	Fetch(ctx context.Context, url string) (*Response, error)

	// Head probes url and returns the response status code.
	Head(ctx context.Context, url string) (int, error)
}

// Response is a fully read HTTP response.
type Response struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        []byte
}

// MediaType returns the lowercased media type without parameters.
func (r *Response) MediaType() string {
	mt, _, err := mime.ParseMediaType(r.ContentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(strings.Split(r.ContentType, ";")[0]))
	}
	return mt
}

// IsPDF reports whether the response is a PDF by content type, URL suffix or
// magic bytes.
func (r *Response) IsPDF() bool {
	if r.MediaType() == "application/pdf" {
		return true
	}
	if strings.HasSuffix(strings.ToLower(strings.SplitN(r.URL, "?", 2)[0]), ".pdf") {
		return true
	}
	return strings.HasPrefix(string(r.Body), "%PDF-")
}

// StatusError is a non-retryable HTTP failure such as 404.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetcher: unexpected status %d from %s", e.StatusCode, e.URL)
}
