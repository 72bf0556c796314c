package fetcher

import (
	"context"
)

// Fetcher defines the interface for pulling data from the disclosure feed.
type Fetcher interface {
	// GetJSON fetches the URL and decodes the JSON body into v.
	GetJSON(ctx context.Context, url string, v any) error

	// DownloadToFile fetches the URL and writes it to path. Responses larger
	// than maxBytes are refused with ErrTooLarge and nothing is left on disk.
	// Returns bytes written.
	DownloadToFile(ctx context.Context, url string, path string, maxBytes int64) (int64, error)
}
