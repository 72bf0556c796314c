package fetcher

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/yuutai-cli/internal/resilience"
)

// ErrTooLarge is returned when a download exceeds the caller's size limit.
var ErrTooLarge = eris.New("fetcher: response exceeds size limit")

// HTTPOptions configures the HTTP fetcher.
type HTTPOptions struct {
	UserAgent string
	Timeout   time.Duration
	// MinInterval is the minimum spacing between outbound requests.
	// Zero disables pacing.
	MinInterval time.Duration
}

// HTTPFetcher implements Fetcher with net/http. Requests are paced to one per
// MinInterval and are never retried.
type HTTPFetcher struct {
	client  *http.Client
	opts    HTTPOptions
	limiter *rate.Limiter
}

// NewHTTPFetcher creates a new HTTPFetcher with the given options.
func NewHTTPFetcher(opts HTTPOptions) *HTTPFetcher {
	if opts.Timeout == 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "Yuutai Disclosure Client/1.0"
	}
	f := &HTTPFetcher{
		client: &http.Client{Timeout: opts.Timeout},
		opts:   opts,
	}
	if opts.MinInterval > 0 {
		// A single-token bucket refilled every MinInterval spaces calls by at
		// least MinInterval from the previous one.
		f.limiter = rate.NewLimiter(rate.Every(opts.MinInterval), 1)
	}
	return f
}

// wait blocks until MinInterval has elapsed since the previous request.
func (f *HTTPFetcher) wait(ctx context.Context) error {
	if f.limiter == nil {
		return nil
	}
	if err := f.limiter.Wait(ctx); err != nil {
		return eris.Wrap(err, "rate limiter wait")
	}
	return nil
}

func (f *HTTPFetcher) get(ctx context.Context, rawURL string, accept string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "create request")
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	if err := f.wait(ctx); err != nil {
		return nil, err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "get %s", rawURL)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		_ = resp.Body.Close()
		return nil, resilience.NewStatusError("get "+rawURL, resp.StatusCode, body)
	}
	return resp, nil
}

// GetJSON fetches the URL and decodes the JSON body into v.
func (f *HTTPFetcher) GetJSON(ctx context.Context, rawURL string, v any) error {
	resp, err := f.get(ctx, rawURL, "application/json")
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return eris.Wrapf(err, "decode json from %s", rawURL)
	}
	return nil
}

// DownloadToFile fetches the URL and writes it to the given path. A declared
// Content-Length above maxBytes is refused before any file is created; a body
// that grows past maxBytes while streaming is discarded. The body is written
// to a temporary sibling and renamed into place on success.
func (f *HTTPFetcher) DownloadToFile(ctx context.Context, rawURL string, path string, maxBytes int64) (int64, error) {
	resp, err := f.get(ctx, rawURL, "")
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close() //nolint:errcheck

	if maxBytes > 0 && resp.ContentLength > maxBytes {
		zap.L().Warn("download refused: declared size over limit",
			zap.String("url", rawURL),
			zap.Int64("content_length", resp.ContentLength),
			zap.Int64("max_bytes", maxBytes),
		)
		return 0, ErrTooLarge
	}

	tmp := path + ".part"
	file, err := os.Create(tmp)
	if err != nil {
		return 0, eris.Wrap(err, "create file")
	}

	var src io.Reader = resp.Body
	if maxBytes > 0 {
		src = io.LimitReader(resp.Body, maxBytes+1)
	}
	n, copyErr := io.Copy(file, src)
	closeErr := file.Close()

	switch {
	case copyErr != nil:
		_ = os.Remove(tmp)
		return 0, eris.Wrap(copyErr, "write file")
	case closeErr != nil:
		_ = os.Remove(tmp)
		return 0, eris.Wrap(closeErr, "close file")
	case maxBytes > 0 && n > maxBytes:
		_ = os.Remove(tmp)
		zap.L().Warn("download refused: body over limit",
			zap.String("url", rawURL),
			zap.Int64("max_bytes", maxBytes),
		)
		return 0, ErrTooLarge
	}

	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return 0, eris.Wrap(err, "rename file")
	}
	return n, nil
}
