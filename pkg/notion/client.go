// Package notion wraps the Notion API for database, page, block and file
// upload calls.
package notion

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the Notion REST root used for file uploads.
	DefaultBaseURL = "https://api.notion.com/v1"
	// APIVersion is sent as Notion-Version on raw requests.
	APIVersion = "2022-06-28"
)

// Client defines the Notion API operations used by this application.
type Client interface {
	QueryDatabase(ctx context.Context, dbID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error)
	CreateDatabase(ctx context.Context, req *notionapi.DatabaseCreateRequest) (*notionapi.Database, error)
	CreatePage(ctx context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error)
	ListChildren(ctx context.Context, blockID string, cursor string) (*notionapi.GetChildrenResponse, error)
	AppendChildren(ctx context.Context, blockID string, blocks []notionapi.Block) error

	// CreateFileUpload registers a single-part upload and returns its id.
	CreateFileUpload(ctx context.Context, filename, contentType string) (string, error)
	// SendFileUpload streams the file at path as the upload's only part.
	SendFileUpload(ctx context.Context, uploadID, path, filename, contentType string) error
	// AttachFileUpload points a files property of a page at an upload.
	AttachFileUpload(ctx context.Context, pageID, property, filename, uploadID string) error
}

// ClientOption configures the Notion client.
type ClientOption func(*notionClient)

// WithMinInterval spaces consecutive calls at least d apart. Zero disables
// throttling.
func WithMinInterval(d time.Duration) ClientOption {
	return func(c *notionClient) {
		if d > 0 {
			c.limiter = rate.NewLimiter(rate.Every(d), 1)
		} else {
			c.limiter = nil
		}
	}
}

// WithBaseURL overrides the REST root used for file upload calls.
func WithBaseURL(u string) ClientOption {
	return func(c *notionClient) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithHTTPClient overrides the HTTP client used for every call, including
// file uploads.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *notionClient) {
		if hc != nil {
			c.http = hc
		}
	}
}

// notionClient implements Client by wrapping a *notionapi.Client. File
// uploads go over raw HTTP because notionapi has no file_uploads endpoints.
type notionClient struct {
	inner   *notionapi.Client
	token   string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a new Notion client with the given integration token.
// By default, API calls are throttled to 3 req/s (Notion's rate limit).
func NewClient(token string, opts ...ClientOption) Client {
	c := &notionClient{
		token:   token,
		baseURL: DefaultBaseURL,
		http:    &http.Client{Timeout: 120 * time.Second},
		limiter: rate.NewLimiter(3, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.inner = notionapi.NewClient(notionapi.Token(token), notionapi.WithHTTPClient(c.http))
	return c
}

// wait blocks until the rate limiter allows one event, or ctx is cancelled.
func (c *notionClient) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return eris.Wrap(err, "notion: rate limit")
	}
	return nil
}

func (c *notionClient) QueryDatabase(ctx context.Context, dbID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	resp, err := c.inner.Database.Query(ctx, notionapi.DatabaseID(dbID), req)
	if err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("notion: query database %s", dbID))
	}
	return resp, nil
}

func (c *notionClient) CreateDatabase(ctx context.Context, req *notionapi.DatabaseCreateRequest) (*notionapi.Database, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	db, err := c.inner.Database.Create(ctx, req)
	if err != nil {
		return nil, eris.Wrap(err, "notion: create database")
	}
	return db, nil
}

func (c *notionClient) CreatePage(ctx context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	page, err := c.inner.Page.Create(ctx, req)
	if err != nil {
		return nil, eris.Wrap(err, "notion: create page")
	}
	return page, nil
}

func (c *notionClient) ListChildren(ctx context.Context, blockID string, cursor string) (*notionapi.GetChildrenResponse, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	resp, err := c.inner.Block.GetChildren(ctx, notionapi.BlockID(blockID), &notionapi.Pagination{
		StartCursor: notionapi.Cursor(cursor),
		PageSize:    100,
	})
	if err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("notion: list children %s", blockID))
	}
	return resp, nil
}

func (c *notionClient) AppendChildren(ctx context.Context, blockID string, blocks []notionapi.Block) error {
	if err := c.wait(ctx); err != nil {
		return err
	}
	_, err := c.inner.Block.AppendChildren(ctx, notionapi.BlockID(blockID), &notionapi.AppendBlockChildrenRequest{
		Children: blocks,
	})
	if err != nil {
		return eris.Wrap(err, fmt.Sprintf("notion: append children %s", blockID))
	}
	return nil
}
