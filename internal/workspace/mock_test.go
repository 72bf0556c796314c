package workspace

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/jomei/notionapi"
	"github.com/stretchr/testify/mock"
)

// mockNotionClient implements notion.Client for testing.
type mockNotionClient struct {
	mock.Mock
}

func (m *mockNotionClient) QueryDatabase(ctx context.Context, dbID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	args := m.Called(ctx, dbID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notionapi.DatabaseQueryResponse), args.Error(1)
}

func (m *mockNotionClient) CreateDatabase(ctx context.Context, req *notionapi.DatabaseCreateRequest) (*notionapi.Database, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notionapi.Database), args.Error(1)
}

func (m *mockNotionClient) CreatePage(ctx context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notionapi.Page), args.Error(1)
}

func (m *mockNotionClient) ListChildren(ctx context.Context, blockID string, cursor string) (*notionapi.GetChildrenResponse, error) {
	args := m.Called(ctx, blockID, cursor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notionapi.GetChildrenResponse), args.Error(1)
}

func (m *mockNotionClient) AppendChildren(ctx context.Context, blockID string, blocks []notionapi.Block) error {
	args := m.Called(ctx, blockID, blocks)
	return args.Error(0)
}

func (m *mockNotionClient) CreateFileUpload(ctx context.Context, filename, contentType string) (string, error) {
	args := m.Called(ctx, filename, contentType)
	return args.String(0), args.Error(1)
}

func (m *mockNotionClient) SendFileUpload(ctx context.Context, uploadID, path, filename, contentType string) error {
	args := m.Called(ctx, uploadID, path, filename, contentType)
	return args.Error(0)
}

func (m *mockNotionClient) AttachFileUpload(ctx context.Context, pageID, property, filename, uploadID string) error {
	args := m.Called(ctx, pageID, property, filename, uploadID)
	return args.Error(0)
}

// fakeNotion is an in-memory workspace that evaluates identity filters, so
// dedup behavior can be tested across several writes.
type fakeNotion struct {
	mu        sync.Mutex
	seq       int
	children  map[string][]notionapi.Block
	rows      map[string][]fakeRow
	creates   int
	queryErr  error
	appended  map[string][]notionapi.Block
	dbCreates int
}

type fakeRow struct {
	id    string
	props notionapi.Properties
}

func newFakeNotion() *fakeNotion {
	return &fakeNotion{
		children: make(map[string][]notionapi.Block),
		rows:     make(map[string][]fakeRow),
		appended: make(map[string][]notionapi.Block),
	}
}

func (f *fakeNotion) nextID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s-%d", prefix, f.seq)
}

func (f *fakeNotion) QueryDatabase(_ context.Context, dbID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	resp := &notionapi.DatabaseQueryResponse{}
	for _, r := range f.rows[dbID] {
		if matches(r.props, req.Filter) {
			resp.Results = append(resp.Results, notionapi.Page{ID: notionapi.ObjectID(r.id)})
		}
	}
	return resp, nil
}

func (f *fakeNotion) CreateDatabase(_ context.Context, req *notionapi.DatabaseCreateRequest) (*notionapi.Database, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dbCreates++
	id := f.nextID("db")
	parent := string(req.Parent.PageID)
	b := &notionapi.ChildDatabaseBlock{}
	b.ID = notionapi.BlockID(id)
	b.Type = notionapi.BlockTypeChildDatabase
	b.ChildDatabase.Title = plain(req.Title)
	f.children[parent] = append(f.children[parent], b)
	return &notionapi.Database{ID: notionapi.ObjectID(id)}, nil
}

func (f *fakeNotion) CreatePage(_ context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	id := f.nextID("row")
	db := string(req.Parent.DatabaseID)
	f.rows[db] = append(f.rows[db], fakeRow{id: id, props: req.Properties})
	return &notionapi.Page{ID: notionapi.ObjectID(id)}, nil
}

func (f *fakeNotion) ListChildren(_ context.Context, blockID string, _ string) (*notionapi.GetChildrenResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &notionapi.GetChildrenResponse{Results: f.children[blockID]}, nil
}

func (f *fakeNotion) AppendChildren(_ context.Context, blockID string, blocks []notionapi.Block) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appended[blockID] = append(f.appended[blockID], blocks...)
	return nil
}

func (f *fakeNotion) CreateFileUpload(context.Context, string, string) (string, error) {
	return "upload-1", nil
}

func (f *fakeNotion) SendFileUpload(context.Context, string, string, string, string) error {
	return nil
}

func (f *fakeNotion) AttachFileUpload(context.Context, string, string, string, string) error {
	return nil
}

func (f *fakeNotion) rowCount(dbID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows[dbID])
}

func matches(props notionapi.Properties, filter notionapi.Filter) bool {
	switch flt := filter.(type) {
	case nil:
		return true
	case notionapi.AndCompoundFilter:
		for _, sub := range flt {
			if !matches(props, sub) {
				return false
			}
		}
		return true
	case notionapi.PropertyFilter:
		if flt.RichText == nil {
			return false
		}
		return propText(props[flt.Property]) == flt.RichText.Equals
	default:
		return false
	}
}

func propText(p notionapi.Property) string {
	switch v := p.(type) {
	case notionapi.TitleProperty:
		return plain(v.Title)
	case notionapi.RichTextProperty:
		return plain(v.RichText)
	default:
		return ""
	}
}

func plain(rt []notionapi.RichText) string {
	var b strings.Builder
	for _, r := range rt {
		if r.Text != nil {
			b.WriteString(r.Text.Content)
		}
	}
	return b.String()
}
