package workspace

import (
	"context"
	"time"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/yuutai-cli/pkg/notion"
)

// Workspace writes disclosures under one Notion parent page. It caches the
// resolved table ids for its lifetime and is not safe for concurrent use.
type Workspace struct {
	client   notion.Client
	parentID string
	now      func() time.Time
	tables   map[string]string
}

// Option configures a Workspace.
type Option func(*Workspace)

// WithClock overrides the clock used to default the year of extracted
// entitlement dates.
func WithClock(now func() time.Time) Option {
	return func(w *Workspace) {
		if now != nil {
			w.now = now
		}
	}
}

// New returns a Workspace rooted at parentPageID.
func New(c notion.Client, parentPageID string, opts ...Option) *Workspace {
	w := &Workspace{
		client:   c,
		parentID: parentPageID,
		now:      time.Now,
		tables:   make(map[string]string),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// EnsureTable returns the id of the child database titled name, creating it
// with Schema when the parent page has none. Repeated calls return the same
// id without further lookups.
func (w *Workspace) EnsureTable(ctx context.Context, name string) (string, error) {
	if id, ok := w.tables[name]; ok {
		return id, nil
	}

	id, found, err := notion.FindChildDatabase(ctx, w.client, w.parentID, name)
	if err != nil {
		return "", eris.Wrapf(err, "workspace: look up table %q", name)
	}
	if found {
		zap.L().Debug("found existing table", zap.String("name", name), zap.String("table_id", id))
		w.tables[name] = id
		return id, nil
	}

	db, err := w.client.CreateDatabase(ctx, &notionapi.DatabaseCreateRequest{
		Parent: notionapi.Parent{
			Type:   notionapi.ParentTypePageID,
			PageID: notionapi.PageID(w.parentID),
		},
		Title:      richText(name),
		Properties: Schema(),
	})
	if err != nil {
		return "", eris.Wrapf(err, "workspace: create table %q", name)
	}

	id = string(db.ID)
	zap.L().Info("created table", zap.String("name", name), zap.String("table_id", id))
	w.tables[name] = id
	return id, nil
}
