package workspace

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/yuutai-cli/internal/model"
	"github.com/sells-group/yuutai-cli/internal/resilience"
	"github.com/sells-group/yuutai-cli/pkg/notion"
)

// IsDuplicate reports whether tableID already holds a row with the
// disclosure's identity key. A failed query counts as not duplicate.
func (w *Workspace) IsDuplicate(ctx context.Context, tableID string, d model.Disclosure) bool {
	_, found := w.findExisting(ctx, tableID, d)
	return found
}

func (w *Workspace) findExisting(ctx context.Context, tableID string, d model.Disclosure) (string, bool) {
	id, found, err := notion.FindFirst(ctx, w.client, tableID, identityFilter(d))
	if err != nil {
		zap.L().Warn("duplicate check failed, treating as new",
			zap.String("code", d.CompanyCode),
			zap.String("title", d.Title),
			zap.String("class", resilience.Class(err)),
			zap.Error(err),
		)
		return "", false
	}
	return id, found
}

// SeenSet tracks source ids already handled within one batch.
type SeenSet map[string]struct{}

// Has reports whether id was added.
func (s SeenSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Add records id.
func (s SeenSet) Add(id string) {
	s[id] = struct{}{}
}
