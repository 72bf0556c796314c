package workspace

import (
	"context"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/yuutai-cli/internal/extract"
	"github.com/sells-group/yuutai-cli/internal/model"
)

// CreateRow writes d as a new row of tableID unless a row with the same
// identity key exists, in which case that row's id is returned with
// created=false and nothing is written. Existing rows are not updated.
func (w *Workspace) CreateRow(ctx context.Context, tableID string, d model.Disclosure) (rowID string, created bool, err error) {
	if id, found := w.findExisting(ctx, tableID, d); found {
		zap.L().Info("duplicate disclosure, skipping write",
			zap.String("code", d.CompanyCode),
			zap.String("title", d.Title),
			zap.String("row_id", id),
		)
		return id, false, nil
	}

	info := extract.Benefit(d.Title, w.now())
	props, err := BuildRowProperties(d, info)
	if err != nil {
		return "", false, err
	}

	page, err := w.client.CreatePage(ctx, &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(tableID),
		},
		Properties: props,
	})
	if err != nil {
		return "", false, eris.Wrapf(err, "workspace: create row for %s", d.CompanyCode)
	}

	zap.L().Info("created row",
		zap.String("code", d.CompanyCode),
		zap.String("category", string(d.Category)),
		zap.String("row_id", string(page.ID)),
	)
	return string(page.ID), true, nil
}
