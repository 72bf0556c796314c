package notion

import (
	"context"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
)

// FindFirst returns the id of the first page of dbID matching filter. ok is
// false when nothing matches.
func FindFirst(ctx context.Context, c Client, dbID string, filter notionapi.Filter) (id string, ok bool, err error) {
	resp, err := c.QueryDatabase(ctx, dbID, &notionapi.DatabaseQueryRequest{
		Filter:   filter,
		PageSize: 1,
	})
	if err != nil {
		return "", false, eris.Wrap(err, "notion: find first")
	}
	if len(resp.Results) == 0 {
		return "", false, nil
	}
	return string(resp.Results[0].ID), true, nil
}

// FindChildDatabase walks the children of parentID and returns the id of
// the first child database titled title. ok is false when none matches.
func FindChildDatabase(ctx context.Context, c Client, parentID, title string) (id string, ok bool, err error) {
	cursor := ""
	for {
		resp, err := c.ListChildren(ctx, parentID, cursor)
		if err != nil {
			return "", false, eris.Wrap(err, "notion: find child database")
		}
		for _, b := range resp.Results {
			var db *notionapi.ChildDatabaseBlock
			switch v := b.(type) {
			case *notionapi.ChildDatabaseBlock:
				db = v
			case notionapi.ChildDatabaseBlock:
				db = &v
			default:
				continue
			}
			if db.ChildDatabase.Title == title {
				return string(db.ID), true, nil
			}
		}
		if !resp.HasMore || resp.NextCursor == "" {
			return "", false, nil
		}
		cursor = resp.NextCursor
	}
}
