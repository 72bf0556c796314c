package pipeline

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"go.uber.org/zap"

	"github.com/sells-group/yuutai-cli/internal/model"
	"github.com/sells-group/yuutai-cli/internal/resilience"
	"github.com/sells-group/yuutai-cli/internal/tdnet"
	"github.com/sells-group/yuutai-cli/internal/workspace"
)

// ProcessBatch writes ds to tableID in order and counts the outcomes. A
// source id seen earlier in the same batch counts as a duplicate; an invalid
// or missing company code or a missing id counts as skipped. A record whose
// row exists remotely counts as success without a write.
func (p *Pipeline) ProcessBatch(ctx context.Context, tableID string, ds []model.Disclosure) model.BatchStats {
	stats := model.BatchStats{Total: len(ds)}
	seen := workspace.SeenSet{}

	for _, d := range ds {
		log := zap.L().With(zap.String("id", d.ID), zap.String("code", d.CompanyCode))

		if d.ID != "" && seen.Has(d.ID) {
			log.Info("pipeline: duplicate in batch")
			stats.Duplicates++
			continue
		}
		if d.CompanyCode != "" && !tdnet.ValidCode(d.CompanyCode) {
			log.Warn("pipeline: invalid company code, skipping")
			stats.Skipped++
			continue
		}
		if d.ID == "" || d.CompanyCode == "" {
			log.Warn("pipeline: missing id or company code, skipping")
			stats.Skipped++
			continue
		}

		if p.opts.DryRun {
			log.Info("pipeline: dry run",
				zap.String("title", d.Title),
				zap.String("category", string(d.Category)),
				zap.String("document_url", d.DocumentURL),
			)
			seen.Add(d.ID)
			stats.Success++
			continue
		}

		if err := p.processRecord(ctx, tableID, d); err != nil {
			log.Error("pipeline: record failed",
				zap.String("class", resilience.Class(err)),
				zap.Error(err),
			)
			stats.Failed++
			continue
		}
		seen.Add(d.ID)
		stats.Success++
	}

	zap.L().Info("pipeline: batch complete",
		zap.Int("total", stats.Total),
		zap.Int("success", stats.Success),
		zap.Int("failed", stats.Failed),
		zap.Int("skipped", stats.Skipped),
		zap.Int("duplicates", stats.Duplicates),
	)
	return stats
}

// processRecord downloads the document, writes the row and, for a new row,
// attaches the document. A record whose row already exists is not
// downloaded. A failed download or attachment leaves the row in place and is
// not an error.
func (p *Pipeline) processRecord(ctx context.Context, tableID string, d model.Disclosure) error {
	log := zap.L().With(zap.String("id", d.ID), zap.String("code", d.CompanyCode))

	downloaded := false
	if d.LocalFilePath == "" && d.DocumentURL != "" {
		if p.sink.IsDuplicate(ctx, tableID, d) {
			log.Info("pipeline: row exists, skipping download")
			return nil
		}
		path, err := p.source.Download(ctx, d)
		if err != nil {
			log.Warn("pipeline: download failed, writing row without file", zap.Error(err))
		} else {
			d.LocalFilePath = path
			d.FileSize = fileSize(path)
			downloaded = true
			log.Debug("pipeline: document ready", zap.String("path", path), zap.Int64("bytes", d.FileSize))
		}
	}

	rowID, created, err := p.sink.CreateRow(ctx, tableID, d)
	if err != nil {
		return err
	}
	if !created {
		if downloaded {
			removeFile(log, d.LocalFilePath)
		}
		return nil
	}
	if d.LocalFilePath == "" {
		return nil
	}

	out := p.sink.Attach(ctx, rowID, d.LocalFilePath)
	if !out.OK() {
		log.Warn("pipeline: document not referenced from row",
			zap.String("row_id", rowID),
			zap.String("state", string(out.State)),
			zap.Error(out.Err),
		)
	}
	return nil
}

// fileSize returns the size of the file at path, or 0 if it cannot be read.
func fileSize(path string) int64 {
	fi, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return fi.Size()
}

func removeFile(log *zap.Logger, path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn("pipeline: remove unused document", zap.String("path", path), zap.Error(err))
	}
}
