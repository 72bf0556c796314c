// Package pipeline drives disclosures from the TDnet feed into the Notion
// workspace one record at a time and aggregates per-batch counts.
package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/yuutai-cli/internal/model"
	"github.com/sells-group/yuutai-cli/internal/store"
	"github.com/sells-group/yuutai-cli/internal/workspace"
)

// Source lists and downloads disclosures.
type Source interface {
	Today() string
	FetchDaily(ctx context.Context, date string) ([]model.Disclosure, error)
	FetchForCompany(ctx context.Context, code string, daysBack int) ([]model.Disclosure, error)
	Search(ctx context.Context, date string, keywords []string) ([]model.Disclosure, error)
	Download(ctx context.Context, d model.Disclosure) (string, error)
}

// Sink writes disclosures to the workspace.
type Sink interface {
	EnsureTable(ctx context.Context, name string) (string, error)
	IsDuplicate(ctx context.Context, tableID string, d model.Disclosure) bool
	CreateRow(ctx context.Context, tableID string, d model.Disclosure) (rowID string, created bool, err error)
	Attach(ctx context.Context, rowID, path string) workspace.AttachOutcome
}

// Options configures a Pipeline.
type Options struct {
	// TableName is the title of the Notion table rows are written to.
	TableName string
	// RangePause is slept between days of a date range.
	RangePause time.Duration
	// DryRun fetches and logs without downloading or writing.
	DryRun bool
}

// Pipeline orchestrates fetch, dedup, row creation and attachment.
type Pipeline struct {
	source Source
	sink   Sink
	store  store.Store
	opts   Options
}

// New creates a Pipeline. st may be nil, in which case runs are not
// recorded.
func New(src Source, sink Sink, st store.Store, opts Options) *Pipeline {
	if opts.TableName == "" {
		opts.TableName = workspace.DatabaseName
	}
	return &Pipeline{source: src, sink: sink, store: st, opts: opts}
}

// beginRun records the start of a run. Ledger failures are logged and never
// stop processing.
func (p *Pipeline) beginRun(ctx context.Context, kind model.RunKind, target string) string {
	if p.store == nil || p.opts.DryRun {
		return ""
	}
	run, err := p.store.CreateRun(ctx, kind, target)
	if err != nil {
		zap.L().Warn("pipeline: failed to record run", zap.String("kind", string(kind)), zap.Error(err))
		return ""
	}
	return run.ID
}

func (p *Pipeline) finishRun(ctx context.Context, runID string, stats *model.BatchStats, runErr error) {
	if runID == "" {
		return
	}
	if err := p.store.FinishRun(ctx, runID, stats, runErr); err != nil {
		zap.L().Warn("pipeline: failed to finish run", zap.String("run_id", runID), zap.Error(err))
	}
}

// ProcessDate fetches one day's benefit disclosures and writes them.
func (p *Pipeline) ProcessDate(ctx context.Context, date string) model.DateResult {
	return p.processDateRun(ctx, model.RunKindDate, date)
}

// ProcessScheduled is ProcessDate for today, recorded as a scheduled run.
func (p *Pipeline) ProcessScheduled(ctx context.Context) model.DateResult {
	return p.processDateRun(ctx, model.RunKindSchedule, "")
}

func (p *Pipeline) processDateRun(ctx context.Context, kind model.RunKind, date string) model.DateResult {
	if date == "" {
		date = p.source.Today()
	}
	runID := p.beginRun(ctx, kind, date)
	res := p.processDate(ctx, date)

	var runErr error
	if !res.Success {
		runErr = eris.New(res.Error)
	}
	p.finishRun(ctx, runID, &res.Stats, runErr)
	return res
}

func (p *Pipeline) processDate(ctx context.Context, date string) model.DateResult {
	log := zap.L().With(zap.String("date", date))
	log.Info("pipeline: processing date", zap.Bool("dry_run", p.opts.DryRun))

	res := model.DateResult{Date: date}

	var tableID string
	if !p.opts.DryRun {
		id, err := p.sink.EnsureTable(ctx, p.opts.TableName)
		if err != nil {
			log.Error("pipeline: table unavailable", zap.Error(err))
			res.Error = eris.Wrap(err, "pipeline: ensure table").Error()
			return res
		}
		tableID = id
	}

	ds, err := p.source.FetchDaily(ctx, date)
	if err != nil {
		log.Error("pipeline: fetch failed", zap.Error(err))
		res.Error = err.Error()
		return res
	}

	res.Success = true
	res.Processed = len(ds)
	if len(ds) == 0 {
		log.Info("pipeline: no benefit disclosures")
		return res
	}

	res.Stats = p.ProcessBatch(ctx, tableID, ds)
	log.Info("pipeline: date complete",
		zap.Int("total", res.Stats.Total),
		zap.Int("success", res.Stats.Success),
		zap.Int("failed", res.Stats.Failed),
		zap.Int("skipped", res.Stats.Skipped),
		zap.Int("duplicates", res.Stats.Duplicates),
	)
	return res
}

// ProcessRange processes every day from start through end inclusive (end
// defaults to start), pausing between days.
func (p *Pipeline) ProcessRange(ctx context.Context, start, end string) ([]model.DateResult, error) {
	if end == "" {
		end = start
	}
	from, err := time.Parse(time.DateOnly, start)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: invalid start date %q", start)
	}
	to, err := time.Parse(time.DateOnly, end)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: invalid end date %q", end)
	}
	if to.Before(from) {
		return nil, eris.Errorf("pipeline: end date %s before start date %s", end, start)
	}

	runID := p.beginRun(ctx, model.RunKindRange, start+".."+end)

	var results []model.DateResult
	var total model.BatchStats
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		if err := ctx.Err(); err != nil {
			p.finishRun(ctx, runID, &total, err)
			return results, eris.Wrap(err, "pipeline: range cancelled")
		}

		res := p.processDate(ctx, day.Format(time.DateOnly))
		results = append(results, res)
		total.Add(res.Stats)

		if day.Before(to) {
			if err := sleep(ctx, p.opts.RangePause); err != nil {
				p.finishRun(ctx, runID, &total, err)
				return results, eris.Wrap(err, "pipeline: range cancelled")
			}
		}
	}

	p.finishRun(ctx, runID, &total, nil)
	return results, nil
}

// ProcessCompany writes the benefit disclosures of one company published in
// the last daysBack days.
func (p *Pipeline) ProcessCompany(ctx context.Context, code string, daysBack int) (model.BatchStats, error) {
	log := zap.L().With(zap.String("code", code), zap.Int("days_back", daysBack))
	log.Info("pipeline: processing company history")

	runID := p.beginRun(ctx, model.RunKindCompany, code)

	var tableID string
	if !p.opts.DryRun {
		id, err := p.sink.EnsureTable(ctx, p.opts.TableName)
		if err != nil {
			err = eris.Wrap(err, "pipeline: ensure table")
			p.finishRun(ctx, runID, nil, err)
			return model.BatchStats{}, err
		}
		tableID = id
	}

	ds, err := p.source.FetchForCompany(ctx, code, daysBack)
	if err != nil {
		p.finishRun(ctx, runID, nil, err)
		return model.BatchStats{}, eris.Wrap(err, "pipeline: company history")
	}
	if len(ds) == 0 {
		log.Info("pipeline: no benefit disclosures for company")
		p.finishRun(ctx, runID, &model.BatchStats{}, nil)
		return model.BatchStats{}, nil
	}

	stats := p.ProcessBatch(ctx, tableID, ds)
	p.finishRun(ctx, runID, &stats, nil)
	return stats, nil
}

// SearchKeywords returns the day's benefit disclosures matching any keyword.
// Nothing is written.
func (p *Pipeline) SearchKeywords(ctx context.Context, date string, keywords []string) ([]model.Disclosure, error) {
	ds, err := p.source.Search(ctx, date, keywords)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: search")
	}
	zap.L().Info("pipeline: keyword search",
		zap.Strings("keywords", keywords),
		zap.Int("matched", len(ds)),
	)
	return ds, nil
}

// Report builds the category breakdown of one day's benefit disclosures.
// Nothing is written.
func (p *Pipeline) Report(ctx context.Context, date string) (model.DailyReport, error) {
	if date == "" {
		date = p.source.Today()
	}
	ds, err := p.source.FetchDaily(ctx, date)
	if err != nil {
		return model.DailyReport{Date: date}, eris.Wrap(err, "pipeline: report")
	}
	r := model.BuildReport(date, ds)
	zap.L().Info("pipeline: report generated", zap.String("date", date), zap.String("summary", r.Summary))
	return r, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
