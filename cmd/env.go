package main

import (
	"context"
	"net/http"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/yuutai-cli/internal/config"
	"github.com/sells-group/yuutai-cli/internal/fetcher"
	"github.com/sells-group/yuutai-cli/internal/pipeline"
	"github.com/sells-group/yuutai-cli/internal/store"
	"github.com/sells-group/yuutai-cli/internal/tdnet"
	"github.com/sells-group/yuutai-cli/internal/workspace"
	"github.com/sells-group/yuutai-cli/pkg/notion"
)

// pipelineEnv holds the initialized clients and the pipeline used by the
// sync, company, search, report and schedule commands.
type pipelineEnv struct {
	Store    store.Store // nil when the ledger could not be opened
	Source   *tdnet.Client
	Pipeline *pipeline.Pipeline
}

// Close releases resources held by the pipeline environment.
func (pe *pipelineEnv) Close() {
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

// envOptions selects what initPipeline wires.
type envOptions struct {
	// Write enables the Notion sink and run ledger. Read-only commands
	// (search, report, dry runs) leave it off and need no credentials.
	Write  bool
	DryRun bool
}

// initStore opens the run ledger.
func initStore(ctx context.Context) (store.Store, error) {
	st, err := store.NewSQLite(cfg.Store.Path)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

// newSource builds the TDnet client over a paced HTTP fetcher.
func newSource(c *config.Config) *tdnet.Client {
	f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent:   c.TDnet.UserAgent,
		Timeout:     c.TDnet.Timeout(),
		MinInterval: c.TDnet.MinInterval(),
	})
	return tdnet.NewClient(f, tdnet.Options{
		BaseURL:      c.TDnet.BaseURL,
		DownloadDir:  c.TDnet.DownloadDir,
		Limit:        c.TDnet.Limit,
		MaxFileBytes: c.TDnet.MaxFileBytes,
		DayPause:     c.TDnet.DayPause(),
	})
}

// newWorkspace builds the Notion-backed sink.
func newWorkspace(c *config.Config) *workspace.Workspace {
	nc := notion.NewClient(c.Notion.Token,
		notion.WithMinInterval(c.Notion.MinInterval()),
		notion.WithBaseURL(c.Notion.BaseURL),
		notion.WithHTTPClient(&http.Client{Timeout: c.Notion.Timeout()}),
	)
	return workspace.New(nc, c.Notion.ParentPageID)
}

// initPipeline wires the source, sink and ledger from cfg. Callers should
// defer env.Close().
func initPipeline(ctx context.Context, opts envOptions) (*pipelineEnv, error) {
	env := &pipelineEnv{Source: newSource(cfg)}

	var sink pipeline.Sink
	if opts.Write && !opts.DryRun {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		sink = newWorkspace(cfg)

		st, err := initStore(ctx)
		if err != nil {
			// The ledger is bookkeeping only; sync proceeds without it.
			zap.L().Warn("run ledger unavailable", zap.String("path", cfg.Store.Path), zap.Error(err))
		} else {
			env.Store = st
		}
	}

	env.Pipeline = pipeline.New(env.Source, sink, env.Store, pipeline.Options{
		TableName:  cfg.Notion.DatabaseName,
		RangePause: cfg.TDnet.RangePause(),
		DryRun:     opts.DryRun,
	})
	return env, nil
}
