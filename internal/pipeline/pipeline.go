// Package pipeline wires the forward aggregation pipeline: classify links,
// extract each source, materialize calendar documents, record the run
// manifest, and aggregate the documents into a candidate event pool.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"linkcal/internal/config"
	"linkcal/internal/extract"
	"linkcal/internal/fetch"
	"linkcal/internal/ics"
	"linkcal/internal/links"
	"linkcal/internal/llm"
	appLog "linkcal/internal/log"
	"linkcal/internal/selection"
	"linkcal/internal/store"
)

// Plan is the resolved classification of a link set, produced without any
// network or filesystem side effects.
type Plan struct {
	FileLink     string
	WebsiteLinks []string
}

// MakePlan classifies the link set. It is the whole of plan-only mode.
func MakePlan(linkSet []string) (Plan, error) {
	fileLink, websiteLinks, err := links.Classify(linkSet)
	if err != nil {
		return Plan{}, err
	}
	return Plan{FileLink: fileLink, WebsiteLinks: websiteLinks}, nil
}

// Pipeline executes batches against one storage directory and one store.
type Pipeline struct {
	cfg          *config.Config
	fileExt      extract.Extractor
	webExt       extract.Extractor
	materializer *ics.Materializer
	store        store.Store
}

// New builds a Pipeline from config, selecting the website fetch strategy
// (plain HTTP or headless browser) and the text-understanding client.
func New(cfg *config.Config, st store.Store) (*Pipeline, error) {
	materializer, err := ics.NewMaterializer(cfg.StorageDir)
	if err != nil {
		return nil, err
	}

	timeout := time.Duration(cfg.FetchTimeoutSec) * time.Second

	var webFetcher fetch.Fetcher = fetch.NewHTTPFetcher(timeout)
	if cfg.FetchMode == "browser" {
		webFetcher = fetch.NewBrowserFetcher(2 * timeout)
	}

	summarizer := llm.NewClient(cfg.LLM)

	return &Pipeline{
		cfg:          cfg,
		fileExt:      extract.NewFileExtractor(fetch.NewHTTPFetcher(timeout)),
		webExt:       extract.NewWebsiteExtractor(webFetcher, summarizer, cfg.MaxContentChars),
		materializer: materializer,
		store:        st,
	}, nil
}

// Run executes one batch: classification, per-source extraction,
// materialization, manifest recording, and aggregation into a fresh pool.
//
// Failure policy: the file link is mandatory, so its download failure
// aborts the batch before any website processing. Every website link is
// best-effort; its failure is logged and the remaining links proceed. The
// returned pool carries however many event records could be produced.
func (p *Pipeline) Run(ctx context.Context, linkSet []string) (*selection.Pool, error) {
	fileLink, websiteLinks, err := links.Classify(linkSet)
	if err != nil {
		return nil, err
	}

	generation := uuid.NewString()
	appLog.Info("pipeline run starting",
		"generation", generation,
		"website_links", len(websiteLinks),
	)

	manifest := make([]string, 0, 1+len(websiteLinks))

	// File link first: already in calendar format, stored verbatim.
	raw, err := p.fileExt.Extract(ctx, fileLink)
	if err != nil {
		return nil, fmt.Errorf("file link is mandatory: %w", err)
	}
	name, err := p.materializer.WriteVerbatim([]byte(raw.Text), raw.BaseName)
	if err != nil {
		return nil, err
	}
	manifest = append(manifest, name)

	// Website links: caught, logged, skipped on failure.
	for i, link := range websiteLinks {
		res, err := p.processWebsite(ctx, link)
		if err != nil {
			appLog.Error("website link skipped", err, "position", i+1, "url", fetch.RedactURL(link))
			continue
		}
		if res.Empty() {
			appLog.Info("website produced no events", "position", i+1, "url", fetch.RedactURL(link))
			appLog.Debug("raw extraction text", "text", res.Raw)
			continue
		}
		manifest = append(manifest, res.Name)
	}

	run := &store.Run{
		ID:       generation,
		UserID:   p.cfg.UserID,
		Manifest: manifest,
	}
	if err := p.store.RecordRun(ctx, run); err != nil {
		return nil, fmt.Errorf("recording run manifest: %w", err)
	}

	records := ics.Aggregate(p.materializer.Dir(), manifest)
	appLog.Info("pipeline run complete",
		"generation", generation,
		"documents", len(manifest),
		"events", len(records),
	)

	return selection.NewPool(generation, records), nil
}

func (p *Pipeline) processWebsite(ctx context.Context, link string) (ics.Result, error) {
	raw, err := p.webExt.Extract(ctx, link)
	if err != nil {
		return ics.Result{}, err
	}
	return p.materializer.Materialize(raw.Text, raw.BaseName)
}

// LoadLatestPool rebuilds the pool for the user's most recent run from its
// persisted manifest. Id assignment is deterministic for a fixed manifest,
// so the rebuilt pool matches the one the run originally produced.
func (p *Pipeline) LoadLatestPool(ctx context.Context) (*selection.Pool, error) {
	run, err := p.store.LatestRun(ctx, p.cfg.UserID)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, fmt.Errorf("no pipeline runs recorded for user %q", p.cfg.UserID)
	}

	records := ics.Aggregate(p.cfg.StorageDir, run.Manifest)
	return selection.NewPool(run.ID, records), nil
}

// NewEngine builds a selection engine over pool persisting through the
// pipeline's store under the configured user.
func (p *Pipeline) NewEngine(pool *selection.Pool) *selection.Engine {
	return selection.NewEngine(pool, p.store, p.cfg.UserID)
}
