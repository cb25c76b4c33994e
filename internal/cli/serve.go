package cli

import (
	"context"

	appLog "linkcal/internal/log"
	"linkcal/internal/pipeline"
	"linkcal/internal/selection"
	"linkcal/internal/store"
	"linkcal/internal/web"
)

// Execute implements the go-flags Commander interface for ServeCommand.
func (c *ServeCommand) Execute(args []string) error {
	cfg, err := loadConfig(c.globals)
	if err != nil {
		return err
	}
	if c.Listen != "" {
		cfg.Listen = c.Listen
	}

	st, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer st.Close()

	p, err := pipeline.New(cfg, st)
	if err != nil {
		return err
	}

	ctx := context.Background()

	// Serve the latest run's pool if one exists; otherwise start with no
	// engine and let the API report 503 until a run completes.
	var engine *selection.Engine
	pool, err := p.LoadLatestPool(ctx)
	if err != nil {
		appLog.Info("no pool available yet", "reason", err.Error())
	} else {
		engine = p.NewEngine(pool)
	}

	return web.StartServer(ctx, cfg, engine)
}
