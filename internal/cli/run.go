package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"

	appLog "linkcal/internal/log"
	"linkcal/internal/pipeline"
	"linkcal/internal/selection"
	"linkcal/internal/store"
)

// Execute implements the go-flags Commander interface for RunCommand.
func (c *RunCommand) Execute(args []string) error {
	cfg, err := loadConfig(c.globals)
	if err != nil {
		return err
	}

	linkSet, err := resolveLinks(c.Links, c.LinksFile, cfg)
	if err != nil {
		return err
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

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pool, err := p.Run(ctx, linkSet)
	if err != nil {
		return err
	}
	c.printPool(pool)

	if !c.Watch {
		return nil
	}

	// Watch mode: re-run on the configured cron schedule until signaled.
	sched := cron.New()
	_, err = sched.AddFunc(cfg.RefreshCron, func() {
		pool, err := p.Run(ctx, linkSet)
		if err != nil {
			appLog.Error("scheduled run failed", err)
			return
		}
		c.printPool(pool)
	})
	if err != nil {
		return fmt.Errorf("invalid refresh schedule %q: %w", cfg.RefreshCron, err)
	}

	appLog.Info("watch mode started", "schedule", cfg.RefreshCron)
	sched.Start()
	<-ctx.Done()
	<-sched.Stop().Done()

	return nil
}

func (c *RunCommand) printPool(pool *selection.Pool) {
	if c.globals.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(map[string]any{
			"generation": pool.Generation,
			"events":     pool.Events,
		})
		return
	}

	fmt.Printf("Run %s produced %d candidate event(s):\n", pool.Generation, len(pool.Events))
	for _, ev := range pool.Events {
		fmt.Printf("  %3d. %s (%s", ev.ID, ev.Title, ev.Date)
		if ev.Location != "" {
			fmt.Printf(", %s", ev.Location)
		}
		fmt.Println(")")
	}
	fmt.Println("\nUse the review command to accept or reject them.")
}
