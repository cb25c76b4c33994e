package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"linkcal/internal/model"
	"linkcal/internal/pipeline"
	"linkcal/internal/selection"
	"linkcal/internal/store"
)

// Execute implements the go-flags Commander interface for ReviewCommand.
func (c *ReviewCommand) Execute(args []string) error {
	cfg, err := loadConfig(c.globals)
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

	ctx := context.Background()

	pool, err := p.LoadLatestPool(ctx)
	if err != nil {
		return err
	}
	engine := p.NewEngine(pool)

	// One-shot voting mode.
	if len(c.Accept) > 0 || len(c.Reject) > 0 {
		for _, id := range c.Accept {
			if err := engine.Record(ctx, id, model.VoteAccept); err != nil {
				return err
			}
			fmt.Printf("accepted event %d\n", id)
		}
		for _, id := range c.Reject {
			if err := engine.Record(ctx, id, model.VoteReject); err != nil {
				return err
			}
			fmt.Printf("rejected event %d\n", id)
		}
		return nil
	}

	return c.interactive(ctx, engine)
}

// interactive walks the undecided events one by one, reading a decision per
// event from stdin.
func (c *ReviewCommand) interactive(ctx context.Context, engine *selection.Engine) error {
	undecided := engine.Undecided()
	if len(undecided) == 0 {
		fmt.Println("No candidate events to review.")
		return nil
	}

	fmt.Printf("Reviewing %d candidate event(s). [y] accept, [n] reject, [s] skip, [q] quit.\n\n", len(undecided))
	reader := bufio.NewReader(os.Stdin)

	for _, ev := range undecided {
		printEvent(ev)

		for {
			fmt.Print("Accept? [y/n/s/q]: ")
			line, err := reader.ReadString('\n')
			if err != nil {
				// EOF: treat like quit.
				fmt.Println()
				return c.summarize(engine)
			}

			switch strings.ToLower(strings.TrimSpace(line)) {
			case "y":
				if err := engine.Record(ctx, ev.ID, model.VoteAccept); err != nil {
					return err
				}
			case "n":
				if err := engine.Record(ctx, ev.ID, model.VoteReject); err != nil {
					return err
				}
			case "s":
				// Leave undecided.
			case "q":
				return c.summarize(engine)
			default:
				continue
			}
			break
		}
		fmt.Println()
	}

	return c.summarize(engine)
}

func (c *ReviewCommand) summarize(engine *selection.Engine) error {
	accepted := engine.Accepted()
	fmt.Printf("Review done: %d accepted, %d still undecided.\n", len(accepted), len(engine.Undecided()))
	for _, ev := range accepted {
		fmt.Printf("  + %s\n", ev.Title)
	}
	return nil
}

func printEvent(ev model.EventRecord) {
	fmt.Printf("[%d] %s\n", ev.ID, ev.Title)
	fmt.Printf("    Date:     %s\n", ev.Date)
	if ev.StartTime != "" {
		fmt.Printf("    Start:    %s\n", ev.StartTime)
	}
	if ev.EndTime != "" {
		fmt.Printf("    End:      %s\n", ev.EndTime)
	}
	fmt.Printf("    Location: %s\n", ev.Location)
	if ev.Description != "" {
		fmt.Printf("    Notes:    %s\n", ev.Description)
	}
}
