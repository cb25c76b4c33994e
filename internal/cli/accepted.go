package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"linkcal/internal/store"
)

// Execute implements the go-flags Commander interface for AcceptedCommand.
func (c *AcceptedCommand) Execute(args []string) error {
	cfg, err := loadConfig(c.globals)
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer st.Close()

	limit := c.Limit
	if c.All {
		limit = -1 // negative limit: the store returns every snapshot
	}

	snapshots, err := st.AcceptedSnapshots(context.Background(), cfg.UserID, limit)
	if err != nil {
		return err
	}

	if c.globals.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(snapshots)
	}

	if len(snapshots) == 0 {
		fmt.Println("No accepted events persisted yet.")
		return nil
	}

	// Newest first; the first snapshot per run is the final accepted set
	// of that review session.
	seenRun := map[string]bool{}
	for _, snap := range snapshots {
		if !c.All && seenRun[snap.RunID] {
			continue
		}
		seenRun[snap.RunID] = true

		fmt.Printf("%s  run %s  (%d accepted)\n",
			snap.CreatedAt.Format(time.RFC3339), snap.RunID, len(snap.Titles))
		for _, title := range snap.Titles {
			fmt.Printf("  + %s\n", title)
		}
	}

	return nil
}
