package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"linkcal/internal/pipeline"
)

// Execute implements the go-flags Commander interface for PlanCommand.
// Plan mode performs no network or filesystem side effects, so the config
// is read without the usual first-run file creation.
func (c *PlanCommand) Execute(args []string) error {
	cfg, err := loadConfigReadOnly(c.globals)
	if err != nil {
		return err
	}

	linkSet, err := resolveLinks(c.Links, c.LinksFile, cfg)
	if err != nil {
		return err
	}

	plan, err := pipeline.MakePlan(linkSet)
	if err != nil {
		return fmt.Errorf("invalid link set: %w", err)
	}

	if c.globals.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"file_link":     plan.FileLink,
			"website_links": plan.WebsiteLinks,
		})
	}

	fmt.Println("PLAN: the pipeline will perform the following actions:")
	fmt.Printf("- Download file from: %s\n", plan.FileLink)
	fmt.Printf("- Convert %d website(s) to calendar documents:\n", len(plan.WebsiteLinks))
	for i, url := range plan.WebsiteLinks {
		fmt.Printf("  %d. %s\n", i+1, url)
	}
	fmt.Println("\nTo actually download and extract, use the run command.")

	return nil
}
