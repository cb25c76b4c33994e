package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"linkcal/internal/config"
	appLog "linkcal/internal/log"
)

// loadConfig resolves and loads the effective configuration, applying the
// verbose flag to the logger.
func loadConfig(globals *GlobalFlags) (*config.Config, error) {
	cfg, err := config.Load(globals.Config)
	if err != nil {
		return nil, fmt.Errorf("loading config %s: %w", globals.Config, err)
	}

	if globals.Verbose {
		appLog.SetLevel(appLog.LevelDebug)
	} else {
		appLog.SetLevel(appLog.ParseLevel(cfg.LogLevel))
	}

	return cfg, nil
}

// loadConfigReadOnly resolves configuration for side-effect-free flows: a
// missing config file yields the defaults without being created.
func loadConfigReadOnly(globals *GlobalFlags) (*config.Config, error) {
	cfg, err := config.Read(globals.Config)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", globals.Config, err)
	}

	if globals.Verbose {
		appLog.SetLevel(appLog.LevelDebug)
	} else {
		appLog.SetLevel(appLog.ParseLevel(cfg.LogLevel))
	}

	return cfg, nil
}

// loadLinksFile reads a JSON array of link strings from path.
func loadLinksFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading links file: %w", err)
	}

	var links []string
	if err := json.Unmarshal(data, &links); err != nil {
		return nil, fmt.Errorf("links file must contain a JSON array of strings: %w", err)
	}
	return links, nil
}

// resolveLinks picks the link set for a command: inline --link flags first,
// then --links-file, then the config seed links.
func resolveLinks(inline []string, linksFile string, cfg *config.Config) ([]string, error) {
	if len(inline) > 0 && linksFile != "" {
		return nil, fmt.Errorf("--link and --links-file are mutually exclusive")
	}
	if len(inline) > 0 {
		return inline, nil
	}
	if linksFile != "" {
		return loadLinksFile(linksFile)
	}
	if len(cfg.Links) > 0 {
		return cfg.Links, nil
	}
	return nil, fmt.Errorf("no links supplied: use --link, --links-file, or the config links list")
}
