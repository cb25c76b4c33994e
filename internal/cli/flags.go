package cli

// GlobalFlags holds flags available to all subcommands. --version is
// handled before parsing (see RunWithArgs), since go-flags would otherwise
// demand a subcommand alongside it.
type GlobalFlags struct {
	Config  string `long:"config" description:"Path to config file" default:"./linkcal.yaml"`
	JSON    bool   `long:"json" description:"Output in JSON format"`
	Verbose bool   `long:"verbose" description:"Enable verbose (debug) logging"`
}

// PlanCommand prints the resolved link classification without side effects.
type PlanCommand struct {
	Links     []string `long:"link" description:"Link to process (repeatable; first is the file link)"`
	LinksFile string   `long:"links-file" description:"Path to a JSON array of links"`

	globals *GlobalFlags
	version string
}

// RunCommand executes the aggregation pipeline for one link set.
type RunCommand struct {
	Links     []string `long:"link" description:"Link to process (repeatable; first is the file link)"`
	LinksFile string   `long:"links-file" description:"Path to a JSON array of links"`
	Watch     bool     `long:"watch" description:"Keep running, re-executing on the configured cron schedule"`

	globals *GlobalFlags
	version string
}

// ReviewCommand swipes through the latest run's candidate pool.
type ReviewCommand struct {
	Accept []int `long:"accept" description:"Accept event id without the interactive loop (repeatable)"`
	Reject []int `long:"reject" description:"Reject event id without the interactive loop (repeatable)"`

	globals *GlobalFlags
	version string
}

// AcceptedCommand prints persisted accepted-event snapshots.
type AcceptedCommand struct {
	Limit int  `long:"limit" description:"Maximum snapshots to show" default:"10"`
	All   bool `long:"all" description:"Show every snapshot, not just the latest per run"`

	globals *GlobalFlags
	version string
}

// ServeCommand starts the swipe HTTP API over the latest run's pool.
type ServeCommand struct {
	Listen string `long:"listen" description:"HTTP listen address (overrides config if set)"`

	globals *GlobalFlags
	version string
}
