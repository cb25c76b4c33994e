package cli

import (
	"fmt"
	"os"

	goflags "github.com/jessevdk/go-flags"
)

// commands holds references to all subcommand structs for inspection/testing.
type commands struct {
	Plan     *PlanCommand
	Run      *RunCommand
	Review   *ReviewCommand
	Accepted *AcceptedCommand
	Serve    *ServeCommand
}

// buildParser constructs the go-flags parser with all subcommands registered.
func buildParser(version string) (*goflags.Parser, *GlobalFlags, *commands) {
	var globals GlobalFlags

	parser := goflags.NewParser(&globals, goflags.Default)
	parser.Name = "linkcal"
	parser.LongDescription = "Aggregate calendar events from a file link and website links, then review them with an accept/reject workflow."

	cmds := &commands{
		Plan:     &PlanCommand{globals: &globals, version: version},
		Run:      &RunCommand{globals: &globals, version: version},
		Review:   &ReviewCommand{globals: &globals, version: version},
		Accepted: &AcceptedCommand{globals: &globals, version: version},
		Serve:    &ServeCommand{globals: &globals, version: version},
	}

	parser.AddCommand("plan", "Print the resolved link classification", "Classify the link set and print the planned actions. Performs no network or filesystem side effects.", cmds.Plan)
	parser.AddCommand("run", "Execute the aggregation pipeline", "Download the file link, convert website links to calendar documents, and aggregate everything into a candidate pool.", cmds.Run)
	parser.AddCommand("review", "Accept or reject candidate events", "Swipe through the latest run's candidate pool, interactively or via --accept/--reject.", cmds.Review)
	parser.AddCommand("accepted", "Print persisted accepted events", "Print the accepted-event snapshots persisted by previous review sessions.", cmds.Accepted)
	parser.AddCommand("serve", "Start the swipe HTTP API", "Serve the candidate pool and accept votes over HTTP for an external review UI.", cmds.Serve)

	return parser, &globals, cmds
}

// Run is the main entry point for the linkcal CLI using os.Args.
func Run(version string) error {
	return RunWithArgs(version, nil)
}

// RunWithArgs parses the given args (or os.Args if nil) and executes the matched subcommand.
func RunWithArgs(version string, args []string) error {
	// Handle --version before parsing (go-flags requires a subcommand, but
	// --version is valid without one).
	checkArgs := args
	if checkArgs == nil {
		checkArgs = os.Args[1:]
	}
	for _, arg := range checkArgs {
		if arg == "--version" {
			fmt.Printf("linkcal %s\n", version)
			return nil
		}
		if arg == "--" {
			break
		}
	}

	parser, _, _ := buildParser(version)

	var err error
	if args != nil {
		_, err = parser.ParseArgs(args)
	} else {
		_, err = parser.Parse()
	}

	if err != nil {
		if flagsErr, ok := err.(*goflags.Error); ok {
			if flagsErr.Type == goflags.ErrHelp {
				return nil
			}
		}
		return err
	}

	return nil
}
