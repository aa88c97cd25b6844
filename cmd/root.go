package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/lb-sim/lb-sim/sim"
)

// runFlags carries the flag set shared by the root command, `run`, and
// `show-config`. Each command owns its own instance so flag state never
// leaks between them.
type runFlags struct {
	algo               string
	serversCSV         string
	serverEntries      []string
	requests           int
	burst              int
	burstAt            int64
	overload           bool
	overloadFactor     float64
	overloadDurationMs int64
	concurrent         bool
	summary            bool
	format             string
	seed               int64
	configPath         string
	logLevel           string
}

func registerRunFlags(cmd *cobra.Command, f *runFlags) {
	cmd.Flags().StringVar(&f.algo, "algo", "", "Selection algorithm (round-robin, weighted-round-robin, least-connections, least-response-time)")
	cmd.Flags().StringVar(&f.serversCSV, "servers", "", "Comma-separated server list, entries as name:latency[:weight]")
	cmd.Flags().StringArrayVar(&f.serverEntries, "server", nil, "Single server entry name:latency[:weight] (repeatable)")
	cmd.Flags().IntVar(&f.requests, "requests", 0, "Number of requests, arriving one per millisecond")
	cmd.Flags().IntVar(&f.burst, "burst", 0, "Send all requests at once (burst)")
	cmd.Flags().Int64Var(&f.burstAt, "burst-at", 0, "Burst arrival time in ms")
	cmd.Flags().BoolVar(&f.overload, "overload", false, "Use Poisson arrivals at a rate above total capacity")
	cmd.Flags().Float64Var(&f.overloadFactor, "overload-factor", 1.1, "Overload factor applied to total weighted capacity (Poisson rate)")
	cmd.Flags().Int64Var(&f.overloadDurationMs, "overload-duration-ms", 1000, "Overload duration in ms")
	cmd.Flags().BoolVar(&f.concurrent, "concurrent", false, "Allow unlimited simultaneous service per server (default: serialized)")
	cmd.Flags().BoolVar(&f.summary, "summary", false, "Print only the per-server summary and metrics")
	cmd.Flags().StringVar(&f.format, "format", "human", "Output format (human, summary, json)")
	cmd.Flags().Int64Var(&f.seed, "seed", 0, "Seed tie-breaks for least-connections/response-time; omit for stable input-order tie-breaks")
	cmd.Flags().StringVar(&f.configPath, "config", "", "Path to a YAML or JSON config file")
	cmd.Flags().StringVar(&f.logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")
}

// newRootCommand assembles the CLI. Invoking the root with flags behaves
// like `run`, so `lb-sim --algo ... --servers ...` keeps working.
func newRootCommand() *cobra.Command {
	rootFlags := &runFlags{}
	root := &cobra.Command{
		Use:          "lb-sim",
		Short:        "Discrete-event simulator for load-balancing selection policies",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulation(cmd, rootFlags)
		},
	}
	registerRunFlags(root, rootFlags)

	rf := &runFlags{}
	runCmd := &cobra.Command{
		Use:          "run",
		Short:        "Run the load balancer simulation",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulation(cmd, rf)
		},
	}
	registerRunFlags(runCmd, rf)

	listCmd := &cobra.Command{
		Use:   "list-algorithms",
		Short: "List available algorithms",
		Run: func(cmd *cobra.Command, args []string) {
			for _, kind := range sim.AlgoKinds() {
				fmt.Fprintln(cmd.OutOrStdout(), kind)
			}
		},
	}

	sf := &runFlags{}
	showCmd := &cobra.Command{
		Use:          "show-config",
		Short:        "Show the effective configuration without running",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := buildSimConfig(cmd, sf)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatConfig(cfg))
			return nil
		},
	}
	registerRunFlags(showCmd, sf)

	root.AddCommand(runCmd, listCmd, showCmd)
	return root
}

func runSimulation(cmd *cobra.Command, f *runFlags) error {
	level, err := logrus.ParseLevel(f.logLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q", f.logLevel)
	}
	logrus.SetLevel(level)

	cfg, format, err := buildSimConfig(cmd, f)
	if err != nil {
		return err
	}

	result, err := sim.RunSimulation(*cfg)
	if err != nil {
		return err
	}

	return render(cmd.OutOrStdout(), format, cfg, result)
}

// Execute runs the CLI root command.
func Execute() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
