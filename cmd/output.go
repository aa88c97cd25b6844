package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/lb-sim/lb-sim/sim"
)

// render writes the simulation result in the requested format. The engine
// itself never prints; every output line is reconstructed here from the
// structured result.
func render(w io.Writer, format outputFormat, cfg *sim.SimConfig, result *sim.SimulationResult) error {
	switch format {
	case formatJSON:
		return printJSON(w, result)
	case formatSummary:
		printSummary(w, result)
		return nil
	default:
		return printFull(w, cfg, result)
	}
}

func printFull(w io.Writer, cfg *sim.SimConfig, result *sim.SimulationResult) error {
	fmt.Fprintf(w, "Tie-break: %s\n", result.Metadata.TieBreak)

	for _, a := range result.Assignments {
		if a.ServerID < 0 || a.ServerID >= len(cfg.Servers) {
			return fmt.Errorf("missing server for id %d", a.ServerID)
		}
		name := cfg.Servers[a.ServerID].Name
		if a.Score != nil {
			fmt.Fprintf(w, "Request %d -> %s (score: %dms)\n", a.RequestID, name, *a.Score)
		} else {
			fmt.Fprintf(w, "Request %d -> %s\n", a.RequestID, name)
		}
	}

	printSummary(w, result)
	return nil
}

func printSummary(w io.Writer, result *sim.SimulationResult) {
	fmt.Fprintln(w, "Summary:")
	for _, total := range result.Totals {
		fmt.Fprintf(w, "%s: %d requests (avg response: %gms)\n", total.Name, total.Requests, total.AvgResponseMs)
	}
	printMetrics(w, result)
}

func printMetrics(w io.Writer, result *sim.SimulationResult) {
	m := result.Metrics
	fmt.Fprintln(w, "Metrics:")
	fmt.Fprintf(w, "p50 response: %s\n", formatPercentile(m.P50ResponseMs))
	fmt.Fprintf(w, "p95 response: %s\n", formatPercentile(m.P95ResponseMs))
	fmt.Fprintf(w, "p99 response: %s\n", formatPercentile(m.P99ResponseMs))
	fmt.Fprintf(w, "fairness: %.2f\n", m.FairnessIndex)
	fmt.Fprintf(w, "throughput: %.2f req/s\n", m.ThroughputRps)
	fmt.Fprintf(w, "avg wait: %.2fms\n", m.AvgWaitMs)
	for _, total := range result.Totals {
		fmt.Fprintf(w, "utilization[%s]: %.2f%%\n", total.Name, total.UtilizationPct)
	}
	fmt.Fprintf(w, "duration: %dms\n", result.Metadata.TotalDurationMs)
}

func formatPercentile(value *float64) string {
	if value == nil {
		return "n/a"
	}
	return fmt.Sprintf("%gms", *value)
}

func printJSON(w io.Writer, result *sim.SimulationResult) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
