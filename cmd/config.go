package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/lb-sim/lb-sim/sim"
	"github.com/lb-sim/lb-sim/sim/workload"
)

type outputFormat string

const (
	formatHuman   outputFormat = "human"
	formatSummary outputFormat = "summary"
	formatJSON    outputFormat = "json"
)

func parseFormat(name string) (outputFormat, error) {
	switch outputFormat(name) {
	case formatHuman, formatSummary, formatJSON:
		return outputFormat(name), nil
	default:
		return "", fmt.Errorf("unknown format %q (expected human, summary, or json)", name)
	}
}

// buildSimConfig merges the config file (if any) and CLI flags into a
// validated-shape SimConfig. Flags override file values field by field.
func buildSimConfig(cmd *cobra.Command, f *runFlags) (*sim.SimConfig, outputFormat, error) {
	format := outputFormat(f.format)
	if f.summary {
		format = formatSummary
	} else {
		parsed, err := parseFormat(f.format)
		if err != nil {
			return nil, "", err
		}
		format = parsed
	}

	flags := cmd.Flags()
	requestsSet := flags.Changed("requests")
	burstSet := flags.Changed("burst")
	seedSet := flags.Changed("seed")

	if requestsSet && burstSet {
		return nil, "", errors.New("use either --requests or --burst, not both")
	}
	if f.overload && (requestsSet || burstSet) {
		return nil, "", errors.New("use either --overload or --requests/--burst, not both")
	}
	if f.overload && f.overloadFactor <= 0 {
		return nil, "", errors.New("--overload-factor must be greater than 0")
	}
	if f.overload && f.overloadDurationMs <= 0 {
		return nil, "", errors.New("--overload-duration-ms must be greater than 0")
	}

	var cfg *sim.SimConfig
	if f.configPath != "" {
		loaded, err := loadConfigFile(f.configPath)
		if err != nil {
			return nil, "", err
		}
		cfg = loaded
	} else {
		cfg = &sim.SimConfig{TieBreak: sim.TieBreakStable}
		if f.algo == "" {
			return nil, "", errors.New("missing required --algo")
		}
		if !requestsSet && !burstSet && !f.overload {
			return nil, "", errors.New("missing required --requests, --burst, or --overload")
		}
	}

	// CLI overrides, applied on top of either the file or the empty config.
	if f.algo != "" {
		algo, err := sim.ParseAlgoKind(f.algo)
		if err != nil {
			return nil, "", err
		}
		cfg.Algo = algo
	}
	if len(f.serverEntries) > 0 || f.serversCSV != "" {
		servers, err := parseServerArgs(f.serverEntries, f.serversCSV)
		if err != nil {
			return nil, "", err
		}
		cfg.Servers = servers
	}
	if requestsSet {
		cfg.Requests = workload.FixedCount{Count: f.requests}
	}
	if burstSet {
		cfg.Requests = workload.Burst{Count: f.burst, AtMs: f.burstAt}
	}
	if f.overload {
		cfg.Requests = workload.Poisson{
			Rate:       capacityRPS(cfg.Servers) * f.overloadFactor,
			DurationMs: f.overloadDurationMs,
		}
	}
	if seedSet {
		seed := f.seed
		cfg.Seed = &seed
		cfg.TieBreak = sim.TieBreakSeeded
	}
	if f.concurrent {
		cfg.ConcurrentPerServer = true
	}
	cfg.SummaryOnly = format == formatSummary

	return cfg, format, nil
}

// fileConfig is the on-disk configuration shape, shared by YAML and JSON.
type fileConfig struct {
	Algo     string       `json:"algo" yaml:"algo"`
	TieBreak string       `json:"tie_break" yaml:"tie_break"`
	Seed     *int64       `json:"seed" yaml:"seed"`
	Servers  []fileServer `json:"servers" yaml:"servers"`
	Requests profileSpec  `json:"requests" yaml:"requests"`
}

type fileServer struct {
	Name      string `json:"name" yaml:"name"`
	LatencyMs int64  `json:"latency_ms" yaml:"latency_ms"`
	// Weight defaults to 1 when omitted; an explicit 0 is rejected.
	Weight *int64 `json:"weight" yaml:"weight"`
}

type profileSpec struct {
	FixedCount *int         `json:"fixed_count" yaml:"fixed_count"`
	Burst      *burstSpec   `json:"burst" yaml:"burst"`
	Poisson    *poissonSpec `json:"poisson" yaml:"poisson"`
}

type burstSpec struct {
	Count int   `json:"count" yaml:"count"`
	AtMs  int64 `json:"at_ms" yaml:"at_ms"`
}

type poissonSpec struct {
	Rate       float64 `json:"rate" yaml:"rate"`
	DurationMs int64   `json:"duration_ms" yaml:"duration_ms"`
}

// loadConfigFile reads a YAML or JSON config, selected by extension.
func loadConfigFile(path string) (*sim.SimConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config '%s': %w", path, err)
	}

	var fc fileConfig
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
	case "":
		return nil, errors.New("unsupported config format 'unknown'")
	default:
		return nil, fmt.Errorf("unsupported config format '%s'", strings.TrimPrefix(ext, "."))
	}

	cfg := &sim.SimConfig{
		TieBreak: sim.TieBreakStable,
		Seed:     fc.Seed,
	}
	if fc.Algo != "" {
		algo, err := sim.ParseAlgoKind(fc.Algo)
		if err != nil {
			return nil, err
		}
		cfg.Algo = algo
	}
	if fc.TieBreak != "" {
		cfg.TieBreak = sim.TieBreakKind(fc.TieBreak)
	} else if fc.Seed != nil {
		cfg.TieBreak = sim.TieBreakSeeded
	}
	for _, server := range fc.Servers {
		weight := int64(1)
		if server.Weight != nil {
			weight = *server.Weight
		}
		cfg.Servers = append(cfg.Servers, sim.ServerConfig{
			Name:          server.Name,
			BaseLatencyMs: server.LatencyMs,
			Weight:        weight,
		})
	}

	switch {
	case fc.Requests.FixedCount != nil:
		cfg.Requests = workload.FixedCount{Count: *fc.Requests.FixedCount}
	case fc.Requests.Burst != nil:
		cfg.Requests = workload.Burst{Count: fc.Requests.Burst.Count, AtMs: fc.Requests.Burst.AtMs}
	case fc.Requests.Poisson != nil:
		cfg.Requests = workload.Poisson{Rate: fc.Requests.Poisson.Rate, DurationMs: fc.Requests.Poisson.DurationMs}
	}

	return cfg, nil
}

// parseServerArgs collects entries from the CSV flag and the repeatable
// --server flag, in that order, and parses each as name:latency[:weight].
func parseServerArgs(serverEntries []string, serversCSV string) ([]sim.ServerConfig, error) {
	var entries []string

	if trimmed := strings.TrimSpace(serversCSV); trimmed != "" {
		for _, entry := range strings.Split(trimmed, ",") {
			entry = strings.TrimSpace(entry)
			if entry == "" {
				return nil, errors.New("servers must not contain empty entries")
			}
			entries = append(entries, entry)
		}
	}
	for _, entry := range serverEntries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			return nil, errors.New("servers must not contain empty entries")
		}
		entries = append(entries, entry)
	}

	if len(entries) == 0 {
		return nil, errors.New("servers must not be empty")
	}

	servers := make([]sim.ServerConfig, 0, len(entries))
	names := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		server, err := parseServerEntry(entry)
		if err != nil {
			return nil, err
		}
		if _, dup := names[server.Name]; dup {
			return nil, fmt.Errorf("duplicate server name '%s'", server.Name)
		}
		names[server.Name] = struct{}{}
		servers = append(servers, server)
	}
	return servers, nil
}

func parseServerEntry(entry string) (sim.ServerConfig, error) {
	parts := strings.Split(entry, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return sim.ServerConfig{}, fmt.Errorf("invalid server entry '%s': expected name:latency_ms[:weight]", entry)
	}

	name := strings.TrimSpace(parts[0])
	latencyStr := strings.TrimSpace(parts[1])
	if name == "" || latencyStr == "" {
		return sim.ServerConfig{}, fmt.Errorf("invalid server entry '%s': expected name:latency_ms[:weight]", entry)
	}

	latency, err := strconv.ParseInt(latencyStr, 10, 64)
	if err != nil || latency < 0 {
		return sim.ServerConfig{}, fmt.Errorf("invalid latency in '%s'", entry)
	}
	if latency == 0 {
		return sim.ServerConfig{}, fmt.Errorf("latency must be > 0 in '%s'", entry)
	}

	weight := int64(1)
	if len(parts) == 3 {
		weightStr := strings.TrimSpace(parts[2])
		if weightStr == "" {
			return sim.ServerConfig{}, fmt.Errorf("invalid server entry '%s': expected name:latency_ms[:weight]", entry)
		}
		weight, err = strconv.ParseInt(weightStr, 10, 64)
		if err != nil || weight < 0 {
			return sim.ServerConfig{}, fmt.Errorf("invalid weight in '%s'", entry)
		}
		if weight == 0 {
			return sim.ServerConfig{}, fmt.Errorf("weight must be > 0 in '%s'", entry)
		}
	}

	return sim.ServerConfig{Name: name, BaseLatencyMs: latency, Weight: weight}, nil
}

// capacityRPS is the total weighted service capacity in requests/second,
// used to derive the overload Poisson rate.
func capacityRPS(servers []sim.ServerConfig) float64 {
	var total float64
	for _, server := range servers {
		if server.BaseLatencyMs > 0 {
			total += 1000.0 / float64(server.BaseLatencyMs) * float64(server.Weight)
		}
	}
	return total
}

// formatConfig renders the effective configuration for show-config.
func formatConfig(cfg *sim.SimConfig) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Algorithm: %s\n", cfg.Algo)
	if cfg.Requests != nil {
		fmt.Fprintf(&b, "Requests: %s\n", cfg.Requests)
	} else {
		b.WriteString("Requests: (none)\n")
	}
	fmt.Fprintf(&b, "Tie-break: %s\n", cfg.TieBreak.Label(cfg.Seed))
	b.WriteString("Servers:\n")
	for _, server := range cfg.Servers {
		fmt.Fprintf(&b, "- %s (latency: %dms, weight: %d)\n", server.Name, server.BaseLatencyMs, server.Weight)
	}
	return b.String()
}
