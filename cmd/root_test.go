package cmd

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lb-sim/lb-sim/sim"
)

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCommand()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestListAlgorithms(t *testing.T) {
	out, err := executeCommand(t, "list-algorithms")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"round-robin",
		"weighted-round-robin",
		"least-connections",
		"least-response-time",
	}, strings.Split(strings.TrimRight(out, "\n"), "\n"))
}

func TestRootBehavesLikeRun(t *testing.T) {
	out, err := executeCommand(t,
		"--algo", "round-robin",
		"--servers", "api:5,db:5",
		"--requests", "4",
	)
	require.NoError(t, err)

	assert.Contains(t, out, "Tie-break: stable")
	assert.Contains(t, out, "Request 1 -> api")
	assert.Contains(t, out, "Request 2 -> db")
	assert.Contains(t, out, "Request 3 -> api")
	assert.Contains(t, out, "Request 4 -> db")
	assert.Contains(t, out, "Summary:")
	assert.Contains(t, out, "api: 2 requests")
	assert.Contains(t, out, "db: 2 requests")
}

func TestRunSubcommandJSONFormat(t *testing.T) {
	out, err := executeCommand(t, "run",
		"--algo", "least-connections",
		"--servers", "api:10,db:10",
		"--requests", "6",
		"--seed", "42",
		"--format", "json",
	)
	require.NoError(t, err)

	var result sim.SimulationResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))

	assert.Len(t, result.Assignments, 6)
	assert.Equal(t, "least-connections", result.Metadata.Algorithm)
	assert.Equal(t, "seeded(42)", result.Metadata.TieBreak)

	var total uint32
	for _, summary := range result.Totals {
		total += summary.Requests
	}
	assert.Equal(t, uint32(6), total)
}

func TestRunSubcommandSummaryFlag(t *testing.T) {
	out, err := executeCommand(t, "run",
		"--algo", "round-robin",
		"--servers", "api:5",
		"--requests", "3",
		"--summary",
	)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "Summary:\n"))
	assert.NotContains(t, out, "Request 1")
}

func TestRunRejectsConflictingProfiles(t *testing.T) {
	_, err := executeCommand(t, "run",
		"--algo", "round-robin",
		"--servers", "api:5",
		"--requests", "3",
		"--burst", "3",
	)
	assert.EqualError(t, err, "use either --requests or --burst, not both")
}

func TestRunRejectsInvalidLogLevel(t *testing.T) {
	_, err := executeCommand(t, "run",
		"--algo", "round-robin",
		"--servers", "api:5",
		"--requests", "3",
		"--log", "loud",
	)
	assert.EqualError(t, err, `invalid log level "loud"`)
}

func TestShowConfig(t *testing.T) {
	out, err := executeCommand(t, "show-config",
		"--algo", "weighted-round-robin",
		"--servers", "api:10:2,db:20",
		"--requests", "100",
	)
	require.NoError(t, err)

	want := `Algorithm: weighted-round-robin
Requests: 100
Tie-break: stable
Servers:
- api (latency: 10ms, weight: 2)
- db (latency: 20ms, weight: 1)
`
	assert.Equal(t, want, out)
}
