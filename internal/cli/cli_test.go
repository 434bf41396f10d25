package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
catalog:
  source: static
ranking:
  scorer: heuristic
availability:
  seed: 3
  max_load: 0.2
`

func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRoot()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--config", writeConfig(t)}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestStationsCmd(t *testing.T) {
	out, err := run(t, "stations")
	require.NoError(t, err)
	assert.Contains(t, out, "Precision Auto Care")
	assert.Contains(t, out, "AllRound Auto Services")

	out, err = run(t, "stations", "--json", "--car-type", "Motorcycle", "--service", "Oil Change")
	require.NoError(t, err)
	var stations []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &stations))
	require.Len(t, stations, 2)
	assert.Equal(t, "station-4", stations[0]["id"])
}

func TestRankCmd(t *testing.T) {
	out, err := run(t, "rank", "--json", "--car-type", "SUV", "--service", "Oil Change")
	require.NoError(t, err)

	var ranked []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &ranked))
	require.Len(t, ranked, 2)
	assert.Equal(t, "station-2", ranked[0]["id"])

	_, err = run(t, "rank", "--car-type", "Boat", "--service", "Oil Change")
	assert.ErrorContains(t, err, "unknown car type")
}

func TestSlotsCmd(t *testing.T) {
	out, err := run(t, "slots", "--station", "station-1", "--service", "Oil Change")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.GreaterOrEqual(t, len(lines), 5)
	assert.NotContains(t, out, "12:00 PM")

	_, err = run(t, "slots", "--station", "station-4", "--service", "Tire Rotation")
	assert.Error(t, err)

	_, err = run(t, "slots", "--service", "Oil Change")
	assert.ErrorContains(t, err, "--station is required")
}

func TestRecommendCmd(t *testing.T) {
	out, err := run(t, "recommend", "--car-type", "Sedan", "the", "brakes", "squeal")
	require.NoError(t, err)
	assert.Equal(t, "Brake Inspection\n", out)

	out, err = run(t, "recommend", "--car-type", "Sedan", "it", "smells", "funny")
	require.NoError(t, err)
	assert.Equal(t, "No matching services.\n", out)
}

func TestVersionCmd(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "autoease dev"))
}
