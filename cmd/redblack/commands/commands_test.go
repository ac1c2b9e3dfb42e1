package commands_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Maniekw12/Red-Black-Tree-implementation/cmd/redblack/commands"
	"github.com/Maniekw12/Red-Black-Tree-implementation/pkg/rbtree"
	"github.com/Maniekw12/Red-Black-Tree-implementation/pkg/scenario"
	"github.com/Maniekw12/Red-Black-Tree-implementation/pkg/snapshot"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer

	err := commands.Execute(context.Background(), args, &stdout, &stderr)

	return stdout.String(), stderr.String(), err
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "redblack.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	return path
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	t.Parallel()

	root := commands.NewRootCommand()

	var names []string
	for _, sub := range root.Commands() {
		names = append(names, sub.Name())
	}

	for _, want := range []string{"dump", "verify", "stress", "replay", "render", "snapshot", "restore", "version"} {
		assert.Contains(t, names, want)
	}

	for _, flag := range []string{"config", "verbose", "quiet", "no-color"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(flag), flag)
	}
}

func TestVersion(t *testing.T) {
	t.Parallel()

	stdout, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "redblack ")
	assert.Contains(t, stdout, "commit: ")
}

func TestMissingConfigFile(t *testing.T) {
	t.Parallel()

	_, _, err := execute(t, "--config", filepath.Join(t.TempDir(), "absent.yaml"), "version")
	require.Error(t, err)
}

func TestDump(t *testing.T) {
	t.Parallel()

	stdout, _, err := execute(t, "--no-color", "dump", "20", "10", "30")
	require.NoError(t, err)
	assert.Equal(t, "Red-Black Tree:\n-----20 (BLACK)\n    -----10 (RED)\n    -----30 (RED)\n", stdout)
}

func TestDumpEmpty(t *testing.T) {
	t.Parallel()

	stdout, _, err := execute(t, "--no-color", "dump")
	require.NoError(t, err)
	assert.Equal(t, "Red-Black Tree:\nTree is empty.\n", stdout)
}

func TestDumpDelete(t *testing.T) {
	t.Parallel()

	stdout, _, err := execute(t, "--no-color", "dump", "20", "10", "30", "--delete", "10,99")
	require.NoError(t, err)
	assert.Contains(t, stdout, "-----20 (BLACK)")
	assert.Contains(t, stdout, "30 (RED)")
	assert.NotContains(t, stdout, "10 (")
}

func TestDumpInvalidKey(t *testing.T) {
	t.Parallel()

	_, _, err := execute(t, "dump", "1", "two")
	require.ErrorIs(t, err, commands.ErrInvalidKey)
}

func TestVerify(t *testing.T) {
	t.Parallel()

	stdout, _, err := execute(t, "--no-color", "verify", "1", "2", "3", "4", "5", "6", "7", "--delete", "4")
	require.NoError(t, err)
	assert.Contains(t, stdout, "METRIC")
	assert.Contains(t, stdout, "Deleted")
	assert.Contains(t, stdout, "Arena used")
	assert.Contains(t, stdout, "HEIGHT BOUND")
}

func TestStress(t *testing.T) {
	t.Parallel()

	stdout, _, err := execute(t, "stress", "--keys", "35", "--rounds", "2", "--seed", "7")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Stress")
	assert.Contains(t, stdout, "Operations")
	assert.Contains(t, stdout, "Max black height")
}

func TestStressInvalidKeys(t *testing.T) {
	t.Parallel()

	_, _, err := execute(t, "stress", "--keys", "0")
	require.ErrorIs(t, err, scenario.ErrInvalidStressConfig)
}

func TestStressServesMetrics(t *testing.T) {
	t.Parallel()

	stdout, stderr, err := execute(t, "stress", "--keys", "10", "--rounds", "1", "--metrics-addr", "127.0.0.1:0")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Rounds")
	assert.Contains(t, stderr, "serving metrics")
}

func TestStressUsesConfigDefaults(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "stress:\n  keys: 5\n  rounds: 1\n")

	stdout, _, err := execute(t, "--config", path, "stress")
	require.NoError(t, err)
	assert.Regexp(t, `Keys\s*│\s*5\s`, stdout)
}

func TestReplayBuiltin(t *testing.T) {
	t.Parallel()

	stdout, _, err := execute(t, "replay", "builtin:single-insert")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Scenario: single-insert")
	assert.Contains(t, stdout, "step 0 insert [10]: nodes 1, height 1, black height 1")
	assert.Contains(t, stdout, "PASS single-insert (1 steps)")
}

func TestReplayDiff(t *testing.T) {
	t.Parallel()

	stdout, _, err := execute(t, "--no-color", "replay", "--diff", "builtin:single-insert")
	require.NoError(t, err)
	assert.Contains(t, stdout, "+ -----10 (BLACK)\n")
}

func TestReplayList(t *testing.T) {
	t.Parallel()

	stdout, _, err := execute(t, "replay", "--list")
	require.NoError(t, err)

	for _, name := range scenario.BuiltinNames() {
		assert.Contains(t, stdout, "builtin:"+name+"\n")
	}
}

func TestReplayJSON(t *testing.T) {
	t.Parallel()

	stdout, _, err := execute(t, "replay", "--format", "json", "builtin:delete-two-children")
	require.NoError(t, err)

	var result scenario.Result
	require.NoError(t, json.Unmarshal([]byte(stdout), &result))
	assert.Equal(t, "delete-two-children", result.Name)
	assert.Len(t, result.Steps, 3)
	assert.Equal(t, 6, result.Report.Nodes)
}

func TestReplayYAML(t *testing.T) {
	t.Parallel()

	stdout, _, err := execute(t, "replay", "--format", "yaml", "builtin:single-insert")
	require.NoError(t, err)
	assert.Contains(t, stdout, "name: single-insert\n")
	assert.Contains(t, stdout, "-----10 (BLACK)")
}

func TestReplayErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
		want error
	}{
		{name: "unknown builtin", args: []string{"replay", "builtin:nope"}, want: scenario.ErrUnknownBuiltin},
		{name: "bad format", args: []string{"replay", "--format", "xml", "builtin:single-insert"}, want: commands.ErrInvalidFormat},
		{name: "missing argument", args: []string{"replay"}, want: scenario.ErrInvalidScenario},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, _, err := execute(t, tt.args...)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestReplayFileExpectationFailure(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "broken.yaml")
	body := "name: broken\nsteps:\n  - op: insert\n    keys: [1, 2]\n  - op: delete\n    keys: [3]\n    expect: true\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	stdout, _, err := execute(t, "replay", path)
	require.ErrorIs(t, err, scenario.ErrExpectation)
	assert.Contains(t, stdout, "step 0 insert [1 2]")
	assert.NotContains(t, stdout, "PASS")
}

func TestRenderToFile(t *testing.T) {
	t.Parallel()

	out := filepath.Join(t.TempDir(), "tree.html")

	_, _, err := execute(t, "render", "--out", out, "--title", "Keys", "1", "2")
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Keys")
	assert.Contains(t, string(data), `"name":"NIL"`)
}

func TestRenderToStdout(t *testing.T) {
	t.Parallel()

	stdout, _, err := execute(t, "render", "--out", "-", "3", "1", "2")
	require.NoError(t, err)
	assert.Contains(t, stdout, "3 nodes, height 2, black height 1")
}

func TestSnapshot(t *testing.T) {
	t.Parallel()

	base := filepath.Join(t.TempDir(), "snap")
	args := []string{"snapshot", "--path", base, "--shards", "2", "--trees", "4"}

	for key := range 100 {
		args = append(args, strconv.Itoa(key*7))
	}

	stdout, _, err := execute(t, args...)
	require.NoError(t, err)
	assert.Contains(t, stdout, "ON DISK")
	assert.Contains(t, stdout, "TOTAL")
	assert.FileExists(t, rbtree.ShardPath(base, 0))
	assert.FileExists(t, rbtree.ShardPath(base, 1))
}

func TestSnapshotDefaults(t *testing.T) {
	t.Parallel()

	stdout, _, err := execute(t, "snapshot")
	require.NoError(t, err)
	assert.Contains(t, stdout, "SHARD")
	assert.Contains(t, stdout, "35")
}

func TestSnapshotTooLarge(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "snapshot:\n  max_size: 8B\n")

	_, _, err := execute(t, "--config", path, "snapshot", "--path", filepath.Join(t.TempDir(), "snap"))
	require.ErrorIs(t, err, snapshot.ErrTooLarge)
}

func TestSnapshotInvalidTrees(t *testing.T) {
	t.Parallel()

	_, _, err := execute(t, "snapshot", "--trees", "0")
	require.ErrorIs(t, err, commands.ErrInvalidSnapshot)
}

func TestSnapshotYAMLManifest(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "snapshot:\n  manifest_format: yaml\n")
	base := filepath.Join(t.TempDir(), "snap")

	_, _, err := execute(t, "--config", path, "snapshot", "--path", base, "1", "2", "3")
	require.NoError(t, err)
	assert.FileExists(t, snapshot.ManifestPath(base, snapshot.NewYAMLCodec()))
}

func TestRestore(t *testing.T) {
	t.Parallel()

	base := filepath.Join(t.TempDir(), "snap")

	_, _, err := execute(t, "snapshot", "--path", base, "--trees", "2", "--shards", "3", "20", "10", "30", "5")
	require.NoError(t, err)

	stdout, _, err := execute(t, "--no-color", "restore", "--path", base, "--dump", "tree-0")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Restored 1 trees from 3 shards")
	assert.Contains(t, stdout, "2 nodes, height 2, black height 1")
	assert.Contains(t, stdout, "tree-0:\nRed-Black Tree:\n-----20 (BLACK)\n    -----30 (RED)\n")
	assert.NotContains(t, stdout, "tree-1:")

	stdout, _, err = execute(t, "restore", "--path", base)
	require.NoError(t, err)
	assert.Contains(t, stdout, "tree-0")
	assert.Contains(t, stdout, "tree-1")
}

func TestRestoreErrors(t *testing.T) {
	t.Parallel()

	_, _, err := execute(t, "restore")
	require.Error(t, err)

	_, _, err = execute(t, "restore", "--path", filepath.Join(t.TempDir(), "absent"))
	require.ErrorIs(t, err, snapshot.ErrManifestNotFound)

	base := filepath.Join(t.TempDir(), "snap")

	_, _, err = execute(t, "snapshot", "--path", base, "--trees", "1", "1")
	require.NoError(t, err)

	_, _, err = execute(t, "restore", "--path", base, "tree-7")
	require.ErrorIs(t, err, snapshot.ErrManifestMismatch)
}
