package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scout-helper/tracker/internal/config"
	"github.com/scout-helper/tracker/pkg/core"
)

// Nariphon at spawn point "a" of Lakeland in data/siren.json.
const trainJSON = `[
	{"name": "Nariphon", "mobId": 10601, "territoryId": 813, "mapId": 1, "instance": 0,
	 "position": {"x": 16.4, "y": 10.8}, "lastSeenUtc": "2026-10-16T12:00:00Z"}
]`

func setupWorkspace(t *testing.T, cfg string) string {
	t.Helper()
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.FileName), []byte(cfg), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "train.json"), []byte(trainJSON), 0o644))
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(""))
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		worldName = ""
		renderTemplate, renderLink, renderTracker, renderPatch = "", "", "", ""
	})
	err := rootCmd.Execute()
	return out.String(), err
}

const workspaceConfig = `{
	"logsDir": "",
	"data": {"dir": "../../data", "watch": false},
	"store": {"type": "memory"}
}`

func TestReadSightings(t *testing.T) {
	dir := setupWorkspace(t, `{}`)

	sightings, err := readSightings(filepath.Join(dir, "train.json"), nil)
	require.NoError(t, err)
	require.Len(t, sightings, 1)
	assert.Equal(t, uint(10601), sightings[0].MobID)
	assert.Equal(t, core.Position{X: 16.4, Y: 10.8}, sightings[0].Position)

	fromStdin, err := readSightings("-", strings.NewReader(trainJSON))
	require.NoError(t, err)
	assert.Equal(t, sightings, fromStdin)

	_, err = readSightings(filepath.Join(dir, "missing.json"), nil)
	assert.Error(t, err)

	_, err = readSightings("-", strings.NewReader(`{"not": "a list"}`))
	assert.ErrorContains(t, err, "failed to parse sightings")
}

func TestScanSightings(t *testing.T) {
	input := `{"name": "Nariphon", "mobId": 10601}

{"name": "Baal", "mobId": 10611, "instance": 2}
`
	var got []string
	err := scanSightings(strings.NewReader(input), func(s core.Sighting) error {
		got = append(got, s.Name)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Nariphon", "Baal"}, got)

	err = scanSightings(strings.NewReader("{\"mobId\": 1}\nnot json\n"), func(core.Sighting) error { return nil })
	assert.ErrorContains(t, err, "line 2")
}

func TestRenderCommand(t *testing.T) {
	dir := setupWorkspace(t, workspaceConfig)

	out, err := execute(t, "render",
		"--config", dir,
		"--world", "Odin",
		"--sightings", filepath.Join(dir, "train.json"),
		"--template", "{patch} {#}/{#max} {world} [{tracker}]({link}) {unknown}",
		"--tracker", "bear",
		"--link", "https://example.com",
		"--patch", "SHB",
	)
	require.NoError(t, err)
	assert.Equal(t, "SHB 1/12 Odin [bear](https://example.com) {unknown}\n", out)
}

func TestRenderCommand_PatchFromData(t *testing.T) {
	dir := setupWorkspace(t, workspaceConfig)

	out, err := execute(t, "render",
		"--config", dir,
		"--sightings", filepath.Join(dir, "train.json"),
		"--template", "{patch-emote} {world}",
	)
	require.NoError(t, err)
	assert.Equal(t, core.SHB.Emote()+" Not Found\n", out)
}

func TestLinkCommand_Siren(t *testing.T) {
	dir := setupWorkspace(t, workspaceConfig)

	out, err := execute(t, "link", "siren",
		"--config", dir,
		"--sightings", filepath.Join(dir, "train.json"),
	)
	require.NoError(t, err)
	assert.Equal(t, "[Siren] https://sirenhunts.com/scouting/SHB>A-----------\n", out)
}

func TestLinkCommand_UnknownTracker(t *testing.T) {
	dir := setupWorkspace(t, workspaceConfig)

	_, err := execute(t, "link", "owl", "--config", dir, "--sightings", filepath.Join(dir, "train.json"))
	assert.ErrorContains(t, err, "unknown tracker")
}

func TestStatusCommand(t *testing.T) {
	dir := setupWorkspace(t, workspaceConfig)

	out, err := execute(t, "status", "--config", dir, "--world", "Odin")
	require.NoError(t, err)
	assert.Contains(t, out, `"world": "Odin"`)
	assert.Contains(t, out, `"bearMobs": 18`)
	assert.Contains(t, out, `"storeBackend": "memory"`)
}

func TestCollabStatus_NotJoined(t *testing.T) {
	dir := setupWorkspace(t, workspaceConfig)

	out, err := execute(t, "collab", "status", "--config", dir)
	require.NoError(t, err)
	assert.Equal(t, "Not in a session\n", out)
}

func TestCollabJoin_InvalidLink(t *testing.T) {
	dir := setupWorkspace(t, workspaceConfig)

	_, err := execute(t, "collab", "join", "not a link", "--config", dir)
	assert.ErrorContains(t, err, "not a Turtle collaborate link")
}
