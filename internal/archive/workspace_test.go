package archive

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeWorkspaceFixture(t *testing.T, dir string) {
	t.Helper()
	fixtures := map[string]string{
		"users.json": `[
			{"id": "U1", "name": "alice", "profile": {"real_name": "Alice Smith"}},
			{"id": "U2", "name": "bob", "profile": {"real_name": "Bob Jones"}},
			{"id": "U3", "name": "carol", "profile": {}}
		]`,
		"channels.json": `[{"id": "C1", "name": "general", "members": ["U1", "U2"]}]`,
		"groups.json":   `[{"id": "G1", "name": "secret-club"}]`,
		"mpims.json":    `[{"id": "G2", "name": "mpdm-alice--bob-1"}]`,
		"dms.json":      `[{"id": "D1", "members": ["U1", "U2"]}]`,
	}
	for name, content := range fixtures {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
}

func TestLoadWorkspace(t *testing.T) {
	dir := t.TempDir()
	writeWorkspaceFixture(t, dir)

	ws, err := LoadWorkspace(dir)
	require.NoError(t, err)

	assert.Len(t, ws.Users, 3)
	require.Len(t, ws.Channels, 1)
	assert.Equal(t, "general", ws.Channels[0].Name)
	require.Len(t, ws.DMs, 1)
	assert.Equal(t, []string{"U1", "U2"}, ws.DMs[0].Members)
}

func TestLoadWorkspaceMissingTable(t *testing.T) {
	dir := t.TempDir()
	writeWorkspaceFixture(t, dir)
	require.NoError(t, os.Remove(filepath.Join(dir, "users.json")))

	_, err := LoadWorkspace(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load users")
}

func TestAllChannelsMergesTables(t *testing.T) {
	dir := t.TempDir()
	writeWorkspaceFixture(t, dir)

	ws, err := LoadWorkspace(dir)
	require.NoError(t, err)

	merged := ws.AllChannels()
	require.Len(t, merged, 3)
	assert.Equal(t, "general", merged[0].Name)
	assert.Equal(t, "mpdm-alice--bob-1", merged[1].Name)
	assert.Equal(t, "secret-club", merged[2].Name)
}

func TestResolverLookups(t *testing.T) {
	dir := t.TempDir()
	writeWorkspaceFixture(t, dir)

	ws, err := LoadWorkspace(dir)
	require.NoError(t, err)
	resolver := ws.Resolver()

	name, ok := resolver.DisplayName("U1")
	assert.True(t, ok)
	assert.Equal(t, "Alice Smith", name)

	// Short name present, real name missing.
	_, ok = resolver.DisplayName("U3")
	assert.False(t, ok)
	short, ok := resolver.ShortName("U3")
	assert.True(t, ok)
	assert.Equal(t, "carol", short)

	_, ok = resolver.DisplayName("U999")
	assert.False(t, ok)
}

func TestDMDirName(t *testing.T) {
	dir := t.TempDir()
	writeWorkspaceFixture(t, dir)

	ws, err := LoadWorkspace(dir)
	require.NoError(t, err)

	assert.Equal(t, "dm_alice-bob", ws.DMDirName(ws.DMs[0]))

	// Unknown members fall back to the raw id.
	assert.Equal(t, "dm_alice-U404", ws.DMDirName(DM{ID: "D2", Members: []string{"U1", "U404"}}))
}
