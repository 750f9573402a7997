package devenv

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolvePath(t *testing.T) {
	root, err := GetWorkspaceRoot()
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(root, "go.mod"))
	require.NoError(t, err)

	resolved, err := ResolvePath("<dev_state>/http/0001.txt")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(root, "dev", ".state", "http", "0001.txt"), resolved)

	resolved, err = ResolvePath("/tmp/usage.db")
	require.NoError(t, err)
	require.Equal(t, "/tmp/usage.db", resolved)

	db, err := UsageDBPath()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(root, "dev", ".state", UsageDBFile), db)
}

func TestLiveConfigMissing(t *testing.T) {
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	err = os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module telenetapi\n\ngo 1.22.2\n"), 0600)
	require.NoError(t, err)
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(wd) })

	_, path, err := LiveConfig()
	require.Error(t, err)
	require.Equal(t, filepath.Join(dir, "dev", ".state", LiveConfigFile), path)

	err = os.WriteFile(path, []byte(`{username: "jan", password: "secret", language: "nl"}`), 0600)
	require.NoError(t, err)
	config, _, err := LiveConfig()
	require.NoError(t, err)
	require.Equal(t, LiveTestConfig{Username: "jan", Password: "secret", Language: "nl"}, config)
}
