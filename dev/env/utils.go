package devenv

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"telenetapi/lib/configutil"
)

const (
	moduleName  = "telenetapi"
	stateDir    = "dev/.state"
	statePrefix = "<dev_state>"

	// LiveConfigFile holds the credentials of a real account.
	LiveConfigFile = "telenet.json5"
	// UsageDBFile is the sqlite database dev/main.go creates for fetch and watch.
	UsageDBFile    = "usage.db"
)

var modName = regexp.MustCompile(`(?m)^module\s+(\S+)\s*$`)

func isWorkspaceRoot(dir string) bool {
	mod, err := os.ReadFile(filepath.Join(dir, "go.mod"))
	if err != nil {
		return false
	}
	matches := modName.FindSubmatch(mod)
	return len(matches) == 2 && string(matches[1]) == moduleName
}

// GetWorkspaceRoot walks up from the working directory to the directory holding the
// go.mod of this module, tests run from their package directory.
func GetWorkspaceRoot() (string, error) {
	dir, err := filepath.Abs(".")
	if err != nil {
		return "", err
	}
	for {
		if isWorkspaceRoot(dir) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", os.ErrNotExist
		}
		dir = parent
	}
}

// StateDir returns dev/.state of the workspace, creating it if needed.
func StateDir() (string, error) {
	root, err := GetWorkspaceRoot()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(root, stateDir)
	err = os.MkdirAll(dir, 0777)
	if err != nil {
		return "", err
	}
	return dir, nil
}

// GetStateFilePath returns the path of a file under dev/.state.
func GetStateFilePath(name string) (string, error) {
	dir, err := StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// LiveConfig reads the live account of dev/.state/telenet.json5 and returns it with the
// path it was expected at, so callers can point at it when it is missing.
func LiveConfig() (LiveTestConfig, string, error) {
	path, err := GetStateFilePath(LiveConfigFile)
	if err != nil {
		return LiveTestConfig{}, "", err
	}
	config, err := configutil.ReadConfig[LiveTestConfig](path)
	return config, path, err
}

// UsageDBPath returns the path of the dev usage database.
func UsageDBPath() (string, error) {
	return GetStateFilePath(UsageDBFile)
}

// ResolvePath replaces a leading <dev_state> with the dev state directory. Other paths
// are returned unchanged.
func ResolvePath(path string) (string, error) {
	rest, ok := strings.CutPrefix(filepath.ToSlash(path), statePrefix)
	if !ok {
		return path, nil
	}
	dir, err := StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, filepath.FromSlash(strings.TrimPrefix(rest, "/"))), nil
}
