package cli

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/specimen/internal/adapters/driven/fileinfo"
	"github.com/custodia-labs/specimen/internal/adapters/driven/storage/filesystem"
	"github.com/custodia-labs/specimen/internal/adapters/driven/storage/workspace"
	"github.com/custodia-labs/specimen/internal/core/domain"
	"github.com/custodia-labs/specimen/internal/core/services"
	"github.com/custodia-labs/specimen/internal/modules/ascii"
)

// setupTestServices wires a storage stack rooted in a temporary directory
// into the CLI.
func setupTestServices(t *testing.T) func() {
	t.Helper()
	root := t.TempDir()
	catalog, err := filesystem.NewCatalog(root)
	require.NoError(t, err)
	opener := workspace.NewOpener()
	inspector := fileinfo.NewInspector()
	registry, err := services.NewModuleRegistry(ascii.Descriptor())
	require.NoError(t, err)
	disp := services.NewDispatcher(catalog, opener, inspector, registry)

	SetServices(Services{
		Dispatcher: disp,
		Samples:    services.NewSampleService(catalog, opener, inspector),
		Projects:   services.NewProjectService(catalog),
		Catalog:    disp,
		Settings:   domain.DefaultAppSettings(root),
	})
	return func() {
		SetServices(Services{})
		_ = opener.Close()
	}
}

// resetFlags clears flag variables left over from earlier executions.
func resetFlags() {
	verbose = false
	configDir = ""
	runProject, runSample, runJSON = "", "", false
	sampleProject, storeTags, getOutput, findJSON = "", "", "", false
	tagsProject = ""
	shellProject = ""
	watchProject, watchTags = "", ""
}

// execute runs the root command with args and returns its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}

// writeSample creates a file with content and returns its path and sha256.
func writeSample(t *testing.T, name, content string) (string, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	sum := sha256.Sum256([]byte(content))
	return path, hex.EncodeToString(sum[:])
}
