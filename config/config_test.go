package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir mirrors t.Chdir, which needs Go 1.24+.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}

func writeUserConfig(t *testing.T, content string) {
	t.Helper()
	tmp := t.TempDir()
	t.Setenv("GRIDKIT_CONFIG_DIR", tmp)
	require.NoError(t, os.WriteFile(filepath.Join(tmp, "config.yaml"), []byte(content), 0600))
}

func TestLoadDefaultsWhenNoFiles(t *testing.T) {
	t.Setenv("GRIDKIT_CONFIG_DIR", t.TempDir())
	chdir(t, t.TempDir())

	cfg := Load()
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 30*time.Millisecond, cfg.Dispatcher.Debounce())
	assert.Equal(t, 10*time.Second, cfg.Dispatcher.RequestTimeout())
}

func TestLoadUserLayerOverridesDefaults(t *testing.T) {
	writeUserConfig(t, "dispatcher:\n  max_batch: 50\n  debounce_ms: 5\n")
	chdir(t, t.TempDir())

	cfg := Load()
	assert.Equal(t, 50, cfg.Dispatcher.MaxBatch)
	assert.Equal(t, 5*time.Millisecond, cfg.Dispatcher.Debounce())
	// Untouched knobs keep their defaults.
	assert.Equal(t, 10_000, cfg.Dispatcher.RequestTimeoutMS)
}

func TestLoadProjectLayerWinsOverUser(t *testing.T) {
	writeUserConfig(t, "orchestrator:\n  task_delay_ms: 100\n")

	proj := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(proj, "gridkit.yaml"),
		[]byte("orchestrator:\n  task_delay_ms: 250\n"), 0600))
	chdir(t, proj)

	cfg := Load()
	assert.Equal(t, 250*time.Millisecond, cfg.Orchestrator.TaskDelay())
}

func TestLoadAnalysisKeywordsAccumulate(t *testing.T) {
	writeUserConfig(t, "analysis:\n  sheet_keywords:\n    Forecast: [forecast]\n")

	proj := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(proj, "gridkit.yaml"),
		[]byte("analysis:\n  sheet_keywords:\n    Forecast: [pronóstico]\n"), 0600))
	chdir(t, proj)

	cfg := Load()
	assert.Equal(t, []string{"forecast", "pronóstico"}, cfg.Analysis.SheetKeywords["Forecast"])
}

func TestLoadSkipsUnreadableLayer(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("GRIDKIT_CONFIG_DIR", tmp)
	// A directory where the file should be is an unreadable layer, not a
	// fatal error.
	require.NoError(t, os.Mkdir(filepath.Join(tmp, "config.yaml"), 0o755))
	chdir(t, t.TempDir())

	cfg := Load()
	assert.Equal(t, Default(), cfg)
}

func TestSaveRoundTrip(t *testing.T) {
	t.Setenv("GRIDKIT_CONFIG_DIR", t.TempDir())
	chdir(t, t.TempDir())

	cfg := Default()
	cfg.Dispatcher.MaxBatch = 7
	require.NoError(t, Save(cfg))

	got := Load()
	assert.Equal(t, 7, got.Dispatcher.MaxBatch)
}
