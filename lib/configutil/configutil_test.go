package configutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Name    string            `json:"name"`
	Count   int               `json:"count"`
	Delay   Duration          `json:"delay"`
	Targets []string          `json:"targets"`
	Headers map[string]string `json:"headers"`
}

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	err := os.WriteFile(path, []byte(contents), 0600)
	if err != nil {
		t.Fatal(err)
	}
}

func TestLocalPath(t *testing.T) {
	require.Equal(t, filepath.Join("config", "harvest.local.json5"), LocalPath("config/harvest.json5"))
	require.Equal(t, "harvest.local", LocalPath("harvest"))
}

func TestReadConfigMergesLocal(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "harvest.json5")

	writeFile(t, name, `{
		// comments are allowed
		name: "base",
		count: 3,
		delay: "5s",
		targets: ["https://example.com/a"],
	}`)
	writeFile(t, filepath.Join(dir, "harvest.local.json5"), `{
		count: 7,
		delay: 1.5,
	}`)

	cfg, err := ReadConfig[testConfig](name)
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, "base", cfg.Name)
	require.Equal(t, 7, cfg.Count)
	require.Equal(t, 1500*time.Millisecond, cfg.Delay.Std())
	require.Equal(t, []string{"https://example.com/a"}, cfg.Targets)
}

func TestReadConfigNotFound(t *testing.T) {
	_, err := ReadConfig[testConfig](filepath.Join(t.TempDir(), "missing.json5"))
	require.True(t, os.IsNotExist(err))
}

func TestReadWithDefaults(t *testing.T) {
	defaults := testConfig{Name: "default", Count: 3, Delay: Duration(5 * time.Second)}

	cfg, err := ReadWithDefaults(filepath.Join(t.TempDir(), "missing.json5"), defaults)
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, defaults, cfg)

	dir := t.TempDir()
	name := filepath.Join(dir, "harvest.json5")
	writeFile(t, name, `{ name: "override" }`)

	cfg, err = ReadWithDefaults(name, defaults)
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, "override", cfg.Name)
	require.Equal(t, 3, cfg.Count)
	require.Equal(t, 5*time.Second, cfg.Delay.Std())
}

func TestReadConfigInvalid(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "harvest.json5")
	writeFile(t, name, `{ delay: "soon" }`)

	_, err := ReadConfig[testConfig](name)
	require.Error(t, err)
}
