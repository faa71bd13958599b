package commands

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"reviewharvest/internal/selectors"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	config, err := LoadConfig(filepath.Join(t.TempDir(), "harvest.json5"))
	require.NoError(t, err)
	require.Equal(t, DefaultConfig(), config)
	require.Equal(t, 3, config.Retry.Attempts)
	require.Equal(t, 5*time.Second, config.Retry.Delay.Std())
	require.Equal(t, 90*time.Second, config.Navigation.LoadTimeout.Std())
	require.Equal(t, 45*time.Second, config.Navigation.LandmarkTimeout.Std())
	require.Len(t, config.UserAgents, 5)
}

func TestLoadConfigOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "harvest.json5")
	err := os.WriteFile(path, []byte(`{
		targets: ["https://shop.test/p/1"],
		retry: { attempts: 5 },
		pagination: { max_pages: 10, deadline: "2m" },
		selectors: { product: { title: "h1#name" } },
	}`), 0600)
	require.NoError(t, err)
	err = os.WriteFile(filepath.Join(dir, "harvest.local.json5"), []byte(`{
		database: { file: "local.db" },
		concurrency: 4,
	}`), 0600)
	require.NoError(t, err)

	config, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, []string{"https://shop.test/p/1"}, config.Targets)
	require.Equal(t, 5, config.Retry.Attempts)
	require.Equal(t, 5*time.Second, config.Retry.Delay.Std())
	require.Equal(t, 10, config.Pagination.MaxPages)
	require.Equal(t, 2*time.Minute, config.Pagination.Deadline.Std())
	require.Equal(t, "local.db", config.Database.File)
	require.Equal(t, 4, config.Concurrency)
	require.Equal(t, "h1#name", config.Selectors.Product.Title)
	require.Equal(t, selectors.Default().Product.Brand, config.Selectors.Product.Brand)
	require.Equal(t, selectors.Default().Reviews, config.Selectors.Reviews)
}
