package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"m3c/internal/blob"
	"m3c/internal/pubmed"
)

const sampleConfig = `
namespace: http://vivo.metabolomics.info/individual/
workbench:
  dsn: postgres://mb@localhost/mb
supplemental:
  driver: sqlite
  dsn: /data/supplemental.db
photos:
  driver: s3
  s3:
    bucket: vivo-files
    region: us-east-1
tools:
  yaml: tools.yaml
pubmed:
  retry_delay: 500ms
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFileWithDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)
	assert.Equal(t, "http://vivo.metabolomics.info/individual/", cfg.Namespace)
	assert.Equal(t, DefaultOutputDir, cfg.OutputDir)
	assert.Equal(t, "postgres", cfg.Workbench.Driver)
	assert.Equal(t, "sqlite", cfg.Supplemental.Driver)
	assert.Equal(t, 3, cfg.PubMed.Retries)
	assert.Equal(t, 500*time.Millisecond, cfg.PubMed.RetryDelay)
	assert.False(t, cfg.PubMed.Search)
	assert.Equal(t, pubmed.DefaultSearchURL, cfg.PubMed.ClientConfig().SearchURL)

	bc := cfg.Photos.BlobConfig()
	assert.Equal(t, blob.DriverS3, bc.Driver)
	assert.Equal(t, "vivo-files", bc.S3.Bucket)
	assert.Equal(t, 3, cfg.PubMed.ClientConfig().Attempts)
	assert.Equal(t, "sqlite", cfg.Supplemental.DatabaseConfig().Driver)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("M3C_NAMESPACE", "http://example.org/ns")
	t.Setenv("M3C_OUTPUT_DIR", "/tmp/out")
	t.Setenv("M3C_PUBMED_RETRIES", "5")
	t.Setenv("M3C_PUBMED_RETRY_DELAY", "1s")
	t.Setenv("M3C_PHOTOS_S3_PATH_STYLE", "true")
	t.Setenv("M3C_PUBMED_SEARCH", "true")
	t.Setenv("M3C_PUBMED_SEARCH_URL", "http://localhost:9/esearch")

	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)
	assert.Equal(t, "http://example.org/ns", cfg.Namespace)
	assert.Equal(t, "/tmp/out", cfg.OutputDir)
	assert.Equal(t, 5, cfg.PubMed.Retries)
	assert.Equal(t, time.Second, cfg.PubMed.RetryDelay)
	assert.True(t, cfg.Photos.S3.PathStyle)
	assert.True(t, cfg.PubMed.Search)
	assert.Equal(t, "http://localhost:9/esearch", cfg.PubMed.SearchURL)
}

func TestBadEnvironmentValues(t *testing.T) {
	t.Setenv("M3C_PUBMED_RETRIES", "many")
	_, err := Load(writeConfig(t, sampleConfig))
	assert.ErrorContains(t, err, "M3C_PUBMED_RETRIES")
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Photos.Driver = "ftp"
	cfg.Workbench.Driver = "oracle"
	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{
		"namespace is required",
		"workbench.dsn is required",
		"supplemental.dsn is required",
		`workbench.driver "oracle"`,
		`photos.driver "ftp"`,
	} {
		assert.ErrorContains(t, err, want)
	}

	cfg = Default()
	cfg.Namespace = "http://x/"
	cfg.Workbench.DSN = "a"
	cfg.Supplemental.DSN = "b"
	assert.ErrorContains(t, cfg.Validate(), "photos.root is required")
	cfg.Photos.Root = "/srv/vivo/file_storage_root"
	assert.NoError(t, cfg.Validate())
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "read config")

	_, err = Load(writeConfig(t, "namespace: [unclosed"))
	assert.ErrorContains(t, err, "parse config")
}
