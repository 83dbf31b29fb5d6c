package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/plat-proposal/internal/config"
	"github.com/joeblew999/plat-proposal/pkg/assets"
)

func TestLoadAssets(t *testing.T) {
	t.Run("bundled only", func(t *testing.T) {
		table, err := loadAssets("")
		require.NoError(t, err)
		assert.Same(t, assets.Default(), table)
	})

	t.Run("directory overrides bundled", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "cloud.svg"), []byte("<svg/>"), 0644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip"), 0644))

		table, err := loadAssets(dir)
		require.NoError(t, err)
		uri, ok := table.Lookup("cloud.svg")
		require.True(t, ok)
		assert.Equal(t, assets.DataURI("image/svg+xml", []byte("<svg/>")), uri)
		_, ok = table.Lookup("notes.txt")
		assert.False(t, ok)
		assert.Equal(t, assets.Default().Len(), table.Len())
	})
}

func TestNewInliner(t *testing.T) {
	_, err := newInliner(config.InlineConfig{BaseURL: "not a url"}, assets.Default())
	assert.Error(t, err)

	in, err := newInliner(config.InlineConfig{
		BaseURL:    "https://proposals.example.com/app/",
		AuthHeader: "Bearer token",
		RateLimit:  5,
	}, assets.Default())
	require.NoError(t, err)
	assert.NotNil(t, in)
}

func TestApplyPathDefaults(t *testing.T) {
	t.Setenv("DATA_PATH", "/srv/proposal")
	t.Setenv("DRAFTS_DB_PATH", "")
	t.Setenv("ASSET_PATH", "")
	t.Setenv("EXPORT_PATH", "")

	var cfg config.Config
	cfg.Export.OutDir = "./out"
	applyPathDefaults(&cfg)

	assert.Equal(t, "./out", cfg.Export.OutDir)
	assert.Equal(t, filepath.Join("/srv/proposal", "assets"), cfg.Inline.AssetDir)
	assert.Equal(t, filepath.Join("/srv/proposal", "drafts.db"), cfg.Database.Path)
}
