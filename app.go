package main

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/mr"

	"github.com/joeblew999/plat-proposal/internal/config"
	"github.com/joeblew999/plat-proposal/pkg/assets"
	"github.com/joeblew999/plat-proposal/pkg/compose"
	pathcfg "github.com/joeblew999/plat-proposal/pkg/config"
	"github.com/joeblew999/plat-proposal/pkg/db"
	"github.com/joeblew999/plat-proposal/pkg/drafts"
	"github.com/joeblew999/plat-proposal/pkg/export"
	"github.com/joeblew999/plat-proposal/pkg/inline"
	"github.com/joeblew999/plat-proposal/pkg/log"
)

// app holds what the commands share.
type app struct {
	cfg      config.Config
	assets   *assets.Table
	db       *db.DB
	drafts   *drafts.Store
	exporter *export.Service
}

func mustApp(configFile string, withDB bool) *app {
	a, err := newApp(configFile, withDB)
	if err != nil {
		fail("Error: %v", err)
	}
	return a
}

func newApp(configFile string, withDB bool) (*app, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	applyPathDefaults(&cfg)

	logx.DisableStat()
	if err := logx.SetUp(cfg.Log); err != nil {
		return nil, fmt.Errorf("setup logging: %w", err)
	}
	log.Setup(os.Stderr, cfg.Log.Level, logFormat(cfg.Log.Encoding))

	a := &app{cfg: cfg}
	err = mr.Finish(func() error {
		table, err := loadAssets(cfg.Inline.PictogramDir)
		a.assets = table
		return err
	}, func() error {
		if !withDB {
			return nil
		}
		d, err := db.Open(cfg.Database.Path)
		if err != nil {
			return fmt.Errorf("open drafts database: %w", err)
		}
		a.db = d
		a.drafts = drafts.NewStore(d.SqlConn())
		return nil
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	in, err := newInliner(cfg.Inline, a.assets)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.exporter = export.New(export.WithComposer(compose.NewComposer(compose.WithInliner(in))))

	logx.Infow("exporter ready",
		logx.Field("assets", a.assets.Len()),
		logx.Field("drafts", withDB),
		logx.Field("asset_dir", cfg.Inline.AssetDir))
	return a, nil
}

func (a *app) Close() {
	if a.db != nil {
		a.db.Close()
	}
}

func applyPathDefaults(cfg *config.Config) {
	if cfg.Inline.AssetDir == "" {
		cfg.Inline.AssetDir = pathcfg.GetAssetPath()
	}
	if cfg.Export.OutDir == "" {
		cfg.Export.OutDir = pathcfg.GetExportPath()
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = pathcfg.GetDraftsDBPath()
	}
}

func logFormat(encoding string) string {
	if encoding == "json" {
		return "json"
	}
	return "text"
}

// loadAssets builds the fallback table: files in dir first, then the bundled
// pictograms for any key dir does not provide.
func loadAssets(dir string) (*assets.Table, error) {
	if dir == "" {
		return assets.Default(), nil
	}
	table := assets.NewTable()
	if _, err := table.LoadFS(os.DirFS(dir), "."); err != nil {
		return nil, err
	}
	bundled := assets.Default()
	for _, key := range bundled.Keys() {
		if uri, ok := bundled.Lookup(key); ok {
			table.Add(key, uri)
		}
	}
	return table, nil
}

func newInliner(c config.InlineConfig, table *assets.Table) (*inline.Inliner, error) {
	var fetchOpts []inline.FetcherOption
	opts := []inline.Option{
		inline.WithRasterizer(inline.NewBitmapRasterizer(c.AssetDir)),
		inline.WithAssetTable(table),
	}

	if c.BaseURL != "" {
		u, err := url.Parse(c.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("invalid inline base URL %q", c.BaseURL)
		}
		opts = append(opts, inline.WithBaseURL(u))
		fetchOpts = append(fetchOpts, inline.WithOrigin(u))
	}

	headers := make(http.Header)
	if c.AuthHeader != "" {
		headers.Set("Authorization", c.AuthHeader)
	}
	for k, v := range c.Headers {
		headers.Set(k, strings.TrimSpace(v))
	}
	if len(headers) > 0 {
		fetchOpts = append(fetchOpts, inline.WithCredentials(headers))
	}
	if c.RateLimit > 0 {
		fetchOpts = append(fetchOpts, inline.WithRateLimit(c.RateLimit, c.RateBurst))
	}

	opts = append(opts, inline.WithFetcher(inline.NewHTTPFetcher(fetchOpts...)))
	return inline.New(opts...), nil
}
