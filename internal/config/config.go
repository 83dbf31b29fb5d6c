package config

import (
	"github.com/zeromicro/go-zero/core/conf"
	"github.com/zeromicro/go-zero/core/logx"
)

// Config holds the exporter configuration.
type Config struct {
	Log      logx.LogConf   `json:",optional"`
	Inline   InlineConfig   `json:",optional"`
	Export   ExportConfig   `json:",optional"`
	Database DatabaseConfig `json:",optional"`
}

// InlineConfig holds asset inlining settings.
type InlineConfig struct {
	// BaseURL is the origin relative image paths resolve against. Empty means
	// relative paths are local files under AssetDir. Empty directories fall
	// back to the pkg/config environment defaults.
	BaseURL  string `json:",optional"`
	AssetDir string `json:",optional"`
	// PictogramDir adds files to the bundled fallback asset table.
	PictogramDir string            `json:",optional"`
	AuthHeader   string            `json:",optional"`
	Headers      map[string]string `json:",optional"`
	RateLimit    float64           `json:",default=0"`
	RateBurst    int               `json:",default=1"`
}

// ExportConfig holds defaults for written exports.
type ExportConfig struct {
	OutDir string `json:",optional"`
	From   string `json:",optional"`
	To     string `json:",optional"`
}

// DatabaseConfig holds draft store settings.
type DatabaseConfig struct {
	Path string `json:",optional"`
}

// Load reads the config file at path, or fills defaults when path is empty.
func Load(path string) (Config, error) {
	var c Config
	if path == "" {
		err := conf.FillDefault(&c)
		return c, err
	}
	err := conf.Load(path, &c, conf.UseEnv())
	return c, err
}
