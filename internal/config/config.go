package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

// EnvPrefix is prepended to every environment override, e.g.
// PDFBRIDGE_LOG_LEVEL or PDFBRIDGE_RENDER_DPI.
const EnvPrefix = "PDFBRIDGE"

type Config struct {
	LogLevel string        `mapstructure:"log_level"`
	Library  LibraryConfig `mapstructure:"library"`
	Render   RenderConfig  `mapstructure:"render"`
	Outline  OutlineConfig `mapstructure:"outline"`
	Worker   WorkerConfig  `mapstructure:"worker"`
}

// LibraryConfig controls where the PDFium shared object is found.
type LibraryConfig struct {
	// Explicit shared-library path. Wins over bundles and search paths.
	Path string `mapstructure:"path"`
	// Directories scanned for bundles.
	BundlePaths []string `mapstructure:"bundle_paths"`
	// Directories probed for the platform default file name.
	SearchPaths []string `mapstructure:"search_paths"`
	// Extra font directories handed to FPDF_InitLibraryWithConfig.
	UserFontPaths []string `mapstructure:"user_font_paths"`
	// Optional features the loaded library must provide.
	RequiredCapabilities []string `mapstructure:"required_capabilities"`
}

type RenderConfig struct {
	Flags      int     `mapstructure:"flags"`
	Background uint32  `mapstructure:"background"`
	DPI        float64 `mapstructure:"dpi"`
}

type OutlineConfig struct {
	MaxDepth int `mapstructure:"max_depth"`
}

type WorkerConfig struct {
	// Pending jobs accepted before Do blocks.
	QueueSize int `mapstructure:"queue_size"`
}

// Load reads configuration from defaults, the optional file at configPath
// and the environment, in increasing order of precedence.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// PDFIUM_LIB_PATH is the conventional name used by other tooling.
	if err := v.BindEnv("library.path", EnvPrefix+"_LIBRARY_PATH", "PDFIUM_LIB_PATH"); err != nil {
		return nil, err
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", configPath, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")

	v.SetDefault("library.path", "")
	v.SetDefault("library.bundle_paths", []string{"./bundles"})
	v.SetDefault("library.search_paths", []string{"./lib", "."})
	v.SetDefault("library.user_font_paths", []string{})
	v.SetDefault("library.required_capabilities", []string{})

	v.SetDefault("render.flags", 0x01) // annotations
	v.SetDefault("render.background", uint32(0xFFFFFFFF))
	v.SetDefault("render.dpi", 72.0)

	v.SetDefault("outline.max_depth", 100)
	v.SetDefault("worker.queue_size", 16)
}

// Validate reports the first out-of-range value.
func (c *Config) Validate() error {
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	if c.Render.DPI <= 0 {
		return fmt.Errorf("render.dpi must be positive, got %v", c.Render.DPI)
	}
	if c.Outline.MaxDepth <= 0 {
		return fmt.Errorf("outline.max_depth must be positive, got %d", c.Outline.MaxDepth)
	}
	if c.Worker.QueueSize < 0 {
		return fmt.Errorf("worker.queue_size must not be negative, got %d", c.Worker.QueueSize)
	}
	return nil
}

// Level returns the parsed log level.
func (c *Config) Level() zapcore.Level {
	lvl, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}
