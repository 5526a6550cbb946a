package noise

import (
	"bytes"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Config describes a tiled-image viewer: the window, the image to tile and
// optional tooling.
type Config struct {
	Window RunConfig `toml:"window"`

	// Source is the path of the image file to tile.
	Source string `toml:"source"`
	// Watch re-measures the source whenever the file changes on disk.
	Watch bool `toml:"watch"`
	// Debug turns on Scene debug mode.
	Debug bool `toml:"debug"`
	// Script is an optional path to a JSON test script.
	Script string `toml:"script"`
	// ScreenshotDir overrides where scripted screenshots are written.
	ScreenshotDir string `toml:"screenshot_dir"`
}

// DefaultConfig returns the configuration used for keys missing from a file.
func DefaultConfig() Config {
	return Config{
		Window: RunConfig{
			Title:     "Noise",
			Width:     640,
			Height:    480,
			Resizable: true,
		},
		ScreenshotDir: "screenshots",
	}
}

// ParseConfig decodes TOML data on top of DefaultConfig. Unknown keys are an
// error.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("noise: parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads and parses the TOML file at path.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("noise: read config: %w", err)
	}
	return ParseConfig(data)
}

func (c Config) validate() error {
	if c.Window.Width < 0 || c.Window.Height < 0 {
		return fmt.Errorf("noise: window size %dx%d is negative", c.Window.Width, c.Window.Height)
	}
	if c.Watch && c.Source == "" {
		return fmt.Errorf("noise: watch requires a source")
	}
	return nil
}
