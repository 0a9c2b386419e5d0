package sqpack

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Platform identifies the on-disk shard layout variant. Only PlatformWin32
// is supported; the others exist so callers can still name them and receive
// ErrUnsupportedPlatform rather than a confusing downstream failure.
type Platform string

const (
	PlatformWin32 Platform = "win32"
	PlatformPS3   Platform = "ps3"
	PlatformPS4   Platform = "ps4"
	PlatformPS5   Platform = "ps5"
)

// Config carries the options a caller supplies when opening a Pack or
// ExcelModule. This package never reads environment variables or discovers
// Root on its own — that belongs to the excluded top-level facade.
type Config struct {
	// Root is the filesystem directory containing ffxivgame.ver and sqpack/.
	Root string `yaml:"root"`

	// Platform selects the shard filename suffix. Defaults to PlatformWin32
	// when empty.
	Platform Platform `yaml:"platform"`

	// Language is the default language tag used for sheet loads that don't
	// specify one explicitly.
	Language string `yaml:"language"`
}

func (c Config) platform() Platform {
	if c.Platform == "" {
		return PlatformWin32
	}
	return c.Platform
}

func (c Config) checkPlatform() error {
	if c.platform() != PlatformWin32 {
		return ErrUnsupportedPlatform
	}
	return nil
}

// LoadConfig decodes a YAML file with Config's shape. It is provided for
// callers that prefer file-based configuration to constructing a Config
// literal; this package still performs no discovery of its own.
func LoadConfig(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("sqpack: load config: %w", err)
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("sqpack: load config: %w", err)
	}
	return cfg, nil
}
