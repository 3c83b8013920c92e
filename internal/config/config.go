// Package config loads editor settings from ~/.inkmaprc and INKMAP_*
// environment variables.
package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kelseyhightower/envconfig"

	"inkmap/internal/shape"
)

const rcName = ".inkmaprc"

type Config struct {
	SaveDirectory string      `envconfig:"SAVE_DIR"`
	EraserRadius  float64     `envconfig:"ERASER_RADIUS"`
	FreehandWidth float64     `ignored:"true"`
	Color         shape.Color `ignored:"true"`
	Confirmations bool        `ignored:"true"`
	LogFile       string      `envconfig:"LOG_FILE"`

	// ExportScale is the number of PNG pixels per grid cell.
	ExportScale float64 `envconfig:"EXPORT_SCALE"`
}

func Default() *Config {
	return &Config{
		EraserRadius:  0.5,
		FreehandWidth: 0.1,
		Color:         shape.ColorBlack,
		Confirmations: true,
		ExportScale:   32,
	}
}

// Load reads ~/.inkmaprc, if any, and applies environment overrides. A
// missing rc file is not an error.
func Load() (*Config, error) {
	cfg := Default()
	home, err := os.UserHomeDir()
	if err == nil {
		if err := cfg.loadFile(filepath.Join(home, rcName), home); err != nil {
			return nil, err
		}
	}
	if err := envconfig.Process("INKMAP", cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path, home string) error {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	defer f.Close()
	return c.Parse(f, home)
}

// Parse applies key=value lines from r. Blank lines and lines starting
// with # are skipped, as are unknown keys. home expands a leading ~ in
// save_directory.
func (c *Config) Parse(r io.Reader, home string) error {
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		var err error
		switch key {
		case "savedirectory", "save_directory", "savedir":
			c.SaveDirectory = expandPath(value, home)
		case "eraser_radius", "eraser":
			c.EraserRadius, err = strconv.ParseFloat(value, 64)
		case "freehand_width", "width":
			c.FreehandWidth, err = strconv.ParseFloat(value, 64)
		case "color", "colour":
			c.Color, err = ParseColor(value)
		case "confirmations", "confirm":
			c.Confirmations = strings.ToLower(value) == "true"
		case "log_file", "logfile":
			c.LogFile = expandPath(value, home)
		case "export_scale":
			c.ExportScale, err = strconv.ParseFloat(value, 64)
		}
		if err != nil {
			return fmt.Errorf("config: line %d: %s: %w", lineNo, key, err)
		}
	}
	return scanner.Err()
}

func (c *Config) validate() error {
	switch {
	case c.EraserRadius <= 0:
		return fmt.Errorf("config: eraser radius must be positive, got %v", c.EraserRadius)
	case c.FreehandWidth <= 0:
		return fmt.Errorf("config: freehand width must be positive, got %v", c.FreehandWidth)
	case c.ExportScale <= 0:
		return fmt.Errorf("config: export scale must be positive, got %v", c.ExportScale)
	}
	return nil
}

func expandPath(value, home string) string {
	if home != "" && strings.HasPrefix(value, "~") {
		value = filepath.Join(home, strings.TrimPrefix(value, "~"))
	}
	if !filepath.IsAbs(value) {
		if abs, err := filepath.Abs(value); err == nil {
			value = abs
		}
	}
	return value
}

// ParseColor accepts #RRGGBB or #AARRGGBB, with or without the #.
func ParseColor(s string) (shape.Color, error) {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 && len(s) != 8 {
		return 0, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid color %q", s)
	}
	if len(s) == 6 {
		v |= 0xff000000
	}
	return shape.Color(v), nil
}

// GetSavePath returns filename inside the save directory, creating the
// directory if needed. Without a save directory filename is returned as is.
func (c *Config) GetSavePath(filename string) string {
	if c.SaveDirectory == "" || filepath.IsAbs(filename) {
		return filename
	}
	os.MkdirAll(c.SaveDirectory, 0755)
	return filepath.Join(c.SaveDirectory, filename)
}
