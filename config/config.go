package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"linegrid/schema"

	"github.com/gdamore/tcell/v2"
)

const (
	StoreSQLite = "sqlite"
	StoreFile   = "file"
	StoreMemory = "memory"

	HeaderSchema = "schema"
	HeaderAlways = "always"
	HeaderNever  = "never"
)

type Config struct {
	Store        string   `json:"store"`
	StorePath    string   `json:"store_path"`
	Schemas      []string `json:"schemas"`
	SchemaDir    string   `json:"schema_dir"`
	HistoryLimit int      `json:"history_limit"`
	HeaderRow    string   `json:"header_row"`
	Theme        string   `json:"theme"`
	LogLevel     string   `json:"log_level"`
	LogFile      string   `json:"log_file"`
	WatchStore   bool     `json:"watch_store"`
}

type ColorScheme struct {
	Name           string
	Background     tcell.Color
	Foreground     tcell.Color
	Selection      tcell.Color
	EditBg         tcell.Color
	HeaderBg       tcell.Color
	HeaderFg       tcell.Color
	SectionFg      tcell.Color
	DerivedFg      tcell.Color
	OrdinalFg      tcell.Color
	GridLine       tcell.Color
	StatusBarBg    tcell.Color
	StatusBarFg    tcell.Color
	StatusBarMode  tcell.Color
	TabBarBg       tcell.Color
	TabBarFg       tcell.Color
	TabBarActiveBg tcell.Color
	TabBarActiveFg tcell.Color
	DialogBg       tcell.Color
	DialogFg       tcell.Color
	DialogInputBg  tcell.Color
	ErrorFg        tcell.Color
}

var Themes = map[string]*ColorScheme{
	"dark": {
		Name:           "Dark",
		Background:     tcell.ColorBlack,
		Foreground:     tcell.ColorWhite,
		Selection:      tcell.ColorDarkBlue,
		EditBg:         tcell.ColorNavy,
		HeaderBg:       tcell.ColorDarkSlateGray,
		HeaderFg:       tcell.ColorWhite,
		SectionFg:      tcell.ColorYellow,
		DerivedFg:      tcell.ColorAqua,
		OrdinalFg:      tcell.ColorGray,
		GridLine:       tcell.ColorDimGray,
		StatusBarBg:    tcell.ColorDarkBlue,
		StatusBarFg:    tcell.ColorWhite,
		StatusBarMode:  tcell.ColorBlue,
		TabBarBg:       tcell.ColorBlack,
		TabBarFg:       tcell.ColorGray,
		TabBarActiveBg: tcell.ColorDarkBlue,
		TabBarActiveFg: tcell.ColorWhite,
		DialogBg:       tcell.ColorBlack,
		DialogFg:       tcell.ColorWhite,
		DialogInputBg:  tcell.ColorDarkBlue,
		ErrorFg:        tcell.ColorRed,
	},
	"light": {
		Name:           "Light",
		Background:     tcell.ColorWhite,
		Foreground:     tcell.ColorBlack,
		Selection:      tcell.ColorLightBlue,
		EditBg:         tcell.ColorLightYellow,
		HeaderBg:       tcell.ColorLightGray,
		HeaderFg:       tcell.ColorBlack,
		SectionFg:      tcell.ColorNavy,
		DerivedFg:      tcell.ColorDarkGreen,
		OrdinalFg:      tcell.ColorGray,
		GridLine:       tcell.ColorLightGray,
		StatusBarBg:    tcell.ColorLightBlue,
		StatusBarFg:    tcell.ColorBlack,
		StatusBarMode:  tcell.ColorBlue,
		TabBarBg:       tcell.ColorWhite,
		TabBarFg:       tcell.ColorGray,
		TabBarActiveBg: tcell.ColorLightBlue,
		TabBarActiveFg: tcell.ColorBlack,
		DialogBg:       tcell.ColorWhite,
		DialogFg:       tcell.ColorBlack,
		DialogInputBg:  tcell.ColorLightGray,
		ErrorFg:        tcell.ColorDarkRed,
	},
	"monokai": {
		Name:           "Monokai",
		Background:     tcell.NewRGBColor(39, 40, 34),
		Foreground:     tcell.NewRGBColor(248, 248, 242),
		Selection:      tcell.NewRGBColor(73, 72, 62),
		EditBg:         tcell.NewRGBColor(62, 61, 50),
		HeaderBg:       tcell.NewRGBColor(73, 72, 62),
		HeaderFg:       tcell.NewRGBColor(248, 248, 242),
		SectionFg:      tcell.NewRGBColor(249, 38, 114),
		DerivedFg:      tcell.NewRGBColor(166, 226, 46),
		OrdinalFg:      tcell.NewRGBColor(144, 144, 128),
		GridLine:       tcell.NewRGBColor(70, 71, 60),
		StatusBarBg:    tcell.NewRGBColor(73, 72, 62),
		StatusBarFg:    tcell.NewRGBColor(248, 248, 242),
		StatusBarMode:  tcell.NewRGBColor(102, 217, 239),
		TabBarBg:       tcell.NewRGBColor(39, 40, 34),
		TabBarFg:       tcell.NewRGBColor(144, 144, 128),
		TabBarActiveBg: tcell.NewRGBColor(73, 72, 62),
		TabBarActiveFg: tcell.NewRGBColor(248, 248, 242),
		DialogBg:       tcell.NewRGBColor(39, 40, 34),
		DialogFg:       tcell.NewRGBColor(248, 248, 242),
		DialogInputBg:  tcell.NewRGBColor(73, 72, 62),
		ErrorFg:        tcell.NewRGBColor(249, 38, 114),
	},
	"nord": {
		Name:           "Nord",
		Background:     tcell.NewRGBColor(46, 52, 64),
		Foreground:     tcell.NewRGBColor(236, 239, 244),
		Selection:      tcell.NewRGBColor(67, 76, 94),
		EditBg:         tcell.NewRGBColor(59, 66, 82),
		HeaderBg:       tcell.NewRGBColor(67, 76, 94),
		HeaderFg:       tcell.NewRGBColor(236, 239, 244),
		SectionFg:      tcell.NewRGBColor(136, 192, 208),
		DerivedFg:      tcell.NewRGBColor(163, 190, 140),
		OrdinalFg:      tcell.NewRGBColor(76, 86, 106),
		GridLine:       tcell.NewRGBColor(59, 66, 82),
		StatusBarBg:    tcell.NewRGBColor(67, 76, 94),
		StatusBarFg:    tcell.NewRGBColor(236, 239, 244),
		StatusBarMode:  tcell.NewRGBColor(136, 192, 208),
		TabBarBg:       tcell.NewRGBColor(46, 52, 64),
		TabBarFg:       tcell.NewRGBColor(76, 86, 106),
		TabBarActiveBg: tcell.NewRGBColor(67, 76, 94),
		TabBarActiveFg: tcell.NewRGBColor(236, 239, 244),
		DialogBg:       tcell.NewRGBColor(46, 52, 64),
		DialogFg:       tcell.NewRGBColor(236, 239, 244),
		DialogInputBg:  tcell.NewRGBColor(67, 76, 94),
		ErrorFg:        tcell.NewRGBColor(191, 97, 106),
	},
	"gruvbox": {
		Name:           "Gruvbox Dark",
		Background:     tcell.NewRGBColor(40, 40, 40),
		Foreground:     tcell.NewRGBColor(235, 219, 178),
		Selection:      tcell.NewRGBColor(60, 56, 54),
		EditBg:         tcell.NewRGBColor(80, 73, 69),
		HeaderBg:       tcell.NewRGBColor(60, 56, 54),
		HeaderFg:       tcell.NewRGBColor(251, 241, 199),
		SectionFg:      tcell.NewRGBColor(254, 128, 25),
		DerivedFg:      tcell.NewRGBColor(184, 187, 38),
		OrdinalFg:      tcell.NewRGBColor(146, 131, 116),
		GridLine:       tcell.NewRGBColor(80, 73, 69),
		StatusBarBg:    tcell.NewRGBColor(60, 56, 54),
		StatusBarFg:    tcell.NewRGBColor(235, 219, 178),
		StatusBarMode:  tcell.NewRGBColor(184, 187, 38),
		TabBarBg:       tcell.NewRGBColor(40, 40, 40),
		TabBarFg:       tcell.NewRGBColor(146, 131, 116),
		TabBarActiveBg: tcell.NewRGBColor(60, 56, 54),
		TabBarActiveFg: tcell.NewRGBColor(235, 219, 178),
		DialogBg:       tcell.NewRGBColor(40, 40, 40),
		DialogFg:       tcell.NewRGBColor(235, 219, 178),
		DialogInputBg:  tcell.NewRGBColor(60, 56, 54),
		ErrorFg:        tcell.NewRGBColor(251, 73, 52),
	},
}

func Default() *Config {
	return &Config{
		Store:        StoreSQLite,
		Schemas:      []string{"electrical", "mechanical"},
		HistoryLimit: 100,
		HeaderRow:    HeaderSchema,
		Theme:        "monokai",
		LogLevel:     "info",
		WatchStore:   true,
	}
}

func (c *Config) GetTheme() *ColorScheme {
	theme, ok := Themes[c.Theme]
	if !ok {
		return Themes["monokai"]
	}
	return theme
}

// Validate rejects settings the rest of the program cannot act on.
func (c *Config) Validate() error {
	switch c.Store {
	case StoreSQLite, StoreFile, StoreMemory:
	default:
		return fmt.Errorf("unknown store %q (want sqlite, file or memory)", c.Store)
	}
	switch c.HeaderRow {
	case HeaderSchema, HeaderAlways, HeaderNever, "":
	default:
		return fmt.Errorf("unknown header_row %q (want schema, always or never)", c.HeaderRow)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// ApplyHeaderPolicy returns s with the configured header-row policy. The
// "schema" setting keeps whatever the schema declares.
func (c *Config) ApplyHeaderPolicy(s *schema.Schema) *schema.Schema {
	switch c.HeaderRow {
	case HeaderAlways:
		return s.WithHeaderPolicy(schema.HeaderDetect)
	case HeaderNever:
		return s.WithHeaderPolicy(schema.HeaderNever)
	}
	return s
}

func (c *Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}
	return lvl, nil
}

// ResolvedStorePath returns StorePath, or the default location for the
// configured store driver.
func (c *Config) ResolvedStorePath() string {
	if c.StorePath != "" {
		return c.StorePath
	}
	if c.Store == StoreFile {
		return filepath.Join(DataDir(), "projects")
	}
	return filepath.Join(DataDir(), "linegrid.sqlite")
}

func (c *Config) ResolvedLogFile() string {
	if c.LogFile != "" {
		return c.LogFile
	}
	return filepath.Join(StateDir(), "linegrid.log")
}

func (c *Config) ResolvedSchemaDir() string {
	if c.SchemaDir != "" {
		return c.SchemaDir
	}
	return filepath.Join(configDir(), "schemas")
}

func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "linegrid")
}

func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "share", "linegrid")
}

func StateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "state", "linegrid")
}

func ConfigPath() string {
	dir := configDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "settings.json")
}

func Load() (*Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom reads settings from path over the defaults, then applies any
// project settings found from the working directory upward.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	case !os.IsNotExist(err):
		return nil, err
	}
	if wd, err := os.Getwd(); err == nil {
		if err := cfg.applyProjectFiles(wd); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Save() error {
	return c.SaveTo(ConfigPath())
}

func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
