package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/evanschultz/gantt/internal/app"
	"github.com/evanschultz/gantt/internal/domain"
	"github.com/evanschultz/gantt/internal/timeline"
)

// StorageMode selects the task repository backend.
type StorageMode string

// StorageModeMemory and related constants define package defaults.
const (
	StorageModeMemory StorageMode = "memory"
	StorageModeSQLite StorageMode = "sqlite"
)

// Panel width bounds shared with the column-resize gesture.
const (
	MinPanelWidth     = 16
	MaxPanelWidth     = 80
	DefaultPanelWidth = 32
)

// minCellsPerDay is the smallest day width that still leaves room for both
// resize handles and a body cell.
const minCellsPerDay = 3

// Config holds every file-backed setting.
type Config struct {
	Storage  StorageConfig  `toml:"storage"`
	Timeline TimelineConfig `toml:"timeline"`
	List     ListConfig     `toml:"list"`
	Logging  LoggingConfig  `toml:"logging"`
}

// StorageConfig selects and locates the repository.
type StorageConfig struct {
	Mode   StorageMode `toml:"mode"`
	Path   string      `toml:"path"`
	Commit string      `toml:"commit"`
	Seed   bool        `toml:"seed"`
}

// TimelineConfig sizes the visible window and grid.
type TimelineConfig struct {
	DaysBefore  int    `toml:"days_before"`
	DaysAfter   int    `toml:"days_after"`
	DefaultZoom string `toml:"default_zoom"`
	CellPixels  int    `toml:"cell_pixels"`
	PanelWidth  int    `toml:"panel_width"`
	Locale      string `toml:"locale"`
}

// ListConfig holds the initial side-panel filter and sort.
type ListConfig struct {
	DefaultSort   string `toml:"default_sort"`
	DefaultStatus string `toml:"default_status"`
}

// LoggingConfig configures runtime log sinks.
type LoggingConfig struct {
	Level   string        `toml:"level"`
	DevFile DevFileConfig `toml:"dev_file"`
}

// DevFileConfig configures the dev-mode log file.
type DevFileConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

// Default returns the built-in configuration rooted at dbPath.
func Default(dbPath string) Config {
	return Config{
		Storage: StorageConfig{
			Mode:   StorageModeSQLite,
			Path:   dbPath,
			Commit: string(app.CommitRelease),
			Seed:   true,
		},
		Timeline: TimelineConfig{
			DaysBefore:  timeline.DefaultDaysBefore,
			DaysAfter:   timeline.DefaultDaysAfter,
			DefaultZoom: string(domain.ZoomWeek),
			CellPixels:  timeline.DefaultCellPixels,
			PanelWidth:  DefaultPanelWidth,
			Locale:      "en",
		},
		List: ListConfig{
			DefaultSort:   string(app.SortStartDate),
			DefaultStatus: app.StatusAll,
		},
		Logging: LoggingConfig{
			Level: "info",
			DevFile: DevFileConfig{
				Enabled: true,
				Dir:     ".gantt/log",
			},
		},
	}
}

// Load overlays the TOML file at path onto defaults. A missing or empty file
// yields defaults unchanged.
func Load(path string, defaults Config) (Config, error) {
	cfg := defaults
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if len(content) == 0 {
		return cfg, nil
	}

	if err := toml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode toml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch c.Storage.Mode {
	case StorageModeMemory:
	case StorageModeSQLite:
		if strings.TrimSpace(c.Storage.Path) == "" {
			return errors.New("storage.path is required for sqlite mode")
		}
	default:
		return fmt.Errorf("invalid storage.mode: %q", c.Storage.Mode)
	}
	if _, err := app.ParseCommitPolicy(c.Storage.Commit); err != nil {
		return fmt.Errorf("invalid storage.commit: %w", err)
	}

	if c.Timeline.DaysBefore < 0 {
		return errors.New("timeline.days_before must be >= 0")
	}
	if c.Timeline.DaysAfter < 0 {
		return errors.New("timeline.days_after must be >= 0")
	}
	if _, err := domain.ParseZoomLevel(c.Timeline.DefaultZoom); err != nil {
		return fmt.Errorf("invalid timeline.default_zoom: %w", err)
	}
	if c.Timeline.CellPixels <= 0 {
		return errors.New("timeline.cell_pixels must be > 0")
	}
	if domain.ZoomMonth.PixelsPerDay()/c.Timeline.CellPixels < minCellsPerDay {
		return fmt.Errorf("timeline.cell_pixels must be <= %d", domain.ZoomMonth.PixelsPerDay()/minCellsPerDay)
	}
	if c.Timeline.PanelWidth < MinPanelWidth || c.Timeline.PanelWidth > MaxPanelWidth {
		return fmt.Errorf("timeline.panel_width must be between %d and %d", MinPanelWidth, MaxPanelWidth)
	}

	if _, err := app.ParseSortKey(c.List.DefaultSort); err != nil {
		return fmt.Errorf("invalid list.default_sort: %w", err)
	}
	if _, err := app.ParseStatusFilter(c.List.DefaultStatus); err != nil {
		return fmt.Errorf("invalid list.default_status: %w", err)
	}

	switch strings.TrimSpace(strings.ToLower(c.Logging.Level)) {
	case "", "debug", "info", "warn", "error", "fatal":
	default:
		return fmt.Errorf("invalid logging.level: %q", c.Logging.Level)
	}
	return nil
}

// EnsureConfigDir creates the parent directory of path.
func EnsureConfigDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// WriteDefault writes cfg to path unless a file already exists there.
func WriteDefault(path string, cfg Config) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("stat config: %w", err)
	}
	if err := EnsureConfigDir(path); err != nil {
		return false, fmt.Errorf("create config dir: %w", err)
	}
	encoded, err := toml.Marshal(cfg)
	if err != nil {
		return false, fmt.Errorf("encode toml: %w", err)
	}
	if err := os.WriteFile(path, encoded, 0o644); err != nil {
		return false, fmt.Errorf("write config: %w", err)
	}
	return true, nil
}
