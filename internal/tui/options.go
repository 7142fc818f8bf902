package tui

import (
	"time"

	"github.com/evanschultz/gantt/internal/app"
	"github.com/evanschultz/gantt/internal/domain"
	"github.com/evanschultz/gantt/internal/timeline"
)

// TimelineConfig sizes the window, grid and side panel.
type TimelineConfig struct {
	DaysBefore    int
	DaysAfter     int
	Zoom          domain.ZoomLevel
	CellPixels    int
	PanelWidth    int
	MinPanelWidth int
	MaxPanelWidth int
}

// Option configures a Model.
type Option func(*Model)

// DefaultTimelineConfig returns the built-in timeline settings.
func DefaultTimelineConfig() TimelineConfig {
	return TimelineConfig{
		DaysBefore:    timeline.DefaultDaysBefore,
		DaysAfter:     timeline.DefaultDaysAfter,
		Zoom:          domain.ZoomWeek,
		CellPixels:    timeline.DefaultCellPixels,
		PanelWidth:    32,
		MinPanelWidth: 16,
		MaxPanelWidth: 80,
	}
}

// WithTimelineConfig overrides the timeline settings. Zero fields keep defaults.
func WithTimelineConfig(cfg TimelineConfig) Option {
	return func(m *Model) {
		def := DefaultTimelineConfig()
		if cfg.DaysBefore > 0 {
			m.daysBefore = cfg.DaysBefore
		}
		if cfg.DaysAfter > 0 {
			m.daysAfter = cfg.DaysAfter
		}
		if _, err := domain.ParseZoomLevel(string(cfg.Zoom)); err == nil && cfg.Zoom != "" {
			m.zoom = cfg.Zoom
		}
		if cfg.CellPixels > 0 {
			m.scale = timeline.NewScale(cfg.CellPixels)
		}
		m.minPanel = def.MinPanelWidth
		if cfg.MinPanelWidth > 0 {
			m.minPanel = cfg.MinPanelWidth
		}
		m.maxPanel = def.MaxPanelWidth
		if cfg.MaxPanelWidth > 0 {
			m.maxPanel = cfg.MaxPanelWidth
		}
		if cfg.PanelWidth > 0 {
			m.panelWidth = clamp(cfg.PanelWidth, m.minPanel, m.maxPanel)
		}
	}
}

// WithListOptions sets the initial side-panel search, filter and sort.
func WithListOptions(opts app.ListOptions) Option {
	return func(m *Model) {
		m.listOpts = opts
	}
}

// WithClock replaces the wall clock used to anchor the window.
func WithClock(now func() time.Time) Option {
	return func(m *Model) {
		if now != nil {
			m.now = now
		}
	}
}

// WithClipboard replaces the clipboard writer used by the copy action.
func WithClipboard(write func(string) error) Option {
	return func(m *Model) {
		if write != nil {
			m.copyText = write
		}
	}
}
