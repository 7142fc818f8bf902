package domain

import (
	"slices"
	"strings"
)

// ZoomLevel sets the axis scale.
type ZoomLevel string

const (
	ZoomDay   ZoomLevel = "day"
	ZoomWeek  ZoomLevel = "week"
	ZoomMonth ZoomLevel = "month"
)

var zoomLevels = []ZoomLevel{ZoomDay, ZoomWeek, ZoomMonth}

// ParseZoomLevel normalizes a zoom name.
func ParseZoomLevel(raw string) (ZoomLevel, error) {
	z := ZoomLevel(strings.ToLower(strings.TrimSpace(raw)))
	if !slices.Contains(zoomLevels, z) {
		return "", ErrInvalidZoom
	}
	return z, nil
}

// PixelsPerDay returns the horizontal scale for z. Unknown levels use the week scale.
func (z ZoomLevel) PixelsPerDay() int {
	switch z {
	case ZoomDay:
		return 120
	case ZoomMonth:
		return 40
	default:
		return 60
	}
}

// Next cycles day -> week -> month -> day.
func (z ZoomLevel) Next() ZoomLevel {
	idx := slices.Index(zoomLevels, z)
	return zoomLevels[(idx+1)%len(zoomLevels)]
}
