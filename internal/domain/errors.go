package domain

import "errors"

var (
	ErrInvalidID        = errors.New("invalid id")
	ErrInvalidName      = errors.New("invalid name")
	ErrInvalidStatus    = errors.New("invalid status")
	ErrInvalidPriority  = errors.New("invalid priority")
	ErrInvalidProgress  = errors.New("invalid progress")
	ErrInvalidDateRange = errors.New("invalid date range")
	ErrInvalidZoom      = errors.New("invalid zoom level")
	ErrSelfDependency   = errors.New("task cannot depend on itself")
	ErrInvalidDraft     = errors.New("invalid task draft")
)
