package layout

import (
	"fmt"

	"github.com/ivlev/meet2video/internal/timeline"
)

// Priority picks which of screenshare and camera gets the full frame
// when both are present.
type Priority string

const (
	ScreenshareFull Priority = "screenshare-full"
	CameraFull      Priority = "camera-full"
)

// Corner is where the inset sits inside the margins.
type Corner string

const (
	TopLeft     Corner = "top-left"
	TopRight    Corner = "top-right"
	BottomLeft  Corner = "bottom-left"
	BottomRight Corner = "bottom-right"
)

// DefaultInsetPercent is the inset width as a share of the content width.
const DefaultInsetPercent = 25

// Config is everything the resolver needs to know about the frame.
type Config struct {
	Width  int
	Height int
	Margin int

	Priority Priority
	Corner   Corner
	// InsetPercent of the content width given to the inset.
	InsetPercent int
	// StretchCamera widens the camera aspect by 16/12.
	StretchCamera bool
}

func (c Config) withDefaults() Config {
	if c.Priority == "" {
		c.Priority = ScreenshareFull
	}
	if c.Corner == "" {
		c.Corner = TopRight
	}
	if c.InsetPercent == 0 {
		c.InsetPercent = DefaultInsetPercent
	}
	return c
}

// Validate reports the first invalid or contradictory setting.
func (c Config) Validate() error {
	c = c.withDefaults()

	if c.Width <= 0 {
		return &timeline.ConfigError{Field: "output_width", Reason: fmt.Sprintf("must be positive, got %d", c.Width)}
	}
	if c.Height <= 0 {
		return &timeline.ConfigError{Field: "output_height", Reason: fmt.Sprintf("must be positive, got %d", c.Height)}
	}
	if c.Margin < 0 {
		return &timeline.ConfigError{Field: "margin", Reason: fmt.Sprintf("must not be negative, got %d", c.Margin)}
	}
	if 2*c.Margin >= c.Width || 2*c.Margin >= c.Height {
		return &timeline.ConfigError{Field: "margin", Reason: fmt.Sprintf("%dpx leaves no room in a %dx%d frame", c.Margin, c.Width, c.Height)}
	}

	switch c.Priority {
	case ScreenshareFull, CameraFull:
	default:
		return &timeline.ConfigError{Field: "screenshare_priority", Reason: fmt.Sprintf("unknown value %q", c.Priority)}
	}

	switch c.Corner {
	case TopLeft, TopRight, BottomLeft, BottomRight:
	default:
		return &timeline.ConfigError{Field: "inset_corner", Reason: fmt.Sprintf("unknown value %q", c.Corner)}
	}

	if c.InsetPercent < 1 || c.InsetPercent > 99 {
		return &timeline.ConfigError{Field: "webcam_size", Reason: fmt.Sprintf("must be within 1-99, got %d", c.InsetPercent)}
	}

	return nil
}
