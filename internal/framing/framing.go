// Package framing wraps assembled content in opening and closing credits
// and an optional background layer.
package framing

import (
	"fmt"
	"time"

	"github.com/ivlev/meet2video/internal/layout"
	"github.com/ivlev/meet2video/internal/timeline"
)

// DefaultStillDuration is how long a credit image without an explicit
// duration is shown.
const DefaultStillDuration = 3 * time.Second

// Credit is one opening or closing segment.
type Credit struct {
	Ref      string
	Duration time.Duration
	Width    int
	Height   int
	Still    bool
}

// Framing describes what to wrap around the content.
type Framing struct {
	Opening    []Credit
	Closing    []Credit
	Background string
}

// IsZero reports whether there is nothing to add.
func (f Framing) IsZero() bool {
	return len(f.Opening) == 0 && len(f.Closing) == 0 && f.Background == ""
}

// Checker confirms a payload can be read. The asset loader implements it.
type Checker interface {
	Check(kind timeline.Kind, ref string) error
}

func total(field string, credits []Credit) (time.Duration, error) {
	var sum time.Duration
	for i, c := range credits {
		if c.Duration < 0 {
			return 0, &timeline.ConfigError{Field: field, Reason: fmt.Sprintf("credit %d (%s) has negative duration %v", i, c.Ref, c.Duration)}
		}
		if c.Ref == "" {
			return 0, &timeline.ConfigError{Field: field, Reason: fmt.Sprintf("credit %d has no content", i)}
		}
		sum += c.Duration
	}
	return sum, nil
}

// Compose returns a new timeline with content shifted past the opening
// credits, a credits track on top holding opening credits at 0 and
// closing credits after the content, and, if configured, a background
// track at the bottom spanning the whole result. check may be nil.
func Compose(tl timeline.Timeline, f Framing, check Checker) (timeline.Timeline, error) {
	open, err := total("opening_credit_duration", f.Opening)
	if err != nil {
		return timeline.Timeline{}, err
	}
	closing, err := total("closing_credit_duration", f.Closing)
	if err != nil {
		return timeline.Timeline{}, err
	}

	if check != nil {
		if f.Background != "" {
			if err := check.Check(timeline.KindBackground, f.Background); err != nil {
				return timeline.Timeline{}, &timeline.ConfigError{Field: "background_image", Reason: "unreadable", Err: err}
			}
		}
		for _, c := range append(append([]Credit{}, f.Opening...), f.Closing...) {
			if err := check.Check(timeline.KindCredit, c.Ref); err != nil {
				return timeline.Timeline{}, err
			}
		}
	}

	out := tl.Clone()
	if f.IsZero() {
		return out, nil
	}

	contentEnd := open + tl.Duration
	end := contentEnd + closing

	for i, t := range out.Tracks {
		clips := make([]timeline.PlacedClip, 0, len(t.Clips)+2)
		if open > 0 {
			clips = appendClip(clips, edgeFill(t.Kind, 0, open))
		}
		for _, c := range t.Clips {
			c.Clip = c.Shift(open)
			clips = appendClip(clips, c)
		}
		if closing > 0 {
			clips = appendClip(clips, edgeFill(t.Kind, contentEnd, end))
		}
		out.Tracks[i].Clips = clips
	}

	if open > 0 || closing > 0 {
		out.Tracks = append(out.Tracks, creditsTrack(f, tl, open, contentEnd))
	}
	if f.Background != "" {
		out.Tracks = append(out.Tracks, timeline.Track{
			Kind: timeline.KindBackground,
			Clips: []timeline.PlacedClip{{
				Clip: timeline.Clip{
					Kind:     timeline.KindBackground,
					Start:    0,
					Duration: end,
					Ref:      f.Background,
					Still:    true,
					Seq:      -1,
				},
				Transform: timeline.FullFrame,
			}},
		})
	}

	timeline.SortTracks(out.Tracks)
	out.Duration = end
	return out, nil
}

func creditsTrack(f Framing, tl timeline.Timeline, open, contentEnd time.Duration) timeline.Track {
	var clips []timeline.PlacedClip
	var cursor time.Duration

	add := func(c Credit, seq int) {
		if c.Duration == 0 {
			return
		}
		clips = append(clips, timeline.PlacedClip{
			Clip: timeline.Clip{
				Kind:     timeline.KindCredit,
				Start:    cursor,
				Duration: c.Duration,
				Ref:      c.Ref,
				Width:    c.Width,
				Height:   c.Height,
				Still:    c.Still,
				Seq:      seq,
			},
			Transform: layout.FrameFit(tl.Width, tl.Height, c.Width, c.Height),
		})
		cursor += c.Duration
	}

	for i, c := range f.Opening {
		add(c, i)
	}
	if contentEnd > open {
		clips = appendClip(clips, edgeFill(timeline.KindCredit, open, contentEnd))
		cursor = contentEnd
	}
	for i, c := range f.Closing {
		add(c, len(f.Opening)+i)
	}
	return timeline.Track{Kind: timeline.KindCredit, Clips: clips}
}

func edgeFill(k timeline.Kind, from, to time.Duration) timeline.PlacedClip {
	return timeline.PlacedClip{
		Clip: timeline.Clip{
			Kind:     timeline.KindFill,
			Fill:     timeline.EdgePolicy(k),
			Start:    from,
			Duration: to - from,
			Seq:      -1,
		},
		Transform: timeline.FullFrame,
	}
}

// appendClip merges c into a directly preceding fill of the same kind.
func appendClip(clips []timeline.PlacedClip, c timeline.PlacedClip) []timeline.PlacedClip {
	if n := len(clips); n > 0 && c.IsFill() {
		last := clips[n-1]
		if last.IsFill() && last.Fill == c.Fill && last.Ref == c.Ref && last.Hidden == c.Hidden && last.End() == c.Start {
			clips[n-1].Duration += c.Duration
			return clips
		}
	}
	return append(clips, c)
}
