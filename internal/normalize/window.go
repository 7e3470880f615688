package normalize

import (
	"time"

	"github.com/ivlev/meet2video/internal/timeline"
)

// Window is an optional trim applied before planning. A nil bound leaves
// that side of the recording untouched.
type Window struct {
	Start *time.Duration
	End   *time.Duration
}

// IsZero reports whether the window trims nothing.
func (w Window) IsZero() bool {
	return (w.Start == nil || *w.Start == 0) && w.End == nil
}

// ApplyWindow cuts every clip to the window and moves the window start to
// offset 0. The end bound is clamped to the meeting end. Clips crossing
// the start keep their place in the source media by advancing their
// in-point; stills keep theirs at 0.
func ApplyWindow(res Result, w Window) (Result, error) {
	if w.IsZero() {
		return res, nil
	}

	var from time.Duration
	if w.Start != nil {
		from = *w.Start
	}
	if from < 0 {
		return Result{}, &timeline.ConfigError{Field: "start_offset", Reason: "must not be negative"}
	}
	if from >= res.End {
		return Result{}, &timeline.ConfigError{Field: "start_offset", Reason: "starts after the end of the recording"}
	}

	to := res.End
	if w.End != nil {
		to = *w.End
		if to > res.End {
			to = res.End
		}
		if to <= from {
			return Result{}, &timeline.ConfigError{Field: "end_offset", Reason: "must be after start_offset"}
		}
	}

	out := Result{Clips: make(map[timeline.Kind][]timeline.Clip, len(res.Clips)), End: to - from}
	for k, clips := range res.Clips {
		var kept []timeline.Clip
		for _, c := range clips {
			start, stop := c.Start, c.End()
			if w.End != nil && stop > to {
				stop = to
			}
			if start < from {
				if !c.Still {
					c.InPoint += from - start
				}
				start = from
			}
			if stop <= start {
				continue
			}
			c.Start = start - from
			c.Duration = stop - start
			kept = append(kept, c)
		}
		if len(kept) > 0 {
			out.Clips[k] = kept
		}
	}

	return out, nil
}
