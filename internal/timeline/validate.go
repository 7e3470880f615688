package timeline

import "fmt"

// Validate checks the structural invariants every emitted timeline must
// hold: each track is sorted, non-overlapping, free of zero-length clips
// and covers [0, Duration] without a hole; Duration equals the largest
// clip end; track kinds are unique and ordered by z-order.
func (tl Timeline) Validate() error {
	if tl.Width <= 0 || tl.Height <= 0 {
		return fmt.Errorf("timeline has invalid frame %dx%d", tl.Width, tl.Height)
	}

	if end := MaxEnd(tl.Tracks); end != tl.Duration {
		return fmt.Errorf("timeline duration %v does not match last clip end %v", tl.Duration, end)
	}

	seen := make(map[Kind]bool, len(tl.Tracks))
	lastRank := -1
	for _, t := range tl.Tracks {
		if seen[t.Kind] {
			return fmt.Errorf("duplicate %s track", t.Kind)
		}
		seen[t.Kind] = true

		r := t.Kind.rank()
		if r < lastRank {
			return fmt.Errorf("%s track out of z-order", t.Kind)
		}
		lastRank = r

		if err := validateTrack(t, tl); err != nil {
			return err
		}
	}

	return nil
}

func validateTrack(t Track, tl Timeline) error {
	if len(t.Clips) == 0 {
		return fmt.Errorf("%s track is empty", t.Kind)
	}

	cursor := t.Clips[0].Start
	if cursor != 0 {
		return fmt.Errorf("%s track starts at %v, not 0", t.Kind, cursor)
	}

	for i, c := range t.Clips {
		if c.Duration <= 0 {
			return fmt.Errorf("%s track clip %d has non-positive duration %v", t.Kind, i, c.Duration)
		}
		if c.Start < cursor {
			return fmt.Errorf("%s track clip %d overlaps previous clip (%v < %v)", t.Kind, i, c.Start, cursor)
		}
		if c.Start > cursor {
			return fmt.Errorf("%s track has a hole [%v, %v)", t.Kind, cursor, c.Start)
		}
		if c.Kind != KindFill && c.Kind != t.Kind {
			return fmt.Errorf("%s track clip %d has kind %s", t.Kind, i, c.Kind)
		}
		if c.Kind == KindFill && c.Fill == FillNone {
			return fmt.Errorf("%s track fill clip %d has no policy", t.Kind, i)
		}
		cursor = c.End()
	}

	if cursor != tl.Duration {
		return fmt.Errorf("%s track ends at %v, timeline at %v", t.Kind, cursor, tl.Duration)
	}

	return nil
}
