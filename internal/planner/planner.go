// Package planner lays normalized clips onto one track per kind and
// fills every gap so that each track covers the whole timeline.
package planner

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/ivlev/meet2video/internal/normalize"
	"github.com/ivlev/meet2video/internal/timeline"
)

// ErrNoContent is returned when no kind produced a single clip.
var ErrNoContent = errors.New("recording has no clips to place")

// Plan is the planner's output: gapless tracks without placement yet.
type Plan struct {
	Tracks   []timeline.Track
	Duration time.Duration
}

// Build assigns the clips of each kind to that kind's track in start
// order. Kinds without clips get no track. The plan duration is the
// latest clip end; every track is padded with Fill clips up to it.
//
// Gap fill policy is fixed per kind: silence for audio, the last slide
// held on the slide track, transparent elsewhere. Before a track's first
// clip there is nothing to hold, so that gap is always transparent.
func Build(res normalize.Result) (Plan, error) {
	kinds := res.Kinds()
	if len(kinds) == 0 {
		return Plan{}, ErrNoContent
	}

	sorted := make(map[timeline.Kind][]timeline.Clip, len(kinds))
	var duration time.Duration
	for _, k := range kinds {
		clips := make([]timeline.Clip, len(res.Clips[k]))
		copy(clips, res.Clips[k])
		sort.SliceStable(clips, func(i, j int) bool {
			return clips[i].Start < clips[j].Start
		})

		for i := 1; i < len(clips); i++ {
			if clips[i].Start < clips[i-1].End() {
				return Plan{}, &timeline.TimingError{
					Kind:   k,
					Offset: clips[i].Start,
					Seq:    clips[i].Seq,
					Reason: fmt.Sprintf("overlaps clip #%d ending at %v", clips[i-1].Seq, clips[i-1].End()),
				}
			}
		}
		for _, c := range clips {
			if c.Duration <= 0 {
				return Plan{}, &timeline.TimingError{Kind: k, Offset: c.Start, Seq: c.Seq, Reason: "clip has no duration"}
			}
		}

		if end := clips[len(clips)-1].End(); end > duration {
			duration = end
		}
		sorted[k] = clips
	}

	tracks := make([]timeline.Track, 0, len(kinds))
	for _, k := range kinds {
		tracks = append(tracks, fillTrack(k, sorted[k], duration))
	}
	timeline.SortTracks(tracks)

	return Plan{Tracks: tracks, Duration: duration}, nil
}

func fillTrack(k timeline.Kind, clips []timeline.Clip, duration time.Duration) timeline.Track {
	out := make([]timeline.PlacedClip, 0, 2*len(clips)+1)
	var cursor time.Duration
	var last *timeline.Clip

	for i := range clips {
		c := clips[i]
		if c.Start > cursor {
			out = append(out, timeline.PlacedClip{Clip: Fill(k, cursor, c.Start, last)})
		}
		out = append(out, timeline.PlacedClip{Clip: c})
		cursor = c.End()
		last = &clips[i]
	}
	if cursor < duration {
		out = append(out, timeline.PlacedClip{Clip: Fill(k, cursor, duration, last)})
	}

	return timeline.Track{Kind: k, Clips: out}
}

// Fill builds the synthetic clip covering [from, to) on a track of kind
// k. prev is the content clip before the gap, nil at the track start.
func Fill(k timeline.Kind, from, to time.Duration, prev *timeline.Clip) timeline.Clip {
	policy := timeline.GapPolicy(k)
	if prev == nil || prev.IsFill() {
		policy = timeline.EdgePolicy(k)
	}

	fill := timeline.Clip{
		Kind:     timeline.KindFill,
		Fill:     policy,
		Start:    from,
		Duration: to - from,
		Seq:      -1,
	}
	if policy == timeline.FillHoldFrame {
		fill.Ref = prev.Ref
		fill.Width, fill.Height = prev.Width, prev.Height
		fill.Still = true
	}
	return fill
}
