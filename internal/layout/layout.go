// Package layout decides where every visual clip sits in the output
// frame.
package layout

import (
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ivlev/meet2video/internal/planner"
	"github.com/ivlev/meet2video/internal/timeline"
)

// Resolve places every clip of the plan. Tracks are independent apart
// from annotations, which copy the placement of whatever slide or
// screenshare they were drawn on, so they are resolved after the rest.
func Resolve(plan planner.Plan, cfg Config) (timeline.Timeline, error) {
	if err := cfg.Validate(); err != nil {
		return timeline.Timeline{}, err
	}
	cfg = cfg.withDefaults()

	regions := assignRegions(plan.Tracks, cfg)
	share, hasShare := find(plan.Tracks, timeline.KindScreenshare)

	tracks := make([]timeline.Track, len(plan.Tracks))
	var g errgroup.Group
	for i, t := range plan.Tracks {
		if t.Kind == timeline.KindAnnotation {
			continue
		}
		g.Go(func() error {
			clips := t.Clips
			if t.Kind == timeline.KindSlide && hasShare {
				clips = hideUnder(clips, share.Content())
			}
			placed, err := placeTrack(timeline.Track{Kind: t.Kind, Clips: clips}, regions, cfg)
			if err != nil {
				return err
			}
			tracks[i] = placed
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return timeline.Timeline{}, err
	}

	for i, t := range plan.Tracks {
		if t.Kind == timeline.KindAnnotation {
			tracks[i] = placeAnnotations(t, tracks, regions[timeline.KindAnnotation], cfg)
		}
	}

	return timeline.Timeline{
		Width:    cfg.Width,
		Height:   cfg.Height,
		Duration: plan.Duration,
		Tracks:   tracks,
	}, nil
}

func find(tracks []timeline.Track, k timeline.Kind) (timeline.Track, bool) {
	for _, t := range tracks {
		if t.Kind == k {
			return t, true
		}
	}
	return timeline.Track{}, false
}

// firstDims returns the dimensions of the first content clip that has
// them.
func firstDims(t timeline.Track) (int, int) {
	for _, c := range t.Clips {
		if !c.IsFill() && c.Width > 0 && c.Height > 0 {
			return c.Width, c.Height
		}
	}
	return 0, 0
}

func cameraDims(w, h int, cfg Config) (int, int) {
	if cfg.StretchCamera && w > 0 {
		w = w * 16 / 12
	}
	return w, h
}

// assignRegions gives each track kind its box. The primary content is
// the screenshare when there is one, else the slides; it shares the frame
// with the camera according to the priority.
func assignRegions(tracks []timeline.Track, cfg Config) map[timeline.Kind]rect {
	content := rect{x: cfg.Margin, y: cfg.Margin, w: cfg.Width - 2*cfg.Margin, h: cfg.Height - 2*cfg.Margin}
	frame := rect{w: cfg.Width, h: cfg.Height}

	primary := timeline.KindUnknown
	if _, ok := find(tracks, timeline.KindScreenshare); ok {
		primary = timeline.KindScreenshare
	} else if _, ok := find(tracks, timeline.KindSlide); ok {
		primary = timeline.KindSlide
	}
	camera, hasCamera := find(tracks, timeline.KindCamera)

	regions := map[timeline.Kind]rect{
		timeline.KindAnnotation: content,
		timeline.KindBackground: frame,
		timeline.KindCredit:     frame,
	}

	switch {
	case primary != timeline.KindUnknown && hasCamera:
		if cfg.Priority == ScreenshareFull {
			fw, fh := firstDims(camera)
			cw, ch := cameraDims(fw, fh, cfg)
			regions[primary] = content
			regions[timeline.KindCamera] = inset(content, cfg.Corner, cfg.InsetPercent, cw, ch)
		} else {
			p, _ := find(tracks, primary)
			pw, ph := firstDims(p)
			regions[timeline.KindCamera] = content
			regions[primary] = inset(content, cfg.Corner, cfg.InsetPercent, pw, ph)
		}
	case primary != timeline.KindUnknown:
		regions[primary] = content
	case hasCamera:
		regions[timeline.KindCamera] = content
	}

	if primary == timeline.KindScreenshare {
		regions[timeline.KindSlide] = regions[timeline.KindScreenshare]
	}
	return regions
}

func placeTrack(t timeline.Track, regions map[timeline.Kind]rect, cfg Config) (timeline.Track, error) {
	out := timeline.Track{Kind: t.Kind, Clips: make([]timeline.PlacedClip, len(t.Clips))}

	switch t.Kind {
	case timeline.KindCameraAudio:
		copy(out.Clips, t.Clips)
		return out, nil
	case timeline.KindCamera, timeline.KindScreenshare, timeline.KindSlide,
		timeline.KindAnnotation, timeline.KindCredit, timeline.KindBackground:
	case timeline.KindUnknown, timeline.KindFill:
		return timeline.Track{}, fmt.Errorf("cannot place a track of kind %s", t.Kind)
	}

	region := regions[t.Kind]
	for i, c := range t.Clips {
		w, h := c.Width, c.Height
		if t.Kind == timeline.KindCamera {
			w, h = cameraDims(w, h, cfg)
		}
		r := region
		if !c.IsFill() || c.Fill == timeline.FillHoldFrame {
			r = fit(region, w, h)
		}
		c.Transform = r.normalize(cfg.Width, cfg.Height)
		out.Clips[i] = c
	}
	return out, nil
}

// hideUnder splits clips at the edges of cover and hides the pieces that
// lie under it.
func hideUnder(clips, cover []timeline.PlacedClip) []timeline.PlacedClip {
	out := make([]timeline.PlacedClip, 0, len(clips))
	for _, c := range clips {
		cur, end := c.Start, c.End()
		for cur < end {
			next, hidden := end, false
			for _, s := range cover {
				if s.Contains(cur) {
					hidden = true
					if s.End() < next {
						next = s.End()
					}
					break
				}
				if s.Start > cur && s.Start < next {
					next = s.Start
				}
			}

			piece := c
			piece.Start = cur
			piece.Duration = next - cur
			piece.Hidden = hidden
			out = append(out, piece)
			cur = next
		}
	}
	return out
}

// hostAt finds the visible slide or screenshare clip at t.
func hostAt(tracks []timeline.Track, at time.Duration) (timeline.PlacedClip, bool) {
	if share, ok := find(tracks, timeline.KindScreenshare); ok {
		if i := share.At(at); i >= 0 && !share.Clips[i].IsFill() {
			return share.Clips[i], true
		}
	}
	if slides, ok := find(tracks, timeline.KindSlide); ok {
		if i := slides.At(at); i >= 0 {
			c := slides.Clips[i]
			if !c.Hidden && (!c.IsFill() || c.Fill == timeline.FillHoldFrame) {
				return c, true
			}
		}
	}
	return timeline.PlacedClip{}, false
}

func placeAnnotations(t timeline.Track, placed []timeline.Track, fallback rect, cfg Config) timeline.Track {
	out := timeline.Track{Kind: t.Kind, Clips: make([]timeline.PlacedClip, len(t.Clips))}
	for i, c := range t.Clips {
		c.Transform = fallback.normalize(cfg.Width, cfg.Height)
		if !c.IsFill() {
			if host, ok := hostAt(placed, c.Start); ok {
				c.Transform = host.Transform
			}
		}
		out.Clips[i] = c
	}
	return out
}
