// Package normalize rebases recorded assets and events onto the meeting
// clock and turns them into ordered, non-overlapping clips per kind.
package normalize

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/ivlev/meet2video/internal/timeline"
)

// DefaultMinDisplay is how long a zero-length marker stays on screen.
const DefaultMinDisplay = 500 * time.Millisecond

// Normalizer converts a Recording into per-kind clip sequences.
type Normalizer struct {
	MinDisplay time.Duration
	Logger     *slog.Logger
}

// Result maps each kind to its ordered clips on the meeting clock.
type Result struct {
	Clips map[timeline.Kind][]timeline.Clip
	// End is the meeting end on the meeting clock.
	End time.Duration
}

// Kinds returns the kinds that have clips, in timeline.TrackKinds order.
func (r Result) Kinds() []timeline.Kind {
	var out []timeline.Kind
	for _, k := range timeline.TrackKinds {
		if len(r.Clips[k]) > 0 {
			out = append(out, k)
		}
	}
	return out
}

// span is an event or asset after rebasing, before its end is resolved.
type span struct {
	kind    timeline.Kind
	start   time.Duration
	end     time.Duration
	instant bool
	ref     string
	width   int
	height  int
	seq     int
}

func (n Normalizer) minDisplay() time.Duration {
	if n.MinDisplay > 0 {
		return n.MinDisplay
	}
	return DefaultMinDisplay
}

func (n Normalizer) logger() *slog.Logger {
	if n.Logger != nil {
		return n.Logger
	}
	return slog.New(slog.DiscardHandler)
}

// Normalize rebases every asset and event by rec.Start, rejects negative
// offsets and inverted ranges, widens instantaneous events to the next
// event of the same kind (or the meeting end), and resolves same-kind
// overlaps so that the later event wins.
func (n Normalizer) Normalize(rec timeline.Recording) (Result, error) {
	log := n.logger()

	assets := make(map[timeline.Kind]timeline.Asset, len(rec.Assets))
	assetSpans := make(map[timeline.Kind][]span)
	for i, a := range rec.Assets {
		start := a.Start - rec.Start
		if start < 0 {
			return Result{}, &timeline.TimingError{
				Kind:   a.Kind,
				Offset: a.Start,
				Seq:    i,
				Reason: fmt.Sprintf("asset starts %v before the meeting", -start),
			}
		}
		a.Start = start
		if _, dup := assets[a.Kind]; !dup {
			assets[a.Kind] = a
		}
		s := span{kind: a.Kind, start: start, ref: a.Ref, width: a.Width, height: a.Height, seq: i, instant: a.Open()}
		if !a.Open() {
			s.end = start + a.Duration
		}
		assetSpans[a.Kind] = append(assetSpans[a.Kind], s)
	}

	eventSpans := make(map[timeline.Kind][]span)
	for i, e := range rec.Events {
		start := e.Timestamp - rec.Start
		if start < 0 {
			return Result{}, &timeline.TimingError{
				Kind:   e.Kind,
				Offset: e.Timestamp,
				Seq:    i,
				Reason: fmt.Sprintf("event recorded %v before the meeting start", -start),
			}
		}

		s := span{kind: e.Kind, start: start, ref: e.Ref, width: e.Width, height: e.Height, seq: i, instant: e.End == nil}
		if e.End != nil {
			if *e.End < e.Timestamp {
				return Result{}, &timeline.InvalidRangeError{Kind: e.Kind, Start: e.Timestamp, End: *e.End, Seq: i}
			}
			s.end = *e.End - rec.Start
		}

		switch e.Kind {
		case timeline.KindSlide:
			if timeline.IsPlaceholderSlide(e.Ref) {
				log.Debug("dropping screenshare placeholder slide", "seq", i, "at", start)
				continue
			}
		case timeline.KindAnnotation, timeline.KindScreenshare, timeline.KindCamera, timeline.KindCameraAudio:
		case timeline.KindCredit, timeline.KindBackground:
			log.Warn("ignoring framing event in recording", "kind", e.Kind, "seq", i)
			continue
		case timeline.KindUnknown, timeline.KindFill:
			return Result{}, fmt.Errorf("event #%d at %v has unsupported kind %s", i, e.Timestamp, e.Kind)
		}
		eventSpans[e.Kind] = append(eventSpans[e.Kind], s)
	}

	end := meetingEnd(rec, assetSpans, eventSpans)

	res := Result{Clips: make(map[timeline.Kind][]timeline.Clip), End: end}
	for _, k := range timeline.TrackKinds {
		spans, fromEvents := eventSpans[k], true
		if len(spans) == 0 && streamed(k) {
			spans, fromEvents = assetSpans[k], false
		}
		if len(spans) == 0 {
			continue
		}

		asset, hasAsset := assets[k]
		clips := n.resolve(k, spans, end, log)
		if fromEvents && streamed(k) && hasAsset {
			clips = clampToAsset(clips, asset, log)
		}
		if len(clips) > 0 {
			res.Clips[k] = clips
		}
	}

	return res, nil
}

// streamed kinds are backed by one continuous media recording, so their
// clips carry an in-point into it. Other kinds are still images.
func streamed(k timeline.Kind) bool {
	switch k {
	case timeline.KindCamera, timeline.KindCameraAudio, timeline.KindScreenshare:
		return true
	case timeline.KindSlide, timeline.KindAnnotation, timeline.KindCredit, timeline.KindBackground,
		timeline.KindUnknown, timeline.KindFill:
		return false
	}
	return false
}

func meetingEnd(rec timeline.Recording, groups ...map[timeline.Kind][]span) time.Duration {
	if rec.Duration > 0 {
		return rec.Duration
	}
	var end time.Duration
	for _, g := range groups {
		for _, spans := range g {
			for _, s := range spans {
				if s.start > end {
					end = s.start
				}
				if !s.instant && s.end > end {
					end = s.end
				}
			}
		}
	}
	return end
}

// resolve orders spans by start (ingestion order breaks ties), gives
// instantaneous spans their end, widens short ones and truncates each
// clip where the next one begins.
func (n Normalizer) resolve(k timeline.Kind, spans []span, end time.Duration, log *slog.Logger) []timeline.Clip {
	sorted := make([]span, len(spans))
	copy(sorted, spans)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].start != sorted[j].start {
			return sorted[i].start < sorted[j].start
		}
		return sorted[i].seq < sorted[j].seq
	})

	minDisplay := n.minDisplay()
	clips := make([]timeline.Clip, 0, len(sorted))
	for i, s := range sorted {
		stop := s.end
		if s.instant {
			if i+1 < len(sorted) {
				stop = sorted[i+1].start
			} else {
				stop = end
			}
		}
		if stop-s.start < minDisplay {
			stop = s.start + minDisplay
		}
		if i+1 < len(sorted) && stop > sorted[i+1].start {
			stop = sorted[i+1].start
		}
		if stop <= s.start {
			log.Debug("event superseded", "kind", k, "seq", s.seq, "at", s.start)
			continue
		}

		clips = append(clips, timeline.Clip{
			Kind:     k,
			Start:    s.start,
			Duration: stop - s.start,
			Ref:      s.ref,
			Width:    s.width,
			Height:   s.height,
			Seq:      s.seq,
			Still:    !streamed(k),
		})
	}
	return clips
}

// clampToAsset sets in-points into the recorded stream and cuts clips to
// the part of the timeline the stream actually covers.
func clampToAsset(clips []timeline.Clip, a timeline.Asset, log *slog.Logger) []timeline.Clip {
	out := make([]timeline.Clip, 0, len(clips))
	for _, c := range clips {
		start, stop := c.Start, c.End()
		if start < a.Start {
			start = a.Start
		}
		if !a.Open() && stop > a.Start+a.Duration {
			stop = a.Start + a.Duration
		}
		if stop <= start {
			log.Debug("clip outside recorded stream", "kind", c.Kind, "seq", c.Seq, "at", c.Start)
			continue
		}

		c.Start = start
		c.Duration = stop - start
		c.InPoint = start - a.Start
		if c.Ref == "" {
			c.Ref = a.Ref
		}
		if c.Width == 0 && c.Height == 0 {
			c.Width, c.Height = a.Width, a.Height
		}
		out = append(out, c)
	}
	return out
}
