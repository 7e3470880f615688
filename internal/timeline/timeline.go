// Package timeline holds the data model shared by every assembly stage:
// recorded assets and events, clips, tracks and the final timeline.
//
// All times are time.Duration offsets. Values are treated as immutable
// once a stage returns them; stages copy before they change anything.
package timeline

import (
	"sort"
	"time"
)

// Asset is one independently recorded stream of the meeting.
type Asset struct {
	Kind Kind
	// Start is the recorder-clock offset at which the stream begins.
	Start time.Duration
	// Duration is zero for streams still open when recording stopped;
	// they run to the end of the meeting.
	Duration time.Duration
	Ref      string
	Width    int
	Height   int
}

// Open reports whether the asset has no recorded length.
func (a Asset) Open() bool {
	return a.Duration <= 0
}

// RawEvent is a recorded fact as yielded by the manifest parser.
type RawEvent struct {
	Kind      Kind
	Timestamp time.Duration
	// End is nil for instantaneous events.
	End    *time.Duration
	Ref    string
	Width  int
	Height int
}

// Recording is the complete input of one assembly run.
type Recording struct {
	Name string
	// Start is the meeting start on the recorder clock.
	Start time.Duration
	// Duration of the meeting. Zero derives it from the assets and events.
	Duration time.Duration
	Assets   []Asset
	Events   []RawEvent
}

// Clip is a time-bounded reference to (part of) a payload. The
// normalizer produces content clips; the planner adds Fill clips.
type Clip struct {
	Kind     Kind
	Fill     FillPolicy
	Start    time.Duration
	Duration time.Duration
	// InPoint is the offset into the source media the clip starts at.
	InPoint time.Duration
	Ref     string
	Width   int
	Height  int
	// Seq is the ingestion sequence of the source event.
	Seq int
	// Still is set for image payloads, whose in-point never moves.
	Still bool
}

// End is the exclusive end offset.
func (c Clip) End() time.Duration {
	return c.Start + c.Duration
}

// IsFill reports whether the clip is synthetic.
func (c Clip) IsFill() bool {
	return c.Kind == KindFill
}

// Contains reports whether t falls in [Start, End).
func (c Clip) Contains(t time.Duration) bool {
	return t >= c.Start && t < c.End()
}

// Shift returns a copy moved by d.
func (c Clip) Shift(d time.Duration) Clip {
	c.Start += d
	return c
}

// Transform is a placement in normalized output-frame coordinates:
// (0,0) is the top-left corner and (1,1) the bottom-right.
type Transform struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// FullFrame covers the whole output frame.
var FullFrame = Transform{X: 0, Y: 0, Width: 1, Height: 1}

// PlacedClip is a clip with its spatial placement.
type PlacedClip struct {
	Clip
	Transform Transform
	// Hidden clips keep their slot on the track but are not composited.
	Hidden bool
}

// Track is one layer of the composition.
type Track struct {
	Kind  Kind
	Clips []PlacedClip
}

// ZOrder of the track's kind.
func (t Track) ZOrder() int {
	return t.Kind.ZOrder()
}

// Audio reports whether the track is mixed rather than composited.
func (t Track) Audio() bool {
	return t.Kind.Audio()
}

// End is the end of the track's last clip.
func (t Track) End() time.Duration {
	if len(t.Clips) == 0 {
		return 0
	}
	return t.Clips[len(t.Clips)-1].End()
}

// At returns the index of the clip covering t, or -1.
func (t Track) At(at time.Duration) int {
	i := sort.Search(len(t.Clips), func(i int) bool {
		return t.Clips[i].End() > at
	})
	if i < len(t.Clips) && t.Clips[i].Contains(at) {
		return i
	}
	return -1
}

// Content returns the non-fill clips of the track.
func (t Track) Content() []PlacedClip {
	var out []PlacedClip
	for _, c := range t.Clips {
		if !c.IsFill() {
			out = append(out, c)
		}
	}
	return out
}

// Clone returns a deep copy.
func (t Track) Clone() Track {
	clips := make([]PlacedClip, len(t.Clips))
	copy(clips, t.Clips)
	return Track{Kind: t.Kind, Clips: clips}
}

// Timeline is the root aggregate handed to the emitter.
type Timeline struct {
	Name     string
	Width    int
	Height   int
	Duration time.Duration
	Tracks   []Track
}

// Track returns the track of kind k.
func (tl Timeline) Track(k Kind) (Track, bool) {
	for _, t := range tl.Tracks {
		if t.Kind == k {
			return t, true
		}
	}
	return Track{}, false
}

// Clone returns a deep copy.
func (tl Timeline) Clone() Timeline {
	out := tl
	out.Tracks = make([]Track, len(tl.Tracks))
	for i, t := range tl.Tracks {
		out.Tracks[i] = t.Clone()
	}
	return out
}

// SortTracks orders tracks by z-order, screenshare above slides, audio
// last. Ties cannot occur since a kind owns at most one track.
func SortTracks(tracks []Track) {
	sort.SliceStable(tracks, func(i, j int) bool {
		return tracks[i].Kind.rank() < tracks[j].Kind.rank()
	})
}

// MaxEnd is the largest clip end across tracks.
func MaxEnd(tracks []Track) time.Duration {
	var end time.Duration
	for _, t := range tracks {
		if e := t.End(); e > end {
			end = e
		}
	}
	return end
}
