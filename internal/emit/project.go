// Package emit serializes a finished timeline into a project document
// for the external renderer.
package emit

import (
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"

	"github.com/ivlev/meet2video/internal/timeline"
)

// ProjectVersion is written into every YAML project.
const ProjectVersion = "1.0"

// AudioZOrder is written as the z of audio tracks, below every visual
// layer, since they take no part in compositing.
const AudioZOrder = -1

// clipNamespace seeds the name-based clip IDs, so the same timeline
// always yields the same IDs.
var clipNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/ivlev/meet2video/clip"))

// Project is the declarative project document.
type Project struct {
	Version  string  `yaml:"version"`
	Name     string  `yaml:"name,omitempty"`
	Width    int     `yaml:"width"`
	Height   int     `yaml:"height"`
	Duration int64   `yaml:"duration"` // nanoseconds
	Tracks   []Track `yaml:"tracks"`
}

// Track is one layer of the project, listed bottom to top.
type Track struct {
	Name   string `yaml:"name"`
	Type   string `yaml:"type"` // video | audio
	ZOrder int    `yaml:"z"`
	Clips  []Clip `yaml:"clips"`
}

// Clip is one placed clip. Times are nanoseconds on the project clock.
type Clip struct {
	ID        string     `yaml:"id"`
	Kind      string     `yaml:"kind"`
	Fill      string     `yaml:"fill,omitempty"`
	Source    string     `yaml:"source,omitempty"`
	Start     int64      `yaml:"start"`
	Duration  int64      `yaml:"duration"`
	InPoint   int64      `yaml:"inpoint,omitempty"`
	Still     bool       `yaml:"still,omitempty"`
	Hidden    bool       `yaml:"hidden,omitempty"`
	Transform *Rectangle `yaml:"transform,omitempty"`
}

// Rectangle is a pixel box in the output frame.
type Rectangle struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
	W int `yaml:"w"`
	H int `yaml:"h"`
}

// ordered returns the tracks sorted by z-order and each track's clips by
// start, without touching tl.
func ordered(tl timeline.Timeline) []timeline.Track {
	tracks := tl.Clone().Tracks
	timeline.SortTracks(tracks)
	for _, t := range tracks {
		sort.SliceStable(t.Clips, func(i, j int) bool {
			return t.Clips[i].Start < t.Clips[j].Start
		})
	}
	return tracks
}

func pixels(t timeline.Transform, width, height int) *Rectangle {
	return &Rectangle{
		X: int(math.Round(t.X * float64(width))),
		Y: int(math.Round(t.Y * float64(height))),
		W: int(math.Round(t.Width * float64(width))),
		H: int(math.Round(t.Height * float64(height))),
	}
}

func clipID(k timeline.Kind, index int, c timeline.PlacedClip) string {
	key := fmt.Sprintf("%s/%d/%d/%d/%s", k, index, c.Start, c.Duration, c.Ref)
	return uuid.NewSHA1(clipNamespace, []byte(key)).String()
}

// Build checks the timeline's invariants and converts it to a Project.
// It is a pure function of tl.
func Build(tl timeline.Timeline) (*Project, error) {
	sorted := tl
	sorted.Tracks = ordered(tl)
	if err := sorted.Validate(); err != nil {
		return nil, fmt.Errorf("timeline is not consistent: %w", err)
	}

	p := &Project{
		Version:  ProjectVersion,
		Name:     tl.Name,
		Width:    tl.Width,
		Height:   tl.Height,
		Duration: int64(tl.Duration),
	}

	for _, t := range sorted.Tracks {
		doc := Track{Name: t.Kind.String(), Type: "video", ZOrder: t.ZOrder()}
		if t.Audio() {
			// Mixed, not layered: its place in the list is the mixing order.
			doc.Type = "audio"
			doc.ZOrder = AudioZOrder
		}

		for i, c := range t.Clips {
			clip := Clip{
				ID:       clipID(t.Kind, i, c),
				Kind:     c.Kind.String(),
				Source:   c.Ref,
				Start:    int64(c.Start),
				Duration: int64(c.Duration),
				InPoint:  int64(c.InPoint),
				Still:    c.Still,
				Hidden:   c.Hidden,
			}
			if c.IsFill() {
				clip.Fill = c.Fill.String()
			}
			if !t.Audio() {
				clip.Transform = pixels(c.Transform, tl.Width, tl.Height)
			}
			doc.Clips = append(doc.Clips, clip)
		}
		p.Tracks = append(p.Tracks, doc)
	}

	return p, nil
}
