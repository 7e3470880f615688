// Package manifest decodes the document handed over by the recording
// download step: the meeting header, its recorded streams and the
// timestamped events, all in seconds on the recorder clock.
package manifest

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ivlev/meet2video/internal/timeline"
)

// Document mirrors the on-disk layout.
type Document struct {
	Meeting Meeting `yaml:"meeting"`
	Assets  []Asset `yaml:"assets"`
	Events  []Event `yaml:"events"`
}

type Meeting struct {
	Name     string  `yaml:"name"`
	Start    float64 `yaml:"start"`
	Duration float64 `yaml:"duration,omitempty"`
}

type Asset struct {
	Kind     string  `yaml:"kind"`
	Start    float64 `yaml:"start"`
	Duration float64 `yaml:"duration,omitempty"`
	Ref      string  `yaml:"ref"`
	Width    int     `yaml:"width,omitempty"`
	Height   int     `yaml:"height,omitempty"`
}

type Event struct {
	Kind      string   `yaml:"kind"`
	Timestamp float64  `yaml:"timestamp"`
	End       *float64 `yaml:"end,omitempty"`
	Ref       string   `yaml:"ref"`
	Width     int      `yaml:"width,omitempty"`
	Height    int      `yaml:"height,omitempty"`
}

func seconds(s float64) time.Duration {
	return time.Duration(math.Round(s * float64(time.Second)))
}

// Recording converts the document. Events keep their document order,
// which is the ingestion order used to break timestamp ties.
func (d Document) Recording() (timeline.Recording, error) {
	if d.Meeting.Duration < 0 {
		return timeline.Recording{}, &timeline.TimingError{
			Kind:   timeline.KindUnknown,
			Offset: seconds(d.Meeting.Duration),
			Seq:    -1,
			Reason: "negative meeting duration",
		}
	}

	rec := timeline.Recording{
		Name:     d.Meeting.Name,
		Start:    seconds(d.Meeting.Start),
		Duration: seconds(d.Meeting.Duration),
		Assets:   make([]timeline.Asset, 0, len(d.Assets)),
		Events:   make([]timeline.RawEvent, 0, len(d.Events)),
	}

	for i, a := range d.Assets {
		kind, err := timeline.ParseKind(a.Kind)
		if err != nil {
			return timeline.Recording{}, fmt.Errorf("asset %d: %w", i, err)
		}
		if a.Duration < 0 {
			return timeline.Recording{}, &timeline.InvalidRangeError{
				Kind:  kind,
				Start: seconds(a.Start),
				End:   seconds(a.Start + a.Duration),
				Seq:   i,
			}
		}
		rec.Assets = append(rec.Assets, timeline.Asset{
			Kind:     kind,
			Start:    seconds(a.Start),
			Duration: seconds(a.Duration),
			Ref:      a.Ref,
			Width:    a.Width,
			Height:   a.Height,
		})
	}

	for i, e := range d.Events {
		kind, err := timeline.ParseKind(e.Kind)
		if err != nil {
			return timeline.Recording{}, fmt.Errorf("event %d: %w", i, err)
		}
		ev := timeline.RawEvent{
			Kind:      kind,
			Timestamp: seconds(e.Timestamp),
			Ref:       e.Ref,
			Width:     e.Width,
			Height:    e.Height,
		}
		if e.End != nil {
			end := seconds(*e.End)
			ev.End = &end
		}
		rec.Events = append(rec.Events, ev)
	}

	return rec, nil
}

// Decode reads a manifest and converts it.
func Decode(r io.Reader) (timeline.Recording, error) {
	var doc Document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return timeline.Recording{}, fmt.Errorf("empty manifest")
		}
		return timeline.Recording{}, fmt.Errorf("decode manifest: %w", err)
	}
	return doc.Recording()
}

// Load decodes the manifest at path.
func Load(path string) (timeline.Recording, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return timeline.Recording{}, fmt.Errorf("read manifest: %w", err)
	}
	rec, err := Decode(bytes.NewReader(data))
	if err != nil {
		return timeline.Recording{}, fmt.Errorf("%s: %w", path, err)
	}
	return rec, nil
}
