package emit

import (
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/ivlev/meet2video/internal/timeline"
)

// GES track type flags.
const (
	gesAudio = 2
	gesVideo = 4
)

// XGESEncoder writes a GStreamer Editing Services project. GES composites
// nothing where a layer has no clip, so transparent and silent fills and
// hidden clips are left out; held frames become image clips.
type XGESEncoder struct {
	// BaseDir resolves relative payload references into file URIs.
	BaseDir string
}

type xgesDoc struct {
	XMLName xml.Name    `xml:"ges"`
	Version string      `xml:"version,attr"`
	Project xgesProject `xml:"project"`
}

type xgesProject struct {
	Properties string       `xml:"properties,attr"`
	Metadatas  string       `xml:"metadatas,attr"`
	Assets     []xgesAsset  `xml:"ressources>asset"`
	Timeline   xgesTimeline `xml:"timeline"`
}

type xgesAsset struct {
	ID         string `xml:"id,attr"`
	Type       string `xml:"extractable-type-name,attr"`
	Properties string `xml:"properties,attr"`
	Metadatas  string `xml:"metadatas,attr"`
}

type xgesTimeline struct {
	Properties string      `xml:"properties,attr"`
	Metadatas  string      `xml:"metadatas,attr"`
	Tracks     []xgesTrack `xml:"track"`
	Layers     []xgesLayer `xml:"layer"`
}

type xgesTrack struct {
	Caps       string `xml:"caps,attr"`
	TrackType  int    `xml:"track-type,attr"`
	TrackID    int    `xml:"track-id,attr"`
	Properties string `xml:"properties,attr"`
	Metadatas  string `xml:"metadatas,attr"`
}

type xgesLayer struct {
	Priority   int        `xml:"priority,attr"`
	Properties string     `xml:"properties,attr"`
	Metadatas  string     `xml:"metadatas,attr"`
	Clips      []xgesClip `xml:"clip"`
}

type xgesClip struct {
	ID            int          `xml:"id,attr"`
	AssetID       string       `xml:"asset-id,attr"`
	TypeName      string       `xml:"type-name,attr"`
	LayerPriority int          `xml:"layer-priority,attr"`
	TrackTypes    int          `xml:"track-types,attr"`
	Start         int64        `xml:"start,attr"`
	Duration      int64        `xml:"duration,attr"`
	InPoint       int64        `xml:"inpoint,attr"`
	Rate          int          `xml:"rate,attr"`
	Properties    string       `xml:"properties,attr"`
	Sources       []xgesSource `xml:"source,omitempty"`
}

type xgesSource struct {
	TrackID            int    `xml:"track-id,attr"`
	ChildrenProperties string `xml:"children-properties,attr"`
}

func (XGESEncoder) Extension() string { return ".xges" }

func (e XGESEncoder) uri(ref string) string {
	if strings.Contains(ref, "://") {
		return ref
	}
	if !path.IsAbs(ref) && e.BaseDir != "" {
		ref = path.Join(e.BaseDir, ref)
	}
	return "file://" + ref
}

func gesString(s string) string {
	return strings.NewReplacer(`\`, `\\`, ` `, `\ `, `,`, `\,`, `;`, `\;`, `=`, `\=`).Replace(s)
}

func (e XGESEncoder) Encode(w io.Writer, tl timeline.Timeline) error {
	p, err := Build(tl)
	if err != nil {
		return err
	}

	doc := xgesDoc{Version: "0.7"}
	doc.Project.Properties = "properties;"
	doc.Project.Metadatas = "metadatas;"
	if p.Name != "" {
		doc.Project.Metadatas = fmt.Sprintf("metadatas, name=(string)%s;", gesString(p.Name))
	}

	doc.Project.Timeline = xgesTimeline{
		Properties: "properties, auto-transition=(boolean)false;",
		Metadatas:  fmt.Sprintf("metadatas, duration=(guint64)%d;", p.Duration),
		Tracks: []xgesTrack{
			{
				Caps:       "video/x-raw(ANY)",
				TrackType:  gesVideo,
				TrackID:    0,
				Properties: fmt.Sprintf("properties, restriction-caps=(string)\"video/x-raw\\(ANY\\)\\,\\ width\\=\\(int\\)%d\\,\\ height\\=\\(int\\)%d\";", p.Width, p.Height),
				Metadatas:  "metadatas;",
			},
			{
				Caps:       "audio/x-raw(ANY)",
				TrackType:  gesAudio,
				TrackID:    1,
				Properties: "properties;",
				Metadatas:  "metadatas;",
			},
		},
	}

	seen := make(map[string]bool)
	clipID := 0
	// GES paints lower priorities on top, so the last project track is
	// layer 0.
	for i := len(p.Tracks) - 1; i >= 0; i-- {
		t := p.Tracks[i]
		priority := len(p.Tracks) - 1 - i
		layer := xgesLayer{
			Priority:   priority,
			Properties: "properties, auto-transition=(boolean)false;",
			Metadatas:  fmt.Sprintf("metadatas, video::name=(string)%s;", gesString(t.Name)),
		}

		for _, c := range t.Clips {
			if c.Hidden || c.Source == "" {
				continue
			}
			if c.Fill != "" && c.Fill != timeline.FillHoldFrame.String() {
				continue
			}

			id := e.uri(c.Source)
			if !seen[id] {
				seen[id] = true
				doc.Project.Assets = append(doc.Project.Assets, xgesAsset{
					ID:         id,
					Type:       "GESUriClip",
					Properties: "properties;",
					Metadatas:  "metadatas;",
				})
			}

			clip := xgesClip{
				ID:            clipID,
				AssetID:       id,
				TypeName:      "GESUriClip",
				LayerPriority: priority,
				Start:         c.Start,
				Duration:      c.Duration,
				InPoint:       c.InPoint,
				Properties:    fmt.Sprintf("properties, name=(string)uriclip%d, mute=(boolean)false, is-image=(boolean)%t;", clipID, c.Still),
			}
			// Sound comes from the audio tracks only.
			clip.TrackTypes = gesVideo
			if t.Type == "audio" {
				clip.TrackTypes = gesAudio
			}
			if c.Transform != nil {
				props := fmt.Sprintf("properties, posx=(int)%d, posy=(int)%d, width=(int)%d, height=(int)%d;",
					c.Transform.X, c.Transform.Y, c.Transform.W, c.Transform.H)
				clip.Sources = append(clip.Sources, xgesSource{TrackID: 0, ChildrenProperties: props})
			}
			layer.Clips = append(layer.Clips, clip)
			clipID++
		}
		doc.Project.Timeline.Layers = append(doc.Project.Timeline.Layers, layer)
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	_, err = io.WriteString(w, "\n")
	return err
}
