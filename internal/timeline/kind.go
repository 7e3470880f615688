package timeline

import (
	"fmt"
	"strings"
)

// Kind identifies what a stream, event, clip or track carries.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindCamera
	KindCameraAudio
	KindScreenshare
	KindSlide
	KindAnnotation
	KindCredit
	KindBackground
	// KindFill marks synthetic clips inserted to keep a track gapless.
	// It never names a track.
	KindFill
)

// TrackKinds lists every kind that can own a track, in emission order
// for equal z-order.
var TrackKinds = []Kind{
	KindBackground,
	KindSlide,
	KindScreenshare,
	KindCamera,
	KindAnnotation,
	KindCredit,
	KindCameraAudio,
}

var kindNames = map[Kind]string{
	KindUnknown:     "unknown",
	KindCamera:      "camera",
	KindCameraAudio: "camera-audio",
	KindScreenshare: "screenshare",
	KindSlide:       "slide",
	KindAnnotation:  "annotation",
	KindCredit:      "credit",
	KindBackground:  "background",
	KindFill:        "fill",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ParseKind accepts the names used in manifests and project documents.
// Asset kinds "camera-video", "slide-sequence" and "annotation-sequence"
// map onto their track kinds.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "camera", "camera-video", "webcam":
		return KindCamera, nil
	case "camera-audio":
		return KindCameraAudio, nil
	case "screenshare", "deskshare":
		return KindScreenshare, nil
	case "slide", "slides", "slide-sequence":
		return KindSlide, nil
	case "annotation", "annotations", "annotation-sequence":
		return KindAnnotation, nil
	case "credit", "credits":
		return KindCredit, nil
	case "background", "backdrop":
		return KindBackground, nil
	}
	return KindUnknown, fmt.Errorf("unknown kind %q", s)
}

// Audio reports whether the kind is mixed rather than composited.
func (k Kind) Audio() bool {
	return k == KindCameraAudio
}

// ZOrder is the fixed layering rank of a track kind. Higher paints over
// lower. Audio tracks sort after every visual track.
func (k Kind) ZOrder() int {
	switch k {
	case KindBackground:
		return 0
	case KindScreenshare, KindSlide:
		return 1
	case KindCamera:
		return 2
	case KindAnnotation:
		return 3
	case KindCredit:
		return 4
	case KindCameraAudio:
		return 5
	case KindUnknown, KindFill:
		return -1
	}
	return -1
}

// rank orders track kinds: z-order first, then TrackKinds position so
// that screenshare paints over slides.
func (k Kind) rank() int {
	for i, tk := range TrackKinds {
		if tk == k {
			return k.ZOrder()*len(TrackKinds) + i
		}
	}
	return -1
}

// FillPolicy tells the renderer what a Fill clip shows or plays.
type FillPolicy uint8

const (
	FillNone FillPolicy = iota
	FillSilence
	FillTransparent
	// FillHoldFrame repeats the last content clip of the track.
	FillHoldFrame
)

func (p FillPolicy) String() string {
	switch p {
	case FillNone:
		return "none"
	case FillSilence:
		return "silence"
	case FillTransparent:
		return "transparent"
	case FillHoldFrame:
		return "hold-frame"
	}
	return fmt.Sprintf("fill(%d)", uint8(p))
}

// GapPolicy is the fill used for gaps inside a track of kind k.
func GapPolicy(k Kind) FillPolicy {
	switch k {
	case KindCameraAudio:
		return FillSilence
	case KindSlide:
		return FillHoldFrame
	case KindCamera, KindScreenshare, KindAnnotation, KindCredit, KindBackground:
		return FillTransparent
	case KindUnknown, KindFill:
		return FillNone
	}
	return FillNone
}

// EdgePolicy is the fill used where no prior content exists to hold, and
// for the padding added around framed content.
func EdgePolicy(k Kind) FillPolicy {
	if k.Audio() {
		return FillSilence
	}
	return FillTransparent
}

// placeholderSlide is the blank image the recorder puts into the slide
// stream while a screenshare is running.
const placeholderSlide = "deskshare.png"

// IsPlaceholderSlide reports whether ref is that blank image.
func IsPlaceholderSlide(ref string) bool {
	return ref == placeholderSlide || strings.HasSuffix(ref, "/"+placeholderSlide)
}
