package layout

import (
	"math"

	"github.com/ivlev/meet2video/internal/timeline"
)

// rect is a pixel box in the output frame.
type rect struct {
	x, y, w, h int
}

func (r rect) normalize(width, height int) timeline.Transform {
	return timeline.Transform{
		X:      float64(r.x) / float64(width),
		Y:      float64(r.y) / float64(height),
		Width:  float64(r.w) / float64(width),
		Height: float64(r.h) / float64(height),
	}
}

// constrain scales (w, h) to the largest size fitting in (maxW, maxH)
// with the same aspect.
func constrain(w, h, maxW, maxH int) (int, int) {
	newH := int(math.Round(float64(h) * float64(maxW) / float64(w)))
	if newH <= maxH {
		return maxW, newH
	}
	return int(math.Round(float64(w) * float64(maxH) / float64(h))), maxH
}

// fit places a w x h source centered inside r. Unknown dimensions fill r.
func fit(r rect, w, h int) rect {
	if w <= 0 || h <= 0 {
		return r
	}
	fw, fh := constrain(w, h, r.w, r.h)
	return rect{
		x: r.x + (r.w-fw)/2,
		y: r.y + (r.h-fh)/2,
		w: fw,
		h: fh,
	}
}

// inset sizes a box for a w x h source at percent of the content width
// and pins it to the corner of content.
func inset(content rect, corner Corner, percent, w, h int) rect {
	if w <= 0 || h <= 0 {
		w, h = content.w, content.h
	}
	maxW := int(math.Round(float64(content.w) * float64(percent) / 100))
	iw, ih := constrain(w, h, maxW, content.h)

	r := rect{w: iw, h: ih}
	switch corner {
	case TopLeft:
		r.x, r.y = content.x, content.y
	case TopRight:
		r.x, r.y = content.x+content.w-iw, content.y
	case BottomLeft:
		r.x, r.y = content.x, content.y+content.h-ih
	case BottomRight:
		r.x, r.y = content.x+content.w-iw, content.y+content.h-ih
	}
	return r
}

// FrameFit places a srcW x srcH source centered in a width x height frame
// with no margins, as credits are shown.
func FrameFit(width, height, srcW, srcH int) timeline.Transform {
	return fit(rect{w: width, h: height}, srcW, srcH).normalize(width, height)
}
