package layout

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/meet2video/internal/normalize"
	"github.com/ivlev/meet2video/internal/planner"
	"github.com/ivlev/meet2video/internal/timeline"
)

const sec = time.Second

func plan(t *testing.T, clips ...timeline.Clip) planner.Plan {
	t.Helper()
	res := normalize.Result{Clips: make(map[timeline.Kind][]timeline.Clip)}
	for _, c := range clips {
		res.Clips[c.Kind] = append(res.Clips[c.Kind], c)
	}
	p, err := planner.Build(res)
	require.NoError(t, err)
	return p
}

func track(t *testing.T, tl timeline.Timeline, k timeline.Kind) timeline.Track {
	t.Helper()
	tr, ok := tl.Track(k)
	require.True(t, ok, "no %s track", k)
	return tr
}

func hd() Config {
	return Config{Width: 1920, Height: 1080}
}

var (
	camera      = timeline.Clip{Kind: timeline.KindCamera, Start: 0, Duration: 30 * sec, Ref: "webcams.webm", Width: 640, Height: 480}
	screenshare = timeline.Clip{Kind: timeline.KindScreenshare, Start: 5 * sec, Duration: 15 * sec, Ref: "deskshare.webm", Width: 1280, Height: 720}
	slide43     = timeline.Clip{Kind: timeline.KindSlide, Start: 0, Duration: 30 * sec, Ref: "slide-1.png", Width: 1600, Height: 1200, Still: true}
)

func TestResolveScreenshareFull(t *testing.T) {
	tl, err := Resolve(plan(t, camera, screenshare), hd())
	require.NoError(t, err)
	require.NoError(t, tl.Validate())

	assert.Equal(t, 30*sec, tl.Duration)

	share := track(t, tl, timeline.KindScreenshare)
	require.Len(t, share.Clips, 3)
	assert.Equal(t, timeline.FullFrame, share.Clips[1].Transform)

	cam := track(t, tl, timeline.KindCamera)
	require.Len(t, cam.Clips, 1)
	assert.Equal(t, timeline.Transform{X: 1440.0 / 1920, Y: 0, Width: 480.0 / 1920, Height: 360.0 / 1080}, cam.Clips[0].Transform)
}

func TestResolveCameraFull(t *testing.T) {
	cfg := hd()
	cfg.Priority = CameraFull

	tl, err := Resolve(plan(t, camera, screenshare), cfg)
	require.NoError(t, err)

	cam := track(t, tl, timeline.KindCamera)
	assert.Equal(t, timeline.Transform{X: 240.0 / 1920, Y: 0, Width: 1440.0 / 1920, Height: 1}, cam.Clips[0].Transform)

	share := track(t, tl, timeline.KindScreenshare)
	assert.Equal(t, timeline.Transform{X: 1440.0 / 1920, Y: 0, Width: 480.0 / 1920, Height: 270.0 / 1080}, share.Clips[1].Transform)
}

func TestResolveInsetCorners(t *testing.T) {
	const margin = 20
	left, top := float64(margin)/1920, float64(margin)/1080
	right, bottom := float64(1920-margin)/1920, float64(1080-margin)/1080

	for _, corner := range []Corner{TopLeft, TopRight, BottomLeft, BottomRight} {
		t.Run(string(corner), func(t *testing.T) {
			cfg := hd()
			cfg.Margin = margin
			cfg.Corner = corner

			tl, err := Resolve(plan(t, camera, screenshare), cfg)
			require.NoError(t, err)
			tr := track(t, tl, timeline.KindCamera).Clips[0].Transform

			switch corner {
			case TopLeft:
				assert.InDelta(t, left, tr.X, 1e-9)
				assert.InDelta(t, top, tr.Y, 1e-9)
			case TopRight:
				assert.InDelta(t, right, tr.X+tr.Width, 1e-9)
				assert.InDelta(t, top, tr.Y, 1e-9)
			case BottomLeft:
				assert.InDelta(t, left, tr.X, 1e-9)
				assert.InDelta(t, bottom, tr.Y+tr.Height, 1e-9)
			case BottomRight:
				assert.InDelta(t, right, tr.X+tr.Width, 1e-9)
				assert.InDelta(t, bottom, tr.Y+tr.Height, 1e-9)
			}
		})
	}
}

func TestResolveMarginsKeepContentOffTheEdge(t *testing.T) {
	cfg := hd()
	cfg.Margin = 40
	wide := slide43
	wide.Width, wide.Height = 1920, 1080

	tl, err := Resolve(plan(t, wide), cfg)
	require.NoError(t, err)

	tr := track(t, tl, timeline.KindSlide).Clips[0].Transform
	assert.Greater(t, tr.X, 0.0)
	assert.InDelta(t, 40.0/1080, tr.Y, 1e-9)
	assert.Less(t, tr.X+tr.Width, 1.0)
	assert.InDelta(t, 1040.0/1080, tr.Y+tr.Height, 1e-9)
}

func TestResolveSlidesTakeScreenshareRegion(t *testing.T) {
	wide := slide43
	wide.Width, wide.Height = 1920, 1080

	tl, err := Resolve(plan(t, camera, wide), hd())
	require.NoError(t, err)

	_, hasShare := tl.Track(timeline.KindScreenshare)
	assert.False(t, hasShare)
	assert.Equal(t, timeline.FullFrame, track(t, tl, timeline.KindSlide).Clips[0].Transform)
	assert.Equal(t, 1440.0/1920, track(t, tl, timeline.KindCamera).Clips[0].Transform.X)
}

func TestResolveHidesSlidesUnderScreenshare(t *testing.T) {
	share := screenshare
	share.Start, share.Duration = 10*sec, 10*sec

	tl, err := Resolve(plan(t, slide43, share), hd())
	require.NoError(t, err)
	require.NoError(t, tl.Validate())

	type piece struct {
		Start, End time.Duration
		Hidden     bool
	}
	var got []piece
	for _, c := range track(t, tl, timeline.KindSlide).Clips {
		got = append(got, piece{c.Start, c.End(), c.Hidden})
	}
	want := []piece{
		{0, 10 * sec, false},
		{10 * sec, 20 * sec, true},
		{20 * sec, 30 * sec, false},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("slide pieces mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveAnnotationsInheritHostPlacement(t *testing.T) {
	share := screenshare
	share.Start, share.Duration = 10*sec, 10*sec
	onShare := timeline.Clip{Kind: timeline.KindAnnotation, Start: 15 * sec, Duration: sec, Ref: "stroke-1.svg", Still: true}
	onSlide := timeline.Clip{Kind: timeline.KindAnnotation, Start: 25 * sec, Duration: sec, Ref: "stroke-2.svg", Still: true}

	tl, err := Resolve(plan(t, slide43, share, onShare, onSlide), hd())
	require.NoError(t, err)

	slides := track(t, tl, timeline.KindSlide)
	screen := track(t, tl, timeline.KindScreenshare)
	for _, c := range track(t, tl, timeline.KindAnnotation).Content() {
		var host timeline.PlacedClip
		if i := screen.At(c.Start); i >= 0 && !screen.Clips[i].IsFill() {
			host = screen.Clips[i]
		} else {
			host = slides.Clips[slides.At(c.Start)]
		}
		assert.Equal(t, host.Transform, c.Transform, "annotation %s", c.Ref)
	}

	ann := track(t, tl, timeline.KindAnnotation).Content()
	require.Len(t, ann, 2)
	assert.Equal(t, timeline.FullFrame, ann[0].Transform)
	assert.Equal(t, timeline.Transform{X: 240.0 / 1920, Y: 0, Width: 1440.0 / 1920, Height: 1}, ann[1].Transform)
}

func TestResolveStretchCamera(t *testing.T) {
	cfg := hd()
	cfg.StretchCamera = true

	tl, err := Resolve(plan(t, camera, screenshare), cfg)
	require.NoError(t, err)

	tr := track(t, tl, timeline.KindCamera).Clips[0].Transform
	assert.Equal(t, 480.0/1920, tr.Width)
	assert.Equal(t, 270.0/1080, tr.Height)
}

func TestResolveLeavesAudioUnplaced(t *testing.T) {
	audio := timeline.Clip{Kind: timeline.KindCameraAudio, Start: 0, Duration: 30 * sec, Ref: "audio.opus"}

	tl, err := Resolve(plan(t, camera, audio), hd())
	require.NoError(t, err)

	assert.Equal(t, timeline.Transform{}, track(t, tl, timeline.KindCameraAudio).Clips[0].Transform)
	assert.Equal(t, timeline.KindCameraAudio, tl.Tracks[len(tl.Tracks)-1].Kind)
}

func TestResolveIsDeterministic(t *testing.T) {
	p := plan(t, camera, screenshare, slide43,
		timeline.Clip{Kind: timeline.KindAnnotation, Start: 3 * sec, Duration: sec},
		timeline.Clip{Kind: timeline.KindCameraAudio, Start: 0, Duration: 30 * sec},
	)

	first, err := Resolve(p, hd())
	require.NoError(t, err)
	for range 10 {
		again, err := Resolve(p, hd())
		require.NoError(t, err)
		if diff := cmp.Diff(first, again); diff != "" {
			t.Fatalf("resolve is not deterministic (-first +again):\n%s", diff)
		}
	}
}

func TestResolveRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name  string
		cfg   Config
		field string
	}{
		{"zero width", Config{Height: 1080}, "output_width"},
		{"negative margin", Config{Width: 1920, Height: 1080, Margin: -1}, "margin"},
		{"margin eats frame", Config{Width: 1920, Height: 1080, Margin: 540}, "margin"},
		{"priority", Config{Width: 1920, Height: 1080, Priority: "sideways"}, "screenshare_priority"},
		{"corner", Config{Width: 1920, Height: 1080, Corner: "middle"}, "inset_corner"},
		{"webcam size", Config{Width: 1920, Height: 1080, InsetPercent: 120}, "webcam_size"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(plan(t, camera), tt.cfg)

			var ce *timeline.ConfigError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.field, ce.Field)
		})
	}
}

func TestFrameFit(t *testing.T) {
	assert.Equal(t, timeline.FullFrame, FrameFit(1920, 1080, 0, 0))
	assert.Equal(t, timeline.Transform{X: 240.0 / 1920, Y: 0, Width: 1440.0 / 1920, Height: 1}, FrameFit(1920, 1080, 800, 600))
}
