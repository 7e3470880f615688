package framing

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/meet2video/internal/layout"
	"github.com/ivlev/meet2video/internal/normalize"
	"github.com/ivlev/meet2video/internal/planner"
	"github.com/ivlev/meet2video/internal/timeline"
)

const sec = time.Second

func assembled(t *testing.T) timeline.Timeline {
	t.Helper()
	res := normalize.Result{End: 30 * sec, Clips: map[timeline.Kind][]timeline.Clip{
		timeline.KindCamera: {
			{Kind: timeline.KindCamera, Start: 0, Duration: 30 * sec, Ref: "webcams.webm", Width: 640, Height: 480},
		},
		timeline.KindScreenshare: {
			{Kind: timeline.KindScreenshare, Start: 5 * sec, Duration: 15 * sec, Ref: "deskshare.webm", Width: 1280, Height: 720},
		},
		timeline.KindCameraAudio: {
			{Kind: timeline.KindCameraAudio, Start: 0, Duration: 30 * sec, Ref: "webcams.webm"},
		},
	}}
	p, err := planner.Build(res)
	require.NoError(t, err)
	tl, err := layout.Resolve(p, layout.Config{Width: 1920, Height: 1080})
	require.NoError(t, err)
	return tl
}

type checker map[string]error

func (c checker) Check(kind timeline.Kind, ref string) error {
	return c[ref]
}

func TestComposeOpeningCreditsShiftContent(t *testing.T) {
	base := assembled(t)

	out, err := Compose(base, Framing{Opening: []Credit{{Ref: "intro.png", Duration: 5 * sec, Width: 1920, Height: 1080, Still: true}}}, nil)
	require.NoError(t, err)
	require.NoError(t, out.Validate())

	assert.Equal(t, 35*sec, out.Duration)

	for _, orig := range base.Tracks {
		shifted := track(t, out, orig.Kind)
		require.Equal(t, len(orig.Content()), len(shifted.Content()))
		for i, c := range orig.Content() {
			assert.Equal(t, c.Start+5*sec, shifted.Content()[i].Start, "%s clip %d", orig.Kind, i)
			assert.Equal(t, c.Duration, shifted.Content()[i].Duration)
		}
		// The padding before the content is transparent or silent.
		first := shifted.Clips[0]
		assert.True(t, first.IsFill())
		assert.Equal(t, timeline.EdgePolicy(orig.Kind), first.Fill)
	}

	credits := track(t, out, timeline.KindCredit)
	require.NotEmpty(t, credits.Clips)
	assert.Equal(t, time.Duration(0), credits.Clips[0].Start)
	assert.Equal(t, 5*sec, credits.Clips[0].Duration)
	assert.Equal(t, "intro.png", credits.Clips[0].Ref)

	var topVisual timeline.Track
	for _, tr := range out.Tracks {
		if !tr.Audio() {
			topVisual = tr
		}
	}
	assert.Equal(t, timeline.KindCredit, topVisual.Kind)
}

func TestComposeClosingCreditsAndBackground(t *testing.T) {
	base := assembled(t)

	out, err := Compose(base, Framing{
		Opening:    []Credit{{Ref: "intro.png", Duration: 2 * sec}},
		Closing:    []Credit{{Ref: "outro-1.png", Duration: 3 * sec}, {Ref: "outro-2.webm", Duration: 4 * sec}},
		Background: "backdrop.png",
	}, checker{})
	require.NoError(t, err)
	require.NoError(t, out.Validate())

	assert.Equal(t, 39*sec, out.Duration)

	assert.Equal(t, timeline.KindBackground, out.Tracks[0].Kind)
	bg := out.Tracks[0].Clips
	require.Len(t, bg, 1)
	assert.Equal(t, time.Duration(0), bg[0].Start)
	assert.Equal(t, 39*sec, bg[0].End())
	assert.Equal(t, timeline.FullFrame, bg[0].Transform)

	credits := track(t, out, timeline.KindCredit)
	var refs []string
	for _, c := range credits.Content() {
		refs = append(refs, c.Ref)
	}
	assert.Equal(t, []string{"intro.png", "outro-1.png", "outro-2.webm"}, refs)
	assert.Equal(t, 32*sec, credits.Content()[1].Start)
	assert.Equal(t, 35*sec, credits.Content()[2].Start)

	audio := track(t, out, timeline.KindCameraAudio)
	last := audio.Clips[len(audio.Clips)-1]
	assert.Equal(t, timeline.FillSilence, last.Fill)
	assert.Equal(t, 32*sec, last.Start)
}

func TestComposeSkipsZeroLengthCredits(t *testing.T) {
	out, err := Compose(assembled(t), Framing{Closing: []Credit{{Ref: "empty.png"}, {Ref: "outro.png", Duration: sec}}}, nil)
	require.NoError(t, err)
	require.NoError(t, out.Validate())

	assert.Len(t, track(t, out, timeline.KindCredit).Content(), 1)
}

func TestComposeWithoutFramingIsACopy(t *testing.T) {
	base := assembled(t)
	out, err := Compose(base, Framing{}, nil)
	require.NoError(t, err)
	assert.Equal(t, base, out)

	out.Tracks[0].Clips[0].Duration = time.Hour
	assert.NotEqual(t, time.Hour, base.Tracks[0].Clips[0].Duration)
}

func TestComposeNegativeDuration(t *testing.T) {
	_, err := Compose(assembled(t), Framing{Closing: []Credit{{Ref: "outro.png", Duration: -sec}}}, nil)

	var ce *timeline.ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "closing_credit_duration", ce.Field)
}

func TestComposeUnreadableBackground(t *testing.T) {
	cause := &timeline.MissingAssetError{Kind: timeline.KindBackground, Ref: "gone.png", Err: errors.New("no such file")}

	_, err := Compose(assembled(t), Framing{Background: "gone.png"}, checker{"gone.png": cause})

	var ce *timeline.ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "background_image", ce.Field)
	var missing *timeline.MissingAssetError
	assert.ErrorAs(t, err, &missing)
}

func TestComposeMissingCredit(t *testing.T) {
	cause := &timeline.MissingAssetError{Kind: timeline.KindCredit, Ref: "outro.png"}

	_, err := Compose(assembled(t), Framing{Closing: []Credit{{Ref: "outro.png", Duration: sec}}}, checker{"outro.png": cause})
	assert.ErrorIs(t, err, cause)
}

func track(t *testing.T, tl timeline.Timeline, k timeline.Kind) timeline.Track {
	t.Helper()
	tr, ok := tl.Track(k)
	require.True(t, ok, "no %s track", k)
	return tr
}
