package timeline

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clip(k Kind, start, dur time.Duration) PlacedClip {
	return PlacedClip{Clip: Clip{Kind: k, Start: start, Duration: dur}}
}

func fill(p FillPolicy, start, dur time.Duration) PlacedClip {
	return PlacedClip{Clip: Clip{Kind: KindFill, Fill: p, Start: start, Duration: dur}}
}

func validTimeline() Timeline {
	return Timeline{
		Width:    1920,
		Height:   1080,
		Duration: 30 * time.Second,
		Tracks: []Track{
			{Kind: KindScreenshare, Clips: []PlacedClip{
				fill(FillTransparent, 0, 5*time.Second),
				clip(KindScreenshare, 5*time.Second, 15*time.Second),
				fill(FillTransparent, 20*time.Second, 10*time.Second),
			}},
			{Kind: KindCamera, Clips: []PlacedClip{clip(KindCamera, 0, 30*time.Second)}},
			{Kind: KindCameraAudio, Clips: []PlacedClip{clip(KindCameraAudio, 0, 30*time.Second)}},
		},
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, validTimeline().Validate())

	tests := []struct {
		name   string
		mutate func(tl *Timeline)
		want   string
	}{
		{
			name:   "hole",
			mutate: func(tl *Timeline) { tl.Tracks[0].Clips[1].Start = 6 * time.Second },
			want:   "hole",
		},
		{
			name:   "overlap",
			mutate: func(tl *Timeline) { tl.Tracks[0].Clips[1].Start = 4 * time.Second },
			want:   "overlaps",
		},
		{
			name: "zero length",
			mutate: func(tl *Timeline) {
				tl.Tracks[1].Clips = []PlacedClip{clip(KindCamera, 0, 0), clip(KindCamera, 0, 30*time.Second)}
			},
			want: "non-positive duration",
		},
		{
			name:   "short track",
			mutate: func(tl *Timeline) { tl.Tracks[1].Clips[0].Duration = 29 * time.Second },
			want:   "ends at",
		},
		{
			name:   "duration mismatch",
			mutate: func(tl *Timeline) { tl.Duration = 31 * time.Second },
			want:   "does not match",
		},
		{
			name:   "z-order",
			mutate: func(tl *Timeline) { tl.Tracks[0], tl.Tracks[1] = tl.Tracks[1], tl.Tracks[0] },
			want:   "out of z-order",
		},
		{
			name:   "foreign clip",
			mutate: func(tl *Timeline) { tl.Tracks[1].Clips[0].Kind = KindSlide },
			want:   "has kind slide",
		},
		{
			name:   "fill without policy",
			mutate: func(tl *Timeline) { tl.Tracks[0].Clips[0].Fill = FillNone },
			want:   "no policy",
		},
		{
			name:   "empty track",
			mutate: func(tl *Timeline) {
				tl.Tracks = []Track{tl.Tracks[0], tl.Tracks[1], {Kind: KindCredit}, tl.Tracks[2]}
			},
			want: "credit track is empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tl := validTimeline()
			tt.mutate(&tl)
			err := tl.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestSortTracks(t *testing.T) {
	tracks := []Track{
		{Kind: KindCameraAudio},
		{Kind: KindCredit},
		{Kind: KindScreenshare},
		{Kind: KindAnnotation},
		{Kind: KindSlide},
		{Kind: KindCamera},
		{Kind: KindBackground},
	}
	SortTracks(tracks)

	var got []Kind
	for _, tr := range tracks {
		got = append(got, tr.Kind)
	}
	assert.Equal(t, []Kind{
		KindBackground, KindSlide, KindScreenshare, KindCamera, KindAnnotation, KindCredit, KindCameraAudio,
	}, got)
}

func TestTrackAt(t *testing.T) {
	tr := validTimeline().Tracks[0]

	assert.Equal(t, 0, tr.At(0))
	assert.Equal(t, 0, tr.At(4999*time.Millisecond))
	assert.Equal(t, 1, tr.At(5*time.Second))
	assert.Equal(t, 2, tr.At(29*time.Second))
	assert.Equal(t, -1, tr.At(30*time.Second))
	assert.Len(t, tr.Content(), 1)
}

func TestCloneIsDeep(t *testing.T) {
	tl := validTimeline()
	cp := tl.Clone()
	cp.Tracks[0].Clips[0].Duration = time.Hour

	assert.Equal(t, 5*time.Second, tl.Tracks[0].Clips[0].Duration)
}

func TestParseKind(t *testing.T) {
	for in, want := range map[string]Kind{
		"camera-video":        KindCamera,
		"camera-audio":        KindCameraAudio,
		"deskshare":           KindScreenshare,
		"slide-sequence":      KindSlide,
		"annotation-sequence": KindAnnotation,
		"backdrop":            KindBackground,
	} {
		got, err := ParseKind(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseKind("chat")
	assert.Error(t, err)
}

func TestFillPolicies(t *testing.T) {
	assert.Equal(t, FillSilence, GapPolicy(KindCameraAudio))
	assert.Equal(t, FillHoldFrame, GapPolicy(KindSlide))
	assert.Equal(t, FillTransparent, GapPolicy(KindScreenshare))
	assert.Equal(t, FillTransparent, EdgePolicy(KindSlide))
	assert.Equal(t, FillSilence, EdgePolicy(KindCameraAudio))
}

func TestIsPlaceholderSlide(t *testing.T) {
	assert.True(t, IsPlaceholderSlide("deskshare.png"))
	assert.True(t, IsPlaceholderSlide("presentation/abc/deskshare.png"))
	assert.False(t, IsPlaceholderSlide("presentation/abc/slide-1.png"))
}

func TestErrorsUnwrap(t *testing.T) {
	cause := errors.New("no such file")
	err := error(&ConfigError{Field: "background_image", Reason: "unreadable", Err: &MissingAssetError{Kind: KindBackground, Ref: "bg.png", Err: cause}})

	var missing *MissingAssetError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "bg.png", missing.Ref)
	assert.ErrorIs(t, err, cause)
}
