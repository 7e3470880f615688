package credits

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countForeground(img *image.RGBA, r image.Rectangle) int {
	n := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if img.RGBAAt(x, y) == Foreground {
				n++
			}
		}
	}
	return n
}

func TestRenderTitle(t *testing.T) {
	img, err := Render(Card{Title: "Weekly sync", Width: 640, Height: 360})
	require.NoError(t, err)

	assert.Equal(t, image.Rect(0, 0, 640, 360), img.Bounds())
	assert.Equal(t, Background, img.RGBAAt(0, 0))
	assert.Positive(t, countForeground(img, img.Bounds()), "title is drawn")
	// Without a QR code the lower part stays empty.
	assert.Zero(t, countForeground(img, image.Rect(0, 300, 640, 360)))
}

func TestRenderQRCode(t *testing.T) {
	img, err := Render(Card{Title: "Thanks", QRURL: "https://example.org/playback/42", Width: 1280, Height: 720})
	require.NoError(t, err)

	size := 720 / 3
	bottom := 720 - 720/12
	code := image.Rect((1280-size)/2, bottom-size, (1280+size)/2, bottom)
	assert.Positive(t, countForeground(img, code))
}

func TestRenderRejectsEmptyCard(t *testing.T) {
	_, err := Render(Card{Title: "x"})
	assert.Error(t, err)
}

func TestWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "card.png")
	require.NoError(t, Write(Card{Title: "Opening", Subtitle: "Room 4", Width: 320, Height: 180}, path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	cfg, err := png.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 320, cfg.Width)
	assert.Equal(t, 180, cfg.Height)
}
