// Package credits renders title cards used as opening and closing
// credits when no credit files are given.
package credits

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"

	"github.com/skip2/go-qrcode"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var (
	Background = color.RGBA{R: 0x1b, G: 0x1f, B: 0x27, A: 0xff}
	Foreground = color.RGBA{R: 0xf2, G: 0xf2, B: 0xf2, A: 0xff}
)

// Card is a full-frame still with a title, an optional subtitle and an
// optional QR code under them.
type Card struct {
	Title    string
	Subtitle string
	QRURL    string
	Width    int
	Height   int
}

// Render draws the card.
func Render(c Card) (*image.RGBA, error) {
	if c.Width <= 0 || c.Height <= 0 {
		return nil, fmt.Errorf("card size %dx%d", c.Width, c.Height)
	}

	img := image.NewRGBA(image.Rect(0, 0, c.Width, c.Height))
	draw.Draw(img, img.Bounds(), image.NewUniform(Background), image.Point{}, draw.Src)

	scale := c.Height / 216
	if scale < 1 {
		scale = 1
	}

	y := c.Height / 4
	if c.QRURL == "" {
		y = c.Height / 3
	}
	if c.Title != "" {
		y += drawText(img, c.Title, y, scale) + 13*scale/2
	}
	if c.Subtitle != "" {
		sub := scale / 2
		if sub < 1 {
			sub = 1
		}
		drawText(img, c.Subtitle, y, sub)
	}

	if c.QRURL != "" {
		q, err := qrcode.New(c.QRURL, qrcode.Medium)
		if err != nil {
			return nil, fmt.Errorf("qr code for %q: %w", c.QRURL, err)
		}
		q.BackgroundColor = Background
		q.ForegroundColor = Foreground

		size := c.Height / 3
		code := q.Image(size)
		at := image.Pt((c.Width-size)/2, c.Height-size-c.Height/12)
		draw.Draw(img, image.Rectangle{Min: at, Max: at.Add(image.Pt(size, size))}, code, image.Point{}, draw.Src)
	}

	return img, nil
}

// drawText renders s centered horizontally with its top at y, enlarged
// by scale (reduced until it fits 90% of the width). It returns the
// height used.
func drawText(dst *image.RGBA, s string, y, scale int) int {
	face := basicfont.Face7x13
	w := font.MeasureString(face, s).Ceil()
	h := face.Metrics().Height.Ceil()
	if w == 0 {
		return 0
	}

	line := image.NewRGBA(image.Rect(0, 0, w, h))
	d := &font.Drawer{
		Dst:  line,
		Src:  image.NewUniform(Foreground),
		Face: face,
		Dot:  fixed.P(0, face.Metrics().Ascent.Ceil()),
	}
	d.DrawString(s)

	maxW := dst.Bounds().Dx() * 9 / 10
	for scale > 1 && w*scale > maxW {
		scale--
	}

	at := image.Pt((dst.Bounds().Dx()-w*scale)/2, y)
	draw.NearestNeighbor.Scale(dst, image.Rect(0, 0, w*scale, h*scale).Add(at), line, line.Bounds(), draw.Over, nil)
	return h * scale
}

// Write renders the card to a PNG file.
func Write(c Card, path string) error {
	img, err := Render(c)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
