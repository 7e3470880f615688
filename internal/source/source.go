package source

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gen2brain/go-fitz"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/ivlev/meet2video/internal/timeline"
)

// Info describes a payload.
type Info struct {
	Width    int
	Height   int
	Duration time.Duration
	Still    bool
}

// Prober inspects time-based media.
type Prober interface {
	Probe(ctx context.Context, path string) (Info, error)
}

var stillExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".webp": true, ".bmp": true, ".tif": true, ".tiff": true,
}

// Loader resolves payload references against a base directory.
type Loader struct {
	BaseDir string
	// CacheDir receives rasterized PDF pages; defaults to BaseDir.
	CacheDir string
	// Prober is used for audio/video payloads. Nil leaves them unprobed.
	Prober Prober

	cache map[string]Info
}

func NewLoader(baseDir string, prober Prober) *Loader {
	return &Loader{BaseDir: baseDir, Prober: prober, cache: make(map[string]Info)}
}

// Path returns the filesystem path of ref.
func (l *Loader) Path(ref string) string {
	if filepath.IsAbs(ref) || l.BaseDir == "" {
		return ref
	}
	return filepath.Join(l.BaseDir, ref)
}

// Check fails with a MissingAssetError unless ref names a readable file.
func (l *Loader) Check(kind timeline.Kind, ref string) error {
	if ref == "" {
		return &timeline.MissingAssetError{Kind: kind, Ref: ref, Err: errors.New("empty reference")}
	}
	f, err := os.Open(l.Path(ref))
	if err != nil {
		return &timeline.MissingAssetError{Kind: kind, Ref: ref, Err: err}
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return &timeline.MissingAssetError{Kind: kind, Ref: ref, Err: err}
	}
	if fi.IsDir() {
		return &timeline.MissingAssetError{Kind: kind, Ref: ref, Err: errors.New("is a directory")}
	}
	return nil
}

// Probe returns the dimensions, and for media the duration, of ref.
func (l *Loader) Probe(ctx context.Context, kind timeline.Kind, ref string) (Info, error) {
	if info, ok := l.cache[ref]; ok {
		return info, nil
	}
	if err := l.Check(kind, ref); err != nil {
		return Info{}, err
	}

	path := l.Path(ref)
	ext := strings.ToLower(filepath.Ext(path))

	var info Info
	switch {
	case stillExts[ext]:
		w, h, err := imageDimensions(path)
		if err != nil {
			return Info{}, &timeline.MissingAssetError{Kind: kind, Ref: ref, Err: err}
		}
		info = Info{Width: w, Height: h, Still: true}
	case ext == ".svg":
		info = Info{Still: true}
	case ext == ".pdf":
		w, h, err := pdfDimensions(path)
		if err != nil {
			return Info{}, &timeline.MissingAssetError{Kind: kind, Ref: ref, Err: err}
		}
		info = Info{Width: w, Height: h, Still: true}
	case l.Prober != nil:
		var err error
		info, err = l.Prober.Probe(ctx, path)
		if err != nil {
			return Info{}, &timeline.MissingAssetError{Kind: kind, Ref: ref, Err: err}
		}
	}

	if l.cache == nil {
		l.cache = make(map[string]Info)
	}
	l.cache[ref] = info
	return info, nil
}

func imageDimensions(path string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}

func pdfDimensions(path string) (int, int, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return 0, 0, err
	}
	defer doc.Close()

	rect, err := doc.Bound(0)
	if err != nil {
		return 0, 0, err
	}
	return rect.Dx(), rect.Dy(), nil
}

// Rasterize renders the first page of a PDF payload to a PNG in the
// cache directory and returns its path. Other payloads are returned as
// they are.
func (l *Loader) Rasterize(ref string, dpi int) (string, error) {
	path := l.Path(ref)
	if strings.ToLower(filepath.Ext(path)) != ".pdf" {
		return ref, nil
	}

	dir := l.CacheDir
	if dir == "" {
		dir = filepath.Dir(path)
	}
	out, err := filepath.Abs(filepath.Join(dir, strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))+".png"))
	if err != nil {
		return "", err
	}
	if fi, err := os.Stat(out); err == nil && fi.Size() > 0 {
		return out, nil
	}

	doc, err := fitz.New(path)
	if err != nil {
		return "", &timeline.MissingAssetError{Kind: timeline.KindCredit, Ref: ref, Err: err}
	}
	defer doc.Close()

	img, err := doc.ImageDPI(0, float64(dpi))
	if err != nil {
		return "", fmt.Errorf("render %s: %w", ref, err)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	f, err := os.Create(out)
	if err != nil {
		return "", err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return "", err
	}
	return out, f.Close()
}

// Enrich verifies every reference of the recording and fills in the
// dimensions and durations the manifest left out. The first reference
// that cannot be resolved aborts with a MissingAssetError.
func (l *Loader) Enrich(ctx context.Context, rec timeline.Recording) (timeline.Recording, error) {
	out := rec
	out.Assets = make([]timeline.Asset, len(rec.Assets))
	out.Events = make([]timeline.RawEvent, len(rec.Events))

	for i, a := range rec.Assets {
		// Slide and annotation sequences are containers; their events
		// carry the payloads.
		if a.Kind == timeline.KindSlide || a.Kind == timeline.KindAnnotation {
			out.Assets[i] = a
			continue
		}
		info, err := l.Probe(ctx, a.Kind, a.Ref)
		if err != nil {
			return timeline.Recording{}, err
		}
		if a.Width == 0 && a.Height == 0 {
			a.Width, a.Height = info.Width, info.Height
		}
		if a.Open() && info.Duration > 0 {
			a.Duration = info.Duration
		}
		out.Assets[i] = a
	}

	// Streamed events without a ref play from their kind's recording,
	// whose ref was checked above.
	backed := make(map[timeline.Kind]bool)
	for _, a := range rec.Assets {
		switch a.Kind {
		case timeline.KindCamera, timeline.KindCameraAudio, timeline.KindScreenshare:
			backed[a.Kind] = true
		}
	}

	for i, e := range rec.Events {
		if e.Ref == "" && content(e.Kind) && !backed[e.Kind] {
			return timeline.Recording{}, &timeline.MissingAssetError{
				Kind: e.Kind,
				Ref:  e.Ref,
				Err:  fmt.Errorf("event #%d at %v has no payload and no %s recording", i, e.Timestamp, e.Kind),
			}
		}
		if e.Ref != "" && !(e.Kind == timeline.KindSlide && timeline.IsPlaceholderSlide(e.Ref)) {
			info, err := l.Probe(ctx, e.Kind, e.Ref)
			if err != nil {
				return timeline.Recording{}, err
			}
			if e.Width == 0 && e.Height == 0 {
				e.Width, e.Height = info.Width, info.Height
			}
		}
		out.Events[i] = e
	}

	return out, nil
}

// content reports whether events of kind k end up as clips that need a
// payload.
func content(k timeline.Kind) bool {
	switch k {
	case timeline.KindSlide, timeline.KindAnnotation, timeline.KindScreenshare,
		timeline.KindCamera, timeline.KindCameraAudio:
		return true
	case timeline.KindCredit, timeline.KindBackground, timeline.KindUnknown, timeline.KindFill:
		return false
	}
	return false
}
