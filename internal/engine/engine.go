package engine

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ivlev/meet2video/internal/config"
	"github.com/ivlev/meet2video/internal/credits"
	"github.com/ivlev/meet2video/internal/ctxlog"
	"github.com/ivlev/meet2video/internal/emit"
	"github.com/ivlev/meet2video/internal/framing"
	"github.com/ivlev/meet2video/internal/layout"
	"github.com/ivlev/meet2video/internal/manifest"
	"github.com/ivlev/meet2video/internal/normalize"
	"github.com/ivlev/meet2video/internal/planner"
	"github.com/ivlev/meet2video/internal/source"
	"github.com/ivlev/meet2video/internal/system"
	"github.com/ivlev/meet2video/internal/timeline"
	"github.com/ivlev/meet2video/internal/video"
)

// CreditDPI is the resolution PDF credits are rasterized at.
const CreditDPI = 150

// Options parameterize one pure assembly.
type Options struct {
	Normalizer normalize.Normalizer
	Window     normalize.Window
	Layout     layout.Config
	Framing    framing.Framing
	// Checker confirms framing payloads exist. Nil skips the check.
	Checker framing.Checker
}

// Assemble runs the pipeline: normalize, trim, plan, lay out, frame. It
// performs no I/O beyond what opts.Checker does.
func Assemble(rec timeline.Recording, opts Options) (timeline.Timeline, error) {
	res, err := opts.Normalizer.Normalize(rec)
	if err != nil {
		return timeline.Timeline{}, err
	}

	res, err = normalize.ApplyWindow(res, opts.Window)
	if err != nil {
		return timeline.Timeline{}, err
	}

	plan, err := planner.Build(res)
	if err != nil {
		return timeline.Timeline{}, err
	}

	tl, err := layout.Resolve(plan, opts.Layout)
	if err != nil {
		return timeline.Timeline{}, err
	}
	tl.Name = rec.Name

	if opts.Framing.IsZero() {
		return tl, nil
	}
	return framing.Compose(tl, opts.Framing, opts.Checker)
}

// Project wires the configured collaborators around Assemble.
type Project struct {
	Config  *config.Config
	Loader  *source.Loader
	Encoder emit.Encoder
	// Renderer is only used when Config.RenderTo is set.
	Renderer video.Renderer
	// Out receives the progress lines. Defaults to os.Stdout.
	Out io.Writer
}

func NewProject(cfg *config.Config, loader *source.Loader, enc emit.Encoder, r video.Renderer) *Project {
	return &Project{
		Config:   cfg,
		Loader:   loader,
		Encoder:  enc,
		Renderer: r,
		Out:      os.Stdout,
	}
}

func (p *Project) printf(format string, args ...any) {
	out := p.Out
	if out == nil {
		out = os.Stdout
	}
	fmt.Fprintf(out, format, args...)
}

// Run loads the manifest, resolves every payload, assembles the timeline
// and writes the project document to Config.OutputProject. Nothing is
// written unless assembly succeeds.
func (p *Project) Run(ctx context.Context) error {
	log := ctxlog.FromContext(ctx)
	startTime := time.Now()

	if err := p.Config.Validate(); err != nil {
		return err
	}
	if p.Config.RenderTo != "" {
		if _, ok := p.Encoder.(emit.XGESEncoder); !ok {
			return &timeline.ConfigError{Field: "render_to", Reason: "rendering needs format xges"}
		}
		if p.Renderer == nil {
			return &timeline.ConfigError{Field: "render_to", Reason: "no renderer configured"}
		}
	}

	rec, err := manifest.Load(p.Config.ManifestPath)
	if err != nil {
		return err
	}
	log.Info("manifest loaded", "path", p.Config.ManifestPath, "assets", len(rec.Assets), "events", len(rec.Events))

	rec, err = p.Loader.Enrich(ctx, rec)
	if err != nil {
		return err
	}

	fr, err := p.Framing(ctx, rec.Name)
	if err != nil {
		return err
	}

	start, end := p.Config.Window()
	opts := Options{
		Normalizer: normalize.Normalizer{
			MinDisplay: config.Seconds(p.Config.MinDisplayDuration),
			Logger:     log,
		},
		Window:  normalize.Window{Start: start, End: end},
		Layout:  p.Config.Layout(),
		Framing: fr,
		Checker: p.Loader,
	}

	p.printf("--- [MEET2VIDEO] ---\n")
	p.printf("[*] Meeting: %s | Assets: %d | Events: %d\n", rec.Name, len(rec.Assets), len(rec.Events))
	p.printf("[*] Frame: %dx%d | Margin: %d | Priority: %s\n", p.Config.Width, p.Config.Height, p.Config.Margin, p.Config.ScreensharePriority)
	p.printf("--------------------\n")

	tl, err := Assemble(rec, opts)
	if err != nil {
		return err
	}
	for _, t := range tl.Tracks {
		log.Debug("track assembled", "kind", t.Kind, "clips", len(t.Clips), "content", len(t.Content()))
	}

	var buf bytes.Buffer
	if err := p.Encoder.Encode(&buf, tl); err != nil {
		return fmt.Errorf("encode project: %w", err)
	}

	out := p.Config.OutputProject
	if out == "" {
		out = strings.TrimSuffix(p.Config.ManifestPath, filepath.Ext(p.Config.ManifestPath)) + ".project" + p.Encoder.Extension()
	}
	if dir := filepath.Dir(out); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	if err := os.WriteFile(out, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write project: %w", err)
	}
	p.printf("[+++] Project written: %s (%d tracks, %v)\n", out, len(tl.Tracks), tl.Duration)
	log.Info("project written", "path", out, "tracks", len(tl.Tracks), "duration", tl.Duration)

	var renderTime time.Duration
	if p.Config.RenderTo != "" {
		p.printf("[*] Rendering %s...\n", p.Config.RenderTo)
		renderStart := time.Now()
		if err := p.Renderer.Render(ctx, out, p.Config.RenderTo); err != nil {
			return fmt.Errorf("render: %w", err)
		}
		renderTime = time.Since(renderStart)
		p.printf("[+++] Video written: %s\n", p.Config.RenderTo)
	}

	if p.Config.ShowStats {
		p.report(ctx, time.Since(startTime), renderTime, tl)
	}
	return nil
}

func (p *Project) report(ctx context.Context, total, render time.Duration, tl timeline.Timeline) {
	var clips int
	for _, t := range tl.Tracks {
		clips += len(t.Clips)
	}

	st, err := system.Snapshot(ctx)
	if err != nil {
		ctxlog.FromContext(ctx).Warn("resource snapshot failed", "error", err)
	}

	p.printf("--- [PERFORMANCE REPORT] ---\n"+
		"Build: %s\n"+
		"Total Time: %.2fs\n"+
		"Rendering: %.2fs\n"+
		"Tracks: %d | Clips: %d\n"+
		"RSS: %.1f MiB | CPU: %.1f%% | Threads: %d\n"+
		"----------------------------\n",
		p.Config.BuildVersion, total.Seconds(), render.Seconds(),
		len(tl.Tracks), clips,
		float64(st.RSS)/(1<<20), st.CPUPercent, st.Threads,
	)
}

// Framing resolves the configured credits and background into payloads:
// credit files are probed and PDFs rasterized, and a configured duration
// without files becomes a rendered title card.
func (p *Project) Framing(ctx context.Context, meetingName string) (framing.Framing, error) {
	cfg := p.Config

	opening, err := p.credits(ctx, cfg.OpeningCredits, cfg.OpeningCreditDuration)
	if err != nil {
		return framing.Framing{}, err
	}
	if len(opening) == 0 && cfg.OpeningCreditDuration > 0 {
		c, err := p.titleCard(credits.Card{Title: firstNonEmpty(cfg.OpeningTitle, meetingName)}, "opening", cfg.OpeningCreditDuration)
		if err != nil {
			return framing.Framing{}, err
		}
		opening = append(opening, c)
	}

	closing, err := p.credits(ctx, cfg.ClosingCredits, cfg.ClosingCreditDuration)
	if err != nil {
		return framing.Framing{}, err
	}
	if len(closing) == 0 && cfg.ClosingCreditDuration > 0 {
		card := credits.Card{Title: firstNonEmpty(cfg.ClosingTitle, meetingName), QRURL: cfg.ClosingQRURL}
		c, err := p.titleCard(card, "closing", cfg.ClosingCreditDuration)
		if err != nil {
			return framing.Framing{}, err
		}
		closing = append(closing, c)
	}

	return framing.Framing{
		Opening:    opening,
		Closing:    closing,
		Background: cfg.BackgroundImage,
	}, nil
}

func (p *Project) credits(ctx context.Context, specs []string, fallback float64) ([]framing.Credit, error) {
	var out []framing.Credit
	for _, s := range specs {
		spec, err := config.ParseCredit(s)
		if err != nil {
			return nil, err
		}
		if spec.Timed && spec.Duration == 0 {
			ctxlog.FromContext(ctx).Info("skipping zero-length credit", "credit", spec.Path)
			continue
		}

		info, err := p.Loader.Probe(ctx, timeline.KindCredit, spec.Path)
		if err != nil {
			return nil, err
		}

		ref, err := p.Loader.Rasterize(spec.Path, CreditDPI)
		if err != nil {
			return nil, err
		}

		d := spec.Duration
		if !spec.Timed {
			d = config.Seconds(fallback)
		}
		if d == 0 {
			if info.Still || info.Duration == 0 {
				d = framing.DefaultStillDuration
			} else {
				d = info.Duration
			}
		}

		out = append(out, framing.Credit{
			Ref:      ref,
			Duration: d,
			Width:    info.Width,
			Height:   info.Height,
			Still:    info.Still,
		})
	}
	return out, nil
}

func (p *Project) titleCard(card credits.Card, name string, secs float64) (framing.Credit, error) {
	card.Width, card.Height = p.Config.Width, p.Config.Height

	dir := p.Loader.CacheDir
	if dir == "" {
		dir = filepath.Dir(p.Config.ManifestPath)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return framing.Credit{}, err
	}
	path, err := filepath.Abs(filepath.Join(dir, name+"-card.png"))
	if err != nil {
		return framing.Credit{}, err
	}
	if err := credits.Write(card, path); err != nil {
		return framing.Credit{}, fmt.Errorf("%s title card: %w", name, err)
	}

	return framing.Credit{
		Ref:      path,
		Duration: config.Seconds(secs),
		Width:    card.Width,
		Height:   card.Height,
		Still:    true,
	}, nil
}

func firstNonEmpty(s ...string) string {
	for _, v := range s {
		if v != "" {
			return v
		}
	}
	return ""
}
