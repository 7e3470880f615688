package cli

import (
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ivlev/meet2video/internal/config"
	"github.com/ivlev/meet2video/internal/ctxlog"
	"github.com/ivlev/meet2video/internal/emit"
	"github.com/ivlev/meet2video/internal/engine"
	"github.com/ivlev/meet2video/internal/source"
	"github.com/ivlev/meet2video/internal/system"
	"github.com/ivlev/meet2video/internal/version"
	"github.com/ivlev/meet2video/internal/video"
)

// RendererFactory builds the renderer for a run.
type RendererFactory func(cfg *config.Config) video.Renderer

func defaultRenderer(*config.Config) video.Renderer {
	return &video.GESRenderer{}
}

// buildFlags holds command-line overrides. Only flags the user set are
// copied over the loaded configuration.
type buildFlags struct {
	configPath string
	output     string
	cacheDir   string

	width, height, margin, webcamSize int
	priority, corner                  string
	stretch                           bool

	start, end, minDisplay float64

	opening, closing                 []string
	openingDuration, closingDuration float64
	openingTitle, closingTitle       string
	qrURL, backdrop                  string

	format, renderTo     string
	stats                bool
	logLevel, logFormat  string
	ffprobe, gesLauncher string
}

func (f *buildFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.configPath, "config", "c", "", "YAML or TOML configuration file")
	fs.StringVarP(&f.output, "output", "o", "", "Project file to write (default: next to the manifest)")
	fs.StringVar(&f.cacheDir, "cache-dir", "", "Directory for rasterized credits and title cards")

	fs.IntVar(&f.width, "width", 0, "Output frame width in pixels")
	fs.IntVar(&f.height, "height", 0, "Output frame height in pixels")
	fs.IntVar(&f.margin, "margin", 0, "Margin around the full-frame content in pixels")
	fs.StringVar(&f.priority, "priority", "", "screenshare-full or camera-full")
	fs.StringVar(&f.corner, "corner", "", "Inset corner: top-left, top-right, bottom-left, bottom-right")
	fs.IntVar(&f.webcamSize, "webcam-size", 0, "Inset size in percent of the content region")
	fs.BoolVar(&f.stretch, "stretch-webcam", false, "Stretch 4:3 webcams to 16:9")

	fs.Float64Var(&f.start, "start", 0, "Trim: seconds into the meeting to start at")
	fs.Float64Var(&f.end, "end", 0, "Trim: seconds into the meeting to end at")
	fs.Float64Var(&f.minDisplay, "min-display", 0, "Minimum display time of instantaneous events in seconds")

	fs.StringArrayVar(&f.opening, "opening-credits", nil, "Opening credit FILE[:SECONDS] (repeatable)")
	fs.StringArrayVar(&f.closing, "closing-credits", nil, "Closing credit FILE[:SECONDS] (repeatable)")
	fs.Float64Var(&f.openingDuration, "opening-credit-duration", 0, "Default opening credit duration in seconds")
	fs.Float64Var(&f.closingDuration, "closing-credit-duration", 0, "Default closing credit duration in seconds")
	fs.StringVar(&f.openingTitle, "opening-title", "", "Title of the generated opening card")
	fs.StringVar(&f.closingTitle, "closing-title", "", "Title of the generated closing card")
	fs.StringVar(&f.qrURL, "closing-qr", "", "URL shown as a QR code on the generated closing card")
	fs.StringVar(&f.backdrop, "backdrop", "", "Background image under the whole video")

	fs.StringVar(&f.format, "format", "", "Project format: yaml or xges")
	fs.StringVar(&f.renderTo, "render", "", "Render the project to this video file (xges only)")
	fs.BoolVar(&f.stats, "stats", false, "Print a resource report")
	fs.StringVar(&f.logLevel, "log-level", "", "debug, info, warn or error")
	fs.StringVar(&f.logFormat, "log-format", "", "text or json")
	fs.StringVar(&f.ffprobe, "ffprobe", "ffprobe", "ffprobe binary")
	fs.StringVar(&f.gesLauncher, "ges-launch", "", "ges-launch-1.0 binary")
}

func (f *buildFlags) apply(fs *pflag.FlagSet, cfg *config.Config) {
	set := fs.Changed

	if set("width") {
		cfg.Width = f.width
	}
	if set("height") {
		cfg.Height = f.height
	}
	if set("margin") {
		cfg.Margin = f.margin
	}
	if set("priority") {
		cfg.ScreensharePriority = f.priority
	}
	if set("corner") {
		cfg.InsetCorner = f.corner
	}
	if set("webcam-size") {
		cfg.WebcamSize = f.webcamSize
	}
	if set("stretch-webcam") {
		cfg.StretchWebcam = f.stretch
	}
	if set("start") {
		v := f.start
		cfg.StartOffset = &v
	}
	if set("end") {
		v := f.end
		cfg.EndOffset = &v
	}
	if set("min-display") {
		cfg.MinDisplayDuration = f.minDisplay
	}
	if set("opening-credits") {
		cfg.OpeningCredits = f.opening
	}
	if set("closing-credits") {
		cfg.ClosingCredits = f.closing
	}
	if set("opening-credit-duration") {
		cfg.OpeningCreditDuration = f.openingDuration
	}
	if set("closing-credit-duration") {
		cfg.ClosingCreditDuration = f.closingDuration
	}
	if set("opening-title") {
		cfg.OpeningTitle = f.openingTitle
	}
	if set("closing-title") {
		cfg.ClosingTitle = f.closingTitle
	}
	if set("closing-qr") {
		cfg.ClosingQRURL = f.qrURL
	}
	if set("backdrop") {
		cfg.BackgroundImage = f.backdrop
	}
	if set("format") {
		cfg.Format = f.format
	}
	if set("render") {
		cfg.RenderTo = f.renderTo
	}
	if set("stats") {
		cfg.ShowStats = f.stats
	}
	if set("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if set("log-format") {
		cfg.LogFormat = f.logFormat
	}
}

func NewBuildCmd(deps *Dependencies) *cobra.Command {
	var flags buildFlags

	cmd := &cobra.Command{
		Use:   "build MANIFEST",
		Short: "Assemble a meeting into a project document",
		Long: "Reads the meeting manifest, resolves every referenced file relative to the manifest\n" +
			"(or base_dir), and writes the assembled multi-track project.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(flags.configPath)
			if err != nil {
				return err
			}
			flags.apply(cmd.Flags(), cfg)

			cfg.ManifestPath = args[0]
			cfg.OutputProject = flags.output
			cfg.BuildVersion = version.Version
			if cfg.BaseDir == "" {
				cfg.BaseDir = filepath.Dir(args[0])
			}

			logger := ctxlog.New(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())
			ctx := ctxlog.WithLogger(cmd.Context(), logger)

			enc, err := emit.ForFormat(cfg.Format, cfg.BaseDir)
			if err != nil {
				return err
			}

			loader := source.NewLoader(cfg.BaseDir, system.FFProbe{Binary: flags.ffprobe})
			loader.CacheDir = flags.cacheDir

			var renderer video.Renderer
			if cfg.RenderTo != "" {
				newRenderer := deps.NewRenderer
				if newRenderer == nil {
					newRenderer = defaultRenderer
				}
				renderer = newRenderer(cfg)
				if ges, ok := renderer.(*video.GESRenderer); ok && flags.gesLauncher != "" {
					ges.Binary = flags.gesLauncher
				}
			}

			project := engine.NewProject(cfg, loader, enc, renderer)
			project.Out = cmd.OutOrStdout()
			return project.Run(ctx)
		},
	}

	flags.register(cmd.Flags())
	return cmd
}
