package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/ivlev/meet2video/internal/layout"
	"github.com/ivlev/meet2video/internal/timeline"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "MEET2VIDEO_"

type Config struct {
	ManifestPath  string `yaml:"-" toml:"-"`
	OutputProject string `yaml:"-" toml:"-"`
	BaseDir       string `yaml:"base_dir" toml:"base_dir"`

	Width               int    `yaml:"output_width" toml:"output_width"`
	Height              int    `yaml:"output_height" toml:"output_height"`
	Margin              int    `yaml:"margin" toml:"margin"`
	ScreensharePriority string `yaml:"screenshare_priority" toml:"screenshare_priority"`
	InsetCorner         string `yaml:"inset_corner" toml:"inset_corner"`
	WebcamSize          int    `yaml:"webcam_size" toml:"webcam_size"`
	StretchWebcam       bool   `yaml:"stretch_webcam" toml:"stretch_webcam"`

	// Trim window in seconds; nil leaves that side untouched.
	StartOffset *float64 `yaml:"start_offset" toml:"start_offset"`
	EndOffset   *float64 `yaml:"end_offset" toml:"end_offset"`

	MinDisplayDuration float64 `yaml:"min_display_duration" toml:"min_display_duration"`

	OpeningCreditDuration float64  `yaml:"opening_credit_duration" toml:"opening_credit_duration"`
	ClosingCreditDuration float64  `yaml:"closing_credit_duration" toml:"closing_credit_duration"`
	OpeningCredits        []string `yaml:"opening_credits" toml:"opening_credits"`
	ClosingCredits        []string `yaml:"closing_credits" toml:"closing_credits"`
	OpeningTitle          string   `yaml:"opening_title" toml:"opening_title"`
	ClosingTitle          string   `yaml:"closing_title" toml:"closing_title"`
	ClosingQRURL          string   `yaml:"closing_qr_url" toml:"closing_qr_url"`
	BackgroundImage       string   `yaml:"background_image" toml:"background_image"`

	Format    string `yaml:"format" toml:"format"`
	RenderTo  string `yaml:"render_to" toml:"render_to"`
	ShowStats bool   `yaml:"show_stats" toml:"show_stats"`
	LogLevel  string `yaml:"log_level" toml:"log_level"`
	LogFormat string `yaml:"log_format" toml:"log_format"`

	BuildVersion string `yaml:"-" toml:"-"`
}

// Default returns the settings used when nothing is configured.
func Default() *Config {
	return &Config{
		Width:               1920,
		Height:              1080,
		ScreensharePriority: string(layout.ScreenshareFull),
		InsetCorner:         string(layout.TopRight),
		WebcamSize:          layout.DefaultInsetPercent,
		MinDisplayDuration:  0.5,
		Format:              "yaml",
		LogLevel:            "info",
		LogFormat:           "text",
	}
}

// Load reads a YAML or TOML file (chosen by extension) over the
// defaults and applies environment overrides. An empty path only applies
// the overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, &timeline.ConfigError{Field: "config", Reason: "cannot read " + path, Err: err}
		}

		switch strings.ToLower(filepath.Ext(path)) {
		case ".toml":
			if _, err := toml.Decode(string(data), cfg); err != nil {
				return nil, &timeline.ConfigError{Field: "config", Reason: "invalid TOML in " + path, Err: err}
			}
		case ".yaml", ".yml", "":
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, &timeline.ConfigError{Field: "config", Reason: "invalid YAML in " + path, Err: err}
			}
		default:
			return nil, &timeline.ConfigError{Field: "config", Reason: "unsupported config format " + filepath.Ext(path)}
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	ints := map[string]*int{
		"OUTPUT_WIDTH":  &cfg.Width,
		"OUTPUT_HEIGHT": &cfg.Height,
		"MARGIN":        &cfg.Margin,
		"WEBCAM_SIZE":   &cfg.WebcamSize,
	}
	for key, dst := range ints {
		if v := os.Getenv(EnvPrefix + key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return &timeline.ConfigError{Field: strings.ToLower(key), Reason: "invalid value in " + EnvPrefix + key, Err: err}
			}
			*dst = n
		}
	}

	strs := map[string]*string{
		"SCREENSHARE_PRIORITY": &cfg.ScreensharePriority,
		"INSET_CORNER":         &cfg.InsetCorner,
		"BACKGROUND_IMAGE":     &cfg.BackgroundImage,
		"FORMAT":               &cfg.Format,
		"LOG_LEVEL":            &cfg.LogLevel,
		"LOG_FORMAT":           &cfg.LogFormat,
	}
	for key, dst := range strs {
		if v := os.Getenv(EnvPrefix + key); v != "" {
			*dst = v
		}
	}
	return nil
}

// Validate checks the settings the layout does not check itself.
func (c *Config) Validate() error {
	if err := c.Layout().Validate(); err != nil {
		return err
	}
	if c.OpeningCreditDuration < 0 {
		return &timeline.ConfigError{Field: "opening_credit_duration", Reason: fmt.Sprintf("must not be negative, got %g", c.OpeningCreditDuration)}
	}
	if c.ClosingCreditDuration < 0 {
		return &timeline.ConfigError{Field: "closing_credit_duration", Reason: fmt.Sprintf("must not be negative, got %g", c.ClosingCreditDuration)}
	}
	if c.MinDisplayDuration < 0 {
		return &timeline.ConfigError{Field: "min_display_duration", Reason: "must not be negative"}
	}
	if c.StartOffset != nil && *c.StartOffset < 0 {
		return &timeline.ConfigError{Field: "start_offset", Reason: "must not be negative"}
	}
	if c.StartOffset != nil && c.EndOffset != nil && *c.EndOffset <= *c.StartOffset {
		return &timeline.ConfigError{Field: "end_offset", Reason: "must be after start_offset"}
	}
	if c.ClosingQRURL != "" && c.ClosingCreditDuration == 0 && len(c.ClosingCredits) == 0 {
		return &timeline.ConfigError{Field: "closing_qr_url", Reason: "needs a closing credit to appear on"}
	}
	return nil
}

// Layout returns the layout settings.
func (c *Config) Layout() layout.Config {
	return layout.Config{
		Width:         c.Width,
		Height:        c.Height,
		Margin:        c.Margin,
		Priority:      layout.Priority(c.ScreensharePriority),
		Corner:        layout.Corner(c.InsetCorner),
		InsetPercent:  c.WebcamSize,
		StretchCamera: c.StretchWebcam,
	}
}

// Seconds converts a configured number of seconds to a Duration,
// rounding to the nanosecond.
func Seconds(s float64) time.Duration {
	return time.Duration(math.Round(s * float64(time.Second)))
}

// Window returns the trim bounds.
func (c *Config) Window() (start, end *time.Duration) {
	if c.StartOffset != nil {
		d := Seconds(*c.StartOffset)
		start = &d
	}
	if c.EndOffset != nil {
		d := Seconds(*c.EndOffset)
		end = &d
	}
	return start, end
}

// CreditSpec is one FILE[:SECONDS] entry.
type CreditSpec struct {
	Path     string
	Duration time.Duration
	// Timed is set when SECONDS was given, even as zero.
	Timed bool
}

// ParseCredit splits FILE[:SECONDS]. A suffix that is not a number is
// taken as part of the file name.
func ParseCredit(s string) (CreditSpec, error) {
	i := strings.LastIndex(s, ":")
	if i <= 0 {
		return CreditSpec{Path: s}, nil
	}
	secs, err := strconv.ParseFloat(s[i+1:], 64)
	if err != nil {
		return CreditSpec{Path: s}, nil
	}
	if secs < 0 {
		return CreditSpec{}, &timeline.ConfigError{Field: "credits", Reason: fmt.Sprintf("%q has negative duration", s)}
	}
	return CreditSpec{Path: s[:i], Duration: Seconds(secs), Timed: true}, nil
}
