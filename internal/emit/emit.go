package emit

import (
	"fmt"
	"io"

	"github.com/ivlev/meet2video/internal/timeline"
)

// Encoder serializes a timeline. Implementations are deterministic: the
// same timeline always produces the same bytes.
type Encoder interface {
	Encode(w io.Writer, tl timeline.Timeline) error
	Extension() string
}

// ForFormat returns the encoder for a configured output format.
func ForFormat(format, baseDir string) (Encoder, error) {
	switch format {
	case "", "yaml":
		return YAMLEncoder{}, nil
	case "xges":
		return XGESEncoder{BaseDir: baseDir}, nil
	}
	return nil, &timeline.ConfigError{Field: "format", Reason: fmt.Sprintf("unknown output format %q", format)}
}
