package timeline

import (
	"fmt"
	"time"
)

// TimingError reports an offset that is negative or cannot be rebased
// onto the meeting clock.
type TimingError struct {
	Kind   Kind
	Offset time.Duration
	Seq    int
	Reason string
}

func (e *TimingError) Error() string {
	return fmt.Sprintf("timing error: %s #%d at %v: %s", e.Kind, e.Seq, e.Offset, e.Reason)
}

// InvalidRangeError reports a source event whose end precedes its start.
type InvalidRangeError struct {
	Kind  Kind
	Start time.Duration
	End   time.Duration
	Seq   int
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid range: %s #%d ends at %v before it starts at %v", e.Kind, e.Seq, e.End, e.Start)
}

// ConfigError reports invalid or contradictory configuration.
type ConfigError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("config %s: %s: %v", e.Field, e.Reason, e.Err)
	}
	return fmt.Sprintf("config %s: %s", e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// MissingAssetError reports a payload reference the loader could not
// resolve.
type MissingAssetError struct {
	Kind Kind
	Ref  string
	Err  error
}

func (e *MissingAssetError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("missing %s asset %q: %v", e.Kind, e.Ref, e.Err)
	}
	return fmt.Sprintf("missing %s asset %q", e.Kind, e.Ref)
}

func (e *MissingAssetError) Unwrap() error {
	return e.Err
}
