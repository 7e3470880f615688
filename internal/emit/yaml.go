package emit

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ivlev/meet2video/internal/timeline"
)

// YAMLEncoder writes the Project document as YAML.
type YAMLEncoder struct{}

func (YAMLEncoder) Extension() string { return ".yaml" }

func (YAMLEncoder) Encode(w io.Writer, tl timeline.Timeline) error {
	p, err := Build(tl)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(p); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}

	_, err = w.Write(buf.Bytes())
	return err
}

// ReadProject decodes a project document written by YAMLEncoder. Keys
// the document format does not define are rejected.
func ReadProject(path string) (*Project, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var p Project
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%s: empty project", path)
		}
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if p.Version != ProjectVersion {
		return nil, fmt.Errorf("%s: unsupported project version %q", path, p.Version)
	}
	return &p, nil
}
