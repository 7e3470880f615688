package video

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
)

// Renderer turns an emitted project into a video file.
type Renderer interface {
	Render(ctx context.Context, projectPath, outputPath string) error
}

// GESRenderer renders XGES projects with ges-launch-1.0.
type GESRenderer struct {
	Binary string
	// Profile is passed as --format, e.g. an encoding-target name. Empty
	// uses the profile stored in the project.
	Profile string
}

func (r *GESRenderer) args(projectPath, outputPath string) ([]string, error) {
	absProject, err := filepath.Abs(projectPath)
	if err != nil {
		return nil, err
	}
	absOutput, err := filepath.Abs(outputPath)
	if err != nil {
		return nil, err
	}

	args := []string{
		"--load", "file://" + absProject,
		"-o", "file://" + absOutput,
	}
	if r.Profile != "" {
		args = append(args, "--format", r.Profile)
	}
	return args, nil
}

func (r *GESRenderer) Render(ctx context.Context, projectPath, outputPath string) error {
	bin := r.Binary
	if bin == "" {
		bin = "ges-launch-1.0"
	}

	args, err := r.args(projectPath, outputPath)
	if err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, bin, args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ges-launch error: %v, output: %s", err, out.String())
	}
	return nil
}
