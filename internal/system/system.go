package system

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/ivlev/meet2video/internal/source"
)

// FFProbe probes media payloads with the ffprobe binary.
type FFProbe struct {
	Binary string
}

type ffprobeOutput struct {
	Streams []struct {
		CodecType string `json:"codec_type"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

func (p FFProbe) Probe(ctx context.Context, path string) (source.Info, error) {
	bin := p.Binary
	if bin == "" {
		bin = "ffprobe"
	}

	cmd := exec.CommandContext(ctx, bin,
		"-v", "error",
		"-show_entries", "format=duration:stream=codec_type,width,height",
		"-of", "json",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return source.Info{}, fmt.Errorf("ffprobe %s: %w", path, err)
	}

	return parseProbe(out)
}

func parseProbe(out []byte) (source.Info, error) {
	var parsed ffprobeOutput
	if err := json.Unmarshal(out, &parsed); err != nil {
		return source.Info{}, fmt.Errorf("ffprobe output: %w", err)
	}

	var info source.Info
	for _, s := range parsed.Streams {
		if s.CodecType == "video" && info.Width == 0 {
			info.Width, info.Height = s.Width, s.Height
		}
	}

	if d := strings.TrimSpace(parsed.Format.Duration); d != "" && d != "N/A" {
		secs, err := strconv.ParseFloat(d, 64)
		if err != nil {
			return source.Info{}, fmt.Errorf("ffprobe duration %q: %w", d, err)
		}
		info.Duration = time.Duration(math.Round(secs * float64(time.Second)))
	}

	return info, nil
}

// Stats is a resource snapshot of this process.
type Stats struct {
	RSS        uint64
	CPUPercent float64
	Threads    int32
}

// Snapshot reads the current process's resource use.
func Snapshot(ctx context.Context) (Stats, error) {
	proc, err := process.NewProcessWithContext(ctx, int32(os.Getpid()))
	if err != nil {
		return Stats{}, err
	}

	var st Stats
	if mem, err := proc.MemoryInfoWithContext(ctx); err == nil {
		st.RSS = mem.RSS
	}
	if cpu, err := proc.CPUPercentWithContext(ctx); err == nil {
		st.CPUPercent = cpu
	}
	if n, err := proc.NumThreadsWithContext(ctx); err == nil {
		st.Threads = n
	}
	return st, nil
}
