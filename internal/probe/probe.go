// Package probe reads technical stream details from media files with ffprobe.
package probe

import (
	"context"
	"fmt"
	"time"

	"gopkg.in/vansante/go-ffprobe.v2"

	"github.com/Digital-Shane/namer/internal/errs"
)

const name = "ffprobe"

// DefaultTimeout bounds a single ffprobe run.
const DefaultTimeout = 15 * time.Second

// probeFunc defines the function signature used to execute ffprobe.
type probeFunc func(ctx context.Context, path string, extraOpts ...string) (*ffprobe.ProbeData, error)

// Prober derives quality tokens from the streams of a media file.
type Prober struct {
	probe   probeFunc
	timeout time.Duration
}

// New creates a Prober that runs the ffprobe binary from PATH.
func New(timeout time.Duration) *Prober {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Prober{probe: ffprobe.ProbeURL, timeout: timeout}
}

// Quality returns the resolution, video codec and audio codec of path,
// in that order, skipping what ffprobe does not report.
func (p *Prober) Quality(ctx context.Context, path string) ([]string, error) {
	if path == "" {
		return nil, errs.Validation(name, "a file path is required")
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	data, err := p.probe(ctx, path)
	if err != nil {
		return nil, errs.Network(name, err, "probe failed for %s", path)
	}
	if data == nil {
		return nil, nil
	}

	var tokens []string
	if v := data.FirstVideoStream(); v != nil {
		if res := resolution(v.Height); res != "" {
			tokens = append(tokens, res)
		}
		if codec := codecName(v); codec != "" {
			tokens = append(tokens, codec)
		}
	}
	if a := data.FirstAudioStream(); a != nil {
		if codec := codecName(a); codec != "" {
			tokens = append(tokens, codec)
		}
	}
	return tokens, nil
}

// resolution names a frame height the way release names do.
func resolution(height int) string {
	switch {
	case height <= 0:
		return ""
	case height >= 2000:
		return "2160p"
	case height >= 1000:
		return "1080p"
	case height >= 700:
		return "720p"
	case height >= 560:
		return "576p"
	default:
		return fmt.Sprintf("%dp", height)
	}
}

func codecName(stream *ffprobe.Stream) string {
	if stream.CodecName != "" {
		return stream.CodecName
	}
	return stream.CodecLongName
}
