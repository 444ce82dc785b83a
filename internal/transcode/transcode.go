// Package transcode converts an ingested media stream into an HLS playlist
// by piping it into an encoder child process.
package transcode

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
)

const DefaultBinary = "ffmpeg"

// Transcoder runs one encoder process per conversion.
type Transcoder struct {
	// Binary is the encoder executable. If empty, DefaultBinary is used.
	Binary string

	Logger *slog.Logger
}

// Args returns the encoder arguments for a one-shot stdin to HLS conversion
// writing the playlist to output.
func Args(output string) []string {
	return []string{
		"-y",
		"-i", "pipe:0",
		"-c", "copy",
		"-start_number", "0",
		"-hls_time", "10",
		"-hls_list_size", "0",
		"-f", "hls",
		output,
	}
}

func (t *Transcoder) binary() string {
	if t != nil && t.Binary != "" {
		return t.Binary
	}
	return DefaultBinary
}

func (t *Transcoder) logger() *slog.Logger {
	if t != nil && t.Logger != nil {
		return t.Logger
	}
	return slog.New(slog.DiscardHandler)
}

// Run creates the output directory, starts the encoder with piped stdin,
// streams input into it and waits for the process to exit. Cancelling ctx
// kills the process.
func (t *Transcoder) Run(ctx context.Context, input io.Reader, output string) error {
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	bin := t.binary()
	logger := t.logger().With("binary", bin, "output", output)

	cmd := exec.CommandContext(ctx, bin, Args(output)...)
	cmd.Stdout = &logWriter{logger: logger, stream: "stdout"}
	cmd.Stderr = &logWriter{logger: logger, stream: "stderr"}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("open stdin: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", bin, err)
	}
	logger.Info("transcoder started", "pid", cmd.Process.Pid)

	n, copyErr := io.Copy(stdin, input)
	closeErr := stdin.Close()

	if err := cmd.Wait(); err != nil {
		logger.Error("transcoder failed", "error", err, "bytes", n)
		return fmt.Errorf("%s exited: %w", bin, err)
	}
	if copyErr != nil {
		return fmt.Errorf("write input: %w", copyErr)
	}
	if closeErr != nil {
		return fmt.Errorf("close input: %w", closeErr)
	}

	logger.Info("transcoder completed", "bytes", n)
	return nil
}

// logWriter forwards process output to the logger line by line.
type logWriter struct {
	logger *slog.Logger
	stream string
}

func (w *logWriter) Write(p []byte) (int, error) {
	total := len(p)
	for len(p) > 0 {
		idx := bytes.IndexByte(p, '\n')
		var line []byte
		if idx == -1 {
			line = p
			p = nil
		} else {
			line = p[:idx]
			p = p[idx+1:]
		}
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		w.logger.Debug(string(line), "stream", w.stream)
	}
	return total, nil
}
