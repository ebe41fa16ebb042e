// Package ffmpeg wraps the external media tools the pipeline's transform
// steps shell out to: ffmpeg, ffprobe, and demucs. Each transform reads one
// input artifact and writes one output artifact; callers decide where those
// paths live.
package ffmpeg

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"
)

// RunOptions controls how an external tool invocation streams its output.
type RunOptions struct {
	// Progress receives each output line as it is produced; nil discards.
	Progress func(line string)
}

// Run executes an external tool, streaming combined output line-by-line and
// keeping a bounded tail for error reporting.
func Run(ctx context.Context, name string, args []string, opts RunOptions) error {
	cmd := exec.CommandContext(ctx, name, args...)

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("setup stdout pipe: %w", err)
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("setup stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", name, err)
	}

	var tail strings.Builder
	var mu sync.Mutex
	var wg sync.WaitGroup

	read := func(r *bufio.Scanner) {
		defer wg.Done()
		buf := make([]byte, 0, 64*1024)
		r.Buffer(buf, 1024*1024)
		r.Split(splitByNewlineOrCR)
		for r.Scan() {
			line := r.Text()
			mu.Lock()
			appendLimited(&tail, line)
			mu.Unlock()
			if opts.Progress != nil {
				opts.Progress(line)
			}
		}
	}

	wg.Add(2)
	go read(bufio.NewScanner(stdoutPipe))
	go read(bufio.NewScanner(stderrPipe))
	wg.Wait()

	if err := cmd.Wait(); err != nil {
		mu.Lock()
		defer mu.Unlock()
		return fmt.Errorf("%s failed: %w\n%s", name, err, strings.TrimSpace(tail.String()))
	}
	return nil
}

// Output runs a tool and returns its trimmed stdout, for short probe-style
// invocations.
func Output(ctx context.Context, name string, args []string) (string, error) {
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return "", fmt.Errorf("%s failed: %w\n%s", name, err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", fmt.Errorf("%s failed: %w", name, err)
	}
	return strings.TrimSpace(string(out)), nil
}

// ffmpeg writes progress with carriage returns, so split on either.
func splitByNewlineOrCR(data []byte, atEOF bool) (advance int, token []byte, err error) {
	for i := 0; i < len(data); i++ {
		if data[i] == '\n' || data[i] == '\r' {
			if i == 0 {
				return 1, nil, nil
			}
			return i + 1, data[:i], nil
		}
	}
	if atEOF && len(data) > 0 {
		return len(data), data, nil
	}
	return 0, nil, nil
}

func appendLimited(b *strings.Builder, line string) {
	const maxKeep = 8192
	if b.Len() >= maxKeep {
		return
	}
	toWrite := line + "\n"
	remain := maxKeep - b.Len()
	if len(toWrite) > remain {
		toWrite = toWrite[:remain]
	}
	b.WriteString(toWrite)
}
