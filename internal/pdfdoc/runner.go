package pdfdoc

import (
	"bytes"
	"context"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

// Runner lets us stub external commands in tests.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	start := time.Now()

	cmd := exec.CommandContext(ctx, name, args...)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb

	err := cmd.Run()
	logger := slog.Default().With("cmd", name, "args", strings.Join(args, " "), "duration_ms", time.Since(start).Milliseconds())
	if err != nil {
		logger.Warn("text fallback command failed", "error", err, "stderr", truncate(errb.String(), 4<<10))
	} else {
		logger.Debug("text fallback command ok", "stdout_bytes", out.Len())
	}
	return out.Bytes(), errb.Bytes(), err
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "...(truncated)"
}
