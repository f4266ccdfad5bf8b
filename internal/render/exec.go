package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// ExecGateway renders pages by spawning a headless browser process per
// render. The process writes the PDF into a per-render temporary directory
// which is always removed, whether the render succeeds or not; on deadline
// expiry the process itself is killed, so a stuck browser cannot outlive
// its render.
type ExecGateway struct {
	browserPath string
	timeout     time.Duration
	extraArgs   []string
	logger      *slog.Logger
}

// NewExecGateway creates a gateway around the given headless browser
// executable with the given hard per-render deadline.
func NewExecGateway(browserPath string, timeout time.Duration, logger *slog.Logger) *ExecGateway {
	return &ExecGateway{
		browserPath: browserPath,
		timeout:     timeout,
		extraArgs: []string{
			"--headless",
			"--no-sandbox",
			"--disable-gpu",
			"--disable-dev-shm-usage",
		},
		logger: logger.With("component", "exec_gateway"),
	}
}

// Render spawns the browser, waits for it within the deadline, and returns
// the produced PDF bytes.
func (g *ExecGateway) Render(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	tempDir, err := os.MkdirTemp("", "presser-render-*")
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create temp dir: %v", ErrBackend, err)
	}
	defer func() {
		if rmErr := os.RemoveAll(tempDir); rmErr != nil {
			g.logger.Warn("failed to remove render temp dir", "dir", tempDir, "error", rmErr)
		}
	}()

	outputPath := filepath.Join(tempDir, "output.pdf")

	args := append([]string{}, g.extraArgs...)
	args = append(args, "--print-to-pdf="+outputPath, url)

	// CommandContext kills the process when the deadline expires, which is
	// the only reliable cancellation the browser offers.
	cmd := exec.CommandContext(ctx, g.browserPath, args...)
	// Orphaned browser children can hold the output pipes open after the
	// kill; don't wait on them forever.
	cmd.WaitDelay = 5 * time.Second

	started := time.Now()
	output, err := cmd.CombinedOutput()
	elapsed := time.Since(started)

	if ctxErr := ctx.Err(); errors.Is(ctxErr, context.DeadlineExceeded) {
		g.logger.Warn("render deadline expired, browser killed",
			"url", url,
			"timeout", g.timeout)
		return nil, fmt.Errorf("%w: after %s", ErrRenderTimeout, g.timeout)
	}

	if err != nil {
		g.logger.Error("browser process failed",
			"url", url,
			"error", err,
			"output", string(output))
		return nil, fmt.Errorf("%w: %v", ErrBackend, err)
	}

	data, err := os.ReadFile(outputPath)
	if err != nil {
		return nil, fmt.Errorf("%w: browser exited cleanly but produced no document: %v", ErrBackend, err)
	}

	if err := ValidatePDF(data); err != nil {
		return nil, err
	}

	g.logger.Debug("rendered page",
		"url", url,
		"bytes", len(data),
		"elapsed", elapsed)
	return data, nil
}

// Ensure ExecGateway implements Gateway
var _ Gateway = (*ExecGateway)(nil)
