package render

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeFakeBrowser writes a shell script that mimics a headless browser's
// --print-to-pdf behavior, and returns its path.
func writeFakeBrowser(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake browser script requires a POSIX shell")
	}

	path := filepath.Join(t.TempDir(), "fake-browser")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755))
	return path
}

// printToPDFTarget extracts the output path from the script's arguments.
const printToPDFTarget = `
out=""
for arg in "$@"; do
  case "$arg" in
    --print-to-pdf=*) out="${arg#--print-to-pdf=}" ;;
  esac
done
`

func TestExecGateway_Render(t *testing.T) {
	t.Parallel()

	t.Run("successful render", func(t *testing.T) {
		t.Parallel()

		browser := writeFakeBrowser(t, printToPDFTarget+`printf '%%PDF-1.7\nfake' > "$out"`)
		g := NewExecGateway(browser, 5*time.Second, testLogger())

		data, err := g.Render(context.Background(), "https://example.com")
		require.NoError(t, err)
		assert.Equal(t, []byte("%PDF-1.7\nfake"), data)
	})

	t.Run("non-zero exit maps to backend error", func(t *testing.T) {
		t.Parallel()

		browser := writeFakeBrowser(t, `echo "renderer crashed" >&2; exit 1`)
		g := NewExecGateway(browser, 5*time.Second, testLogger())

		_, err := g.Render(context.Background(), "https://example.com")
		assert.ErrorIs(t, err, ErrBackend)
	})

	t.Run("missing output maps to backend error", func(t *testing.T) {
		t.Parallel()

		browser := writeFakeBrowser(t, `exit 0`)
		g := NewExecGateway(browser, 5*time.Second, testLogger())

		_, err := g.Render(context.Background(), "https://example.com")
		assert.ErrorIs(t, err, ErrBackend)
	})

	t.Run("non-PDF output rejected", func(t *testing.T) {
		t.Parallel()

		browser := writeFakeBrowser(t, printToPDFTarget+`printf 'not a pdf at all' > "$out"`)
		g := NewExecGateway(browser, 5*time.Second, testLogger())

		_, err := g.Render(context.Background(), "https://example.com")
		assert.ErrorIs(t, err, ErrInvalidContent)
	})

	t.Run("hung browser is killed at the deadline", func(t *testing.T) {
		t.Parallel()

		browser := writeFakeBrowser(t, `exec sleep 30`)
		g := NewExecGateway(browser, 100*time.Millisecond, testLogger())

		start := time.Now()
		_, err := g.Render(context.Background(), "https://example.com")
		elapsed := time.Since(start)

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrRenderTimeout)
		assert.Less(t, elapsed, 5*time.Second, "deadline must kill the process, not wait for it")
	})

	t.Run("missing browser executable maps to backend error", func(t *testing.T) {
		t.Parallel()

		g := NewExecGateway("/nonexistent/browser", time.Second, testLogger())
		_, err := g.Render(context.Background(), "https://example.com")
		assert.ErrorIs(t, err, ErrBackend)
	})
}
