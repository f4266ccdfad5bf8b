package render

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeRenderService implements the remote render service contract:
// POST /generate_pdf, GET /pdf_status/{id}, GET /pdf/{file}.
type fakeRenderService struct {
	server *httptest.Server

	// pollsUntilDone is how many status polls report "processing" before
	// the terminal status is returned.
	pollsUntilDone int32
	polls          int32

	finalStatus string // "completed" or "failed"
	failReason  string
	document    []byte
}

func newFakeRenderService(t *testing.T) *fakeRenderService {
	t.Helper()

	f := &fakeRenderService{
		finalStatus: "completed",
		document:    []byte("%PDF-1.7\nfake document"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /generate_pdf", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.NotEmpty(t, body["url"])

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"task_id": "remote-task-1",
			"status":  "queued",
		})
	})
	mux.HandleFunc("GET /pdf_status/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if atomic.AddInt32(&f.polls, 1) <= atomic.LoadInt32(&f.pollsUntilDone) {
			_ = json.NewEncoder(w).Encode(map[string]string{
				"task_id": r.PathValue("id"),
				"status":  "processing",
			})
			return
		}

		resp := map[string]string{
			"task_id": r.PathValue("id"),
			"status":  f.finalStatus,
		}
		if f.finalStatus == "completed" {
			resp["pdf_url"] = f.server.URL + "/pdf/out.pdf"
		} else {
			resp["error"] = f.failReason
		}
		_ = json.NewEncoder(w).Encode(resp)
	})
	mux.HandleFunc("GET /pdf/{file}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write(f.document)
	})

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

// newTestHTTPGateway builds a gateway against the fake service with a
// short poll interval so the tests stay fast.
func newTestHTTPGateway(f *fakeRenderService, timeout time.Duration) *HTTPGateway {
	g := NewHTTPGateway(f.server.URL, timeout, testLogger())
	g.pollInterval = 5 * time.Millisecond
	return g
}

func TestHTTPGateway_Render(t *testing.T) {
	t.Parallel()

	t.Run("successful render", func(t *testing.T) {
		t.Parallel()

		f := newFakeRenderService(t)
		f.pollsUntilDone = 2
		g := newTestHTTPGateway(f, 5*time.Second)

		data, err := g.Render(context.Background(), "https://example.com")
		require.NoError(t, err)
		assert.Equal(t, f.document, data)
	})

	t.Run("remote failure maps to backend error", func(t *testing.T) {
		t.Parallel()

		f := newFakeRenderService(t)
		f.finalStatus = "failed"
		f.failReason = "navigation refused"
		g := newTestHTTPGateway(f, 5*time.Second)

		_, err := g.Render(context.Background(), "https://example.com")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrBackend)
		assert.Contains(t, err.Error(), "navigation refused")
	})

	t.Run("non-PDF document rejected", func(t *testing.T) {
		t.Parallel()

		f := newFakeRenderService(t)
		f.document = []byte("<html>not a pdf</html>")
		g := newTestHTTPGateway(f, 5*time.Second)

		_, err := g.Render(context.Background(), "https://example.com")
		assert.ErrorIs(t, err, ErrInvalidContent)
	})

	t.Run("deadline expiry maps to timeout", func(t *testing.T) {
		t.Parallel()

		f := newFakeRenderService(t)
		f.pollsUntilDone = 1 << 30 // never finishes
		g := newTestHTTPGateway(f, 50*time.Millisecond)

		start := time.Now()
		_, err := g.Render(context.Background(), "https://example.com")
		elapsed := time.Since(start)

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrRenderTimeout)
		assert.Less(t, elapsed, 2*time.Second, "timeout must be enforced promptly")
	})

	t.Run("unreachable service maps to backend error", func(t *testing.T) {
		t.Parallel()

		g := NewHTTPGateway("http://127.0.0.1:1", time.Second, testLogger())
		_, err := g.Render(context.Background(), "https://example.com")
		assert.ErrorIs(t, err, ErrBackend)
	})
}
