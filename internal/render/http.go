package render

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// HTTPGateway delegates rendering to a remote render service. The service
// contract is asynchronous on its side (submit, poll, download), but the
// gateway folds it into the synchronous Render call bounded by one hard
// deadline covering all three phases.
type HTTPGateway struct {
	baseURL      string
	timeout      time.Duration
	pollInterval time.Duration
	client       *http.Client
	logger       *slog.Logger
}

// NewHTTPGateway creates a gateway that talks to the render service at
// baseURL with the given hard per-render deadline.
func NewHTTPGateway(baseURL string, timeout time.Duration, logger *slog.Logger) *HTTPGateway {
	return &HTTPGateway{
		baseURL:      strings.TrimRight(baseURL, "/"),
		timeout:      timeout,
		pollInterval: 500 * time.Millisecond,
		client:       &http.Client{},
		logger:       logger.With("component", "http_gateway"),
	}
}

// submitResponse is the render service's reply to a submission.
type submitResponse struct {
	TaskID string `json:"task_id"`
	Status string `json:"status"`
	Detail string `json:"detail"`
}

// statusResponse is the render service's reply to a status poll.
type statusResponse struct {
	TaskID string `json:"task_id"`
	Status string `json:"status"`
	PDFURL string `json:"pdf_url"`
	Error  string `json:"error"`
}

// Render submits the URL to the remote service, polls until the service
// reports a terminal outcome, and downloads the produced document.
func (g *HTTPGateway) Render(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	taskID, err := g.submit(ctx, url)
	if err != nil {
		return nil, err
	}

	pdfURL, err := g.awaitCompletion(ctx, taskID)
	if err != nil {
		return nil, err
	}

	data, err := g.download(ctx, pdfURL)
	if err != nil {
		return nil, err
	}

	if err := ValidatePDF(data); err != nil {
		return nil, err
	}
	return data, nil
}

func (g *HTTPGateway) submit(ctx context.Context, url string) (string, error) {
	body, err := json.Marshal(map[string]string{"url": url})
	if err != nil {
		return "", fmt.Errorf("%w: failed to marshal request: %v", ErrBackend, err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		g.baseURL+"/generate_pdf",
		bytes.NewReader(body),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBackend, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", g.mapTransportError(ctx, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusAccepted {
		return "", fmt.Errorf("%w: render service returned %d on submit", ErrBackend, resp.StatusCode)
	}

	var submitted submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&submitted); err != nil {
		return "", fmt.Errorf("%w: failed to decode submit response: %v", ErrBackend, err)
	}
	if submitted.TaskID == "" {
		return "", fmt.Errorf("%w: render service accepted without a task id", ErrBackend)
	}

	g.logger.Debug("submitted render to remote service", "remote_task_id", submitted.TaskID)
	return submitted.TaskID, nil
}

func (g *HTTPGateway) awaitCompletion(ctx context.Context, taskID string) (string, error) {
	ticker := time.NewTicker(g.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return "", g.mapTransportError(ctx, ctx.Err())
		case <-ticker.C:
		}

		status, err := g.pollStatus(ctx, taskID)
		if err != nil {
			return "", err
		}

		switch status.Status {
		case "completed":
			if status.PDFURL == "" {
				return "", fmt.Errorf("%w: completed without a document URL", ErrBackend)
			}
			return status.PDFURL, nil
		case "failed":
			reason := status.Error
			if reason == "" {
				reason = "remote render failed"
			}
			return "", fmt.Errorf("%w: %s", ErrBackend, reason)
		default:
			// queued / processing: keep polling until the deadline.
		}
	}
}

func (g *HTTPGateway) pollStatus(ctx context.Context, taskID string) (*statusResponse, error) {
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodGet,
		g.baseURL+"/pdf_status/"+taskID,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackend, err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, g.mapTransportError(ctx, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: render service returned %d on status poll", ErrBackend, resp.StatusCode)
	}

	var status statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("%w: failed to decode status response: %v", ErrBackend, err)
	}
	return &status, nil
}

func (g *HTTPGateway) download(ctx context.Context, pdfURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pdfURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackend, err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, g.mapTransportError(ctx, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: render service returned %d on download", ErrBackend, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, g.mapTransportError(ctx, err)
	}
	return data, nil
}

// mapTransportError folds a transport-level failure into the gateway
// taxonomy: deadline expiry becomes ErrRenderTimeout, everything else
// ErrBackend.
func (g *HTTPGateway) mapTransportError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: after %s", ErrRenderTimeout, g.timeout)
	}
	return fmt.Errorf("%w: %v", ErrBackend, err)
}

// Ensure HTTPGateway implements Gateway
var _ Gateway = (*HTTPGateway)(nil)
