package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
)

// Common render gateway errors. Every backend maps its failures onto these
// three so the worker can record a meaningful terminal reason without
// knowing which backend ran.
var (
	// ErrRenderTimeout is returned when the hard per-render deadline
	// expires before the backend produces a document.
	ErrRenderTimeout = errors.New("render timed out")

	// ErrBackend is returned when the rendering backend fails: process
	// crash, non-zero exit, transport error, or a failure it reports itself.
	ErrBackend = errors.New("render backend error")

	// ErrInvalidContent is returned when the backend produced bytes that
	// are not a PDF document.
	ErrInvalidContent = errors.New("invalid content: not a PDF document")
)

// Gateway is the capability the worker pool depends on: render the page at
// url into PDF bytes, or report one of the taxonomy errors above. The
// gateway owns the deadline; callers may pass a plain context.
type Gateway interface {
	Render(ctx context.Context, url string) ([]byte, error)
}

// pdfSignature is the structural marker every PDF document starts with.
var pdfSignature = []byte("%PDF-")

// ValidatePDF checks that data carries the minimal structural signature of
// a PDF document. It deliberately does not parse the document.
func ValidatePDF(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: empty output", ErrInvalidContent)
	}
	if !bytes.HasPrefix(data, pdfSignature) {
		return fmt.Errorf("%w: missing %%PDF- signature", ErrInvalidContent)
	}
	return nil
}
