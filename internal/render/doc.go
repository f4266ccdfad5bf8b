// Package render defines the Render Gateway: the boundary abstraction over
// the page-to-PDF rendering mechanism. The gateway enforces a hard deadline
// on every render, normalizes backend outcomes into a small error taxonomy,
// and guarantees that temporary artifacts and rendering processes are
// reclaimed on every non-success path.
//
// Two backends satisfy the same contract: ExecGateway spawns a headless
// browser process locally, and HTTPGateway delegates to a remote render
// service. The rest of the system is backend-agnostic.
package render
