package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/phrazzld/presser/internal/domain"
)

// stuckJobMonitor periodically scans for jobs that have sat in the
// generating state past the configured grace period and fails them. A job
// orphaned there (worker crash mid-render, process restart) is an
// integrity violation: the monitor turns it into a recoverable terminal
// state instead of letting it stay generating forever.
func (p *Pool) stuckJobMonitor() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.config.StuckJobCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.ctx.Done():
			return

		case <-ticker.C:
			p.failStuckJobs()
		}
	}
}

// failStuckJobs fails every generating job older than StuckJobAge.
func (p *Pool) failStuckJobs() {
	ctx := context.Background()

	generating, err := p.store.ListByState(ctx, domain.JobStateGenerating)
	if err != nil {
		p.logger.Error("failed to check for stuck jobs", "error", err)
		return
	}

	cutoff := time.Now().UTC().Add(-p.config.StuckJobAge)
	for _, job := range generating {
		if job.UpdatedAt.After(cutoff) {
			continue
		}

		p.logger.Error("integrity violation: job orphaned in generating state",
			"job_id", job.ID,
			"claimed_at", job.UpdatedAt,
			"grace_period", p.config.StuckJobAge)

		reason := fmt.Sprintf("orphaned in generating state for more than %s", p.config.StuckJobAge)
		if err := p.store.TransitionToFailed(ctx, job.ID, reason); err != nil {
			// The worker may have finished in the window between the scan
			// and this transition; its terminal state stands.
			p.logger.Warn("failed to fail stuck job",
				"job_id", job.ID,
				"error", err)
		}
	}
}
