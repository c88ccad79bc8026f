package job

import (
	"context"
	"log/slog"
	"time"

	"github.com/velvetqueue/velvetqueue/internal/repository"
)

// StaleClaimJob releases publishing claims abandoned by a crashed process.
// A healthy attempt finishes well inside the threshold (container create +
// processing wait + publish), so anything older is an orphan.
type StaleClaimJob struct {
	pr        repository.PostRepository
	threshold time.Duration
}

func NewStaleClaimJob(pr repository.PostRepository, threshold time.Duration) *StaleClaimJob {
	return &StaleClaimJob{pr: pr, threshold: threshold}
}

func (j *StaleClaimJob) ReleaseStale() {
	ctx := context.Background()

	cutoff := time.Now().UTC().Add(-j.threshold)
	released, err := j.pr.ReleaseStaleClaims(ctx, cutoff)
	if err != nil {
		slog.Error("failed to release stale publishing claims", "error", err)
		return
	}
	if released > 0 {
		slog.Warn("released stale publishing claims", "count", released)
	}
}
