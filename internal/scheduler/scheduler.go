package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/velvetqueue/velvetqueue/internal/models"
	"github.com/velvetqueue/velvetqueue/internal/repository"
)

// Dispatcher hands a claimed post to whatever runs the publish attempt.
type Dispatcher interface {
	Dispatch(postID int64) error
}

// Scheduler promotes due scheduled posts into the publishing pipeline. Each
// tick scans for posts whose scheduled_time has passed, claims them one by
// one and dispatches the claimed ones. A claim lost to a concurrent tick or a
// manual publish is skipped; one post's failure never stops the scan.
type Scheduler struct {
	pr repository.PostRepository
	d  Dispatcher
}

func New(pr repository.PostRepository, d Dispatcher) *Scheduler {
	return &Scheduler{pr: pr, d: d}
}

func (s *Scheduler) Tick() {
	ctx := context.Background()
	now := time.Now().UTC()

	due, err := s.pr.ListDue(ctx, now)
	if err != nil {
		slog.Error("scheduler failed to list due posts", "error", err)
		return
	}
	if len(due) == 0 {
		return
	}

	slog.Info("scheduler found due posts", "count", len(due))

	for _, post := range due {
		s.process(ctx, post.ID)
	}
}

func (s *Scheduler) process(ctx context.Context, postID int64) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("scheduler recovered from panic", "post_id", postID, "panic", r)
		}
	}()

	claimed, err := s.pr.Claim(ctx, postID, []string{models.PostStatusScheduled})
	if err != nil {
		slog.Error("scheduler failed to claim post", "post_id", postID, "error", err)
		return
	}
	if !claimed {
		// Another tick or a manual publish won the claim.
		return
	}

	if err := s.d.Dispatch(postID); err != nil {
		slog.Error("scheduler failed to dispatch post", "post_id", postID, "error", err)
		if merr := s.pr.MarkFailed(ctx, postID, "dispatch failed: "+err.Error()); merr != nil {
			slog.Error("scheduler failed to record dispatch error", "post_id", postID, "error", merr)
		}
	}
}
