package queue

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"
)

// HandlePublishPostTask runs the publish attempt for a post the scheduler
// claimed. Publish failures are already recorded on the post, so the handler
// returns nil for them; returning an error would put the task back on the
// queue and violate the one-attempt-per-claim policy.
func (q *Queue) HandlePublishPostTask(ctx context.Context, task *asynq.Task) error {
	var payload PublishPostPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}

	if _, err := q.ps.PublishClaimed(ctx, payload.PostID); err != nil {
		slog.Error("scheduled publish failed", "post_id", payload.PostID, "error", err)
	}

	return nil
}
