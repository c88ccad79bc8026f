package queue

import (
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"
)

// EnqueuePublish hands a claimed post to the publish worker. MaxRetry is zero
// on purpose: a failed attempt is terminal until someone explicitly retries,
// so the queue must never re-run it on its own.
func EnqueuePublish(asynqClient *asynq.Client, payload PublishPostPayload) error {
	taskPayload, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	task := asynq.NewTask(TaskTypePublishPost, taskPayload, asynq.MaxRetry(0))

	if _, err = asynqClient.Enqueue(task); err != nil {
		return err
	}

	slog.Info("publish task enqueued", "post_id", payload.PostID)
	return nil
}

// Dispatcher adapts an asynq client to the scheduler's dispatch seam.
type Dispatcher struct {
	client *asynq.Client
}

func NewDispatcher(client *asynq.Client) *Dispatcher {
	return &Dispatcher{client: client}
}

func (d *Dispatcher) Dispatch(postID int64) error {
	return EnqueuePublish(d.client, PublishPostPayload{PostID: postID})
}
