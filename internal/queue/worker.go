package queue

import (
	"context"
	"encoding/json"

	"github.com/fanpost/fanpost/internal/scheduler"
	"github.com/hibiken/asynq"
)

// Worker funnels queue deliveries into the same executor the sweep
// uses; the pending claim there makes double delivery harmless.
type Worker struct {
	s *scheduler.Scheduler
}

func NewWorker(s *scheduler.Scheduler) *Worker {
	return &Worker{s: s}
}

func (w *Worker) HandlePublishIntentTask(ctx context.Context, task *asynq.Task) error {
	var payload PublishIntentPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}
	return w.s.ProcessByID(ctx, payload.IntentID)
}
