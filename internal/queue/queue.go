package queue

import (
	"encoding/json"
	"log"
	"time"

	"github.com/hibiken/asynq"
)

const TaskTypePublishIntent = "intent:publish"

type PublishIntentPayload struct {
	IntentID string `json:"intent_id"`
}

// EnqueueIntent schedules prompt delivery of an intent through Redis.
// The scheduler's minute sweep covers anything the queue loses, so a
// failed enqueue is not fatal to the intent.
func EnqueueIntent(client *asynq.Client, payload PublishIntentPayload, delay time.Duration) error {
	taskPayload, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	task := asynq.NewTask(TaskTypePublishIntent, taskPayload)

	_, err = client.Enqueue(task, asynq.ProcessIn(delay))
	if err != nil {
		return err
	}

	log.Printf("Intent delivery scheduled: %+v", payload)
	return nil
}
