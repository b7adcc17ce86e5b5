package job

import (
	"context"
	"log"
	"time"

	"github.com/fanpost/fanpost/internal/repository"
	"github.com/fanpost/fanpost/internal/service"
)

// retention is how long media of a finished intent stays around; long
// enough for URL-pull platforms to fetch it.
const retention = 24 * time.Hour

// MediaCleanupJob garbage-collects media files of intents that reached
// a terminal status a while ago.
type MediaCleanupJob struct {
	ir repository.IntentRepository
	ms service.MediaService
}

func NewMediaCleanupJob(ir repository.IntentRepository, ms service.MediaService) *MediaCleanupJob {
	return &MediaCleanupJob{ir: ir, ms: ms}
}

func (j *MediaCleanupJob) Run() {
	ctx := context.Background()

	intents, err := j.ir.GetFinishedBefore(ctx, time.Now().Add(-retention))
	if err != nil {
		log.Printf("media cleanup: %v", err)
		return
	}

	for _, intent := range intents {
		j.ms.Remove(intent.MediaPaths)
		if err := j.ir.ClearMediaPaths(ctx, intent.ID); err != nil {
			log.Printf("media cleanup: %v", err)
		}
	}
	if len(intents) > 0 {
		log.Printf("media cleanup: collected files of %d finished posts", len(intents))
	}
}
