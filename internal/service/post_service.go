package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"time"

	"github.com/fanpost/fanpost/internal/models"
	"github.com/fanpost/fanpost/internal/publisher"
	"github.com/fanpost/fanpost/internal/repository"
	"github.com/fanpost/fanpost/internal/transfer"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const scheduledTimeLayout = "2006-01-02T15:04"

var (
	ErrNoPlatforms      = errors.New("no platforms selected")
	ErrInvalidSchedule  = errors.New("invalid scheduled time format")
	ErrPastSchedule     = errors.New("scheduled time must be in the future")
	ErrIntentNotFound   = errors.New("scheduled post doesn't exist")
	ErrIntentNotPending = errors.New("only pending scheduled posts can be cancelled")
)

// Dispatcher is the fan-out engine a post service publishes through.
type Dispatcher interface {
	DispatchAll(ctx context.Context, platforms []string, media []publisher.MediaItem, caption string, creds *publisher.Credentials) []publisher.Result
}

type PostService interface {
	PublishNow(ctx context.Context, userID int64, pc *transfer.PostCreation, files []*multipart.FileHeader) ([]publisher.Result, error)
	Schedule(ctx context.Context, userID int64, pc *transfer.PostCreation, files []*multipart.FileHeader) (*models.ScheduledIntent, error)
	ListScheduled(ctx context.Context, userID int64) ([]*models.ScheduledIntent, error)
	CancelScheduled(ctx context.Context, userID int64, intentID string) error
}

type postService struct {
	ir repository.IntentRepository
	ss SettingsService
	ms MediaService
	d  Dispatcher
}

func NewPostService(ir repository.IntentRepository, ss SettingsService, ms MediaService, d Dispatcher) PostService {
	return &postService{ir: ir, ss: ss, ms: ms, d: d}
}

// PublishNow validates the request, persists uploads and fans the post
// out synchronously. Local copies are removed once every platform has
// settled; the R2 mirror stays for platforms that pull by URL after
// returning.
func (s *postService) PublishNow(ctx context.Context, userID int64, pc *transfer.PostCreation, files []*multipart.FileHeader) ([]publisher.Result, error) {
	platforms, err := parsePlatforms(pc.Platforms)
	if err != nil {
		return nil, err
	}

	media, err := s.ms.SaveUploads(ctx, files)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer s.ms.RemoveLocal(mediaPaths(media))

	creds, err := s.ss.CredentialsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	return s.d.DispatchAll(ctx, platforms, media, pc.Caption, creds), nil
}

// Schedule persists the request as a pending intent. The schedule time
// is checked before any file is written, so a past-dated request
// leaves nothing behind.
func (s *postService) Schedule(ctx context.Context, userID int64, pc *transfer.PostCreation, files []*multipart.FileHeader) (*models.ScheduledIntent, error) {
	platforms, err := parsePlatforms(pc.Platforms)
	if err != nil {
		return nil, err
	}

	scheduledAt, err := time.ParseInLocation(scheduledTimeLayout, pc.ScheduledTime, time.Local)
	if err != nil {
		slog.Info(err.Error())
		return nil, ErrInvalidSchedule
	}
	if !scheduledAt.After(time.Now()) {
		return nil, ErrPastSchedule
	}

	media, err := s.ms.SaveUploads(ctx, files)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	id, err := gonanoid.New()
	if err != nil {
		s.ms.Remove(mediaPaths(media))
		return nil, err
	}

	intent := &models.ScheduledIntent{
		ID:          id,
		UserID:      userID,
		Platforms:   platforms,
		Caption:     pc.Caption,
		MediaPaths:  mediaPaths(media),
		ScheduledAt: scheduledAt,
		Status:      models.IntentStatusPending,
	}
	if err := s.ir.Create(ctx, intent); err != nil {
		s.ms.Remove(intent.MediaPaths)
		return nil, fmt.Errorf("error creating scheduled post: %w", err)
	}

	return intent, nil
}

func (s *postService) ListScheduled(ctx context.Context, userID int64) ([]*models.ScheduledIntent, error) {
	intents, err := s.ir.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing scheduled posts: %w", err)
	}
	return intents, nil
}

// CancelScheduled removes a pending intent and its media. Anything
// past pending is owned by the scheduler and stays put.
func (s *postService) CancelScheduled(ctx context.Context, userID int64, intentID string) error {
	intent, err := s.ir.GetByID(ctx, intentID)
	if err != nil {
		return err
	}
	if intent == nil || intent.UserID != userID {
		return ErrIntentNotFound
	}
	if intent.Status != models.IntentStatusPending {
		return ErrIntentNotPending
	}

	if err := s.ir.Remove(ctx, intentID); err != nil {
		return fmt.Errorf("error removing scheduled post: %w", err)
	}
	s.ms.Remove(intent.MediaPaths)
	return nil
}

func parsePlatforms(raw string) ([]string, error) {
	if raw == "" {
		return nil, ErrNoPlatforms
	}
	var platforms []string
	if err := json.Unmarshal([]byte(raw), &platforms); err != nil {
		return nil, fmt.Errorf("invalid platforms format: %w", err)
	}
	if len(platforms) == 0 {
		return nil, ErrNoPlatforms
	}
	return platforms, nil
}
