package handlers

import (
	"errors"
	"log"
	"log/slog"
	"time"

	"github.com/fanpost/fanpost/internal/queue"
	"github.com/fanpost/fanpost/internal/service"
	"github.com/fanpost/fanpost/internal/transfer"
	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
)

type PostHandler struct {
	s           service.PostService
	AsynqClient *asynq.Client
}

func NewPostHandler(service service.PostService, asynqClient *asynq.Client) *PostHandler {
	return &PostHandler{s: service, AsynqClient: asynqClient}
}

// PublishNow fans the post out synchronously and reports one result
// per requested platform. Only a batch with zero successes is an
// overall error; partial success is a valid outcome.
func (h *PostHandler) PublishNow(c *fiber.Ctx) error {
	userID := GetUserID(c)

	form, err := c.MultipartForm()
	if err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse form",
		})
	}

	pc := &transfer.PostCreation{
		Caption:   c.FormValue("caption"),
		Platforms: c.FormValue("platforms"),
	}

	results, err := h.s.PublishNow(c.Context(), userID, pc, form.File["files"])
	if err != nil {
		return c.Status(statusForError(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	succeeded := 0
	for _, r := range results {
		if r.Success {
			succeeded++
		}
	}

	status := fiber.StatusOK
	switch {
	case succeeded == 0:
		status = fiber.StatusInternalServerError
	case succeeded < len(results):
		status = fiber.StatusMultiStatus
	}

	return c.Status(status).JSON(fiber.Map{
		"results":         results,
		"success":         succeeded == len(results),
		"partial_success": succeeded > 0 && succeeded < len(results),
	})
}

func (h *PostHandler) SchedulePost(c *fiber.Ctx) error {
	userID := GetUserID(c)

	form, err := c.MultipartForm()
	if err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse form",
		})
	}

	pc := &transfer.PostCreation{
		Caption:       c.FormValue("caption"),
		Platforms:     c.FormValue("platforms"),
		ScheduledTime: c.FormValue("scheduled_time"),
	}

	intent, err := h.s.Schedule(c.Context(), userID, pc, form.File["files"])
	if err != nil {
		return c.Status(statusForError(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	delay := time.Until(intent.ScheduledAt)
	if delay < 0 {
		delay = 0
	}
	// The minute sweep will still pick the intent up if the queue
	// loses this task.
	if err := queue.EnqueueIntent(h.AsynqClient, queue.PublishIntentPayload{IntentID: intent.ID}, delay); err != nil {
		log.Printf("Error enqueueing scheduled post %s: %v", intent.ID, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":      "Post scheduled successfully",
		"id":           intent.ID,
		"scheduled_at": intent.ScheduledAt,
	})
}

func (h *PostHandler) ListScheduled(c *fiber.Ctx) error {
	userID := GetUserID(c)

	intents, err := h.s.ListScheduled(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to list scheduled posts",
		})
	}

	return c.Status(fiber.StatusOK).JSON(intents)
}

func (h *PostHandler) CancelScheduled(c *fiber.Ctx) error {
	userID := GetUserID(c)
	intentID := c.Query("id")

	err := h.s.CancelScheduled(c.Context(), userID, intentID)
	switch {
	case err == nil:
		return c.SendStatus(fiber.StatusOK)
	case errors.Is(err, service.ErrIntentNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": err.Error(),
		})
	case errors.Is(err, service.ErrIntentNotPending):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": err.Error(),
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to cancel scheduled post",
		})
	}
}

func statusForError(err error) int {
	for _, validation := range []error{
		service.ErrNoPlatforms,
		service.ErrNoFiles,
		service.ErrMixedMedia,
		service.ErrMultipleVideos,
		service.ErrInvalidSchedule,
		service.ErrPastSchedule,
	} {
		if errors.Is(err, validation) {
			return fiber.StatusBadRequest
		}
	}
	return fiber.StatusInternalServerError
}
