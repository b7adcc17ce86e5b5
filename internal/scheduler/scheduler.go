package scheduler

import (
	"context"
	"encoding/json"
	"log"
	"log/slog"
	"sync"
	"time"

	"github.com/fanpost/fanpost/internal/models"
	"github.com/fanpost/fanpost/internal/publisher"
	"github.com/robfig/cron"
)

const tickSpec = "@every 0h1m0s"

// IntentStore is the slice of the intent repository the scheduler
// needs. The scheduler is the only actor that moves an intent out of
// pending.
type IntentStore interface {
	GetDue(ctx context.Context, now time.Time) ([]*models.ScheduledIntent, error)
	GetByID(ctx context.Context, id string) (*models.ScheduledIntent, error)
	ClaimPending(ctx context.Context, id string) (bool, error)
	SetOutcome(ctx context.Context, id, status string, result json.RawMessage) error
}

type CredentialSource interface {
	CredentialsForUser(ctx context.Context, userID int64) (*publisher.Credentials, error)
}

type Dispatcher interface {
	DispatchAll(ctx context.Context, platforms []string, media []publisher.MediaItem, caption string, creds *publisher.Credentials) []publisher.Result
}

// Scheduler replays due intents through the dispatcher. One tick runs
// immediately on Start, then every minute; due intents within a tick
// are processed one at a time so a backlog never floods credential
// lookups or disk reads.
type Scheduler struct {
	intents    IntentStore
	creds      CredentialSource
	dispatcher Dispatcher

	now func() time.Time

	mu      sync.Mutex
	cron    *cron.Cron
	running bool
}

func New(intents IntentStore, creds CredentialSource, dispatcher Dispatcher) *Scheduler {
	return &Scheduler{
		intents:    intents,
		creds:      creds,
		dispatcher: dispatcher,
		now:        time.Now,
	}
}

// Start is idempotent; calling it on a running scheduler does nothing.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}

	s.cron = cron.New()
	s.cron.AddFunc(tickSpec, func() {
		s.Tick(context.Background())
	})
	s.cron.Start()
	s.running = true

	go s.Tick(context.Background())
}

func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.cron.Stop()
	s.cron = nil
	s.running = false
}

func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Tick drains all currently due intents. Any failure is contained to
// this tick; the next one still fires.
func (s *Scheduler) Tick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("scheduler tick panicked: %v", r)
		}
	}()

	due, err := s.intents.GetDue(ctx, s.now())
	if err != nil {
		slog.Error("scheduler tick: querying due intents failed", "error", err)
		return
	}

	for _, intent := range due {
		s.process(ctx, intent)
	}
}

// ProcessByID executes a single intent if it is still pending. The
// queue worker delivers through here; an intent the sweep already
// claimed is skipped silently.
func (s *Scheduler) ProcessByID(ctx context.Context, id string) error {
	intent, err := s.intents.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if intent == nil || intent.Status != models.IntentStatusPending {
		return nil
	}
	s.process(ctx, intent)
	return nil
}

func (s *Scheduler) process(ctx context.Context, intent *models.ScheduledIntent) {
	claimed, err := s.intents.ClaimPending(ctx, intent.ID)
	if err != nil {
		slog.Error("error claiming intent", "intent_id", intent.ID, "error", err)
		return
	}
	if !claimed {
		return
	}

	status, payload := s.execute(ctx, intent)
	if err := s.intents.SetOutcome(ctx, intent.ID, status, payload); err != nil {
		slog.Error("error persisting intent outcome", "intent_id", intent.ID, "error", err)
	}
	log.Printf("scheduled post %s finished with status %s", intent.ID, status)
}

// execute runs one claimed intent to a terminal status. The outcome is
// classified from the per-platform success flags; only a fault before
// the dispatcher produced results yields a bare error payload.
func (s *Scheduler) execute(ctx context.Context, intent *models.ScheduledIntent) (string, json.RawMessage) {
	creds, err := s.creds.CredentialsForUser(ctx, intent.UserID)
	if err != nil {
		return models.IntentStatusFailed, errorPayload(err)
	}

	media, err := publisher.MediaFromPaths(intent.MediaPaths)
	if err != nil {
		return models.IntentStatusFailed, errorPayload(err)
	}

	results := s.dispatcher.DispatchAll(ctx, intent.Platforms, media, intent.Caption, creds)

	succeeded := 0
	for _, r := range results {
		if r.Success {
			succeeded++
		}
	}

	payload, err := json.Marshal(results)
	if err != nil {
		return models.IntentStatusFailed, errorPayload(err)
	}

	switch {
	case len(results) > 0 && succeeded == len(results):
		return models.IntentStatusCompleted, payload
	case succeeded > 0:
		return models.IntentStatusPartial, payload
	default:
		return models.IntentStatusFailed, payload
	}
}

func errorPayload(err error) json.RawMessage {
	payload, marshalErr := json.Marshal(map[string]string{"error": err.Error()})
	if marshalErr != nil {
		return json.RawMessage(`{"error":"unknown"}`)
	}
	return payload
}
