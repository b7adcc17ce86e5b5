package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fanpost/fanpost/internal/models"
	"github.com/fanpost/fanpost/internal/publisher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	mu      sync.Mutex
	intents map[string]*models.ScheduledIntent
	dueErr  error
}

func newMemoryStore(intents ...*models.ScheduledIntent) *memoryStore {
	s := &memoryStore{intents: make(map[string]*models.ScheduledIntent)}
	for _, intent := range intents {
		s.intents[intent.ID] = intent
	}
	return s
}

func (s *memoryStore) GetDue(ctx context.Context, now time.Time) ([]*models.ScheduledIntent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dueErr != nil {
		return nil, s.dueErr
	}
	var due []*models.ScheduledIntent
	for _, intent := range s.intents {
		if intent.Status == models.IntentStatusPending && !intent.ScheduledAt.After(now) {
			due = append(due, intent)
		}
	}
	return due, nil
}

func (s *memoryStore) GetByID(ctx context.Context, id string) (*models.ScheduledIntent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.intents[id], nil
}

func (s *memoryStore) ClaimPending(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	intent, ok := s.intents[id]
	if !ok || intent.Status != models.IntentStatusPending {
		return false, nil
	}
	intent.Status = models.IntentStatusProcessing
	return true, nil
}

func (s *memoryStore) SetOutcome(ctx context.Context, id, status string, result json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	intent, ok := s.intents[id]
	if !ok {
		return errors.New("intent not found")
	}
	intent.Status = status
	intent.Result = result
	return nil
}

func (s *memoryStore) status(id string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.intents[id].Status
}

type staticCreds struct {
	creds *publisher.Credentials
	err   error
}

func (c *staticCreds) CredentialsForUser(ctx context.Context, userID int64) (*publisher.Credentials, error) {
	return c.creds, c.err
}

type scriptedDispatcher struct {
	mu      sync.Mutex
	results []publisher.Result
	calls   int
}

func (d *scriptedDispatcher) DispatchAll(ctx context.Context, platforms []string, media []publisher.MediaItem, caption string, creds *publisher.Credentials) []publisher.Result {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	return d.results
}

func pendingIntent(id string, scheduledAt time.Time, mediaPaths ...string) *models.ScheduledIntent {
	return &models.ScheduledIntent{
		ID:          id,
		UserID:      1,
		Platforms:   []string{"telegram"},
		Caption:     "caption",
		MediaPaths:  mediaPaths,
		ScheduledAt: scheduledAt,
		Status:      models.IntentStatusPending,
	}
}

func mediaFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pic.jpg")
	require.NoError(t, os.WriteFile(path, []byte("img"), 0o644))
	return path
}

func TestTickNoDueIntents(t *testing.T) {
	store := newMemoryStore(pendingIntent("future", time.Now().Add(time.Hour)))
	dispatcher := &scriptedDispatcher{}
	s := New(store, &staticCreds{creds: &publisher.Credentials{}}, dispatcher)

	s.Tick(context.Background())

	assert.Equal(t, 0, dispatcher.calls)
	assert.Equal(t, models.IntentStatusPending, store.status("future"))
}

func TestTickCompletesDueIntent(t *testing.T) {
	path := mediaFile(t)
	store := newMemoryStore(pendingIntent("due", time.Now().Add(-time.Minute), path))
	dispatcher := &scriptedDispatcher{results: []publisher.Result{
		{Platform: "telegram", Success: true, PostID: "42"},
	}}
	s := New(store, &staticCreds{creds: &publisher.Credentials{}}, dispatcher)

	s.Tick(context.Background())

	assert.Equal(t, 1, dispatcher.calls)
	assert.Equal(t, models.IntentStatusCompleted, store.status("due"))

	var results []publisher.Result
	require.NoError(t, json.Unmarshal(store.intents["due"].Result, &results))
	require.Len(t, results, 1)
	assert.True(t, results[0].Success)
}

func TestTickPartialOutcome(t *testing.T) {
	path := mediaFile(t)
	store := newMemoryStore(pendingIntent("due", time.Now().Add(-time.Minute), path))
	dispatcher := &scriptedDispatcher{results: []publisher.Result{
		{Platform: "telegram", Success: true, PostID: "42"},
		{Platform: "facebook", Success: false, Error: "expired token"},
	}}
	s := New(store, &staticCreds{creds: &publisher.Credentials{}}, dispatcher)

	s.Tick(context.Background())

	assert.Equal(t, models.IntentStatusPartial, store.status("due"))
}

func TestTickAllFailedOutcome(t *testing.T) {
	path := mediaFile(t)
	store := newMemoryStore(pendingIntent("due", time.Now().Add(-time.Minute), path))
	dispatcher := &scriptedDispatcher{results: []publisher.Result{
		{Platform: "telegram", Success: false, Error: "chat not found"},
	}}
	s := New(store, &staticCreds{creds: &publisher.Credentials{}}, dispatcher)

	s.Tick(context.Background())

	assert.Equal(t, models.IntentStatusFailed, store.status("due"))

	var results []publisher.Result
	require.NoError(t, json.Unmarshal(store.intents["due"].Result, &results))
	require.Len(t, results, 1)
	assert.Equal(t, "chat not found", results[0].Error)
}

func TestTickCredentialLookupFailure(t *testing.T) {
	store := newMemoryStore(pendingIntent("due", time.Now().Add(-time.Minute)))
	dispatcher := &scriptedDispatcher{}
	s := New(store, &staticCreds{err: errors.New("settings store down")}, dispatcher)

	s.Tick(context.Background())

	assert.Equal(t, 0, dispatcher.calls)
	assert.Equal(t, models.IntentStatusFailed, store.status("due"))
	assert.Contains(t, string(store.intents["due"].Result), "settings store down")
}

func TestTickMissingMediaFailsIntent(t *testing.T) {
	store := newMemoryStore(pendingIntent("due", time.Now().Add(-time.Minute), "/nowhere/gone.jpg"))
	dispatcher := &scriptedDispatcher{}
	s := New(store, &staticCreds{creds: &publisher.Credentials{}}, dispatcher)

	s.Tick(context.Background())

	assert.Equal(t, 0, dispatcher.calls)
	assert.Equal(t, models.IntentStatusFailed, store.status("due"))
}

func TestTickGetDueErrorIsContained(t *testing.T) {
	store := newMemoryStore()
	store.dueErr = errors.New("connection refused")
	s := New(store, &staticCreds{creds: &publisher.Credentials{}}, &scriptedDispatcher{})

	assert.NotPanics(t, func() {
		s.Tick(context.Background())
	})
}

func TestProcessByIDSkipsNonPending(t *testing.T) {
	intent := pendingIntent("done", time.Now().Add(-time.Minute))
	intent.Status = models.IntentStatusCompleted
	store := newMemoryStore(intent)
	dispatcher := &scriptedDispatcher{}
	s := New(store, &staticCreds{creds: &publisher.Credentials{}}, dispatcher)

	require.NoError(t, s.ProcessByID(context.Background(), "done"))
	require.NoError(t, s.ProcessByID(context.Background(), "missing"))

	assert.Equal(t, 0, dispatcher.calls)
}

func TestProcessByIDExecutesPending(t *testing.T) {
	path := mediaFile(t)
	store := newMemoryStore(pendingIntent("due", time.Now().Add(-time.Minute), path))
	dispatcher := &scriptedDispatcher{results: []publisher.Result{
		{Platform: "telegram", Success: true},
	}}
	s := New(store, &staticCreds{creds: &publisher.Credentials{}}, dispatcher)

	require.NoError(t, s.ProcessByID(context.Background(), "due"))

	assert.Equal(t, 1, dispatcher.calls)
	assert.Equal(t, models.IntentStatusCompleted, store.status("due"))
}

func TestStartStopIdempotent(t *testing.T) {
	store := newMemoryStore()
	s := New(store, &staticCreds{creds: &publisher.Credentials{}}, &scriptedDispatcher{})

	assert.False(t, s.Running())

	s.Start()
	s.Start()
	assert.True(t, s.Running())

	s.Stop()
	s.Stop()
	assert.False(t, s.Running())
}

func TestStartRunsImmediateTick(t *testing.T) {
	path := mediaFile(t)
	store := newMemoryStore(pendingIntent("due", time.Now().Add(-time.Minute), path))
	dispatcher := &scriptedDispatcher{results: []publisher.Result{
		{Platform: "telegram", Success: true},
	}}
	s := New(store, &staticCreds{creds: &publisher.Credentials{}}, dispatcher)

	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool {
		return store.status("due") == models.IntentStatusCompleted
	}, 2*time.Second, 10*time.Millisecond)
}
