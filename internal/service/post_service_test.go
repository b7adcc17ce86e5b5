package service

import (
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"testing"
	"time"

	"github.com/fanpost/fanpost/internal/models"
	"github.com/fanpost/fanpost/internal/publisher"
	"github.com/fanpost/fanpost/internal/transfer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeIntentRepo struct {
	intents   map[string]*models.ScheduledIntent
	createErr error
	removed   []string
}

func newFakeIntentRepo(intents ...*models.ScheduledIntent) *fakeIntentRepo {
	r := &fakeIntentRepo{intents: make(map[string]*models.ScheduledIntent)}
	for _, intent := range intents {
		r.intents[intent.ID] = intent
	}
	return r
}

func (r *fakeIntentRepo) Create(ctx context.Context, intent *models.ScheduledIntent) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.intents[intent.ID] = intent
	return nil
}

func (r *fakeIntentRepo) GetByID(ctx context.Context, id string) (*models.ScheduledIntent, error) {
	return r.intents[id], nil
}

func (r *fakeIntentRepo) GetByUserID(ctx context.Context, userID int64) ([]*models.ScheduledIntent, error) {
	var out []*models.ScheduledIntent
	for _, intent := range r.intents {
		if intent.UserID == userID {
			out = append(out, intent)
		}
	}
	return out, nil
}

func (r *fakeIntentRepo) GetDue(ctx context.Context, now time.Time) ([]*models.ScheduledIntent, error) {
	return nil, nil
}

func (r *fakeIntentRepo) GetFinishedBefore(ctx context.Context, cutoff time.Time) ([]*models.ScheduledIntent, error) {
	return nil, nil
}

func (r *fakeIntentRepo) ClaimPending(ctx context.Context, id string) (bool, error) {
	return false, nil
}

func (r *fakeIntentRepo) SetOutcome(ctx context.Context, id, status string, result json.RawMessage) error {
	return nil
}

func (r *fakeIntentRepo) ClearMediaPaths(ctx context.Context, id string) error {
	return nil
}

func (r *fakeIntentRepo) Remove(ctx context.Context, id string) error {
	r.removed = append(r.removed, id)
	delete(r.intents, id)
	return nil
}

type fakeSettings struct {
	creds *publisher.Credentials
	err   error
}

func (s *fakeSettings) UpdateCredentials(ctx context.Context, userID int64, platform string, fields map[string]string) error {
	return nil
}

func (s *fakeSettings) RemoveCredentials(ctx context.Context, userID int64, platform string) error {
	return nil
}

func (s *fakeSettings) GetSettingsInfo(ctx context.Context, userID int64) (map[string]map[string]string, error) {
	return nil, nil
}

func (s *fakeSettings) CredentialsForUser(ctx context.Context, userID int64) (*publisher.Credentials, error) {
	return s.creds, s.err
}

type fakeMedia struct {
	items        []publisher.MediaItem
	saveErr      error
	saved        int
	removed      [][]string
	removedLocal [][]string
}

func (m *fakeMedia) SaveUploads(ctx context.Context, files []*multipart.FileHeader) ([]publisher.MediaItem, error) {
	if m.saveErr != nil {
		return nil, m.saveErr
	}
	m.saved++
	return m.items, nil
}

func (m *fakeMedia) Remove(paths []string) {
	m.removed = append(m.removed, paths)
}

func (m *fakeMedia) RemoveLocal(paths []string) {
	m.removedLocal = append(m.removedLocal, paths)
}

type fakeDispatcher struct {
	results   []publisher.Result
	platforms []string
	calls     int
}

func (d *fakeDispatcher) DispatchAll(ctx context.Context, platforms []string, media []publisher.MediaItem, caption string, creds *publisher.Credentials) []publisher.Result {
	d.calls++
	d.platforms = platforms
	return d.results
}

func testPostService(ir *fakeIntentRepo, ss *fakeSettings, ms *fakeMedia, d *fakeDispatcher) PostService {
	return NewPostService(ir, ss, ms, d)
}

func dummyFiles() []*multipart.FileHeader {
	return []*multipart.FileHeader{{Filename: "pic.jpg"}}
}

func TestPublishNowDispatchesAndCleansLocalFiles(t *testing.T) {
	ms := &fakeMedia{items: []publisher.MediaItem{{Path: "uploads/pic.jpg", MimeType: "image/jpeg"}}}
	d := &fakeDispatcher{results: []publisher.Result{{Platform: "telegram", Success: true}}}
	s := testPostService(newFakeIntentRepo(), &fakeSettings{creds: &publisher.Credentials{}}, ms, d)

	results, err := s.PublishNow(context.Background(), 1, &transfer.PostCreation{
		Caption:   "hi",
		Platforms: `["telegram"]`,
	}, dummyFiles())

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, []string{"telegram"}, d.platforms)
	require.Len(t, ms.removedLocal, 1)
	assert.Equal(t, []string{"uploads/pic.jpg"}, ms.removedLocal[0])
	assert.Empty(t, ms.removed)
}

func TestPublishNowNoPlatforms(t *testing.T) {
	ms := &fakeMedia{}
	s := testPostService(newFakeIntentRepo(), &fakeSettings{}, ms, &fakeDispatcher{})

	_, err := s.PublishNow(context.Background(), 1, &transfer.PostCreation{Platforms: ""}, dummyFiles())
	assert.ErrorIs(t, err, ErrNoPlatforms)

	_, err = s.PublishNow(context.Background(), 1, &transfer.PostCreation{Platforms: `[]`}, dummyFiles())
	assert.ErrorIs(t, err, ErrNoPlatforms)

	assert.Equal(t, 0, ms.saved)
}

func TestPublishNowCredentialLookupFailure(t *testing.T) {
	ms := &fakeMedia{items: []publisher.MediaItem{{Path: "uploads/pic.jpg"}}}
	d := &fakeDispatcher{}
	s := testPostService(newFakeIntentRepo(), &fakeSettings{err: errors.New("decrypt failed")}, ms, d)

	_, err := s.PublishNow(context.Background(), 1, &transfer.PostCreation{Platforms: `["telegram"]`}, dummyFiles())

	require.Error(t, err)
	assert.Equal(t, 0, d.calls)
	require.Len(t, ms.removedLocal, 1)
}

func TestScheduleCreatesPendingIntent(t *testing.T) {
	ir := newFakeIntentRepo()
	ms := &fakeMedia{items: []publisher.MediaItem{{Path: "uploads/pic.jpg"}}}
	s := testPostService(ir, &fakeSettings{}, ms, &fakeDispatcher{})

	future := time.Now().Add(2 * time.Hour).Format("2006-01-02T15:04")
	intent, err := s.Schedule(context.Background(), 7, &transfer.PostCreation{
		Caption:       "later",
		Platforms:     `["telegram","facebook"]`,
		ScheduledTime: future,
	}, dummyFiles())

	require.NoError(t, err)
	assert.NotEmpty(t, intent.ID)
	assert.Equal(t, int64(7), intent.UserID)
	assert.Equal(t, models.IntentStatusPending, intent.Status)
	assert.Equal(t, []string{"telegram", "facebook"}, intent.Platforms)
	assert.Equal(t, []string{"uploads/pic.jpg"}, intent.MediaPaths)
	assert.Contains(t, ir.intents, intent.ID)
}

func TestScheduleRejectsBadTimeBeforeSavingFiles(t *testing.T) {
	ms := &fakeMedia{items: []publisher.MediaItem{{Path: "uploads/pic.jpg"}}}
	s := testPostService(newFakeIntentRepo(), &fakeSettings{}, ms, &fakeDispatcher{})

	_, err := s.Schedule(context.Background(), 1, &transfer.PostCreation{
		Platforms:     `["telegram"]`,
		ScheduledTime: "not-a-time",
	}, dummyFiles())
	assert.ErrorIs(t, err, ErrInvalidSchedule)

	past := time.Now().Add(-time.Hour).Format("2006-01-02T15:04")
	_, err = s.Schedule(context.Background(), 1, &transfer.PostCreation{
		Platforms:     `["telegram"]`,
		ScheduledTime: past,
	}, dummyFiles())
	assert.ErrorIs(t, err, ErrPastSchedule)

	assert.Equal(t, 0, ms.saved)
}

func TestScheduleCleansUpWhenCreateFails(t *testing.T) {
	ir := newFakeIntentRepo()
	ir.createErr = errors.New("insert failed")
	ms := &fakeMedia{items: []publisher.MediaItem{{Path: "uploads/pic.jpg"}}}
	s := testPostService(ir, &fakeSettings{}, ms, &fakeDispatcher{})

	future := time.Now().Add(time.Hour).Format("2006-01-02T15:04")
	_, err := s.Schedule(context.Background(), 1, &transfer.PostCreation{
		Platforms:     `["telegram"]`,
		ScheduledTime: future,
	}, dummyFiles())

	require.Error(t, err)
	require.Len(t, ms.removed, 1)
	assert.Equal(t, []string{"uploads/pic.jpg"}, ms.removed[0])
}

func TestCancelScheduled(t *testing.T) {
	pending := &models.ScheduledIntent{
		ID: "p1", UserID: 1, Status: models.IntentStatusPending,
		MediaPaths: []string{"uploads/pic.jpg"},
	}
	done := &models.ScheduledIntent{ID: "d1", UserID: 1, Status: models.IntentStatusCompleted}
	ir := newFakeIntentRepo(pending, done)
	ms := &fakeMedia{}
	s := testPostService(ir, &fakeSettings{}, ms, &fakeDispatcher{})

	err := s.CancelScheduled(context.Background(), 1, "p1")
	require.NoError(t, err)
	assert.Equal(t, []string{"p1"}, ir.removed)
	require.Len(t, ms.removed, 1)
}

func TestCancelScheduledWrongOwner(t *testing.T) {
	ir := newFakeIntentRepo(&models.ScheduledIntent{ID: "p1", UserID: 2, Status: models.IntentStatusPending})
	s := testPostService(ir, &fakeSettings{}, &fakeMedia{}, &fakeDispatcher{})

	err := s.CancelScheduled(context.Background(), 1, "p1")
	assert.ErrorIs(t, err, ErrIntentNotFound)

	err = s.CancelScheduled(context.Background(), 1, "missing")
	assert.ErrorIs(t, err, ErrIntentNotFound)
}

func TestCancelScheduledNotPending(t *testing.T) {
	ir := newFakeIntentRepo(&models.ScheduledIntent{ID: "d1", UserID: 1, Status: models.IntentStatusProcessing})
	s := testPostService(ir, &fakeSettings{}, &fakeMedia{}, &fakeDispatcher{})

	err := s.CancelScheduled(context.Background(), 1, "d1")

	assert.ErrorIs(t, err, ErrIntentNotPending)
	assert.Empty(t, ir.removed)
}
