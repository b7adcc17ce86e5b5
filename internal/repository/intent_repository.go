package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/fanpost/fanpost/internal/models"
	"github.com/lib/pq"
)

type IntentRepository interface {
	Create(ctx context.Context, intent *models.ScheduledIntent) error
	GetByID(ctx context.Context, id string) (*models.ScheduledIntent, error)
	GetByUserID(ctx context.Context, userID int64) ([]*models.ScheduledIntent, error)
	GetDue(ctx context.Context, now time.Time) ([]*models.ScheduledIntent, error)
	GetFinishedBefore(ctx context.Context, cutoff time.Time) ([]*models.ScheduledIntent, error)
	ClaimPending(ctx context.Context, id string) (bool, error)
	SetOutcome(ctx context.Context, id, status string, result json.RawMessage) error
	ClearMediaPaths(ctx context.Context, id string) error
	Remove(ctx context.Context, id string) error
}

type intentRepository struct {
	db *sql.DB
}

func NewIntentRepository(db *sql.DB) IntentRepository {
	return &intentRepository{db: db}
}

const intentColumns = `id, user_id, platforms, caption, media_paths, scheduled_at, status, result, created_at, updated_at`

func (r *intentRepository) Create(ctx context.Context, intent *models.ScheduledIntent) error {
	query := `
		INSERT INTO scheduled_intents (id, user_id, platforms, caption, media_paths, scheduled_at, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query,
		intent.ID, intent.UserID, pq.Array(intent.Platforms), intent.Caption,
		pq.Array(intent.MediaPaths), intent.ScheduledAt, intent.Status)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *intentRepository) GetByID(ctx context.Context, id string) (*models.ScheduledIntent, error) {
	query := `SELECT ` + intentColumns + ` FROM scheduled_intents WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	intent, err := scanIntent(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return intent, nil
}

func (r *intentRepository) GetByUserID(ctx context.Context, userID int64) ([]*models.ScheduledIntent, error) {
	query := `SELECT ` + intentColumns + ` FROM scheduled_intents WHERE user_id = $1 ORDER BY created_at DESC`
	return r.queryIntents(ctx, query, userID)
}

// GetDue returns pending intents whose fire time has passed, earliest
// first so a backlog drains fairly.
func (r *intentRepository) GetDue(ctx context.Context, now time.Time) ([]*models.ScheduledIntent, error) {
	query := `SELECT ` + intentColumns + ` FROM scheduled_intents
		WHERE status = $1 AND scheduled_at <= $2
		ORDER BY scheduled_at ASC`
	return r.queryIntents(ctx, query, models.IntentStatusPending, now)
}

func (r *intentRepository) GetFinishedBefore(ctx context.Context, cutoff time.Time) ([]*models.ScheduledIntent, error) {
	query := `SELECT ` + intentColumns + ` FROM scheduled_intents
		WHERE status = ANY($1) AND updated_at < $2 AND media_paths <> '{}'`
	terminal := []string{models.IntentStatusCompleted, models.IntentStatusPartial, models.IntentStatusFailed}
	return r.queryIntents(ctx, query, pq.Array(terminal), cutoff)
}

// ClaimPending moves one intent from pending to processing and reports
// whether this caller won the transition. The compare-and-set keeps
// the queue worker and the sweep tick from processing the same intent
// twice.
func (r *intentRepository) ClaimPending(ctx context.Context, id string) (bool, error) {
	query := `
		UPDATE scheduled_intents
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4
	`
	res, err := r.db.ExecContext(ctx, query, models.IntentStatusProcessing, time.Now(), id, models.IntentStatusPending)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (r *intentRepository) SetOutcome(ctx context.Context, id, status string, result json.RawMessage) error {
	query := `
		UPDATE scheduled_intents
		SET status = $1, result = $2, updated_at = $3
		WHERE id = $4
	`
	_, err := r.db.ExecContext(ctx, query, status, []byte(result), time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *intentRepository) ClearMediaPaths(ctx context.Context, id string) error {
	query := `UPDATE scheduled_intents SET media_paths = '{}', updated_at = $1 WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *intentRepository) Remove(ctx context.Context, id string) error {
	query := `DELETE FROM scheduled_intents WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *intentRepository) queryIntents(ctx context.Context, query string, args ...any) ([]*models.ScheduledIntent, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var intents []*models.ScheduledIntent
	for rows.Next() {
		intent, err := scanIntent(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		intents = append(intents, intent)
	}
	return intents, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIntent(row rowScanner) (*models.ScheduledIntent, error) {
	var intent models.ScheduledIntent
	var result []byte
	err := row.Scan(&intent.ID, &intent.UserID, pq.Array(&intent.Platforms), &intent.Caption,
		pq.Array(&intent.MediaPaths), &intent.ScheduledAt, &intent.Status, &result,
		&intent.CreatedAt, &intent.UpdatedAt)
	if err != nil {
		return nil, err
	}
	intent.Result = json.RawMessage(result)
	return &intent, nil
}
