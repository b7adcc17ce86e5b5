package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/fanpost/fanpost/internal/models"
)

type SettingsRepository interface {
	Upsert(ctx context.Context, cred *models.PlatformCredential) error
	GetByUserID(ctx context.Context, userID int64) ([]*models.PlatformCredential, error)
	RemovePlatform(ctx context.Context, userID int64, platform string) error
}

type settingsRepository struct {
	db *sql.DB
}

func NewSettingsRepository(db *sql.DB) SettingsRepository {
	return &settingsRepository{db: db}
}

func (r *settingsRepository) Upsert(ctx context.Context, cred *models.PlatformCredential) error {
	query := `
		INSERT INTO platform_credentials (user_id, platform, name, value)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, platform, name)
		DO UPDATE SET value = EXCLUDED.value, updated_at = $5
	`
	_, err := r.db.ExecContext(ctx, query, cred.UserID, cred.Platform, cred.Name, cred.Value, time.Now())
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *settingsRepository) GetByUserID(ctx context.Context, userID int64) ([]*models.PlatformCredential, error) {
	query := `SELECT id, user_id, platform, name, value, created_at, updated_at
		FROM platform_credentials WHERE user_id = $1`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var creds []*models.PlatformCredential
	for rows.Next() {
		var c models.PlatformCredential
		err := rows.Scan(&c.ID, &c.UserID, &c.Platform, &c.Name, &c.Value, &c.CreatedAt, &c.UpdatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		creds = append(creds, &c)
	}
	return creds, rows.Err()
}

func (r *settingsRepository) RemovePlatform(ctx context.Context, userID int64, platform string) error {
	query := `DELETE FROM platform_credentials WHERE user_id = $1 AND platform = $2`
	_, err := r.db.ExecContext(ctx, query, userID, platform)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
