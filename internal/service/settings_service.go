package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fanpost/fanpost/internal/models"
	"github.com/fanpost/fanpost/internal/publisher"
	"github.com/fanpost/fanpost/internal/repository"
	"github.com/fanpost/fanpost/pkg/utils"
)

var knownPlatforms = map[string]struct{}{
	"facebook": {}, "telegram": {}, "tiktok": {}, "instagram": {}, "youtube": {},
}

type SettingsService interface {
	UpdateCredentials(ctx context.Context, userID int64, platform string, fields map[string]string) error
	RemoveCredentials(ctx context.Context, userID int64, platform string) error
	GetSettingsInfo(ctx context.Context, userID int64) (map[string]map[string]string, error)
	CredentialsForUser(ctx context.Context, userID int64) (*publisher.Credentials, error)
}

type settingsService struct {
	sr        repository.SettingsRepository
	secretKey []byte
}

func NewSettingsService(sr repository.SettingsRepository, secretKey string) SettingsService {
	return &settingsService{sr: sr, secretKey: []byte(secretKey)}
}

func (s *settingsService) UpdateCredentials(ctx context.Context, userID int64, platform string, fields map[string]string) error {
	if _, ok := knownPlatforms[platform]; !ok {
		return fmt.Errorf("unknown platform: %s", platform)
	}
	if len(fields) == 0 {
		return fmt.Errorf("no credential fields provided")
	}

	for name, value := range fields {
		encrypted, err := utils.Encrypt([]byte(value), s.secretKey)
		if err != nil {
			return err
		}
		cred := &models.PlatformCredential{
			UserID:   userID,
			Platform: platform,
			Name:     name,
			Value:    encrypted,
		}
		if err := s.sr.Upsert(ctx, cred); err != nil {
			return fmt.Errorf("error saving credential %s: %w", name, err)
		}
	}
	return nil
}

// RemoveCredentials disconnects one platform by dropping every stored
// field for it.
func (s *settingsService) RemoveCredentials(ctx context.Context, userID int64, platform string) error {
	if _, ok := knownPlatforms[platform]; !ok {
		return fmt.Errorf("unknown platform: %s", platform)
	}
	if err := s.sr.RemovePlatform(ctx, userID, platform); err != nil {
		return fmt.Errorf("error removing credentials: %w", err)
	}
	return nil
}

func (s *settingsService) GetSettingsInfo(ctx context.Context, userID int64) (map[string]map[string]string, error) {
	return s.decryptedByPlatform(ctx, userID)
}

// CredentialsForUser rebuilds the typed per-platform credential bundle
// used by the dispatcher.
func (s *settingsService) CredentialsForUser(ctx context.Context, userID int64) (*publisher.Credentials, error) {
	settings, err := s.decryptedByPlatform(ctx, userID)
	if err != nil {
		return nil, err
	}
	return publisher.CredentialsFromSettings(settings), nil
}

func (s *settingsService) decryptedByPlatform(ctx context.Context, userID int64) (map[string]map[string]string, error) {
	rows, err := s.sr.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error loading credentials: %w", err)
	}

	settings := make(map[string]map[string]string)
	for _, row := range rows {
		value, err := utils.Decrypt(row.Value, s.secretKey)
		if err != nil {
			slog.Info(err.Error())
			return nil, fmt.Errorf("error decrypting credential %s/%s: %w", row.Platform, row.Name, err)
		}
		if settings[row.Platform] == nil {
			settings[row.Platform] = make(map[string]string)
		}
		settings[row.Platform][row.Name] = value
	}
	return settings, nil
}
