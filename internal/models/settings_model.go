package models

import "time"

// PlatformCredential is one stored credential field for a user's
// platform, e.g. (telegram, botToken). Values are AES-GCM encrypted
// before they reach the repository.
type PlatformCredential struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	Platform  string    `db:"platform" json:"platform"`
	Name      string    `db:"name" json:"name"`
	Value     string    `db:"value" json:"-"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
