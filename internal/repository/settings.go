package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

var ErrSettingNotFound = errors.New("setting not found")

// SettingsRepository is a small key/value store for device-level
// preferences such as the reminder time.
type SettingsRepository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

type settingsRepository struct {
	db *sqlx.DB
}

func NewSettingsRepository(db *sqlx.DB) SettingsRepository {
	return &settingsRepository{db: db}
}

func (r *settingsRepository) Get(ctx context.Context, key string) (string, error) {
	var value string
	query := `SELECT value FROM settings WHERE key = $1`

	err := r.db.GetContext(ctx, &value, query, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrSettingNotFound
	}
	if err != nil {
		return "", unavailable("get setting", err)
	}

	return value, nil
}

func (r *settingsRepository) Set(ctx context.Context, key, value string) error {
	query := `INSERT INTO settings (key, value, updated_at)
	          VALUES ($1, $2, $3)
	          ON CONFLICT(key) DO UPDATE SET
	              value = excluded.value,
	              updated_at = excluded.updated_at`

	_, err := r.db.ExecContext(ctx, query, key, value, time.Now())
	if err != nil {
		return unavailable("set setting", err)
	}
	return nil
}

// Delete is idempotent: removing an absent key succeeds.
func (r *settingsRepository) Delete(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM settings WHERE key = $1`, key)
	if err != nil {
		return unavailable("delete setting", err)
	}
	return nil
}
