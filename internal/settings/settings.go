package settings

import (
	"context"
	"database/sql"
)

// Keys read by the attendance submission workflow. Anything else in the
// settings table is opaque to the core and only surfaced through GetAll.
const (
	KeyLatitude  = "college_latitude"
	KeyLongitude = "college_longitude"
	KeyRadius    = "allowed_radius_meters"
	KeyEnabled   = "geolocation_enabled"
)

// Repository persists flat key/value settings in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// GetAll returns every setting as a key->value map. No caching: reads always
// reflect the latest committed values.
func (r *Repository) GetAll(ctx context.Context) (map[string]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT setting_key, setting_value FROM settings`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	values := make(map[string]string)
	for rows.Next() {
		var key string
		var val sql.NullString
		if err := rows.Scan(&key, &val); err != nil {
			return nil, err
		}
		values[key] = val.String
	}
	return values, rows.Err()
}

// Upsert creates or overwrites each provided key.
func (r *Repository) Upsert(ctx context.Context, values map[string]string) error {
	for key, val := range values {
		_, err := r.db.ExecContext(ctx, `
			INSERT INTO settings (setting_key, setting_value)
			VALUES ($1, $2)
			ON CONFLICT (setting_key) DO UPDATE SET setting_value = EXCLUDED.setting_value
		`, key, val)
		if err != nil {
			return err
		}
	}
	return nil
}
