package sqlxrepos

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/aevoninc/horizonfit/core"
	"github.com/aevoninc/horizonfit/core/metrics"
)

type metricsRepository struct {
	exec core.DBExecutor
}

var _ metrics.Repository = (*metricsRepository)(nil) // interface compliance check

func NewMetricsRepository(exec core.DBExecutor) *metricsRepository {
	return &metricsRepository{exec: exec}
}

type entryRow struct {
	ID           string      `db:"id"`
	PatientID    string      `db:"patient_id"`
	Kind         null.String `db:"kind"`
	Value        float64     `db:"value"`
	DateRecorded null.Time   `db:"date_recorded"`
}

func (r entryRow) entry() metrics.Entry {
	return metrics.Entry{
		ID:           r.ID,
		PatientID:    r.PatientID,
		Kind:         r.Kind.String,
		Value:        r.Value,
		DateRecorded: r.DateRecorded.Time,
	}
}

func (repo metricsRepository) AppendEntries(ctx context.Context, entries ...metrics.Entry) error {
	query := `
		INSERT INTO metrics_entry (id, patient_id, kind, value, date_recorded)
		VALUES ($1, $2, $3, $4, $5)`
	for _, entry := range entries {
		entry.ID = uuid.New().String()
		_, err := repo.exec.ExecContext(ctx, query,
			entry.ID, entry.PatientID, entry.Kind, entry.Value, entry.DateRecorded.UTC())
		if err != nil {
			return errors.Wrap(err, "appending metrics entries")
		}
	}
	return nil
}

func (repo metricsRepository) GetLatestEntry(ctx context.Context, patientID string) (metrics.Entry, error) {
	var row entryRow
	query := `
		SELECT id, patient_id, kind, value, date_recorded FROM metrics_entry
		WHERE patient_id = $1 ORDER BY date_recorded DESC LIMIT 1`
	if err := repo.exec.GetContext(ctx, &row, query, patientID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return metrics.Entry{}, metrics.ErrNoEntries
		}
		return metrics.Entry{}, errors.Wrap(err, "getting latest metrics entry")
	}
	return row.entry(), nil
}

func (repo metricsRepository) QueryEntries(ctx context.Context, patientID string) ([]metrics.Entry, error) {
	var rows []entryRow
	query := `
		SELECT id, patient_id, kind, value, date_recorded FROM metrics_entry
		WHERE patient_id = $1 ORDER BY date_recorded, kind`
	if err := repo.exec.SelectContext(ctx, &rows, query, patientID); err != nil {
		return nil, errors.Wrap(err, "querying metrics entries")
	}
	entries := make([]metrics.Entry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, r.entry())
	}
	return entries, nil
}

func (repo metricsRepository) ReplaceRecommendations(ctx context.Context, cache metrics.RecommendationsCache) error {
	computed, err := json.Marshal(cache.Computed)
	if err != nil {
		return errors.Wrap(err, "encoding recommendations")
	}
	query := `
		INSERT INTO recommendations_cache (patient_id, computed, computed_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (patient_id) DO UPDATE SET computed = EXCLUDED.computed, computed_at = EXCLUDED.computed_at`
	if _, err = repo.exec.ExecContext(ctx, query, cache.PatientID, computed, cache.ComputedAt.UTC()); err != nil {
		return errors.Wrap(err, "replacing recommendations")
	}
	return nil
}

func (repo metricsRepository) GetRecommendations(ctx context.Context, patientID string) (metrics.RecommendationsCache, error) {
	var row struct {
		PatientID  string    `db:"patient_id"`
		Computed   []byte    `db:"computed"`
		ComputedAt null.Time `db:"computed_at"`
	}
	query := "SELECT patient_id, computed, computed_at FROM recommendations_cache WHERE patient_id = $1"
	if err := repo.exec.GetContext(ctx, &row, query, patientID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return metrics.RecommendationsCache{}, metrics.ErrNoRecommendations
		}
		return metrics.RecommendationsCache{}, errors.Wrap(err, "getting recommendations")
	}

	cache := metrics.RecommendationsCache{PatientID: row.PatientID, ComputedAt: row.ComputedAt.Time}
	if err := json.Unmarshal(row.Computed, &cache.Computed); err != nil {
		return metrics.RecommendationsCache{}, errors.Wrap(err, "decoding recommendations")
	}
	return cache, nil
}

func (repo metricsRepository) GetOverrides(ctx context.Context, patientID string) (metrics.Overrides, error) {
	var o metrics.Overrides
	query := `
		SELECT patient_id, calories_per_day, protein_grams_per_day, water_litres_per_day,
			steps_per_day, sleep_hours_per_night, guidance, updated_by, updated_at
		FROM recommendations_override WHERE patient_id = $1`

	row := repo.exec.QueryRowxContext(ctx, query, patientID)
	var updatedAt null.Time
	err := row.Scan(&o.PatientID, &o.CaloriesPerDay, &o.ProteinGramsPerDay, &o.WaterLitresPerDay,
		&o.StepsPerDay, &o.SleepHoursPerNight, &o.Guidance, &o.UpdatedBy, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return metrics.Overrides{}, nil
		}
		return metrics.Overrides{}, errors.Wrap(err, "getting overrides")
	}
	o.UpdatedAt = updatedAt.Time
	return o, nil
}

func (repo metricsRepository) UpsertOverrides(ctx context.Context, o metrics.Overrides) error {
	query := `
		INSERT INTO recommendations_override (patient_id, calories_per_day, protein_grams_per_day,
			water_litres_per_day, steps_per_day, sleep_hours_per_night, guidance, updated_by, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (patient_id) DO UPDATE SET
			calories_per_day = EXCLUDED.calories_per_day,
			protein_grams_per_day = EXCLUDED.protein_grams_per_day,
			water_litres_per_day = EXCLUDED.water_litres_per_day,
			steps_per_day = EXCLUDED.steps_per_day,
			sleep_hours_per_night = EXCLUDED.sleep_hours_per_night,
			guidance = EXCLUDED.guidance,
			updated_by = EXCLUDED.updated_by,
			updated_at = EXCLUDED.updated_at`
	_, err := repo.exec.ExecContext(ctx, query,
		o.PatientID, o.CaloriesPerDay, o.ProteinGramsPerDay, o.WaterLitresPerDay,
		o.StepsPerDay, o.SleepHoursPerNight, o.Guidance, o.UpdatedBy, o.UpdatedAt.UTC())
	if err != nil {
		return errors.Wrap(err, "upserting overrides")
	}
	return nil
}
