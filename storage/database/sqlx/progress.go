package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/aevoninc/horizonfit/core"
	"github.com/aevoninc/horizonfit/core/progress"
)

const zoneProgressColumns = `id, patient_id, zone_number, is_unlocked, is_completed, videos_completed,
	watched_videos, weeks_in_zone, started_at, completed_at, version`

type zoneProgressRow struct {
	ID              string         `db:"id"`
	PatientID       string         `db:"patient_id"`
	ZoneNumber      int            `db:"zone_number"`
	IsUnlocked      bool           `db:"is_unlocked"`
	IsCompleted     bool           `db:"is_completed"`
	VideosCompleted bool           `db:"videos_completed"`
	WatchedVideos   pq.StringArray `db:"watched_videos"`
	WeeksInZone     int            `db:"weeks_in_zone"`
	StartedAt       null.Time      `db:"started_at"`
	CompletedAt     null.Time      `db:"completed_at"`
	Version         int            `db:"version"`
}

func (r zoneProgressRow) zoneProgress() progress.ZoneProgress {
	return progress.ZoneProgress{
		ID:              r.ID,
		PatientID:       r.PatientID,
		ZoneNumber:      r.ZoneNumber,
		IsUnlocked:      r.IsUnlocked,
		IsCompleted:     r.IsCompleted,
		VideosCompleted: r.VideosCompleted,
		WatchedVideos:   r.WatchedVideos,
		WeeksInZone:     r.WeeksInZone,
		StartedAt:       r.StartedAt,
		CompletedAt:     r.CompletedAt,
		Version:         r.Version,
	}
}

type weeklyLogRow struct {
	ID             string       `db:"id"`
	PatientID      string       `db:"patient_id"`
	ZoneNumber     int          `db:"zone_number"`
	WeekNumber     int          `db:"week_number"`
	Weight         null.Float64 `db:"weight"`
	BodyFatPct     null.Float64 `db:"body_fat_pct"`
	VisceralFat    null.Float64 `db:"visceral_fat"`
	Compliance     null.String  `db:"compliance"`
	CompletedTasks int          `db:"completed_tasks"`
	TotalTasks     int          `db:"total_tasks"`
	Notes          null.String  `db:"notes"`
	SubmittedAt    null.Time    `db:"submitted_at"`
}

func (r weeklyLogRow) weeklyLog() progress.WeeklyLog {
	return progress.WeeklyLog{
		ID:             r.ID,
		PatientID:      r.PatientID,
		ZoneNumber:     r.ZoneNumber,
		WeekNumber:     r.WeekNumber,
		Weight:         r.Weight,
		BodyFatPct:     r.BodyFatPct,
		VisceralFat:    r.VisceralFat,
		Compliance:     r.Compliance.String,
		CompletedTasks: r.CompletedTasks,
		TotalTasks:     r.TotalTasks,
		Notes:          r.Notes.String,
		SubmittedAt:    r.SubmittedAt.Time,
	}
}

type progressRepository struct {
	exec core.DBExecutor
}

var _ progress.Repository = (*progressRepository)(nil) // interface compliance check

func NewProgressRepository(exec core.DBExecutor) *progressRepository {
	return &progressRepository{exec: exec}
}

func (repo progressRepository) GetZoneProgress(ctx context.Context, patientID string, zone int) (progress.ZoneProgress, error) {
	var row zoneProgressRow
	query := fmt.Sprintf("SELECT %s FROM zone_progress WHERE patient_id = $1 AND zone_number = $2", zoneProgressColumns)
	if err := repo.exec.GetContext(ctx, &row, query, patientID, zone); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return progress.ZoneProgress{}, progress.ErrProgressNotFound
		}
		return progress.ZoneProgress{}, errors.Wrap(err, "getting zone progress")
	}
	return row.zoneProgress(), nil
}

func (repo progressRepository) GetOrCreateZoneProgress(ctx context.Context, patientID string, zone int, startedAt time.Time) (progress.ZoneProgress, error) {
	query := `
		INSERT INTO zone_progress (id, patient_id, zone_number, is_unlocked, watched_videos, started_at, version)
		VALUES ($1, $2, $3, true, '{}', $4, 1)
		ON CONFLICT (patient_id, zone_number) DO NOTHING`
	_, err := repo.exec.ExecContext(ctx, query, uuid.New().String(), patientID, zone, startedAt.UTC())
	if err != nil {
		return progress.ZoneProgress{}, errors.Wrap(err, "creating zone progress")
	}
	return repo.GetZoneProgress(ctx, patientID, zone)
}

func (repo progressRepository) QueryZoneProgress(ctx context.Context, patientID string) ([]progress.ZoneProgress, error) {
	var rows []zoneProgressRow
	query := fmt.Sprintf("SELECT %s FROM zone_progress WHERE patient_id = $1 ORDER BY zone_number", zoneProgressColumns)
	if err := repo.exec.SelectContext(ctx, &rows, query, patientID); err != nil {
		return nil, errors.Wrap(err, "querying zone progress")
	}
	zps := make([]progress.ZoneProgress, 0, len(rows))
	for _, r := range rows {
		zps = append(zps, r.zoneProgress())
	}
	return zps, nil
}

func (repo progressRepository) UpdateZoneProgress(ctx context.Context, zp progress.ZoneProgress) (progress.ZoneProgress, error) {
	query := fmt.Sprintf(`
		UPDATE zone_progress SET
			is_unlocked = $1, is_completed = $2, videos_completed = $3, watched_videos = $4,
			weeks_in_zone = $5, started_at = $6, completed_at = $7, version = version + 1
		WHERE patient_id = $8 AND zone_number = $9 AND version = $10
		RETURNING %s`, zoneProgressColumns)

	var row zoneProgressRow
	err := repo.exec.GetContext(ctx, &row, query,
		zp.IsUnlocked, zp.IsCompleted, zp.VideosCompleted, pq.StringArray(zp.WatchedVideos),
		zp.WeeksInZone, zp.StartedAt, zp.CompletedAt,
		zp.PatientID, zp.ZoneNumber, zp.Version)
	if err == nil {
		return row.zoneProgress(), nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return progress.ZoneProgress{}, errors.Wrap(err, "updating zone progress")
	}

	// the row was either updated concurrently or never existed
	if _, err = repo.GetZoneProgress(ctx, zp.PatientID, zp.ZoneNumber); err != nil {
		return progress.ZoneProgress{}, err
	}
	return progress.ZoneProgress{}, progress.ErrConflict
}

func (repo progressRepository) IncrementZoneWeeks(ctx context.Context, patientID string, zone int, startedAt time.Time) (progress.ZoneProgress, error) {
	// the partial DO UPDATE leaves completed zones untouched; no row comes
	// back for them
	query := fmt.Sprintf(`
		INSERT INTO zone_progress (id, patient_id, zone_number, is_unlocked, watched_videos, weeks_in_zone, started_at, version)
		VALUES ($1, $2, $3, true, '{}', 1, $4, 1)
		ON CONFLICT (patient_id, zone_number) DO UPDATE
			SET weeks_in_zone = zone_progress.weeks_in_zone + 1, version = zone_progress.version + 1
			WHERE NOT zone_progress.is_completed
		RETURNING %s`, zoneProgressColumns)

	var row zoneProgressRow
	err := repo.exec.GetContext(ctx, &row, query, uuid.New().String(), patientID, zone, startedAt.UTC())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return progress.ZoneProgress{}, progress.ErrZoneCompleted
		}
		return progress.ZoneProgress{}, errors.Wrap(err, "incrementing zone weeks")
	}
	return row.zoneProgress(), nil
}

func (repo progressRepository) CompleteZone(ctx context.Context, patientID string, zone int, at time.Time) (progress.ZoneProgress, error) {
	query := fmt.Sprintf(`
		UPDATE zone_progress SET is_completed = true, completed_at = $1, version = version + 1
		WHERE patient_id = $2 AND zone_number = $3
		RETURNING %s`, zoneProgressColumns)

	var row zoneProgressRow
	if err := repo.exec.GetContext(ctx, &row, query, at.UTC(), patientID, zone); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return progress.ZoneProgress{}, progress.ErrProgressNotFound
		}
		return progress.ZoneProgress{}, errors.Wrap(err, "completing zone")
	}
	return row.zoneProgress(), nil
}

func (repo progressRepository) ResetZoneProgress(ctx context.Context, patientID string, zone int, at time.Time) (progress.ZoneProgress, error) {
	query := fmt.Sprintf(`
		INSERT INTO zone_progress (id, patient_id, zone_number, is_unlocked, watched_videos, started_at, version)
		VALUES ($1, $2, $3, true, '{}', $4, 1)
		ON CONFLICT (patient_id, zone_number) DO UPDATE SET
			is_unlocked = true, is_completed = false, videos_completed = false,
			watched_videos = '{}', weeks_in_zone = 0, started_at = EXCLUDED.started_at,
			completed_at = NULL, version = zone_progress.version + 1
		RETURNING %s`, zoneProgressColumns)

	var row zoneProgressRow
	if err := repo.exec.GetContext(ctx, &row, query, uuid.New().String(), patientID, zone, at.UTC()); err != nil {
		return progress.ZoneProgress{}, errors.Wrap(err, "resetting zone progress")
	}
	return row.zoneProgress(), nil
}

func (repo progressRepository) CreateWeeklyLog(ctx context.Context, wl progress.WeeklyLog) (progress.WeeklyLog, error) {
	wl.ID = uuid.New().String()
	query := `
		INSERT INTO weekly_log (id, patient_id, zone_number, week_number, weight, body_fat_pct, visceral_fat,
			compliance, completed_tasks, total_tasks, notes, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := repo.exec.ExecContext(ctx, query,
		wl.ID, wl.PatientID, wl.ZoneNumber, wl.WeekNumber, wl.Weight, wl.BodyFatPct, wl.VisceralFat,
		wl.Compliance, wl.CompletedTasks, wl.TotalTasks, wl.Notes, wl.SubmittedAt.UTC())
	if err != nil {
		return progress.WeeklyLog{}, errors.Wrap(err, "creating weekly log")
	}
	return wl, nil
}

func (repo progressRepository) QueryWeeklyLogs(ctx context.Context, patientID string) ([]progress.WeeklyLog, error) {
	var rows []weeklyLogRow
	query := `
		SELECT id, patient_id, zone_number, week_number, weight, body_fat_pct, visceral_fat,
			compliance, completed_tasks, total_tasks, notes, submitted_at
		FROM weekly_log WHERE patient_id = $1 ORDER BY week_number`
	if err := repo.exec.SelectContext(ctx, &rows, query, patientID); err != nil {
		return nil, errors.Wrap(err, "querying weekly logs")
	}
	logs := make([]progress.WeeklyLog, 0, len(rows))
	for _, r := range rows {
		logs = append(logs, r.weeklyLog())
	}
	return logs, nil
}
