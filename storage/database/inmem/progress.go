package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"

	"github.com/aevoninc/horizonfit/core/progress"
)

type progressRepository struct {
	db *progressTable
}

var _ progress.Repository = (*progressRepository)(nil)

func NewProgressRepository(db *DB) progress.Repository {
	return &progressRepository{db: db.progress}
}

func (repo *progressRepository) GetZoneProgress(ctx context.Context, patientID string, zone int) (progress.ZoneProgress, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if zp, ok := repo.db.zones[progressKey{patientID, zone}]; ok {
		return copyZoneProgress(zp), nil
	}
	return progress.ZoneProgress{}, progress.ErrProgressNotFound
}

func (repo *progressRepository) GetOrCreateZoneProgress(ctx context.Context, patientID string, zone int, startedAt time.Time) (progress.ZoneProgress, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	key := progressKey{patientID, zone}
	if zp, ok := repo.db.zones[key]; ok {
		return copyZoneProgress(zp), nil
	}
	zp := &progress.ZoneProgress{
		ID:         uuid.New().String(),
		PatientID:  patientID,
		ZoneNumber: zone,
		IsUnlocked: true,
		StartedAt:  null.TimeFrom(startedAt),
		Version:    1,
	}
	repo.db.zones[key] = zp
	return copyZoneProgress(zp), nil
}

func (repo *progressRepository) QueryZoneProgress(ctx context.Context, patientID string) ([]progress.ZoneProgress, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	zps := make([]progress.ZoneProgress, 0)
	for key, zp := range repo.db.zones {
		if key.patientID == patientID {
			zps = append(zps, copyZoneProgress(zp))
		}
	}
	sort.Slice(zps, func(i, j int) bool { return zps[i].ZoneNumber < zps[j].ZoneNumber })
	return zps, nil
}

func (repo *progressRepository) UpdateZoneProgress(ctx context.Context, zp progress.ZoneProgress) (progress.ZoneProgress, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	key := progressKey{zp.PatientID, zp.ZoneNumber}
	orig, ok := repo.db.zones[key]
	if !ok {
		return progress.ZoneProgress{}, progress.ErrProgressNotFound
	}
	if orig.Version != zp.Version {
		return progress.ZoneProgress{}, progress.ErrConflict
	}
	zp.ID = orig.ID
	zp.Version++
	stored := zp
	stored.WatchedVideos = append([]string(nil), zp.WatchedVideos...)
	repo.db.zones[key] = &stored
	return zp, nil
}

func (repo *progressRepository) IncrementZoneWeeks(ctx context.Context, patientID string, zone int, startedAt time.Time) (progress.ZoneProgress, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	key := progressKey{patientID, zone}
	zp, ok := repo.db.zones[key]
	if !ok {
		zp = &progress.ZoneProgress{
			ID:         uuid.New().String(),
			PatientID:  patientID,
			ZoneNumber: zone,
			IsUnlocked: true,
			StartedAt:  null.TimeFrom(startedAt),
			Version:    1,
		}
		repo.db.zones[key] = zp
	}
	if zp.IsCompleted {
		return progress.ZoneProgress{}, progress.ErrZoneCompleted
	}
	zp.WeeksInZone++
	zp.Version++
	return copyZoneProgress(zp), nil
}

func (repo *progressRepository) CompleteZone(ctx context.Context, patientID string, zone int, at time.Time) (progress.ZoneProgress, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	zp, ok := repo.db.zones[progressKey{patientID, zone}]
	if !ok {
		return progress.ZoneProgress{}, progress.ErrProgressNotFound
	}
	zp.IsCompleted = true
	zp.CompletedAt = null.TimeFrom(at)
	zp.Version++
	return copyZoneProgress(zp), nil
}

func (repo *progressRepository) ResetZoneProgress(ctx context.Context, patientID string, zone int, at time.Time) (progress.ZoneProgress, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	key := progressKey{patientID, zone}
	zp, ok := repo.db.zones[key]
	if !ok {
		zp = &progress.ZoneProgress{
			ID:        uuid.New().String(),
			PatientID: patientID,
			Version:   0,
		}
		repo.db.zones[key] = zp
	}
	zp.ZoneNumber = zone
	zp.IsUnlocked = true
	zp.IsCompleted = false
	zp.VideosCompleted = false
	zp.WatchedVideos = nil
	zp.WeeksInZone = 0
	zp.StartedAt = null.TimeFrom(at)
	zp.CompletedAt = null.Time{}
	zp.Version++
	return copyZoneProgress(zp), nil
}

func (repo *progressRepository) CreateWeeklyLog(ctx context.Context, wl progress.WeeklyLog) (progress.WeeklyLog, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	wl.ID = uuid.New().String()
	repo.db.logs[wl.PatientID] = append(repo.db.logs[wl.PatientID], wl)
	return wl, nil
}

func (repo *progressRepository) QueryWeeklyLogs(ctx context.Context, patientID string) ([]progress.WeeklyLog, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	logs := make([]progress.WeeklyLog, len(repo.db.logs[patientID]))
	copy(logs, repo.db.logs[patientID])
	sort.Slice(logs, func(i, j int) bool { return logs[i].WeekNumber < logs[j].WeekNumber })
	return logs, nil
}

// copyZoneProgress returns a detached copy so callers never share the stored
// WatchedVideos backing array.
func copyZoneProgress(zp *progress.ZoneProgress) progress.ZoneProgress {
	cp := *zp
	cp.WatchedVideos = append([]string(nil), zp.WatchedVideos...)
	return cp
}
