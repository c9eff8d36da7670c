package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/aevoninc/horizonfit/core/metrics"
)

type metricsRepository struct {
	db *metricsTable
}

var _ metrics.Repository = (*metricsRepository)(nil)

func NewMetricsRepository(db *DB) metrics.Repository {
	return &metricsRepository{db: db.metrics}
}

func (repo *metricsRepository) AppendEntries(ctx context.Context, entries ...metrics.Entry) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, entry := range entries {
		entry.ID = uuid.New().String()
		repo.db.entries[entry.PatientID] = append(repo.db.entries[entry.PatientID], entry)
	}
	return nil
}

func (repo *metricsRepository) GetLatestEntry(ctx context.Context, patientID string) (metrics.Entry, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	entries := repo.db.entries[patientID]
	if len(entries) == 0 {
		return metrics.Entry{}, metrics.ErrNoEntries
	}
	latest := entries[0]
	for _, entry := range entries[1:] {
		if entry.DateRecorded.After(latest.DateRecorded) {
			latest = entry
		}
	}
	return latest, nil
}

func (repo *metricsRepository) QueryEntries(ctx context.Context, patientID string) ([]metrics.Entry, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	entries := make([]metrics.Entry, len(repo.db.entries[patientID]))
	copy(entries, repo.db.entries[patientID])
	sort.Slice(entries, func(i, j int) bool { return entries[i].DateRecorded.Before(entries[j].DateRecorded) })
	return entries, nil
}

func (repo *metricsRepository) ReplaceRecommendations(ctx context.Context, cache metrics.RecommendationsCache) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.recos[cache.PatientID] = &cache
	return nil
}

func (repo *metricsRepository) GetRecommendations(ctx context.Context, patientID string) (metrics.RecommendationsCache, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if cache, ok := repo.db.recos[patientID]; ok {
		return *cache, nil
	}
	return metrics.RecommendationsCache{}, metrics.ErrNoRecommendations
}

func (repo *metricsRepository) GetOverrides(ctx context.Context, patientID string) (metrics.Overrides, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if o, ok := repo.db.overrides[patientID]; ok {
		return *o, nil
	}
	return metrics.Overrides{}, nil
}

func (repo *metricsRepository) UpsertOverrides(ctx context.Context, o metrics.Overrides) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.overrides[o.PatientID] = &o
	return nil
}
