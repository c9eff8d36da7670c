package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/aevoninc/horizonfit/core/catalog"
)

type catalogRepository struct {
	db *catalogTable
}

var _ catalog.Repository = (*catalogRepository)(nil)

func NewCatalogRepository(db *DB) catalog.Repository {
	return &catalogRepository{db: db.catalog}
}

func (repo *catalogRepository) CreateVideo(ctx context.Context, vid catalog.ZoneVideo) (catalog.ZoneVideo, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	vid.ID = uuid.New().String()
	repo.db.videos[vid.ID] = &vid
	return vid, nil
}

func (repo *catalogRepository) GetVideo(ctx context.Context, id string) (catalog.ZoneVideo, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if vid, ok := repo.db.videos[id]; ok {
		return *vid, nil
	}
	return catalog.ZoneVideo{}, catalog.ErrVideoNotFound
}

func (repo *catalogRepository) QueryVideos(ctx context.Context, zone int) ([]catalog.ZoneVideo, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	vids := make([]catalog.ZoneVideo, 0, len(repo.db.videos))
	for _, vid := range repo.db.videos {
		if zone == 0 || vid.ZoneNumber == zone {
			vids = append(vids, *vid)
		}
	}
	sortVideos(vids)
	return vids, nil
}

func (repo *catalogRepository) QueryRequiredActiveVideos(ctx context.Context, zone int) ([]catalog.ZoneVideo, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	vids := make([]catalog.ZoneVideo, 0)
	for _, vid := range repo.db.videos {
		if vid.ZoneNumber == zone && vid.IsRequired && vid.IsActive {
			vids = append(vids, *vid)
		}
	}
	sortVideos(vids)
	return vids, nil
}

func (repo *catalogRepository) UpdateVideo(ctx context.Context, vid catalog.ZoneVideo, isRequired, isActive *bool) (catalog.ZoneVideo, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	origVid, ok := repo.db.videos[vid.ID]
	if !ok {
		return catalog.ZoneVideo{}, catalog.ErrVideoNotFound
	}
	if vid.Title != "" {
		origVid.Title = vid.Title
	}
	if vid.Description != "" {
		origVid.Description = vid.Description
	}
	if vid.URL != "" {
		origVid.URL = vid.URL
	}
	if isRequired != nil {
		origVid.IsRequired = *isRequired
	}
	if isActive != nil {
		origVid.IsActive = *isActive
	}
	origVid.UpdatedAt = vid.UpdatedAt

	repo.db.videos[vid.ID] = origVid
	return *origVid, nil
}

func (repo *catalogRepository) DeleteVideosByID(ctx context.Context, ids ...string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	for _, id := range ids {
		delete(repo.db.videos, id)
	}
	return nil
}

func (repo *catalogRepository) CreateTask(ctx context.Context, task catalog.DIYTask) (catalog.DIYTask, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	task.ID = uuid.New().String()
	repo.db.tasks[task.ID] = &task
	return task, nil
}

func (repo *catalogRepository) QueryActiveTasks(ctx context.Context, zone int) ([]catalog.DIYTask, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	tasks := make([]catalog.DIYTask, 0)
	for _, task := range repo.db.tasks {
		if task.ZoneNumber == zone && task.IsActive {
			tasks = append(tasks, *task)
		}
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].Title < tasks[j].Title })
	return tasks, nil
}

func (repo *catalogRepository) DeleteTasksByID(ctx context.Context, ids ...string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	for _, id := range ids {
		delete(repo.db.tasks, id)
	}
	return nil
}

func sortVideos(vids []catalog.ZoneVideo) {
	sort.Slice(vids, func(i, j int) bool {
		if vids[i].ZoneNumber != vids[j].ZoneNumber {
			return vids[i].ZoneNumber < vids[j].ZoneNumber
		}
		return vids[i].CreatedAt.Before(vids[j].CreatedAt)
	})
}
