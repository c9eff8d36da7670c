package catalog

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var (
	// errors
	ErrVideoNotFound = errors.New("video not found")
	ErrTaskNotFound  = errors.New("task not found")
)

type (
	Repository interface {
		CreateVideo(ctx context.Context, vid ZoneVideo) (ZoneVideo, error)
		GetVideo(ctx context.Context, id string) (ZoneVideo, error)
		// QueryVideos returns all videos of a zone, including inactive ones
		// (doctor view). A zone of 0 returns every video.
		QueryVideos(ctx context.Context, zone int) ([]ZoneVideo, error)
		// QueryRequiredActiveVideos returns the videos a patient must watch
		// to clear the video gate of the given zone.
		QueryRequiredActiveVideos(ctx context.Context, zone int) ([]ZoneVideo, error)
		UpdateVideo(ctx context.Context, vid ZoneVideo, isRequired, isActive *bool) (ZoneVideo, error)
		DeleteVideosByID(ctx context.Context, ids ...string) error

		CreateTask(ctx context.Context, task DIYTask) (DIYTask, error)
		// QueryActiveTasks returns the active DIY tasks of a zone.
		QueryActiveTasks(ctx context.Context, zone int) ([]DIYTask, error)
		DeleteTasksByID(ctx context.Context, ids ...string) error
	}

	Service interface {
		CreateVideo(ctx context.Context, nv NewZoneVideo) (ZoneVideo, error)
		GetVideo(ctx context.Context, id string) (ZoneVideo, error)
		QueryVideos(ctx context.Context, zone int) ([]ZoneVideo, error)
		QueryRequiredActiveVideos(ctx context.Context, zone int) ([]ZoneVideo, error)
		UpdateVideo(ctx context.Context, id string, uv UpdateZoneVideo) (ZoneVideo, error)
		DeleteVideos(ctx context.Context, ids ...string) error

		CreateTask(ctx context.Context, nt NewDIYTask) (DIYTask, error)
		QueryActiveTasks(ctx context.Context, zone int) ([]DIYTask, error)
		DeleteTasks(ctx context.Context, ids ...string) error
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) CreateVideo(ctx context.Context, nv NewZoneVideo) (ZoneVideo, error) {
	now := time.Now().UTC()
	vid := ZoneVideo{
		ZoneNumber:  nv.ZoneNumber,
		Title:       nv.Title,
		Description: nv.Description,
		URL:         nv.URL,
		IsRequired:  nv.IsRequired,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateVideo(ctx, vid)
}

func (svc *service) GetVideo(ctx context.Context, id string) (ZoneVideo, error) {
	return svc.repo.GetVideo(ctx, id)
}

func (svc *service) QueryVideos(ctx context.Context, zone int) ([]ZoneVideo, error) {
	return svc.repo.QueryVideos(ctx, zone)
}

func (svc *service) QueryRequiredActiveVideos(ctx context.Context, zone int) ([]ZoneVideo, error) {
	return svc.repo.QueryRequiredActiveVideos(ctx, zone)
}

func (svc *service) UpdateVideo(ctx context.Context, id string, uv UpdateZoneVideo) (ZoneVideo, error) {
	orig, err := svc.repo.GetVideo(ctx, id)
	if err != nil {
		return ZoneVideo{}, err
	}
	if err = uv.Validate(orig); err != nil {
		return ZoneVideo{}, err
	}

	vid := ZoneVideo{
		ID:          id,
		Title:       uv.Title,
		Description: uv.Description,
		URL:         uv.URL,
		UpdatedAt:   time.Now().UTC(),
	}
	return svc.repo.UpdateVideo(ctx, vid, uv.IsRequired, uv.IsActive)
}

func (svc *service) DeleteVideos(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteVideosByID(ctx, ids...)
}

func (svc *service) CreateTask(ctx context.Context, nt NewDIYTask) (DIYTask, error) {
	task := DIYTask{
		ZoneNumber:  nt.ZoneNumber,
		Title:       nt.Title,
		Description: nt.Description,
		IsActive:    true,
	}
	return svc.repo.CreateTask(ctx, task)
}

func (svc *service) QueryActiveTasks(ctx context.Context, zone int) ([]DIYTask, error) {
	return svc.repo.QueryActiveTasks(ctx, zone)
}

func (svc *service) DeleteTasks(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteTasksByID(ctx, ids...)
}
