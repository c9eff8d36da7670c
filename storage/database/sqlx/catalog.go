package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/aevoninc/horizonfit/core"
	"github.com/aevoninc/horizonfit/core/catalog"
)

const videoColumns = "id, zone_number, title, description, url, is_required, is_active, created_at, updated_at"

type videoRow struct {
	ID          string      `db:"id"`
	ZoneNumber  int         `db:"zone_number"`
	Title       null.String `db:"title"`
	Description null.String `db:"description"`
	URL         null.String `db:"url"`
	IsRequired  bool        `db:"is_required"`
	IsActive    bool        `db:"is_active"`
	CreatedAt   null.Time   `db:"created_at"`
	UpdatedAt   null.Time   `db:"updated_at"`
}

func (r videoRow) video() catalog.ZoneVideo {
	return catalog.ZoneVideo{
		ID:          r.ID,
		ZoneNumber:  r.ZoneNumber,
		Title:       r.Title.String,
		Description: r.Description.String,
		URL:         r.URL.String,
		IsRequired:  r.IsRequired,
		IsActive:    r.IsActive,
		CreatedAt:   r.CreatedAt.Time,
		UpdatedAt:   r.UpdatedAt.Time,
	}
}

type taskRow struct {
	ID          string      `db:"id"`
	ZoneNumber  int         `db:"zone_number"`
	Title       null.String `db:"title"`
	Description null.String `db:"description"`
	IsActive    bool        `db:"is_active"`
}

func (r taskRow) task() catalog.DIYTask {
	return catalog.DIYTask{
		ID:          r.ID,
		ZoneNumber:  r.ZoneNumber,
		Title:       r.Title.String,
		Description: r.Description.String,
		IsActive:    r.IsActive,
	}
}

type catalogRepository struct {
	exec core.DBExecutor
}

var _ catalog.Repository = (*catalogRepository)(nil) // interface compliance check

func NewCatalogRepository(exec core.DBExecutor) *catalogRepository {
	return &catalogRepository{exec: exec}
}

func (repo catalogRepository) CreateVideo(ctx context.Context, vid catalog.ZoneVideo) (catalog.ZoneVideo, error) {
	vid.ID = uuid.New().String()
	query := `
		INSERT INTO zone_video (id, zone_number, title, description, url, is_required, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := repo.exec.ExecContext(ctx, query,
		vid.ID, vid.ZoneNumber, vid.Title, vid.Description, vid.URL, vid.IsRequired, vid.IsActive,
		vid.CreatedAt.UTC(), vid.UpdatedAt.UTC(),
	)
	if err != nil {
		return catalog.ZoneVideo{}, errors.Wrap(err, "creating video")
	}
	return vid, nil
}

func (repo catalogRepository) GetVideo(ctx context.Context, id string) (catalog.ZoneVideo, error) {
	var row videoRow
	query := fmt.Sprintf("SELECT %s FROM zone_video WHERE id = $1", videoColumns)
	if err := repo.exec.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return catalog.ZoneVideo{}, catalog.ErrVideoNotFound
		}
		return catalog.ZoneVideo{}, errors.Wrap(err, "getting video")
	}
	return row.video(), nil
}

func (repo catalogRepository) queryVideos(ctx context.Context, where string, args ...interface{}) ([]catalog.ZoneVideo, error) {
	query := fmt.Sprintf("SELECT %s FROM zone_video", videoColumns)
	if where != "" {
		query += " WHERE " + where
	}
	query += " ORDER BY zone_number, created_at"

	var rows []videoRow
	if err := repo.exec.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying videos")
	}
	vids := make([]catalog.ZoneVideo, 0, len(rows))
	for _, r := range rows {
		vids = append(vids, r.video())
	}
	return vids, nil
}

func (repo catalogRepository) QueryVideos(ctx context.Context, zone int) ([]catalog.ZoneVideo, error) {
	if zone == 0 {
		return repo.queryVideos(ctx, "")
	}
	return repo.queryVideos(ctx, "zone_number = $1", zone)
}

func (repo catalogRepository) QueryRequiredActiveVideos(ctx context.Context, zone int) ([]catalog.ZoneVideo, error) {
	return repo.queryVideos(ctx, "zone_number = $1 AND is_required AND is_active", zone)
}

func (repo catalogRepository) UpdateVideo(ctx context.Context, vid catalog.ZoneVideo, isRequired, isActive *bool) (catalog.ZoneVideo, error) {
	var sets []string
	var args []interface{}
	set := func(col string, v interface{}) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if vid.Title != "" {
		set("title", vid.Title)
	}
	if vid.Description != "" {
		set("description", vid.Description)
	}
	if vid.URL != "" {
		set("url", vid.URL)
	}
	if isRequired != nil {
		set("is_required", *isRequired)
	}
	if isActive != nil {
		set("is_active", *isActive)
	}
	set("updated_at", vid.UpdatedAt.UTC())

	args = append(args, vid.ID)
	query := fmt.Sprintf("UPDATE zone_video SET %s WHERE id = $%d RETURNING %s",
		strings.Join(sets, ", "), len(args), videoColumns)

	var row videoRow
	if err := repo.exec.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return catalog.ZoneVideo{}, catalog.ErrVideoNotFound
		}
		return catalog.ZoneVideo{}, errors.Wrap(err, "updating video")
	}
	return row.video(), nil
}

func (repo catalogRepository) DeleteVideosByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := repo.exec.ExecContext(ctx, "DELETE FROM zone_video WHERE id = ANY($1)", pq.Array(ids)); err != nil {
		return errors.Wrap(err, "deleting videos")
	}
	return nil
}

func (repo catalogRepository) CreateTask(ctx context.Context, task catalog.DIYTask) (catalog.DIYTask, error) {
	task.ID = uuid.New().String()
	query := `
		INSERT INTO diy_task (id, zone_number, title, description, is_active)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := repo.exec.ExecContext(ctx, query, task.ID, task.ZoneNumber, task.Title, task.Description, task.IsActive)
	if err != nil {
		return catalog.DIYTask{}, errors.Wrap(err, "creating task")
	}
	return task, nil
}

func (repo catalogRepository) QueryActiveTasks(ctx context.Context, zone int) ([]catalog.DIYTask, error) {
	var rows []taskRow
	query := "SELECT id, zone_number, title, description, is_active FROM diy_task WHERE zone_number = $1 AND is_active ORDER BY title"
	if err := repo.exec.SelectContext(ctx, &rows, query, zone); err != nil {
		return nil, errors.Wrap(err, "querying tasks")
	}
	tasks := make([]catalog.DIYTask, 0, len(rows))
	for _, r := range rows {
		tasks = append(tasks, r.task())
	}
	return tasks, nil
}

func (repo catalogRepository) DeleteTasksByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := repo.exec.ExecContext(ctx, "DELETE FROM diy_task WHERE id = ANY($1)", pq.Array(ids)); err != nil {
		return errors.Wrap(err, "deleting tasks")
	}
	return nil
}
