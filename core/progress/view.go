package progress

import (
	"context"

	"github.com/pkg/errors"

	"github.com/aevoninc/horizonfit/core/catalog"
	"github.com/aevoninc/horizonfit/core/metrics"
)

// GetProgress composes the full progress payload: one ZoneView per zone,
// DIY tasks for the current zone only, the metrics-gate state and the
// recommendations view. Read-only apart from the lazy bootstrap of the
// zone-1 record for first-time patients.
func (svc *service) GetProgress(ctx context.Context, patientID string) (ProgressView, error) {
	usr, err := svc.getPatient(ctx, patientID)
	if err != nil {
		return ProgressView{}, err
	}

	now := NowFunc().UTC()
	if _, err := svc.repo.GetOrCreateZoneProgress(ctx, patientID, 1, now); err != nil {
		return ProgressView{}, errors.Wrap(err, "bootstrapping zone 1")
	}

	rows, err := svc.repo.QueryZoneProgress(ctx, patientID)
	if err != nil {
		return ProgressView{}, errors.Wrap(err, "querying zone progress")
	}
	byZone := make(map[int]ZoneProgress, len(rows))
	for _, zp := range rows {
		byZone[zp.ZoneNumber] = zp
	}

	zones := catalog.Zones()
	zoneViews := make([]ZoneView, 0, len(zones))
	for _, z := range zones {
		zp := byZone[z.Number] // zero value: locked, no progress

		required, err := svc.catalogSvc.QueryRequiredActiveVideos(ctx, z.Number)
		if err != nil {
			return ProgressView{}, errors.Wrap(err, "querying required videos")
		}
		videos := make([]VideoView, 0, len(required))
		for _, vid := range required {
			videos = append(videos, VideoView{ZoneVideo: vid, Watched: zp.HasWatched(vid.ID)})
		}

		zoneViews = append(zoneViews, ZoneView{
			Zone:            z,
			IsUnlocked:      zp.IsUnlocked,
			IsCompleted:     zp.IsCompleted,
			VideosCompleted: allRequiredWatched(zp, required) && zp.IsUnlocked,
			WeeksInZone:     zp.WeeksInZone,
			MinWeeks:        z.MinWeeks,
			Videos:          videos,
			StartedAt:       zp.StartedAt,
			CompletedAt:     zp.CompletedAt,
		})
	}

	// tasks for the current zone only
	tasks, err := svc.catalogSvc.QueryActiveTasks(ctx, currentZone(usr))
	if err != nil {
		return ProgressView{}, errors.Wrap(err, "querying zone tasks")
	}

	elig, err := svc.eligibility(ctx, usr)
	if err != nil {
		return ProgressView{}, err
	}

	view := ProgressView{
		CurrentZone:          currentZone(usr),
		TotalWeeksCompleted:  usr.TotalWeeksCompleted,
		ProgramCompleted:     usr.ProgramCompleted,
		Zones:                zoneViews,
		Tasks:                tasks,
		CanEnterMetrics:      elig.Allowed,
		MetricsReason:        elig.Reason,
		DaysUntilNextMetrics: elig.DaysRemaining,
	}

	recs, err := svc.metricsSvc.GetView(ctx, patientID)
	switch errors.Cause(err) {
	case nil:
		view.Recommendations = &recs
	case metrics.ErrNoRecommendations:
		// none computed yet
	default:
		return ProgressView{}, errors.Wrap(err, "getting recommendations view")
	}

	return view, nil
}
