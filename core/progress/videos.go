package progress

import (
	"context"

	"github.com/pkg/errors"

	"github.com/aevoninc/horizonfit/core/catalog"
)

// MarkVideoWatched records that the patient watched a video. The video's own
// zone is authoritative; the caller never supplies one. Idempotent: watching
// an already-watched video is a no-op.
func (svc *service) MarkVideoWatched(ctx context.Context, patientID, videoID string) (WatchResult, error) {
	if _, err := svc.getPatient(ctx, patientID); err != nil {
		return WatchResult{}, err
	}

	vid, err := svc.catalogSvc.GetVideo(ctx, videoID)
	if err != nil {
		return WatchResult{}, err
	}
	if !vid.IsActive {
		return WatchResult{}, catalog.ErrVideoNotFound
	}

	required, err := svc.catalogSvc.QueryRequiredActiveVideos(ctx, vid.ZoneNumber)
	if err != nil {
		return WatchResult{}, errors.Wrap(err, "querying required videos")
	}

	now := NowFunc().UTC()
	for attempt := 0; attempt < conflictRetries; attempt++ {
		zp, err := svc.repo.GetOrCreateZoneProgress(ctx, patientID, vid.ZoneNumber, now)
		if err != nil {
			return WatchResult{}, errors.Wrap(err, "loading zone progress")
		}

		if !zp.HasWatched(vid.ID) {
			zp.WatchedVideos = append(zp.WatchedVideos, vid.ID)
		}
		zp.VideosCompleted = allRequiredWatched(zp, required)

		saved, err := svc.repo.UpdateZoneProgress(ctx, zp)
		if errors.Cause(err) == ErrConflict {
			continue // reread and retry
		}
		if err != nil {
			return WatchResult{}, errors.Wrap(err, "saving zone progress")
		}
		return WatchResult{
			VideosCompleted: saved.VideosCompleted,
			WatchedCount:    watchedRequiredCount(saved, required),
			TotalRequired:   len(required),
		}, nil
	}
	return WatchResult{}, ErrConflict
}

// allRequiredWatched reports whether every required active video of the zone
// is in the watched set. A zone with no required videos is trivially done.
func allRequiredWatched(zp ZoneProgress, required []catalog.ZoneVideo) bool {
	for _, vid := range required {
		if !zp.HasWatched(vid.ID) {
			return false
		}
	}
	return true
}

// watchedRequiredCount counts required videos in the watched set; optional
// videos a patient watched do not count toward the gate.
func watchedRequiredCount(zp ZoneProgress, required []catalog.ZoneVideo) int {
	var n int
	for _, vid := range required {
		if zp.HasWatched(vid.ID) {
			n++
		}
	}
	return n
}
