package progress

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/aevoninc/horizonfit/core"
	"github.com/aevoninc/horizonfit/core/metrics"
	"github.com/aevoninc/horizonfit/core/user"
)

// CanSubmitMetrics answers whether the patient may submit body metrics right
// now. Gate failures are data, not errors, so callers can render guidance.
func (svc *service) CanSubmitMetrics(ctx context.Context, patientID string) (MetricsEligibility, error) {
	usr, err := svc.getPatient(ctx, patientID)
	if err != nil {
		return MetricsEligibility{}, err
	}
	return svc.eligibility(ctx, usr)
}

// SubmitMetrics accepts one metrics submission: three entries with an
// identical timestamp, a freshly computed recommendations cache and an
// updated LastMetricsDate. Fails with ErrNotEligible when the gate is shut.
func (svc *service) SubmitMetrics(ctx context.Context, patientID string, nm metrics.NewMetrics) (MetricsResult, error) {
	if err := nm.Validate(); err != nil {
		return MetricsResult{}, err
	}

	usr, err := svc.getPatient(ctx, patientID)
	if err != nil {
		return MetricsResult{}, err
	}
	elig, err := svc.eligibility(ctx, usr)
	if err != nil {
		return MetricsResult{}, err
	}
	if !elig.Allowed {
		return MetricsResult{}, ErrNotEligible
	}

	now := NowFunc().UTC()
	entries := []metrics.Entry{
		{PatientID: patientID, Kind: metrics.KindWeight, Value: *nm.Weight, DateRecorded: now},
		{PatientID: patientID, Kind: metrics.KindBodyFat, Value: *nm.BodyFatPct, DateRecorded: now},
		{PatientID: patientID, Kind: metrics.KindVisceralFat, Value: *nm.VisceralFat, DateRecorded: now},
	}
	if err := svc.metricsRepo.AppendEntries(ctx, entries...); err != nil {
		return MetricsResult{}, errors.Wrap(err, "appending metrics entries")
	}

	recs := metrics.Calculate(*nm.Weight, *nm.BodyFatPct, *nm.VisceralFat)
	cache := metrics.RecommendationsCache{
		PatientID:  patientID,
		Computed:   recs,
		ComputedAt: now,
	}
	if err := svc.metricsRepo.ReplaceRecommendations(ctx, cache); err != nil {
		return MetricsResult{}, errors.Wrap(err, "replacing recommendations")
	}
	if err := svc.patients.SetLastMetricsDate(ctx, patientID, now); err != nil {
		return MetricsResult{}, errors.Wrap(err, "setting last metrics date")
	}

	return MetricsResult{RecordedAt: now, Recommendations: recs}, nil
}

// eligibility checks the gate preconditions in order: videos first, then the
// metrics interval.
func (svc *service) eligibility(ctx context.Context, usr user.User) (MetricsEligibility, error) {
	done, err := svc.videosCompleted(ctx, usr.ID, currentZone(usr))
	if err != nil {
		return MetricsEligibility{}, err
	}
	if !done {
		return MetricsEligibility{Reason: ReasonVideosIncomplete}, nil
	}

	last, err := svc.metricsRepo.GetLatestEntry(ctx, usr.ID)
	if err != nil {
		if errors.Cause(err) == metrics.ErrNoEntries {
			return MetricsEligibility{Allowed: true}, nil // first entry always allowed
		}
		return MetricsEligibility{}, errors.Wrap(err, "getting latest metrics entry")
	}

	interval := core.Conf.Progress.MetricsIntervalDays
	days := daysBetween(last.DateRecorded, NowFunc())
	if days < interval {
		return MetricsEligibility{Reason: ReasonWeeklyLimit, DaysRemaining: interval - days}, nil
	}
	return MetricsEligibility{Allowed: true}, nil
}

// videosCompleted evaluates the video-gate invariant for (patient, zone):
// true iff every required active video of the zone is in the watched set.
func (svc *service) videosCompleted(ctx context.Context, patientID string, zone int) (bool, error) {
	required, err := svc.catalogSvc.QueryRequiredActiveVideos(ctx, zone)
	if err != nil {
		return false, errors.Wrap(err, "querying required videos")
	}

	zp, err := svc.repo.GetZoneProgress(ctx, patientID, zone)
	if err != nil {
		if errors.Cause(err) == ErrProgressNotFound {
			return len(required) == 0, nil
		}
		return false, errors.Wrap(err, "loading zone progress")
	}
	return allRequiredWatched(zp, required), nil
}

// daysBetween is the gate's elapsed-day formula: full days, truncated toward
// zero. 6 days 23 hours counts as 6.
func daysBetween(from, to time.Time) int {
	return int(to.Sub(from) / (24 * time.Hour))
}
