package progress

import (
	"context"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/aevoninc/horizonfit/core/catalog"
)

// SubmitWeeklyLog records one weekly log and advances the promotion machine.
// The log itself is not gated: it is appended unconditionally before the
// zone counter moves. Promotion fires exactly once, on the submission that
// brings WeeksInZone up to the zone's required weeks; completing the final
// zone marks the whole program completed instead of advancing further.
func (svc *service) SubmitWeeklyLog(ctx context.Context, patientID string, zone int, nl NewWeeklyLog) (LogResult, error) {
	if err := nl.Validate(); err != nil {
		return LogResult{}, err
	}
	z, ok := catalog.ZoneByNumber(zone)
	if !ok {
		return LogResult{}, ErrZoneNotFound
	}
	usr, err := svc.getPatient(ctx, patientID)
	if err != nil {
		return LogResult{}, err
	}

	now := NowFunc().UTC()
	wl := WeeklyLog{
		PatientID:      patientID,
		ZoneNumber:     zone,
		WeekNumber:     usr.TotalWeeksCompleted + 1,
		Compliance:     nl.Compliance,
		CompletedTasks: nl.CompletedTasks,
		TotalTasks:     nl.TotalTasks,
		Notes:          nl.Notes,
		SubmittedAt:    now,
	}
	wl.Weight = null.Float64FromPtr(nl.Weight)
	wl.BodyFatPct = null.Float64FromPtr(nl.BodyFatPct)
	wl.VisceralFat = null.Float64FromPtr(nl.VisceralFat)

	if _, err := svc.repo.CreateWeeklyLog(ctx, wl); err != nil {
		return LogResult{}, errors.Wrap(err, "creating weekly log")
	}

	// Atomic upsert+increment keeps the counter exact under concurrent
	// submissions; a completed zone is terminal and never re-promotes.
	zp, err := svc.repo.IncrementZoneWeeks(ctx, patientID, zone, now)
	if err != nil {
		return LogResult{}, err
	}
	if err := svc.patients.IncrementTotalWeeks(ctx, patientID); err != nil {
		return LogResult{}, errors.Wrap(err, "incrementing total weeks")
	}

	if zp.WeeksInZone < z.MinWeeks {
		return LogResult{Action: ActionContinueZone, CurrentWeeks: zp.WeeksInZone}, nil
	}

	if _, err := svc.repo.CompleteZone(ctx, patientID, zone, now); err != nil {
		return LogResult{}, errors.Wrap(err, "completing zone")
	}

	nextZone := zone + 1
	if nextZone > catalog.MaxZone() {
		if err := svc.patients.MarkProgramCompleted(ctx, patientID); err != nil {
			return LogResult{}, errors.Wrap(err, "marking program completed")
		}
		return LogResult{Action: ActionProgramComplete}, nil
	}

	if err := svc.patients.SetPatientZone(ctx, patientID, nextZone); err != nil {
		return LogResult{}, errors.Wrap(err, "advancing patient zone")
	}
	if _, err := svc.repo.ResetZoneProgress(ctx, patientID, nextZone, now); err != nil {
		return LogResult{}, errors.Wrap(err, "unlocking next zone")
	}
	return LogResult{Action: ActionZoneUpgrade, NewZone: nextZone}, nil
}

// QueryWeeklyLogs returns a patient's weekly-log history in week order.
func (svc *service) QueryWeeklyLogs(ctx context.Context, patientID string) ([]WeeklyLog, error) {
	return svc.repo.QueryWeeklyLogs(ctx, patientID)
}
