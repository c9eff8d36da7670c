package progress

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/aevoninc/horizonfit/core/catalog"
	"github.com/aevoninc/horizonfit/core/metrics"
	"github.com/aevoninc/horizonfit/core/user"
)

var (
	NowFunc = time.Now // mockable

	// errors
	ErrConflict      = errors.New("progress record changed concurrently")
	ErrNotPatient    = errors.New("user is not a patient")
	ErrZoneNotFound  = errors.New("zone not found")
	ErrZoneCompleted = errors.New("zone already completed")
	ErrNotEligible   = errors.New("metrics submission not allowed")
	ErrProgressNotFound = errors.New("progress record not found")
)

// conflictRetries bounds optimistic-concurrency retries on the video gate.
const conflictRetries = 3

type (
	Repository interface {
		// GetZoneProgress returns the (patient, zone) row, or ErrProgressNotFound.
		GetZoneProgress(ctx context.Context, patientID string, zone int) (ZoneProgress, error)
		// GetOrCreateZoneProgress lazily creates the row on first interaction
		// with a zone. A freshly created row is unlocked and in progress.
		GetOrCreateZoneProgress(ctx context.Context, patientID string, zone int, startedAt time.Time) (ZoneProgress, error)
		QueryZoneProgress(ctx context.Context, patientID string) ([]ZoneProgress, error)
		// UpdateZoneProgress persists zp only if zp.Version still matches the
		// stored row, and bumps the version; returns ErrConflict otherwise.
		UpdateZoneProgress(ctx context.Context, zp ZoneProgress) (ZoneProgress, error)
		// IncrementZoneWeeks atomically upserts the (patient, zone) row and
		// increments WeeksInZone by 1, returning the updated row. A completed
		// zone is terminal: ErrZoneCompleted.
		IncrementZoneWeeks(ctx context.Context, patientID string, zone int, startedAt time.Time) (ZoneProgress, error)
		CompleteZone(ctx context.Context, patientID string, zone int, at time.Time) (ZoneProgress, error)
		// ResetZoneProgress upserts the row for a newly unlocked zone:
		// unlocked, not completed, zero weeks, fresh StartedAt.
		ResetZoneProgress(ctx context.Context, patientID string, zone int, at time.Time) (ZoneProgress, error)

		CreateWeeklyLog(ctx context.Context, wl WeeklyLog) (WeeklyLog, error)
		QueryWeeklyLogs(ctx context.Context, patientID string) ([]WeeklyLog, error)
	}

	// PatientDirectory is the narrow slice of the user repository the engine
	// needs; user.Repository satisfies it.
	PatientDirectory interface {
		GetUserByID(ctx context.Context, id string) (user.User, error)
		SetPatientZone(ctx context.Context, id string, zone int) error
		MarkProgramCompleted(ctx context.Context, id string) error
		IncrementTotalWeeks(ctx context.Context, id string) error
		SetLastMetricsDate(ctx context.Context, id string, at time.Time) error
	}

	Service interface {
		MarkVideoWatched(ctx context.Context, patientID, videoID string) (WatchResult, error)
		CanSubmitMetrics(ctx context.Context, patientID string) (MetricsEligibility, error)
		SubmitMetrics(ctx context.Context, patientID string, nm metrics.NewMetrics) (MetricsResult, error)
		SubmitWeeklyLog(ctx context.Context, patientID string, zone int, nl NewWeeklyLog) (LogResult, error)
		QueryWeeklyLogs(ctx context.Context, patientID string) ([]WeeklyLog, error)
		GetProgress(ctx context.Context, patientID string) (ProgressView, error)
	}

	service struct {
		repo        Repository
		patients    PatientDirectory
		catalogSvc  catalog.Service
		metricsRepo metrics.Repository
		metricsSvc  metrics.Service
	}
)

var _ Service = (*service)(nil)

func NewService(
	repo Repository,
	patients PatientDirectory,
	catalogSvc catalog.Service,
	metricsRepo metrics.Repository,
	metricsSvc metrics.Service,
) Service {
	return &service{
		repo:        repo,
		patients:    patients,
		catalogSvc:  catalogSvc,
		metricsRepo: metricsRepo,
		metricsSvc:  metricsSvc,
	}
}

// getPatient loads the user and ensures it is a patient account.
func (svc *service) getPatient(ctx context.Context, patientID string) (user.User, error) {
	usr, err := svc.patients.GetUserByID(ctx, patientID)
	if err != nil {
		return user.User{}, err
	}
	if !usr.IsPatient() {
		return user.User{}, ErrNotPatient
	}
	return usr, nil
}

// currentZone defaults to zone 1 for accounts enrolled before the
// progression fields existed.
func currentZone(usr user.User) int {
	if usr.CurrentZone < 1 {
		return 1
	}
	return usr.CurrentZone
}
