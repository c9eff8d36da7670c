package metrics

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var (
	// errors
	ErrNoEntries         = errors.New("no metrics recorded")
	ErrNoRecommendations = errors.New("no recommendations computed yet")
)

type (
	// Service exposes the read/override side of metrics. Submissions go
	// through the progression engine, which gates them.
	Service interface {
		QueryEntries(ctx context.Context, patientID string) ([]Entry, error)
		GetView(ctx context.Context, patientID string) (RecommendationsView, error)
		SetOverrides(ctx context.Context, patientID, doctorID string, uo UpdateOverrides) (RecommendationsView, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) QueryEntries(ctx context.Context, patientID string) ([]Entry, error) {
	return svc.repo.QueryEntries(ctx, patientID)
}

func (svc *service) GetView(ctx context.Context, patientID string) (RecommendationsView, error) {
	cache, err := svc.repo.GetRecommendations(ctx, patientID)
	if err != nil {
		return RecommendationsView{}, err
	}
	ovr, err := svc.repo.GetOverrides(ctx, patientID)
	if err != nil {
		return RecommendationsView{}, errors.Wrap(err, "getting overrides")
	}
	return RecommendationsView{
		Computed:     cache.Computed,
		Effective:    ApplyOverrides(cache.Computed, ovr),
		HasOverrides: !ovr.IsEmpty(),
		ComputedAt:   cache.ComputedAt,
	}, nil
}

func (svc *service) SetOverrides(ctx context.Context, patientID, doctorID string, uo UpdateOverrides) (RecommendationsView, error) {
	o := Overrides{
		PatientID: patientID,
		UpdatedBy: doctorID,
		UpdatedAt: time.Now().UTC(),
	}
	if uo.CaloriesPerDay != nil {
		o.CaloriesPerDay.SetValid(*uo.CaloriesPerDay)
	}
	if uo.ProteinGramsPerDay != nil {
		o.ProteinGramsPerDay.SetValid(*uo.ProteinGramsPerDay)
	}
	if uo.WaterLitresPerDay != nil {
		o.WaterLitresPerDay.SetValid(*uo.WaterLitresPerDay)
	}
	if uo.StepsPerDay != nil {
		o.StepsPerDay.SetValid(*uo.StepsPerDay)
	}
	if uo.SleepHoursPerNight != nil {
		o.SleepHoursPerNight.SetValid(*uo.SleepHoursPerNight)
	}
	if uo.Guidance != nil {
		o.Guidance.SetValid(*uo.Guidance)
	}
	if err := svc.repo.UpsertOverrides(ctx, o); err != nil {
		return RecommendationsView{}, errors.Wrap(err, "upserting overrides")
	}
	return svc.GetView(ctx, patientID)
}
