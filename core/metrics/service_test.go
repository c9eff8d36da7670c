package metrics_test

import (
	"context"
	"testing"
	"time"

	"github.com/aevoninc/horizonfit/core/metrics"
	inmemdb "github.com/aevoninc/horizonfit/storage/database/inmem"
	testutil "github.com/aevoninc/horizonfit/tests"
)

var ctx = context.Background()

func setup(t *testing.T) (metrics.Service, metrics.Repository) {
	db := testutil.OpenDB(t)
	repo := inmemdb.NewMetricsRepository(db)
	return metrics.NewService(repo), repo
}

func iptr(v int) *int { return &v }

func Test_service_GetView(t *testing.T) {
	svc, repo := setup(t)
	patientID := "11111111-1111-1111-1111-111111111111"

	if _, err := svc.GetView(ctx, patientID); err != metrics.ErrNoRecommendations {
		t.Errorf("GetView() error = %v, wantErr %v", err, metrics.ErrNoRecommendations)
	}

	computed := metrics.Calculate(80, 25, 8)
	computedAt := time.Date(2021, 3, 1, 9, 0, 0, 0, time.UTC)
	err := repo.ReplaceRecommendations(ctx, metrics.RecommendationsCache{
		PatientID:  patientID,
		Computed:   computed,
		ComputedAt: computedAt,
	})
	if err != nil {
		t.Fatalf("ReplaceRecommendations() failed, %v", err)
	}

	view, err := svc.GetView(ctx, patientID)
	if err != nil {
		t.Fatalf("GetView() failed, %v", err)
	}
	if view.Computed != computed || view.Effective != computed {
		t.Errorf("GetView() = %+v, want computed == effective == %+v", view, computed)
	}
	if view.HasOverrides {
		t.Error("HasOverrides = true, want false")
	}
	if !view.ComputedAt.Equal(computedAt) {
		t.Errorf("ComputedAt = %v, want %v", view.ComputedAt, computedAt)
	}
}

func Test_service_SetOverrides(t *testing.T) {
	svc, repo := setup(t)
	patientID := "11111111-1111-1111-1111-111111111111"
	doctorID := "22222222-2222-2222-2222-222222222222"

	computed := metrics.Calculate(80, 25, 8)
	err := repo.ReplaceRecommendations(ctx, metrics.RecommendationsCache{
		PatientID:  patientID,
		Computed:   computed,
		ComputedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("ReplaceRecommendations() failed, %v", err)
	}

	view, err := svc.SetOverrides(ctx, patientID, doctorID, metrics.UpdateOverrides{
		CaloriesPerDay: iptr(2000),
		StepsPerDay:    iptr(9000),
	})
	if err != nil {
		t.Fatalf("SetOverrides() failed, %v", err)
	}
	if !view.HasOverrides {
		t.Error("HasOverrides = false, want true")
	}
	if view.Computed != computed {
		t.Errorf("Computed = %+v, want untouched %+v", view.Computed, computed)
	}
	if view.Effective.CaloriesPerDay != 2000 || view.Effective.StepsPerDay != 9000 {
		t.Errorf("Effective = %+v, want calories=2000 steps=9000", view.Effective)
	}
	if view.Effective.ProteinGramsPerDay != computed.ProteinGramsPerDay {
		t.Errorf("Effective.ProteinGramsPerDay = %d, want computed %d", view.Effective.ProteinGramsPerDay, computed.ProteinGramsPerDay)
	}

	ovr, err := repo.GetOverrides(ctx, patientID)
	if err != nil {
		t.Fatalf("GetOverrides() failed, %v", err)
	}
	if ovr.UpdatedBy != doctorID {
		t.Errorf("UpdatedBy = %s, want %s", ovr.UpdatedBy, doctorID)
	}

	// an empty patch clears all overrides
	view, err = svc.SetOverrides(ctx, patientID, doctorID, metrics.UpdateOverrides{})
	if err != nil {
		t.Fatalf("SetOverrides() failed, %v", err)
	}
	if view.HasOverrides {
		t.Error("HasOverrides = true, want false after clearing")
	}
	if view.Effective != computed {
		t.Errorf("Effective = %+v, want computed %+v", view.Effective, computed)
	}
}
