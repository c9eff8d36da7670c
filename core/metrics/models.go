package metrics

import (
	"context"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/aevoninc/horizonfit/core"
)

// Measurement kinds; one Entry row is appended per kind on each submission.
const (
	KindWeight      = "weight"       // kg
	KindBodyFat     = "body_fat"     // percent
	KindVisceralFat = "visceral_fat" // rating
)

// Entry is a single timestamped body measurement. Append-only.
type Entry struct {
	ID           string    `json:"id"`
	PatientID    string    `json:"patient_id"`
	Kind         string    `json:"kind"`
	Value        float64   `json:"value"`
	DateRecorded time.Time `json:"date_recorded"` // UTC
}

// NewMetrics is one body-metrics submission. All three measurements are
// required; range checks belong to the doctor-facing input boundary.
type NewMetrics struct {
	Weight      *float64 `json:"weight" validate:"required"`
	BodyFatPct  *float64 `json:"body_fat_pct" validate:"required"`
	VisceralFat *float64 `json:"visceral_fat" validate:"required"`
}

func (nm NewMetrics) Validate() error { return core.Validate.Struct(nm) }

// Recommendations is the computed lifestyle guidance for a patient.
type Recommendations struct {
	CaloriesPerDay     int     `json:"calories_per_day"`
	ProteinGramsPerDay int     `json:"protein_grams_per_day"`
	WaterLitresPerDay  float64 `json:"water_litres_per_day"`
	StepsPerDay        int     `json:"steps_per_day"`
	SleepHoursPerNight float64 `json:"sleep_hours_per_night"`
	Guidance           string  `json:"guidance"`
}

// RecommendationsCache is the stored computed output of the latest accepted
// metrics submission. Replaced wholesale on each submission; doctor overrides
// are layered on read, never merged into the stored copy.
type RecommendationsCache struct {
	PatientID  string          `json:"patient_id"`
	Computed   Recommendations `json:"computed"`
	ComputedAt time.Time       `json:"computed_at"` // UTC
}

// Overrides is a field-level patch a doctor may apply over the computed
// recommendations. An unset field falls through to the computed value.
type Overrides struct {
	PatientID          string     `json:"patient_id"`
	CaloriesPerDay     null.Int   `json:"calories_per_day"`
	ProteinGramsPerDay null.Int   `json:"protein_grams_per_day"`
	WaterLitresPerDay  null.Float64 `json:"water_litres_per_day"`
	StepsPerDay        null.Int   `json:"steps_per_day"`
	SleepHoursPerNight null.Float64 `json:"sleep_hours_per_night"`
	Guidance           null.String `json:"guidance"`
	UpdatedBy          string     `json:"updated_by"` // doctor user ID
	UpdatedAt          time.Time  `json:"updated_at"` // UTC
}

func (o Overrides) IsEmpty() bool {
	return !o.CaloriesPerDay.Valid && !o.ProteinGramsPerDay.Valid && !o.WaterLitresPerDay.Valid &&
		!o.StepsPerDay.Valid && !o.SleepHoursPerNight.Valid && !o.Guidance.Valid
}

// UpdateOverrides defines the patch a doctor may submit. A null field clears
// nothing; clearing is done by submitting an empty patch.
type UpdateOverrides struct {
	CaloriesPerDay     *int     `json:"calories_per_day" validate:"omitempty,min=0"`
	ProteinGramsPerDay *int     `json:"protein_grams_per_day" validate:"omitempty,min=0"`
	WaterLitresPerDay  *float64 `json:"water_litres_per_day" validate:"omitempty,min=0"`
	StepsPerDay        *int     `json:"steps_per_day" validate:"omitempty,min=0"`
	SleepHoursPerNight *float64 `json:"sleep_hours_per_night" validate:"omitempty,min=0"`
	Guidance           *string  `json:"guidance"`
}

func (uo UpdateOverrides) Validate() error { return core.Validate.Struct(uo) }

// RecommendationsView is what patients and doctors see: the computed base and
// the effective values after doctor overrides.
type RecommendationsView struct {
	Computed     Recommendations `json:"computed"`
	Effective    Recommendations `json:"effective"`
	HasOverrides bool            `json:"has_overrides"`
	ComputedAt   time.Time       `json:"computed_at"`
}

type Repository interface {
	AppendEntries(ctx context.Context, entries ...Entry) error
	// GetLatestEntry returns the most recent entry of any kind for the
	// patient, or ErrNoEntries.
	GetLatestEntry(ctx context.Context, patientID string) (Entry, error)
	QueryEntries(ctx context.Context, patientID string) ([]Entry, error)

	ReplaceRecommendations(ctx context.Context, cache RecommendationsCache) error
	// GetRecommendations returns the stored cache, or ErrNoRecommendations.
	GetRecommendations(ctx context.Context, patientID string) (RecommendationsCache, error)
	// GetOverrides returns the zero Overrides when the doctor has set none.
	GetOverrides(ctx context.Context, patientID string) (Overrides, error)
	UpsertOverrides(ctx context.Context, o Overrides) error
}
