package metrics

import (
	"fmt"
	"math"
)

// Visceral-fat bands (Tanita-style rating scale).
const (
	visceralElevated = 10
	visceralHigh     = 15
)

// Calculate derives lifestyle recommendations from one metrics submission.
// Pure and deterministic: the same inputs always produce the same output.
func Calculate(weight, bodyFatPct, visceralFat float64) Recommendations {
	leanMass := weight * (1 - bodyFatPct/100)

	// Katch-McArdle resting expenditure, scaled for light activity.
	bmr := 370 + 21.6*leanMass
	calories := bmr * 1.35
	if visceralFat >= visceralElevated {
		calories -= 300 // mild deficit
	}

	steps := 8000
	switch {
	case visceralFat >= visceralHigh:
		steps = 12000
	case visceralFat >= visceralElevated:
		steps = 10000
	}

	return Recommendations{
		CaloriesPerDay:     roundTo(calories, 50),
		ProteinGramsPerDay: int(math.Round(leanMass * 1.6)),
		WaterLitresPerDay:  math.Round(weight*0.035*10) / 10,
		StepsPerDay:        steps,
		SleepHoursPerNight: 7.5,
		Guidance:           guidance(visceralFat),
	}
}

// ApplyOverrides layers a doctor's field-level patch over the computed
// recommendations. An unset override field keeps the computed value.
func ApplyOverrides(computed Recommendations, o Overrides) Recommendations {
	out := computed
	if o.CaloriesPerDay.Valid {
		out.CaloriesPerDay = o.CaloriesPerDay.Int
	}
	if o.ProteinGramsPerDay.Valid {
		out.ProteinGramsPerDay = o.ProteinGramsPerDay.Int
	}
	if o.WaterLitresPerDay.Valid {
		out.WaterLitresPerDay = o.WaterLitresPerDay.Float64
	}
	if o.StepsPerDay.Valid {
		out.StepsPerDay = o.StepsPerDay.Int
	}
	if o.SleepHoursPerNight.Valid {
		out.SleepHoursPerNight = o.SleepHoursPerNight.Float64
	}
	if o.Guidance.Valid {
		out.Guidance = o.Guidance.String
	}
	return out
}

func guidance(visceralFat float64) string {
	switch {
	case visceralFat >= visceralHigh:
		return "Visceral fat is high. Prioritize daily walks, cut liquid calories and keep a consistent sleep schedule."
	case visceralFat >= visceralElevated:
		return "Visceral fat is elevated. Add low-intensity cardio on most days and front-load protein at breakfast."
	default:
		return "Keep up your current routine and focus on consistency over intensity."
	}
}

func roundTo(v float64, step int) int {
	return int(math.Round(v/float64(step))) * step
}

// String implements fmt.Stringer for log lines.
func (r Recommendations) String() string {
	return fmt.Sprintf("%dkcal/%dg protein/%.1fL water/%d steps", r.CaloriesPerDay, r.ProteinGramsPerDay, r.WaterLitresPerDay, r.StepsPerDay)
}
