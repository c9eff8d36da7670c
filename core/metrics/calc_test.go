package metrics

import (
	"strings"
	"testing"

	"github.com/volatiletech/null/v8"
)

func TestCalculate(t *testing.T) {
	tests := []struct {
		name                         string
		weight, bodyFat, visceralFat float64
		want                         Recommendations
		guidanceHint                 string
	}{
		{
			name: "normal visceral fat", weight: 80, bodyFat: 25, visceralFat: 8,
			want:         Recommendations{CaloriesPerDay: 2250, ProteinGramsPerDay: 96, WaterLitresPerDay: 2.8, StepsPerDay: 8000, SleepHoursPerNight: 7.5},
			guidanceHint: "consistency",
		},
		{
			name: "elevated visceral fat", weight: 100, bodyFat: 30, visceralFat: 12,
			want:         Recommendations{CaloriesPerDay: 2250, ProteinGramsPerDay: 112, WaterLitresPerDay: 3.5, StepsPerDay: 10000, SleepHoursPerNight: 7.5},
			guidanceHint: "elevated",
		},
		{
			name: "high visceral fat", weight: 90, bodyFat: 40, visceralFat: 15,
			want:         Recommendations{CaloriesPerDay: 1750, ProteinGramsPerDay: 86, WaterLitresPerDay: 3.2, StepsPerDay: 12000, SleepHoursPerNight: 7.5},
			guidanceHint: "high",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Calculate(tt.weight, tt.bodyFat, tt.visceralFat)
			if !strings.Contains(got.Guidance, tt.guidanceHint) {
				t.Errorf("Calculate() Guidance = %q, want it to mention %q", got.Guidance, tt.guidanceHint)
			}
			got.Guidance = ""
			if got != tt.want {
				t.Errorf("Calculate() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestCalculate_deterministic(t *testing.T) {
	if Calculate(80, 25, 8) != Calculate(80, 25, 8) {
		t.Error("Calculate() is not deterministic")
	}
}

func TestApplyOverrides(t *testing.T) {
	computed := Calculate(80, 25, 8)

	if got := ApplyOverrides(computed, Overrides{}); got != computed {
		t.Errorf("ApplyOverrides(empty) = %+v, want computed %+v", got, computed)
	}

	o := Overrides{
		CaloriesPerDay: null.IntFrom(2000),
		StepsPerDay:    null.IntFrom(9000),
		Guidance:       null.StringFrom("Stick to the plan we discussed."),
	}
	got := ApplyOverrides(computed, o)
	if got.CaloriesPerDay != 2000 || got.StepsPerDay != 9000 {
		t.Errorf("ApplyOverrides() = %+v, want calories=2000 steps=9000", got)
	}
	if got.Guidance != "Stick to the plan we discussed." {
		t.Errorf("ApplyOverrides() Guidance = %q", got.Guidance)
	}
	// untouched fields fall through to the computed values
	if got.ProteinGramsPerDay != computed.ProteinGramsPerDay ||
		got.WaterLitresPerDay != computed.WaterLitresPerDay ||
		got.SleepHoursPerNight != computed.SleepHoursPerNight {
		t.Errorf("ApplyOverrides() = %+v, want untouched fields from %+v", got, computed)
	}
}
