package progress

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/aevoninc/horizonfit/core"
	"github.com/aevoninc/horizonfit/core/catalog"
	"github.com/aevoninc/horizonfit/core/metrics"
)

// Reason is why a body-metrics submission is currently not allowed.
type Reason string

const (
	ReasonVideosIncomplete Reason = "videos_incomplete"
	ReasonWeeklyLimit      Reason = "weekly_limit"
)

// Action is the outcome of an accepted weekly-log submission.
type Action string

const (
	ActionContinueZone    Action = "CONTINUE_ZONE"
	ActionZoneUpgrade     Action = "ZONE_UPGRADE"
	ActionProgramComplete Action = "PROGRAM_COMPLETE"
)

// Weekly-log compliance categories.
const (
	ComplianceFull    = "full"
	CompliancePartial = "partial"
	ComplianceNone    = "none"
)

// ZoneProgress is the per-(patient, zone) progression record. Created lazily
// on first interaction with a zone, never deleted. Version implements
// optimistic concurrency on read-modify-write paths.
type ZoneProgress struct {
	ID              string    `json:"id"`
	PatientID       string    `json:"patient_id"`
	ZoneNumber      int       `json:"zone_number"`
	IsUnlocked      bool      `json:"is_unlocked"`
	IsCompleted     bool      `json:"is_completed"`
	VideosCompleted bool      `json:"videos_completed"`
	WatchedVideos   []string  `json:"watched_videos"`
	WeeksInZone     int       `json:"weeks_in_zone"`
	StartedAt       null.Time `json:"started_at"`
	CompletedAt     null.Time `json:"completed_at"`
	Version         int       `json:"-"`
}

func (zp ZoneProgress) HasWatched(videoID string) bool {
	for _, id := range zp.WatchedVideos {
		if id == videoID {
			return true
		}
	}
	return false
}

// WeeklyLog is one weekly activity submission. Append-only; each accepted
// submission increments the corresponding ZoneProgress.WeeksInZone.
type WeeklyLog struct {
	ID         string `json:"id"`
	PatientID  string `json:"patient_id"`
	ZoneNumber int    `json:"zone_number"`
	WeekNumber int    `json:"week_number"`

	// optional metrics snapshot
	Weight      null.Float64 `json:"weight"`
	BodyFatPct  null.Float64 `json:"body_fat_pct"`
	VisceralFat null.Float64 `json:"visceral_fat"`

	Compliance     string    `json:"compliance"`
	CompletedTasks int       `json:"completed_tasks"`
	TotalTasks     int       `json:"total_tasks"`
	Notes          string    `json:"notes"`
	SubmittedAt    time.Time `json:"submitted_at"` // UTC
}

// NewWeeklyLog contains information needed to submit a weekly log.
type NewWeeklyLog struct {
	Compliance     string   `json:"compliance" validate:"required,oneof=full partial none"`
	CompletedTasks int      `json:"completed_tasks" validate:"min=0"`
	TotalTasks     int      `json:"total_tasks" validate:"min=0,gtefield=CompletedTasks"`
	Weight         *float64 `json:"weight"`
	BodyFatPct     *float64 `json:"body_fat_pct"`
	VisceralFat    *float64 `json:"visceral_fat"`
	Notes          string   `json:"notes"`
}

func (nl *NewWeeklyLog) Validate() error {
	nl.Compliance = core.CleanString(nl.Compliance, true /* lower */)
	nl.Notes = core.CleanString(nl.Notes)
	return core.Validate.Struct(nl)
}

// WatchResult reports the video-gate state after a watch action.
type WatchResult struct {
	VideosCompleted bool `json:"videos_completed"`
	WatchedCount    int  `json:"watched_count"`
	TotalRequired   int  `json:"total_required"`
}

// MetricsEligibility is the metrics gate's answer: data, not an error.
type MetricsEligibility struct {
	Allowed       bool   `json:"allowed"`
	Reason        Reason `json:"reason,omitempty"`
	DaysRemaining int    `json:"days_remaining,omitempty"`
}

// MetricsResult is returned by an accepted metrics submission.
type MetricsResult struct {
	RecordedAt      time.Time               `json:"recorded_at"`
	Recommendations metrics.Recommendations `json:"recommendations"`
}

// LogResult is the promotion machine's outcome for one weekly log.
type LogResult struct {
	Action       Action `json:"action"`
	NewZone      int    `json:"new_zone,omitempty"`
	CurrentWeeks int    `json:"current_weeks,omitempty"`
}

// VideoView annotates a catalog video with the patient's watched status.
type VideoView struct {
	catalog.ZoneVideo
	Watched bool `json:"watched"`
}

// ZoneView is one zone's slice of the full progress payload.
type ZoneView struct {
	Zone            catalog.Zone `json:"zone"`
	IsUnlocked      bool         `json:"is_unlocked"`
	IsCompleted     bool         `json:"is_completed"`
	VideosCompleted bool         `json:"videos_completed"`
	WeeksInZone     int          `json:"weeks_in_zone"`
	MinWeeks        int          `json:"min_weeks"`
	Videos          []VideoView  `json:"videos"`
	StartedAt       null.Time    `json:"started_at"`
	CompletedAt     null.Time    `json:"completed_at"`
}

// ProgressView is the full read-only progress payload for one patient.
type ProgressView struct {
	CurrentZone          int                          `json:"current_zone"`
	TotalWeeksCompleted  int                          `json:"total_weeks_completed"`
	ProgramCompleted     bool                         `json:"program_completed"`
	Zones                []ZoneView                   `json:"zones"`
	Tasks                []catalog.DIYTask            `json:"tasks"` // current zone only
	CanEnterMetrics      bool                         `json:"can_enter_metrics"`
	MetricsReason        Reason                       `json:"metrics_reason,omitempty"`
	DaysUntilNextMetrics int                          `json:"days_until_next_metrics,omitempty"`
	Recommendations      *metrics.RecommendationsView `json:"recommendations,omitempty"`
}
