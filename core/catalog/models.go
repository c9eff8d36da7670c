package catalog

import (
	"time"

	"github.com/aevoninc/horizonfit/core"
)

// Zone is the static metadata of a program stage. The zone table is the single
// source of truth for how many weekly logs a patient must submit before being
// promoted out of a zone.
type Zone struct {
	Number      int    `json:"number"`
	Name        string `json:"name"`
	Description string `json:"description"`
	MinWeeks    int    `json:"min_weeks"`
}

var zones = []Zone{
	{Number: 1, Name: "Foundation", Description: "Learn the program basics and build daily awareness of your habits.", MinWeeks: 3},
	{Number: 2, Name: "Kickstart", Description: "Put the fundamentals into practice with light daily activity and meal structure.", MinWeeks: 3},
	{Number: 3, Name: "Momentum", Description: "Increase activity intensity and lock in a consistent weekly routine.", MinWeeks: 3},
	{Number: 4, Name: "Transformation", Description: "Target body-composition changes with progressive training and nutrition.", MinWeeks: 3},
	{Number: 5, Name: "Lifestyle", Description: "Consolidate everything into a sustainable long-term lifestyle.", MinWeeks: 3},
}

// Zones returns the static zone table in order.
func Zones() []Zone {
	out := make([]Zone, len(zones))
	copy(out, zones)
	return out
}

// ZoneByNumber looks a zone up by its 1-based number.
func ZoneByNumber(n int) (Zone, bool) {
	if n < 1 || n > len(zones) {
		return Zone{}, false
	}
	return zones[n-1], true
}

// MaxZone is the number of the last program zone.
func MaxZone() int { return len(zones) }

// ZoneVideo is an educational video curated by doctors. Patients must watch
// every required active video of their current zone before they may submit
// body metrics.
type ZoneVideo struct {
	ID          string    `json:"id"`
	ZoneNumber  int       `json:"zone_number"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	IsRequired  bool      `json:"is_required"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

// DIYTask is a self-guided task shown to patients for their current zone only.
type DIYTask struct {
	ID          string `json:"id"`
	ZoneNumber  int    `json:"zone_number"`
	Title       string `json:"title"`
	Description string `json:"description"`
	IsActive    bool   `json:"is_active"`
}

// NewZoneVideo contains information needed to publish a new ZoneVideo.
type NewZoneVideo struct {
	ZoneNumber  int    `json:"zone_number" validate:"required,zonenum"`
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	URL         string `json:"url" validate:"required,url"`
	IsRequired  bool   `json:"is_required"`
}

func (nv *NewZoneVideo) Validate() error {
	nv.Title = core.CleanString(nv.Title)
	nv.Description = core.CleanString(nv.Description)
	nv.URL = core.CleanString(nv.URL)
	return core.Validate.Struct(nv)
}

// UpdateZoneVideo defines what may be modified on an existing ZoneVideo.
// The zone of a published video cannot change; watched-video sets reference it.
type UpdateZoneVideo struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url" validate:"omitempty,url"`
	IsRequired  *bool  `json:"is_required"`
	IsActive    *bool  `json:"is_active"`
}

func (uv *UpdateZoneVideo) Validate(orig ZoneVideo) error {
	if title := core.CleanString(uv.Title); title != "" {
		uv.Title = title
	} else {
		uv.Title = orig.Title
	}
	if url := core.CleanString(uv.URL); url != "" {
		uv.URL = url
	} else {
		uv.URL = orig.URL
	}
	uv.Description = core.CleanString(uv.Description)
	if uv.Description == "" {
		uv.Description = orig.Description
	}
	return core.Validate.Struct(uv)
}

// NewDIYTask contains information needed to publish a new DIYTask.
type NewDIYTask struct {
	ZoneNumber  int    `json:"zone_number" validate:"required,zonenum"`
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
}

func (nt *NewDIYTask) Validate() error {
	nt.Title = core.CleanString(nt.Title)
	nt.Description = core.CleanString(nt.Description)
	return core.Validate.Struct(nt)
}
