package inmemdb

import (
	"sync"

	"github.com/aevoninc/horizonfit/core/catalog"
	"github.com/aevoninc/horizonfit/core/metrics"
	"github.com/aevoninc/horizonfit/core/progress"
	"github.com/aevoninc/horizonfit/core/user"
)

type (
	DB struct {
		user     *userTable
		catalog  *catalogTable
		metrics  *metricsTable
		progress *progressTable
	}

	userTable struct {
		table map[string]*user.User
		mutex sync.RWMutex
	}

	catalogTable struct {
		videos map[string]*catalog.ZoneVideo
		tasks  map[string]*catalog.DIYTask
		mutex  sync.RWMutex
	}

	metricsTable struct {
		entries   map[string][]metrics.Entry // keyed by patient ID
		recos     map[string]*metrics.RecommendationsCache
		overrides map[string]*metrics.Overrides
		mutex     sync.RWMutex
	}

	progressTable struct {
		zones map[progressKey]*progress.ZoneProgress
		logs  map[string][]progress.WeeklyLog // keyed by patient ID
		mutex sync.RWMutex
	}

	progressKey struct {
		patientID string
		zone      int
	}
)

func Open() (*DB, error) {
	db := &DB{
		user: &userTable{table: make(map[string]*user.User)},
		catalog: &catalogTable{
			videos: make(map[string]*catalog.ZoneVideo),
			tasks:  make(map[string]*catalog.DIYTask),
		},
		metrics: &metricsTable{
			entries:   make(map[string][]metrics.Entry),
			recos:     make(map[string]*metrics.RecommendationsCache),
			overrides: make(map[string]*metrics.Overrides),
		},
		progress: &progressTable{
			zones: make(map[progressKey]*progress.ZoneProgress),
			logs:  make(map[string][]progress.WeeklyLog),
		},
	}
	return db, nil
}
