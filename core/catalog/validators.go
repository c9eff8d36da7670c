package catalog

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/aevoninc/horizonfit/core"
)

var (
	zoneNumTag  = "zonenum"
	zoneNumText = fmt.Sprintf("zone number must be between 1 and %d", MaxZone())
)

func init() {
	_ = core.Validate.RegisterValidation(zoneNumTag, zoneNumValidation)
	core.RegisterCustomTranslation(zoneNumTag, zoneNumText)
}

// zoneNumValidation checks that the value references an existing zone.
func zoneNumValidation(fl validator.FieldLevel) bool {
	_, ok := ZoneByNumber(int(fl.Field().Int()))
	return ok
}
