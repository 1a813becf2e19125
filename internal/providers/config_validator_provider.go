package providers

import (
	"errors"
	"worldinfo/internal/structures"

	"github.com/gookit/validate"
)

type CnfValidator struct {
	conf *structures.Config
}

func NewCnfValidator(conf *structures.Config) *CnfValidator {
	return &CnfValidator{conf: conf}
}

// Validate checks struct tags on every config section and returns the first
// failure of each.
func (cv *CnfValidator) Validate() error {
	sections := []interface{}{
		&cv.conf.WebServer,
		&cv.conf.Persistence,
		&cv.conf.Logger,
	}

	var errs []error
	for _, s := range sections {
		v := validate.Struct(s)
		if !v.Validate() {
			errs = append(errs, errors.New(v.Errors.One()))
		}
	}

	if cv.conf.Fetch.Limit < 0 {
		errs = append(errs, errors.New("fetch.limit must not be negative"))
	}
	if cv.conf.Fetch.RateLimit < 0 {
		errs = append(errs, errors.New("fetch.rateLimit must not be negative"))
	}
	if cv.conf.Cache.Enabled && cv.conf.Cache.Size <= 0 {
		errs = append(errs, errors.New("cache.size must be positive when cache is enabled"))
	}

	return errors.Join(errs...)
}
