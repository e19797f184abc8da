package weather

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownRegion is returned for region names outside the catalog.
	ErrUnknownRegion = errors.New("unknown region")
	// ErrInvalidPeriod is returned for malformed or inverted month ranges.
	ErrInvalidPeriod = errors.New("invalid period")
	// ErrNoPrecipitation means no precipitation values survived the fetch.
	ErrNoPrecipitation = errors.New("no precipitation data available")
)

// FetchError identifies the variable whose request failed.
type FetchError struct {
	Region   string
	Variable Variable
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s for %s: %v", e.Variable, e.Region, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
