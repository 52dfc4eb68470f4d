package georef

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrDegenerateInput = errors.New("degenerate input")
	ErrInvalidCRS      = errors.New("invalid CRS")
	ErrOutOfDomain     = errors.New("outside projection domain")
	ErrNonFinite       = errors.New("non-finite value")
	ErrUnknownLevel    = errors.New("unknown tile matrix level")
)

// A DegenerateInputError is returned when a fit cannot produce an invertible
// transform.
type DegenerateInputError struct {
	Reason string
}

func (e *DegenerateInputError) Error() string {
	return "degenerate input: " + e.Reason
}

func (e *DegenerateInputError) Is(target error) bool {
	return target == ErrDegenerateInput
}

// An InvalidCRSError is returned when a CRS key is not in the catalog.
type InvalidCRSError struct {
	Key string
}

func (e *InvalidCRSError) Error() string {
	return fmt.Sprintf("%q: invalid CRS", e.Key)
}

func (e *InvalidCRSError) Is(target error) bool {
	return target == ErrInvalidCRS
}

// An OutOfDomainWarning describes a coordinate that was transformed outside
// the region where the projection series and datum shift are accurate. The
// accompanying result is still a best effort.
type OutOfDomainWarning struct {
	CRS      string
	Lon, Lat float64
}

func (w *OutOfDomainWarning) Error() string {
	return fmt.Sprintf("%s: lon %.6f lat %.6f: outside projection domain", w.CRS, w.Lon, w.Lat)
}

func (w *OutOfDomainWarning) Is(target error) bool {
	return target == ErrOutOfDomain
}

func isFinite(values ...float64) bool {
	for _, value := range values {
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return false
		}
	}
	return true
}
