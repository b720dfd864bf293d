package geometry

import (
	"errors"
	"fmt"
)

// Construction error kinds. Test with errors.Is against a *BuildError.
var (
	ErrOverlap            = errors.New("overlapping regions")
	ErrGap                = errors.New("gap in boundary")
	ErrNotContained       = errors.New("region extends outside its parent")
	ErrDegenerate         = errors.New("degenerate geometry")
	ErrUnresolvedMaterial = errors.New("unresolved material reference")
	ErrUnknownRegion      = errors.New("unknown region")
)

// BuildError identifies the entity that failed scene construction
type BuildError struct {
	Entity string // "region", "surface", "solid", "material"
	ID     int
	Name   string
	Err    error
}

func (e *BuildError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%s %d (%s): %v", e.Entity, e.ID, e.Name, e.Err)
	}
	return fmt.Sprintf("%s %d: %v", e.Entity, e.ID, e.Err)
}

func (e *BuildError) Unwrap() error {
	return e.Err
}

func regionError(r *Region, err error) *BuildError {
	return &BuildError{Entity: "region", ID: int(r.ID), Name: r.Name, Err: err}
}
