package sr

import (
	"errors"
	"fmt"
)

// Common errors
var (
	ErrNotFound                = errors.New("sr: content item not found")
	ErrMissingTrackingUID      = errors.New("sr: measurement group has no tracking unique identifier")
	ErrNoGraphic               = errors.New("sr: measurement group has no spatial coordinates")
	ErrUnsupportedRelationship = errors.New("sr: unsupported relationship type for spatial coordinates")
	ErrNoImageReference        = errors.New("sr: spatial coordinates reference no image or frame of reference")
	ErrNoMeasurements          = errors.New("sr: no measurements to report")
)

// NotFoundError reports a required template node missing from a content tree
type NotFoundError struct {
	Concept Concept
	Within  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("sr: %s not found in %s", e.Concept, e.Within)
}

// Is matches ErrNotFound
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// SkipReason records why a measurement group produced no record
type SkipReason struct {
	Index                    int    `json:"index"`
	TrackingUniqueIdentifier string `json:"trackingUniqueIdentifier,omitempty"`
	Reason                   string `json:"reason"`

	err error
}

func newSkip(index int, trackingUID string, err error) SkipReason {
	return SkipReason{Index: index, TrackingUniqueIdentifier: trackingUID, Reason: err.Error(), err: err}
}

func (s SkipReason) Error() string {
	if s.TrackingUniqueIdentifier == "" {
		return fmt.Sprintf("measurement group %d skipped: %s", s.Index, s.Reason)
	}
	return fmt.Sprintf("measurement group %d (%s) skipped: %s", s.Index, s.TrackingUniqueIdentifier, s.Reason)
}

// Unwrap returns the cause; nil once the reason has been round-tripped through JSON
func (s SkipReason) Unwrap() error {
	return s.err
}
