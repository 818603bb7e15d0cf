// Package store keeps the measurements a resolver attaches to images. Memory
// serves a single process; Bolt persists registrations and extracted display
// sets across runs.
package store

import (
	"errors"
	"slices"
	"sync"

	"github.com/jpfielding/dicomsr.go/pkg/sr"
)

// ErrNotFound is returned when a display set is not stored
var ErrNotFound = errors.New("store: not found")

// Registration is a measurement attached to an image of a display set
type Registration struct {
	TrackingUniqueIdentifier string    `json:"trackingUniqueIdentifier"`
	ImageID                  string    `json:"imageId"`
	DisplaySetInstanceUID    string    `json:"displaySetInstanceUID"`
	ToolType                 string    `json:"toolType,omitempty"`
	Record                   sr.Record `json:"record"`
}

func newRegistration(rec *sr.Record, imageID, displaySetInstanceUID string) Registration {
	r := Registration{
		TrackingUniqueIdentifier: rec.TrackingUniqueIdentifier,
		ImageID:                  imageID,
		DisplaySetInstanceUID:    displaySetInstanceUID,
		ToolType:                 rec.ToolType(),
		Record:                   *rec,
	}
	r.Record.Loaded = true
	r.Record.ImageID = imageID
	r.Record.DisplaySetInstanceUID = displaySetInstanceUID
	r.Record.Labels = slices.Clone(rec.Labels)
	return r
}

func key(displaySetInstanceUID, trackingUID string) string {
	return displaySetInstanceUID + "/" + trackingUID
}

// Memory is an in-process sr.Sink. Registering the same measurement on the
// same display set again replaces the earlier registration.
type Memory struct {
	mu    sync.Mutex
	regs  map[string]Registration
	order []string
}

var _ sr.Sink = (*Memory)(nil)

// NewMemory returns an empty store
func NewMemory() *Memory {
	return &Memory{regs: map[string]Registration{}}
}

// AddMeasurement records the registration
func (m *Memory) AddMeasurement(rec *sr.Record, imageID, displaySetInstanceUID string) error {
	if rec == nil || rec.TrackingUniqueIdentifier == "" {
		return sr.ErrMissingTrackingUID
	}
	reg := newRegistration(rec, imageID, displaySetInstanceUID)
	k := key(displaySetInstanceUID, rec.TrackingUniqueIdentifier)

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.regs[k]; !ok {
		m.order = append(m.order, k)
	}
	m.regs[k] = reg
	return nil
}

// Registrations returns the registrations in the order first added
func (m *Memory) Registrations() []Registration {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Registration, 0, len(m.order))
	for _, k := range m.order {
		out = append(out, m.regs[k])
	}
	return out
}

// Len returns the number of registrations
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.regs)
}
