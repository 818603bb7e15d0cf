package sr

import (
	"log/slog"
	"slices"

	"github.com/jpfielding/dicomsr.go/pkg/dcm/module"
)

// DefaultPlaneTolerance is how far, in mm, an image plane may lie from a
// 3D point and still be taken as the image the point was drawn on
const DefaultPlaneTolerance = 5.0

// Instance is the per-image metadata the resolver needs
type Instance struct {
	SOPClassUID         string
	SOPInstanceUID      string
	FrameOfReferenceUID string
	// Plane is nil when the image carries no position or orientation
	Plane *module.ImagePlaneModule
}

// ImageSet is a display set of images that measurements can be attached to
type ImageSet interface {
	DisplaySetInstanceUID() string
	SOPClassUIDs() []string
	// Unsupported sets are never used for resolution
	Unsupported() bool
	Instances() []Instance
	// ImageIDs lists one image ID per displayable frame
	ImageIDs() []string
	// InstanceAttributes returns the SOP instance and frame of an image ID.
	// frame is 0 when the image ID does not name a frame.
	InstanceAttributes(imageID string) (sopInstanceUID string, frame int, ok bool)
}

// Sink receives measurements once they are attached to an image
type Sink interface {
	AddMeasurement(rec *Record, imageID, displaySetInstanceUID string) error
}

// Resolver attaches unloaded records to the images of an image set
type Resolver struct {
	// Tolerance in mm for matching 3D points to image planes, inclusive
	Tolerance float64
}

// NewResolver returns a resolver, using DefaultPlaneTolerance when tolerance is not positive
func NewResolver(tolerance float64) *Resolver {
	if tolerance <= 0 {
		tolerance = DefaultPlaneTolerance
	}
	return &Resolver{Tolerance: tolerance}
}

// Resolve tries to load every unloaded record against set, handing matches to
// sink. 3D coordinates without an image reference are first given the image
// whose plane lies nearest within tolerance. It returns the records it changed,
// in the order they were first changed. A record the sink rejects stays
// unloaded so a later call can retry it.
func (r *Resolver) Resolve(records []*Record, set ImageSet, sink Sink) []*Record {
	var touched []*Record
	mark := func(rec *Record) {
		if !slices.Contains(touched, rec) {
			touched = append(touched, rec)
		}
	}

	pending := make([]*Record, 0, len(records))
	for _, rec := range records {
		if rec != nil && !rec.Loaded {
			pending = append(pending, rec)
		}
	}
	if len(pending) == 0 || set == nil || set.Unsupported() {
		return nil
	}
	classes := set.SOPClassUIDs()
	if len(classes) == 0 {
		return nil
	}

	instances := set.Instances()
	for _, rec := range pending {
		for _, c := range rec.Coords {
			if c.ReferencedSOPSequence != nil {
				continue
			}
			if inst, ok := r.nearestPlane(c, instances); ok {
				c.ReferencedSOPSequence = &SOPReference{
					ReferencedSOPClassUID:    inst.SOPClassUID,
					ReferencedSOPInstanceUID: inst.SOPInstanceUID,
				}
				slog.Debug("matched 3D coordinate to image plane", "trackingUID", rec.TrackingUniqueIdentifier, "sopInstanceUID", inst.SOPInstanceUID)
				mark(rec)
			}
		}
	}

	wanted := map[string]bool{}
	pending = slices.DeleteFunc(pending, func(rec *Record) bool {
		keep := false
		for _, c := range rec.Coords {
			ref := c.ReferencedSOPSequence
			if ref != nil && slices.Contains(classes, ref.ReferencedSOPClassUID) {
				keep = true
				wanted[ref.ReferencedSOPInstanceUID] = true
			}
		}
		return !keep
	})

	uid := set.DisplaySetInstanceUID()
	for _, imageID := range set.ImageIDs() {
		if len(pending) == 0 {
			break
		}
		sopInstanceUID, frame, ok := set.InstanceAttributes(imageID)
		if !ok || !wanted[sopInstanceUID] {
			continue
		}
		for j := len(pending) - 1; j >= 0; j-- {
			rec := pending[j]
			if !rec.ReferencesInstance(sopInstanceUID, frame) {
				continue
			}
			pending = slices.Delete(pending, j, j+1)
			if err := sink.AddMeasurement(rec, imageID, uid); err != nil {
				slog.Warn("failed to register measurement", "trackingUID", rec.TrackingUniqueIdentifier, "imageId", imageID, "error", err)
				continue
			}
			rec.Loaded = true
			rec.ImageID = imageID
			rec.DisplaySetInstanceUID = uid
			slog.Debug("measurement loaded", "trackingUID", rec.TrackingUniqueIdentifier, "imageId", imageID)
			mark(rec)
		}
	}
	return touched
}

// nearestPlane returns the instance in the coordinate's frame of reference
// whose plane lies closest to the first point, within tolerance
func (r *Resolver) nearestPlane(c *Coordinate, instances []Instance) (Instance, bool) {
	if c.ReferencedFrameOfReferenceUID == "" || len(c.GraphicData) < 3 {
		return Instance{}, false
	}
	z := c.GraphicData[2]

	var (
		best       Instance
		bestOffset float64
		found      bool
	)
	for _, inst := range instances {
		if inst.Plane == nil || inst.FrameOfReferenceUID != c.ReferencedFrameOfReferenceUID {
			continue
		}
		offset := inst.Plane.OffsetFrom(z)
		if offset > r.Tolerance {
			continue
		}
		if !found || offset < bestOffset {
			best, bestOffset, found = inst, offset, true
		}
	}
	return best, found
}
