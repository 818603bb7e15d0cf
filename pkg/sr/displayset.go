package sr

import (
	"fmt"
	"slices"

	"github.com/jpfielding/dicomsr.go/pkg/util"
)

// Tracking identifier namespaces written by viewers that can rehydrate measurements
const (
	NamespaceCornerstone3D = "Cornerstone3DTools"
	NamespaceCornerstone   = "cornerstoneTools"
)

// SupportedToolTypes are the tools whose measurements can be turned back into annotations
var SupportedToolTypes = []string{
	"Length",
	"Bidirectional",
	"EllipticalROI",
	"CircleROI",
	"RectangleROI",
	"ArrowAnnotate",
	"Angle",
	"CobbAngle",
	"Probe",
	"PlanarFreehandROI",
}

// DisplaySet hosts the measurements of one report
type DisplaySet struct {
	DisplaySetInstanceUID string `json:"displaySetInstanceUID"`
	SOPClassUID           string `json:"sopClassUID"`
	SOPInstanceUID        string `json:"sopInstanceUID"`
	SeriesInstanceUID     string `json:"seriesInstanceUID"`
	StudyInstanceUID      string `json:"studyInstanceUID"`
	SeriesDescription     string `json:"seriesDescription,omitempty"`
	SeriesNumber          int    `json:"seriesNumber,omitempty"`

	ReferencedImages []ImageReference `json:"referencedImages"`
	Records          []*Record        `json:"records"`
	Skips            []SkipReason     `json:"skips,omitempty"`
	Rehydratable     bool             `json:"rehydratable"`
}

// Load extracts a report into a display set. A report missing its Image
// Library or Imaging Measurements fails; unreadable measurement groups are
// reported in Skips.
func Load(r *Report) (*DisplaySet, error) {
	content := r.Children()
	images, err := ReferencedImages(content)
	if err != nil {
		return nil, fmt.Errorf("loading report %s: %w", r.SOPInstanceUID, err)
	}
	extraction, err := Extract(content)
	if err != nil {
		return nil, fmt.Errorf("loading report %s: %w", r.SOPInstanceUID, err)
	}

	return &DisplaySet{
		DisplaySetInstanceUID: util.HashUUID([]string{r.StudyInstanceUID, r.SeriesInstanceUID, r.SOPInstanceUID}),
		SOPClassUID:           r.SOPClassUID,
		SOPInstanceUID:        r.SOPInstanceUID,
		SeriesInstanceUID:     r.SeriesInstanceUID,
		StudyInstanceUID:      r.StudyInstanceUID,
		SeriesDescription:     r.SeriesDescription,
		SeriesNumber:          int(r.SeriesNumber),
		ReferencedImages:      images,
		Records:               extraction.Records,
		Skips:                 extraction.Skips,
		Rehydratable:          Rehydratable(extraction.Records, SupportedToolTypes),
	}, nil
}

// Unloaded returns the records not yet attached to an image
func (ds *DisplaySet) Unloaded() []*Record {
	var out []*Record
	for _, rec := range ds.Records {
		if !rec.Loaded {
			out = append(out, rec)
		}
	}
	return out
}

// Rehydratable reports whether every record was written by a known viewer
// namespace for one of the given tools
func Rehydratable(records []*Record, tools []string) bool {
	if len(tools) == 0 {
		return false
	}
	for _, rec := range records {
		namespace, _, tool, ok := ParseTrackingIdentifier(rec.TrackingIdentifier)
		if !ok || (namespace != NamespaceCornerstone3D && namespace != NamespaceCornerstone) {
			return false
		}
		if !slices.Contains(tools, tool) {
			return false
		}
	}
	return true
}
