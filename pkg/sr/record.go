package sr

import "strings"

// Label is a display label of a record, e.g. {"Length", "31.00 mm"}
type Label struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Coordinate is the spatial part of a measurement: a SCOORD with the image it
// was drawn on, or a SCOORD3D in a frame of reference
type Coordinate struct {
	ValueType                     ValueType     `json:"valueType"`
	GraphicType                   string        `json:"graphicType"`
	GraphicData                   []float64     `json:"graphicData"`
	ReferencedSOPSequence         *SOPReference `json:"referencedSOPSequence,omitempty"`
	ReferencedFrameOfReferenceUID string        `json:"referencedFrameOfReferenceUID,omitempty"`
}

// Quantity is one numeric measurement with its concept and units
type Quantity struct {
	Concept      Code          `json:"concept"`
	NumericValue DecimalString `json:"numericValue,omitempty"`
	Unit         Code          `json:"unit"`
	// Coordinate the value was inferred from, if any
	Coordinate *Coordinate `json:"coordinate,omitempty"`
}

// Record is the flat form of one measurement read from a report
type Record struct {
	TrackingUniqueIdentifier string        `json:"trackingUniqueIdentifier"`
	TrackingIdentifier       string        `json:"trackingIdentifier"`
	Labels                   []Label       `json:"labels"`
	Coords                   []*Coordinate `json:"coords"`
	Values                   []Quantity    `json:"values,omitempty"`
	Finding                  string        `json:"finding,omitempty"`
	FindingSite              string        `json:"findingSite,omitempty"`

	Loaded                bool   `json:"loaded"`
	ImageID               string `json:"imageId,omitempty"`
	DisplaySetInstanceUID string `json:"displaySetInstanceUID,omitempty"`
}

// ToolType returns the tool named by the tracking identifier, "" if it has none
func (r *Record) ToolType() string {
	_, _, tool, _ := ParseTrackingIdentifier(r.TrackingIdentifier)
	return tool
}

// ReferencesInstance reports whether any coordinate points at the given SOP
// instance and frame. A frame of 0 matches any referenced frame.
func (r *Record) ReferencesInstance(sopInstanceUID string, frame int) bool {
	for _, c := range r.Coords {
		ref := c.ReferencedSOPSequence
		if ref == nil || ref.ReferencedSOPInstanceUID != sopInstanceUID {
			continue
		}
		if frame == 0 || ref.Frame() == frame {
			return true
		}
	}
	return false
}

// TrackingIdentifierFor formats the tracking identifier written for a tool,
// e.g. Cornerstone3DTools@^0.1.0:Length
func TrackingIdentifierFor(namespace, version, tool string) string {
	return namespace + "@^" + version + ":" + tool
}

// ParseTrackingIdentifier splits a <namespace>@^<version>:<tool> identifier
func ParseTrackingIdentifier(s string) (namespace, version, tool string, ok bool) {
	prefix, tool, found := strings.Cut(s, ":")
	if !found {
		return "", "", "", false
	}
	namespace, version, found = strings.Cut(prefix, "@")
	if !found || namespace == "" || tool == "" {
		return "", "", "", false
	}
	return namespace, strings.TrimPrefix(version, "^"), tool, true
}
