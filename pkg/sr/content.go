package sr

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ValueType is the (0040,A040) Value Type of a content item
type ValueType string

const (
	ValueContainer ValueType = "CONTAINER"
	ValueNum       ValueType = "NUM"
	ValueText      ValueType = "TEXT"
	ValueCode      ValueType = "CODE"
	ValueUIDRef    ValueType = "UIDREF"
	ValueImage     ValueType = "IMAGE"
	ValueSCoord    ValueType = "SCOORD"
	ValueSCoord3D  ValueType = "SCOORD3D"
)

// IsGraphic reports whether the value type carries spatial coordinates
func (v ValueType) IsGraphic() bool {
	return v == ValueSCoord || v == ValueSCoord3D
}

// RelationshipType is the (0040,A010) Relationship Type of a content item
type RelationshipType string

const (
	Contains      RelationshipType = "CONTAINS"
	HasProperties RelationshipType = "HAS PROPERTIES"
	HasObsContext RelationshipType = "HAS OBS CONTEXT"
	HasAcqContext RelationshipType = "HAS ACQ CONTEXT"
	HasConceptMod RelationshipType = "HAS CONCEPT MOD"
	InferredFrom  RelationshipType = "INFERRED FROM"
	SelectedFrom  RelationshipType = "SELECTED FROM"
)

// ContentItem is one node of an SR content tree in naturalized form.
// Only the attributes used by the measurement templates are modelled.
type ContentItem struct {
	ValueType               ValueType        `json:"ValueType,omitempty"`
	RelationshipType        RelationshipType `json:"RelationshipType,omitempty"`
	ConceptNameCodeSequence Sequence[Code]   `json:"ConceptNameCodeSequence,omitempty"`
	ContinuityOfContent     string           `json:"ContinuityOfContent,omitempty"`

	ConceptCodeSequence   Sequence[Code]          `json:"ConceptCodeSequence,omitempty"`
	MeasuredValueSequence Sequence[MeasuredValue] `json:"MeasuredValueSequence,omitempty"`
	TextValue             string                  `json:"TextValue,omitempty"`
	UID                   string                  `json:"UID,omitempty"`

	GraphicType                        string                     `json:"GraphicType,omitempty"`
	GraphicData                        []float64                  `json:"GraphicData,omitempty"`
	ReferencedSOPSequence              Sequence[SOPReference]     `json:"ReferencedSOPSequence,omitempty"`
	ReferencedFrameOfReferenceUID      string                     `json:"ReferencedFrameOfReferenceUID,omitempty"`
	ReferencedFrameOfReferenceSequence Sequence[FrameOfReference] `json:"ReferencedFrameOfReferenceSequence,omitempty"`

	ContentSequence Sequence[*ContentItem] `json:"ContentSequence,omitempty"`
}

// ConceptName returns the first concept name code, or the zero Code
func (ci *ContentItem) ConceptName() Code {
	if ci == nil {
		return Code{}
	}
	c, _ := ci.ConceptNameCodeSequence.First()
	return c
}

// Concept classifies the item's concept name
func (ci *ContentItem) Concept() Concept {
	return Classify(ci.ConceptName())
}

// ConceptCode returns the first coded value of a CODE item, or the zero Code
func (ci *ContentItem) ConceptCode() Code {
	if ci == nil {
		return Code{}
	}
	c, _ := ci.ConceptCodeSequence.First()
	return c
}

// Children returns the nested content items, skipping nil entries
func (ci *ContentItem) Children() []*ContentItem {
	if ci == nil {
		return nil
	}
	children := make([]*ContentItem, 0, len(ci.ContentSequence))
	for _, child := range ci.ContentSequence {
		if child != nil {
			children = append(children, child)
		}
	}
	return children
}

// FrameOfReferenceUID returns the frame of reference of a SCOORD3D item,
// looking at the item itself and then its referenced frame of reference sequence
func (ci *ContentItem) FrameOfReferenceUID() string {
	if ci.ReferencedFrameOfReferenceUID != "" {
		return ci.ReferencedFrameOfReferenceUID
	}
	for _, ref := range ci.ReferencedFrameOfReferenceSequence {
		if ref.FrameOfReferenceUID != "" {
			return ref.FrameOfReferenceUID
		}
	}
	return ""
}

// MeasuredValue is one item of a NUM content item's Measured Value Sequence
type MeasuredValue struct {
	NumericValue                 DecimalString  `json:"NumericValue,omitempty"`
	MeasurementUnitsCodeSequence Sequence[Code] `json:"MeasurementUnitsCodeSequence,omitempty"`
}

// Units returns the first units code, or the zero Code
func (mv MeasuredValue) Units() Code {
	c, _ := mv.MeasurementUnitsCodeSequence.First()
	return c
}

// SOPReference is an item of a Referenced SOP Sequence
type SOPReference struct {
	ReferencedSOPClassUID    string       `json:"ReferencedSOPClassUID,omitempty"`
	ReferencedSOPInstanceUID string       `json:"ReferencedSOPInstanceUID,omitempty"`
	ReferencedFrameNumber    FrameNumbers `json:"ReferencedFrameNumber,omitempty"`
}

// Frame returns the first referenced frame, 1 when none is given
func (r *SOPReference) Frame() int {
	if r == nil || len(r.ReferencedFrameNumber) == 0 {
		return 1
	}
	return r.ReferencedFrameNumber[0]
}

// FrameOfReference is an item of a Referenced Frame of Reference Sequence.
// Some producers write the UID itself in place of the item.
type FrameOfReference struct {
	FrameOfReferenceUID string `json:"FrameOfReferenceUID,omitempty"`
}

// UnmarshalJSON accepts an item or a bare UID string
func (f *FrameOfReference) UnmarshalJSON(data []byte) error {
	var uid string
	if err := json.Unmarshal(data, &uid); err == nil {
		f.FrameOfReferenceUID = uid
		return nil
	}
	type plain FrameOfReference
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*f = FrameOfReference(p)
	return nil
}

// DecimalString is a DS value. It decodes from a JSON number or string and
// is empty when absent.
type DecimalString string

// Decimal formats f as a DecimalString
func Decimal(f float64) DecimalString {
	return DecimalString(strconv.FormatFloat(f, 'g', -1, 64))
}

// UnmarshalJSON accepts a number, a string or null
func (d *DecimalString) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch {
	case bytes.Equal(trimmed, []byte("null")):
		*d = ""
	case len(trimmed) > 0 && trimmed[0] == '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*d = DecimalString(strings.TrimSpace(s))
	default:
		var n json.Number
		if err := json.Unmarshal(trimmed, &n); err != nil {
			return fmt.Errorf("sr: decimal string: %w", err)
		}
		*d = DecimalString(n.String())
	}
	return nil
}

// Float parses the value. It fails when empty or not a number.
func (d DecimalString) Float() (float64, bool) {
	if d == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(string(d)), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// FrameNumbers is an IS multi-value of frame numbers
type FrameNumbers []int

// UnmarshalJSON accepts a number, a backslash separated string, or a list of either
func (f *FrameNumbers) UnmarshalJSON(data []byte) error {
	raw, err := asSequence[json.RawMessage](data)
	if err != nil {
		return err
	}
	var frames FrameNumbers
	for _, r := range raw {
		var n int
		if err := json.Unmarshal(r, &n); err == nil {
			frames = append(frames, n)
			continue
		}
		var s string
		if err := json.Unmarshal(r, &s); err != nil {
			return fmt.Errorf("sr: frame number %s: %w", r, err)
		}
		for _, part := range strings.Split(s, "\\") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			n, err := strconv.Atoi(part)
			if err != nil {
				return fmt.Errorf("sr: frame number %q: %w", part, err)
			}
			frames = append(frames, n)
		}
	}
	*f = frames
	return nil
}
