package module

import (
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/jpfielding/dicomsr.go/pkg/dcm/tag"
)

// FrameOfReferenceModule represents the Frame of Reference Module
// Per DICOM Part 3 Section C.7.4.1
type FrameOfReferenceModule struct {
	// Required (Type 1)
	FrameOfReferenceUID string // Unique identifier for spatial frame

	// Optional (Type 2)
	PositionReferenceIndicator string // Anatomical reference point (e.g., "VERTEX", "NA")
}

// ToTags converts the module to DICOM tag elements
func (m *FrameOfReferenceModule) ToTags() []IODElement {
	return []IODElement{
		{Tag: tag.FrameOfReferenceUID, Value: m.FrameOfReferenceUID},
		{Tag: tag.PositionReferenceIndicator, Value: m.PositionReferenceIndicator},
	}
}

// ImagePlaneModule represents the Image Plane Module
// Per DICOM Part 3 Section C.7.6.2
type ImagePlaneModule struct {
	// Required (Type 1)
	PixelSpacing            [2]float64 // Row\Column spacing (mm)
	ImageOrientationPatient [6]float64 // Direction cosines (row_x, row_y, row_z, col_x, col_y, col_z)
	ImagePositionPatient    [3]float64 // Position of upper-left corner (x, y, z)

	// Conditionally Required (Type 1C)
	SliceThickness float64 // Slice thickness (mm)
}

// NewImagePlaneModule creates an ImagePlaneModule with default identity orientation
func NewImagePlaneModule() *ImagePlaneModule {
	return &ImagePlaneModule{
		PixelSpacing:            [2]float64{1.0, 1.0},
		ImageOrientationPatient: [6]float64{1, 0, 0, 0, 1, 0}, // Identity: rows along X, cols along Y
		ImagePositionPatient:    [3]float64{0, 0, 0},
		SliceThickness:          1.0,
	}
}

// NewImagePlane builds a plane from parsed position (3 values) and orientation (6 values).
// It returns false when either is missing or malformed.
func NewImagePlane(position, orientation []float64) (*ImagePlaneModule, bool) {
	if len(position) != 3 || len(orientation) != 6 {
		return nil, false
	}
	m := NewImagePlaneModule()
	copy(m.ImagePositionPatient[:], position)
	copy(m.ImageOrientationPatient[:], orientation)
	return m, true
}

// Row returns the row direction cosine
func (m *ImagePlaneModule) Row() r3.Vec {
	o := m.ImageOrientationPatient
	return r3.Vec{X: o[0], Y: o[1], Z: o[2]}
}

// Column returns the column direction cosine
func (m *ImagePlaneModule) Column() r3.Vec {
	o := m.ImageOrientationPatient
	return r3.Vec{X: o[3], Y: o[4], Z: o[5]}
}

// Position returns the patient position of the first transmitted pixel
func (m *ImagePlaneModule) Position() r3.Vec {
	p := m.ImagePositionPatient
	return r3.Vec{X: p[0], Y: p[1], Z: p[2]}
}

// Normal returns row x column, the plane normal
func (m *ImagePlaneModule) Normal() r3.Vec {
	return r3.Cross(m.Row(), m.Column())
}

// Distance returns the signed distance of the plane along its normal (normal . position)
func (m *ImagePlaneModule) Distance() float64 {
	return r3.Dot(m.Normal(), m.Position())
}

// OffsetFrom returns how far the plane lies from an out-of-plane coordinate
func (m *ImagePlaneModule) OffsetFrom(z float64) float64 {
	return math.Abs(m.Distance() - z)
}

// ToTags converts the module to DICOM tag elements
func (m *ImagePlaneModule) ToTags() []IODElement {
	elements := []IODElement{
		{Tag: tag.PixelSpacing, Value: formatDSList(m.PixelSpacing[:])},
		{Tag: tag.ImageOrientationPatient, Value: formatDSList(m.ImageOrientationPatient[:])},
		{Tag: tag.ImagePositionPatient, Value: formatDSList(m.ImagePositionPatient[:])},
	}
	if m.SliceThickness != 0 {
		elements = append(elements, IODElement{Tag: tag.SliceThickness, Value: formatDS(m.SliceThickness)})
	}
	return elements
}

func formatDS(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// formatDSList renders a backslash separated DS multi-value
func formatDSList(v []float64) string {
	parts := make([]string, len(v))
	for i, f := range v {
		parts[i] = formatDS(f)
	}
	return strings.Join(parts, "\\")
}
