package sr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_Fixture(t *testing.T) {
	r := loadFixture(t)
	ex, err := Extract(r.Children())
	require.NoError(t, err)
	require.Len(t, ex.Records, 2)

	length := ex.Records[0]
	assert.Equal(t, "1.2.3.100", length.TrackingUniqueIdentifier)
	assert.Equal(t, "Cornerstone3DTools@^0.1.0:Length", length.TrackingIdentifier)
	assert.Equal(t, "Length", length.ToolType())
	assert.Equal(t, []Label{
		{Label: FreeTextCodeValue, Value: "Lesion 1"},
		{Label: FreeTextCodeValue, Value: "Liver"},
		{Label: "Length", Value: "31.00 mm"},
	}, length.Labels)
	assert.Equal(t, "Lesion 1", length.Finding)
	assert.Equal(t, "Liver", length.FindingSite)
	require.Len(t, length.Coords, 1)
	assert.Equal(t, ValueSCoord, length.Coords[0].ValueType)
	assert.Equal(t, "POLYLINE", length.Coords[0].GraphicType)
	assert.Equal(t, []float64{10, 20, 30, 40}, length.Coords[0].GraphicData)
	require.NotNil(t, length.Coords[0].ReferencedSOPSequence)
	assert.Equal(t, "1.2.3.4.1", length.Coords[0].ReferencedSOPSequence.ReferencedSOPInstanceUID)
	assert.Equal(t, ctImage, length.Coords[0].ReferencedSOPSequence.ReferencedSOPClassUID)
	require.Len(t, length.Values, 1)
	assert.Same(t, length.Coords[0], length.Values[0].Coordinate)
	assert.False(t, length.Loaded)

	probe := ex.Records[1]
	assert.Equal(t, "1.2.3.200", probe.TrackingUniqueIdentifier)
	assert.Equal(t, "Probe", probe.ToolType())
	assert.Equal(t, []Label{{Label: "Area", Value: "12.50 mm2"}}, probe.Labels)
	require.Len(t, probe.Coords, 1)
	assert.Equal(t, ValueSCoord3D, probe.Coords[0].ValueType)
	assert.Equal(t, "1.2.3.9", probe.Coords[0].ReferencedFrameOfReferenceUID)
	assert.Equal(t, []float64{1.5, 2.5, 10}, probe.Coords[0].GraphicData)
	assert.Nil(t, probe.Values[0].Coordinate)

	require.Len(t, ex.Skips, 2)
	assert.Equal(t, 2, ex.Skips[0].Index)
	assert.True(t, errors.Is(ex.Skips[0], ErrMissingTrackingUID))
	assert.Equal(t, 3, ex.Skips[1].Index)
	assert.Equal(t, "1.2.3.400", ex.Skips[1].TrackingUniqueIdentifier)
	assert.True(t, errors.Is(ex.Skips[1], ErrUnsupportedRelationship))
}

func TestExtract_MissingImagingMeasurements(t *testing.T) {
	_, err := Extract(nil)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestExtract_LabelOrderFollowsItems(t *testing.T) {
	g := group(
		uidItem("1.1"),
		numItemFor("Long Axis", "10", "mm", scoordItem(InferredFrom, "9.1", 0, 0, 10, 0)),
		numItemFor("Short Axis", "4.567", "mm", scoordItem(InferredFrom, "9.1", 5, -2, 5, 2)),
		numItemFor("Mean", "", "HU"),
	)
	ex, err := Extract(measurementsRoot(g))
	require.NoError(t, err)
	require.Len(t, ex.Records, 1)

	rec := ex.Records[0]
	assert.Equal(t, []Label{
		{Label: "Long Axis", Value: "10.00 mm"},
		{Label: "Short Axis", Value: "4.57 mm"},
		{Label: "Mean", Value: " HU"},
	}, rec.Labels)
	assert.Len(t, rec.Coords, 2)
	assert.Len(t, rec.Values, 3)
	assert.Nil(t, rec.Values[2].Coordinate)
}

func TestExtract_MergedGroupsAppendValues(t *testing.T) {
	ex, err := Extract(measurementsRoot(
		group(uidItem("1.1"), numItemFor("Length", "1", "mm", scoordItem(InferredFrom, "9.1", 0, 0, 1, 0))),
		group(uidItem("1.1"), numItemFor("Area", "2", "mm2", scoordItem(InferredFrom, "9.2", 0, 0, 2, 0))),
	))
	require.NoError(t, err)
	require.Len(t, ex.Records, 1)
	rec := ex.Records[0]
	assert.Equal(t, []Label{{Label: "Length", Value: "1.00 mm"}, {Label: "Area", Value: "2.00 mm2"}}, rec.Labels)
	assert.Len(t, rec.Coords, 2)
}

func TestExtractRecord_BadRelationship(t *testing.T) {
	_, err := ExtractRecord([]*ContentItem{
		uidItem("1.1"),
		numItemFor("Length", "1", "mm", scoordItem(HasProperties, "9.1", 0, 0, 1, 0)),
	})
	assert.True(t, errors.Is(err, ErrUnsupportedRelationship))
}

func TestExtractRecord_UIDFallsBackToAnyUIDRef(t *testing.T) {
	rec, err := ExtractRecord([]*ContentItem{
		{ValueType: ValueUIDRef, UID: "7.7"},
		numItemFor("Length", "1", "mm"),
	})
	require.NoError(t, err)
	assert.Equal(t, "7.7", rec.TrackingUniqueIdentifier)
	assert.Equal(t, "", rec.TrackingIdentifier)
	assert.Empty(t, rec.Coords)
}

func TestFormatLabel(t *testing.T) {
	mm := code("mm", SchemeUCUM, "millimeter")
	tests := []struct {
		value DecimalString
		want  string
	}{
		{"31", "31.00 mm"},
		{"1.006", "1.01 mm"},
		{"-2.5", "-2.50 mm"},
		{"", " mm"},
		{"n/a", " mm"},
	}
	for _, tt := range tests {
		got := FormatLabel(Code{CodeMeaning: "Length"}, MeasuredValue{NumericValue: tt.value, MeasurementUnitsCodeSequence: mm})
		assert.Equal(t, Label{Label: "Length", Value: tt.want}, got, string(tt.value))
	}
}
