package sr

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = func() time.Time { return time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC) }

func fixtureMeasurements(t *testing.T) (*Report, []*Record, []*Measurement) {
	t.Helper()
	r := loadFixture(t)
	ex, err := Extract(r.Children())
	require.NoError(t, err)
	ms := make([]*Measurement, len(ex.Records))
	for i, rec := range ex.Records {
		ms[i] = MeasurementFromRecord(rec)
	}
	return r, ex.Records, ms
}

func TestMeasurementFromRecord(t *testing.T) {
	_, recs, ms := fixtureMeasurements(t)
	require.Len(t, ms, 2)

	assert.False(t, ms[0].Geometric)
	assert.Equal(t, "Length", ms[0].ToolType)
	assert.Equal(t, "Lesion 1", ms[0].Finding)
	assert.Equal(t, "Liver", ms[0].FindingSite)
	assert.Same(t, recs[0].Coords[0], ms[0].Coordinate)

	assert.True(t, ms[1].Geometric)
	assert.Equal(t, "Probe", ms[1].ToolType)
}

func TestBuildReport_RoundTrip(t *testing.T) {
	header, recs, ms := fixtureMeasurements(t)

	r, err := BuildReport(ms, ReportOptions{Header: *header, Now: fixedNow})
	require.NoError(t, err)
	assert.True(t, r.IsMeasurementReport())
	assert.Equal(t, "1500", r.TemplateIdentifier())

	ex, err := Extract(r.Children())
	require.NoError(t, err)
	assert.Empty(t, ex.Skips)
	assert.Equal(t, recs, ex.Records)

	images, err := ReferencedImages(r.Children())
	require.NoError(t, err)
	assert.Equal(t, []ImageReference{{ReferencedSOPClassUID: ctImage, ReferencedSOPInstanceUID: "1.2.3.4.1"}}, images)

	var buf bytes.Buffer
	require.NoError(t, r.WriteJSON(&buf))
	decoded, err := ReadReportJSON(&buf)
	require.NoError(t, err)
	ex, err = Extract(decoded.Children())
	require.NoError(t, err)
	assert.Equal(t, recs, ex.Records)
}

func TestBuildReport_Header(t *testing.T) {
	header, _, ms := fixtureMeasurements(t)
	header.SOPInstanceUID = ""
	header.SeriesInstanceUID = ""
	header.SpecificCharacterSet = ""
	header.Modality = "OT"

	r, err := BuildReport(ms, ReportOptions{Header: *header, UIDRoot: "1.2.826.0.1.3680043.8.498", Now: fixedNow})
	require.NoError(t, err)

	assert.Equal(t, DefaultCharacterSet, r.SpecificCharacterSet)
	assert.Equal(t, "SR", r.Modality)
	assert.True(t, strings.HasPrefix(r.SOPInstanceUID, "1.2.826.0.1.3680043.8.498."))
	assert.True(t, strings.HasPrefix(r.SeriesInstanceUID, "1.2.826.0.1.3680043.8.498."))
	assert.NotEqual(t, r.SOPInstanceUID, r.SeriesInstanceUID)
	assert.Equal(t, header.StudyInstanceUID, r.StudyInstanceUID)
	assert.Equal(t, PersonName("Doe^Jane"), r.PatientName)
	assert.Equal(t, IntegerString(4700), r.SeriesNumber)
	assert.Equal(t, "PARTIAL", r.CompletionFlag)
	assert.Equal(t, "UNVERIFIED", r.VerificationFlag)
	assert.Equal(t, "20240305", r.ContentDate)
	assert.Equal(t, "140709.000000", r.ContentTime)

	children := r.Children()
	require.Len(t, children, 4)
	assert.Equal(t, DefaultLanguage, children[0].ConceptCode())
	assert.Equal(t, DefaultProcedure, children[1].ConceptCode())
	assert.Equal(t, ImageLibrary, children[2].Concept())
	assert.Equal(t, ImagingMeasurements, children[3].Concept())

	// the caller's header is untouched
	assert.Len(t, header.Children(), 3)
}

func TestBuildReport_MeasurementGroupLayout(t *testing.T) {
	coord := &Coordinate{
		ValueType:             ValueSCoord,
		GraphicType:           "POLYLINE",
		GraphicData:           []float64{0, 0, 4, 0},
		ReferencedSOPSequence: &SOPReference{ReferencedSOPClassUID: ctImage, ReferencedSOPInstanceUID: "5.5", ReferencedFrameNumber: FrameNumbers{2}},
	}
	m := &Measurement{
		ToolType:   "Length",
		Geometric:  true,
		Coordinate: coord,
		Values:     []Quantity{{Concept: Length.Code(), NumericValue: "4", Unit: Unit("mm")}},
	}
	r, err := BuildReport([]*Measurement{m}, ReportOptions{Now: fixedNow, UIDRoot: "9.9"})
	require.NoError(t, err)

	measurements, err := FindImagingMeasurements(r.Children())
	require.NoError(t, err)
	require.Len(t, measurements.Children(), 1)
	items := measurements.Children()[0].Children()
	require.Len(t, items, 4)

	assert.Equal(t, "Cornerstone3DTools@^0.1.0:Length", items[0].TextValue)
	assert.True(t, strings.HasPrefix(items[1].UID, "9.9."))
	assert.Equal(t, ValueSCoord, items[2].ValueType)
	assert.Equal(t, Contains, items[2].RelationshipType)
	assert.Equal(t, ImageRegion, items[2].Concept())
	ref, ok := items[2].Children()[0].ReferencedSOPSequence.First()
	require.True(t, ok)
	assert.Equal(t, 2, ref.Frame())
	assert.Equal(t, ValueNum, items[3].ValueType)
	assert.Empty(t, items[3].Children())

	ex, err := Extract(r.Children())
	require.NoError(t, err)
	require.Len(t, ex.Records, 1)
	assert.Equal(t, []Label{{Label: "Length", Value: "4.00 mm"}}, ex.Records[0].Labels)
	assert.Equal(t, items[1].UID, ex.Records[0].TrackingUniqueIdentifier)
}

func TestBuildReport_FilterAndValidation(t *testing.T) {
	_, _, ms := fixtureMeasurements(t)
	invalid := &Measurement{ToolType: "Length", Geometric: true}
	noImage := &Measurement{ToolType: "Length", Geometric: true, Coordinate: &Coordinate{GraphicData: []float64{1, 2}}}

	r, err := BuildReport(append(ms, invalid, noImage, nil), ReportOptions{
		Now:    fixedNow,
		Filter: func(m *Measurement) bool { return m.ToolType != "Probe" },
	})
	require.NoError(t, err)
	ex, err := Extract(r.Children())
	require.NoError(t, err)
	require.Len(t, ex.Records, 1)
	assert.Equal(t, "1.2.3.100", ex.Records[0].TrackingUniqueIdentifier)

	_, err = BuildReport([]*Measurement{invalid, noImage}, ReportOptions{})
	assert.ErrorIs(t, err, ErrNoMeasurements)
	assert.ErrorIs(t, invalid.validate(), ErrNoGraphic)
	assert.ErrorIs(t, noImage.validate(), ErrNoImageReference)
}

func TestBuildReport_Evidence(t *testing.T) {
	_, _, ms := fixtureMeasurements(t)
	seriesOf := func(sop string) (string, string, bool) {
		if sop == "1.2.3.4.1" {
			return "1.9", "1.9.1", true
		}
		return "", "", false
	}
	r, err := BuildReport(ms, ReportOptions{Now: fixedNow, SeriesOf: seriesOf})
	require.NoError(t, err)

	require.Len(t, r.CurrentRequestedProcedureEvidenceSequence, 1)
	ev := r.CurrentRequestedProcedureEvidenceSequence[0]
	assert.Equal(t, "1.9", ev.StudyInstanceUID)
	require.Len(t, ev.ReferencedSeriesSequence, 1)
	assert.Equal(t, "1.9.1", ev.ReferencedSeriesSequence[0].SeriesInstanceUID)
	assert.Equal(t, Sequence[SOPReference]{{ReferencedSOPClassUID: ctImage, ReferencedSOPInstanceUID: "1.2.3.4.1"}},
		ev.ReferencedSeriesSequence[0].ReferencedSOPSequence)
}

func TestStoreReport(t *testing.T) {
	_, _, ms := fixtureMeasurements(t)
	var stored *Report
	ok := StorerFunc(func(_ context.Context, r *Report) error {
		stored = r
		return nil
	})
	r, err := StoreReport(context.Background(), ok, ms, ReportOptions{Now: fixedNow})
	require.NoError(t, err)
	assert.Same(t, r, stored)

	diskFull := errors.New("disk full")
	failing := StorerFunc(func(context.Context, *Report) error { return diskFull })
	_, err = StoreReport(context.Background(), failing, ms, ReportOptions{Now: fixedNow})
	require.Error(t, err)
	assert.ErrorIs(t, err, diskFull)
	assert.Contains(t, err.Error(), "storing report")

	_, err = StoreReport(context.Background(), ok, nil, ReportOptions{})
	assert.ErrorIs(t, err, ErrNoMeasurements)
}
