package sr

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpfielding/dicomsr.go/pkg/dcm"
	"github.com/jpfielding/dicomsr.go/pkg/dcm/tag"
)

func TestReportDataset_RoundTrip(t *testing.T) {
	r := loadFixture(t)
	want, err := Extract(r.Children())
	require.NoError(t, err)

	ds, err := r.Dataset()
	require.NoError(t, err)
	assert.True(t, dcm.IsSR(ds))

	back, err := ReportFromDataset(ds)
	require.NoError(t, err)
	assert.Equal(t, r.SOPInstanceUID, back.SOPInstanceUID)
	assert.Equal(t, r.StudyInstanceUID, back.StudyInstanceUID)
	assert.Equal(t, PersonName("Doe^Jane"), back.PatientName)
	assert.Equal(t, IntegerString(4700), back.SeriesNumber)
	assert.Equal(t, "1500", back.TemplateIdentifier())
	assert.True(t, back.IsMeasurementReport())

	got, err := Extract(back.Children())
	require.NoError(t, err)
	assert.Equal(t, want.Records, got.Records)
	assert.Len(t, got.Skips, 2)
}

func TestReportFile_RoundTrip(t *testing.T) {
	header, recs, ms := fixtureMeasurements(t)
	r, err := BuildReport(ms, ReportOptions{Header: *header, Now: fixedNow, SeriesOf: func(string) (string, string, bool) {
		return header.StudyInstanceUID, "1.2.3.4", true
	}})
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, FileStorer{Dir: filepath.Join(dir, "out")}.Store(context.Background(), r))

	back, err := ReadReportFile(filepath.Join(dir, "out", r.SOPInstanceUID+".dcm"))
	require.NoError(t, err)
	assert.Equal(t, r.ContentDate, back.ContentDate)
	assert.Equal(t, "PARTIAL", back.CompletionFlag)
	assert.Equal(t, r.CurrentRequestedProcedureEvidenceSequence, back.CurrentRequestedProcedureEvidenceSequence)

	ex, err := Extract(back.Children())
	require.NoError(t, err)
	assert.Equal(t, recs, ex.Records)
}

func TestFileStorer_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := FileStorer{Dir: t.TempDir()}.Store(ctx, &Report{SOPInstanceUID: "1.2"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReportFromDataset_NotSR(t *testing.T) {
	ds, err := dcm.NewDataset(dcm.WithElement(tag.SOPClassUID, dcm.CTImageStorageUID))
	require.NoError(t, err)
	_, err = ReportFromDataset(ds)
	assert.ErrorIs(t, err, ErrNotSR)
}
