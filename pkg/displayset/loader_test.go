package displayset

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpfielding/dicomsr.go/pkg/dcm"
	"github.com/jpfielding/dicomsr.go/pkg/dcm/tag"
)

func writeInstance(t *testing.T, path, modality, series, sop string, number int, z float64) {
	t.Helper()
	class := dcm.CTImageStorageUID
	if modality == "SR" {
		class = dcm.ComprehensiveSRStorageUID
	}
	ds, err := dcm.NewDataset(
		dcm.WithFileMeta(class, sop, string(dcm.ExplicitVRLittleEndian)),
		dcm.WithElement(tag.SOPClassUID, class),
		dcm.WithElement(tag.SOPInstanceUID, sop),
		dcm.WithElement(tag.StudyInstanceUID, "1.9"),
		dcm.WithElement(tag.SeriesInstanceUID, series),
		dcm.WithElement(tag.Modality, modality),
		dcm.WithElement(tag.SeriesNumber, 3),
		dcm.WithElement(tag.InstanceNumber, number),
		dcm.WithElement(tag.FrameOfReferenceUID, "1.9.0"),
		dcm.WithElement(tag.ImagePositionPatient, []float64{0, 0, z}),
		dcm.WithElement(tag.ImageOrientationPatient, []float64{1, 0, 0, 0, 1, 0}),
	)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	_, err = dcm.WriteFile(path, ds)
	require.NoError(t, err)
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeInstance(t, filepath.Join(dir, "ct", "2.dcm"), "CT", "1.9.1", "1.9.1.2", 2, 2.5)
	writeInstance(t, filepath.Join(dir, "ct", "1.dcm"), "CT", "1.9.1", "1.9.1.1", 1, 0)
	writeInstance(t, filepath.Join(dir, "sr.dcm"), "SR", "1.9.5", "1.9.5.1", 1, 0)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("not dicom"), 0o644))

	sets, err := LoadDir(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, sets, 2)

	ct := sets[0]
	assert.Equal(t, "1.9.1", ct.SeriesInstanceUID)
	assert.Equal(t, 3, ct.SeriesNumber)
	assert.False(t, ct.Unsupported())
	assert.Equal(t, []string{"dicom:1.9.1.1", "dicom:1.9.1.2"}, ct.ImageIDs())

	inst, ok := ct.Instance("1.9.1.2")
	require.True(t, ok)
	require.NotNil(t, inst.Plane)
	assert.InDelta(t, 2.5, inst.Plane.Distance(), 1e-9)
	assert.Equal(t, "1.9.0", inst.FrameOfReferenceUID)

	assert.True(t, sets[1].Unsupported())
}

func TestLoadDir_Canceled(t *testing.T) {
	dir := t.TempDir()
	writeInstance(t, filepath.Join(dir, "1.dcm"), "CT", "1.9.1", "1.9.1.1", 1, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := LoadDir(ctx, dir)
	assert.ErrorIs(t, err, context.Canceled)
}
