package sr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindImagingMeasurements(t *testing.T) {
	r := loadFixture(t)
	item, err := FindImagingMeasurements(r.Children())
	require.NoError(t, err)
	assert.Equal(t, ImagingMeasurements, item.Concept())
	assert.Len(t, item.Children(), 4)
}

func TestFindImagingMeasurements_Missing(t *testing.T) {
	_, err := FindImagingMeasurements([]*ContentItem{trackingItem("x")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))

	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, ImagingMeasurements, nf.Concept)
	assert.Contains(t, err.Error(), "Imaging Measurements")
}

func TestReferencedImages(t *testing.T) {
	r := loadFixture(t)
	refs, err := ReferencedImages(r.Children())
	require.NoError(t, err)
	assert.Equal(t, []ImageReference{
		{ReferencedSOPClassUID: ctImage, ReferencedSOPInstanceUID: "1.2.3.4.1"},
		{ReferencedSOPClassUID: ctImage, ReferencedSOPInstanceUID: "1.2.3.4.2"},
	}, refs)
}

func TestReferencedImages_MissingLevels(t *testing.T) {
	_, err := ReferencedImages(measurementsRoot())
	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, ImageLibrary, nf.Concept)

	library := &ContentItem{
		ValueType:               ValueContainer,
		ConceptNameCodeSequence: Sequence[Code]{ImageLibrary.Code()},
	}
	_, err = ReferencedImages([]*ContentItem{library})
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, ImageLibraryGroup, nf.Concept)
}

func TestReferencedImages_SkipsClasslessReferences(t *testing.T) {
	libraryGroup := &ContentItem{
		ValueType:               ValueContainer,
		ConceptNameCodeSequence: Sequence[Code]{ImageLibraryGroup.Code()},
		ContentSequence: Sequence[*ContentItem]{
			{ValueType: ValueImage, ReferencedSOPSequence: Sequence[SOPReference]{{ReferencedSOPInstanceUID: "1.9"}}},
			{ValueType: ValueImage, ReferencedSOPSequence: Sequence[SOPReference]{{ReferencedSOPClassUID: ctImage, ReferencedSOPInstanceUID: "2.9"}}},
		},
	}
	library := &ContentItem{
		ValueType:               ValueContainer,
		ConceptNameCodeSequence: Sequence[Code]{ImageLibrary.Code()},
		ContentSequence:         Sequence[*ContentItem]{libraryGroup},
	}
	refs, err := ReferencedImages([]*ContentItem{library})
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, "2.9", refs[0].ReferencedSOPInstanceUID)
}
