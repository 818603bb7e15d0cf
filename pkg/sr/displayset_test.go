package sr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	r := loadFixture(t)
	ds, err := Load(r)
	require.NoError(t, err)

	assert.NotEmpty(t, ds.DisplaySetInstanceUID)
	assert.Equal(t, r.SOPInstanceUID, ds.SOPInstanceUID)
	assert.Equal(t, 4700, ds.SeriesNumber)
	assert.Equal(t, "Research Derived Series", ds.SeriesDescription)
	assert.Len(t, ds.ReferencedImages, 2)
	assert.Len(t, ds.Records, 2)
	assert.Len(t, ds.Skips, 2)
	assert.True(t, ds.Rehydratable)
	assert.Len(t, ds.Unloaded(), 2)

	again, err := Load(loadFixture(t))
	require.NoError(t, err)
	assert.Equal(t, ds.DisplaySetInstanceUID, again.DisplaySetInstanceUID)

	ds.Records[0].Loaded = true
	assert.Equal(t, []*Record{ds.Records[1]}, ds.Unloaded())
}

func TestLoad_MissingImageLibrary(t *testing.T) {
	r := &Report{SOPInstanceUID: "1.2.3"}
	r.ContentSequence = measurementsRoot()
	_, err := Load(r)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "loading report 1.2.3")
}

func TestRehydratable(t *testing.T) {
	rec := func(ti string) *Record { return &Record{TrackingIdentifier: ti} }
	tests := []struct {
		name    string
		records []*Record
		tools   []string
		want    bool
	}{
		{"no records", nil, SupportedToolTypes, true},
		{"no tools", []*Record{rec("Cornerstone3DTools@^0.1.0:Length")}, nil, false},
		{"supported", []*Record{rec("Cornerstone3DTools@^0.1.0:Length"), rec("cornerstoneTools@^4.0.0:Bidirectional")}, SupportedToolTypes, true},
		{"unknown tool", []*Record{rec("Cornerstone3DTools@^0.1.0:Length"), rec("Cornerstone3DTools@^0.1.0:Magic")}, SupportedToolTypes, false},
		{"foreign namespace", []*Record{rec("OtherViewer@^1.0.0:Length")}, SupportedToolTypes, false},
		{"free text identifier", []*Record{rec("Lesion 1")}, SupportedToolTypes, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Rehydratable(tt.records, tt.tools))
		})
	}
}
