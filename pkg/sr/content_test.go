package sr

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		code Code
		want Concept
	}{
		{"imaging measurements", Code{CodeValue: "126010", CodingSchemeDesignator: "DCM"}, ImagingMeasurements},
		{"image library", Code{CodeValue: "111028", CodingSchemeDesignator: "DCM"}, ImageLibrary},
		{"tracking uid", Code{CodeValue: "112040", CodingSchemeDesignator: "DCM"}, TrackingUniqueIdentifier},
		{"finding site SRT", Code{CodeValue: "G-C0E3", CodingSchemeDesignator: "SRT"}, FindingSite},
		{"finding site SCT", Code{CodeValue: "363698007", CodingSchemeDesignator: "SCT"}, FindingSite},
		{"length SRT", Code{CodeValue: "G-D7FE", CodingSchemeDesignator: "SRT"}, Length},
		{"free text CST4", Code{CodeValue: FreeTextCodeValue, CodingSchemeDesignator: "CST4"}, FreeTextConcept},
		{"free text cornerstone", Code{CodeValue: FreeTextCodeValue, CodingSchemeDesignator: "Cornerstone3DTools"}, FreeTextConcept},
		{"free text other scheme", Code{CodeValue: FreeTextCodeValue, CodingSchemeDesignator: "99LOCAL"}, Unknown},
		{"unknown", Code{CodeValue: "999999", CodingSchemeDesignator: "DCM"}, Unknown},
		{"empty", Code{}, Unknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.code))
		})
	}
}

func TestConceptCodeRoundTrip(t *testing.T) {
	for c := ImagingMeasurementReport; c <= StandardDeviation; c++ {
		assert.Equal(t, c, Classify(c.Code()), c.String())
	}
	assert.Equal(t, "Unknown", Unknown.String())
	assert.True(t, Unknown.Code().IsZero())
}

func TestUnit(t *testing.T) {
	assert.Equal(t, Code{CodeValue: "mm", CodingSchemeDesignator: "UCUM", CodeMeaning: "millimeter"}, Unit("mm"))
	assert.Equal(t, "cm3", Unit("cm3").CodeMeaning)
}

func TestSequence_SingleOrArray(t *testing.T) {
	var single, list, null Sequence[Code]
	require.NoError(t, json.Unmarshal([]byte(`{"CodeValue":"1"}`), &single))
	require.NoError(t, json.Unmarshal([]byte(`[{"CodeValue":"1"},{"CodeValue":"2"}]`), &list))
	require.NoError(t, json.Unmarshal([]byte(`null`), &null))

	assert.Equal(t, Sequence[Code]{{CodeValue: "1"}}, single)
	assert.Len(t, list, 2)
	assert.Empty(t, null)

	out, err := json.Marshal(single)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"CodeValue":"1"}]`, string(out))
}

func TestContentItem_Decode(t *testing.T) {
	data := `{
		"ValueType": "NUM",
		"ConceptNameCodeSequence": {"CodeValue": "G-A185", "CodingSchemeDesignator": "SRT", "CodeMeaning": "Long Axis"},
		"MeasuredValueSequence": {"NumericValue": 31, "MeasurementUnitsCodeSequence": {"CodeValue": "mm"}},
		"ContentSequence": {
			"ValueType": "SCOORD",
			"RelationshipType": "INFERRED FROM",
			"GraphicData": [1, 2, 3, 4],
			"ContentSequence": {"ReferencedSOPSequence": {"ReferencedSOPInstanceUID": "1.2", "ReferencedFrameNumber": "3"}}
		}
	}`
	var ci ContentItem
	require.NoError(t, json.Unmarshal([]byte(data), &ci))

	assert.Equal(t, LongAxis, ci.Concept())
	mv, ok := ci.MeasuredValueSequence.First()
	require.True(t, ok)
	assert.Equal(t, DecimalString("31"), mv.NumericValue)
	assert.Equal(t, "mm", mv.Units().CodeValue)

	children := ci.Children()
	require.Len(t, children, 1)
	assert.Equal(t, []float64{1, 2, 3, 4}, children[0].GraphicData)
	ref, ok := children[0].Children()[0].ReferencedSOPSequence.First()
	require.True(t, ok)
	assert.Equal(t, 3, ref.Frame())
}

func TestFrameNumbers(t *testing.T) {
	tests := []struct {
		in   string
		want FrameNumbers
	}{
		{`2`, FrameNumbers{2}},
		{`"2"`, FrameNumbers{2}},
		{`"1\\4"`, FrameNumbers{1, 4}},
		{`[1, "5"]`, FrameNumbers{1, 5}},
		{`null`, nil},
	}
	for _, tt := range tests {
		var f FrameNumbers
		require.NoError(t, json.Unmarshal([]byte(tt.in), &f), tt.in)
		assert.Equal(t, tt.want, f, tt.in)
	}

	var bad FrameNumbers
	assert.Error(t, json.Unmarshal([]byte(`"x"`), &bad))
	assert.Equal(t, 1, (*SOPReference)(nil).Frame())
}

func TestDecimalString(t *testing.T) {
	var d DecimalString
	require.NoError(t, json.Unmarshal([]byte(`12.5`), &d))
	f, ok := d.Float()
	assert.True(t, ok)
	assert.Equal(t, 12.5, f)

	require.NoError(t, json.Unmarshal([]byte(`" 7 "`), &d))
	assert.Equal(t, DecimalString("7"), d)

	_, ok = DecimalString("").Float()
	assert.False(t, ok)
	_, ok = DecimalString("abc").Float()
	assert.False(t, ok)
	assert.Equal(t, DecimalString("0.25"), Decimal(0.25))
}

func TestFrameOfReference_BareUID(t *testing.T) {
	var ci ContentItem
	require.NoError(t, json.Unmarshal([]byte(`{"ValueType":"SCOORD3D","ReferencedFrameOfReferenceSequence":"1.2.3"}`), &ci))
	assert.Equal(t, "1.2.3", ci.FrameOfReferenceUID())

	require.NoError(t, json.Unmarshal([]byte(`{"ValueType":"SCOORD3D","ReferencedFrameOfReferenceSequence":[{"FrameOfReferenceUID":"4.5"}]}`), &ci))
	assert.Equal(t, "4.5", ci.FrameOfReferenceUID())
}

func TestReport_DecodeHeader(t *testing.T) {
	r := loadFixture(t)
	assert.Equal(t, PersonName("Doe^Jane"), r.PatientName)
	assert.Equal(t, IntegerString(4700), r.SeriesNumber)
	assert.Equal(t, IntegerString(1), r.InstanceNumber)
	assert.Equal(t, "1500", r.TemplateIdentifier())
	assert.True(t, r.IsMeasurementReport())
	assert.Len(t, r.Children(), 3)
}

func TestParseTrackingIdentifier(t *testing.T) {
	ns, version, tool, ok := ParseTrackingIdentifier("Cornerstone3DTools@^0.1.0:Bidirectional")
	assert.True(t, ok)
	assert.Equal(t, "Cornerstone3DTools", ns)
	assert.Equal(t, "0.1.0", version)
	assert.Equal(t, "Bidirectional", tool)

	_, _, _, ok = ParseTrackingIdentifier("Lesion 1")
	assert.False(t, ok)
	assert.Equal(t, "Cornerstone3DTools@^0.1.0:Length", TrackingIdentifierFor("Cornerstone3DTools", "0.1.0", "Length"))
}
