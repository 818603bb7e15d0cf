package sr

import "fmt"

// Coding scheme designators
const (
	SchemeDCM  = "DCM"
	SchemeSRT  = "SRT"
	SchemeSCT  = "SCT"
	SchemeUCUM = "UCUM"

	// SchemeFreeText and SchemeCornerstone3DTools carry free-text findings
	SchemeFreeText           = "CST4"
	SchemeCornerstone3DTools = "Cornerstone3DTools"

	// FreeTextCodeValue marks a coded value whose meaning is user-entered text
	FreeTextCodeValue = "CORNERSTONEFREETEXT"
)

// Code is the Code Sequence Macro: one coded triple
type Code struct {
	CodeValue              string `json:"CodeValue,omitempty"`
	CodingSchemeDesignator string `json:"CodingSchemeDesignator,omitempty"`
	CodingSchemeVersion    string `json:"CodingSchemeVersion,omitempty"`
	CodeMeaning            string `json:"CodeMeaning,omitempty"`
}

// IsZero reports whether no part of the code is set
func (c Code) IsZero() bool {
	return c == Code{}
}

func (c Code) String() string {
	return fmt.Sprintf("(%s, %s, %q)", c.CodeValue, c.CodingSchemeDesignator, c.CodeMeaning)
}

// FreeText returns a free-text code carrying meaning
func FreeText(meaning string) Code {
	return Code{CodeValue: FreeTextCodeValue, CodingSchemeDesignator: SchemeFreeText, CodeMeaning: meaning}
}

// IsFreeText reports whether the code is a free-text code from a known scheme
func (c Code) IsFreeText() bool {
	return c.CodeValue == FreeTextCodeValue &&
		(c.CodingSchemeDesignator == SchemeFreeText || c.CodingSchemeDesignator == SchemeCornerstone3DTools)
}

// Concept is a known concept kind of the measurement report templates
type Concept int

const (
	Unknown Concept = iota
	ImagingMeasurementReport
	ImageLibrary
	ImageLibraryGroup
	ImagingMeasurements
	MeasurementGroup
	TrackingIdentifier
	TrackingUniqueIdentifier
	Finding
	FindingSite
	LanguageOfContent
	ProcedureReported
	ImageRegion
	FreeTextConcept
	Length
	LongAxis
	ShortAxis
	Area
	Mean
	StandardDeviation
)

var conceptCodes = map[Concept]Code{
	ImagingMeasurementReport: {CodeValue: "126000", CodingSchemeDesignator: SchemeDCM, CodeMeaning: "Imaging Measurement Report"},
	ImageLibrary:             {CodeValue: "111028", CodingSchemeDesignator: SchemeDCM, CodeMeaning: "Image Library"},
	ImageLibraryGroup:        {CodeValue: "126200", CodingSchemeDesignator: SchemeDCM, CodeMeaning: "Image Library Group"},
	ImagingMeasurements:      {CodeValue: "126010", CodingSchemeDesignator: SchemeDCM, CodeMeaning: "Imaging Measurements"},
	MeasurementGroup:         {CodeValue: "125007", CodingSchemeDesignator: SchemeDCM, CodeMeaning: "Measurement Group"},
	TrackingIdentifier:       {CodeValue: "112039", CodingSchemeDesignator: SchemeDCM, CodeMeaning: "Tracking Identifier"},
	TrackingUniqueIdentifier: {CodeValue: "112040", CodingSchemeDesignator: SchemeDCM, CodeMeaning: "Tracking Unique Identifier"},
	Finding:                  {CodeValue: "121071", CodingSchemeDesignator: SchemeDCM, CodeMeaning: "Finding"},
	FindingSite:              {CodeValue: "363698007", CodingSchemeDesignator: SchemeSCT, CodeMeaning: "Finding Site"},
	LanguageOfContent:        {CodeValue: "121049", CodingSchemeDesignator: SchemeDCM, CodeMeaning: "Language of Content Item and Descendants"},
	ProcedureReported:        {CodeValue: "121058", CodingSchemeDesignator: SchemeDCM, CodeMeaning: "Procedure reported"},
	ImageRegion:              {CodeValue: "111030", CodingSchemeDesignator: SchemeDCM, CodeMeaning: "Image Region"},
	FreeTextConcept:          {CodeValue: FreeTextCodeValue, CodingSchemeDesignator: SchemeFreeText, CodeMeaning: "Free Text"},
	Length:                   {CodeValue: "410668003", CodingSchemeDesignator: SchemeSCT, CodeMeaning: "Length"},
	LongAxis:                 {CodeValue: "103339001", CodingSchemeDesignator: SchemeSCT, CodeMeaning: "Long Axis"},
	ShortAxis:                {CodeValue: "103340004", CodingSchemeDesignator: SchemeSCT, CodeMeaning: "Short Axis"},
	Area:                     {CodeValue: "42798000", CodingSchemeDesignator: SchemeSCT, CodeMeaning: "Area"},
	Mean:                     {CodeValue: "373098007", CodingSchemeDesignator: SchemeSCT, CodeMeaning: "Mean"},
	StandardDeviation:        {CodeValue: "386136009", CodingSchemeDesignator: SchemeSCT, CodeMeaning: "Standard Deviation"},
}

// legacy SRT code values that map onto the SCT concepts above
var srtConcepts = map[string]Concept{
	"G-C0E3":  FindingSite,
	"G-D7FE":  Length,
	"G-A185":  LongAxis,
	"G-A186":  ShortAxis,
	"G-A166":  Area,
	"R-00317": Mean,
	"R-10047": StandardDeviation,
}

var valueConcepts = func() map[string]Concept {
	m := make(map[string]Concept, len(conceptCodes)+len(srtConcepts))
	for c, code := range conceptCodes {
		m[code.CodeValue] = c
	}
	for v, c := range srtConcepts {
		m[v] = c
	}
	return m
}()

// Classify maps a coded concept name onto a known Concept, Unknown otherwise.
// Matching is on code value; free text additionally requires a free-text scheme.
func Classify(c Code) Concept {
	if c.CodeValue == FreeTextCodeValue {
		if c.IsFreeText() {
			return FreeTextConcept
		}
		return Unknown
	}
	if concept, ok := valueConcepts[c.CodeValue]; ok {
		return concept
	}
	return Unknown
}

// Code returns the canonical coded triple for a concept
func (c Concept) Code() Code {
	return conceptCodes[c]
}

func (c Concept) String() string {
	if code, ok := conceptCodes[c]; ok {
		return code.CodeMeaning
	}
	return "Unknown"
}

// MeasurementConcept returns the measurement concept with a given code meaning,
// e.g. "Long Axis", matching case-sensitively
func MeasurementConcept(meaning string) (Concept, bool) {
	for _, c := range []Concept{Length, LongAxis, ShortAxis, Area, Mean, StandardDeviation} {
		if conceptCodes[c].CodeMeaning == meaning {
			return c, true
		}
	}
	return Unknown, false
}

var unitMeanings = map[string]string{
	"mm":  "millimeter",
	"mm2": "SquareMilliMeter",
	"deg": "degree",
	"HU":  "Hounsfield unit",
	"1":   "no units",
}

// Unit returns the UCUM code for a unit code value. Unknown units keep
// their code value as meaning.
func Unit(value string) Code {
	meaning, ok := unitMeanings[value]
	if !ok {
		meaning = value
	}
	return Code{CodeValue: value, CodingSchemeDesignator: SchemeUCUM, CodeMeaning: meaning}
}
