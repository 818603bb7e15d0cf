package sr

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Report is a structured report instance in naturalized form: the header
// attributes the codec reads or writes plus the root content item
type Report struct {
	SpecificCharacterSet string `json:"SpecificCharacterSet,omitempty"`
	SOPClassUID          string `json:"SOPClassUID,omitempty"`
	SOPInstanceUID       string `json:"SOPInstanceUID,omitempty"`

	PatientName      PersonName `json:"PatientName,omitempty"`
	PatientID        string     `json:"PatientID,omitempty"`
	PatientBirthDate string     `json:"PatientBirthDate,omitempty"`
	PatientSex       string     `json:"PatientSex,omitempty"`

	StudyInstanceUID string `json:"StudyInstanceUID,omitempty"`
	StudyDate        string `json:"StudyDate,omitempty"`
	StudyTime        string `json:"StudyTime,omitempty"`
	StudyID          string `json:"StudyID,omitempty"`
	AccessionNumber  string `json:"AccessionNumber,omitempty"`
	StudyDescription string `json:"StudyDescription,omitempty"`

	Modality          string        `json:"Modality,omitempty"`
	SeriesInstanceUID string        `json:"SeriesInstanceUID,omitempty"`
	SeriesNumber      IntegerString `json:"SeriesNumber,omitempty"`
	SeriesDescription string        `json:"SeriesDescription,omitempty"`
	Manufacturer      string        `json:"Manufacturer,omitempty"`

	InstanceNumber   IntegerString `json:"InstanceNumber,omitempty"`
	CompletionFlag   string        `json:"CompletionFlag,omitempty"`
	VerificationFlag string        `json:"VerificationFlag,omitempty"`
	ContentDate      string        `json:"ContentDate,omitempty"`
	ContentTime      string        `json:"ContentTime,omitempty"`

	ContentTemplateSequence                   Sequence[Template] `json:"ContentTemplateSequence,omitempty"`
	CurrentRequestedProcedureEvidenceSequence Sequence[Evidence] `json:"CurrentRequestedProcedureEvidenceSequence,omitempty"`

	ContentItem
}

// Template is an item of the Content Template Sequence
type Template struct {
	MappingResource    string `json:"MappingResource,omitempty"`
	TemplateIdentifier string `json:"TemplateIdentifier,omitempty"`
}

// Evidence lists the instances of one study a report was made from
type Evidence struct {
	StudyInstanceUID         string                   `json:"StudyInstanceUID,omitempty"`
	ReferencedSeriesSequence Sequence[SeriesEvidence] `json:"ReferencedSeriesSequence,omitempty"`
}

// SeriesEvidence lists the referenced instances of one series
type SeriesEvidence struct {
	SeriesInstanceUID     string                 `json:"SeriesInstanceUID,omitempty"`
	ReferencedSOPSequence Sequence[SOPReference] `json:"ReferencedSOPSequence,omitempty"`
}

// Root returns the root content item
func (r *Report) Root() *ContentItem {
	return &r.ContentItem
}

// TemplateIdentifier returns the root template, e.g. "1500", or ""
func (r *Report) TemplateIdentifier() string {
	t, _ := r.ContentTemplateSequence.First()
	return t.TemplateIdentifier
}

// IsMeasurementReport reports whether the root is an Imaging Measurement Report container
func (r *Report) IsMeasurementReport() bool {
	return r.ValueType == ValueContainer && r.Concept() == ImagingMeasurementReport
}

// ReadReportJSON decodes a naturalized report
func ReadReportJSON(rd io.Reader) (*Report, error) {
	var r Report
	if err := json.NewDecoder(rd).Decode(&r); err != nil {
		return nil, fmt.Errorf("decoding report: %w", err)
	}
	return &r, nil
}

// WriteJSON encodes the report as indented naturalized JSON
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// PersonName is a PN value. It decodes from a string or from the
// {"Alphabetic": ...} form, bare or in a list.
type PersonName string

// UnmarshalJSON accepts a string, an object or a list of objects
func (p *PersonName) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*p = PersonName(s)
		return nil
	}
	type components struct {
		Alphabetic string `json:"Alphabetic"`
	}
	names, err := asSequence[components](data)
	if err != nil {
		return fmt.Errorf("sr: person name: %w", err)
	}
	*p = ""
	if len(names) > 0 {
		*p = PersonName(names[0].Alphabetic)
	}
	return nil
}

// IntegerString is an IS value. It decodes from a JSON number or string.
type IntegerString int

// UnmarshalJSON accepts a number, a string or null
func (i *IntegerString) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*i = 0
		return nil
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		s = strings.TrimSpace(s)
		if s == "" {
			*i = 0
			return nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("sr: integer string %q: %w", s, err)
		}
		*i = IntegerString(n)
		return nil
	}
	var n int
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return fmt.Errorf("sr: integer string: %w", err)
	}
	*i = IntegerString(n)
	return nil
}
