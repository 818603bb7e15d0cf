package dcm

import (
	"fmt"

	"github.com/jpfielding/dicomsr.go/pkg/dcm/tag"
)

// AttributeType represents DICOM attribute type requirements
type AttributeType int

const (
	// Type1 - Required, must have value
	Type1 AttributeType = 1
	// Type1C - Conditionally required, must have value if present
	Type1C AttributeType = 2
	// Type2 - Required, may be empty
	Type2 AttributeType = 3
	// Type2C - Conditionally required, may be empty if present
	Type2C AttributeType = 4
	// Type3 - Optional
	Type3 AttributeType = 5
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Tag        tag.Tag
	Type       AttributeType
	Message    string
	IsCritical bool // Type 1 and 1C violations are critical
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("(%04X,%04X) %s: %s", e.Tag.Group, e.Tag.Element, e.typeName(), e.Message)
}

func (e ValidationError) typeName() string {
	switch e.Type {
	case Type1:
		return "Type 1"
	case Type1C:
		return "Type 1C"
	case Type2:
		return "Type 2"
	case Type2C:
		return "Type 2C"
	case Type3:
		return "Type 3"
	default:
		return "Unknown"
	}
}

// ValidationResult contains all validation errors for a dataset
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationError
}

// IsValid returns true if there are no critical errors
func (r ValidationResult) IsValid() bool {
	for _, err := range r.Errors {
		if err.IsCritical {
			return false
		}
	}
	return true
}

// HasErrors returns true if there are any errors
func (r ValidationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// HasWarnings returns true if there are any warnings
func (r ValidationResult) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// IODRequirement defines a required attribute for an IOD
type IODRequirement struct {
	Tag       tag.Tag
	Type      AttributeType
	Condition func(*Dataset) bool // For Type 1C/2C, returns true if attribute is required
}

// ValidateDataset validates a dataset against a set of requirements
func ValidateDataset(ds *Dataset, requirements []IODRequirement) ValidationResult {
	result := ValidationResult{}

	for _, req := range requirements {
		elem, exists := ds.FindElement(req.Tag.Group, req.Tag.Element)

		switch req.Type {
		case Type1:
			if !exists {
				result.Errors = append(result.Errors, ValidationError{
					Tag:        req.Tag,
					Type:       Type1,
					Message:    "Required attribute missing",
					IsCritical: true,
				})
			} else if isEmpty(elem) {
				result.Errors = append(result.Errors, ValidationError{
					Tag:        req.Tag,
					Type:       Type1,
					Message:    "Required attribute is empty",
					IsCritical: true,
				})
			}

		case Type1C:
			if req.Condition != nil && req.Condition(ds) {
				if !exists {
					result.Errors = append(result.Errors, ValidationError{
						Tag:        req.Tag,
						Type:       Type1C,
						Message:    "Conditionally required attribute missing",
						IsCritical: true,
					})
				} else if isEmpty(elem) {
					result.Errors = append(result.Errors, ValidationError{
						Tag:        req.Tag,
						Type:       Type1C,
						Message:    "Conditionally required attribute is empty",
						IsCritical: true,
					})
				}
			}

		case Type2:
			if !exists {
				result.Warnings = append(result.Warnings, ValidationError{
					Tag:        req.Tag,
					Type:       Type2,
					Message:    "Required attribute missing (may be empty)",
					IsCritical: false,
				})
			}

		case Type2C:
			if req.Condition != nil && req.Condition(ds) && !exists {
				result.Warnings = append(result.Warnings, ValidationError{
					Tag:        req.Tag,
					Type:       Type2C,
					Message:    "Conditionally required attribute missing (may be empty)",
					IsCritical: false,
				})
			}

		case Type3:
			// Optional - no validation needed
		}
	}

	return result
}

// isEmpty checks if an element has no value
func isEmpty(elem *Element) bool {
	if elem == nil {
		return true
	}
	if elem.Value == nil {
		return true
	}
	switch v := elem.Value.(type) {
	case string:
		return v == ""
	case []byte:
		return len(v) == 0
	case []uint16:
		return len(v) == 0
	case []float32:
		return len(v) == 0
	case []*Dataset:
		return len(v) == 0
	default:
		return false
	}
}

// Common IOD Requirements

// PatientModuleRequirements defines required attributes for Patient Module
var PatientModuleRequirements = []IODRequirement{
	{Tag: tag.PatientName, Type: Type2},
	{Tag: tag.PatientID, Type: Type2},
}

// GeneralStudyModuleRequirements defines required attributes for General Study Module
var GeneralStudyModuleRequirements = []IODRequirement{
	{Tag: tag.StudyInstanceUID, Type: Type1},
	{Tag: tag.StudyDate, Type: Type2},
	{Tag: tag.StudyTime, Type: Type2},
}

// SRDocumentSeriesRequirements defines required attributes for SR Document Series Module
var SRDocumentSeriesRequirements = []IODRequirement{
	{Tag: tag.Modality, Type: Type1},
	{Tag: tag.SeriesInstanceUID, Type: Type1},
	{Tag: tag.SeriesNumber, Type: Type1},
}

// SRDocumentGeneralRequirements defines required attributes for SR Document General Module
var SRDocumentGeneralRequirements = []IODRequirement{
	{Tag: tag.InstanceNumber, Type: Type1},
	{Tag: tag.CompletionFlag, Type: Type1},
	{Tag: tag.VerificationFlag, Type: Type1},
	{Tag: tag.ContentDate, Type: Type1},
	{Tag: tag.ContentTime, Type: Type1},
}

// SRDocumentContentRequirements defines the root content item attributes
var SRDocumentContentRequirements = []IODRequirement{
	{Tag: tag.ValueType, Type: Type1},
	{Tag: tag.ConceptNameCodeSequence, Type: Type1},
	{Tag: tag.ContinuityOfContent, Type: Type1C, Condition: func(ds *Dataset) bool {
		return ds.Text(tag.ValueType) == "CONTAINER"
	}},
	{Tag: tag.ContentSequence, Type: Type2},
}

// SOPCommonModuleRequirements defines required attributes for SOP Common Module
var SOPCommonModuleRequirements = []IODRequirement{
	{Tag: tag.SOPClassUID, Type: Type1},
	{Tag: tag.SOPInstanceUID, Type: Type1},
}

// SRRequirements combines all requirements for a structured report IOD
var SRRequirements = concatRequirements(
	PatientModuleRequirements,
	GeneralStudyModuleRequirements,
	SRDocumentSeriesRequirements,
	SRDocumentGeneralRequirements,
	SRDocumentContentRequirements,
	SOPCommonModuleRequirements,
)

// ContentItemRequirements applies to every nested content item
var ContentItemRequirements = []IODRequirement{
	{Tag: tag.RelationshipType, Type: Type1},
	{Tag: tag.ValueType, Type: Type1},
	{Tag: tag.ConceptNameCodeSequence, Type: Type1C, Condition: func(ds *Dataset) bool {
		switch ds.Text(tag.ValueType) {
		case "IMAGE", "SCOORD", "SCOORD3D":
			return false
		}
		return true
	}},
	{Tag: tag.GraphicType, Type: Type1C, Condition: isSCOORD},
	{Tag: tag.GraphicData, Type: Type1C, Condition: isSCOORD},
	{Tag: tag.ReferencedSOPSequence, Type: Type1C, Condition: func(ds *Dataset) bool {
		return ds.Text(tag.ValueType) == "IMAGE"
	}},
}

func isSCOORD(ds *Dataset) bool {
	vt := ds.Text(tag.ValueType)
	return vt == "SCOORD" || vt == "SCOORD3D"
}

func concatRequirements(groups ...[]IODRequirement) []IODRequirement {
	var out []IODRequirement
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// ValidateSR validates a structured report, descending the content tree.
// Errors from nested items carry the path of the item in their message.
func ValidateSR(ds *Dataset) ValidationResult {
	result := ValidateDataset(ds, SRRequirements)
	validateContent(ds.Sequence(tag.ContentSequence), "", &result)
	return result
}

func validateContent(items []*Dataset, path string, result *ValidationResult) {
	for i, item := range items {
		itemPath := fmt.Sprintf("%s/%d", path, i+1)
		sub := ValidateDataset(item, ContentItemRequirements)
		for _, e := range sub.Errors {
			e.Message = itemPath + ": " + e.Message
			result.Errors = append(result.Errors, e)
		}
		for _, w := range sub.Warnings {
			w.Message = itemPath + ": " + w.Message
			result.Warnings = append(result.Warnings, w)
		}
		validateContent(item.Sequence(tag.ContentSequence), itemPath, result)
	}
}
