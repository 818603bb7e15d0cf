// Package tag defines the DICOM tags used by structured reports and the images they reference
package tag

// Tag represents a DICOM tag with Group and Element
type Tag struct {
	Group   uint16
	Element uint16
}

// New creates a new Tag
func New(group, element uint16) Tag {
	return Tag{Group: group, Element: element}
}

// Equals compares two tags
func (t Tag) Equals(other Tag) bool {
	return t.Group == other.Group && t.Element == other.Element
}

// IsPrivate returns true if this is a private tag (odd group number)
func (t Tag) IsPrivate() bool {
	return t.Group%2 == 1
}

// IsGroup0002 returns true if this tag is in the File Meta Information group
func (t Tag) IsGroup0002() bool {
	return t.Group == 0x0002
}

// File Meta Information (Group 0002)
var (
	FileMetaInformationGroupLength = Tag{0x0002, 0x0000}
	FileMetaInformationVersion     = Tag{0x0002, 0x0001}
	MediaStorageSOPClassUID        = Tag{0x0002, 0x0002}
	MediaStorageSOPInstanceUID     = Tag{0x0002, 0x0003}
	TransferSyntaxUID              = Tag{0x0002, 0x0010}
	ImplementationClassUID         = Tag{0x0002, 0x0012}
	ImplementationVersionName      = Tag{0x0002, 0x0013}
	SpecificCharacterSet           = Tag{0x0008, 0x0005}
)

// Patient Module (Group 0010)
var (
	PatientName      = Tag{0x0010, 0x0010}
	PatientID        = Tag{0x0010, 0x0020}
	PatientBirthDate = Tag{0x0010, 0x0030}
	PatientSex       = Tag{0x0010, 0x0040}
	PatientAge       = Tag{0x0010, 0x1010}
	PatientComments  = Tag{0x0010, 0x4000}
)

// General Study Module (Group 0008, 0020)
var (
	StudyDate        = Tag{0x0008, 0x0020}
	StudyTime        = Tag{0x0008, 0x0030}
	AccessionNumber  = Tag{0x0008, 0x0050}
	StudyDescription = Tag{0x0008, 0x1030}
	StudyInstanceUID = Tag{0x0020, 0x000D}
	StudyID          = Tag{0x0020, 0x0010}
)

// General Series Module
var (
	Modality          = Tag{0x0008, 0x0060}
	SeriesInstanceUID = Tag{0x0020, 0x000E}
	SeriesNumber      = Tag{0x0020, 0x0011}
	InstanceNumber    = Tag{0x0020, 0x0013}
	SeriesDescription = Tag{0x0008, 0x103E}
	SeriesDate        = Tag{0x0008, 0x0021}
	SeriesTime        = Tag{0x0008, 0x0031}
)

// General Equipment Module
var (
	Manufacturer          = Tag{0x0008, 0x0070}
	InstitutionName       = Tag{0x0008, 0x0080}
	StationName           = Tag{0x0008, 0x1010}
	ManufacturerModelName = Tag{0x0008, 0x1090}
	DeviceSerialNumber    = Tag{0x0018, 0x1000}
	SoftwareVersions      = Tag{0x0018, 0x1020}
)

// SOP Common Module
var (
	SOPClassUID          = Tag{0x0008, 0x0016}
	SOPInstanceUID       = Tag{0x0008, 0x0018}
	InstanceCreationDate = Tag{0x0008, 0x0012}
	InstanceCreationTime = Tag{0x0008, 0x0013}
)

// Frame of Reference and Image Plane Modules
var (
	FrameOfReferenceUID        = Tag{0x0020, 0x0052}
	PositionReferenceIndicator = Tag{0x0020, 0x1040}
	ImagePositionPatient       = Tag{0x0020, 0x0032}
	ImageOrientationPatient    = Tag{0x0020, 0x0037}
	SliceThickness             = Tag{0x0018, 0x0050}
	SpacingBetweenSlices       = Tag{0x0018, 0x0088}
	PixelSpacing               = Tag{0x0028, 0x0030}
	SliceLocation              = Tag{0x0020, 0x1041}
)

// Image Pixel Module (Group 0028)
var (
	Rows           = Tag{0x0028, 0x0010}
	Columns        = Tag{0x0028, 0x0011}
	NumberOfFrames = Tag{0x0028, 0x0008}
	PixelData      = Tag{0x7FE0, 0x0010}
)

// Content Date/Time
var (
	ContentDate = Tag{0x0008, 0x0023}
	ContentTime = Tag{0x0008, 0x0033}
)

// Sequence delimiters
var (
	Item                     = Tag{0xFFFE, 0xE000}
	ItemDelimitationItem     = Tag{0xFFFE, 0xE00D}
	SequenceDelimitationItem = Tag{0xFFFE, 0xE0DD}
)

// Code Sequence Macro (Group 0008)
var (
	CodeValue              = Tag{0x0008, 0x0100} // SH
	CodingSchemeDesignator = Tag{0x0008, 0x0102} // SH
	CodingSchemeVersion    = Tag{0x0008, 0x0103} // SH
	CodeMeaning            = Tag{0x0008, 0x0104} // LO
	MappingResource        = Tag{0x0008, 0x0105} // CS
)

// SOP and Image References
var (
	ReferencedSOPClassUID              = Tag{0x0008, 0x1150} // UI
	ReferencedSOPInstanceUID           = Tag{0x0008, 0x1155} // UI
	ReferencedFrameNumber              = Tag{0x0008, 0x1160} // IS
	ReferencedSeriesSequence           = Tag{0x0008, 0x1115} // SQ
	ReferencedImageSequence            = Tag{0x0008, 0x1140} // SQ
	ReferencedSOPSequence              = Tag{0x0008, 0x1199} // SQ
	ReferencedFrameOfReferenceSequence = Tag{0x3006, 0x0010} // SQ
	ReferencedFrameOfReferenceUID      = Tag{0x3006, 0x0024} // UI
)

// SR Document General and Content Modules (Group 0040)
var (
	RelationshipType                          = Tag{0x0040, 0xA010} // CS
	ValueType                                 = Tag{0x0040, 0xA040} // CS
	ConceptNameCodeSequence                   = Tag{0x0040, 0xA043} // SQ
	ContinuityOfContent                       = Tag{0x0040, 0xA050} // CS
	UID                                       = Tag{0x0040, 0xA124} // UI
	TextValue                                 = Tag{0x0040, 0xA160} // UT
	ConceptCodeSequence                       = Tag{0x0040, 0xA168} // SQ
	MeasuredValueSequence                     = Tag{0x0040, 0xA300} // SQ
	NumericValue                              = Tag{0x0040, 0xA30A} // DS
	MeasurementUnitsCodeSequence              = Tag{0x0040, 0x08EA} // SQ
	CurrentRequestedProcedureEvidenceSequence = Tag{0x0040, 0xA375} // SQ
	CompletionFlag                            = Tag{0x0040, 0xA491} // CS
	VerificationFlag                          = Tag{0x0040, 0xA493} // CS
	ContentTemplateSequence                   = Tag{0x0040, 0xA504} // SQ
	ContentSequence                           = Tag{0x0040, 0xA730} // SQ
	TemplateIdentifier                        = Tag{0x0040, 0xDB00} // CS
)

// Graphic annotations (Group 0070)
var (
	GraphicData = Tag{0x0070, 0x0022} // FL
	GraphicType = Tag{0x0070, 0x0023} // CS
)

// LookupName returns a human-readable name for common tags
func (t Tag) LookupName() string {
	switch t {
	case PatientName:
		return "PatientName"
	case PatientID:
		return "PatientID"
	case TransferSyntaxUID:
		return "TransferSyntaxUID"
	case SOPClassUID:
		return "SOPClassUID"
	case SOPInstanceUID:
		return "SOPInstanceUID"
	case Modality:
		return "Modality"
	case NumberOfFrames:
		return "NumberOfFrames"
	case ValueType:
		return "ValueType"
	case RelationshipType:
		return "RelationshipType"
	case ConceptNameCodeSequence:
		return "ConceptNameCodeSequence"
	case ContentSequence:
		return "ContentSequence"
	case CodeValue:
		return "CodeValue"
	case CodeMeaning:
		return "CodeMeaning"
	case GraphicType:
		return "GraphicType"
	case GraphicData:
		return "GraphicData"
	case ReferencedSOPSequence:
		return "ReferencedSOPSequence"
	default:
		return ""
	}
}
