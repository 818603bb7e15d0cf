package dcm

import (
	"github.com/jpfielding/dicomsr.go/pkg/dcm/module"
	"github.com/jpfielding/dicomsr.go/pkg/dcm/tag"
)

// ImplementationClassUID identifies files written by this module
const ImplementationClassUID = "1.2.826.0.1.3680043.8.498.1"

// Option configures a Dataset during construction
type Option func(*Dataset) error

// NewDataset creates a Dataset with the given options
func NewDataset(opts ...Option) (*Dataset, error) {
	ds := &Dataset{Elements: make(map[Tag]*Element)}
	for _, opt := range opts {
		if err := opt(ds); err != nil {
			return nil, err
		}
	}
	return ds, nil
}

// WithElement adds a single element to the dataset, the VR taken from GetVR
func WithElement(t tag.Tag, value interface{}) Option {
	return func(ds *Dataset) error {
		ds.Elements[t] = &Element{
			Tag:   t,
			VR:    GetVR(t),
			Value: value,
		}
		return nil
	}
}

// WithOptionalElement adds a string element only when the value is non-empty
func WithOptionalElement(t tag.Tag, value string) Option {
	return func(ds *Dataset) error {
		if value == "" {
			return nil
		}
		return WithElement(t, value)(ds)
	}
}

// WithSequence adds a sequence element to the dataset
func WithSequence(t tag.Tag, items ...*Dataset) Option {
	return func(ds *Dataset) error {
		if items == nil {
			items = []*Dataset{}
		}
		ds.Elements[t] = &Element{
			Tag:   t,
			VR:    "SQ",
			Value: items,
		}
		return nil
	}
}

// WithFileMeta adds standard file meta information elements
func WithFileMeta(sopClassUID, sopInstanceUID, transferSyntax string) Option {
	return func(ds *Dataset) error {
		opts := []Option{
			WithElement(tag.MediaStorageSOPClassUID, sopClassUID),
			WithElement(tag.MediaStorageSOPInstanceUID, sopInstanceUID),
			WithElement(tag.TransferSyntaxUID, transferSyntax),
			WithElement(tag.ImplementationClassUID, ImplementationClassUID),
			WithElement(tag.ImplementationVersionName, "GO_DICOMSR"),
		}
		for _, opt := range opts {
			if err := opt(ds); err != nil {
				return err
			}
		}
		return nil
	}
}

// WithModule adds all elements from a module's ToTags() result
func WithModule(tags []module.IODElement) Option {
	return func(ds *Dataset) error {
		for _, el := range tags {
			if err := WithElement(el.Tag, el.Value)(ds); err != nil {
				return err
			}
		}
		return nil
	}
}

// GetVR returns the Value Representation (VR) for a known tag, "UN" otherwise
func GetVR(t tag.Tag) string {
	if t.Group == 0x0002 {
		switch t.Element {
		case 0x0000:
			return "UL"
		case 0x0001:
			return "OB"
		case 0x0013:
			return "SH"
		}
		return "UI"
	}

	switch t {
	case tag.SpecificCharacterSet:
		return "CS"

	case tag.PatientName:
		return "PN"
	case tag.PatientID:
		return "LO"
	case tag.PatientBirthDate:
		return "DA"
	case tag.PatientSex:
		return "CS"
	case tag.PatientAge:
		return "AS"
	case tag.PatientComments:
		return "LT"

	case tag.StudyDate, tag.SeriesDate, tag.ContentDate, tag.InstanceCreationDate:
		return "DA"
	case tag.StudyTime, tag.SeriesTime, tag.ContentTime, tag.InstanceCreationTime:
		return "TM"
	case tag.AccessionNumber, tag.StudyID:
		return "SH"
	case tag.StudyDescription, tag.SeriesDescription:
		return "LO"

	case tag.Modality:
		return "CS"
	case tag.SeriesNumber, tag.InstanceNumber, tag.NumberOfFrames:
		return "IS"

	case tag.Manufacturer, tag.InstitutionName, tag.ManufacturerModelName, tag.DeviceSerialNumber, tag.SoftwareVersions:
		return "LO"
	case tag.StationName:
		return "SH"

	case tag.StudyInstanceUID, tag.SeriesInstanceUID, tag.SOPClassUID, tag.SOPInstanceUID,
		tag.FrameOfReferenceUID, tag.ReferencedSOPClassUID, tag.ReferencedSOPInstanceUID,
		tag.ReferencedFrameOfReferenceUID, tag.UID:
		return "UI"

	case tag.PositionReferenceIndicator:
		return "LO"
	case tag.ImagePositionPatient, tag.ImageOrientationPatient, tag.SliceThickness,
		tag.SpacingBetweenSlices, tag.PixelSpacing, tag.SliceLocation, tag.NumericValue:
		return "DS"

	case tag.Rows, tag.Columns:
		return "US"
	case tag.PixelData:
		return "OW"

	case tag.CodeValue, tag.CodingSchemeDesignator, tag.CodingSchemeVersion:
		return "SH"
	case tag.CodeMeaning:
		return "LO"
	case tag.MappingResource, tag.TemplateIdentifier, tag.RelationshipType, tag.ValueType,
		tag.ContinuityOfContent, tag.CompletionFlag, tag.VerificationFlag, tag.GraphicType:
		return "CS"
	case tag.ReferencedFrameNumber:
		return "IS"
	case tag.TextValue:
		return "UT"
	case tag.GraphicData:
		return "FL"

	case tag.ReferencedSeriesSequence, tag.ReferencedImageSequence, tag.ReferencedSOPSequence,
		tag.ReferencedFrameOfReferenceSequence, tag.ConceptNameCodeSequence, tag.ConceptCodeSequence,
		tag.MeasuredValueSequence, tag.MeasurementUnitsCodeSequence, tag.ContentSequence,
		tag.ContentTemplateSequence, tag.CurrentRequestedProcedureEvidenceSequence:
		return "SQ"
	}

	return "UN"
}
