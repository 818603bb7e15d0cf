package dcm

import (
	"io"
	"os"

	"github.com/jpfielding/dicomsr.go/pkg/dcm/module"
	"github.com/jpfielding/dicomsr.go/pkg/dcm/tag"
	"github.com/jpfielding/dicomsr.go/pkg/dcm/transfer"
)

// SRDocument represents a structured report IOD: the header modules plus the root content item
type SRDocument struct {
	Patient   module.PatientModule
	Study     module.GeneralStudyModule
	Series    module.SRDocumentSeriesModule
	Equipment module.GeneralEquipmentModule
	General   module.SRDocumentGeneralModule
	SOPCommon module.SOPCommonModule

	// UIDRoot prefixes generated instance UIDs, 2.25 when empty
	UIDRoot string

	// Root content item
	ConceptName         *Dataset // one Code Sequence Macro item
	ContinuityOfContent string   // SEPARATE when empty
	TemplateIdentifier  string   // e.g. 1500, omitted when empty
	Content             []*Dataset
	Evidence            []*Dataset // Current Requested Procedure Evidence Sequence
}

// NewSRDocument returns a Comprehensive SR document with generated defaults
func NewSRDocument() *SRDocument {
	doc := &SRDocument{
		Study:     module.NewGeneralStudyModule(),
		General:   module.NewSRDocumentGeneralModule(),
		SOPCommon: module.NewSOPCommonModule(),
	}
	doc.Series.Modality = "SR"
	doc.SOPCommon.SOPClassUID = ComprehensiveSRStorageUID
	return doc
}

// GetDataset builds and returns the report Dataset, generating any missing instance UIDs
func (doc *SRDocument) GetDataset() (*Dataset, error) {
	opts := make([]Option, 0, 32)

	if doc.SOPCommon.SOPClassUID == "" {
		doc.SOPCommon.SOPClassUID = ComprehensiveSRStorageUID
	}
	if doc.SOPCommon.SOPInstanceUID == "" {
		doc.SOPCommon.SOPInstanceUID = GenerateUID(doc.UIDRoot)
	}
	if doc.Series.SeriesInstanceUID == "" {
		doc.Series.SeriesInstanceUID = GenerateUID(doc.UIDRoot)
	}
	if doc.Study.StudyInstanceUID == "" {
		doc.Study.StudyInstanceUID = GenerateUID(doc.UIDRoot)
	}

	opts = append(opts,
		WithFileMeta(doc.SOPCommon.SOPClassUID, doc.SOPCommon.SOPInstanceUID, string(transfer.ExplicitVRLittleEndian)),
		WithModule(doc.Patient.ToTags()),
		WithModule(doc.Study.ToTags()),
		WithModule(doc.Series.ToTags()),
		WithModule(doc.Equipment.ToTags()),
		WithModule(doc.General.ToTags()),
		WithModule(doc.SOPCommon.ToTags()),
	)

	continuity := doc.ContinuityOfContent
	if continuity == "" {
		continuity = "SEPARATE"
	}
	opts = append(opts,
		WithElement(tag.ValueType, "CONTAINER"),
		WithElement(tag.ContinuityOfContent, continuity),
		WithSequence(tag.ContentSequence, doc.Content...),
	)
	if doc.ConceptName != nil {
		opts = append(opts, WithSequence(tag.ConceptNameCodeSequence, doc.ConceptName))
	}
	if doc.TemplateIdentifier != "" {
		tmpl, err := NewDataset(
			WithElement(tag.MappingResource, "DCMR"),
			WithElement(tag.TemplateIdentifier, doc.TemplateIdentifier),
		)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithSequence(tag.ContentTemplateSequence, tmpl))
	}
	if len(doc.Evidence) > 0 {
		opts = append(opts, WithSequence(tag.CurrentRequestedProcedureEvidenceSequence, doc.Evidence...))
	}

	return NewDataset(opts...)
}

// WriteTo writes the report to any io.Writer
func (doc *SRDocument) WriteTo(w io.Writer) (int64, error) {
	dataset, err := doc.GetDataset()
	if err != nil {
		return 0, err
	}
	return Write(w, dataset)
}

// Write saves the report to a DICOM file (convenience wrapper)
func (doc *SRDocument) Write(path string) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return doc.WriteTo(f)
}
