package sr

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jpfielding/dicomsr.go/pkg/dcm"
	"github.com/jpfielding/dicomsr.go/pkg/dcm/module"
	"github.com/jpfielding/dicomsr.go/pkg/dcm/tag"
)

// ErrNotSR is returned when a dataset is not a structured report
var ErrNotSR = errors.New("sr: dataset is not a structured report")

// ReadReportFile reads a Part-10 structured report
func ReadReportFile(path string) (*Report, error) {
	ds, err := dcm.ReadFile(path, dcm.SkipPixelData())
	if err != nil {
		return nil, err
	}
	return ReportFromDataset(ds)
}

// WriteReportFile writes the report as a Part-10 file
func WriteReportFile(path string, r *Report) error {
	ds, err := r.Dataset()
	if err != nil {
		return err
	}
	if _, err := dcm.WriteFile(path, ds); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// ReportFromDataset reads the header and content tree of an SR dataset
func ReportFromDataset(ds *dcm.Dataset) (*Report, error) {
	if !dcm.IsSR(ds) {
		return nil, fmt.Errorf("%w: SOP class %q", ErrNotSR, ds.Text(tag.SOPClassUID))
	}

	var patient module.PatientModule
	patient.FromSource(ds)
	var study module.GeneralStudyModule
	study.FromSource(ds)

	r := &Report{
		SpecificCharacterSet: ds.Text(tag.SpecificCharacterSet),
		SOPClassUID:          ds.Text(tag.SOPClassUID),
		SOPInstanceUID:       ds.Text(tag.SOPInstanceUID),
		PatientName:          PersonName(patient.PatientName.String()),
		PatientID:            patient.PatientID,
		PatientBirthDate:     patient.PatientBirthDate.String(),
		PatientSex:           patient.PatientSex,
		StudyInstanceUID:     study.StudyInstanceUID,
		StudyDate:            study.StudyDate.String(),
		StudyTime:            study.StudyTime.String(),
		StudyID:              study.StudyID,
		AccessionNumber:      study.AccessionNumber,
		StudyDescription:     study.StudyDescription,
		Modality:             ds.Text(tag.Modality),
		SeriesInstanceUID:    ds.Text(tag.SeriesInstanceUID),
		SeriesDescription:    ds.Text(tag.SeriesDescription),
		Manufacturer:         ds.Text(tag.Manufacturer),
		InstanceNumber:       IntegerString(dcm.GetInstanceNumber(ds)),
		CompletionFlag:       ds.Text(tag.CompletionFlag),
		VerificationFlag:     ds.Text(tag.VerificationFlag),
		ContentDate:          ds.Text(tag.ContentDate),
		ContentTime:          ds.Text(tag.ContentTime),
	}
	if elem, ok := ds.Get(tag.SeriesNumber); ok {
		if n, ok := elem.GetInt(); ok {
			r.SeriesNumber = IntegerString(n)
		}
	}
	for _, item := range ds.Sequence(tag.ContentTemplateSequence) {
		r.ContentTemplateSequence = append(r.ContentTemplateSequence, Template{
			MappingResource:    item.Text(tag.MappingResource),
			TemplateIdentifier: item.Text(tag.TemplateIdentifier),
		})
	}
	for _, item := range ds.Sequence(tag.CurrentRequestedProcedureEvidenceSequence) {
		ev := Evidence{StudyInstanceUID: item.Text(tag.StudyInstanceUID)}
		for _, s := range item.Sequence(tag.ReferencedSeriesSequence) {
			ev.ReferencedSeriesSequence = append(ev.ReferencedSeriesSequence, SeriesEvidence{
				SeriesInstanceUID:     s.Text(tag.SeriesInstanceUID),
				ReferencedSOPSequence: sopReferencesFrom(s.Sequence(tag.ReferencedSOPSequence)),
			})
		}
		r.CurrentRequestedProcedureEvidenceSequence = append(r.CurrentRequestedProcedureEvidenceSequence, ev)
	}
	r.ContentItem = *contentFromDataset(ds)
	return r, nil
}

func contentFromDataset(ds *dcm.Dataset) *ContentItem {
	ci := &ContentItem{
		ValueType:                     ValueType(ds.Text(tag.ValueType)),
		RelationshipType:              RelationshipType(ds.Text(tag.RelationshipType)),
		ConceptNameCodeSequence:       codesFrom(ds.Sequence(tag.ConceptNameCodeSequence)),
		ContinuityOfContent:           ds.Text(tag.ContinuityOfContent),
		ConceptCodeSequence:           codesFrom(ds.Sequence(tag.ConceptCodeSequence)),
		TextValue:                     ds.Text(tag.TextValue),
		UID:                           ds.Text(tag.UID),
		GraphicType:                   ds.Text(tag.GraphicType),
		ReferencedSOPSequence:         sopReferencesFrom(ds.Sequence(tag.ReferencedSOPSequence)),
		ReferencedFrameOfReferenceUID: ds.Text(tag.ReferencedFrameOfReferenceUID),
	}
	if elem, ok := ds.Get(tag.GraphicData); ok {
		ci.GraphicData, _ = elem.GetFloats()
	}
	for _, item := range ds.Sequence(tag.MeasuredValueSequence) {
		ci.MeasuredValueSequence = append(ci.MeasuredValueSequence, MeasuredValue{
			NumericValue:                 DecimalString(item.Text(tag.NumericValue)),
			MeasurementUnitsCodeSequence: codesFrom(item.Sequence(tag.MeasurementUnitsCodeSequence)),
		})
	}
	for _, item := range ds.Sequence(tag.ReferencedFrameOfReferenceSequence) {
		ci.ReferencedFrameOfReferenceSequence = append(ci.ReferencedFrameOfReferenceSequence,
			FrameOfReference{FrameOfReferenceUID: item.Text(tag.FrameOfReferenceUID)})
	}
	for _, item := range ds.Sequence(tag.ContentSequence) {
		ci.ContentSequence = append(ci.ContentSequence, contentFromDataset(item))
	}
	return ci
}

func codesFrom(items []*dcm.Dataset) Sequence[Code] {
	var codes Sequence[Code]
	for _, item := range items {
		codes = append(codes, Code{
			CodeValue:              item.Text(tag.CodeValue),
			CodingSchemeDesignator: item.Text(tag.CodingSchemeDesignator),
			CodingSchemeVersion:    item.Text(tag.CodingSchemeVersion),
			CodeMeaning:            item.Text(tag.CodeMeaning),
		})
	}
	return codes
}

func sopReferencesFrom(items []*dcm.Dataset) Sequence[SOPReference] {
	var refs Sequence[SOPReference]
	for _, item := range items {
		ref := SOPReference{
			ReferencedSOPClassUID:    item.Text(tag.ReferencedSOPClassUID),
			ReferencedSOPInstanceUID: item.Text(tag.ReferencedSOPInstanceUID),
		}
		if elem, ok := item.Get(tag.ReferencedFrameNumber); ok {
			frames, _ := elem.GetInts()
			ref.ReferencedFrameNumber = frames
		}
		refs = append(refs, ref)
	}
	return refs
}

// Dataset encodes the report as a DICOM dataset with file meta information
func (r *Report) Dataset() (*dcm.Dataset, error) {
	doc := dcm.NewSRDocument()
	if r.SOPClassUID != "" {
		doc.SOPCommon.SOPClassUID = r.SOPClassUID
	}
	if r.SpecificCharacterSet != "" {
		doc.SOPCommon.SpecificCharacterSet = r.SpecificCharacterSet
	}
	doc.SOPCommon.SOPInstanceUID = r.SOPInstanceUID

	doc.Patient = module.PatientModule{
		PatientName:      module.ParsePersonName(string(r.PatientName)),
		PatientID:        r.PatientID,
		PatientBirthDate: module.ParseDate(r.PatientBirthDate),
		PatientSex:       r.PatientSex,
	}
	doc.Study = module.GeneralStudyModule{
		StudyInstanceUID: r.StudyInstanceUID,
		StudyDate:        module.ParseDate(r.StudyDate),
		StudyTime:        module.ParseTime(r.StudyTime),
		StudyID:          r.StudyID,
		AccessionNumber:  r.AccessionNumber,
		StudyDescription: r.StudyDescription,
	}
	doc.Series.SeriesInstanceUID = r.SeriesInstanceUID
	doc.Series.SeriesNumber = int(r.SeriesNumber)
	doc.Series.SeriesDescription = r.SeriesDescription
	doc.Equipment.Manufacturer = r.Manufacturer

	if r.InstanceNumber != 0 {
		doc.General.InstanceNumber = int(r.InstanceNumber)
	}
	if r.CompletionFlag != "" {
		doc.General.CompletionFlag = r.CompletionFlag
	}
	if r.VerificationFlag != "" {
		doc.General.VerificationFlag = r.VerificationFlag
	}
	if r.ContentDate != "" {
		doc.General.ContentDate = module.ParseDate(r.ContentDate)
		doc.General.ContentTime = module.ParseTime(r.ContentTime)
	}

	doc.ContinuityOfContent = r.ContinuityOfContent
	doc.TemplateIdentifier = r.TemplateIdentifier()
	if name, ok := r.ConceptNameCodeSequence.First(); ok {
		item, err := codeDataset(name)
		if err != nil {
			return nil, err
		}
		doc.ConceptName = item
	}
	for i, child := range r.Children() {
		item, err := contentDataset(child)
		if err != nil {
			return nil, fmt.Errorf("content item %d: %w", i+1, err)
		}
		doc.Content = append(doc.Content, item)
	}
	for _, ev := range r.CurrentRequestedProcedureEvidenceSequence {
		item, err := evidenceDataset(ev)
		if err != nil {
			return nil, err
		}
		doc.Evidence = append(doc.Evidence, item)
	}
	return doc.GetDataset()
}

func codeDataset(c Code) (*dcm.Dataset, error) {
	return dcm.NewDataset(
		dcm.WithElement(tag.CodeValue, c.CodeValue),
		dcm.WithElement(tag.CodingSchemeDesignator, c.CodingSchemeDesignator),
		dcm.WithOptionalElement(tag.CodingSchemeVersion, c.CodingSchemeVersion),
		dcm.WithElement(tag.CodeMeaning, c.CodeMeaning),
	)
}

func codeSequence(t tag.Tag, codes []Code) (dcm.Option, error) {
	builder := dcm.NewSequenceBuilder(t)
	for _, c := range codes {
		item, err := codeDataset(c)
		if err != nil {
			return nil, err
		}
		builder.AddDataset(item)
	}
	return builder.Build()
}

func sopReferenceSequence(refs []SOPReference) (dcm.Option, error) {
	builder := dcm.NewSequenceBuilder(tag.ReferencedSOPSequence)
	for _, ref := range refs {
		opts := []dcm.Option{
			dcm.WithElement(tag.ReferencedSOPClassUID, ref.ReferencedSOPClassUID),
			dcm.WithElement(tag.ReferencedSOPInstanceUID, ref.ReferencedSOPInstanceUID),
		}
		if len(ref.ReferencedFrameNumber) > 0 {
			opts = append(opts, dcm.WithElement(tag.ReferencedFrameNumber, []int(ref.ReferencedFrameNumber)))
		}
		builder.AddItem(opts...)
	}
	return builder.Build()
}

// contentDataset encodes one content item and its descendants
func contentDataset(ci *ContentItem) (*dcm.Dataset, error) {
	opts := []dcm.Option{
		dcm.WithOptionalElement(tag.RelationshipType, string(ci.RelationshipType)),
		dcm.WithElement(tag.ValueType, string(ci.ValueType)),
	}
	add := func(opt dcm.Option, err error) error {
		if err != nil {
			return err
		}
		opts = append(opts, opt)
		return nil
	}

	if len(ci.ConceptNameCodeSequence) > 0 {
		if err := add(codeSequence(tag.ConceptNameCodeSequence, ci.ConceptNameCodeSequence)); err != nil {
			return nil, err
		}
	}

	switch ci.ValueType {
	case ValueContainer:
		continuity := ci.ContinuityOfContent
		if continuity == "" {
			continuity = "SEPARATE"
		}
		opts = append(opts, dcm.WithElement(tag.ContinuityOfContent, continuity))
	case ValueText:
		opts = append(opts, dcm.WithElement(tag.TextValue, ci.TextValue))
	case ValueUIDRef:
		opts = append(opts, dcm.WithElement(tag.UID, ci.UID))
	case ValueCode:
		if err := add(codeSequence(tag.ConceptCodeSequence, ci.ConceptCodeSequence)); err != nil {
			return nil, err
		}
	case ValueNum:
		builder := dcm.NewSequenceBuilder(tag.MeasuredValueSequence)
		for _, mv := range ci.MeasuredValueSequence {
			units, err := codeSequence(tag.MeasurementUnitsCodeSequence, mv.MeasurementUnitsCodeSequence)
			if err != nil {
				return nil, err
			}
			builder.AddItem(dcm.WithOptionalElement(tag.NumericValue, string(mv.NumericValue)), units)
		}
		if err := add(builder.Build()); err != nil {
			return nil, err
		}
	case ValueSCoord, ValueSCoord3D:
		data := make([]float32, len(ci.GraphicData))
		for i, f := range ci.GraphicData {
			data[i] = float32(f)
		}
		opts = append(opts,
			dcm.WithElement(tag.GraphicType, ci.GraphicType),
			dcm.WithElement(tag.GraphicData, data),
		)
		if ci.ValueType == ValueSCoord3D {
			opts = append(opts, dcm.WithElement(tag.ReferencedFrameOfReferenceUID, ci.FrameOfReferenceUID()))
		}
	case ValueImage:
		if err := add(sopReferenceSequence(ci.ReferencedSOPSequence)); err != nil {
			return nil, err
		}
	}

	if children := ci.Children(); len(children) > 0 {
		builder := dcm.NewSequenceBuilder(tag.ContentSequence)
		for i, child := range children {
			item, err := contentDataset(child)
			if err != nil {
				return nil, fmt.Errorf("content item %d: %w", i+1, err)
			}
			builder.AddDataset(item)
		}
		if err := add(builder.Build()); err != nil {
			return nil, err
		}
	}
	return dcm.NewDataset(opts...)
}

func evidenceDataset(ev Evidence) (*dcm.Dataset, error) {
	series := dcm.NewSequenceBuilder(tag.ReferencedSeriesSequence)
	for _, s := range ev.ReferencedSeriesSequence {
		refs, err := sopReferenceSequence(s.ReferencedSOPSequence)
		if err != nil {
			return nil, err
		}
		series.AddItem(dcm.WithElement(tag.SeriesInstanceUID, s.SeriesInstanceUID), refs)
	}
	seriesOpt, err := series.Build()
	if err != nil {
		return nil, err
	}
	return dcm.NewDataset(dcm.WithElement(tag.StudyInstanceUID, ev.StudyInstanceUID), seriesOpt)
}

// FileStorer stores each report as <SOPInstanceUID>.dcm in Dir
type FileStorer struct {
	Dir string
}

// Store writes the report, failing early if ctx is done
func (f FileStorer) Store(ctx context.Context, r *Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(f.Dir, 0o755); err != nil {
		return err
	}
	return WriteReportFile(filepath.Join(f.Dir, r.SOPInstanceUID+".dcm"), r)
}
