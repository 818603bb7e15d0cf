package sr

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jpfielding/dicomsr.go/pkg/dcm"
	"github.com/jpfielding/dicomsr.go/pkg/dcm/module"
)

// Defaults for new reports
const (
	DefaultVersion      = "0.1.0"
	DefaultCharacterSet = "ISO_IR 192"
)

var (
	// DefaultLanguage is the language of content written into new reports
	DefaultLanguage = Code{CodeValue: "en-US", CodingSchemeDesignator: "RFC5646", CodeMeaning: "English (United States)"}
	// DefaultProcedure is the procedure reported in new reports
	DefaultProcedure = Code{CodeValue: "363679005", CodingSchemeDesignator: SchemeSCT, CodeMeaning: "Imaging procedure"}
)

// Measurement is a viewer measurement to be written into a report
type Measurement struct {
	// TrackingUniqueIdentifier is generated when empty
	TrackingUniqueIdentifier string
	// TrackingIdentifier overrides the identifier derived from ToolType
	TrackingIdentifier string
	ToolType           string
	Finding            string
	FindingSite        string

	// Geometric writes the TID-1410 form: one SCOORD for the group and plain NUM values
	Geometric  bool
	Coordinate *Coordinate
	// Values with no Coordinate of their own are inferred from Coordinate
	Values []Quantity
}

// MeasurementFromRecord turns an extracted record back into a measurement
func MeasurementFromRecord(rec *Record) *Measurement {
	m := &Measurement{
		TrackingUniqueIdentifier: rec.TrackingUniqueIdentifier,
		TrackingIdentifier:       rec.TrackingIdentifier,
		ToolType:                 rec.ToolType(),
		Finding:                  rec.Finding,
		FindingSite:              rec.FindingSite,
		Geometric:                true,
		Values:                   append([]Quantity(nil), rec.Values...),
	}
	if len(rec.Coords) > 0 {
		m.Coordinate = rec.Coords[0]
	}
	for _, q := range rec.Values {
		if q.Coordinate != nil {
			m.Geometric = false
			break
		}
	}
	return m
}

func (m *Measurement) planar() bool {
	return m.Geometric || len(m.Values) == 0
}

// coordinates lists the coordinates the measurement writes, in order
func (m *Measurement) coordinates() []*Coordinate {
	if m.planar() {
		return []*Coordinate{m.Coordinate}
	}
	out := make([]*Coordinate, 0, len(m.Values))
	for _, q := range m.Values {
		c := q.Coordinate
		if c == nil {
			c = m.Coordinate
		}
		out = append(out, c)
	}
	return out
}

func (m *Measurement) validate() error {
	for _, c := range m.coordinates() {
		if c == nil || len(c.GraphicData) == 0 {
			return ErrNoGraphic
		}
		if coordinateType(c) == ValueSCoord3D {
			if c.ReferencedFrameOfReferenceUID == "" {
				return ErrNoImageReference
			}
			continue
		}
		if c.ReferencedSOPSequence == nil || c.ReferencedSOPSequence.ReferencedSOPInstanceUID == "" {
			return ErrNoImageReference
		}
	}
	return nil
}

func coordinateType(c *Coordinate) ValueType {
	if c.ValueType == "" {
		return ValueSCoord
	}
	return c.ValueType
}

// ReportOptions control BuildReport
type ReportOptions struct {
	// Header supplies the patient, study and series attributes. Its content
	// tree is ignored and missing UIDs are generated.
	Header Report
	// UIDRoot prefixes generated UIDs, 2.25 when empty
	UIDRoot string
	// Namespace and Version form tracking identifiers; Cornerstone3DTools and 0.1.0 by default
	Namespace string
	Version   string

	Language          Code
	ProcedureReported Code

	// Filter drops measurements it returns false for
	Filter func(*Measurement) bool
	// SeriesOf finds the study and series of a referenced image, for the evidence sequence
	SeriesOf func(sopInstanceUID string) (studyInstanceUID, seriesInstanceUID string, ok bool)
	// Now stamps the content date and time, time.Now by default
	Now func() time.Time
}

func (o *ReportOptions) setDefaults() {
	if o.Namespace == "" {
		o.Namespace = NamespaceCornerstone3D
	}
	if o.Version == "" {
		o.Version = DefaultVersion
	}
	if o.Language.IsZero() {
		o.Language = DefaultLanguage
	}
	if o.ProcedureReported.IsZero() {
		o.ProcedureReported = DefaultProcedure
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

// BuildReport writes measurements into a new TID-1500 Imaging Measurement
// Report. Measurements the filter rejects, or without points or an image
// reference, are left out; if none remain it fails with ErrNoMeasurements.
func BuildReport(measurements []*Measurement, opts ReportOptions) (*Report, error) {
	opts.setDefaults()

	var kept []*Measurement
	for i, m := range measurements {
		if m == nil {
			continue
		}
		if opts.Filter != nil && !opts.Filter(m) {
			slog.Debug("measurement filtered out", "index", i, "toolType", m.ToolType)
			continue
		}
		if err := m.validate(); err != nil {
			slog.Warn("measurement left out of report", "index", i, "toolType", m.ToolType, "error", err)
			continue
		}
		kept = append(kept, m)
	}
	if len(kept) == 0 {
		return nil, ErrNoMeasurements
	}

	r := header(opts)
	groups := make([]*ContentItem, 0, len(kept))
	for _, m := range kept {
		groups = append(groups, measurementGroup(m, opts))
	}
	r.ContentItem = ContentItem{
		ValueType:               ValueContainer,
		ConceptNameCodeSequence: Sequence[Code]{ImagingMeasurementReport.Code()},
		ContinuityOfContent:     "SEPARATE",
		ContentSequence: Sequence[*ContentItem]{
			codeItem(HasConceptMod, LanguageOfContent, opts.Language),
			codeItem(HasConceptMod, ProcedureReported, opts.ProcedureReported),
			imageLibrary(kept),
			container(ImagingMeasurements, groups),
		},
	}
	r.CurrentRequestedProcedureEvidenceSequence = evidence(kept, opts.SeriesOf)
	return r, nil
}

func header(opts ReportOptions) *Report {
	r := opts.Header
	r.ContentItem = ContentItem{}
	r.ContentTemplateSequence = Sequence[Template]{{MappingResource: "DCMR", TemplateIdentifier: "1500"}}
	r.CurrentRequestedProcedureEvidenceSequence = nil

	if r.SpecificCharacterSet == "" {
		r.SpecificCharacterSet = DefaultCharacterSet
	}
	if r.SOPClassUID == "" {
		r.SOPClassUID = dcm.ComprehensiveSRStorageUID
	}
	r.Modality = "SR"
	if r.SOPInstanceUID == "" {
		r.SOPInstanceUID = dcm.GenerateUID(opts.UIDRoot)
	}
	if r.SeriesInstanceUID == "" {
		r.SeriesInstanceUID = dcm.GenerateUID(opts.UIDRoot)
	}
	if r.StudyInstanceUID == "" {
		r.StudyInstanceUID = dcm.GenerateUID(opts.UIDRoot)
	}
	if r.InstanceNumber == 0 {
		r.InstanceNumber = 1
	}
	if r.CompletionFlag == "" {
		r.CompletionFlag = module.CompletionPartial
	}
	if r.VerificationFlag == "" {
		r.VerificationFlag = module.VerificationUnverified
	}
	now := opts.Now()
	r.ContentDate = module.NewDate(now).String()
	r.ContentTime = module.NewTime(now).String()
	return &r
}

func measurementGroup(m *Measurement, opts ReportOptions) *ContentItem {
	uid := m.TrackingUniqueIdentifier
	if uid == "" {
		uid = dcm.GenerateUID(opts.UIDRoot)
	}
	ti := m.TrackingIdentifier
	if ti == "" {
		ti = TrackingIdentifierFor(opts.Namespace, opts.Version, m.ToolType)
	}

	items := []*ContentItem{
		{
			ValueType:               ValueText,
			RelationshipType:        HasObsContext,
			ConceptNameCodeSequence: Sequence[Code]{TrackingIdentifier.Code()},
			TextValue:               ti,
		},
		{
			ValueType:               ValueUIDRef,
			RelationshipType:        HasObsContext,
			ConceptNameCodeSequence: Sequence[Code]{TrackingUniqueIdentifier.Code()},
			UID:                     uid,
		},
	}
	if m.Finding != "" {
		items = append(items, codeItem(Contains, Finding, FreeText(m.Finding)))
	}
	if m.FindingSite != "" {
		items = append(items, codeItem(HasConceptMod, FindingSite, FreeText(m.FindingSite)))
	}

	if m.planar() {
		region := ImageRegion.Code()
		items = append(items, graphicItem(m.Coordinate, Contains, &region))
		for _, q := range m.Values {
			items = append(items, numItem(q, nil))
		}
	} else {
		for i, c := range m.coordinates() {
			items = append(items, numItem(m.Values[i], c))
		}
	}
	return container(MeasurementGroup, items)
}

func container(c Concept, children []*ContentItem) *ContentItem {
	return &ContentItem{
		ValueType:               ValueContainer,
		RelationshipType:        Contains,
		ConceptNameCodeSequence: Sequence[Code]{c.Code()},
		ContinuityOfContent:     "SEPARATE",
		ContentSequence:         children,
	}
}

func codeItem(rel RelationshipType, name Concept, value Code) *ContentItem {
	return &ContentItem{
		ValueType:               ValueCode,
		RelationshipType:        rel,
		ConceptNameCodeSequence: Sequence[Code]{name.Code()},
		ConceptCodeSequence:     Sequence[Code]{value},
	}
}

func numItem(q Quantity, coord *Coordinate) *ContentItem {
	unit := q.Unit
	if unit.IsZero() {
		unit = Unit("1")
	}
	item := &ContentItem{
		ValueType:               ValueNum,
		RelationshipType:        Contains,
		ConceptNameCodeSequence: Sequence[Code]{q.Concept},
		MeasuredValueSequence: Sequence[MeasuredValue]{{
			NumericValue:                 q.NumericValue,
			MeasurementUnitsCodeSequence: Sequence[Code]{unit},
		}},
	}
	if coord != nil {
		item.ContentSequence = Sequence[*ContentItem]{graphicItem(coord, InferredFrom, nil)}
	}
	return item
}

// graphicItem writes a SCOORD with its source image, or a SCOORD3D with its frame of reference
func graphicItem(c *Coordinate, rel RelationshipType, name *Code) *ContentItem {
	item := &ContentItem{
		ValueType:        coordinateType(c),
		RelationshipType: rel,
		GraphicType:      c.GraphicType,
		GraphicData:      append([]float64(nil), c.GraphicData...),
	}
	if name != nil {
		item.ConceptNameCodeSequence = Sequence[Code]{*name}
	}
	if item.ValueType == ValueSCoord3D {
		item.ReferencedFrameOfReferenceUID = c.ReferencedFrameOfReferenceUID
		return item
	}
	item.ContentSequence = Sequence[*ContentItem]{{
		ValueType:             ValueImage,
		RelationshipType:      SelectedFrom,
		ReferencedSOPSequence: Sequence[SOPReference]{*c.ReferencedSOPSequence},
	}}
	return item
}

// imageLibrary lists each image referenced by a 2D coordinate once, in first use order
func imageLibrary(ms []*Measurement) *ContentItem {
	var images []*ContentItem
	for _, ref := range referencedSOPs(ms) {
		images = append(images, &ContentItem{
			ValueType:             ValueImage,
			RelationshipType:      Contains,
			ReferencedSOPSequence: Sequence[SOPReference]{ref},
		})
	}
	group := container(ImageLibraryGroup, images)
	return container(ImageLibrary, []*ContentItem{group})
}

func referencedSOPs(ms []*Measurement) []SOPReference {
	seen := map[string]bool{}
	var refs []SOPReference
	for _, m := range ms {
		for _, c := range m.coordinates() {
			if coordinateType(c) != ValueSCoord {
				continue
			}
			ref := *c.ReferencedSOPSequence
			key := fmt.Sprintf("%s|%s|%v", ref.ReferencedSOPClassUID, ref.ReferencedSOPInstanceUID, ref.ReferencedFrameNumber)
			if seen[key] {
				continue
			}
			seen[key] = true
			refs = append(refs, ref)
		}
	}
	return refs
}

// evidence groups the referenced images by study and series when they can be looked up
func evidence(ms []*Measurement, seriesOf func(string) (string, string, bool)) Sequence[Evidence] {
	if seriesOf == nil {
		return nil
	}
	var out Sequence[Evidence]
	studies := map[string]int{}
	series := map[string][2]int{}
	seen := map[string]bool{}
	for _, ref := range referencedSOPs(ms) {
		if seen[ref.ReferencedSOPInstanceUID] {
			continue
		}
		seen[ref.ReferencedSOPInstanceUID] = true
		studyUID, seriesUID, ok := seriesOf(ref.ReferencedSOPInstanceUID)
		if !ok {
			continue
		}
		si, ok := studies[studyUID]
		if !ok {
			si = len(out)
			studies[studyUID] = si
			out = append(out, Evidence{StudyInstanceUID: studyUID})
		}
		at, ok := series[seriesUID]
		if !ok {
			at = [2]int{si, len(out[si].ReferencedSeriesSequence)}
			series[seriesUID] = at
			out[si].ReferencedSeriesSequence = append(out[si].ReferencedSeriesSequence, SeriesEvidence{SeriesInstanceUID: seriesUID})
		}
		s := &out[at[0]].ReferencedSeriesSequence[at[1]]
		s.ReferencedSOPSequence = append(s.ReferencedSOPSequence, SOPReference{
			ReferencedSOPClassUID:    ref.ReferencedSOPClassUID,
			ReferencedSOPInstanceUID: ref.ReferencedSOPInstanceUID,
		})
	}
	return out
}

// Storer persists a finished report
type Storer interface {
	Store(ctx context.Context, r *Report) error
}

// StorerFunc adapts a function to a Storer
type StorerFunc func(ctx context.Context, r *Report) error

// Store calls f
func (f StorerFunc) Store(ctx context.Context, r *Report) error {
	return f(ctx, r)
}

// StoreReport builds a report and hands it to s. Storage errors are returned
// wrapped and never retried.
func StoreReport(ctx context.Context, s Storer, measurements []*Measurement, opts ReportOptions) (*Report, error) {
	r, err := BuildReport(measurements, opts)
	if err != nil {
		return nil, err
	}
	if err := s.Store(ctx, r); err != nil {
		return nil, fmt.Errorf("storing report %s: %w", r.SOPInstanceUID, err)
	}
	return r, nil
}
