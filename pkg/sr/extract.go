package sr

import (
	"fmt"
	"log/slog"
	"sort"
	"strconv"
)

// Extraction is the result of reading the measurements of one report
type Extraction struct {
	Records []*Record
	Skips   []SkipReason
}

// Extract reads every measurement group under the Imaging Measurements
// container of a root content sequence. Only a missing Imaging Measurements
// container fails; a bad group is skipped and reported in Skips.
func Extract(content []*ContentItem) (*Extraction, error) {
	measurements, err := FindImagingMeasurements(content)
	if err != nil {
		return nil, err
	}

	buckets, skips := MergeGroups(measurements.Children())
	out := &Extraction{Records: []*Record{}, Skips: skips}
	for _, b := range buckets {
		rec, err := ExtractRecord(b.Items)
		if err != nil {
			slog.Warn("skipping measurement group", "index", b.Index, "trackingUID", b.TrackingUniqueIdentifier, "error", err)
			out.Skips = append(out.Skips, newSkip(b.Index, b.TrackingUniqueIdentifier, err))
			continue
		}
		if rec.TrackingUniqueIdentifier == "" {
			rec.TrackingUniqueIdentifier = b.TrackingUniqueIdentifier
		}
		out.Records = append(out.Records, rec)
	}
	sort.SliceStable(out.Skips, func(i, j int) bool { return out.Skips[i].Index < out.Skips[j].Index })
	return out, nil
}

// ExtractRecord turns the merged children of a measurement group into a record.
// Groups with a SCOORD or SCOORD3D of their own are read as TID-1410 planar
// ROI measurements, otherwise each NUM carries its own coordinates.
func ExtractRecord(items []*ContentItem) (*Record, error) {
	rec := &Record{Labels: []Label{}, Coords: []*Coordinate{}}

	uidRef := findChild(items, TrackingUniqueIdentifier)
	if uidRef == nil {
		for _, item := range items {
			if item.ValueType == ValueUIDRef {
				uidRef = item
				break
			}
		}
	}
	if uidRef != nil {
		rec.TrackingUniqueIdentifier = uidRef.UID
	}
	if ti := findChild(items, TrackingIdentifier); ti != nil {
		rec.TrackingIdentifier = ti.TextValue
	}

	if graphic := firstGraphic(items); graphic != nil {
		if err := extractPlanar(rec, items, graphic); err != nil {
			return nil, err
		}
		return rec, nil
	}
	if err := extractDerived(rec, items); err != nil {
		return nil, err
	}
	return rec, nil
}

func extractPlanar(rec *Record, items []*ContentItem, graphic *ContentItem) error {
	coord, err := coordinateFrom(graphic)
	if err != nil {
		return err
	}
	rec.Coords = append(rec.Coords, coord)

	for _, item := range items {
		if item.ValueType != ValueNum {
			continue
		}
		addValue(rec, item, nil)
	}
	return nil
}

func extractDerived(rec *Record, items []*ContentItem) error {
	if finding := findChild(items, Finding); finding != nil {
		if code := finding.ConceptCode(); code.IsFreeText() {
			rec.Finding = code.CodeMeaning
			rec.Labels = append(rec.Labels, Label{Label: FreeTextCodeValue, Value: code.CodeMeaning})
		}
	}
	for _, item := range items {
		if item.Concept() != FindingSite {
			continue
		}
		if code := item.ConceptCode(); code.IsFreeText() {
			rec.FindingSite = code.CodeMeaning
			rec.Labels = append(rec.Labels, Label{Label: FreeTextCodeValue, Value: code.CodeMeaning})
			break
		}
	}

	for _, item := range items {
		if item.ValueType != ValueNum {
			continue
		}
		var coord *Coordinate
		if graphic := firstGraphic(item.Children()); graphic != nil {
			c, err := coordinateFrom(graphic)
			if err != nil {
				return err
			}
			coord = c
			rec.Coords = append(rec.Coords, coord)
		} else {
			slog.Debug("NUM item has no spatial coordinates", "concept", item.ConceptName().CodeMeaning)
		}
		addValue(rec, item, coord)
	}
	return nil
}

// addValue appends the label and quantity of a NUM item that has a measured value
func addValue(rec *Record, item *ContentItem, coord *Coordinate) {
	mv, ok := item.MeasuredValueSequence.First()
	if !ok {
		return
	}
	name := item.ConceptName()
	rec.Labels = append(rec.Labels, FormatLabel(name, mv))
	rec.Values = append(rec.Values, Quantity{
		Concept:      name,
		NumericValue: mv.NumericValue,
		Unit:         mv.Units(),
		Coordinate:   coord,
	})
}

// FormatLabel renders a measured value as "<value to 2 places> <unit code>".
// A missing or unparseable value leaves the number empty.
func FormatLabel(name Code, mv MeasuredValue) Label {
	value := ""
	if f, ok := mv.NumericValue.Float(); ok {
		value = strconv.FormatFloat(f, 'f', 2, 64)
	}
	return Label{Label: name.CodeMeaning, Value: value + " " + mv.Units().CodeValue}
}

func firstGraphic(items []*ContentItem) *ContentItem {
	for _, item := range items {
		if item != nil && item.ValueType.IsGraphic() {
			return item
		}
	}
	return nil
}

// coordinateFrom reads a SCOORD or SCOORD3D item, pulling its image reference
// or frame of reference from the item or its children
func coordinateFrom(item *ContentItem) (*Coordinate, error) {
	if item.RelationshipType != InferredFrom && item.RelationshipType != Contains {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedRelationship, item.RelationshipType)
	}
	c := &Coordinate{
		ValueType:   item.ValueType,
		GraphicType: item.GraphicType,
		GraphicData: append([]float64(nil), item.GraphicData...),
	}
	switch item.ValueType {
	case ValueSCoord:
		for _, child := range item.Children() {
			if ref, ok := child.ReferencedSOPSequence.First(); ok {
				c.ReferencedSOPSequence = &ref
				break
			}
		}
	case ValueSCoord3D:
		c.ReferencedFrameOfReferenceUID = item.FrameOfReferenceUID()
		for _, child := range item.Children() {
			if c.ReferencedFrameOfReferenceUID != "" {
				break
			}
			c.ReferencedFrameOfReferenceUID = child.FrameOfReferenceUID()
		}
	}
	return c, nil
}
