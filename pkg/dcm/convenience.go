package dcm

import (
	"fmt"

	"github.com/jpfielding/dicomsr.go/pkg/dcm/tag"
)

// QuickValidate performs basic structural validation of a DICOM dataset.
//
// This is a lightweight check for common issues, not a full DICOM compliance check.
// Use ValidateSR() for reports.
//
// Checks:
//   - SOP Class UID and SOP Instance UID present
//   - Transfer Syntax UID present
//   - structured reports carry a root Value Type and Content Sequence
func QuickValidate(ds *Dataset) []error {
	var errs []error

	if !HasElement(ds, tag.SOPClassUID) {
		errs = append(errs, fmt.Errorf("missing required element: SOP Class UID (0008,0016)"))
	}
	if !HasElement(ds, tag.SOPInstanceUID) {
		errs = append(errs, fmt.Errorf("missing required element: SOP Instance UID (0008,0018)"))
	}
	if !HasElement(ds, tag.TransferSyntaxUID) {
		errs = append(errs, fmt.Errorf("missing required element: Transfer Syntax UID (0002,0010)"))
	}

	if IsSR(ds) {
		if ds.Text(tag.ValueType) != "CONTAINER" {
			errs = append(errs, fmt.Errorf("report root Value Type (0040,A040) is not CONTAINER"))
		}
		if !HasElement(ds, tag.ContentSequence) {
			errs = append(errs, fmt.Errorf("report has no Content Sequence (0040,A730)"))
		}
	}

	return errs
}

// AddSequenceItem appends a dataset item to an existing sequence element,
// creating the sequence when it does not exist.
func AddSequenceItem(ds *Dataset, t Tag, item *Dataset) error {
	if item == nil {
		return fmt.Errorf("cannot add nil dataset to sequence")
	}

	elem, exists := ds.Get(t)
	if !exists {
		ds.Elements[t] = &Element{
			Tag:   t,
			VR:    "SQ",
			Value: []*Dataset{item},
		}
		return nil
	}

	seq, ok := elem.Value.([]*Dataset)
	if !ok {
		return fmt.Errorf("element %v exists but is not a sequence (VR=%s)", t, elem.VR)
	}

	elem.Value = append(seq, item)
	return nil
}

// GetSequenceItems returns all items from a sequence element.
//
// Returns nil if the element doesn't exist or isn't a sequence.
func GetSequenceItems(ds *Dataset, t Tag) []*Dataset {
	return ds.Sequence(t)
}

// HasElement returns true if the dataset contains the specified element.
func HasElement(ds *Dataset, t Tag) bool {
	_, ok := ds.Get(t)
	return ok
}

// DeleteElement removes an element from the dataset.
func DeleteElement(ds *Dataset, t Tag) {
	delete(ds.Elements, t)
}

// CloneDataset creates a deep copy of a dataset, including nested sequence items.
// Slice values other than strings and bytes are shared.
func CloneDataset(ds *Dataset) *Dataset {
	clone := &Dataset{
		Elements: make(map[Tag]*Element, len(ds.Elements)),
	}

	for t, elem := range ds.Elements {
		clonedElem := &Element{
			Tag: elem.Tag,
			VR:  elem.VR,
		}

		switch v := elem.Value.(type) {
		case []byte:
			copied := make([]byte, len(v))
			copy(copied, v)
			clonedElem.Value = copied
		case []string:
			copied := make([]string, len(v))
			copy(copied, v)
			clonedElem.Value = copied
		case []*Dataset:
			clonedSeq := make([]*Dataset, len(v))
			for i, item := range v {
				clonedSeq[i] = CloneDataset(item)
			}
			clonedElem.Value = clonedSeq
		default:
			clonedElem.Value = v
		}

		clone.Elements[t] = clonedElem
	}

	return clone
}
