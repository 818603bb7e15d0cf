package sr

// ImageReference identifies one image listed in the Image Library
type ImageReference struct {
	ReferencedSOPClassUID    string `json:"ReferencedSOPClassUID"`
	ReferencedSOPInstanceUID string `json:"ReferencedSOPInstanceUID"`
}

// findChild returns the first item whose concept name classifies as c
func findChild(items []*ContentItem, c Concept) *ContentItem {
	for _, item := range items {
		if item != nil && item.Concept() == c {
			return item
		}
	}
	return nil
}

// FindImagingMeasurements returns the Imaging Measurements container from the
// root content sequence of a measurement report
func FindImagingMeasurements(content []*ContentItem) (*ContentItem, error) {
	if item := findChild(content, ImagingMeasurements); item != nil {
		return item, nil
	}
	return nil, &NotFoundError{Concept: ImagingMeasurements, Within: ImagingMeasurementReport.String()}
}

// FindImageLibrary returns the Image Library container from the root content sequence
func FindImageLibrary(content []*ContentItem) (*ContentItem, error) {
	if item := findChild(content, ImageLibrary); item != nil {
		return item, nil
	}
	return nil, &NotFoundError{Concept: ImageLibrary, Within: ImagingMeasurementReport.String()}
}

// FindImageLibraryGroup returns the Image Library Group nested in the Image Library
func FindImageLibraryGroup(library *ContentItem) (*ContentItem, error) {
	if item := findChild(library.Children(), ImageLibraryGroup); item != nil {
		return item, nil
	}
	return nil, &NotFoundError{Concept: ImageLibraryGroup, Within: ImageLibrary.String()}
}

// ReferencedImages lists the images of the Image Library Group in document
// order. References without a SOP class are skipped.
func ReferencedImages(content []*ContentItem) ([]ImageReference, error) {
	library, err := FindImageLibrary(content)
	if err != nil {
		return nil, err
	}
	group, err := FindImageLibraryGroup(library)
	if err != nil {
		return nil, err
	}

	var refs []ImageReference
	for _, item := range group.Children() {
		for _, ref := range item.ReferencedSOPSequence {
			if ref.ReferencedSOPClassUID == "" {
				continue
			}
			refs = append(refs, ImageReference{
				ReferencedSOPClassUID:    ref.ReferencedSOPClassUID,
				ReferencedSOPInstanceUID: ref.ReferencedSOPInstanceUID,
			})
		}
	}
	return refs, nil
}
