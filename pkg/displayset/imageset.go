package displayset

import (
	"slices"
	"sort"

	"github.com/jpfielding/dicomsr.go/pkg/dcm/module"
	"github.com/jpfielding/dicomsr.go/pkg/sr"
	"github.com/jpfielding/dicomsr.go/pkg/util"
)

// Instance is the header of one image file
type Instance struct {
	Path                string
	StudyInstanceUID    string
	SeriesInstanceUID   string
	SOPClassUID         string
	SOPInstanceUID      string
	FrameOfReferenceUID string
	Modality            string
	SeriesDescription   string
	SeriesNumber        int
	InstanceNumber      int
	NumberOfFrames      int
	Plane               *module.ImagePlaneModule
}

// nonImage modalities never host measurements
var nonImage = []string{"SR", "SEG", "RTSTRUCT", "RTPLAN", "RTDOSE", "PR", "KO", "DOC", "RWV"}

// ImageSet is the images of one series. It implements sr.ImageSet.
type ImageSet struct {
	UID               string
	StudyInstanceUID  string
	SeriesInstanceUID string
	Modality          string
	SeriesDescription string
	SeriesNumber      int

	instances []Instance
	bySOP     map[string]int
}

var _ sr.ImageSet = (*ImageSet)(nil)

// New builds an image set from the instances of one series, ordered by
// instance number. Its UID is derived from the study and series UIDs.
func New(instances []Instance) *ImageSet {
	sorted := slices.Clone(instances)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].InstanceNumber < sorted[j].InstanceNumber })

	s := &ImageSet{instances: sorted, bySOP: make(map[string]int, len(sorted))}
	for i, inst := range sorted {
		s.bySOP[inst.SOPInstanceUID] = i
	}
	if len(sorted) > 0 {
		first := sorted[0]
		s.StudyInstanceUID = first.StudyInstanceUID
		s.SeriesInstanceUID = first.SeriesInstanceUID
		s.Modality = first.Modality
		s.SeriesDescription = first.SeriesDescription
		s.SeriesNumber = first.SeriesNumber
	}
	s.UID = util.HashUUID([]string{s.StudyInstanceUID, s.SeriesInstanceUID})
	return s
}

func (s *ImageSet) DisplaySetInstanceUID() string { return s.UID }

// Unsupported reports whether the series holds no displayable images
func (s *ImageSet) Unsupported() bool {
	return len(s.instances) == 0 || slices.Contains(nonImage, s.Modality)
}

// SOPClassUIDs lists the distinct SOP classes in instance order
func (s *ImageSet) SOPClassUIDs() []string {
	var classes []string
	for _, inst := range s.instances {
		if inst.SOPClassUID != "" && !slices.Contains(classes, inst.SOPClassUID) {
			classes = append(classes, inst.SOPClassUID)
		}
	}
	return classes
}

func (s *ImageSet) Instances() []sr.Instance {
	out := make([]sr.Instance, len(s.instances))
	for i, inst := range s.instances {
		out[i] = sr.Instance{
			SOPClassUID:         inst.SOPClassUID,
			SOPInstanceUID:      inst.SOPInstanceUID,
			FrameOfReferenceUID: inst.FrameOfReferenceUID,
			Plane:               inst.Plane,
		}
	}
	return out
}

// Headers returns the full instance headers in display order
func (s *ImageSet) Headers() []Instance {
	return slices.Clone(s.instances)
}

// ImageIDs lists one ID per single-frame instance and one per frame of a
// multi-frame instance
func (s *ImageSet) ImageIDs() []string {
	var ids []string
	for _, inst := range s.instances {
		if inst.NumberOfFrames <= 1 {
			ids = append(ids, ImageID(inst.SOPInstanceUID, 0))
			continue
		}
		for f := 1; f <= inst.NumberOfFrames; f++ {
			ids = append(ids, ImageID(inst.SOPInstanceUID, f))
		}
	}
	return ids
}

// InstanceAttributes resolves an image ID of this set
func (s *ImageSet) InstanceAttributes(imageID string) (string, int, bool) {
	uid, frame, err := ParseImageID(imageID)
	if err != nil {
		return "", 0, false
	}
	if _, ok := s.bySOP[uid]; !ok {
		return "", 0, false
	}
	return uid, frame, true
}

// Instance returns the header of a SOP instance in the set
func (s *ImageSet) Instance(sopInstanceUID string) (Instance, bool) {
	i, ok := s.bySOP[sopInstanceUID]
	if !ok {
		return Instance{}, false
	}
	return s.instances[i], true
}
