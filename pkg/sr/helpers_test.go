package sr

import (
	"errors"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jpfielding/dicomsr.go/pkg/dcm/module"
)

const ctImage = "1.2.840.10008.5.1.4.1.1.2"

func loadFixture(t *testing.T) *Report {
	t.Helper()
	f, err := os.Open("testdata/report.json")
	require.NoError(t, err)
	defer f.Close()
	r, err := ReadReportJSON(f)
	require.NoError(t, err)
	return r
}

func code(value, scheme, meaning string) Sequence[Code] {
	return Sequence[Code]{{CodeValue: value, CodingSchemeDesignator: scheme, CodeMeaning: meaning}}
}

func uidItem(uid string) *ContentItem {
	return &ContentItem{
		ValueType:               ValueUIDRef,
		RelationshipType:        HasObsContext,
		ConceptNameCodeSequence: Sequence[Code]{TrackingUniqueIdentifier.Code()},
		UID:                     uid,
	}
}

func trackingItem(text string) *ContentItem {
	return &ContentItem{
		ValueType:               ValueText,
		RelationshipType:        HasObsContext,
		ConceptNameCodeSequence: Sequence[Code]{TrackingIdentifier.Code()},
		TextValue:               text,
	}
}

func numItemFor(meaning, value, unit string, children ...*ContentItem) *ContentItem {
	return &ContentItem{
		ValueType:               ValueNum,
		RelationshipType:        Contains,
		ConceptNameCodeSequence: code("X-"+meaning, "99TEST", meaning),
		MeasuredValueSequence: Sequence[MeasuredValue]{{
			NumericValue:                 DecimalString(value),
			MeasurementUnitsCodeSequence: code(unit, SchemeUCUM, unit),
		}},
		ContentSequence: children,
	}
}

func scoordItem(rel RelationshipType, sopInstanceUID string, data ...float64) *ContentItem {
	return &ContentItem{
		ValueType:        ValueSCoord,
		RelationshipType: rel,
		GraphicType:      "POLYLINE",
		GraphicData:      data,
		ContentSequence: Sequence[*ContentItem]{{
			ValueType:        ValueImage,
			RelationshipType: SelectedFrom,
			ReferencedSOPSequence: Sequence[SOPReference]{{
				ReferencedSOPClassUID:    ctImage,
				ReferencedSOPInstanceUID: sopInstanceUID,
			}},
		}},
	}
}

func group(children ...*ContentItem) *ContentItem {
	return &ContentItem{
		ValueType:               ValueContainer,
		RelationshipType:        Contains,
		ConceptNameCodeSequence: Sequence[Code]{MeasurementGroup.Code()},
		ContentSequence:         children,
	}
}

func measurementsRoot(groups ...*ContentItem) []*ContentItem {
	return []*ContentItem{{
		ValueType:               ValueContainer,
		RelationshipType:        Contains,
		ConceptNameCodeSequence: Sequence[Code]{ImagingMeasurements.Code()},
		ContentSequence:         groups,
	}}
}

// fakeSet is an ImageSet with one image ID per instance, "img:<uid>"
type fakeSet struct {
	uid         string
	classes     []string
	unsupported bool
	instances   []Instance
}

func (s *fakeSet) DisplaySetInstanceUID() string { return s.uid }
func (s *fakeSet) SOPClassUIDs() []string        { return s.classes }
func (s *fakeSet) Unsupported() bool             { return s.unsupported }
func (s *fakeSet) Instances() []Instance         { return s.instances }

func (s *fakeSet) ImageIDs() []string {
	ids := make([]string, len(s.instances))
	for i, inst := range s.instances {
		ids[i] = "img:" + inst.SOPInstanceUID
	}
	return ids
}

func (s *fakeSet) InstanceAttributes(imageID string) (string, int, bool) {
	uid, ok := strings.CutPrefix(imageID, "img:")
	return uid, 0, ok
}

func axialInstance(uid, frameOfReference string, z float64) Instance {
	plane, _ := module.NewImagePlane([]float64{0, 0, z}, []float64{1, 0, 0, 0, 1, 0})
	return Instance{SOPClassUID: ctImage, SOPInstanceUID: uid, FrameOfReferenceUID: frameOfReference, Plane: plane}
}

type registration struct {
	rec                   *Record
	imageID, displaySetID string
}

// recordingSink records registrations and fails while fail is set
type recordingSink struct {
	mu    sync.Mutex
	calls []registration
	fail  bool
}

func (s *recordingSink) AddMeasurement(rec *Record, imageID, displaySetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("sink unavailable")
	}
	s.calls = append(s.calls, registration{rec, imageID, displaySetID})
	return nil
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}
