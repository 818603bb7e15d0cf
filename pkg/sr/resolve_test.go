package sr

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func planarRecord(uid, sopInstanceUID string, frames ...int) *Record {
	return &Record{
		TrackingUniqueIdentifier: uid,
		Coords: []*Coordinate{{
			ValueType:   ValueSCoord,
			GraphicType: "POINT",
			GraphicData: []float64{1, 1},
			ReferencedSOPSequence: &SOPReference{
				ReferencedSOPClassUID:    ctImage,
				ReferencedSOPInstanceUID: sopInstanceUID,
				ReferencedFrameNumber:    frames,
			},
		}},
	}
}

func pointRecord(uid, frameOfReference string, z float64) *Record {
	return &Record{
		TrackingUniqueIdentifier: uid,
		Coords: []*Coordinate{{
			ValueType:                     ValueSCoord3D,
			GraphicType:                   "POINT",
			GraphicData:                   []float64{0, 0, z},
			ReferencedFrameOfReferenceUID: frameOfReference,
		}},
	}
}

func ctSet(instances ...Instance) *fakeSet {
	return &fakeSet{uid: "ds-1", classes: []string{ctImage}, instances: instances}
}

func TestResolve_LoadsMatchingRecords(t *testing.T) {
	set := ctSet(axialInstance("1.1", "for", 0), axialInstance("1.2", "for", 1))
	a := planarRecord("a", "1.2")
	b := planarRecord("b", "1.1")
	other := planarRecord("c", "9.9")
	sink := &recordingSink{}

	touched := NewResolver(0).Resolve([]*Record{a, b, other}, set, sink)
	assert.ElementsMatch(t, []*Record{a, b}, touched)
	require.Equal(t, 2, sink.count())

	assert.True(t, a.Loaded)
	assert.Equal(t, "img:1.2", a.ImageID)
	assert.Equal(t, "ds-1", a.DisplaySetInstanceUID)
	assert.Equal(t, "img:1.1", b.ImageID)
	assert.False(t, other.Loaded)
	assert.Empty(t, other.ImageID)
}

func TestResolve_Idempotent(t *testing.T) {
	set := ctSet(axialInstance("1.1", "for", 0))
	rec := planarRecord("a", "1.1")
	sink := &recordingSink{}
	r := NewResolver(0)

	require.Len(t, r.Resolve([]*Record{rec}, set, sink), 1)
	assert.Empty(t, r.Resolve([]*Record{rec}, set, sink))
	assert.Equal(t, 1, sink.count())
}

func TestResolve_PlaneTolerance(t *testing.T) {
	tests := []struct {
		name   string
		planeZ float64
		loaded bool
	}{
		{"within tolerance", 13, true},
		{"on tolerance", 15, true},
		{"beyond tolerance", 16, false},
		{"below", 6, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := pointRecord("p", "for", 10)
			sink := &recordingSink{}
			NewResolver(DefaultPlaneTolerance).Resolve([]*Record{rec}, ctSet(axialInstance("1.1", "for", tt.planeZ)), sink)
			assert.Equal(t, tt.loaded, rec.Loaded)
			if tt.loaded {
				assert.Equal(t, "1.1", rec.Coords[0].ReferencedSOPSequence.ReferencedSOPInstanceUID)
				assert.Equal(t, "img:1.1", rec.ImageID)
			} else {
				assert.Nil(t, rec.Coords[0].ReferencedSOPSequence)
			}
		})
	}
}

func TestResolve_NearestPlaneWins(t *testing.T) {
	rec := pointRecord("p", "for", 10)
	set := ctSet(
		axialInstance("1.1", "for", 13),
		axialInstance("1.2", "for", 9),
		axialInstance("1.3", "other", 10),
	)
	NewResolver(0).Resolve([]*Record{rec}, set, &recordingSink{})
	require.True(t, rec.Loaded)
	assert.Equal(t, "img:1.2", rec.ImageID)
}

func TestResolve_PlaneWithoutGeometryIgnored(t *testing.T) {
	rec := pointRecord("p", "for", 10)
	set := ctSet(Instance{SOPClassUID: ctImage, SOPInstanceUID: "1.1", FrameOfReferenceUID: "for"})
	assert.Empty(t, NewResolver(0).Resolve([]*Record{rec}, set, &recordingSink{}))
	assert.False(t, rec.Loaded)
}

func TestResolve_SkipsUnsupportedAndClasslessSets(t *testing.T) {
	rec := planarRecord("a", "1.1")
	sink := &recordingSink{}

	set := ctSet(axialInstance("1.1", "for", 0))
	set.unsupported = true
	assert.Empty(t, NewResolver(0).Resolve([]*Record{rec}, set, sink))

	set = ctSet(axialInstance("1.1", "for", 0))
	set.classes = nil
	assert.Empty(t, NewResolver(0).Resolve([]*Record{rec}, set, sink))

	set = ctSet(axialInstance("1.1", "for", 0))
	set.classes = []string{"1.2.840.10008.5.1.4.1.1.4"}
	assert.Empty(t, NewResolver(0).Resolve([]*Record{rec}, set, sink))

	assert.Empty(t, NewResolver(0).Resolve([]*Record{rec}, nil, sink))
	assert.Zero(t, sink.count())
	assert.False(t, rec.Loaded)
}

func TestResolve_FrameMatching(t *testing.T) {
	set := &framedSet{fakeSet: ctSet(axialInstance("1.1", "for", 0)), frames: 3}
	defaultFrame := planarRecord("a", "1.1")
	third := planarRecord("b", "1.1", 3)

	NewResolver(0).Resolve([]*Record{defaultFrame, third}, set, &recordingSink{})
	assert.Equal(t, "img:1.1?frame=1", defaultFrame.ImageID)
	assert.Equal(t, "img:1.1?frame=3", third.ImageID)
}

func TestResolve_SinkFailureLeavesRecordUnloaded(t *testing.T) {
	set := ctSet(axialInstance("1.1", "for", 0))
	rec := planarRecord("a", "1.1")
	sink := &recordingSink{fail: true}
	r := NewResolver(0)

	assert.Empty(t, r.Resolve([]*Record{rec}, set, sink))
	assert.False(t, rec.Loaded)
	assert.Empty(t, rec.ImageID)

	sink.fail = false
	assert.Equal(t, []*Record{rec}, r.Resolve([]*Record{rec}, set, sink))
	assert.True(t, rec.Loaded)
}

// framedSet exposes every instance as a multi-frame image
type framedSet struct {
	*fakeSet
	frames int
}

func (s *framedSet) ImageIDs() []string {
	var ids []string
	for _, inst := range s.instances {
		for f := 1; f <= s.frames; f++ {
			ids = append(ids, "img:"+inst.SOPInstanceUID+"?frame="+strconv.Itoa(f))
		}
	}
	return ids
}

func (s *framedSet) InstanceAttributes(imageID string) (string, int, bool) {
	uid, frame, ok := strings.Cut(strings.TrimPrefix(imageID, "img:"), "?frame=")
	if !ok {
		return "", 0, false
	}
	n, err := strconv.Atoi(frame)
	return uid, n, err == nil
}
