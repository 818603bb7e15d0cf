package sr

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	mu     sync.Mutex
	active []ImageSet
	subs   map[int]func(ImageSet)
	next   int
}

func (s *fakeSource) ActiveImageSets() []ImageSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ImageSet(nil), s.active...)
}

func (s *fakeSource) SubscribeImageSetAdded(fn func(ImageSet)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.subs == nil {
		s.subs = map[int]func(ImageSet){}
	}
	id := s.next
	s.next++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

func (s *fakeSource) add(set ImageSet) {
	s.mu.Lock()
	s.active = append(s.active, set)
	subs := make([]func(ImageSet), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()
	for _, fn := range subs {
		fn(set)
	}
}

func (s *fakeSource) subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

func TestTracker_WatchResolvesActiveAndAddedSets(t *testing.T) {
	first := planarRecord("a", "1.1")
	second := planarRecord("b", "2.1")
	sink := &recordingSink{}
	touched := make(chan []*Record, 4)

	tr := NewTracker([]*Record{first, second}, nil, sink)
	tr.OnTouched = func(recs []*Record) { touched <- recs }
	defer tr.Close()

	src := &fakeSource{active: []ImageSet{ctSet(axialInstance("1.1", "for", 0))}}
	require.NoError(t, tr.Watch(src))

	snap, err := tr.Snapshot(context.Background())
	require.NoError(t, err)
	require.Len(t, snap, 2)
	assert.True(t, snap[0].Loaded)
	assert.False(t, snap[1].Loaded)
	assert.Equal(t, []*Record{first}, <-touched)

	src.add(&fakeSet{uid: "ds-2", classes: []string{ctImage}, instances: []Instance{axialInstance("2.1", "for", 0)}})
	snap, err = tr.Snapshot(context.Background())
	require.NoError(t, err)
	assert.True(t, snap[1].Loaded)
	assert.Equal(t, "ds-2", snap[1].DisplaySetInstanceUID)
	assert.Equal(t, []*Record{second}, <-touched)
	assert.Equal(t, 2, sink.count())
}

func TestTracker_SnapshotIsACopy(t *testing.T) {
	rec := planarRecord("a", "1.1")
	rec.Labels = []Label{{Label: "Length", Value: "1.00 mm"}}
	rec.Values = []Quantity{{NumericValue: "1", Coordinate: rec.Coords[0]}}
	tr := NewTracker([]*Record{rec}, nil, &recordingSink{})
	defer tr.Close()

	snap, err := tr.Snapshot(context.Background())
	require.NoError(t, err)
	require.Len(t, snap, 1)
	snap[0].Labels[0].Value = "changed"
	snap[0].Coords[0].GraphicData[0] = 99
	assert.Same(t, snap[0].Coords[0], snap[0].Values[0].Coordinate)
	assert.NotSame(t, rec.Coords[0], snap[0].Coords[0])

	again, err := tr.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1.00 mm", again[0].Labels[0].Value)
	assert.Equal(t, 1.0, again[0].Coords[0].GraphicData[0])
}

func TestTracker_ResolveReturnsTouched(t *testing.T) {
	rec := planarRecord("a", "1.1")
	tr := NewTracker([]*Record{rec}, NewResolver(1), &recordingSink{})
	defer tr.Close()

	touched, err := tr.Resolve(context.Background(), ctSet(axialInstance("1.1", "for", 0)))
	require.NoError(t, err)
	require.Len(t, touched, 1)
	assert.Equal(t, "a", touched[0].TrackingUniqueIdentifier)

	touched, err = tr.Resolve(context.Background(), ctSet(axialInstance("1.1", "for", 0)))
	require.NoError(t, err)
	assert.Empty(t, touched)
}

func TestTracker_Close(t *testing.T) {
	tr := NewTracker(nil, nil, &recordingSink{})
	src := &fakeSource{}
	require.NoError(t, tr.Watch(src))
	assert.Equal(t, 1, src.subscribers())

	tr.Close()
	tr.Close()
	assert.Zero(t, src.subscribers())

	_, err := tr.Snapshot(context.Background())
	assert.ErrorIs(t, err, ErrTrackerClosed)
	assert.ErrorIs(t, tr.Watch(src), ErrTrackerClosed)
}
