package displayset

import (
	"log/slog"
	"sync"

	"github.com/jpfielding/dicomsr.go/pkg/sr"
)

// Manager holds the active image sets and tells subscribers about new ones.
// It implements sr.Source.
type Manager struct {
	Logger *slog.Logger

	mu    sync.RWMutex
	sets  map[string]*ImageSet
	order []string
	subs  map[int]func(sr.ImageSet)
	next  int
}

var _ sr.Source = (*Manager)(nil)

// NewManager returns an empty manager
func NewManager() *Manager {
	return &Manager{
		sets: map[string]*ImageSet{},
		subs: map[int]func(sr.ImageSet){},
	}
}

func (m *Manager) logger() *slog.Logger {
	if m.Logger != nil {
		return m.Logger
	}
	return slog.Default()
}

// Add makes sets active, replacing any with the same UID, then notifies
// subscribers once per set. Callbacks run on the caller's goroutine after
// the manager's lock is released.
func (m *Manager) Add(sets ...*ImageSet) {
	m.mu.Lock()
	for _, s := range sets {
		if _, ok := m.sets[s.UID]; !ok {
			m.order = append(m.order, s.UID)
		}
		m.sets[s.UID] = s
	}
	subs := make([]func(sr.ImageSet), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	m.mu.Unlock()

	for _, s := range sets {
		m.logger().Debug("image set added", "displaySet", s.UID, "series", s.SeriesInstanceUID, "modality", s.Modality)
		for _, fn := range subs {
			fn(s)
		}
	}
}

// Remove drops a set, reporting whether it was active
func (m *Manager) Remove(uid string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sets[uid]; !ok {
		return false
	}
	delete(m.sets, uid)
	for i, id := range m.order {
		if id == uid {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return true
}

// Get returns an active set by UID
func (m *Manager) Get(uid string) (*ImageSet, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sets[uid]
	return s, ok
}

// Sets returns the active sets in the order they were first added
func (m *Manager) Sets() []*ImageSet {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*ImageSet, 0, len(m.order))
	for _, uid := range m.order {
		out = append(out, m.sets[uid])
	}
	return out
}

// ActiveImageSets returns the active sets in the order they were first added
func (m *Manager) ActiveImageSets() []sr.ImageSet {
	sets := m.Sets()
	out := make([]sr.ImageSet, len(sets))
	for i, s := range sets {
		out[i] = s
	}
	return out
}

// SubscribeImageSetAdded calls fn for every set added after it returns
func (m *Manager) SubscribeImageSetAdded(fn func(sr.ImageSet)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.next
	m.next++
	m.subs[id] = fn
	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			delete(m.subs, id)
		})
	}
}

// SeriesOf finds the study and series of an instance among the active sets
func (m *Manager) SeriesOf(sopInstanceUID string) (studyInstanceUID, seriesInstanceUID string, ok bool) {
	for _, s := range m.Sets() {
		if inst, found := s.Instance(sopInstanceUID); found {
			return inst.StudyInstanceUID, inst.SeriesInstanceUID, true
		}
	}
	return "", "", false
}
