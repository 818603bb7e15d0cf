package sr

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// ErrTrackerClosed is returned by calls made after Close
var ErrTrackerClosed = errors.New("sr: tracker closed")

// Source announces image sets as they become available
type Source interface {
	ActiveImageSets() []ImageSet
	// SubscribeImageSetAdded registers fn for every set added from now on and
	// returns a function that cancels the subscription
	SubscribeImageSetAdded(fn func(ImageSet)) (unsubscribe func())
}

// Tracker owns the records of one display set. A single goroutine applies
// every resolution to the records, so callers never touch them concurrently;
// they read copies through Snapshot or react to OnTouched.
type Tracker struct {
	// OnTouched, when set, is called on the owner goroutine with the records a
	// resolution changed. It must not call back into the Tracker.
	OnTouched func([]*Record)
	Logger    *slog.Logger

	records  []*Record
	resolver *Resolver
	sink     Sink

	requests chan func()
	done     chan struct{}
	stopped  chan struct{}

	mu          sync.Mutex
	unsubscribe []func()
	closeOnce   sync.Once
}

// NewTracker starts the owner goroutine for records. The tracker takes
// ownership of the records; Close stops it.
func NewTracker(records []*Record, resolver *Resolver, sink Sink) *Tracker {
	if resolver == nil {
		resolver = NewResolver(DefaultPlaneTolerance)
	}
	t := &Tracker{
		records:  records,
		resolver: resolver,
		sink:     sink,
		requests: make(chan func()),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	go t.run()
	return t
}

func (t *Tracker) run() {
	defer close(t.stopped)
	for {
		select {
		case fn := <-t.requests:
			fn()
		case <-t.done:
			return
		}
	}
}

func (t *Tracker) logger() *slog.Logger {
	if t.Logger != nil {
		return t.Logger
	}
	return slog.Default()
}

// submit hands fn to the owner goroutine, blocking until it is accepted
func (t *Tracker) submit(ctx context.Context, fn func()) error {
	select {
	case t.requests <- fn:
		return nil
	case <-t.done:
		return ErrTrackerClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// call runs fn on the owner goroutine and waits for it to finish
func (t *Tracker) call(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if err := t.submit(ctx, func() { fn(); close(finished) }); err != nil {
		return err
	}
	select {
	case <-finished:
		return nil
	case <-t.stopped:
		return ErrTrackerClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *Tracker) resolve(set ImageSet) []*Record {
	touched := t.resolver.Resolve(t.records, set, t.sink)
	if len(touched) > 0 {
		t.logger().Info("measurements updated", "displaySet", set.DisplaySetInstanceUID(), "count", len(touched))
		if t.OnTouched != nil {
			t.OnTouched(touched)
		}
	}
	return touched
}

// Watch subscribes to image sets added to src and then resolves against the
// sets already active. Subscribing first means a set added during the scan is
// seen at least once; resolving twice is harmless.
func (t *Tracker) Watch(src Source) error {
	select {
	case <-t.done:
		return ErrTrackerClosed
	default:
	}

	unsubscribe := src.SubscribeImageSetAdded(func(set ImageSet) {
		if err := t.submit(context.Background(), func() { t.resolve(set) }); err != nil {
			t.logger().Debug("image set ignored", "displaySet", set.DisplaySetInstanceUID(), "error", err)
		}
	})
	t.mu.Lock()
	t.unsubscribe = append(t.unsubscribe, unsubscribe)
	t.mu.Unlock()

	for _, set := range src.ActiveImageSets() {
		if err := t.submit(context.Background(), func() { t.resolve(set) }); err != nil {
			return err
		}
	}
	return nil
}

// Resolve resolves against set now and returns the records it changed
func (t *Tracker) Resolve(ctx context.Context, set ImageSet) ([]*Record, error) {
	var touched []*Record
	err := t.call(ctx, func() { touched = t.resolve(set) })
	return touched, err
}

// Snapshot returns copies of the records as they are after all earlier requests
func (t *Tracker) Snapshot(ctx context.Context) ([]Record, error) {
	var out []Record
	err := t.call(ctx, func() {
		out = make([]Record, 0, len(t.records))
		for _, rec := range t.records {
			out = append(out, copyRecord(rec))
		}
	})
	return out, err
}

// Close cancels the subscriptions and stops the owner goroutine
func (t *Tracker) Close() {
	t.closeOnce.Do(func() {
		t.mu.Lock()
		unsubscribe := t.unsubscribe
		t.unsubscribe = nil
		t.mu.Unlock()
		for _, fn := range unsubscribe {
			fn()
		}
		close(t.done)
		<-t.stopped
	})
}

// copyRecord deep copies a record so the copy shares nothing with the owner
func copyRecord(rec *Record) Record {
	out := *rec
	out.Labels = append([]Label(nil), rec.Labels...)

	coords := make(map[*Coordinate]*Coordinate, len(rec.Coords))
	dup := func(c *Coordinate) *Coordinate {
		if c == nil {
			return nil
		}
		if d, ok := coords[c]; ok {
			return d
		}
		d := *c
		d.GraphicData = append([]float64(nil), c.GraphicData...)
		if c.ReferencedSOPSequence != nil {
			ref := *c.ReferencedSOPSequence
			ref.ReferencedFrameNumber = append(FrameNumbers(nil), ref.ReferencedFrameNumber...)
			d.ReferencedSOPSequence = &ref
		}
		coords[c] = &d
		return &d
	}
	out.Coords = make([]*Coordinate, len(rec.Coords))
	for i, c := range rec.Coords {
		out.Coords[i] = dup(c)
	}
	out.Values = append([]Quantity(nil), rec.Values...)
	for i := range out.Values {
		out.Values[i].Coordinate = dup(out.Values[i].Coordinate)
	}
	return out
}
