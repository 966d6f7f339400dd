package densealert

import (
	"context"
	"sync"
	"time"

	"github.com/hupe1980/densealert/idmap"
	"github.com/hupe1980/densealert/internal/core"
	"github.com/hupe1980/densealert/internal/engine"
	"github.com/hupe1980/densealert/sink"
)

// Tuple is one weighted event: one key per mode.
type Tuple struct {
	Keys   []string
	Weight int64
}

// Detector maintains a dense block of a stream of tuples keyed by strings.
type Detector struct {
	mu      sync.Mutex
	order   int
	engine  *engine.Engine
	ids     *idmap.Matcher[string]
	coords  []core.AttVal
	changed bool

	logger  *Logger
	metrics MetricsCollector
	sink    sink.Sink
	ctx     context.Context
}

// New creates a detector for tuples with order modes.
func New(order int, optFns ...Option) (*Detector, error) {
	if order < 1 {
		return nil, ErrInvalidOrder
	}
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	e, err := engine.New(order, opts.capacity)
	if err != nil {
		return nil, translateError(err)
	}

	return &Detector{
		order:   order,
		engine:  e,
		ids:     idmap.New[string](order),
		coords:  make([]core.AttVal, order),
		logger:  opts.logger.WithOrder(order),
		metrics: opts.metricsCollector,
		sink:    opts.sink,
		ctx:     opts.ctx,
	}, nil
}

// Order returns the number of modes.
func (d *Detector) Order() int { return d.order }

// Insert adds t.Weight to the tuple t.Keys. A zero weight does nothing.
func (d *Detector) Insert(ctx context.Context, t Tuple) error {
	start := time.Now()

	d.mu.Lock()
	report, changed, err := d.insert(t)
	d.mu.Unlock()

	d.metrics.RecordInsert(time.Since(start), err)
	d.logger.LogInsert(ctx, t.Keys, t.Weight, err)
	if err != nil {
		return err
	}
	d.afterMutation(ctx, report, changed)
	return nil
}

func (d *Detector) insert(t Tuple) (sink.Report, bool, error) {
	if err := d.validate(t); err != nil || t.Weight == 0 {
		return sink.Report{}, false, err
	}

	for m, k := range t.Keys {
		d.coords[m], _ = d.ids.Index(m, k)
	}
	if err := d.engine.Insert(d.coords, core.Weight(t.Weight)); err != nil {
		return sink.Report{}, false, translateError(err)
	}
	return d.observe()
}

// Delete subtracts t.Weight from the tuple t.Keys, removing the tuple once
// its weight is used up. It returns, per mode, whether the key left the
// detector. A zero weight does nothing.
func (d *Detector) Delete(ctx context.Context, t Tuple) ([]bool, error) {
	start := time.Now()

	d.mu.Lock()
	retired, report, changed, err := d.delete(t)
	d.mu.Unlock()

	d.metrics.RecordDelete(time.Since(start), err)
	n := 0
	for _, r := range retired {
		if r {
			n++
		}
	}
	d.logger.LogDelete(ctx, t.Keys, t.Weight, n, err)
	if err != nil {
		return nil, err
	}
	d.afterMutation(ctx, report, changed)
	return retired, nil
}

func (d *Detector) delete(t Tuple) ([]bool, sink.Report, bool, error) {
	if err := d.validate(t); err != nil {
		return nil, sink.Report{}, false, err
	}
	if t.Weight == 0 {
		return make([]bool, d.order), sink.Report{}, false, nil
	}
	if d.engine.Len() == 0 {
		return nil, sink.Report{}, false, ErrEmpty
	}

	for m, k := range t.Keys {
		idx, ok := d.ids.Lookup(m, k)
		if !ok {
			return nil, sink.Report{}, false, &ErrUnknownID{Mode: m, ID: k}
		}
		d.coords[m] = idx
	}
	retired, err := d.engine.Delete(d.coords, core.Weight(t.Weight))
	if err != nil {
		return nil, sink.Report{}, false, translateError(err)
	}
	for m, r := range retired {
		if r {
			d.ids.Release(m, d.coords[m])
		}
	}

	report, changed, err := d.observe()
	return retired, report, changed, err
}

func (d *Detector) validate(t Tuple) error {
	if len(t.Keys) != d.order {
		return &ErrOrderMismatch{Expected: d.order, Actual: len(t.Keys), cause: engine.ErrOrderMismatch}
	}
	if t.Weight < 0 {
		return ErrNegativeWeight
	}
	return nil
}

// observe moves the engine's change flag into the detector and snapshots
// the block when it changed. Callers hold d.mu.
func (d *Detector) observe() (sink.Report, bool, error) {
	if !d.engine.BlockChanged() {
		return sink.Report{}, false, nil
	}
	d.engine.ClearChanged()
	d.changed = true
	return d.snapshot(), true, nil
}

func (d *Detector) afterMutation(ctx context.Context, r sink.Report, changed bool) {
	d.metrics.RecordDensity(d.Density())
	if !changed {
		return
	}
	d.metrics.RecordBlockChange(r.Size())
	d.logger.LogBlockChange(ctx, r.Density, r.Size())
	d.publish(ctx, r)
}

func (d *Detector) publish(ctx context.Context, r sink.Report) {
	if d.sink == nil {
		return
	}
	if d.ctx != nil {
		ctx = d.ctx
	}
	err := d.sink.Publish(ctx, r)
	d.logger.LogPublish(ctx, r.ID.String(), err)
}

// Density returns the density of the current block, or 0 when empty.
func (d *Detector) Density() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.engine.Density()
}

// BlockChanged reports whether the block's members changed since the last
// ClearChanged.
func (d *Detector) BlockChanged() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.changed
}

// ClearChanged resets the change flag.
func (d *Detector) ClearChanged() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.changed = false
}

// Block returns the keys of the current block per mode, sorted by index.
// Before any block is singled out it is every key of the detector.
func (d *Detector) Block() [][]string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.block()
}

func (d *Detector) block() [][]string {
	out := make([][]string, d.order)
	b := d.engine.Block()
	if b == nil {
		for m := range d.order {
			out[m] = d.ids.Keys(m)
		}
		return out
	}
	for m := range d.order {
		members := b.Members(m)
		keys := make([]string, 0, len(members))
		for _, a := range members {
			if k, ok := d.ids.Key(m, a); ok {
				keys = append(keys, k)
			}
		}
		out[m] = keys
	}
	return out
}

// Len returns the number of distinct stored tuples.
func (d *Detector) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.engine.Len()
}

// Mass returns the total weight of the stored tuples.
func (d *Detector) Mass() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(d.engine.Mass())
}

// Keys returns the number of live keys in mode.
func (d *Detector) Keys(mode int) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ids.Len(mode)
}

// Snapshot returns a report of the current block.
func (d *Detector) Snapshot() sink.Report {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.snapshot()
}

func (d *Detector) snapshot() sink.Report {
	var mass int64
	if b := d.engine.Block(); b != nil {
		mass = int64(b.Mass())
	} else {
		mass = int64(d.engine.Mass())
	}
	return sink.NewReport(d.order, d.engine.Density(), mass, d.engine.Len(), d.block())
}
