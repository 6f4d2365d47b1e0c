package task

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// Task is one unit of background indexing work.
type Task struct {
	ID         string
	TenantID   string
	EmailRefID string
}

// Result describes a finished task, delivered to the listener if one is set.
type Result struct {
	Task     Task
	Err      error
	Duration time.Duration
}

type Handler func(ctx context.Context, t Task) error

type Listener func(r Result)

// Dispatcher runs tasks on a bounded ants pool. Submission never blocks the
// caller beyond pool admission; Close drains everything already accepted.
type Dispatcher struct {
	pool     *ants.Pool
	handler  Handler
	listener Listener

	wg      sync.WaitGroup
	pending atomic.Int64
	closed  atomic.Bool
}

type Option func(*Dispatcher)

func WithListener(l Listener) Option {
	return func(d *Dispatcher) {
		d.listener = l
	}
}

func NewDispatcher(workers int, handler Handler, opts ...Option) (*Dispatcher, error) {
	if workers <= 0 {
		return nil, fmt.Errorf("invalid worker count: %d", workers)
	}
	if handler == nil {
		return nil, fmt.Errorf("nil task handler")
	}
	pool, err := ants.NewPool(workers, ants.WithNonblocking(false))
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	d := &Dispatcher{pool: pool, handler: handler}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Dispatch queues a task and returns its id. Blocks only while the pool is
// saturated.
func (d *Dispatcher) Dispatch(tenantID string, emailRefID string) (string, error) {
	if d.closed.Load() {
		return "", fmt.Errorf("dispatcher closed")
	}
	t := Task{
		ID:         uuid.NewString(),
		TenantID:   tenantID,
		EmailRefID: emailRefID,
	}
	d.wg.Add(1)
	d.pending.Add(1)
	if err := d.pool.Submit(func() {
		defer d.wg.Done()
		defer d.pending.Add(-1)
		d.run(t)
	}); err != nil {
		d.wg.Done()
		d.pending.Add(-1)
		return "", fmt.Errorf("submit task: %w", err)
	}
	return t.ID, nil
}

func (d *Dispatcher) run(t Task) {
	ctx := context.Background()
	logger := logutil.GetLogger(ctx).With(
		zap.String("task_id", t.ID),
		zap.String("tenant_id", t.TenantID),
		zap.String("email_ref_id", t.EmailRefID),
	)
	start := time.Now()
	err := d.handler(ctx, t)
	cost := time.Since(start)
	if err != nil {
		logger.Error("task failed", zap.Duration("cost", cost), zap.Error(err))
	} else {
		logger.Info("task finished", zap.Duration("cost", cost))
	}
	if d.listener != nil {
		d.listener(Result{Task: t, Err: err, Duration: cost})
	}
}

// Pending reports tasks accepted but not yet finished.
func (d *Dispatcher) Pending() int64 {
	return d.pending.Load()
}

// Close rejects new tasks, waits for in-flight ones and releases the pool.
func (d *Dispatcher) Close() {
	if !d.closed.CompareAndSwap(false, true) {
		return
	}
	d.wg.Wait()
	d.pool.Release()
}
