package wizard

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

// ErrQueueClosed is returned when work is offered after Close.
var ErrQueueClosed = errors.New("submit queue closed")

// Submitter sends the aggregate to the server. applicationID is zero for
// the first submission; the returned id is used for every later one.
type Submitter interface {
	Submit(ctx context.Context, data Steps, applicationID uint64) (uint64, error)
}

type job struct {
	data    Steps
	barrier chan struct{} // set for Flush markers
}

// SubmitQueue sends aggregates one at a time, in the order they were
// enqueued. Each job uses the application id resolved by the job before it,
// so the first job creates the application and the rest update it.
// Enqueue never blocks on the worker; pending jobs are held in memory.
type SubmitQueue struct {
	sub  Submitter
	log  *zap.Logger
	done chan struct{}
	ctx  context.Context

	mu      sync.Mutex
	cond    *sync.Cond
	pending []job
	closed  bool
	appID   uint64
	lastErr error
	onID    func(uint64)
}

// NewSubmitQueue starts the worker. appID seeds the id for a draft that was
// already submitted; onID, when set, is called from the worker every time a
// submission returns an id.
func NewSubmitQueue(ctx context.Context, sub Submitter, appID uint64, onID func(uint64), log *zap.Logger) *SubmitQueue {
	q := &SubmitQueue{
		sub:   sub,
		log:   log,
		done:  make(chan struct{}),
		ctx:   ctx,
		appID: appID,
		onID:  onID,
	}
	q.cond = sync.NewCond(&q.mu)
	go q.run()
	return q
}

// next pops the oldest job, waiting for one. ok is false once the queue is
// closed and drained.
func (q *SubmitQueue) next() (j job, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.pending) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.pending) == 0 {
		return job{}, false
	}
	j = q.pending[0]
	q.pending[0] = job{}
	q.pending = q.pending[1:]
	return j, true
}

func (q *SubmitQueue) run() {
	defer close(q.done)
	for {
		j, ok := q.next()
		if !ok {
			return
		}
		if j.barrier != nil {
			close(j.barrier)
			continue
		}
		q.submit(j.data)
	}
}

func (q *SubmitQueue) submit(data Steps) {
	id := q.ApplicationID()
	newID, err := q.sub.Submit(q.ctx, data, id)

	q.mu.Lock()
	q.lastErr = err
	if err == nil && newID != 0 {
		q.appID = newID
	}
	q.mu.Unlock()

	if err != nil {
		q.log.Warn("wizard: application submit failed", zap.Uint64("application_id", id), zap.Error(err))
		return
	}
	if q.onID != nil && newID != 0 {
		q.onID(newID)
	}
}

// Enqueue schedules a submission of data.
func (q *SubmitQueue) Enqueue(data Steps) error {
	return q.push(job{data: data})
}

func (q *SubmitQueue) push(j job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrQueueClosed
	}
	q.pending = append(q.pending, j)
	q.cond.Signal()
	return nil
}

// Flush blocks until every job enqueued before the call has finished.
func (q *SubmitQueue) Flush(ctx context.Context) error {
	b := make(chan struct{})
	if err := q.push(job{barrier: b}); err != nil {
		return err
	}
	select {
	case <-b:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ApplicationID is the id returned by the latest successful submission.
func (q *SubmitQueue) ApplicationID() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.appID
}

// Err is the result of the most recent submission.
func (q *SubmitQueue) Err() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.lastErr
}

// Close stops accepting jobs, lets queued ones finish and waits for the
// worker to exit.
func (q *SubmitQueue) Close() {
	q.mu.Lock()
	q.closed = true
	q.cond.Broadcast()
	q.mu.Unlock()
	<-q.done
}
