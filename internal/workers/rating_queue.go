package workers

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/yoockh/interviewer/internal/models"
)

// RatingProcessor rates one finished interview.
type RatingProcessor interface {
	Process(ctx context.Context, job models.RatingJob) error
}

var (
	ErrQueueClosed = errors.New("rating queue closed")
	ErrQueueFull   = errors.New("rating queue full")
)

// InProcessQueue runs rating jobs on a fixed set of goroutines. Jobs still
// buffered at shutdown are lost; use the redis stream queue when that
// matters.
type InProcessQueue struct {
	jobs       chan models.RatingJob
	proc       RatingProcessor
	log        *logrus.Logger
	numWorkers int

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewInProcessQueue(proc RatingProcessor, numWorkers, buffer int, log *logrus.Logger) *InProcessQueue {
	if numWorkers <= 0 {
		numWorkers = 2
	}
	if buffer <= 0 {
		buffer = 64
	}
	if log == nil {
		log = logrus.New()
	}
	return &InProcessQueue{
		jobs:       make(chan models.RatingJob, buffer),
		proc:       proc,
		log:        log,
		numWorkers: numWorkers,
	}
}

// Start launches the workers. They stop when ctx is done or Close is called.
func (q *InProcessQueue) Start(ctx context.Context) {
	for i := 0; i < q.numWorkers; i++ {
		q.wg.Add(1)
		go func() {
			defer q.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case job, ok := <-q.jobs:
					if !ok {
						return
					}
					q.run(ctx, job)
				}
			}
		}()
	}
}

func (q *InProcessQueue) run(ctx context.Context, job models.RatingJob) {
	log := q.log.WithFields(logrus.Fields{"session_id": job.SessionID, "interview_id": job.InterviewID})
	if err := q.proc.Process(ctx, job); err != nil {
		log.WithError(err).Error("rating job failed")
		return
	}
	log.Debug("rating job done")
}

// Enqueue never blocks: a full buffer returns ErrQueueFull and the job is
// left for `interviewctl rating retry`.
func (q *InProcessQueue) Enqueue(ctx context.Context, job models.RatingJob) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}
	select {
	case q.jobs <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops accepting jobs, lets workers drain the buffer and waits.
func (q *InProcessQueue) Close() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
	q.mu.Unlock()
	q.wg.Wait()
}
