package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/freelancer-bff/internal/events"
	"github.com/spec-kit/freelancer-bff/internal/repository"
)

const writeTimeout = 2 * time.Second

// AuditWorker persists audit events off the request path.
type AuditWorker struct {
	queue  chan events.Event
	repo   repository.AuditRepository
	logger *zap.Logger
	wg     sync.WaitGroup
	once   sync.Once
}

// NewAuditWorker builds a worker with a bounded queue. A nil repo means
// events are only logged.
func NewAuditWorker(repo repository.AuditRepository, bufferSize int, logger *zap.Logger) *AuditWorker {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	return &AuditWorker{
		queue:  make(chan events.Event, bufferSize),
		repo:   repo,
		logger: logger,
	}
}

// Start launches the consumer goroutine.
func (w *AuditWorker) Start() {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for event := range w.queue {
			w.persist(event)
		}
	}()
}

// Enqueue hands an event to the worker without blocking. Events are dropped
// when the queue is full.
func (w *AuditWorker) Enqueue(event events.Event) bool {
	select {
	case w.queue <- event:
		return true
	default:
		w.logger.Warn("audit queue full, dropping event",
			zap.String("event_type", string(event.Type)),
			zap.String("event_id", event.ID))
		return false
	}
}

// Stop closes the queue and waits for pending events to be written.
// Enqueue must not be called after Stop.
func (w *AuditWorker) Stop() {
	w.once.Do(func() { close(w.queue) })
	w.wg.Wait()
}

func (w *AuditWorker) persist(event events.Event) {
	if w.repo == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := w.repo.Insert(ctx, event); err != nil {
		w.logger.Error("persist audit event", zap.String("event_id", event.ID), zap.Error(err))
	}
}
