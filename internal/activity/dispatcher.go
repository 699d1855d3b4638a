package activity

import (
	"context"
	"log/slog"
	"sync"
	"time"

	activityDatamodel "github.com/frahmantamala/asset-inventory/internal/core/datamodel/activity"
)

type Writer interface {
	Save(ctx context.Context, row *activityDatamodel.ActivityLog) error
}

type Worker struct {
	ID         int
	WorkerPool chan chan *activityDatamodel.ActivityLog
	JobChannel chan *activityDatamodel.ActivityLog
	Logger     *slog.Logger
}

func NewWorker(id int, workerPool chan chan *activityDatamodel.ActivityLog, logger *slog.Logger) *Worker {
	return &Worker{
		ID:         id,
		WorkerPool: workerPool,
		JobChannel: make(chan *activityDatamodel.ActivityLog),
		Logger:     logger,
	}
}

func (w *Worker) Start(ctx context.Context, wg *sync.WaitGroup, processFunc func(*activityDatamodel.ActivityLog)) {
	wg.Add(1)
	go func() {
		defer wg.Done()

		for {
			select {
			case w.WorkerPool <- w.JobChannel:
			case <-ctx.Done():
				return
			}

			select {
			case row := <-w.JobChannel:
				w.Logger.Debug("worker writing activity", "worker_id", w.ID, "event_id", row.EventID)
				processFunc(row)
			case <-ctx.Done():
				w.Logger.Debug("worker shutting down", "worker_id", w.ID)
				return
			}
		}
	}()
}

type DispatcherConfig struct {
	Workers      int
	QueueSize    int
	WriteTimeout time.Duration
}

// Dispatcher writes activity rows on a fixed pool of workers fed from a
// bounded queue.
type Dispatcher struct {
	writer       Writer
	logger       *slog.Logger
	writeTimeout time.Duration

	jobQueue   chan *activityDatamodel.ActivityLog
	workerPool chan chan *activityDatamodel.ActivityLog
	maxWorkers int
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	once       sync.Once
	stopOnce   sync.Once
}

func NewDispatcher(writer Writer, config DispatcherConfig, logger *slog.Logger) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())

	maxWorkers := config.Workers
	if maxWorkers <= 0 {
		maxWorkers = 2
	}
	queueSize := config.QueueSize
	if queueSize <= 0 {
		queueSize = 256
	}
	writeTimeout := config.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 5 * time.Second
	}

	d := &Dispatcher{
		writer:       writer,
		logger:       logger,
		writeTimeout: writeTimeout,
		maxWorkers:   maxWorkers,
		jobQueue:     make(chan *activityDatamodel.ActivityLog, queueSize),
		workerPool:   make(chan chan *activityDatamodel.ActivityLog, maxWorkers),
		ctx:          ctx,
		cancel:       cancel,
	}
	d.start()
	return d
}

func (d *Dispatcher) start() {
	d.once.Do(func() {
		for i := 0; i < d.maxWorkers; i++ {
			worker := NewWorker(i, d.workerPool, d.logger)
			worker.Start(d.ctx, &d.wg, d.write)
		}

		d.wg.Add(1)
		go d.dispatch()

		d.logger.Info("activity dispatcher started",
			"workers", d.maxWorkers,
			"queue_size", cap(d.jobQueue))
	})
}

func (d *Dispatcher) dispatch() {
	defer d.wg.Done()

	for {
		select {
		case row := <-d.jobQueue:
			select {
			case jobChannel := <-d.workerPool:
				select {
				case jobChannel <- row:
				case <-d.ctx.Done():
					return
				}
			case <-d.ctx.Done():
				return
			}
		case <-d.ctx.Done():
			return
		}
	}
}

// Enqueue never blocks. It reports false when the row was dropped.
func (d *Dispatcher) Enqueue(row *activityDatamodel.ActivityLog) bool {
	if d.ctx.Err() != nil {
		d.logger.Warn("activity dispatcher stopped, dropping entry", "action", row.Action)
		return false
	}

	select {
	case d.jobQueue <- row:
		return true
	default:
		d.logger.Warn("activity queue full, dropping entry",
			"action", row.Action,
			"entity_type", row.EntityType,
			"queue_capacity", cap(d.jobQueue))
		return false
	}
}

func (d *Dispatcher) write(row *activityDatamodel.ActivityLog) {
	ctx, cancel := context.WithTimeout(context.Background(), d.writeTimeout)
	defer cancel()

	if err := d.writer.Save(ctx, row); err != nil {
		d.logger.Error("failed to write activity",
			"error", err,
			"action", row.Action,
			"event_id", row.EventID)
	}
}

// Pending is the number of rows waiting for a worker.
func (d *Dispatcher) Pending() int { return len(d.jobQueue) }

func (d *Dispatcher) Capacity() int { return cap(d.jobQueue) }

// Shutdown stops the workers. Rows still queued are discarded.
func (d *Dispatcher) Shutdown() {
	d.stopOnce.Do(func() {
		d.cancel()
		d.wg.Wait()
		if pending := len(d.jobQueue); pending > 0 {
			d.logger.Warn("activity dispatcher stopped with queued entries", "dropped", pending)
		}
		d.logger.Info("activity dispatcher shutdown complete")
	})
}
