package worker

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"maderera/internal/metrics"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueDocumentos = "jobs:documentos"
	QueueEmail      = "jobs:email"

	JobDocumentoPDF = "documento_pdf"
	JobEmail        = "email"

	// MaxJobAttempts is how many times a job runs before it goes to the DLQ.
	MaxJobAttempts = 3
)

// Job is the generic envelope for all async tasks.
type Job struct {
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
	Attempts int             `json:"attempts"`
}

// Handler processes one job payload. A returned error makes the job
// eligible for retry.
type Handler interface {
	Process(ctx context.Context, payload json.RawMessage) error
}

type HandlerFunc func(ctx context.Context, payload json.RawMessage) error

func (f HandlerFunc) Process(ctx context.Context, payload json.RawMessage) error {
	return f(ctx, payload)
}

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// EnqueueDocumentoPDF pushes a render job for a stored document.
func (d *Dispatcher) EnqueueDocumentoPDF(ctx context.Context, payload DocumentoPDFJobPayload) error {
	return d.enqueue(ctx, QueueDocumentos, JobDocumentoPDF, payload)
}

// EnqueueEmail pushes an email job to Redis.
func (d *Dispatcher) EnqueueEmail(ctx context.Context, payload EmailJobPayload) error {
	return d.enqueue(ctx, QueueEmail, JobEmail, payload)
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return push(ctx, d.rdb, queue, Job{Type: jobType, Payload: data})
}

func push(ctx context.Context, rdb *redis.Client, queue string, job Job) error {
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return rdb.LPush(ctx, queue, encoded).Err()
}

// Pool consumes the job queues and routes each job to its Handler by type.
type Pool struct {
	rdb      *redis.Client
	handlers map[string]Handler
	queues   []string
	wg       sync.WaitGroup
}

func NewPool(rdb *redis.Client, handlers map[string]Handler) *Pool {
	return &Pool{
		rdb:      rdb,
		handlers: handlers,
		queues:   []string{QueueDocumentos, QueueEmail},
	}
}

// Start launches numWorkers goroutines. Each blocks on BRPOP, so idle
// workers cost nothing. Wait returns once all of them saw ctx done.
func (p *Pool) Start(ctx context.Context, numWorkers int) {
	for i := 0; i < numWorkers; i++ {
		p.wg.Add(1)
		go p.run(ctx, i)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

func (p *Pool) Wait() { p.wg.Wait() }

func (p *Pool) run(ctx context.Context, id int) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop: waits up to 5s then loops to check ctx
			result, err := p.rdb.BRPop(ctx, 5*time.Second, p.queues...).Result()
			if err != nil || len(result) < 2 {
				continue
			}
			p.processJob(ctx, result[0], result[1])
		}
	}
}

func (p *Pool) processJob(ctx context.Context, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		quoted, _ := json.Marshal(raw)
		SendToDLQ(ctx, p.rdb, queue, "", quoted, "malformed envelope", 0)
		return
	}

	h, ok := p.handlers[job.Type]
	if !ok {
		metrics.JobsTotal.WithLabelValues(job.Type, "unknown").Inc()
		SendToDLQ(ctx, p.rdb, queue, job.Type, job.Payload, "no handler for job type", job.Attempts)
		return
	}

	job.Attempts++
	err := h.Process(ctx, job.Payload)
	if err == nil {
		metrics.JobsTotal.WithLabelValues(job.Type, "ok").Inc()
		return
	}

	if job.Attempts >= MaxJobAttempts {
		metrics.JobsTotal.WithLabelValues(job.Type, "dlq").Inc()
		SendToDLQ(ctx, p.rdb, queue, job.Type, job.Payload, err.Error(), job.Attempts)
		return
	}

	metrics.JobsTotal.WithLabelValues(job.Type, "retry").Inc()
	log.Warn().Err(err).Str("type", job.Type).Int("attempt", job.Attempts).Msg("job failed, re-enqueueing")
	if pushErr := push(ctx, p.rdb, queue, job); pushErr != nil {
		log.Error().Err(pushErr).Str("type", job.Type).Msg("failed to re-enqueue job")
	}
}
