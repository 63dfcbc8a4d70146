// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"time"

	apperrors "subtrack-workers/internal/common/errors"
	"subtrack-workers/internal/common/logger"
	"subtrack-workers/internal/common/metrics"
	"subtrack-workers/internal/common/observability"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// JobHandler reports the job outcome to the engine itself and returns the
// error it reported, or nil when the job was completed.
type JobHandler interface {
	Handle(ctx context.Context, client worker.JobClient, job entities.Job) error
}

type HandlerFunc func(ctx context.Context, client worker.JobClient, job entities.Job) error

func (f HandlerFunc) Handle(ctx context.Context, client worker.JobClient, job entities.Job) error {
	return f(ctx, client, job)
}

type WorkerOptions struct {
	MaxJobsActive int
	Timeout       time.Duration
	Concurrency   int
}

type CamundaWorker struct {
	worker   worker.JobWorker
	logger   logger.Logger
	taskType string
}

// NewWorker opens a job worker for taskType.
func NewWorker(
	client zbc.Client,
	taskType string,
	opts WorkerOptions,
	handler JobHandler,
	obs *observability.Observability,
	log logger.Logger,
) *CamundaWorker {
	step := client.NewJobWorker().
		JobType(taskType).
		Handler(Instrument(taskType, handler, obs, log))
	if opts.MaxJobsActive > 0 {
		step = step.MaxJobsActive(opts.MaxJobsActive)
	}
	if opts.Timeout > 0 {
		step = step.Timeout(opts.Timeout)
	}
	if opts.Concurrency > 0 {
		step = step.Concurrency(opts.Concurrency)
	}

	w := &CamundaWorker{
		worker:   step.Open(),
		logger:   log,
		taskType: taskType,
	}
	log.Info("worker started", map[string]interface{}{
		"taskType":      taskType,
		"maxJobsActive": opts.MaxJobsActive,
	})
	return w
}

// Instrument wraps handler with a span, Prometheus and otel job metrics.
func Instrument(taskType string, handler JobHandler, obs *observability.Observability, log logger.Logger) worker.JobHandler {
	return func(client worker.JobClient, job entities.Job) {
		start := time.Now()
		active := metrics.WorkerJobsActive.WithLabelValues(taskType)
		active.Inc()
		defer active.Dec()

		ctx, span := obs.StartSpan(context.Background(), taskType,
			attribute.Int64("job.key", job.Key),
			attribute.Int64("process.instance.key", job.ProcessInstanceKey),
		)
		defer span.End()

		status, code := "completed", ""
		if err := handler.Handle(ctx, client, job); err != nil {
			status = "failed"
			code = string(apperrors.Normalize(err).Code)
			span.RecordError(err)
			span.SetStatus(codes.Error, code)
			log.Debug("job reported error", map[string]interface{}{
				"jobKey":    job.Key,
				"errorCode": code,
			})
		}

		elapsed := time.Since(start)
		metrics.ObserveJob(taskType, code, elapsed)
		obs.RecordJobProcessed(ctx, taskType, status)
		obs.RecordJobDuration(ctx, taskType, elapsed, status)
	}
}

func (w *CamundaWorker) Stop() {
	w.logger.Info("stopping worker", map[string]interface{}{"taskType": w.taskType})
	w.worker.Close()
	w.worker.AwaitClose()
}
