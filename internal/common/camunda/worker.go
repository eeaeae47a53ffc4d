// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"advisor-match-workers/internal/common/config"
	"advisor-match-workers/internal/common/errors"
	"advisor-match-workers/internal/common/logger"
	"advisor-match-workers/internal/common/metrics"
	"advisor-match-workers/internal/common/observability"
	"advisor-match-workers/internal/common/validation"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// commandTimeout bounds the complete, fail and throw calls made after execute returns.
const commandTimeout = 10 * time.Second

// ExecuteFunc receives the raw job variables and returns the object to complete the job with.
type ExecuteFunc func(ctx context.Context, variables []byte) (interface{}, error)

// JobProcessor runs one job through decode, execute and complete, recording metrics and
// routing failures through the shared ErrorHandler.
type JobProcessor struct {
	taskType   string
	timeout    time.Duration
	errHandler *errors.ErrorHandler
	obs        *observability.Observability
	schema     *validation.Schema
	logger     logger.Logger
}

func NewJobProcessor(taskType string, timeout time.Duration, obs *observability.Observability, log logger.Logger) *JobProcessor {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &JobProcessor{
		taskType:   taskType,
		timeout:    timeout,
		errHandler: errors.NewErrorHandler(log),
		obs:        obs,
		logger:     log,
	}
}

// WithSchema makes Process reject variables that do not satisfy s before execute runs.
func (p *JobProcessor) WithSchema(s *validation.Schema) *JobProcessor {
	p.schema = s
	return p
}

func (p *JobProcessor) Process(client worker.JobClient, job entities.Job, execute ExecuteFunc) {
	start := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(p.taskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(p.taskType).Dec()

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	p.logger.Info("processing job", map[string]interface{}{
		"jobKey":             job.Key,
		"processInstanceKey": job.ProcessInstanceKey,
	})

	output, err := p.run(ctx, []byte(job.Variables), execute)

	// ctx may already be expired here; the job result still has to reach the gateway.
	sendCtx, sendCancel := context.WithTimeout(context.WithoutCancel(ctx), commandTimeout)
	defer sendCancel()

	if err == nil {
		err = p.complete(sendCtx, client, job, output)
	}

	status := "completed"
	if err != nil {
		status = "failed"
		stdErr := errors.Normalize(err)
		metrics.WorkerJobsFailed.WithLabelValues(p.taskType, string(stdErr.Code)).Inc()
		p.errHandler.HandleJobError(sendCtx, client, job, stdErr)
	} else {
		metrics.WorkerJobsCompleted.WithLabelValues(p.taskType).Inc()
	}

	elapsed := time.Since(start)
	metrics.WorkerJobDuration.WithLabelValues(p.taskType).Observe(elapsed.Seconds())
	p.obs.RecordJobProcessed(ctx, p.taskType, status)
	p.obs.RecordJobDuration(ctx, p.taskType, elapsed, status)
}

func (p *JobProcessor) run(ctx context.Context, variables []byte, execute ExecuteFunc) (interface{}, error) {
	if p.schema != nil {
		if err := p.schema.Validate(variables); err != nil {
			return nil, err
		}
	}
	return execute(ctx, variables)
}

func (p *JobProcessor) complete(ctx context.Context, client worker.JobClient, job entities.Job, output interface{}) error {
	cmd, err := client.NewCompleteJobCommand().JobKey(job.Key).VariablesFromObject(output)
	if err != nil {
		return errors.NewInternalError(fmt.Errorf("encode job output: %w", err))
	}
	if _, err := cmd.Send(ctx); err != nil {
		return errors.NewExternalServiceError("zeebe", err)
	}
	p.logger.Info("job completed", map[string]interface{}{"jobKey": job.Key})
	return nil
}

// DecodeVariables unmarshals job variables into v, reporting malformed payloads as
// validation failures.
func DecodeVariables(variables []byte, v interface{}) error {
	if len(variables) == 0 {
		variables = []byte("{}")
	}
	if err := json.Unmarshal(variables, v); err != nil {
		return errors.NewValidationError(fmt.Sprintf("invalid job variables: %v", err))
	}
	return nil
}

// StartWorker opens a job worker for taskType when it is enabled in config.
func StartWorker(client zbc.Client, taskType string, wcfg config.WorkerConfig, handler worker.JobHandler, log logger.Logger) worker.JobWorker {
	if !wcfg.Enabled {
		log.Info("worker disabled", map[string]interface{}{"taskType": taskType})
		return nil
	}

	jw := client.NewJobWorker().
		JobType(taskType).
		Handler(handler).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(config.GetDuration(wcfg.Timeout)).
		Open()

	log.Info("worker started", map[string]interface{}{
		"taskType":      taskType,
		"maxJobsActive": wcfg.MaxJobsActive,
		"timeout_ms":    wcfg.Timeout,
	})
	return jw
}
