// internal/workers/stations/generate-availability/handler.go
package generateavailability

import (
	"context"
	"encoding/json"
	"time"

	"autoease/internal/availability"
	"autoease/internal/catalog"
	"autoease/internal/common/errors"
	"autoease/internal/common/logger"
	"autoease/internal/common/metrics"
	"autoease/internal/common/validation"
	"autoease/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "generate-availability"

	reportTimeout = 5 * time.Second
)

var schema = validation.MustCompile(TaskType+".input", inputSchema)

type Handler struct {
	config     *Config
	generator  *availability.Generator
	catalogs   *catalog.Holder
	errHandler *errors.ErrorHandler
	logger     logger.Logger
}

func NewHandler(config *Config, generator *availability.Generator, catalogs *catalog.Holder, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		generator:  generator,
		catalogs:   catalogs,
		errHandler: errors.NewErrorHandler(l),
		logger:     l,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.process(ctx, job)
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())

	// ctx may already be past its deadline here
	reportCtx, cancelReport := context.WithTimeout(context.Background(), reportTimeout)
	defer cancelReport()

	if err != nil {
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.CodeOf(err))).Inc()
		h.errHandler.HandleJobError(reportCtx, client, job, err)
		return
	}

	h.completeJob(reportCtx, client, job, output)
}

func (h *Handler) process(ctx context.Context, job entities.Job) (*Output, error) {
	result, err := schema.ValidateJSON(job.Variables)
	if err != nil {
		return nil, errors.NewInputValidationError(err.Error())
	}
	if !result.Valid {
		return nil, errors.NewInputValidationError(result.Error())
	}

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		return nil, errors.NewInputValidationError(err.Error())
	}
	return h.execute(ctx, &input)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	service := models.Service(input.Service)

	slots, err := h.generator.Availability(ctx, input.StationID, service, h.catalogs.Current())
	if err != nil {
		return nil, err
	}

	complexity := "routine"
	if service.IsComplex() {
		complexity = "complex"
	}

	h.logger.Info("availability generated", map[string]interface{}{
		"stationId": input.StationID,
		"service":   input.Service,
		"slots":     len(slots),
	})

	return &Output{
		StationID:  input.StationID,
		Service:    input.Service,
		TimeSlots:  slots,
		Complexity: complexity,
	}, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}

	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
