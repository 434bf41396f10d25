// internal/workers/ai-assist/recommend-services/handler.go
package recommendservices

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"autoease/internal/common/errors"
	"autoease/internal/common/logger"
	"autoease/internal/common/metrics"
	"autoease/internal/common/validation"
	"autoease/internal/models"
	"autoease/internal/oracle"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "recommend-services"

	reportTimeout = 5 * time.Second

	sourcePrimary  = "primary"
	sourceFallback = "keyword-fallback"
)

var schema = validation.MustCompile(TaskType+".input", inputSchema)

type Handler struct {
	config      *Config
	recommender oracle.Recommender
	fallback    oracle.Recommender
	errHandler  *errors.ErrorHandler
	logger      logger.Logger
}

func NewHandler(config *Config, recommender oracle.Recommender, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:      config,
		recommender: recommender,
		fallback:    oracle.NewKeywordRecommender(),
		errHandler:  errors.NewErrorHandler(l),
		logger:      l,
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
	carType, ok := models.ParseCarType(input.CarType)
	if !ok {
		return nil, errors.NewInputValidationError(fmt.Sprintf("unknown car type %q", input.CarType))
	}

	source := sourcePrimary
	services, err := h.recommender.Recommend(ctx, carType, input.IssueDescription)
	if err != nil && h.shouldFallback(err) {
		h.logger.Warn("recommender failed, using keyword fallback", map[string]interface{}{
			"error": err.Error(),
		})
		source = sourceFallback
		// the primary call may have used up ctx
		services, err = h.fallback.Recommend(context.WithoutCancel(ctx), carType, input.IssueDescription)
	}
	if err != nil {
		return nil, err
	}

	h.logger.Info("services recommended", map[string]interface{}{
		"carType": input.CarType,
		"count":   len(services),
		"source":  source,
	})

	return &Output{
		RecommendedServices: models.ServiceStrings(services),
		Source:              source,
	}, nil
}

func (h *Handler) shouldFallback(err error) bool {
	if !h.config.FallbackOnError {
		return false
	}
	switch errors.CodeOf(err) {
	case errors.ErrCodeOracleFailure, errors.ErrCodeOracleTimeout, errors.ErrCodeInvalidResponse:
		return true
	}
	return false
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
