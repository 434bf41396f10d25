package rankstations

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"autoease/internal/catalog"
	"autoease/internal/common/camunda/camundatest"
	"autoease/internal/common/errors"
	"autoease/internal/common/logger"
	"autoease/internal/models"
	"autoease/internal/ranking"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{
		Timeout: 3 * time.Second,
	}
}

type testLogger struct {
	t *testing.T
}

func (tl *testLogger) Debug(msg string, fields map[string]interface{}) {
	tl.t.Logf("DEBUG: %s %v", msg, fields)
}

func (tl *testLogger) Info(msg string, fields map[string]interface{}) {
	tl.t.Logf("INFO: %s %v", msg, fields)
}

func (tl *testLogger) Warn(msg string, fields map[string]interface{}) {
	tl.t.Logf("WARN: %s %v", msg, fields)
}

func (tl *testLogger) Error(msg string, fields map[string]interface{}) {
	tl.t.Logf("ERROR: %s %v", msg, fields)
}

func (tl *testLogger) WithFields(fields map[string]interface{}) logger.Logger {
	return tl
}

func (tl *testLogger) WithError(err error) logger.Logger {
	return tl.WithFields(map[string]interface{}{"error": err})
}

func (tl *testLogger) With(fields map[string]interface{}) logger.Logger {
	return tl
}

func newTestLogger(t *testing.T) logger.Logger {
	return &testLogger{t: t}
}

func newTestHandler(t *testing.T, config *Config) *Handler {
	log := newTestLogger(t)
	return NewHandler(
		config,
		ranking.NewEngine(ranking.NewHeuristicScorer(), log),
		catalog.NewHolder(catalog.SampleCatalog()),
		log,
	)
}

func createMockJob(key int64, variables map[string]interface{}) entities.Job {
	variablesJSON, _ := json.Marshal(variables)

	activatedJob := &pb.ActivatedJob{
		Key:                key,
		Type:               TaskType,
		ProcessInstanceKey: key * 10,
		BpmnProcessId:      "car-repair-booking",
		ElementId:          "Activity_RankStations",
		CustomHeaders:      "{}",
		Worker:             "test-worker",
		Retries:            3,
		Variables:          string(variablesJSON),
	}

	return entities.Job{ActivatedJob: activatedJob}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute(t *testing.T) {
	tests := []struct {
		name           string
		input          *Input
		config         *Config
		expectedCode   errors.ErrorCode
		validateOutput func(t *testing.T, output *Output)
	}{
		{
			name:   "suv oil change",
			input:  &Input{CarType: "SUV", Service: "Oil Change"},
			config: createTestConfig(),
			validateOutput: func(t *testing.T, output *Output) {
				require.Equal(t, 2, output.StationCount)
				ids := []string{output.RankedStations[0].ID, output.RankedStations[1].ID}
				assert.ElementsMatch(t, []string{"station-2", "station-5"}, ids)
				assert.Equal(t, "heuristic", output.Scorer)
			},
		},
		{
			name:   "max items truncates",
			input:  &Input{CarType: "Sedan", Service: "Oil Change"},
			config: &Config{Timeout: time.Second, MaxItems: 1},
			validateOutput: func(t *testing.T, output *Output) {
				assert.Equal(t, 1, output.StationCount)
			},
		},
		{
			name:   "motorcycle tire rotation",
			input:  &Input{CarType: "Motorcycle", Service: "Tire Rotation"},
			config: createTestConfig(),
			validateOutput: func(t *testing.T, output *Output) {
				assert.Equal(t, 1, output.StationCount, "only the all-round station qualifies")
				assert.Equal(t, "station-5", output.RankedStations[0].ID)
			},
		},
		{
			name:         "unknown car type",
			input:        &Input{CarType: "Tractor", Service: "Oil Change"},
			config:       createTestConfig(),
			expectedCode: errors.ErrCodeInvalidSelection,
		},
		{
			name:         "unknown service",
			input:        &Input{CarType: "SUV", Service: "Paint Job"},
			config:       createTestConfig(),
			expectedCode: errors.ErrCodeInvalidSelection,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(t, tt.config)
			output, err := h.Execute(context.Background(), tt.input)

			if tt.expectedCode != "" {
				require.Error(t, err)
				assert.Equal(t, tt.expectedCode, errors.CodeOf(err))
				return
			}
			require.NoError(t, err)
			tt.validateOutput(t, output)
		})
	}
}

// ==========================
// Job Parsing Tests
// ==========================

func TestHandler_Process(t *testing.T) {
	h := newTestHandler(t, createTestConfig())

	output, err := h.process(context.Background(), createMockJob(1, map[string]interface{}{
		"carType":   "Truck",
		"service":   "Engine Diagnostics",
		"requestId": "unrelated-process-variable",
	}))
	require.NoError(t, err)
	assert.Equal(t, 2, output.StationCount)

	_, err = h.process(context.Background(), createMockJob(2, map[string]interface{}{
		"carType": "Truck",
	}))
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInputValidation, errors.CodeOf(err))

	job := createMockJob(3, nil)
	job.Variables = "{not json"
	_, err = h.process(context.Background(), job)
	assert.Equal(t, errors.ErrCodeInputValidation, errors.CodeOf(err))
}

func TestHandler_InputValidationIsNotRetried(t *testing.T) {
	bpmn := errors.ConvertToBPMNError(errors.NewInputValidationError("missing service"))
	assert.Equal(t, 0, bpmn.Retries)

	bpmn = errors.ConvertToBPMNError(errors.NewOracleFailureError(assert.AnError))
	assert.Equal(t, 3, bpmn.Retries)
}

// ==========================
// Job Result Reporting Tests
// ==========================

type deadlineScorer struct{}

func (deadlineScorer) Name() string { return "deadline" }

func (deadlineScorer) Score(ctx context.Context, _ ranking.Query, _ []models.Station) ([]ranking.Score, error) {
	<-ctx.Done()
	return nil, errors.NewOracleTimeoutError(time.Millisecond)
}

func TestHandler_Handle_CompletesJob(t *testing.T) {
	gateway := &camundatest.Gateway{}
	h := newTestHandler(t, createTestConfig())

	h.Handle(camundatest.NewJobClient(gateway), createMockJob(1, map[string]interface{}{
		"carType": "SUV",
		"service": "Oil Change",
	}))

	require.Len(t, gateway.Completed, 1)
	var out Output
	require.NoError(t, json.Unmarshal([]byte(gateway.Completed[0].Variables), &out))
	assert.Equal(t, 2, out.StationCount)
}

func TestHandler_Handle_TimeoutReportedAfterDeadline(t *testing.T) {
	gateway := &camundatest.Gateway{}
	log := newTestLogger(t)
	h := NewHandler(
		&Config{Timeout: 20 * time.Millisecond},
		ranking.NewEngine(deadlineScorer{}, log),
		catalog.NewHolder(catalog.SampleCatalog()),
		log,
	)

	h.Handle(camundatest.NewJobClient(gateway), createMockJob(2, map[string]interface{}{
		"carType": "SUV",
		"service": "Oil Change",
	}))

	require.Len(t, gateway.Failed, 1)
	assert.Equal(t, []error{nil}, gateway.CtxErrs)
	assert.Contains(t, gateway.Failed[0].Variables, "ORACLE_TIMEOUT")
}
