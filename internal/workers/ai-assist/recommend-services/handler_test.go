package recommendservices

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"autoease/internal/common/camunda/camundatest"
	"autoease/internal/common/errors"
	"autoease/internal/common/logger"
	"autoease/internal/models"
	"autoease/internal/oracle"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mock Implementations
// ==========================

type MockRecommender struct {
	mock.Mock
}

func (m *MockRecommender) Recommend(ctx context.Context, carType models.CarType, issue string) ([]models.Service, error) {
	args := m.Called(ctx, carType, issue)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Service), args.Error(1)
}

// deadlineRecommender holds the call until its context expires, like a
// generator that never answers.
type deadlineRecommender struct{}

func (deadlineRecommender) Recommend(ctx context.Context, _ models.CarType, _ string) ([]models.Service, error) {
	<-ctx.Done()
	return nil, errors.NewOracleTimeoutError(time.Millisecond)
}

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{
		Timeout:         2 * time.Second,
		FallbackOnError: true,
	}
}

func createMockJob(key int64, variables map[string]interface{}) entities.Job {
	variablesJSON, _ := json.Marshal(variables)

	return entities.Job{ActivatedJob: &pb.ActivatedJob{
		Key:                key,
		Type:               TaskType,
		ProcessInstanceKey: key * 10,
		BpmnProcessId:      "car-repair-booking",
		ElementId:          "Activity_RecommendServices",
		Retries:            3,
		Variables:          string(variablesJSON),
	}}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Primary(t *testing.T) {
	rec := new(MockRecommender)
	rec.On("Recommend", mock.Anything, models.CarTypeSedan, "brakes squeal").
		Return([]models.Service{models.ServiceBrakeInspection}, nil)

	h := NewHandler(createTestConfig(), rec, logger.NewTestLogger(t))
	output, err := h.Execute(context.Background(), &Input{CarType: "Sedan", IssueDescription: "brakes squeal"})

	require.NoError(t, err)
	assert.Equal(t, []string{"Brake Inspection"}, output.RecommendedServices)
	assert.Equal(t, sourcePrimary, output.Source)
	rec.AssertExpectations(t)
}

func TestHandler_Execute_EmptyResultIsValid(t *testing.T) {
	rec := new(MockRecommender)
	rec.On("Recommend", mock.Anything, models.CarTypeVan, "strange smell").
		Return([]models.Service{}, nil)

	h := NewHandler(createTestConfig(), rec, logger.NewTestLogger(t))
	output, err := h.Execute(context.Background(), &Input{CarType: "Van", IssueDescription: "strange smell"})

	require.NoError(t, err)
	assert.NotNil(t, output.RecommendedServices)
	assert.Empty(t, output.RecommendedServices)
}

func TestHandler_Execute_Fallback(t *testing.T) {
	tests := []struct {
		name         string
		config       *Config
		oracleErr    error
		expectedCode errors.ErrorCode
		expected     []string
	}{
		{
			name:      "oracle failure falls back to keywords",
			config:    createTestConfig(),
			oracleErr: errors.NewOracleFailureError(assert.AnError),
			expected:  []string{"Battery Replacement"},
		},
		{
			name:      "oracle timeout falls back to keywords",
			config:    createTestConfig(),
			oracleErr: errors.NewOracleTimeoutError(time.Second),
			expected:  []string{"Battery Replacement"},
		},
		{
			name:         "fallback disabled",
			config:       &Config{Timeout: time.Second},
			oracleErr:    errors.NewOracleFailureError(assert.AnError),
			expectedCode: errors.ErrCodeOracleFailure,
		},
		{
			name:         "validation errors are not masked",
			config:       createTestConfig(),
			oracleErr:    errors.NewInputValidationError("issue description is required"),
			expectedCode: errors.ErrCodeInputValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := new(MockRecommender)
			rec.On("Recommend", mock.Anything, models.CarTypeTruck, "battery is dead").Return(nil, tt.oracleErr)

			h := NewHandler(tt.config, rec, logger.NewTestLogger(t))
			output, err := h.Execute(context.Background(), &Input{CarType: "Truck", IssueDescription: "battery is dead"})

			if tt.expectedCode != "" {
				require.Error(t, err)
				assert.Equal(t, tt.expectedCode, errors.CodeOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, output.RecommendedServices)
			assert.Equal(t, sourceFallback, output.Source)
		})
	}
}

func TestHandler_Execute_UnknownCarType(t *testing.T) {
	rec := new(MockRecommender)
	h := NewHandler(createTestConfig(), rec, logger.NewTestLogger(t))

	_, err := h.Execute(context.Background(), &Input{CarType: "Boat", IssueDescription: "engine stalls"})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInputValidation, errors.CodeOf(err))
	rec.AssertNotCalled(t, "Recommend", mock.Anything, mock.Anything, mock.Anything)
}

// ==========================
// Job Parsing Tests
// ==========================

func TestHandler_Process(t *testing.T) {
	h := NewHandler(createTestConfig(), oracle.NewKeywordRecommender(), logger.NewTestLogger(t))

	output, err := h.process(context.Background(), createMockJob(1, map[string]interface{}{
		"carType":          "Motorcycle",
		"issueDescription": "engine overheating and the air con is broken",
	}))
	require.NoError(t, err)
	assert.Equal(t, []string{"Engine Diagnostics"}, output.RecommendedServices)

	_, err = h.process(context.Background(), createMockJob(2, map[string]interface{}{
		"carType": "Sedan",
	}))
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInputValidation, errors.CodeOf(err))
}

// ==========================
// Job Result Reporting Tests
// ==========================

func TestHandler_Handle_FallbackResultReportedAfterDeadline(t *testing.T) {
	gateway := &camundatest.Gateway{}
	h := NewHandler(&Config{Timeout: 20 * time.Millisecond, FallbackOnError: true}, deadlineRecommender{}, logger.NewTestLogger(t))

	h.Handle(camundatest.NewJobClient(gateway), createMockJob(7, map[string]interface{}{
		"carType":          "Motorcycle",
		"issueDescription": "engine overheating and the air con is broken",
	}))

	require.Len(t, gateway.Completed, 1)
	assert.Equal(t, []error{nil}, gateway.CtxErrs)
	assert.Equal(t, int64(7), gateway.Completed[0].JobKey)

	var out Output
	require.NoError(t, json.Unmarshal([]byte(gateway.Completed[0].Variables), &out))
	assert.Equal(t, sourceFallback, out.Source)
	assert.Equal(t, []string{"Engine Diagnostics"}, out.RecommendedServices)
}

func TestHandler_Handle_TimeoutFailureReportedAfterDeadline(t *testing.T) {
	gateway := &camundatest.Gateway{}
	h := NewHandler(&Config{Timeout: 20 * time.Millisecond}, deadlineRecommender{}, logger.NewTestLogger(t))

	h.Handle(camundatest.NewJobClient(gateway), createMockJob(8, map[string]interface{}{
		"carType":          "Sedan",
		"issueDescription": "strange noise",
	}))

	require.Len(t, gateway.Failed, 1)
	assert.Empty(t, gateway.Completed)
	assert.Equal(t, []error{nil}, gateway.CtxErrs)
	assert.Equal(t, int32(1), gateway.Failed[0].Retries)
}

func TestHandler_Handle_InvalidInputThrowsBPMNError(t *testing.T) {
	gateway := &camundatest.Gateway{}
	h := NewHandler(createTestConfig(), oracle.NewKeywordRecommender(), logger.NewTestLogger(t))

	h.Handle(camundatest.NewJobClient(gateway), createMockJob(9, map[string]interface{}{
		"carType": "Sedan",
	}))

	require.Len(t, gateway.Thrown, 1)
	assert.Equal(t, "INPUT_VALIDATION_FAILED", gateway.Thrown[0].ErrorCode)
}
