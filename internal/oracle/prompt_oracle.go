// internal/oracle/prompt_oracle.go
package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	apperrors "autoease/internal/common/errors"
	"autoease/internal/common/logger"
	"autoease/internal/common/metrics"
	"autoease/internal/models"
)

// PromptOracle ranks stations and recommends services by prompting a
// TextGenerator and validating what comes back.
type PromptOracle struct {
	generator TextGenerator
	logger    logger.Logger
}

func NewPromptOracle(generator TextGenerator, log logger.Logger) *PromptOracle {
	return &PromptOracle{
		generator: generator,
		logger:    log.WithFields(map[string]interface{}{"component": "prompt-oracle"}),
	}
}

// RankStations returns the oracle's entries for the requested stations.
// Entries must only reference requested ids; omissions are allowed.
func (o *PromptOracle) RankStations(ctx context.Context, req RankRequest) ([]RankedEntry, error) {
	start := time.Now()
	text, err := o.generator.Generate(ctx, buildRankPrompt(req))
	if err != nil {
		mapped := o.mapError(ctx, err, start)
		o.observe("rank", mapped, start)
		return nil, mapped
	}

	entries, err := parseRankResponse(text, req)
	o.observe("rank", err, start)
	if err != nil {
		o.logger.Warn("rank response rejected", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, err
	}

	o.logger.Debug("rank response accepted", map[string]interface{}{
		"requested": len(req.Stations),
		"returned":  len(entries),
	})
	return entries, nil
}

// Recommend maps an issue description to known services. Unknown names are
// dropped and duplicates removed; an empty result is valid.
func (o *PromptOracle) Recommend(ctx context.Context, carType models.CarType, issue string) ([]models.Service, error) {
	req, err := newRecommendRequest(carType, issue)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	text, err := o.generator.Generate(ctx, buildRecommendPrompt(req))
	if err != nil {
		mapped := o.mapError(ctx, err, start)
		o.observe("recommend", mapped, start)
		return nil, mapped
	}

	names, err := parseRecommendResponse(text)
	o.observe("recommend", err, start)
	if err != nil {
		return nil, err
	}

	services := NormalizeServices(names)
	if carType == models.CarTypeMotorcycle {
		services = without(services, models.ServiceAirConditioningRepair)
	}
	return services, nil
}

func (o *PromptOracle) mapError(ctx context.Context, err error, start time.Time) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) ||
		(errors.As(err, &netErr) && netErr.Timeout()) {
		return apperrors.NewOracleTimeoutError(time.Since(start).Round(time.Millisecond))
	}
	return apperrors.NewOracleFailureError(err)
}

func (o *PromptOracle) observe(operation string, err error, start time.Time) {
	outcome := "success"
	switch {
	case errors.Is(err, context.Canceled):
		outcome = "canceled"
	case err != nil:
		outcome = strings.ToLower(string(apperrors.CodeOf(err)))
	}
	metrics.OracleCallDuration.WithLabelValues(operation, outcome).Observe(time.Since(start).Seconds())
}

func newRecommendRequest(carType models.CarType, issue string) (RecommendRequest, error) {
	if !carType.Valid() {
		return RecommendRequest{}, apperrors.NewInputValidationError(fmt.Sprintf("unknown car type %q", carType))
	}
	issue = strings.TrimSpace(issue)
	if issue == "" {
		return RecommendRequest{}, apperrors.NewInputValidationError("issue description is required")
	}
	return RecommendRequest{CarType: carType.String(), IssueDescription: issue}, nil
}

func parseRankResponse(text string, req RankRequest) ([]RankedEntry, error) {
	payload, ok := extractJSON(text)
	if !ok {
		return nil, apperrors.NewInvalidResponseError("no JSON payload in rank response")
	}

	result, err := rankSchema.ValidateJSON(payload)
	if err != nil {
		return nil, apperrors.NewInvalidResponseError(err.Error())
	}
	if !result.Valid {
		return nil, apperrors.NewInvalidResponseError(result.Error())
	}

	var entries []RankedEntry
	if err := json.Unmarshal([]byte(payload), &entries); err != nil {
		return nil, apperrors.NewInvalidResponseError(err.Error())
	}

	requested := make(map[string]bool, len(req.Stations))
	for _, st := range req.Stations {
		requested[st.ID] = true
	}
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		if !requested[e.ID] {
			return nil, apperrors.NewInvalidResponseError(fmt.Sprintf("unknown station id %q", e.ID))
		}
		if seen[e.ID] {
			return nil, apperrors.NewInvalidResponseError(fmt.Sprintf("duplicate station id %q", e.ID))
		}
		seen[e.ID] = true
	}

	return entries, nil
}

func parseRecommendResponse(text string) ([]string, error) {
	payload, ok := extractJSON(text)
	if !ok {
		return nil, apperrors.NewInvalidResponseError("no JSON payload in recommendation response")
	}

	result, err := recommendSchema.ValidateJSON(payload)
	if err != nil {
		return nil, apperrors.NewInvalidResponseError(err.Error())
	}
	if !result.Valid {
		return nil, apperrors.NewInvalidResponseError(result.Error())
	}

	if strings.HasPrefix(payload, "[") {
		var names []string
		if err := json.Unmarshal([]byte(payload), &names); err != nil {
			return nil, apperrors.NewInvalidResponseError(err.Error())
		}
		return names, nil
	}

	var resp RecommendResponse
	if err := json.Unmarshal([]byte(payload), &resp); err != nil {
		return nil, apperrors.NewInvalidResponseError(err.Error())
	}
	return resp.RecommendedServices, nil
}

// NormalizeServices keeps names that match a known service (case-insensitive),
// in first-seen order, without duplicates.
func NormalizeServices(names []string) []models.Service {
	out := make([]models.Service, 0, len(names))
	seen := make(map[models.Service]bool, len(names))
	for _, name := range names {
		svc, ok := models.ParseServiceFold(name)
		if !ok || seen[svc] {
			continue
		}
		seen[svc] = true
		out = append(out, svc)
	}
	return out
}

func without(services []models.Service, drop models.Service) []models.Service {
	out := services[:0]
	for _, s := range services {
		if s != drop {
			out = append(out, s)
		}
	}
	return out
}
