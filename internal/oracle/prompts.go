// internal/oracle/prompts.go
package oracle

import (
	"fmt"
	"strings"

	"autoease/internal/common/validation"
)

const rankResponseSchema = `{
	"type": "array",
	"items": {
		"type": "object",
		"required": ["id", "rank", "reason"],
		"properties": {
			"id":     {"type": "string", "minLength": 1},
			"name":   {"type": "string"},
			"rank":   {"type": "number"},
			"reason": {"type": "string", "minLength": 1}
		}
	}
}`

const recommendResponseSchema = `{
	"oneOf": [
		{"type": "array", "items": {"type": "string"}},
		{
			"type": "object",
			"required": ["recommendedServices"],
			"properties": {
				"recommendedServices": {"type": "array", "items": {"type": "string"}}
			}
		}
	]
}`

var (
	rankSchema      = validation.MustCompile("oracle.rank-response", rankResponseSchema)
	recommendSchema = validation.MustCompile("oracle.recommend-response", recommendResponseSchema)
)

func buildRankPrompt(req RankRequest) string {
	var parts []string

	parts = append(parts, "You are an expert in matching car repair stations to customers based on their car type and service needs.")
	parts = append(parts, fmt.Sprintf("\nGiven the following car type: %s and service: %s, rank the following stations based on their suitability:\n", req.CarType, req.Service))

	for _, st := range req.Stations {
		parts = append(parts, fmt.Sprintf("- Name: %s, ID: %s, Services: %s, Car Types: %s",
			st.Name, st.ID, strings.Join(st.Services, ", "), strings.Join(st.CarTypes, ", ")))
	}

	parts = append(parts, "\nOutput the ranked stations with a rank (higher is better) and a reason for the ranking. Ensure that the output is a JSON array of objects.")
	parts = append(parts, `Each object must have the fields "id", "name", "rank" and "reason". Only use the IDs listed above.`)

	return strings.Join(parts, "\n")
}

func buildRecommendPrompt(req RecommendRequest) string {
	var parts []string

	parts = append(parts, "You are an expert automotive technician. Based on the car type and the description of the issue, recommend a list of repair services that the user might need.")
	parts = append(parts, fmt.Sprintf("\nCar Type: %s", req.CarType))
	parts = append(parts, fmt.Sprintf("Issue Description: %s", req.IssueDescription))
	parts = append(parts, "\nConsider common issues for the car type provided. Return a JSON array of strings. Do not provide any explanation, only the array.")
	parts = append(parts, `Example: ["Oil Change", "Tire Rotation"]`)

	return strings.Join(parts, "\n")
}

// extractJSON pulls the JSON payload out of model text, tolerating markdown
// code fences and surrounding prose.
func extractJSON(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		if nl := strings.IndexByte(text, '\n'); nl >= 0 {
			text = text[nl+1:]
		}
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}

	start := strings.IndexAny(text, "[{")
	if start < 0 {
		return "", false
	}
	closer := "]"
	if text[start] == '{' {
		closer = "}"
	}
	end := strings.LastIndex(text, closer)
	if end < start {
		return "", false
	}
	return text[start : end+1], true
}
