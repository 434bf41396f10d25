// internal/workers/ai-assist/recommend-services/models.go
package recommendservices

type Input struct {
	CarType          string `json:"carType"`
	IssueDescription string `json:"issueDescription"`
}

type Output struct {
	RecommendedServices []string `json:"recommendedServices"`
	Source              string   `json:"source"`
}

const inputSchema = `{
	"type": "object",
	"required": ["carType", "issueDescription"],
	"properties": {
		"carType":          {"type": "string", "minLength": 1},
		"issueDescription": {"type": "string", "minLength": 1, "maxLength": 2000}
	}
}`
