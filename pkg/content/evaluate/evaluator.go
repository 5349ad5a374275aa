package evaluate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"ai-docedit-be/pkg/llm"
)

// Assessment is the parsed verdict of the scoring model.
type Assessment struct {
	Score        int      `json:"score"`
	Deficiencies []string `json:"deficiencies"`
}

// Evaluator scores a validated fragment against the task description and
// style guidelines using the configured model.
type Evaluator struct {
	provider llm.LLMProvider
	prompt   string
	rules    string
}

func NewEvaluator(provider llm.LLMProvider, promptTemplate, rules string) *Evaluator {
	return &Evaluator{provider: provider, prompt: promptTemplate, rules: rules}
}

// Evaluate asks the model for a 0-100 score plus a deficiency list. A reply
// that cannot be parsed as the expected JSON object is an upstream error, not
// a zero score.
func (e *Evaluator) Evaluate(ctx context.Context, description, styleGuidelines, fragment string) (Assessment, error) {
	prompt := fmt.Sprintf(e.prompt, description, styleGuidelines, fragment, e.rules)

	reply, err := e.provider.Generate(ctx, prompt, llm.WithTemperature(0.2))
	if err != nil {
		return Assessment{}, fmt.Errorf("evaluator call failed: %w", err)
	}

	assessment, err := parseAssessment(reply)
	if err != nil {
		return Assessment{}, fmt.Errorf("evaluator reply unusable: %w", err)
	}
	return assessment, nil
}

// parseAssessment tolerates markdown fences and prose around the JSON object.
func parseAssessment(reply string) (Assessment, error) {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end <= start {
		return Assessment{}, fmt.Errorf("no JSON object in reply: %q", truncate(reply, 200))
	}

	var a Assessment
	if err := json.Unmarshal([]byte(reply[start:end+1]), &a); err != nil {
		return Assessment{}, fmt.Errorf("decode assessment: %w", err)
	}

	if a.Score < 0 {
		a.Score = 0
	}
	if a.Score > 100 {
		a.Score = 100
	}
	return a, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
