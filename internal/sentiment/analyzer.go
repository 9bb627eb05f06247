// Package sentiment reads free-text customer feedback with the AI gateway.
package sentiment

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/ignite/loyalty-crm/internal/aigateway"
	"github.com/ignite/loyalty-crm/internal/domain"
	"github.com/ignite/loyalty-crm/internal/pkg/logger"
	"github.com/ignite/loyalty-crm/internal/prompt"
)

// ErrEmptyFeedback is returned for blank feedback text.
var ErrEmptyFeedback = errors.New("feedback text is empty")

// maxFeedbackLen bounds how much text is sent to the model.
const maxFeedbackLen = 4000

// Neutral is the reading used when the model's answer cannot be parsed.
func Neutral() domain.SentimentAnalysis {
	return domain.SentimentAnalysis{
		SentimentScore:     0,
		KeyThemes:          []string{"Unable to analyze"},
		ActionableInsights: []string{"Review feedback manually"},
		Priority:           "medium",
	}
}

// Analyzer scores feedback sentiment.
type Analyzer struct {
	gen     aigateway.Generator
	prompts *prompt.Renderer
}

// NewAnalyzer creates an Analyzer.
func NewAnalyzer(gen aigateway.Generator) *Analyzer {
	if gen == nil {
		gen = aigateway.Disabled{}
	}
	return &Analyzer{gen: gen, prompts: prompt.Default()}
}

// Analyze returns the model's reading of text. An unparsable answer gives
// Neutral; a gateway failure is returned to the caller, since there is no
// meaningful offline reading of free text.
func (a *Analyzer) Analyze(ctx context.Context, text string) (domain.SentimentAnalysis, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.SentimentAnalysis{}, ErrEmptyFeedback
	}
	if len(text) > maxFeedbackLen {
		text = text[:maxFeedbackLen]
	}

	p, err := a.prompts.Render(prompt.Sentiment, map[string]interface{}{
		"feedback": strings.ReplaceAll(text, `"`, `'`),
	})
	if err != nil {
		return domain.SentimentAnalysis{}, err
	}

	answer, err := a.gen.Generate(ctx, p)
	if err != nil {
		return domain.SentimentAnalysis{}, fmt.Errorf("analyze feedback: %w", err)
	}

	var out domain.SentimentAnalysis
	if err := aigateway.ExtractJSON(answer, &out); err != nil {
		logger.Warn("sentiment response unparsable, using neutral reading", "error", err)
		return Neutral(), nil
	}
	return sanitize(out), nil
}

func sanitize(s domain.SentimentAnalysis) domain.SentimentAnalysis {
	if math.IsNaN(s.SentimentScore) {
		s.SentimentScore = 0
	}
	s.SentimentScore = math.Max(-1, math.Min(1, s.SentimentScore))

	switch p := strings.ToLower(strings.TrimSpace(s.Priority)); p {
	case "high", "medium", "low":
		s.Priority = p
	default:
		s.Priority = "medium"
	}
	if s.KeyThemes == nil {
		s.KeyThemes = []string{}
	}
	if s.ActionableInsights == nil {
		s.ActionableInsights = []string{}
	}
	return s
}
