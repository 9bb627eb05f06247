package aigateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/genai"
)

// Gemini generates text with a Gemini model, on Vertex AI when a project is
// configured and on the Gemini API otherwise.
type Gemini struct {
	client      *genai.Client
	model       string
	temperature float32
}

// GeminiOptions configures NewGemini.
type GeminiOptions struct {
	Model      string
	Project    string
	Location   string
	APIKey     string
	BaseURL    string // test servers only
	HTTPClient *http.Client
}

// NewGemini creates a Gemini generator.
func NewGemini(ctx context.Context, opts GeminiOptions) (*Gemini, error) {
	if opts.Model == "" {
		opts.Model = "gemini-2.0-flash"
	}

	cc := &genai.ClientConfig{HTTPClient: opts.HTTPClient}
	switch {
	case opts.Project != "":
		cc.Backend = genai.BackendVertexAI
		cc.Project = opts.Project
		cc.Location = opts.Location
	case opts.APIKey != "":
		cc.Backend = genai.BackendGeminiAPI
		cc.APIKey = opts.APIKey
	default:
		return nil, fmt.Errorf("gemini: project or api key is required")
	}
	if opts.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &Gemini{client: client, model: opts.Model, temperature: 0.7}, nil
}

// Generate sends prompt as a single user turn and returns the response text.
func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature: genai.Ptr(g.temperature),
	})
	if err != nil {
		return "", classifyGemini(err)
	}
	text := resp.Text()
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func classifyGemini(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
		return fmt.Errorf("%w: gemini: %v", ErrRateLimited, err)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr.Code == http.StatusTooManyRequests {
		return fmt.Errorf("%w: gemini: %v", ErrRateLimited, err)
	}
	if rateLimitedText(err) {
		return fmt.Errorf("%w: gemini: %v", ErrRateLimited, err)
	}
	return fmt.Errorf("gemini generate: %w", err)
}
