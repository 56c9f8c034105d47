package agent

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Generator is the surface the AI service depends on. Keeping it small
// lets tests swap in a canned generator without touching the Gemini SDK.
type Generator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
	GenerateJSON(ctx context.Context, prompt string) (string, error)
	Close()
}

type LLMClient struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

func NewLLMClient(ctx context.Context) (*LLMClient, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is not set")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	model := client.GenerativeModel("gemini-2.5-flash")
	model.SetTemperature(0.7)

	return &LLMClient{
		client: client,
		model:  model,
	}, nil
}

func (c *LLMClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	c.model.ResponseMIMEType = "text/plain"
	return c.generate(ctx, prompt)
}

// GenerateJSON asks the model for a JSON response and strips the markdown
// fences some models still wrap around it.
func (c *LLMClient) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	c.model.ResponseMIMEType = "application/json"
	raw, err := c.generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	return CleanJSON(raw), nil
}

func (c *LLMClient) generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no response from LLM")
	}

	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			return strings.TrimSpace(string(txt)), nil
		}
	}

	return "", fmt.Errorf("no text content in response")
}

// CleanJSON removes ```json fences around a model response.
func CleanJSON(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func (c *LLMClient) Close() {
	c.client.Close()
}
