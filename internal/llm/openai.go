package llm

import (
	"context"
	"fmt"

	"ai-trip-planner/internal/config"
	"ai-trip-planner/internal/shared"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const openAIModel = openai.ChatModelGPT4oMini

// openAIClient is an OpenAI-backed TextGenerator, used when OPENAI_API_KEY is
// configured as an alternative to Groq for classification.
type openAIClient struct {
	client openai.Client
}

// NewOpenAIClient creates a new OpenAI chat-completions client.
func NewOpenAIClient(cfg *config.Config) TextGenerator {
	return &openAIClient{
		client: openai.NewClient(option.WithAPIKey(cfg.OpenAIAPIKey)),
	}
}

// GenerateContent sends a prompt to the OpenAI model and returns the generated text.
func (c *openAIClient) GenerateContent(ctx context.Context, prompt string) (ContentResponse, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openAIModel,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return ContentResponse{}, fmt.Errorf("openai api error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return ContentResponse{}, fmt.Errorf("no content generated")
	}

	return ContentResponse{
		Content: resp.Choices[0].Message.Content,
		Usage: shared.TokenUsage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
			Model:            string(openAIModel),
		},
	}, nil
}
