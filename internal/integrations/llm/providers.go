package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	defaultAnthropicModel = "claude-sonnet-4-5-20250929"
	defaultOpenAIModel    = "gpt-4o"
	defaultOpenAIBaseURL  = "https://api.openai.com/v1"
	maxResponseTokens     = 1500
)

type Usage struct {
	InputTokens              int64
	OutputTokens             int64
	CacheCreationInputTokens int64
	CacheReadInputTokens     int64
}

func (u Usage) TotalTokens() int64 {
	return u.InputTokens + u.OutputTokens
}

type completionFunc func(ctx context.Context, systemPrompt, userPrompt string) (string, Usage, error)

func anthropicCompletion(apiKey, model string) completionFunc {
	client := anthropic.NewClient(
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(externalHTTPClient),
		option.WithMaxRetries(0),
	)
	return func(ctx context.Context, systemPrompt, userPrompt string) (string, Usage, error) {
		message, err := client.Messages.New(ctx, anthropic.MessageNewParams{
			Model:     anthropic.Model(model),
			MaxTokens: maxResponseTokens,
			System: []anthropic.TextBlockParam{
				{Text: systemPrompt, CacheControl: anthropic.NewCacheControlEphemeralParam()},
			},
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
			},
		})
		if err != nil {
			return "", Usage{}, fmt.Errorf("Anthropic API error: %w", err)
		}
		usage := Usage{
			InputTokens:              message.Usage.InputTokens,
			OutputTokens:             message.Usage.OutputTokens,
			CacheCreationInputTokens: message.Usage.CacheCreationInputTokens,
			CacheReadInputTokens:     message.Usage.CacheReadInputTokens,
		}
		for _, block := range message.Content {
			if block.Type == "text" {
				log.Printf("llm anthropic response size=%d tokens_in=%d tokens_out=%d cache_create=%d cache_read=%d",
					len(block.Text), usage.InputTokens, usage.OutputTokens, usage.CacheCreationInputTokens, usage.CacheReadInputTokens)
				return block.Text, usage, nil
			}
		}
		return "", usage, fmt.Errorf("no text content in Anthropic response")
	}
}

type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Temperature float64         `json:"temperature"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int64 `json:"prompt_tokens"`
		CompletionTokens int64 `json:"completion_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func openAICompletion(baseURL, apiKey, model string) completionFunc {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	endpoint := baseURL + "/chat/completions"

	return func(ctx context.Context, systemPrompt, userPrompt string) (string, Usage, error) {
		bodyBytes, err := json.Marshal(openAIRequest{
			Model: model,
			Messages: []openAIMessage{
				{Role: "system", Content: systemPrompt},
				{Role: "user", Content: userPrompt},
			},
			MaxTokens: maxResponseTokens,
		})
		if err != nil {
			return "", Usage{}, fmt.Errorf("marshaling request: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bodyBytes))
		if err != nil {
			return "", Usage{}, fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+apiKey)

		resp, err := externalHTTPClient.Do(req)
		if err != nil {
			return "", Usage{}, fmt.Errorf("OpenAI API error: %w", err)
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", Usage{}, fmt.Errorf("reading response: %w", err)
		}

		var openAIResp openAIResponse
		if jsonErr := json.Unmarshal(respBody, &openAIResp); jsonErr != nil && resp.StatusCode/100 == 2 {
			return "", Usage{}, fmt.Errorf("parsing OpenAI response: %w", jsonErr)
		}
		if resp.StatusCode/100 != 2 {
			msg := strings.TrimSpace(string(respBody))
			if openAIResp.Error != nil {
				msg = openAIResp.Error.Message
			}
			return "", Usage{}, fmt.Errorf("OpenAI API error: %w", &apiStatusError{StatusCode: resp.StatusCode, Message: msg})
		}
		if openAIResp.Error != nil {
			return "", Usage{}, fmt.Errorf("OpenAI API error: %s", openAIResp.Error.Message)
		}
		if len(openAIResp.Choices) == 0 {
			return "", Usage{}, fmt.Errorf("no choices in OpenAI response")
		}

		usage := Usage{}
		if openAIResp.Usage != nil {
			usage.InputTokens = openAIResp.Usage.PromptTokens
			usage.OutputTokens = openAIResp.Usage.CompletionTokens
		}
		content := openAIResp.Choices[0].Message.Content
		log.Printf("llm openai response size=%d tokens_in=%d tokens_out=%d", len(content), usage.InputTokens, usage.OutputTokens)
		return content, usage, nil
	}
}
