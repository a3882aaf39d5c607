package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/ZaguanLabs/rpgtl"
	"github.com/sashabaranov/go-openai"
)

// OpenAIProvider implements Provider using OpenAI's chat completions API.
// Control codes are protected exactly as for Lingva.
type OpenAIProvider struct {
	client      *openai.Client
	model       string
	temperature float32
	endpoint    string
}

// OpenAIConfig holds configuration for the OpenAI provider.
type OpenAIConfig struct {
	APIKey      string  // OpenAI API key (uses OPENAI_API_KEY env var if empty)
	Model       string  // Model to use (default: "gpt-4o-mini")
	Temperature float32 // Temperature for generation (default: 0.3)
	BaseURL     string  // Custom base URL (optional)
}

// NewOpenAIProvider creates a new OpenAI provider.
func NewOpenAIProvider(cfg OpenAIConfig) *OpenAIProvider {
	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}

	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = 0.3
	}

	return &OpenAIProvider{
		client:      openai.NewClientWithConfig(config),
		model:       model,
		temperature: temperature,
		endpoint:    config.BaseURL,
	}
}

// Translate translates one string using OpenAI.
func (p *OpenAIProvider) Translate(ctx context.Context, req TranslateRequest) (string, error) {
	if strings.TrimSpace(req.Text) == "" {
		return "", &rpgtl.ValidationError{Field: "text", Message: "must be a non-empty string"}
	}
	if strings.TrimSpace(req.TargetLang) == "" {
		return "", &rpgtl.ValidationError{Field: "target language", Message: "must be specified"}
	}

	protected := rpgtl.Protect(req.Text)

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: p.buildSystemPrompt(req)},
			{Role: openai.ChatMessageRoleUser, Content: protected.Body},
		},
		Temperature: p.temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", p.fail(&rpgtl.EndpointError{
			Endpoint:   p.endpoint,
			StatusCode: statusOf(err),
			Message:    "OpenAI API call failed",
			Cause:      err,
			Retryable:  isRetryableError(err),
		})
	}

	if len(resp.Choices) == 0 {
		return "", p.fail(&rpgtl.EndpointError{
			Endpoint:  p.endpoint,
			Message:   "no response from OpenAI",
			Retryable: true,
		})
	}

	translated, err := parseResponse(resp.Choices[0].Message.Content)
	if err != nil {
		return "", p.fail(&rpgtl.EndpointError{
			Endpoint: p.endpoint,
			Message:  "invalid response format from OpenAI",
			Cause:    err,
		})
	}

	out := rpgtl.Restore(strings.TrimSpace(translated), protected.Codes)
	return rpgtl.CollapseSpaces(out), nil
}

func (p *OpenAIProvider) fail(cause *rpgtl.EndpointError) error {
	return &rpgtl.TranslationError{Message: "OpenAI translation failed", Cause: cause}
}

func (p *OpenAIProvider) buildSystemPrompt(req TranslateRequest) string {
	targetName := rpgtl.GetLanguageName(req.TargetLang)

	source := "Detect the source language."
	if req.SourceLang != "" && req.SourceLang != rpgtl.AutoDetect {
		source = fmt.Sprintf("The source language is %s.", rpgtl.GetLanguageName(req.SourceLang))
	}

	prompt := fmt.Sprintf(`# Role
You are a professional video game localizer. You translate dialogue and menu text from an RPG into %s.

# Context
%s The text is a single line of in-game dialogue, a choice, or an item description.

# Style Guide
- **Natural Flow**: Write the line the way a native speaker would say it in a game. Avoid literal translations.
- **Tone**: Keep the speaker's tone, including slang, politeness level and exclamations.
- **Names**: Keep character and place names unchanged unless they have an established translation.
- **Placeholders**: Tokens of the form RPGM_CODE_<n>_ are engine control codes. Keep every one of them exactly as written, in the same order, with spaces around them.
- **Formatting**: Return one line. Do not add quotation marks or notes.`, targetName, source)

	prompt += `

# Format
Return a valid JSON object with a single key "translation" containing the translated string.
Example: { "translation": "translated line" }
- Do NOT wrap in Markdown code blocks.`

	return prompt
}

// parseResponse extracts the translation from the model's JSON answer.
func parseResponse(content string) (string, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var objResult map[string]any
	if err := json.Unmarshal([]byte(content), &objResult); err != nil {
		return "", err
	}

	if s, ok := objResult["translation"].(string); ok && strings.TrimSpace(s) != "" {
		return s, nil
	}

	// Fallback: the only string value
	var found []string
	for _, v := range objResult {
		if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
			found = append(found, s)
		}
	}
	if len(found) == 1 {
		return found[0], nil
	}

	return "", errors.New(`missing "translation" key`)
}

func statusOf(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}

func isRetryableError(err error) bool {
	if status := statusOf(err); status != 0 {
		return status == http.StatusTooManyRequests || status >= 500
	}

	// Check for common retryable conditions
	errStr := err.Error()
	retryablePatterns := []string{
		"rate limit",
		"timeout",
		"connection refused",
		"temporary",
		"503",
		"502",
		"429",
	}

	for _, pattern := range retryablePatterns {
		if strings.Contains(strings.ToLower(errStr), pattern) {
			return true
		}
	}
	return false
}

// Verify OpenAIProvider implements Provider
var _ Provider = (*OpenAIProvider)(nil)
