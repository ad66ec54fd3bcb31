package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ChunkyMonkey11/AzureHackathonTodo/internal/models"
)

// Client generates structured task assistance. Implementations never
// return an error: any failure degrades to the placeholder payload so
// the todo flow is never blocked on the AI endpoint.
type Client interface {
	Assist(ctx context.Context, title, description string) *models.AIContent
}

// AzureClient calls an Azure-OpenAI-shaped chat completion deployment.
type AzureClient struct {
	endpoint   string
	apiKey     string
	deployment string
	apiVersion string
	client     *http.Client
}

// NewAzureClient builds a client from assistant.* configuration.
func NewAzureClient() *AzureClient {
	apiVersion := viper.GetString("assistant.api_version")
	if apiVersion == "" {
		apiVersion = "2024-02-15-preview"
	}
	return &AzureClient{
		endpoint:   strings.TrimRight(viper.GetString("assistant.endpoint"), "/"),
		apiKey:     viper.GetString("assistant.api_key"),
		deployment: viper.GetString("assistant.deployment"),
		apiVersion: apiVersion,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

const systemPrompt = `You are a task planning assistant. Given a task title and description,
respond with a single JSON object and nothing else, shaped exactly as:
{"summary": string, "steps": [{"step": string, "resources": [string]}],
"estimated_time": string, "difficulty": "easy"|"medium"|"hard",
"related_tasks": [string]}`

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Assist requests a structured breakdown for the task. Missing
// credentials, transport failures, non-200 responses and malformed
// payloads all fall back to Placeholder.
func (a *AzureClient) Assist(ctx context.Context, title, description string) *models.AIContent {
	if a.endpoint == "" || a.apiKey == "" || a.deployment == "" {
		log.Println("[assistant] credentials not configured, using placeholder")
		return Placeholder(title)
	}

	content, err := a.complete(ctx, title, description)
	if err != nil {
		log.Printf("[assistant] falling back to placeholder: %v", err)
		return Placeholder(title)
	}
	return content
}

func (a *AzureClient) complete(ctx context.Context, title, description string) (*models.AIContent, error) {
	url := fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
		a.endpoint, a.deployment, a.apiVersion)

	userPrompt := fmt.Sprintf("Task title: %s\nTask description: %s", title, description)
	body, err := json.Marshal(chatRequest{
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: 0.2,
		MaxTokens:   800,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", a.apiKey)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("completion request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	var chat chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(chat.Choices) == 0 {
		return nil, fmt.Errorf("completion returned no choices")
	}

	return ParseContent(chat.Choices[0].Message.Content)
}

// ParseContent extracts the structured payload from a completion
// message. Models occasionally wrap the JSON in a code fence, so that
// is stripped first.
func ParseContent(raw string) (*models.AIContent, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	var content models.AIContent
	if err := json.Unmarshal([]byte(raw), &content); err != nil {
		return nil, fmt.Errorf("malformed completion payload: %w", err)
	}
	if content.Summary == "" {
		return nil, fmt.Errorf("completion payload missing summary")
	}
	return &content, nil
}

// Placeholder is the fixed payload returned whenever the completion
// endpoint cannot be used.
func Placeholder(title string) *models.AIContent {
	return &models.AIContent{
		Summary: fmt.Sprintf("Task assistance is unavailable right now for %q.", title),
		Steps: []models.AIStep{
			{Step: "Break the task into smaller pieces."},
			{Step: "Set a realistic deadline for each piece."},
			{Step: "Start with the smallest piece to build momentum."},
		},
		EstimatedTime: "unknown",
		Difficulty:    "medium",
	}
}
