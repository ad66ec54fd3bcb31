package assistant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func configureClient(t *testing.T, endpoint, key, deployment string) *AzureClient {
	t.Helper()
	viper.Set("assistant.endpoint", endpoint)
	viper.Set("assistant.api_key", key)
	viper.Set("assistant.deployment", deployment)
	viper.Set("assistant.api_version", "2024-02-15-preview")
	t.Cleanup(func() {
		viper.Set("assistant.endpoint", "")
		viper.Set("assistant.api_key", "")
		viper.Set("assistant.deployment", "")
		viper.Set("assistant.api_version", "")
	})
	return NewAzureClient()
}

func completionResponse(content string) string {
	resp := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"content": content}},
		},
	}
	raw, _ := json.Marshal(resp)
	return string(raw)
}

const validPayload = `{
	"summary": "Write the quarterly report",
	"steps": [{"step": "Gather figures", "resources": ["finance dashboard"]}, {"step": "Draft sections"}],
	"estimated_time": "4 hours",
	"difficulty": "medium",
	"related_tasks": ["Review last quarter"]
}`

func TestAssist_Success(t *testing.T) {
	var gotPath, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("api-key")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(completionResponse(validPayload)))
	}))
	defer srv.Close()

	client := configureClient(t, srv.URL, "secret", "gpt-4o")
	content := client.Assist(context.Background(), "Write report", "Quarterly report")

	require.NotNil(t, content)
	assert.Equal(t, "Write the quarterly report", content.Summary)
	require.Len(t, content.Steps, 2)
	assert.Equal(t, "Gather figures", content.Steps[0].Step)
	assert.Equal(t, []string{"finance dashboard"}, content.Steps[0].Resources)
	assert.Equal(t, "4 hours", content.EstimatedTime)
	assert.Equal(t, "medium", content.Difficulty)

	assert.Equal(t, "/openai/deployments/gpt-4o/chat/completions", gotPath)
	assert.Equal(t, "secret", gotKey)
}

func TestAssist_FencedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(completionResponse("```json\n" + validPayload + "\n```")))
	}))
	defer srv.Close()

	client := configureClient(t, srv.URL, "secret", "gpt-4o")
	content := client.Assist(context.Background(), "Write report", "")

	assert.Equal(t, "Write the quarterly report", content.Summary)
}

func TestAssist_MissingCredentialsFallsBack(t *testing.T) {
	client := configureClient(t, "", "", "")

	content := client.Assist(context.Background(), "Write report", "")

	require.NotNil(t, content)
	assert.Contains(t, content.Summary, "Write report")
	assert.NotEmpty(t, content.Steps)
}

func TestAssist_ServerErrorFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := configureClient(t, srv.URL, "secret", "gpt-4o")
	content := client.Assist(context.Background(), "Write report", "")

	require.NotNil(t, content)
	assert.Equal(t, Placeholder("Write report").Summary, content.Summary)
}

func TestAssist_MalformedPayloadFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(completionResponse("here is your plan: 1) do it")))
	}))
	defer srv.Close()

	client := configureClient(t, srv.URL, "secret", "gpt-4o")
	content := client.Assist(context.Background(), "Write report", "")

	require.NotNil(t, content)
	assert.Equal(t, Placeholder("Write report").Summary, content.Summary)
}

func TestAssist_TransportFailureFallsBack(t *testing.T) {
	// Point at a server that is already closed.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := configureClient(t, srv.URL, "secret", "gpt-4o")
	content := client.Assist(context.Background(), "Write report", "")

	require.NotNil(t, content)
	assert.Equal(t, Placeholder("Write report").Summary, content.Summary)
}

func TestParseContent(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"plain json", validPayload, false},
		{"fenced json", "```json\n" + validPayload + "\n```", false},
		{"bare fence", "```\n" + validPayload + "\n```", false},
		{"prose", "I suggest you start early.", true},
		{"empty object", "{}", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content, err := ParseContent(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, content.Summary)
		})
	}
}

func TestAssist_NoChoicesFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices": []}`))
	}))
	defer srv.Close()

	client := configureClient(t, srv.URL, "secret", "gpt-4o")
	content := client.Assist(context.Background(), "Write report", "")

	assert.Equal(t, Placeholder("Write report").Summary, content.Summary)
}
