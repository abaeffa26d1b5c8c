// Package oracle is the client for the external text-classification
// capability the adjudicator escalates ambiguous reviews to. Providers
// return raw response text; parsing the verdict out of it is the
// adjudicator's concern.
package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/TechNxt05/revtrust/pkg/net"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"

	geminiModelDefault = "gemini-2.0-flash"
	openaiModelDefault = "gpt-4o-mini"

	geminiEndpointDefault = "https://generativelanguage.googleapis.com/v1beta"
	openaiEndpointDefault = "https://api.openai.com/v1"

	maxTokensDefault = 180
)

// Config selects and parameterizes the oracle provider.
type Config struct {
	Provider string `json:"provider" yaml:"provider"`
	Model    string `json:"model,omitempty" yaml:"model,omitempty"`
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
}

// Client classifies text via one configured provider. Implements
// trust.Classifier.
type Client interface {
	Classify(ctx context.Context, prompt string) (string, error)
}

// New creates an oracle client. An empty API key is a configuration
// error: callers should leave the capability unset instead.
func New(cfg Config, apiKey string) (Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("oracle API key not set")
	}

	switch cfg.Provider {
	case "", ProviderGemini:
		model := cfg.Model
		if model == "" {
			model = geminiModelDefault
		}
		endpoint := cfg.Endpoint
		if endpoint == "" {
			endpoint = geminiEndpointDefault
		}
		return &geminiClient{apiKey: apiKey, model: model, endpoint: endpoint, client: net.GetHTTPClient()}, nil
	case ProviderOpenAI:
		model := cfg.Model
		if model == "" {
			model = openaiModelDefault
		}
		endpoint := cfg.Endpoint
		if endpoint == "" {
			endpoint = openaiEndpointDefault
		}
		return &openaiClient{model: model, endpoint: endpoint, apiKey: apiKey}, nil
	default:
		return nil, fmt.Errorf("unknown oracle provider: %q (valid: %s, %s)",
			cfg.Provider, ProviderGemini, ProviderOpenAI)
	}
}

// --- Gemini provider ---

type geminiClient struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
	Config   *geminiGenCfg   `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenCfg struct {
	MaxOutputTokens int `json:"maxOutputTokens,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func (c *geminiClient) Classify(ctx context.Context, prompt string) (string, error) {
	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.endpoint, c.model, c.apiKey)

	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
		Config:   &geminiGenCfg{MaxOutputTokens: maxTokensDefault},
	})
	if err != nil {
		return "", fmt.Errorf("encoding oracle request: %w", err)
	}

	raw, err := post(ctx, c.client, url, body, nil)
	if err != nil {
		return "", err
	}

	var resp geminiResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("decoding oracle response: %w", err)
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("oracle returned no candidates")
	}
	return resp.Candidates[0].Content.Parts[0].Text, nil
}

// --- OpenAI provider ---

type openaiClient struct {
	model    string
	endpoint string
	apiKey   string
}

type openaiRequest struct {
	Model     string          `json:"model"`
	Messages  []openaiMessage `json:"messages"`
	MaxTokens int             `json:"max_tokens,omitempty"`
}

type openaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openaiResponse struct {
	Choices []struct {
		Message openaiMessage `json:"message"`
	} `json:"choices"`
}

func (c *openaiClient) Classify(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(openaiRequest{
		Model:     c.model,
		Messages:  []openaiMessage{{Role: "user", Content: prompt}},
		MaxTokens: maxTokensDefault,
	})
	if err != nil {
		return "", fmt.Errorf("encoding oracle request: %w", err)
	}

	client := net.GetOAuthClient(ctx, c.apiKey)
	raw, err := post(ctx, client, c.endpoint+"/chat/completions", body, nil)
	if err != nil {
		return "", err
	}

	var resp openaiResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("decoding oracle response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("oracle returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func post(ctx context.Context, client *http.Client, url string, body []byte, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating oracle request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	res, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling oracle: %w", err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("reading oracle response: %w", err)
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("oracle returned %s: %s", res.Status, truncateBody(raw))
	}
	return raw, nil
}

func truncateBody(b []byte) string {
	const n = 200
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n])
}
