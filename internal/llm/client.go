// Package llm wraps the remote OpenAI-compatible completion endpoint.
// Every failure path of Complete resolves to a user-displayable string;
// the caller's only action on failure is showing text to the chat.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"prismBot/internal/metrics"
)

const clientTimeout = 60 * time.Second

const invalidResponseReply = "Sorry, I received an invalid response format from the AI service."

// Client talks to an OpenAI-compatible endpoint. On construction it
// queries the server's model list; the set may be empty when the query
// fails.
type Client struct {
	apiKey       string
	baseURL      string
	defaultModel string
	httpClient   *http.Client
	available    []string

	log     zerolog.Logger
	metrics *metrics.Metrics
}

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type modelsResponse struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

func NewClient(apiKey, baseURL, defaultModel string, log zerolog.Logger, m *metrics.Metrics) *Client {
	c := &Client{
		apiKey:       apiKey,
		baseURL:      strings.TrimRight(baseURL, "/"),
		defaultModel: defaultModel,
		httpClient:   &http.Client{Timeout: clientTimeout},
		log:          log,
		metrics:      m,
	}
	c.available = c.fetchModels()
	return c
}

// AvailableModels returns the model identifiers reported by the service,
// empty when the startup query failed.
func (c *Client) AvailableModels() []string {
	out := make([]string, len(c.available))
	copy(out, c.available)
	return out
}

// ResolveModel picks the model to request: the configured default when
// it is reported available or when the availability query failed, else
// the first reported model.
func (c *Client) ResolveModel() string {
	if len(c.available) == 0 {
		return c.defaultModel
	}
	for _, id := range c.available {
		if id == c.defaultModel {
			return c.defaultModel
		}
	}
	fallback := c.available[0]
	c.log.Info().
		Str("default", c.defaultModel).
		Str("fallback", fallback).
		Msg("default model unavailable, using alternative")
	return fallback
}

// Complete sends messages to the completion endpoint and returns the
// generated text. It never returns an error: transport failures, API
// errors and malformed responses all map to an apology string.
func (c *Client) Complete(ctx context.Context, messages []Message) string {
	model := c.ResolveModel()
	start := time.Now()

	reply, ok := c.complete(ctx, model, messages)

	status := "ok"
	if !ok {
		status = "error"
	}
	if c.metrics != nil {
		c.metrics.ObserveCompletion(status, time.Since(start))
	}
	return reply
}

func (c *Client) complete(ctx context.Context, model string, messages []Message) (reply string, ok bool) {
	payload, err := json.Marshal(chatRequest{Model: model, Messages: messages})
	if err != nil {
		c.log.Error().Err(err).Msg("failed to encode completion request")
		return fmt.Sprintf("Sorry, I encountered an error: %v", err), false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		c.log.Error().Err(err).Msg("failed to create completion request")
		return fmt.Sprintf("Sorry, I encountered an error: %v", err), false
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error().Err(err).Msg("completion request failed")
		return fmt.Sprintf("Sorry, I encountered an error: %v", err), false
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.log.Error().Err(err).Msg("failed to read completion response")
		return fmt.Sprintf("Sorry, I encountered an error: %v", err), false
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := fmt.Sprintf("status %d: %s", resp.StatusCode, truncate(string(body), 400))
		c.log.Error().Int("status", resp.StatusCode).Str("model", model).Msg("completion API error")

		// a 404 usually means the requested model does not exist server-side
		if strings.Contains(apiErr, "404") {
			modelInfo := "No models available"
			if len(c.available) > 0 {
				modelInfo = "Available models: " + strings.Join(c.available, ", ")
			}
			return fmt.Sprintf("Sorry, the AI model %q seems to be unavailable. %s", model, modelInfo), false
		}
		return fmt.Sprintf("Sorry, there was an AI service error: %s", apiErr), false
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		c.log.Error().Err(err).Msg("failed to decode completion response")
		return fmt.Sprintf("Sorry, I encountered an error: %v", err), false
	}
	if len(parsed.Choices) == 0 {
		c.log.Error().Str("body", truncate(string(body), 400)).Msg("completion response has no choices")
		return invalidResponseReply, false
	}

	return parsed.Choices[0].Message.Content, true
}

// fetchModels queries GET {base}/models once. Failure is logged, not
// propagated; resolution then optimistically trusts the default model.
func (c *Client) fetchModels() []string {
	req, err := http.NewRequest(http.MethodGet, c.baseURL+"/models", nil)
	if err != nil {
		c.log.Error().Err(err).Msg("failed to create models request")
		return nil
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error().Err(err).Msg("failed to query available models")
		return nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.log.Error().Err(err).Msg("failed to read models response")
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.Warn().Int("status", resp.StatusCode).Str("body", truncate(string(body), 400)).Msg("models query rejected")
		return nil
	}

	var parsed modelsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		c.log.Error().Err(err).Msg("failed to decode models response")
		return nil
	}

	ids := make([]string, 0, len(parsed.Data))
	for _, m := range parsed.Data {
		ids = append(ids, m.ID)
	}
	c.log.Info().Strs("models", ids).Msg("available models")
	return ids
}

func truncate(s string, maxChars int) string {
	runes := []rune(s)
	if len(runes) <= maxChars {
		return s
	}
	return string(runes[:maxChars])
}
