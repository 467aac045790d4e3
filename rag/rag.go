// Package rag queries an OpenAI-compatible retrieval-augmented chat endpoint
// (POST chat/completions/RAG) that answers from a named document collection.
package rag

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/campaignmesh/logging"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Defaults for the hosted inference endpoint.
const (
	DefaultBaseURL    = "https://api.vultrinference.com/v1/"
	DefaultCollection = "alboostcollect"
	DefaultModel      = "llama-3.3-70b-instruct-fp8"
	DefaultTimeout    = 200 * time.Second
	endpointPath      = "chat/completions/RAG"
)

const systemPrompt = "You are a marketing research assistant. " +
	"Your job is to analyze campaign topics using relevant context and deliver concise insights."

// StatusError reports a non-2xx answer from the RAG endpoint.
type StatusError struct {
	StatusCode int
	Body       string
}

// Error implements error.
func (e *StatusError) Error() string {
	return fmt.Sprintf("rag request failed with status %d", e.StatusCode)
}

// Options configures a Client.
type Options struct {
	APIKey      string
	BaseURL     string
	Collection  string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
	Logger      logging.Logger

	// OnCall observes every request (e.g. metrics.ObserveExternalCall bound to "rag").
	OnCall func(operation string, dur time.Duration, err error)
}

// Client sends research prompts to the RAG endpoint.
type Client struct {
	client *openai.Client
	opts   Options
	logger logging.Logger
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ragRequest struct {
	Collection       string        `json:"collection"`
	Model            string        `json:"model"`
	Messages         []chatMessage `json:"messages"`
	MaxTokens        int           `json:"max_tokens"`
	Temperature      float64       `json:"temperature"`
	TopP             float64       `json:"top_p"`
	FrequencyPenalty float64       `json:"frequency_penalty"`
	PresencePenalty  float64       `json:"presence_penalty"`
}

type ragResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// New creates a Client. Empty options fall back to the package defaults.
func New(optFns ...func(o *Options)) *Client {
	opts := Options{
		BaseURL:     DefaultBaseURL,
		Collection:  DefaultCollection,
		Model:       DefaultModel,
		MaxTokens:   512,
		Temperature: 0.7,
		Timeout:     DefaultTimeout,
		Logger:      logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Collection == "" {
		opts.Collection = DefaultCollection
	}

	client := openai.NewClient(
		option.WithAPIKey(opts.APIKey),
		option.WithBaseURL(opts.BaseURL),
		option.WithRequestTimeout(opts.Timeout),
		option.WithMaxRetries(0),
	)

	return &Client{client: &client, opts: opts, logger: logging.OrNoOp(opts.Logger)}
}

// ResearchPrompt renders the user prompt for topic.
func ResearchPrompt(topic string) string {
	return fmt.Sprintf("Research the topic: '%s'.\n"+
		"Use context from the collection to:\n"+
		"- Write a 3–5 sentence summary of the topic\n"+
		"- Extract 3 key insights\n\n"+
		"Respond ONLY in JSON format with keys: 'summary' and 'key_points'.", topic)
}

// Research asks the endpoint to research topic and returns the raw answer text.
// Non-2xx answers are reported as *StatusError.
func (c *Client) Research(ctx context.Context, topic string) (string, error) {
	req := ragRequest{
		Collection: c.opts.Collection,
		Model:      c.opts.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: ResearchPrompt(topic)},
		},
		MaxTokens:   c.opts.MaxTokens,
		Temperature: c.opts.Temperature,
		TopP:        1,
	}

	start := time.Now()
	var res ragResponse
	err := c.client.Post(ctx, endpointPath, req, &res)
	if c.opts.OnCall != nil {
		c.opts.OnCall("research", time.Since(start), err)
	}
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			err = &StatusError{StatusCode: apiErr.StatusCode, Body: apiErr.RawJSON()}
		}
		c.logger.Error("RAG request failed", "topic", topic, "duration", time.Since(start), "error", err)
		return "", err
	}

	if len(res.Choices) == 0 {
		return "", fmt.Errorf("rag response has no choices")
	}

	c.logger.Debug("RAG request completed", "topic", topic, "duration", time.Since(start))
	return res.Choices[0].Message.Content, nil
}
