// Package planner is the HTTP client for the collaborating plan-generation
// and chat service. The service is external; this package only speaks its
// documented interface: POST /generate-plan, POST /chat, GET /health.
package planner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jasonlam510/Learnerator/internal/plan"
	"go.uber.org/zap"
)

// ErrEmptyTopic is returned before any request is made when the topic is
// blank. The service would reject it with a 400 anyway.
var ErrEmptyTopic = errors.New("topic is empty")

// Client talks to the plan-generation service.
type Client struct {
	baseURL string
	model   string
	client  *http.Client
	log     *zap.Logger
}

// Config configures the client.
type Config struct {
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
	Timeout string `yaml:"timeout"`
}

// New creates a planner client. Zero-value config fields fall back to the
// service defaults.
func New(cfg Config, logger *zap.Logger) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "http://localhost:8000"
	}
	timeout := 120 * time.Second
	if d, err := time.ParseDuration(cfg.Timeout); err == nil && d > 0 {
		timeout = d
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: baseURL,
		model:   cfg.Model,
		client:  &http.Client{Timeout: timeout},
		log:     logger,
	}
}

// GeneratePlan asks the service to build a learning plan for a topic. The
// model override is optional; empty means the client's configured model.
func (c *Client) GeneratePlan(ctx context.Context, topic, model string) (*plan.Plan, error) {
	if strings.TrimSpace(topic) == "" {
		return nil, ErrEmptyTopic
	}
	if model == "" {
		model = c.model
	}

	req := generatePlanRequest{Topic: topic, Model: model}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/generate-plan", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	c.log.Debug("generating plan", zap.String("topic", topic), zap.String("model", model))

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("planner request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("planner returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var result plan.Plan
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode plan: %w", err)
	}
	result.Normalize()
	if err := result.Validate(); err != nil {
		return nil, fmt.Errorf("planner returned an invalid plan: %w", err)
	}
	return &result, nil
}

// ChatAnswer is the chat service's reply.
type ChatAnswer struct {
	Answer  string       `json:"answer"`
	Sources []ChatSource `json:"sources"`
}

// ChatSource names one resource the answer drew on.
type ChatSource struct {
	Title          string  `json:"title"`
	URL            string  `json:"url"`
	ContentPreview string  `json:"content_preview,omitempty"`
	Similarity     float64 `json:"similarity,omitempty"`
}

// Chat asks the service a free-form question about stored learning
// resources.
func (c *Client) Chat(ctx context.Context, question, sessionID string) (*ChatAnswer, error) {
	if strings.TrimSpace(question) == "" {
		return nil, errors.New("question is empty")
	}

	req := chatRequest{Question: question, SessionID: sessionID}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("chat request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("chat returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var result ChatAnswer
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode answer: %w", err)
	}
	return &result, nil
}

// Healthy probes the service's health endpoint.
func (c *Client) Healthy(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("planner unreachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("planner health returned status %d", resp.StatusCode)
	}
	return nil
}

// =============================================================================
// WIRE TYPES
// =============================================================================

type generatePlanRequest struct {
	Topic string `json:"topic"`
	Model string `json:"model,omitempty"`
}

type chatRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"session_id,omitempty"`
}
