// Package backend is the HTTP client for the collaborating CRUD backend
// that persists learning plans. The backend itself is external; this
// package speaks its documented interface only: GET /health, GET
// /learning-plans/:topic, POST /learning-plans, PUT /stages/:id/status.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jasonlam510/Learnerator/internal/plan"
	"go.uber.org/zap"
)

var (
	// ErrPlanNotFound means the backend has no plan for the topic.
	ErrPlanNotFound = errors.New("learning plan not found")

	// ErrStageNotFound means the stage id is unknown to the backend.
	ErrStageNotFound = errors.New("learning stage not found")
)

// Client talks to the learning-plan backend.
type Client struct {
	baseURL string
	client  *http.Client
	log     *zap.Logger
}

// Config configures the client. BaseURL includes the API prefix.
type Config struct {
	BaseURL string `yaml:"base_url"`
	Timeout string `yaml:"timeout"`
}

// New creates a backend client.
func New(cfg Config, logger *zap.Logger) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "http://localhost:8000/api"
	}
	timeout := 30 * time.Second
	if d, err := time.ParseDuration(cfg.Timeout); err == nil && d > 0 {
		timeout = d
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		log:     logger,
	}
}

// Health probes the backend's health endpoint.
func (c *Client) Health(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("backend unreachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("backend health returned status %d", resp.StatusCode)
	}
	return nil
}

// GetPlansByTopic fetches every stored plan for a topic, newest first as the
// backend returns them.
func (c *Client) GetPlansByTopic(ctx context.Context, topic string) ([]plan.Plan, error) {
	httpReq, err := http.NewRequestWithContext(ctx, "GET",
		c.baseURL+"/learning-plans/"+url.PathEscape(topic), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("backend request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("topic %q: %w", topic, ErrPlanNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("backend returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var rows []planResponse
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("failed to decode plans: %w", err)
	}

	plans := make([]plan.Plan, 0, len(rows))
	for _, row := range rows {
		plans = append(plans, row.toPlan())
	}
	return plans, nil
}

// GetPlan fetches the most recent stored plan for a topic.
func (c *Client) GetPlan(ctx context.Context, topic string) (*plan.Plan, error) {
	plans, err := c.GetPlansByTopic(ctx, topic)
	if err != nil {
		return nil, err
	}
	if len(plans) == 0 {
		return nil, fmt.Errorf("topic %q: %w", topic, ErrPlanNotFound)
	}
	return &plans[0], nil
}

// SavePlan stores a plan and returns it with backend-assigned plan and
// stage ids filled in. Keywords are a generation-side concern the backend
// does not persist.
func (c *Client) SavePlan(ctx context.Context, p *plan.Plan) (*plan.Plan, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("refusing to save invalid plan: %w", err)
	}

	req := planCreateRequest{Topic: p.TopicName}
	for _, st := range p.Stages {
		status := st.Status
		if status == "" {
			status = plan.StatusPending
		}
		req.Stages = append(req.Stages, stageCreateRequest{
			Header:  st.Header,
			Details: st.Details,
			Status:  string(status),
		})
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal plan: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/learning-plans", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	c.log.Debug("saving plan", zap.String("topic", p.TopicName), zap.Int("stages", len(p.Stages)))

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("backend request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("backend returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var row planResponse
	if err := json.NewDecoder(resp.Body).Decode(&row); err != nil {
		return nil, fmt.Errorf("failed to decode saved plan: %w", err)
	}
	saved := row.toPlan()

	// Keywords survive locally even though the backend drops them.
	for i := range saved.Stages {
		if i < len(p.Stages) {
			saved.Stages[i].Keywords = p.Stages[i].Keywords
		}
	}
	return &saved, nil
}

// UpdateStageStatus moves a stored stage to a new status.
func (c *Client) UpdateStageStatus(ctx context.Context, stageID int, status plan.StageStatus) error {
	if !status.Valid() {
		return fmt.Errorf("unknown stage status %q", status)
	}

	body, err := json.Marshal(stageStatusRequest{Status: string(status)})
	if err != nil {
		return fmt.Errorf("failed to marshal status: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "PUT",
		fmt.Sprintf("%s/stages/%d/status", c.baseURL, stageID), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("backend request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("stage %d: %w", stageID, ErrStageNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("backend returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}
	return nil
}

// =============================================================================
// WIRE TYPES
// =============================================================================

type stageCreateRequest struct {
	Header  string `json:"header"`
	Details string `json:"details"`
	Status  string `json:"status"`
}

type planCreateRequest struct {
	Topic  string               `json:"topic"`
	Stages []stageCreateRequest `json:"stages"`
}

type stageStatusRequest struct {
	Status string `json:"status"`
}

type stageResponse struct {
	ID         int    `json:"id"`
	Header     string `json:"header"`
	Details    string `json:"details"`
	Status     string `json:"status"`
	OrderIndex int    `json:"order_index"`
}

type planResponse struct {
	ID     int             `json:"id"`
	Topic  string          `json:"topic"`
	Title  string          `json:"title"`
	Stages []stageResponse `json:"stages"`
}

func (r planResponse) toPlan() plan.Plan {
	p := plan.Plan{
		ID:        r.ID,
		TopicName: r.Topic,
		Title:     r.Title,
	}
	for _, st := range r.Stages {
		p.Stages = append(p.Stages, plan.Stage{
			ID:         st.ID,
			Header:     st.Header,
			Details:    st.Details,
			Status:     plan.StageStatus(st.Status),
			OrderIndex: st.OrderIndex,
		})
	}
	return p
}
