package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jasonlam510/Learnerator/internal/plan"
	"github.com/stretchr/testify/require"
)

func TestGetPlan(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/learning-plans/Go", r.URL.Path)
		w.Write([]byte(`[
			{
				"id": 7,
				"topic": "Go",
				"title": "Learn Go",
				"created_at": "2025-11-02T10:00:00",
				"stages": [
					{"id": 21, "header": "Basics", "details": "Syntax", "status": "pending", "order_index": 1},
					{"id": 22, "header": "Concurrency", "details": "Goroutines", "status": "ongoing", "order_index": 2}
				]
			}
		]`))
	}))
	defer ts.Close()

	c := New(Config{BaseURL: ts.URL + "/api"}, nil)
	p, err := c.GetPlan(context.Background(), "Go")
	require.NoError(t, err)

	require.Equal(t, 7, p.ID)
	require.Equal(t, "Go", p.TopicName)
	require.Equal(t, "Learn Go", p.Title)
	require.Len(t, p.Stages, 2)
	require.Equal(t, 22, p.Stages[1].ID)
	require.Equal(t, plan.StatusOngoing, p.Stages[1].Status)
}

func TestGetPlanNotFound(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "404 from backend",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.NotFound(w, r)
			},
		},
		{
			name: "empty result set",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`[]`))
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ts := httptest.NewServer(tc.handler)
			defer ts.Close()

			c := New(Config{BaseURL: ts.URL}, nil)
			_, err := c.GetPlan(context.Background(), "Unknown")
			require.ErrorIs(t, err, ErrPlanNotFound)
		})
	}
}

func TestSavePlan(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "POST", r.Method)
		require.Equal(t, "/api/learning-plans", r.URL.Path)

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "Go", req["topic"])
		stages := req["stages"].([]any)
		require.Len(t, stages, 1)
		first := stages[0].(map[string]any)
		require.Equal(t, "Basics", first["header"])
		// Keywords are generation-side only; the create payload has none.
		_, hasKeywords := first["keywords"]
		require.False(t, hasKeywords)

		w.Write([]byte(`{
			"id": 3,
			"topic": "Go",
			"title": "Learn Go",
			"created_at": "2025-11-02T10:00:00",
			"stages": [{"id": 9, "header": "Basics", "details": "Syntax", "status": "pending", "order_index": 1}]
		}`))
	}))
	defer ts.Close()

	c := New(Config{BaseURL: ts.URL + "/api"}, nil)
	saved, err := c.SavePlan(context.Background(), &plan.Plan{
		TopicName: "Go",
		Stages: []plan.Stage{
			{Header: "Basics", Details: "Syntax", Keywords: []string{"go tutorial"}, Status: plan.StatusPending},
		},
	})
	require.NoError(t, err)

	require.Equal(t, 3, saved.ID)
	require.Equal(t, 9, saved.Stages[0].ID)
	require.Equal(t, []string{"go tutorial"}, saved.Stages[0].Keywords,
		"keywords should survive the round trip locally")
}

func TestSavePlanRejectsInvalid(t *testing.T) {
	called := false
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer ts.Close()

	c := New(Config{BaseURL: ts.URL}, nil)
	_, err := c.SavePlan(context.Background(), &plan.Plan{TopicName: "Go"})
	require.Error(t, err)
	require.False(t, called, "invalid plans should never reach the backend")
}

func TestUpdateStageStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "PUT", r.Method)
		require.Equal(t, "/api/stages/22/status", r.URL.Path)

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "ongoing", req["status"])

		w.Write([]byte(`{"id": 22, "header": "Concurrency", "status": "ongoing", "message": "Stage status updated successfully"}`))
	}))
	defer ts.Close()

	c := New(Config{BaseURL: ts.URL + "/api"}, nil)
	require.NoError(t, c.UpdateStageStatus(context.Background(), 22, plan.StatusOngoing))
}

func TestUpdateStageStatusErrors(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer ts.Close()

	c := New(Config{BaseURL: ts.URL}, nil)

	err := c.UpdateStageStatus(context.Background(), 99, plan.StatusFinished)
	require.ErrorIs(t, err, ErrStageNotFound)

	err = c.UpdateStageStatus(context.Background(), 1, "paused")
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown stage status")
}

func TestHealth(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/health", r.URL.Path)
		w.Write([]byte(`{"status":"healthy","message":"API is running"}`))
	}))
	defer ts.Close()

	c := New(Config{BaseURL: ts.URL + "/api"}, nil)
	require.NoError(t, c.Health(context.Background()))
}
