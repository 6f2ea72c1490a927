package plan

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func samplePlan() *Plan {
	return &Plan{
		TopicName: "Machine Learning Fundamentals",
		Stages: []Stage{
			{
				Header:   "Introduction to Machine Learning",
				Details:  "Learn the basic concepts and types of machine learning algorithms",
				Keywords: []string{"machine learning basics", "ML algorithms"},
				Status:   StatusPending,
			},
			{
				Header:  "Data Preprocessing",
				Details: "Understand data cleaning, normalization, and feature engineering",
				Status:  StatusPending,
			},
		},
	}
}

func TestPlanValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Plan)
		wantErr bool
	}{
		{"valid", func(p *Plan) {}, false},
		{"empty topic", func(p *Plan) { p.TopicName = "  " }, true},
		{"no stages", func(p *Plan) { p.Stages = nil }, true},
		{"blank header", func(p *Plan) { p.Stages[1].Header = "" }, true},
		{"unknown status", func(p *Plan) { p.Stages[0].Status = "paused" }, true},
		{"missing status is fine", func(p *Plan) { p.Stages[0].Status = "" }, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := samplePlan()
			tc.mutate(p)
			err := p.Validate()
			if tc.wantErr && err == nil {
				t.Error("expected a validation error, got nil")
			}
			if !tc.wantErr && err != nil {
				t.Errorf("unexpected validation error: %v", err)
			}
		})
	}
}

func TestPlanNormalize(t *testing.T) {
	p := samplePlan()
	p.Stages[0].Status = ""
	p.Normalize()

	if p.Stages[0].Status != StatusPending {
		t.Errorf("stage 1 status = %q, want pending", p.Stages[0].Status)
	}
	if p.Stages[0].OrderIndex != 1 || p.Stages[1].OrderIndex != 2 {
		t.Errorf("order indexes = %d, %d, want 1, 2", p.Stages[0].OrderIndex, p.Stages[1].OrderIndex)
	}
}

func TestPlanStageLookup(t *testing.T) {
	p := samplePlan()

	st, err := p.Stage(2)
	if err != nil {
		t.Fatalf("Stage(2): %v", err)
	}
	if st.Header != "Data Preprocessing" {
		t.Errorf("stage header = %q", st.Header)
	}

	if _, err := p.Stage(0); err == nil {
		t.Error("Stage(0) should be out of range")
	}
	if _, err := p.Stage(3); err == nil {
		t.Error("Stage(3) should be out of range")
	}
}

func TestStageSearchTerms(t *testing.T) {
	withKeywords := Stage{Header: "Intro", Keywords: []string{"a", "b"}}
	if diff := cmp.Diff([]string{"a", "b"}, withKeywords.SearchTerms()); diff != "" {
		t.Errorf("keyword terms mismatch (-want +got):\n%s", diff)
	}

	bare := Stage{Header: "Data Preprocessing"}
	if diff := cmp.Diff([]string{"Data Preprocessing"}, bare.SearchTerms()); diff != "" {
		t.Errorf("fallback terms mismatch (-want +got):\n%s", diff)
	}
}

func TestPlanWireFormat(t *testing.T) {
	raw := `{
		"topic_name": "Go",
		"stages": [
			{"header": "Basics", "details": "Syntax and tooling", "keywords": ["go tutorial"], "status": "pending"}
		]
	}`

	var p Plan
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if p.TopicName != "Go" {
		t.Errorf("topic_name = %q", p.TopicName)
	}
	if len(p.Stages) != 1 || p.Stages[0].Status != StatusPending {
		t.Errorf("stages decoded wrong: %+v", p.Stages)
	}

	out, err := json.Marshal(&p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, key := range []string{`"topic_name"`, `"header"`, `"keywords"`, `"status"`} {
		if !strings.Contains(string(out), key) {
			t.Errorf("encoded plan missing %s: %s", key, out)
		}
	}
}
