package provision

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCapabilitySetMissing(t *testing.T) {
	tests := []struct {
		name string
		set  CapabilitySet
		want []Capability
	}{
		{
			name: "full surface",
			set:  FullCapabilitySet(),
			want: nil,
		},
		{
			name: "empty set",
			set:  CapabilitySet{},
			want: RequiredCapabilities(),
		},
		{
			name: "grouping absent",
			set: CapabilitySet{
				CapCreateResource:    true,
				CapSetGroupTitle:     true,
				CapGetGroup:          true,
				CapSetActiveResource: true,
			},
			want: []Capability{CapCreateGroup},
		},
		{
			name: "query absence does not matter",
			set: CapabilitySet{
				CapCreateResource:    true,
				CapCreateGroup:       true,
				CapSetGroupTitle:     true,
				CapGetGroup:          true,
				CapSetActiveResource: true,
			},
			want: nil,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if diff := cmp.Diff(tc.want, tc.set.Missing()); diff != "" {
				t.Errorf("Missing() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestProbeCapabilities(t *testing.T) {
	sub := newFakeSubstrate()
	report := ProbeCapabilities(context.Background(), sub)
	if !report.Available || len(report.Missing) != 0 {
		t.Errorf("full surface probe = %+v, want available", report)
	}

	sub.caps = CapabilitySet{CapCreateResource: true}
	report = ProbeCapabilities(context.Background(), sub)
	if report.Available {
		t.Error("probe reported available with four operations missing")
	}
	want := []Capability{CapCreateGroup, CapSetGroupTitle, CapGetGroup, CapSetActiveResource}
	if diff := cmp.Diff(want, report.Missing); diff != "" {
		t.Errorf("missing list mismatch (-want +got):\n%s", diff)
	}

	sub.capsErr = errors.New("not connected")
	report = ProbeCapabilities(context.Background(), sub)
	if report.Available {
		t.Error("probe reported available despite a capability query error")
	}
	if diff := cmp.Diff(RequiredCapabilities(), report.Missing); diff != "" {
		t.Errorf("missing list mismatch (-want +got):\n%s", diff)
	}
}
