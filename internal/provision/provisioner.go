// Package provision implements ordered multi-resource provisioning with
// partial-failure reporting: validate a request, create each resource in
// input order, aggregate the handles into one named group, verify the
// aggregation, and activate the first member. Every substrate call is
// attempted exactly once; there are no retries and no rollback. Rollback is
// the caller's responsibility, which is why every result variant reports the
// handles that already exist.
package provision

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Config tunes the settle phase between resource creation and grouping.
// Grouping requires that all members already exist, and some substrates
// register new resources with a short lag.
type Config struct {
	// SettleDelayMs is the fixed pause before grouping when the substrate
	// cannot report readiness. Zero selects the default; a negative value
	// disables the pause entirely.
	SettleDelayMs int `yaml:"settle_delay_ms"`

	// ReadinessPollIntervalMs and ReadinessPollTimeoutMs bound the
	// poll-until-ready loop used when the substrate implements
	// ResourceReadiness.
	ReadinessPollIntervalMs int `yaml:"readiness_poll_interval_ms"`
	ReadinessPollTimeoutMs  int `yaml:"readiness_poll_timeout_ms"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		SettleDelayMs:           300,
		ReadinessPollIntervalMs: 100,
		ReadinessPollTimeoutMs:  3000,
	}
}

// SettleDelay returns the fixed settle delay.
func (c Config) SettleDelay() time.Duration {
	if c.SettleDelayMs < 0 {
		return 0
	}
	if c.SettleDelayMs == 0 {
		return 300 * time.Millisecond
	}
	return time.Duration(c.SettleDelayMs) * time.Millisecond
}

// ReadinessPollInterval returns the pause between readiness polls.
func (c Config) ReadinessPollInterval() time.Duration {
	if c.ReadinessPollIntervalMs <= 0 {
		return 100 * time.Millisecond
	}
	return time.Duration(c.ReadinessPollIntervalMs) * time.Millisecond
}

// ReadinessPollTimeout returns the total readiness polling budget.
func (c Config) ReadinessPollTimeout() time.Duration {
	if c.ReadinessPollTimeoutMs <= 0 {
		return 3 * time.Second
	}
	return time.Duration(c.ReadinessPollTimeoutMs) * time.Millisecond
}

// Provisioner orchestrates provision calls against a substrate. It holds no
// state between calls; handles are owned by the substrate, and two calls
// with identical input produce two independent groups.
type Provisioner struct {
	sub Substrate
	cfg Config
	log *zap.Logger
}

// New creates a provisioner. A nil logger disables step events.
func New(sub Substrate, cfg Config, logger *zap.Logger) *Provisioner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provisioner{sub: sub, cfg: cfg, log: logger}
}

// Probe runs the capability check on its own, without provisioning.
func (p *Provisioner) Probe(ctx context.Context) CapabilityReport {
	return ProbeCapabilities(ctx, p.sub)
}

// Provision runs the full workflow for one request. It always returns a
// Result; failures come back as tagged data rather than an error so that
// partially created handles always reach the caller. The passed context is
// threaded into every substrate call; cancelling it mid-chain surfaces as
// the in-flight stage's failure with the handles created so far.
func (p *Provisioner) Provision(ctx context.Context, req Request) *Result {
	p.log.Info("validating",
		zap.String("group_name", req.GroupName),
		zap.Int("ref_count", len(req.ResourceRefs)))

	if reason, idx := validateRequest(req); reason != "" {
		p.log.Warn("request rejected", zap.String("reason", reason), zap.Int("index", idx))
		return &Result{
			Outcome:        OutcomeValidationFailure,
			FailureReason:  reason,
			FailedRefIndex: idx,
		}
	}

	report := ProbeCapabilities(ctx, p.sub)
	if !report.Available {
		p.log.Warn("substrate capability unavailable",
			zap.Strings("missing", capabilityStrings(report.Missing)))
		return &Result{
			Outcome:             OutcomeCapabilityUnavailable,
			FailureReason:       fmt.Sprintf("substrate missing capabilities: %s", strings.Join(capabilityStrings(report.Missing), ", ")),
			FailedRefIndex:      -1,
			MissingCapabilities: report.Missing,
		}
	}

	// Sequential by contract: grouping requires that every member already
	// exists, and the substrate gives no ordering guarantee for parallel
	// creation.
	handles := make([]string, 0, len(req.ResourceRefs))
	for i, ref := range req.ResourceRefs {
		handle, err := p.sub.CreateResource(ctx, ref)
		if err != nil {
			p.log.Error("resource creation failed",
				zap.Int("index", i),
				zap.String("ref", ref),
				zap.Error(err))
			return &Result{
				Outcome:         OutcomeResourceCreationFailure,
				ResourceHandles: handles,
				ResourceCount:   len(handles),
				FailureReason:   fmt.Sprintf("create resource %d of %d (%s): %v", i+1, len(req.ResourceRefs), ref, err),
				FailedRefIndex:  i,
			}
		}
		handles = append(handles, handle)
		p.log.Info("resource_created",
			zap.Int("index", i),
			zap.String("handle", handle))
	}

	var warnings []string
	if w := p.settle(ctx, handles); w != "" {
		warnings = append(warnings, w)
	}

	p.log.Info("grouping", zap.Int("count", len(handles)))
	groupHandle, err := p.sub.CreateGroup(ctx, handles)
	if err != nil {
		p.log.Error("grouping failed", zap.Error(err))
		return &Result{
			Outcome:         OutcomeGroupingFailure,
			ResourceHandles: handles,
			ResourceCount:   len(handles),
			FailureReason:   fmt.Sprintf("create group: %v", err),
			FailedRefIndex:  -1,
			Warnings:        warnings,
		}
	}

	if err := p.sub.SetGroupTitle(ctx, groupHandle, req.GroupName); err != nil {
		p.log.Error("titling failed",
			zap.String("group_handle", groupHandle),
			zap.Error(err))
		return &Result{
			Outcome:         OutcomeTitlingFailure,
			GroupHandle:     groupHandle,
			ResourceHandles: handles,
			ResourceCount:   len(handles),
			FailureReason:   fmt.Sprintf("set group title %q: %v", req.GroupName, err),
			FailedRefIndex:  -1,
			Warnings:        warnings,
		}
	}
	p.log.Info("titled",
		zap.String("group_handle", groupHandle),
		zap.String("title", req.GroupName))

	// Soft invariant: count drift is tolerated and reported, never fatal.
	// A mismatch here is usually a substrate race, not a provisioner bug.
	expected := len(handles)
	if info, err := p.sub.GetGroup(ctx, groupHandle); err != nil {
		p.log.Warn("group read-back failed", zap.Error(err))
		warnings = append(warnings, fmt.Sprintf("group read-back failed: %v", err))
	} else {
		p.log.Info("verified",
			zap.Int("count", info.MemberCount),
			zap.Int("expected", expected))
		if info.MemberCount != expected {
			p.log.Warn("group member count mismatch",
				zap.Int("count", info.MemberCount),
				zap.Int("expected", expected))
			warnings = append(warnings, fmt.Sprintf("group reports %d members, expected %d", info.MemberCount, expected))
		}
	}

	// Best effort: a group that fails to focus its first tab is still a
	// provisioned group.
	if err := p.sub.SetActiveResource(ctx, handles[0]); err != nil {
		p.log.Warn("activate failed",
			zap.String("handle", handles[0]),
			zap.Error(err))
		warnings = append(warnings, fmt.Sprintf("activate %s: %v", handles[0], err))
	} else {
		p.log.Info("activated", zap.String("handle", handles[0]))
	}

	return &Result{
		Outcome:         OutcomeSuccess,
		GroupHandle:     groupHandle,
		GroupTitle:      req.GroupName,
		ResourceHandles: handles,
		ResourceCount:   len(handles),
		FailedRefIndex:  -1,
		Warnings:        warnings,
	}
}

// settle waits for the substrate to register freshly created resources
// before grouping is attempted. Substrates that report readiness are polled
// with a bounded budget; everything else gets the fixed delay. Exhausting
// the poll budget is not fatal because grouping failures are themselves
// caught and reported.
func (p *Provisioner) settle(ctx context.Context, handles []string) string {
	prober, ok := p.sub.(ResourceReadiness)
	if !ok {
		delay := p.cfg.SettleDelay()
		if delay <= 0 {
			return ""
		}
		p.log.Info("settling", zap.Duration("delay", delay))
		select {
		case <-ctx.Done():
			return fmt.Sprintf("settle delay cut short, context ended after %d resources created", len(handles))
		case <-time.After(delay):
		}
		return ""
	}

	interval := p.cfg.ReadinessPollInterval()
	timeout := p.cfg.ReadinessPollTimeout()
	deadline := time.Now().Add(timeout)
	p.log.Info("settling",
		zap.Duration("poll_interval", interval),
		zap.Duration("poll_timeout", timeout))

	remaining := append([]string(nil), handles...)
	for {
		var unready []string
		for _, h := range remaining {
			ready, err := prober.ResourceReady(ctx, h)
			if err != nil || !ready {
				unready = append(unready, h)
			}
		}
		remaining = unready
		if len(remaining) == 0 {
			return ""
		}
		if !time.Now().Before(deadline) {
			break
		}
		select {
		case <-ctx.Done():
			return fmt.Sprintf("%d of %d resources not ready when context ended", len(remaining), len(handles))
		case <-time.After(interval):
		}
	}

	w := fmt.Sprintf("%d of %d resources not ready after %s", len(remaining), len(handles), timeout)
	p.log.Warn("settle poll exhausted",
		zap.Int("unready", len(remaining)),
		zap.Duration("timeout", timeout))
	return w
}

func validateRequest(req Request) (string, int) {
	if strings.TrimSpace(req.GroupName) == "" {
		return "groupName required", -1
	}
	if len(req.ResourceRefs) == 0 {
		return "resourceRefs required", -1
	}
	for i, ref := range req.ResourceRefs {
		if !validRef(ref) {
			return fmt.Sprintf("invalid ref at index %d: %q", i, ref), i
		}
	}
	return "", -1
}

// validRef accepts syntactically well-formed URIs that carry a scheme and
// either a host or an opaque part. Bare words and scheme-less paths are
// rejected before any substrate call happens.
func validRef(ref string) bool {
	u, err := url.Parse(ref)
	if err != nil {
		return false
	}
	if u.Scheme == "" {
		return false
	}
	return u.Host != "" || u.Opaque != ""
}
