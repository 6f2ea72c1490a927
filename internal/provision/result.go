package provision

// Request describes one provision call: a display name for the group and the
// ordered resource locators to create. Requests are transient; nothing about
// them persists inside the provisioner between calls.
type Request struct {
	GroupName    string   `json:"group_name"`
	ResourceRefs []string `json:"resource_refs"`
}

// Outcome tags a Result.
type Outcome string

const (
	// OutcomeSuccess means every mandatory step completed. Soft steps
	// (verify count, activate) may still have attached warnings.
	OutcomeSuccess Outcome = "success"

	// OutcomeValidationFailure is a caller error caught before any
	// substrate call. Safe to fix the input and retry immediately.
	OutcomeValidationFailure Outcome = "validation_failure"

	// OutcomeCapabilityUnavailable means the host environment lacks part of
	// the required operation surface. Not retryable on the same host. No
	// resources were created.
	OutcomeCapabilityUnavailable Outcome = "capability_unavailable"

	// OutcomeResourceCreationFailure means creation stopped at
	// FailedRefIndex; ResourceHandles holds everything created before it.
	OutcomeResourceCreationFailure Outcome = "resource_creation_failure"

	// OutcomeGroupingFailure means all resources exist but aggregating
	// them into a group failed; ResourceHandles holds all of them.
	OutcomeGroupingFailure Outcome = "grouping_failure"

	// OutcomeTitlingFailure means the group exists but its title could not
	// be set; GroupHandle and all ResourceHandles are present.
	OutcomeTitlingFailure Outcome = "titling_failure"
)

// Result is the tagged outcome of one provision call. Failures are data, not
// errors: every handle created before a failure is reported back so the
// caller can inspect, clean up, or retry. Nothing is ever silently dropped.
type Result struct {
	Outcome Outcome `json:"outcome"`

	GroupHandle     string   `json:"group_handle,omitempty"`
	GroupTitle      string   `json:"group_title,omitempty"`
	ResourceHandles []string `json:"resource_handles,omitempty"`
	ResourceCount   int      `json:"resource_count"`

	FailureReason string `json:"failure_reason,omitempty"`

	// FailedRefIndex is the offending ResourceRefs index for validation and
	// creation failures, -1 otherwise.
	FailedRefIndex int `json:"failed_ref_index"`

	MissingCapabilities []Capability `json:"missing_capabilities,omitempty"`

	// Warnings carry tolerated drift on an otherwise successful call:
	// member-count mismatch, activate failure, readiness-poll exhaustion.
	Warnings []string `json:"warnings,omitempty"`
}

// Succeeded reports whether the call completed every mandatory step.
func (r *Result) Succeeded() bool {
	return r.Outcome == OutcomeSuccess
}

// Partial reports whether the result carries created handles despite a
// failure, meaning side effects exist that the caller may want to clean up.
func (r *Result) Partial() bool {
	switch r.Outcome {
	case OutcomeResourceCreationFailure, OutcomeGroupingFailure, OutcomeTitlingFailure:
		return len(r.ResourceHandles) > 0 || r.GroupHandle != ""
	}
	return false
}
