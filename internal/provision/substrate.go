package provision

import "context"

// Substrate is the external resource-management surface the provisioner
// drives. Implementations own the resource and group handles; the
// provisioner only orchestrates creation order and the group relationship.
// All operations are fallible and attempted exactly once per provision call.
type Substrate interface {
	// Capabilities reports which operations the host environment exposes.
	Capabilities(ctx context.Context) (CapabilitySet, error)

	// CreateResource creates one addressable resource from a locator and
	// returns its opaque handle.
	CreateResource(ctx context.Context, ref string) (string, error)

	// CreateGroup aggregates existing resource handles into one group.
	// Every handle must already exist when this is called.
	CreateGroup(ctx context.Context, handles []string) (string, error)

	// SetGroupTitle sets the display title of a group.
	SetGroupTitle(ctx context.Context, groupHandle, title string) error

	// GetGroup reads a group back for verification.
	GetGroup(ctx context.Context, groupHandle string) (GroupInfo, error)

	// SetActiveResource marks one resource as active or primary.
	SetActiveResource(ctx context.Context, handle string) error

	// QueryResourcesByGroup returns the member handles of a group in
	// creation order.
	QueryResourcesByGroup(ctx context.Context, groupHandle string) ([]string, error)
}

// GroupInfo is the read-back view of a group.
type GroupInfo struct {
	Title       string `json:"title"`
	MemberCount int    `json:"member_count"`
}

// ResourceReadiness is optionally implemented by substrates that can report
// when a created resource has finished registering. When available, the
// provisioner polls readiness between resource creation and grouping instead
// of sleeping for the fixed settle delay.
type ResourceReadiness interface {
	ResourceReady(ctx context.Context, handle string) (bool, error)
}
