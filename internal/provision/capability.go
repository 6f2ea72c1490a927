package provision

import "context"

// Capability names one operation of the substrate surface.
type Capability string

const (
	CapCreateResource        Capability = "create-resource"
	CapCreateGroup           Capability = "create-group"
	CapSetGroupTitle         Capability = "set-group-title"
	CapGetGroup              Capability = "get-group"
	CapSetActiveResource     Capability = "set-active-resource"
	CapQueryResourcesByGroup Capability = "query-resources-by-group"
)

// RequiredCapabilities returns the operations provisioning cannot proceed
// without, in canonical probe order. QueryResourcesByGroup is part of the
// consumed surface but not required by the provisioning workflow itself.
func RequiredCapabilities() []Capability {
	return []Capability{
		CapCreateResource,
		CapCreateGroup,
		CapSetGroupTitle,
		CapGetGroup,
		CapSetActiveResource,
	}
}

// CapabilitySet records which substrate operations are available.
type CapabilitySet map[Capability]bool

// FullCapabilitySet returns a set containing the entire substrate surface.
func FullCapabilitySet() CapabilitySet {
	return CapabilitySet{
		CapCreateResource:        true,
		CapCreateGroup:           true,
		CapSetGroupTitle:         true,
		CapGetGroup:              true,
		CapSetActiveResource:     true,
		CapQueryResourcesByGroup: true,
	}
}

// Has reports whether the set contains a capability.
func (s CapabilitySet) Has(c Capability) bool {
	return s[c]
}

// Missing returns the required capabilities absent from the set, in probe
// order.
func (s CapabilitySet) Missing() []Capability {
	var missing []Capability
	for _, c := range RequiredCapabilities() {
		if !s[c] {
			missing = append(missing, c)
		}
	}
	return missing
}

// CapabilityReport is the outcome of a capability probe.
type CapabilityReport struct {
	Available bool
	Missing   []Capability
}

// ProbeCapabilities checks whether the substrate exposes every required
// operation and names the specific ones it lacks, so callers can present an
// actionable error instead of a generic failure. A substrate that cannot
// even report its capabilities counts as missing the whole surface.
func ProbeCapabilities(ctx context.Context, sub Substrate) CapabilityReport {
	caps, err := sub.Capabilities(ctx)
	if err != nil {
		return CapabilityReport{Missing: RequiredCapabilities()}
	}
	missing := caps.Missing()
	return CapabilityReport{Available: len(missing) == 0, Missing: missing}
}

func capabilityStrings(caps []Capability) []string {
	out := make([]string, len(caps))
	for i, c := range caps {
		out[i] = string(c)
	}
	return out
}
