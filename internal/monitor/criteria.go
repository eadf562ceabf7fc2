package monitor

// Mode selects which networks a subscription may see.
type Mode uint8

const (
	// ModeNormal tracks internet networks including VPNs, so that switching the
	// network underneath a running VPN is not reported as a change.
	ModeNormal Mode = iota
	// ModeVPN tracks only the non-VPN networks underneath our own tunnel.
	ModeVPN
)

func (m Mode) String() string {
	if m == ModeVPN {
		return "vpn"
	}
	return "normal"
}

// NetworkRequest.Builder starts from these.
var defaultRequestCapabilities = NewCapabilities(
	CapabilityNotRestricted,
	CapabilityTrusted,
	CapabilityNotVPN,
)

// Criteria is the filter of a network request. It is built once per subscription
// and never changed afterwards.
type Criteria struct {
	Mode     Mode
	Required Capabilities
	Removed  Capabilities
}

func NewCriteria(mode Mode) Criteria {
	criteria := Criteria{
		Mode:     mode,
		Required: defaultRequestCapabilities.With(CapabilityInternet),
	}
	switch mode {
	case ModeVPN:
		criteria.Required = criteria.Required.With(CapabilityNotVPN)
	default:
		criteria.Required = criteria.Required.Without(CapabilityNotVPN)
		criteria.Removed = criteria.Removed.With(CapabilityNotVPN)
	}
	return criteria
}

// Matches reports whether a network advertising capabilities satisfies the request.
func (c Criteria) Matches(capabilities Capabilities) bool {
	return capabilities.Contains(c.Required)
}

func (c Criteria) RequiredCapabilities() []NetCapability {
	return c.Required.list()
}

func (c Criteria) RemovedCapabilities() []NetCapability {
	return c.Removed.list()
}

func (c Capabilities) list() []NetCapability {
	var capabilities []NetCapability
	for capability := NetCapability(0); capability < 64; capability++ {
		if c.Has(capability) {
			capabilities = append(capabilities, capability)
		}
	}
	return capabilities
}
