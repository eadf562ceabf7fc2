package monitor

import (
	"strings"

	E "github.com/sagernet/sing/common/exceptions"
	F "github.com/sagernet/sing/common/format"
)

// NetCapability is an android.net.NetworkCapabilities NET_CAPABILITY_* value.
type NetCapability int32

const (
	CapabilityInternet      NetCapability = 12
	CapabilityNotRestricted NetCapability = 13
	CapabilityTrusted       NetCapability = 14
	CapabilityNotVPN        NetCapability = 15
	CapabilityValidated     NetCapability = 16
)

func (c NetCapability) String() string {
	switch c {
	case CapabilityInternet:
		return "INTERNET"
	case CapabilityNotRestricted:
		return "NOT_RESTRICTED"
	case CapabilityTrusted:
		return "TRUSTED"
	case CapabilityNotVPN:
		return "NOT_VPN"
	case CapabilityValidated:
		return "VALIDATED"
	default:
		return F.ToString("CAPABILITY_", int32(c))
	}
}

func ParseNetCapability(name string) (NetCapability, error) {
	normalized := strings.TrimPrefix(strings.ToUpper(name), "NET_CAPABILITY_")
	for _, capability := range []NetCapability{
		CapabilityInternet,
		CapabilityNotRestricted,
		CapabilityTrusted,
		CapabilityNotVPN,
		CapabilityValidated,
	} {
		if capability.String() == normalized {
			return capability, nil
		}
	}
	return 0, E.New("unknown network capability: ", name)
}

// Capabilities is an immutable capability snapshot, one bit per NetCapability,
// laid out like NetworkCapabilities.mNetworkCapabilities.
type Capabilities uint64

func NewCapabilities(capabilities ...NetCapability) Capabilities {
	var set Capabilities
	for _, capability := range capabilities {
		set = set.With(capability)
	}
	return set
}

func (c Capabilities) Has(capability NetCapability) bool {
	return c&(1<<uint(capability)) != 0
}

func (c Capabilities) With(capability NetCapability) Capabilities {
	return c | 1<<uint(capability)
}

func (c Capabilities) Without(capability NetCapability) Capabilities {
	return c &^ (1 << uint(capability))
}

func (c Capabilities) Contains(other Capabilities) bool {
	return c&other == other
}

func (c Capabilities) String() string {
	var names []string
	for capability := NetCapability(0); capability < 64; capability++ {
		if c.Has(capability) {
			names = append(names, capability.String())
		}
	}
	return "[" + strings.Join(names, " ") + "]"
}

// CallbackBehavior describes how a platform release orders NetworkCallback events.
// It is resolved once from the SDK level.
type CallbackBehavior uint8

const (
	// BehaviorLegacy has no VALIDATED capability, onAvailable is the only signal.
	BehaviorLegacy CallbackBehavior = iota + 1
	// BehaviorValidatedSignaling reports VALIDATED, but onAvailable is not
	// guaranteed to be followed by onCapabilitiesChanged.
	BehaviorValidatedSignaling
	// BehaviorGuaranteedOrdering always follows onAvailable with onCapabilitiesChanged.
	BehaviorGuaranteedOrdering
)

const (
	sdkLollipop    = 21
	sdkMarshmallow = 23
	sdkOreo        = 26
)

var ErrUnsupported = E.New("network monitor is not supported below API level 21")

func BehaviorForSDK(sdkVersion int32) (CallbackBehavior, error) {
	switch {
	case sdkVersion < sdkLollipop:
		return 0, E.Cause(ErrUnsupported, "API level ", sdkVersion)
	case sdkVersion < sdkMarshmallow:
		return BehaviorLegacy, nil
	case sdkVersion < sdkOreo:
		return BehaviorValidatedSignaling, nil
	default:
		return BehaviorGuaranteedOrdering, nil
	}
}

func (b CallbackBehavior) activatesOnAvailable() bool {
	return b == BehaviorLegacy || b == BehaviorValidatedSignaling
}

func (b CallbackBehavior) activatesOnValidated() bool {
	return b == BehaviorValidatedSignaling || b == BehaviorGuaranteedOrdering
}

func (b CallbackBehavior) String() string {
	switch b {
	case BehaviorLegacy:
		return "legacy"
	case BehaviorValidatedSignaling:
		return "validated-signaling"
	case BehaviorGuaranteedOrdering:
		return "guaranteed-ordering"
	default:
		return "unknown"
	}
}
