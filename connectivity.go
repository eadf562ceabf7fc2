package libsandbox

import (
	"net/netip"

	"github.com/nekohasekai/libsandbox/internal/address"
	"github.com/nekohasekai/libsandbox/internal/monitor"

	E "github.com/sagernet/sing/common/exceptions"
	F "github.com/sagernet/sing/common/format"
	"github.com/v2fly/v2ray-core/v5/common/log"
)

// NetworkRequest describes the NetworkRequest.Builder calls the host must make.
type NetworkRequest struct {
	criteria monitor.Criteria
}

func (r *NetworkRequest) IsVPNMode() bool {
	return r.criteria.Mode == monitor.ModeVPN
}

// RequiredCapabilities are passed to addCapability.
func (r *NetworkRequest) RequiredCapabilities() Int32Iterator {
	return newIterator(capabilityValues(r.criteria.RequiredCapabilities()))
}

// RemovedCapabilities are passed to removeCapability.
func (r *NetworkRequest) RemovedCapabilities() Int32Iterator {
	return newIterator(capabilityValues(r.criteria.RemovedCapabilities()))
}

func capabilityValues(capabilities []monitor.NetCapability) []int32 {
	values := make([]int32, 0, len(capabilities))
	for _, capability := range capabilities {
		values = append(values, int32(capability))
	}
	return values
}

// NetworkCallback is invoked from the host's ConnectivityManager.NetworkCallback.
type NetworkCallback struct {
	handler monitor.EventHandler
}

func (c *NetworkCallback) OnAvailable(network int64) {
	c.handler.HandleEvent(monitor.Available(monitor.Network(network)))
}

// OnCapabilitiesChanged takes the capabilities as a bitmask with bit n set when
// hasCapability(n) is true.
func (c *NetworkCallback) OnCapabilitiesChanged(network int64, capabilities int64) {
	c.handler.HandleEvent(monitor.CapabilitiesChanged(monitor.Network(network), monitor.Capabilities(capabilities)))
}

func (c *NetworkCallback) OnLost(network int64) {
	c.handler.HandleEvent(monitor.Lost(monitor.Network(network)))
}

var _ monitor.ConnectivityService = (*platformService)(nil)

type platformService struct {
	iif PlatformInterface
}

func (s *platformService) RequestNetwork(criteria monitor.Criteria, handler monitor.EventHandler) (monitor.Subscription, error) {
	token, err := s.iif.RequestNetwork(&NetworkRequest{criteria}, &NetworkCallback{handler})
	if err != nil {
		return 0, err
	}
	return monitor.Subscription(token), nil
}

func (s *platformService) UnregisterNetworkCallback(subscription monitor.Subscription) error {
	return s.iif.UnregisterNetworkCallback(int32(subscription))
}

func (s *platformService) AllNetworks() ([]monitor.Network, error) {
	iterator, err := s.iif.GetAllNetworks()
	if err != nil {
		return nil, err
	}
	var networks []monitor.Network
	for _, network := range int64Values(iterator) {
		networks = append(networks, monitor.Network(network))
	}
	return networks, nil
}

func (s *platformService) LinkAddresses(network monitor.Network) ([]monitor.LinkAddress, error) {
	iterator, err := s.iif.GetLinkAddresses(int64(network))
	if err != nil || iterator == nil {
		return nil, err
	}
	addresses := []monitor.LinkAddress{}
	for iterator.HasNext() {
		linkAddress, err := parseLinkAddress(iterator.Next())
		if err != nil {
			log.Record(&log.GeneralMessage{
				Severity: log.Severity_Debug,
				Content:  F.ToString("network ", int64(network), ": ", err),
			})
			continue
		}
		addresses = append(addresses, linkAddress)
	}
	return addresses, nil
}

func parseLinkAddress(linkAddress *LinkAddress) (monitor.LinkAddress, error) {
	if linkAddress == nil {
		return monitor.LinkAddress{}, E.New("nil link address")
	}
	addr, err := netip.ParseAddr(linkAddress.Address)
	if err != nil {
		return monitor.LinkAddress{}, E.Cause(err, "parse link address")
	}
	prefix := netip.PrefixFrom(addr, int(linkAddress.PrefixLength))
	if !prefix.IsValid() {
		return monitor.LinkAddress{}, E.New("invalid prefix length ", linkAddress.PrefixLength, " for ", addr)
	}
	return monitor.LinkAddress{
		Prefix: prefix,
		Flags:  address.Flags(linkAddress.Flags),
		Scope:  linkAddress.Scope,
	}, nil
}
