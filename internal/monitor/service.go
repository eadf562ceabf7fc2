package monitor

import (
	"net/netip"

	"github.com/nekohasekai/libsandbox/internal/address"

	F "github.com/sagernet/sing/common/format"
	"github.com/v2fly/v2ray-core/v5/common/log"
)

// Subscription identifies a registered network request.
type Subscription int32

// LinkAddress is one android.net.LinkAddress of a network.
type LinkAddress struct {
	Prefix netip.Prefix
	Flags  address.Flags
	Scope  int32
}

func (a LinkAddress) Addr() netip.Addr {
	return a.Prefix.Addr()
}

func (a LinkAddress) String() string {
	return F.ToString(a.Prefix, " flags ", a.Flags, " scope ", a.Scope)
}

// LinkPropertiesReader reads the current link addresses of a network.
// A nil slice with a nil error means the platform knows no properties for it.
type LinkPropertiesReader interface {
	LinkAddresses(network Network) ([]LinkAddress, error)
}

// ConnectivityService is the subset of ConnectivityManager the monitor uses.
type ConnectivityService interface {
	LinkPropertiesReader
	RequestNetwork(criteria Criteria, handler EventHandler) (Subscription, error)
	UnregisterNetworkCallback(subscription Subscription) error
	AllNetworks() ([]Network, error)
}

// ReadLinkAddresses returns the link addresses of network, or nothing if the
// network is gone. It never retries.
func ReadLinkAddresses(reader LinkPropertiesReader, network Network) []LinkAddress {
	addresses, err := reader.LinkAddresses(network)
	if err != nil {
		log.Record(&log.GeneralMessage{
			Severity: log.Severity_Debug,
			Content:  F.ToString("read link properties of network ", int64(network), ": ", err),
		})
		return nil
	}
	if addresses == nil {
		log.Record(&log.GeneralMessage{
			Severity: log.Severity_Debug,
			Content:  F.ToString("no link properties for network ", int64(network)),
		})
	}
	return addresses
}
