package report

import (
	"net/netip"
	"strings"

	"github.com/nekohasekai/libsandbox/internal/address"
	"github.com/nekohasekai/libsandbox/internal/monitor"

	"github.com/sagernet/sing/common/control"
	E "github.com/sagernet/sing/common/exceptions"
	F "github.com/sagernet/sing/common/format"
	"github.com/v2fly/v2ray-core/v5/common/log"
)

const (
	TitleNetworkInterfaces = "Network Interface IPs"
	TitleAllNetworks       = "All Network IPs"
	TitleActiveNetwork     = "Active Link Properties IPs"

	EmptyMessage = "No IPs found!"
)

// NetworkLister enumerates every network the platform knows about.
type NetworkLister interface {
	monitor.LinkPropertiesReader
	AllNetworks() ([]monitor.Network, error)
}

// InterfaceAddresses lists the reportable addresses of the local interfaces.
func InterfaceAddresses(finder control.InterfaceFinder) []string {
	const tag = "interfaces"
	err := finder.Update()
	if err != nil {
		logError(tag, E.Cause(err, "update interfaces"))
		return nil
	}
	var addresses []string
	for _, networkInterface := range finder.Interfaces() {
		logDebug(tag, describeInterface(networkInterface))
		for _, prefix := range networkInterface.Addresses {
			addresses = appendReportable(tag, addresses, prefix.Addr())
		}
	}
	return addresses
}

func describeInterface(networkInterface control.Interface) string {
	return F.ToString("interface ", networkInterface.Name, ", index ", networkInterface.Index, ", MTU ", networkInterface.MTU, ", flags ", networkInterface.Flags, ", addresses ", len(networkInterface.Addresses))
}

// AllNetworkAddresses lists the reportable addresses of every known network.
func AllNetworkAddresses(lister NetworkLister) []string {
	const tag = "all networks"
	networks, err := lister.AllNetworks()
	if err != nil {
		logError(tag, E.Cause(err, "list networks"))
		return nil
	}
	var addresses []string
	for _, network := range networks {
		logDebug(tag, "network ", int64(network))
		addresses = appendLinkAddresses(tag, addresses, monitor.ReadLinkAddresses(lister, network))
	}
	return addresses
}

// ActiveNetworkAddresses lists the reportable addresses of the active network,
// as last reported by the monitor. ok is false when there is none.
func ActiveNetworkAddresses(reader monitor.LinkPropertiesReader, network monitor.Network, ok bool) []string {
	const tag = "active network"
	if !ok {
		logDebug(tag, "no active network")
		return nil
	}
	logDebug(tag, "network ", int64(network))
	return appendLinkAddresses(tag, nil, monitor.ReadLinkAddresses(reader, network))
}

func appendLinkAddresses(tag string, addresses []string, linkAddresses []monitor.LinkAddress) []string {
	for _, linkAddress := range linkAddresses {
		logDebug(tag, "link address ", linkAddress.Prefix, ", flags ", linkAddress.Flags)
		addresses = appendReportable(tag, addresses, linkAddress.Addr())
	}
	return addresses
}

func appendReportable(tag string, addresses []string, addr netip.Addr) []string {
	switch {
	case !addr.IsValid():
		logDebug(tag, "invalid address, skipping")
	case addr.Unmap().IsLoopback():
		logDebug(tag, addr, " is a loopback address, skipping")
	case !address.IsReportable(addr):
		logDebug(tag, addr, " is a link-local address, skipping")
	default:
		logDebug(tag, addr, " is a valid address, adding")
		addresses = append(addresses, addr.String())
	}
	return addresses
}

// FormatList renders addresses one per line, or EmptyMessage.
func FormatList(addresses []string) string {
	if len(addresses) == 0 {
		return EmptyMessage
	}
	var builder strings.Builder
	for _, addr := range addresses {
		builder.WriteString(addr)
		builder.WriteString("\n")
	}
	return builder.String()
}

func logDebug(tag string, message ...any) {
	log.Record(&log.GeneralMessage{
		Severity: log.Severity_Debug,
		Content:  F.ToString(append([]any{tag, ": "}, message...)...),
	})
}

func logError(tag string, err error) {
	log.Record(&log.GeneralMessage{
		Severity: log.Severity_Error,
		Content:  F.ToString(tag, ": ", err),
	})
}
