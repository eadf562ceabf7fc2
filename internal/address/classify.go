package address

import (
	"net/netip"
	"strings"
)

// IsReportable reports whether addr should appear in an IP list. Loopback and
// link-local addresses are never reported, in either family.
func IsReportable(addr netip.Addr) bool {
	if !addr.IsValid() {
		return false
	}
	addr = addr.Unmap()
	if addr.IsLoopback() {
		return false
	}
	if addr.IsLinkLocalUnicast() || addr.IsLinkLocalMulticast() {
		return false
	}
	return true
}

// ParseReportable parses an address literal as printed by the platform, with an
// optional zone and an optional prefix length.
func ParseReportable(literal string) (netip.Addr, bool) {
	literal = strings.TrimSpace(literal)
	if prefix, err := netip.ParsePrefix(literal); err == nil {
		return prefix.Addr(), IsReportable(prefix.Addr())
	}
	addr, err := netip.ParseAddr(literal)
	if err != nil {
		return netip.Addr{}, false
	}
	return addr, IsReportable(addr)
}
