package address

import (
	"strings"
)

// Flags is the IFA_F_* bitmask the kernel reports for an interface address.
type Flags int32

func (f Flags) has(flag Flags) bool {
	return f&flag == flag
}

func (f Flags) Deprecated() bool { return f.has(FlagDeprecated) }
func (f Flags) Temporary() bool { return f.has(FlagTemporary) }
func (f Flags) HomeAddress() bool { return f.has(FlagHomeAddress) }
func (f Flags) NoDAD() bool { return f.has(FlagNoDAD) }
func (f Flags) Optimistic() bool { return f.has(FlagOptimistic) }
func (f Flags) Tentative() bool { return f.has(FlagTentative) }
func (f Flags) Permanent() bool { return f.has(FlagPermanent) }
func (f Flags) DADFailed() bool { return f.has(FlagDADFailed) }

var flagNames = []struct {
	flag Flags
	name string
}{
	{FlagDeprecated, "deprecated"},
	{FlagTemporary, "temporary"},
	{FlagHomeAddress, "home-address"},
	{FlagNoDAD, "nodad"},
	{FlagOptimistic, "optimistic"},
	{FlagTentative, "tentative"},
	{FlagPermanent, "permanent"},
	{FlagDADFailed, "dadfailed"},
}

// String lists the set facets, for logging only.
func (f Flags) String() string {
	var names []string
	for _, entry := range flagNames {
		if f.has(entry.flag) {
			names = append(names, entry.name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}
