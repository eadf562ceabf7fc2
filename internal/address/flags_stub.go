//go:build !linux

package address

// Values reported by Android are the Linux ones, whatever the host OS.
const (
	FlagDeprecated  Flags = 0x20
	FlagTemporary   Flags = 0x01
	FlagHomeAddress Flags = 0x10
	FlagNoDAD       Flags = 0x02
	FlagOptimistic  Flags = 0x04
	FlagTentative   Flags = 0x40
	FlagPermanent   Flags = 0x80
	FlagDADFailed   Flags = 0x08
)
