package address

import "golang.org/x/sys/unix"

const (
	FlagDeprecated  Flags = unix.IFA_F_DEPRECATED
	FlagTemporary   Flags = unix.IFA_F_TEMPORARY
	FlagHomeAddress Flags = unix.IFA_F_HOMEADDRESS
	FlagNoDAD       Flags = unix.IFA_F_NODAD
	FlagOptimistic  Flags = unix.IFA_F_OPTIMISTIC
	FlagTentative   Flags = unix.IFA_F_TENTATIVE
	FlagPermanent   Flags = unix.IFA_F_PERMANENT
	FlagDADFailed   Flags = unix.IFA_F_DADFAILED
)
