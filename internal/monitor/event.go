package monitor

import (
	F "github.com/sagernet/sing/common/format"
)

// Network is the platform handle of a network (android.net.Network#getNetworkHandle).
type Network int64

type EventType uint8

const (
	EventAvailable EventType = iota + 1
	EventCapabilitiesChanged
	EventLost
)

func (t EventType) String() string {
	switch t {
	case EventAvailable:
		return "available"
	case EventCapabilitiesChanged:
		return "capabilities changed"
	case EventLost:
		return "lost"
	default:
		return F.ToString("event ", uint8(t))
	}
}

// Event is one NetworkCallback invocation. Capabilities is only set for
// EventCapabilitiesChanged.
type Event struct {
	Type         EventType
	Network      Network
	Capabilities Capabilities
}

func Available(network Network) Event {
	return Event{Type: EventAvailable, Network: network}
}

func CapabilitiesChanged(network Network, capabilities Capabilities) Event {
	return Event{Type: EventCapabilitiesChanged, Network: network, Capabilities: capabilities}
}

func Lost(network Network) Event {
	return Event{Type: EventLost, Network: network}
}

func (e Event) String() string {
	if e.Type == EventCapabilitiesChanged {
		return F.ToString(e.Type, " ", int64(e.Network), " ", e.Capabilities)
	}
	return F.ToString(e.Type, " ", int64(e.Network))
}

// EventHandler receives events of a network request.
type EventHandler interface {
	HandleEvent(event Event)
}
