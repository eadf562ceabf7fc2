package monitor

import (
	"fmt"
	"sync"

	E "github.com/sagernet/sing/common/exceptions"
	F "github.com/sagernet/sing/common/format"
	"github.com/sagernet/sing/common/x/list"
	"github.com/v2fly/v2ray-core/v5/common/log"
)

// Listener is told about every change of the active network. ok is false when
// there is no active network any more.
type Listener interface {
	ActiveNetworkChanged(network Network, ok bool) error
}

type ListenerFunc func(network Network, ok bool) error

func (f ListenerFunc) ActiveNetworkChanged(network Network, ok bool) error {
	return f(network, ok)
}

var _ EventHandler = (*Tracker)(nil)

// Lost handles are remembered so a late onCapabilitiesChanged cannot bring them
// back. Platform handles are never reused, only the latest few matter.
const maxLostNetworks = 16

// Tracker follows which network of a request is the active one.
//
// Events may come from any thread. HandleEvent serializes them and calls the
// listener outside the state lock, so the listener may stop or restart the
// controller that owns the tracker. It must not feed events to the same tracker.
type Tracker struct {
	behavior CallbackBehavior
	listener Listener

	eventAccess sync.Mutex

	access    sync.Mutex
	active    Network
	hasActive bool
	available map[Network]struct{}
	lost      map[Network]*list.Element[Network]
	lostOrder list.List[Network]
	closed    bool

	firstEvent     chan struct{}
	firstEventOnce sync.Once
}

func NewTracker(behavior CallbackBehavior, listener Listener) *Tracker {
	return &Tracker{
		behavior:   behavior,
		listener:   listener,
		available:  make(map[Network]struct{}),
		lost:       make(map[Network]*list.Element[Network]),
		firstEvent: make(chan struct{}),
	}
}

// FirstEvent is closed once the first event of any kind was handled.
func (t *Tracker) FirstEvent() <-chan struct{} {
	return t.firstEvent
}

func (t *Tracker) HandleEvent(event Event) {
	defer t.firstEventOnce.Do(func() {
		close(t.firstEvent)
	})
	t.eventAccess.Lock()
	defer t.eventAccess.Unlock()
	network, ok, changed := t.transition(event)
	if changed {
		t.notify(network, ok)
	}
}

// transition applies event to the state and reports the new active network
// if it changed.
func (t *Tracker) transition(event Event) (network Network, ok bool, changed bool) {
	t.access.Lock()
	defer t.access.Unlock()
	if t.closed {
		return
	}
	log.Record(&log.GeneralMessage{
		Severity: log.Severity_Debug,
		Content:  F.ToString("network monitor: ", event),
	})
	switch event.Type {
	case EventCapabilitiesChanged:
		if !t.behavior.activatesOnValidated() || !event.Capabilities.Has(CapabilityValidated) {
			return
		}
		if _, isLost := t.lost[event.Network]; isLost {
			return
		}
		return t.activate(event.Network)
	case EventAvailable:
		t.available[event.Network] = struct{}{}
		t.forgetLost(event.Network)
		// Under guaranteed ordering the following onCapabilitiesChanged does the work.
		// Nothing falls back if it never arrives.
		if !t.behavior.activatesOnAvailable() {
			return
		}
		return t.activate(event.Network)
	case EventLost:
		isActive := t.hasActive && t.active == event.Network
		_, isAvailable := t.available[event.Network]
		delete(t.available, event.Network)
		if isActive || isAvailable {
			t.rememberLost(event.Network)
		}
		if !isActive {
			return
		}
		t.active = 0
		t.hasActive = false
		return 0, false, true
	}
	return
}

func (t *Tracker) activate(network Network) (Network, bool, bool) {
	if t.hasActive && t.active == network {
		return 0, false, false
	}
	t.active = network
	t.hasActive = true
	return network, true, true
}

func (t *Tracker) rememberLost(network Network) {
	if _, loaded := t.lost[network]; loaded {
		return
	}
	t.lost[network] = t.lostOrder.PushBack(network)
	if t.lostOrder.Len() > maxLostNetworks {
		delete(t.lost, t.lostOrder.Remove(t.lostOrder.Front()))
	}
}

func (t *Tracker) forgetLost(network Network) {
	element, loaded := t.lost[network]
	if !loaded {
		return
	}
	t.lostOrder.Remove(element)
	delete(t.lost, network)
}

func (t *Tracker) notify(network Network, ok bool) {
	if t.listener == nil {
		return
	}
	defer func() {
		if cause := recover(); cause != nil {
			log.Record(&log.GeneralMessage{
				Severity: log.Severity_Error,
				Content:  F.ToString("network monitor: listener panic: ", fmt.Sprint(cause)),
			})
		}
	}()
	err := t.listener.ActiveNetworkChanged(network, ok)
	if err != nil {
		log.Record(&log.GeneralMessage{
			Severity: log.Severity_Error,
			Content:  E.Cause(err, "network monitor: notify active network ", int64(network)),
		})
	}
}

// Close drops the active network without notifying and ignores later events.
// It does not wait for a listener call in progress, and releases anyone waiting
// on FirstEvent.
func (t *Tracker) Close() {
	defer t.firstEventOnce.Do(func() {
		close(t.firstEvent)
	})
	t.access.Lock()
	defer t.access.Unlock()
	t.closed = true
	t.active = 0
	t.hasActive = false
	clear(t.available)
	clear(t.lost)
	t.lostOrder.Init()
}
