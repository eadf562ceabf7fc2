package monitor

import (
	"testing"
	"time"

	E "github.com/sagernet/sing/common/exceptions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var validated = NewCapabilities(CapabilityInternet, CapabilityNotVPN, CapabilityValidated)

func TestTrackerFollowsLatestActiveNetwork(t *testing.T) {
	t.Parallel()
	listener := &recordingListener{}
	tracker := NewTracker(BehaviorGuaranteedOrdering, listener)
	assert.False(t, tracker.hasActive)

	tracker.HandleEvent(CapabilitiesChanged(1, validated))
	tracker.HandleEvent(CapabilitiesChanged(2, validated))
	assert.Equal(t, Network(2), tracker.active)
	tracker.HandleEvent(Lost(2))
	assert.False(t, tracker.hasActive)

	assert.Equal(t, []change{{1, true}, {2, true}, {0, false}}, listener.Changes())
}

func TestTrackerDeduplicates(t *testing.T) {
	t.Parallel()
	listener := &recordingListener{}
	tracker := NewTracker(BehaviorGuaranteedOrdering, listener)
	tracker.HandleEvent(CapabilitiesChanged(7, validated))
	tracker.HandleEvent(CapabilitiesChanged(7, validated.With(CapabilityNotRestricted)))
	assert.Equal(t, []change{{7, true}}, listener.Changes())
}

func TestTrackerLostOfInactiveNetwork(t *testing.T) {
	t.Parallel()
	listener := &recordingListener{}
	tracker := NewTracker(BehaviorGuaranteedOrdering, listener)
	tracker.HandleEvent(Lost(3))
	assert.Empty(t, listener.Changes())

	tracker.HandleEvent(CapabilitiesChanged(1, validated))
	tracker.HandleEvent(Lost(3))
	assert.Equal(t, Network(1), tracker.active)
	assert.True(t, tracker.hasActive)
	assert.Equal(t, []change{{1, true}}, listener.Changes())
}

func TestTrackerLostOfActiveNetwork(t *testing.T) {
	t.Parallel()
	listener := &recordingListener{}
	tracker := NewTracker(BehaviorGuaranteedOrdering, listener)
	tracker.HandleEvent(CapabilitiesChanged(1, validated))
	tracker.HandleEvent(Lost(1))
	tracker.HandleEvent(Lost(1))
	assert.False(t, tracker.hasActive)
	assert.Equal(t, []change{{1, true}, {0, false}}, listener.Changes())
}

func TestTrackerLegacyIgnoresCapabilities(t *testing.T) {
	t.Parallel()
	listener := &recordingListener{}
	tracker := NewTracker(BehaviorLegacy, listener)
	tracker.HandleEvent(CapabilitiesChanged(1, validated))
	assert.Empty(t, listener.Changes())
	tracker.HandleEvent(Available(1))
	assert.Equal(t, []change{{1, true}}, listener.Changes())
}

func TestTrackerGuaranteedOrderingIgnoresAvailable(t *testing.T) {
	t.Parallel()
	listener := &recordingListener{}
	tracker := NewTracker(BehaviorGuaranteedOrdering, listener)
	tracker.HandleEvent(Available(1))
	assert.Empty(t, listener.Changes())
	tracker.HandleEvent(CapabilitiesChanged(1, NewCapabilities(CapabilityInternet)))
	assert.Empty(t, listener.Changes())
	tracker.HandleEvent(CapabilitiesChanged(1, validated))
	assert.Equal(t, []change{{1, true}}, listener.Changes())
}

func TestTrackerValidatedSignalingAcceptsBoth(t *testing.T) {
	t.Parallel()
	listener := &recordingListener{}
	tracker := NewTracker(BehaviorValidatedSignaling, listener)
	tracker.HandleEvent(Available(1))
	tracker.HandleEvent(CapabilitiesChanged(1, validated))
	tracker.HandleEvent(CapabilitiesChanged(2, validated))
	tracker.HandleEvent(Available(1))
	assert.Equal(t, []change{{1, true}, {2, true}, {1, true}}, listener.Changes())
}

func TestTrackerLegacyScenario(t *testing.T) {
	t.Parallel()
	listener := &recordingListener{}
	tracker := NewTracker(BehaviorLegacy, listener)
	tracker.HandleEvent(Available(0xA))
	assert.Equal(t, []change{{0xA, true}}, listener.Changes())
	tracker.HandleEvent(CapabilitiesChanged(0xA, validated))
	assert.Len(t, listener.Changes(), 1)
	tracker.HandleEvent(Lost(0xA))
	assert.Equal(t, []change{{0xA, true}, {0, false}}, listener.Changes())
}

func TestTrackerLostNetworkNeedsAvailable(t *testing.T) {
	t.Parallel()
	listener := &recordingListener{}
	tracker := NewTracker(BehaviorGuaranteedOrdering, listener)
	tracker.HandleEvent(CapabilitiesChanged(1, validated))
	tracker.HandleEvent(Lost(1))
	tracker.HandleEvent(CapabilitiesChanged(1, validated))
	assert.False(t, tracker.hasActive)

	tracker.HandleEvent(Available(1))
	tracker.HandleEvent(CapabilitiesChanged(1, validated))
	assert.Equal(t, []change{{1, true}, {0, false}, {1, true}}, listener.Changes())
}

func TestTrackerRecoversFromListenerFailure(t *testing.T) {
	t.Parallel()
	var calls []change
	tracker := NewTracker(BehaviorGuaranteedOrdering, ListenerFunc(func(network Network, ok bool) error {
		calls = append(calls, change{network, ok})
		switch len(calls) {
		case 1:
			panic("listener exploded")
		case 2:
			return E.New("listener failed")
		case 3:
			panic(42)
		}
		return nil
	}))
	require.NotPanics(t, func() {
		tracker.HandleEvent(CapabilitiesChanged(1, validated))
	})
	assert.Equal(t, Network(1), tracker.active)
	tracker.HandleEvent(CapabilitiesChanged(2, validated))
	require.NotPanics(t, func() {
		tracker.HandleEvent(Lost(2))
	})
	assert.Equal(t, []change{{1, true}, {2, true}, {0, false}}, calls)
}

func TestTrackerNilListener(t *testing.T) {
	t.Parallel()
	tracker := NewTracker(BehaviorLegacy, nil)
	require.NotPanics(t, func() {
		tracker.HandleEvent(Available(1))
		tracker.HandleEvent(Lost(1))
	})
}

func TestTrackerFirstEvent(t *testing.T) {
	t.Parallel()
	tracker := NewTracker(BehaviorGuaranteedOrdering, nil)
	select {
	case <-tracker.FirstEvent():
		t.Fatal("first event signalled before any event")
	default:
	}
	// an ignored event still counts
	tracker.HandleEvent(Available(1))
	tracker.HandleEvent(Lost(5))
	select {
	case <-tracker.FirstEvent():
	default:
		t.Fatal("first event not signalled")
	}
}

func TestTrackerClose(t *testing.T) {
	t.Parallel()
	listener := &recordingListener{}
	tracker := NewTracker(BehaviorGuaranteedOrdering, listener)
	tracker.HandleEvent(CapabilitiesChanged(1, validated))
	tracker.Close()
	assert.False(t, tracker.hasActive)
	tracker.HandleEvent(Lost(1))
	tracker.HandleEvent(CapabilitiesChanged(2, validated))
	assert.Equal(t, []change{{1, true}}, listener.Changes())
}

func TestTrackerIgnoresLostOfUnknownNetworks(t *testing.T) {
	t.Parallel()
	tracker := NewTracker(BehaviorGuaranteedOrdering, nil)
	for network := Network(1); network <= 100000; network++ {
		tracker.HandleEvent(Lost(network))
	}
	assert.Empty(t, tracker.lost)
	assert.Zero(t, tracker.lostOrder.Len())
}

func TestTrackerBoundsLostNetworks(t *testing.T) {
	t.Parallel()
	tracker := NewTracker(BehaviorValidatedSignaling, nil)
	for network := Network(1); network <= 1000; network++ {
		tracker.HandleEvent(Available(network))
		tracker.HandleEvent(Lost(network))
	}
	assert.Len(t, tracker.lost, maxLostNetworks)
	assert.Equal(t, maxLostNetworks, tracker.lostOrder.Len())
	assert.Empty(t, tracker.available)
	assert.Contains(t, tracker.lost, Network(1000))
	assert.NotContains(t, tracker.lost, Network(1))

	// the most recently lost handles are still refused
	tracker.HandleEvent(CapabilitiesChanged(1000, validated))
	assert.False(t, tracker.hasActive)
	tracker.HandleEvent(Available(1000))
	assert.NotContains(t, tracker.lost, Network(1000))
	assert.Equal(t, maxLostNetworks-1, tracker.lostOrder.Len())
}

func TestTrackerListenerMayCloseTracker(t *testing.T) {
	t.Parallel()
	var tracker *Tracker
	var calls []change
	tracker = NewTracker(BehaviorGuaranteedOrdering, ListenerFunc(func(network Network, ok bool) error {
		calls = append(calls, change{network, ok})
		tracker.Close()
		return nil
	}))
	done := make(chan struct{})
	go func() {
		defer close(done)
		tracker.HandleEvent(CapabilitiesChanged(1, validated))
		tracker.HandleEvent(CapabilitiesChanged(2, validated))
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("listener closing the tracker blocked event delivery")
	}
	assert.Equal(t, []change{{1, true}}, calls)
	assert.True(t, tracker.closed)
}
