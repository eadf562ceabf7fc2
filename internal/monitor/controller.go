package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	E "github.com/sagernet/sing/common/exceptions"
	F "github.com/sagernet/sing/common/format"
	"github.com/v2fly/v2ray-core/v5/common/log"
)

const DefaultStartupTimeout = time.Second

var ErrAlreadyStarted = E.New("network monitor already started")

type ControllerOptions struct {
	Service    ConnectivityService
	SDKVersion int32
	Listener   Listener
	// StartupTimeout bounds how long Start waits for the first event.
	StartupTimeout time.Duration
}

// Controller owns the network request of a Tracker.
type Controller struct {
	service        ConnectivityService
	behavior       CallbackBehavior
	listener       Listener
	startupTimeout time.Duration

	access       sync.Mutex
	tracker      *Tracker
	subscription Subscription
	mode         Mode
}

func NewController(options ControllerOptions) (*Controller, error) {
	if options.Service == nil {
		return nil, E.New("missing connectivity service")
	}
	behavior, err := BehaviorForSDK(options.SDKVersion)
	if err != nil {
		return nil, err
	}
	startupTimeout := options.StartupTimeout
	if startupTimeout <= 0 {
		startupTimeout = DefaultStartupTimeout
	}
	return &Controller{
		service:        options.Service,
		behavior:       behavior,
		listener:       options.Listener,
		startupTimeout: startupTimeout,
	}, nil
}

func (c *Controller) Behavior() CallbackBehavior {
	return c.behavior
}

// Running reports whether a network request is registered.
func (c *Controller) Running() bool {
	c.access.Lock()
	defer c.access.Unlock()
	return c.tracker != nil
}

func (c *Controller) Mode() Mode {
	c.access.Lock()
	defer c.access.Unlock()
	return c.mode
}

// Start registers a network request for mode and waits up to the startup timeout
// for its first event. A platform that refuses the request leaves the controller
// stopped; that is logged, not returned.
func (c *Controller) Start(ctx context.Context, mode Mode) error {
	c.access.Lock()
	if c.tracker != nil {
		c.access.Unlock()
		return ErrAlreadyStarted
	}
	tracker := NewTracker(c.behavior, c.listener)
	criteria := NewCriteria(mode)
	subscription, err := c.requestNetwork(criteria, tracker)
	if err != nil {
		c.access.Unlock()
		log.Record(&log.GeneralMessage{
			Severity: log.Severity_Warning,
			Content:  E.Cause(err, "network monitor: request network"),
		})
		return nil
	}
	c.tracker = tracker
	c.subscription = subscription
	c.mode = mode
	c.access.Unlock()
	log.Record(&log.GeneralMessage{
		Severity: log.Severity_Info,
		Content:  F.ToString("network monitor: started in ", mode, " mode, ", c.behavior, " callbacks, requires ", criteria.Required),
	})

	timer := time.NewTimer(c.startupTimeout)
	defer timer.Stop()
	select {
	case <-tracker.FirstEvent():
	case <-timer.C:
		log.Record(&log.GeneralMessage{
			Severity: log.Severity_Debug,
			Content:  F.ToString("network monitor: no event after ", c.startupTimeout),
		})
	case <-ctx.Done():
	}
	return nil
}

func (c *Controller) requestNetwork(criteria Criteria, tracker *Tracker) (subscription Subscription, err error) {
	defer func() {
		if cause := recover(); cause != nil {
			err = E.New("platform panic: ", fmt.Sprint(cause))
		}
	}()
	return c.service.RequestNetwork(criteria, tracker)
}

// Stop unregisters the network request, if any. The platform may reject the
// unregistration of a callback it no longer knows; that is ignored.
func (c *Controller) Stop() {
	c.access.Lock()
	defer c.access.Unlock()
	if c.tracker == nil {
		return
	}
	err := c.unregister(c.subscription)
	if err != nil {
		log.Record(&log.GeneralMessage{
			Severity: log.Severity_Debug,
			Content:  E.Cause(err, "network monitor: unregister network callback"),
		})
	}
	c.tracker.Close()
	c.tracker = nil
	c.subscription = 0
	log.Record(&log.GeneralMessage{
		Severity: log.Severity_Info,
		Content:  "network monitor: stopped",
	})
}

func (c *Controller) unregister(subscription Subscription) (err error) {
	defer func() {
		if cause := recover(); cause != nil {
			err = E.New("platform panic: ", fmt.Sprint(cause))
		}
	}()
	return c.service.UnregisterNetworkCallback(subscription)
}

// Restart replaces the network request with one for mode. Criteria of a
// registered request cannot be changed in place.
func (c *Controller) Restart(ctx context.Context, mode Mode) error {
	c.Stop()
	return c.Start(ctx, mode)
}
