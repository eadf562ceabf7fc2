package main

import (
	"context"
	"io"
	"net/netip"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/nekohasekai/libsandbox/internal/monitor"
	"github.com/nekohasekai/libsandbox/internal/report"

	E "github.com/sagernet/sing/common/exceptions"
	F "github.com/sagernet/sing/common/format"
	"github.com/sagernet/sing/common/json"
	"github.com/sagernet/sing/common/json/badoption"
	"github.com/spf13/cobra"
)

type replayScript struct {
	SDKVersion     int32              `json:"sdk_version"`
	Mode           string             `json:"mode,omitempty"`
	StartupTimeout badoption.Duration `json:"startup_timeout,omitempty"`
	Networks       []scriptNetwork    `json:"networks,omitempty"`
	Events         []scriptEvent      `json:"events,omitempty"`
}

type scriptNetwork struct {
	Handle       int64    `json:"handle"`
	Capabilities []string `json:"capabilities,omitempty"`
	Addresses    []string `json:"addresses,omitempty"`
}

// scriptEvent types: connect and disconnect behave like the platform
// (onAvailable then onCapabilitiesChanged, onLost); available, capabilities and
// lost emit a single callback.
type scriptEvent struct {
	Type         string             `json:"type"`
	Network      int64              `json:"network"`
	Capabilities []string           `json:"capabilities,omitempty"`
	Delay        badoption.Duration `json:"delay,omitempty"`
}

func newReplayCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "replay <script.json>",
		Short: "Replay network callbacks through the active network monitor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			script, err := json.UnmarshalExtended[replayScript](content)
			if err != nil {
				return E.Cause(err, "parse script")
			}
			return runReplay(cmd.Context(), script, cmd.OutOrStdout())
		},
	}
}

func parseMode(mode string) (monitor.Mode, error) {
	switch strings.ToLower(mode) {
	case "", "normal":
		return monitor.ModeNormal, nil
	case "vpn":
		return monitor.ModeVPN, nil
	default:
		return 0, E.New("unknown mode: ", mode)
	}
}

func parseCapabilities(names []string) (monitor.Capabilities, error) {
	var capabilities monitor.Capabilities
	for _, name := range names {
		capability, err := monitor.ParseNetCapability(name)
		if err != nil {
			return 0, err
		}
		capabilities = capabilities.With(capability)
	}
	return capabilities, nil
}

func runReplay(ctx context.Context, script replayScript, output io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	mode, err := parseMode(script.Mode)
	if err != nil {
		return err
	}
	service, err := newScriptService(script.Networks)
	if err != nil {
		return err
	}
	var outputAccess sync.Mutex
	controller, err := monitor.NewController(monitor.ControllerOptions{
		Service:        service,
		SDKVersion:     script.SDKVersion,
		StartupTimeout: time.Duration(script.StartupTimeout),
		Listener: monitor.ListenerFunc(func(network monitor.Network, ok bool) error {
			var line string
			if ok {
				addresses := report.ActiveNetworkAddresses(service, network, ok)
				line = F.ToString("active network: ", int64(network), " [", strings.Join(addresses, " "), "]\n")
			} else {
				line = "active network: none\n"
			}
			outputAccess.Lock()
			defer outputAccess.Unlock()
			_, err := io.WriteString(output, line)
			return err
		}),
	})
	if err != nil {
		return err
	}
	played := make(chan error, 1)
	go func() {
		played <- service.play(ctx, script.Events)
	}()
	err = controller.Start(ctx, mode)
	if err != nil {
		return err
	}
	defer controller.Stop()
	if !controller.Running() {
		return E.New("network request rejected")
	}
	return <-played
}

type scriptRequest struct {
	criteria monitor.Criteria
	handler  monitor.EventHandler
}

type scriptedNetwork struct {
	capabilities monitor.Capabilities
	addresses    []monitor.LinkAddress
}

// scriptService is a connectivity service that only delivers events to
// requests whose criteria match the network.
type scriptService struct {
	access     sync.Mutex
	networks   map[monitor.Network]*scriptedNetwork
	requests   map[monitor.Subscription]scriptRequest
	nextID     monitor.Subscription
	registered chan struct{}
}

func newScriptService(networks []scriptNetwork) (*scriptService, error) {
	service := &scriptService{
		networks:   make(map[monitor.Network]*scriptedNetwork),
		requests:   make(map[monitor.Subscription]scriptRequest),
		registered: make(chan struct{}),
	}
	for _, network := range networks {
		capabilities, err := parseCapabilities(network.Capabilities)
		if err != nil {
			return nil, E.Cause(err, "network ", network.Handle)
		}
		scripted := &scriptedNetwork{capabilities: capabilities}
		for _, addressString := range network.Addresses {
			prefix, err := netip.ParsePrefix(addressString)
			if err != nil {
				return nil, E.Cause(err, "network ", network.Handle)
			}
			scripted.addresses = append(scripted.addresses, monitor.LinkAddress{Prefix: prefix})
		}
		service.networks[monitor.Network(network.Handle)] = scripted
	}
	return service, nil
}

func (s *scriptService) RequestNetwork(criteria monitor.Criteria, handler monitor.EventHandler) (monitor.Subscription, error) {
	s.access.Lock()
	defer s.access.Unlock()
	s.nextID++
	s.requests[s.nextID] = scriptRequest{criteria, handler}
	if s.nextID == 1 {
		close(s.registered)
	}
	return s.nextID, nil
}

func (s *scriptService) UnregisterNetworkCallback(subscription monitor.Subscription) error {
	s.access.Lock()
	defer s.access.Unlock()
	if _, loaded := s.requests[subscription]; !loaded {
		return E.New("NetworkCallback was not registered")
	}
	delete(s.requests, subscription)
	return nil
}

func (s *scriptService) AllNetworks() ([]monitor.Network, error) {
	s.access.Lock()
	defer s.access.Unlock()
	networks := make([]monitor.Network, 0, len(s.networks))
	for network := range s.networks {
		networks = append(networks, network)
	}
	return networks, nil
}

func (s *scriptService) LinkAddresses(network monitor.Network) ([]monitor.LinkAddress, error) {
	s.access.Lock()
	defer s.access.Unlock()
	scripted, loaded := s.networks[network]
	if !loaded {
		return nil, nil
	}
	return scripted.addresses, nil
}

func (s *scriptService) play(ctx context.Context, events []scriptEvent) error {
	select {
	case <-s.registered:
	case <-ctx.Done():
		return ctx.Err()
	}
	for _, event := range events {
		if event.Delay > 0 {
			select {
			case <-time.After(time.Duration(event.Delay)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		err := s.emit(event)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *scriptService) emit(event scriptEvent) error {
	network := monitor.Network(event.Network)
	s.access.Lock()
	scripted, loaded := s.networks[network]
	if !loaded {
		s.access.Unlock()
		return E.New("unknown network in script: ", event.Network)
	}
	if event.Capabilities != nil {
		capabilities, err := parseCapabilities(event.Capabilities)
		if err != nil {
			s.access.Unlock()
			return err
		}
		scripted.capabilities = capabilities
	}
	capabilities := scripted.capabilities
	var handlers []monitor.EventHandler
	for _, request := range s.requests {
		if request.criteria.Matches(capabilities) {
			handlers = append(handlers, request.handler)
		}
	}
	s.access.Unlock()

	var monitorEvents []monitor.Event
	switch strings.ToLower(event.Type) {
	case "connect":
		monitorEvents = []monitor.Event{monitor.Available(network), monitor.CapabilitiesChanged(network, capabilities)}
	case "disconnect", "lost":
		monitorEvents = []monitor.Event{monitor.Lost(network)}
	case "available":
		monitorEvents = []monitor.Event{monitor.Available(network)}
	case "capabilities":
		monitorEvents = []monitor.Event{monitor.CapabilitiesChanged(network, capabilities)}
	default:
		return E.New("unknown event type: ", event.Type)
	}
	for _, handler := range handlers {
		for _, monitorEvent := range monitorEvents {
			handler.HandleEvent(monitorEvent)
		}
	}
	return nil
}
