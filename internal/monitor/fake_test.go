package monitor

import (
	"sync"

	E "github.com/sagernet/sing/common/exceptions"
)

type change struct {
	network Network
	ok      bool
}

type recordingListener struct {
	access  sync.Mutex
	changes []change
}

func (l *recordingListener) ActiveNetworkChanged(network Network, ok bool) error {
	l.access.Lock()
	defer l.access.Unlock()
	l.changes = append(l.changes, change{network, ok})
	return nil
}

func (l *recordingListener) Changes() []change {
	l.access.Lock()
	defer l.access.Unlock()
	return append([]change(nil), l.changes...)
}

type fakeNetwork struct {
	capabilities Capabilities
	addresses    []LinkAddress
}

type fakeRequest struct {
	criteria Criteria
	handler  EventHandler
}

// fakeService delivers events only to requests whose criteria match, like
// ConnectivityService does.
type fakeService struct {
	access        sync.Mutex
	networks      map[Network]*fakeNetwork
	requests      map[Subscription]*fakeRequest
	nextID        Subscription
	requestErr    error
	unregisterErr error
	unregistered  []Subscription
}

func newFakeService() *fakeService {
	return &fakeService{
		networks: make(map[Network]*fakeNetwork),
		requests: make(map[Subscription]*fakeRequest),
	}
}

func (s *fakeService) RequestNetwork(criteria Criteria, handler EventHandler) (Subscription, error) {
	s.access.Lock()
	defer s.access.Unlock()
	if s.requestErr != nil {
		return 0, s.requestErr
	}
	s.nextID++
	s.requests[s.nextID] = &fakeRequest{criteria, handler}
	return s.nextID, nil
}

func (s *fakeService) UnregisterNetworkCallback(subscription Subscription) error {
	s.access.Lock()
	defer s.access.Unlock()
	s.unregistered = append(s.unregistered, subscription)
	if s.unregisterErr != nil {
		return s.unregisterErr
	}
	if _, loaded := s.requests[subscription]; !loaded {
		return E.New("NetworkCallback was not registered")
	}
	delete(s.requests, subscription)
	return nil
}

func (s *fakeService) AllNetworks() ([]Network, error) {
	s.access.Lock()
	defer s.access.Unlock()
	var networks []Network
	for network := range s.networks {
		networks = append(networks, network)
	}
	return networks, nil
}

func (s *fakeService) LinkAddresses(network Network) ([]LinkAddress, error) {
	s.access.Lock()
	defer s.access.Unlock()
	info, loaded := s.networks[network]
	if !loaded {
		return nil, nil
	}
	return info.addresses, nil
}

func (s *fakeService) Requests() []*fakeRequest {
	s.access.Lock()
	defer s.access.Unlock()
	var requests []*fakeRequest
	for _, request := range s.requests {
		requests = append(requests, request)
	}
	return requests
}

func (s *fakeService) Unregistered() []Subscription {
	s.access.Lock()
	defer s.access.Unlock()
	return append([]Subscription(nil), s.unregistered...)
}

func (s *fakeService) matching(capabilities Capabilities) []EventHandler {
	s.access.Lock()
	defer s.access.Unlock()
	var handlers []EventHandler
	for _, request := range s.requests {
		if request.criteria.Matches(capabilities) {
			handlers = append(handlers, request.handler)
		}
	}
	return handlers
}

// Connect attaches a network and emits onAvailable followed by onCapabilitiesChanged.
func (s *fakeService) Connect(network Network, capabilities Capabilities, addresses ...LinkAddress) {
	s.access.Lock()
	s.networks[network] = &fakeNetwork{capabilities, addresses}
	s.access.Unlock()
	for _, handler := range s.matching(capabilities) {
		handler.HandleEvent(Available(network))
		handler.HandleEvent(CapabilitiesChanged(network, capabilities))
	}
}

func (s *fakeService) Disconnect(network Network) {
	s.access.Lock()
	info, loaded := s.networks[network]
	delete(s.networks, network)
	s.access.Unlock()
	if !loaded {
		return
	}
	for _, handler := range s.matching(info.capabilities) {
		handler.HandleEvent(Lost(network))
	}
}
