package libsandbox

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nekohasekai/libsandbox/internal/monitor"
	"github.com/nekohasekai/libsandbox/internal/report"

	"github.com/sagernet/sing/common/control"
	F "github.com/sagernet/sing/common/format"
	"github.com/v2fly/v2ray-core/v5/common/log"
)

// NetworkMonitor tracks the active network of the device and reports the IP
// addresses visible through the different platform APIs.
type NetworkMonitor struct {
	iif        PlatformInterface
	service    *platformService
	controller *monitor.Controller
	finder     *control.DefaultInterfaceFinder
	vpnMode    atomic.Bool
	started    atomic.Bool

	access        sync.Mutex
	activeNetwork int64
	hasActive     bool
	listener      ActiveNetworkListener
}

// NewNetworkMonitor creates a monitor from JSON options (may be empty). Below
// API level 21 the monitor is created without network tracking, only the local
// interface report works.
func NewNetworkMonitor(platformInterface PlatformInterface, optionsContent string) (*NetworkMonitor, error) {
	options, err := parseOptions(optionsContent)
	if err != nil {
		return nil, err
	}
	level, err := parseLogLevel(options.LogLevel)
	if err != nil {
		return nil, err
	}
	log.RegisterHandler(&platformLogger{platformInterface, level})
	log.Record(&log.GeneralMessage{
		Severity: log.Severity_Debug,
		Content:  F.ToString("libsandbox ", Version()),
	})
	m := &NetworkMonitor{
		iif:     platformInterface,
		service: &platformService{platformInterface},
		finder:  control.NewDefaultInterfaceFinder(),
	}
	m.vpnMode.Store(options.VPNMode)
	m.controller, err = monitor.NewController(monitor.ControllerOptions{
		Service:        m.service,
		SDKVersion:     platformInterface.SDKVersion(),
		Listener:       monitor.ListenerFunc(m.activeNetworkChanged),
		StartupTimeout: time.Duration(options.StartupTimeout),
	})
	if errors.Is(err, monitor.ErrUnsupported) {
		log.Record(&log.GeneralMessage{
			Severity: log.Severity_Warning,
			Content:  err,
		})
		m.controller = nil
	} else if err != nil {
		return nil, err
	}
	return m, nil
}

func (m *NetworkMonitor) IsSupported() bool {
	return m.controller != nil
}

func (m *NetworkMonitor) SetActiveNetworkListener(listener ActiveNetworkListener) {
	m.access.Lock()
	defer m.access.Unlock()
	m.listener = listener
}

// Start subscribes to network changes. It blocks until the first network event
// or the startup timeout.
func (m *NetworkMonitor) Start() error {
	if m.controller == nil {
		return nil
	}
	m.started.Store(true)
	startAt := time.Now()
	err := m.controller.Start(context.Background(), m.mode())
	if err != nil {
		return err
	}
	log.Record(&log.GeneralMessage{
		Severity: log.Severity_Debug,
		Content:  F.ToString("network monitor: start returned after ", FormatDuration(time.Since(startAt).Milliseconds())),
	})
	return nil
}

func (m *NetworkMonitor) Stop() {
	if m.controller == nil {
		return
	}
	m.started.Store(false)
	m.controller.Stop()
	m.access.Lock()
	m.activeNetwork = 0
	m.hasActive = false
	m.access.Unlock()
}

// Close stops the monitor and detaches logging from the platform.
func (m *NetworkMonitor) Close() error {
	m.Stop()
	log.RegisterHandler((*stubLogger)(nil))
	return nil
}

func (m *NetworkMonitor) IsVPNMode() bool {
	return m.vpnMode.Load()
}

// SetVPNMode switches the request criteria, restarting a started monitor. A
// monitor whose network request was refused by the platform registers again.
func (m *NetworkMonitor) SetVPNMode(enabled bool) error {
	if m.vpnMode.Swap(enabled) == enabled {
		return nil
	}
	if m.controller == nil || !m.started.Load() {
		return nil
	}
	m.Stop()
	return m.Start()
}

func (m *NetworkMonitor) mode() monitor.Mode {
	if m.vpnMode.Load() {
		return monitor.ModeVPN
	}
	return monitor.ModeNormal
}

// ActiveNetwork returns the handle of the active network, or -1 if none.
func (m *NetworkMonitor) ActiveNetwork() int64 {
	m.access.Lock()
	defer m.access.Unlock()
	if !m.hasActive {
		return -1
	}
	return m.activeNetwork
}

func (m *NetworkMonitor) activeNetworkChanged(network monitor.Network, ok bool) error {
	m.access.Lock()
	m.activeNetwork = int64(network)
	m.hasActive = ok
	listener := m.listener
	m.access.Unlock()
	log.Record(&log.GeneralMessage{
		Severity: log.Severity_Info,
		Content:  F.ToString("network monitor: active network ", int64(network), ", available ", ok),
	})
	if listener != nil {
		listener.OnActiveNetworkChanged(int64(network), ok)
	}
	return nil
}

func (m *NetworkMonitor) NetworkInterfaceIPs() StringIterator {
	return newIterator(report.InterfaceAddresses(m.finder))
}

func (m *NetworkMonitor) AllNetworksIPs() StringIterator {
	if m.controller == nil {
		return newIterator[string](nil)
	}
	return newIterator(report.AllNetworkAddresses(m.service))
}

func (m *NetworkMonitor) ActiveNetworkIPs() StringIterator {
	return newIterator(m.activeNetworkAddresses())
}

func (m *NetworkMonitor) activeNetworkAddresses() []string {
	if m.controller == nil {
		return nil
	}
	m.access.Lock()
	network, ok := m.activeNetwork, m.hasActive
	m.access.Unlock()
	return report.ActiveNetworkAddresses(m.service, monitor.Network(network), ok)
}

func (m *NetworkMonitor) ShowNetworkInterfaceIPs() {
	m.show(report.TitleNetworkInterfaces, report.InterfaceAddresses(m.finder))
}

func (m *NetworkMonitor) ShowAllNetworksIPs() {
	if m.controller == nil {
		return
	}
	m.show(report.TitleAllNetworks, report.AllNetworkAddresses(m.service))
}

func (m *NetworkMonitor) ShowActiveNetworkIPs() {
	if m.controller == nil {
		return
	}
	m.show(report.TitleActiveNetwork, m.activeNetworkAddresses())
}

func (m *NetworkMonitor) show(title string, addresses []string) {
	log.Record(&log.GeneralMessage{
		Severity: log.Severity_Debug,
		Content:  F.ToString(title, ": got IPs [", strings.Join(addresses, ", "), "]"),
	})
	m.iif.ShowList(title, report.FormatList(addresses))
}
