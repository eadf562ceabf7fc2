package libsandbox

// PlatformInterface is implemented by the Android host around ConnectivityManager.
type PlatformInterface interface {
	// SDKVersion returns Build.VERSION.SDK_INT.
	SDKVersion() int32
	// RequestNetwork calls ConnectivityManager.requestNetwork with a request built
	// from request, and returns a token for UnregisterNetworkCallback.
	RequestNetwork(request *NetworkRequest, callback *NetworkCallback) (int32, error)
	UnregisterNetworkCallback(token int32) error
	// GetAllNetworks returns Network.getNetworkHandle of ConnectivityManager.getAllNetworks.
	GetAllNetworks() (Int64Iterator, error)
	// GetLinkAddresses returns the link addresses of a network, or nil if
	// getLinkProperties returned null.
	GetLinkAddresses(network int64) (LinkAddressIterator, error)
	ShowList(title string, message string)
	WriteLog(message string)
}

// LinkAddress mirrors android.net.LinkAddress.
type LinkAddress struct {
	Address      string
	PrefixLength int32
	Flags        int32
	Scope        int32
}

type LinkAddressIterator interface {
	HasNext() bool
	Next() *LinkAddress
}

// ActiveNetworkListener is told about changes of the active network. available
// is false when no network is active. Calls are serialized; the listener may
// stop the monitor or switch its VPN mode.
type ActiveNetworkListener interface {
	OnActiveNetworkChanged(network int64, available bool)
}
