package ipfilter

// PresetDirectConnection configures a filter for direct client-to-app
// traffic: the transport peer address is evaluated and forwarding headers
// are ignored.
func PresetDirectConnection() Option {
	return WithSource(SourceRemoteAddr)
}

// PresetLoopbackReverseProxy configures a filter for apps behind a reverse
// proxy on the same host (for example NGINX on localhost).
//
// X-Forwarded-For is honored only when the peer is a loopback address.
func PresetLoopbackReverseProxy() Option {
	return func(c *config) error {
		return applyOptions(c,
			TrustLoopbackProxy(),
			WithSource(SourceXForwardedFor),
		)
	}
}

// PresetVMReverseProxy configures a filter for apps behind a reverse proxy
// in a typical VM or private-network setup.
//
// X-Forwarded-For is honored only when the peer is a loopback or private
// address.
func PresetVMReverseProxy() Option {
	return func(c *config) error {
		return applyOptions(c,
			TrustLoopbackProxy(),
			TrustPrivateProxyRanges(),
			WithSource(SourceXForwardedFor),
		)
	}
}
