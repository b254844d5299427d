package channel

import "golang.org/x/sys/unix"

// ServerChannelConfig is the AIO (accept-oriented) configuration variant
// used by a listening channel. It adds SO_BACKLOG on top of the shared
// deferred-option mechanism and explicitly refuses performance-preference
// tuning, which has no meaningful mapping onto a kernel SCTP listener.
type ServerChannelConfig struct {
	*ChannelConfig
}

// NewServerChannelConfig returns a server config pre-populated with the
// shared client-channel defaults plus SO_BACKLOG defaulted to the system's
// SOMAXCONN.
func NewServerChannelConfig() *ServerChannelConfig {
	cc := NewChannelConfig()
	cc.values[OptSoBacklog] = unix.SOMAXCONN
	return &ServerChannelConfig{ChannelConfig: cc}
}

// SetPerformancePreferences is explicitly unsupported: SCTP listeners
// expose backlog and buffer sizing directly through SetOption; there is no
// separate connectionTime/latency/bandwidth weighting knob to honor.
func (s *ServerChannelConfig) SetPerformancePreferences(_, _, _ int) error {
	return ErrUnsupportedOperation
}
