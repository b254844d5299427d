package channel

import (
	"context"
	"fmt"
	"net"
	"time"

	sctp "github.com/georgeyanev/sctp-channel"
	"github.com/georgeyanev/sctp-channel/pipeline"
)

// Status is the channel's lifecycle stage. Closed is terminal.
type Status int

const (
	Fresh Status = iota
	Bound
	Connected
	Closed
)

func (s Status) String() string {
	switch s {
	case Fresh:
		return "Fresh"
	case Bound:
		return "Bound"
	case Connected:
		return "Connected"
	case Closed:
		return "Closed"
	default:
		return "Unknown"
	}
}

// Association is an opaque handle identifying a live SCTP association. A
// nil *Association is equivalent to "not active".
type Association struct {
	local, remote net.Addr
	outStreams    uint16
	inStreams     uint16
}

func (a *Association) LocalAddr() net.Addr  { return a.local }
func (a *Association) RemoteAddr() net.Addr { return a.remote }
func (a *Association) OutStreams() uint16   { return a.outStreams }
func (a *Association) InStreams() uint16    { return a.inStreams }

// LocalAddresses and RemoteAddresses enumerate every address bound to this
// association's local/remote endpoint (SCTP multi-homing). Per this
// project's error propagation policy, a handle that isn't backed by a
// multi-homed *sctp.SCTPAddr yields the empty set rather than an error.
func (a *Association) LocalAddresses() []net.IPAddr  { return sctpIPAddrs(a.local) }
func (a *Association) RemoteAddresses() []net.IPAddr { return sctpIPAddrs(a.remote) }

func sctpIPAddrs(addr net.Addr) []net.IPAddr {
	sa, ok := addr.(*sctp.SCTPAddr)
	if !ok {
		return nil
	}
	return sa.IPAddrs
}

// AllLocalAddresses and AllRemoteAddresses query the kernel for this
// channel's current bound/peer address set (SCTP multi-homing may add or
// remove addresses after the association is established, via BindAddress/
// UnbindAddress locally or an ASCONF exchange with the peer). Per this
// project's error propagation policy, a query issued before a socket
// exists or one that fails at the kernel swallows to the empty set rather
// than surfacing an error.
func (ch *SctpChannel) AllLocalAddresses() *pipeline.Future[any] {
	return ch.runOnLoop(func() (any, error) {
		return ch.allLocalAddresses(), nil
	})
}

func (ch *SctpChannel) allLocalAddresses() []net.IPAddr {
	if ch.socket == nil {
		return []net.IPAddr{}
	}
	addr, err := ch.socket.RefreshLocalAddr()
	if err != nil {
		ch.log().WithError(err).Debug("allLocalAddresses failed")
		return []net.IPAddr{}
	}
	if addr == nil {
		return []net.IPAddr{}
	}
	return addr.IPAddrs
}

func (ch *SctpChannel) AllRemoteAddresses() *pipeline.Future[any] {
	return ch.runOnLoop(func() (any, error) {
		return ch.allRemoteAddresses(), nil
	})
}

func (ch *SctpChannel) allRemoteAddresses() []net.IPAddr {
	if ch.socket == nil {
		return []net.IPAddr{}
	}
	addr, err := ch.socket.RefreshRemoteAddr()
	if err != nil {
		ch.log().WithError(err).Debug("allRemoteAddresses failed")
		return []net.IPAddr{}
	}
	if addr == nil {
		return []net.IPAddr{}
	}
	return addr.IPAddrs
}

// SctpChannel adapts a kernel SCTP socket into the framework's channel
// abstraction: an object pinned to one EventLoop, wired into a Pipeline,
// producing MessageReceived/UserEventTriggered events and consuming
// bind/connect/disconnect/close/flush operations from it.
type SctpChannel struct {
	loop     *pipeline.EventLoop
	pipeline *pipeline.Pipeline
	config   *ChannelConfig

	network string
	local   *sctp.SCTPAddr

	status Status
	socket kernelSocket
	ready  *readiness

	assoc                  *Association
	notificationAttachment any
	readSuspended          bool

	// fragment accumulates a message across ReadMsg calls that clear
	// SCTP_EOR, until the call carrying SCTP_EOR completes it.
	fragment          []byte
	fragmentSid       uint16
	fragmentPpid      uint32
	fragmentUnordered bool
	hasFragment       bool
}

// NewSctpChannel creates a Fresh channel owned by loop and wired into
// pipeline p. network is one of "sctp", "sctp4", "sctp6".
func NewSctpChannel(loop *pipeline.EventLoop, p *pipeline.Pipeline, network string) *SctpChannel {
	ch := &SctpChannel{
		loop:     loop,
		pipeline: p,
		config:   NewChannelConfig(),
		network:  network,
		status:   Fresh,
	}
	return ch
}

// NewSctpChannelFromAccepted wraps an already-established association
// (as returned by an SCTPListener's Accept) into a Connected channel,
// mirroring the tail of doConnect: assign the config, subscribe to
// notifications, publish the association handle and fire ChannelActive.
func NewSctpChannelFromAccepted(loop *pipeline.EventLoop, p *pipeline.Pipeline, network string, conn *sctp.SCTPConn, cc *ChannelConfig) (*SctpChannel, error) {
	ch := &SctpChannel{
		loop:     loop,
		pipeline: p,
		config:   cc,
		network:  network,
		status:   Bound,
		socket:   conn,
	}
	ch.ready = newReadiness(ch.soTimeout())
	if err := ch.config.assign(ch); err != nil {
		ch.doClose()
		return nil, err
	}
	if err := conn.Subscribe(subscribedEvents...); err != nil {
		ch.log().WithError(err).Warn("subscribe to notifications failed")
	}
	ch.assoc = &Association{local: conn.LocalAddr(), remote: conn.RemoteAddr()}
	ch.status = Connected
	ch.pipeline.FireChannelActive()
	ch.log().Debug("accepted")
	return ch, nil
}

// Config returns the channel's deferred-application option map.
func (ch *SctpChannel) Config() *ChannelConfig { return ch.config }

// Status returns the current lifecycle stage.
func (ch *SctpChannel) Status() Status { return ch.status }

// Association returns the current association handle, or nil if the
// channel is not Connected.
func (ch *SctpChannel) Association() *Association { return ch.assoc }

// IsActive reports whether the channel currently has a live association.
func (ch *SctpChannel) IsActive() bool { return ch.status == Connected && ch.assoc != nil }

// SetNotificationAttachment sets the value attached to every Notification
// this channel publishes, letting an application correlate notifications
// with its own per-association bookkeeping.
func (ch *SctpChannel) SetNotificationAttachment(v any) { ch.notificationAttachment = v }

// runOnLoop executes fn on the owning event loop, running it inline if
// already there and re-posting it (returning its future) otherwise. This is
// the re-posting guarantee every public operation on SctpChannel relies on:
// callers off the owning loop never touch the socket directly.
func (ch *SctpChannel) runOnLoop(fn func() (any, error)) *pipeline.Future[any] {
	return pipeline.Execute(ch.loop, fn)
}

// Bind performs a local bind. For SCTP the actual kernel bind happens as
// part of Connect (the Dialer bakes the local address in) or as part of
// Listen for a server channel; doBind here only records local for later use
// and transitions Fresh -> Bound, matching the framework's expectation that
// bind can precede connect.
func (ch *SctpChannel) Bind(localAddr string) *pipeline.Future[any] {
	return ch.runOnLoop(func() (any, error) {
		return nil, ch.doBind(localAddr)
	})
}

func (ch *SctpChannel) doBind(localAddr string) error {
	if ch.status != Fresh {
		return fmt.Errorf("%w: bind requires Fresh status, got %s", ErrBindFailed, ch.status)
	}
	addr, err := parseSCTPAddr(ch.network, localAddr)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBindFailed, err)
	}
	ch.local = addr
	ch.status = Bound
	ch.log().Debug("bound")
	return nil
}

// BindAddress adds a secondary local address once the association exists
// (SCTP multi-homing).
func (ch *SctpChannel) BindAddress(addr string) *pipeline.Future[any] {
	return ch.runOnLoop(func() (any, error) {
		return nil, ch.bindAddress(addr)
	})
}

func (ch *SctpChannel) bindAddress(addr string) error {
	if ch.status == Closed {
		return ErrClosedChannel
	}
	if ch.status < Bound {
		return fmt.Errorf("%w: bindAddress requires Bound or later status", ErrBindFailed)
	}
	if ch.socket == nil {
		return fmt.Errorf("%w: bindAddress requires an established association", ErrBindFailed)
	}
	sctpAddr, err := parseSCTPAddr(ch.network, addr)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBindFailed, err)
	}
	if err := ch.socket.BindAddSCTP(sctpAddr); err != nil {
		return fmt.Errorf("%w: %v", ErrBindFailed, err)
	}
	ch.log().WithField("address", addr).Debug("bound secondary address")
	return nil
}

// UnbindAddress removes a secondary local address.
func (ch *SctpChannel) UnbindAddress(addr string) *pipeline.Future[any] {
	return ch.runOnLoop(func() (any, error) {
		return nil, ch.unbindAddress(addr)
	})
}

func (ch *SctpChannel) unbindAddress(addr string) error {
	if ch.status == Closed {
		return ErrClosedChannel
	}
	if ch.socket == nil {
		return fmt.Errorf("%w: unbindAddress requires an established association", ErrBindFailed)
	}
	sctpAddr, err := parseSCTPAddr(ch.network, addr)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBindFailed, err)
	}
	if err := ch.socket.BindRemoveSCTP(sctpAddr); err != nil {
		return fmt.Errorf("%w: %v", ErrBindFailed, err)
	}
	ch.log().WithField("address", addr).Debug("unbound secondary address")
	return nil
}

// Connect initiates the association to remote, binding local first if
// non-empty. On any failure the channel is closed before the error
// surfaces.
func (ch *SctpChannel) Connect(remote string) *pipeline.Future[any] {
	return ch.runOnLoop(func() (any, error) {
		return nil, ch.doConnect(remote)
	})
}

func (ch *SctpChannel) doConnect(remote string) error {
	if ch.status == Closed {
		return ErrClosedChannel
	}
	raddr, err := parseSCTPAddr(ch.network, remote)
	if err != nil {
		ch.doClose()
		return fmt.Errorf("%w: %v", ErrConnectFailed, err)
	}

	timeoutMs, _ := ch.config.GetOption(OptConnectTimeoutMs)
	timeout := time.Duration(timeoutMs.(int)) * time.Millisecond
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	dialer := sctp.Dialer{LocalAddr: ch.local}
	conn, err := dialer.DialSCTPContext(ctx, ch.network, raddr)
	if err != nil {
		ch.doClose()
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return fmt.Errorf("%w: %v", ErrConnectFailed, err)
	}

	ch.socket = conn
	ch.ready = newReadiness(ch.soTimeout())
	if err := ch.config.assign(ch); err != nil {
		ch.doClose()
		return err
	}
	if err := conn.Subscribe(subscribedEvents...); err != nil {
		ch.log().WithError(err).Warn("subscribe to notifications failed")
	}

	ch.assoc = &Association{local: conn.LocalAddr(), remote: conn.RemoteAddr()}
	ch.status = Connected
	ch.pipeline.FireChannelActive()
	ch.log().Debug("connected")
	return nil
}

// soTimeout returns the configured SO_TIMEOUT as a Duration, falling back to
// defaultSoTimeout if the option is somehow missing.
func (ch *SctpChannel) soTimeout() time.Duration {
	ms, err := ch.config.GetOption(OptSoTimeoutMs)
	if err != nil {
		return defaultSoTimeout
	}
	return time.Duration(ms.(int)) * time.Millisecond
}

// applyOption implements optionApplier, translating a validated option into
// the corresponding kernel call once the socket exists.
func (ch *SctpChannel) applyOption(key OptionKey, value any) error {
	switch key {
	case OptSctpNodelay:
		return ch.socket.SetNoDelay(value.(bool))
	case OptSoLinger:
		return ch.socket.SetLinger(value.(int))
	case OptSoRcvbuf, OptSoSndbuf, OptSoReuseaddr, OptSctpInitMaxstream,
		OptSctpPrimaryAddr, OptConnectTimeoutMs, OptWriteSpinCount, OptAllocator, OptSoTimeoutMs:
		// Negotiated at dial/listen time (init options) or purely local
		// bookkeeping; nothing further to push to an existing socket.
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnknownOption, key)
	}
}

// DoReadMessages waits up to SO_TIMEOUT for read-readiness and, if the
// socket is ready, reads until one complete message (every fragment up to
// SCTP_EOR) has been delivered to sink and fired down the pipeline; it
// delivers at most one message per call. Notifications read on the way are
// dispatched, and a shutdown verdict ends the call without a message. It
// returns without a message when the wait is not selected or when
// readSuspended is true before a read.
func (ch *SctpChannel) DoReadMessages(sink func(SctpMessage)) *pipeline.Future[any] {
	return ch.runOnLoop(func() (any, error) {
		return nil, ch.doReadMessages(sink)
	})
}

func (ch *SctpChannel) doReadMessages(sink func(SctpMessage)) error {
	if ch.readSuspended || ch.ready == nil || ch.ready.read.isClosed() {
		return nil
	}

	rcvBufSize, err := ch.config.GetOption(OptSoRcvbuf)
	if err != nil {
		rcvBufSize = 32768
	}

	for {
		if ch.readSuspended {
			return nil
		}
		buf := make([]byte, rcvBufSize.(int))
		var n int
		var recvFlags int
		var rcvInfo *sctp.RcvInfo
		selected, err := ch.ready.read.waitAndDo(ch.socket.SetReadDeadline, func() error {
			var readErr error
			n, rcvInfo, recvFlags, readErr = ch.socket.ReadMsg(buf)
			return readErr
		})
		if !selected {
			return err
		}
		if err != nil {
			ch.log().WithError(err).Debug("read failed")
			return fmt.Errorf("%w: %v", ErrReadFailed, err)
		}

		if recvFlags&sctp.SCTP_NOTIFICATION != 0 {
			ev, perr := sctp.ParseEvent(buf[:n])
			if perr != nil {
				ch.log().WithError(perr).Debug("failed to parse notification")
				continue
			}
			if ch.dispatchNotification(ev) == verdictReturn {
				return nil
			}
			continue
		}

		if !ch.hasFragment {
			var sid uint16
			var ppid uint32
			var unordered bool
			if rcvInfo != nil {
				sid, ppid = rcvInfo.Sid, rcvInfo.Ppid
				unordered = rcvInfo.Flags&sctp.SCTP_UNORDERED != 0
			}
			ch.fragmentSid, ch.fragmentPpid, ch.fragmentUnordered = sid, ppid, unordered
			ch.hasFragment = true
		}
		ch.fragment = append(ch.fragment, buf[:n]...)

		// A short read clears SCTP_EOR: the kernel has more of this
		// message queued, retrieved by subsequent ReadMsg calls.
		if recvFlags&sctp.SCTP_EOR == 0 {
			continue
		}

		msg := NewSctpMessage(ch.fragment, ch.fragmentSid, ch.fragmentPpid, ch.fragmentUnordered)
		ch.fragment = nil
		ch.hasFragment = false
		sink(msg)
		ch.pipeline.FireMessageReceived(msg)
		return nil
	}
}

// SuspendReads stops doReadMessages from making further kernel calls until
// ResumeReads is called.
func (ch *SctpChannel) SuspendReads()  { ch.readSuspended = true }
func (ch *SctpChannel) ResumeReads()   { ch.readSuspended = false }

// DoWriteMessages waits up to SO_TIMEOUT for write-readiness and, if ready,
// drains up to writeSpinCount messages from source in this one call before
// returning control to the event loop.
func (ch *SctpChannel) DoWriteMessages(source func() (SctpMessage, bool)) *pipeline.Future[any] {
	return ch.runOnLoop(func() (any, error) {
		return nil, ch.doWriteMessages(source)
	})
}

func (ch *SctpChannel) doWriteMessages(source func() (SctpMessage, bool)) error {
	if ch.status != Connected {
		return ErrClosedChannel
	}

	spinCount, err := ch.config.GetOption(OptWriteSpinCount)
	if err != nil {
		spinCount = 1
	}

	for i := 0; i < spinCount.(int); i++ {
		msg, ok := source()
		if !ok {
			return nil
		}
		sent, err := ch.writeOneMessage(msg)
		if err != nil {
			return err
		}
		if !sent {
			// Write-readiness timed out this turn; further spins won't
			// fare any better, so stop and let the caller re-post.
			return nil
		}
	}
	return nil
}

// writeOneMessage sends msg, reporting (true, nil) only once it is actually
// written. (false, nil) means write-readiness timed out this turn and msg
// was not sent.
func (ch *SctpChannel) writeOneMessage(msg SctpMessage) (bool, error) {
	info := &sctp.SndInfo{Sid: msg.StreamID(), Ppid: msg.ProtocolID()}
	if msg.Unordered() {
		info.Flags |= sctp.SCTP_UNORDERED
	}

	var n int
	selected, err := ch.ready.write.waitAndDo(ch.socket.SetWriteDeadline, func() error {
		var writeErr error
		n, writeErr = ch.socket.WriteMsgExt(msg.Payload(), info, nil, 0)
		return writeErr
	})
	if !selected {
		return false, err
	}
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	if n != len(msg.Payload()) {
		return false, fmt.Errorf("%w: short write %d/%d bytes", ErrWriteFailed, n, len(msg.Payload()))
	}
	return true, nil
}

// Disconnect is equivalent to Close for an SCTP association.
func (ch *SctpChannel) Disconnect() *pipeline.Future[any] {
	return ch.runOnLoop(func() (any, error) {
		ch.doClose()
		return nil, nil
	})
}

// Close tears the channel down: closes all three pollers independently,
// then the socket. Idempotent.
func (ch *SctpChannel) Close() *pipeline.Future[any] {
	return ch.runOnLoop(func() (any, error) {
		ch.doClose()
		return nil, nil
	})
}

func (ch *SctpChannel) doClose() {
	if ch.status == Closed {
		return
	}
	wasConnected := ch.status == Connected
	ch.status = Closed

	if ch.ready != nil {
		if err := ch.ready.closeAll(); err != nil {
			ch.log().WithError(err).Warn("closing pollers reported errors")
		}
	}
	if ch.socket != nil {
		if err := ch.socket.Close(); err != nil {
			ch.log().WithError(err).Warn("closing socket failed")
		}
	}
	ch.assoc = nil

	if wasConnected {
		ch.pipeline.FireChannelInactive()
	}
	ch.log().Debug("closed")
}
