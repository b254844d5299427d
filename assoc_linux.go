//go:build linux

package sctp

import (
	"net"
	"os"
	"syscall"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	_SCTP_EVENTS = 11
	_SCTP_STATUS = 14
)

// InitOptions provides information for initializing new SCTP associations,
// plus the peer-addr-level knobs that apply once an association exists.
type InitOptions struct {
	// number of streams to which the application wishes to be able to send, 10 by default
	NumOstreams uint16
	// maximum number of inbound streams the application is prepared to support, 10 by default
	MaxInstreams uint16
	// how many attempts the SCTP endpoint should make at resending the INIT
	MaxAttempts uint16
	// largest timeout or retransmission timeout (RTO), in milliseconds, to use in attempting an INIT
	MaxInitTimeout uint16

	// Heartbeat sets the heartbeat interval on the association once established.
	// Zero leaves the kernel default in place.
	Heartbeat time.Duration

	// AdaptationIndicationEnabled requests that AdaptationIndication be sent
	// to the peer in the INIT/INIT-ACK, per RFC5061.
	AdaptationIndicationEnabled bool
	AdaptationIndication        uint32
}

func (o InitOptions) initMsg() *InitMsg {
	return &InitMsg{
		NumOstreams:    o.NumOstreams,
		MaxInstreams:   o.MaxInstreams,
		MaxAttempts:    o.MaxAttempts,
		MaxInitTimeout: o.MaxInitTimeout,
	}
}

// sctpEventSubscribe mirrors struct sctp_event_subscribe; every field is a
// boolean toggle (0/1) for one notification category.
type sctpEventSubscribe struct {
	DataIO            uint8
	Association       uint8
	Address           uint8
	SendFailure       uint8
	PeerError         uint8
	Shutdown          uint8
	PartialDelivery   uint8
	AdaptationLayer   uint8
	Authentication    uint8
	SenderDry         uint8
	StreamReset       uint8
}

func (fd *sctpFD) getEvents() (sctpEventSubscribe, error) {
	var sub sctpEventSubscribe
	buf := unsafe.Slice((*byte)(unsafe.Pointer(&sub)), unsafe.Sizeof(sub))
	var err error
	doErr := fd.rc.Control(func(s uintptr) {
		err = getsockoptBytes(int(s), unix.IPPROTO_SCTP, _SCTP_EVENTS, buf)
	})
	if doErr != nil {
		return sub, doErr
	}
	if err != nil {
		return sub, os.NewSyscallError("getsockopt", err)
	}
	return sub, nil
}

func (fd *sctpFD) setEvents(sub sctpEventSubscribe) error {
	buf := unsafe.Slice((*byte)(unsafe.Pointer(&sub)), unsafe.Sizeof(sub))
	var err error
	doErr := fd.rc.Control(func(s uintptr) {
		err = unix.SetsockoptString(int(s), unix.IPPROTO_SCTP, _SCTP_EVENTS, string(buf))
	})
	if doErr != nil {
		return doErr
	}
	if err != nil {
		return os.NewSyscallError("setsockopt", err)
	}
	return nil
}

// subscribe toggles a single notification category on or off. It is a
// read-modify-write over SCTP_EVENTS since the kernel only exposes the
// subscription mask as a whole.
func (fd *sctpFD) subscribe(event EventType, enabled bool) error {
	if !fd.initialized() {
		return errEINVAL
	}
	sub, err := fd.getEvents()
	if err != nil {
		pkgLog.WithError(err).WithField("optName", _SCTP_EVENTS).Debug("getsockopt failed")
		return err
	}

	var on uint8
	if enabled {
		on = 1
	}
	switch event {
	case SCTP_ASSOC_CHANGE:
		sub.Association = on
	case SCTP_PEER_ADDR_CHANGE:
		sub.Address = on
	case SCTP_SEND_FAILED_EVENT:
		sub.SendFailure = on
	case SCTP_REMOTE_ERROR:
		sub.PeerError = on
	case SCTP_SHUTDOWN_EVENT:
		sub.Shutdown = on
	case SCTP_PARTIAL_DELIVERY_EVENT:
		sub.PartialDelivery = on
	case SCTP_ADAPTATION_INDICATION:
		sub.AdaptationLayer = on
	case SCTP_AUTHENTICATION_EVENT:
		sub.Authentication = on
	case SCTP_SENDER_DRY_EVENT:
		sub.SenderDry = on
	case SCTP_STREAM_RESET_EVENT, SCTP_ASSOC_RESET_EVENT, SCTP_STREAM_CHANGE_EVENT:
		sub.StreamReset = on
	default:
		return errEINVAL
	}

	if err := fd.setEvents(sub); err != nil {
		pkgLog.WithError(err).WithField("optName", _SCTP_EVENTS).Debug("setsockopt failed")
		return err
	}
	return nil
}

// setLinger implements SO_LINGER the way SCTP's man pages document it: a
// negative value restores the graceful-shutdown default.
func (fd *sctpFD) setLinger(sec int) error {
	if !fd.initialized() {
		return errEINVAL
	}
	l := syscall.Linger{}
	if sec < 0 {
		l.Onoff = 0
	} else {
		l.Onoff = 1
		l.Linger = int32(sec)
	}
	var err error
	doErr := fd.rc.Control(func(s uintptr) {
		err = syscall.SetsockoptLinger(int(s), syscall.SOL_SOCKET, syscall.SO_LINGER, &l)
	})
	if doErr != nil {
		return doErr
	}
	if err != nil {
		return os.NewSyscallError("setsockopt", err)
	}
	return nil
}

func (fd *sctpFD) closeRead() error {
	if !fd.initialized() {
		return errEINVAL
	}
	var err error
	doErr := fd.rc.Control(func(s uintptr) {
		err = syscall.Shutdown(int(s), syscall.SHUT_RD)
	})
	if doErr != nil {
		return doErr
	}
	if err != nil {
		return os.NewSyscallError("shutdown", err)
	}
	return nil
}

func (fd *sctpFD) closeWrite() error {
	if !fd.initialized() {
		return errEINVAL
	}
	var err error
	doErr := fd.rc.Control(func(s uintptr) {
		err = syscall.Shutdown(int(s), syscall.SHUT_WR)
	})
	if doErr != nil {
		return doErr
	}
	if err != nil {
		return os.NewSyscallError("shutdown", err)
	}
	return nil
}

func (fd *sctpFD) getWriteBuffer() (int, error) {
	if !fd.initialized() {
		return 0, errEINVAL
	}
	var err error
	var size int
	doErr := fd.rc.Control(func(s uintptr) {
		size, err = unix.GetsockoptInt(int(s), unix.SOL_SOCKET, unix.SO_SNDBUF)
	})
	if doErr != nil {
		return 0, doErr
	}
	if err != nil {
		return 0, os.NewSyscallError("getsockopt", err)
	}
	return size, nil
}

func (fd *sctpFD) getReadBuffer() (int, error) {
	if !fd.initialized() {
		return 0, errEINVAL
	}
	var err error
	var size int
	doErr := fd.rc.Control(func(s uintptr) {
		size, err = unix.GetsockoptInt(int(s), unix.SOL_SOCKET, unix.SO_RCVBUF)
	})
	if doErr != nil {
		return 0, doErr
	}
	if err != nil {
		return 0, os.NewSyscallError("getsockopt", err)
	}
	return size, nil
}

// Status mirrors struct sctp_status (RFC 6458 §8.2.1), as returned by
// SCTP_STATUS. Primary is the peer address passed by the caller (nil when
// none was passed); the kernel's reported primary address is not decoded.
type Status struct {
	AssocId       int32
	State         int32
	Rwnd          uint32
	UnackData     uint16
	PendingData   uint16
	InStreams     uint16
	OutStreams    uint16
	FragPoint     uint32
	PrimaryPeriod uint32
	Primary       *net.IPAddr
}

// rawStatus matches the kernel's struct sctp_status layout exactly; the
// address field is a sockaddr_storage, which is not decoded into a Go
// net.IPAddr.
type rawStatus struct {
	AssocId     int32
	State       int32
	Rwnd        uint32
	UnackData   uint16
	PendingData uint16
	InStreams   uint16
	OutStreams  uint16
	FragPoint   uint32
	Primary     sctpPaddrInfo
}

// sctpPaddrInfo mirrors struct sctp_paddrinfo, embedded in sctp_status.
type sctpPaddrInfo struct {
	AssocId int32
	Address [128]byte // sockaddr_storage
	State   int32
	Cwnd    uint32
	Srtt    uint32
	Rto     uint32
	Mtu     uint32
}

func (fd *sctpFD) status(to *net.IPAddr) (*Status, error) {
	if !fd.initialized() {
		return nil, errEINVAL
	}
	var raw rawStatus
	buf := unsafe.Slice((*byte)(unsafe.Pointer(&raw)), unsafe.Sizeof(raw))
	var err error
	doErr := fd.rc.Control(func(s uintptr) {
		err = getsockoptBytes(int(s), unix.IPPROTO_SCTP, _SCTP_STATUS, buf)
	})
	if doErr != nil {
		return nil, doErr
	}
	if err != nil {
		return nil, os.NewSyscallError("getsockopt", err)
	}
	return &Status{
		AssocId:       raw.AssocId,
		State:         raw.State,
		Rwnd:          raw.Rwnd,
		UnackData:     raw.UnackData,
		PendingData:   raw.PendingData,
		InStreams:     raw.InStreams,
		OutStreams:    raw.OutStreams,
		FragPoint:     raw.FragPoint,
		PrimaryPeriod: raw.Primary.Rto,
		Primary:       to,
	}, nil
}

// AssocParams mirrors struct sctp_assocparams (RFC 6458 §5.3.1), the
// association-level tunables exposed through SCTP_ASSOCINFO.
type AssocParams struct {
	AssocId          int32
	AssocMaxRxt      uint16
	PeerDestinations uint16
	PeerRwnd         uint32
	LocalRwnd        uint32
	CookieLife       uint32
}

const _SCTP_ASSOCINFO = 1

func (fd *sctpFD) assocInfo() (*AssocParams, error) {
	if !fd.initialized() {
		return nil, errEINVAL
	}
	var p AssocParams
	buf := unsafe.Slice((*byte)(unsafe.Pointer(&p)), unsafe.Sizeof(p))
	var err error
	doErr := fd.rc.Control(func(s uintptr) {
		err = getsockoptBytes(int(s), unix.IPPROTO_SCTP, _SCTP_ASSOCINFO, buf)
	})
	if doErr != nil {
		return nil, doErr
	}
	if err != nil {
		return nil, os.NewSyscallError("getsockopt", err)
	}
	return &p, nil
}

func (fd *sctpFD) setCookieLife(d time.Duration) error {
	if !fd.initialized() {
		return errEINVAL
	}
	p, err := fd.assocInfo()
	if err != nil {
		return err
	}
	p.CookieLife = uint32(d / time.Millisecond)
	buf := unsafe.Slice((*byte)(unsafe.Pointer(p)), unsafe.Sizeof(*p))
	doErr := fd.rc.Control(func(s uintptr) {
		err = unix.SetsockoptString(int(s), unix.IPPROTO_SCTP, _SCTP_ASSOCINFO, string(buf))
	})
	if doErr != nil {
		return doErr
	}
	if err != nil {
		return os.NewSyscallError("setsockopt", err)
	}
	return nil
}

// sctpPaddrParams mirrors struct sctp_paddrparams (RFC 6458 §5.3.2), used to
// read and write the peer heartbeat interval through SCTP_PEER_ADDR_PARAMS.
type sctpPaddrParams struct {
	AssocId    int32
	Address    [128]byte
	HbInterval uint32
	PathMaxRxt uint16
	PathMtu    uint32
	SackDelay  uint32
	Flags      uint32
}

const (
	_SCTP_PEER_ADDR_PARAMS = 9
	_SPP_HB_ENABLE         = 1 << 0
	_SPP_HB_DISABLE        = 1 << 1
)

// setHeartbeat sets the heartbeat interval applied to every peer address of
// the association; per-address targeting via to is not supported by this
// implementation and the argument is accepted only for interface symmetry
// with SCTP_GET_PEER_ADDR_INFO-style calls.
func (fd *sctpFD) setHeartbeat(d time.Duration, to *net.IPAddr) error {
	if !fd.initialized() {
		return errEINVAL
	}
	params := sctpPaddrParams{HbInterval: uint32(d / time.Millisecond)}
	if d > 0 {
		params.Flags = _SPP_HB_ENABLE
	} else {
		params.Flags = _SPP_HB_DISABLE
	}
	buf := unsafe.Slice((*byte)(unsafe.Pointer(&params)), unsafe.Sizeof(params))
	var err error
	doErr := fd.rc.Control(func(s uintptr) {
		err = unix.SetsockoptString(int(s), unix.IPPROTO_SCTP, _SCTP_PEER_ADDR_PARAMS, string(buf))
	})
	if doErr != nil {
		return doErr
	}
	if err != nil {
		return os.NewSyscallError("setsockopt", err)
	}
	return nil
}

// newSCTPConn wraps fd into a SCTPConn, applying the heartbeat interval
// negotiated through InitOptions once the association exists. Failure to
// apply it is logged but does not fail the dial/accept, matching the
// best-effort treatment SCTP_NODELAY (setNoDelay) already gets above.
func newSCTPConn(fd *sctpFD, heartbeat time.Duration) *SCTPConn {
	_ = fd.setNoDelay(true)
	if heartbeat > 0 {
		if err := fd.setHeartbeat(heartbeat, nil); err != nil {
			pkgLog.WithError(err).Debug("setHeartbeat failed")
		}
	}
	return &SCTPConn{conn{fd: fd}}
}

// Status returns the kernel's current view of the association state,
// stream counts and congestion window.
func (c *SCTPConn) Status() (*Status, error) {
	if !c.ok() {
		return nil, errEINVAL
	}
	st, err := c.fd.status(nil)
	if err != nil {
		return nil, &net.OpError{Op: "get", Net: c.fd.net, Source: c.fd.laddr.Load(), Addr: c.fd.raddr.Load(), Err: err}
	}
	return st, nil
}

// SetCookieLife sets the lifespan, in d, of the cookie sent by a listener
// during association setup.
func (c *SCTPConn) SetCookieLife(d time.Duration) error {
	if !c.ok() {
		return errEINVAL
	}
	if err := c.fd.setCookieLife(d); err != nil {
		return &net.OpError{Op: "set", Net: c.fd.net, Source: c.fd.laddr.Load(), Addr: c.fd.raddr.Load(), Err: err}
	}
	return nil
}

// SetHeartbeat sets the heartbeat interval used to probe idle paths.
func (c *SCTPConn) SetHeartbeat(d time.Duration) error {
	if !c.ok() {
		return errEINVAL
	}
	if err := c.fd.setHeartbeat(d, nil); err != nil {
		return &net.OpError{Op: "set", Net: c.fd.net, Source: c.fd.laddr.Load(), Addr: c.fd.raddr.Load(), Err: err}
	}
	return nil
}

// AssocInfo returns the association-level parameters negotiated with the peer.
func (c *SCTPConn) AssocInfo() (*AssocParams, error) {
	if !c.ok() {
		return nil, errEINVAL
	}
	p, err := c.fd.assocInfo()
	if err != nil {
		return nil, &net.OpError{Op: "get", Net: c.fd.net, Source: c.fd.laddr.Load(), Addr: c.fd.raddr.Load(), Err: err}
	}
	return p, nil
}
