package channel

import (
	"net"
	"time"

	sctp "github.com/georgeyanev/sctp-channel"
)

// kernelSocket is the narrow surface the channel state machine depends on.
// *sctp.SCTPConn satisfies it structurally, so tests can substitute a fake
// without a real kernel SCTP stack.
type kernelSocket interface {
	ReadMsg(b []byte) (n int, rcvInfo *sctp.RcvInfo, recvFlags int, err error)
	WriteMsgExt(b []byte, info *sctp.SndInfo, to *net.IPAddr, flags int) (int, error)

	BindAddSCTP(laddr *sctp.SCTPAddr) error
	BindRemoveSCTP(laddr *sctp.SCTPAddr) error

	Subscribe(event ...sctp.EventType) error

	LocalAddr() net.Addr
	RemoteAddr() net.Addr
	RefreshLocalAddr() (*sctp.SCTPAddr, error)
	RefreshRemoteAddr() (*sctp.SCTPAddr, error)

	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error

	SetNoDelay(bool) error
	SetLinger(sec int) error
	GetReadBuffer() (int, error)
	GetWriteBuffer() (int, error)

	Close() error
}

var _ kernelSocket = (*sctp.SCTPConn)(nil)

// subscribedEvents is the fixed notification set every channel subscribes
// to once connected; the taxonomy in notification.go only knows how to
// decode these.
var subscribedEvents = []sctp.EventType{
	sctp.SCTP_ASSOC_CHANGE,
	sctp.SCTP_PEER_ADDR_CHANGE,
	sctp.SCTP_SEND_FAILED_EVENT,
	sctp.SCTP_REMOTE_ERROR,
	sctp.SCTP_SHUTDOWN_EVENT,
	sctp.SCTP_ADAPTATION_INDICATION,
	sctp.SCTP_SENDER_DRY_EVENT,
}

// parseSCTPAddr accepts a "host1/host2:port"-style multi-homing address
// string and resolves it the same way the low-level Dial/Listen entry
// points do.
func parseSCTPAddr(network, address string) (*sctp.SCTPAddr, error) {
	return sctp.ResolveSCTPAddr(network, address)
}
