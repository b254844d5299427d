package channel

import (
	"net"
	"time"

	sctp "github.com/georgeyanev/sctp-channel"
)

// fakeKernelSocket is an in-memory stand-in for *sctp.SCTPConn, letting the
// channel state machine be driven without a real kernel SCTP stack.
type fakeKernelSocket struct {
	local, remote net.Addr

	readQueue []fakeRead
	readErr   error

	writes  [][]byte
	writeErr error

	noDelay    *bool
	linger     *int
	closed     bool
	boundAdded []*sctp.SCTPAddr
}

type fakeRead struct {
	data  []byte
	flags int
}

func newFakeKernelSocket() *fakeKernelSocket {
	return &fakeKernelSocket{
		local: &sctp.SCTPAddr{
			IPAddrs: []net.IPAddr{{IP: net.ParseIP("127.0.0.1")}},
			Port:    1000,
		},
		remote: &sctp.SCTPAddr{
			IPAddrs: []net.IPAddr{{IP: net.ParseIP("127.0.0.1")}},
			Port:    2000,
		},
	}
}

func (f *fakeKernelSocket) ReadMsg(b []byte) (int, *sctp.RcvInfo, int, error) {
	if len(f.readQueue) == 0 {
		if f.readErr != nil {
			return 0, nil, 0, f.readErr
		}
		return 0, nil, 0, errTimeoutLike{}
	}
	r := f.readQueue[0]
	f.readQueue = f.readQueue[1:]
	n := copy(b, r.data)
	return n, &sctp.RcvInfo{}, r.flags, nil
}

func (f *fakeKernelSocket) WriteMsgExt(b []byte, _ *sctp.SndInfo, _ *net.IPAddr, _ int) (int, error) {
	if f.writeErr != nil {
		return 0, f.writeErr
	}
	cp := make([]byte, len(b))
	copy(cp, b)
	f.writes = append(f.writes, cp)
	return len(b), nil
}

func (f *fakeKernelSocket) BindAddSCTP(laddr *sctp.SCTPAddr) error {
	f.boundAdded = append(f.boundAdded, laddr)
	if la, ok := f.local.(*sctp.SCTPAddr); ok {
		la.IPAddrs = append(la.IPAddrs, laddr.IPAddrs...)
	}
	return nil
}

func (f *fakeKernelSocket) BindRemoveSCTP(laddr *sctp.SCTPAddr) error {
	la, ok := f.local.(*sctp.SCTPAddr)
	if !ok {
		return nil
	}
	for _, rm := range laddr.IPAddrs {
		for i, have := range la.IPAddrs {
			if have.IP.Equal(rm.IP) {
				la.IPAddrs = append(la.IPAddrs[:i], la.IPAddrs[i+1:]...)
				break
			}
		}
	}
	return nil
}

func (f *fakeKernelSocket) Subscribe(event ...sctp.EventType) error { return nil }

func (f *fakeKernelSocket) LocalAddr() net.Addr  { return f.local }
func (f *fakeKernelSocket) RemoteAddr() net.Addr { return f.remote }

func (f *fakeKernelSocket) RefreshLocalAddr() (*sctp.SCTPAddr, error) {
	sa, _ := f.local.(*sctp.SCTPAddr)
	return sa, nil
}

func (f *fakeKernelSocket) RefreshRemoteAddr() (*sctp.SCTPAddr, error) {
	sa, _ := f.remote.(*sctp.SCTPAddr)
	return sa, nil
}

func (f *fakeKernelSocket) SetReadDeadline(t time.Time) error  { return nil }
func (f *fakeKernelSocket) SetWriteDeadline(t time.Time) error { return nil }

func (f *fakeKernelSocket) SetNoDelay(b bool) error { f.noDelay = &b; return nil }
func (f *fakeKernelSocket) SetLinger(sec int) error { f.linger = &sec; return nil }

func (f *fakeKernelSocket) GetReadBuffer() (int, error)  { return 32768, nil }
func (f *fakeKernelSocket) GetWriteBuffer() (int, error) { return 32768, nil }

func (f *fakeKernelSocket) Close() error { f.closed = true; return nil }

var _ kernelSocket = (*fakeKernelSocket)(nil)

// errTimeoutLike mimics os.ErrDeadlineExceeded closely enough for isTimeout:
// it implements net.Error with Timeout() == true.
type errTimeoutLike struct{}

func (errTimeoutLike) Error() string   { return "i/o timeout" }
func (errTimeoutLike) Timeout() bool   { return true }
func (errTimeoutLike) Temporary() bool { return true }
